package core

import (
	"errors"
	"fmt"
)

// Course type identifiers used by the catalog payloads.
const (
	TypeMandatory       = 1
	TypeForeignLanguage = 2
	TypeElectiveA       = 3
	TypeElectiveB       = 4
	TypeOptional        = 5
)

// Completion identifiers used by the catalog payloads.
const (
	CompletionCredit        = 1 // ZA
	CompletionGradedCredit  = 2 // KZ
	CompletionExam          = 3 // ZK
	CompletionCreditAndExam = 4 // Z,ZK
)

// SemesterCount is the number of semesters the study plan spans.
const SemesterCount = 6

type (
	// Department is immutable reference data describing a teaching department.
	Department struct {
		DepartmentID int    `json:"department_id"`
		Code         string `json:"department_code"`
		Name         string `json:"department_name"`
	}

	// CourseType is one of the five classification buckets for courses.
	CourseType struct {
		TypeID      int     `json:"type_id"`
		TypeCode    string  `json:"type_code"`
		Description *string `json:"description,omitempty"`
	}

	// CompletionType describes how a course is completed (credit, exam, both).
	CompletionType struct {
		CompletionID   int     `json:"completion_id"`
		CompletionCode string  `json:"completion_code"`
		Description    *string `json:"description,omitempty"`
	}

	// Course is a catalog entry. IsTaken and SemesterTaken are the only
	// fields mutated after seeding; everything else is write-once.
	// Optional payload fields are pointers so absent stays distinct from a
	// present zero.
	Course struct {
		CourseID        string  `json:"course_id"`
		Name            string  `json:"name"`
		Abbreviation    *string `json:"abbreviation,omitempty"`
		TypeID          int     `json:"type_id"`
		TeachingMethod  *string `json:"teaching_method,omitempty"`
		Semester        *int    `json:"semester,omitempty"`
		WeeklyLectures  *int    `json:"weekly_lectures,omitempty"`
		WeeklyExercises *int    `json:"weekly_exercises,omitempty"`
		Credits         *int    `json:"credits,omitempty"`
		CompletionID    int     `json:"completion_id"`
		DepartmentID    int     `json:"department_id"`
		IsTaken         bool    `json:"-"`
		SemesterTaken   int     `json:"-"`
	}

	// CourseCompletionStat holds historical attendance and grading numbers
	// for one offering term of a course. Absent counts mean "no data", not
	// zero, which is why every measured field is a pointer.
	CourseCompletionStat struct {
		StatID              int      `json:"stats_id"`
		CourseID            string   `json:"course_id"`
		Term                *int     `json:"term,omitempty"`
		TotalAttended       *int     `json:"total_attended,omitempty"`
		TotalCompleted      *int     `json:"total_completed,omitempty"`
		CompletedWithCredit *int     `json:"completed_with_credit,omitempty"`
		CompletedWithExam   *int     `json:"completed_with_exam,omitempty"`
		GradeARate          *float64 `json:"grade_a_rate,omitempty"`
		GradeBRate          *float64 `json:"grade_b_rate,omitempty"`
		GradeCRate          *float64 `json:"grade_c_rate,omitempty"`
		GradeDRate          *float64 `json:"grade_d_rate,omitempty"`
		GradeERate          *float64 `json:"grade_e_rate,omitempty"`
	}

	// CourseDetail carries the long-form description of a course.
	// Zero or one row per course.
	CourseDetail struct {
		DetailID   int     `json:"detail_id"`
		CourseID   string  `json:"course_id"`
		Syllabus   *string `json:"syllabus,omitempty"`
		Literature *string `json:"literature,omitempty"`
		Annotation *string `json:"annotation,omitempty"`
		Guarantor  *string `json:"guarantor,omitempty"`
		Credits    *int    `json:"credits,omitempty"`
	}

	// StudyPlanEntry marks a course as a member of the active study plan.
	// The IsTaken flag on the course remains authoritative for derived
	// views; plan entries are a membership marker only.
	StudyPlanEntry struct {
		ID       int64
		CourseID string
	}
)

var (
	ErrEmptyCourseID       = errors.New("empty course id")
	ErrEmptyName           = errors.New("empty name")
	ErrEmptyCode           = errors.New("empty code")
	ErrInvalidTypeID       = errors.New("type id out of range")
	ErrInvalidCompletionID = errors.New("completion id out of range")
	ErrNegativeCredits     = errors.New("negative credits")
	ErrNegativeCount       = errors.New("negative count")
	ErrRateOutOfRange      = errors.New("grade rate out of range")
)

func (d Department) Validate() error {
	if d.DepartmentID == 0 {
		return errors.New("missing department id")
	}
	if d.Code == "" {
		return ErrEmptyCode
	}
	if d.Name == "" {
		return ErrEmptyName
	}
	return nil
}

func (t CourseType) Validate() error {
	if t.TypeID < TypeMandatory || t.TypeID > TypeOptional {
		return fmt.Errorf("%w: %d", ErrInvalidTypeID, t.TypeID)
	}
	if t.TypeCode == "" {
		return ErrEmptyCode
	}
	return nil
}

func (c CompletionType) Validate() error {
	if c.CompletionID < CompletionCredit || c.CompletionID > CompletionCreditAndExam {
		return fmt.Errorf("%w: %d", ErrInvalidCompletionID, c.CompletionID)
	}
	if c.CompletionCode == "" {
		return ErrEmptyCode
	}
	return nil
}

func (c Course) Validate() error {
	if c.CourseID == "" {
		return ErrEmptyCourseID
	}
	if c.Name == "" {
		return ErrEmptyName
	}
	if c.TypeID < TypeMandatory || c.TypeID > TypeOptional {
		return fmt.Errorf("%w: %d", ErrInvalidTypeID, c.TypeID)
	}
	if c.CompletionID < CompletionCredit || c.CompletionID > CompletionCreditAndExam {
		return fmt.Errorf("%w: %d", ErrInvalidCompletionID, c.CompletionID)
	}
	if c.Credits != nil && *c.Credits < 0 {
		return ErrNegativeCredits
	}
	if c.WeeklyLectures != nil && *c.WeeklyLectures < 0 {
		return ErrNegativeCount
	}
	if c.WeeklyExercises != nil && *c.WeeklyExercises < 0 {
		return ErrNegativeCount
	}
	return nil
}

func (s CourseCompletionStat) Validate() error {
	if s.StatID == 0 {
		return errors.New("missing stat id")
	}
	if s.CourseID == "" {
		return ErrEmptyCourseID
	}
	for _, n := range []*int{s.TotalAttended, s.TotalCompleted, s.CompletedWithCredit, s.CompletedWithExam} {
		if n != nil && *n < 0 {
			return ErrNegativeCount
		}
	}
	for _, r := range []*float64{s.GradeARate, s.GradeBRate, s.GradeCRate, s.GradeDRate, s.GradeERate} {
		if r != nil && (*r < 0 || *r > 1) {
			return ErrRateOutOfRange
		}
	}
	return nil
}

func (d CourseDetail) Validate() error {
	if d.DetailID == 0 {
		return errors.New("missing detail id")
	}
	if d.CourseID == "" {
		return ErrEmptyCourseID
	}
	if d.Credits != nil && *d.Credits < 0 {
		return ErrNegativeCredits
	}
	return nil
}

// CreditsOrZero treats an absent credit value as zero for aggregation.
func (c Course) CreditsOrZero() int {
	if c.Credits == nil {
		return 0
	}
	return *c.Credits
}

// TypeCode returns the short classification code used on transcripts.
func TypeCode(typeID int) string {
	switch typeID {
	case TypeMandatory:
		return "P"
	case TypeForeignLanguage:
		return "CJ"
	case TypeElectiveA:
		return "PV A"
	case TypeElectiveB:
		return "PV B"
	case TypeOptional:
		return "V"
	default:
		return "Unknown"
	}
}

// TypeDescription returns the human-readable course type name.
func TypeDescription(typeID int) string {
	switch typeID {
	case TypeMandatory:
		return "Mandatory"
	case TypeForeignLanguage:
		return "Foreign Language"
	case TypeElectiveA:
		return "Elective A"
	case TypeElectiveB:
		return "Elective B"
	case TypeOptional:
		return "Optional Subject"
	default:
		return "Unknown Type"
	}
}

// CompletionCode returns the short completion code used on transcripts.
func CompletionCode(completionID int) string {
	switch completionID {
	case CompletionCredit:
		return "ZA"
	case CompletionGradedCredit:
		return "KZ"
	case CompletionExam:
		return "ZK"
	case CompletionCreditAndExam:
		return "Z,ZK"
	default:
		return "Unknown"
	}
}
