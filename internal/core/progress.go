package core

import "sort"

// Credit requirements of the study programme.
const (
	RequiredElectiveA = 32
	RequiredElectiveB = 12
	RequiredOptional  = 15
	RequiredTotal     = 180
)

// Category names as shown on the progress dashboard.
const (
	CategoryElectiveA = "Elective A"
	CategoryElectiveB = "Elective B"
	CategoryOptional  = "Optional"
	CategoryTotal     = "Total"
)

// Labels for completion series points.
const (
	LabelAttended  = "Attended"
	LabelCompleted = "Completed"
)

// Grade labels for the five-point distribution.
var GradeLabels = [5]string{"A", "B", "C", "D", "E"}

type (
	// CreditSummary reports earned credits against the requirement of one
	// category. TypeID is zero for the Total category.
	CreditSummary struct {
		Category string
		TypeID   int
		Taken    int
		Required int
		Overdue  int
	}

	// SemesterPlan lists the taken courses of one semester and their
	// combined credits.
	SemesterPlan struct {
		Semester     int
		Courses      []Course
		TotalCredits int
	}

	// StatPoint is one attended/completed data point of a term series.
	StatPoint struct {
		Term  int
		Label string
		Value int
	}

	// GradePoint is one grade of a term's distribution.
	GradePoint struct {
		Grade string
		Rate  float64
	}

	// GradeSeries is the five-point A..E distribution of one term.
	GradeSeries struct {
		Term   int
		Points []GradePoint
	}
)

// TakenCreditsByType sums credits over taken courses of one type.
// Absent credits count as zero.
func TakenCreditsByType(courses []Course, typeID int) int {
	sum := 0
	for _, c := range courses {
		if c.IsTaken && c.TypeID == typeID {
			sum += c.CreditsOrZero()
		}
	}
	return sum
}

// TakenCredits sums credits over all taken courses regardless of type.
func TakenCredits(courses []Course) int {
	sum := 0
	for _, c := range courses {
		if c.IsTaken {
			sum += c.CreditsOrZero()
		}
	}
	return sum
}

// Overdue is the number of credits taken beyond the requirement,
// never negative.
func Overdue(taken, required int) int {
	if excess := taken - required; excess > 0 {
		return excess
	}
	return 0
}

// SummarizeCredits derives the four dashboard categories from the current
// course state. Foreign-language credits feed the Total row but have no
// category row of their own; use TakenCreditsByType to read them.
func SummarizeCredits(courses []Course) []CreditSummary {
	rows := []struct {
		category string
		typeID   int
		required int
	}{
		{CategoryElectiveA, TypeElectiveA, RequiredElectiveA},
		{CategoryElectiveB, TypeElectiveB, RequiredElectiveB},
		{CategoryOptional, TypeOptional, RequiredOptional},
		{CategoryTotal, 0, RequiredTotal},
	}

	summaries := make([]CreditSummary, 0, len(rows))
	for _, row := range rows {
		taken := 0
		if row.typeID == 0 {
			taken = TakenCredits(courses)
		} else {
			taken = TakenCreditsByType(courses, row.typeID)
		}
		summaries = append(summaries, CreditSummary{
			Category: row.category,
			TypeID:   row.typeID,
			Taken:    taken,
			Required: row.required,
			Overdue:  Overdue(taken, row.required),
		})
	}
	return summaries
}

// PlanBySemester groups the taken courses into semesters 1..SemesterCount.
// A semester entry is present even when empty. Courses within a semester
// are sorted by name for stable output.
func PlanBySemester(courses []Course) []SemesterPlan {
	plans := make([]SemesterPlan, 0, SemesterCount)
	for s := 1; s <= SemesterCount; s++ {
		plan := SemesterPlan{Semester: s}
		for _, c := range courses {
			if c.IsTaken && c.Semester != nil && *c.Semester == s {
				plan.Courses = append(plan.Courses, c)
				plan.TotalCredits += c.CreditsOrZero()
			}
		}
		sort.Slice(plan.Courses, func(i, j int) bool {
			return plan.Courses[i].Name < plan.Courses[j].Name
		})
		plans = append(plans, plan)
	}
	return plans
}

// CompletionSeries flattens stat rows into attended/completed points.
// Rows without a term are skipped entirely; within a row, a point is
// emitted only when its count is present. No data never becomes zero.
func CompletionSeries(stats []CourseCompletionStat) []StatPoint {
	var points []StatPoint
	for _, s := range stats {
		if s.Term == nil {
			continue
		}
		if s.TotalAttended != nil {
			points = append(points, StatPoint{Term: *s.Term, Label: LabelAttended, Value: *s.TotalAttended})
		}
		if s.TotalCompleted != nil {
			points = append(points, StatPoint{Term: *s.Term, Label: LabelCompleted, Value: *s.TotalCompleted})
		}
	}
	return points
}

// hasGradeRates reports whether at least one of the five rates is present.
func hasGradeRates(s CourseCompletionStat) bool {
	return s.GradeARate != nil || s.GradeBRate != nil ||
		s.GradeCRate != nil || s.GradeDRate != nil || s.GradeERate != nil
}

func rateOrZero(r *float64) float64 {
	if r == nil {
		return 0
	}
	return *r
}

// GradeDistribution builds one five-point series per term. A term emits a
// series only when at least one grade rate is present; inside an emitted
// series, absent rates render as zero. Rows without a term are skipped.
func GradeDistribution(stats []CourseCompletionStat) []GradeSeries {
	var series []GradeSeries
	for _, s := range stats {
		if s.Term == nil || !hasGradeRates(s) {
			continue
		}
		rates := [5]float64{
			rateOrZero(s.GradeARate),
			rateOrZero(s.GradeBRate),
			rateOrZero(s.GradeCRate),
			rateOrZero(s.GradeDRate),
			rateOrZero(s.GradeERate),
		}
		points := make([]GradePoint, 0, len(rates))
		for i, r := range rates {
			points = append(points, GradePoint{Grade: GradeLabels[i], Rate: r})
		}
		series = append(series, GradeSeries{Term: *s.Term, Points: points})
	}
	return series
}
