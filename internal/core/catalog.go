package core

import (
	"errors"
	"fmt"
)

var (
	ErrDuplicateID       = errors.New("duplicate identity")
	ErrDanglingReference = errors.New("dangling reference")
	ErrDuplicateDetail   = errors.New("more than one detail row for course")
)

// Catalog bundles the immutable reference collections produced by one
// seeding pass.
type Catalog struct {
	Departments     []Department
	CourseTypes     []CourseType
	CompletionTypes []CompletionType
	Courses         []Course
	Stats           []CourseCompletionStat
	Details         []CourseDetail
}

// ValidateIntegrity checks identity uniqueness and that every
// foreign-key-like field resolves to a row of the referenced collection.
// Courses must be validated per-record before calling this.
func (c Catalog) ValidateIntegrity() error {
	departments := make(map[int]bool, len(c.Departments))
	for _, d := range c.Departments {
		if departments[d.DepartmentID] {
			return fmt.Errorf("%w: department %d", ErrDuplicateID, d.DepartmentID)
		}
		departments[d.DepartmentID] = true
	}

	types := make(map[int]bool, len(c.CourseTypes))
	for _, t := range c.CourseTypes {
		if types[t.TypeID] {
			return fmt.Errorf("%w: course type %d", ErrDuplicateID, t.TypeID)
		}
		types[t.TypeID] = true
	}

	completions := make(map[int]bool, len(c.CompletionTypes))
	for _, t := range c.CompletionTypes {
		if completions[t.CompletionID] {
			return fmt.Errorf("%w: completion type %d", ErrDuplicateID, t.CompletionID)
		}
		completions[t.CompletionID] = true
	}

	courses := make(map[string]bool, len(c.Courses))
	for _, course := range c.Courses {
		if courses[course.CourseID] {
			return fmt.Errorf("%w: course %q", ErrDuplicateID, course.CourseID)
		}
		courses[course.CourseID] = true

		if !types[course.TypeID] {
			return fmt.Errorf("%w: course %q type %d", ErrDanglingReference, course.CourseID, course.TypeID)
		}
		if !completions[course.CompletionID] {
			return fmt.Errorf("%w: course %q completion %d", ErrDanglingReference, course.CourseID, course.CompletionID)
		}
		if !departments[course.DepartmentID] {
			return fmt.Errorf("%w: course %q department %d", ErrDanglingReference, course.CourseID, course.DepartmentID)
		}
	}

	stats := make(map[int]bool, len(c.Stats))
	for _, s := range c.Stats {
		if stats[s.StatID] {
			return fmt.Errorf("%w: stat %d", ErrDuplicateID, s.StatID)
		}
		stats[s.StatID] = true
		if !courses[s.CourseID] {
			return fmt.Errorf("%w: stat %d course %q", ErrDanglingReference, s.StatID, s.CourseID)
		}
	}

	details := make(map[int]bool, len(c.Details))
	detailCourses := make(map[string]bool, len(c.Details))
	for _, d := range c.Details {
		if details[d.DetailID] {
			return fmt.Errorf("%w: detail %d", ErrDuplicateID, d.DetailID)
		}
		details[d.DetailID] = true
		if !courses[d.CourseID] {
			return fmt.Errorf("%w: detail %d course %q", ErrDanglingReference, d.DetailID, d.CourseID)
		}
		if detailCourses[d.CourseID] {
			return fmt.Errorf("%w: %q", ErrDuplicateDetail, d.CourseID)
		}
		detailCourses[d.CourseID] = true
	}

	return nil
}
