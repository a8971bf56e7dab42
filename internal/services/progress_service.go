package services

import (
	"context"
	"fmt"

	"studytrack/internal/core"
)

// CourseReader is the read-only slice of the repository the aggregator
// consumes.
type CourseReader interface {
	ListCourses(ctx context.Context) ([]core.Course, error)
	ListStatsByCourse(ctx context.Context, courseID string) ([]core.CourseCompletionStat, error)
	GetDetailByCourse(ctx context.Context, courseID string) (*core.CourseDetail, error)
}

// ProgressService derives read-only progress views from current store
// state. It never mutates and never caches; every call recomputes from a
// fresh read, which keeps results correct after any toggle.
type ProgressService struct {
	store CourseReader
}

func NewProgressService(store CourseReader) *ProgressService {
	return &ProgressService{store: store}
}

// CreditSummary reports the four dashboard categories.
func (s *ProgressService) CreditSummary(ctx context.Context) ([]core.CreditSummary, error) {
	courses, err := s.store.ListCourses(ctx)
	if err != nil {
		return nil, fmt.Errorf("credit summary: %w", err)
	}
	return core.SummarizeCredits(courses), nil
}

// ForeignLanguageCredits reports the taken foreign-language credits,
// which feed the total but have no dashboard category of their own.
func (s *ProgressService) ForeignLanguageCredits(ctx context.Context) (int, error) {
	courses, err := s.store.ListCourses(ctx)
	if err != nil {
		return 0, fmt.Errorf("foreign language credits: %w", err)
	}
	return core.TakenCreditsByType(courses, core.TypeForeignLanguage), nil
}

// StudyPlan groups taken courses into semesters 1..6 with credit totals.
func (s *ProgressService) StudyPlan(ctx context.Context) ([]core.SemesterPlan, error) {
	courses, err := s.store.ListCourses(ctx)
	if err != nil {
		return nil, fmt.Errorf("study plan: %w", err)
	}
	return core.PlanBySemester(courses), nil
}

// Courses returns the full catalog in list order.
func (s *ProgressService) Courses(ctx context.Context) ([]core.Course, error) {
	courses, err := s.store.ListCourses(ctx)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}

// CompletionSeries returns the attended/completed points of one course.
func (s *ProgressService) CompletionSeries(ctx context.Context, courseID string) ([]core.StatPoint, error) {
	stats, err := s.store.ListStatsByCourse(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("completion series: %w", err)
	}
	return core.CompletionSeries(stats), nil
}

// GradeDistribution returns the per-term grade series of one course.
func (s *ProgressService) GradeDistribution(ctx context.Context, courseID string) ([]core.GradeSeries, error) {
	stats, err := s.store.ListStatsByCourse(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("grade distribution: %w", err)
	}
	return core.GradeDistribution(stats), nil
}

// CourseDetail returns the long-form description of a course, nil when
// the catalog carries none.
func (s *ProgressService) CourseDetail(ctx context.Context, courseID string) (*core.CourseDetail, error) {
	detail, err := s.store.GetDetailByCourse(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("course detail: %w", err)
	}
	return detail, nil
}
