package services

import (
	"context"
	"fmt"
	"log/slog"

	"studytrack/internal/core"
	"studytrack/internal/log"
)

// CourseMutator is the slice of the repository the selection service
// writes through.
type CourseMutator interface {
	GetCourse(ctx context.Context, courseID string) (core.Course, error)
	SetTaken(ctx context.Context, courseID string, taken bool) error
	SetSemesterTaken(ctx context.Context, courseID string, semester int) error
}

// PlanStore manages the optional study plan marker collection.
type PlanStore interface {
	AddPlanEntry(ctx context.Context, courseID string) (int64, error)
	RemovePlanEntries(ctx context.Context, courseID string) error
	ListPlanEntries(ctx context.Context) ([]core.StudyPlanEntry, error)
}

// SelectionService owns the only post-seed mutations of the store: the
// taken flag pair on courses and study plan membership markers. It does
// not notify readers; callers recompute derived views after a mutation.
type SelectionService struct {
	store CourseMutator
	plan  PlanStore
}

func NewSelectionService(store CourseMutator, plan PlanStore) *SelectionService {
	return &SelectionService{store: store, plan: plan}
}

// ToggleTaken flips the taken flag of a course and persists it, returning
// the new state. The plan marker collection is kept in step so both
// representations agree, though the flag stays authoritative.
func (s *SelectionService) ToggleTaken(ctx context.Context, courseID string) (bool, error) {
	course, err := s.store.GetCourse(ctx, courseID)
	if err != nil {
		return false, fmt.Errorf("toggle taken: %w", err)
	}

	taken := !course.IsTaken
	if err := s.store.SetTaken(ctx, courseID, taken); err != nil {
		return false, fmt.Errorf("toggle taken: %w", err)
	}

	if s.plan != nil {
		if taken {
			if _, err := s.plan.AddPlanEntry(ctx, courseID); err != nil {
				slog.WarnContext(ctx, "Plan marker add failed",
					log.NewFields().WithCourse(courseID, course.CreditsOrZero(), taken).WithError(err).ToSlice()...)
			}
		} else {
			if err := s.plan.RemovePlanEntries(ctx, courseID); err != nil {
				slog.WarnContext(ctx, "Plan marker remove failed",
					log.NewFields().WithCourse(courseID, course.CreditsOrZero(), taken).WithError(err).ToSlice()...)
			}
		}
	}

	slog.InfoContext(ctx, "Course selection toggled",
		log.NewFields().
			WithComponent(log.ComponentSelection).
			WithOperation(log.OpToggle).
			WithCourse(courseID, course.CreditsOrZero(), taken).
			ToSlice()...)
	return taken, nil
}

// SetSemesterTaken records the semester a course was taken in.
func (s *SelectionService) SetSemesterTaken(ctx context.Context, courseID string, semester int) error {
	if semester < 0 || semester > core.SemesterCount {
		return fmt.Errorf("semester %d out of range", semester)
	}
	if err := s.store.SetSemesterTaken(ctx, courseID, semester); err != nil {
		return fmt.Errorf("set semester taken: %w", err)
	}
	return nil
}
