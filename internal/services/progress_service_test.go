package services

import (
	"context"
	"errors"
	"testing"

	"studytrack/internal/core"
)

func iptr(n int) *int { return &n }

type fakeReader struct {
	courses []core.Course
	stats   []core.CourseCompletionStat
	detail  *core.CourseDetail
	err     error
}

func (f *fakeReader) ListCourses(ctx context.Context) ([]core.Course, error) {
	return f.courses, f.err
}

func (f *fakeReader) ListStatsByCourse(ctx context.Context, courseID string) ([]core.CourseCompletionStat, error) {
	return f.stats, f.err
}

func (f *fakeReader) GetDetailByCourse(ctx context.Context, courseID string) (*core.CourseDetail, error) {
	return f.detail, f.err
}

func takenCourse(id string, typeID, credits int) core.Course {
	return core.Course{
		CourseID:     id,
		Name:         id,
		TypeID:       typeID,
		Semester:     iptr(1),
		Credits:      iptr(credits),
		CompletionID: core.CompletionCredit,
		DepartmentID: 1,
		IsTaken:      true,
	}
}

func TestCreditSummaryRecomputesFromStore(t *testing.T) {
	reader := &fakeReader{courses: []core.Course{takenCourse("A1", core.TypeElectiveA, 5)}}
	svc := NewProgressService(reader)

	summaries, err := svc.CreditSummary(context.Background())
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if summaries[0].Taken != 5 {
		t.Fatalf("elective A taken = %d, want 5", summaries[0].Taken)
	}

	// A store change is visible on the very next read.
	reader.courses = append(reader.courses, takenCourse("A2", core.TypeElectiveA, 6))
	summaries, err = svc.CreditSummary(context.Background())
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if summaries[0].Taken != 11 {
		t.Fatalf("elective A taken after change = %d, want 11", summaries[0].Taken)
	}
}

func TestCreditSummaryPropagatesError(t *testing.T) {
	storeErr := errors.New("store down")
	svc := NewProgressService(&fakeReader{err: storeErr})
	if _, err := svc.CreditSummary(context.Background()); !errors.Is(err, storeErr) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
}

func TestForeignLanguageCredits(t *testing.T) {
	reader := &fakeReader{courses: []core.Course{
		takenCourse("CJ1", core.TypeForeignLanguage, 2),
		takenCourse("M1", core.TypeMandatory, 6),
	}}
	svc := NewProgressService(reader)

	credits, err := svc.ForeignLanguageCredits(context.Background())
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if credits != 2 {
		t.Fatalf("foreign language credits = %d, want 2", credits)
	}
}

func TestStudyPlan(t *testing.T) {
	reader := &fakeReader{courses: []core.Course{takenCourse("M1", core.TypeMandatory, 6)}}
	svc := NewProgressService(reader)

	plans, err := svc.StudyPlan(context.Background())
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if len(plans) != core.SemesterCount {
		t.Fatalf("expected %d semesters, got %d", core.SemesterCount, len(plans))
	}
	if plans[0].TotalCredits != 6 {
		t.Fatalf("semester 1 credits = %d, want 6", plans[0].TotalCredits)
	}
}

func TestCompletionSeriesAndGrades(t *testing.T) {
	rate := 0.3
	reader := &fakeReader{stats: []core.CourseCompletionStat{
		{StatID: 1, CourseID: "ZPS", Term: iptr(2023), TotalAttended: iptr(100), GradeARate: &rate},
	}}
	svc := NewProgressService(reader)

	points, err := svc.CompletionSeries(context.Background(), "ZPS")
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if len(points) != 1 || points[0].Label != core.LabelAttended {
		t.Fatalf("unexpected points: %+v", points)
	}

	series, err := svc.GradeDistribution(context.Background(), "ZPS")
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if len(series) != 1 || len(series[0].Points) != 5 {
		t.Fatalf("unexpected series: %+v", series)
	}
}

func TestCourseDetailNilWhenAbsent(t *testing.T) {
	svc := NewProgressService(&fakeReader{})
	detail, err := svc.CourseDetail(context.Background(), "ZPS")
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if detail != nil {
		t.Fatalf("expected nil detail, got %+v", detail)
	}
}
