package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"studytrack/internal/core"
	"studytrack/internal/storage"
)

func iptr(n int) *int { return &n }

type fakeProgress struct {
	summaryCalls int
	courses      []core.Course
	detail       *core.CourseDetail
}

func (f *fakeProgress) CreditSummary(ctx context.Context) ([]core.CreditSummary, error) {
	f.summaryCalls++
	return core.SummarizeCredits(f.courses), nil
}

func (f *fakeProgress) StudyPlan(ctx context.Context) ([]core.SemesterPlan, error) {
	return core.PlanBySemester(f.courses), nil
}

func (f *fakeProgress) Courses(ctx context.Context) ([]core.Course, error) {
	return f.courses, nil
}

func (f *fakeProgress) CompletionSeries(ctx context.Context, courseID string) ([]core.StatPoint, error) {
	return []core.StatPoint{{Term: 2023, Label: core.LabelAttended, Value: 100}}, nil
}

func (f *fakeProgress) GradeDistribution(ctx context.Context, courseID string) ([]core.GradeSeries, error) {
	return nil, nil
}

func (f *fakeProgress) CourseDetail(ctx context.Context, courseID string) (*core.CourseDetail, error) {
	return f.detail, nil
}

type fakeToggler struct {
	state map[string]bool
}

func (f *fakeToggler) ToggleTaken(ctx context.Context, courseID string) (bool, error) {
	if _, ok := f.state[courseID]; !ok {
		return false, fmt.Errorf("%w: %s", storage.ErrCourseNotFound, courseID)
	}
	f.state[courseID] = !f.state[courseID]
	return f.state[courseID], nil
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

func newTestServer(t *testing.T) (*Server, *fakeProgress, *fakeToggler) {
	t.Helper()
	progress := &fakeProgress{courses: []core.Course{takenCourse("ZPS", core.TypeMandatory, 6)}}
	toggler := &fakeToggler{state: map[string]bool{"ZPS": true}}
	srv := NewServer(":0", progress, toggler)
	t.Cleanup(func() { srv.Shutdown(context.Background()) })
	return srv, progress, toggler
}

func TestHealthEndpoints(t *testing.T) {
	srv, _, _ := newTestServer(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		rec := httptest.NewRecorder()
		srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("%s returned %d", path, rec.Code)
		}
	}
}

func TestSummaryEndpoint(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/summary", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("summary returned %d: %s", rec.Code, rec.Body.String())
	}

	var rows []summaryRow
	if err := json.Unmarshal(rec.Body.Bytes(), &rows); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("expected 4 summary rows, got %d", len(rows))
	}
	if rows[3].Category != core.CategoryTotal || rows[3].Taken != 6 {
		t.Fatalf("unexpected total row: %+v", rows[3])
	}

	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Fatalf("missing security header, got %q", got)
	}
}

func TestSummaryUsesCache(t *testing.T) {
	srv, progress, _ := newTestServer(t)

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/summary", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("summary returned %d", rec.Code)
		}
	}
	if progress.summaryCalls != 1 {
		t.Fatalf("expected 1 recompute, got %d", progress.summaryCalls)
	}
}

func TestToggleInvalidatesCaches(t *testing.T) {
	srv, progress, toggler := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/summary", nil))
	if progress.summaryCalls != 1 {
		t.Fatalf("expected 1 recompute, got %d", progress.summaryCalls)
	}

	rec = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/courses/ZPS/toggle", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("toggle returned %d: %s", rec.Code, rec.Body.String())
	}

	var resp toggleResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode toggle: %v", err)
	}
	if resp.CourseID != "ZPS" || resp.IsTaken {
		t.Fatalf("unexpected toggle response: %+v", resp)
	}
	if toggler.state["ZPS"] {
		t.Fatalf("toggle did not reach the store")
	}

	// Next read recomputes instead of serving the stale cached view.
	rec = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/summary", nil))
	if progress.summaryCalls != 2 {
		t.Fatalf("expected recompute after toggle, got %d calls", progress.summaryCalls)
	}
}

func TestToggleUnknownCourse(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/courses/GHOST/toggle", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestCourseDetailNotFound(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/courses/ZPS", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for course without detail, got %d", rec.Code)
	}
}

func TestCourseDetailFound(t *testing.T) {
	srv, progress, _ := newTestServer(t)
	annotation := "Intro course"
	progress.detail = &core.CourseDetail{DetailID: 1, CourseID: "ZPS", Annotation: &annotation}

	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/courses/ZPS", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("detail returned %d", rec.Code)
	}

	var resp courseDetailResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode detail: %v", err)
	}
	if resp.CourseID != "ZPS" || resp.Annotation == nil || *resp.Annotation != annotation {
		t.Fatalf("unexpected detail response: %+v", resp)
	}
}

func TestPlanEndpoint(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/plan", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("plan returned %d", rec.Code)
	}

	var blocks []semesterBlock
	if err := json.Unmarshal(rec.Body.Bytes(), &blocks); err != nil {
		t.Fatalf("decode plan: %v", err)
	}
	if len(blocks) != core.SemesterCount {
		t.Fatalf("expected %d semesters, got %d", core.SemesterCount, len(blocks))
	}
	if blocks[0].TotalCredits != 6 || len(blocks[0].Courses) != 1 {
		t.Fatalf("unexpected semester 1: %+v", blocks[0])
	}
	if blocks[0].Courses[0].TypeCode != "P" || blocks[0].Courses[0].CompletionCode != "ZA" {
		t.Fatalf("unexpected course codes: %+v", blocks[0].Courses[0])
	}
}

func TestRateLimiterAllowsReads(t *testing.T) {
	srv, _, _ := newTestServer(t)

	// GETs are never rate limited.
	for i := 0; i < 70; i++ {
		rec := httptest.NewRecorder()
		srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/courses", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d returned %d", i, rec.Code)
		}
	}
}

func TestRateLimiterBlocksMutationBurst(t *testing.T) {
	srv, _, _ := newTestServer(t)

	var lastCode int
	for i := 0; i < 70; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/courses/ZPS/toggle", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		srv.Handler.ServeHTTP(rec, req)
		lastCode = rec.Code
	}
	if lastCode != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after burst, got %d", lastCode)
	}
}
