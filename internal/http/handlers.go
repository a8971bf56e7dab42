package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"studytrack/internal/core"
	"studytrack/internal/log"
	"studytrack/internal/storage"
)

// Response shapes of the JSON surface. Credits and other optional catalog
// values keep pointer semantics so clients can tell "no data" from zero.
type (
	summaryRow struct {
		Category string `json:"category"`
		Taken    int    `json:"taken"`
		Required int    `json:"required"`
		Overdue  int    `json:"overdue"`
	}

	courseRow struct {
		CourseID       string  `json:"course_id"`
		Name           string  `json:"name"`
		Abbreviation   *string `json:"abbreviation,omitempty"`
		TypeCode       string  `json:"type_code"`
		TypeName       string  `json:"type_name"`
		CompletionCode string  `json:"completion_code"`
		Semester       *int    `json:"semester,omitempty"`
		Credits        *int    `json:"credits,omitempty"`
		IsTaken        bool    `json:"is_taken"`
		SemesterTaken  int     `json:"semester_taken,omitempty"`
	}

	semesterBlock struct {
		Semester     int         `json:"semester"`
		Courses      []courseRow `json:"courses"`
		TotalCredits int         `json:"total_credits"`
	}

	statPoint struct {
		Term  int    `json:"term"`
		Label string `json:"label"`
		Value int    `json:"value"`
	}

	gradePoint struct {
		Grade string  `json:"grade"`
		Rate  float64 `json:"rate"`
	}

	gradeSeries struct {
		Term   int          `json:"term"`
		Points []gradePoint `json:"points"`
	}

	courseDetailResponse struct {
		CourseID   string  `json:"course_id"`
		Syllabus   *string `json:"syllabus,omitempty"`
		Literature *string `json:"literature,omitempty"`
		Annotation *string `json:"annotation,omitempty"`
		Guarantor  *string `json:"guarantor,omitempty"`
		Credits    *int    `json:"credits,omitempty"`
	}

	toggleResponse struct {
		CourseID string `json:"course_id"`
		IsTaken  bool   `json:"is_taken"`
	}

	errorResponse struct {
		Error string `json:"error"`
	}
)

func toCourseRow(c core.Course) courseRow {
	return courseRow{
		CourseID:       c.CourseID,
		Name:           c.Name,
		Abbreviation:   c.Abbreviation,
		TypeCode:       core.TypeCode(c.TypeID),
		TypeName:       core.TypeDescription(c.TypeID),
		CompletionCode: core.CompletionCode(c.CompletionID),
		Semester:       c.Semester,
		Credits:        c.Credits,
		IsTaken:        c.IsTaken,
		SemesterTaken:  c.SemesterTaken,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Response encoding failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	summaries, found := s.summaryCache.Get(summaryCacheKey)
	if !found {
		var err error
		summaries, err = s.progress.CreditSummary(r.Context())
		if err != nil {
			log.FromContext(r.Context()).ErrorContext(r.Context(), "Credit summary error", log.FieldError, err)
			writeError(w, http.StatusInternalServerError, "failed to compute summary")
			return
		}
		s.summaryCache.Set(summaryCacheKey, summaries)
	}

	rows := make([]summaryRow, 0, len(summaries))
	for _, sum := range summaries {
		rows = append(rows, summaryRow{
			Category: sum.Category,
			Taken:    sum.Taken,
			Required: sum.Required,
			Overdue:  sum.Overdue,
		})
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	plans, found := s.planCache.Get(planCacheKey)
	if !found {
		var err error
		plans, err = s.progress.StudyPlan(r.Context())
		if err != nil {
			log.FromContext(r.Context()).ErrorContext(r.Context(), "Study plan error", log.FieldError, err)
			writeError(w, http.StatusInternalServerError, "failed to compute study plan")
			return
		}
		s.planCache.Set(planCacheKey, plans)
	}

	blocks := make([]semesterBlock, 0, len(plans))
	for _, p := range plans {
		block := semesterBlock{
			Semester:     p.Semester,
			Courses:      make([]courseRow, 0, len(p.Courses)),
			TotalCredits: p.TotalCredits,
		}
		for _, c := range p.Courses {
			block.Courses = append(block.Courses, toCourseRow(c))
		}
		blocks = append(blocks, block)
	}
	writeJSON(w, http.StatusOK, blocks)
}

func (s *Server) handleCourses(w http.ResponseWriter, r *http.Request) {
	courses, err := s.progress.Courses(r.Context())
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Course list error", log.FieldError, err)
		writeError(w, http.StatusInternalServerError, "failed to list courses")
		return
	}

	rows := make([]courseRow, 0, len(courses))
	for _, c := range courses {
		rows = append(rows, toCourseRow(c))
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleCourseDetail(w http.ResponseWriter, r *http.Request) {
	courseID := r.PathValue("id")
	detail, err := s.progress.CourseDetail(r.Context(), courseID)
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Course detail error", log.FieldError, err, log.FieldCourseID, courseID)
		writeError(w, http.StatusInternalServerError, "failed to load course detail")
		return
	}
	if detail == nil {
		writeError(w, http.StatusNotFound, "no detail for course "+courseID)
		return
	}
	writeJSON(w, http.StatusOK, courseDetailResponse{
		CourseID:   detail.CourseID,
		Syllabus:   detail.Syllabus,
		Literature: detail.Literature,
		Annotation: detail.Annotation,
		Guarantor:  detail.Guarantor,
		Credits:    detail.Credits,
	})
}

func (s *Server) handleCourseStats(w http.ResponseWriter, r *http.Request) {
	courseID := r.PathValue("id")
	series, err := s.progress.CompletionSeries(r.Context(), courseID)
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Completion series error", log.FieldError, err, log.FieldCourseID, courseID)
		writeError(w, http.StatusInternalServerError, "failed to load completion stats")
		return
	}

	points := make([]statPoint, 0, len(series))
	for _, p := range series {
		points = append(points, statPoint{Term: p.Term, Label: p.Label, Value: p.Value})
	}
	writeJSON(w, http.StatusOK, points)
}

func (s *Server) handleCourseGrades(w http.ResponseWriter, r *http.Request) {
	courseID := r.PathValue("id")
	dist, err := s.progress.GradeDistribution(r.Context(), courseID)
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Grade distribution error", log.FieldError, err, log.FieldCourseID, courseID)
		writeError(w, http.StatusInternalServerError, "failed to load grade distribution")
		return
	}

	series := make([]gradeSeries, 0, len(dist))
	for _, g := range dist {
		gs := gradeSeries{Term: g.Term, Points: make([]gradePoint, 0, len(g.Points))}
		for _, p := range g.Points {
			gs.Points = append(gs.Points, gradePoint{Grade: p.Grade, Rate: p.Rate})
		}
		series = append(series, gs)
	}
	writeJSON(w, http.StatusOK, series)
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	courseID := r.PathValue("id")
	taken, err := s.toggler.ToggleTaken(r.Context(), courseID)
	if err != nil {
		if errors.Is(err, storage.ErrCourseNotFound) {
			writeError(w, http.StatusNotFound, "unknown course "+courseID)
			return
		}
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Toggle error", log.FieldError, err, log.FieldCourseID, courseID)
		writeError(w, http.StatusInternalServerError, "failed to toggle course")
		return
	}

	// Derived views are stale now; drop the caches so the next read
	// recomputes.
	s.invalidateViews()

	writeJSON(w, http.StatusOK, toggleResponse{CourseID: courseID, IsTaken: taken})
}
