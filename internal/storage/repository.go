package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"studytrack/internal/core"

	_ "modernc.org/sqlite"
)

// ErrCourseNotFound is returned when a course id does not resolve to a
// catalog row.
var ErrCourseNotFound = errors.New("course not found")

// SQLiteRepository is the single durable store holding the seven entity
// collections. All reads and writes of persisted rows go through here.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// CountCourses returns the number of catalog course rows. Used as the
// seeding idempotence guard.
func (r *SQLiteRepository) CountCourses(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM courses`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count courses: %w", err)
	}
	return n, nil
}

// SeedVersion returns the highest recorded seed version, zero when the
// store has never been seeded.
func (r *SQLiteRepository) SeedVersion(ctx context.Context) (int64, error) {
	var v sql.NullInt64
	if err := r.db.QueryRowContext(ctx, `SELECT MAX(version) FROM seed_meta`).Scan(&v); err != nil {
		return 0, fmt.Errorf("read seed version: %w", err)
	}
	return v.Int64, nil
}

// InsertCatalog writes a full catalog and the seed version marker in one
// transaction. A failure anywhere rolls the whole pass back, so partially
// seeded collections are never observable.
func (r *SQLiteRepository) InsertCatalog(ctx context.Context, catalog core.Catalog, version int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed transaction: %w", err)
	}
	defer tx.Rollback()

	for _, d := range catalog.Departments {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO departments (department_id, department_code, department_name) VALUES (?, ?, ?)`,
			d.DepartmentID, d.Code, d.Name); err != nil {
			return fmt.Errorf("insert department %d: %w", d.DepartmentID, err)
		}
	}

	for _, t := range catalog.CourseTypes {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO course_types (type_id, type_code, description) VALUES (?, ?, ?)`,
			t.TypeID, t.TypeCode, nullString(t.Description)); err != nil {
			return fmt.Errorf("insert course type %d: %w", t.TypeID, err)
		}
	}

	for _, t := range catalog.CompletionTypes {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO completion_types (completion_id, completion_code, description) VALUES (?, ?, ?)`,
			t.CompletionID, t.CompletionCode, nullString(t.Description)); err != nil {
			return fmt.Errorf("insert completion type %d: %w", t.CompletionID, err)
		}
	}

	for _, c := range catalog.Courses {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO courses (course_id, name, abbreviation, type_id, teaching_method, semester,
				weekly_lectures, weekly_exercises, credits, completion_id, department_id, is_taken, semester_taken)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			c.CourseID, c.Name, nullString(c.Abbreviation), c.TypeID, nullString(c.TeachingMethod),
			nullInt(c.Semester), nullInt(c.WeeklyLectures), nullInt(c.WeeklyExercises),
			nullInt(c.Credits), c.CompletionID, c.DepartmentID, c.IsTaken, c.SemesterTaken); err != nil {
			return fmt.Errorf("insert course %q: %w", c.CourseID, err)
		}
	}

	for _, s := range catalog.Stats {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO course_completion_stats (stat_id, course_id, term, total_attended, total_completed,
				completed_with_credit, completed_with_exam, grade_a_rate, grade_b_rate, grade_c_rate,
				grade_d_rate, grade_e_rate)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			s.StatID, s.CourseID, nullInt(s.Term), nullInt(s.TotalAttended), nullInt(s.TotalCompleted),
			nullInt(s.CompletedWithCredit), nullInt(s.CompletedWithExam),
			nullFloat(s.GradeARate), nullFloat(s.GradeBRate), nullFloat(s.GradeCRate),
			nullFloat(s.GradeDRate), nullFloat(s.GradeERate)); err != nil {
			return fmt.Errorf("insert stat %d: %w", s.StatID, err)
		}
	}

	for _, d := range catalog.Details {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO course_details (detail_id, course_id, syllabus, literature, annotation, guarantor, credits)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			d.DetailID, d.CourseID, nullString(d.Syllabus), nullString(d.Literature),
			nullString(d.Annotation), nullString(d.Guarantor), nullInt(d.Credits)); err != nil {
			return fmt.Errorf("insert detail %d: %w", d.DetailID, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO seed_meta (version) VALUES (?)`, version); err != nil {
		return fmt.Errorf("record seed version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed transaction: %w", err)
	}

	slog.InfoContext(ctx, "Catalog seeded",
		"version", version,
		"courses", len(catalog.Courses),
		"stats", len(catalog.Stats),
		"details", len(catalog.Details),
		"departments", len(catalog.Departments))
	return nil
}

const courseColumns = `course_id, name, abbreviation, type_id, teaching_method, semester,
	weekly_lectures, weekly_exercises, credits, completion_id, department_id, is_taken, semester_taken`

// ListCourses returns the whole catalog ordered by semester then name,
// matching the course list screen ordering.
func (r *SQLiteRepository) ListCourses(ctx context.Context) ([]core.Course, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+courseColumns+` FROM courses ORDER BY semester, name`)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	defer rows.Close()

	var courses []core.Course
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, fmt.Errorf("scan course: %w", err)
		}
		courses = append(courses, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate courses: %w", err)
	}
	return courses, nil
}

// GetCourse fetches one course by id.
func (r *SQLiteRepository) GetCourse(ctx context.Context, courseID string) (core.Course, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+courseColumns+` FROM courses WHERE course_id = ?`, courseID)
	c, err := scanCourse(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Course{}, fmt.Errorf("%w: %s", ErrCourseNotFound, courseID)
	}
	if err != nil {
		return core.Course{}, fmt.Errorf("get course %q: %w", courseID, err)
	}
	return c, nil
}

// SetTaken persists the mutable taken flag of a course.
func (r *SQLiteRepository) SetTaken(ctx context.Context, courseID string, taken bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE courses SET is_taken = ? WHERE course_id = ?`, taken, courseID)
	if err != nil {
		return fmt.Errorf("set taken for %q: %w", courseID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrCourseNotFound, courseID)
	}
	return nil
}

// SetSemesterTaken persists the semester a course was taken in.
func (r *SQLiteRepository) SetSemesterTaken(ctx context.Context, courseID string, semester int) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE courses SET semester_taken = ? WHERE course_id = ?`, semester, courseID)
	if err != nil {
		return fmt.Errorf("set semester taken for %q: %w", courseID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrCourseNotFound, courseID)
	}
	return nil
}

// ListStatsByCourse returns the per-term completion stats of one course,
// ordered by term.
func (r *SQLiteRepository) ListStatsByCourse(ctx context.Context, courseID string) ([]core.CourseCompletionStat, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT stat_id, course_id, term, total_attended, total_completed, completed_with_credit,
			completed_with_exam, grade_a_rate, grade_b_rate, grade_c_rate, grade_d_rate, grade_e_rate
		 FROM course_completion_stats WHERE course_id = ? ORDER BY term`, courseID)
	if err != nil {
		return nil, fmt.Errorf("list stats for %q: %w", courseID, err)
	}
	defer rows.Close()

	var stats []core.CourseCompletionStat
	for rows.Next() {
		var (
			s                          core.CourseCompletionStat
			term, att, comp, cred, exm sql.NullInt64
			a, b, c, d, e              sql.NullFloat64
		)
		if err := rows.Scan(&s.StatID, &s.CourseID, &term, &att, &comp, &cred, &exm,
			&a, &b, &c, &d, &e); err != nil {
			return nil, fmt.Errorf("scan stat: %w", err)
		}
		s.Term = intPtr(term)
		s.TotalAttended = intPtr(att)
		s.TotalCompleted = intPtr(comp)
		s.CompletedWithCredit = intPtr(cred)
		s.CompletedWithExam = intPtr(exm)
		s.GradeARate = floatPtr(a)
		s.GradeBRate = floatPtr(b)
		s.GradeCRate = floatPtr(c)
		s.GradeDRate = floatPtr(d)
		s.GradeERate = floatPtr(e)
		stats = append(stats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stats: %w", err)
	}
	return stats, nil
}

// GetDetailByCourse returns the detail row of a course, nil when none
// exists yet.
func (r *SQLiteRepository) GetDetailByCourse(ctx context.Context, courseID string) (*core.CourseDetail, error) {
	var (
		d                   core.CourseDetail
		syl, lit, ann, guar sql.NullString
		credits             sql.NullInt64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT detail_id, course_id, syllabus, literature, annotation, guarantor, credits
		 FROM course_details WHERE course_id = ?`, courseID).
		Scan(&d.DetailID, &d.CourseID, &syl, &lit, &ann, &guar, &credits)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get detail for %q: %w", courseID, err)
	}
	d.Syllabus = strPtr(syl)
	d.Literature = strPtr(lit)
	d.Annotation = strPtr(ann)
	d.Guarantor = strPtr(guar)
	d.Credits = intPtr(credits)
	return &d, nil
}

// AddPlanEntry links a course into the study plan marker collection.
func (r *SQLiteRepository) AddPlanEntry(ctx context.Context, courseID string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO study_plan (course_id) VALUES (?)`, courseID)
	if err != nil {
		return 0, fmt.Errorf("add plan entry for %q: %w", courseID, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("plan entry id for %q: %w", courseID, err)
	}
	return id, nil
}

// RemovePlanEntries removes every plan marker referencing the course.
func (r *SQLiteRepository) RemovePlanEntries(ctx context.Context, courseID string) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM study_plan WHERE course_id = ?`, courseID); err != nil {
		return fmt.Errorf("remove plan entries for %q: %w", courseID, err)
	}
	return nil
}

// ListPlanEntries returns all study plan markers in insertion order.
func (r *SQLiteRepository) ListPlanEntries(ctx context.Context) ([]core.StudyPlanEntry, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, course_id FROM study_plan ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list plan entries: %w", err)
	}
	defer rows.Close()

	var entries []core.StudyPlanEntry
	for rows.Next() {
		var e core.StudyPlanEntry
		if err := rows.Scan(&e.ID, &e.CourseID); err != nil {
			return nil, fmt.Errorf("scan plan entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate plan entries: %w", err)
	}
	return entries, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCourse(row rowScanner) (core.Course, error) {
	var (
		c                 core.Course
		abbr, method      sql.NullString
		sem, lec, exr, cr sql.NullInt64
	)
	if err := row.Scan(&c.CourseID, &c.Name, &abbr, &c.TypeID, &method, &sem,
		&lec, &exr, &cr, &c.CompletionID, &c.DepartmentID, &c.IsTaken, &c.SemesterTaken); err != nil {
		return core.Course{}, err
	}
	c.Abbreviation = strPtr(abbr)
	c.TeachingMethod = strPtr(method)
	c.Semester = intPtr(sem)
	c.WeeklyLectures = intPtr(lec)
	c.WeeklyExercises = intPtr(exr)
	c.Credits = intPtr(cr)
	return c, nil
}

func nullString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func nullInt(n *int) any {
	if n == nil {
		return nil
	}
	return *n
}

func nullFloat(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}

func strPtr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

func intPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

func floatPtr(f sql.NullFloat64) *float64 {
	if !f.Valid {
		return nil
	}
	v := f.Float64
	return &v
}
