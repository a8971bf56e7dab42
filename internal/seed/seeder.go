// Package seed performs the one-time load of the catalog reference
// payloads into the store.
package seed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"studytrack/internal/core"
)

// Seeding error taxonomy.
var (
	// ErrResourceNotFound means a named payload could not be located.
	ErrResourceNotFound = errors.New("seed resource not found")
	// ErrDecode means a payload record does not match the required-field
	// contract of its entity.
	ErrDecode = errors.New("seed payload decode failed")
	// ErrIntegrity means a decoded reference does not resolve to a row of
	// the referenced collection.
	ErrIntegrity = errors.New("seed integrity violation")
)

// Version is recorded in the store when a pass commits. Bump it only
// together with an explicit catalog migration strategy.
const Version = 1

// Resource names of the six payloads. Load order mirrors the original
// catalog bundle; it carries no semantic meaning because the whole pass
// commits atomically.
const (
	ResourceCourses         = "courses"
	ResourceCompletionTypes = "completiontypes"
	ResourceCourseTypes     = "coursetypes"
	ResourceCompletionStats = "coursecompletionstats"
	ResourceCourseDetails   = "coursedetails"
	ResourceDepartments     = "departments"
)

// Store is the slice of the repository the seeder needs.
type Store interface {
	CountCourses(ctx context.Context) (int64, error)
	SeedVersion(ctx context.Context) (int64, error)
	InsertCatalog(ctx context.Context, catalog core.Catalog, version int64) error
}

// Seeder loads the reference payloads from a filesystem (the embedded
// bundle by default) and materializes them as store rows exactly once.
type Seeder struct {
	store Store
	fsys  fs.FS
}

func New(store Store, fsys fs.FS) *Seeder {
	return &Seeder{store: store, fsys: fsys}
}

// Run seeds the store unless it already holds catalog data. The guard
// checks both the recorded seed version and the course count, so a store
// written by an older build without seed_meta rows still skips. The pass
// is all-or-nothing: decode and integrity validation happen up front and
// the insert runs in a single transaction.
func (s *Seeder) Run(ctx context.Context) error {
	version, err := s.store.SeedVersion(ctx)
	if err != nil {
		return fmt.Errorf("check seed version: %w", err)
	}
	if version > 0 {
		slog.InfoContext(ctx, "Catalog already seeded", "version", version)
		return nil
	}

	count, err := s.store.CountCourses(ctx)
	if err != nil {
		return fmt.Errorf("count existing courses: %w", err)
	}
	if count > 0 {
		slog.InfoContext(ctx, "Catalog rows present, skipping seed", "courses", count)
		return nil
	}

	catalog, err := s.load(ctx)
	if err != nil {
		return err
	}

	if err := catalog.ValidateIntegrity(); err != nil {
		return fmt.Errorf("%w: %v", ErrIntegrity, err)
	}

	if err := s.store.InsertCatalog(ctx, catalog, Version); err != nil {
		return fmt.Errorf("insert catalog: %w", err)
	}
	return nil
}

func (s *Seeder) load(ctx context.Context) (core.Catalog, error) {
	var catalog core.Catalog
	var err error

	if catalog.Courses, err = loadPayload[core.Course](s.fsys, ResourceCourses); err != nil {
		return core.Catalog{}, err
	}
	if catalog.CompletionTypes, err = loadPayload[core.CompletionType](s.fsys, ResourceCompletionTypes); err != nil {
		return core.Catalog{}, err
	}
	if catalog.CourseTypes, err = loadPayload[core.CourseType](s.fsys, ResourceCourseTypes); err != nil {
		return core.Catalog{}, err
	}
	if catalog.Stats, err = loadPayload[core.CourseCompletionStat](s.fsys, ResourceCompletionStats); err != nil {
		return core.Catalog{}, err
	}
	if catalog.Details, err = loadPayload[core.CourseDetail](s.fsys, ResourceCourseDetails); err != nil {
		return core.Catalog{}, err
	}
	if catalog.Departments, err = loadPayload[core.Department](s.fsys, ResourceDepartments); err != nil {
		return core.Catalog{}, err
	}

	slog.DebugContext(ctx, "Payloads decoded",
		"courses", len(catalog.Courses),
		"stats", len(catalog.Stats),
		"details", len(catalog.Details))
	return catalog, nil
}

// validator is implemented by every payload entity.
type validator interface {
	Validate() error
}

// loadPayload reads <name>.json and decodes it into typed records.
// Records failing their required-field contract abort the whole payload.
func loadPayload[T validator](fsys fs.FS, name string) ([]T, error) {
	data, err := fs.ReadFile(fsys, name+".json")
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrResourceNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("read payload %s: %w", name, err)
	}

	var records []T
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, name, err)
	}
	for i, rec := range records {
		if err := rec.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %s record %d: %v", ErrDecode, name, i, err)
		}
	}
	return records, nil
}
