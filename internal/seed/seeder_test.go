package seed

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"

	"studytrack/internal/core"
)

type fakeStore struct {
	courseCount int64
	seedVersion int64
	inserted    *core.Catalog
	insertedVer int64
}

func (f *fakeStore) CountCourses(ctx context.Context) (int64, error) { return f.courseCount, nil }
func (f *fakeStore) SeedVersion(ctx context.Context) (int64, error)  { return f.seedVersion, nil }
func (f *fakeStore) InsertCatalog(ctx context.Context, catalog core.Catalog, version int64) error {
	f.inserted = &catalog
	f.insertedVer = version
	return nil
}

func bundle() fstest.MapFS {
	return fstest.MapFS{
		"courses.json": {Data: []byte(`[
			{"course_id": "ZPS", "name": "Programming", "type_id": 1, "semester": 1, "credits": 6, "completion_id": 4, "department_id": 1}
		]`)},
		"completiontypes.json": {Data: []byte(`[
			{"completion_id": 4, "completion_code": "Z,ZK"}
		]`)},
		"coursetypes.json": {Data: []byte(`[
			{"type_id": 1, "type_code": "P"}
		]`)},
		"coursecompletionstats.json": {Data: []byte(`[
			{"stats_id": 1, "course_id": "ZPS", "term": 2023, "total_attended": 100}
		]`)},
		"coursedetails.json": {Data: []byte(`[
			{"detail_id": 1, "course_id": "ZPS", "annotation": "Intro course"}
		]`)},
		"departments.json": {Data: []byte(`[
			{"department_id": 1, "department_code": "KT", "department_name": "Technical Studies"}
		]`)},
	}
}

func TestRunSeedsEmptyStore(t *testing.T) {
	store := &fakeStore{}
	if err := New(store, bundle()).Run(context.Background()); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if store.inserted == nil {
		t.Fatalf("expected catalog insert")
	}
	if store.insertedVer != Version {
		t.Fatalf("inserted version = %d, want %d", store.insertedVer, Version)
	}
	if len(store.inserted.Courses) != 1 || store.inserted.Courses[0].CourseID != "ZPS" {
		t.Fatalf("unexpected courses: %+v", store.inserted.Courses)
	}
	// Taken state never comes from the bundle.
	if store.inserted.Courses[0].IsTaken || store.inserted.Courses[0].SemesterTaken != 0 {
		t.Fatalf("bundle course arrived with taken state set")
	}
}

func TestRunSkipsSeededStore(t *testing.T) {
	store := &fakeStore{seedVersion: 1}
	if err := New(store, bundle()).Run(context.Background()); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if store.inserted != nil {
		t.Fatalf("seeded store must not be reseeded")
	}
}

func TestRunSkipsStoreWithCourses(t *testing.T) {
	// Stores written before seed_meta existed have rows but no version.
	store := &fakeStore{courseCount: 12}
	if err := New(store, bundle()).Run(context.Background()); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if store.inserted != nil {
		t.Fatalf("populated store must not be reseeded")
	}
}

func TestRunMissingResource(t *testing.T) {
	fsys := bundle()
	delete(fsys, "departments.json")

	err := New(&fakeStore{}, fsys).Run(context.Background())
	if !errors.Is(err, ErrResourceNotFound) {
		t.Fatalf("expected ErrResourceNotFound, got %v", err)
	}
}

func TestRunMalformedPayload(t *testing.T) {
	fsys := bundle()
	fsys["courses.json"] = &fstest.MapFile{Data: []byte(`{not json`)}

	err := New(&fakeStore{}, fsys).Run(context.Background())
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("expected ErrDecode, got %v", err)
	}
}

func TestRunInvalidRecord(t *testing.T) {
	fsys := bundle()
	// Missing name fails the record contract.
	fsys["courses.json"] = &fstest.MapFile{Data: []byte(`[
		{"course_id": "ZPS", "type_id": 1, "completion_id": 4, "department_id": 1}
	]`)}

	err := New(&fakeStore{}, fsys).Run(context.Background())
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("expected ErrDecode, got %v", err)
	}
}

func TestRunIntegrityViolation(t *testing.T) {
	fsys := bundle()
	// Stat pointing at a course the bundle does not carry.
	fsys["coursecompletionstats.json"] = &fstest.MapFile{Data: []byte(`[
		{"stats_id": 1, "course_id": "GHOST", "term": 2023}
	]`)}

	store := &fakeStore{}
	err := New(store, fsys).Run(context.Background())
	if !errors.Is(err, ErrIntegrity) {
		t.Fatalf("expected ErrIntegrity, got %v", err)
	}
	if store.inserted != nil {
		t.Fatalf("invalid bundle must not reach the store")
	}
}
