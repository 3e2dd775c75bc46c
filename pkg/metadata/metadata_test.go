package metadata

import (
	"errors"
	"os"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"
)

func TestLoadFS_MixedFormats(t *testing.T) {
	t.Parallel()

	reg, err := LoadFS(os.DirFS("testdata"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff([]string{"Item", "Person", "Room"}, reg.Models()); diff != "" {
		t.Fatalf("models mismatch (-want +got):\n%s", diff)
	}

	item, err := reg.Model("item")
	if err != nil {
		t.Fatalf("case-insensitive lookup: %v", err)
	}
	status, ok := item.Field("status")
	if !ok || status.Default != "draft" || len(status.Enum) != 2 {
		t.Fatalf("unexpected status field %+v", status)
	}

	fk, _ := item.Field("ownerId")
	rel, err := reg.Relation(item, fk)
	if err != nil {
		t.Fatalf("relation: %v", err)
	}
	if rel.ConnectKey != "personId" || rel.DisplayField() != "name" || rel.Target.Name() != "Person" {
		t.Fatalf("unexpected relation %+v", rel)
	}

	room, _ := reg.Model("Room")
	wing, _ := room.Field("wing")
	if diff := cmp.Diff([]string{"floor"}, wing.DependsOn); diff != "" {
		t.Fatalf("cue dependsOn mismatch (-want +got):\n%s", diff)
	}
	floor, _ := room.Field("floor")
	if floor.Default == nil {
		t.Fatalf("cue default not decoded")
	}
}

func TestLoadFS_DuplicateModel(t *testing.T) {
	t.Parallel()

	doc := []byte(`{"models":{"Person":{"fields":[{"name":"id","type":"Int","isId":true}]}}}`)
	fsys := fstest.MapFS{
		"a.json": {Data: doc},
		"b.json": {Data: doc},
	}
	if _, err := LoadFS(fsys); err == nil || !strings.Contains(err.Error(), "duplicate model") {
		t.Fatalf("expected duplicate model error, got %v", err)
	}
}

func TestParse_EmptyDocument(t *testing.T) {
	t.Parallel()

	if _, err := Parse([]byte("  "), "empty.yaml"); err == nil {
		t.Fatalf("expected error for empty document")
	}
}

func TestRegistryValidate(t *testing.T) {
	t.Parallel()

	noID := MustNewModel("NoID", Field{Name: "name", Type: FieldTypeString})
	brokenFK := MustNewModel("Broken",
		Field{Name: "id", Type: FieldTypeInt, IsID: true},
		Field{Name: "ownerId", Type: FieldTypeInt, IsForeignKey: true, RelationField: "owner"},
		Field{Name: "wing", Type: FieldTypeString, DependsOn: []string{"floor"}},
	)

	_, err := NewRegistry(noID, brokenFK)
	if !errors.Is(err, ErrIDField) {
		t.Fatalf("expected id field error, got %v", err)
	}
	if !errors.Is(err, ErrRelation) {
		t.Fatalf("expected relation error, got %v", err)
	}
	if !errors.Is(err, ErrFieldNotFound) {
		t.Fatalf("expected dependsOn error, got %v", err)
	}
}

func TestNewModel_RejectsDuplicates(t *testing.T) {
	t.Parallel()

	_, err := NewModel("Item", Field{Name: "id", IsID: true}, Field{Name: "id"})
	if err == nil {
		t.Fatalf("expected duplicate field error")
	}
	if _, err := NewModel(" "); err == nil {
		t.Fatalf("expected empty name error")
	}
}

func TestModel_AccessorsReturnCopies(t *testing.T) {
	t.Parallel()

	m := MustNewModel("Item",
		Field{Name: "id", Type: FieldTypeInt, IsID: true},
		Field{Name: "category", Type: FieldTypeString},
		Field{Name: "sub", Type: FieldTypeString, DependsOn: []string{"category"}},
	)
	fields := m.Fields()
	fields[2].DependsOn[0] = "mutated"

	sub, _ := m.Field("sub")
	if sub.DependsOn[0] != "category" {
		t.Fatalf("Fields() leaked internal state")
	}
	if deps := m.Dependents("category"); len(deps) != 1 || deps[0].Name != "sub" {
		t.Fatalf("unexpected dependents %v", deps)
	}
}

func TestRelationIDKey(t *testing.T) {
	t.Parallel()

	rel := Field{Name: "owner", ForeignKeyMapping: map[string]string{"tenant": "tenantId", "personId": "ownerId"}}
	if key, _ := rel.RelationIDKey("ownerId"); key != "personId" {
		t.Fatalf("expected mapped key, got %q", key)
	}
	if key, _ := rel.RelationIDKey("other"); key != "personId" {
		t.Fatalf("expected sorted fallback key, got %q", key)
	}
	if _, ok := (Field{}).RelationIDKey("x"); ok {
		t.Fatalf("empty mapping must not resolve")
	}
}

func TestDefaultLabeler(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"ownerId":      "Owner Id",
		"sub_category": "Sub Category",
		"room2B":       "Room 2 B",
		"":             "",
	}
	for in, want := range cases {
		if got := DefaultLabeler(in); got != want {
			t.Fatalf("DefaultLabeler(%q) = %q, want %q", in, got, want)
		}
	}
}
