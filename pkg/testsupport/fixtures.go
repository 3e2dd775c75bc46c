package testsupport

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-modelform/pkg/metadata"
)

// Model names used by the shared fixtures.
const (
	ItemModel     = "Item"
	PersonModel   = "Person"
	CategoryModel = "Category"
)

// PersonFields describes a related model whose picker label is its name.
func PersonFields() []metadata.Field {
	return []metadata.Field{
		{Name: "personId", Type: metadata.FieldTypeInt, IsID: true, DisplayFieldForReferencePicker: "name"},
		{Name: "name", Type: metadata.FieldTypeString},
		{Name: "items", Type: ItemModel, IsDataModel: true, IsArray: true},
	}
}

// CategoryFields describes a related model labelled by its identifier.
func CategoryFields() []metadata.Field {
	return []metadata.Field{
		{Name: "slug", Type: metadata.FieldTypeString, IsID: true},
		{Name: "parent", Type: metadata.FieldTypeString, IsOptional: true},
	}
}

// ItemFields exercises every field flavour the engine handles: an
// autogenerated id, enum and boolean scalars, a dependent field, a hidden
// column, a foreign key with its relation object and a list relation.
func ItemFields() []metadata.Field {
	return []metadata.Field{
		{Name: "id", Type: metadata.FieldTypeInt, IsID: true},
		{Name: "name", Type: metadata.FieldTypeString, Placeholder: "Item name"},
		{Name: "description", Type: metadata.FieldTypeString, IsOptional: true},
		{Name: "status", Type: metadata.FieldTypeEnum, Enum: []string{"draft", "published", "archived"}, Default: "draft"},
		{Name: "category", Type: metadata.FieldTypeString, IsOptional: true},
		{Name: "subCategory", Type: metadata.FieldTypeString, IsOptional: true, DependsOn: []string{"category"}},
		{Name: "inStock", Type: metadata.FieldTypeBoolean},
		{Name: "price", Type: metadata.FieldTypeFloat, IsOptional: true},
		{Name: "ownerId", Type: metadata.FieldTypeInt, IsOptional: true, IsForeignKey: true, RelationField: "owner"},
		{Name: "owner", Type: PersonModel, IsDataModel: true, IsOptional: true, ForeignKeyMapping: map[string]string{"personId": "ownerId"}},
		{Name: "createdAt", Type: metadata.FieldTypeDateTime, IsOptional: true, Hidden: true},
		{Name: "tags", Type: metadata.FieldTypeString, IsArray: true},
	}
}

// Registry returns the Item/Person/Category registry used across packages.
func Registry(t testing.TB) *metadata.Registry {
	t.Helper()

	reg, err := metadata.NewRegistry(
		metadata.MustNewModel(ItemModel, ItemFields()...),
		metadata.MustNewModel(PersonModel, PersonFields()...),
		metadata.MustNewModel(CategoryModel, CategoryFields()...),
	)
	if err != nil {
		t.Fatalf("build fixture registry: %v", err)
	}
	return reg
}

// Model returns a model from the fixture registry.
func Model(t testing.TB, reg *metadata.Registry, name string) *metadata.Model {
	t.Helper()

	m, err := reg.Model(name)
	if err != nil {
		t.Fatalf("fixture model %s: %v", name, err)
	}
	return m
}

// People returns related Person records in a stable order.
func People() []map[string]any {
	return []map[string]any{
		{"personId": int64(7), "name": "Ada"},
		{"personId": int64(8), "name": "Grace"},
		{"personId": int64(9), "name": "Linus"},
	}
}

// Context returns a background context for tests.
func Context() context.Context {
	return context.Background()
}

// WriteGolden writes value as indented JSON when UPDATE_GOLDENS is set.
func WriteGolden(t *testing.T, path string, value any) {
	t.Helper()

	if os.Getenv("UPDATE_GOLDENS") == "" {
		return
	}
	payload, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		t.Fatalf("marshal golden: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir golden dir: %v", err)
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		t.Fatalf("write golden: %v", err)
	}
}

// CompareGolden returns a diff string if the values differ.
func CompareGolden(want, got any) string {
	return cmp.Diff(want, got)
}
