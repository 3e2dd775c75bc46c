package form_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-modelform/pkg/form"
	"github.com/goliatone/go-modelform/pkg/schema"
	"github.com/goliatone/go-modelform/pkg/testsupport"
)

func bindField(t *testing.T, name string, ctx form.BindContext) form.Binding {
	t.Helper()

	reg := testsupport.Registry(t)
	item := testsupport.Model(t, reg, testsupport.ItemModel)
	classifier := form.NewClassifier(reg, item, schema.FromModel(item))

	field, ok := item.Field(name)
	if !ok {
		t.Fatalf("fixture field %s missing", name)
	}
	desc, ok, err := classifier.Classify(field)
	if err != nil || !ok {
		t.Fatalf("classify %s: ok=%v err=%v", name, ok, err)
	}
	return classifier.Bind(desc, ctx)
}

func TestBind_UpdateFieldCarriesDirtyClassAndLoadingPlaceholder(t *testing.T) {
	t.Parallel()

	b := bindField(t, "name", form.BindContext{
		Mode:           form.ModeUpdate,
		Values:         form.Values{"name": "Hammer"},
		Dirty:          map[string]bool{"name": true},
		LoadingInitial: true,
		Index:          1,
		ClassName:      "wide",
	})

	if !b.Dirty || b.ClassName != "wide dirty" {
		t.Fatalf("expected dirty class, got dirty=%v class=%q", b.Dirty, b.ClassName)
	}
	if b.Placeholder != form.LoadingPlaceholder {
		t.Fatalf("expected loading placeholder, got %q", b.Placeholder)
	}
	if b.Autofocus {
		t.Fatalf("only the first field takes autofocus")
	}
	if b.Value != "Hammer" || !b.Required {
		t.Fatalf("unexpected binding %+v", b)
	}
}

func TestBind_CreateModeNeverMarksDirty(t *testing.T) {
	t.Parallel()

	b := bindField(t, "name", form.BindContext{
		Mode:   form.ModeCreate,
		Values: form.Values{"name": "Hammer"},
		Dirty:  map[string]bool{"name": true},
	})
	if b.Dirty || b.ClassName != "" {
		t.Fatalf("create bindings must not be marked dirty: %+v", b)
	}
	if !b.Autofocus {
		t.Fatalf("index 0 must take autofocus")
	}
	if b.Placeholder != "Item name" {
		t.Fatalf("expected field placeholder, got %q", b.Placeholder)
	}
}

func TestBind_ReferenceWaitsForData(t *testing.T) {
	t.Parallel()

	loading := bindField(t, "ownerId", form.BindContext{
		Mode:    form.ModeCreate,
		Values:  form.Values{},
		Related: func(string) form.QueryResult { return form.QueryResult{Loading: true} },
	})
	if !loading.Loading || !loading.Disabled {
		t.Fatalf("reference without data must be disabled and loading: %+v", loading)
	}

	ready := bindField(t, "ownerId", form.BindContext{
		Mode:   form.ModeCreate,
		Values: form.Values{},
		Related: func(model string) form.QueryResult {
			if model != testsupport.PersonModel {
				t.Errorf("unexpected related model %q", model)
			}
			return form.QueryResult{Data: testsupport.People()}
		},
	})
	if ready.Loading || ready.Disabled || len(ready.Options) != 3 {
		t.Fatalf("reference with data must be interactive: %+v", ready)
	}
	if ready.Label != "owner" {
		t.Fatalf("reference label must be the relation field, got %q", ready.Label)
	}
}

func TestBind_DependentFieldDisabledUntilSet(t *testing.T) {
	t.Parallel()

	b := bindField(t, "subCategory", form.BindContext{Mode: form.ModeCreate, Values: form.Values{}})
	if !b.Disabled {
		t.Fatalf("subCategory must be disabled while category is unset")
	}
	b = bindField(t, "subCategory", form.BindContext{Mode: form.ModeCreate, Values: form.Values{"category": "tools"}})
	if b.Disabled {
		t.Fatalf("subCategory must be enabled once category is set")
	}
}

func TestBinding_Props(t *testing.T) {
	t.Parallel()

	b := bindField(t, "inStock", form.BindContext{Mode: form.ModeCreate, Values: form.Values{"inStock": true}})
	want := map[string]any{
		form.PropName:        "inStock",
		form.PropValue:       true,
		form.PropLabel:       "inStock",
		form.PropPlaceholder: "",
		form.PropRequired:    false,
		form.PropDisabled:    false,
		form.PropAutofocus:   true,
		form.PropPath:        "inStock",
		form.PropClassName:   "",
		form.PropType:        "checkbox",
	}
	if diff := cmp.Diff(want, b.Props()); diff != "" {
		t.Fatalf("props mismatch (-want +got):\n%s", diff)
	}
}

func TestJoinClass(t *testing.T) {
	t.Parallel()

	if got := form.JoinClass(" a ", "", "b"); got != "a b" {
		t.Fatalf("JoinClass = %q", got)
	}
}
