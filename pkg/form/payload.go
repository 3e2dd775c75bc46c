package form

import (
	"errors"
	"fmt"

	"github.com/goliatone/go-modelform/pkg/metadata"
	"github.com/goliatone/go-modelform/pkg/schema"
)

// Payload is the argument handed to the mutation boundary. Where is only set
// for updates.
type Payload struct {
	Where map[string]any `json:"where,omitempty"`
	Data  map[string]any `json:"data"`
}

// Map returns the payload as a plain map, omitting Where for creates.
func (p Payload) Map() map[string]any {
	out := map[string]any{"data": p.Data}
	if p.Where != nil {
		out["where"] = p.Where
	}
	return out
}

// PayloadRequest collects the inputs of BuildPayload.
type PayloadRequest struct {
	Mode   Mode
	Model  *metadata.Model
	Schema schema.Rule
	Values Values
	// Dirty limits update payloads to changed fields. Ignored for creates.
	Dirty map[string]bool
	// ID is the identifier of the record being updated.
	ID any
}

// BuildPayload validates the values and turns them into a mutation payload.
//
// Validation runs on the full value map; on failure the returned error is a
// *schema.ValidationError and no payload is produced. Update payloads carry
// only dirty fields of the validated output, create payloads every validated
// field. Optional fields holding "" are sent as nil, and foreign-key scalars
// are replaced by relation connect objects.
func BuildPayload(req PayloadRequest) (Payload, error) {
	if req.Model == nil {
		return Payload{}, errors.New("modelform/form: payload model is nil")
	}
	if req.Schema == nil {
		return Payload{}, errors.New("modelform/form: payload schema is nil")
	}

	res := schema.SafeParse(req.Schema, map[string]any(req.Values.Clone()))
	if !res.Success {
		return Payload{}, res.Error
	}
	parsed, ok := res.Value.(map[string]any)
	if !ok {
		return Payload{}, fmt.Errorf("modelform/form: schema produced %T, want object", res.Value)
	}

	selected := make(map[string]any, len(parsed))
	for key, value := range parsed {
		if req.Mode == ModeUpdate && !req.Dirty[key] {
			continue
		}
		if field, ok := req.Model.Field(key); ok && field.IsOptional && value == "" {
			value = nil
		}
		selected[key] = value
	}

	data := Connect(req.Model, selected)
	if req.Mode != ModeUpdate {
		return Payload{Data: data}, nil
	}

	idField, err := req.Model.IDField()
	if err != nil {
		return Payload{}, err
	}
	return Payload{
		Where: map[string]any{idField.Name: req.ID},
		Data:  data,
	}, nil
}

// Connect replaces each set foreign-key scalar in data with a connect object on
// its relation field:
//
//	{ownerId: 7} -> {owner: {connect: {personId: 7}}}
//
// Empty values (nil, "", 0, false) are left untouched.
func Connect(m *metadata.Model, data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for key, value := range data {
		out[key] = value
	}

	connectors := make(map[string]any)
	for _, fk := range m.ForeignKeys() {
		value, ok := out[fk.Name]
		if !ok || isEmpty(value) {
			continue
		}
		relation, ok := m.Field(fk.RelationField)
		if !ok {
			continue
		}
		key, ok := relation.RelationIDKey(fk.Name)
		if !ok {
			continue
		}
		connectors[fk.RelationField] = map[string]any{
			"connect": map[string]any{key: value},
		}
		delete(out, fk.Name)
	}

	for key, value := range connectors {
		out[key] = value
	}
	return out
}

func isEmpty(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case bool:
		return !v
	default:
		if f, ok := number(value); ok {
			return f == 0
		}
		return false
	}
}
