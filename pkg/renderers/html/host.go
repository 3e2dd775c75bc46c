package html

import (
	"github.com/goliatone/go-modelform/pkg/form"
	"github.com/goliatone/go-modelform/pkg/metadata"
	"github.com/goliatone/go-modelform/pkg/session"
)

// Host element names understood by the renderer.
const (
	ElementText      = "text-input"
	ElementNumber    = "number-input"
	ElementCheckbox  = "checkbox"
	ElementDate      = "date-input"
	ElementSelect    = "select"
	ElementReference = "reference-select"
	ElementJSON      = "json-input"
	ElementCreate    = "create-button"
	ElementUpdate    = "update-button"
)

// FormClassName is the global class of generated forms.
const FormClassName = "modelform"

// DefaultHost maps every field kind to an element this renderer draws.
func DefaultHost() session.HostConfig {
	return session.HostConfig{
		Elements: map[form.Kind]string{
			form.KindOf(metadata.FieldTypeString):   ElementText,
			form.KindOf(metadata.FieldTypeBytes):    ElementText,
			form.KindOf(metadata.FieldTypeInt):      ElementNumber,
			form.KindOf(metadata.FieldTypeBigInt):   ElementNumber,
			form.KindOf(metadata.FieldTypeFloat):    ElementNumber,
			form.KindOf(metadata.FieldTypeDecimal):  ElementNumber,
			form.KindOf(metadata.FieldTypeBoolean):  ElementCheckbox,
			form.KindOf(metadata.FieldTypeDateTime): ElementDate,
			form.KindOf(metadata.FieldTypeJSON):     ElementJSON,
			form.KindEnum:                           ElementSelect,
			form.KindReferenceSingle:                ElementReference,
		},
		EnumLabel:       metadata.DefaultLabeler,
		GlobalClassName: FormClassName,
		Submit: session.SubmitControls{
			Create: ElementCreate,
			Update: ElementUpdate,
		},
	}
}

func inputType(element string) string {
	switch element {
	case ElementNumber:
		return "number"
	case ElementCheckbox:
		return "checkbox"
	case ElementDate:
		return "datetime-local"
	default:
		return "text"
	}
}
