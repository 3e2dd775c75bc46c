package tree

import (
	"github.com/goliatone/go-modelform/pkg/form"
)

// Node is one entry of a caller-authored UI tree. The set of node types is
// closed: Element, Text, Slot, CustomField and Func.
type Node interface {
	isNode()
}

// Element is a plain element with props and children. Props named onChange
// hold a form.ChangeHandler.
type Element struct {
	Tag      string
	Props    map[string]any
	Children []Node
}

// Text is a literal text leaf.
type Text string

// Slot marks where the generated input for Field is rendered. ClassName and
// OnChange are merged into the generated binding.
type Slot struct {
	Field     string
	ClassName string
	OnChange  form.ChangeHandler
}

// CustomField wraps exactly one caller element that the form controls for
// Field. Props the element sets itself are kept.
type CustomField struct {
	Field    string
	Children []Node
}

// Func defers rendering to a function. The merge walk expands it and inspects
// the result; a Func that fails or panics is left in place.
type Func struct {
	Name   string
	Render func() (Node, error)
}

func (*Element) isNode()     {}
func (Text) isNode()         {}
func (*Slot) isNode()        {}
func (*CustomField) isNode() {}
func (*Func) isNode()        {}

// El builds an Element.
func El(tag string, props map[string]any, children ...Node) *Element {
	return &Element{Tag: tag, Props: props, Children: children}
}

// SlotFor builds a Slot for field.
func SlotFor(field string) *Slot {
	return &Slot{Field: field}
}

// Custom builds a CustomField wrapper.
func Custom(field string, children ...Node) *CustomField {
	return &CustomField{Field: field, Children: children}
}

// Prop returns the named prop, or nil.
func (e *Element) Prop(name string) any {
	if e == nil || e.Props == nil {
		return nil
	}
	return e.Props[name]
}

// StringProp returns the named prop when it is a string.
func (e *Element) StringProp(name string) string {
	s, _ := e.Prop(name).(string)
	return s
}

// Handler returns the element's onChange handler, if any.
func (e *Element) Handler() form.ChangeHandler {
	switch h := e.Prop(form.PropOnChange).(type) {
	case form.ChangeHandler:
		return h
	case func(any):
		return h
	default:
		return nil
	}
}
