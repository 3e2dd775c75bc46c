package render

// Options carry per-request data a renderer needs to emit a submittable form
// without changing the session.
type Options struct {
	// Action is the URL the form posts to. Empty leaves the attribute out.
	Action string
	// Method defaults to POST.
	Method string
	// Hidden fields are emitted in name order.
	Hidden []HiddenField
	// Errors are the current field errors keyed by field name. Renderers show
	// them next to the matching inputs.
	Errors map[string][]string
}

// FormMethod returns the method to emit.
func (o Options) FormMethod() string {
	if o.Method == "" {
		return "post"
	}
	return o.Method
}
