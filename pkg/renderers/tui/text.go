package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-modelform/pkg/form"
	"github.com/goliatone/go-modelform/pkg/render"
	"github.com/goliatone/go-modelform/pkg/session"
	"github.com/goliatone/go-modelform/pkg/tree"
)

// TextRenderer prints a view as a plain-text transcript, one line per input.
type TextRenderer struct{}

var _ render.Renderer = TextRenderer{}

func (TextRenderer) Name() string {
	return "text"
}

func (TextRenderer) ContentType() string {
	return "text/plain; charset=utf-8"
}

func (TextRenderer) Render(ctx context.Context, view session.View, options render.Options) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s [%s]\n", view.Mode, view.Model, view.State)
	if view.Errors != "" {
		fmt.Fprintf(&b, "! %s\n", view.Errors)
	}
	for _, node := range view.Layout {
		writeNode(&b, node, options, 0)
	}
	for _, node := range view.Fields {
		writeNode(&b, node, options, 0)
	}

	state := "enabled"
	switch {
	case view.Submit.Loading:
		state = "submitting"
	case view.Submit.Disabled:
		state = "disabled"
	}
	fmt.Fprintf(&b, "[%s] %s\n", view.Submit.Element, state)
	return []byte(b.String()), nil
}

func writeNode(b *strings.Builder, node tree.Node, options render.Options, depth int) {
	indent := strings.Repeat("  ", depth)
	switch n := node.(type) {
	case tree.Text:
		if text := strings.TrimSpace(string(n)); text != "" {
			fmt.Fprintf(b, "%s%s\n", indent, text)
		}
	case *tree.Element:
		if n == nil {
			return
		}
		if _, ok := n.Props[form.PropPath]; !ok {
			for _, child := range n.Children {
				writeNode(b, child, options, depth)
			}
			return
		}
		writeInput(b, n, options, indent)
	}
}

func writeInput(b *strings.Builder, el *tree.Element, options render.Options, indent string) {
	name := el.StringProp(form.PropName)
	label := el.StringProp(form.PropLabel)
	if label == "" {
		label = name
	}
	if required, _ := el.Prop(form.PropRequired).(bool); required {
		label += " *"
	}

	var flags []string
	if disabled, _ := el.Prop(form.PropDisabled).(bool); disabled {
		flags = append(flags, "disabled")
	}
	if loading, _ := el.Prop(form.PropLoading).(bool); loading {
		flags = append(flags, "loading")
	}
	if strings.Contains(el.StringProp(form.PropClassName), form.DirtyClass) {
		flags = append(flags, "dirty")
	}

	line := fmt.Sprintf("%s%s (%s): %s", indent, label, el.Tag, display(el.Prop(form.PropValue)))
	if len(flags) > 0 {
		line += " [" + strings.Join(flags, ", ") + "]"
	}
	b.WriteString(line + "\n")

	if opts, ok := el.Prop(form.PropData).([]form.Option); ok {
		labels := make([]string, 0, len(opts))
		for _, opt := range opts {
			labels = append(labels, opt.Label)
		}
		fmt.Fprintf(b, "%s  options: %s\n", indent, strings.Join(labels, " | "))
	}
	for _, msg := range options.Errors[name] {
		fmt.Fprintf(b, "%s  ! %s\n", indent, msg)
	}
}
