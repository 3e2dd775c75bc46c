package session

import (
	"context"
	"strings"

	"github.com/goliatone/go-modelform/pkg/form"
)

// Key combinations handled at the form boundary.
const (
	KeySave   = "meta+s"
	KeyRevert = "mod+backspace"
)

// HandleKey runs the shortcut bound to combo on update forms: KeySave submits
// and KeyRevert restores the baseline, returning focus to the previously
// focused input after one scheduler tick. "mod" matches both meta and ctrl.
// The boolean reports whether the combo was handled.
func (s *Session) HandleKey(ctx context.Context, combo string) (bool, error) {
	if s.mode != form.ModeUpdate {
		return false, nil
	}
	switch normalizeCombo(combo) {
	case KeySave:
		_, err := s.Submit(ctx)
		return true, err
	case KeyRevert:
		s.revertWithFocus()
		return true, nil
	default:
		return false, nil
	}
}

func (s *Session) revertWithFocus() {
	var path string
	if s.focus != nil {
		path = s.focus.ActivePath()
	}
	s.Revert()
	if s.focus == nil || path == "" {
		return
	}
	focus := s.focus
	s.scheduler.AfterTick(func() {
		focus.FocusPath(path)
	})
}

func normalizeCombo(combo string) string {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(combo)), "+")
	for i, part := range parts {
		part = strings.TrimSpace(part)
		switch part {
		case "cmd", "command":
			part = "meta"
		case "control":
			part = "ctrl"
		}
		parts[i] = part
	}
	joined := strings.Join(parts, "+")
	switch joined {
	case "meta+backspace", "ctrl+backspace":
		return KeyRevert
	}
	return joined
}
