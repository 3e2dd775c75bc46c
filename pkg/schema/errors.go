package schema

import (
	"fmt"
	"strings"
)

// Issue codes mirror the categories surfaced to callers.
const (
	CodeRequired    = "required"
	CodeInvalidType = "invalid_type"
	CodeInvalidEnum = "invalid_enum_value"
	CodeTooSmall    = "too_small"
	CodeTooBig      = "too_big"
	CodeCustom      = "custom"
)

// Issue is a single validation failure located by a dotted path.
type Issue struct {
	Path    string `json:"path,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ValidationError aggregates the issues produced by one parse.
type ValidationError struct {
	Issues []Issue
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Issues) == 0 {
		return "schema: validation failed"
	}
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		if issue.Path == "" {
			parts = append(parts, issue.Message)
			continue
		}
		parts = append(parts, issue.Path+": "+issue.Message)
	}
	return "schema: " + strings.Join(parts, "; ")
}

// FieldErrors groups messages by path, keeping form-level issues under "".
func (e *ValidationError) FieldErrors() map[string][]string {
	if e == nil || len(e.Issues) == 0 {
		return nil
	}
	out := make(map[string][]string, len(e.Issues))
	for _, issue := range e.Issues {
		out[issue.Path] = append(out[issue.Path], issue.Message)
	}
	return out
}

func required(path []string) Issue {
	return Issue{Path: joinPath(path), Code: CodeRequired, Message: "Required"}
}

func invalidType(path []string, expected string, value any) Issue {
	return Issue{
		Path:    joinPath(path),
		Code:    CodeInvalidType,
		Message: fmt.Sprintf("Expected %s, received %s", expected, describe(value)),
	}
}

func describe(value any) string {
	switch value.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case float32, float64, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return "number"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	default:
		return fmt.Sprintf("%T", value)
	}
}

func joinPath(path []string) string {
	return strings.Join(path, ".")
}
