package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Result is the outcome of SafeParse: either the transformed value or the
// collected validation issues.
type Result struct {
	Value   any
	Success bool
	Error   *ValidationError
}

// SafeParse validates input against rule without returning a Go error. The
// returned Value carries any transformations applied by Effect rules.
func SafeParse(rule Rule, input any) Result {
	if rule == nil {
		return Result{
			Error: &ValidationError{Issues: []Issue{{Code: CodeCustom, Message: "schema is nil"}}},
		}
	}
	value, issues := rule.parse(input, true, nil)
	if len(issues) > 0 {
		return Result{Error: &ValidationError{Issues: issues}}
	}
	return Result{Value: value, Success: true}
}

// Parse is the error-returning variant of SafeParse.
func Parse(rule Rule, input any) (any, error) {
	res := SafeParse(rule, input)
	if !res.Success {
		return nil, res.Error
	}
	return res.Value, nil
}

func (o *Object) parse(value any, present bool, path []string) (any, []Issue) {
	if !present {
		return nil, []Issue{required(path)}
	}
	in, ok := asMap(value)
	if !ok {
		return nil, []Issue{invalidType(path, "object", value)}
	}
	out := make(map[string]any, len(o.keys))
	var issues []Issue
	for _, key := range o.keys {
		raw, has := in[key]
		parsed, fieldIssues := o.shape[key].parse(raw, has, appendPath(path, key))
		if len(fieldIssues) > 0 {
			issues = append(issues, fieldIssues...)
			continue
		}
		if has || parsed != nil {
			out[key] = parsed
		}
	}
	if len(issues) > 0 {
		return nil, issues
	}
	return out, nil
}

func (o *Optional) parse(value any, present bool, path []string) (any, []Issue) {
	if !present || value == nil {
		return nil, nil
	}
	return o.Inner.parse(value, true, path)
}

func (n *Nullable) parse(value any, present bool, path []string) (any, []Issue) {
	if !present {
		return nil, []Issue{required(path)}
	}
	if value == nil {
		return nil, nil
	}
	return n.Inner.parse(value, true, path)
}

func (e *Enum) parse(value any, present bool, path []string) (any, []Issue) {
	if !present {
		return nil, []Issue{required(path)}
	}
	s, ok := value.(string)
	if !ok {
		return nil, []Issue{invalidType(path, "string", value)}
	}
	for _, allowed := range e.Values {
		if allowed == s {
			return s, nil
		}
	}
	return nil, []Issue{{
		Path:    joinPath(path),
		Code:    CodeInvalidEnum,
		Message: fmt.Sprintf("Invalid enum value. Expected %s, received '%s'", quoteList(e.Values), s),
	}}
}

func (e *Effect) parse(value any, present bool, path []string) (any, []Issue) {
	if e.Pre != nil && present {
		value = e.Pre(value)
	}
	out, issues := e.Inner.parse(value, present, path)
	if len(issues) > 0 || e.Transform == nil {
		return out, issues
	}
	transformed, err := e.Transform(out)
	if err != nil {
		return nil, []Issue{{Path: joinPath(path), Code: CodeCustom, Message: err.Error()}}
	}
	return transformed, nil
}

func (s *String) parse(value any, present bool, path []string) (any, []Issue) {
	if !present {
		return nil, []Issue{required(path)}
	}
	str, ok := value.(string)
	if !ok {
		return nil, []Issue{invalidType(path, "string", value)}
	}
	length := len([]rune(str))
	if s.MinLength > 0 && length < s.MinLength {
		return nil, []Issue{{
			Path:    joinPath(path),
			Code:    CodeTooSmall,
			Message: fmt.Sprintf("String must contain at least %d character(s)", s.MinLength),
		}}
	}
	if s.MaxLength > 0 && length > s.MaxLength {
		return nil, []Issue{{
			Path:    joinPath(path),
			Code:    CodeTooBig,
			Message: fmt.Sprintf("String must contain at most %d character(s)", s.MaxLength),
		}}
	}
	return str, nil
}

func (n *Number) parse(value any, present bool, path []string) (any, []Issue) {
	if !present {
		return nil, []Issue{required(path)}
	}
	f, ok := toFloat(value, n.Coerce)
	if !ok {
		return nil, []Issue{invalidType(path, "number", value)}
	}
	if n.Int && f != math.Trunc(f) {
		return nil, []Issue{invalidType(path, "integer", value)}
	}
	if n.Min != nil && f < *n.Min {
		return nil, []Issue{{
			Path:    joinPath(path),
			Code:    CodeTooSmall,
			Message: fmt.Sprintf("Number must be greater than or equal to %s", formatFloat(*n.Min)),
		}}
	}
	if n.Max != nil && f > *n.Max {
		return nil, []Issue{{
			Path:    joinPath(path),
			Code:    CodeTooBig,
			Message: fmt.Sprintf("Number must be less than or equal to %s", formatFloat(*n.Max)),
		}}
	}
	if n.Int {
		return int64(f), nil
	}
	return f, nil
}

func (*Boolean) parse(value any, present bool, path []string) (any, []Issue) {
	if !present {
		return nil, []Issue{required(path)}
	}
	b, ok := value.(bool)
	if !ok {
		return nil, []Issue{invalidType(path, "boolean", value)}
	}
	return b, nil
}

func (*Any) parse(value any, present bool, path []string) (any, []Issue) {
	if !present {
		return nil, []Issue{required(path)}
	}
	return value, nil
}

// Unwrap strips at most one Optional and one Effect layer, in either order,
// and reports whether an Optional layer was found.
func Unwrap(rule Rule) (base Rule, optional bool) {
	base = rule
	seenEffect := false
	for {
		switch typed := base.(type) {
		case *Optional:
			if optional {
				return base, optional
			}
			optional = true
			base = typed.Inner
		case *Effect:
			if seenEffect {
				return base, optional
			}
			seenEffect = true
			base = typed.Inner
		default:
			return base, optional
		}
	}
}

// ShapeOf returns the object rule at the root of rule, looking through any
// number of Effect wrappers.
func ShapeOf(rule Rule) (*Object, bool) {
	for depth := 0; rule != nil && depth < 32; depth++ {
		switch typed := rule.(type) {
		case *Object:
			return typed, true
		case *Effect:
			rule = typed.Inner
		default:
			return nil, false
		}
	}
	return nil, false
}

func asMap(value any) (map[string]any, bool) {
	typed, ok := value.(map[string]any)
	return typed, ok
}

func toFloat(value any, coerce bool) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, finite(v)
	case float32:
		return float64(v), finite(float64(v))
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil && finite(f)
	case string:
		if !coerce {
			return 0, false
		}
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		return f, err == nil && finite(f)
	default:
		return 0, false
	}
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func appendPath(path []string, key string) []string {
	out := make([]string, len(path), len(path)+1)
	copy(out, path)
	return append(out, key)
}

func quoteList(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = "'" + v + "'"
	}
	return strings.Join(quoted, " | ")
}
