// Package schema implements the validation-rule trees forms are checked
// against. Trees are built from a closed set of rules (Object, Optional, Enum,
// Effect and the scalar String, Number, Boolean and Any) so the form engine
// can introspect them: Unwrap peels one Optional and one Effect layer to reach
// the base rule of a field, and ShapeOf finds the object at the root of a
// possibly transformed schema.
//
// SafeParse follows the familiar contract of returning either the transformed
// value or a ValidationError listing every issue:
//
//	res := schema.SafeParse(rule, values)
//	if !res.Success {
//		log.Println(res.Error)
//	}
package schema
