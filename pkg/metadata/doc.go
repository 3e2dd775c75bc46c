// Package metadata describes the data models a form is generated from. A
// Registry holds one Model per data model; each Model keeps its Fields in
// declaration order and exposes exactly one identifier field.
//
// Foreign keys are modelled as two fields: the scalar carrying the related
// identifier (IsForeignKey, RelationField) and the data-model field describing
// the relation itself (IsDataModel, ForeignKeyMapping). Registry.Relation
// resolves the pair together with the target model, and Registry.Validate
// rejects registries where the link is broken.
//
// Documents can be authored in JSON, YAML or CUE and loaded with LoadFS:
//
//	models:
//	  Item:
//	    fields:
//	      - { name: id, type: Int, isId: true }
//	      - { name: ownerId, type: Int, isForeignKey: true, relationField: owner }
//	      - { name: owner, type: Person, isDataModel: true, foreignKeyMapping: { personId: ownerId } }
package metadata
