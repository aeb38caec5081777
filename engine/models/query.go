// Package models holds the lowered output of the translation engine: the
// QueryPlan produced from an ast.Statement, plus the field-type map and
// render options that steer lowering and shell-syntax rendering.
package models

import "go.mongodb.org/mongo-driver/bson"

// Op is the output shape chosen by the Shape Selector (engine/lowering).
type Op string

const (
	OpFind     Op = "find"
	OpCount    Op = "count"
	OpDistinct Op = "distinct"
	OpAggregate Op = "aggregate"
	OpDelete   Op = "deleteMany"
)

// FieldType is the caller-supplied coercion hint for a column.
type FieldType string

const (
	FieldUnknown FieldType = "UNKNOWN"
	FieldString  FieldType = "STRING"
	FieldNumber  FieldType = "NUMBER"
	FieldDate    FieldType = "DATE"
	FieldBoolean FieldType = "BOOLEAN"
)

// FieldTypeMap is a read-only, dotted-column-name to FieldType mapping
// consulted by the Value Coercer. A missing key falls back to Default
// (FieldUnknown if Default is left zero-valued).
type FieldTypeMap struct {
	Types   map[string]FieldType
	Default FieldType
}

// Lookup returns the FieldType for a dotted column name, or Default (or
// FieldUnknown if Default was never set) when the column is not mapped.
func (m FieldTypeMap) Lookup(column string) FieldType {
	if m.Types != nil {
		if t, ok := m.Types[column]; ok {
			return t
		}
	}
	if m.Default != "" {
		return m.Default
	}
	return FieldUnknown
}

// RenderOptions are the aggregation options threaded explicitly through
// the shell formatter rather than read from process-wide state.
type RenderOptions struct {
	AggregationAllowDiskUse bool
	AggregationBatchSize    *int32

	// StrictNumberLong wraps rendered int64 values as {"$numberLong": "N"}
	// instead of a plain number. Off by default: offsets, limits, and
	// coerced numeric literals render as plain numbers.
	StrictNumberLong bool
}

// QueryPlan is the lowered output: a structured description of the
// equivalent MongoDB operation. It is constructed once per input statement,
// populated by the lowering pipeline, and never mutated afterward.
type QueryPlan struct {
	Collection string
	Op         Op

	Filter          bson.D
	Projection      bson.D
	AliasProjection bson.D
	Sort            bson.D

	Offset int64 // -1 means unset
	Limit  int64 // -1 means unset

	GroupBys  []string
	Distinct  bool
	CountAll  bool

	JoinPipeline []bson.D // opaque; produced by a JoinPipeline collaborator
}

// NewQueryPlan returns a QueryPlan with the -1 offset/limit sentinels and
// empty (non-nil) documents rather than nil ones.
func NewQueryPlan(collection string) *QueryPlan {
	return &QueryPlan{
		Collection:      collection,
		Filter:          bson.D{},
		Projection:      bson.D{},
		AliasProjection: bson.D{},
		Sort:            bson.D{},
		Offset:          -1,
		Limit:           -1,
	}
}
