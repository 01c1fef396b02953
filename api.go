package foundry

import (
	"iter"

	"github.com/TheBitDrifter/mask"
	"github.com/TheBitDrifter/table"
)

// EntityID is a stable entity identity. Ids are issued in ascending order and never reused;
// zero is never a valid id.
type EntityID uint64

// Component is the storage identity of a component type inside archetype tables.
type Component interface {
	table.ElementType
}

// ComponentDescriptor is a registrable component type: a stable string id, a schema, and the
// typed storage glue. ComponentType[T] is the only implementation.
type ComponentDescriptor interface {
	Component
	ComponentID() string
	ComponentSchema() Schema
	descriptor() *componentInfo
}

// ComponentValue pairs a component type id with an initial state, for batched creation.
type ComponentValue struct {
	TypeID string
	Value  any
}

type Query interface {
	QueryNode
	And(items ...interface{}) QueryNode
	Or(items ...interface{}) QueryNode
	Not(items ...interface{}) QueryNode
}

// QueryNode evaluates an entity's component signature.
type QueryNode interface {
	Evaluate(signature mask.Mask, reg *Registry) bool
}

type iCursor interface {
	Entities() iter.Seq[EntityID]
	Next() bool
}

// TickContext is handed to every Process call. Now is the quantized tick time and is the only
// time a system may read.
type TickContext struct {
	Registry *Registry
	Now      float64
	Tick     uint64
	System   string
}

// ProcessFunc runs once per matching entity per tick. A returned error is fatal to the tick.
type ProcessFunc func(tc *TickContext, id EntityID) error

// DrawFunc renders one visible entity. The registry is locked while it runs.
type DrawFunc func(reg *Registry, id EntityID, params any) error

// Op is an out-of-band mutation applied at the next tick boundary.
type Op func(reg *Registry) error
