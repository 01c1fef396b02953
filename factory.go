package foundry

import "github.com/TheBitDrifter/table"

type factory struct{}

var Factory factory

func (f factory) NewRegistry(cfg Config) *Registry {
	return newRegistry(cfg)
}

func (f factory) NewScheduler(reg *Registry, cfg Config) *Scheduler {
	return newScheduler(reg, cfg)
}

func (f factory) NewQuery() Query {
	return newQuery()
}

// NewLeaf is a node matching entities that hold every listed component type.
func (f factory) NewLeaf(typeIDs ...string) QueryNode {
	return newLeafNode(typeIDs)
}

func (f factory) NewCursor(query QueryNode, reg *Registry) *Cursor {
	return newCursor(query, reg)
}

// FactoryNewComponentType defines a component type backed by T. The schema describes the
// fields of T that are persisted and defaulted; it is checked against T on registration.
func FactoryNewComponentType[T any](id string, schema Schema) ComponentType[T] {
	iden := table.FactoryNewElementType[T]()
	return ComponentType[T]{
		Component: iden,
		Accessor:  table.FactoryNewAccessor[T](iden),
		id:        id,
		schema:    schema,
	}
}
