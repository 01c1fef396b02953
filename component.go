package foundry

import (
	"reflect"

	"github.com/TheBitDrifter/table"
)

// componentInfo is the registry-side view of a registered component type.
type componentInfo struct {
	id      string
	schema  Schema
	elem    table.ElementType
	typ     reflect.Type
	binding *binding
	bit     uint32

	accepts func(v any) bool
	get     func(entry table.Entry) any
	set     func(entry table.Entry, v any)
}

// ComponentType is a typed component definition. The embedded accessor reads state straight out
// of the archetype table holding the entity; the id and schema make it addressable by string.
type ComponentType[T any] struct {
	Component
	table.Accessor[T]
	id     string
	schema Schema
}

var _ ComponentDescriptor = ComponentType[struct{}]{}

func (c ComponentType[T]) ComponentID() string {
	return c.id
}

func (c ComponentType[T]) ComponentSchema() Schema {
	return c.schema
}

func (c ComponentType[T]) descriptor() *componentInfo {
	return &componentInfo{
		id:     c.id,
		schema: c.schema,
		elem:   c.Component,
		typ:    reflect.TypeFor[T](),
		accepts: func(v any) bool {
			switch val := v.(type) {
			case T:
				return true
			case *T:
				return val != nil
			}
			return false
		},
		get: func(entry table.Entry) any {
			return c.Accessor.Get(entry.Index(), entry.Table())
		},
		set: func(entry table.Entry, v any) {
			dst := c.Accessor.Get(entry.Index(), entry.Table())
			switch val := v.(type) {
			case T:
				*dst = val
			case *T:
				*dst = *val
			}
		},
	}
}

// GetFromEntity returns the entity's state block, or nil when the entity does not carry it.
func (c ComponentType[T]) GetFromEntity(reg *Registry, id EntityID) (*T, error) {
	e, info, err := reg.lookup(id, c.id)
	if err != nil {
		return nil, err
	}
	if !e.has(info.bit) {
		return nil, nil
	}
	entry, err := reg.entryOf(e)
	if err != nil {
		return nil, err
	}
	return c.Accessor.Get(entry.Index(), entry.Table()), nil
}

// GetFromCursor returns the state block of the cursor's current entity, or nil.
func (c ComponentType[T]) GetFromCursor(cursor *Cursor) *T {
	block, err := c.GetFromEntity(cursor.registry, cursor.Entity())
	if err != nil {
		return nil
	}
	return block
}

// CheckEntity reports whether id is alive and carries this component.
func (c ComponentType[T]) CheckEntity(reg *Registry, id EntityID) bool {
	e, info, err := reg.lookup(id, c.id)
	return err == nil && e.has(info.bit)
}

func (c ComponentType[T]) AddToEntity(reg *Registry, id EntityID, value T) error {
	return reg.AddComponent(id, c.id, value)
}

func (c ComponentType[T]) RemoveFromEntity(reg *Registry, id EntityID) error {
	return reg.RemoveComponent(id, c.id)
}
