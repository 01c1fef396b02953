package foundry

import (
	"iter"
)

var _ iCursor = &Cursor{}

// Cursor walks a snapshot of the entities matching a query. The snapshot is taken on first use
// and again after Reset, so structural changes made while walking never disturb the walk.
type Cursor struct {
	query       QueryNode
	registry    *Registry
	matched     []EntityID
	position    int
	initialized bool
}

func newCursor(query QueryNode, reg *Registry) *Cursor {
	return &Cursor{
		query:    query,
		registry: reg,
	}
}

// Next advances to the next matched entity that is still alive.
func (c *Cursor) Next() bool {
	c.initialize()
	for c.position < len(c.matched) {
		c.position++
		if c.registry.Alive(c.matched[c.position-1]) {
			return true
		}
	}
	c.Reset()
	return false
}

// Entity is the current entity. Only valid after Next returned true.
func (c *Cursor) Entity() EntityID {
	if c.position == 0 || c.position > len(c.matched) {
		return 0
	}
	return c.matched[c.position-1]
}

func (c *Cursor) Entities() iter.Seq[EntityID] {
	return func(yield func(EntityID) bool) {
		defer c.Reset()
		for c.Next() {
			if !yield(c.Entity()) {
				return
			}
		}
	}
}

func (c *Cursor) initialize() {
	if c.initialized {
		return
	}
	c.matched = c.registry.QueryEntities(c.query)
	c.position = 0
	c.initialized = true
}

func (c *Cursor) Reset() {
	c.position = 0
	c.matched = nil
	c.initialized = false
}

func (c *Cursor) TotalMatched() int {
	c.initialize()
	return len(c.matched)
}

func (c *Cursor) Remaining() int {
	c.initialize()
	return len(c.matched) - c.position
}
