package foundry

import (
	"fmt"
	"sync"
)

type operationType int

const (
	opCustom operationType = iota
	opCreate
	opDestroy
	opAddComponent
	opRemoveComponent
)

type operation struct {
	typ     operationType
	entity  EntityID
	typeID  string
	value   any
	values  []ComponentValue
	created func(EntityID)
	custom  Op
}

// opQueue collects work posted from outside the tick. It is the only part of the registry that
// is safe for concurrent use; everything queued is applied in posting order by FlushQueue.
type opQueue struct {
	mu             *sync.Mutex
	ops            []operation
	pendingDestroy map[EntityID]struct{}
}

func newOpQueue() opQueue {
	return opQueue{
		mu:             &sync.Mutex{},
		pendingDestroy: make(map[EntityID]struct{}),
	}
}

func (q *opQueue) enqueueOp(op operation) {
	q.mu.Lock()
	defer q.mu.Unlock()

	switch op.typ {
	case opDestroy:
		if _, queued := q.pendingDestroy[op.entity]; queued {
			return
		}
		q.pendingDestroy[op.entity] = struct{}{}
	case opAddComponent, opRemoveComponent:
		// Component changes posted after a destroy of the same entity are dropped.
		if _, queued := q.pendingDestroy[op.entity]; queued {
			return
		}
	}
	q.ops = append(q.ops, op)
}

func (q *opQueue) drain() []operation {
	q.mu.Lock()
	defer q.mu.Unlock()

	ops := q.ops
	q.ops = nil
	clear(q.pendingDestroy)
	return ops
}

func (q *opQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.ops)
}

// Post queues op for the next tick boundary. Safe to call from any goroutine.
func (r *Registry) Post(op Op) {
	r.opQueue.enqueueOp(operation{typ: opCustom, custom: op})
}

// EnqueueNewEntity queues the creation of an entity with the given components. created, when
// non-nil, receives the new id once the entity exists.
func (r *Registry) EnqueueNewEntity(created func(EntityID), values ...ComponentValue) {
	r.opQueue.enqueueOp(operation{typ: opCreate, values: values, created: created})
}

func (r *Registry) EnqueueDestroyEntity(id EntityID) {
	r.opQueue.enqueueOp(operation{typ: opDestroy, entity: id})
}

func (r *Registry) EnqueueAddComponent(id EntityID, typeID string, initial any) {
	r.opQueue.enqueueOp(operation{typ: opAddComponent, entity: id, typeID: typeID, value: initial})
}

func (r *Registry) EnqueueRemoveComponent(id EntityID, typeID string) {
	r.opQueue.enqueueOp(operation{typ: opRemoveComponent, entity: id, typeID: typeID})
}

// Pending reports how many queued operations wait for the next boundary.
func (r *Registry) Pending() int {
	return r.opQueue.len()
}

// FlushQueue applies every queued operation in posting order. The first failure stops the
// flush; operations after it are discarded with the rest of the batch.
func (r *Registry) FlushQueue() error {
	if r.locked {
		return LockedRegistryError{}
	}
	ops := r.opQueue.drain()
	if len(ops) > 0 {
		r.logger.Debug("applying queued operations", "count", len(ops))
	}
	for _, op := range ops {
		switch op.typ {
		case opCustom:
			if err := op.custom(r); err != nil {
				return fmt.Errorf("failed to process queued operation: %w", err)
			}
		case opCreate:
			id, err := r.CreateEntityWith(op.values...)
			if err != nil {
				return fmt.Errorf("failed to process queued entity creation: %w", err)
			}
			if op.created != nil {
				op.created(id)
			}
		case opDestroy:
			if err := r.DestroyEntity(op.entity); err != nil {
				return fmt.Errorf("failed to process queued entity destruction: %w", err)
			}
		case opAddComponent:
			if err := r.AddComponent(op.entity, op.typeID, op.value); err != nil {
				return fmt.Errorf("failed to add queued component: %w", err)
			}
		case opRemoveComponent:
			if err := r.RemoveComponent(op.entity, op.typeID); err != nil {
				return fmt.Errorf("failed to remove queued component: %w", err)
			}
		}
	}
	return nil
}
