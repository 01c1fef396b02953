/*
Package foundry provides the deterministic entity-component core of a tile-based production
simulation.

Entities are bare ids. Component types are plain Go structs paired with a string id and a
schema; their values live in archetype tables, and an index per component type answers
queries in entity insertion order. Systems run in fixed priority order once per tick over a
snapshot of the entities holding their required components.

Tick times are quantized to 1/1000 of a unit. Two instances fed the same logical schedule fire
every timer on the same tick as long as deadlines are compared through IsTimerExpired.

Core Concepts:

  - Entity: a stable integer id that is never reused.
  - Component: a schema-typed state block, at most one per type per entity.
  - System: a per-tick function over the entities matching a component set.
  - Boundary queue: work posted from outside the tick, applied before the next tick runs.

Basic Usage:

	cfg := foundry.DefaultConfig()
	reg := foundry.Factory.NewRegistry(cfg)
	sched := foundry.Factory.NewScheduler(reg, cfg)

	position := foundry.FactoryNewComponentType[Position]("position",
		foundry.NewSchema(foundry.IntField("x", 0), foundry.IntField("y", 0)))
	reg.RegisterComponentType(position)

	id, _ := reg.CreateEntity()
	position.AddToEntity(reg, id, Position{X: 1})

	sched.RegisterSystem(foundry.SystemSpec{
		Name:     "drift",
		Requires: []string{"position"},
		Process: func(tc *foundry.TickContext, id foundry.EntityID) error {
			pos, err := position.GetFromEntity(tc.Registry, id)
			if err != nil {
				return err
			}
			pos.X++
			return nil
		},
	})

	clock := foundry.NewClock(0)
	sched.Tick(clock.Advance(cfg.TickInterval()))
*/
package foundry
