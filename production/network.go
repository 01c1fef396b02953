package production

import (
	"errors"
	"io"
	"log/slog"
	"slices"

	"github.com/TheBitDrifter/foundry"
	"github.com/TheBitDrifter/foundry/shape"
)

// System priorities. Pending outputs are retried before anything moves, so an output waits
// one tick after its slot frees up.
const (
	PendingPriority     = 0
	CheckerGoalPriority = 5
	EjectorPriority     = 10
	EmitterPriority     = 15
	ProcessorPriority   = 20
)

// Network is a production line installed into a scheduler.
type Network struct {
	registry *foundry.Registry
	settings Settings
	goals    *HubGoals
	cache    *shape.Cache
	logger   *slog.Logger
	handlers map[ProcessorType]Handler
	tiles    tileIndex
}

// Install registers the production component types and systems.
func Install(sched *foundry.Scheduler, settings Settings, logger *slog.Logger) (*Network, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	reg := sched.Registry()
	if err := Register(reg); err != nil {
		return nil, err
	}
	cache := shape.NewCache(settings.ShapeCacheSize)
	goals, err := NewHubGoals(settings, cache, logger)
	if err != nil {
		return nil, err
	}
	n := &Network{
		registry: reg,
		settings: settings,
		goals:    goals,
		cache:    cache,
		logger:   logger,
		handlers: defaultHandlers(),
	}

	systems := []foundry.SystemSpec{
		{
			Name:     "pending",
			Priority: PendingPriority,
			Requires: []string{ProcessorID, EjectorID},
			Process:  n.processPending,
		},
		{
			Name:     "checker-goal",
			Priority: CheckerGoalPriority,
			Requires: []string{CheckerID, EjectorID},
			Process:  n.processCheckerGoal,
		},
		{
			Name:     "ejector",
			Priority: EjectorPriority,
			Requires: []string{PlacementID, EjectorID},
			Process:  n.processEjector,
		},
		{
			Name:     "emitter",
			Priority: EmitterPriority,
			Requires: []string{EmitterID, EjectorID},
			Process:  n.processEmitter,
		},
		{
			Name:     "processor",
			Priority: ProcessorPriority,
			Requires: []string{ProcessorID, AcceptorID},
			Process:  n.processProcessor,
		},
	}
	for _, spec := range systems {
		if err := sched.RegisterSystem(spec); err != nil {
			return nil, err
		}
	}
	return n, nil
}

func (n *Network) Goals() *HubGoals {
	return n.goals
}

func (n *Network) Cache() *shape.Cache {
	return n.cache
}

func (n *Network) Settings() Settings {
	return n.settings
}

// Intern resolves item keys through the network's shape cache.
func (n *Network) Intern(key string) (*shape.Shape, error) {
	return n.cache.Intern(key)
}

func (n *Network) processPending(tc *foundry.TickContext, id foundry.EntityID) error {
	proc, err := ProcessorComponent.GetFromEntity(tc.Registry, id)
	if err != nil {
		return err
	}
	if proc.Charging || len(proc.Pending) == 0 {
		return nil
	}
	return n.deliverPending(tc.Registry, id, proc)
}

// processCheckerGoal drops everything a checker classified against an outdated goal.
func (n *Network) processCheckerGoal(tc *foundry.TickContext, id foundry.EntityID) error {
	chk, err := CheckerComponent.GetFromEntity(tc.Registry, id)
	if err != nil {
		return err
	}
	return n.syncCheckerGoal(tc.Registry, id, chk)
}

// syncCheckerGoal clears the checker's ejector slots and undelivered outputs when the goal moved
// since it last classified. A hub earlier in the processor pass can move the goal mid-tick, so
// this also runs right before every checker charge.
func (n *Network) syncCheckerGoal(reg *foundry.Registry, id foundry.EntityID, chk *GoalChecker) error {
	goal := n.goals.CurrentGoalKey()
	if chk.GoalSeen == goal {
		return nil
	}
	ej, err := EjectorComponent.GetFromEntity(reg, id)
	if err != nil {
		return err
	}
	if ej != nil {
		for i := range ej.Slots {
			ej.Slots[i].Item = nil
		}
	}
	proc, err := ProcessorComponent.GetFromEntity(reg, id)
	if err != nil {
		return err
	}
	if proc != nil {
		proc.Pending = nil
		proc.Charged = nil
	}
	if chk.GoalSeen != "" {
		n.logger.Debug("goal changed, checker outputs dropped", "entity", id, "goal", goal)
	}
	chk.GoalSeen = goal
	return nil
}

func (n *Network) processEjector(tc *foundry.TickContext, id foundry.EntityID) error {
	pl, err := PlacementComponent.GetFromEntity(tc.Registry, id)
	if err != nil {
		return err
	}
	ej, err := EjectorComponent.GetFromEntity(tc.Registry, id)
	if err != nil {
		return err
	}
	tiles, err := n.tiles.forTick(tc)
	if err != nil {
		return err
	}
	for i := range ej.Slots {
		slot := &ej.Slots[i]
		if slot.Item == nil {
			continue
		}
		dx, dy := slot.Direction.Delta()
		ref, ok := tiles[tileKey{x: pl.X + slot.DX + dx, y: pl.Y + slot.DY + dy, from: slot.Direction.Inverse()}]
		if !ok {
			continue
		}
		acc, err := AcceptorComponent.GetFromEntity(tc.Registry, ref.entity)
		if err != nil {
			// the target was destroyed earlier in this tick
			if errors.As(err, new(foundry.UnknownEntityError)) {
				continue
			}
			return err
		}
		if acc == nil || ref.slot >= len(acc.Slots) {
			continue
		}
		target := &acc.Slots[ref.slot]
		if target.Item != nil {
			continue
		}
		target.Item = slot.Item
		slot.Item = nil
	}
	return nil
}

func (n *Network) processEmitter(tc *foundry.TickContext, id foundry.EntityID) error {
	em, err := EmitterComponent.GetFromEntity(tc.Registry, id)
	if err != nil {
		return err
	}
	ej, err := EjectorComponent.GetFromEntity(tc.Registry, id)
	if err != nil {
		return err
	}
	if em.Item == nil || len(ej.Slots) == 0 || ej.Slots[0].Item != nil {
		return nil
	}
	timer := foundry.Timer{Interval: em.Interval, Last: em.Last}
	if !timer.Fire(tc.Now) {
		return nil
	}
	item := *em.Item
	ej.Slots[0].Item = &item
	em.Last = timer.Last
	return nil
}

// processProcessor finishes an expired charge, pulls inputs out of the acceptor slots and
// starts the next charge. Zero-length charges complete within the same tick and repeat while
// inputs keep arriving and outputs keep leaving.
func (n *Network) processProcessor(tc *foundry.TickContext, id foundry.EntityID) error {
	proc, err := ProcessorComponent.GetFromEntity(tc.Registry, id)
	if err != nil {
		return err
	}
	acc, err := AcceptorComponent.GetFromEntity(tc.Registry, id)
	if err != nil {
		return err
	}
	need := max(proc.InputsPerCharge, 1)
	for {
		if proc.Charging {
			if !foundry.IsTimerExpired(tc.Now, proc.ChargeStart, proc.ChargeDuration) {
				return nil
			}
			proc.Charging = false
			proc.Pending = append(proc.Pending, proc.Charged...)
			proc.Charged = nil
			if err := n.deliverPending(tc.Registry, id, proc); err != nil {
				return err
			}
		}

		for i := range acc.Slots {
			if len(proc.Inputs) >= need {
				break
			}
			if item := acc.Slots[i].Item; item != nil {
				proc.Inputs = append(proc.Inputs, Input{Item: item, Slot: i})
				acc.Slots[i].Item = nil
			}
		}
		if len(proc.Pending) > 0 || len(proc.Inputs) < need {
			return nil
		}
		if err := n.startCharge(tc, id, proc, need); err != nil {
			return err
		}
		if proc.ChargeDuration > 0 {
			return nil
		}
	}
}

func (n *Network) startCharge(tc *foundry.TickContext, id foundry.EntityID, proc *Processor, need int) error {
	handler, ok := n.handlers[proc.Type]
	if !ok {
		return UnknownProcessorTypeError{Entity: id, Type: proc.Type}
	}
	chk, err := CheckerComponent.GetFromEntity(tc.Registry, id)
	if err != nil {
		return err
	}
	if chk != nil {
		if err := n.syncCheckerGoal(tc.Registry, id, chk); err != nil {
			return err
		}
	}
	inputs := proc.Inputs[:need]
	proc.Inputs = slices.Clone(proc.Inputs[need:])
	outputs, err := handler(&HandlerContext{
		Registry: tc.Registry,
		Entity:   id,
		Now:      tc.Now,
		Goals:    n.goals,
		Logger:   n.logger,
	}, inputs)
	if err != nil {
		return err
	}
	proc.Charging = true
	proc.ChargeStart = tc.Now
	proc.ChargeDuration = n.settings.ChargeDuration(proc.Type)
	proc.Charged = outputs
	return nil
}

// deliverPending moves pending outputs into free ejector slots. Outputs whose slot is taken
// stay pending, in order.
func (n *Network) deliverPending(reg *foundry.Registry, id foundry.EntityID, proc *Processor) error {
	if len(proc.Pending) == 0 {
		return nil
	}
	ej, err := EjectorComponent.GetFromEntity(reg, id)
	if err != nil {
		return err
	}
	if ej == nil {
		return MissingComponentError{Entity: id, TypeID: EjectorID}
	}
	kept := proc.Pending[:0]
	for _, out := range proc.Pending {
		if out.Slot < 0 || out.Slot >= len(ej.Slots) {
			return SlotRangeError{Entity: id, Slot: out.Slot, Slots: len(ej.Slots)}
		}
		slot := &ej.Slots[out.Slot]
		if slot.Item == nil {
			slot.Item = out.Item
			continue
		}
		n.logger.Debug("ejector slot occupied, output deferred", "entity", id, "slot", out.Slot)
		kept = append(kept, out)
	}
	if len(kept) == 0 {
		kept = nil
	}
	proc.Pending = kept
	return nil
}
