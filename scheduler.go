package foundry

import (
	"cmp"
	"errors"
	"fmt"
	"log/slog"
	"slices"
)

// SystemSpec declares one system. Lower priorities run first; equal priorities keep
// registration order.
type SystemSpec struct {
	Name     string
	Priority int
	Requires []string
	Process  ProcessFunc
	Draw     DrawFunc
}

type system struct {
	SystemSpec
	signature []string
}

// Scheduler runs the registered systems over the registry once per tick.
type Scheduler struct {
	registry *Registry
	cfg      Config
	logger   *slog.Logger
	systems  []system
	running  bool
	halted   error
	now      float64
	ticks    uint64
	started  bool
}

func newScheduler(reg *Registry, cfg Config) *Scheduler {
	return &Scheduler{
		registry: reg,
		cfg:      cfg,
		logger:   cfg.logger(),
	}
}

func (s *Scheduler) RegisterSystem(spec SystemSpec) error {
	if s.running {
		return SchedulerRunningError{}
	}
	if spec.Process == nil && spec.Draw == nil {
		return fmt.Errorf("system %q has neither Process nor Draw", spec.Name)
	}
	for _, typeID := range spec.Requires {
		if _, ok := s.registry.types[typeID]; !ok {
			return fmt.Errorf("system %q: %w", spec.Name, UnknownComponentTypeError{TypeID: typeID})
		}
	}
	s.systems = append(s.systems, system{
		SystemSpec: spec,
		signature:  slices.Clone(spec.Requires),
	})
	slices.SortStableFunc(s.systems, func(a, b system) int {
		return cmp.Compare(a.Priority, b.Priority)
	})
	return nil
}

// Systems lists system names in execution order.
func (s *Scheduler) Systems() []string {
	names := make([]string, len(s.systems))
	for i, sys := range s.systems {
		names[i] = sys.Name
	}
	return names
}

// Tick runs one full tick at time now. A failing system aborts the tick and halts the
// scheduler for good.
func (s *Scheduler) Tick(now float64) error {
	if s.halted != nil {
		return &HaltedError{Cause: s.halted}
	}
	if s.running {
		return SchedulerRunningError{}
	}

	q := Quantize(now)
	if q != now {
		if s.cfg.StrictTime {
			return UnquantizedTimeError{Time: now}
		}
		s.logger.Debug("quantized tick time", "raw", now, "quantized", q)
	}
	if s.started && q < s.now {
		return NonMonotonicTimeError{Now: q, Last: s.now}
	}

	s.running = true
	defer func() { s.running = false }()

	s.now = q
	s.started = true
	s.ticks++

	if err := s.registry.FlushQueue(); err != nil {
		return s.halt(err)
	}

	tc := &TickContext{Registry: s.registry, Now: q, Tick: s.ticks}
	for _, sys := range s.systems {
		if sys.Process == nil {
			continue
		}
		tc.System = sys.Name
		matched, err := s.registry.QueryEntitiesWithAll(sys.signature...)
		if err != nil {
			return s.halt(err)
		}
		signature, _, _ := s.registry.signatureFor(sys.signature)
		for _, id := range matched {
			// Entities destroyed or stripped earlier in this pass are skipped.
			if !s.registry.matches(id, signature) {
				continue
			}
			if err := sys.Process(tc, id); err != nil {
				return s.halt(&SystemError{System: sys.Name, Entity: id, Err: err})
			}
		}
	}
	return nil
}

func (s *Scheduler) halt(err error) error {
	s.halted = err
	s.logger.Error("tick failed, scheduler halted", "tick", s.ticks, "now", s.now, "err", err)
	return err
}

// Draw locks the registry and hands every visible entity to each system's draw function.
// Invisible or non-matching entities are skipped.
func (s *Scheduler) Draw(visible []EntityID, params any) error {
	if s.running {
		return SchedulerRunningError{}
	}
	s.running = true
	s.registry.Lock()
	defer func() {
		s.registry.Unlock()
		s.running = false
	}()

	var errs []error
	for _, sys := range s.systems {
		if sys.Draw == nil {
			continue
		}
		signature, _, err := s.registry.signatureFor(sys.signature)
		if err != nil {
			return err
		}
		for _, id := range visible {
			if !s.registry.matches(id, signature) {
				continue
			}
			if err := sys.Draw(s.registry, id, params); err != nil {
				errs = append(errs, fmt.Errorf("draw %s on entity %d: %w", sys.Name, id, err))
			}
		}
	}
	return errors.Join(errs...)
}

// Now is the quantized time of the last tick.
func (s *Scheduler) Now() float64 {
	return s.now
}

func (s *Scheduler) TickNumber() uint64 {
	return s.ticks
}

// Resume continues a run restored from elsewhere: the next Tick is number tick+1 and may not
// go back before now. Only a scheduler that has not ticked yet can resume.
func (s *Scheduler) Resume(tick uint64, now float64) error {
	if s.running {
		return SchedulerRunningError{}
	}
	if s.started {
		return SchedulerStartedError{Tick: s.ticks}
	}
	s.ticks = tick
	s.now = Quantize(now)
	s.started = true
	return nil
}

// Halted returns the error that stopped the scheduler, or nil.
func (s *Scheduler) Halted() error {
	return s.halted
}

func (s *Scheduler) Registry() *Registry {
	return s.registry
}
