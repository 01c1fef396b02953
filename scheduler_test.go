package foundry

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"testing"
)

func newTestScheduler(t *testing.T, cfg Config) (*Registry, *Scheduler) {
	t.Helper()
	reg := newTestRegistry(t)
	return reg, Factory.NewScheduler(reg, cfg)
}

func TestSystemOrdering(t *testing.T) {
	reg, sched := newTestScheduler(t, DefaultConfig())
	reg.CreateEntityWith(ComponentValue{TypeID: "position", Value: Position{}})

	var calls []string
	record := func(name string) ProcessFunc {
		return func(tc *TickContext, id EntityID) error {
			calls = append(calls, name)
			return nil
		}
	}
	specs := []SystemSpec{
		{Name: "last", Priority: math.MaxInt, Requires: []string{"position"}, Process: record("last")},
		{Name: "late", Priority: 20, Requires: []string{"position"}, Process: record("late")},
		{Name: "tieA", Priority: 10, Requires: []string{"position"}, Process: record("tieA")},
		{Name: "early", Priority: -5, Requires: []string{"position"}, Process: record("early")},
		{Name: "tieB", Priority: 10, Requires: []string{"position"}, Process: record("tieB")},
		{Name: "first", Priority: math.MinInt, Requires: []string{"position"}, Process: record("first")},
	}
	for _, spec := range specs {
		if err := sched.RegisterSystem(spec); err != nil {
			t.Fatal(err)
		}
	}

	want := []string{"first", "early", "tieA", "tieB", "late", "last"}
	if got := sched.Systems(); !slices.Equal(got, want) {
		t.Errorf("Systems() = %v, want %v", got, want)
	}
	if err := sched.Tick(0.016); err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(calls, want) {
		t.Errorf("call order = %v, want %v", calls, want)
	}
}

func TestRegisterSystemErrors(t *testing.T) {
	_, sched := newTestScheduler(t, DefaultConfig())
	noop := func(*TickContext, EntityID) error { return nil }

	if err := sched.RegisterSystem(SystemSpec{Name: "empty"}); err == nil {
		t.Error("system without Process or Draw was accepted")
	}
	err := sched.RegisterSystem(SystemSpec{Name: "ghost", Requires: []string{"mass"}, Process: noop})
	if !errors.Is(err, UnknownComponentTypeError{TypeID: "mass"}) {
		t.Errorf("RegisterSystem(unknown type) error = %v", err)
	}
}

func TestMidTickVisibility(t *testing.T) {
	reg, sched := newTestScheduler(t, DefaultConfig())
	first, _ := reg.CreateEntityWith(ComponentValue{TypeID: "health", Value: Health{Current: 1}})
	victim, _ := reg.CreateEntityWith(ComponentValue{TypeID: "health", Value: Health{Current: 2}})

	var spawned EntityID
	var earlySeen, lateSeen []EntityID
	sched.RegisterSystem(SystemSpec{
		Name:     "spawner",
		Priority: 0,
		Requires: []string{"health"},
		Process: func(tc *TickContext, id EntityID) error {
			earlySeen = append(earlySeen, id)
			if id != first {
				return nil
			}
			// The spawn is not visited by this system; the destroyed entity is skipped.
			if err := tc.Registry.DestroyEntity(victim); err != nil {
				return err
			}
			var err error
			spawned, err = tc.Registry.CreateEntityWith(ComponentValue{TypeID: "health", Value: Health{}})
			return err
		},
	})
	sched.RegisterSystem(SystemSpec{
		Name:     "observer",
		Priority: 1,
		Requires: []string{"health"},
		Process: func(tc *TickContext, id EntityID) error {
			lateSeen = append(lateSeen, id)
			return nil
		},
	})

	if err := sched.Tick(0.1); err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(earlySeen, []EntityID{first}) {
		t.Errorf("spawner saw %v, want [%d]", earlySeen, first)
	}
	if !slices.Equal(lateSeen, []EntityID{first, spawned}) {
		t.Errorf("observer saw %v, want [%d %d]", lateSeen, first, spawned)
	}
}

func TestTickContext(t *testing.T) {
	reg, sched := newTestScheduler(t, DefaultConfig())
	reg.CreateEntityWith(ComponentValue{TypeID: "position", Value: Position{}})

	var got []TickContext
	sched.RegisterSystem(SystemSpec{
		Name:     "recorder",
		Requires: []string{"position"},
		Process: func(tc *TickContext, id EntityID) error {
			got = append(got, *tc)
			return nil
		},
	})
	sched.Tick(tenth + fifth)
	sched.Tick(0.6)

	if len(got) != 2 {
		t.Fatalf("recorder ran %d times, want 2", len(got))
	}
	if got[0].Now != 0.3 || got[0].Tick != 1 || got[0].System != "recorder" {
		t.Errorf("first context = %+v", got[0])
	}
	if got[1].Now != 0.6 || got[1].Tick != 2 {
		t.Errorf("second context = %+v", got[1])
	}
	if sched.Now() != 0.6 || sched.TickNumber() != 2 {
		t.Errorf("Now() = %v, TickNumber() = %d", sched.Now(), sched.TickNumber())
	}
}

func TestTickTimeChecks(t *testing.T) {
	t.Run("Non-monotonic", func(t *testing.T) {
		_, sched := newTestScheduler(t, DefaultConfig())
		if err := sched.Tick(1); err != nil {
			t.Fatal(err)
		}
		err := sched.Tick(0.5)
		var nm NonMonotonicTimeError
		if !errors.As(err, &nm) {
			t.Fatalf("Tick(0.5) error = %v, want NonMonotonicTimeError", err)
		}
		if err := sched.Tick(1); err != nil {
			t.Errorf("repeating the same time failed: %v", err)
		}
	})

	t.Run("Strict rejects unquantized", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.StrictTime = true
		_, sched := newTestScheduler(t, cfg)
		err := sched.Tick(tenth + fifth)
		var uq UnquantizedTimeError
		if !errors.As(err, &uq) {
			t.Fatalf("Tick() error = %v, want UnquantizedTimeError", err)
		}
		if err := sched.Tick(0.3); err != nil {
			t.Errorf("Tick(0.3) error = %v", err)
		}
	})
}

func TestSystemErrorHaltsScheduler(t *testing.T) {
	reg, sched := newTestScheduler(t, DefaultConfig())
	a, _ := reg.CreateEntityWith(ComponentValue{TypeID: "position", Value: Position{}})
	b, _ := reg.CreateEntityWith(ComponentValue{TypeID: "position", Value: Position{}})

	boom := errors.New("boom")
	var visited []EntityID
	sched.RegisterSystem(SystemSpec{
		Name:     "fragile",
		Requires: []string{"position"},
		Process: func(tc *TickContext, id EntityID) error {
			visited = append(visited, id)
			if id == a {
				return boom
			}
			return nil
		},
	})
	lateRan := false
	sched.RegisterSystem(SystemSpec{
		Name:     "after",
		Priority: 1,
		Requires: []string{"position"},
		Process: func(*TickContext, EntityID) error {
			lateRan = true
			return nil
		},
	})

	err := sched.Tick(1)
	var sysErr *SystemError
	if !errors.As(err, &sysErr) {
		t.Fatalf("Tick() error = %v, want *SystemError", err)
	}
	if sysErr.System != "fragile" || sysErr.Entity != a || !errors.Is(err, boom) {
		t.Errorf("SystemError = %+v", sysErr)
	}
	if slices.Contains(visited, b) || lateRan {
		t.Error("tick kept running after a system failed")
	}

	err = sched.Tick(2)
	var halted *HaltedError
	if !errors.As(err, &halted) {
		t.Fatalf("Tick() after failure error = %v, want *HaltedError", err)
	}
	if !errors.Is(err, boom) {
		t.Error("HaltedError does not wrap the original cause")
	}
	if sched.Halted() == nil {
		t.Error("Halted() = nil")
	}
}

func TestDrawLocksRegistry(t *testing.T) {
	reg, sched := newTestScheduler(t, DefaultConfig())
	a, _ := reg.CreateEntityWith(ComponentValue{TypeID: "position", Value: Position{X: 1}})
	b, _ := reg.CreateEntityWith(ComponentValue{TypeID: "health", Value: Health{}})
	c, _ := reg.CreateEntityWith(ComponentValue{TypeID: "position", Value: Position{X: 3}})

	var drawn []string
	var mutateErr error
	sched.RegisterSystem(SystemSpec{
		Name:     "render",
		Requires: []string{"position"},
		Draw: func(reg *Registry, id EntityID, params any) error {
			pos, _ := positionType.GetFromEntity(reg, id)
			drawn = append(drawn, fmt.Sprintf("%s%d", params, pos.X))
			mutateErr = reg.RemoveComponent(id, "position")
			return nil
		},
	})

	if err := sched.Draw([]EntityID{c, b, a}, "x="); err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(drawn, []string{"x=3", "x=1"}) {
		t.Errorf("drawn = %v", drawn)
	}
	if !errors.Is(mutateErr, LockedRegistryError{}) {
		t.Errorf("mutation during draw error = %v, want LockedRegistryError", mutateErr)
	}
	if reg.Locked() {
		t.Error("registry still locked after Draw")
	}
	if has, _ := reg.HasComponent(a, "position"); !has {
		t.Error("draw managed to mutate state")
	}
}

func TestDrawCollectsErrors(t *testing.T) {
	reg, sched := newTestScheduler(t, DefaultConfig())
	a, _ := reg.CreateEntityWith(ComponentValue{TypeID: "position", Value: Position{}})
	b, _ := reg.CreateEntityWith(ComponentValue{TypeID: "position", Value: Position{}})
	bad := errors.New("missing sprite")
	calls := 0
	sched.RegisterSystem(SystemSpec{
		Name:     "render",
		Requires: []string{"position"},
		Draw: func(*Registry, EntityID, any) error {
			calls++
			return bad
		},
	})
	err := sched.Draw([]EntityID{a, b}, nil)
	if !errors.Is(err, bad) || calls != 2 {
		t.Errorf("Draw() error = %v after %d calls", err, calls)
	}
}

func TestBoundaryQueue(t *testing.T) {
	reg, sched := newTestScheduler(t, DefaultConfig())
	existing, _ := reg.CreateEntityWith(ComponentValue{TypeID: "position", Value: Position{}})

	var created EntityID
	reg.EnqueueNewEntity(func(id EntityID) { created = id },
		ComponentValue{TypeID: "health", Value: Health{Current: 3}})
	reg.EnqueueAddComponent(existing, "velocity", Velocity{DX: 2})
	reg.EnqueueDestroyEntity(existing)
	// dropped: posted after the destroy of the same entity
	reg.EnqueueRemoveComponent(existing, "position")

	var order []string
	reg.Post(func(r *Registry) error {
		order = append(order, fmt.Sprintf("custom alive=%v", r.Alive(existing)))
		return nil
	})

	if reg.Pending() != 4 {
		t.Errorf("Pending() = %d, want 4", reg.Pending())
	}
	if reg.Alive(existing) == false || created != 0 {
		t.Fatal("queued work ran before the tick boundary")
	}

	var seen []EntityID
	sched.RegisterSystem(SystemSpec{
		Name:     "health",
		Requires: []string{"health"},
		Process: func(tc *TickContext, id EntityID) error {
			seen = append(seen, id)
			return nil
		},
	})
	if err := sched.Tick(1); err != nil {
		t.Fatal(err)
	}
	if created == 0 || !slices.Equal(seen, []EntityID{created}) {
		t.Errorf("created = %d, system saw %v", created, seen)
	}
	if reg.Alive(existing) {
		t.Error("queued destroy did not run")
	}
	if !slices.Equal(order, []string{"custom alive=false"}) {
		t.Errorf("custom op order = %v", order)
	}
	if reg.Pending() != 0 {
		t.Errorf("Pending() after tick = %d", reg.Pending())
	}
}

func TestBoundaryQueueFailureHalts(t *testing.T) {
	reg, sched := newTestScheduler(t, DefaultConfig())
	reg.EnqueueAddComponent(42, "position", Position{})
	err := sched.Tick(1)
	if !errors.Is(err, UnknownEntityError{Entity: 42}) {
		t.Fatalf("Tick() error = %v", err)
	}
	var halted *HaltedError
	if err := sched.Tick(2); !errors.As(err, &halted) {
		t.Errorf("Tick() after failed flush error = %v, want *HaltedError", err)
	}
}

func TestBoundaryQueueConcurrentPost(t *testing.T) {
	reg, sched := newTestScheduler(t, DefaultConfig())
	done := make(chan struct{})
	const posters = 8
	for i := 0; i < posters; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			reg.EnqueueNewEntity(nil, ComponentValue{TypeID: "position", Value: Position{}})
		}()
	}
	for i := 0; i < posters; i++ {
		<-done
	}
	if err := sched.Tick(1); err != nil {
		t.Fatal(err)
	}
	if reg.Len() != posters {
		t.Errorf("Len() = %d, want %d", reg.Len(), posters)
	}
}

func TestResume(t *testing.T) {
	reg, sched := newTestScheduler(t, DefaultConfig())
	reg.CreateEntityWith(ComponentValue{TypeID: "position", Value: Position{}})
	var ticks []uint64
	sched.RegisterSystem(SystemSpec{
		Name:     "count",
		Requires: []string{"position"},
		Process: func(tc *TickContext, id EntityID) error {
			ticks = append(ticks, tc.Tick)
			return nil
		},
	})

	if err := sched.Resume(40, 2.0004); err != nil {
		t.Fatalf("Resume() error = %v", err)
	}
	if sched.TickNumber() != 40 || sched.Now() != 2 {
		t.Errorf("TickNumber() = %d, Now() = %v, want 40 and 2", sched.TickNumber(), sched.Now())
	}
	var nm NonMonotonicTimeError
	if err := sched.Tick(1.9); !errors.As(err, &nm) {
		t.Errorf("Tick(1.9) error = %v, want NonMonotonicTimeError", err)
	}
	if err := sched.Tick(2.1); err != nil {
		t.Fatalf("Tick(2.1) error = %v", err)
	}
	if !slices.Equal(ticks, []uint64{41}) {
		t.Errorf("ticks seen = %v, want [41]", ticks)
	}

	var started SchedulerStartedError
	if err := sched.Resume(0, 0); !errors.As(err, &started) {
		t.Errorf("Resume() after ticking error = %v, want SchedulerStartedError", err)
	}
}
