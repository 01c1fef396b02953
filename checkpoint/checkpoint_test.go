package checkpoint

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/TheBitDrifter/foundry"
	"github.com/TheBitDrifter/foundry/production"
	"github.com/TheBitDrifter/foundry/shape"
)

func newLineScheduler(t testing.TB) (*foundry.Scheduler, *production.Network) {
	t.Helper()
	cfg := foundry.DefaultConfig()
	reg := foundry.Factory.NewRegistry(cfg)
	sched := foundry.Factory.NewScheduler(reg, cfg)
	settings := production.DefaultSettings()
	settings.ProcessorSpeeds[production.Belt] = 4
	n, err := production.Install(sched, settings, nil)
	if err != nil {
		t.Fatalf("Install() error = %v", err)
	}
	return sched, n
}

// runLine builds emitter -> belt -> rotator -> checker and runs it for the given number of
// 0.1 steps.
func runLine(t testing.TB, ticks int) *foundry.Scheduler {
	t.Helper()
	sched, n := newLineScheduler(t)
	for _, building := range [][]foundry.ComponentValue{
		production.EmitterAt(0, 0, production.Right, shape.MustDecode("Cu------"), 0.3, 0),
		production.BeltAt(1, 0, production.Right),
		production.RotatorAt(2, 0, production.Right, false),
		production.CheckerAt(3, 0, production.Right),
	} {
		if _, err := n.Build(building); err != nil {
			t.Fatalf("Build() error = %v", err)
		}
	}
	clock := foundry.NewClock(0)
	for i := 0; i < ticks; i++ {
		if err := sched.Tick(clock.Advance(0.1)); err != nil {
			t.Fatalf("Tick() error = %v", err)
		}
	}
	return sched
}

func newProductionRegistry(t testing.TB) *foundry.Registry {
	t.Helper()
	reg := foundry.Factory.NewRegistry(foundry.DefaultConfig())
	if err := production.Register(reg); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	return reg
}

func mustDigest(t testing.TB, doc *Document) string {
	t.Helper()
	d, err := Digest(doc)
	if err != nil {
		t.Fatalf("Digest() error = %v", err)
	}
	return d
}

func TestCaptureRestoreRoundTrip(t *testing.T) {
	sched := runLine(t, 40)
	doc, err := CaptureScheduler(sched)
	if err != nil {
		t.Fatalf("Capture() error = %v", err)
	}
	if len(doc.Entities) != 4 {
		t.Fatalf("captured %d entities, want 4", len(doc.Entities))
	}

	blob, err := Marshal(doc)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	decoded, err := Unmarshal(blob)
	if err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if mustDigest(t, decoded) != mustDigest(t, doc) {
		t.Fatal("digest changed across Marshal/Unmarshal")
	}

	cache := shape.NewCache(64)
	reg := newProductionRegistry(t)
	if err := Restore(reg, decoded, cache.Intern); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	for _, ent := range doc.Entities {
		if !reg.Alive(ent.ID) {
			t.Errorf("entity %d was not restored under its id", ent.ID)
		}
	}
	again, err := Capture(reg, doc.Header.Tick, doc.Header.Now)
	if err != nil {
		t.Fatalf("Capture() error = %v", err)
	}
	if mustDigest(t, again) != mustDigest(t, doc) {
		t.Error("restored registry captures a different digest")
	}
}

func TestDigestDeterminism(t *testing.T) {
	a, err := CaptureScheduler(runLine(t, 75))
	if err != nil {
		t.Fatal(err)
	}
	b, err := CaptureScheduler(runLine(t, 75))
	if err != nil {
		t.Fatal(err)
	}
	if mustDigest(t, a) != mustDigest(t, b) {
		t.Error("two identical runs produced different digests")
	}

	c, err := CaptureScheduler(runLine(t, 76))
	if err != nil {
		t.Fatal(err)
	}
	if mustDigest(t, a) == mustDigest(t, c) {
		t.Error("runs of different length share a digest")
	}
}

func TestRestoreRejects(t *testing.T) {
	doc, err := CaptureScheduler(runLine(t, 5))
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		mutate   func(doc *Document)
		wantType string
	}{
		{
			name: "Unknown enum value",
			mutate: func(doc *Document) {
				doc.Entities[1].Components[production.ProcessorID]["type"] = "press"
			},
			wantType: production.ProcessorID,
		},
		{
			name: "Wrong field type",
			mutate: func(doc *Document) {
				doc.Entities[0].Components[production.PlacementID]["x"] = "zero"
			},
			wantType: production.PlacementID,
		},
		{
			name: "Unknown field",
			mutate: func(doc *Document) {
				doc.Entities[2].Components[production.PlacementID]["z"] = 1
			},
			wantType: production.PlacementID,
		},
		{
			name: "Malformed item key",
			mutate: func(doc *Document) {
				doc.Entities[0].Components[production.EmitterID]["item"] = "Cx------"
			},
			wantType: production.EmitterID,
		},
		{
			name: "Empty layer in item key",
			mutate: func(doc *Document) {
				doc.Entities[0].Components[production.EmitterID]["item"] = "Cu------:--------"
			},
			wantType: production.EmitterID,
		},
		{
			name: "Unregistered component type",
			mutate: func(doc *Document) {
				doc.Entities[3].Components["velocity"] = map[string]any{}
			},
			wantType: "velocity",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blob, err := Marshal(doc)
			if err != nil {
				t.Fatal(err)
			}
			bad, err := Unmarshal(blob)
			if err != nil {
				t.Fatal(err)
			}
			tt.mutate(bad)

			err = Restore(newProductionRegistry(t), bad, nil)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Restore() error = %v, want ValidationError", err)
			}
			if verr.TypeID != tt.wantType {
				t.Errorf("TypeID = %q, want %q", verr.TypeID, tt.wantType)
			}
		})
	}
}

func TestRestoreIntoUsedRegistry(t *testing.T) {
	doc, err := CaptureScheduler(runLine(t, 1))
	if err != nil {
		t.Fatal(err)
	}
	reg := newProductionRegistry(t)
	if _, err := reg.CreateEntity(); err != nil {
		t.Fatal(err)
	}
	var nonEmpty NonEmptyRegistryError
	if err := Restore(reg, doc, nil); !errors.As(err, &nonEmpty) {
		t.Errorf("Restore() error = %v, want NonEmptyRegistryError", err)
	}
}

func TestUnmarshalRejects(t *testing.T) {
	if _, err := Unmarshal([]byte("not zstd at all")); err == nil {
		t.Error("Unmarshal() of garbage succeeded")
	}

	blob, err := Marshal(&Document{Header: Header{Version: Version + 1}})
	if err != nil {
		t.Fatal(err)
	}
	var verr VersionError
	if _, err := Unmarshal(blob); !errors.As(err, &verr) {
		t.Errorf("Unmarshal() error = %v, want VersionError", err)
	}
}

func TestWriteRead(t *testing.T) {
	doc, err := CaptureScheduler(runLine(t, 12))
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "checkpoints", "tick-12.json.zst")
	if err := Write(path, doc); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	read, err := Read(path)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if mustDigest(t, read) != mustDigest(t, doc) {
		t.Error("digest changed across Write/Read")
	}
	if read.Header.Tick != 12 {
		t.Errorf("Header.Tick = %d, want 12", read.Header.Tick)
	}
}

func TestRestoredSchedulerKeepsLockstep(t *testing.T) {
	running := runLine(t, 20)
	doc, err := CaptureScheduler(running)
	if err != nil {
		t.Fatal(err)
	}

	restored, n := newLineScheduler(t)
	if err := RestoreScheduler(restored, doc, n.Cache().Intern); err != nil {
		t.Fatalf("RestoreScheduler() error = %v", err)
	}
	if restored.TickNumber() != running.TickNumber() || restored.Now() != running.Now() {
		t.Fatalf("resumed at tick %d time %v, want tick %d time %v",
			restored.TickNumber(), restored.Now(), running.TickNumber(), running.Now())
	}

	for k := 1; k <= 5; k++ {
		now := foundry.Quantize(doc.Header.Now + float64(k)*0.1)
		for _, sched := range []*foundry.Scheduler{running, restored} {
			if err := sched.Tick(now); err != nil {
				t.Fatalf("Tick(%v) error = %v", now, err)
			}
		}
		a, err := CaptureScheduler(running)
		if err != nil {
			t.Fatal(err)
		}
		b, err := CaptureScheduler(restored)
		if err != nil {
			t.Fatal(err)
		}
		if mustDigest(t, a) != mustDigest(t, b) {
			t.Fatalf("tick %d: restored instance diverged from the running one", a.Header.Tick)
		}
	}
}
