package foundry

import (
	"math/rand/v2"
	"testing"
)

// tenth and fifth are variables so their sum is computed in float64, one ulp above 0.3.
var tenth, fifth = 0.1, 0.2

func TestQuantize(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{"Already on grid", 2.0, 2.0},
		{"Rounds up", 1.23456, 1.235},
		{"Rounds down", 1.23412, 1.234},
		{"Float sum error", tenth + fifth, 0.3},
		{"Below resolution", 0.0001, 0},
		{"Small negative", -0.0004, 0},
		{"Negative", -1.2346, -1.235},
		{"Sixtieth", 1.0 / 60, 0.017},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Quantize(tt.in); got != tt.want {
				t.Errorf("Quantize(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestQuantizeIdempotent(t *testing.T) {
	r := rand.New(rand.NewPCG(3, 5))
	for i := 0; i < 10000; i++ {
		x := (r.Float64() - 0.5) * 2e6
		q := Quantize(x)
		if Quantize(q) != q {
			t.Fatalf("Quantize(Quantize(%v)) = %v, want %v", x, Quantize(q), q)
		}
		if !IsQuantized(q) {
			t.Fatalf("IsQuantized(%v) = false", q)
		}
	}
}

func TestIsQuantized(t *testing.T) {
	if !IsQuantized(0.3) {
		t.Error("IsQuantized(0.3) = false")
	}
	if IsQuantized(tenth + fifth) {
		t.Error("IsQuantized(0.1+0.2) = true")
	}
}

func TestIsTimerExpired(t *testing.T) {
	tests := []struct {
		name                    string
		now, lastTick, interval float64
		want                    bool
	}{
		{"Exact deadline despite float sum", 0.3, 0.2, 0.1, true},
		{"Before deadline", 0.299, 0.2, 0.1, false},
		{"After deadline", 0.5, 0.2, 0.1, true},
		{"Unquantized now", 0.2999999, 0.2, 0.1, true},
		{"Unquantized last tick", 0.3, 0.2000001, 0.1, true},
		{"Zero interval", 1, 1, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTimerExpired(tt.now, tt.lastTick, tt.interval); got != tt.want {
				t.Errorf("IsTimerExpired(%v, %v, %v) = %v, want %v", tt.now, tt.lastTick, tt.interval, got, tt.want)
			}
		})
	}
}

// Two instances reach the same logical times through different float paths. Their timers must
// fire on exactly the same ticks.
func TestTimerDeterminismAcrossInstances(t *testing.T) {
	const (
		ticks    = 5000
		step     = 0.1
		interval = 0.3
	)
	accumulated := 0.0
	timerA := NewTimer(interval, 0)
	timerB := NewTimer(interval, 0)
	firesA, firesB := 0, 0

	for k := 1; k <= ticks; k++ {
		accumulated += step
		multiplied := float64(k) * step

		nowA, nowB := Quantize(accumulated), Quantize(multiplied)
		if nowA != nowB {
			t.Fatalf("tick %d: quantized times differ: %v vs %v", k, nowA, nowB)
		}
		a, b := timerA.Fire(accumulated), timerB.Fire(multiplied)
		if a != b {
			t.Fatalf("tick %d: instance A fired=%v, instance B fired=%v", k, a, b)
		}
		if a {
			firesA++
		}
		if b {
			firesB++
		}
	}
	if firesA != ticks/3 || firesB != ticks/3 {
		t.Errorf("fired %d and %d times, want %d", firesA, firesB, ticks/3)
	}
}

func TestTimerFire(t *testing.T) {
	timer := NewTimer(0.5, 0)
	steps := []struct {
		now      float64
		want     bool
		wantLast float64
	}{
		{0.4, false, 0},
		{0.5, true, 0.5},
		{0.9, false, 0.5},
		{1.2, true, 1.0},
		{1.2, false, 1.0},
		{1.5, true, 1.5},
	}
	for i, step := range steps {
		if got := timer.Fire(step.now); got != step.want {
			t.Fatalf("step %d: Fire(%v) = %v, want %v", i, step.now, got, step.want)
		}
		if timer.Last != step.wantLast {
			t.Fatalf("step %d: Last = %v, want %v", i, timer.Last, step.wantLast)
		}
	}
}

func TestClockAdvance(t *testing.T) {
	clock := NewClock(0)
	for i := 0; i < 3; i++ {
		clock.Advance(1.0 / 60)
	}
	if clock.Now() != 0.051 {
		t.Errorf("Now() = %v, want 0.051", clock.Now())
	}
	if clock.Ticks() != 3 {
		t.Errorf("Ticks() = %d, want 3", clock.Ticks())
	}
	if !IsQuantized(clock.Now()) {
		t.Error("clock time is off the grid")
	}
}
