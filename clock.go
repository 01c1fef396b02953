package foundry

import "math"

// TimeResolution is the number of quantization steps per time unit (1ms per second).
const TimeResolution = 1000.0

// Quantize rounds t to the nearest 1/1000, halves rounding up. Every tick time that is stored
// or compared must pass through here first.
func Quantize(t float64) float64 {
	return math.Floor(t*TimeResolution+0.5) / TimeResolution
}

// IsQuantized reports whether t already lies on the 1/1000 grid.
func IsQuantized(t float64) bool {
	return Quantize(t) == t
}

// IsTimerExpired is the only allowed way to compare timer deadlines. The target is the
// quantized sum of the quantized last tick and the interval: quantizing the sum, not just its
// operands, is what keeps instances whose float error differs firing on the same tick.
func IsTimerExpired(now, lastTick, interval float64) bool {
	return Quantize(now) >= Quantize(Quantize(lastTick)+interval)
}

// Clock accumulates frame deltas into quantized tick times.
type Clock struct {
	now   float64
	ticks uint64
}

func NewClock(start float64) *Clock {
	return &Clock{now: Quantize(start)}
}

// Advance adds dt and returns the new quantized time.
func (c *Clock) Advance(dt float64) float64 {
	c.now = Quantize(c.now + dt)
	c.ticks++
	return c.now
}

func (c *Clock) Now() float64 {
	return c.now
}

func (c *Clock) Ticks() uint64 {
	return c.ticks
}

// Timer is a fixed-rate periodic deadline.
type Timer struct {
	Interval float64
	Last     float64
}

func NewTimer(interval, start float64) Timer {
	return Timer{Interval: interval, Last: Quantize(start)}
}

func (t Timer) Expired(now float64) bool {
	return IsTimerExpired(now, t.Last, t.Interval)
}

// Fire advances the timer by one interval if it has expired. Missed intervals are caught up
// one per call so every instance fires the same number of times.
func (t *Timer) Fire(now float64) bool {
	if !t.Expired(now) {
		return false
	}
	t.Last = Quantize(Quantize(t.Last) + t.Interval)
	return true
}
