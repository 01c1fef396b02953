package shape

import "fmt"

// MalformedKeyError reports a short key (or layer set) that cannot form a shape.
// It is never auto-corrected.
type MalformedKeyError struct {
	Key    string
	Offset int
	Reason string
}

func (e *MalformedKeyError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("malformed shape: %s", e.Reason)
	}
	return fmt.Sprintf("malformed shape key %q at offset %d: %s", e.Key, e.Offset, e.Reason)
}

type FilterShapeError struct {
	LayerCount int
	Quadrant   int
	Char       byte
	Kind       FilterKind
}

func (e *FilterShapeError) Error() string {
	return fmt.Sprintf("cannot build %s filter shape: layers=%d quadrant=%d char=%q",
		e.Kind, e.LayerCount, e.Quadrant, e.Char)
}

type CacheFullError struct {
	Capacity int
}

func (e CacheFullError) Error() string {
	return fmt.Sprintf("shape cache at maximum capacity (%d)", e.Capacity)
}
