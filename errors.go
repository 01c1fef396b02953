package foundry

import "fmt"

type LockedRegistryError struct{}

func (e LockedRegistryError) Error() string {
	return "registry is locked for drawing"
}

// UnknownEntityError is returned for every operation on an id that was destroyed or never issued.
type UnknownEntityError struct {
	Entity EntityID
}

func (e UnknownEntityError) Error() string {
	return fmt.Sprintf("unknown entity %d", e.Entity)
}

type DuplicateComponentError struct {
	Entity EntityID
	TypeID string
}

func (e DuplicateComponentError) Error() string {
	return fmt.Sprintf("component %q already exists on entity %d", e.TypeID, e.Entity)
}

type ComponentNotFoundError struct {
	Entity EntityID
	TypeID string
}

func (e ComponentNotFoundError) Error() string {
	return fmt.Sprintf("component %q does not exist on entity %d", e.TypeID, e.Entity)
}

type UnknownComponentTypeError struct {
	TypeID string
}

func (e UnknownComponentTypeError) Error() string {
	return fmt.Sprintf("component type %q is not registered", e.TypeID)
}

type ComponentTypeExistsError struct {
	TypeID string
}

func (e ComponentTypeExistsError) Error() string {
	return fmt.Sprintf("component type %q is already registered", e.TypeID)
}

type ComponentValueError struct {
	TypeID string
	Value  any
}

func (e ComponentValueError) Error() string {
	return fmt.Sprintf("value of type %T cannot initialize component %q", e.Value, e.TypeID)
}

type SchemaError struct {
	TypeID string
	Field  string
	Reason string
}

func (e SchemaError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("schema %q: %s", e.TypeID, e.Reason)
	}
	return fmt.Sprintf("schema %q field %q: %s", e.TypeID, e.Field, e.Reason)
}

// SystemError wraps the error a system returned from Process. It always aborts the tick.
type SystemError struct {
	System string
	Entity EntityID
	Err    error
}

func (e *SystemError) Error() string {
	return fmt.Sprintf("system %s failed on entity %d: %v", e.System, e.Entity, e.Err)
}

func (e *SystemError) Unwrap() error {
	return e.Err
}

// HaltedError is returned by every Tick after a tick failed part way.
type HaltedError struct {
	Cause error
}

func (e *HaltedError) Error() string {
	return fmt.Sprintf("scheduler halted: %v", e.Cause)
}

func (e *HaltedError) Unwrap() error {
	return e.Cause
}

type UnquantizedTimeError struct {
	Time float64
}

func (e UnquantizedTimeError) Error() string {
	return fmt.Sprintf("tick time %v is not quantized (want %v)", e.Time, Quantize(e.Time))
}

type NonMonotonicTimeError struct {
	Now, Last float64
}

func (e NonMonotonicTimeError) Error() string {
	return fmt.Sprintf("tick time %v is before previous tick %v", e.Now, e.Last)
}

type SchedulerRunningError struct{}

func (e SchedulerRunningError) Error() string {
	return "cannot change systems while a tick or draw is running"
}

type SchedulerStartedError struct {
	Tick uint64
}

func (e SchedulerStartedError) Error() string {
	return fmt.Sprintf("scheduler already ran %d ticks and cannot be resumed", e.Tick)
}
