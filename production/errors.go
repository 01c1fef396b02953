package production

import (
	"fmt"

	"github.com/TheBitDrifter/foundry"
)

type UnknownProcessorTypeError struct {
	Entity foundry.EntityID
	Type   ProcessorType
}

func (e UnknownProcessorTypeError) Error() string {
	return fmt.Sprintf("entity %d: no handler for processor type %q", e.Entity, e.Type)
}

// MissingComponentError is returned when a building lacks a component its processor type needs.
type MissingComponentError struct {
	Entity foundry.EntityID
	TypeID string
}

func (e MissingComponentError) Error() string {
	return fmt.Sprintf("entity %d: processor needs component %q", e.Entity, e.TypeID)
}

type SlotRangeError struct {
	Entity foundry.EntityID
	Slot   int
	Slots  int
}

func (e SlotRangeError) Error() string {
	return fmt.Sprintf("entity %d: output for ejector slot %d, building has %d", e.Entity, e.Slot, e.Slots)
}
