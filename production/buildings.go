package production

import (
	"github.com/TheBitDrifter/foundry"
	"github.com/TheBitDrifter/foundry/shape"
)

func (d Direction) Clockwise() Direction {
	switch d {
	case Top:
		return Right
	case Right:
		return Bottom
	case Bottom:
		return Left
	case Left:
		return Top
	}
	return d
}

// singleTile is a 1x1 processor accepting from behind and ejecting towards each of outs.
func singleTile(x, y int, facing Direction, typ ProcessorType, outs ...Direction) []foundry.ComponentValue {
	slots := make([]EjectorSlot, len(outs))
	for i, out := range outs {
		slots[i] = EjectorSlot{Direction: out}
	}
	return []foundry.ComponentValue{
		{TypeID: PlacementID, Value: Placement{X: x, Y: y, W: 1, H: 1}},
		{TypeID: AcceptorID, Value: Acceptor{Slots: []AcceptorSlot{{From: facing.Inverse()}}}},
		{TypeID: EjectorID, Value: Ejector{Slots: slots}},
		{TypeID: ProcessorID, Value: Processor{Type: typ, InputsPerCharge: 1}},
	}
}

func BeltAt(x, y int, facing Direction) []foundry.ComponentValue {
	return singleTile(x, y, facing, Belt, facing)
}

func RotatorAt(x, y int, facing Direction, ccw bool) []foundry.ComponentValue {
	typ := Rotator
	if ccw {
		typ = RotatorCCW
	}
	return singleTile(x, y, facing, typ, facing)
}

// CheckerAt places a goal checker. Items passing the filter leave straight ahead, the rest
// leave to the right.
func CheckerAt(x, y int, facing Direction) []foundry.ComponentValue {
	return append(singleTile(x, y, facing, Checker, facing, facing.Clockwise()),
		foundry.ComponentValue{TypeID: CheckerID, Value: GoalChecker{}})
}

// HubAt places a size x size hub that accepts items on every outer edge.
func HubAt(x, y, size int) []foundry.ComponentValue {
	var slots []AcceptorSlot
	for i := 0; i < size; i++ {
		slots = append(slots,
			AcceptorSlot{DX: i, DY: 0, From: Top},
			AcceptorSlot{DX: i, DY: size - 1, From: Bottom},
			AcceptorSlot{DX: 0, DY: i, From: Left},
			AcceptorSlot{DX: size - 1, DY: i, From: Right},
		)
	}
	return []foundry.ComponentValue{
		{TypeID: PlacementID, Value: Placement{X: x, Y: y, W: size, H: size}},
		{TypeID: AcceptorID, Value: Acceptor{Slots: slots}},
		{TypeID: ProcessorID, Value: Processor{Type: Hub, InputsPerCharge: 1}},
		{TypeID: HubID, Value: HubStats{}},
	}
}

// EmitterAt places a source producing item every interval.
func EmitterAt(x, y int, facing Direction, item shape.Shape, interval, start float64) []foundry.ComponentValue {
	return []foundry.ComponentValue{
		{TypeID: PlacementID, Value: Placement{X: x, Y: y, W: 1, H: 1}},
		{TypeID: EjectorID, Value: Ejector{Slots: []EjectorSlot{{Direction: facing}}}},
		{TypeID: EmitterID, Value: Emitter{Item: &item, Interval: foundry.Quantize(interval), Last: foundry.Quantize(start)}},
	}
}

// Build creates one building entity.
func (n *Network) Build(values []foundry.ComponentValue) (foundry.EntityID, error) {
	return n.registry.CreateEntityWith(values...)
}
