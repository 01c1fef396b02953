package production

import (
	"github.com/TheBitDrifter/foundry"
	"github.com/TheBitDrifter/foundry/shape"
)

// Direction is a world direction on the tile grid. Y grows downwards.
type Direction string

const (
	Top    Direction = "top"
	Right  Direction = "right"
	Bottom Direction = "bottom"
	Left   Direction = "left"
)

var directions = []string{string(Top), string(Right), string(Bottom), string(Left)}

// Delta is the tile step one move in d takes.
func (d Direction) Delta() (dx, dy int) {
	switch d {
	case Top:
		return 0, -1
	case Right:
		return 1, 0
	case Bottom:
		return 0, 1
	case Left:
		return -1, 0
	}
	return 0, 0
}

func (d Direction) Inverse() Direction {
	switch d {
	case Top:
		return Bottom
	case Right:
		return Left
	case Bottom:
		return Top
	case Left:
		return Right
	}
	return d
}

// ProcessorType selects the handler a processor runs on each charge.
type ProcessorType string

const (
	Belt       ProcessorType = "belt"
	Rotator    ProcessorType = "rotator"
	RotatorCCW ProcessorType = "rotatorCCW"
	Checker    ProcessorType = "checker"
	Hub        ProcessorType = "hub"
)

var processorTypes = []string{string(Belt), string(Rotator), string(RotatorCCW), string(Checker), string(Hub)}

// Placement anchors a building on the grid. Slot offsets are relative to X, Y.
type Placement struct {
	X int `foundry:"x"`
	Y int `foundry:"y"`
	W int `foundry:"w"`
	H int `foundry:"h"`
}

// AcceptorSlot takes items that arrive through its From side.
type AcceptorSlot struct {
	DX   int          `foundry:"dx"`
	DY   int          `foundry:"dy"`
	From Direction    `foundry:"from"`
	Item *shape.Shape `foundry:"item"`
}

type Acceptor struct {
	Slots []AcceptorSlot `foundry:"slots"`
}

// EjectorSlot pushes its item one tile towards Direction.
type EjectorSlot struct {
	DX        int          `foundry:"dx"`
	DY        int          `foundry:"dy"`
	Direction Direction    `foundry:"direction"`
	Item      *shape.Shape `foundry:"item"`
}

type Ejector struct {
	Slots []EjectorSlot `foundry:"slots"`
}

// Input is an item taken from an acceptor slot, waiting for the next charge.
type Input struct {
	Item *shape.Shape `foundry:"item"`
	Slot int          `foundry:"slot"`
}

// Output is a produced item bound for a specific ejector slot.
type Output struct {
	Item *shape.Shape `foundry:"item"`
	Slot int          `foundry:"slot"`
}

// Processor runs a handler over InputsPerCharge inputs. Outputs of a charge are held in Charged
// until the charge completes, then wait in Pending until their ejector slot is free. A
// processor with pending outputs does not start another charge.
type Processor struct {
	Type            ProcessorType `foundry:"type"`
	InputsPerCharge int           `foundry:"inputs_per_charge"`
	Inputs          []Input       `foundry:"inputs"`
	Charging        bool          `foundry:"charging"`
	ChargeStart     float64       `foundry:"charge_start"`
	ChargeDuration  float64       `foundry:"charge_duration"`
	Charged         []Output      `foundry:"charged"`
	Pending         []Output      `foundry:"pending"`
}

// GoalChecker latches a filter from the first usable item it sees and then routes every item
// by whether the current hub goal passes that filter.
type GoalChecker struct {
	IsFiltered   bool         `foundry:"is_filtered"`
	FilterKind   string       `foundry:"filter_kind"`
	FilterChar   string       `foundry:"filter_char"`
	FilterOffset int          `foundry:"filter_offset"`
	Template     *shape.Shape `foundry:"template"`
	GoalSeen     string       `foundry:"goal_seen"`
}

func (c *GoalChecker) latch(f shape.Filter) {
	template := f.Template
	c.IsFiltered = true
	c.FilterKind = string(f.Kind)
	c.FilterChar = string(f.Char)
	c.FilterOffset = f.Offset
	c.Template = &template
}

// Filter rebuilds the latched filter. ok is false before anything was latched.
func (c *GoalChecker) Filter() (f shape.Filter, ok bool) {
	if !c.IsFiltered || len(c.FilterChar) != 1 {
		return shape.Filter{}, false
	}
	f = shape.Filter{
		Kind:   shape.FilterKind(c.FilterKind),
		Char:   c.FilterChar[0],
		Offset: c.FilterOffset,
	}
	if c.Template != nil {
		f.Template = *c.Template
	}
	return f, true
}

// HubStats counts what reached a hub.
type HubStats struct {
	Delivered int `foundry:"delivered"`
}

// Emitter produces a copy of Item every Interval into its ejector slot 0, as long as the slot
// is free.
type Emitter struct {
	Item     *shape.Shape `foundry:"item"`
	Interval float64      `foundry:"interval"`
	Last     float64      `foundry:"last"`
}

const (
	PlacementID = "placement"
	AcceptorID  = "acceptor"
	EjectorID   = "ejector"
	ProcessorID = "processor"
	CheckerID   = "checker"
	HubID       = "hub"
	EmitterID   = "emitter"
)

var (
	acceptorSlotSchema = foundry.NewSchema(
		foundry.IntField("dx", 0),
		foundry.IntField("dy", 0),
		foundry.EnumField("from", string(Bottom), directions...),
		foundry.ItemField("item"),
	)
	ejectorSlotSchema = foundry.NewSchema(
		foundry.IntField("dx", 0),
		foundry.IntField("dy", 0),
		foundry.EnumField("direction", string(Top), directions...),
		foundry.ItemField("item"),
	)
	outputSchema = foundry.NewSchema(
		foundry.ItemField("item"),
		foundry.IntField("slot", 0),
	)
)

var (
	PlacementComponent = foundry.FactoryNewComponentType[Placement](PlacementID, foundry.NewSchema(
		foundry.IntField("x", 0),
		foundry.IntField("y", 0),
		foundry.IntField("w", 1),
		foundry.IntField("h", 1),
	))
	AcceptorComponent = foundry.FactoryNewComponentType[Acceptor](AcceptorID, foundry.NewSchema(
		foundry.ListField("slots", acceptorSlotSchema),
	))
	EjectorComponent = foundry.FactoryNewComponentType[Ejector](EjectorID, foundry.NewSchema(
		foundry.ListField("slots", ejectorSlotSchema),
	))
	ProcessorComponent = foundry.FactoryNewComponentType[Processor](ProcessorID, foundry.NewSchema(
		foundry.EnumField("type", string(Belt), processorTypes...),
		foundry.IntField("inputs_per_charge", 1),
		foundry.ListField("inputs", outputSchema),
		foundry.BoolField("charging", false),
		foundry.TimeField("charge_start"),
		foundry.TimeField("charge_duration"),
		foundry.ListField("charged", outputSchema),
		foundry.ListField("pending", outputSchema),
	))
	CheckerComponent = foundry.FactoryNewComponentType[GoalChecker](CheckerID, foundry.NewSchema(
		foundry.BoolField("is_filtered", false),
		foundry.EnumField("filter_kind", "", "", "color", "shape", "hole", "uncolored"),
		foundry.StringField("filter_char", ""),
		foundry.IntField("filter_offset", 0),
		foundry.ItemField("template"),
		foundry.StringField("goal_seen", ""),
	))
	HubComponent = foundry.FactoryNewComponentType[HubStats](HubID, foundry.NewSchema(
		foundry.IntField("delivered", 0),
	))
	EmitterComponent = foundry.FactoryNewComponentType[Emitter](EmitterID, foundry.NewSchema(
		foundry.ItemField("item"),
		foundry.TimeField("interval"),
		foundry.TimeField("last"),
	))
)

// Register makes every production component type known to reg.
func Register(reg *foundry.Registry) error {
	for _, desc := range []foundry.ComponentDescriptor{
		PlacementComponent, AcceptorComponent, EjectorComponent, ProcessorComponent,
		CheckerComponent, HubComponent, EmitterComponent,
	} {
		if err := reg.RegisterComponentType(desc); err != nil {
			return err
		}
	}
	return nil
}
