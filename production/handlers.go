package production

import (
	"log/slog"

	"github.com/TheBitDrifter/foundry"
	"github.com/TheBitDrifter/foundry/shape"
)

// HandlerContext is what a processor handler may look at besides its inputs.
type HandlerContext struct {
	Registry *foundry.Registry
	Entity   foundry.EntityID
	Now      float64
	Goals    *HubGoals
	Logger   *slog.Logger
}

// Handler turns one charge worth of inputs into outputs. Returning no outputs consumes the
// inputs.
type Handler func(hc *HandlerContext, inputs []Input) ([]Output, error)

func defaultHandlers() map[ProcessorType]Handler {
	return map[ProcessorType]Handler{
		Belt:       beltHandler,
		Rotator:    rotateHandler(shape.Shape.RotateCW),
		RotatorCCW: rotateHandler(shape.Shape.RotateCCW),
		Checker:    checkerHandler,
		Hub:        hubHandler,
	}
}

func beltHandler(_ *HandlerContext, inputs []Input) ([]Output, error) {
	outputs := make([]Output, 0, len(inputs))
	for _, in := range inputs {
		outputs = append(outputs, Output{Item: in.Item, Slot: 0})
	}
	return outputs, nil
}

func rotateHandler(rotate func(shape.Shape) shape.Shape) Handler {
	return func(_ *HandlerContext, inputs []Input) ([]Output, error) {
		outputs := make([]Output, 0, len(inputs))
		for _, in := range inputs {
			rotated := rotate(*in.Item)
			outputs = append(outputs, Output{Item: &rotated, Slot: 0})
		}
		return outputs, nil
	}
}

// checkerHandler latches a filter from the first item it can derive one from, consuming that
// item. Later items leave through slot 0 when the goal passes the filter, slot 1 otherwise.
func checkerHandler(hc *HandlerContext, inputs []Input) ([]Output, error) {
	chk, err := CheckerComponent.GetFromEntity(hc.Registry, hc.Entity)
	if err != nil {
		return nil, err
	}
	if chk == nil {
		return nil, MissingComponentError{Entity: hc.Entity, TypeID: CheckerID}
	}

	var outputs []Output
	for _, in := range inputs {
		f, latched := chk.Filter()
		if !latched {
			derived, ok := shape.DeriveFilter(*in.Item)
			if !ok {
				hc.Logger.Debug("no filter derivable, item consumed", "entity", hc.Entity, "item", in.Item.Key())
				continue
			}
			chk.latch(derived)
			hc.Logger.Debug("checker filter latched", "entity", hc.Entity,
				"kind", derived.Kind, "char", string(derived.Char), "offset", derived.Offset)
			continue
		}
		slot := 1
		if f.Matches(hc.Goals.CurrentGoalKey()) {
			slot = 0
		}
		outputs = append(outputs, Output{Item: in.Item, Slot: slot})
	}
	return outputs, nil
}

func hubHandler(hc *HandlerContext, inputs []Input) ([]Output, error) {
	stats, err := HubComponent.GetFromEntity(hc.Registry, hc.Entity)
	if err != nil {
		return nil, err
	}
	for _, in := range inputs {
		hc.Goals.Deliver(*in.Item)
		if stats != nil {
			stats.Delivered++
		}
	}
	return nil, nil
}
