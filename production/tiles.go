package production

import "github.com/TheBitDrifter/foundry"

type tileKey struct {
	x, y int
	from Direction
}

type acceptorRef struct {
	entity foundry.EntityID
	slot   int
}

// tileIndex maps grid positions to the acceptor slots listening there. Buildings never hold
// references to their neighbours; the index is rebuilt from placements once per tick.
type tileIndex struct {
	tick  uint64
	built bool
	slots map[tileKey]acceptorRef
}

func (t *tileIndex) forTick(tc *foundry.TickContext) (map[tileKey]acceptorRef, error) {
	if t.built && t.tick == tc.Tick {
		return t.slots, nil
	}
	ids, err := tc.Registry.QueryEntitiesWithAll(PlacementID, AcceptorID)
	if err != nil {
		return nil, err
	}
	slots := make(map[tileKey]acceptorRef)
	for _, id := range ids {
		pl, err := PlacementComponent.GetFromEntity(tc.Registry, id)
		if err != nil {
			return nil, err
		}
		acc, err := AcceptorComponent.GetFromEntity(tc.Registry, id)
		if err != nil {
			return nil, err
		}
		for i, slot := range acc.Slots {
			key := tileKey{x: pl.X + slot.DX, y: pl.Y + slot.DY, from: slot.From}
			// first come, first served on overlapping slots
			if _, taken := slots[key]; !taken {
				slots[key] = acceptorRef{entity: id, slot: i}
			}
		}
	}
	t.tick, t.built, t.slots = tc.Tick, true, slots
	return slots, nil
}
