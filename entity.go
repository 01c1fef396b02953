package foundry

import (
	"fmt"

	"github.com/TheBitDrifter/mask"
	"github.com/TheBitDrifter/table"
	iter_util "github.com/TheBitDrifter/util/iter"
)

// entity is the registry record behind an EntityID. An entity without components has no
// table entry yet (entryID 0). The live entry is always resolved through the entry index.
type entity struct {
	id        EntityID
	entryID   table.EntryID
	signature mask.Mask
}

func (e *entity) has(bit uint32) bool {
	return e.signature.ContainsAll(maskOf(bit))
}

func maskOf(bits ...uint32) mask.Mask {
	var m mask.Mask
	for _, bit := range bits {
		m.Mark(bit)
	}
	return m
}

// entryOf resolves the current table position of e.
func (r *Registry) entryOf(e *entity) (table.Entry, error) {
	if e.entryID == 0 {
		return nil, fmt.Errorf("entity %d holds no components", e.id)
	}
	return r.entryIndex.Entry(int(e.entryID) - 1)
}

// attach moves e into the archetype that additionally holds info's component.
func (r *Registry) attach(e *entity, info *componentInfo) error {
	destMask := e.signature
	destMask.Mark(info.bit)

	if e.entryID == 0 {
		dest, err := r.archetypes.forSignature(r, destMask, []Component{info.elem})
		if err != nil {
			return fmt.Errorf("failed to get/create archetype: %w", err)
		}
		entries, err := dest.table.NewEntries(1)
		if err != nil {
			return fmt.Errorf("failed to create entry: %w", err)
		}
		e.entryID = entries[0].ID()
		e.signature = destMask
		return nil
	}

	entry, err := r.entryOf(e)
	if err != nil {
		return err
	}
	originTable := entry.Table()
	originalComps := iter_util.Collect(originTable.ElementTypes())
	newComps := make([]Component, len(originalComps)+1)
	for i, ogComp := range originalComps {
		newComps[i] = ogComp
	}
	newComps[len(newComps)-1] = info.elem

	dest, err := r.archetypes.forSignature(r, destMask, newComps)
	if err != nil {
		return fmt.Errorf("failed to get/create archetype: %w", err)
	}
	if err := r.transfer(e, entry, dest); err != nil {
		return err
	}
	e.signature = destMask
	return nil
}

// detach moves e into the archetype without info's component, dropping its entry when no
// component is left.
func (r *Registry) detach(e *entity, info *componentInfo) error {
	destMask := e.signature
	destMask.Unmark(info.bit)
	entry, err := r.entryOf(e)
	if err != nil {
		return err
	}
	originTable := entry.Table()

	if destMask == (mask.Mask{}) {
		if _, err := originTable.DeleteEntries(entry.Index()); err != nil {
			return fmt.Errorf("failed to delete entry: %w", err)
		}
		e.entryID = 0
		e.signature = destMask
		return nil
	}

	originalComps := iter_util.Collect(originTable.ElementTypes())
	newComps := make([]Component, 0, len(originalComps)-1)
	for _, comp := range originalComps {
		if comp != info.elem {
			newComps = append(newComps, comp)
		}
	}
	dest, err := r.archetypes.forSignature(r, destMask, newComps)
	if err != nil {
		return fmt.Errorf("failed to get/create archetype: %w", err)
	}
	if err := r.transfer(e, entry, dest); err != nil {
		return err
	}
	e.signature = destMask
	return nil
}

// transfer moves e's row into dest. The moved entry is recycled; e is backed by the one
// appended to dest.
func (r *Registry) transfer(e *entity, entry table.Entry, dest archetype) error {
	at := dest.table.Length()
	if err := entry.Table().TransferEntries(dest.table, entry.Index()); err != nil {
		return fmt.Errorf("failed to transfer entity: %w", err)
	}
	moved, err := dest.table.Entry(at)
	if err != nil {
		return fmt.Errorf("failed to resolve transferred entity: %w", err)
	}
	e.entryID = moved.ID()
	return nil
}
