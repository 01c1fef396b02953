package foundry

import (
	"github.com/TheBitDrifter/mask"
	"github.com/TheBitDrifter/table"
)

type archetypeID uint32

// archetype is the table holding every entity with one exact component signature.
type archetype struct {
	id        archetypeID
	signature mask.Mask
	table     table.Table
}

// archetypes owns every table of a registry. Ids start at 1 and index asSlice at id-1.
type archetypes struct {
	nextID           archetypeID
	asSlice          []archetype
	idsGroupedByMask map[mask.Mask]archetypeID
}

func newArchetypes() *archetypes {
	return &archetypes{
		nextID:           1,
		idsGroupedByMask: make(map[mask.Mask]archetypeID),
	}
}

// forSignature returns the archetype for signature, building its table from comps on first use.
func (a *archetypes) forSignature(r *Registry, signature mask.Mask, comps []Component) (archetype, error) {
	if id, found := a.idsGroupedByMask[signature]; found {
		return a.asSlice[id-1], nil
	}
	elementTypes := make([]table.ElementType, len(comps))
	for i, comp := range comps {
		elementTypes[i] = comp
	}
	tbl, err := table.NewTableBuilder().
		WithSchema(r.schema).
		WithEntryIndex(r.entryIndex).
		WithElementTypes(elementTypes...).
		WithEvents(r.cfg.TableEvents).
		Build()
	if err != nil {
		return archetype{}, err
	}
	created := archetype{id: a.nextID, signature: signature, table: tbl}
	a.asSlice = append(a.asSlice, created)
	a.idsGroupedByMask[signature] = created.id
	a.nextID++
	return created, nil
}

// Archetypes reports how many distinct component signatures have been stored so far.
func (r *Registry) Archetypes() int {
	return len(r.archetypes.asSlice)
}
