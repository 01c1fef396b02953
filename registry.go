package foundry

import (
	"fmt"
	"log/slog"
	"reflect"
	"slices"

	"github.com/TheBitDrifter/mask"
	"github.com/TheBitDrifter/table"
)

// Registry owns entities and their component state. Component values live in archetype tables;
// a per-component-type index, kept sorted by id, answers queries in insertion order.
type Registry struct {
	cfg        Config
	logger     *slog.Logger
	locked     bool
	schema     table.Schema
	entryIndex table.EntryIndex
	archetypes *archetypes
	opQueue    opQueue

	types     map[string]*componentInfo
	typeOrder []string

	entities map[EntityID]*entity
	live     []EntityID
	index    map[uint32][]EntityID
	nextID   EntityID
}

func newRegistry(cfg Config) *Registry {
	return &Registry{
		cfg:        cfg,
		logger:     cfg.logger(),
		schema:     table.Factory.NewSchema(),
		entryIndex: table.Factory.NewEntryIndex(),
		archetypes: newArchetypes(),
		opQueue:    newOpQueue(),
		types:      make(map[string]*componentInfo),
		entities:   make(map[EntityID]*entity),
		index:      make(map[uint32][]EntityID),
		nextID:     1,
	}
}

// RegisterComponentType makes a component type addressable by its id. Each id registers once.
func (r *Registry) RegisterComponentType(desc ComponentDescriptor) error {
	id := desc.ComponentID()
	if id == "" {
		return SchemaError{Reason: "component type id is empty"}
	}
	if _, exists := r.types[id]; exists {
		return ComponentTypeExistsError{TypeID: id}
	}
	info := desc.descriptor()
	b, err := bindSchema(id, info.schema, info.typ)
	if err != nil {
		return err
	}
	info.binding = b
	r.schema.Register(info.elem)
	info.bit = r.schema.RowIndexFor(info.elem)
	r.types[id] = info
	r.typeOrder = append(r.typeOrder, id)
	return nil
}

// ComponentTypes lists registered ids in registration order.
func (r *Registry) ComponentTypes() []string {
	return slices.Clone(r.typeOrder)
}

func (r *Registry) ComponentSchema(typeID string) (Schema, error) {
	info, ok := r.types[typeID]
	if !ok {
		return Schema{}, UnknownComponentTypeError{TypeID: typeID}
	}
	return info.schema, nil
}

func (r *Registry) CreateEntity() (EntityID, error) {
	if r.locked {
		return 0, LockedRegistryError{}
	}
	id := r.nextID
	r.nextID++
	r.entities[id] = &entity{id: id}
	r.live = append(r.live, id)
	return id, nil
}

// CreateEntityWith creates an entity carrying every given component. It either fully succeeds
// or leaves no entity behind.
func (r *Registry) CreateEntityWith(values ...ComponentValue) (EntityID, error) {
	id, err := r.CreateEntity()
	if err != nil {
		return 0, err
	}
	for _, v := range values {
		if err := r.AddComponent(id, v.TypeID, v.Value); err != nil {
			if destroyErr := r.DestroyEntity(id); destroyErr != nil {
				return 0, fmt.Errorf("%w (rollback: %v)", err, destroyErr)
			}
			return 0, err
		}
	}
	return id, nil
}

// RestoreEntity recreates an entity under a known id, for rebuilding state from a checkpoint.
// Ids still have to arrive in ascending order.
func (r *Registry) RestoreEntity(id EntityID) error {
	if r.locked {
		return LockedRegistryError{}
	}
	if id < r.nextID {
		return fmt.Errorf("cannot restore entity %d: ids up to %d are already issued", id, r.nextID-1)
	}
	r.nextID = id + 1
	r.entities[id] = &entity{id: id}
	r.live = append(r.live, id)
	return nil
}

// DestroyEntity removes the entity and every component it carries. The id is never reissued.
func (r *Registry) DestroyEntity(id EntityID) error {
	if r.locked {
		return LockedRegistryError{}
	}
	e, ok := r.entities[id]
	if !ok {
		return UnknownEntityError{Entity: id}
	}
	if e.entryID != 0 {
		entry, err := r.entryOf(e)
		if err != nil {
			return err
		}
		if _, err := entry.Table().DeleteEntries(entry.Index()); err != nil {
			return fmt.Errorf("failed to delete entries: %w", err)
		}
	}
	for _, info := range r.types {
		if e.has(info.bit) {
			r.indexRemove(info.bit, id)
		}
	}
	delete(r.entities, id)
	if i, found := slices.BinarySearch(r.live, id); found {
		r.live = slices.Delete(r.live, i, i+1)
	}
	return nil
}

func (r *Registry) Alive(id EntityID) bool {
	_, ok := r.entities[id]
	return ok
}

func (r *Registry) Len() int {
	return len(r.live)
}

// Entities returns every live id in insertion order.
func (r *Registry) Entities() []EntityID {
	return slices.Clone(r.live)
}

// AddComponent attaches a component. initial must be the component's state type or a non-nil
// pointer to it; the value is copied in.
func (r *Registry) AddComponent(id EntityID, typeID string, initial any) error {
	if r.locked {
		return LockedRegistryError{}
	}
	e, info, err := r.lookup(id, typeID)
	if err != nil {
		return err
	}
	if e.has(info.bit) {
		return DuplicateComponentError{Entity: id, TypeID: typeID}
	}
	if !info.accepts(initial) {
		return ComponentValueError{TypeID: typeID, Value: initial}
	}
	if err := r.attach(e, info); err != nil {
		return err
	}
	entry, err := r.entryOf(e)
	if err != nil {
		return err
	}
	info.set(entry, initial)
	r.indexInsert(info.bit, id)
	return nil
}

// AddComponentDefault attaches a component initialized from its schema defaults.
func (r *Registry) AddComponentDefault(id EntityID, typeID string) error {
	info, ok := r.types[typeID]
	if !ok {
		return UnknownComponentTypeError{TypeID: typeID}
	}
	block := reflect.New(info.typ)
	info.binding.applyDefaults(block.Elem())
	return r.AddComponent(id, typeID, block.Interface())
}

// AddComponentFromDocument attaches a component decoded from its schema encoding.
func (r *Registry) AddComponentFromDocument(id EntityID, typeID string, doc map[string]any, items ItemDecoder) error {
	info, ok := r.types[typeID]
	if !ok {
		return UnknownComponentTypeError{TypeID: typeID}
	}
	block := reflect.New(info.typ)
	if err := info.binding.decode(doc, block.Elem(), items); err != nil {
		return err
	}
	return r.AddComponent(id, typeID, block.Interface())
}

func (r *Registry) RemoveComponent(id EntityID, typeID string) error {
	if r.locked {
		return LockedRegistryError{}
	}
	e, info, err := r.lookup(id, typeID)
	if err != nil {
		return err
	}
	if !e.has(info.bit) {
		return ComponentNotFoundError{Entity: id, TypeID: typeID}
	}
	if err := r.detach(e, info); err != nil {
		return err
	}
	r.indexRemove(info.bit, id)
	return nil
}

// GetComponent returns a pointer to the entity's state block, or nil when the entity does not
// carry the component.
func (r *Registry) GetComponent(id EntityID, typeID string) (any, error) {
	e, info, err := r.lookup(id, typeID)
	if err != nil {
		return nil, err
	}
	if !e.has(info.bit) {
		return nil, nil
	}
	entry, err := r.entryOf(e)
	if err != nil {
		return nil, err
	}
	return info.get(entry), nil
}

func (r *Registry) HasComponent(id EntityID, typeID string) (bool, error) {
	e, info, err := r.lookup(id, typeID)
	if err != nil {
		return false, err
	}
	return e.has(info.bit), nil
}

// ComponentsOf lists the component ids an entity carries, in registration order.
func (r *Registry) ComponentsOf(id EntityID) ([]string, error) {
	e, ok := r.entities[id]
	if !ok {
		return nil, UnknownEntityError{Entity: id}
	}
	var ids []string
	for _, typeID := range r.typeOrder {
		if e.has(r.types[typeID].bit) {
			ids = append(ids, typeID)
		}
	}
	return ids, nil
}

// EncodeComponent renders the entity's component through its schema.
func (r *Registry) EncodeComponent(id EntityID, typeID string) (map[string]any, error) {
	e, info, err := r.lookup(id, typeID)
	if err != nil {
		return nil, err
	}
	if !e.has(info.bit) {
		return nil, ComponentNotFoundError{Entity: id, TypeID: typeID}
	}
	entry, err := r.entryOf(e)
	if err != nil {
		return nil, err
	}
	return info.binding.encode(reflect.ValueOf(info.get(entry)).Elem()), nil
}

// QueryEntitiesWithAll returns a snapshot of the entities holding every listed component type,
// in insertion order. Later mutation does not affect the returned slice.
func (r *Registry) QueryEntitiesWithAll(typeIDs ...string) ([]EntityID, error) {
	signature, bits, err := r.signatureFor(typeIDs)
	if err != nil {
		return nil, err
	}
	return r.queryBits(signature, bits), nil
}

// QueryEntities evaluates node against every live entity, in insertion order.
func (r *Registry) QueryEntities(node QueryNode) []EntityID {
	var out []EntityID
	for _, id := range r.live {
		if node.Evaluate(r.entities[id].signature, r) {
			out = append(out, id)
		}
	}
	return out
}

func (r *Registry) queryBits(signature mask.Mask, bits []uint32) []EntityID {
	if len(bits) == 0 {
		return slices.Clone(r.live)
	}
	candidates := r.index[bits[0]]
	for _, bit := range bits[1:] {
		if len(r.index[bit]) < len(candidates) {
			candidates = r.index[bit]
		}
	}
	out := make([]EntityID, 0, len(candidates))
	for _, id := range candidates {
		if r.entities[id].signature.ContainsAll(signature) {
			out = append(out, id)
		}
	}
	return out
}

func (r *Registry) matches(id EntityID, signature mask.Mask) bool {
	e, ok := r.entities[id]
	return ok && e.signature.ContainsAll(signature)
}

func (r *Registry) signatureFor(typeIDs []string) (mask.Mask, []uint32, error) {
	var signature mask.Mask
	bits := make([]uint32, 0, len(typeIDs))
	for _, typeID := range typeIDs {
		info, ok := r.types[typeID]
		if !ok {
			return mask.Mask{}, nil, UnknownComponentTypeError{TypeID: typeID}
		}
		signature.Mark(info.bit)
		bits = append(bits, info.bit)
	}
	return signature, bits, nil
}

func (r *Registry) lookup(id EntityID, typeID string) (*entity, *componentInfo, error) {
	e, ok := r.entities[id]
	if !ok {
		return nil, nil, UnknownEntityError{Entity: id}
	}
	info, ok := r.types[typeID]
	if !ok {
		return nil, nil, UnknownComponentTypeError{TypeID: typeID}
	}
	return e, info, nil
}

func (r *Registry) indexInsert(bit uint32, id EntityID) {
	ids := r.index[bit]
	i, found := slices.BinarySearch(ids, id)
	if found {
		return
	}
	r.index[bit] = slices.Insert(ids, i, id)
}

func (r *Registry) indexRemove(bit uint32, id EntityID) {
	ids := r.index[bit]
	if i, found := slices.BinarySearch(ids, id); found {
		r.index[bit] = slices.Delete(ids, i, i+1)
	}
}

func (r *Registry) Locked() bool {
	return r.locked
}

func (r *Registry) Lock() {
	r.locked = true
}

func (r *Registry) Unlock() {
	r.locked = false
}
