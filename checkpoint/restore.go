package checkpoint

import (
	"bytes"
	"cmp"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/TheBitDrifter/foundry"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Validator checks component documents against JSON Schemas compiled from the registered
// component schemas. Compiled schemas are kept per component type.
type Validator struct {
	reg      *foundry.Registry
	compiled map[string]*jsonschema.Schema
}

func NewValidator(reg *foundry.Registry) *Validator {
	return &Validator{reg: reg, compiled: make(map[string]*jsonschema.Schema)}
}

func (v *Validator) schemaFor(typeID string) (*jsonschema.Schema, error) {
	if s, ok := v.compiled[typeID]; ok {
		return s, nil
	}
	schema, err := v.reg.ComponentSchema(typeID)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(schema.JSONSchema())
	if err != nil {
		return nil, err
	}
	s, err := jsonschema.CompileString("foundry://components/"+typeID+".json", string(raw))
	if err != nil {
		return nil, fmt.Errorf("compile schema for %q: %w", typeID, err)
	}
	v.compiled[typeID] = s
	return s, nil
}

// Validate checks one component document. doc may come straight from Capture or from Unmarshal.
func (v *Validator) Validate(typeID string, doc map[string]any) (map[string]any, error) {
	s, err := v.schemaFor(typeID)
	if err != nil {
		return nil, err
	}
	normalized, err := normalize(doc)
	if err != nil {
		return nil, err
	}
	if err := s.Validate(normalized); err != nil {
		return nil, err
	}
	return normalized, nil
}

// normalize round trips doc through JSON so every number is a json.Number, the form the schema
// validator expects.
func normalize(doc map[string]any) (map[string]any, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var out map[string]any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

// Restore rebuilds the entities of doc inside reg, keeping their ids. reg must not have issued
// any entity yet. Every component type in doc must already be registered. items resolves item
// keys; nil decodes them directly.
func Restore(reg *foundry.Registry, doc *Document, items foundry.ItemDecoder) error {
	if reg.Len() != 0 {
		return NonEmptyRegistryError{Entities: reg.Len()}
	}
	if doc.Header.Version != Version {
		return VersionError{Got: doc.Header.Version}
	}

	v := NewValidator(reg)
	entities := slices.Clone(doc.Entities)
	slices.SortFunc(entities, func(a, b Entity) int {
		return cmp.Compare(a.ID, b.ID)
	})
	for _, ent := range entities {
		if err := reg.RestoreEntity(ent.ID); err != nil {
			return err
		}
		for _, typeID := range slices.Sorted(maps.Keys(ent.Components)) {
			state, err := v.Validate(typeID, ent.Components[typeID])
			if err != nil {
				return &ValidationError{Entity: ent.ID, TypeID: typeID, Err: err}
			}
			if err := reg.AddComponentFromDocument(ent.ID, typeID, state, items); err != nil {
				return &ValidationError{Entity: ent.ID, TypeID: typeID, Err: err}
			}
		}
	}
	return nil
}

// RestoreScheduler restores doc into the scheduler's registry and resumes the scheduler at the
// checkpoint's tick and time, so it keeps lockstep with an instance that never stopped.
func RestoreScheduler(sched *foundry.Scheduler, doc *Document, items foundry.ItemDecoder) error {
	if err := Restore(sched.Registry(), doc, items); err != nil {
		return err
	}
	return sched.Resume(doc.Header.Tick, doc.Header.Now)
}

// ValidationError reports a component document that does not fit its schema.
type ValidationError struct {
	Entity foundry.EntityID
	TypeID string
	Err    error
}

func (e *ValidationError) Error() string {
	// jsonschema errors span several lines
	msg := strings.ReplaceAll(e.Err.Error(), "\n", "; ")
	return fmt.Sprintf("entity %d, component %q: %s", e.Entity, e.TypeID, msg)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

type NonEmptyRegistryError struct {
	Entities int
}

func (e NonEmptyRegistryError) Error() string {
	return fmt.Sprintf("cannot restore into a registry holding %d entities", e.Entities)
}

type VersionError struct {
	Got int
}

func (e VersionError) Error() string {
	return fmt.Sprintf("checkpoint version %d, want %d", e.Got, Version)
}
