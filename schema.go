package foundry

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"slices"

	"github.com/TheBitDrifter/foundry/shape"
)

// FieldKind is the closed set of semantic field types a component schema may declare.
type FieldKind int

const (
	FieldInt FieldKind = iota + 1
	FieldFloat
	FieldBool
	FieldString
	// FieldItem is a nullable reference to a shape item (*shape.Shape), serialized as its short key.
	FieldItem
	// FieldEnum is a string-backed field restricted to Options.
	FieldEnum
	// FieldList is a slice of records described by Elem.
	FieldList
)

func (k FieldKind) String() string {
	switch k {
	case FieldInt:
		return "int"
	case FieldFloat:
		return "float"
	case FieldBool:
		return "bool"
	case FieldString:
		return "string"
	case FieldItem:
		return "item"
	case FieldEnum:
		return "enum"
	case FieldList:
		return "list"
	}
	return fmt.Sprintf("FieldKind(%d)", int(k))
}

// Field describes one schema field. Quantized float fields hold tick times and refuse
// off-grid values on decode.
type Field struct {
	Name      string
	Kind      FieldKind
	Default   any
	Options   []string
	Quantized bool
	Elem      *Schema
}

// Schema is the single description of a component's state used for defaults,
// serialization and validation. Fields bind to struct fields tagged `foundry:"name"`.
type Schema struct {
	Fields []Field
}

func NewSchema(fields ...Field) Schema {
	return Schema{Fields: fields}
}

func IntField(name string, def int) Field {
	return Field{Name: name, Kind: FieldInt, Default: def}
}

func FloatField(name string, def float64) Field {
	return Field{Name: name, Kind: FieldFloat, Default: def}
}

// TimeField is a quantized float holding a tick time.
func TimeField(name string) Field {
	return Field{Name: name, Kind: FieldFloat, Default: 0.0, Quantized: true}
}

func BoolField(name string, def bool) Field {
	return Field{Name: name, Kind: FieldBool, Default: def}
}

func StringField(name, def string) Field {
	return Field{Name: name, Kind: FieldString, Default: def}
}

func ItemField(name string) Field {
	return Field{Name: name, Kind: FieldItem}
}

func EnumField(name, def string, options ...string) Field {
	return Field{Name: name, Kind: FieldEnum, Default: def, Options: options}
}

func ListField(name string, elem Schema) Field {
	return Field{Name: name, Kind: FieldList, Elem: &elem}
}

func (s Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

const (
	filledQuadrantPattern = `[CRSW][rgbypcwu]`
	quadrantPattern       = `(` + filledQuadrantPattern + `|--)`
)

// layerPattern is four quadrants with at least one filled.
const layerPattern = `(` +
	filledQuadrantPattern + quadrantPattern + quadrantPattern + quadrantPattern +
	`|--` + filledQuadrantPattern + quadrantPattern + quadrantPattern +
	`|----` + filledQuadrantPattern + quadrantPattern +
	`|------` + filledQuadrantPattern + `)`

const itemKeyPattern = `^` + layerPattern + `(:` + layerPattern + `){0,3}$`

// JSONSchema renders the schema as a JSON Schema document for validating encoded state.
func (s Schema) JSONSchema() map[string]any {
	props := make(map[string]any, len(s.Fields))
	for _, f := range s.Fields {
		props[f.Name] = f.jsonSchema()
	}
	return map[string]any{
		"type":                 "object",
		"properties":           props,
		"additionalProperties": false,
	}
}

func (f Field) jsonSchema() map[string]any {
	switch f.Kind {
	case FieldInt:
		return map[string]any{"type": "integer"}
	case FieldFloat:
		return map[string]any{"type": "number"}
	case FieldBool:
		return map[string]any{"type": "boolean"}
	case FieldString:
		return map[string]any{"type": "string"}
	case FieldEnum:
		options := make([]any, len(f.Options))
		for i, o := range f.Options {
			options[i] = o
		}
		return map[string]any{"type": "string", "enum": options}
	case FieldItem:
		return map[string]any{"type": []any{"string", "null"}, "pattern": itemKeyPattern}
	case FieldList:
		return map[string]any{"type": "array", "items": f.Elem.JSONSchema()}
	}
	return map[string]any{}
}

// ItemDecoder resolves an item short key during decoding. Nil means shape.Decode.
type ItemDecoder func(key string) (*shape.Shape, error)

var itemType = reflect.TypeFor[*shape.Shape]()

type fieldBinding struct {
	field Field
	index []int
	elem  *binding
}

type binding struct {
	typeID string
	typ    reflect.Type
	fields []fieldBinding
}

func bindSchema(typeID string, s Schema, t reflect.Type) (*binding, error) {
	if t.Kind() != reflect.Struct {
		return nil, SchemaError{TypeID: typeID, Reason: fmt.Sprintf("state type %s is not a struct", t)}
	}
	tagged := make(map[string][]int)
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		name, ok := sf.Tag.Lookup("foundry")
		if !ok || name == "-" {
			continue
		}
		if !sf.IsExported() {
			return nil, SchemaError{TypeID: typeID, Field: name, Reason: "tagged struct field is unexported"}
		}
		if _, dup := tagged[name]; dup {
			return nil, SchemaError{TypeID: typeID, Field: name, Reason: "tag used twice"}
		}
		tagged[name] = sf.Index
	}

	b := &binding{typeID: typeID, typ: t}
	seen := make(map[string]bool, len(s.Fields))
	for _, f := range s.Fields {
		if seen[f.Name] {
			return nil, SchemaError{TypeID: typeID, Field: f.Name, Reason: "declared twice"}
		}
		seen[f.Name] = true
		index, ok := tagged[f.Name]
		if !ok {
			return nil, SchemaError{TypeID: typeID, Field: f.Name, Reason: "no struct field carries this tag"}
		}
		ft := t.FieldByIndex(index).Type
		if !kindFits(f, ft) {
			return nil, SchemaError{TypeID: typeID, Field: f.Name, Reason: fmt.Sprintf("%s field cannot bind to %s", f.Kind, ft)}
		}
		fb := fieldBinding{field: f, index: index}
		if f.Kind == FieldList {
			elem, err := bindSchema(typeID, *f.Elem, ft.Elem())
			if err != nil {
				return nil, err
			}
			fb.elem = elem
		}
		if f.Default != nil {
			sample := reflect.New(ft).Elem()
			if err := fb.assign(sample, f.Default, nil); err != nil {
				return nil, SchemaError{TypeID: typeID, Field: f.Name, Reason: "bad default: " + err.Error()}
			}
		}
		b.fields = append(b.fields, fb)
	}
	for name := range tagged {
		if !seen[name] {
			return nil, SchemaError{TypeID: typeID, Field: name, Reason: "tagged struct field missing from schema"}
		}
	}
	return b, nil
}

func kindFits(f Field, t reflect.Type) bool {
	switch f.Kind {
	case FieldInt:
		switch t.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			return true
		}
	case FieldFloat:
		return t.Kind() == reflect.Float64 || t.Kind() == reflect.Float32
	case FieldBool:
		return t.Kind() == reflect.Bool
	case FieldString:
		return t.Kind() == reflect.String
	case FieldEnum:
		return t.Kind() == reflect.String && len(f.Options) > 0
	case FieldItem:
		return t == itemType
	case FieldList:
		return f.Elem != nil && t.Kind() == reflect.Slice && t.Elem().Kind() == reflect.Struct
	}
	return false
}

func (b *binding) applyDefaults(v reflect.Value) {
	for _, fb := range b.fields {
		if fb.field.Default == nil {
			continue
		}
		// defaults were checked at bind time
		_ = fb.assign(v.FieldByIndex(fb.index), fb.field.Default, nil)
	}
}

func (b *binding) encode(v reflect.Value) map[string]any {
	out := make(map[string]any, len(b.fields))
	for _, fb := range b.fields {
		out[fb.field.Name] = fb.encode(v.FieldByIndex(fb.index))
	}
	return out
}

func (fb fieldBinding) encode(fv reflect.Value) any {
	switch fb.field.Kind {
	case FieldInt:
		if fv.CanInt() {
			return fv.Int()
		}
		return int64(fv.Uint())
	case FieldFloat:
		if fb.field.Quantized {
			return Quantize(fv.Float())
		}
		return fv.Float()
	case FieldBool:
		return fv.Bool()
	case FieldString, FieldEnum:
		return fv.String()
	case FieldItem:
		if fv.IsNil() {
			return nil
		}
		return fv.Interface().(*shape.Shape).Key()
	case FieldList:
		list := make([]any, fv.Len())
		for i := range list {
			list[i] = fb.elem.encode(fv.Index(i))
		}
		return list
	}
	return nil
}

func (b *binding) decode(doc map[string]any, v reflect.Value, items ItemDecoder) error {
	for name := range doc {
		if !slices.ContainsFunc(b.fields, func(fb fieldBinding) bool { return fb.field.Name == name }) {
			return SchemaError{TypeID: b.typeID, Field: name, Reason: "unknown field in document"}
		}
	}
	for _, fb := range b.fields {
		raw, ok := doc[fb.field.Name]
		if !ok {
			raw = fb.field.Default
			if raw == nil {
				continue
			}
		}
		if err := fb.assign(v.FieldByIndex(fb.index), raw, items); err != nil {
			return SchemaError{TypeID: b.typeID, Field: fb.field.Name, Reason: err.Error()}
		}
	}
	return nil
}

func (fb fieldBinding) assign(fv reflect.Value, raw any, items ItemDecoder) error {
	f := fb.field
	switch f.Kind {
	case FieldInt:
		n, ok := toInt64(raw)
		if !ok {
			return fmt.Errorf("want integer, got %T", raw)
		}
		if fv.CanInt() {
			if fv.OverflowInt(n) {
				return fmt.Errorf("%d overflows %s", n, fv.Type())
			}
			fv.SetInt(n)
			return nil
		}
		if n < 0 || fv.OverflowUint(uint64(n)) {
			return fmt.Errorf("%d does not fit %s", n, fv.Type())
		}
		fv.SetUint(uint64(n))
	case FieldFloat:
		x, ok := toFloat64(raw)
		if !ok {
			return fmt.Errorf("want number, got %T", raw)
		}
		if f.Quantized && !IsQuantized(x) {
			return UnquantizedTimeError{Time: x}
		}
		fv.SetFloat(x)
	case FieldBool:
		x, ok := raw.(bool)
		if !ok {
			return fmt.Errorf("want bool, got %T", raw)
		}
		fv.SetBool(x)
	case FieldString:
		x, ok := raw.(string)
		if !ok {
			return fmt.Errorf("want string, got %T", raw)
		}
		fv.SetString(x)
	case FieldEnum:
		x, ok := raw.(string)
		if !ok {
			return fmt.Errorf("want string, got %T", raw)
		}
		if !slices.Contains(f.Options, x) {
			return fmt.Errorf("%q is not one of %v", x, f.Options)
		}
		fv.SetString(x)
	case FieldItem:
		return assignItem(fv, raw, items)
	case FieldList:
		return fb.assignList(fv, raw, items)
	default:
		return fmt.Errorf("unsupported field kind %s", f.Kind)
	}
	return nil
}

func assignItem(fv reflect.Value, raw any, items ItemDecoder) error {
	switch x := raw.(type) {
	case nil:
		fv.Set(reflect.Zero(fv.Type()))
	case *shape.Shape:
		fv.Set(reflect.ValueOf(x))
	case shape.Shape:
		fv.Set(reflect.ValueOf(&x))
	case string:
		var (
			s   *shape.Shape
			err error
		)
		if items != nil {
			s, err = items(x)
		} else {
			var decoded shape.Shape
			decoded, err = shape.Decode(x)
			s = &decoded
		}
		if err != nil {
			return err
		}
		fv.Set(reflect.ValueOf(s))
	default:
		return fmt.Errorf("want item key or null, got %T", raw)
	}
	return nil
}

func (fb fieldBinding) assignList(fv reflect.Value, raw any, items ItemDecoder) error {
	var docs []map[string]any
	switch x := raw.(type) {
	case nil:
		fv.Set(reflect.Zero(fv.Type()))
		return nil
	case []map[string]any:
		docs = x
	case []any:
		docs = make([]map[string]any, len(x))
		for i, el := range x {
			doc, ok := el.(map[string]any)
			if !ok {
				return fmt.Errorf("list element %d: want object, got %T", i, el)
			}
			docs[i] = doc
		}
	default:
		return fmt.Errorf("want list, got %T", raw)
	}
	list := reflect.MakeSlice(fv.Type(), len(docs), len(docs))
	for i, doc := range docs {
		if err := fb.elem.decode(doc, list.Index(i), items); err != nil {
			return fmt.Errorf("list element %d: %w", i, err)
		}
	}
	fv.Set(list)
	return nil
}

func toInt64(raw any) (int64, bool) {
	switch x := raw.(type) {
	case int:
		return int64(x), true
	case int8:
		return int64(x), true
	case int16:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	case uint:
		return int64(x), true
	case uint8:
		return int64(x), true
	case uint16:
		return int64(x), true
	case uint32:
		return int64(x), true
	case uint64:
		if x > math.MaxInt64 {
			return 0, false
		}
		return int64(x), true
	case float64:
		if x != math.Trunc(x) || math.IsInf(x, 0) {
			return 0, false
		}
		return int64(x), true
	case json.Number:
		n, err := x.Int64()
		return n, err == nil
	}
	return 0, false
}

func toFloat64(raw any) (float64, bool) {
	switch x := raw.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	}
	if n, ok := toInt64(raw); ok {
		return float64(n), true
	}
	return 0, false
}
