package nixstore

import (
	"sort"
	"strings"
	"time"

	"github.com/neurokit/nixstore/container"
	"github.com/neurokit/nixstore/model"
)

// The attribute codec splits object fields into declared simple attributes
// (a closed per-kind table, mirrored below) and free-form annotations, and
// maps both onto typed section properties. Quantities occupy two sibling
// properties: <name> and <name>__unit.

const unitSuffix = "__unit"

// defaultSimpleAttrs are simple on every kind.
var defaultSimpleAttrs = []string{"description", "file_origin"}

type kindSpec struct {
	simple     []string // simple attrs beyond the defaults
	quantities []string // quantity attrs persisted as <name>/<name>__unit pairs
}

var kindSpecs = map[model.Kind]kindSpec{
	model.KindRecording:           {simple: []string{"file_datetime", "rec_datetime", "index"}},
	model.KindSegment:             {simple: []string{"file_datetime", "rec_datetime", "index"}},
	model.KindChannelGroup:        {simple: []string{"name", "channel_indexes", "channel_names"}},
	model.KindUnit:                {},
	model.KindTimeSeries:          {simple: []string{"name"}, quantities: []string{"t_start"}},
	model.KindIrregularTimeSeries: {simple: []string{"name"}},
	model.KindSpikeTrain:          {simple: []string{"name"}, quantities: []string{"t_start", "t_stop", "left_sweep"}},
	model.KindEventSet:            {simple: []string{"name"}},
	model.KindIntervalSet:         {simple: []string{"name"}},
}

// isSimpleAttr reports whether a persisted property name belongs to the
// kind's declared simple set (including quantity pairs). Everything else is
// an annotation.
func isSimpleAttr(kind model.Kind, name string) bool {
	base := strings.TrimSuffix(name, unitSuffix)
	for _, a := range defaultSimpleAttrs {
		if name == a {
			return true
		}
	}
	spec := kindSpecs[kind]
	for _, a := range spec.simple {
		if name == a {
			return true
		}
	}
	for _, a := range spec.quantities {
		if base == a {
			return true
		}
	}
	return false
}

// encodeValues converts a Go attribute value into typed property values.
// Scalars become single-valued properties, flat slices become multi-valued
// ones. Unsupported types fail with CodecMismatchError.
func encodeValues(attr string, v any) ([]container.Value, error) {
	switch t := v.(type) {
	case string:
		return []container.Value{container.StringValue(t)}, nil
	case int:
		return []container.Value{container.IntValue(int64(t))}, nil
	case int64:
		return []container.Value{container.IntValue(t)}, nil
	case float64:
		return []container.Value{container.FloatValue(t)}, nil
	case bool:
		return []container.Value{container.BoolValue(t)}, nil
	case time.Time:
		return []container.Value{container.TimeValue(t)}, nil
	case []string:
		out := make([]container.Value, len(t))
		for i, s := range t {
			out[i] = container.StringValue(s)
		}
		return out, nil
	case []int64:
		out := make([]container.Value, len(t))
		for i, n := range t {
			out[i] = container.IntValue(n)
		}
		return out, nil
	case []int:
		out := make([]container.Value, len(t))
		for i, n := range t {
			out[i] = container.IntValue(int64(n))
		}
		return out, nil
	case []float64:
		out := make([]container.Value, len(t))
		for i, f := range t {
			out[i] = container.FloatValue(f)
		}
		return out, nil
	case []bool:
		out := make([]container.Value, len(t))
		for i, b := range t {
			out[i] = container.BoolValue(b)
		}
		return out, nil
	default:
		return nil, &CodecMismatchError{Attr: attr, Value: v}
	}
}

// decodeValues converts a property back into a Go value: single-valued
// properties become scalars, multi-valued ones typed slices.
func decodeValues(p *container.Property) any {
	if len(p.Values) == 0 {
		return []any{}
	}
	if len(p.Values) == 1 {
		return p.Values[0].Any()
	}
	homogeneous := true
	for _, v := range p.Values[1:] {
		if v.Kind != p.Values[0].Kind {
			homogeneous = false
			break
		}
	}
	if !homogeneous {
		out := make([]any, len(p.Values))
		for i, v := range p.Values {
			out[i] = v.Any()
		}
		return out
	}
	switch p.Values[0].Kind {
	case container.KindString:
		out := make([]string, len(p.Values))
		for i, v := range p.Values {
			out[i] = v.S
		}
		return out
	case container.KindInt:
		out := make([]int64, len(p.Values))
		for i, v := range p.Values {
			out[i] = v.I
		}
		return out
	case container.KindFloat:
		out := make([]float64, len(p.Values))
		for i, v := range p.Values {
			out[i] = v.F
		}
		return out
	case container.KindBool:
		out := make([]bool, len(p.Values))
		for i, v := range p.Values {
			out[i] = v.B
		}
		return out
	default:
		out := make([]any, len(p.Values))
		for i, v := range p.Values {
			out[i] = v.Any()
		}
		return out
	}
}

// flattenQuantities expands Quantity attribute values into <name> and
// <name>__unit sibling entries, leaving everything else untouched.
func flattenQuantities(attrs map[string]any) map[string]any {
	out := make(map[string]any, len(attrs))
	for name, v := range attrs {
		switch q := v.(type) {
		case model.Quantity:
			out[name] = q.Value
			out[name+unitSuffix] = q.Unit
		case *model.Quantity:
			if q != nil {
				out[name] = q.Value
				out[name+unitSuffix] = q.Unit
			}
		default:
			out[name] = v
		}
	}
	return out
}

// writeMetadata persists the attribute map into the section. Writes are
// idempotent: a property already holding the same values is left untouched.
// Nil values are skipped.
func writeMetadata(sec *container.Section, attrs map[string]any) error {
	flat := flattenQuantities(attrs)

	names := make([]string, 0, len(flat))
	for name := range flat {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		v := flat[name]
		if v == nil {
			continue
		}
		values, err := encodeValues(name, v)
		if err != nil {
			return err
		}
		if existing, ok := sec.Prop(name); ok && container.ValuesEqual(existing.Values, values) {
			continue
		}
		sec.SetProp(name, values)
	}
	return nil
}

// readQuantity reconstructs a quantity from its <name>/<name>__unit property
// pair. The bool result reports whether the value property exists; a value
// without its companion unit fails with MissingUnitError.
func readQuantity(sec *container.Section, name string) (model.Quantity, bool, error) {
	p, ok := sec.Prop(name)
	if !ok || len(p.Values) == 0 {
		return model.Quantity{}, false, nil
	}
	var value float64
	switch p.Values[0].Kind {
	case container.KindFloat:
		value = p.Values[0].F
	case container.KindInt:
		value = float64(p.Values[0].I)
	default:
		return model.Quantity{}, false, &CodecMismatchError{Attr: name, Value: p.Values[0].Any()}
	}
	up, ok := sec.Prop(name + unitSuffix)
	if !ok || len(up.Values) == 0 || up.Values[0].Kind != container.KindString {
		return model.Quantity{}, false, &MissingUnitError{Attr: name}
	}
	return model.Quantity{Value: value, Unit: up.Values[0].S}, true, nil
}

// readAnnotations classifies every persisted property outside the kind's
// simple set as an annotation, reassembling quantity pairs.
func readAnnotations(sec *container.Section, kind model.Kind) model.Annotations {
	ann := model.Annotations{}
	if sec == nil {
		return ann
	}
	props := sec.Props().Items()
	byName := make(map[string]*container.Property, len(props))
	for _, p := range props {
		byName[p.Name] = p
	}
	for _, p := range props {
		if isSimpleAttr(kind, p.Name) {
			continue
		}
		if strings.HasSuffix(p.Name, unitSuffix) {
			// Companion of a quantity pair; consumed with its value.
			if _, ok := byName[strings.TrimSuffix(p.Name, unitSuffix)]; ok {
				continue
			}
		}
		if up, ok := byName[p.Name+unitSuffix]; ok && len(p.Values) == 1 && len(up.Values) == 1 &&
			(p.Values[0].Kind == container.KindFloat || p.Values[0].Kind == container.KindInt) &&
			up.Values[0].Kind == container.KindString {
			var value float64
			if p.Values[0].Kind == container.KindFloat {
				value = p.Values[0].F
			} else {
				value = float64(p.Values[0].I)
			}
			ann[p.Name] = model.Quantity{Value: value, Unit: up.Values[0].S}
			continue
		}
		ann[p.Name] = decodeValues(p)
	}
	return ann
}

// Typed scalar accessors used by the readers.

func getString(sec *container.Section, name string) (string, bool) {
	if sec == nil {
		return "", false
	}
	if p, ok := sec.Prop(name); ok && len(p.Values) == 1 && p.Values[0].Kind == container.KindString {
		return p.Values[0].S, true
	}
	return "", false
}

func getInt(sec *container.Section, name string) (int64, bool) {
	if sec == nil {
		return 0, false
	}
	if p, ok := sec.Prop(name); ok && len(p.Values) == 1 && p.Values[0].Kind == container.KindInt {
		return p.Values[0].I, true
	}
	return 0, false
}

func getTime(sec *container.Section, name string) (time.Time, bool) {
	if sec == nil {
		return time.Time{}, false
	}
	if p, ok := sec.Prop(name); ok && len(p.Values) == 1 && p.Values[0].Kind == container.KindTime {
		return p.Values[0].Time(), true
	}
	return time.Time{}, false
}

func getStrings(sec *container.Section, name string) []string {
	if sec == nil {
		return nil
	}
	p, ok := sec.Prop(name)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(p.Values))
	for _, v := range p.Values {
		if v.Kind == container.KindString {
			out = append(out, v.S)
		}
	}
	return out
}

func getInts(sec *container.Section, name string) []int64 {
	if sec == nil {
		return nil
	}
	p, ok := sec.Prop(name)
	if !ok {
		return nil
	}
	out := make([]int64, 0, len(p.Values))
	for _, v := range p.Values {
		if v.Kind == container.KindInt {
			out = append(out, v.I)
		}
	}
	return out
}
