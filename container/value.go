package container

import "time"

// ValueKind identifies the concrete type stored in a Value.
type ValueKind uint8

const (
	// KindInvalid represents an invalid kind.
	KindInvalid ValueKind = iota
	// KindString represents a string value.
	KindString
	// KindInt represents an integer value.
	KindInt
	// KindFloat represents a float value.
	KindFloat
	// KindBool represents a boolean value.
	KindBool
	// KindTime represents a date-time value (nanoseconds since epoch, UTC).
	KindTime
)

// Value is a small typed value used for section properties.
//
// The representation is a tagged union: no reflection and no fmt-based
// stringification on the hot path.
//
// NOTE: This is also used for persistence; keep it stable.
type Value struct {
	Kind ValueKind `json:"k"`
	S    string    `json:"s,omitempty"`
	I    int64     `json:"i,omitempty"`
	F    float64   `json:"f,omitempty"`
	B    bool      `json:"b,omitempty"`
}

// StringValue returns a Value holding a string.
func StringValue(s string) Value { return Value{Kind: KindString, S: s} }

// IntValue returns a Value holding an int64.
func IntValue(i int64) Value { return Value{Kind: KindInt, I: i} }

// FloatValue returns a Value holding a float64.
func FloatValue(f float64) Value { return Value{Kind: KindFloat, F: f} }

// BoolValue returns a Value holding a bool.
func BoolValue(b bool) Value { return Value{Kind: KindBool, B: b} }

// TimeValue returns a Value holding a date-time.
func TimeValue(t time.Time) Value { return Value{Kind: KindTime, I: t.UnixNano()} }

// Time returns the date-time held by a KindTime value.
func (v Value) Time() time.Time { return time.Unix(0, v.I).UTC() }

// Equal reports whether two values have the same kind and payload.
func (v Value) Equal(o Value) bool { return v == o }

// Any returns the Go value held by v (string, int64, float64, bool or
// time.Time), or nil for invalid values.
func (v Value) Any() any {
	switch v.Kind {
	case KindString:
		return v.S
	case KindInt:
		return v.I
	case KindFloat:
		return v.F
	case KindBool:
		return v.B
	case KindTime:
		return v.Time()
	default:
		return nil
	}
}

// ValuesEqual reports whether two value slices are element-wise equal.
func ValuesEqual(a, b []Value) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}
