package devicedata

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
)

// ValueKind discriminates the dynamic type carried by a Value.
type ValueKind int

const (
	KindInt ValueKind = iota
	KindFloat
	KindString
	KindBool
	KindObject
)

// Value is a telemetry reading. Device payloads carry numbers, strings,
// booleans or JSON objects and the stored kind must survive a round
// trip, so integral numbers stay integers instead of widening to
// float64.
type Value struct {
	Kind   ValueKind
	Int    int64
	Float  float64
	Str    string
	Bool   bool
	Object map[string]any
}

func IntValue(v int64) Value { return Value{Kind: KindInt, Int: v} }

func FloatValue(v float64) Value { return Value{Kind: KindFloat, Float: v} }

func StringValue(v string) Value { return Value{Kind: KindString, Str: v} }

func BoolValue(v bool) Value { return Value{Kind: KindBool, Bool: v} }

func ObjectValue(v map[string]any) Value { return Value{Kind: KindObject, Object: v} }

// Float64 reports the numeric magnitude of the value and whether it is
// numeric at all.
func (v Value) Float64() (float64, bool) {
	switch v.Kind {
	case KindInt:
		return float64(v.Int), true
	case KindFloat:
		return v.Float, true
	default:
		return 0, false
	}
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindInt:
		return []byte(strconv.FormatInt(v.Int, 10)), nil
	case KindFloat:
		return json.Marshal(v.Float)
	case KindString:
		return json.Marshal(v.Str)
	case KindBool:
		return json.Marshal(v.Bool)
	case KindObject:
		if v.Object == nil {
			return []byte("{}"), nil
		}
		return json.Marshal(v.Object)
	default:
		return nil, errors.New("device data: unknown value kind")
	}
}

func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return errors.New("device data: empty value")
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = StringValue(s)
		return nil
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		*v = BoolValue(b)
		return nil
	case '{':
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		var m map[string]any
		if err := dec.Decode(&m); err != nil {
			return err
		}
		*v = ObjectValue(m)
		return nil
	case 'n':
		return errors.New("device data: null value is not allowed")
	case '[':
		return errors.New("device data: array values are not supported")
	default:
		raw := string(data)
		if !strings.ContainsAny(raw, ".eE") {
			i, err := strconv.ParseInt(raw, 10, 64)
			if err == nil {
				*v = IntValue(i)
				return nil
			}
		}
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return errors.New("device data: invalid numeric value")
		}
		*v = FloatValue(f)
		return nil
	}
}
