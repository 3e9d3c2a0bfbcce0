package internal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
)

type SymptomKind uint8

const (
	SymptomBool SymptomKind = iota
	SymptomNumber
	SymptomText
)

// SymptomValue holds one caller-supplied symptom value: a flag, a score or a note.
type SymptomValue struct {
	Kind   SymptomKind
	Bool   bool
	Number float64
	Text   string
}

// Symptoms maps an arbitrary symptom name to its value.
type Symptoms map[string]SymptomValue

func BoolSymptom(b bool) SymptomValue { return SymptomValue{Kind: SymptomBool, Bool: b} }
func NumberSymptom(n float64) SymptomValue { return SymptomValue{Kind: SymptomNumber, Number: n} }
func TextSymptom(s string) SymptomValue { return SymptomValue{Kind: SymptomText, Text: s} }

// Present reports whether the symptom counts as experienced.
func (v SymptomValue) Present() bool {
	switch v.Kind {
	case SymptomBool:
		return v.Bool
	case SymptomNumber:
		return v.Number != 0
	case SymptomText:
		return v.Text != ""
	}
	return false
}

// Interface returns the plain Go value, used by document stores.
func (v SymptomValue) Interface() interface{} {
	switch v.Kind {
	case SymptomNumber:
		return v.Number
	case SymptomText:
		return v.Text
	}
	return v.Bool
}

// SymptomFromAny converts a decoded JSON/BSON scalar. nil becomes an absent flag.
func SymptomFromAny(x interface{}) (SymptomValue, error) {
	switch t := x.(type) {
	case nil:
		return BoolSymptom(false), nil
	case bool:
		return BoolSymptom(t), nil
	case string:
		return TextSymptom(t), nil
	case float64:
		return NumberSymptom(t), nil
	case float32:
		return NumberSymptom(float64(t)), nil
	case int:
		return NumberSymptom(float64(t)), nil
	case int32:
		return NumberSymptom(float64(t)), nil
	case int64:
		return NumberSymptom(float64(t)), nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return SymptomValue{}, err
		}
		return NumberSymptom(f), nil
	}
	return SymptomValue{}, fmt.Errorf("unsupported symptom value of type %T", x)
}

func (v SymptomValue) MarshalJSON() ([]byte, error) {
	if v.Kind == SymptomNumber && (math.IsNaN(v.Number) || math.IsInf(v.Number, 0)) {
		return nil, fmt.Errorf("symptom value %v is not representable", v.Number)
	}
	return json.Marshal(v.Interface())
}

func (v *SymptomValue) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw interface{}
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	parsed, err := SymptomFromAny(raw)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// ToMap flattens the symptoms for storage backends that keep untyped documents.
func (s Symptoms) ToMap() map[string]interface{} {
	out := make(map[string]interface{}, len(s))
	for k, v := range s {
		out[k] = v.Interface()
	}
	return out
}

func SymptomsFromMap(m map[string]interface{}) (Symptoms, error) {
	out := make(Symptoms, len(m))
	for k, raw := range m {
		v, err := SymptomFromAny(raw)
		if err != nil {
			return nil, fmt.Errorf("symptom %q: %w", k, err)
		}
		out[k] = v
	}
	return out, nil
}
