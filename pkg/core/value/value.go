package value

import (
	"math"
	"strconv"
)

// Type represents the tag in the Value tagged union.
type Type uint8

const (
	TypeVoid Type = iota
	TypeNumber
	TypeWord
)

// Value is what evaluating an argument token yields: either a number read
// from the variable table or the token's literal text.
type Value struct {
	Type Type
	Num  float64
	Text string
}

// Number wraps a variable value.
func Number(f float64) Value {
	return Value{Type: TypeNumber, Num: f}
}

// Word wraps literal token text.
func Word(s string) Value {
	return Value{Type: TypeWord, Text: s}
}

// Float converts the value to a number. Words convert only when they are
// numeric literals; anything else reports ok=false.
func (v Value) Float() (float64, bool) {
	switch v.Type {
	case TypeNumber:
		return v.Num, !math.IsNaN(v.Num)
	case TypeWord:
		if v.Text == "" || v.Text[0] < '0' || v.Text[0] > '9' {
			return 0, false
		}
		f, err := strconv.ParseFloat(v.Text, 64)
		if err != nil || math.IsNaN(f) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// Int converts the value to an integer count, truncating any fraction.
// Magnitudes past the int range saturate.
func (v Value) Int() (int, bool) {
	f, ok := v.Float()
	if !ok || math.IsInf(f, 0) {
		return 0, false
	}
	switch {
	case f >= math.MaxInt:
		return math.MaxInt, true
	case f <= math.MinInt:
		return math.MinInt, true
	}
	return int(f), true
}

func (v Value) String() string {
	switch v.Type {
	case TypeNumber:
		return strconv.FormatFloat(v.Num, 'g', -1, 64)
	case TypeWord:
		return v.Text
	default:
		return ""
	}
}
