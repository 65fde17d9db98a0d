package value

import (
	"math"
	"testing"
)

func TestFloat(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		want float64
		ok   bool
	}{
		{"Number", Number(5), 5, true},
		{"NaNNumber", Number(math.NaN()), 0, false},
		{"IntegerWord", Word("100"), 100, true},
		{"DecimalWord", Word("2.5"), 2.5, true},
		{"Identifier", Word("red"), 0, false},
		{"Infinity", Word("Inf"), 0, false},
		{"NaNWord", Word("NaN"), 0, false},
		{"Bracket", Word("["), 0, false},
		{"Empty", Word(""), 0, false},
		{"Void", Value{}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.v.Float()
			if ok != tt.ok || (ok && got != tt.want) {
				t.Errorf("expected (%v, %v), got (%v, %v)", tt.want, tt.ok, got, ok)
			}
		})
	}
}

func TestInt(t *testing.T) {
	tests := []struct {
		v    Value
		want int
		ok   bool
	}{
		{Word("4"), 4, true},
		{Word("2.9"), 2, true},
		{Number(3.7), 3, true},
		{Number(-1.5), -1, true},
		{Number(5e9), 5_000_000_000, true},
		{Word("3000000000"), 3_000_000_000, true},
		{Number(1e20), math.MaxInt, true},
		{Number(-1e20), math.MinInt, true},
		{Number(math.Inf(1)), 0, false},
		{Word("four"), 0, false},
	}

	for _, tt := range tests {
		got, ok := tt.v.Int()
		if ok != tt.ok || got != tt.want {
			t.Errorf("%v: expected (%d, %v), got (%d, %v)", tt.v, tt.want, tt.ok, got, ok)
		}
	}
}

func TestString(t *testing.T) {
	if s := Number(2.5).String(); s != "2.5" {
		t.Errorf("expected 2.5, got %s", s)
	}
	if s := Word("blue").String(); s != "blue" {
		t.Errorf("expected blue, got %s", s)
	}
	if s := (Value{}).String(); s != "" {
		t.Errorf("expected empty, got %s", s)
	}
}
