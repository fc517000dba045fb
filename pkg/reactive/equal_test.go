package reactive

import (
	"math"
	"testing"
)

func TestIdentical(t *testing.T) {
	s := []any{1}
	m := map[string]any{}
	obj := NewObject(nil)

	cases := []struct {
		name string
		a, b any
		want bool
	}{
		{"ints equal", 1, 1, true},
		{"ints differ", 1, 2, false},
		{"int vs float", 1, 1.0, false},
		{"strings", "a", "a", true},
		{"nils", nil, nil, true},
		{"nil vs value", nil, 0, false},
		{"same slice", s, s, true},
		{"distinct slices", []any{1}, []any{1}, false},
		{"same map", m, m, true},
		{"distinct maps", map[string]any{}, map[string]any{}, false},
		{"same container", obj, obj, true},
		{"distinct containers", NewObject(nil), NewObject(nil), false},
		{"NaN vs NaN", math.NaN(), math.NaN(), false},
	}

	for _, tc := range cases {
		if got := identical(tc.a, tc.b); got != tc.want {
			t.Errorf("%s: identical=%v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestSameValueNaNException(t *testing.T) {
	if !sameValue(math.NaN(), math.NaN()) {
		t.Error("two NaNs must count as the same value on the write path")
	}
	if sameValue(math.NaN(), 1.0) {
		t.Error("NaN vs 1.0 must differ")
	}
	if sameValue(float32(math.NaN()), float32(math.NaN())) != true {
		t.Error("float32 NaNs must count as the same value")
	}
}
