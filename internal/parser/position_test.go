package parser

import "testing"

func TestRange_ContainsPosition(t *testing.T) {
	r := NewRange(2, 4, 5, 10)

	tests := []struct {
		name     string
		pos      Position
		expected bool
	}{
		{"before start line", Position{Line: 1, Character: 20}, false},
		{"at start", Position{Line: 2, Character: 4}, true},
		{"before start character", Position{Line: 2, Character: 3}, false},
		{"middle line", Position{Line: 3, Character: 0}, true},
		{"at end", Position{Line: 5, Character: 10}, true},
		{"past end character", Position{Line: 5, Character: 11}, false},
		{"past end line", Position{Line: 6, Character: 0}, false},
	}

	for _, test := range tests {
		if got := r.ContainsPosition(test.pos); got != test.expected {
			t.Errorf("%s: expected %v, got %v", test.name, test.expected, got)
		}
	}
}

func TestRange_ContainsPosition_SingleLine(t *testing.T) {
	r := NewRange(1, 6, 1, 15)

	if !r.ContainsPosition(Position{Line: 1, Character: 6}) {
		t.Error("start boundary must be inside")
	}
	if !r.ContainsPosition(Position{Line: 1, Character: 15}) {
		t.Error("end boundary must be inside")
	}
	if r.ContainsPosition(Position{Line: 1, Character: 5}) {
		t.Error("character before the range must be outside")
	}
	if r.ContainsPosition(Position{Line: 1, Character: 16}) {
		t.Error("character after the range must be outside")
	}
}

func TestPosition_Before(t *testing.T) {
	tests := []struct {
		name     string
		a, b     Position
		expected bool
	}{
		{"earlier line", Position{Line: 1, Character: 9}, Position{Line: 2, Character: 0}, true},
		{"same line earlier character", Position{Line: 3, Character: 2}, Position{Line: 3, Character: 5}, true},
		{"equal", Position{Line: 3, Character: 2}, Position{Line: 3, Character: 2}, false},
		{"later", Position{Line: 4, Character: 0}, Position{Line: 3, Character: 9}, false},
	}

	for _, test := range tests {
		if got := test.a.Before(test.b); got != test.expected {
			t.Errorf("%s: expected %v, got %v", test.name, test.expected, got)
		}
	}
}

func TestRange_ContainsLine(t *testing.T) {
	r := NewRange(3, 0, 6, 8)

	for line, expected := range map[int]bool{2: false, 3: true, 6: true, 7: false} {
		if got := r.ContainsLine(line); got != expected {
			t.Errorf("line %d: expected %v, got %v", line, expected, got)
		}
	}
}
