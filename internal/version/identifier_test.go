package version

import (
	"sort"
	"testing"
)

func TestIdentifierHasVersionRange(t *testing.T) {
	tests := []struct {
		version string
		want    bool
	}{
		{"1.0.0", false},
		{"", false},
		{"[1.0.0,2.0.0)", true},
		{"(1.0.0,)", true},
		{"[1.0.0]", true},
	}

	for _, tt := range tests {
		id := NewIdentifier("Foo", tt.version)
		if got := id.HasVersionRange(); got != tt.want {
			t.Errorf("HasVersionRange(%q) = %v, want %v", tt.version, got, tt.want)
		}
	}
}

func TestIdentifierInRange(t *testing.T) {
	tests := []struct {
		name       string
		constraint string
		candidate  string
		want       bool
	}{
		{"exact match", "1.0.0", "1.0.0", true},
		{"exact mismatch", "1.0.0", "1.0.1", false},
		{"no constraint matches anything", "", "9.9.9", true},
		{"range includes interior", "[1.0.0,2.0.0)", "1.5.0", true},
		{"range excludes upper bound", "[1.0.0,2.0.0)", "2.0.0", false},
		{"range includes lower bound", "[1.0.0,2.0.0)", "1.0.0", true},
		{"unparseable constraint never matches", "not-a-version", "1.0.0", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := NewIdentifier("Foo", tt.constraint)
			if got := id.InRange(MustParse(tt.candidate)); got != tt.want {
				t.Errorf("InRange(%q, %q) = %v, want %v", tt.constraint, tt.candidate, got, tt.want)
			}
		})
	}
}

func TestIdentifierSameID(t *testing.T) {
	a := NewIdentifier("Newtonsoft.Json", "1.0.0")
	b := NewIdentifier("newtonsoft.json", "2.0.0")
	if !a.SameID(b) {
		t.Error("IDs should compare case-insensitively")
	}
	c := NewIdentifier("Other", "1.0.0")
	if a.SameID(c) {
		t.Error("distinct IDs should not match")
	}
}

func TestIdentifierOrdering(t *testing.T) {
	ids := []Identifier{
		NewIdentifier("zeta", "1.0.0"),
		NewIdentifier("Alpha", "1.0.0"),
		NewIdentifier("alpha", "2.0.0"),
		NewIdentifier("Beta", "1.0.0"),
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i].Compare(ids[j]) < 0 })

	want := []string{"alpha 2.0.0", "Alpha 1.0.0", "Beta 1.0.0", "zeta 1.0.0"}
	for i, w := range want {
		if ids[i].String() != w {
			t.Errorf("position %d = %q, want %q", i, ids[i].String(), w)
		}
	}
}
