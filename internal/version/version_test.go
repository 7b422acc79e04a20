package version

import (
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		version string
		want    *Version
		wantErr bool
	}{
		{
			name:    "basic version",
			version: "1.2.3",
			want:    &Version{Major: 1, Minor: 2, Patch: 3, parts: 3},
			wantErr: false,
		},
		{
			name:    "two-part version",
			version: "1.0",
			want:    &Version{Major: 1, parts: 2},
			wantErr: false,
		},
		{
			name:    "four-part version",
			version: "1.0.0.5",
			want:    &Version{Major: 1, Revision: 5, parts: 4},
			wantErr: false,
		},
		{
			name:    "version with pre-release",
			version: "1.2.3-alpha",
			want:    &Version{Major: 1, Minor: 2, Patch: 3, Pre: "alpha", parts: 3},
			wantErr: false,
		},
		{
			name:    "version with build",
			version: "1.2.3+build.1",
			want:    &Version{Major: 1, Minor: 2, Patch: 3, Build: "build.1", parts: 3},
			wantErr: false,
		},
		{
			name:    "version with pre-release and build",
			version: "1.2.3-beta.2+build.123",
			want:    &Version{Major: 1, Minor: 2, Patch: 3, Pre: "beta.2", Build: "build.123", parts: 3},
			wantErr: false,
		},
		{
			name:    "zero version",
			version: "0.0.0",
			want:    &Version{parts: 3},
			wantErr: false,
		},
		{
			name:    "empty string",
			version: "",
			wantErr: true,
		},
		{
			name:    "five parts",
			version: "1.2.3.4.5",
			wantErr: true,
		},
		{
			name:    "non-numeric component",
			version: "1.b.3",
			wantErr: true,
		},
		{
			name:    "negative major version",
			version: "-1.2.3",
			wantErr: true,
		},
		{
			name:    "trailing dot",
			version: "1.2.",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.version)
			if (err != nil) != tt.wantErr {
				t.Errorf("Parse() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr {
				if got.Major != tt.want.Major || got.Minor != tt.want.Minor ||
					got.Patch != tt.want.Patch || got.Revision != tt.want.Revision ||
					got.Pre != tt.want.Pre || got.Build != tt.want.Build {
					t.Errorf("Parse() = %+v, want %+v", got, tt.want)
				}
			}
		})
	}
}

func TestString(t *testing.T) {
	tests := []struct {
		version string
		want    string
	}{
		{"1.2.3", "1.2.3"},
		{"1.0", "1.0.0"},
		{"1.0.0.5", "1.0.0.5"},
		{"1.0.0.0", "1.0.0.0"},
		{"2.1.0-beta", "2.1.0-beta"},
		{"2.1.0-beta+exp.1", "2.1.0-beta+exp.1"},
	}

	for _, tt := range tests {
		got := MustParse(tt.version).String()
		if got != tt.want {
			t.Errorf("String(%q) = %q, want %q", tt.version, got, tt.want)
		}
	}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		name string
		v1   string
		v2   string
		want int
	}{
		{"equal versions", "1.2.3", "1.2.3", 0},
		{"major difference", "2.0.0", "1.9.9", 1},
		{"minor difference", "1.2.0", "1.3.0", -1},
		{"patch difference", "1.2.4", "1.2.3", 1},
		{"revision difference", "1.2.3.1", "1.2.3", 1},
		{"short form equals long form", "1.0", "1.0.0", 0},
		{"release beats pre-release", "1.0.0", "1.0.0-alpha", 1},
		{"pre-release below release", "1.0.0-rc.1", "1.0.0", -1},
		{"pre-release ordering", "1.0.0-alpha", "1.0.0-beta", -1},
		{"build metadata ignored", "1.0.0+a", "1.0.0+b", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MustParse(tt.v1).Compare(MustParse(tt.v2))
			if got != tt.want {
				t.Errorf("Compare(%s, %s) = %d, want %d", tt.v1, tt.v2, got, tt.want)
			}
		})
	}
}

func TestIsPrerelease(t *testing.T) {
	if MustParse("1.0.0").IsPrerelease() {
		t.Error("1.0.0 should not be a pre-release")
	}
	if !MustParse("1.0.0-alpha").IsPrerelease() {
		t.Error("1.0.0-alpha should be a pre-release")
	}
}

func TestCompareStrings(t *testing.T) {
	got, err := CompareStrings("2.0.0", "1.0.0")
	if err != nil || got != 1 {
		t.Errorf("CompareStrings(2.0.0, 1.0.0) = %d, %v; want 1, nil", got, err)
	}
	if _, err := CompareStrings("bogus", "1.0.0"); err == nil {
		t.Error("CompareStrings should fail on unparseable input")
	}
}
