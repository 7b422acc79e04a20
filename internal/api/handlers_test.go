package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"nufeed/internal/db"
	"nufeed/internal/feed"
)

// Handlers that hit Postgres are covered by integration tests against a real
// database; these tests cover the pure pieces.

func TestWriteJSON(t *testing.T) {
	w := httptest.NewRecorder()
	writeJSON(w, http.StatusCreated, map[string]string{"id": "123"})

	if w.Code != http.StatusCreated {
		t.Errorf("status = %d, want %d", w.Code, http.StatusCreated)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	var result map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Errorf("response is not valid JSON: %v", err)
	}
}

func TestWriteError(t *testing.T) {
	w := httptest.NewRecorder()
	writeError(w, http.StatusNotFound, "resource not found")

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
	var errorResponse map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &errorResponse); err != nil {
		t.Fatalf("response is not valid JSON: %v", err)
	}
	if errorResponse["error"] != "resource not found" {
		t.Errorf("error message = %v", errorResponse["error"])
	}
}

func TestParsePackagesArgs(t *testing.T) {
	tests := []struct {
		name      string
		args      string
		wantID    string
		wantVer   string
		expectErr bool
	}{
		{
			name:    "well-formed",
			args:    "Id='Foo.Bar',Version='1.0.0'",
			wantID:  "Foo.Bar",
			wantVer: "1.0.0",
		},
		{
			name:    "reversed order with spaces",
			args:    "Version='2.0.0-beta', Id='Foo'",
			wantID:  "Foo",
			wantVer: "2.0.0-beta",
		},
		{
			name:      "missing version",
			args:      "Id='Foo'",
			expectErr: true,
		},
		{
			name:      "unknown argument",
			args:      "Id='Foo',Version='1.0.0',Extra='x'",
			expectErr: true,
		},
		{
			name:      "malformed",
			args:      "garbage",
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ver, err := parsePackagesArgs(tt.args)
			if tt.expectErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if id != tt.wantID || ver != tt.wantVer {
				t.Errorf("got (%q, %q), want (%q, %q)", id, ver, tt.wantID, tt.wantVer)
			}
		})
	}
}

func TestSplitPipeList(t *testing.T) {
	if got := splitPipeList(""); got != nil {
		t.Errorf("empty input = %v, want nil", got)
	}
	got := splitPipeList("Foo|Bar||Baz")
	want := []string{"Foo", "Bar", "Baz"}
	if len(got) != len(want) {
		t.Fatalf("got %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got %v, want %v", got, want)
			break
		}
	}
}

func TestSortRows(t *testing.T) {
	rows := []db.CatalogRow{
		{Name: "beta", Version: "1.0.0"},
		{Name: "Alpha", Version: "1.0.0"},
		{Name: "Alpha", Version: "2.0.0"},
	}
	sortRows(rows)

	if rows[0].Name != "Alpha" || rows[0].Version != "2.0.0" {
		t.Errorf("rows[0] = %s %s", rows[0].Name, rows[0].Version)
	}
	if rows[1].Name != "Alpha" || rows[1].Version != "1.0.0" {
		t.Errorf("rows[1] = %s %s", rows[1].Name, rows[1].Version)
	}
	if rows[2].Name != "beta" {
		t.Errorf("rows[2] = %s", rows[2].Name)
	}
}

func TestLatestPerName(t *testing.T) {
	rows := []db.CatalogRow{
		{Name: "Foo", Version: "1.0.0"},
		{Name: "Bar", Version: "3.0.0"},
		{Name: "foo", Version: "2.0.0"},
	}
	got := latestPerName(rows)

	if len(got) != 2 {
		t.Fatalf("got %d rows, want 2", len(got))
	}
	// First-appearance order is kept, highest version wins per name
	if got[0].Version != "2.0.0" || got[1].Name != "Bar" {
		t.Errorf("got %v", got)
	}
}

func TestDropPrerelease(t *testing.T) {
	rows := []db.CatalogRow{
		{Name: "Foo", Version: "1.0.0"},
		{Name: "Foo", Version: "2.0.0-beta", IsPrerelease: true},
	}

	if got := dropPrerelease(rows, false); len(got) != 1 || got[0].Version != "1.0.0" {
		t.Errorf("stable-only = %v", got)
	}
	if got := dropPrerelease(rows, true); len(got) != 2 {
		t.Errorf("with prerelease = %v", got)
	}
}

func TestToEntryRendersParseableAtom(t *testing.T) {
	desc := "A test package"
	deps := "Dep:[1.0.0,):net48"
	row := db.CatalogRow{
		Name:          "Foo",
		Version:       "1.2.0",
		Description:   &desc,
		Dependencies:  &deps,
		IsPrerelease:  false,
		DownloadCount: 42,
	}

	r := httptest.NewRequest("GET", "http://feed.example.com/v2/Search()", nil)
	s := &Server{}
	w := httptest.NewRecorder()
	s.writeFeed(w, r, []db.CatalogRow{row})

	entries, err := feed.Parse(w.Body.Bytes())
	if err != nil {
		t.Fatalf("rendered feed does not parse: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries", len(entries))
	}

	e := entries[0]
	if e.PackageID() != "Foo" || e.Properties.Version != "1.2.0" {
		t.Errorf("entry identity = %s %s", e.PackageID(), e.Properties.Version)
	}
	if e.DownloadURL() != "http://feed.example.com/v2/package/Foo/1.2.0" {
		t.Errorf("download URL = %q", e.DownloadURL())
	}
	if len(e.Dependencies()) != 1 || e.Dependencies()[0].ID != "Dep" {
		t.Errorf("dependencies = %v", e.Dependencies())
	}
}
