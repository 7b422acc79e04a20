package source

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"nufeed/internal/feed"
	"nufeed/internal/transport"
	"nufeed/internal/version"
)

// fakeFeed is an in-process OData v2 feed for remote-source tests
type fakeFeed struct {
	packages       map[string][]string // id -> versions
	disableUpdates bool                // emulate a feed without the GetUpdates endpoint
	failFind       bool                // emulate a broken FindPackagesById endpoint
	updateCalls    atomic.Int32
	findCalls      atomic.Int32

	server *httptest.Server
}

func newFakeFeed(packages map[string][]string) *fakeFeed {
	f := &fakeFeed{packages: packages}
	f.server = httptest.NewServer(http.HandlerFunc(f.handle))
	return f
}

func (f *fakeFeed) entry(id, ver string) feed.Entry {
	return feed.Entry{
		Title: id,
		Content: feed.Content{
			Type: "application/zip",
			Src:  fmt.Sprintf("%s/package/%s/%s", f.server.URL, id, ver),
		},
		Properties: feed.Properties{
			Version:      ver,
			IsPrerelease: version.MustParse(ver).IsPrerelease(),
		},
	}
}

func (f *fakeFeed) writeFeed(w http.ResponseWriter, entries []feed.Entry) {
	doc := feed.Document{Title: "Packages", Entries: entries}
	w.Header().Set("Content-Type", "application/atom+xml")
	data, _ := xml.Marshal(doc)
	w.Write(data)
}

func unquote(s string) string {
	return strings.Trim(s, "'")
}

func (f *fakeFeed) handle(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	switch {
	case strings.HasSuffix(r.URL.Path, "/FindPackagesById()"):
		f.findCalls.Add(1)
		if f.failFind {
			http.Error(w, "boom", http.StatusBadRequest)
			return
		}
		id := unquote(q.Get("id"))
		var entries []feed.Entry
		for _, ver := range f.packages[id] {
			if filter := q.Get("$filter"); filter != "" && filter != fmt.Sprintf("Version eq '%s'", ver) {
				continue
			}
			entries = append(entries, f.entry(id, ver))
		}
		f.writeFeed(w, entries)

	case strings.HasSuffix(r.URL.Path, "/Search()"):
		term := unquote(q.Get("searchTerm"))
		var entries []feed.Entry
		for id, vers := range f.packages {
			if term != "" && !strings.Contains(strings.ToLower(id), strings.ToLower(term)) {
				continue
			}
			// Latest-only unless every version was asked for
			if q.Get("$filter") != "" {
				entries = append(entries, f.entry(id, vers[len(vers)-1]))
				continue
			}
			for _, ver := range vers {
				entries = append(entries, f.entry(id, ver))
			}
		}
		f.writeFeed(w, entries)

	case strings.HasSuffix(r.URL.Path, "/GetUpdates()"):
		f.updateCalls.Add(1)
		if f.disableUpdates {
			http.NotFound(w, r)
			return
		}
		ids := strings.Split(unquote(q.Get("packageIds")), "|")
		vers := strings.Split(unquote(q.Get("versions")), "|")
		var entries []feed.Entry
		for i, id := range ids {
			if i >= len(vers) {
				break
			}
			current := version.MustParse(vers[i])
			for _, candidate := range f.packages[id] {
				if version.MustParse(candidate).IsGreaterThan(current) {
					entries = append(entries, f.entry(id, candidate))
				}
			}
		}
		f.writeFeed(w, entries)

	case strings.Contains(r.URL.Path, "/Packages(Id="):
		// Path form: /Packages(Id='X',Version='Y')
		inner := r.URL.Path[strings.Index(r.URL.Path, "(")+1 : strings.LastIndex(r.URL.Path, ")")]
		var id, ver string
		for _, part := range strings.Split(inner, ",") {
			k, v, _ := strings.Cut(part, "=")
			switch k {
			case "Id":
				id = unquote(v)
			case "Version":
				ver = unquote(v)
			}
		}
		for _, candidate := range f.packages[id] {
			if candidate == ver {
				w.Header().Set("Content-Type", "application/atom+xml")
				data, _ := xml.Marshal(f.entry(id, ver))
				w.Write(data)
				return
			}
		}
		http.NotFound(w, r)

	case strings.Contains(r.URL.Path, "/package/"):
		w.Write([]byte("archive-bytes"))

	default:
		http.NotFound(w, r)
	}
}

func newRemoteForTest(t *testing.T, f *fakeFeed) *RemoteSource {
	t.Helper()
	t.Cleanup(f.server.Close)
	return NewRemote(
		Config{Name: "test-feed", SavedPath: f.server.URL + "/api/v2", IsEnabled: true},
		transport.NewHTTPFetcher(),
		nil,
	)
}

func TestRemoteFindExactVersion(t *testing.T) {
	f := newFakeFeed(map[string][]string{"Foo": {"1.0.0", "2.0.0"}})
	s := newRemoteForTest(t, f)

	pkgs := s.FindPackagesByID(version.NewIdentifier("Foo", "1.0.0"))
	if len(pkgs) != 1 || pkgs[0].Version != "1.0.0" {
		t.Fatalf("got %v, want exactly Foo 1.0.0", pkgs)
	}
	if pkgs[0].SourceName != "test-feed" {
		t.Errorf("SourceName = %q", pkgs[0].SourceName)
	}
}

func TestRemoteFindByRange(t *testing.T) {
	f := newFakeFeed(map[string][]string{"Baz": {"1.0.0", "1.5.0", "2.0.0"}})
	s := newRemoteForTest(t, f)

	pkgs := s.FindPackagesByID(version.NewIdentifier("Baz", "[1.0.0,2.0.0)"))
	if len(pkgs) != 2 {
		t.Fatalf("got %d packages, want {1.5.0, 1.0.0}", len(pkgs))
	}
	if pkgs[0].Version != "1.5.0" || pkgs[1].Version != "1.0.0" {
		t.Errorf("got %s, %s; want 1.5.0, 1.0.0", pkgs[0].Version, pkgs[1].Version)
	}
}

func TestRemoteFindDegradesOnTransportFailure(t *testing.T) {
	f := newFakeFeed(map[string][]string{"Foo": {"1.0.0"}})
	f.failFind = true
	s := newRemoteForTest(t, f)

	if pkgs := s.FindPackagesByID(version.NewIdentifier("Foo", "")); len(pkgs) != 0 {
		t.Errorf("transport failure should degrade to empty, got %d", len(pkgs))
	}
}

func TestRemoteGetSpecificPackage(t *testing.T) {
	f := newFakeFeed(map[string][]string{"Foo": {"1.0.0", "2.0.0"}})
	s := newRemoteForTest(t, f)

	pkg := s.GetSpecificPackage(version.NewIdentifier("Foo", "2.0.0"))
	if pkg == nil || pkg.Version != "2.0.0" {
		t.Errorf("exact lookup = %+v", pkg)
	}

	if s.GetSpecificPackage(version.NewIdentifier("Foo", "9.9.9")) != nil {
		t.Error("missing version should resolve to nil, not an error")
	}

	// Range delegates to FindPackagesByID and takes the lowest match
	pkg = s.GetSpecificPackage(version.NewIdentifier("Foo", "[1.0.0,)"))
	if pkg == nil || pkg.Version != "1.0.0" {
		t.Errorf("range lookup = %+v, want 1.0.0", pkg)
	}
}

func TestRemoteSearch(t *testing.T) {
	f := newFakeFeed(map[string][]string{
		"Json.Tool": {"1.0.0", "2.0.0"},
		"Logger":    {"1.0.0"},
	})
	s := newRemoteForTest(t, f)

	pkgs, err := s.Search(context.Background(), SearchOptions{Term: "json", PageSize: 30})
	if err != nil {
		t.Fatal(err)
	}
	if len(pkgs) != 1 || pkgs[0].ID != "Json.Tool" || pkgs[0].Version != "2.0.0" {
		t.Errorf("search = %v", pkgs)
	}
}

func TestRemoteSearchCancellation(t *testing.T) {
	f := newFakeFeed(map[string][]string{"Foo": {"1.0.0"}})
	s := newRemoteForTest(t, f)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := s.Search(ctx, SearchOptions{Term: "foo"}); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestRemoteGetUpdatesBatched(t *testing.T) {
	f := newFakeFeed(map[string][]string{
		"Foo": {"1.0.0", "2.0.0", "3.0.0"},
		"Bar": {"1.0.0"},
	})
	s := newRemoteForTest(t, f)

	installed := []version.Identifier{
		version.NewIdentifier("Foo", "1.0.0"),
		version.NewIdentifier("Bar", "1.0.0"),
	}

	updates := s.GetUpdates(installed, UpdateOptions{})
	if len(updates) != 1 {
		t.Fatalf("got %d updates, want best Foo only", len(updates))
	}
	if updates[0].ID != "Foo" || updates[0].Version != "3.0.0" {
		t.Errorf("update = %s %s, want Foo 3.0.0", updates[0].ID, updates[0].Version)
	}

	all := s.GetUpdates(installed, UpdateOptions{IncludeAllVersions: true})
	if len(all) != 2 {
		t.Fatalf("all-versions got %d updates, want 2", len(all))
	}
	if all[0].Version != "3.0.0" || all[1].Version != "2.0.0" {
		t.Errorf("ordering = %s, %s; want 3.0.0, 2.0.0", all[0].Version, all[1].Version)
	}
}

func TestRemoteGetUpdatesBatchesOfTen(t *testing.T) {
	packages := make(map[string][]string)
	var installed []version.Identifier
	for i := 0; i < 25; i++ {
		id := fmt.Sprintf("Pkg%02d", i)
		packages[id] = []string{"1.0.0", "2.0.0"}
		installed = append(installed, version.NewIdentifier(id, "1.0.0"))
	}

	f := newFakeFeed(packages)
	s := newRemoteForTest(t, f)

	updates := s.GetUpdates(installed, UpdateOptions{})
	if len(updates) != 25 {
		t.Errorf("got %d updates, want one per installed package", len(updates))
	}
	if got := f.updateCalls.Load(); got != 3 {
		t.Errorf("made %d batched requests for 25 packages, want 3", got)
	}
}

func TestRemoteGetUpdatesFallbackOn404(t *testing.T) {
	packages := map[string][]string{
		"Bar": {"1.0.0", "1.5.0", "2.0.0"},
		"Foo": {"1.0.0"},
	}

	f := newFakeFeed(packages)
	f.disableUpdates = true
	s := newRemoteForTest(t, f)

	installed := []version.Identifier{
		version.NewIdentifier("Bar", "1.0.0"),
		version.NewIdentifier("Foo", "1.0.0"),
	}

	updates := s.GetUpdates(installed, UpdateOptions{IncludeAllVersions: true})
	if len(updates) != 2 {
		t.Fatalf("fallback got %d updates, want all strictly newer Bar versions", len(updates))
	}
	if updates[0].ID != "Bar" || updates[0].Version != "2.0.0" || updates[1].Version != "1.5.0" {
		t.Errorf("fallback updates = %v", updates)
	}

	// One 404 is enough; every lookup afterwards goes through FindPackagesById
	if got := f.updateCalls.Load(); got != 1 {
		t.Errorf("hit the batched endpoint %d times, want 1", got)
	}
	if got := f.findCalls.Load(); got != 2 {
		t.Errorf("made %d per-package lookups, want 2", got)
	}
}

func TestRemoteGetUpdatesFallbackEquivalence(t *testing.T) {
	packages := map[string][]string{
		"Alpha": {"1.0.0", "1.1.0", "2.0.0"},
		"Beta":  {"0.9.0", "1.0.0"},
	}
	installed := []version.Identifier{
		version.NewIdentifier("Alpha", "1.0.0"),
		version.NewIdentifier("Beta", "1.0.0"),
	}
	opts := UpdateOptions{IncludeAllVersions: true}

	key := func(pkgs []*Package) []string {
		out := make([]string, len(pkgs))
		for i, p := range pkgs {
			out[i] = p.ID + "@" + p.Version
		}
		return out
	}

	batchedFeed := newFakeFeed(packages)
	batched := key(newRemoteForTest(t, batchedFeed).GetUpdates(installed, opts))

	fallbackFeed := newFakeFeed(packages)
	fallbackFeed.disableUpdates = true
	viaFallback := key(newRemoteForTest(t, fallbackFeed).GetUpdates(installed, opts))

	if len(batched) != len(viaFallback) {
		t.Fatalf("batched %v vs fallback %v", batched, viaFallback)
	}
	for i := range batched {
		if batched[i] != viaFallback[i] {
			t.Errorf("position %d: batched %s vs fallback %s", i, batched[i], viaFallback[i])
		}
	}
}

func TestRemoteGetUpdatesPrereleaseFilter(t *testing.T) {
	f := newFakeFeed(map[string][]string{"Foo": {"1.0.0", "2.0.0-beta"}})
	s := newRemoteForTest(t, f)

	installed := []version.Identifier{version.NewIdentifier("Foo", "1.0.0")}

	if updates := s.GetUpdates(installed, UpdateOptions{}); len(updates) != 0 {
		t.Errorf("stable-only updates = %v, want none", updates)
	}

	updates := s.GetUpdates(installed, UpdateOptions{IncludePrerelease: true})
	if len(updates) != 1 || updates[0].Version != "2.0.0-beta" {
		t.Errorf("prerelease updates = %v", updates)
	}
}

func TestRemoteDownloadToFile(t *testing.T) {
	f := newFakeFeed(map[string][]string{"Foo": {"1.0.0"}})
	s := newRemoteForTest(t, f)

	out := filepath.Join(t.TempDir(), "out.nupkg")

	// Hint short-circuits discovery
	if err := s.DownloadToFile(version.NewIdentifier("Foo", "1.0.0"), out, f.server.URL+"/package/Foo/1.0.0"); err != nil {
		t.Fatalf("DownloadToFile failed: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil || string(data) != "archive-bytes" {
		t.Errorf("downloaded file = %q, err %v", data, err)
	}

	// Without a hint the location comes from the package lookup
	if err := s.DownloadToFile(version.NewIdentifier("Foo", "1.0.0"), out, ""); err != nil {
		t.Fatalf("hintless DownloadToFile failed: %v", err)
	}

	if err := s.DownloadToFile(version.NewIdentifier("Foo", "[1.0.0,)"), out, ""); !errors.Is(err, ErrUnsupportedRange) {
		t.Errorf("err = %v, want ErrUnsupportedRange", err)
	}
}
