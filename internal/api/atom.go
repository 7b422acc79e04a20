package api

import (
	"encoding/xml"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"nufeed/internal/db"
	"nufeed/internal/feed"
	"nufeed/internal/version"
)

// toEntry renders one catalog row as an Atom entry. Download locations are
// absolute URLs rooted at the request host.
func toEntry(r *http.Request, row db.CatalogRow) feed.Entry {
	entry := feed.Entry{
		Title: row.Name,
		Content: feed.Content{
			Type: "application/zip",
			Src:  fmt.Sprintf("%s/v2/package/%s/%s", requestBase(r), row.Name, row.Version),
		},
		Properties: feed.Properties{
			ID:            row.Name,
			Version:       row.Version,
			IsPrerelease:  row.IsPrerelease,
			DownloadCount: row.DownloadCount,
		},
	}
	if row.Description != nil {
		entry.Properties.Description = *row.Description
	}
	if row.Dependencies != nil {
		entry.Properties.Dependencies = *row.Dependencies
	}
	return entry
}

// requestBase reconstructs the external base URL of the request
func requestBase(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if forwarded := r.Header.Get("X-Forwarded-Proto"); forwarded != "" {
		scheme = forwarded
	}
	return scheme + "://" + r.Host
}

// writeFeed renders rows as an Atom feed document
func (s *Server) writeFeed(w http.ResponseWriter, r *http.Request, rows []db.CatalogRow) {
	doc := feed.Document{
		Xmlns: "http://www.w3.org/2005/Atom",
		Title: "Packages",
	}
	for _, row := range rows {
		doc.Entries = append(doc.Entries, toEntry(r, row))
	}
	s.writeAtom(w, doc)
}

// writeEntry renders a single row as a standalone entry document
func (s *Server) writeEntry(w http.ResponseWriter, r *http.Request, row db.CatalogRow) {
	s.writeAtom(w, toEntry(r, row))
}

func (s *Server) writeAtom(w http.ResponseWriter, doc interface{}) {
	data, err := xml.Marshal(doc)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to render feed")
		return
	}
	w.Header().Set("Content-Type", "application/atom+xml; charset=utf-8")
	w.Write([]byte(xml.Header))
	w.Write(data)
}

// sortRows orders rows by id ascending case-insensitively, then version
// descending, matching client-side ordering.
func sortRows(rows []db.CatalogRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := strings.ToLower(rows[i].Name), strings.ToLower(rows[j].Name)
		if a != b {
			return a < b
		}
		cmp, err := version.CompareStrings(rows[i].Version, rows[j].Version)
		if err != nil {
			return false
		}
		return cmp > 0
	})
}

// latestPerName reduces rows to the highest version of each package,
// preserving first-appearance order of names.
func latestPerName(rows []db.CatalogRow) []db.CatalogRow {
	best := make(map[string]int)
	var out []db.CatalogRow
	for _, row := range rows {
		key := strings.ToLower(row.Name)
		at, ok := best[key]
		if !ok {
			best[key] = len(out)
			out = append(out, row)
			continue
		}
		if cmp, err := version.CompareStrings(row.Version, out[at].Version); err == nil && cmp > 0 {
			out[at] = row
		}
	}
	return out
}

// dropPrerelease removes pre-release rows unless they are wanted
func dropPrerelease(rows []db.CatalogRow, includePrerelease bool) []db.CatalogRow {
	if includePrerelease {
		return rows
	}
	out := rows[:0:0]
	for _, row := range rows {
		if !row.IsPrerelease {
			out = append(out, row)
		}
	}
	return out
}
