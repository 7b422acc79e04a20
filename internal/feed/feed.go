// Package feed implements the OData v2 Atom schema spoken by NuGet-style
// package feeds: parsing catalog documents into raw entries, and building the
// specific query URLs the sources need. It deliberately covers only those
// query shapes, not the general OData query language.
package feed

import (
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"nufeed/internal/version"
)

// stripHTML removes markup from feed summaries; public feeds routinely embed
// HTML in package descriptions.
var stripHTML = bluemonday.StrictPolicy()

// Document is an Atom feed document
type Document struct {
	XMLName xml.Name `xml:"feed"`
	Xmlns   string   `xml:"xmlns,attr,omitempty"`
	Title   string   `xml:"title"`
	Entries []Entry  `xml:"entry"`
}

// Entry is one catalog record: a single (id, version) pair with its metadata
type Entry struct {
	XMLName    xml.Name   `xml:"entry"`
	Title      string     `xml:"title"`
	Summary    string     `xml:"summary"`
	Content    Content    `xml:"content"`
	Properties Properties `xml:"properties"`
}

// Content carries the package download location
type Content struct {
	Type string `xml:"type,attr,omitempty"`
	Src  string `xml:"src,attr,omitempty"`
}

// Properties is the m:properties element of a feed entry
type Properties struct {
	ID            string `xml:"Id,omitempty"`
	Version       string `xml:"Version"`
	Description   string `xml:"Description,omitempty"`
	Dependencies  string `xml:"Dependencies,omitempty"`
	IsPrerelease  bool   `xml:"IsPrerelease,omitempty"`
	DownloadCount int64  `xml:"DownloadCount,omitempty"`
}

// PackageID returns the entry's package id, preferring the explicit property
// over the Atom title.
func (e *Entry) PackageID() string {
	if e.Properties.ID != "" {
		return e.Properties.ID
	}
	return e.Title
}

// Description returns the entry's description with any HTML stripped
func (e *Entry) Description() string {
	d := e.Properties.Description
	if d == "" {
		d = e.Summary
	}
	return strings.TrimSpace(stripHTML.Sanitize(d))
}

// DownloadURL returns the entry's download location hint, if any
func (e *Entry) DownloadURL() string {
	return e.Content.Src
}

// Dependencies decodes the entry's flattened dependency list. The wire format
// is "id:versionRange:targetFramework" tuples joined by "|"; trailing fields
// may be empty or omitted.
func (e *Entry) Dependencies() []version.Dependency {
	return ParseDependencies(e.Properties.Dependencies)
}

// ParseDependencies decodes a flattened dependency string
func ParseDependencies(flat string) []version.Dependency {
	if flat == "" {
		return nil
	}

	var deps []version.Dependency
	for _, tuple := range strings.Split(flat, "|") {
		if tuple == "" {
			continue
		}
		fields := strings.SplitN(tuple, ":", 3)
		dep := version.Dependency{
			Identifier: version.NewIdentifier(fields[0], ""),
		}
		if len(fields) > 1 {
			dep.Identifier.Version = fields[1]
		}
		if len(fields) > 2 {
			dep.TargetFramework = fields[2]
		}
		if dep.ID == "" {
			continue
		}
		deps = append(deps, dep)
	}
	return deps
}

// FlattenDependencies encodes dependencies back into the wire format
func FlattenDependencies(deps []version.Dependency) string {
	tuples := make([]string, 0, len(deps))
	for _, d := range deps {
		tuples = append(tuples, fmt.Sprintf("%s:%s:%s", d.ID, d.Identifier.Version, d.TargetFramework))
	}
	return strings.Join(tuples, "|")
}

// Parse decodes an Atom catalog document into its entries. A document with no
// entries is valid and yields an empty slice.
func Parse(data []byte) ([]Entry, error) {
	// A single-entry response (Packages(Id=,Version=)) has <entry> as the
	// document element rather than <feed>.
	trimmed := strings.TrimSpace(string(data))
	if root := firstElement(trimmed); root == "entry" || strings.HasSuffix(root, ":entry") {
		var entry Entry
		if err := xml.Unmarshal(data, &entry); err != nil {
			return nil, fmt.Errorf("failed to parse feed entry: %w", err)
		}
		return []Entry{entry}, nil
	}

	var doc Document
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}
	return doc.Entries, nil
}

// firstElement returns the name of the document element, skipping the XML
// declaration if present.
func firstElement(doc string) string {
	for {
		start := strings.Index(doc, "<")
		if start == -1 {
			return ""
		}
		rest := doc[start+1:]
		if strings.HasPrefix(rest, "?") || strings.HasPrefix(rest, "!") {
			end := strings.Index(rest, ">")
			if end == -1 {
				return ""
			}
			doc = rest[end+1:]
			continue
		}
		end := strings.IndexAny(rest, " >\t\r\n/")
		if end == -1 {
			return rest
		}
		return rest[:end]
	}
}
