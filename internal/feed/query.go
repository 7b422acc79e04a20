package feed

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// MaxFindResults caps FindPackagesById range queries; range filtering happens
// client-side, so the query asks for a bounded page rather than everything.
const MaxFindResults = 1000

// QueryBuilder renders the feed query URLs for one base feed URL
type QueryBuilder struct {
	BaseURL string
}

// NewQueryBuilder creates a builder for a feed base URL
func NewQueryBuilder(baseURL string) QueryBuilder {
	return QueryBuilder{BaseURL: strings.TrimRight(baseURL, "/")}
}

// FindPackagesByID builds the FindPackagesById() query. When exactVersion is
// set the server filters to that single version; otherwise the query fetches
// up to MaxFindResults entries for client-side range filtering.
func (q QueryBuilder) FindPackagesByID(id, exactVersion string) string {
	params := url.Values{}
	params.Set("id", quote(id))
	if exactVersion != "" {
		params.Set("$filter", fmt.Sprintf("Version eq %s", quote(exactVersion)))
	} else {
		params.Set("$top", strconv.Itoa(MaxFindResults))
	}
	return q.BaseURL + "/FindPackagesById()?" + params.Encode()
}

// SpecificPackage builds the direct (id, version) entry lookup
func (q QueryBuilder) SpecificPackage(id, exactVersion string) string {
	return fmt.Sprintf("%s/Packages(Id=%s,Version=%s)", q.BaseURL,
		url.PathEscape(quote(id)), url.PathEscape(quote(exactVersion)))
}

// Search builds the Search() query: latest-only filtering (absolute-latest
// when pre-releases are included) unless all versions are requested,
// popularity ordering, and skip/top paging.
func (q QueryBuilder) Search(term string, includeAllVersions, includePrerelease bool, pageSize, skip int) string {
	params := url.Values{}
	if !includeAllVersions {
		if includePrerelease {
			params.Set("$filter", "IsAbsoluteLatestVersion")
		} else {
			params.Set("$filter", "IsLatestVersion")
		}
	}
	params.Set("$orderby", "DownloadCount desc")
	params.Set("$skip", strconv.Itoa(skip))
	params.Set("$top", strconv.Itoa(pageSize))
	params.Set("searchTerm", quote(term))
	params.Set("targetFramework", quote(""))
	params.Set("includePrerelease", strconv.FormatBool(includePrerelease))
	return q.BaseURL + "/Search()?" + params.Encode()
}

// Updates builds the batched GetUpdates() query. IDs and versions are
// pipe-joined at matching positions; target frameworks and version
// constraints ride along the same way.
func (q QueryBuilder) Updates(ids, versions []string, includePrerelease, includeAllVersions bool, targetFrameworks, versionConstraints []string) string {
	params := url.Values{}
	params.Set("packageIds", quote(strings.Join(ids, "|")))
	params.Set("versions", quote(strings.Join(versions, "|")))
	params.Set("includePrerelease", strconv.FormatBool(includePrerelease))
	params.Set("includeAllVersions", strconv.FormatBool(includeAllVersions))
	params.Set("targetFrameworks", quote(strings.Join(targetFrameworks, "|")))
	params.Set("versionConstraints", quote(strings.Join(versionConstraints, "|")))
	return q.BaseURL + "/GetUpdates()?" + params.Encode()
}

// quote wraps a value in the single quotes OData string literals use
func quote(s string) string {
	return "'" + s + "'"
}
