package api

import (
	"bytes"
	"crypto/sha256"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"nufeed/internal/db"
	"nufeed/internal/feed"
	"nufeed/internal/nupkg"
	"nufeed/internal/security"
	"nufeed/internal/version"
)

// healthHandler returns API health status
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.DB.Health(); err != nil {
		writeError(w, http.StatusServiceUnavailable, "Database connection failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"service": "nufeed-api",
	})
}

// findPackagesByIDHandler serves FindPackagesById(): every version of one
// package, optionally narrowed to a single version by the $filter clause.
func (s *Server) findPackagesByIDHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	id := unquote(q.Get("id"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "id parameter required")
		return
	}

	rows, err := s.DB.GetCatalogVersions(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Catalog query failed")
		return
	}

	if exact, ok := strings.CutPrefix(q.Get("$filter"), "Version eq "); ok {
		rows = keepVersion(rows, unquote(exact))
	}

	sortRows(rows)
	rows = capRows(rows, q.Get("$top"))
	s.writeFeed(w, r, rows)
}

// specificPackageHandler serves Packages(Id='X',Version='Y'): one entry, or
// 404 when the pair is unknown.
func (s *Server) specificPackageHandler(w http.ResponseWriter, r *http.Request) {
	id, ver, err := parsePackagesArgs(mux.Vars(r)["args"])
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	row, err := s.DB.GetCatalogVersion(id, ver)
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, "Package not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Catalog query failed")
		return
	}
	s.writeEntry(w, r, *row)
}

// searchHandler serves Search(): term match over names and descriptions,
// download-count ordering, latest-only reduction unless every version was
// asked for, and skip/top paging.
func (s *Server) searchHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	includePrerelease := q.Get("includePrerelease") == "true"

	rows, err := s.DB.SearchCatalog(unquote(q.Get("searchTerm")), 0)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Search failed")
		return
	}

	rows = dropPrerelease(rows, includePrerelease)
	if q.Get("$filter") != "" {
		// IsLatestVersion or IsAbsoluteLatestVersion
		rows = latestPerName(rows)
	}

	if skip, err := strconv.Atoi(q.Get("$skip")); err == nil && skip > 0 {
		if skip >= len(rows) {
			rows = nil
		} else {
			rows = rows[skip:]
		}
	}
	rows = capRows(rows, q.Get("$top"))
	s.writeFeed(w, r, rows)
}

// getUpdatesHandler serves GetUpdates(): versions strictly newer than each
// submitted (id, version) pair. With updates disabled the endpoint answers
// 404, pushing clients onto their per-package fallback.
func (s *Server) getUpdatesHandler(w http.ResponseWriter, r *http.Request) {
	if s.Config.DisableGetUpdates {
		http.NotFound(w, r)
		return
	}

	q := r.URL.Query()
	ids := splitPipeList(unquote(q.Get("packageIds")))
	versions := splitPipeList(unquote(q.Get("versions")))
	if len(ids) == 0 || len(ids) != len(versions) {
		writeError(w, http.StatusBadRequest, "packageIds and versions must be non-empty and parallel")
		return
	}

	includePrerelease := q.Get("includePrerelease") == "true"
	includeAllVersions := q.Get("includeAllVersions") == "true"

	var out []db.CatalogRow
	for i, id := range ids {
		rows, err := s.DB.GetCatalogVersions(id)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Catalog query failed")
			return
		}

		newer := rows[:0:0]
		for _, row := range rows {
			if cmp, err := version.CompareStrings(row.Version, versions[i]); err == nil && cmp > 0 {
				newer = append(newer, row)
			}
		}
		newer = dropPrerelease(newer, includePrerelease)
		if !includeAllVersions {
			newer = latestPerName(newer)
		}
		out = append(out, newer...)
	}

	sortRows(out)
	s.writeFeed(w, r, out)
}

// downloadHandler streams one package archive and bumps its download counter
func (s *Server) downloadHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id, ver := vars["id"], vars["version"]

	row, err := s.DB.GetCatalogVersion(id, ver)
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, "Package not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Catalog query failed")
		return
	}
	if row.BlobPath == nil {
		writeError(w, http.StatusNotFound, "No archive stored for this version")
		return
	}

	file, err := os.Open(*row.BlobPath)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to read archive")
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to stat archive")
		return
	}

	// The download itself still succeeds if the counter update fails
	if err := s.DB.IncrementDownloadCount(row.Name, row.Version); err != nil {
		s.Log.Warn("failed to bump download count",
			zap.String("id", row.Name),
			zap.String("version", row.Version),
			zap.Error(err))
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", nupkg.FileName(row.Name, row.Version)))
	http.ServeContent(w, r, "", info.ModTime(), file)
}

// pushHandler accepts a .nupkg upload from an authenticated publisher. The
// archive's own manifest is the source of truth for id and version.
func (s *Server) pushHandler(w http.ResponseWriter, r *http.Request) {
	if _, err := s.authenticate(r); err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}

	if err := r.ParseMultipartForm(100 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "Failed to parse form")
		return
	}

	upload, _, err := r.FormFile("package")
	if err != nil {
		writeError(w, http.StatusBadRequest, "package file required")
		return
	}
	defer upload.Close()

	data, err := io.ReadAll(upload)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read upload")
		return
	}

	if err := security.ValidateArchive(data); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	meta, err := nupkg.Read(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Not a valid package archive")
		return
	}

	if err := security.ValidatePackageID(meta.ID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	parsed, err := version.Parse(meta.Version)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Package version is not parseable")
		return
	}

	blobPath := filepath.Join(s.Config.StoragePath, nupkg.FileName(meta.ID, meta.Version))
	if err := os.WriteFile(blobPath, data, 0o644); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save archive")
		return
	}

	pkg, err := s.DB.GetOrCreatePackage(meta.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create package")
		return
	}

	sha := fmt.Sprintf("%x", sha256.Sum256(data))
	size := len(data)
	deps := feed.FlattenDependencies(meta.Dependencies)
	row := db.PackageVersion{
		PackageID:    pkg.ID,
		Version:      meta.Version,
		Description:  &meta.Description,
		Dependencies: &deps,
		IsPrerelease: parsed.IsPrerelease(),
		SHA256:       &sha,
		SizeBytes:    &size,
		BlobPath:     &blobPath,
	}

	created, err := s.DB.CreatePackageVersion(row)
	if err != nil {
		writeError(w, http.StatusConflict, "Package version already exists or creation failed")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"id":      meta.ID,
		"version": meta.Version,
		"sha256":  sha,
		"size":    size,
		"db_id":   created.ID,
	})
}

// unquote strips the single quotes OData string literals carry
func unquote(s string) string {
	return strings.Trim(s, "'")
}

// splitPipeList splits a pipe-joined list, dropping empty items
func splitPipeList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, "|")
	out := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parsePackagesArgs decodes the Id='X',Version='Y' argument list of a
// Packages() resource path.
func parsePackagesArgs(args string) (id, ver string, err error) {
	for _, part := range strings.Split(args, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			return "", "", fmt.Errorf("malformed argument %q", part)
		}
		switch k {
		case "Id":
			id = unquote(v)
		case "Version":
			ver = unquote(v)
		default:
			return "", "", fmt.Errorf("unknown argument %q", k)
		}
	}
	if id == "" || ver == "" {
		return "", "", errors.New("Id and Version arguments are required")
	}
	return id, ver, nil
}

// keepVersion filters rows to one version, compared case-insensitively
func keepVersion(rows []db.CatalogRow, ver string) []db.CatalogRow {
	out := rows[:0:0]
	for _, row := range rows {
		if strings.EqualFold(row.Version, ver) {
			out = append(out, row)
		}
	}
	return out
}

// capRows applies a $top limit when one is present
func capRows(rows []db.CatalogRow, top string) []db.CatalogRow {
	if n, err := strconv.Atoi(top); err == nil && n >= 0 && n < len(rows) {
		return rows[:n]
	}
	return rows
}
