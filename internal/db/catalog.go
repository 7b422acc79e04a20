package db

import (
	"database/sql"
	"fmt"
)

// GetOrCreatePackage gets an existing package by name or creates a new one.
// Name matching is case-insensitive; the first published casing wins.
func (db *DB) GetOrCreatePackage(name string) (*Package, error) {
	pkg, err := db.GetPackage(name)
	if err == nil {
		return pkg, nil
	}
	if err != sql.ErrNoRows {
		return nil, err
	}

	query := `
        INSERT INTO packages (name)
        VALUES ($1)
        RETURNING id, name, created_at`

	var newPkg Package
	if err := db.Get(&newPkg, query, name); err != nil {
		return nil, err
	}
	return &newPkg, nil
}

// GetPackage retrieves a package by name, case-insensitively
func (db *DB) GetPackage(name string) (*Package, error) {
	query := `SELECT id, name, created_at FROM packages WHERE LOWER(name) = LOWER($1)`

	var pkg Package
	if err := db.Get(&pkg, query, name); err != nil {
		return nil, err
	}
	return &pkg, nil
}

// CreatePackageVersion records a new version of an existing package
func (db *DB) CreatePackageVersion(version PackageVersion) (*PackageVersion, error) {
	query := `
        INSERT INTO package_versions
        (package_id, version, description, dependencies, is_prerelease, sha256, size_bytes, blob_path)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING id, package_id, version, description, dependencies, is_prerelease,
                  download_count, sha256, size_bytes, blob_path, created_at`

	var newVersion PackageVersion
	err := db.Get(&newVersion, query,
		version.PackageID,
		version.Version,
		version.Description,
		version.Dependencies,
		version.IsPrerelease,
		version.SHA256,
		version.SizeBytes,
		version.BlobPath,
	)
	if err != nil {
		return nil, err
	}
	return &newVersion, nil
}

// GetCatalogVersions returns every version of a package as catalog rows.
// Version ordering is left to the caller; the database cannot compare
// versions semantically.
func (db *DB) GetCatalogVersions(name string) ([]CatalogRow, error) {
	query := `
        SELECT p.name, pv.version, pv.description, pv.dependencies, pv.is_prerelease,
               pv.download_count, pv.blob_path, pv.created_at
        FROM packages p
        JOIN package_versions pv ON p.id = pv.package_id
        WHERE LOWER(p.name) = LOWER($1)
        ORDER BY pv.created_at`

	var rows []CatalogRow
	if err := db.Select(&rows, query, name); err != nil {
		return nil, err
	}
	return rows, nil
}

// GetCatalogVersion returns one (name, version) row, or sql.ErrNoRows
func (db *DB) GetCatalogVersion(name, version string) (*CatalogRow, error) {
	query := `
        SELECT p.name, pv.version, pv.description, pv.dependencies, pv.is_prerelease,
               pv.download_count, pv.blob_path, pv.created_at
        FROM packages p
        JOIN package_versions pv ON p.id = pv.package_id
        WHERE LOWER(p.name) = LOWER($1) AND LOWER(pv.version) = LOWER($2)`

	var row CatalogRow
	if err := db.Get(&row, query, name, version); err != nil {
		return nil, err
	}
	return &row, nil
}

// SearchCatalog returns rows whose name or description matches the term,
// ordered by download count descending. Latest-version reduction happens in
// the handler, so every version of a matching package comes back.
func (db *DB) SearchCatalog(term string, limit int) ([]CatalogRow, error) {
	query := `
        SELECT p.name, pv.version, pv.description, pv.dependencies, pv.is_prerelease,
               pv.download_count, pv.blob_path, pv.created_at
        FROM packages p
        JOIN package_versions pv ON p.id = pv.package_id
        WHERE 1=1`

	args := []interface{}{}
	argCount := 0

	if term != "" {
		argCount++
		query += fmt.Sprintf(" AND (p.name ILIKE $%d OR pv.description ILIKE $%d)", argCount, argCount)
		args = append(args, "%"+term+"%")
	}

	query += " ORDER BY pv.download_count DESC, LOWER(p.name)"

	if limit > 0 {
		argCount++
		query += fmt.Sprintf(" LIMIT $%d", argCount)
		args = append(args, limit)
	}

	var rows []CatalogRow
	if err := db.Select(&rows, query, args...); err != nil {
		return nil, err
	}
	return rows, nil
}

// IncrementDownloadCount bumps the download counter for one version
func (db *DB) IncrementDownloadCount(name, version string) error {
	query := `
        UPDATE package_versions pv
        SET download_count = download_count + 1
        FROM packages p
        WHERE p.id = pv.package_id
          AND LOWER(p.name) = LOWER($1) AND LOWER(pv.version) = LOWER($2)`

	_, err := db.Exec(query, name, version)
	return err
}
