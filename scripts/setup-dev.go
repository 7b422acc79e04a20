package main

import (
	"fmt"
	"log"

	"nufeed/internal/config"
	"nufeed/internal/db"
)

// schema is the minimal catalog schema the feed server expects
const schema = `
CREATE TABLE IF NOT EXISTS packages (
    id         SERIAL PRIMARY KEY,
    name       TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE UNIQUE INDEX IF NOT EXISTS packages_name_lower ON packages (LOWER(name));

CREATE TABLE IF NOT EXISTS package_versions (
    id             SERIAL PRIMARY KEY,
    package_id     INTEGER NOT NULL REFERENCES packages(id),
    version        TEXT NOT NULL,
    description    TEXT,
    dependencies   TEXT,
    is_prerelease  BOOLEAN NOT NULL DEFAULT false,
    download_count BIGINT NOT NULL DEFAULT 0,
    sha256         TEXT,
    size_bytes     INTEGER,
    blob_path      TEXT,
    created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
    UNIQUE (package_id, version)
);

CREATE TABLE IF NOT EXISTS users (
    id            SERIAL PRIMARY KEY,
    username      TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
    is_active     BOOLEAN NOT NULL DEFAULT true
);
`

func main() {
	// Load environment
	config.LoadEnvFile(".env")
	cfg := config.Load()

	// Connect to database
	database, err := db.Connect(cfg.DBURL)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer database.Close()

	if _, err := database.Exec(schema); err != nil {
		log.Fatal("Failed to create schema:", err)
	}
	fmt.Println("Schema is in place")

	// Create a dev publisher account
	const username, password = "dev", "dev-password"
	if _, err := database.GetUserByUsername(username); err == nil {
		fmt.Printf("Publisher account %q already exists\n", username)
	} else {
		if _, err := database.CreateUser(username, password); err != nil {
			log.Fatal("Failed to create dev user:", err)
		}
		fmt.Printf("Created publisher account %q with password %q\n", username, password)
	}

	fmt.Println("Setup complete. Next steps:")
	fmt.Println("   1. Start the feed server: go run ./cmd/api")
	fmt.Println("   2. Add the source: ./nufeed source add local http://localhost:8080/v2")
	fmt.Println("   3. Log in: ./nufeed login local")
	fmt.Println("   4. Push a package: ./nufeed push ./Example.1.0.0.nupkg")
}
