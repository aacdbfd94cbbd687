// flightimport loads legacy per-player flight-time JSON files into the
// PostgreSQL flight_time table.
//
// Legacy layout: one JSON file per player, named <uuid>.json, holding
// {"uniqueId": "<uuid>", "timeSeconds": <n>}.
//
// Usage:
//
//	go run ./cmd/flightimport [flight-data-dir]
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/skyisle/islandfly/internal/config"
)

type legacyRecord struct {
	UniqueID    string `json:"uniqueId"`
	TimeSeconds int    `json:"timeSeconds"`
}

func main() {
	dataDir := filepath.Join("data", "flight-data")
	if len(os.Args) >= 2 {
		dataDir = os.Args[1]
	}

	cfgPath := "config/islandfly.toml"
	if p := os.Getenv("ISLANDFLY_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading config: %v\n", err)
		os.Exit(1)
	}

	entries, err := os.ReadDir(dataDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error reading %s: %v\n", dataDir, err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error connecting to db: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	imported, skipped := 0, 0
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		path := filepath.Join(dataDir, entry.Name())
		raw, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: read %s: %v, skipping\n", path, err)
			skipped++
			continue
		}
		var rec legacyRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			fmt.Fprintf(os.Stderr, "warning: parse %s: %v, skipping\n", path, err)
			skipped++
			continue
		}
		id, err := uuid.Parse(rec.UniqueID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: bad uuid %q in %s, skipping\n", rec.UniqueID, path)
			skipped++
			continue
		}
		secs := rec.TimeSeconds
		if secs < 0 {
			secs = 0
		}
		_, err = pool.Exec(ctx, `
			INSERT INTO flight_time (player_id, seconds, updated_at)
			VALUES ($1, $2, now())
			ON CONFLICT (player_id) DO UPDATE
			SET seconds = EXCLUDED.seconds, updated_at = now()`,
			id, secs)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error writing %s: %v\n", id, err)
			os.Exit(1)
		}
		imported++
	}

	fmt.Printf("Imported %d flight-time records (%d skipped)\n", imported, skipped)
}
