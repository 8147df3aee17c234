// Package persistence stores generated boards in SQLite.
package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/boardgen/internal/mapgen"
)

// ErrNotFound is returned when no stored map has the requested id.
var ErrNotFound = errors.New("map not found")

// DB wraps a SQLite connection for board storage.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS maps (
		id TEXT PRIMARY KEY,
		created_at INTEGER NOT NULL,
		seed INTEGER NOT NULL,
		mode TEXT NOT NULL,
		template TEXT NOT NULL,
		width INTEGER NOT NULL,
		height INTEGER NOT NULL,
		road_cells INTEGER NOT NULL,
		parcel_count INTEGER NOT NULL,
		special_count INTEGER NOT NULL,
		street_count INTEGER NOT NULL,
		params_json TEXT NOT NULL,
		stats_json TEXT NOT NULL,
		result_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS parcels (
		map_id TEXT NOT NULL REFERENCES maps(id) ON DELETE CASCADE,
		idx INTEGER NOT NULL,
		anchor_x INTEGER NOT NULL,
		anchor_y INTEGER NOT NULL,
		size INTEGER NOT NULL,
		value INTEGER NOT NULL,
		price REAL NOT NULL,
		region INTEGER NOT NULL,
		color_group TEXT NOT NULL,
		PRIMARY KEY (map_id, idx)
	);

	CREATE TABLE IF NOT EXISTS store_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_maps_created ON maps(created_at);
	CREATE INDEX IF NOT EXISTS idx_parcels_group ON parcels(map_id, color_group);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// Summary is one row of the map listing.
type Summary struct {
	ID        string `db:"id" json:"id"`
	CreatedAt int64  `db:"created_at" json:"created_at"`
	Seed      int64  `db:"seed" json:"seed"`
	Mode      string `db:"mode" json:"mode"`
	Template  string `db:"template" json:"template"`
	Width     int    `db:"width" json:"width"`
	Height    int    `db:"height" json:"height"`
	Roads     int    `db:"road_cells" json:"road_cells"`
	Parcels   int    `db:"parcel_count" json:"parcels"`
	Specials  int    `db:"special_count" json:"specials"`
	Streets   int    `db:"street_count" json:"streets"`
}

// Created returns the creation time.
func (s Summary) Created() time.Time {
	return time.Unix(s.CreatedAt, 0)
}

// Record is a fully loaded stored map.
type Record struct {
	Summary
	Params mapgen.Params  `json:"params"`
	Stats  mapgen.Stats   `json:"statistics"`
	Result *mapgen.Result `json:"result"`
}

// Save stores a generated board and its parcels and returns the new id.
func (db *DB) Save(ctx context.Context, res *mapgen.Result) (string, error) {
	paramsJSON, err := json.Marshal(res.Params)
	if err != nil {
		return "", fmt.Errorf("encode params: %w", err)
	}
	statsJSON, err := json.Marshal(res.Stats)
	if err != nil {
		return "", fmt.Errorf("encode stats: %w", err)
	}
	resultJSON, err := json.Marshal(res)
	if err != nil {
		return "", fmt.Errorf("encode result: %w", err)
	}

	id := uuid.NewString()
	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `INSERT INTO maps
		(id, created_at, seed, mode, template, width, height,
		 road_cells, parcel_count, special_count, street_count,
		 params_json, stats_json, result_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, time.Now().Unix(), res.Seed, string(res.Mode), res.Template, res.Width, res.Height,
		res.Stats.RoadCells, res.Stats.Parcels, res.Stats.SpecialTiles, res.Stats.Streets.Total,
		string(paramsJSON), string(statsJSON), string(resultJSON),
	)
	if err != nil {
		return "", fmt.Errorf("insert map: %w", err)
	}

	stmt, err := tx.PreparexContext(ctx, `INSERT INTO parcels
		(map_id, idx, anchor_x, anchor_y, size, value, price, region, color_group)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", err
	}
	defer stmt.Close()

	for i, p := range res.Parcels {
		_, err := stmt.ExecContext(ctx, id, i, p.Anchor.X, p.Anchor.Y, int(p.Size), p.Value, p.Price, p.Region, p.Group)
		if err != nil {
			return "", fmt.Errorf("insert parcel %d: %w", i, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT OR REPLACE INTO store_meta (key, value) VALUES ('latest', ?)", id,
	); err != nil {
		return "", fmt.Errorf("save meta: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	slog.Info("map saved", "id", id, "seed", res.Seed, "parcels", len(res.Parcels))
	return id, nil
}

const summaryColumns = `id, created_at, seed, mode, template, width, height,
	road_cells, parcel_count, special_count, street_count`

// Get loads a stored map by id.
func (db *DB) Get(ctx context.Context, id string) (*Record, error) {
	var row struct {
		Summary
		ParamsJSON string `db:"params_json"`
		StatsJSON  string `db:"stats_json"`
		ResultJSON string `db:"result_json"`
	}
	err := db.conn.GetContext(ctx, &row,
		"SELECT "+summaryColumns+", params_json, stats_json, result_json FROM maps WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	rec := &Record{Summary: row.Summary, Result: &mapgen.Result{}}
	if err := json.Unmarshal([]byte(row.ParamsJSON), &rec.Params); err != nil {
		return nil, fmt.Errorf("decode params: %w", err)
	}
	if err := json.Unmarshal([]byte(row.StatsJSON), &rec.Stats); err != nil {
		return nil, fmt.Errorf("decode stats: %w", err)
	}
	if err := json.Unmarshal([]byte(row.ResultJSON), rec.Result); err != nil {
		return nil, fmt.Errorf("decode result: %w", err)
	}
	return rec, nil
}

// Latest loads the most recently saved map.
func (db *DB) Latest(ctx context.Context) (*Record, error) {
	var id string
	err := db.conn.GetContext(ctx, &id, "SELECT value FROM store_meta WHERE key = 'latest'")
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return db.Get(ctx, id)
}

// List returns the newest maps first.
func (db *DB) List(ctx context.Context, limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = 50
	}
	var out []Summary
	err := db.conn.SelectContext(ctx, &out,
		"SELECT "+summaryColumns+" FROM maps ORDER BY created_at DESC, rowid DESC LIMIT ?", limit)
	return out, err
}

// GroupCount is the number of stored parcels in one colour group.
type GroupCount struct {
	Group string `db:"color_group" json:"color_group"`
	Count int    `db:"n" json:"count"`
}

// ParcelGroups counts a stored map's parcels per colour group, largest first.
func (db *DB) ParcelGroups(ctx context.Context, id string) ([]GroupCount, error) {
	var exists bool
	if err := db.conn.GetContext(ctx, &exists, "SELECT EXISTS(SELECT 1 FROM maps WHERE id = ?)", id); err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	out := []GroupCount{}
	err := db.conn.SelectContext(ctx, &out,
		"SELECT color_group, COUNT(*) AS n FROM parcels WHERE map_id = ? GROUP BY color_group ORDER BY n DESC, color_group",
		id)
	return out, err
}

// Delete removes a stored map and its parcels.
func (db *DB) Delete(ctx context.Context, id string) error {
	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM parcels WHERE map_id = ?", id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM maps WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM store_meta WHERE key = 'latest' AND value = ?", id); err != nil {
		return err
	}
	return tx.Commit()
}

// Count returns the number of stored maps.
func (db *DB) Count(ctx context.Context) (int, error) {
	var n int
	err := db.conn.GetContext(ctx, &n, "SELECT COUNT(*) FROM maps")
	return n, err
}
