package storage

import (
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/san-kum/fragtrack/internal/detector"
	"github.com/san-kum/fragtrack/internal/tracker"
	"gonum.org/v1/gonum/spatial/r3"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// DB is the per-run track database.
type DB struct {
	*sql.DB
}

// OpenDB opens the sqlite file at path and brings its schema up to date.
func OpenDB(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	db := &DB{sqlDB}
	if err := db.MigrateUp(); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return db, nil
}

func (db *DB) newMigrate() (*migrate.Migrate, error) {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to load migrations: %w", err)
	}
	driver, err := sqlite.WithInstance(db.DB, &sqlite.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to create sqlite driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return m, nil
}

// MigrateUp applies all pending migrations. The migrate instance is not
// closed since that would close the shared connection.
func (db *DB) MigrateUp() error {
	m, err := db.newMigrate()
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

// MigrateVersion returns 0 when no migration has been applied.
func (db *DB) MigrateVersion() (uint, bool, error) {
	m, err := db.newMigrate()
	if err != nil {
		return 0, false, err
	}
	v, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return v, dirty, err
}

func (db *DB) InsertTracks(tracks []tracker.Track) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT INTO tracks
		(event, hypothesis, side, charge, mass, x, y, z, px, py, pz, beta, chi2, ndf, status, hits)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, t := range tracks {
		hits, err := json.Marshal(t.Hits)
		if err != nil {
			tx.Rollback()
			return err
		}
		_, err = stmt.Exec(t.Event, t.Hypothesis, t.Side.String(), t.Charge, t.Mass,
			t.Position.X, t.Position.Y, t.Position.Z,
			t.Momentum.X, t.Momentum.Y, t.Momentum.Z,
			t.Beta, t.Chi2, t.NDF, t.Status, string(hits))
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("insert track of event %d: %w", t.Event, err)
		}
	}
	return tx.Commit()
}

func (db *DB) InsertStats(event int64, stats []tracker.HypothesisStats) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	for _, s := range stats {
		var best sql.NullFloat64
		if s.Candidates > 0 {
			best = sql.NullFloat64{Float64: s.BestChi2, Valid: true}
		}
		_, err := tx.Exec(`INSERT OR REPLACE INTO hypothesis_stats
			(event, hypothesis, combinations, candidates, failed, non_finite, overflow, accepted, best_chi2)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			event, s.Hypothesis, s.Combinations, s.Candidates, s.Failed, s.NonFinite,
			boolInt(s.Overflow), boolInt(s.Accepted), best)
		if err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// Tracks selects the stored tracks. An empty hypothesis matches all.
func (db *DB) Tracks(hypothesis string) ([]tracker.Track, error) {
	q := `SELECT event, hypothesis, side, charge, mass, x, y, z, px, py, pz, beta, chi2, ndf, status, hits
		FROM tracks`
	var args []any
	if hypothesis != "" {
		q += ` WHERE hypothesis = ?`
		args = append(args, hypothesis)
	}
	q += ` ORDER BY id`

	rows, err := db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []tracker.Track
	for rows.Next() {
		var (
			t    tracker.Track
			side string
			hits string
			p, m r3.Vec
		)
		if err := rows.Scan(&t.Event, &t.Hypothesis, &side, &t.Charge, &t.Mass,
			&p.X, &p.Y, &p.Z, &m.X, &m.Y, &m.Z,
			&t.Beta, &t.Chi2, &t.NDF, &t.Status, &hits); err != nil {
			return nil, err
		}
		t.Position, t.Momentum = p, m
		if side == detector.Right.String() {
			t.Side = detector.Right
		}
		if err := json.Unmarshal([]byte(hits), &t.Hits); err != nil {
			return nil, fmt.Errorf("event %d: hits: %w", t.Event, err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Overflows counts the hypotheses abandoned for too many combinations.
func (db *DB) Overflows() (int, error) {
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM hypothesis_stats WHERE overflow = 1`).Scan(&n)
	return n, err
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
