package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/abdeljalil-sr/NeuralSeed-sub000/internal/ports"
	"github.com/abdeljalil-sr/NeuralSeed-sub000/internal/state"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS snapshot_versions (
	version_id    TEXT PRIMARY KEY,
	parent_id     TEXT,
	phase         TEXT NOT NULL,
	chaos_index   REAL NOT NULL,
	fitness       REAL NOT NULL,
	conflict      REAL NOT NULL,
	dominant_ego  TEXT NOT NULL,
	snapshot_json TEXT NOT NULL,
	created_at    TEXT NOT NULL,
	FOREIGN KEY (parent_id) REFERENCES snapshot_versions(version_id)
);

CREATE TABLE IF NOT EXISTS memories (
	id            TEXT PRIMARY KEY,
	kind          TEXT NOT NULL,
	text          TEXT,
	emotion_json  TEXT NOT NULL,
	importance    REAL NOT NULL,
	consolidated  INTEGER NOT NULL DEFAULT 0,
	created_at    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS active_snapshot (
	id            INTEGER PRIMARY KEY CHECK (id = 1),
	version_id    TEXT NOT NULL,
	FOREIGN KEY (version_id) REFERENCES snapshot_versions(version_id)
);
`

// #endregion schema

// #region version-info

// VersionInfo is the summary row of one stored snapshot.
type VersionInfo struct {
	VersionID   string
	ParentID    string
	Phase       state.Phase
	ChaosIndex  float64
	Fitness     float64
	Conflict    float64
	DominantEgo string
	CreatedAt   time.Time
}

// #endregion version-info

// #region store-struct

// Store persists snapshot versions and memories in SQLite. Each saved snapshot
// becomes a new version whose parent is the previously active one.
type Store struct {
	db *sql.DB
}

var _ ports.Persistence = (*Store)(nil)

// #endregion store-struct

// #region constructor

// New opens a SQLite database and runs migrations.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for use by other packages (e.g. logging).
func (s *Store) DB() *sql.DB {
	return s.db
}

// #endregion constructor

// #region save-snapshot

// SaveSnapshot stores snap as a new version and makes it active.
func (s *Store) SaveSnapshot(ctx context.Context, snap state.Snapshot) error {
	_, err := s.Commit(ctx, snap)
	return err
}

// Commit stores snap as a new version, makes it active and returns its version ID.
func (s *Store) Commit(ctx context.Context, snap state.Snapshot) (string, error) {
	body, err := json.Marshal(snap)
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var parent interface{}
	var active string
	err = tx.QueryRowContext(ctx, `SELECT version_id FROM active_snapshot WHERE id = 1`).Scan(&active)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return "", fmt.Errorf("get active: %w", err)
	default:
		parent = active
	}

	id := uuid.New().String()
	createdAt := snap.TakenAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO snapshot_versions
		 (version_id, parent_id, phase, chaos_index, fitness, conflict, dominant_ego, snapshot_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, parent, string(snap.Phase), snap.ChaosIndex, snap.Fitness, snap.Conflict,
		snap.DominantEgo().Name, string(body), createdAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return "", fmt.Errorf("insert version: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO active_snapshot (id, version_id) VALUES (1, ?)
		 ON CONFLICT(id) DO UPDATE SET version_id = excluded.version_id`,
		id,
	)
	if err != nil {
		return "", fmt.Errorf("set active: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return id, nil
}

// #endregion save-snapshot

// #region save-memories

// SaveMemories upserts memories by ID.
func (s *Store) SaveMemories(ctx context.Context, memories []state.Memory) error {
	if len(memories) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO memories (id, kind, text, emotion_json, importance, consolidated, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   importance = excluded.importance,
		   consolidated = excluded.consolidated`)
	if err != nil {
		return fmt.Errorf("prepare memory insert: %w", err)
	}
	defer stmt.Close()

	for _, m := range memories {
		emo, err := json.Marshal(m.Emotion)
		if err != nil {
			return fmt.Errorf("marshal emotion: %w", err)
		}
		consolidated := 0
		if m.Consolidated {
			consolidated = 1
		}
		if _, err := stmt.ExecContext(ctx,
			m.ID, string(m.Kind), m.Text, string(emo), m.Importance, consolidated,
			m.CreatedAt.UTC().Format(time.RFC3339Nano),
		); err != nil {
			return fmt.Errorf("insert memory %s: %w", m.ID, err)
		}
	}
	return tx.Commit()
}

// CountMemories returns the number of stored memories.
func (s *Store) CountMemories(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM memories`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count memories: %w", err)
	}
	return n, nil
}

// #endregion save-memories

// #region get-current

// GetCurrent loads the active snapshot.
func (s *Store) GetCurrent(ctx context.Context) (state.Snapshot, VersionInfo, error) {
	var versionID string
	err := s.db.QueryRowContext(ctx, `SELECT version_id FROM active_snapshot WHERE id = 1`).Scan(&versionID)
	if err != nil {
		return state.Snapshot{}, VersionInfo{}, fmt.Errorf("get active: %w", err)
	}
	return s.GetVersion(ctx, versionID)
}

// GetVersion loads a specific snapshot version.
func (s *Store) GetVersion(ctx context.Context, id string) (state.Snapshot, VersionInfo, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT version_id, parent_id, phase, chaos_index, fitness, conflict, dominant_ego, created_at, snapshot_json
		 FROM snapshot_versions WHERE version_id = ?`, id)

	var body string
	info, err := scanVersion(row, &body)
	if err != nil {
		return state.Snapshot{}, VersionInfo{}, fmt.Errorf("get version %s: %w", id, err)
	}
	var snap state.Snapshot
	if err := json.Unmarshal([]byte(body), &snap); err != nil {
		return state.Snapshot{}, VersionInfo{}, fmt.Errorf("unmarshal snapshot %s: %w", id, err)
	}
	return snap, info, nil
}

// #endregion get-current

// #region list-versions

// ListVersions returns the most recent versions, newest first.
func (s *Store) ListVersions(ctx context.Context, limit int) ([]VersionInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT version_id, parent_id, phase, chaos_index, fitness, conflict, dominant_ego, created_at
		 FROM snapshot_versions ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	defer rows.Close()

	var out []VersionInfo
	for rows.Next() {
		info, err := scanVersion(rows, nil)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out = append(out, info)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanVersion(sc scanner, body *string) (VersionInfo, error) {
	var info VersionInfo
	var parent sql.NullString
	var phase, created string
	dest := []any{&info.VersionID, &parent, &phase, &info.ChaosIndex, &info.Fitness,
		&info.Conflict, &info.DominantEgo, &created}
	if body != nil {
		dest = append(dest, body)
	}
	if err := sc.Scan(dest...); err != nil {
		return VersionInfo{}, err
	}
	if parent.Valid {
		info.ParentID = parent.String
	}
	info.Phase = state.Phase(phase)
	t, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return VersionInfo{}, fmt.Errorf("parse created_at %q: %w", created, err)
	}
	info.CreatedAt = t
	return info, nil
}

// #endregion list-versions
