package interior

// #region imports
import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/abdeljalil-sr/NeuralSeed-sub000/internal/state"
)

// #endregion imports

// #region store

// Journal persists the simulation's self-narrative in SQLite.
type Journal struct {
	db *sql.DB
}

// NewJournal creates the narrative_journal table if needed and returns a journal.
func NewJournal(db *sql.DB) (*Journal, error) {
	j := &Journal{db: db}
	if err := j.init(); err != nil {
		return nil, fmt.Errorf("init narrative journal: %w", err)
	}
	return j, nil
}

func (j *Journal) init() error {
	_, err := j.db.Exec(`CREATE TABLE IF NOT EXISTS narrative_journal (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		phase TEXT NOT NULL,
		dominant_ego TEXT NOT NULL,
		narrative TEXT NOT NULL,
		created_at TEXT NOT NULL
	)`)
	return err
}

// Save appends an entry.
func (j *Journal) Save(ctx context.Context, e state.JournalEntry) error {
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO narrative_journal (phase, dominant_ego, narrative, created_at) VALUES (?, ?, ?, ?)`,
		string(e.Phase), e.Dominant, e.Narrative, e.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("save narrative: %w", err)
	}
	return nil
}

// Latest returns the most recent entry, or nil if none exists.
func (j *Journal) Latest(ctx context.Context) (*state.JournalEntry, error) {
	row := j.db.QueryRowContext(ctx,
		`SELECT phase, dominant_ego, narrative, created_at FROM narrative_journal ORDER BY id DESC LIMIT 1`,
	)
	var e state.JournalEntry
	var phase, createdAt string
	if err := row.Scan(&phase, &e.Dominant, &e.Narrative, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("latest narrative: %w", err)
	}
	t, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse narrative created_at %q: %w", createdAt, err)
	}
	e.Phase = state.Phase(phase)
	e.CreatedAt = t
	return &e, nil
}

// #endregion store
