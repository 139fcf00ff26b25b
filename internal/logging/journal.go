package logging

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/abdeljalil-sr/NeuralSeed-sub000/internal/events"
	"github.com/abdeljalil-sr/NeuralSeed-sub000/internal/ports"
	"github.com/abdeljalil-sr/NeuralSeed-sub000/internal/state"
)

// #region schema
// InitSchema creates the event_log table if needed.
func InitSchema(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS event_log (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		kind         TEXT NOT NULL,
		phase        TEXT,
		summary      TEXT NOT NULL,
		payload_json TEXT,
		created_at   TEXT NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("init event_log: %w", err)
	}
	return nil
}

// #endregion schema

// #region log-event
// LogEvent writes an entry to the event_log table.
func LogEvent(db *sql.DB, entry Entry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := db.Exec(
		`INSERT INTO event_log (kind, phase, summary, payload_json, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		entry.Kind,
		nullIfEmpty(entry.Phase),
		entry.Summary,
		nullIfEmpty(entry.PayloadJSON),
		entry.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("log event: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first, optionally filtered by kind.
func Recent(db *sql.DB, kind string, limit int) ([]Entry, error) {
	query := `SELECT kind, COALESCE(phase, ''), summary, COALESCE(payload_json, ''), created_at FROM event_log`
	var args []any
	if kind != "" {
		query += ` WHERE kind = ?`
		args = append(args, kind)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query event_log: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var createdAt string
		if err := rows.Scan(&e.Kind, &e.Phase, &e.Summary, &e.PayloadJSON, &createdAt); err != nil {
			return nil, fmt.Errorf("scan event_log: %w", err)
		}
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		out = append(out, e)
	}
	return out, rows.Err()
}

// #endregion log-event

// #region journal
// Journal is an event bus listener that records decisions into event_log.
// Memory formation and visual frames are not journaled.
type Journal struct {
	db     *sql.DB
	logger ports.Logger
	phase  state.Phase
}

// NewJournal prepares the table and returns a listener. logger may be nil.
func NewJournal(db *sql.DB, logger ports.Logger) (*Journal, error) {
	if err := InitSchema(db); err != nil {
		return nil, err
	}
	return &Journal{db: db, logger: logger, phase: state.PhaseEmbryonic}, nil
}

var _ events.Listener = (*Journal)(nil)

func (j *Journal) OnPhaseTransition(from, to state.Phase, reason string) {
	j.phase = to
	j.write(events.KindPhaseTransition, fmt.Sprintf("%s -> %s: %s", from, to, reason),
		PhasePayload{From: string(from), To: string(to), Reason: reason})
}

func (j *Journal) OnEgoShift(from, to state.EgoFragment) {
	j.write(events.KindEgoShift, fmt.Sprintf("%s yields to %s", from.Name, to.Name),
		EgoPayload{From: from.Name, To: to.Name, FromStrength: from.Strength, ToStrength: to.Strength})
}

func (j *Journal) OnGoalAchieved(goal state.Goal) {
	j.write(events.KindGoalAchieved, fmt.Sprintf("achieved %s goal %q", goal.Type, goal.Description), goal)
}

func (j *Journal) OnIdentityEvolution(from, to state.Identity) {
	j.write(events.KindIdentityEvolution, fmt.Sprintf("identity evolved across %d traits", len(to.Values)),
		IdentityPayload{Similarity: state.Similarity(from.Values, to.Values), Values: to.Values, Rules: to.Rules.Len()})
}

func (j *Journal) OnMemoryFormed(state.Memory) {}

func (j *Journal) OnRuleRewritten(oldRule, newRule state.Rule) {
	j.write(events.KindRuleRewritten, fmt.Sprintf("%q replaced by %q", oldRule.Condition, newRule.Condition),
		RulePayload{
			EvictedID: oldRule.ID, EvictedCondition: oldRule.Condition, EvictedActivations: oldRule.Activations,
			NewID: newRule.ID, NewCondition: newRule.Condition, NewAction: newRule.Action,
		})
}

func (j *Journal) OnVisualFrame(state.Snapshot) {}

func (j *Journal) write(kind events.Kind, summary string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		j.printf("journal: marshal %s: %v", kind, err)
		return
	}
	entry := Entry{Kind: string(kind), Phase: string(j.phase), Summary: summary, PayloadJSON: string(data)}
	if err := LogEvent(j.db, entry); err != nil {
		j.printf("journal: %v", err)
	}
}

func (j *Journal) printf(format string, args ...any) {
	if j.logger != nil {
		j.logger.Printf(format, args...)
	}
}

// #endregion journal

// #region helpers
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// #endregion helpers
