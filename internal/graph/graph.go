// Package graph stores weighted associations between learned words and the
// phases they were heard in.
package graph

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS word_edges (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    source      TEXT NOT NULL,
    target      TEXT NOT NULL,
    kind        TEXT NOT NULL,
    weight      REAL NOT NULL DEFAULT 0.1,
    created_at  TEXT NOT NULL,
    updated_at  TEXT NOT NULL,
    UNIQUE(source, target, kind)
);
CREATE INDEX IF NOT EXISTS idx_word_edges_source ON word_edges(source);
CREATE INDEX IF NOT EXISTS idx_word_edges_target ON word_edges(target);
`

// #endregion schema

// #region types

// Edge kinds.
const (
	KindCoOccurs = "co_occurs"
	KindHeardIn  = "heard_in"
)

// PhaseNode names the node a word links to through KindHeardIn.
func PhaseNode(phase string) string { return "phase:" + phase }

// DefaultWindow is how many following words a word is linked to.
const DefaultWindow = 3

// Edge is a weighted link between two nodes.
type Edge struct {
	ID        int64
	Source    string
	Target    string
	Kind      string
	Weight    float64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// WalkResult holds an ordered path from a graph walk.
type WalkResult struct {
	Nodes  []string  // node names in walk order
	Scores []float64 // cumulative scores at each node
}

// Store manages the word_edges table.
type Store struct {
	db     *sql.DB
	window int
	delta  float64
}

// #endregion types

// #region constructor

// NewStore creates tables and returns a Store.
func NewStore(db *sql.DB) (*Store, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("graph schema: %w", err)
	}
	return &Store{db: db, window: DefaultWindow, delta: 0.1}, nil
}

// #endregion constructor

// #region reinforce

// Reinforce raises the weight of an edge by delta, capped at 1.0. A missing
// edge is created with weight=delta.
func (g *Store) Reinforce(ctx context.Context, source, target, kind string, delta float64, now time.Time) error {
	ts := now.UTC().Format(time.RFC3339)
	_, err := g.db.ExecContext(ctx,
		`INSERT INTO word_edges (source, target, kind, weight, created_at, updated_at)
		 VALUES (?, ?, ?, MIN(1.0, ?), ?, ?)
		 ON CONFLICT(source, target, kind) DO UPDATE SET
		   weight = MIN(1.0, word_edges.weight + ?),
		   updated_at = ?`,
		source, target, kind, delta, ts, ts,
		delta, ts,
	)
	if err != nil {
		return fmt.Errorf("reinforce %s->%s: %w", source, target, err)
	}
	return nil
}

// LinkSentence links each word to the next few words in both directions and
// to the phase it was heard in, in one transaction.
func (g *Store) LinkSentence(ctx context.Context, words []string, phase string, now time.Time) error {
	if len(words) == 0 {
		return nil
	}
	tx, err := g.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	exec := func(source, target, kind string) error {
		return g.reinforceTx(ctx, tx, source, target, kind, now)
	}
	for i, w := range words {
		if phase != "" {
			if err := exec(w, PhaseNode(phase), KindHeardIn); err != nil {
				return err
			}
		}
		for j := i + 1; j < len(words) && j <= i+g.window; j++ {
			if words[j] == w {
				continue
			}
			if err := exec(w, words[j], KindCoOccurs); err != nil {
				return err
			}
			if err := exec(words[j], w, KindCoOccurs); err != nil {
				return err
			}
		}
	}
	return tx.Commit()
}

func (g *Store) reinforceTx(ctx context.Context, tx *sql.Tx, source, target, kind string, now time.Time) error {
	ts := now.UTC().Format(time.RFC3339)
	_, err := tx.ExecContext(ctx,
		`INSERT INTO word_edges (source, target, kind, weight, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(source, target, kind) DO UPDATE SET
		   weight = MIN(1.0, word_edges.weight + ?),
		   updated_at = ?`,
		source, target, kind, g.delta, ts, ts,
		g.delta, ts,
	)
	if err != nil {
		return fmt.Errorf("link %s->%s: %w", source, target, err)
	}
	return nil
}

// #endregion reinforce

// #region neighbors

// Neighbors returns all edges from node with weight >= minWeight, heaviest first.
func (g *Store) Neighbors(ctx context.Context, node string, minWeight float64) ([]Edge, error) {
	rows, err := g.db.QueryContext(ctx,
		`SELECT id, source, target, kind, weight, created_at, updated_at
		 FROM word_edges
		 WHERE source = ? AND weight >= ?
		 ORDER BY weight DESC, target ASC`,
		node, minWeight,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var edges []Edge
	for rows.Next() {
		var e Edge
		var createdAt, updatedAt string
		if err := rows.Scan(&e.ID, &e.Source, &e.Target, &e.Kind, &e.Weight, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		e.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		edges = append(edges, e)
	}
	return edges, rows.Err()
}

// #endregion neighbors

// #region walk

// Walk performs a BFS from entry over co-occurrence edges with weight >=
// minWeight, up to maxDepth hops and maxNodes total. Returns nodes in visit
// order with cumulative scores.
func (g *Store) Walk(ctx context.Context, entry string, maxDepth int, minWeight float64, maxNodes int) (WalkResult, error) {
	if maxDepth <= 0 {
		maxDepth = 3
	}
	if maxNodes <= 0 {
		maxNodes = 10
	}

	result := WalkResult{
		Nodes:  []string{entry},
		Scores: []float64{1.0},
	}
	visited := map[string]bool{entry: true}

	type queueItem struct {
		node  string
		depth int
		score float64
	}
	queue := []queueItem{{entry, 0, 1.0}}

	for len(queue) > 0 && len(result.Nodes) < maxNodes {
		current := queue[0]
		queue = queue[1:]
		if current.depth >= maxDepth {
			continue
		}

		neighbors, err := g.Neighbors(ctx, current.node, minWeight)
		if err != nil {
			return result, fmt.Errorf("walk neighbors: %w", err)
		}
		for _, edge := range neighbors {
			if len(result.Nodes) >= maxNodes {
				break
			}
			if edge.Kind != KindCoOccurs || visited[edge.Target] {
				continue
			}
			visited[edge.Target] = true
			score := current.score * edge.Weight
			result.Nodes = append(result.Nodes, edge.Target)
			result.Scores = append(result.Scores, score)
			queue = append(queue, queueItem{edge.Target, current.depth + 1, score})
		}
	}
	return result, nil
}

// #endregion walk

// #region decay

// Decay applies exponential decay to every edge based on the time since its
// last update. Edges that fall below 0.01 are deleted; the count is returned.
func (g *Store) Decay(ctx context.Context, halfLife time.Duration, now time.Time) (int64, error) {
	if halfLife <= 0 {
		return 0, fmt.Errorf("decay: half-life must be positive")
	}
	rows, err := g.db.QueryContext(ctx, `SELECT id, weight, updated_at FROM word_edges`)
	if err != nil {
		return 0, err
	}

	type decayItem struct {
		id     int64
		weight float64
	}
	var updates []decayItem
	var deletes []int64

	for rows.Next() {
		var id int64
		var weight float64
		var updatedAt string
		if err := rows.Scan(&id, &weight, &updatedAt); err != nil {
			rows.Close()
			return 0, err
		}
		t, _ := time.Parse(time.RFC3339, updatedAt)
		age := now.Sub(t).Seconds()
		if age <= 0 {
			continue
		}
		decayed := weight * math.Exp(-age*math.Ln2/halfLife.Seconds())
		if decayed < 0.01 {
			deletes = append(deletes, id)
		} else {
			updates = append(updates, decayItem{id, decayed})
		}
	}
	rows.Close()

	tx, err := g.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	ts := now.UTC().Format(time.RFC3339)
	for _, u := range updates {
		if _, err := tx.ExecContext(ctx, `UPDATE word_edges SET weight = ?, updated_at = ? WHERE id = ?`, u.weight, ts, u.id); err != nil {
			return 0, err
		}
	}
	for _, id := range deletes {
		if _, err := tx.ExecContext(ctx, `DELETE FROM word_edges WHERE id = ?`, id); err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit decay: %w", err)
	}
	return int64(len(deletes)), nil
}

// #endregion decay

// #region sever

// Sever deletes every edge touching node.
func (g *Store) Sever(ctx context.Context, node string) error {
	_, err := g.db.ExecContext(ctx,
		`DELETE FROM word_edges WHERE source = ? OR target = ?`,
		node, node,
	)
	return err
}

// #endregion sever
