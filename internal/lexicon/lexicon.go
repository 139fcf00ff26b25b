package lexicon

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/abdeljalil-sr/NeuralSeed-sub000/internal/state"
)

// #region types

// Word is one learned token with the emotional context it was last heard in.
type Word struct {
	Text      string
	Count     int
	Phase     state.Phase
	FirstSeen time.Time
}

// Linker records associations between the words of one sentence.
// graph.Store satisfies it.
type Linker interface {
	LinkSentence(ctx context.Context, words []string, phase string, now time.Time) error
}

// #endregion types

// #region lexicon

// Lexicon is the in-process language collaborator: it learns word counts
// from submitted sentences. VocabularySize is lock-free.
type Lexicon struct {
	mu     sync.Mutex
	words  map[string]*Word
	size   atomic.Int64
	linker Linker
}

// New creates an empty lexicon.
func New() *Lexicon {
	return &Lexicon{words: map[string]*Word{}}
}

// SetLinker attaches an association store. Call before the lexicon is shared.
func (l *Lexicon) SetLinker(g Linker) {
	l.mu.Lock()
	l.linker = g
	l.mu.Unlock()
}

// LearnSentence records every content word of text, then hands the tokens to
// the linker if one is attached.
func (l *Lexicon) LearnSentence(ctx context.Context, text string, snap state.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tokens := Tokenize(text)
	l.mu.Lock()
	for _, t := range tokens {
		w, ok := l.words[t]
		if !ok {
			w = &Word{Text: t, FirstSeen: snap.TakenAt}
			l.words[t] = w
		}
		w.Count++
		w.Phase = snap.Phase
	}
	l.size.Store(int64(len(l.words)))
	linker := l.linker
	l.mu.Unlock()

	if linker == nil || len(tokens) == 0 {
		return nil
	}
	if err := linker.LinkSentence(ctx, tokens, string(snap.Phase), snap.TakenAt); err != nil {
		return fmt.Errorf("link sentence: %w", err)
	}
	return nil
}

// VocabularySize returns the number of distinct learned words.
func (l *Lexicon) VocabularySize() int {
	return int(l.size.Load())
}

// Familiarity is the fraction of text's content words already known.
func (l *Lexicon) Familiarity(text string) float64 {
	tokens := Tokenize(text)
	if len(tokens) == 0 {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	known := 0
	for _, t := range tokens {
		if _, ok := l.words[t]; ok {
			known++
		}
	}
	return float64(known) / float64(len(tokens))
}

// Top returns up to n words by count, ties broken alphabetically.
func (l *Lexicon) Top(n int) []Word {
	l.mu.Lock()
	out := make([]Word, 0, len(l.words))
	for _, w := range l.words {
		out = append(out, *w)
	}
	l.mu.Unlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Text < out[j].Text
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// #endregion lexicon

// #region persistence

// Persist writes the vocabulary into the lexicon table of db.
func (l *Lexicon) Persist(ctx context.Context, db *sql.DB) error {
	if err := initTable(ctx, db); err != nil {
		return err
	}
	words := l.Top(-1)
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()
	for _, w := range words {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO lexicon (word, count, phase, first_seen) VALUES (?, ?, ?, ?)
			 ON CONFLICT(word) DO UPDATE SET count = excluded.count, phase = excluded.phase`,
			w.Text, w.Count, string(w.Phase), w.FirstSeen.UTC().Format(time.RFC3339Nano),
		); err != nil {
			return fmt.Errorf("persist word %q: %w", w.Text, err)
		}
	}
	return tx.Commit()
}

// Load reads a previously persisted vocabulary from db.
func Load(ctx context.Context, db *sql.DB) (*Lexicon, error) {
	if err := initTable(ctx, db); err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, `SELECT word, count, phase, first_seen FROM lexicon`)
	if err != nil {
		return nil, fmt.Errorf("load lexicon: %w", err)
	}
	defer rows.Close()

	l := New()
	for rows.Next() {
		var w Word
		var phase, firstSeen string
		if err := rows.Scan(&w.Text, &w.Count, &phase, &firstSeen); err != nil {
			return nil, fmt.Errorf("scan word: %w", err)
		}
		w.Phase = state.Phase(phase)
		w.FirstSeen, _ = time.Parse(time.RFC3339Nano, firstSeen)
		l.words[w.Text] = &w
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load lexicon: %w", err)
	}
	l.size.Store(int64(len(l.words)))
	return l, nil
}

func initTable(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS lexicon (
		word TEXT PRIMARY KEY,
		count INTEGER NOT NULL,
		phase TEXT NOT NULL,
		first_seen TEXT NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("init lexicon table: %w", err)
	}
	return nil
}

// #endregion persistence
