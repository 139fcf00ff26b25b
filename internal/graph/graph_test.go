package graph

import (
	"context"
	"database/sql"
	"math"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func setupStore(t *testing.T) *Store {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "graph.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	g, err := NewStore(db)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return g
}

// #region test-reinforce
func TestReinforceCapsAtOne(t *testing.T) {
	ctx := context.Background()
	g := setupStore(t)

	if err := g.Reinforce(ctx, "a", "b", KindCoOccurs, 0.4, t0); err != nil {
		t.Fatalf("reinforce: %v", err)
	}
	edges, err := g.Neighbors(ctx, "a", 0)
	if err != nil {
		t.Fatalf("neighbors: %v", err)
	}
	if len(edges) != 1 || math.Abs(edges[0].Weight-0.4) > 1e-9 {
		t.Fatalf("unexpected edges %+v", edges)
	}

	for i := 0; i < 5; i++ {
		if err := g.Reinforce(ctx, "a", "b", KindCoOccurs, 0.4, t0); err != nil {
			t.Fatalf("reinforce: %v", err)
		}
	}
	edges, _ = g.Neighbors(ctx, "a", 0)
	if len(edges) != 1 || edges[0].Weight != 1.0 {
		t.Fatalf("expected weight capped at 1.0, got %+v", edges)
	}
}

// #endregion test-reinforce

// #region test-link
func TestLinkSentence(t *testing.T) {
	ctx := context.Background()
	g := setupStore(t)

	if err := g.LinkSentence(ctx, []string{"little", "star", "glow"}, "chaotic", t0); err != nil {
		t.Fatalf("link: %v", err)
	}

	edges, err := g.Neighbors(ctx, "star", 0)
	if err != nil {
		t.Fatalf("neighbors: %v", err)
	}
	kinds := map[string]string{}
	for _, e := range edges {
		kinds[e.Target] = e.Kind
	}
	if kinds["little"] != KindCoOccurs || kinds["glow"] != KindCoOccurs {
		t.Fatalf("expected co-occurrence both ways, got %+v", kinds)
	}
	if kinds[PhaseNode("chaotic")] != KindHeardIn {
		t.Fatalf("expected heard_in edge, got %+v", kinds)
	}
}

func TestLinkSentenceRespectsWindow(t *testing.T) {
	ctx := context.Background()
	g := setupStore(t)
	words := []string{"a", "b", "c", "d", "e"}
	if err := g.LinkSentence(ctx, words, "", t0); err != nil {
		t.Fatalf("link: %v", err)
	}
	edges, _ := g.Neighbors(ctx, "a", 0)
	if len(edges) != DefaultWindow {
		t.Fatalf("expected %d neighbors of a, got %d", DefaultWindow, len(edges))
	}
	for _, e := range edges {
		if e.Target == "e" {
			t.Fatal("e is outside the window of a")
		}
	}
}

// #endregion test-link

// #region test-walk
func TestWalk(t *testing.T) {
	ctx := context.Background()
	g := setupStore(t)

	// a -> b (0.8) -> c (0.5); a -> d (0.3); phase edges are never walked
	g.Reinforce(ctx, "a", "b", KindCoOccurs, 0.8, t0)
	g.Reinforce(ctx, "b", "c", KindCoOccurs, 0.5, t0)
	g.Reinforce(ctx, "a", "d", KindCoOccurs, 0.3, t0)
	g.Reinforce(ctx, "a", PhaseNode("stable"), KindHeardIn, 0.9, t0)

	res, err := g.Walk(ctx, "a", 3, 0.2, 10)
	if err != nil {
		t.Fatalf("walk: %v", err)
	}
	want := []string{"a", "b", "d", "c"}
	if len(res.Nodes) != len(want) {
		t.Fatalf("expected %v, got %v", want, res.Nodes)
	}
	for i := range want {
		if res.Nodes[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, res.Nodes)
		}
	}
	if math.Abs(res.Scores[3]-0.4) > 1e-9 {
		t.Errorf("expected cumulative score 0.4 for c, got %f", res.Scores[3])
	}

	limited, _ := g.Walk(ctx, "a", 3, 0.2, 2)
	if len(limited.Nodes) != 2 {
		t.Errorf("expected maxNodes=2 to stop the walk, got %v", limited.Nodes)
	}
}

// #endregion test-walk

// #region test-decay
func TestDecay(t *testing.T) {
	ctx := context.Background()
	g := setupStore(t)

	g.Reinforce(ctx, "a", "b", KindCoOccurs, 0.8, t0)
	g.Reinforce(ctx, "a", "c", KindCoOccurs, 0.015, t0)

	deleted, err := g.Decay(ctx, time.Hour, t0.Add(time.Hour))
	if err != nil {
		t.Fatalf("decay: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("expected 1 deleted edge, got %d", deleted)
	}
	edges, _ := g.Neighbors(ctx, "a", 0)
	if len(edges) != 1 || math.Abs(edges[0].Weight-0.4) > 1e-6 {
		t.Fatalf("expected b halved to 0.4, got %+v", edges)
	}

	if _, err := g.Decay(ctx, 0, t0); err == nil {
		t.Fatal("expected error for zero half-life")
	}
}

// #endregion test-decay

// #region test-sever
func TestSever(t *testing.T) {
	ctx := context.Background()
	g := setupStore(t)
	g.Reinforce(ctx, "a", "b", KindCoOccurs, 0.5, t0)
	g.Reinforce(ctx, "b", "c", KindCoOccurs, 0.5, t0)

	if err := g.Sever(ctx, "b"); err != nil {
		t.Fatalf("sever: %v", err)
	}
	for _, n := range []string{"a", "b"} {
		if edges, _ := g.Neighbors(ctx, n, 0); len(edges) != 0 {
			t.Fatalf("expected no edges from %s, got %+v", n, edges)
		}
	}
}

// #endregion test-sever
