package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/abdeljalil-sr/NeuralSeed-sub000/internal/state"
	_ "modernc.org/sqlite"
)

func tempDB(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := New(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testSnapshot(t *testing.T, phase state.Phase) state.Snapshot {
	t.Helper()
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	st := state.New(now, 0)
	st.Phase = phase
	st.ChaosIndex = 0.42
	st.AddMemory(state.Memory{ID: "m1", Kind: state.InputSpeech, Text: "hello", Importance: 0.7, CreatedAt: now})
	return st.Snapshot(now)
}

func TestCommitAndGetCurrent(t *testing.T) {
	s := tempDB(t)
	ctx := context.Background()

	id, err := s.Commit(ctx, testSnapshot(t, state.PhaseStable))
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if id == "" {
		t.Fatal("expected non-empty version ID")
	}

	snap, info, err := s.GetCurrent(ctx)
	if err != nil {
		t.Fatalf("GetCurrent: %v", err)
	}
	if info.VersionID != id {
		t.Fatalf("expected %s, got %s", id, info.VersionID)
	}
	if info.ParentID != "" {
		t.Fatalf("expected empty parent, got %s", info.ParentID)
	}
	if snap.Phase != state.PhaseStable {
		t.Fatalf("expected phase stable, got %s", snap.Phase)
	}
	if snap.ChaosIndex != 0.42 {
		t.Fatalf("expected chaos 0.42, got %f", snap.ChaosIndex)
	}
	if len(snap.Memories) != 1 || snap.Memories[0].Text != "hello" {
		t.Fatalf("memories not round-tripped: %+v", snap.Memories)
	}
	if info.DominantEgo != "Guardian" {
		t.Fatalf("expected dominant Guardian, got %s", info.DominantEgo)
	}
}

func TestCommitChainsParents(t *testing.T) {
	s := tempDB(t)
	ctx := context.Background()

	first, err := s.Commit(ctx, testSnapshot(t, state.PhaseEmbryonic))
	if err != nil {
		t.Fatalf("Commit first: %v", err)
	}
	second, err := s.Commit(ctx, testSnapshot(t, state.PhaseStable))
	if err != nil {
		t.Fatalf("Commit second: %v", err)
	}

	_, info, err := s.GetVersion(ctx, second)
	if err != nil {
		t.Fatalf("GetVersion: %v", err)
	}
	if info.ParentID != first {
		t.Fatalf("expected parent %s, got %s", first, info.ParentID)
	}

	versions, err := s.ListVersions(ctx, 10)
	if err != nil {
		t.Fatalf("ListVersions: %v", err)
	}
	if len(versions) != 2 {
		t.Fatalf("expected 2 versions, got %d", len(versions))
	}
}

func TestSaveMemoriesUpserts(t *testing.T) {
	s := tempDB(t)
	ctx := context.Background()
	now := time.Now()

	mems := []state.Memory{
		{ID: "a", Kind: state.InputPositive, Importance: 0.3, CreatedAt: now},
		{ID: "b", Kind: state.InputThreat, Importance: 0.9, CreatedAt: now},
	}
	if err := s.SaveMemories(ctx, mems); err != nil {
		t.Fatalf("SaveMemories: %v", err)
	}
	mems[0].Consolidated = true
	if err := s.SaveMemories(ctx, mems[:1]); err != nil {
		t.Fatalf("SaveMemories again: %v", err)
	}

	n, err := s.CountMemories(ctx)
	if err != nil {
		t.Fatalf("CountMemories: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 memories, got %d", n)
	}
}

func TestSaveMemoriesEmpty(t *testing.T) {
	s := tempDB(t)
	if err := s.SaveMemories(context.Background(), nil); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}

func TestNewInvalidPath(t *testing.T) {
	_, err := New(filepath.Join(string(os.PathSeparator), "nonexistent", "deep", "path", "test.db"))
	if err == nil {
		t.Fatal("expected error for invalid path")
	}
}

func TestGetVersionNotFound(t *testing.T) {
	s := tempDB(t)
	if _, _, err := s.GetVersion(context.Background(), "nonexistent-id"); err == nil {
		t.Fatal("expected error for nonexistent version")
	}
}

func TestGetCurrentNoActiveSnapshot(t *testing.T) {
	s := tempDB(t)
	if _, _, err := s.GetCurrent(context.Background()); err == nil {
		t.Fatal("expected error when no active snapshot exists")
	}
}

func TestDBAccessor(t *testing.T) {
	s := tempDB(t)
	if s.DB() == nil {
		t.Fatal("expected non-nil *sql.DB")
	}
}

func TestListVersionsRejectsCorruptTimestamp(t *testing.T) {
	s := tempDB(t)
	ctx := context.Background()
	id, err := s.Commit(ctx, testSnapshot(t, state.PhaseStable))
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if _, err := s.DB().Exec(`UPDATE snapshot_versions SET created_at = 'yesterday' WHERE version_id = ?`, id); err != nil {
		t.Fatalf("corrupt row: %v", err)
	}
	if _, err := s.ListVersions(ctx, 10); err == nil {
		t.Fatal("expected error for unparseable created_at")
	}
}
