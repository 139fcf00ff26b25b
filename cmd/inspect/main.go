package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/abdeljalil-sr/NeuralSeed-sub000/internal/graph"
	"github.com/abdeljalil-sr/NeuralSeed-sub000/internal/logging"
	"github.com/abdeljalil-sr/NeuralSeed-sub000/internal/state"
	"github.com/abdeljalil-sr/NeuralSeed-sub000/internal/store"
	_ "modernc.org/sqlite"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to neuralseed.db")
	last := flag.Int("last", 20, "show N most recent versions or events")
	version := flag.String("version", "", "show single snapshot detail")
	eventsMode := flag.Bool("events", false, "list the event journal instead of snapshots")
	kind := flag.String("kind", "", "filter events by kind (phase_transition, ego_shift, ...)")
	word := flag.String("word", "", "walk the word association graph from this word")
	depth := flag.Int("depth", 2, "max hops for --word")
	jsonOut := flag.Bool("json", false, "output as JSON instead of table")
	flag.Parse()

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "usage: inspect --db path/to/neuralseed.db [--last N] [--version id] [--events [--kind k]] [--word w [--depth N]] [--json]")
		os.Exit(2)
	}

	db, err := store.New(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx := context.Background()
	switch {
	case *word != "":
		err = runWordMode(ctx, db, *word, *depth, *last, *jsonOut)
	case *eventsMode:
		err = runEventsMode(db, *kind, *last, *jsonOut)
	case *version != "":
		err = runDetailMode(ctx, db, *version, *jsonOut)
	default:
		err = runListMode(ctx, db, *last, *jsonOut)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region list-mode

type listRow struct {
	VersionID string  `json:"version_id"`
	Phase     string  `json:"phase"`
	Chaos     float64 `json:"chaos_index"`
	Fitness   float64 `json:"fitness"`
	Conflict  float64 `json:"conflict"`
	Dominant  string  `json:"dominant_ego"`
	CreatedAt string  `json:"created_at"`
}

func runListMode(ctx context.Context, db *store.Store, last int, jsonOut bool) error {
	versions, err := db.ListVersions(ctx, last)
	if err != nil {
		return err
	}
	if len(versions) == 0 {
		fmt.Fprintln(os.Stderr, "no snapshots found")
		return nil
	}

	// Store returns DESC, reverse for chronological.
	rows := make([]listRow, len(versions))
	for i, v := range versions {
		rows[len(versions)-1-i] = listRow{
			VersionID: v.VersionID,
			Phase:     string(v.Phase),
			Chaos:     v.ChaosIndex,
			Fitness:   v.Fitness,
			Conflict:  v.Conflict,
			Dominant:  v.DominantEgo,
			CreatedAt: v.CreatedAt.Format("2006-01-02T15:04:05Z"),
		}
	}

	if jsonOut {
		return printJSON(rows)
	}

	fmt.Printf("%-10s  %-14s  %6s  %7s  %8s  %-20s  %s\n",
		"Version", "Phase", "Chaos", "Fitness", "Conflict", "Dominant", "Time")
	fmt.Printf("%-10s+-%-14s+-%6s+-%7s+-%8s+-%-20s+-%s\n",
		"----------", "--------------", "------", "-------", "--------", "--------------------", "--------------------")
	for _, r := range rows {
		fmt.Printf("%-10s  %-14s  %6.3f  %7.3f  %8.3f  %-20s  %s\n",
			shortID(r.VersionID), r.Phase, r.Chaos, r.Fitness, r.Conflict, r.Dominant, r.CreatedAt)
	}
	return nil
}

// #endregion list-mode

// #region detail-mode

type detailOutput struct {
	VersionID string             `json:"version_id"`
	ParentID  string             `json:"parent_id"`
	CreatedAt string             `json:"created_at"`
	Phase     string             `json:"phase"`
	Reason    string             `json:"phase_reason"`
	Chaos     float64            `json:"chaos_index"`
	Fitness   float64            `json:"fitness"`
	Conflict  float64            `json:"conflict"`
	Dominant  string             `json:"dominant_ego"`
	Egos      []egoRow           `json:"egos"`
	Identity  map[string]float64 `json:"identity"`
	Rules     int                `json:"rules"`
	Goals     []state.Goal       `json:"goals"`
	Memories  int                `json:"memories"`
	Narrative string             `json:"narrative,omitempty"`
}

type egoRow struct {
	Name     string  `json:"name"`
	Type     string  `json:"type"`
	Strength float64 `json:"strength"`
}

func runDetailMode(ctx context.Context, db *store.Store, versionID string, jsonOut bool) error {
	snap, info, err := db.GetVersion(ctx, versionID)
	if err != nil {
		return err
	}

	out := detailOutput{
		VersionID: info.VersionID,
		ParentID:  info.ParentID,
		CreatedAt: info.CreatedAt.Format("2006-01-02T15:04:05Z"),
		Phase:     string(snap.Phase),
		Reason:    snap.PhaseReason,
		Chaos:     snap.ChaosIndex,
		Fitness:   snap.Fitness,
		Conflict:  snap.Conflict,
		Dominant:  info.DominantEgo,
		Identity:  snap.Identity.Values,
		Rules:     snap.Identity.Rules.Len(),
		Goals:     snap.Goals,
		Memories:  len(snap.Memories),
		Narrative: snap.Narrative,
	}
	for _, e := range snap.Egos {
		out.Egos = append(out.Egos, egoRow{Name: e.Name, Type: string(e.Type), Strength: e.Strength})
	}

	if jsonOut {
		return printJSON(out)
	}

	fmt.Printf("Version:    %s\n", out.VersionID)
	fmt.Printf("Parent:     %s\n", out.ParentID)
	fmt.Printf("Created:    %s\n", out.CreatedAt)
	fmt.Printf("Phase:      %s (%s)\n", out.Phase, out.Reason)
	fmt.Printf("Chaos:      %.4f\n", out.Chaos)
	fmt.Printf("Fitness:    %.4f\n", out.Fitness)
	fmt.Printf("Conflict:   %.4f\n", out.Conflict)
	fmt.Printf("Memories:   %d\n", out.Memories)
	fmt.Printf("Rules:      %d\n", out.Rules)

	fmt.Printf("\nEgos:\n")
	for _, e := range out.Egos {
		marker := " "
		if e.Name == out.Dominant {
			marker = "*"
		}
		fmt.Printf(" %s %-20s %-9s %.3f\n", marker, e.Name, e.Type, e.Strength)
	}

	fmt.Printf("\nIdentity:\n")
	printTraits(out.Identity)

	if len(out.Goals) > 0 {
		fmt.Printf("\nGoals:\n")
		for _, g := range out.Goals {
			fmt.Printf("  %-12s %5.1f%%  %s\n", g.Type, g.Progress*100, g.Description)
		}
	}
	if out.Narrative != "" {
		fmt.Printf("\nNarrative:\n  %s\n", out.Narrative)
	}
	return nil
}

// #endregion detail-mode

// #region events-mode

func runEventsMode(db *store.Store, kind string, last int, jsonOut bool) error {
	if err := logging.InitSchema(db.DB()); err != nil {
		return err
	}
	entries, err := logging.Recent(db.DB(), kind, last)
	if err != nil {
		return err
	}
	if jsonOut {
		return printJSON(entries)
	}
	if len(entries) == 0 {
		fmt.Fprintln(os.Stderr, "no events found")
		return nil
	}
	fmt.Printf("%-20s  %-18s  %-14s  %s\n", "Time", "Kind", "Phase", "Summary")
	fmt.Printf("%-20s+-%-18s+-%-14s+-%s\n", "--------------------", "------------------", "--------------", "--------")
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		fmt.Printf("%-20s  %-18s  %-14s  %s\n",
			e.CreatedAt.Format("2006-01-02T15:04:05Z"), e.Kind, e.Phase, e.Summary)
	}
	return nil
}

// #endregion events-mode

// #region word-mode

type wordRow struct {
	Word  string  `json:"word"`
	Score float64 `json:"score"`
}

type wordOutput struct {
	Word       string    `json:"word"`
	Phases     []wordRow `json:"phases"`
	Associated []wordRow `json:"associated"`
}

func runWordMode(ctx context.Context, db *store.Store, word string, depth, last int, jsonOut bool) error {
	g, err := graph.NewStore(db.DB())
	if err != nil {
		return err
	}
	edges, err := g.Neighbors(ctx, word, 0)
	if err != nil {
		return err
	}
	out := wordOutput{Word: word}
	for _, e := range edges {
		if e.Kind == graph.KindHeardIn {
			out.Phases = append(out.Phases, wordRow{Word: strings.TrimPrefix(e.Target, graph.PhaseNode("")), Score: e.Weight})
		}
	}
	walk, err := g.Walk(ctx, word, depth, 0.05, last+1)
	if err != nil {
		return err
	}
	for i := 1; i < len(walk.Nodes); i++ {
		out.Associated = append(out.Associated, wordRow{Word: walk.Nodes[i], Score: walk.Scores[i]})
	}

	if jsonOut {
		return printJSON(out)
	}
	if len(edges) == 0 {
		fmt.Fprintf(os.Stderr, "no associations for %q\n", word)
		return nil
	}
	fmt.Printf("Word: %s\n", word)
	if len(out.Phases) > 0 {
		fmt.Printf("\nHeard in:\n")
		for _, p := range out.Phases {
			fmt.Printf("  %-14s %.3f\n", p.Word, p.Score)
		}
	}
	if len(out.Associated) > 0 {
		fmt.Printf("\nAssociations:\n")
		for _, a := range out.Associated {
			fmt.Printf("  %-20s %.4f\n", a.Word, a.Score)
		}
	}
	return nil
}

// #endregion word-mode

// #region output

func printTraits(values map[string]float64) {
	seen := map[string]bool{}
	for _, t := range state.Traits {
		if v, ok := values[t]; ok {
			fmt.Printf("  %-14s %.4f\n", t, v)
			seen[t] = true
		}
	}
	var extra []string
	for t := range values {
		if !seen[t] {
			extra = append(extra, t)
		}
	}
	sort.Strings(extra)
	for _, t := range extra {
		fmt.Printf("  %-14s %.4f\n", t, values[t])
	}
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// #endregion output
