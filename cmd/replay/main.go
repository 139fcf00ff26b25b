package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/abdeljalil-sr/NeuralSeed-sub000/internal/config"
	"github.com/abdeljalil-sr/NeuralSeed-sub000/internal/replay"
)

// #region main

func main() {
	fixturePath := flag.String("fixture", "", "path to input script JSON")
	configPath := flag.String("config", "", "optional YAML configuration")
	seed := flag.Int64("seed", 0, "override the fixture seed")
	asJSON := flag.Bool("json", false, "print the summary as JSON")
	flag.Parse()

	if *fixturePath == "" {
		fmt.Fprintln(os.Stderr, "usage: replay --fixture path/to/script.json [--config neuralseed.yaml] [--seed N] [--json]")
		os.Exit(2)
	}
	os.Exit(run(*fixturePath, *configPath, *seed, *asJSON))
}

// #endregion main

// #region run

func run(fixturePath, configPath string, seed int64, asJSON bool) int {
	f, err := replay.LoadFixture(fixturePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load fixture: %v\n", err)
		return 2
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		return 2
	}
	if seed != 0 {
		f.Seed = seed
	}

	summary, err := replay.Run(context.Background(), f, cfg.Sim())
	if err != nil {
		fmt.Fprintf(os.Stderr, "replay: %v\n", err)
		return 2
	}
	mismatches := summary.Compare(f.Expected)

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(map[string]any{"summary": summary, "mismatches": mismatches}); err != nil {
			fmt.Fprintf(os.Stderr, "encode: %v\n", err)
			return 2
		}
	} else {
		printSummary(f, summary, mismatches)
	}
	if len(mismatches) > 0 {
		return 1
	}
	return 0
}

// #endregion run

// #region output

func printSummary(f *replay.Fixture, s replay.Summary, mismatches []replay.Mismatch) {
	if f.Description != "" {
		fmt.Println(f.Description)
		fmt.Println()
	}
	fmt.Printf("%-22s %d\n", "Ticks:", s.Ticks)
	fmt.Printf("%-22s %d\n", "Memories formed:", s.Memories)
	fmt.Printf("%-22s %d\n", "Ego shifts:", s.EgoShifts)
	fmt.Printf("%-22s %d\n", "Goals achieved:", s.GoalsAchieved)
	fmt.Printf("%-22s %d\n", "Rules rewritten:", s.RulesRewritten)
	fmt.Printf("%-22s %d\n", "Identity evolutions:", s.IdentityEvolutions)
	fmt.Printf("%-22s %s (fitness %.3f, chaos %.3f, conflict %.3f)\n",
		"Final phase:", s.FinalPhase, s.Fitness, s.Chaos, s.Conflict)
	fmt.Printf("%-22s %s\n", "Dominant ego:", s.Dominant)

	fmt.Printf("\n%-14s| %-14s| %s\n", "From", "To", "Reason")
	fmt.Printf("%-14s+%-15s+%s\n", "--------------", "---------------", "--------")
	for _, p := range s.Phases {
		fmt.Printf("%-14s| %-14s| %s\n", p.From, p.To, p.Reason)
	}

	if len(mismatches) == 0 {
		fmt.Println("\nAll expectations met")
		return
	}
	fmt.Printf("\n%d expectation(s) failed:\n", len(mismatches))
	for _, m := range mismatches {
		fmt.Printf("  %s\n", m)
	}
}

// #endregion output
