package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/abdeljalil-sr/NeuralSeed-sub000/internal/codec"
	"github.com/abdeljalil-sr/NeuralSeed-sub000/internal/config"
	"github.com/abdeljalil-sr/NeuralSeed-sub000/internal/graph"
	"github.com/abdeljalil-sr/NeuralSeed-sub000/internal/input"
	"github.com/abdeljalil-sr/NeuralSeed-sub000/internal/interior"
	"github.com/abdeljalil-sr/NeuralSeed-sub000/internal/lexicon"
	"github.com/abdeljalil-sr/NeuralSeed-sub000/internal/logging"
	"github.com/abdeljalil-sr/NeuralSeed-sub000/internal/ports"
	"github.com/abdeljalil-sr/NeuralSeed-sub000/internal/sim"
	"github.com/abdeljalil-sr/NeuralSeed-sub000/internal/state"
	"github.com/abdeljalil-sr/NeuralSeed-sub000/internal/store"
	"github.com/abdeljalil-sr/NeuralSeed-sub000/internal/tui"
)

// #region main
func main() {
	configPath := flag.String("config", "neuralseed.yaml", "path to YAML configuration")
	initConfig := flag.Bool("init-config", false, "write the default configuration and exit")
	useTUI := flag.Bool("tui", false, "run the terminal dashboard instead of the line console")
	flag.Parse()

	if *initConfig {
		if err := config.WriteDefault(*configPath); err != nil {
			log.Fatalf("write config: %v", err)
		}
		fmt.Printf("wrote %s\n", *configPath)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("%v", err)
	}

	logger := log.New(os.Stderr, "neuralseed ", log.LstdFlags)
	if *useTUI {
		// The dashboard owns the terminal; diagnostics go next to the database.
		f, err := os.OpenFile(cfg.DBPath+".log", os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			logger.SetOutput(io.Discard)
		} else {
			defer f.Close()
			logger.SetOutput(f)
		}
	}

	if err := run(cfg, logger, *useTUI); err != nil {
		logger.Fatalf("%v", err)
	}
}

// #endregion main

// #region run
func run(cfg config.Config, logger *log.Logger, useTUI bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := store.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer db.Close()

	journal, err := interior.NewJournal(db.DB())
	if err != nil {
		return fmt.Errorf("narrative journal: %w", err)
	}

	words, err := graph.NewStore(db.DB())
	if err != nil {
		return fmt.Errorf("word graph: %w", err)
	}

	ling, persistLing, closeLing, err := linguistic(ctx, cfg, db, words)
	if err != nil {
		return err
	}
	defer closeLing()

	s := sim.New(cfg.Sim(),
		sim.WithLogger(logger),
		sim.WithLinguistic(ling),
		sim.WithJournal(journal),
	)
	defer s.Close()

	events, err := logging.NewJournal(db.DB(), logger)
	if err != nil {
		return fmt.Errorf("event journal: %w", err)
	}
	sub := s.Subscribe(events)
	defer sub.Close()

	if err := s.Start(ctx); err != nil {
		return fmt.Errorf("start simulation: %w", err)
	}

	persister := &persister{sim: s, store: db, linguistic: persistLing, words: words, logger: logger}
	go persister.loop(ctx, cfg.PersistInterval)

	logger.Printf("ready. db=%s codec=%q seed=%d", cfg.DBPath, cfg.CodecAddr, cfg.Seed)
	if useTUI {
		err = runDashboard(ctx, s)
	} else {
		err = runConsole(ctx, s, os.Stdin, os.Stdout)
	}

	if stopErr := s.Stop(); stopErr != nil && !errors.Is(stopErr, sim.ErrNotRunning) {
		logger.Printf("stop: %v", stopErr)
	}
	// Final save uses a fresh context so an interrupt still persists.
	persister.save(context.Background())
	return err
}

// linguistic picks the gRPC language service when configured and the
// in-process lexicon otherwise. Only the lexicon feeds the word graph.
func linguistic(ctx context.Context, cfg config.Config, db *store.Store, words *graph.Store) (ports.Linguistic, func(context.Context) error, func(), error) {
	if cfg.CodecAddr != "" {
		client, err := codec.NewClient(cfg.CodecAddr)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to connect to language service at %s: %w", cfg.CodecAddr, err)
		}
		refresh := func(ctx context.Context) error {
			_, err := client.RefreshVocabulary(ctx)
			return err
		}
		return client, refresh, func() { client.Close() }, nil
	}
	lex, err := lexicon.Load(ctx, db.DB())
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load lexicon: %w", err)
	}
	lex.SetLinker(words)
	persist := func(ctx context.Context) error { return lex.Persist(ctx, db.DB()) }
	return lex, persist, func() {}, nil
}

// #endregion run

// #region persistence

// wordHalfLife is how long an unreinforced word association takes to halve.
const wordHalfLife = 24 * time.Hour

type persister struct {
	sim        *sim.Simulation
	store      ports.Persistence
	linguistic func(context.Context) error
	words      *graph.Store
	logger     *log.Logger
}

func (p *persister) loop(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.save(ctx)
		}
	}
}

// save writes a snapshot, its memories and the vocabulary. Failures are
// logged and otherwise ignored.
func (p *persister) save(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	snap, err := p.sim.GetCurrentState(ctx)
	if err != nil {
		p.logger.Printf("persist: snapshot: %v", err)
		return
	}
	if err := p.store.SaveSnapshot(ctx, snap); err != nil {
		p.logger.Printf("persist: save snapshot: %v", err)
	}
	if err := p.store.SaveMemories(ctx, snap.Memories); err != nil {
		p.logger.Printf("persist: save memories: %v", err)
	}
	if p.linguistic != nil {
		if err := p.linguistic(ctx); err != nil {
			p.logger.Printf("persist: vocabulary: %v", err)
		}
	}
	if p.words != nil {
		pruned, err := p.words.Decay(ctx, wordHalfLife, snap.TakenAt)
		if err != nil {
			p.logger.Printf("persist: word graph decay: %v", err)
		} else if pruned > 0 {
			p.logger.Printf("persist: pruned %d word associations", pruned)
		}
	}
}

// #endregion persistence

// #region console
func runConsole(ctx context.Context, s *sim.Simulation, in io.Reader, out io.Writer) error {
	fmt.Fprintln(out, "NeuralSeed is alive. Speak to it, or /help for commands.")

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		fmt.Fprint(out, "> ")
		var line string
		select {
		case <-ctx.Done():
			fmt.Fprintln(out)
			return nil
		case l, ok := <-lines:
			if !ok {
				return nil
			}
			line = l
		}

		cmd, err := input.ParseLine(line)
		if errors.Is(err, input.ErrEmptyLine) {
			continue
		}
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			continue
		}
		switch cmd.Control {
		case input.ControlQuit:
			return nil
		case input.ControlHelp:
			fmt.Fprintln(out, input.Usage)
		case input.ControlState:
			snap, err := s.GetCurrentState(ctx)
			if err != nil {
				fmt.Fprintf(out, "error: %v\n", err)
				continue
			}
			printState(out, snap)
		case input.ControlRebirth:
			if err := s.Rebirth(ctx); err != nil {
				fmt.Fprintf(out, "error: %v\n", err)
				continue
			}
			fmt.Fprintln(out, "reborn.")
		default:
			i := cmd.Input
			s.SubmitInput(i.Kind, sim.Payload{Text: i.Text, X: i.X, Y: i.Y}, i.Intensity)
		}
	}
}

func printState(out io.Writer, snap state.Snapshot) {
	fmt.Fprintf(out, "phase=%s (%s)\n", snap.Phase, snap.PhaseReason)
	fmt.Fprintf(out, "fitness=%.3f chaos=%.3f conflict=%.3f plasticity=%.2f\n",
		snap.Fitness, snap.ChaosIndex, snap.Conflict, snap.Neural.Plasticity)
	fmt.Fprintf(out, "dominant=%s memories=%d pending=%d goals=%d achieved=%d rules=%d\n",
		snap.DominantEgo().Name, len(snap.Memories), snap.PendingInputs, len(snap.Goals),
		snap.GoalsAchieved, snap.Identity.Rules.Len())
	if snap.Narrative != "" {
		fmt.Fprintf(out, "%q\n", snap.Narrative)
	}
}

// #endregion console

// #region dashboard
func runDashboard(ctx context.Context, s *sim.Simulation) error {
	sink := tui.NewSink(128)
	defer sink.Close()
	sub := s.Subscribe(sink.Listener())
	defer sub.Close()

	p := tea.NewProgram(tui.New(s, sink), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// #endregion dashboard
