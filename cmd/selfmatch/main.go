package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/pkg/errors"
	"github.com/pkg/profile"

	"shogi-engine/agent"
	"shogi-engine/selfmatch"
	"shogi-engine/selfmatch/monitor"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("selfmatch", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "JSON config file; flags override its values")
	games := fs.Int("games", 1, "Number of games, 0 plays until interrupted")
	moveTime := fs.Int("movetime", 1000, "Milliseconds per move")
	gameTime := fs.Int("gametime", 0, "Main time per side in milliseconds")
	byoyomi := fs.Int("byoyomi", 0, "Byoyomi in milliseconds")
	grace := fs.Int("grace", 100, "Milliseconds a stopped agent may take before losing on time")
	maxPly := fs.Int("maxply", 256, "Adjudicate a draw after this many moves")
	ponder := fs.Bool("ponder", false, "Let agents ponder on the predicted reply")
	positions := fs.String("positions", "", "File of start positions to draw from")
	sfen := fs.String("sfen", "", "Play every game from this position")
	kifu := fs.String("kifu", "", "Append one USI line per game to this file")
	kifDir := fs.String("kifdir", "", "Write a KIF file per game to this directory")
	kifUTF8 := fs.Bool("kifutf8", false, "Write KIF files as UTF-8 instead of Shift_JIS")
	seed := fs.Int64("seed", 0, "Seed for position choice and agents, 0 uses the clock")
	monitorAddr := fs.String("monitor", "", "Serve the live monitor on this address, e.g. :8080")
	logInfo := fs.Bool("loginfo", false, "Log the agents' info lines")
	prof := fs.String("profile", "", "Profile the run: cpu or mem")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := selfmatch.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = selfmatch.LoadConfig(*configPath); err != nil {
			return err
		}
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "games":
			cfg.Games = *games
		case "movetime":
			cfg.MoveTimeMs = *moveTime
		case "gametime":
			cfg.GameTimeMs = *gameTime
		case "byoyomi":
			cfg.ByoyomiMs = *byoyomi
		case "grace":
			cfg.GraceMs = *grace
		case "maxply":
			cfg.MaxPly = *maxPly
		case "ponder":
			cfg.Ponder = *ponder
		case "positions":
			cfg.PositionsFile = *positions
		case "sfen":
			cfg.StartSFEN = *sfen
		case "kifu":
			cfg.KifuPath = *kifu
		case "kifdir":
			cfg.KifDir = *kifDir
		case "kifutf8":
			cfg.KifUTF8 = *kifUTF8
		case "seed":
			cfg.Seed = *seed
		case "monitor":
			cfg.MonitorAddr = *monitorAddr
		case "loginfo":
			cfg.LogInfo = *logInfo
		}
	})
	if err := cfg.Validate(); err != nil {
		return err
	}

	switch *prof {
	case "":
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.Quiet).Stop()
	case "mem":
		defer profile.Start(profile.MemProfile, profile.ProfilePath("."), profile.Quiet).Stop()
	default:
		return errors.Errorf("unknown -profile %q", *prof)
	}

	logger := log.New(stderr, "", log.LstdFlags|log.Lshortfile)
	seedAgents(&cfg)

	var provider selfmatch.Provider
	if cfg.PositionsFile != "" {
		p, err := selfmatch.NewFileProvider(cfg.PositionsFile, cfg.Seed)
		if err != nil {
			return err
		}
		provider = p
	}

	var writers []selfmatch.KifuWriter
	if cfg.KifuPath != "" {
		f, err := os.OpenFile(cfg.KifuPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return errors.Wrap(err, "open kifu")
		}
		defer f.Close()
		writers = append(writers, selfmatch.NewUSIWriter(f))
	}
	if cfg.KifDir != "" {
		w, err := selfmatch.NewKIFWriter(cfg.KifDir, cfg.KifUTF8)
		if err != nil {
			return err
		}
		writers = append(writers, w)
	}

	players := [2]selfmatch.Player{
		{Name: "random-1", Agent: agent.NewRandom("random-1", logger)},
		{Name: "random-2", Agent: agent.NewRandom("random-2", logger)},
	}
	var obs selfmatch.Observers
	if cfg.MonitorAddr != "" {
		mon := monitor.New(logger)
		obs = append(obs, mon)
		monCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go func() {
			if err := mon.ListenAndServe(monCtx, cfg.MonitorAddr); err != nil {
				logger.Printf("monitor: %v", err)
			}
		}()
		logger.Printf("monitor listening on %s", cfg.MonitorAddr)
	}

	d, err := selfmatch.NewDriver(cfg, players, provider, writers, obs, logger)
	if err != nil {
		return err
	}
	tally, runErr := d.Run(ctx)
	fmt.Fprintln(stdout, renderSummary(tally.Snapshot()))
	if runErr != nil && errors.Cause(runErr) != context.Canceled {
		return runErr
	}
	return nil
}

// seedAgents gives each agent a distinct seed derived from cfg.Seed unless
// the config sets one.
func seedAgents(cfg *selfmatch.Config) {
	if cfg.Seed == 0 {
		return
	}
	for i := range cfg.Options {
		if cfg.Options[i] == nil {
			cfg.Options[i] = map[string]string{}
		}
		if _, ok := cfg.Options[i]["Seed"]; !ok {
			cfg.Options[i]["Seed"] = strconv.FormatInt((cfg.Seed+int64(i))&(1<<31-1), 10)
		}
	}
}
