// SPDX-License-Identifier: GPL-3.0-or-later

// Command dot11seq replays scripted frame-exchange scenarios against the
// dot11seq frame-sequence engine on a virtual clock.
//
// Usage:
//
//	dot11seq [-v] [-j N] scenario.yaml...
//
// Each scenario describes a station, its transmit queue and a peer whose
// responses are scripted. Events are written to the standard output in
// logfmt, one line per event, tagged with the scenario name.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "dot11seq: %s\n", err.Error())
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	fset := flag.NewFlagSet("dot11seq", flag.ContinueOnError)
	verbose := fset.Bool("v", false, "log every frame-sequence step")
	parallel := fset.Int("j", 4, "number of scenarios replayed in parallel")
	if err := fset.Parse(args); err != nil {
		return err
	}
	if fset.NArg() <= 0 {
		return fmt.Errorf("%w: no scenario files", errInvalidScenario)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stdout, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return runAll(ctx, logger, fset.Args(), max(1, *parallel))
}

// runAll replays the given scenario files with bounded parallelism and
// returns the first error.
func runAll(ctx context.Context, logger *slog.Logger, paths []string, parallel int) error {
	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(parallel)
	for _, path := range paths {
		group.Go(func() error {
			sc, err := loadScenario(path)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			_, err = runScenario(ctx, sc, logger.With(slog.String("scenario", sc.Name)))
			return err
		})
	}
	return group.Wait()
}

// runScenario replays sc until the queue drains and returns the outcome.
func runScenario(ctx context.Context, sc *scenario, logger *slog.Logger) (result, error) {
	sim := newSimulator()
	t0 := sim.Now()
	st := newStation(sc, sim, logger)
	st.Start()
	if err := sim.Run(ctx); err != nil {
		return st.result, err
	}
	st.result.Elapsed = sim.Now().Sub(t0)
	logger.Info(
		"scenarioDone",
		slog.Int("delivered", st.result.Delivered),
		slog.Int("dropped", st.result.Dropped),
		slog.Int("failures", st.result.Failures),
		slog.Int("sequences", st.result.Sequences),
		slog.Duration("elapsed", st.result.Elapsed),
	)
	return st.result, nil
}
