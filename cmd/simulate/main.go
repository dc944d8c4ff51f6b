// Command simulate runs race outcome simulations from the command line and
// prints the resulting classification.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	app "github.com/okian/pitwall/internal/app"
	"github.com/okian/pitwall/internal/config"
	"github.com/okian/pitwall/internal/domain/types"
	"github.com/okian/pitwall/pkg/logger"
)

const cliWorkers = 2

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, "simulate:", err)
		os.Exit(1)
	}
}

type options struct {
	dataset    string
	event      int
	location   string
	seed       int64
	runs       int
	qualifying bool
	weather    bool
	trace      bool
	events     bool
}

func parseFlags(cfg *config.Config, args []string, stderr io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("simulate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.dataset, "dataset", cfg.DatasetPath, "path to a dataset YAML file (embedded season when empty)")
	fs.IntVar(&o.event, "event", 0, "event id to simulate")
	fs.StringVar(&o.location, "location", "", "location key for weather lookup (defaults to the event's location)")
	fs.Int64Var(&o.seed, "seed", cfg.Seed, "random seed; 0 picks one")
	fs.IntVar(&o.runs, "runs", 1, "number of runs; more than one prints aggregate probabilities")
	fs.BoolVar(&o.qualifying, "qualifying", cfg.UseQualifyingGrid, "take start positions from qualifying results")
	fs.BoolVar(&o.weather, "weather", cfg.UseEnvironment, "apply the location's weather influence")
	fs.BoolVar(&o.trace, "trace", false, "print per-participant position checkpoints")
	fs.BoolVar(&o.events, "events", false, "list events and exit")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if !o.events && o.event <= 0 {
		return o, errors.New("-event is required")
	}
	if o.runs < 1 {
		return o, fmt.Errorf("-runs must be at least 1, got %d", o.runs)
	}
	return o, nil
}

func run(ctx context.Context, args []string, out io.Writer) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	o, err := parseFlags(cfg, args, out)
	if err != nil {
		return err
	}

	cfg.DatasetPath = o.dataset
	cfg.Seed = o.seed
	cfg.UseQualifyingGrid = o.qualifying
	cfg.UseEnvironment = o.weather
	cfg.WorkerCount = cliWorkers
	cfg.MaxStoredRuns = 1

	svc, err := app.FromConfig(ctx, cfg, logger.Nop())
	if err != nil {
		return err
	}

	if o.events {
		return printEvents(ctx, svc, out)
	}

	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer svc.Stop()

	req := types.SimulationRequest{EventID: o.event, LocationKey: o.location, Runs: o.runs, Trace: o.trace}
	if o.seed != 0 {
		req.Seed = &o.seed
	}

	if o.runs > 1 {
		summary, err := svc.SimulateBatch(ctx, req)
		if err != nil {
			return err
		}
		return printBatch(out, summary)
	}

	r, err := svc.Simulate(ctx, req)
	if err != nil {
		return err
	}
	return printRun(out, r)
}

func printEvents(ctx context.Context, svc *app.Service, out io.Writer) error {
	events, err := svc.Events(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tLOCATION\tNAME")
	for _, e := range events {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", e.ID, e.LocationKey, e.Name)
	}
	return tw.Flush()
}

func printRun(out io.Writer, r *types.Run) error {
	fmt.Fprintf(out, "event %d at %s, seed %d\n", r.EventID, r.LocationKey, r.Seed)
	if r.Condition != nil {
		fmt.Fprintf(out, "conditions: %s %.0f-%.0f°C, influence x%.2f\n",
			r.Condition.Label, r.Condition.TempMin, r.Condition.TempMax, r.Condition.InfluenceFactor)
	}
	fmt.Fprintln(out)

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "POS\tGRID\tDRIVER\tSTART SCORE\tFINISH SCORE\t")
	for _, row := range r.Rows {
		fmt.Fprintf(tw, "%d\t%d\t%s\t%.2f\t%.2f\t\n",
			row.FinishPosition, row.StartPosition, row.Name, row.StartScore, row.FinishScore)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(r.Trace) == 0 {
		return nil
	}
	fmt.Fprintln(out)
	tw = tabwriter.NewWriter(out, 0, 0, 1, ' ', 0)
	for _, tr := range r.Trace {
		cols := make([]string, len(tr.Positions))
		for i, p := range tr.Positions {
			cols[i] = fmt.Sprintf("%.1f", p)
		}
		fmt.Fprintf(tw, "%s\t%s\n", tr.Name, strings.Join(cols, "\t"))
	}
	return tw.Flush()
}

func printBatch(out io.Writer, s *types.BatchSummary) error {
	fmt.Fprintf(out, "event %d at %s, %d runs from seed %d\n\n", s.EventID, s.LocationKey, s.Runs, s.Seed)

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "DRIVER\tMEAN GRID\tMEAN FINISH\tSTDDEV\tWIN %\tPODIUM %\t")
	for _, row := range s.Rows {
		fmt.Fprintf(tw, "%s\t%.2f\t%.2f\t%.2f\t%.1f\t%.1f\t\n",
			row.Name, row.MeanStart, row.MeanFinish, row.FinishStdDev,
			row.WinProbability*100, row.PodiumProbability*100)
	}
	return tw.Flush()
}
