package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/rs/zerolog/log"

	"github.com/ayusman/silexa/internal/classifier"
	"github.com/ayusman/silexa/internal/dataset"
	"github.com/ayusman/silexa/internal/store"
	"github.com/ayusman/silexa/internal/training"
)

// runTrain trains once from the configured dataset and prints the held-out report.
func runTrain(args []string) error {
	cfg, err := loadConfig("train", args)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := ensureDir(cfg.Model.Path); err != nil {
		return fmt.Errorf("create model directory: %w", err)
	}

	pcfg := training.Config{
		Dataset:      dataset.NewStore(cfg.Dataset.Path),
		Handle:       classifier.NewHandle(),
		ArtifactPath: cfg.Model.Path,
		Params:       cfg.Params(),
	}
	if cfg.History.Path != "" {
		if err := ensureDir(cfg.History.Path); err != nil {
			return fmt.Errorf("create history directory: %w", err)
		}
		history, err := store.New(cfg.History.Path)
		if err != nil {
			return fmt.Errorf("open history: %w", err)
		}
		defer history.Close()
		pcfg.Runs = history.Runs()
	}

	result, err := training.New(pcfg).Run(ctx)
	if err != nil {
		return err
	}
	log.Info().
		Str("run_id", result.RunID).
		Str("artifact", cfg.Model.Path).
		Float64("accuracy", result.Accuracy).
		Msg("model trained")

	printReport(result)
	return nil
}

func printReport(r *training.Result) {
	fmt.Printf("Model:    %s\n", r.Kind)
	fmt.Printf("Samples:  %d (%d train, %d test)\n", r.TotalSamples, r.TrainRows, r.TestRows)
	fmt.Printf("Accuracy: %.4f\n\n", r.Accuracy)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "LABEL\tPRECISION\tRECALL\tF1\tSUPPORT")
	for _, c := range r.Report.Classes {
		fmt.Fprintf(w, "%s\t%.3f\t%.3f\t%.3f\t%d\n", c.Label, c.Precision, c.Recall, c.F1, c.Support)
	}
	w.Flush()
}
