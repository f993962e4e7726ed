// Command silexactl drives a running silexa service from the command line.
//
// Landmarks are given as 42 comma-separated numbers, or as @file naming a
// JSON array of them.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/ayusman/silexa/internal/client"
)

func main() {
	_ = godotenv.Load()

	addr := flag.String("addr", envOr("SILEXA_URL", "http://localhost:8080"), "service base URL")
	timeout := flag.Duration("timeout", 2*time.Minute, "request timeout")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	c := client.New(*addr, *timeout)
	if err := run(ctx, c, flag.Arg(0), flag.Args()[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "silexactl:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `Usage: silexactl [-addr url] <command> [args]

Commands:
  health                        show service status
  predict <landmarks> [session] classify one landmark vector
  save <label> <landmarks>      add a labeled example to the dataset
  stats                         show per-label dataset counts
  labels                        show model and dataset labels
  retrain                       train a new model and wait for it
  cancel                        cancel the active training run
  runs [limit]                  list recent training runs
  announcements [limit]         list recent announcements`)
	flag.PrintDefaults()
}

func run(ctx context.Context, c *client.Client, cmd string, args []string) error {
	switch cmd {
	case "health":
		return printResult(c.Health(ctx))
	case "predict":
		if len(args) < 1 {
			return fmt.Errorf("predict needs landmarks")
		}
		landmarks, err := parseLandmarks(args[0])
		if err != nil {
			return err
		}
		session := ""
		if len(args) > 1 {
			session = args[1]
		}
		return printResult(c.Predict(ctx, session, landmarks))
	case "save":
		if len(args) < 2 {
			return fmt.Errorf("save needs a label and landmarks")
		}
		landmarks, err := parseLandmarks(args[1])
		if err != nil {
			return err
		}
		if err := c.SaveGesture(ctx, args[0], landmarks); err != nil {
			return err
		}
		fmt.Printf("saved example for %q\n", args[0])
		return nil
	case "stats":
		return printResult(c.Stats(ctx))
	case "labels":
		return printResult(c.Labels(ctx))
	case "retrain":
		return printResult(c.Retrain(ctx))
	case "cancel":
		if err := c.CancelRetrain(ctx); err != nil {
			return err
		}
		fmt.Println("cancellation requested")
		return nil
	case "runs":
		limit, err := optionalLimit(args)
		if err != nil {
			return err
		}
		return printResult(c.Runs(ctx, limit))
	case "announcements":
		limit, err := optionalLimit(args)
		if err != nil {
			return err
		}
		return printResult(c.Announcements(ctx, limit))
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

// parseLandmarks reads "x0,y0,x1,..." or "@path" holding a JSON array.
func parseLandmarks(arg string) ([]float64, error) {
	if path, ok := strings.CutPrefix(arg, "@"); ok {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		var out []float64
		if err := json.Unmarshal(data, &out); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		return out, nil
	}

	parts := strings.Split(arg, ",")
	out := make([]float64, 0, len(parts))
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("landmark %d: %w", i, err)
		}
		out = append(out, f)
	}
	return out, nil
}

func optionalLimit(args []string) (int, error) {
	if len(args) == 0 {
		return 0, nil
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("limit: %w", err)
	}
	return n, nil
}

func printResult[T any](v T, err error) error {
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}
