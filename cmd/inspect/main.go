package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/delaneyj/metal/cmd/inspect/templates"
	"github.com/delaneyj/metal/internal/config"
	"github.com/delaneyj/metal/metal"
	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v3"
	"github.com/zoobzio/capitan"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const (
	configKey  = "config"
	yamlKey    = "yaml"
	trackedKey = "tracked"
	noColorKey = "no-color"
)

func main() {
	cmd := &cli.Command{
		Name:  "inspect",
		Usage: "Run a demo object graph and report its observation state",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  configKey,
				Usage: "Path to a metal.yaml config file",
			},
			&cli.BoolFlag{
				Name:  yamlKey,
				Usage: "Print the snapshot as YAML instead of a report",
			},
			&cli.BoolFlag{
				Name:  trackedKey,
				Usage: "Force tracked properties on",
			},
			&cli.BoolFlag{
				Name:  noColorKey,
				Usage: "Disable colored output",
			},
		},
		Action: inspect,
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func inspect(ctx context.Context, cmd *cli.Command) error {
	start := time.Now()
	defer func() {
		log.Printf("inspect finished in %v", time.Since(start))
	}()

	cfg, err := config.Load(cmd.String(configKey))
	if err != nil {
		return err
	}
	if cmd.Bool(trackedKey) {
		cfg.TrackedProperties = true
	}
	logger, err := cfg.Logger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	capitan.Hook(metal.ObjectDestroyed, func(_ context.Context, e *capitan.Event) {
		obj, _ := metal.KeyObject.From(e)
		logger.Info("object destroyed", zap.String("object", obj))
	})

	opts := append(cfg.Options(), metal.WithLogger(logger))
	snap, err := runDemo(opts...)
	if err != nil {
		return err
	}

	if cmd.Bool(yamlKey) {
		return writeYAML(os.Stdout, snap)
	}
	color.NoColor = color.NoColor || cmd.Bool(noColorKey)
	return writeReport(os.Stdout, snap)
}

func writeYAML(w io.Writer, snap *templates.Snapshot) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(snap); err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	return enc.Close()
}

func writeReport(w io.Writer, snap *templates.Snapshot) error {
	heading := color.New(color.FgCyan, color.Bold)

	heading.Fprintln(w, "== report ==")
	templates.WriteInspectReport(w, snap)

	heading.Fprintln(w, "== counters ==")
	writeCounters(w, snap.Counters)
	return nil
}

func writeCounters(w io.Writer, counters []templates.CounterView) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"counter", "value"})
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	for _, c := range counters {
		table.Append([]string{c.Name, humanize.Comma(c.Value)})
	}
	table.Render()
}
