package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"parqscope/internal/config"
	"parqscope/internal/engine"
	"parqscope/internal/logging"
	"parqscope/internal/metrics"
	"parqscope/internal/model"
	"parqscope/internal/stats"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: parqscope <file.parquet|file.csv|file.json>")
		os.Exit(2)
	}
	path := os.Args[1]

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.File)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging setup failed: %v\n", err)
		os.Exit(1)
	}
	defer logger.Close()

	metrics.Init()

	eng := engine.New(engine.Options{
		Workers:      cfg.Engine.Workers,
		CSVChunkSize: cfg.Engine.CSVChunkSize,
		PreviewRows:  cfg.Engine.PreviewRows,
		Stats: stats.Options{
			TopK:                   cfg.Stats.TopK,
			TopCapacity:            cfg.Stats.TopCapacity,
			HistogramBuckets:       cfg.Stats.HistogramBuckets,
			ExactQuantileThreshold: cfg.Stats.ExactQuantileThreshold,
			ReservoirSize:          cfg.Stats.ReservoirSize,
			DistinctExactThreshold: cfg.Stats.DistinctExactThreshold,
			QuantileFractions:      []float64{0.25, 0.5, 0.75},
		},
	})
	defer eng.Close()

	logger.Infof("opening %s", path)
	if err := eng.OpenFile(path); err != nil {
		logger.Errorf("open failed: %v", err)
		fmt.Fprintf(os.Stderr, "cannot open %s: %v\n", path, err)
		os.Exit(1)
	}

	if err := repl(eng, logger); err != nil {
		logger.Errorf("session ended with error: %v", err)
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func repl(eng *engine.Engine, logger *logging.Logger) error {
	ctx := context.Background()
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Println("commands: meta | schema | rowgroups | page <column> [rg] [offset] [limit] | stats <column> [rg] | open <path> | quit")

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		var err error
		switch cmd := fields[0]; cmd {
		case "quit", "exit":
			return nil
		case "meta":
			err = showMetadata(eng)
		case "schema":
			err = showSchema(eng)
		case "rowgroups":
			err = showRowGroups(eng)
		case "page":
			err = showPage(ctx, eng, fields[1:])
		case "stats":
			err = showStats(ctx, eng, fields[1:])
		case "open":
			if len(fields) != 2 {
				err = fmt.Errorf("usage: open <path>")
				break
			}
			if err = eng.OpenFile(fields[1]); err == nil {
				logger.Infof("opened %s", fields[1])
			}
		default:
			err = fmt.Errorf("unknown command %q", cmd)
		}

		if err != nil {
			logger.Warnf("command %q failed: %v", fields[0], err)
			fmt.Printf("error: %v\n", err)
		}
	}
}

func showMetadata(eng *engine.Engine) error {
	meta, err := eng.Metadata()
	if err != nil {
		return err
	}
	for _, entry := range meta.Summary() {
		fmt.Printf("%-20s %s\n", entry.Label+":", entry.Value)
	}
	return nil
}

func showSchema(eng *engine.Engine) error {
	schema, err := eng.Schema()
	if err != nil {
		return err
	}
	var walk func(cols []*model.ColumnDescriptor)
	walk = func(cols []*model.ColumnDescriptor) {
		for _, col := range cols {
			indent := strings.Repeat("  ", col.Depth)
			nullable := "required"
			if col.Nullable {
				nullable = "optional"
			}
			detail := col.Type.String()
			if col.PhysicalType != "" {
				detail = fmt.Sprintf("%s (%s)", detail, col.PhysicalType)
			}
			fmt.Printf("%s%s: %s, %s\n", indent, col.Name, detail, nullable)
			walk(col.Children)
		}
	}
	walk(schema.Columns)
	return nil
}

func showRowGroups(eng *engine.Engine) error {
	groups, err := eng.RowGroups()
	if err != nil {
		return err
	}
	for _, rg := range groups {
		fmt.Printf("row group %d: %d rows, %d columns, %d bytes compressed\n",
			rg.Index, rg.NumRows, len(rg.Columns), rg.CompressedSize)
	}
	return nil
}

func showPage(ctx context.Context, eng *engine.Engine, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: page <column> [rg] [offset] [limit]")
	}
	column := args[0]
	rowGroup, offset, limit := 0, int64(0), int64(0)
	var err error
	if len(args) > 1 {
		if rowGroup, err = strconv.Atoi(args[1]); err != nil {
			return fmt.Errorf("bad row group %q", args[1])
		}
	}
	if len(args) > 2 {
		if offset, err = strconv.ParseInt(args[2], 10, 64); err != nil {
			return fmt.Errorf("bad offset %q", args[2])
		}
	}
	if len(args) > 3 {
		if limit, err = strconv.ParseInt(args[3], 10, 64); err != nil {
			return fmt.Errorf("bad limit %q", args[3])
		}
	}

	values, err := eng.GetPage(ctx, rowGroup, column, offset, limit)
	if err != nil {
		return err
	}
	for i, v := range values {
		fmt.Printf("%8d  %s\n", offset+int64(i), v.Display())
	}
	return nil
}

func showStats(ctx context.Context, eng *engine.Engine, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: stats <column> [rg]")
	}
	column := args[0]
	scope := model.FileScope()
	if len(args) > 1 {
		rg, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("bad row group %q", args[1])
		}
		scope = model.RowGroupScope(rg)
	}

	snap, err := eng.ComputeStats(ctx, column, scope, model.StatAll)
	if err != nil {
		return err
	}
	printSnapshot(snap)
	return nil
}

func printSnapshot(snap *model.StatSnapshot) {
	fmt.Printf("column %s (%s), scope %s\n", snap.Column, snap.Type, snap.Scope)
	fmt.Printf("  count: %d  nulls: %d (%.1f%%)  non-null: %d\n",
		snap.Count, snap.Nulls, snap.NullPercentage(), snap.NonNull)
	if snap.Min != nil {
		fmt.Printf("  min: %s  max: %s\n", snap.Min.Display(), snap.Max.Display())
	}
	if snap.Mean != nil {
		fmt.Printf("  mean: %g  stddev: %g\n", *snap.Mean, *snap.Stddev)
	}
	if len(snap.Quantiles) > 0 {
		fmt.Printf("  p25: %g  p50: %g  p75: %g\n",
			snap.Quantiles[0.25], snap.Quantiles[0.5], snap.Quantiles[0.75])
	}
	if snap.Distinct != nil {
		fmt.Printf("  distinct: %d\n", *snap.Distinct)
	}
	if snap.TrueCount != nil {
		fmt.Printf("  true: %d  false: %d\n", *snap.TrueCount, *snap.FalseCount)
	}
	if len(snap.TopValues) > 0 {
		fmt.Println("  top values:")
		for _, tv := range snap.TopValues {
			fmt.Printf("    %-30s %d\n", tv.Value, tv.Count)
		}
	}
	if len(snap.Histogram) > 0 {
		fmt.Println("  histogram:")
		for _, b := range snap.Histogram {
			fmt.Printf("    [%g, %g): %d\n", b.Low, b.High, b.Count)
		}
	}
	if snap.Approximate {
		fmt.Println("  (approximate)")
	}
	if len(snap.Omitted) > 0 {
		fmt.Printf("  omitted for type: %s\n", strings.Join(snap.Omitted, ", "))
	}
	fmt.Printf("  computed in %s\n", snap.Elapsed)
}
