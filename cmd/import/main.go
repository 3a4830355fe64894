// Command import loads driver records into the configured SQL backend,
// either from the JSON seed files or from the Google Sheets logbook.
package main

import (
	"context"
	"flag"
	"os"
	"strings"
	"time"

	"taxilog/internal/backend"
	"taxilog/internal/cli"
	"taxilog/internal/core"
	applog "taxilog/internal/log"
	"taxilog/internal/records/memory"
	"taxilog/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg).WithComponent(applog.ComponentImport)

	from := flag.String("from", "seed", "record source: seed or sheets")
	dir := flag.String("dir", cfg.DataDir, "seed directory (with -from seed)")
	drivers := flag.String("drivers", "", "comma separated driver ids (with -from sheets)")
	period := flag.String("period", string(core.PeriodAllTime), "period to copy (with -from sheets)")
	flag.Parse()

	ctx := context.Background()

	target := cli.InitBackend(ctx, logger, cfg)
	defer target.Close()
	if target.Writer == nil {
		logger.Error("Backend is read-only; set DATA_BACKEND to sqlite or postgres", applog.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}
	importer := worker.NewImportWorker(target.Writer, logger)

	var (
		stats worker.ImportStats
		err   error
	)
	switch *from {
	case "seed":
		sd, rerr := memory.ReadSeed(*dir)
		if rerr != nil {
			logger.Error("Failed to read seed files", "error", rerr, "dir", *dir)
			os.Exit(1)
		}
		stats, err = importer.ImportSeed(ctx, sd)

	case "sheets":
		ids := splitIDs(*drivers)
		if len(ids) == 0 {
			logger.Error("-drivers is required with -from sheets")
			os.Exit(1)
		}
		bcfg, berr := backend.FromAppConfig(cfg)
		if berr != nil {
			logger.Error("Invalid backend configuration", "error", berr)
			os.Exit(1)
		}
		bcfg.Type = backend.SheetsBackend
		if verr := bcfg.Validate(); verr != nil {
			logger.Error("Invalid sheets configuration", "error", verr)
			os.Exit(1)
		}
		src, serr := backend.NewFactory(logger).CreateBackend(ctx, bcfg)
		if serr != nil {
			logger.Error("Failed to open Google Sheets logbook", "error", serr)
			os.Exit(1)
		}
		defer src.Close()

		loc, _ := cfg.Location()
		r := core.ResolvePeriod(*period, time.Now().In(loc))
		stats, err = importer.ImportFromStore(ctx, src.Store, ids, r)

	default:
		logger.Error("Unknown -from value, want seed or sheets", "value", *from)
		os.Exit(1)
	}

	if err != nil {
		logger.Error("Import failed", "error", err, applog.FieldOperation, applog.OpImport)
		os.Exit(1)
	}
	if stats.Failed > 0 {
		logger.Warn("Import finished with errors", "written", stats.Written, "errors", stats.Failed)
		os.Exit(2)
	}
}

func splitIDs(s string) []string {
	var ids []string
	for _, id := range strings.Split(s, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
