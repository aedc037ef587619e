package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stationcharts/internal/chartdefs"
	"stationcharts/internal/compiler"
	"stationcharts/internal/config"
	"stationcharts/internal/history"
	"stationcharts/internal/logger"
	"stationcharts/internal/logs"
	"stationcharts/internal/models"
	"stationcharts/internal/preview"
	"stationcharts/internal/storage"
)

func main() {
	opt, err := parseOptions(os.Args[1:])
	if err != nil {
		if isHelp(err) {
			os.Exit(0)
		}
		os.Exit(1)
	}
	if opt.Version {
		fmt.Println(config.GetVersion())
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opt); err != nil {
		logger.Fatal("chartgen failed", err)
	}
}

// compiled is what the outputs of one run need from the history emitter
type compiled struct {
	vars      []models.AllVarInfo
	windBarbs bool
}

func run(ctx context.Context, opt *Options) error {
	if len(opt.Defs) == 0 {
		return errors.New("at least one chart definition file is required (-d)")
	}

	cfg, err := config.Load(ctx, opt.Config)
	if err != nil {
		return err
	}
	if opt.Output != "" {
		cfg.Paths.OutputDir = opt.Output
	}
	configureLogger(cfg)

	loc, err := time.LoadLocation(opt.Location)
	if err != nil {
		return fmt.Errorf("invalid time zone %q: %w", opt.Location, err)
	}

	store, err := storage.NewStorageClient(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	log := logger.Component("chartgen")
	log.Info("starting", logger.Fields{
		"version": config.GetVersion(),
		"storage": cfg.Env.Storage,
		"output":  cfg.Paths.OutputDir,
		"defs":    len(opt.Defs),
	})

	result, err := compileAll(ctx, cfg, store, opt.Defs)
	if err != nil {
		return err
	}
	var files []string
	if opt.History {
		if files, err = emitHistory(ctx, cfg, store, result, loc); err != nil {
			return err
		}
	}
	if !opt.Preview {
		return nil
	}

	renderer := preview.NewRenderer(store, cfg.Graphs.ChartHeight, loc)
	var images []string
	if opt.History {
		images, err = renderer.RenderFiles(ctx, files)
	} else {
		images, err = renderer.RenderStored(ctx)
	}
	if err != nil {
		return fmt.Errorf("preview: %w", err)
	}
	log.Info("previews written", logger.Fields{"count": len(images)})
	return nil
}

// emitHistory writes the snapshot files for the compiled variables
func emitHistory(ctx context.Context, cfg *config.Config, store storage.StorageClient, result *compiled, loc *time.Location) ([]string, error) {
	var wind *history.WindFetcher
	if result.windBarbs && cfg.Paths.WindDataURL != "" {
		wind = history.NewWindFetcher(cfg.Paths.WindDataURL)
	}
	emitter := history.NewEmitter(cfg, store, logs.NewReader(cfg.Paths.DataDir, loc), wind, loc)
	res, err := emitter.Emit(ctx, history.Variables(result.vars), wind != nil)
	if err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}
	return res.Files, nil
}

// compileAll compiles and stores every definition file. A broken file is
// logged and the rest are still written; the run then reports failure.
func compileAll(ctx context.Context, cfg *config.Config, store storage.StorageClient, paths []string) (*compiled, error) {
	log := logger.Component("chartgen")
	comp := compiler.New(compiler.SettingsFromConfig(cfg))
	result := &compiled{}
	failed := 0

	for _, path := range paths {
		defs, err := chartdefs.Load(path)
		if err != nil {
			log.Error("definitions skipped", err, logger.Fields{"file": path})
			failed++
			continue
		}

		out, err := comp.Compile(defs.Output, defs.Charts)
		if err != nil {
			log.Error("output skipped", err, logger.Fields{"file": path})
			failed++
			continue
		}

		if err := store.StoreFile(ctx, out.FileName(), []byte(out.Bundle())); err != nil {
			return nil, fmt.Errorf("failed to store %s: %w", out.FileName(), err)
		}
		log.Info("output written", logger.Fields{"file": out.FileName(), "charts": len(defs.Charts)})

		result.vars = append(result.vars, out.Vars...)
		for _, c := range defs.Charts {
			result.windBarbs = result.windBarbs || c.HasWindBarbs
		}
	}

	if failed > 0 {
		return result, fmt.Errorf("%d of %d definition files failed", failed, len(paths))
	}
	return result, nil
}

func configureLogger(cfg *config.Config) {
	l := logger.Global()
	if level, ok := logger.ParseLevel(cfg.Env.LogLevel); ok {
		l.SetLevel(level)
	}
	if format, ok := logger.ParseFormat(cfg.Env.LogFormat); ok {
		l.SetFormat(format)
	}
}
