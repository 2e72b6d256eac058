// Package main is the entry point for the momentum rebalancing trader.
// One invocation performs a single selection-and-rebalance cycle (or a
// dry-run plan); with --schedule the process stays alive and fires the
// cycle on a cron schedule, protected by the monthly execution guard.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/minsukang/momentum-trader/internal/app"
	"github.com/minsukang/momentum-trader/internal/clients/kis"
	"github.com/minsukang/momentum-trader/internal/config"
	"github.com/minsukang/momentum-trader/internal/database"
	"github.com/minsukang/momentum-trader/internal/domain"
	"github.com/minsukang/momentum-trader/internal/execlog"
	"github.com/minsukang/momentum-trader/internal/rebalance"
	"github.com/minsukang/momentum-trader/internal/report"
	"github.com/minsukang/momentum-trader/internal/scheduler"
	"github.com/minsukang/momentum-trader/internal/selection"
	"github.com/minsukang/momentum-trader/internal/signals"
	"github.com/minsukang/momentum-trader/internal/universe"
	"github.com/minsukang/momentum-trader/internal/utils"
	"github.com/minsukang/momentum-trader/pkg/logger"
)

func main() {
	var (
		mode       = flag.String("mode", app.ModeGEM, "strategy mode: gem or portfolio")
		codes      = flag.String("codes", "", "comma-separated candidate codes (gem mode)")
		execute    = flag.Bool("execute", false, "place real orders (default is a dry-run plan)")
		force      = flag.Bool("force", false, "bypass the monthly execution guard")
		investment = flag.Int64("investment", 0, "total investment in KRW (0 = account value)")
		schedule   = flag.String("schedule", "", "cron schedule; empty runs once and exits")
		pretty     = flag.Bool("pretty", false, "human-readable console logging")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: *pretty})
	logger.SetGlobalLogger(log)

	if err := cfg.ValidateBroker(); err != nil {
		log.Fatal().Err(err).Msg("Broker credentials missing")
	}

	var candidates []domain.Instrument
	for _, code := range utils.ParseCSV(*codes) {
		candidates = append(candidates, domain.Instrument{Code: code})
	}
	if *mode == app.ModeGEM && len(candidates) == 0 {
		log.Fatal().Msg("gem mode requires --codes")
	}

	db, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "trader.db"),
		Profile: database.ProfileLedger,
		Name:    "trader",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer db.Close()

	execRepo, err := execlog.NewRepository(db.Conn(), log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize execution log")
	}
	uniRepo, err := universe.NewRepository(db.Conn(), log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize universe store")
	}

	broker := kis.NewClient(kis.Config{
		BaseURL:   cfg.KISBaseURL,
		AppKey:    cfg.KISAppKey,
		AppSecret: cfg.KISAppSecret,
		AccountNo: cfg.KISAccountNo,
	}, log)

	engine := signals.NewEngine(broker, log).
		WithRetry(cfg.Strategy.MaxRetries, cfg.Strategy.RetryDelay)
	selector := selection.NewSelector(engine, log)
	executor := rebalance.NewExecutor(broker, rebalance.Config{
		MaxRetries:     cfg.Strategy.MaxRetries,
		RetryDelay:     cfg.Strategy.RetryDelay,
		OrderDelay:     cfg.Strategy.OrderDelay,
		SettleWait:     cfg.Strategy.SettleWait,
		OrderCondition: domain.ConditionBest,
	}, log)
	guard := execlog.NewGuard(execRepo, log)
	reports := report.NewWriter(filepath.Join(cfg.DataDir, "reports"), log)

	application := app.New(broker, selector, executor, guard, uniRepo, reports,
		cfg.Strategy.BufferRatio,
		selection.RankedConfig{
			TopMomentumCount: cfg.Strategy.TopMomentumCount,
			BottomFIPCount:   cfg.Strategy.BottomFIPCount,
		},
		log)

	opts := app.Options{
		Mode:       *mode,
		Candidates: candidates,
		Execute:    *execute,
		Force:      *force,
		Investment: *investment,
	}

	if *schedule == "" {
		runOnce(application, opts, log)
		return
	}

	sched := scheduler.New(log)
	job := app.NewRebalanceJob(application, opts, log)
	if err := sched.AddJob(*schedule, job); err != nil {
		log.Fatal().Err(err).Str("schedule", *schedule).Msg("Invalid cron schedule")
	}
	sched.Start()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	sched.Stop()
}

func runOnce(application *app.App, opts app.Options, log zerolog.Logger) {
	rep, err := application.Run(opts)
	if err != nil {
		if domain.IsAlreadyExecuted(err) {
			log.Info().Msg("Already executed this month, nothing to do")
			return
		}
		log.Fatal().Err(err).Msg("Run failed")
	}
	if !rep.Success {
		log.Error().Str("run_id", rep.RunID).Msg("Run completed with failed orders")
		os.Exit(1)
	}
	log.Info().Str("run_id", rep.RunID).Msg("Run completed")
}
