package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/go-pkgz/lgr"
	"github.com/jessevdk/go-flags"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/umputun/newsdraft/pkg/config"
	"github.com/umputun/newsdraft/pkg/content"
	"github.com/umputun/newsdraft/pkg/delivery"
	"github.com/umputun/newsdraft/pkg/feedback"
	"github.com/umputun/newsdraft/pkg/llm"
	"github.com/umputun/newsdraft/pkg/ranker"
	"github.com/umputun/newsdraft/pkg/repository"
	"github.com/umputun/newsdraft/pkg/scheduler"
	"github.com/umputun/newsdraft/pkg/source"
	"github.com/umputun/newsdraft/pkg/style"
	"github.com/umputun/newsdraft/server"
)

// Opts with all CLI options
type Opts struct {
	Config string `short:"c" long:"config" env:"CONFIG" default:"config.yml" description:"configuration file"`
	Listen string `short:"l" long:"listen" env:"LISTEN" description:"listen address, overrides server.listen"`
	Title  string `long:"title" env:"TITLE" default:"Morning Brief" description:"newsletter title"`

	// Common options
	Debug   bool `long:"dbg" env:"DEBUG" description:"debug mode"`
	Version bool `short:"V" long:"version" description:"show version info"`
	NoColor bool `long:"no-color" env:"NO_COLOR" description:"disable color output"`
}

var revision = "unknown"

func main() {
	var opts Opts
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if opts.Version {
		fmt.Printf("Version: %s\nGolang: %s\n", revision, runtime.Version())
		os.Exit(0)
	}

	setupLog(opts.Debug, opts.NoColor)

	log.Printf("[INFO] starting newsdraft version %s", revision)

	ctx, cancel := context.WithCancel(context.Background())

	// handle termination signals
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan
		log.Print("[INFO] termination signal received")
		cancel()
	}()

	err := run(ctx, opts)
	cancel()

	if err != nil {
		log.Printf("[ERROR] server failed: %v", err)
		os.Exit(1)
	}

	log.Print("[INFO] shutdown complete")
}

// run wires all components and serves until ctx is canceled
func run(ctx context.Context, opts Opts) error {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if opts.Listen != "" {
		cfg.Server.Listen = opts.Listen
	}

	// reconfigure the logger to hide credentials from the loaded config
	setupLog(opts.Debug, opts.NoColor, cfg.Secrets()...)

	repos, err := repository.NewRepositories(ctx, repository.Config{
		DSN:             cfg.Database.DSN,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Database.ConnMaxLifetime) * time.Second,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer func() {
		if err := repos.Close(); err != nil {
			log.Printf("[WARN] failed to close database: %v", err)
		}
	}()

	gen := llm.NewGenerator(cfg.LLM)
	sched := scheduler.NewScheduler(repos.Schedule, repos.Attempt, makePipeline(cfg, repos, gen, opts.Title), scheduler.Config{
		TickInterval:     cfg.Schedule.TickInterval,
		RunTimeout:       cfg.Schedule.RunTimeout,
		MaxWorkers:       cfg.Schedule.MaxWorkers,
		MaxDailyAttempts: cfg.Schedule.MaxDailyAttempts,
	})

	registry := prometheus.NewRegistry()
	registry.MustRegister(sched.Metrics(), collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	sched.Start(ctx)
	defer sched.Stop()

	fb := server.NewFeedbackAdapter(feedback.NewRecorder(repos.Feedback, repos.Draft), feedback.NewAggregator(repos.Feedback))
	srv := server.New(server.Params{
		Config:    cfg,
		Store:     server.NewRepositoryAdapter(repos),
		Styles:    style.NewEngine(repos.Style),
		Feedback:  fb,
		Scheduler: sched,
		Social:    gen,
		Gatherer:  registry,
	}, revision, opts.Debug)

	if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// makePipeline builds the fetch, rank, generate and deliver pipeline from configuration
func makePipeline(cfg *config.Config, repos *repository.Repositories, gen *llm.Generator, title string) *scheduler.Pipeline {
	var extractor source.Extractor
	if cfg.Extraction.Enabled {
		extractor = content.NewHTTPExtractor(cfg.Extraction.Timeout, cfg.Sources.UserAgent, cfg.Extraction.MinTextLength)
	}
	fetcher := source.NewFetcher(source.Config{
		Timeout:           cfg.Sources.Timeout,
		Retries:           cfg.Sources.Retries,
		RetryDelay:        cfg.Sources.RetryDelay,
		Budget:            cfg.Sources.Budget,
		Concurrency:       cfg.Sources.Concurrency,
		MaxItemsPerSource: cfg.Sources.MaxItemsPerSource,
		UserAgent:         cfg.Sources.UserAgent,
		SocialHandleURL:   cfg.Sources.SocialHandleURL,
		SocialTagURL:      cfg.Sources.SocialTagURL,
		ChannelURL:        cfg.Sources.ChannelURL,
	}, extractor)

	var momentum ranker.Momentum
	if m := cfg.Ranking.Momentum; m.Endpoint != "" {
		momentum = ranker.NewHTTPMomentum(m.Endpoint, m.Timeout, m.RateLimit)
		log.Printf("[INFO] momentum signal from %s", m.Endpoint)
	}
	rk := ranker.New(ranker.Config{
		HalfLife:         cfg.Ranking.HalfLife,
		DiversityPenalty: cfg.Ranking.DiversityPenalty,
		MomentumWeight:   cfg.Ranking.MomentumWeight,
		MaxCandidates:    cfg.Ranking.MaxCandidates,
		MaxTrends:        cfg.Ranking.MaxTrends,
	}, momentum)

	dispatcher := delivery.NewDispatcher(delivery.Config{
		Retries:    cfg.Delivery.Retries,
		RetryDelay: cfg.Delivery.RetryDelay,
		Timeout:    cfg.Delivery.Timeout,
	}, makeTransports(cfg)...)

	return scheduler.NewPipeline(scheduler.PipelineParams{
		Sources:          repos.Source,
		Fetcher:          fetcher,
		Ranker:           rk,
		Styles:           style.NewEngine(repos.Style),
		Generator:        gen,
		Drafts:           repos.Draft,
		Schedules:        repos.Schedule,
		Attempts:         repos.Attempt,
		Dispatcher:       dispatcher,
		MaxDailyAttempts: cfg.Schedule.MaxDailyAttempts,
		MaxItems:         cfg.Ranking.MaxCandidates,
		Title:            title,
		NotifyOnGiveUp:   cfg.Schedule.NotifyOnGiveUp,
	})
}

// makeTransports returns transports enabled in configuration
func makeTransports(cfg *config.Config) []delivery.Transport {
	var res []delivery.Transport
	if smtp := cfg.Delivery.SMTP; smtp.Host != "" {
		res = append(res, delivery.NewEmailTransport(delivery.EmailParams{
			Host:     smtp.Host,
			Port:     smtp.Port,
			Username: smtp.Username,
			Password: smtp.Password,
			From:     smtp.From,
			TLS:      smtp.TLS,
			StartTLS: smtp.StartTLS,
			Timeout:  cfg.Delivery.Timeout,
		}))
		log.Printf("[INFO] email delivery via %s:%d", smtp.Host, smtp.Port)
	}
	if tg := cfg.Delivery.Telegram; tg.Token != "" {
		res = append(res, delivery.NewChatTransport(delivery.ChatParams{
			Token:   tg.Token,
			APIURL:  tg.APIURL,
			Timeout: cfg.Delivery.Timeout,
			Verbose: tg.Verbose,
		}))
		log.Printf("[INFO] chat delivery via %s", tg.APIURL)
	}
	if len(res) == 0 {
		log.Printf("[WARN] no delivery transports configured, every delivery will fail")
	}
	return res
}

func setupLog(dbg, noColor bool, secs ...string) {
	logOpts := []lgr.Option{lgr.Msec, lgr.LevelBraces, lgr.StackTraceOnError}
	if dbg {
		logOpts = []lgr.Option{lgr.Debug, lgr.CallerFile, lgr.CallerFunc, lgr.Msec, lgr.LevelBraces, lgr.StackTraceOnError}
	}

	if !noColor {
		colorizer := lgr.Mapper{
			ErrorFunc:  func(s string) string { return color.New(color.FgHiRed).Sprint(s) },
			WarnFunc:   func(s string) string { return color.New(color.FgRed).Sprint(s) },
			InfoFunc:   func(s string) string { return color.New(color.FgYellow).Sprint(s) },
			DebugFunc:  func(s string) string { return color.New(color.FgWhite).Sprint(s) },
			CallerFunc: func(s string) string { return color.New(color.FgBlue).Sprint(s) },
			TimeFunc:   func(s string) string { return color.New(color.FgCyan).Sprint(s) },
		}
		logOpts = append(logOpts, lgr.Map(colorizer))
	}
	if len(secs) > 0 {
		logOpts = append(logOpts, lgr.Secret(secs...))
	}
	lgr.SetupStdLogger(logOpts...)
	lgr.Setup(logOpts...)
}
