package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/charmbracelet/log"
	"github.com/mitchellh/go-homedir"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/hperssn/clockd/internal/config"
	"github.com/hperssn/clockd/internal/domain"
	"github.com/hperssn/clockd/internal/engine"
	"github.com/hperssn/clockd/internal/runner"
	"github.com/hperssn/clockd/internal/storage"
	"github.com/hperssn/clockd/internal/tick"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgFile string
	var devAuth bool
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "clockd",
		Short: "Stopwatch and countdown timer server",
		Long: heredoc.Doc(`
			Serve stopwatch and countdown timer sessions over HTTP.

			Each session owns one stopwatch and one timer. Commands are sent
			with POST/PUT requests and state is streamed back over server-sent
			events or a WebSocket.
		`),
		Example: heredoc.Doc(`
			$ clockd --addr :8080 --log-level debug
			$ CLOCKD_JOURNAL_DRIVER=sqlite3 CLOCKD_JOURNAL_DSN=clock.db clockd
		`),
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(v, cfgFile)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg, devAuth)
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default is $HOME/.clockd.yaml)")
	cmd.Flags().String("addr", ":8080", "Address to listen on")
	cmd.Flags().String("log-level", "info", "Log level (debug, info, warn, error)")
	cmd.Flags().BoolVar(&devAuth, "dev-auth", false, "Treat requests without an auth header as the dev user")

	config.SetDefaults(v)
	v.BindPFlag("addr", cmd.Flags().Lookup("addr"))
	v.BindPFlag("log-level", cmd.Flags().Lookup("log-level"))

	return cmd
}

func initConfig(v *viper.Viper, cfgFile string) error {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		return v.ReadInConfig()
	}

	home, err := homedir.Dir()
	if err != nil {
		return err
	}
	v.AddConfigPath(home)
	v.SetConfigName(".clockd")
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return err
		}
	}
	return nil
}

func run(ctx context.Context, cfg *config.Config, devAuth bool) error {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Level:           cfg.Level(),
		Prefix:          "clockd",
	})

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	stopwatchCfg, err := cfg.StopwatchEngine()
	if err != nil {
		return err
	}
	timerCfg, err := cfg.TimerEngine()
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	sched := tick.NewTickerScheduler()
	defer sched.Close()

	opts := runner.DefaultOptions()
	opts.Scheduler = sched
	opts.Stopwatch = stopwatchCfg
	opts.Timer = timerCfg
	opts.MaxSessions = cfg.Sessions.Max
	opts.IdleTimeout = cfg.Sessions.IdleTimeout
	opts.CleanupInterval = cfg.Sessions.CleanupInterval
	opts.Metrics = runner.NewMetrics(reg)
	opts.Logger = logger
	opts.Feedback = append(opts.Feedback, feedbackSink(cfg.Feedback, logger))

	group, ctx := errgroup.WithContext(ctx)

	var journalRepo storage.Repository
	if cfg.Journal.Driver != "" {
		journalRepo, err = storage.Open(cfg.Journal.Driver, cfg.Journal.DSN)
		if err != nil {
			return err
		}
		defer journalRepo.Close()

		journal := storage.NewJournal(journalRepo, cfg.Journal.QueueSize, logger.WithPrefix("journal"))
		opts.Sinks = append(opts.Sinks, journal.SinkFor)
		group.Go(func() error { return journal.Run(ctx) })
		logger.Info("event journal enabled", "driver", cfg.Journal.Driver)
	}

	manager, err := runner.NewSessionManager(opts)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr: cfg.Addr,
		Handler: newRouter(routerDeps{
			manager:  manager,
			journal:  journalRepo,
			gatherer: reg,
			logger:   logger,
			devAuth:  devAuth,
		}),
	}

	group.Go(func() error {
		logger.Info("listening", "addr", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := server.Shutdown(shutdownCtx)
		manager.Close()
		return err
	})

	return group.Wait()
}

// feedbackSink builds the per-session feedback device, throttling tick
// feedback when a rate is configured.
func feedbackSink(cfg config.FeedbackConfig, logger *log.Logger) runner.SinkFactory {
	return func(s *domain.Session) engine.FeedbackSink {
		var sink engine.FeedbackSink = engine.NewLogSink(logger.With("session", s.ID))
		if cfg.TickRate > 0 {
			sink = engine.NewThrottledSink(sink, rate.Limit(cfg.TickRate), cfg.Burst)
		}
		return sink
	}
}
