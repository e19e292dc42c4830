package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"opsdash/internal/calendar"
	"opsdash/internal/config"
	"opsdash/internal/eventbus"
	"opsdash/internal/insight"
	"opsdash/internal/notify"
	"opsdash/internal/sched"
	"opsdash/internal/storage"
	logx "opsdash/pkg/logx"
)

const usage = `usage: opsdash [-config path] <command>

commands:
  setup      create the scheduled-task occurrences for the configured horizon
  tick       process due tasks once and exit
  run        process due tasks on the configured cron spec until interrupted
  calendar   print the merged event timeline
  stats      print calendar statistics
  unread     list unread notifications
  mark-read  mark one notification read (id as the next argument)
`

func main() {
	var cfgPath string
	flag.StringVar(&cfgPath, "config", "./config.yaml", "path to config yaml/json")
	flag.Parse()

	// Local overrides (e.g. OPSDASH_DB) may live in a .env next to the binary.
	_ = godotenv.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfgPath, flag.Args()); err != nil {
		fmt.Println("fatal:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfgPath string, args []string) error {
	mgr := config.NewConfigManager(cfgPath)
	cfg, err := mgr.Load()
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}
		// No config file: run with defaults.
		cfg = &config.Config{
			Logging:   config.LoggingConfig{Level: "info", Console: true},
			Storage:   config.StorageConfig{Path: "./opsdash.db"},
			Scheduler: config.SchedulerConfig{Enabled: true},
		}
		mgr.Commit(cfg)
	}

	logSvc, log := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})
	defer logSvc.Close()
	mgr.SetLogger(log)

	busyTimeout, err := config.ParseDurationField("storage.busy_timeout", cfg.Storage.BusyTimeout)
	if err != nil {
		return err
	}
	dbPath := cfg.Storage.Path
	if env := os.Getenv("OPSDASH_DB"); env != "" {
		dbPath = env
	}
	if dbPath == "" {
		dbPath = "./opsdash.db"
	}
	store, err := storage.Open(storage.Config{Path: dbPath, BusyTimeout: busyTimeout}, log)
	if err != nil {
		return err
	}
	defer store.Close()

	loc, err := cfg.Scheduler.Location()
	if err != nil {
		return err
	}
	weekdays, err := cfg.Scheduler.Weekdays()
	if err != nil {
		return err
	}
	srcTimeout, err := cfg.Calendar.Timeout()
	if err != nil {
		return err
	}

	bus := eventbus.New()
	emitter := notify.NewEmitter(store, bus, log)
	templates := insight.NewTemplates(store, log)

	svc := sched.New(store, emitter, bus, log)
	reviewExec := sched.NewSelfReviewExecutor(store, templates, log)
	svc.Register(reviewExec, sched.NewMaintenanceExecutor(templates, log))

	// The journal/intelligence/reminder/meeting fetchers are owned by the
	// dashboard's other services; they plug in as calendar.FetchFuncs when
	// this core is embedded. Standalone runs carry the two local sources.
	sources := []calendar.Source{
		calendar.NewReviewPeriodSource(store),
		calendar.NewMaintenanceSource(weekdays, cfg.Scheduler.Hour(), cfg.Calendar.ProjectionWeeks(), nil),
	}
	agg := calendar.NewAggregator(sources, srcTimeout, log)

	cmd := ""
	if len(args) > 0 {
		cmd = args[0]
	}
	switch cmd {
	case "setup":
		anchor, err := cfg.Scheduler.Anchor(loc)
		if err != nil {
			return err
		}
		hour := cfg.Scheduler.Hour()
		anchor = anchor.Add(time.Duration(hour) * time.Hour)
		rep, err := svc.Setup(ctx, sched.SetupConfig{
			ReviewAnchor:      anchor,
			MaintenanceAnchor: anchor,
			Weekdays:          weekdays,
			Horizon:           cfg.Scheduler.HorizonCount(),
			Now:               time.Now(),
		})
		if err != nil {
			return err
		}
		fmt.Printf("setup: %d created, %d skipped\n", rep.Created, rep.Skipped)
		return nil

	case "tick":
		rep, err := svc.ProcessDue(ctx, time.Now())
		if err != nil {
			return err
		}
		reviewExec.Wait()
		fmt.Printf("tick: %d due, %d completed, %d failed\n", rep.Due, rep.Completed, rep.Failed)
		return nil

	case "run":
		return serve(ctx, cfg, mgr, logSvc, svc, reviewExec, log)

	case "calendar":
		for _, e := range agg.Events(ctx, calendar.Filter{}) {
			fmt.Printf("%s  %-18s  %s\n", e.Date.Format("2006-01-02 15:04"), e.Type, e.Title)
		}
		return nil

	case "stats":
		st := agg.Stats(ctx, time.Now())
		fmt.Printf("total events: %d\n", st.Total)
		for typ, n := range st.ByType {
			fmt.Printf("  %-20s %d\n", typ, n)
		}
		fmt.Printf("journal this month:      %d\n", st.JournalThisMonth)
		fmt.Printf("intelligence this month: %d\n", st.IntelligenceThisMonth)
		fmt.Printf("maintenance due (week):  %d\n", st.MaintenanceDueThisWeek)
		return nil

	case "unread":
		ns, err := emitter.Unread(ctx, 50)
		if err != nil {
			return err
		}
		for _, n := range ns {
			fmt.Printf("%s  [%s] %s — %s  (%s)\n",
				n.CreatedAt.Format("2006-01-02 15:04"), n.Type, n.Title, n.Message, n.ID)
		}
		return nil

	case "mark-read":
		if len(args) < 2 {
			return errors.New("mark-read requires a notification id")
		}
		return emitter.MarkRead(ctx, args[1])

	default:
		fmt.Print(usage)
		if cmd != "" {
			return fmt.Errorf("unknown command %q", cmd)
		}
		return nil
	}
}

// serve hosts the cron-driven tick loop with config hot reload.
func serve(ctx context.Context, cfg *config.Config, mgr *config.ConfigManager, logSvc *logx.Service, svc *sched.Service, reviewExec *sched.SelfReviewExecutor, log logx.Logger) error {
	loc, err := cfg.Scheduler.Location()
	if err != nil {
		return err
	}
	runner := sched.NewRunner(svc, cfg.Scheduler.Tick(), loc, log)
	if cfg.Scheduler.Enabled {
		if err := runner.Start(ctx); err != nil {
			return err
		}
	} else {
		log.Warn("scheduler disabled; ticks will not run until enabled via config reload")
	}

	go func() {
		if err := mgr.Watch(ctx); err != nil {
			log.Warn("config watch ended", logx.Err(err))
		}
	}()

	updates := mgr.Subscribe(4)
	defer mgr.Unsubscribe(updates)
	go func() {
		for next := range updates {
			logSvc.Apply(logx.Config{
				Level:   next.Logging.Level,
				Console: next.Logging.Console,
				File: logx.FileConfig{
					Enabled: next.Logging.File.Enabled,
					Path:    next.Logging.File.Path,
				},
			})
			nextLoc, err := next.Scheduler.Location()
			if err != nil {
				log.Warn("ignoring scheduler timezone change", logx.Err(err))
				continue
			}
			if !next.Scheduler.Enabled {
				runner.Stop(context.Background())
				continue
			}
			if err := runner.Start(ctx); err != nil {
				log.Error("scheduler enable failed", logx.Err(err))
				continue
			}
			runner.Apply(next.Scheduler.Tick(), nextLoc)
		}
	}()

	<-ctx.Done()
	stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	runner.Stop(stopCtx)
	reviewExec.Wait()
	return nil
}
