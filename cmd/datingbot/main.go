package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/rs/zerolog"

	"github.com/beekboff/client-1-datingbot-mainbot/internal/config"
	"github.com/beekboff/client-1-datingbot-mainbot/internal/domain/ports/repository"
	pg "github.com/beekboff/client-1-datingbot-mainbot/internal/infra/db/postgres"
	"github.com/beekboff/client-1-datingbot-mainbot/internal/infra/i18n"
	"github.com/beekboff/client-1-datingbot-mainbot/internal/infra/logging"
	"github.com/beekboff/client-1-datingbot-mainbot/internal/infra/metrics"
	"github.com/beekboff/client-1-datingbot-mainbot/internal/infra/rabbit"
	red "github.com/beekboff/client-1-datingbot-mainbot/internal/infra/redis"
	"github.com/beekboff/client-1-datingbot-mainbot/internal/infra/sched"
	tgbot "github.com/beekboff/client-1-datingbot-mainbot/internal/infra/telegram"
	"github.com/beekboff/client-1-datingbot-mainbot/internal/infra/web"
	"github.com/beekboff/client-1-datingbot-mainbot/internal/telegram"
	"github.com/beekboff/client-1-datingbot-mainbot/internal/usecase"
)

const usageText = `usage: datingbot <command> [flags]

commands:
  setup             declare the queue topology and exit
  consume-updates   drain the incoming Telegram updates queue
  consume-pushes    drain the prepared pushes queue
  consume-prompts   drain the delayed prompts queue
  enqueue-due       run one scheduler pass and exit
  reset-daily       zero the daily push counters and exit
  purge-updates     delete old update dedup records and exit
  import-profiles   register profile photos from a directory and exit
  jobs              run the cron scheduler (enqueue + maintenance)
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usageText)
		os.Exit(2)
	}
	command := os.Args[1]

	fs := flag.NewFlagSet(command, flag.ExitOnError)
	cfgPath := fs.String("config", "config.yaml", "path to YAML config file")
	messagesLimit := fs.Int("messagesLimit", 0, "override consumer message limit")
	memoryLimit := fs.Int("memoryLimit", 0, "override consumer heap limit, MB")
	purgeDays := fs.Int("days", 0, "purge-updates: delete records older than this many days")
	importDir := fs.String("dir", "", "import-profiles: directory holding men/ and women/ subfolders")
	_ = fs.Parse(os.Args[2:])

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if *messagesLimit > 0 {
		cfg.Consumer.MessagesLimit = *messagesLimit
	}
	if *memoryLimit > 0 {
		cfg.Consumer.MemoryLimitMB = *memoryLimit
	}

	logger := logging.New(cfg.Log, cfg.Bot.ID)
	metrics.MustRegister()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	app, err := wire(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("bootstrap failed")
	}
	defer app.Close()

	if err := run(ctx, command, app, cfg, logger, *purgeDays, *importDir); err != nil {
		if ctx.Err() != nil {
			logger.Info().Msg("interrupted, shutting down")
			return
		}
		logger.Fatal().Str("command", command).Err(err).Msg("command failed")
	}
}

func run(ctx context.Context, command string, app *application, cfg *config.Config, logger *zerolog.Logger, purgeDays int, importDir string) error {
	switch command {
	case "setup":
		return app.mq.EnsureTopology()

	case "consume-updates":
		return app.consumeWithOps(ctx, cfg, rabbit.QueueUpdates, app.dispatcher.Dispatch)

	case "consume-pushes":
		return app.consumeWithOps(ctx, cfg, rabbit.QueuePushes, app.pushSender.Handle)

	case "consume-prompts":
		return app.consumeWithOps(ctx, cfg, rabbit.QueuePrompt, app.promptSender.Handle)

	case "enqueue-due":
		n, err := app.pushUC.EnqueueDue(ctx, time.Now().UTC())
		if err != nil {
			return err
		}
		logger.Info().Int("enqueued", n).Msg("done")
		return nil

	case "reset-daily":
		_, err := app.maintUC.ResetDailyCounters(ctx)
		return err

	case "purge-updates":
		_, err := app.maintUC.PurgeProcessedUpdates(ctx, purgeDays)
		return err

	case "import-profiles":
		dir := importDir
		if dir == "" {
			dir = cfg.App.ProfilesDir
		}
		if dir == "" {
			return fmt.Errorf("no profiles directory: pass -dir or set app.profiles_dir")
		}
		stats, err := app.profileUC.ImportDir(ctx, dir)
		if err != nil {
			return err
		}
		logger.Info().
			Int("total", stats.Total).
			Int("created", stats.Created).
			Int("existed", stats.Existed).
			Msg("profiles imported")
		return nil

	case "jobs":
		runner, err := sched.NewRunner(app.pushUC, app.maintUC, 0, logger)
		if err != nil {
			return err
		}
		ops := startOps(cfg, logger)
		runner.Start()
		<-ctx.Done()
		runner.Stop()
		stopOps(ops, logger)
		return nil

	default:
		fmt.Fprint(os.Stderr, usageText)
		return fmt.Errorf("unknown command %q", command)
	}
}

// application holds everything the subcommands pick from. All commands share
// the same wiring so each one stays a few lines.
type application struct {
	pool  *pgxpool.Pool
	redis red.Client
	mq    *rabbit.Rabbit

	profileUC usecase.ProfileUseCase
	pushUC    usecase.PushUseCase
	maintUC   usecase.MaintenanceUseCase

	dispatcher   *telegram.Dispatcher
	pushSender   *telegram.PushSender
	promptSender *telegram.PromptSender

	consumer *rabbit.Consumer
	logger   *zerolog.Logger
}

func wire(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*application, error) {
	pool, err := pg.NewPool(ctx, cfg.Database.URL, cfg.Database.PoolSize)
	if err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}

	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("redis: %w", err)
	}

	mq, err := rabbit.Dial(cfg.Rabbit.URL)
	if err != nil {
		pool.Close()
		_ = redisClient.Close()
		return nil, fmt.Errorf("rabbitmq: %w", err)
	}
	if err := mq.EnsureTopology(); err != nil {
		pool.Close()
		_ = redisClient.Close()
		_ = mq.Close()
		return nil, fmt.Errorf("rabbitmq topology: %w", err)
	}

	t, err := i18n.NewLocalizer(i18n.LocalesFS, cfg.I18n.Default, cfg.I18n.Supported)
	if err != nil {
		return nil, fmt.Errorf("i18n: %w", err)
	}

	userRepo := pg.NewUserRepo(pool)
	updatesRepo := pg.NewProcessedUpdatesRepo(pool)
	boundsCache := red.NewBoundsCache(redisClient, cfg.Push.BoundsCacheTTL)
	var profileRepo repository.ProfileRepository = pg.NewProfileRepo(pool)
	profileRepo = pg.NewProfileRepoCacheDecorator(profileRepo, boundsCache)
	batchCache := red.NewBatchCache(redisClient, cfg.Push.BatchCacheTTL)
	locker := red.NewLocker(redisClient)

	publisher := rabbit.NewPublisher(mq)

	kb := telegram.NewKeyboardFactory(t, cfg.App.ProfileCreateURL, cfg.App.ConnectURL)
	payloads := telegram.NewPayloadFactory(t, kb, cfg.App.PublicBaseURL)

	profileUC := usecase.NewProfileUseCase(profileRepo, batchCache, logger)
	pushUC := usecase.NewPushUseCase(userRepo, profileUC, publisher, payloads, locker, cfg.Push, cfg.Bot.ID, logger)
	maintUC := usecase.NewMaintenanceUseCase(userRepo, updatesRepo, locker, cfg.Bot.ID, logger)

	bot, err := tgbot.NewRealBot(&cfg.Bot, logger)
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}

	dispatcher := telegram.NewDispatcher(t, bot, kb, payloads, userRepo, updatesRepo, profileUC, publisher, cfg.Push.PromptDelay, logger)
	pushSender := telegram.NewPushSender(bot, userRepo, logger)
	promptSender := telegram.NewPromptSender(t, bot, kb, userRepo, logger)

	return &application{
		pool:         pool,
		redis:        redisClient,
		mq:           mq,
		profileUC:    profileUC,
		pushUC:       pushUC,
		maintUC:      maintUC,
		dispatcher:   dispatcher,
		pushSender:   pushSender,
		promptSender: promptSender,
		consumer:     rabbit.NewConsumer(mq, logger),
		logger:       logger,
	}, nil
}

// consumeWithOps runs a bounded consumer alongside the ops listener. The
// consumer returning nil means a lifetime limit was hit; the process exits
// zero and supervision restarts it fresh.
func (a *application) consumeWithOps(ctx context.Context, cfg *config.Config, queue string, handler rabbit.Handler) error {
	ops := startOps(cfg, a.logger)
	defer stopOps(ops, a.logger)

	limits := rabbit.Limits{
		Messages: cfg.Consumer.MessagesLimit,
		MemoryMB: cfg.Consumer.MemoryLimitMB,
	}
	err := a.consumer.Consume(ctx, queue, handler, limits)
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}

func (a *application) Close() {
	_ = a.mq.Close()
	_ = a.redis.Close()
	a.pool.Close()
}

func startOps(cfg *config.Config, logger *zerolog.Logger) *web.Server {
	if cfg.Admin.Port == 0 {
		return nil
	}
	srv := web.NewServer(cfg.Admin.Port, logger)
	go srv.Start()
	return srv
}

func stopOps(srv *web.Server, logger *zerolog.Logger) {
	if srv == nil {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("ops server shutdown failed")
	}
}
