package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/sushihentaime/dreamblog/internal/blogservice"
	"github.com/sushihentaime/dreamblog/internal/commentservice"
	"github.com/sushihentaime/dreamblog/internal/common"
	"github.com/sushihentaime/dreamblog/internal/mailservice"
	"github.com/sushihentaime/dreamblog/internal/sweeper"
	"github.com/sushihentaime/dreamblog/internal/tokenservice"
	"github.com/sushihentaime/dreamblog/internal/userservice"
)

const limiterIdleTime = 3 * time.Minute

type application struct {
	config         *Config
	logger         *slog.Logger
	userService    *userservice.UserService
	blogService    *blogservice.BlogService
	commentService *commentservice.CommentService
	limiter        *clientLimiter
	wg             sync.WaitGroup
}

func main() {
	configPath := flag.String("config", ".env", "path to the .env configuration file")
	seedTags := flag.String("seed-tags", "", "seed tags from a JSON array file and exit")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	if err := run(logger, *configPath, *seedTags); err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
}

func run(logger *slog.Logger, configPath, seedTagsPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	db, err := common.NewDB(cfg.DB.Host, cfg.DB.Port, cfg.DB.User, cfg.DB.Password, cfg.DB.Name, cfg.DB.MaxOpenConns, cfg.DB.MaxIdleConns, cfg.DB.MaxIdleTime)
	if err != nil {
		return fmt.Errorf("failed to connect to the database: %w", err)
	}
	defer common.CloseDB(db)

	m, err := common.Migrate(cfg.MigrationsPath, cfg.dsn())
	if err != nil {
		return err
	}
	m.Close()

	cache := common.NewCache(time.Hour, 2*time.Hour)

	if seedTagsPath != "" {
		blogService := blogservice.NewBlogService(db, cache, nil, logger)
		return seedTagsFromFile(context.Background(), blogService, seedTagsPath, logger)
	}

	broker, err := common.NewMessageBroker(cfg.amqpURI())
	if err != nil {
		return fmt.Errorf("failed to connect to the message broker: %w", err)
	}
	defer broker.Close()

	if err := common.SetupUserExchange(broker); err != nil {
		return fmt.Errorf("failed to setup the user exchange: %w", err)
	}

	if err := common.SetupNotificationExchange(broker); err != nil {
		return fmt.Errorf("failed to setup the notification exchange: %w", err)
	}

	tokens, err := tokenservice.NewTokenService(tokenservice.Keys{
		tokenservice.PurposeAccess:            []byte(cfg.JWT.AccessSecret),
		tokenservice.PurposeRefresh:           []byte(cfg.JWT.RefreshSecret),
		tokenservice.PurposeEmailVerification: []byte(cfg.JWT.VerificationSecret),
		tokenservice.PurposeAccountDeletion:   []byte(cfg.JWT.DeletionSecret),
	})
	if err != nil {
		return fmt.Errorf("failed to create the token service: %w", err)
	}

	userService := userservice.NewUserService(db, broker, tokens, logger)
	notifier := common.NewNotifier(broker, userService, logger)

	app := &application{
		config:         cfg,
		logger:         logger,
		userService:    userService,
		blogService:    blogservice.NewBlogService(db, cache, notifier, logger),
		commentService: commentservice.NewCommentService(db, commentservice.NewBlacklist(cfg.BlacklistWords), notifier, logger),
	}

	if cfg.Limiter.RPS > 0 {
		app.limiter = newClientLimiter(cfg.Limiter.RPS, cfg.Limiter.Burst)
	}

	if cfg.TagsFile != "" {
		if err := seedTagsFromFile(context.Background(), app.blogService, cfg.TagsFile, logger); err != nil {
			return err
		}
	}

	templates, err := mailservice.NewTemplate()
	if err != nil {
		return fmt.Errorf("failed to load the email templates: %w", err)
	}

	mailer := mailservice.NewMailer(cfg.Mail.Host, cfg.Mail.Port, cfg.Mail.User, cfg.Mail.Password, cfg.Mail.Sender, templates)
	mailService := mailservice.NewMailService(broker, mailer, mailservice.NewLogSMSSender(logger), cfg.BaseURL, logger)
	if err := mailService.Start(); err != nil {
		return fmt.Errorf("failed to start the mail consumers: %w", err)
	}
	defer mailService.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sw := sweeper.New(userService, cfg.SweeperInterval, logger)
	app.background(func() { sw.Run(ctx) })

	if app.limiter != nil {
		app.background(func() { app.pruneLimiter(ctx) })
	}

	err = app.serve()

	cancel()
	app.wg.Wait()

	return err
}

func (app *application) pruneLimiter(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			app.limiter.prune(limiterIdleTime)
		case <-ctx.Done():
			return
		}
	}
}

// seedTagsFromFile inserts the tag names listed in a JSON array file. Names that already
// exist are skipped.
func seedTagsFromFile(ctx context.Context, s *blogservice.BlogService, path string, logger *slog.Logger) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read tags file: %w", err)
	}

	var names []string
	if err := json.Unmarshal(b, &names); err != nil {
		return fmt.Errorf("failed to parse tags file: %w", err)
	}
	if len(names) == 0 {
		return errors.New("tags file contains no tags")
	}

	n, err := s.SeedTags(ctx, names)
	if err != nil {
		return fmt.Errorf("failed to seed tags: %w", err)
	}

	logger.Info("seeded tags", slog.String("file", path), slog.Int("inserted", n), slog.Int("listed", len(names)))

	return nil
}
