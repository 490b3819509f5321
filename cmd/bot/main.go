package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	httpapi "github.com/infobot/infobot/internal/api/http"
	"github.com/infobot/infobot/internal/api/telegram"
	appdialog "github.com/infobot/infobot/internal/application/dialog"
	apppayment "github.com/infobot/infobot/internal/application/payment"
	"github.com/infobot/infobot/internal/config"
	domaindialog "github.com/infobot/infobot/internal/domain/dialog"
	domainpayment "github.com/infobot/infobot/internal/domain/payment"
	"github.com/infobot/infobot/internal/infrastructure/images"
	"github.com/infobot/infobot/internal/infrastructure/memstore"
	"github.com/infobot/infobot/internal/infrastructure/redisstore"
	"github.com/infobot/infobot/internal/infrastructure/yookassa"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(os.Stdout).Level(level).With().Timestamp().Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// state store
	var store domainpayment.Store
	if cfg.RedisAddr != "" {
		redisStore, err := redisstore.New(ctx, redisstore.Options{
			Addr:     cfg.RedisAddr,
			Username: cfg.RedisUser,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			log.Fatalf("redis error: %v", err)
		}
		defer redisStore.Close()
		store = redisStore
	} else {
		logger.Warn().Msg("no redis address configured, state is in-memory only")
		store = memstore.New()
	}

	// dialog tree
	preparer := images.New()
	parser := domaindialog.NewParser(cfg.ImageDir, preparer.Prepare)
	registry := domaindialog.NewRegistry(nil)
	treeSvc := appdialog.NewService(registry, parser, cfg.TreePath, logger)
	if err := treeSvc.Load(); err != nil {
		log.Fatalf("dialog tree error: %v", err)
	}

	// chat transport
	botAPI, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		log.Fatalf("telegram error: %v", err)
	}

	// payment provider + coordinator
	provider := yookassa.NewClient(yookassa.Config{
		ShopID:       cfg.PaymentAccountID,
		SecretKey:    cfg.PaymentSecretKey,
		Amount:       cfg.PaymentCost,
		Currency:     cfg.PaymentCurrency,
		Description:  cfg.PaymentDescription,
		ReturnURL:    cfg.PaymentReturnURL,
		ReceiptEmail: cfg.PaymentEmail,
		ReceiptPhone: cfg.PaymentPhone,
	})
	notifier := telegram.NewNotifier(botAPI)
	paymentSvc := apppayment.NewService(store, provider, notifier, cfg.PaymentEnabled, logger)

	if err := paymentSvc.Grant(ctx, cfg.PrivilegedUsers); err != nil {
		logger.Error().Err(err).Msg("privileged users bootstrap failed")
	}

	// webhook server
	trusted, err := yookassa.NewTrustedNetworks(cfg.TrustedNetworks)
	if err != nil {
		log.Fatalf("trusted networks error: %v", err)
	}
	webhook := httpapi.NewServer(paymentSvc, trusted, cfg.RoutePrefix, logger)
	httpServer := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      webhook.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", cfg.ServerAddr).Msg("webhook server started")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("webhook server failed")
		}
	}()

	bot := telegram.NewBot(botAPI, registry, paymentSvc, treeSvc, cfg.AdminIDs, cfg.Greeting, logger)
	go func() {
		logger.Info().Str("bot", botAPI.Self.UserName).Msg("bot started")
		if err := bot.Run(ctx); err != nil && err != context.Canceled {
			logger.Error().Err(err).Msg("bot loop stopped")
		}
	}()

	<-ctx.Done()
	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(ctxShutdown)
}
