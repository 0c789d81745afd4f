package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"storefront/internal/config"
	"storefront/internal/handler"
	"storefront/internal/infra/catalog"
	"storefront/internal/infra/db"
	"storefront/internal/infra/events"
	"storefront/internal/infra/payment"
	"storefront/internal/infra/reconcile"
	infraRepo "storefront/internal/infra/repository"
	"storefront/internal/infra/statestore"
	"storefront/internal/logger"
	"storefront/internal/promo"
	"storefront/internal/server"
	"storefront/internal/usecase"
	"storefront/internal/validator"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	//.envは無くてもよい
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.GoEnv)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	//DB接続
	gormDB, err := db.Connect(cfg)
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	if err := db.Migrate(gormDB); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	//Redis（カート・お気に入り・チェックアウト・再登録キュー）
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer func() { _ = rdb.Close() }()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	store := statestore.NewRedisStore(rdb)
	queue := reconcile.NewRedisQueue(rdb)

	//Repository（GORM実装）
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	orderRepo := infraRepo.NewOrderGormRepository(gormDB)
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	txm := infraRepo.NewTxManagerGorm(gormDB)

	//外部サービス
	remote := catalog.NewClient(catalog.Config{
		URL:     cfg.CatalogURL,
		Token:   cfg.CatalogToken,
		Timeout: cfg.CatalogTimeout,
	}, nil, log)
	storeCatalog := catalog.NewStoreCatalog(productRepo, log)

	var processor payment.Processor
	if cfg.StripeSecretKey != "" {
		processor = payment.NewStripeProcessor(cfg.StripeSecretKey)
	} else {
		log.Warn("STRIPE_SECRET_KEY is empty, using fake payment processor")
		processor = payment.NewFakeProcessor()
	}

	var publisher interface {
		usecase.OrderEventPublisher
		Close() error
	} = events.NopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		publisher = events.NewKafkaPublisher(events.NewKafkaWriter(cfg.OrderEventsTopic, cfg.KafkaBrokers...))
	}
	defer func() { _ = publisher.Close() }()

	coupons := promo.DefaultCoupons()

	//Usecase
	productUC := usecase.NewProductUsecase(remote, storeCatalog, log)
	cartUC := usecase.NewCartUsecase(store, coupons, productUC, cfg.Currency, log)
	wishlistUC := usecase.NewWishlistUsecase(store, coupons, productUC, log)
	checkoutUC := usecase.NewCheckoutUsecase(usecase.CheckoutDeps{
		Tx:        txm,
		Users:     userRepo,
		Store:     store,
		Coupons:   coupons,
		GiftCards: promo.DefaultGiftCards(),
		Processor: processor,
		Publisher: publisher,
		Queue:     queue,
		Logger:    log,
	}, usecase.CheckoutConfig{
		Currency:        cfg.Currency,
		CODMinimumTotal: cfg.CODMinimumTotal,
	})
	orderUC := usecase.NewOrderUsecase(txm)
	adminOrderUC := usecase.NewAdminOrderUsecase(txm)
	adminProductUC := usecase.NewAdminProductUsecase(txm, cfg.Currency)
	analyticsUC := usecase.NewAdminAnalyticsUsecase(orderRepo, productRepo)
	auditUC := usecase.NewAdminAuditUsecase(txm)
	authUC := usecase.NewAuthUsecase(cfg, userRepo, validator.NewAuthValidator(userRepo), log)

	if err := authUC.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		return fmt.Errorf("ensure admin: %w", err)
	}

	//決済済みで未保存の注文を拾う
	poller := usecase.NewReconcilePoller(queue, checkoutUC, cfg.ReconcileInterval, cfg.ReconcileMaxAttempts, log)
	go poller.Run(ctx)

	e := server.New(cfg, log)
	server.RegisterRoutes(e, cfg, userRepo, server.Handlers{
		Auth:         handler.NewAuthHandler(authUC),
		Product:      handler.NewProductHandler(productUC),
		Cart:         handler.NewCartHandler(cartUC),
		Wishlist:     handler.NewWishlistHandler(wishlistUC),
		Checkout:     handler.NewCheckoutHandler(checkoutUC),
		Order:        handler.NewOrderHandler(orderUC),
		AdminOrder:   handler.NewAdminOrderHandler(adminOrderUC, analyticsUC),
		AdminProduct: handler.NewAdminProductHandler(adminProductUC),
		AdminUser:    handler.NewAdminUserHandler(authUC),
		AdminAudit:   handler.NewAdminAuditHandler(auditUC),
	})

	return server.Start(ctx, e, ":"+cfg.Port, log)
}
