package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-auth-go/internal/auth"
	"github.com/ovaphlow/pitchfork/service-auth-go/internal/config"
	"github.com/ovaphlow/pitchfork/service-auth-go/internal/router"
	"github.com/ovaphlow/pitchfork/service-auth-go/internal/token"
	"github.com/ovaphlow/pitchfork/service-auth-go/internal/user"
	userrepo "github.com/ovaphlow/pitchfork/service-auth-go/internal/user/repo"
	"github.com/ovaphlow/pitchfork/service-auth-go/pkg/database"
	"github.com/ovaphlow/pitchfork/service-auth-go/pkg/utilities"
)

func main() {
	// load .env file if present so os.Getenv picks values from it
	// this is best-effort: if no .env exists, continue (use defaults or real env)
	_ = godotenv.Load()

	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// init logger
	lg, err := utilities.Init(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer lg.Sync()

	sugar := lg.Sugar()
	sugar.Infow("starting service-auth-go", "user_store", cfg.UserStore, "alg", cfg.Token.Algorithm)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg, sugar)
	if err != nil {
		sugar.Fatalf("user store: %v", err)
	}
	defer closeStore()

	codec, err := token.NewCodec(cfg.Token)
	if err != nil {
		sugar.Fatalf("token codec: %v", err)
	}
	issuer := token.NewIssuer(codec, cfg.Token)
	users := user.NewUserService(store, user.BcryptHasher{Cost: cfg.BcryptCost})
	if cfg.SeedDemo {
		n, err := users.Seed(ctx, user.DemoUsers)
		if err != nil {
			sugar.Fatalf("seed demo users: %v", err)
		}
		sugar.Infow("seeded demo users", "created", n)
	}
	svc := auth.NewService(users, issuer, token.NewVerifier(codec, issuer), sugar)

	// mount http server
	handler := router.RegisterRoutes(sugar, auth.NewHandler(svc, cfg.Cookie, sugar))
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// run server in background
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			sugar.Fatalf("http server failed: %v", err)
		}
	}()
	sugar.Infow("service is running; press Ctrl+C to stop", "addr", cfg.HTTPAddr)

	<-ctx.Done()

	sugar.Info("shutting down")

	// give a short grace period for cleanup
	doneCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// shutdown http server
	if err := srv.Shutdown(doneCtx); err != nil {
		sugar.Warnf("http server shutdown failed: %v", err)
	}

	sugar.Info("goodbye")
}

func openStore(ctx context.Context, cfg config.Config, sugar *zap.SugaredLogger) (user.Store, func(), error) {
	if cfg.UserStore == config.StoreMemory {
		sugar.Warn("using in-memory user store; accounts are lost on restart")
		return userrepo.NewMemoryRepo(), func() {}, nil
	}
	db, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	r := userrepo.NewUserRepo(db)
	if err := r.EnsureTable(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("ensure users table: %w", err)
	}
	return r, func() { db.Close() }, nil
}
