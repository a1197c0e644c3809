// Command seed loads the demo accounts into the Postgres user store.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/ovaphlow/pitchfork/service-auth-go/internal/user"
	userrepo "github.com/ovaphlow/pitchfork/service-auth-go/internal/user/repo"
	"github.com/ovaphlow/pitchfork/service-auth-go/pkg/database"
	"github.com/ovaphlow/pitchfork/service-auth-go/pkg/utilities"
)

func main() {
	_ = godotenv.Load()

	lg, err := utilities.Init(utilities.ConfigFromEnv())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer lg.Sync()
	sugar := lg.Sugar()

	ctx := context.Background()
	db, err := database.Connect(ctx, database.ConfigFromEnv())
	if err != nil {
		sugar.Fatalf("db connect: %v", err)
	}
	defer db.Close()

	r := userrepo.NewUserRepo(db)
	if err := r.EnsureTable(ctx); err != nil {
		sugar.Fatalf("ensure users table: %v", err)
	}
	n, err := user.NewUserService(r, nil).Seed(ctx, user.DemoUsers)
	if err != nil {
		sugar.Fatalf("seed: %v", err)
	}
	sugar.Infow("seed finished", "created", n, "total", len(user.DemoUsers))
}
