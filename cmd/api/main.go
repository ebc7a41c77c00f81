package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"curalink.org/internal/auth"
	"curalink.org/internal/directory"
	"curalink.org/internal/favorites"
	"curalink.org/internal/forum"
	"curalink.org/internal/httpapi"
	"curalink.org/internal/obs"
	"curalink.org/internal/store/pg"
	"curalink.org/internal/stream"
	"curalink.org/internal/workflow"
)

var (
	version = "0.3.0"
	commit  = "dev"
)

func main() {
	// Local overrides; absence of the file is fine.
	_ = godotenv.Load()

	obs.Init()
	obs.InitBuildInfo(version, commit)

	addr := os.Getenv("CURALINK_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	if os.Getenv("CURALINK_AUTH_SECRET") == "" {
		obs.Log("error", "CURALINK_AUTH_SECRET is not set", nil)
		os.Exit(1)
	}

	// Stores: Postgres when a DSN is configured, in-memory otherwise. The
	// directory catalog is in-memory in both modes; it is seeded from external
	// registries, not user writes.
	var (
		userStore auth.UserStore     = auth.NewInMemoryUsers()
		favStore  favorites.Store    = favorites.NewInMemoryStore()
		flowStore workflow.Store     = workflow.NewInMemoryStore()
		forumSt   forum.Store        = forum.NewInMemoryStore()
		probe     httpapi.ReadyProbe
	)
	if dsn := os.Getenv("CURALINK_PG_DSN"); dsn != "" {
		pgStore, err := pg.Open(dsn)
		if err != nil {
			obs.Log("error", "open postgres", map[string]any{"err": err.Error()})
			os.Exit(1)
		}
		defer pgStore.Close()
		userStore = pgStore.Users()
		favStore = pgStore.Favorites()
		flowStore = pgStore.Workflows()
		probe = httpapi.ReadyProbe{DB: pgStore.DB()}
	}

	dir := directory.NewInMemory()
	users := auth.NewService(userStore)
	favs := favorites.NewService(favStore)
	flows := workflow.NewService(flowStore, func(ctx context.Context, expertID string) (string, error) {
		userID, err := dir.ExpertUserID(ctx, expertID)
		if err != nil {
			if err == directory.ErrNotFound {
				return "", workflow.ErrInvalidInput
			}
			return "", err
		}
		return userID, nil
	})
	forums := forum.NewService(forumSt)
	events := stream.New()

	api := httpapi.New(probe, version, users, dir, favs, flows, forums, events)

	srv := &http.Server{
		Addr:              addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	obs.Log("info", "starting curalink-api", map[string]any{
		"version": version,
		"addr":    addr,
	})

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			obs.Log("error", "listen", map[string]any{"err": err.Error()})
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	obs.Log("info", "shutting down", nil)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	obs.Log("info", "stopped", nil)
}
