package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"caseflow.org/internal/auth"
	"caseflow.org/internal/authz"
	"caseflow.org/internal/httpapi"
	"caseflow.org/internal/obs"
	"caseflow.org/internal/store"
	"caseflow.org/internal/store/pg"
)

var version = "0.3.0"

func main() {
	// Local development convenience; a missing .env is not an error.
	_ = godotenv.Load()

	obs.Init()
	obs.InitBuildInfo(version, os.Getenv("CASEFLOW_COMMIT"))

	dsn := os.Getenv("CASEFLOW_PG_DSN")
	if dsn == "" {
		log.Fatal("CASEFLOW_PG_DSN is required")
	}
	db, err := pg.Open(dsn)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	if os.Getenv("CASEFLOW_MIGRATE") == "1" {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := db.Migrate(ctx); err != nil {
			cancel()
			log.Fatalf("migrate: %v", err)
		}
		cancel()
	}

	codec, err := auth.NewCodec([]byte(os.Getenv("CASEFLOW_AUTH_SECRET")))
	if err != nil {
		log.Fatalf("token codec: %v", err)
	}
	builder, err := auth.NewContextBuilder(codec, db, store.IsNotFound)
	if err != nil {
		log.Fatalf("context builder: %v", err)
	}
	authsvc, err := auth.NewService(codec, db, store.IsNotFound)
	if err != nil {
		log.Fatalf("auth service: %v", err)
	}
	pipeline := authz.NewPipeline(db)

	api := httpapi.New(httpapi.ReadyProbe{DB: db.DB()}, version, builder, authsvc, pipeline, db)

	srv := &http.Server{
		Addr:              listenAddr(),
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting caseflow-api %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	_ = db.Close()
	log.Println("Stopped")
}

func listenAddr() string {
	if addr := os.Getenv("CASEFLOW_LISTEN_ADDR"); addr != "" {
		return addr
	}
	return ":8080"
}
