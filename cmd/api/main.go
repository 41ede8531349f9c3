package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"taskhive.org/internal/access"
	"taskhive.org/internal/audit"
	"taskhive.org/internal/httpapi"
	"taskhive.org/internal/obs"
	"taskhive.org/internal/session"
	"taskhive.org/internal/task"
)

var (
	version = "0.3.0"
	commit  = "dev"
)

func main() {
	_ = godotenv.Load()

	obs.Init()
	obs.InitBuildInfo(version, commit)

	secret := os.Getenv("TASKHIVE_JWT_SECRET")
	if secret == "" {
		log.Fatal("TASKHIVE_JWT_SECRET is required")
	}
	dsn := os.Getenv("TASKHIVE_PG_DSN")
	if dsn == "" {
		log.Fatal("TASKHIVE_PG_DSN is required")
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	sessions := session.NewPGStore(db)
	users := task.NewPGStore(db)

	var issuerOpts []session.Option
	if ttl := envDuration("TASKHIVE_ACCESS_TTL"); ttl > 0 {
		issuerOpts = append(issuerOpts, session.WithAccessTTL(ttl))
	}
	if ttl := envDuration("TASKHIVE_REFRESH_TTL"); ttl > 0 {
		issuerOpts = append(issuerOpts, session.WithRefreshTTL(ttl))
	}
	if window := envDuration("TASKHIVE_ACTIVITY_WINDOW"); window > 0 {
		issuerOpts = append(issuerOpts, session.WithActivityWindow(window))
	}
	issuer, err := session.NewIssuer(sessions, httpapi.NewUserDirectory(users), secret, issuerOpts...)
	if err != nil {
		log.Fatalf("issuer: %v", err)
	}
	clock := session.NewClock(sessions)

	guard := access.NewGuard(audit.FanOut{audit.LogSink{}, audit.NewPGSink(db)})
	tasks, err := task.NewService(users, guard)
	if err != nil {
		log.Fatalf("task service: %v", err)
	}

	api := httpapi.New(httpapi.ReadyProbe{DB: db}, version, issuer, clock, tasks, users)

	handler := httpapi.RequestID(
		httpapi.LoggingJSON(
			httpapi.SecurityHeaders(
				httpapi.CORS(
					httpapi.MaxBodyBytes(
						httpapi.RateLimit(api.Handler(), envInt("TASKHIVE_RATE_BURST", 20), envInt("TASKHIVE_RATE_PER_SECOND", 10)),
						1<<20)))))

	srv := &http.Server{
		Addr:              listenAddr(),
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting taskhive-api %s on %s", version, srv.Addr)

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
	if addr := os.Getenv("TASKHIVE_LISTEN_ADDR"); addr != "" {
		return addr
	}
	return ":8080"
}

func envDuration(name string) time.Duration {
	raw := os.Getenv(name)
	if raw == "" {
		return 0
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		log.Fatalf("%s: %v", name, err)
	}
	return d
}

func envInt(name string, def int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		log.Fatalf("%s: %v", name, err)
	}
	return v
}
