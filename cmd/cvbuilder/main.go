package main

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/pflag"

	"cvbuilder/internal/app"
	"cvbuilder/internal/artifact"
	"cvbuilder/internal/session"
	"cvbuilder/internal/submission"
	u "cvbuilder/internal/utils"
)

func main() {
	run(os.Args[1:])
}

// options are the command line flags.
type options struct {
	configPath string
	envFile    string
}

func parseFlags(args []string) (options, error) {
	var opts options
	flags := pflag.NewFlagSet("cvbuilder", pflag.ContinueOnError)
	flags.StringVarP(&opts.configPath, "config", "c", "", "Path to config file (overrides CONFIG_PATH)")
	flags.StringVar(&opts.envFile, "env-file", ".env", "Dotenv file to load before reading the config")
	if err := flags.Parse(args); err != nil {
		return opts, err
	}
	return opts, nil
}

func run(args []string) {
	opts, err := parseFlags(args)
	if err != nil {
		u.Error("Invalid flags", "error", err)
		os.Exit(2)
	}

	if err := godotenv.Load(opts.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		u.Warn("Failed to load env file", "file", opts.envFile, "error", err)
	}
	if opts.configPath != "" {
		os.Setenv("CONFIG_PATH", opts.configPath)
	}

	cfg := u.LoadConfig()
	// Allow common container env var to override chrome_path.
	if cfg.Preview.ChromePath == "" {
		if v := os.Getenv("CHROME_BIN"); v != "" {
			cfg.Preview.ChromePath = v
		}
	}
	u.InitLogger(
		cfg.Logger.File,
		cfg.Logger.MaxSizeMB,
		cfg.Logger.MaxBackups,
		cfg.Logger.MaxAgeDays,
		cfg.Logger.Compress,
		cfg.Logger.Level,
	)
	u.SetLogLevel(cfg.Logger.Level)

	urls := artifact.NewObjectURLs(objectURLBackend(cfg), cfg.Cache.ObjectURLTTL)
	deps := session.Deps{
		Generator: submission.NewClient(cfg.Backend.BaseURL),
		Downloader: &artifact.Downloader{
			URLs:            urls,
			Sink:            &artifact.DirSink{Dir: cfg.Download.Dir, URLs: urls},
			DefaultFilename: cfg.Download.DefaultFilename,
		},
	}
	if cfg.Preview.PrintEnabled {
		deps.Printer = artifact.NewPrinter(artifact.PrinterConfig{
			ChromePath: cfg.Preview.ChromePath,
			NoSandbox:  cfg.Preview.ChromeNoSandbox,
			Timeout:    time.Duration(cfg.Preview.TimeoutSecs) * time.Second,
			Paper:      artifact.Paper{Width: cfg.Preview.Paper.Width, Height: cfg.Preview.Paper.Height},
			Margin:     cfg.Preview.Margin,
		})
	}

	sess := session.New(deps)
	defer sess.Close()
	u.Info("Using generation backend", "url", cfg.Backend.BaseURL, "session", sess.ID)

	idleConnsClosed := make(chan struct{})
	app := app.SetupApp(cfg, sess)

	startServer(app, cfg, idleConnsClosed)
	<-idleConnsClosed
}

// objectURLBackend returns Redis when configured and reachable, memory otherwise.
func objectURLBackend(cfg u.Config) artifact.Backend {
	if cfg.Cache.RedisHost == "" {
		return artifact.NewMemoryBackend()
	}

	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.Cache.RedisHost,
		DB:   cfg.Cache.ObjectURLDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		u.Warn("Redis unavailable for object urls, falling back to memory", "addr", cfg.Cache.RedisHost, "error", err)
		_ = rdb.Close()
		return artifact.NewMemoryBackend()
	}
	u.Info("Using Redis for object urls", "addr", cfg.Cache.RedisHost, "db", cfg.Cache.ObjectURLDB)
	return artifact.NewRedisBackend(rdb)
}

// startServer starts the Fiber app and listens for shutdown signals
func startServer(app *fiber.App, cfg u.Config, idleConnsClosed chan struct{}) {
	go func() {
		if err := app.Listen(cfg.Server.Host + cfg.Server.Port); err != nil {
			u.Error("Server error", "error", err)
		}
	}()

	// Listen for OS termination signals
	sigint := make(chan os.Signal, 1)
	signal.Notify(sigint, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigint)
	<-sigint

	u.Warn("Shutdown signal received, closing server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		u.Error("Server forced to shutdown", "error", err)
	}

	close(idleConnsClosed)
	u.Info("Server stopped cleanly")
}
