package main

import (
	"context"
	"errors"
	"flag"
	"math/rand"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Scrimzay/seagulltown/internal/config"
	"github.com/Scrimzay/seagulltown/internal/journal"
	"github.com/Scrimzay/seagulltown/internal/server"
	"github.com/Scrimzay/seagulltown/internal/world"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file (optional)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		// no logger yet
		zap.NewExample().Fatal("load config", zap.Error(err))
	}

	log, err := newLogger(cfg.Logging)
	if err != nil {
		zap.NewExample().Fatal("build logger", zap.Error(err))
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg config.Config, log *zap.Logger) error {
	seed := cfg.World.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	log.Info("generating world", zap.Int64("seed", seed))
	layout := world.Generate(cfg.World.GenParams, rand.New(rand.NewSource(seed)))
	log.Info("world generated",
		zap.Int("buildings", len(layout.Buildings)),
		zap.Int("requested", cfg.World.Buildings),
		zap.Int("roads", len(layout.Roads)),
		zap.Int("npcs", len(layout.NPCs)),
		zap.Int("cars", len(layout.Cars)),
	)

	store := world.NewStore(layout, cfg.World.WalkLimit())
	broadcaster := world.NewBroadcaster(store, world.BroadcasterOptions{
		WriteTimeout: cfg.WriteTimeout,
		NPCTick:      cfg.NPCTick,
		SendBuffer:   cfg.SendBuffer,
	}, log)

	rec := journal.Discard
	if cfg.JournalDir != "" {
		w := journal.NewWriter(cfg.JournalDir, "session")
		defer w.Close()
		rec = w
		log.Info("session journal enabled", zap.String("dir", cfg.JournalDir))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go broadcaster.Run(ctx)

	gin.SetMode(gin.ReleaseMode)
	gameServer := server.New(store, broadcaster, rec, server.Options{
		MaxFrameBytes: cfg.MaxFrameBytes,
		ChatRate:      cfg.ChatRate,
		ChatBurst:     cfg.ChatBurst,
	}, log)

	// bind up front so a taken port fails startup instead of a goroutine
	ln, err := net.Listen("tcp", cfg.Addr())
	if err != nil {
		return err
	}

	srv := &http.Server{Handler: server.SetupRouter(gameServer)}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	log.Info("listening", zap.String("addr", ln.Addr().String()))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func newLogger(cfg config.Logging) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
