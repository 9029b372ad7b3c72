package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/adb-markers/backend/internal/adb"
	"github.com/adb-markers/backend/internal/api"
	"github.com/adb-markers/backend/internal/capture"
	"github.com/adb-markers/backend/internal/config"
	"github.com/adb-markers/backend/internal/logging"
	"github.com/adb-markers/backend/internal/markers"
	"github.com/adb-markers/backend/internal/web"
)

// Version info (set during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

const configFileName = "adb-markers.config"

func main() {
	configPath := flag.String("config", defaultConfigPath(), "path to the XML or YAML configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.Init(cfg.Advanced.LogFormat, logging.ParseLevel(cfg.Advanced.LogLevel))

	runner := adb.NewExecRunner(cfg.Adb.Path,
		adb.WithMaxOutput(cfg.AdbMaxOutput()),
		adb.WithTimeout(cfg.AdbTimeout()),
		adb.WithLogger(logger),
	)
	source := adb.NewSource(runner).WithLogcatTail(cfg.Adb.LogcatTail)
	pipeline := markers.NewPipeline(source, logger)

	captureMgr := capture.NewManager(pipeline,
		capture.WithMaxCaptures(cfg.Captures.MaxCaptures),
		capture.WithTimeout(cfg.CaptureTimeout()),
		capture.WithLogger(logger),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start background capture cleanup
	go func() {
		ticker := time.NewTicker(cfg.CleanupInterval())
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := captureMgr.CleanupOldCaptures(cfg.CaptureMaxAge()); n > 0 {
					logger.Info("removed expired captures", "count", n)
				}
			}
		}
	}()

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	api.SetupMiddleware(e, cfg, logger)
	api.RegisterRoutes(e, api.NewHandlers(&api.Dependencies{
		Source:   source,
		Pipeline: pipeline,
		Captures: captureMgr,
		Version:  Version,
	}))

	if web.HasEmbeddedFiles() {
		if err := web.RegisterStaticRoutes(e); err != nil {
			logger.Warn("failed to register usage page", "error", err)
		}
	}

	// Configure server with settings from the config file
	s := &http.Server{
		Addr:         cfg.GetServerAddr(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	fmt.Printf("\n")
	fmt.Printf("╔═══════════════════════════════════════════════════════════╗\n")
	fmt.Printf("║           adb markers server                              ║\n")
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Version:    %-45s║\n", Version)
	fmt.Printf("║  Build Time: %-45s║\n", BuildTime)
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Config:    %-46s║\n", *configPath)
	fmt.Printf("║  Listen:    http://%-38s║\n", cfg.GetServerAddr())
	fmt.Printf("║  adb:       %-46s║\n", cfg.Adb.Path)
	fmt.Printf("╚═══════════════════════════════════════════════════════════╝\n")
	fmt.Printf("\n")
	fmt.Printf("Set devtools.performance.recording.markers.external-url to http://localhost:%d/markers\n\n", cfg.Server.Port)

	go func() {
		if err := e.StartServer(s); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

// defaultConfigPath resolves the config file next to the executable, unless
// ADB_MARKERS_CONFIG names another one.
func defaultConfigPath() string {
	if p := os.Getenv("ADB_MARKERS_CONFIG"); p != "" {
		return p
	}
	exePath, err := os.Executable()
	if err != nil {
		return configFileName
	}
	return filepath.Join(filepath.Dir(exePath), configFileName)
}
