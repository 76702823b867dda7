package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"canvas-editor/internal/common/config"
	"canvas-editor/internal/common/middleware"
	"canvas-editor/internal/editor/diagnostics"
	"canvas-editor/internal/editor/handlers"
	"canvas-editor/internal/editor/session"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/log"
	"github.com/gofiber/fiber/v3/middleware/recover"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// ============================================================
// Editor Service
// ============================================================

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log.SetLevel(middleware.ParseLevel(cfg.Editor.LogLevel))

	// ============================================================
	// Diagnostics
	// ============================================================

	reporter := diagnostics.Reporter(diagnostics.LogReporter{})
	var journal *diagnostics.Journal
	if cfg.Editor.DiagnosticsDB != "" {
		db, err := diagnostics.OpenSQLite(cfg.Editor.DiagnosticsDB)
		if err != nil {
			log.Fatalf("Failed to open diagnostics db: %v", err)
		}
		journal = diagnostics.NewJournal(db)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err = journal.Init(ctx)
		cancel()
		if err != nil {
			log.Fatalf("Failed to migrate diagnostics db: %v", err)
		}
		defer journal.Close()

		reporter = diagnostics.Multi(reporter, journal)
		log.Infof("[EDITOR] diagnostics journal at %s", cfg.Editor.DiagnosticsDB)
	}

	sessions := session.NewManager(session.Options{
		Width:            cfg.Editor.CanvasWidth,
		Height:           cfg.Editor.CanvasHeight,
		HandlerRadius:    cfg.Editor.HandlerRadius,
		AreaTolerance:    cfg.Editor.AreaTolerance,
		HitThickness:     cfg.Editor.HitThickness,
		RulerCm:          cfg.Editor.RulerCm,
		MaxCanvas:        cfg.Editor.MaxCanvas,
		RollbackOnCancel: cfg.Editor.RollbackOnCancel,
		Reporter:         reporter,
	})

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Editor.MaxUploadBytes + 1<<20,
		AppName:      "Canvas Editor Service",
	})

	// ============================================================
	// Global Middleware
	// ============================================================

	app.Use(recover.New())
	app.Use(middleware.Logger(cfg.Editor.LogLevel))
	app.Use(middleware.CORS(cfg.Editor.AllowOrigins))

	// ============================================================
	// Editor Routes
	// ============================================================

	handlers.NewEditor(sessions, journal, cfg.Editor.MaxUploadBytes).Register(app)

	// ============================================================
	// Server Start
	// ============================================================

	addr := fmt.Sprintf(":%s", cfg.Port)
	log.Infof("Starting Canvas Editor Service on %s (env: %s)", addr, cfg.Environment)

	if err := app.Listen(addr); err != nil {
		log.Errorf("Failed to start server: %v", err)
	}
}
