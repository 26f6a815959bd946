package main

import (
	"context"
	"log"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/glabrego/bookreview-cli/internal/app"
	"github.com/glabrego/bookreview-cli/internal/bookreview"
	"github.com/glabrego/bookreview-cli/internal/config"
	"github.com/glabrego/bookreview-cli/internal/logger"
	"github.com/glabrego/bookreview-cli/internal/storage"
	"github.com/glabrego/bookreview-cli/internal/tui"
)

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logFile, err := logger.OpenFile(cfg.LogPath)
	if err != nil {
		log.Fatalf("log file error: %v", err)
	}
	defer logFile.Close()
	appLogger := logger.New(logger.Config{
		Writer: logFile,
		Format: cfg.LogFormat,
		Level:  logger.ParseLevel(cfg.LogLevel),
	})

	repo, err := storage.NewRepository(cfg.DBPath)
	if err != nil {
		log.Fatalf("storage init error: %v", err)
	}
	defer repo.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := repo.Init(ctx); err != nil {
		log.Fatalf("storage schema error: %v", err)
	}
	if err := repo.CheckWritable(ctx); err != nil {
		log.Fatalf("storage write check failed (%v). Verify BOOKREVIEW_DB_PATH is writable: %s", err, cfg.DBPath)
	}

	client := bookreview.NewClient(cfg.APIBaseURL, nil, bookreview.WithLogger(appLogger))
	service := app.NewService(client, repo, app.Options{
		PageLimit:  cfg.PageLimit,
		PreviewDir: os.TempDir(),
		Logger:     appLogger,
	})
	appLogger.Info("starting", "api", cfg.APIBaseURL, "page_limit", cfg.PageLimit)

	model := tui.NewModel(service)
	program := tea.NewProgram(model, tea.WithAltScreen())
	final, err := program.Run()
	if m, ok := final.(tui.Model); ok {
		m.Close()
	}
	if err != nil {
		log.Fatalf("tui error: %v", err)
	}
}
