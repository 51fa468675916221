package main

import (
	"context"
	"flag"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/codebuildervaibhav/call-transcription/internal/audio"
	"github.com/codebuildervaibhav/call-transcription/internal/cleanup"
	"github.com/codebuildervaibhav/call-transcription/internal/config"
	"github.com/codebuildervaibhav/call-transcription/internal/download"
	"github.com/codebuildervaibhav/call-transcription/internal/handlers"
	"github.com/codebuildervaibhav/call-transcription/internal/pipeline"
	"github.com/codebuildervaibhav/call-transcription/internal/queue"
	"github.com/codebuildervaibhav/call-transcription/internal/storage"
	"github.com/codebuildervaibhav/call-transcription/internal/transcription"
)

func main() {
	configPath := flag.String("config", config.DefaultConfigPath, "path to the YAML config file")
	flag.Parse()

	// Custom logger setup
	logBuffer := &LogBuffer{
		lines: make([]string, 0, maxLogLines),
	}
	log.SetOutput(io.MultiWriter(os.Stdout, logBuffer))

	// Load configuration
	cfg, err := config.Loader{Path: *configPath}.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Ensure directories exist
	if err := cleanup.EnsureDir(cfg.Storage.TempDir); err != nil {
		log.Fatalf("Failed to create temp directory: %v", err)
	}
	if err := cleanup.EnsureDir(cfg.Storage.OutputDir); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}

	log.Println("Initializing components...")

	if missing := audio.CheckTools(orDefault(cfg.Audio.FFmpegBinary, "ffmpeg"), orDefault(cfg.Audio.SoxBinary, "sox")); len(missing) > 0 {
		log.Printf("WARNING: audio tools not found on PATH: %s", strings.Join(missing, ", "))
	}

	engine, err := transcription.NewEngine(transcription.Settings{
		Backend:   cfg.Transcription.Backend,
		ModelPath: cfg.Transcription.ModelPath,
		Python:    cfg.Transcription.Python,
		Device:    cfg.Transcription.Device,
		Threads:   cfg.Transcription.Threads,
		BaseURL:   cfg.Transcription.OpenAIBaseURL,
		APIKey:    cfg.Transcription.OpenAIAPIKey,
		Model:     cfg.Transcription.OpenAIModel,
		Timeout:   cfg.TranscriptionTimeout(),
	})
	if err != nil {
		log.Fatalf("Failed to initialize transcription engine: %v", err)
	}

	// Google Drive client (optional - may fail if credentials not set up)
	var archive pipeline.Archiver
	if cfg.GoogleDrive.Enabled {
		driveClient, err := storage.NewDriveClient(context.Background(),
			cfg.GoogleDrive.CredentialsFile,
			cfg.GoogleDrive.TokenFile,
			cfg.GoogleDrive.FolderName,
		)
		if err != nil {
			log.Printf("WARNING: Google Drive not available: %v", err)
			log.Println("Transcripts will only be saved locally")
		} else {
			log.Println("Google Drive integration enabled")
			archive = driveClient
		}
	}

	orchestrator := pipeline.New(pipeline.Options{
		Fetcher: download.NewFetcher(download.Options{
			Timeout:            cfg.FetchTimeout(),
			InsecureSkipVerify: cfg.Fetch.InsecureSkipVerify,
			MaxBytes:           cfg.MaxFileBytes(),
		}),
		Audio:         audio.NewProcessor(audio.ExecFilter{}, cfg.Audio.FFmpegBinary, cfg.Audio.SoxBinary),
		Engine:        engine,
		Store:         storage.NewLocalStorage(cfg.Storage.OutputDir),
		Archive:       archive,
		TempDir:       cfg.Storage.TempDir,
		Language:      cfg.Transcription.Language,
		KeepArtifacts: cfg.Storage.KeepArtifacts,
	})

	// Worker pool
	workerPool := queue.NewWorkerPool(cfg.Workers.Count, cfg.Workers.QueueSize, orchestrator)
	workerPool.Start()
	defer workerPool.Stop()

	// Cleanup scheduler
	cleanupScheduler := cleanup.NewScheduler(
		cfg.Storage.TempDir,
		cfg.Cleanup.IntervalMinutes,
		cfg.Cleanup.MaxAgeHours,
	)
	cleanupScheduler.Start()
	defer cleanupScheduler.Stop()

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept",
	}))

	handlers.Register(app, workerPool, logBuffer.GetLogs)

	addr := cfg.Addr()
	log.Printf("Server starting on %s (language: %s, backend: %s, workers: %d)",
		addr, cfg.Transcription.Language, cfg.Transcription.Backend, cfg.Workers.Count)
	log.Println("Endpoints:")
	log.Println("   POST /transcribe     - Transcribe a two-channel call recording")
	log.Println("   GET  /ws/transcribe  - Same, with stage progress over WebSocket")
	log.Println("   GET  /logs           - View server logs")
	log.Println("   GET  /health         - Health check")

	// Graceful shutdown
	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		log.Println("Shutting down gracefully...")
		app.Shutdown()
	}()

	if err := app.Listen(addr); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

const maxLogLines = 1000

// LogBuffer captures logs in memory
type LogBuffer struct {
	lines []string
	mu    sync.Mutex
}

func (lb *LogBuffer) Write(p []byte) (n int, err error) {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	lb.lines = append(lb.lines, string(p))

	if len(lb.lines) > maxLogLines {
		lb.lines = lb.lines[len(lb.lines)-maxLogLines:]
	}

	return len(p), nil
}

// GetLogs returns a copy of the buffered lines
func (lb *LogBuffer) GetLogs() []string {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	logs := make([]string, len(lb.lines))
	copy(logs, lb.lines)
	return logs
}
