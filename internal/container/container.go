package container

import (
	"database/sql"
	"fmt"

	"house-inspect/config"
	app "house-inspect/internal/application"
	"house-inspect/internal/domain/port"
	"house-inspect/internal/infrastructure/export"
	"house-inspect/internal/infrastructure/securestore"
	"house-inspect/internal/infrastructure/storage"
	"house-inspect/internal/infrastructure/vision"
	"house-inspect/internal/logger"
)

type Container struct {
	Config *config.Config
	Logger *logger.Logger

	Store             *securestore.SecureStorage
	UserService       *app.UserService
	InspectionService *app.InspectionService
	ReportService     *app.ReportService
	Recorder          port.VideoRecorder

	db *sql.DB
}

// New собирает зависимости приложения по конфигурации.
func New(cfg *config.Config, log *logger.Logger) (*Container, error) {
	if log == nil {
		log = logger.Nop()
	}
	c := &Container{Config: cfg, Logger: log}

	kv, err := c.openKV()
	if err != nil {
		return nil, err
	}

	enc, err := securestore.NewEncryptionService(cfg.Storage.EncryptionKey)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.Store = securestore.New(kv, enc, cfg.Storage.Prefix, log)

	detector, err := NewDetector(cfg.Detector)
	if err != nil {
		c.Close()
		return nil, err
	}

	reports := storage.NewSecureReportRepository(c.Store)
	analyzer := app.NewAnalyzer(detector,
		app.WithWorkers(cfg.Analysis.Workers),
		app.WithDetectTimeout(cfg.Analysis.DetectTimeout),
		app.WithAnalyzerLogger(log),
	)

	c.UserService = app.NewUserService(storage.NewMemoryUserRepository())
	c.InspectionService = app.NewInspectionService(
		c.UserService,
		reports,
		c.Store,
		vision.NewGoCVFrameExtractor(),
		analyzer,
		app.WithFrameInterval(cfg.Analysis.FrameInterval),
		app.WithInspectionLogger(log),
	)
	c.ReportService = app.NewReportService(reports, log, export.Formatters(false)...)
	c.Recorder = vision.NewGoCVRecorder(cfg.Camera.Device)

	return c, nil
}

func (c *Container) openKV() (port.KeyValueStore, error) {
	switch c.Config.Storage.Backend {
	case "memory":
		return storage.NewMemoryKV(), nil
	case "file":
		return storage.NewFileKV(c.Config.Storage.Dir)
	case "postgres":
		db, err := storage.OpenPostgres(c.Config.Storage.DatabaseURL)
		if err != nil {
			return nil, err
		}
		c.db = db
		return storage.NewPostgresKV(db), nil
	}
	return nil, fmt.Errorf("unknown storage backend %q", c.Config.Storage.Backend)
}

// NewDetector выбирает реализацию детектора
func NewDetector(cfg config.DetectorConfig) (port.ProblemDetector, error) {
	switch cfg.Kind {
	case "simulated":
		return vision.NewSimulatedDetector(cfg.Seed), nil
	case "gocv":
		return vision.NewGoCVDetector(), nil
	case "http":
		return vision.NewHTTPDetector(cfg.Endpoint, cfg.Timeout), nil
	}
	return nil, fmt.Errorf("unknown detector kind %q", cfg.Kind)
}

// Close освобождает соединение с базой, если оно открыто
func (c *Container) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}
