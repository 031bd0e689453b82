package main

import (
	"fmt"
	"io"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/attendance-app/internal/models"
	"github.com/noah-isme/attendance-app/internal/repository"
	"github.com/noah-isme/attendance-app/internal/service"
	"github.com/noah-isme/attendance-app/pkg/apiclient"
	"github.com/noah-isme/attendance-app/pkg/config"
	"github.com/noah-isme/attendance-app/pkg/export"
	"github.com/noah-isme/attendance-app/pkg/logger"
	"github.com/noah-isme/attendance-app/pkg/storage"
)

// app holds the services one CLI invocation needs.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	out    io.Writer

	auth       *service.AuthService
	selector   *service.SelectorService
	roster     *service.RosterService
	submission *service.SubmissionService
	reports    *service.ReportService
	slots      []models.SessionLabel

	closers []func() error
}

func loadApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logr, err := logger.NewCLI(cfg)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	store, closer, err := openStateStore(cfg)
	if err != nil {
		return nil, err
	}
	a := newApp(cfg, logr, store)
	if closer != nil {
		a.closers = append(a.closers, closer)
	}
	return a, nil
}

func newApp(cfg *config.Config, logr *zap.Logger, store storage.Store) *app {
	if logr == nil {
		logr = zap.NewNop()
	}
	api := apiclient.New(cfg.Upstream, logr)
	subjectRepo := repository.NewSubjectRepository(api)
	attendanceRepo := repository.NewAttendanceRepository(api)

	return &app{
		cfg:        cfg,
		logger:     logr,
		auth:       service.NewAuthService(repository.NewAuthRepository(api), store, validator.New(), logr, service.AuthConfig{}, nil),
		selector:   service.NewSelectorService(subjectRepo, logr),
		roster:     service.NewRosterService(subjectRepo, attendanceRepo, logr),
		submission: service.NewSubmissionService(attendanceRepo, nil, logr),
		reports:    service.NewReportService(repository.NewReportRepository(api), service.ReportConfig{DefaultWindow: cfg.Reports.DefaultWindow}, logr, export.NewCSVExporter(), export.NewPDFExporter()),
		slots:      models.SessionLabels(cfg.Workflow.SessionSlots...),
	}
}

// openStateStore keeps the device session in an encrypted file by default, or
// in Redis when STATE_BACKEND=redis.
func openStateStore(cfg *config.Config) (storage.Store, func() error, error) {
	if cfg.State.Backend == config.StateBackendRedis {
		client, err := storage.NewRedis(cfg.Redis)
		if err != nil {
			return nil, nil, fmt.Errorf("connect redis: %w", err)
		}
		return storage.NewRedisStore(client, "cli"), client.Close, nil
	}
	store, err := storage.NewFileStore(cfg.State.Dir, cfg.State.Secret)
	if err != nil {
		return nil, nil, fmt.Errorf("open state dir: %w", err)
	}
	return store, nil, nil
}

func (a *app) close() {
	_ = a.logger.Sync()
	for _, c := range a.closers {
		_ = c()
	}
}
