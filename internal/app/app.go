// Package app assembles the pipeline service from configuration. The REST
// server and the command line share it.
package app

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/ZanzyTHEbar/cogscreen/internal/config"
	"github.com/ZanzyTHEbar/cogscreen/internal/database"
	"github.com/ZanzyTHEbar/cogscreen/internal/model"
	"github.com/ZanzyTHEbar/cogscreen/internal/monitoring"
	"github.com/ZanzyTHEbar/cogscreen/internal/pipeline"
	"github.com/ZanzyTHEbar/cogscreen/internal/resilience"
	"github.com/ZanzyTHEbar/cogscreen/internal/scoring"
)

// Options selects optional parts of the assembly.
type Options struct {
	// WithoutStore skips opening the SQLite store; results are not saved
	// and lookups by id fail.
	WithoutStore bool
	Logger       *monitoring.Logger
	Metrics      *monitoring.Metrics
}

// App holds the assembled components.
type App struct {
	Config  *config.Config
	Logger  *monitoring.Logger
	Metrics *monitoring.Metrics
	Health  *resilience.DegradationManager
	Engine  *scoring.Engine
	Service *pipeline.Service
	DB      *database.DB

	closers []io.Closer
}

// CalibrationDir is where calibration profiles live under the data dir.
func CalibrationDir(cfg *config.Config) string {
	return filepath.Join(cfg.DataDir, "calibration")
}

// New builds the engine, primary model, store and pipeline service.
func New(cfg *config.Config, opts Options) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}

	a := &App{
		Config:  cfg,
		Logger:  opts.Logger,
		Metrics: opts.Metrics,
		Health:  resilience.NewDegradationManager(cfg.Health),
	}
	if a.Logger == nil {
		a.Logger = monitoring.NewNopLogger()
	}
	if a.Metrics == nil {
		a.Metrics = monitoring.NewMetrics()
	}

	tables, err := scoring.NewCalibrationStore(CalibrationDir(cfg)).LoadTables(cfg.Engine.CalibrationProfile)
	if err != nil {
		return nil, fmt.Errorf("load calibration: %w", err)
	}

	engineOpts := []scoring.EngineOption{scoring.WithLogger(a.Logger)}
	primary, err := model.New(cfg.Model)
	if err != nil {
		return nil, fmt.Errorf("configure primary model: %w", err)
	}
	if primary != nil {
		engineOpts = append(engineOpts, scoring.WithPrimaryModel(primary))
		if c, ok := primary.(io.Closer); ok {
			a.closers = append(a.closers, c)
		}
		a.Logger.Info("Primary model configured", "model", primary.Name())
	} else {
		a.Logger.Info("No primary model configured, scoring with fallback only")
	}

	a.Engine, err = scoring.NewEngine(tables, cfg.Engine.EngineConfig, engineOpts...)
	if err != nil {
		a.Close()
		return nil, err
	}

	svcOpts := []pipeline.Option{
		pipeline.WithLogger(a.Logger),
		pipeline.WithMetrics(a.Metrics),
		pipeline.WithDegradationManager(a.Health),
	}
	if !opts.WithoutStore {
		a.DB, err = database.NewDB(cfg.DataDir, cfg.Database)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("open result store: %w", err)
		}
		a.closers = append(a.closers, a.DB)
		svcOpts = append(svcOpts, pipeline.WithStore(database.NewRepository(a.DB)))
	}

	a.Service = pipeline.NewService(a.Engine, cfg.Pipeline, svcOpts...)
	return a, nil
}

// Close releases the store and model connections.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
