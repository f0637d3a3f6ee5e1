package resilience

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"
)

// DegradationLevel represents the current degradation state
type DegradationLevel int

const (
	LevelNormal DegradationLevel = iota
	LevelDegraded
	LevelCritical
	LevelEmergency
)

func (l DegradationLevel) String() string {
	switch l {
	case LevelNormal:
		return "normal"
	case LevelDegraded:
		return "degraded"
	case LevelCritical:
		return "critical"
	case LevelEmergency:
		return "emergency"
	default:
		return "unknown"
	}
}

func (l DegradationLevel) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

func (l *DegradationLevel) UnmarshalText(text []byte) error {
	for level := LevelNormal; level <= LevelEmergency; level++ {
		if level.String() == string(text) {
			*l = level
			return nil
		}
	}
	return fmt.Errorf("unknown degradation level %q", text)
}

// DegradationConfig holds configuration for graceful degradation
type DegradationConfig struct {
	DegradedThreshold  float64       `json:"degraded_threshold" yaml:"degraded_threshold" mapstructure:"degraded_threshold"`
	CriticalThreshold  float64       `json:"critical_threshold" yaml:"critical_threshold" mapstructure:"critical_threshold"`
	EmergencyThreshold float64       `json:"emergency_threshold" yaml:"emergency_threshold" mapstructure:"emergency_threshold"`
	Window             time.Duration `json:"window" yaml:"window" mapstructure:"window"`
	HealthCheckTimeout time.Duration `json:"health_check_timeout" yaml:"health_check_timeout" mapstructure:"health_check_timeout"`
}

// DefaultDegradationConfig returns sensible defaults
func DefaultDegradationConfig() DegradationConfig {
	return DegradationConfig{
		DegradedThreshold:  0.1,
		CriticalThreshold:  0.25,
		EmergencyThreshold: 0.5,
		Window:             5 * time.Minute,
		HealthCheckTimeout: 2 * time.Second,
	}
}

// ServiceHealth is a snapshot of one dependency's recent outcomes.
type ServiceHealth struct {
	ServiceName   string           `json:"service_name"`
	Level         DegradationLevel `json:"level"`
	ErrorRate     float64          `json:"error_rate"`
	TotalRequests int64            `json:"total_requests"`
	ErrorCount    int64            `json:"error_count"`
	LastError     string           `json:"last_error,omitempty"`
	LastErrorTime *time.Time       `json:"last_error_time,omitempty"`
	StatusMessage string           `json:"status_message"`

	windowStart time.Time
}

// HealthCheckFunc represents a function that checks service health
type HealthCheckFunc func(ctx context.Context) error

// DegradationManager tracks error rates of the pipeline's dependencies (the
// primary model, the result store) over a rolling window.
type DegradationManager struct {
	config       DegradationConfig
	services     map[string]*ServiceHealth
	healthChecks map[string]HealthCheckFunc
	now          func() time.Time
	mutex        sync.RWMutex
}

// NewDegradationManager creates a new degradation manager
func NewDegradationManager(config DegradationConfig) *DegradationManager {
	if config.Window <= 0 {
		config.Window = DefaultDegradationConfig().Window
	}
	if config.HealthCheckTimeout <= 0 {
		config.HealthCheckTimeout = DefaultDegradationConfig().HealthCheckTimeout
	}
	return &DegradationManager{
		config:       config,
		services:     make(map[string]*ServiceHealth),
		healthChecks: make(map[string]HealthCheckFunc),
		now:          time.Now,
	}
}

// RegisterService registers a service with an optional health check.
func (dm *DegradationManager) RegisterService(serviceName string, healthCheck HealthCheckFunc) {
	dm.mutex.Lock()
	defer dm.mutex.Unlock()

	dm.services[serviceName] = &ServiceHealth{
		ServiceName:   serviceName,
		Level:         LevelNormal,
		StatusMessage: "Service is healthy",
		windowStart:   dm.now(),
	}
	if healthCheck != nil {
		dm.healthChecks[serviceName] = healthCheck
	}

	slog.Debug("Registered service for degradation management", "service", serviceName)
}

// RecordSuccess records a successful call.
func (dm *DegradationManager) RecordSuccess(serviceName string) {
	dm.record(serviceName, nil)
}

// RecordError records a failed call.
func (dm *DegradationManager) RecordError(serviceName string, err error) {
	dm.record(serviceName, err)
}

func (dm *DegradationManager) record(serviceName string, err error) {
	dm.mutex.Lock()
	defer dm.mutex.Unlock()

	service, exists := dm.services[serviceName]
	if !exists {
		return
	}

	now := dm.now()
	if now.Sub(service.windowStart) > dm.config.Window {
		service.TotalRequests = 0
		service.ErrorCount = 0
		service.windowStart = now
	}

	service.TotalRequests++
	if err != nil {
		service.ErrorCount++
		service.LastError = err.Error()
		service.LastErrorTime = &now
	}
	service.ErrorRate = float64(service.ErrorCount) / float64(service.TotalRequests)

	dm.updateDegradationLevel(service)
}

func (dm *DegradationManager) updateDegradationLevel(service *ServiceHealth) {
	oldLevel := service.Level

	switch {
	case service.ErrorRate >= dm.config.EmergencyThreshold:
		service.Level = LevelEmergency
		service.StatusMessage = "Service is failing most requests"
	case service.ErrorRate >= dm.config.CriticalThreshold:
		service.Level = LevelCritical
		service.StatusMessage = "Service has an elevated error rate"
	case service.ErrorRate >= dm.config.DegradedThreshold:
		service.Level = LevelDegraded
		service.StatusMessage = "Service is degraded"
	default:
		service.Level = LevelNormal
		service.StatusMessage = "Service is healthy"
	}

	if oldLevel != service.Level {
		slog.Warn("Service degradation level changed",
			"service", service.ServiceName,
			"old_level", oldLevel.String(),
			"new_level", service.Level.String(),
			"error_rate", service.ErrorRate,
			"total_requests", service.TotalRequests)
	}
}

// GetServiceHealth returns a copy of the service's health.
func (dm *DegradationManager) GetServiceHealth(serviceName string) (ServiceHealth, bool) {
	dm.mutex.RLock()
	defer dm.mutex.RUnlock()

	service, exists := dm.services[serviceName]
	if !exists {
		return ServiceHealth{}, false
	}
	return *service, true
}

// GetAllServiceHealth returns health status for all services
func (dm *DegradationManager) GetAllServiceHealth() map[string]ServiceHealth {
	dm.mutex.RLock()
	defer dm.mutex.RUnlock()

	result := make(map[string]ServiceHealth, len(dm.services))
	for name, service := range dm.services {
		result[name] = *service
	}
	return result
}

// OverallLevel is the worst level across services.
func (dm *DegradationManager) OverallLevel() DegradationLevel {
	dm.mutex.RLock()
	defer dm.mutex.RUnlock()

	level := LevelNormal
	for _, service := range dm.services {
		if service.Level > level {
			level = service.Level
		}
	}
	return level
}

// RunHealthChecks probes every registered check once and records the
// outcome. It returns the names of failing services in order.
func (dm *DegradationManager) RunHealthChecks(ctx context.Context) []string {
	dm.mutex.RLock()
	checks := make(map[string]HealthCheckFunc, len(dm.healthChecks))
	for name, check := range dm.healthChecks {
		checks[name] = check
	}
	dm.mutex.RUnlock()

	var failing []string
	for name, check := range checks {
		checkCtx, cancel := context.WithTimeout(ctx, dm.config.HealthCheckTimeout)
		err := check(checkCtx)
		cancel()

		dm.record(name, err)
		if err != nil {
			failing = append(failing, name)
		}
	}
	sort.Strings(failing)
	return failing
}

// ResetService clears a service's counters.
func (dm *DegradationManager) ResetService(serviceName string) {
	dm.mutex.Lock()
	defer dm.mutex.Unlock()

	if service, exists := dm.services[serviceName]; exists {
		*service = ServiceHealth{
			ServiceName:   serviceName,
			Level:         LevelNormal,
			StatusMessage: "Service is healthy",
			windowStart:   dm.now(),
		}
	}
}
