package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	mdlserrors "git.home.luguber.info/inful/mdls/internal/foundation/errors"
	"git.home.luguber.info/inful/mdls/internal/logfields"
)

// ServiceStatus represents the current state of a service.
type ServiceStatus string

const (
	StatusNotStarted ServiceStatus = "not_started"
	StatusStarting   ServiceStatus = "starting"
	StatusRunning    ServiceStatus = "running"
	StatusStopping   ServiceStatus = "stopping"
	StatusStopped    ServiceStatus = "stopped"
	StatusFailed     ServiceStatus = "failed"
)

// ServiceInfo contains metadata about a managed service.
type ServiceInfo struct {
	Name         string        `json:"name"`
	Status       ServiceStatus `json:"status"`
	Dependencies []string      `json:"dependencies"`
	StartedAt    *time.Time    `json:"started_at,omitempty"`
	LastError    string        `json:"last_error,omitempty"`
}

// Orchestrator manages the lifecycle of services with dependency resolution.
type Orchestrator struct {
	mu         sync.RWMutex
	services   map[string]ManagedService
	status     map[string]ServiceStatus
	startedAt  map[string]time.Time
	lastErrors map[string]error

	startTimeout time.Duration
	stopTimeout  time.Duration
}

// NewOrchestrator creates an orchestrator with default timeouts.
func NewOrchestrator() *Orchestrator {
	return &Orchestrator{
		services:     make(map[string]ManagedService),
		status:       make(map[string]ServiceStatus),
		startedAt:    make(map[string]time.Time),
		lastErrors:   make(map[string]error),
		startTimeout: 30 * time.Second,
		stopTimeout:  10 * time.Second,
	}
}

// WithTimeouts configures start and stop timeouts.
func (o *Orchestrator) WithTimeouts(start, stop time.Duration) *Orchestrator {
	o.startTimeout = start
	o.stopTimeout = stop
	return o
}

// Register adds a service.
func (o *Orchestrator) Register(service ManagedService) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	name := service.Name()
	if name == "" {
		return mdlserrors.ValidationError("service name cannot be empty").Build()
	}
	if _, exists := o.services[name]; exists {
		return mdlserrors.ValidationError(fmt.Sprintf("service %s already registered", name)).Build()
	}

	o.services[name] = service
	o.status[name] = StatusNotStarted
	slog.Debug("Service registered", logfields.Service(name), slog.Any("dependencies", service.Dependencies()))
	return nil
}

// StartAll starts all services in dependency order. When one fails, the
// services already started are stopped again.
func (o *Orchestrator) StartAll(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	order, err := o.startOrder()
	if err != nil {
		return mdlserrors.WrapError(err, mdlserrors.CategoryInternal, "failed to calculate service start order").Build()
	}

	slog.Debug("Starting services", logfields.Count(len(order)), slog.Any("order", order))
	for _, name := range order {
		if err := o.startService(ctx, name); err != nil {
			o.stopRunning(ctx, order)
			return err
		}
	}
	return nil
}

// StopAll stops all running services in reverse dependency order.
func (o *Orchestrator) StopAll(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	order, err := o.startOrder()
	if err != nil {
		return mdlserrors.WrapError(err, mdlserrors.CategoryInternal, "failed to calculate service stop order").Build()
	}
	if lastErr := o.stopRunning(ctx, order); lastErr != nil {
		return mdlserrors.WrapError(lastErr, mdlserrors.CategoryInternal, "some services failed to stop gracefully").Build()
	}
	return nil
}

// Info returns information about a service.
func (o *Orchestrator) Info(name string) (ServiceInfo, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.info(name)
}

func (o *Orchestrator) info(name string) (ServiceInfo, bool) {
	service, exists := o.services[name]
	if !exists {
		return ServiceInfo{}, false
	}
	info := ServiceInfo{Name: name, Status: o.status[name], Dependencies: service.Dependencies()}
	if started, ok := o.startedAt[name]; ok {
		info.StartedAt = &started
	}
	if err := o.lastErrors[name]; err != nil {
		info.LastError = err.Error()
	}
	return info, true
}

// startOrder sorts services topologically. Names are visited in sorted order
// so the result is deterministic.
func (o *Orchestrator) startOrder() ([]string, error) {
	visited := make(map[string]bool)
	visiting := make(map[string]bool)
	var order []string

	var visit func(string) error
	visit = func(name string) error {
		if visiting[name] {
			return fmt.Errorf("circular dependency detected involving service: %s", name)
		}
		if visited[name] {
			return nil
		}
		service, exists := o.services[name]
		if !exists {
			return fmt.Errorf("service not found: %s", name)
		}

		visiting[name] = true
		for _, dep := range service.Dependencies() {
			if err := visit(dep); err != nil {
				return err
			}
		}
		visiting[name] = false
		visited[name] = true
		order = append(order, name)
		return nil
	}

	names := make([]string, 0, len(o.services))
	for name := range o.services {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := visit(name); err != nil {
			return nil, err
		}
	}
	return order, nil
}

func (o *Orchestrator) startService(ctx context.Context, name string) error {
	service := o.services[name]
	o.status[name] = StatusStarting

	timeoutCtx, cancel := context.WithTimeout(ctx, o.startTimeout)
	defer cancel()

	startTime := time.Now()
	errCh := make(chan error, 1)
	go func() { errCh <- service.Start(timeoutCtx) }()

	var err error
	select {
	case err = <-errCh:
	case <-timeoutCtx.Done():
		err = timeoutCtx.Err()
	}
	if err != nil {
		o.status[name] = StatusFailed
		o.lastErrors[name] = err
		return mdlserrors.WrapError(err, mdlserrors.CategoryInternal, fmt.Sprintf("failed to start service %s", name)).Build()
	}

	o.status[name] = StatusRunning
	o.startedAt[name] = startTime
	o.lastErrors[name] = nil
	slog.Info("Service started", logfields.Service(name), logfields.DurationMS(float64(time.Since(startTime).Microseconds())/1000))
	return nil
}

func (o *Orchestrator) stopService(ctx context.Context, name string) error {
	if o.status[name] != StatusRunning {
		return nil
	}
	o.status[name] = StatusStopping

	timeoutCtx, cancel := context.WithTimeout(ctx, o.stopTimeout)
	defer cancel()

	if err := o.services[name].Stop(timeoutCtx); err != nil {
		o.status[name] = StatusFailed
		o.lastErrors[name] = err
		return err
	}
	o.status[name] = StatusStopped
	slog.Debug("Service stopped", logfields.Service(name))
	return nil
}

// stopRunning stops running services in reverse order and returns the last error.
func (o *Orchestrator) stopRunning(ctx context.Context, order []string) error {
	var lastErr error
	for i := len(order) - 1; i >= 0; i-- {
		if err := o.stopService(ctx, order[i]); err != nil {
			lastErr = err
			slog.Error("Error stopping service", logfields.Service(order[i]), logfields.Error(err))
		}
	}
	return lastErr
}
