package health

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"staysearch/internal/infra/obs"
	"staysearch/internal/infra/resilience"
)

// Pinger is a cheap reachability check of one dependency.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingerFunc adapts a function to Pinger.
type PingerFunc func(ctx context.Context) error

func (f PingerFunc) Ping(ctx context.Context) error { return f(ctx) }

type Kind string

const (
	KindSource  Kind = "source"
	KindRanking Kind = "ranking"
)

// Probe names a dependency and how to check it.
type Probe struct {
	Name   string
	Kind   Kind
	Pinger Pinger
}

type Status string

const (
	StatusUnknown Status = "unknown"
	StatusUp      Status = "up"
	StatusDown    Status = "down"
)

// DependencyStatus is the outcome of the latest probe of one dependency.
type DependencyStatus struct {
	Name        string        `json:"name"`
	Kind        Kind          `json:"kind"`
	Status      Status        `json:"status"`
	LastChecked time.Time     `json:"lastChecked"`
	Latency     time.Duration `json:"latency"`
	Error       string        `json:"error,omitempty"`
}

const defaultProbeTimeout = 5 * time.Second

// Monitor probes dependencies on a cron schedule and answers availability
// questions from the latest results.
type Monitor struct {
	Spec     string
	Timeout  time.Duration
	Logger   *slog.Logger
	Circuits func() []resilience.CircuitState

	probes []Probe
	cron   *cron.Cron
	now    func() time.Time

	mu       sync.RWMutex
	statuses map[string]DependencyStatus
}

func NewMonitor(spec string, logger *slog.Logger, probes ...Probe) *Monitor {
	m := &Monitor{
		Spec:     spec,
		Logger:   logger,
		probes:   probes,
		now:      time.Now,
		statuses: make(map[string]DependencyStatus, len(probes)),
	}
	for _, p := range probes {
		m.statuses[p.Name] = DependencyStatus{Name: p.Name, Kind: p.Kind, Status: StatusUnknown}
	}
	return m
}

// Start schedules the probes and runs a first round in the background.
func (m *Monitor) Start(ctx context.Context) error {
	if m.cron != nil {
		return fmt.Errorf("health: monitor already started")
	}
	logger := cronLogger{m.logger()}
	m.cron = cron.New(cron.WithLogger(logger), cron.WithChain(cron.SkipIfStillRunning(logger)))
	if _, err := m.cron.AddFunc(m.Spec, func() { m.CheckNow(ctx) }); err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}
	m.cron.Start()
	m.logger().Info("health monitor started", "spec", m.Spec, "probes", len(m.probes))
	go m.CheckNow(ctx)
	return nil
}

// Stop halts scheduling and waits for a running round to finish.
func (m *Monitor) Stop() {
	if m.cron == nil {
		return
	}
	<-m.cron.Stop().Done()
}

// CheckNow probes every dependency concurrently.
func (m *Monitor) CheckNow(ctx context.Context) {
	var g errgroup.Group
	for _, p := range m.probes {
		g.Go(func() error {
			m.record(p, m.probe(ctx, p))
			return nil
		})
	}
	_ = g.Wait()
}

func (m *Monitor) probe(ctx context.Context, p Probe) DependencyStatus {
	timeout := m.Timeout
	if timeout <= 0 {
		timeout = defaultProbeTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := m.now()
	st := DependencyStatus{Name: p.Name, Kind: p.Kind, Status: StatusUp}
	var err error
	if p.Pinger != nil {
		err = p.Pinger.Ping(ctx)
	}
	st.LastChecked = m.now()
	st.Latency = st.LastChecked.Sub(start)
	if err != nil {
		st.Status = StatusDown
		st.Error = err.Error()
	}
	return st
}

func (m *Monitor) record(p Probe, st DependencyStatus) {
	m.mu.Lock()
	prev := m.statuses[p.Name].Status
	m.statuses[p.Name] = st
	m.mu.Unlock()

	if prev != st.Status && prev != StatusUnknown {
		m.logger().Warn("dependency health changed", "dependency", p.Name, "from", prev, "to", st.Status, "error", st.Error)
	}
}

// Available is false only for dependencies whose latest probe failed.
func (m *Monitor) Available(name string) bool {
	if m == nil {
		return true
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	st, ok := m.statuses[name]
	return !ok || st.Status != StatusDown
}

// Snapshot lists dependency statuses sorted by name.
func (m *Monitor) Snapshot() []DependencyStatus {
	m.mu.RLock()
	out := make([]DependencyStatus, 0, len(m.statuses))
	for _, st := range m.statuses {
		out = append(out, st)
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Report aggregates dependency and circuit state. The service is "down" once
// every listing source is down, "degraded" while anything else is.
func (m *Monitor) Report(_ context.Context) obs.HealthReport {
	report := obs.HealthReport{Status: "ok", Dependencies: map[string]string{}}
	sources, sourcesDown, anyDown := 0, 0, false
	for _, st := range m.Snapshot() {
		report.Dependencies[st.Name] = string(st.Status)
		if st.Kind == KindSource {
			sources++
		}
		if st.Status != StatusDown {
			continue
		}
		anyDown = true
		if st.Kind == KindSource {
			sourcesDown++
		}
	}
	if m.Circuits != nil {
		circuits := m.Circuits()
		for _, c := range circuits {
			if c.Status != resilience.StatusClosed {
				anyDown = true
			}
		}
		report.Circuits = circuits
	}
	switch {
	case sources > 0 && sourcesDown == sources:
		report.Status = "down"
	case anyDown:
		report.Status = "degraded"
	}
	return report
}

func (m *Monitor) logger() *slog.Logger {
	if m.Logger != nil {
		return m.Logger
	}
	return slog.Default()
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct{ l *slog.Logger }

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug("cron: "+msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
