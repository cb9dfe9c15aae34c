package observability

import (
	"context"
	"strings"
	"time"

	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/persistence/middleware"
	"github.com/aretw0/canopy/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
)

// Command outcomes used as the "outcome" label.
const (
	OutcomeChanged  = "changed"
	OutcomeNoop     = "noop"
	OutcomeRejected = "rejected"
)

// Metrics holds the Prometheus collectors of an editor deployment.
type Metrics struct {
	Commands      *prometheus.CounterVec
	ScopeChanges  *prometheus.CounterVec
	StoreDuration *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg skips registration.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Commands: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "canopy_commands_total",
				Help: "Total number of editor commands by outcome",
			},
			[]string{"command", "scope", "outcome"},
		),
		ScopeChanges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "canopy_scope_changes_total",
				Help: "Total number of master-edit enters and leaves",
			},
			[]string{"direction"},
		),
		StoreDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "canopy_store_duration_seconds",
				Help:    "Duration of document store operations",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"op", "outcome"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.Commands, m.ScopeChanges, m.StoreDuration)
	}
	return m
}

// Hooks returns lifecycle hooks that record editor events.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnCommand: func(e *domain.CommandEvent) {
			outcome := OutcomeNoop
			switch {
			case e.Err != nil:
				outcome = OutcomeRejected
			case e.Changed:
				outcome = OutcomeChanged
			}
			m.Commands.WithLabelValues(e.Command, scopeLabel(e.Scope), outcome).Inc()
		},
		OnScopeChange: func(e *domain.ScopeEvent) {
			direction := "leave"
			if e.Entered {
				direction = "enter"
			}
			m.ScopeChanges.WithLabelValues(direction).Inc()
		},
	}
}

// scopeLabel drops the template id to keep label cardinality bounded.
func scopeLabel(scope string) string {
	if strings.HasPrefix(scope, "template:") {
		return "template"
	}
	return scope
}

// InstrumentStore returns a middleware that times every store operation.
func (m *Metrics) InstrumentStore() middleware.Middleware {
	return func(next ports.DocumentStore) ports.DocumentStore {
		return &instrumentedStore{next: next, hist: m.StoreDuration}
	}
}

type instrumentedStore struct {
	next ports.DocumentStore
	hist *prometheus.HistogramVec
}

func (s *instrumentedStore) observe(op string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	s.hist.WithLabelValues(op, outcome).Observe(time.Since(start).Seconds())
}

func (s *instrumentedStore) Save(ctx context.Context, docID string, doc *domain.Document) (err error) {
	defer func(start time.Time) { s.observe("save", start, err) }(time.Now())
	return s.next.Save(ctx, docID, doc)
}

func (s *instrumentedStore) Load(ctx context.Context, docID string) (doc *domain.Document, err error) {
	defer func(start time.Time) { s.observe("load", start, err) }(time.Now())
	return s.next.Load(ctx, docID)
}

func (s *instrumentedStore) Delete(ctx context.Context, docID string) (err error) {
	defer func(start time.Time) { s.observe("delete", start, err) }(time.Now())
	return s.next.Delete(ctx, docID)
}

func (s *instrumentedStore) List(ctx context.Context) (ids []string, err error) {
	defer func(start time.Time) { s.observe("list", start, err) }(time.Now())
	return s.next.List(ctx)
}
