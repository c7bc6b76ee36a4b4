package observability

import (
	"strconv"

	"github.com/aretw0/fabstate/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for states and loaders.
type Metrics struct {
	Dispatches *prometheus.CounterVec
	Unhandled  *prometheus.CounterVec
	Sends      *prometheus.CounterVec
	Active     prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Dispatches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fabstate_dispatch_total",
				Help: "Total number of dispatched actions",
			},
			[]string{"state", "action"},
		),
		Unhandled: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fabstate_dispatch_unhandled_total",
				Help: "Dispatches that matched no primary action",
			},
			[]string{"state"},
		),
		Sends: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fabstate_form_send_total",
				Help: "Total number of form submissions",
			},
			[]string{"save", "result"},
		),
		Active: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fabstate_registered_states",
			Help: "States currently registered on a scope",
		}),
	}
	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{m.Dispatches, m.Unhandled, m.Sends, m.Active} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Hooks returns lifecycle hooks that record into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnRegister: func(*domain.StateEvent) { m.Active.Inc() },
		OnStop:     func(*domain.StateEvent) { m.Active.Dec() },
		OnDispatch: func(e *domain.DispatchEvent) {
			m.Dispatches.WithLabelValues(e.State, e.Action).Inc()
			if !e.Handled {
				m.Unhandled.WithLabelValues(e.State).Inc()
			}
		},
		OnSend: func(e *domain.SendEvent) {
			result := "ok"
			if e.Err != nil {
				result = "error"
			}
			m.Sends.WithLabelValues(strconv.FormatBool(e.Save), result).Inc()
		},
	}
}
