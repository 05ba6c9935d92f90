package observe

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Prometheus implements Observer on a private registry.
type Prometheus struct {
	registry *prometheus.Registry

	requests     *prometheus.CounterVec
	requestTime  prometheus.Histogram
	requestSteps prometheus.Histogram
	phases       *prometheus.CounterVec
	plans        *prometheus.CounterVec
	planSize     prometheus.Histogram
	toolCalls    *prometheus.CounterVec
	toolCallTime *prometheus.HistogramVec
}

func NewPrometheus() *Prometheus {
	p := &Prometheus{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stride_requests_total",
			Help: "Processed requests by outcome.",
		}, []string{"success"}),
		requestTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "stride_request_duration_seconds",
			Help:    "Wall time per processed request.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
		requestSteps: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "stride_request_steps",
			Help:    "Workflow transitions taken per request.",
			Buckets: prometheus.LinearBuckets(1, 1, 12),
		}),
		phases: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stride_phase_transitions_total",
			Help: "Workflow phase entries.",
		}, []string{"phase"}),
		plans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stride_plans_total",
			Help: "Synthesized plans, split by fallback use.",
		}, []string{"fallback"}),
		planSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "stride_plan_size",
			Help:    "Tool invocations per synthesized plan.",
			Buckets: prometheus.LinearBuckets(0, 1, 11),
		}),
		toolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stride_tool_calls_total",
			Help: "Tool invocations by tool and outcome.",
		}, []string{"tool", "success"}),
		toolCallTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "stride_tool_call_duration_seconds",
			Help:    "Wall time per tool invocation.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 14),
		}, []string{"tool"}),
	}

	p.registry.MustRegister(
		p.requests, p.requestTime, p.requestSteps,
		p.phases, p.plans, p.planSize,
		p.toolCalls, p.toolCallTime,
	)
	return p
}

func (p *Prometheus) RequestStarted() {}

func (p *Prometheus) RequestFinished(success bool, d time.Duration, steps int) {
	p.requests.WithLabelValues(strconv.FormatBool(success)).Inc()
	p.requestTime.Observe(d.Seconds())
	p.requestSteps.Observe(float64(steps))
}

func (p *Prometheus) PhaseEntered(phase string) {
	p.phases.WithLabelValues(phase).Inc()
}

func (p *Prometheus) PlanSynthesized(size int, fallback bool) {
	p.plans.WithLabelValues(strconv.FormatBool(fallback)).Inc()
	p.planSize.Observe(float64(size))
}

func (p *Prometheus) ToolCallFinished(tool string, success bool, d time.Duration) {
	p.toolCalls.WithLabelValues(tool, strconv.FormatBool(success)).Inc()
	p.toolCallTime.WithLabelValues(tool).Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}
