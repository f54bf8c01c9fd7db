// Package metrics собирает метрики инвентаря в собственный реестр Prometheus
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Результаты операций с хранилищем
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Metrics набор метрик приложения
type Metrics struct {
	registry *prometheus.Registry

	Mutations            *prometheus.CounterVec
	ValidationRejections *prometheus.CounterVec
	StoreOperations      *prometheus.CounterVec
	Records              prometheus.Gauge
	ActiveSessions       prometheus.Gauge
}

// New создает и регистрирует метрики в новом реестре
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		Mutations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "inventaris_mutations_total",
				Help: "Accepted inventory mutations by operation",
			},
			[]string{"op"},
		),
		ValidationRejections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "inventaris_validation_rejections_total",
				Help: "Create/update requests rejected by form validation",
			},
			[]string{"op"},
		),
		StoreOperations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "inventaris_store_operations_total",
				Help: "Inventory store loads and saves by result",
			},
			[]string{"op", "result"},
		),
		Records: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "inventaris_records",
			Help: "Inventory records held by active sessions",
		}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "inventaris_active_sessions",
			Help: "Activated inventory sessions",
		}),
	}

	registry.MustRegister(
		m.Mutations,
		m.ValidationRejections,
		m.StoreOperations,
		m.Records,
		m.ActiveSessions,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry возвращает реестр (для тестов)
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler HTTP-обработчик /metrics
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Mutation учитывает принятую мутацию; безопасен для nil
func (m *Metrics) Mutation(op string) {
	if m == nil {
		return
	}
	m.Mutations.WithLabelValues(op).Inc()
}

// Rejected учитывает отказ валидации
func (m *Metrics) Rejected(op string) {
	if m == nil {
		return
	}
	m.ValidationRejections.WithLabelValues(op).Inc()
}

// StoreResult учитывает загрузку или сохранение
func (m *Metrics) StoreResult(op string, err error) {
	if m == nil {
		return
	}
	result := ResultOK
	if err != nil {
		result = ResultError
	}
	m.StoreOperations.WithLabelValues(op, result).Inc()
}

// AddRecords меняет счетчик записей на delta
func (m *Metrics) AddRecords(delta int) {
	if m == nil {
		return
	}
	m.Records.Add(float64(delta))
}

// AddSessions меняет счетчик активных сессий на delta
func (m *Metrics) AddSessions(delta int) {
	if m == nil {
		return
	}
	m.ActiveSessions.Add(float64(delta))
}
