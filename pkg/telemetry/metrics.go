package telemetry

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric names
const (
	MetricEvaluationsTotal     = "risk_guard_evaluations_total"
	MetricVetoesTotal          = "risk_guard_vetoes_total"
	MetricSimulationsTotal     = "risk_guard_sandbox_simulations_total"
	MetricEvaluationLatency    = "risk_guard_evaluation_latency_ms"
	MetricAvailableBalance     = "risk_guard_available_balance"
	MetricLiquidationDistance  = "risk_guard_liquidation_distance"
	MetricSettingsLookupsTotal = "risk_guard_settings_lookups_total"
)

// MetricsHolder holds initialized instruments
type MetricsHolder struct {
	EvaluationsTotal     metric.Int64Counter
	VetoesTotal          metric.Int64Counter
	SimulationsTotal     metric.Int64Counter
	EvaluationLatency    metric.Float64Histogram
	AvailableBalance     metric.Float64ObservableGauge
	LiquidationDistance  metric.Float64ObservableGauge
	SettingsLookupsTotal metric.Int64Counter

	// State for observable gauges
	mu             sync.RWMutex
	availBalMap    map[string]float64
	liqDistanceMap map[string]float64
}

var (
	globalMetrics *MetricsHolder
	initOnce      sync.Once
)

// GetGlobalMetrics returns the singleton metrics holder
func GetGlobalMetrics() *MetricsHolder {
	initOnce.Do(func() {
		globalMetrics = &MetricsHolder{
			availBalMap:    make(map[string]float64),
			liqDistanceMap: make(map[string]float64),
		}
		// Initialization of instruments happens in InitMetrics
	})
	return globalMetrics
}

// InitMetrics initializes instruments using the meter
func (m *MetricsHolder) InitMetrics(meter metric.Meter) error {
	var err error

	m.EvaluationsTotal, err = meter.Int64Counter(MetricEvaluationsTotal, metric.WithDescription("Total order evaluations run"))
	if err != nil {
		return err
	}

	m.VetoesTotal, err = meter.Int64Counter(MetricVetoesTotal, metric.WithDescription("Total check vetoes by check and failure kind"))
	if err != nil {
		return err
	}

	m.SimulationsTotal, err = meter.Int64Counter(MetricSimulationsTotal, metric.WithDescription("Total sandbox order simulations"))
	if err != nil {
		return err
	}

	m.EvaluationLatency, err = meter.Float64Histogram(MetricEvaluationLatency, metric.WithDescription("Wall time of one order evaluation"), metric.WithUnit("ms"))
	if err != nil {
		return err
	}

	m.SettingsLookupsTotal, err = meter.Int64Counter(MetricSettingsLookupsTotal, metric.WithDescription("Total settings lookups by source"))
	if err != nil {
		return err
	}

	// Observables
	m.AvailableBalance, err = meter.Float64ObservableGauge(MetricAvailableBalance, metric.WithDescription("Last computed available balance"),
		metric.WithFloat64Callback(func(ctx context.Context, obs metric.Float64Observer) error {
			m.mu.RLock()
			defer m.mu.RUnlock()
			for sym, val := range m.availBalMap {
				obs.Observe(val, metric.WithAttributes(attribute.String("symbol", sym)))
			}
			return nil
		}))
	if err != nil {
		return err
	}

	m.LiquidationDistance, err = meter.Float64ObservableGauge(MetricLiquidationDistance, metric.WithDescription("Last observed mark-to-liquidation distance"),
		metric.WithFloat64Callback(func(ctx context.Context, obs metric.Float64Observer) error {
			m.mu.RLock()
			defer m.mu.RUnlock()
			for sym, val := range m.liqDistanceMap {
				obs.Observe(val, metric.WithAttributes(attribute.String("symbol", sym)))
			}
			return nil
		}))
	if err != nil {
		return err
	}

	return nil
}

// RecordEvaluation counts one completed order evaluation.
func (m *MetricsHolder) RecordEvaluation(ctx context.Context, symbol string, passed bool) {
	if m.EvaluationsTotal == nil {
		return
	}
	m.EvaluationsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("symbol", symbol),
		attribute.Bool("passed", passed)))
}

// RecordVeto counts one check veto.
func (m *MetricsHolder) RecordVeto(ctx context.Context, symbol, check, kind string) {
	if m.VetoesTotal == nil {
		return
	}
	m.VetoesTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("symbol", symbol),
		attribute.String("check", check),
		attribute.String("failure_kind", kind)))
}

// RecordSimulation counts one sandbox order application.
func (m *MetricsHolder) RecordSimulation(ctx context.Context, symbol, kind string) {
	if m.SimulationsTotal == nil {
		return
	}
	m.SimulationsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("symbol", symbol),
		attribute.String("kind", kind)))
}

// RecordSettingsLookup counts one settings resolution.
func (m *MetricsHolder) RecordSettingsLookup(ctx context.Context, source string) {
	if m.SettingsLookupsTotal == nil {
		return
	}
	m.SettingsLookupsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("source", source)))
}

// RecordEvaluationLatency records the wall time of one evaluation.
func (m *MetricsHolder) RecordEvaluationLatency(ctx context.Context, symbol string, ms float64) {
	if m.EvaluationLatency == nil {
		return
	}
	m.EvaluationLatency.Record(ctx, ms, metric.WithAttributes(attribute.String("symbol", symbol)))
}

// Helpers to update observable state

func (m *MetricsHolder) SetAvailableBalance(symbol string, value float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.availBalMap[symbol] = value
}

func (m *MetricsHolder) SetLiquidationDistance(symbol string, value float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.liqDistanceMap[symbol] = value
}

func (m *MetricsHolder) GetAvailableBalance() map[string]float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make(map[string]float64)
	for k, v := range m.availBalMap {
		res[k] = v
	}
	return res
}

func (m *MetricsHolder) GetLiquidationDistance() map[string]float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make(map[string]float64)
	for k, v := range m.liqDistanceMap {
		res[k] = v
	}
	return res
}
