// Package telemetry provides OpenTelemetry integration for metrics collection.
package telemetry

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// EngineMetrics records ingestion and reconciliation measurements. It
// implements the metrics ports of both application services.
type EngineMetrics struct {
	logger *zap.Logger

	documentsIngested *Counter
	duplicatesSkipped *Counter
	linesUnresolved   *Counter

	runsCompleted    *Counter
	runsFailed       *Counter
	runDuration      *Histogram
	runItemsChecked  *Histogram
	runVarianceValue *FloatGauge
}

// NewEngineMetrics creates the engine metric instruments on the given meter
func NewEngineMetrics(meter metric.Meter, logger *zap.Logger) (*EngineMetrics, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	em := &EngineMetrics{logger: logger}

	var err error
	em.documentsIngested, err = NewCounter(
		meter,
		"invrecon_documents_ingested_total",
		"Total number of source documents ingested",
		"{documents}",
	)
	if err != nil {
		return nil, err
	}

	em.duplicatesSkipped, err = NewCounter(
		meter,
		"invrecon_documents_duplicate_total",
		"Total number of duplicate documents skipped by fingerprint",
		"{documents}",
	)
	if err != nil {
		return nil, err
	}

	em.linesUnresolved, err = NewCounter(
		meter,
		"invrecon_lines_unresolved_total",
		"Total number of line items left unresolved after matching",
		"{lines}",
	)
	if err != nil {
		return nil, err
	}

	em.runsCompleted, err = NewCounter(
		meter,
		"invrecon_runs_completed_total",
		"Total number of completed reconciliation runs",
		"{runs}",
	)
	if err != nil {
		return nil, err
	}

	em.runsFailed, err = NewCounter(
		meter,
		"invrecon_runs_failed_total",
		"Total number of failed reconciliation runs",
		"{runs}",
	)
	if err != nil {
		return nil, err
	}

	em.runDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "invrecon_run_duration_seconds",
		Description: "Reconciliation run duration",
		Unit:        "s",
		Boundaries:  RunDurationBuckets,
	})
	if err != nil {
		return nil, err
	}

	em.runItemsChecked, err = NewHistogram(meter, HistogramOpts{
		Name:        "invrecon_run_items_checked",
		Description: "Item-location pairs checked per reconciliation run",
		Unit:        "{pairs}",
	})
	if err != nil {
		return nil, err
	}

	em.runVarianceValue, err = NewFloatGauge(
		meter,
		"invrecon_run_variance_value",
		"Total absolute variance value of the most recent run",
		"{currency}",
	)
	if err != nil {
		return nil, err
	}

	return em, nil
}

// DocumentIngested counts one newly ingested document
func (em *EngineMetrics) DocumentIngested(ctx context.Context, tenantID uuid.UUID) {
	em.documentsIngested.Inc(ctx, AttrTenantID.String(tenantID.String()))
}

// DuplicateSkipped counts one document skipped as a fingerprint duplicate
func (em *EngineMetrics) DuplicateSkipped(ctx context.Context, tenantID uuid.UUID) {
	em.duplicatesSkipped.Inc(ctx, AttrTenantID.String(tenantID.String()))
}

// LinesUnresolved counts lines that did not resolve to a catalog code
func (em *EngineMetrics) LinesUnresolved(ctx context.Context, tenantID uuid.UUID, count int64) {
	em.linesUnresolved.Add(ctx, count, AttrTenantID.String(tenantID.String()))
}

// RunCompleted records a completed run with its duration and size
func (em *EngineMetrics) RunCompleted(ctx context.Context, tenantID uuid.UUID, runNumber string, duration time.Duration, itemsChecked int) {
	tenant := AttrTenantID.String(tenantID.String())
	run := AttrRunNumber.String(runNumber)
	em.runsCompleted.Inc(ctx, tenant, run)
	em.runDuration.RecordDuration(ctx, duration, tenant, run)
	em.runItemsChecked.Record(ctx, float64(itemsChecked), tenant, run)
}

// RunFailed counts a failed run
func (em *EngineMetrics) RunFailed(ctx context.Context, tenantID uuid.UUID) {
	em.runsFailed.Inc(ctx, AttrTenantID.String(tenantID.String()))
}

// VarianceValue records the total absolute variance value of a run
func (em *EngineMetrics) VarianceValue(ctx context.Context, tenantID uuid.UUID, runNumber string, totalValue float64) {
	em.runVarianceValue.Record(ctx, totalValue,
		AttrTenantID.String(tenantID.String()),
		AttrRunNumber.String(runNumber),
	)
}
