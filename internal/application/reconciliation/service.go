package reconciliation

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/invrecon/backend/internal/domain/reconciliation"
	"github.com/invrecon/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// DefaultTopVariances bounds the detail view when no limit is given
const DefaultTopVariances = 10

// Service orchestrates reconciliation runs: it merges a physical-count
// snapshot against system stock, persists one variance record per pair and
// finalizes the run with its aggregates and artifacts.
type Service struct {
	runRepo      reconciliation.RunRepository
	varianceRepo reconciliation.VarianceRecordRepository
	physLoader   reconciliation.PhysicalSnapshotLoader
	sysLoader    reconciliation.SystemSnapshotLoader
	artifacts    ArtifactWriter
	eventBus     shared.EventPublisher
	metrics      Metrics
	policy       SnapshotPolicy
	logger       *zap.Logger
}

// NewService creates a new reconciliation Service. An invalid snapshot policy
// falls back to fallback-empty.
func NewService(
	runRepo reconciliation.RunRepository,
	varianceRepo reconciliation.VarianceRecordRepository,
	physLoader reconciliation.PhysicalSnapshotLoader,
	sysLoader reconciliation.SystemSnapshotLoader,
	artifacts ArtifactWriter,
	eventBus shared.EventPublisher,
	metrics Metrics,
	policy SnapshotPolicy,
	logger *zap.Logger,
) *Service {
	if !policy.IsValid() {
		policy = SnapshotPolicyFallbackEmpty
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		runRepo:      runRepo,
		varianceRepo: varianceRepo,
		physLoader:   physLoader,
		sysLoader:    sysLoader,
		artifacts:    artifacts,
		eventBus:     eventBus,
		metrics:      metrics,
		policy:       policy,
		logger:       logger,
	}
}

// Reconcile executes one reconciliation run. The run row is saved up front in
// RUNNING status so that a failure mid-run stays visible, together with any
// variance records written before the failure.
func (s *Service) Reconcile(ctx context.Context, tenantID uuid.UUID, req RunRequest, actorID uuid.UUID, actorName string) (*RunResult, error) {
	runNumber, err := s.runRepo.GenerateRunNumber(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	scope := reconciliation.ParseLocationScope(req.Scope)
	run, err := reconciliation.NewRun(tenantID, runNumber, req.AsOfDate, scope, actorID, actorName)
	if err != nil {
		return nil, err
	}
	if err := s.runRepo.Save(ctx, run); err != nil {
		return nil, err
	}

	log := s.logger.With(
		zap.String("tenant_id", tenantID.String()),
		zap.String("run_number", runNumber),
	)
	log.Info("Starting reconciliation run",
		zap.Time("as_of_date", req.AsOfDate),
		zap.String("scope", scope.String()),
	)

	result, err := s.execute(ctx, tenantID, run, scope, log)
	if err != nil {
		s.failRun(ctx, tenantID, run, err, log)
		return nil, err
	}
	return result, nil
}

func (s *Service) execute(ctx context.Context, tenantID uuid.UUID, run *reconciliation.Run, scope reconciliation.LocationScope, log *zap.Logger) (*RunResult, error) {
	physical, err := s.loadPhysical(ctx, tenantID, run.AsOfDate, scope, log)
	if err != nil {
		return nil, err
	}
	system, err := s.loadSystem(ctx, tenantID, scope, log)
	if err != nil {
		return nil, err
	}

	records := reconciliation.ComputeVariances(run.ID, physical, system)

	// Records are written one at a time: a rejected write fails the run but
	// keeps everything written before it.
	for i := range records {
		if err := s.varianceRepo.Save(ctx, &records[i]); err != nil {
			log.Error("Variance record write rejected",
				zap.String("item_code", records[i].ItemCode),
				zap.String("location_code", records[i].LocationCode),
				zap.Int("records_written", i),
				zap.Error(err),
			)
			return nil, err
		}
	}

	summary := reconciliation.Summarize(records)

	jsonRef, csvRef := s.writeArtifacts(ctx, tenantID, run, records, log)

	if err := run.Complete(summary, jsonRef, csvRef); err != nil {
		return nil, err
	}
	if err := s.runRepo.Save(ctx, run); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, run)

	if s.metrics != nil {
		s.metrics.RunCompleted(ctx, tenantID, run.RunNumber, time.Since(run.StartedAt), summary.ItemsChecked)
		totalValue, _ := summary.TotalVarianceValue.Float64()
		s.metrics.VarianceValue(ctx, tenantID, run.RunNumber, totalValue)
	}

	log.Info("Reconciliation run completed",
		zap.Int("items_checked", summary.ItemsChecked),
		zap.Int("over_items", summary.OverItems),
		zap.Int("short_items", summary.ShortItems),
		zap.String("total_variance_value", summary.TotalVarianceValue.String()),
	)

	return &RunResult{
		RunID:           run.ID,
		RunNumber:       run.RunNumber,
		Status:          run.Status.String(),
		Summary:         summary,
		JSONArtifactRef: jsonRef,
		CSVArtifactRef:  csvRef,
	}, nil
}

// loadPhysical applies the snapshot policy to any physical load failure,
// whether no count matched the window or the loader itself errored.
func (s *Service) loadPhysical(ctx context.Context, tenantID uuid.UUID, asOfDate time.Time, scope reconciliation.LocationScope, log *zap.Logger) (reconciliation.Snapshot, error) {
	physical, err := s.physLoader.Load(ctx, tenantID, asOfDate, scope)
	if err == nil {
		return physical, nil
	}
	if s.policy == SnapshotPolicyFallbackEmpty {
		if errors.Is(err, shared.ErrNotFound) {
			log.Warn("No physical count matched the as-of window, proceeding with an empty snapshot",
				zap.Time("as_of_date", asOfDate),
			)
		} else {
			log.Warn("Physical snapshot load failed, proceeding with an empty snapshot",
				zap.Time("as_of_date", asOfDate),
				zap.Error(err),
			)
		}
		return reconciliation.Snapshot{}, nil
	}
	return nil, err
}

// loadSystem applies the same policy to system snapshot load failures
func (s *Service) loadSystem(ctx context.Context, tenantID uuid.UUID, scope reconciliation.LocationScope, log *zap.Logger) (reconciliation.Snapshot, error) {
	system, err := s.sysLoader.Load(ctx, tenantID, scope)
	if err == nil {
		return system, nil
	}
	if s.policy == SnapshotPolicyFallbackEmpty {
		log.Warn("System snapshot load failed, proceeding with an empty snapshot", zap.Error(err))
		return reconciliation.Snapshot{}, nil
	}
	return nil, err
}

// writeArtifacts renders the JSON and CSV artifacts. Artifact failures do not
// fail the run: the variance records are already durable.
func (s *Service) writeArtifacts(ctx context.Context, tenantID uuid.UUID, run *reconciliation.Run, records []reconciliation.VarianceRecord, log *zap.Logger) (jsonRef, csvRef string) {
	if s.artifacts == nil {
		return "", ""
	}
	var err error
	if jsonRef, err = s.artifacts.WriteJSON(ctx, tenantID, run, records); err != nil {
		log.Warn("Failed to write JSON artifact", zap.Error(err))
		jsonRef = ""
	}
	if csvRef, err = s.artifacts.WriteCSV(ctx, tenantID, run, records); err != nil {
		log.Warn("Failed to write CSV artifact", zap.Error(err))
		csvRef = ""
	}
	return jsonRef, csvRef
}

func (s *Service) failRun(ctx context.Context, tenantID uuid.UUID, run *reconciliation.Run, cause error, log *zap.Logger) {
	if failErr := run.Fail(cause.Error()); failErr != nil {
		log.Error("Could not mark run as failed", zap.Error(failErr))
		return
	}
	if saveErr := s.runRepo.Save(ctx, run); saveErr != nil {
		log.Error("Could not persist failed run", zap.Error(saveErr))
	}
	s.publishEvents(ctx, run)
	if s.metrics != nil {
		s.metrics.RunFailed(ctx, tenantID)
	}
	log.Warn("Reconciliation run failed", zap.Error(cause))
}

// GetRunDetails returns a run with its largest variances by absolute value
func (s *Service) GetRunDetails(ctx context.Context, tenantID, runID uuid.UUID, limit int) (*RunDetails, error) {
	if limit <= 0 {
		limit = DefaultTopVariances
	}

	run, err := s.runRepo.FindByID(ctx, tenantID, runID)
	if err != nil {
		return nil, err
	}

	records, err := s.varianceRepo.FindTopByRun(ctx, runID, limit)
	if err != nil {
		return nil, err
	}
	count, err := s.varianceRepo.CountByRun(ctx, runID)
	if err != nil {
		return nil, err
	}

	top := make([]VarianceRecordDTO, 0, len(records))
	for i := range records {
		top = append(top, toVarianceRecordDTO(&records[i]))
	}

	return &RunDetails{
		Run:          toRunSummaryDTO(run),
		TopVariances: top,
		RecordCount:  count,
	}, nil
}

// ListRuns returns a paginated run history, newest first by default
func (s *Service) ListRuns(ctx context.Context, tenantID uuid.UUID, filter reconciliation.RunFilter) (*shared.Paginated[RunSummaryDTO], error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = shared.DefaultFilter().PageSize
	}

	runs, err := s.runRepo.FindAll(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.runRepo.Count(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}

	items := make([]RunSummaryDTO, 0, len(runs))
	for i := range runs {
		items = append(items, toRunSummaryDTO(&runs[i]))
	}

	paginated := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &paginated, nil
}

// publishEvents publishes domain events from the aggregate
func (s *Service) publishEvents(ctx context.Context, run *reconciliation.Run) {
	if s.eventBus == nil {
		return
	}
	for _, event := range run.GetDomainEvents() {
		_ = s.eventBus.Publish(ctx, event)
	}
	run.ClearDomainEvents()
}
