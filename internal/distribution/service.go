package distribution

import (
	"context"
	"errors"
	"time"

	"salesops_backend/internal/distribution/exportconfig"
	"salesops_backend/internal/events"
	"salesops_backend/platform/apperr"
	"salesops_backend/platform/logger"

	"github.com/google/uuid"
)

// Service orchestrates distribution runs: policy lookup, engine execution,
// CSV export, run persistence and event publication.
type Service struct {
	configs       *exportconfig.Repository
	engine        *Engine
	exporter      *Exporter
	directory     *Directory
	runs          *RunStore
	bus           events.Bus
	log           *logger.Logger
	stalenessDays int
}

func NewService(
	configs *exportconfig.Repository,
	engine *Engine,
	exporter *Exporter,
	directory *Directory,
	runs *RunStore,
	bus events.Bus,
	log *logger.Logger,
	stalenessDays int,
) *Service {
	return &Service{
		configs:       configs,
		engine:        engine,
		exporter:      exporter,
		directory:     directory,
		runs:          runs,
		bus:           bus,
		log:           log,
		stalenessDays: stalenessDays,
	}
}

// Execute runs the active policy once. The caller is responsible for the
// scheduling guards; Execute itself stamps last_executed on success so the
// once-a-day check holds even across restarts.
func (s *Service) Execute(ctx context.Context, trigger string, allocatorID *uuid.UUID) (Result, error) {
	cfg, err := s.configs.GetActive(ctx)
	if err != nil {
		return Result{}, err
	}
	return s.executeConfig(ctx, cfg, trigger, allocatorID)
}

func (s *Service) executeConfig(ctx context.Context, cfg exportconfig.Config, trigger string, allocatorID *uuid.UUID) (Result, error) {
	started := time.Now()
	staleBefore := started.AddDate(0, 0, -s.stalenessDays)

	result, err := s.engine.Run(ctx, Request{
		Destinations: cfg.Settings.Destinations,
		AllocatorID:  allocatorID,
		StaleBefore:  staleBefore,
	})
	if err != nil {
		s.log.JobError("distribution", err)
		return result, err
	}

	records := make([]DestinationRecord, 0, len(result.Destinations))
	for _, dest := range result.Destinations {
		record := DestinationRecord{
			AdvisorID: dest.AdvisorID,
			Requested: dest.Requested,
			Assigned:  dest.Assigned,
			Deficit:   dest.Deficit,
		}

		advisor, err := s.directory.GetByID(ctx, dest.AdvisorID)
		if err != nil {
			s.log.JobError("distribution", err)
			records = append(records, record)
			continue
		}

		if s.exporter != nil && dest.Assigned > 0 {
			key, err := s.exporter.Export(ctx, result.RunID, advisor, dest.LeadIDs)
			if err != nil {
				// The leads are assigned either way; the artifact can be
				// regenerated from the assignment rows.
				s.log.JobError("distribution", err)
			} else {
				record.ExportKey = key
			}
		}

		records = append(records, record)

		s.bus.Publish(ctx, events.DestinationAssigned{
			BaseEvent:    events.NewBaseEvent(),
			RunID:        result.RunID,
			AdvisorID:    advisor.ID,
			AdvisorName:  advisor.FullName,
			AdvisorEmail: advisor.Email,
			Requested:    dest.Requested,
			Assigned:     dest.Assigned,
			Deficit:      dest.Deficit,
			ExportKey:    record.ExportKey,
		})
	}

	if err := s.runs.Save(ctx, RunRecord{
		ID:             result.RunID,
		Trigger:        trigger,
		TotalRequested: result.TotalRequested(),
		TotalAssigned:  result.TotalAssigned(),
		Destinations:   records,
	}); err != nil {
		s.log.JobError("distribution", err)
	}

	if err := s.configs.MarkExecuted(ctx, cfg.ID, started); err != nil {
		s.log.JobError("distribution", err)
	}

	s.bus.Publish(ctx, events.DistributionCompleted{
		BaseEvent:      events.NewBaseEvent(),
		RunID:          result.RunID,
		Destinations:   len(result.Destinations),
		TotalRequested: result.TotalRequested(),
		TotalAssigned:  result.TotalAssigned(),
		TotalDeficit:   result.TotalDeficit(),
	})

	s.log.JobEvent("distribution", "completed",
		"run_id", result.RunID.String(),
		"trigger", trigger,
		"requested", result.TotalRequested(),
		"assigned", result.TotalAssigned(),
		"deficit", result.TotalDeficit(),
		"duration_ms", time.Since(started).Milliseconds(),
	)

	return result, nil
}

// TriggerNow runs the active policy outside its schedule.
func (s *Service) TriggerNow(ctx context.Context, allocatorID uuid.UUID) (Result, error) {
	result, err := s.Execute(ctx, TriggerManual, &allocatorID)
	if errors.Is(err, exportconfig.ErrNoActiveConfig) {
		return Result{}, apperr.NotFound("no active distribution config")
	}
	return result, err
}

// ActiveConfig returns the current policy.
func (s *Service) ActiveConfig(ctx context.Context) (exportconfig.Config, error) {
	cfg, err := s.configs.GetActive(ctx)
	if errors.Is(err, exportconfig.ErrNoActiveConfig) {
		return exportconfig.Config{}, apperr.NotFound("no active distribution config")
	}
	return cfg, err
}

// SaveConfig validates and stores a new policy.
func (s *Service) SaveConfig(ctx context.Context, cfg exportconfig.Config) (exportconfig.Config, error) {
	if err := cfg.Validate(); err != nil {
		return exportconfig.Config{}, apperr.Validation(err.Error())
	}
	return s.configs.Create(ctx, cfg)
}

// UpdateConfig validates and replaces an existing policy.
func (s *Service) UpdateConfig(ctx context.Context, cfg exportconfig.Config) (exportconfig.Config, error) {
	if err := cfg.Validate(); err != nil {
		return exportconfig.Config{}, apperr.Validation(err.Error())
	}
	updated, err := s.configs.Update(ctx, cfg)
	if errors.Is(err, exportconfig.ErrNoActiveConfig) {
		return exportconfig.Config{}, apperr.NotFound("distribution config not found")
	}
	return updated, err
}

// ListConfigs returns all stored policies, newest first.
func (s *Service) ListConfigs(ctx context.Context) ([]exportconfig.Config, error) {
	return s.configs.List(ctx)
}

// ListRuns returns recent runs for auditing.
func (s *Service) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	return s.runs.ListRecent(ctx, limit)
}

// ExportDownloadURL returns a presigned link for a run's export artifact.
func (s *Service) ExportDownloadURL(ctx context.Context, runID, advisorID uuid.UUID) (string, error) {
	if s.exporter == nil {
		return "", apperr.NotFound("export storage is not configured")
	}

	run, err := s.runs.GetByID(ctx, runID)
	if errors.Is(err, ErrRunNotFound) {
		return "", apperr.NotFound("distribution run not found")
	}
	if err != nil {
		return "", err
	}

	for _, dest := range run.Destinations {
		if dest.AdvisorID == advisorID && dest.ExportKey != "" {
			presigned, err := s.exporter.DownloadURL(ctx, dest.ExportKey)
			if err != nil {
				return "", err
			}
			return presigned.URL, nil
		}
	}

	return "", apperr.NotFound("no export artifact for this advisor in this run")
}

// Advisors lists the active roster for building destination configs.
func (s *Service) Advisors(ctx context.Context) ([]Advisor, error) {
	return s.directory.ListActive(ctx)
}
