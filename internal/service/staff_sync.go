package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// StaffSyncServiceOptions groups dependencies for StaffSyncService.
type StaffSyncServiceOptions struct {
	Directory  *DirectoryResolver // Required
	Reconciler *Reconciler        // Required
	Logger     *slog.Logger
}

// StaffSyncService provisions every directory staff member as a local user.
type StaffSyncService struct {
	directory  *DirectoryResolver
	reconciler *Reconciler
	logger     *slog.Logger
}

// NewStaffSyncService constructs a StaffSyncService.
func NewStaffSyncService(opts StaffSyncServiceOptions) *StaffSyncService {
	if opts.Directory == nil {
		panic("DirectoryResolver is required")
	}
	if opts.Reconciler == nil {
		panic("Reconciler is required")
	}
	return &StaffSyncService{directory: opts.Directory, reconciler: opts.Reconciler, logger: opts.Logger}
}

// StaffSyncReport counts what a sync did.
type StaffSyncReport struct {
	Fetched   int `json:"fetched"`
	Created   int `json:"created"`
	Updated   int `json:"updated"`
	Unchanged int `json:"unchanged"`
	Failed    int `json:"failed"`
}

// Sync fetches the full staff roster and reconciles each profile. A directory failure
// aborts before any write. Individual reconcile failures are counted and returned joined.
func (s *StaffSyncService) Sync(ctx context.Context) (StaffSyncReport, error) {
	var report StaffSyncReport

	staff, err := s.directory.FetchAllStaff(ctx)
	if err != nil {
		return report, fmt.Errorf("sync staff: %w", err)
	}
	report.Fetched = len(staff)

	var errs []error
	for _, profile := range staff {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		_, outcome, err := s.reconciler.Reconcile(ctx, profile)
		if err != nil {
			report.Failed++
			errs = append(errs, fmt.Errorf("reconcile %s: %w", profile.Username, err))
			continue
		}
		switch outcome {
		case ReconcileCreated:
			report.Created++
		case ReconcileUpdated:
			report.Updated++
		case ReconcileUnchanged:
			report.Unchanged++
		}
	}

	s.log().InfoContext(ctx, "staff sync finished",
		"fetched", report.Fetched,
		"created", report.Created,
		"updated", report.Updated,
		"unchanged", report.Unchanged,
		"failed", report.Failed,
	)
	return report, errors.Join(errs...)
}

func (s *StaffSyncService) log() *slog.Logger {
	if s.logger != nil {
		return s.logger
	}
	return slog.Default()
}
