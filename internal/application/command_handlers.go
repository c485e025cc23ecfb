package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/wms-platform/fbs-supply-service/internal/domain"
	apperrors "github.com/wms-platform/fbs-supply-service/pkg/errors"
	"github.com/wms-platform/fbs-supply-service/pkg/logging"
	"github.com/wms-platform/fbs-supply-service/pkg/metrics"
)

// OpenSupplyCommandHandler opens supplies
type OpenSupplyCommandHandler interface {
	Handle(ctx context.Context, cmd NewSupplyCommand) (*domain.Supply, error)
}

// PackageCommandHandler creates packages
type PackageCommandHandler interface {
	Handle(ctx context.Context, cmd NewPackageCommand) (*domain.Package, error)
}

// OpenSupplyHandler creates and stores supplies. Events are saved to the outbox
// by the repository in the same transaction.
type OpenSupplyHandler struct {
	repo    domain.SupplyRepository
	logger  *logging.Logger
	metrics *metrics.Metrics
}

// NewOpenSupplyHandler creates a new OpenSupplyHandler
func NewOpenSupplyHandler(repo domain.SupplyRepository, logger *logging.Logger, m *metrics.Metrics) *OpenSupplyHandler {
	return &OpenSupplyHandler{repo: repo, logger: logger, metrics: m}
}

// Handle opens a supply. Returns domain.ErrSupplyAlreadyOpen when the account
// already holds one.
func (h *OpenSupplyHandler) Handle(ctx context.Context, cmd NewSupplyCommand) (*domain.Supply, error) {
	supply, err := domain.NewSupply(cmd.AccountID)
	if err != nil {
		return nil, apperrors.ErrValidation(err.Error()).Wrap(err)
	}

	if err := h.repo.Save(ctx, supply); err != nil {
		if errors.Is(err, domain.ErrSupplyAlreadyOpen) {
			h.recordOutcome("already_open")
			return nil, err
		}
		h.recordOutcome("failed")
		return nil, fmt.Errorf("failed to save supply: %w", err)
	}

	h.recordOutcome("created")
	h.logger.Event(ctx, "supply.opened", map[string]any{
		"supplyId":  supply.SupplyID,
		"accountId": supply.AccountID,
	})

	return supply, nil
}

func (h *OpenSupplyHandler) recordOutcome(outcome string) {
	if h.metrics != nil {
		h.metrics.RecordSupplyOpened(outcome)
	}
}

// CreatePackageHandler creates and stores packages
type CreatePackageHandler struct {
	repo    domain.PackageRepository
	logger  *logging.Logger
	metrics *metrics.Metrics
}

// NewCreatePackageHandler creates a new CreatePackageHandler
func NewCreatePackageHandler(repo domain.PackageRepository, logger *logging.Logger, m *metrics.Metrics) *CreatePackageHandler {
	return &CreatePackageHandler{repo: repo, logger: logger, metrics: m}
}

// Handle creates a package. Returns domain.ErrPackageLineTaken when a line is
// already in another package.
func (h *CreatePackageHandler) Handle(ctx context.Context, cmd NewPackageCommand) (*domain.Package, error) {
	pkg, err := domain.NewPackage(cmd.AccountID, cmd.SupplyID, cmd.OutOfBatch, cmd.Lines)
	if err != nil {
		return nil, apperrors.ErrValidation(err.Error()).Wrap(err)
	}

	if err := h.repo.Save(ctx, pkg); err != nil {
		if errors.Is(err, domain.ErrPackageLineTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to save package: %w", err)
	}

	if h.metrics != nil {
		h.metrics.RecordPackageCreated(pkg.OutOfBatch)
	}
	h.logger.Event(ctx, "package.created", map[string]any{
		"packageId":  pkg.PackageID,
		"supplyId":   pkg.SupplyID,
		"outOfBatch": pkg.OutOfBatch,
		"lineCount":  len(pkg.Lines),
	})

	return pkg, nil
}
