package application

import (
	"context"
	"fmt"

	"github.com/wms-platform/fbs-supply-service/internal/domain"
	apperrors "github.com/wms-platform/fbs-supply-service/pkg/errors"
)

// SupplyQueryService serves the read-only ops API
type SupplyQueryService struct {
	supplies domain.SupplyRepository
	packages domain.PackageRepository
}

// NewSupplyQueryService creates a new SupplyQueryService
func NewSupplyQueryService(supplies domain.SupplyRepository, packages domain.PackageRepository) *SupplyQueryService {
	return &SupplyQueryService{supplies: supplies, packages: packages}
}

// GetOpenSupply returns the supply holding the account's open slot
func (s *SupplyQueryService) GetOpenSupply(ctx context.Context, accountID string) (*SupplyDTO, error) {
	if accountID == "" {
		return nil, apperrors.ErrValidation("account id is required")
	}

	supply, err := s.supplies.FindOpenByAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to get open supply: %w", err)
	}
	if supply == nil {
		return nil, apperrors.ErrNotFoundWithID("open supply", accountID)
	}
	return ToSupplyDTO(supply), nil
}

// ListPackages returns the packages of a supply, oldest first
func (s *SupplyQueryService) ListPackages(ctx context.Context, supplyID string) ([]PackageDTO, error) {
	if supplyID == "" {
		return nil, apperrors.ErrValidation("supply id is required")
	}

	packages, err := s.packages.FindBySupply(ctx, supplyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list packages: %w", err)
	}
	return ToPackageDTOs(packages), nil
}
