package application

import (
	"time"

	"github.com/wms-platform/fbs-supply-service/internal/domain"
)

// SupplyDTO represents a supply in API responses
type SupplyDTO struct {
	SupplyID  string    `json:"supplyId"`
	AccountID string    `json:"accountId"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// PackageDTO represents a package in API responses
type PackageDTO struct {
	PackageID  string                    `json:"packageId"`
	AccountID  string                    `json:"accountId"`
	SupplyID   string                    `json:"supplyId"`
	OutOfBatch bool                      `json:"outOfBatch"`
	Lines      []domain.PackageOrderLine `json:"lines"`
	CreatedAt  time.Time                 `json:"createdAt"`
}

// ToSupplyDTO converts a domain Supply to a SupplyDTO
func ToSupplyDTO(s *domain.Supply) *SupplyDTO {
	return &SupplyDTO{
		SupplyID:  s.SupplyID,
		AccountID: s.AccountID,
		Status:    string(s.Status),
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

// ToPackageDTOs converts domain packages to PackageDTOs
func ToPackageDTOs(packages []*domain.Package) []PackageDTO {
	dtos := make([]PackageDTO, 0, len(packages))
	for _, p := range packages {
		dtos = append(dtos, PackageDTO{
			PackageID:  p.PackageID,
			AccountID:  p.AccountID,
			SupplyID:   p.SupplyID,
			OutOfBatch: p.OutOfBatch,
			Lines:      p.Lines,
			CreatedAt:  p.CreatedAt,
		})
	}
	return dtos
}
