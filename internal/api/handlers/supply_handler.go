package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wms-platform/fbs-supply-service/internal/application"
	"github.com/wms-platform/fbs-supply-service/pkg/middleware"
)

// SupplyQueries reads supplies and packages
type SupplyQueries interface {
	GetOpenSupply(ctx context.Context, accountID string) (*application.SupplyDTO, error)
	ListPackages(ctx context.Context, supplyID string) ([]application.PackageDTO, error)
}

// SupplyHandler serves the read-only supply API
type SupplyHandler struct {
	queries SupplyQueries
}

// NewSupplyHandler creates a new SupplyHandler
func NewSupplyHandler(queries SupplyQueries) *SupplyHandler {
	return &SupplyHandler{queries: queries}
}

// RegisterRoutes mounts the handler under /api/v1
func (h *SupplyHandler) RegisterRoutes(router gin.IRouter) {
	v1 := router.Group("/api/v1")
	v1.GET("/supplies/open/:account", h.GetOpenSupply)
	v1.GET("/packages/supply/:supplyId", h.ListPackages)
}

// GetOpenSupply handles GET /api/v1/supplies/open/:account
func (h *SupplyHandler) GetOpenSupply(c *gin.Context) {
	supply, err := h.queries.GetOpenSupply(c.Request.Context(), c.Param("account"))
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": supply})
}

// ListPackages handles GET /api/v1/packages/supply/:supplyId
func (h *SupplyHandler) ListPackages(c *gin.Context) {
	packages, err := h.queries.ListPackages(c.Request.Context(), c.Param("supplyId"))
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":  packages,
		"count": len(packages),
	})
}
