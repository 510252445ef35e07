package handlers

import (
	"net/http"

	"github.com/bt-suite/budget_transfer_app/internal/core/domain"
	portssvc "github.com/bt-suite/budget_transfer_app/internal/core/ports/services"
	"github.com/bt-suite/budget_transfer_app/internal/dto"
	"github.com/bt-suite/budget_transfer_app/internal/middleware"
	"github.com/gin-gonic/gin"
)

// fundHandler handles HTTP requests against the fund ledger (read-only).
type fundHandler struct {
	fundService portssvc.FundSvcFacade
}

func newFundHandler(fundService portssvc.FundSvcFacade) *fundHandler {
	return &fundHandler{fundService: fundService}
}

// listFunds godoc
// @Summary List fund balances of an entity for a period
// @Tags funds
// @Produce  json
// @Param   entity query string true "Entity (cost center) key"
// @Param   period query string true "Fiscal period, e.g. 2026"
// @Success 200 {array} dto.FundBalanceResponse
// @Failure 400 {object} ErrorResponse "Missing entity or period"
// @Router /funds [get]
func (h *fundHandler) listFunds(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	funds, err := h.fundService.ListFundsByEntity(c.Request.Context(), c.Query("entity"), c.Query("period"))
	if err != nil {
		respondWithServiceError(c, logger, err, "Failed to list fund balances")
		return
	}

	c.JSON(http.StatusOK, dto.ToFundBalanceResponses(funds))
}

// getFund godoc
// @Summary Get one fund balance row
// @Tags funds
// @Produce  json
// @Param   entityKey path string true "Entity (cost center) key"
// @Param   accountKey path string true "Account key"
// @Param   period path string true "Fiscal period"
// @Success 200 {object} dto.FundBalanceResponse
// @Failure 404 {object} ErrorResponse "Fund row not found"
// @Router /funds/{entityKey}/{accountKey}/{period} [get]
func (h *fundHandler) getFund(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	key := domain.FundKey{
		EntityKey:  c.Param("entityKey"),
		AccountKey: c.Param("accountKey"),
		Period:     c.Param("period"),
	}

	fund, err := h.fundService.GetFundByKey(c.Request.Context(), key)
	if err != nil {
		respondWithServiceError(c, logger, err, "Failed to retrieve fund balance")
		return
	}

	c.JSON(http.StatusOK, dto.ToFundBalanceResponse(fund))
}

// registerFundRoutes registers fund ledger routes
func registerFundRoutes(group *gin.RouterGroup, fundService portssvc.FundSvcFacade) {
	fundHandler := newFundHandler(fundService)

	funds := group.Group("/funds")
	{
		funds.GET("", fundHandler.listFunds)
		funds.GET("/:entityKey/:accountKey/:period", fundHandler.getFund)
	}
}
