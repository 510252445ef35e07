package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/bt-suite/budget_transfer_app/internal/apperrors"
	"github.com/bt-suite/budget_transfer_app/internal/core/domain"
	portssvc "github.com/bt-suite/budget_transfer_app/internal/core/ports/services"
	"github.com/bt-suite/budget_transfer_app/internal/dto"
	"github.com/bt-suite/budget_transfer_app/internal/middleware"
	"github.com/gin-gonic/gin"
)

// transferHandler handles HTTP requests related to budget transfers.
type transferHandler struct {
	transferService portssvc.TransferSvcFacade
}

// newTransferHandler creates a new transferHandler.
func newTransferHandler(transferService portssvc.TransferSvcFacade) *transferHandler {
	return &transferHandler{
		transferService: transferService,
	}
}

// respondWithServiceError translates sentinel errors into HTTP responses.
func respondWithServiceError(c *gin.Context, logger *slog.Logger, err error, fallback string) {
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		logger.Warn("Validation error", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case errors.Is(err, apperrors.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
	case errors.Is(err, apperrors.ErrForbidden):
		logger.Warn("Forbidden", slog.String("error", err.Error()))
		c.JSON(http.StatusForbidden, ErrorResponse{Error: err.Error()})
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
	case errors.Is(err, apperrors.ErrConflict), errors.Is(err, apperrors.ErrDuplicate):
		logger.Warn("Conflict", slog.String("error", err.Error()))
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})
	case errors.Is(err, apperrors.ErrInvalidTransition):
		logger.Warn("Invalid transition", slog.String("error", err.Error()))
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error()})
	default:
		logger.Error(fallback, slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: fallback})
	}
}

// createTransfer godoc
// @Summary Create a budget transfer request
// @Description Creates a new pending transfer at level 0 with its line items and allocates its code
// @Tags transfers
// @Accept  json
// @Produce  json
// @Param   transfer body dto.CreateTransferRequest true "Transfer and line items"
// @Success 201 {object} dto.TransferResponse
// @Failure 400 {object} ErrorResponse "Invalid request format"
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Failure 500 {object} ErrorResponse "Failed to create transfer"
// @Router /transfers/ [post]
func (h *transferHandler) createTransfer(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	createReq := dto.CreateTransferRequest{}
	if err := c.ShouldBindJSON(&createReq); err != nil {
		logger.Error("Failed to bind JSON for createTransfer", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request format"})
		return
	}

	requesterID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("Requester user ID not found in context")
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	logger = logger.With(slog.String("requester_id", requesterID))

	transfer, err := h.transferService.CreateTransfer(c.Request.Context(), createReq, requesterID)
	if err != nil {
		respondWithServiceError(c, logger, err, "Failed to create transfer")
		return
	}

	logger.Info("Transfer created successfully", slog.String("transfer_id", transfer.TransferID), slog.String("code", transfer.Code))
	c.JSON(http.StatusCreated, dto.ToTransferResponse(transfer))
}

// getTransfer godoc
// @Summary Get a transfer with its approval chain and line items
// @Tags transfers
// @Produce  json
// @Param   transferID path string true "Transfer ID"
// @Success 200 {object} dto.TransferResponse
// @Failure 403 {object} ErrorResponse "Outside the caller's scope"
// @Failure 404 {object} ErrorResponse "Transfer not found"
// @Router /transfers/{transferID} [get]
func (h *transferHandler) getTransfer(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	transferID := c.Param("transferID")

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	transfer, err := h.transferService.GetTransferByID(c.Request.Context(), transferID, userID)
	if err != nil {
		respondWithServiceError(c, logger, err, "Failed to retrieve transfer")
		return
	}

	c.JSON(http.StatusOK, dto.ToTransferResponse(transfer))
}

// decideTransfer godoc
// @Summary Approve or reject a pending transfer
// @Description Applies one decision at the transfer's current approval level. A terminal outcome reconciles fund balances atomically with the state change.
// @Tags transfers
// @Accept  json
// @Produce  json
// @Param   transferID path string true "Transfer ID"
// @Param   decision body dto.DecideTransferRequest true "Decision and optional reason"
// @Success 200 {object} dto.TransferResponse
// @Failure 400 {object} ErrorResponse "Invalid request or missing reject reason"
// @Failure 403 {object} ErrorResponse "Actor not at the waiting level"
// @Failure 409 {object} ErrorResponse "Another decision won the race"
// @Failure 422 {object} ErrorResponse "Transfer already terminal"
// @Router /transfers/{transferID}/decision [post]
func (h *transferHandler) decideTransfer(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	transferID := c.Param("transferID")

	decideReq := dto.DecideTransferRequest{}
	if err := c.ShouldBindJSON(&decideReq); err != nil {
		logger.Error("Failed to bind JSON for decideTransfer", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request format"})
		return
	}

	actorID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	logger = logger.With(slog.String("transfer_id", transferID), slog.String("actor_id", actorID))

	transfer, err := h.transferService.Decide(c.Request.Context(), transferID, actorID, domain.Decision(decideReq.Decision), decideReq.Reason)
	if err != nil {
		respondWithServiceError(c, logger, err, "Failed to apply decision")
		return
	}

	logger.Info("Decision applied", slog.String("decision", decideReq.Decision), slog.String("status", string(transfer.Status)))
	c.JSON(http.StatusOK, dto.ToTransferResponse(transfer))
}

// withdrawTransfer godoc
// @Summary Withdraw a pending transfer
// @Description Deletes a transfer that is still pending at level 0 with no recorded decision. Only the requester may withdraw.
// @Tags transfers
// @Param   transferID path string true "Transfer ID"
// @Success 204 "Withdrawn"
// @Failure 403 {object} ErrorResponse "Caller is not the requester"
// @Failure 422 {object} ErrorResponse "Transfer already entered its approval chain"
// @Router /transfers/{transferID} [delete]
func (h *transferHandler) withdrawTransfer(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	transferID := c.Param("transferID")

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	if err := h.transferService.Withdraw(c.Request.Context(), transferID, userID); err != nil {
		respondWithServiceError(c, logger, err, "Failed to withdraw transfer")
		return
	}

	logger.Info("Transfer withdrawn", slog.String("transfer_id", transferID))
	c.Status(http.StatusNoContent)
}

// listPendingTransfers godoc
// @Summary List transfers waiting at the caller's approval level
// @Tags transfers
// @Produce  json
// @Param   type query string false "Transfer type (FAR, AFR, FAD)"
// @Param   limit query int false "Page size"
// @Param   nextToken query string false "Pagination cursor"
// @Success 200 {object} dto.ListTransfersResponse
// @Failure 403 {object} ErrorResponse "Caller is not part of an approval chain"
// @Router /transfers/pending [get]
func (h *transferHandler) listPendingTransfers(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	params := dto.ListPendingParams{}
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid query parameters"})
		return
	}

	actorID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	resp, err := h.transferService.ListPendingForActor(c.Request.Context(), actorID, params)
	if err != nil {
		respondWithServiceError(c, logger, err, "Failed to list pending transfers")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// listMyTransfers godoc
// @Summary List the caller's own transfer requests
// @Tags transfers
// @Produce  json
// @Param   status query string false "Filter by status (pending, approved, rejected)"
// @Param   limit query int false "Page size"
// @Param   nextToken query string false "Pagination cursor"
// @Success 200 {object} dto.ListTransfersResponse
// @Router /transfers/mine [get]
func (h *transferHandler) listMyTransfers(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	params := dto.ListTransfersParams{}
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid query parameters"})
		return
	}

	requesterID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	resp, err := h.transferService.ListForRequester(c.Request.Context(), requesterID, params)
	if err != nil {
		respondWithServiceError(c, logger, err, "Failed to list transfers")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// listRejections godoc
// @Summary List the rejection audit records of a transfer
// @Tags transfers
// @Produce  json
// @Param   transferID path string true "Transfer ID"
// @Success 200 {array} dto.RejectionResponse
// @Failure 404 {object} ErrorResponse "Transfer not found"
// @Router /transfers/{transferID}/rejections [get]
func (h *transferHandler) listRejections(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	transferID := c.Param("transferID")

	records, err := h.transferService.ListRejections(c.Request.Context(), transferID)
	if err != nil {
		respondWithServiceError(c, logger, err, "Failed to list rejections")
		return
	}

	c.JSON(http.StatusOK, dto.ToRejectionResponses(records))
}

// RegisterTransferRoutes registers transfer specific routes
func RegisterTransferRoutes(group *gin.RouterGroup, transferService portssvc.TransferSvcFacade) {
	transferHandler := newTransferHandler(transferService)

	transfers := group.Group("/transfers")
	{
		transfers.POST("/", transferHandler.createTransfer)
		transfers.GET("/pending", transferHandler.listPendingTransfers)
		transfers.GET("/mine", transferHandler.listMyTransfers)
		transfers.GET("/:transferID", transferHandler.getTransfer)
		transfers.POST("/:transferID/decision", transferHandler.decideTransfer)
		transfers.GET("/:transferID/rejections", transferHandler.listRejections)
		transfers.DELETE("/:transferID", transferHandler.withdrawTransfer)
	}
}
