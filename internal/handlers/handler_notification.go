package handlers

import (
	"net/http"
	"strconv"

	portssvc "github.com/bt-suite/budget_transfer_app/internal/core/ports/services"
	"github.com/bt-suite/budget_transfer_app/internal/dto"
	"github.com/bt-suite/budget_transfer_app/internal/middleware"
	"github.com/gin-gonic/gin"
)

// notificationHandler exposes the caller's notification feed.
type notificationHandler struct {
	notificationService portssvc.NotificationSvcFacade
}

func newNotificationHandler(notificationService portssvc.NotificationSvcFacade) *notificationHandler {
	return &notificationHandler{notificationService: notificationService}
}

// listNotifications godoc
// @Summary List the caller's notifications, newest first
// @Tags notifications
// @Produce  json
// @Param   limit query int false "Page size"
// @Success 200 {array} dto.NotificationResponse
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Router /notifications [get]
func (h *notificationHandler) listNotifications(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	limit, _ := strconv.Atoi(c.Query("limit"))

	events, err := h.notificationService.ListNotificationsForUser(c.Request.Context(), userID, limit)
	if err != nil {
		respondWithServiceError(c, logger, err, "Failed to list notifications")
		return
	}

	c.JSON(http.StatusOK, dto.ToNotificationResponses(events))
}

// registerNotificationRoutes registers notification routes
func registerNotificationRoutes(group *gin.RouterGroup, notificationService portssvc.NotificationSvcFacade) {
	notificationHandler := newNotificationHandler(notificationService)

	group.GET("/notifications", notificationHandler.listNotifications)
}
