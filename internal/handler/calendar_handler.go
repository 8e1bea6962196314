package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-attendance-api/internal/dto"
	"github.com/noah-isme/sma-attendance-api/internal/models"
	"github.com/noah-isme/sma-attendance-api/internal/service"
	"github.com/noah-isme/sma-attendance-api/pkg/response"
)

type calendarService interface {
	Month(ctx context.Context, enrollmentID, month string, claims *models.JWTClaims) (*dto.CalendarView, error)
	Export(ctx context.Context, enrollmentID, month, format string, claims *models.JWTClaims) (*service.ExportFile, error)
}

// CalendarHandler serves the student attendance calendar.
type CalendarHandler struct {
	service calendarService
	now     func() time.Time
}

// NewCalendarHandler builds a calendar handler.
func NewCalendarHandler(service calendarService) *CalendarHandler {
	return &CalendarHandler{service: service, now: time.Now}
}

// Month godoc
// @Summary Reconciled attendance calendar for a month
// @Tags Calendar
// @Produce json
// @Param enrollmentId path string true "Enrollment ID"
// @Param month query string false "Month as YYYY-MM (defaults to current)"
// @Success 200 {object} response.Envelope
// @Router /students/{enrollmentId}/calendar [get]
func (h *CalendarHandler) Month(c *gin.Context) {
	view, err := h.service.Month(c.Request.Context(), c.Param("enrollmentId"), h.month(c), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view)
}

// Export godoc
// @Summary Download the month calendar
// @Tags Calendar
// @Produce application/octet-stream
// @Param enrollmentId path string true "Enrollment ID"
// @Param month query string false "Month as YYYY-MM (defaults to current)"
// @Param format query string false "csv, pdf or xlsx (defaults to csv)"
// @Success 200 {file} file
// @Router /students/{enrollmentId}/calendar/export [get]
func (h *CalendarHandler) Export(c *gin.Context) {
	file, err := h.service.Export(c.Request.Context(), c.Param("enrollmentId"), h.month(c), c.DefaultQuery("format", "csv"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Body)
}

func (h *CalendarHandler) month(c *gin.Context) string {
	if m := c.Query("month"); m != "" {
		return m
	}
	return h.now().Format("2006-01")
}
