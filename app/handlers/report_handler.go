// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"context"
	"log"
	"time"

	"github.com/ecotrace/ecotrace/app/dto"
	businessflow "github.com/ecotrace/ecotrace/business_flow"
	"github.com/ecotrace/ecotrace/emission"
	"github.com/ecotrace/ecotrace/utils"
	"github.com/gofiber/fiber/v3"
)

// ReportHandlerInterface defines the contract for report handlers
type ReportHandlerInterface interface {
	ExportMonthlyReport(c fiber.Ctx) error
}

// ReportHandler handles report export HTTP requests
type ReportHandler struct {
	reportFlow businessflow.ReportFlow
}

// NewReportHandler creates a new report handler
func NewReportHandler(reportFlow businessflow.ReportFlow) *ReportHandler {
	return &ReportHandler{reportFlow: reportFlow}
}

func (h *ReportHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

// ExportMonthlyReport generates and downloads the monthly report workbook
// @Summary Export Monthly Report
// @Description Generate an XLSX workbook with the month's score summary and bills
// @Tags Reports
// @Produce application/octet-stream
// @Param month query string false "Month key (YYYY-MM), defaults to current month"
// @Success 200 {string} string "Binary XLSX file"
// @Failure 400 {object} dto.APIResponse "Invalid month key"
// @Failure 401 {object} dto.APIResponse "Unauthorized - user not found or inactive"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/reports/monthly [get]
func (h *ReportHandler) ExportMonthlyReport(c fiber.Ctx) error {
	userID, ok := c.Locals("user_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}

	month := c.Query("month")
	if month == "" {
		month = emission.MonthKey(time.Now())
	}

	req := &dto.ExportReportRequest{
		UserID: userID,
		Month:  month,
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	result, err := h.reportFlow.ExportMonthlyReport(h.createRequestContext(c, "/api/v1/reports/monthly"), req, metadata)
	if err != nil {
		if businessflow.IsUserNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusUnauthorized, "User not found", "USER_NOT_FOUND", nil)
		}
		if businessflow.IsAccountInactive(err) {
			return h.ErrorResponse(c, fiber.StatusUnauthorized, "User account is inactive", "ACCOUNT_INACTIVE", nil)
		}
		if businessflow.IsInvalidMonthKey(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Month must be formatted YYYY-MM", "INVALID_MONTH_KEY", nil)
		}

		log.Println("Report export failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to export report", "REPORT_EXPORT_FAILED", nil)
	}

	c.Set("Content-Type", result.ContentType)
	c.Set("Content-Disposition", "attachment; filename="+result.FileName)
	return c.Send(result.Data)
}

// createRequestContext creates a context with request-scoped values for observability and timeout
func (h *ReportHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return h.createRequestContextWithTimeout(c, endpoint, 30*time.Second)
}

// createRequestContextWithTimeout creates a context with custom timeout and request-scoped values
func (h *ReportHandler) createRequestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)

	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.TimeoutKey, timeout)
	ctx = context.WithValue(ctx, utils.CancelFuncKey, cancel) // Store cancel function for cleanup

	return ctx
}
