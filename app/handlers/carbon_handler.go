// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"context"
	"log"
	"strconv"
	"time"

	"github.com/ecotrace/ecotrace/app/dto"
	businessflow "github.com/ecotrace/ecotrace/business_flow"
	"github.com/ecotrace/ecotrace/emission"
	"github.com/ecotrace/ecotrace/utils"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// CarbonHandlerInterface defines the contract for carbon score and budget handlers
type CarbonHandlerInterface interface {
	GetScore(c fiber.Ctx) error
	GetScoreHistory(c fiber.Ctx) error
	UpsertBudget(c fiber.Ctx) error
	GetBudget(c fiber.Ctx) error
}

// CarbonHandler handles carbon score and budget HTTP requests
type CarbonHandler struct {
	scoreFlow  businessflow.ScoreFlow
	budgetFlow businessflow.CarbonBudgetFlow
	validator  *validator.Validate
}

// NewCarbonHandler creates a new carbon handler
func NewCarbonHandler(scoreFlow businessflow.ScoreFlow, budgetFlow businessflow.CarbonBudgetFlow) *CarbonHandler {
	return &CarbonHandler{
		scoreFlow:  scoreFlow,
		budgetFlow: budgetFlow,
		validator:  validator.New(),
	}
}

func (h *CarbonHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *CarbonHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// GetScore returns the carbon score for a month
// @Summary Get Carbon Score
// @Description Retrieve the carbon score, breakdown, and impact equivalents for a month (defaults to the current month)
// @Tags Carbon
// @Produce json
// @Param month query string false "Month key (YYYY-MM), defaults to current month"
// @Success 200 {object} dto.APIResponse{data=dto.GetScoreResponse} "Score retrieved successfully"
// @Failure 400 {object} dto.APIResponse "Invalid month key"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/carbon/score [get]
func (h *CarbonHandler) GetScore(c fiber.Ctx) error {
	userID, ok := c.Locals("user_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}

	month := c.Query("month")
	if month == "" {
		month = emission.MonthKey(time.Now())
	}

	req := &dto.GetScoreRequest{
		UserID: userID,
		Month:  month,
	}

	result, err := h.scoreFlow.GetScore(h.createRequestContext(c, "/api/v1/carbon/score"), req)
	if err != nil {
		if businessflow.IsInvalidMonthKey(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Month must be formatted YYYY-MM", "INVALID_MONTH_KEY", nil)
		}
		if businessflow.IsUserNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusUnauthorized, "User not found", "USER_NOT_FOUND", nil)
		}

		log.Println("Get carbon score failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to retrieve carbon score", "GET_SCORE_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Carbon score retrieved successfully", result.Score)
}

// GetScoreHistory returns recent monthly scores, newest first
// @Summary Get Score History
// @Description Retrieve recent monthly carbon scores (default 12, max 36)
// @Tags Carbon
// @Produce json
// @Param months query int false "Number of months" default(12)
// @Success 200 {object} dto.APIResponse{data=dto.ScoreHistoryResponse} "History retrieved successfully"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/carbon/score/history [get]
func (h *CarbonHandler) GetScoreHistory(c fiber.Ctx) error {
	userID, ok := c.Locals("user_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}

	months := 12
	if v, err := strconv.Atoi(c.Query("months", "12")); err == nil && v > 0 {
		months = v
	}

	req := &dto.ScoreHistoryRequest{
		UserID: userID,
		Months: months,
	}

	result, err := h.scoreFlow.GetScoreHistory(h.createRequestContext(c, "/api/v1/carbon/score/history"), req)
	if err != nil {
		log.Println("Get score history failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to retrieve score history", "GET_SCORE_HISTORY_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Score history retrieved successfully", fiber.Map{
		"items": result.Items,
	})
}

// UpsertBudget sets or replaces the monthly emission target
// @Summary Set Carbon Budget
// @Description Set or replace the emission target for a month
// @Tags Carbon
// @Accept json
// @Produce json
// @Param request body dto.UpsertBudgetRequest true "Budget data"
// @Success 200 {object} dto.APIResponse{data=dto.BudgetResponse} "Budget saved successfully"
// @Failure 400 {object} dto.APIResponse "Validation error or invalid request"
// @Failure 401 {object} dto.APIResponse "Unauthorized - user not found or inactive"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/carbon/budget [put]
func (h *CarbonHandler) UpsertBudget(c fiber.Ctx) error {
	var req dto.UpsertBudgetRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	// Validate request
	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	userID, ok := c.Locals("user_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}
	req.UserID = userID

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	result, err := h.budgetFlow.UpsertBudget(h.createRequestContext(c, "/api/v1/carbon/budget"), &req, metadata)
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
		if businessflow.IsBudgetTargetTooLow(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Budget target must be positive", "BUDGET_TARGET_TOO_LOW", nil)
		}

		log.Println("Budget upsert failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to save budget", "BUDGET_UPSERT_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Budget saved successfully", fiber.Map{
		"message": result.Message,
		"budget":  result.Budget,
	})
}

// GetBudget returns the budget and current standing for a month
// @Summary Get Carbon Budget
// @Description Retrieve the emission target and current standing for a month (defaults to the current month)
// @Tags Carbon
// @Produce json
// @Param month query string false "Month key (YYYY-MM), defaults to current month"
// @Success 200 {object} dto.APIResponse{data=dto.BudgetResponse} "Budget retrieved successfully"
// @Failure 400 {object} dto.APIResponse "Invalid month key"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 404 {object} dto.APIResponse "Budget not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/carbon/budget [get]
func (h *CarbonHandler) GetBudget(c fiber.Ctx) error {
	userID, ok := c.Locals("user_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}

	month := c.Query("month")
	if month == "" {
		month = emission.MonthKey(time.Now())
	}

	req := &dto.GetBudgetRequest{
		UserID: userID,
		Month:  month,
	}

	result, err := h.budgetFlow.GetBudget(h.createRequestContext(c, "/api/v1/carbon/budget"), req)
	if err != nil {
		if businessflow.IsInvalidMonthKey(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Month must be formatted YYYY-MM", "INVALID_MONTH_KEY", nil)
		}
		if businessflow.IsBudgetNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "No budget set for this month", "BUDGET_NOT_FOUND", nil)
		}

		log.Println("Get budget failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to retrieve budget", "GET_BUDGET_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Budget retrieved successfully", result.Budget)
}

// createRequestContext creates a context with request-scoped values for observability and timeout
func (h *CarbonHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return h.createRequestContextWithTimeout(c, endpoint, 30*time.Second)
}

// createRequestContextWithTimeout creates a context with custom timeout and request-scoped values
func (h *CarbonHandler) createRequestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)

	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.TimeoutKey, timeout)
	ctx = context.WithValue(ctx, utils.CancelFuncKey, cancel) // Store cancel function for cleanup

	return ctx
}
