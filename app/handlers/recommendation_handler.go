// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"context"
	"log"
	"strconv"
	"time"

	"github.com/ecotrace/ecotrace/app/dto"
	businessflow "github.com/ecotrace/ecotrace/business_flow"
	"github.com/ecotrace/ecotrace/utils"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// RecommendationHandlerInterface defines the contract for recommendation handlers
type RecommendationHandlerInterface interface {
	ListRecommendations(c fiber.Ctx) error
}

// RecommendationHandler handles recommendation HTTP requests
type RecommendationHandler struct {
	recommendationFlow businessflow.RecommendationFlow
	validator          *validator.Validate
}

// NewRecommendationHandler creates a new recommendation handler
func NewRecommendationHandler(recommendationFlow businessflow.RecommendationFlow) *RecommendationHandler {
	return &RecommendationHandler{
		recommendationFlow: recommendationFlow,
		validator:          validator.New(),
	}
}

func (h *RecommendationHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *RecommendationHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ListRecommendations returns suggestions ordered by relevance to the user's footprint
// @Summary List Recommendations
// @Description Retrieve emission-reduction suggestions prioritized by the user's dominant emission group for the month
// @Tags Recommendations
// @Produce json
// @Param month query string false "Month key (YYYY-MM), defaults to current month"
// @Param limit query int false "Maximum suggestions" default(10)
// @Param category query string false "Filter by category - energy|transport|lifestyle|water"
// @Param impact query string false "Filter by impact - high|medium|low"
// @Success 200 {object} dto.APIResponse{data=dto.ListRecommendationsResponse} "Recommendations retrieved successfully"
// @Failure 400 {object} dto.APIResponse "Invalid month key"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/recommendations [get]
func (h *RecommendationHandler) ListRecommendations(c fiber.Ctx) error {
	userID, ok := c.Locals("user_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}

	limit := 10
	if v, err := strconv.Atoi(c.Query("limit", "10")); err == nil && v > 0 {
		limit = v
	}

	req := &dto.ListRecommendationsRequest{
		UserID: userID,
		Limit:  limit,
	}
	if month := c.Query("month"); month != "" {
		req.Month = &month
	}
	if category := c.Query("category"); category != "" {
		req.Category = &category
	}
	if impact := c.Query("impact"); impact != "" {
		req.Impact = &impact
	}

	if err := h.validator.Struct(req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", err.Error())
	}

	result, err := h.recommendationFlow.ListRecommendations(h.createRequestContext(c, "/api/v1/recommendations"), req)
	if err != nil {
		if businessflow.IsInvalidMonthKey(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Month must be formatted YYYY-MM", "INVALID_MONTH_KEY", nil)
		}

		log.Println("List recommendations failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list recommendations", "LIST_RECOMMENDATIONS_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Recommendations retrieved successfully", fiber.Map{
		"items":             result.Items,
		"dominant_category": result.DominantCategory,
	})
}

// createRequestContext creates a context with request-scoped values for observability and timeout
func (h *RecommendationHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return h.createRequestContextWithTimeout(c, endpoint, 30*time.Second)
}

// createRequestContextWithTimeout creates a context with custom timeout and request-scoped values
func (h *RecommendationHandler) createRequestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)

	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.TimeoutKey, timeout)
	ctx = context.WithValue(ctx, utils.CancelFuncKey, cancel) // Store cancel function for cleanup

	return ctx
}
