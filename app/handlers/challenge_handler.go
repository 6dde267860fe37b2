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

// ChallengeHandlerInterface defines the contract for challenge handlers
type ChallengeHandlerInterface interface {
	ListChallenges(c fiber.Ctx) error
	JoinChallenge(c fiber.Ctx) error
	UpdateProgress(c fiber.Ctx) error
	LeaveChallenge(c fiber.Ctx) error
	ListUserChallenges(c fiber.Ctx) error
}

// ChallengeHandler handles challenge-related HTTP requests
type ChallengeHandler struct {
	challengeFlow businessflow.ChallengeFlow
	validator     *validator.Validate
}

// NewChallengeHandler creates a new challenge handler
func NewChallengeHandler(challengeFlow businessflow.ChallengeFlow) *ChallengeHandler {
	return &ChallengeHandler{
		challengeFlow: challengeFlow,
		validator:     validator.New(),
	}
}

func (h *ChallengeHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *ChallengeHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// parseChallengeID parses the challenge ID path parameter
func parseChallengeID(c fiber.Ctx) (uint, bool) {
	v, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil || v == 0 {
		return 0, false
	}
	return uint(v), true
}

// ListChallenges returns the challenge catalog with the user's joined flags
// @Summary List Challenges
// @Description Retrieve active challenges, optionally filtered by category
// @Tags Challenges
// @Produce json
// @Param category query string false "Filter by category (energy|transport|lifestyle|water)"
// @Success 200 {object} dto.APIResponse{data=dto.ListChallengesResponse} "Challenges retrieved successfully"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/challenges [get]
func (h *ChallengeHandler) ListChallenges(c fiber.Ctx) error {
	userID, ok := c.Locals("user_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}

	req := &dto.ListChallengesRequest{UserID: userID}
	if category := c.Query("category"); category != "" {
		req.Category = &category
	}

	// Validate request
	if err := h.validator.Struct(req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	result, err := h.challengeFlow.ListChallenges(h.createRequestContext(c, "/api/v1/challenges"), req)
	if err != nil {
		log.Println("List challenges failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list challenges", "LIST_CHALLENGES_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Challenges retrieved successfully", fiber.Map{
		"items": result.Items,
	})
}

// JoinChallenge enrolls the user in an active challenge
// @Summary Join Challenge
// @Description Join an active challenge; abandoned participations can be rejoined
// @Tags Challenges
// @Produce json
// @Param id path int true "Challenge ID"
// @Success 201 {object} dto.APIResponse{data=dto.UserChallengeResponse} "Challenge joined successfully"
// @Failure 400 {object} dto.APIResponse "Invalid request"
// @Failure 401 {object} dto.APIResponse "Unauthorized - user not found or inactive"
// @Failure 404 {object} dto.APIResponse "Challenge not found"
// @Failure 409 {object} dto.APIResponse "Challenge already joined"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/challenges/{id}/join [post]
func (h *ChallengeHandler) JoinChallenge(c fiber.Ctx) error {
	challengeID, ok := parseChallengeID(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Challenge ID is invalid", "INVALID_CHALLENGE_ID", nil)
	}

	userID, ok := c.Locals("user_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}

	req := &dto.JoinChallengeRequest{
		UserID:      userID,
		ChallengeID: challengeID,
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	result, err := h.challengeFlow.JoinChallenge(h.createRequestContext(c, "/api/v1/challenges/{id}/join"), req, metadata)
	if err != nil {
		if businessflow.IsUserNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusUnauthorized, "User not found", "USER_NOT_FOUND", nil)
		}
		if businessflow.IsAccountInactive(err) {
			return h.ErrorResponse(c, fiber.StatusUnauthorized, "User account is inactive", "ACCOUNT_INACTIVE", nil)
		}
		if businessflow.IsChallengeNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Challenge not found", "CHALLENGE_NOT_FOUND", nil)
		}
		if businessflow.IsChallengeInactive(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Challenge is no longer active", "CHALLENGE_INACTIVE", nil)
		}
		if businessflow.IsChallengeAlreadyJoined(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "Challenge already joined", "CHALLENGE_ALREADY_JOINED", nil)
		}

		log.Println("Join challenge failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to join challenge", "JOIN_CHALLENGE_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusCreated, "Challenge joined successfully", fiber.Map{
		"message":   result.Message,
		"challenge": result.Challenge,
	})
}

// UpdateProgress reports progress on a joined challenge
// @Summary Update Challenge Progress
// @Description Report progress (0-100) on a joined challenge; 100 completes it and awards points
// @Tags Challenges
// @Accept json
// @Produce json
// @Param id path int true "Challenge ID"
// @Param request body dto.UpdateChallengeProgressRequest true "Progress data"
// @Success 200 {object} dto.APIResponse{data=dto.UserChallengeResponse} "Progress updated successfully"
// @Failure 400 {object} dto.APIResponse "Validation error or invalid progress"
// @Failure 401 {object} dto.APIResponse "Unauthorized - user not found or inactive"
// @Failure 404 {object} dto.APIResponse "Challenge not found or not joined"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/challenges/{id}/progress [put]
func (h *ChallengeHandler) UpdateProgress(c fiber.Ctx) error {
	challengeID, ok := parseChallengeID(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Challenge ID is invalid", "INVALID_CHALLENGE_ID", nil)
	}

	var req dto.UpdateChallengeProgressRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	req.ChallengeID = challengeID

	userID, ok := c.Locals("user_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}
	req.UserID = userID

	// Validate request
	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	result, err := h.challengeFlow.UpdateProgress(h.createRequestContext(c, "/api/v1/challenges/{id}/progress"), &req, metadata)
	if err != nil {
		if businessflow.IsUserNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusUnauthorized, "User not found", "USER_NOT_FOUND", nil)
		}
		if businessflow.IsAccountInactive(err) {
			return h.ErrorResponse(c, fiber.StatusUnauthorized, "User account is inactive", "ACCOUNT_INACTIVE", nil)
		}
		if businessflow.IsChallengeNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Challenge not found", "CHALLENGE_NOT_FOUND", nil)
		}
		if businessflow.IsChallengeNotJoined(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Challenge not joined", "CHALLENGE_NOT_JOINED", nil)
		}
		if businessflow.IsInvalidProgress(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Progress must be between 0 and 100", "INVALID_PROGRESS", nil)
		}

		log.Println("Update challenge progress failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update progress", "UPDATE_PROGRESS_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Progress updated successfully", fiber.Map{
		"message":   result.Message,
		"challenge": result.Challenge,
	})
}

// LeaveChallenge abandons a joined challenge
// @Summary Leave Challenge
// @Description Abandon a joined challenge; progress is kept but no points are awarded
// @Tags Challenges
// @Produce json
// @Param id path int true "Challenge ID"
// @Success 200 {object} dto.APIResponse "Challenge left successfully"
// @Failure 400 {object} dto.APIResponse "Invalid request"
// @Failure 401 {object} dto.APIResponse "Unauthorized - user not found or inactive"
// @Failure 404 {object} dto.APIResponse "Challenge not found or not joined"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/challenges/{id}/leave [post]
func (h *ChallengeHandler) LeaveChallenge(c fiber.Ctx) error {
	challengeID, ok := parseChallengeID(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Challenge ID is invalid", "INVALID_CHALLENGE_ID", nil)
	}

	userID, ok := c.Locals("user_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}

	req := &dto.LeaveChallengeRequest{
		UserID:      userID,
		ChallengeID: challengeID,
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	err := h.challengeFlow.LeaveChallenge(h.createRequestContext(c, "/api/v1/challenges/{id}/leave"), req, metadata)
	if err != nil {
		if businessflow.IsUserNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusUnauthorized, "User not found", "USER_NOT_FOUND", nil)
		}
		if businessflow.IsAccountInactive(err) {
			return h.ErrorResponse(c, fiber.StatusUnauthorized, "User account is inactive", "ACCOUNT_INACTIVE", nil)
		}
		if businessflow.IsChallengeNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Challenge not found", "CHALLENGE_NOT_FOUND", nil)
		}
		if businessflow.IsChallengeNotJoined(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Challenge not joined", "CHALLENGE_NOT_JOINED", nil)
		}

		log.Println("Leave challenge failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to leave challenge", "LEAVE_CHALLENGE_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Challenge left successfully", nil)
}

// ListUserChallenges returns the user's joined challenges with totals
// @Summary List My Challenges
// @Description Retrieve the authenticated user's challenge participations with total savings and points
// @Tags Challenges
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.ListUserChallengesResponse} "Challenges retrieved successfully"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/challenges/mine [get]
func (h *ChallengeHandler) ListUserChallenges(c fiber.Ctx) error {
	userID, ok := c.Locals("user_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}

	result, err := h.challengeFlow.ListUserChallenges(h.createRequestContext(c, "/api/v1/challenges/mine"), userID)
	if err != nil {
		log.Println("List user challenges failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list challenges", "LIST_USER_CHALLENGES_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Challenges retrieved successfully", fiber.Map{
		"items":        result.Items,
		"total_saved":  result.TotalSaved,
		"total_points": result.TotalPoints,
	})
}

// createRequestContext creates a context with request-scoped values for observability and timeout
func (h *ChallengeHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return h.createRequestContextWithTimeout(c, endpoint, 30*time.Second)
}

// createRequestContextWithTimeout creates a context with custom timeout and request-scoped values
func (h *ChallengeHandler) createRequestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)

	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.TimeoutKey, timeout)
	ctx = context.WithValue(ctx, utils.CancelFuncKey, cancel) // Store cancel function for cleanup

	return ctx
}
