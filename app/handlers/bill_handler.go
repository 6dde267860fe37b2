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

// BillHandlerInterface defines the contract for bill handlers
type BillHandlerInterface interface {
	CreateBill(c fiber.Ctx) error
	UpdateBill(c fiber.Ctx) error
	DeleteBill(c fiber.Ctx) error
	GetBill(c fiber.Ctx) error
	ListBills(c fiber.Ctx) error
}

// BillHandler handles bill-related HTTP requests
type BillHandler struct {
	billFlow  businessflow.BillFlow
	validator *validator.Validate
}

// NewBillHandler creates a new bill handler
func NewBillHandler(billFlow businessflow.BillFlow) *BillHandler {
	return &BillHandler{
		billFlow:  billFlow,
		validator: validator.New(),
	}
}

func (h *BillHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *BillHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// CreateBill handles manual bill entry
// @Summary Record Bill
// @Description Record a new utility or fuel bill and recompute the monthly carbon score
// @Tags Bills
// @Accept json
// @Produce json
// @Param request body dto.CreateBillRequest true "Bill data"
// @Success 201 {object} dto.APIResponse{data=dto.CreateBillResponse} "Bill recorded successfully"
// @Failure 400 {object} dto.APIResponse "Validation error or invalid request"
// @Failure 401 {object} dto.APIResponse "Unauthorized - user not found or inactive"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/bills [post]
func (h *BillHandler) CreateBill(c fiber.Ctx) error {
	var req dto.CreateBillRequest
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

	// Get client information
	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	// Get authenticated user ID from context
	userID, ok := c.Locals("user_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}
	req.UserID = userID

	// Call business logic with proper context
	result, err := h.billFlow.CreateBill(h.createRequestContext(c, "/api/v1/bills"), &req, metadata)
	if err != nil {
		if businessflow.IsUserNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusUnauthorized, "User not found", "USER_NOT_FOUND", nil)
		}
		if businessflow.IsAccountInactive(err) {
			return h.ErrorResponse(c, fiber.StatusUnauthorized, "User account is inactive", "ACCOUNT_INACTIVE", nil)
		}
		if businessflow.IsUnknownBillCategory(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Unknown bill category", "UNKNOWN_BILL_CATEGORY", nil)
		}
		if businessflow.IsBillAmountRequired(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Bill amount or units must be provided", "BILL_AMOUNT_REQUIRED", nil)
		}
		if businessflow.IsBillDateInvalid(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Bill date is invalid", "BILL_DATE_INVALID", nil)
		}

		log.Println("Bill creation failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Bill creation failed", "BILL_CREATION_FAILED", nil)
	}

	// Successful bill creation
	return h.SuccessResponse(c, fiber.StatusCreated, "Bill recorded successfully", fiber.Map{
		"message": result.Message,
		"bill":    result.Bill,
		"score":   result.Score,
	})
}

// UpdateBill handles bill updates
// @Summary Update Bill
// @Description Update an existing bill and recompute the affected monthly scores
// @Tags Bills
// @Accept json
// @Produce json
// @Param uuid path string true "Bill UUID"
// @Param request body dto.UpdateBillRequest true "Bill update data"
// @Success 200 {object} dto.APIResponse{data=dto.CreateBillResponse} "Bill updated successfully"
// @Failure 400 {object} dto.APIResponse "Validation error or invalid request"
// @Failure 401 {object} dto.APIResponse "Unauthorized - user not found or inactive"
// @Failure 403 {object} dto.APIResponse "Forbidden - bill belongs to another user"
// @Failure 404 {object} dto.APIResponse "Bill not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/bills/{uuid} [put]
func (h *BillHandler) UpdateBill(c fiber.Ctx) error {
	billUUID := c.Params("uuid")
	if billUUID == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Bill UUID is required", "MISSING_BILL_UUID", nil)
	}

	var req dto.UpdateBillRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	req.UUID = billUUID

	// Get authenticated user ID from context
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

	// Get client information
	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	// Call business logic with proper context
	result, err := h.billFlow.UpdateBill(h.createRequestContext(c, "/api/v1/bills/"+billUUID), &req, metadata)
	if err != nil {
		if businessflow.IsUserNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusUnauthorized, "User not found", "USER_NOT_FOUND", nil)
		}
		if businessflow.IsAccountInactive(err) {
			return h.ErrorResponse(c, fiber.StatusUnauthorized, "User account is inactive", "ACCOUNT_INACTIVE", nil)
		}
		if businessflow.IsBillNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Bill not found", "BILL_NOT_FOUND", nil)
		}
		if businessflow.IsBillAccessDenied(err) {
			return h.ErrorResponse(c, fiber.StatusForbidden, "Access denied: bill belongs to another user", "BILL_ACCESS_DENIED", nil)
		}
		if businessflow.IsUnknownBillCategory(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Unknown bill category", "UNKNOWN_BILL_CATEGORY", nil)
		}
		if businessflow.IsBillDateInvalid(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Bill date is invalid", "BILL_DATE_INVALID", nil)
		}

		log.Println("Bill update failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Bill update failed", "BILL_UPDATE_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Bill updated successfully", fiber.Map{
		"message": result.Message,
		"bill":    result.Bill,
		"score":   result.Score,
	})
}

// DeleteBill handles bill deletion
// @Summary Delete Bill
// @Description Delete a bill and recompute the month's carbon score
// @Tags Bills
// @Produce json
// @Param uuid path string true "Bill UUID"
// @Success 200 {object} dto.APIResponse "Bill deleted successfully"
// @Failure 400 {object} dto.APIResponse "Invalid request"
// @Failure 401 {object} dto.APIResponse "Unauthorized - user not found or inactive"
// @Failure 403 {object} dto.APIResponse "Forbidden - bill belongs to another user"
// @Failure 404 {object} dto.APIResponse "Bill not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/bills/{uuid} [delete]
func (h *BillHandler) DeleteBill(c fiber.Ctx) error {
	billUUID := c.Params("uuid")
	if billUUID == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Bill UUID is required", "MISSING_BILL_UUID", nil)
	}

	userID, ok := c.Locals("user_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}

	req := &dto.DeleteBillRequest{
		UUID:   billUUID,
		UserID: userID,
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	err := h.billFlow.DeleteBill(h.createRequestContext(c, "/api/v1/bills/"+billUUID), req, metadata)
	if err != nil {
		if businessflow.IsUserNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusUnauthorized, "User not found", "USER_NOT_FOUND", nil)
		}
		if businessflow.IsAccountInactive(err) {
			return h.ErrorResponse(c, fiber.StatusUnauthorized, "User account is inactive", "ACCOUNT_INACTIVE", nil)
		}
		if businessflow.IsBillNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Bill not found", "BILL_NOT_FOUND", nil)
		}
		if businessflow.IsBillAccessDenied(err) {
			return h.ErrorResponse(c, fiber.StatusForbidden, "Access denied: bill belongs to another user", "BILL_ACCESS_DENIED", nil)
		}

		log.Println("Bill deletion failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Bill deletion failed", "BILL_DELETION_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Bill deleted successfully", nil)
}

// GetBill returns a single bill by UUID
// @Summary Get Bill
// @Description Retrieve a single bill by UUID (owner only)
// @Tags Bills
// @Produce json
// @Param uuid path string true "Bill UUID"
// @Success 200 {object} dto.APIResponse{data=dto.BillResponse} "Bill retrieved successfully"
// @Failure 400 {object} dto.APIResponse "Invalid request"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 403 {object} dto.APIResponse "Forbidden - bill belongs to another user"
// @Failure 404 {object} dto.APIResponse "Bill not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/bills/{uuid} [get]
func (h *BillHandler) GetBill(c fiber.Ctx) error {
	billUUID := c.Params("uuid")
	if billUUID == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Bill UUID is required", "MISSING_BILL_UUID", nil)
	}

	userID, ok := c.Locals("user_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}

	req := &dto.GetBillRequest{
		UUID:   billUUID,
		UserID: userID,
	}

	result, err := h.billFlow.GetBill(h.createRequestContext(c, "/api/v1/bills/"+billUUID), req)
	if err != nil {
		if businessflow.IsBillNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Bill not found", "BILL_NOT_FOUND", nil)
		}
		if businessflow.IsBillAccessDenied(err) {
			return h.ErrorResponse(c, fiber.StatusForbidden, "Access denied: bill belongs to another user", "BILL_ACCESS_DENIED", nil)
		}

		log.Println("Get bill failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to retrieve bill", "GET_BILL_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Bill retrieved successfully", result)
}

// ListBills returns the user's bills with filters and pagination
// @Summary List Bills
// @Description Retrieve the authenticated user's bills with pagination and filters
// @Tags Bills
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param page_size query int false "Items per page (max 100)" default(20)
// @Param month query string false "Filter by month (YYYY-MM)"
// @Param type query string false "Filter by type (electricity|petrol|diesel|lpg|gas|water)"
// @Success 200 {object} dto.APIResponse{data=dto.ListBillsResponse}
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/bills [get]
func (h *BillHandler) ListBills(c fiber.Ctx) error {
	// Parse query params
	page := 1
	if v, err := strconv.Atoi(c.Query("page", "1")); err == nil && v > 0 {
		page = v
	}
	pageSize := 20
	if v, err := strconv.Atoi(c.Query("page_size", "20")); err == nil && v > 0 {
		pageSize = v
	}
	if pageSize > 100 {
		pageSize = 100
	}

	userID, ok := c.Locals("user_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}

	req := &dto.ListBillsRequest{
		UserID:   userID,
		Page:     page,
		PageSize: pageSize,
	}
	if month := c.Query("month"); month != "" {
		req.Month = &month
	}
	if billType := c.Query("type"); billType != "" {
		req.Type = &billType
	}

	// Validate request
	if err := h.validator.Struct(req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	result, err := h.billFlow.ListBills(h.createRequestContext(c, "/api/v1/bills"), req)
	if err != nil {
		if businessflow.IsInvalidMonthKey(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Month must be formatted YYYY-MM", "INVALID_MONTH_KEY", nil)
		}
		if businessflow.IsUnknownBillCategory(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Unknown bill category", "UNKNOWN_BILL_CATEGORY", nil)
		}

		log.Println("List bills failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list bills", "LIST_BILLS_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Bills retrieved successfully", fiber.Map{
		"items":     result.Items,
		"total":     result.Total,
		"page":      result.Page,
		"page_size": result.PageSize,
	})
}

// createRequestContext creates a context with request-scoped values for observability and timeout
func (h *BillHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return h.createRequestContextWithTimeout(c, endpoint, 30*time.Second)
}

// createRequestContextWithTimeout creates a context with custom timeout and request-scoped values
func (h *BillHandler) createRequestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)

	// Add request-scoped values for observability
	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.TimeoutKey, timeout)
	ctx = context.WithValue(ctx, utils.CancelFuncKey, cancel) // Store cancel function for cleanup

	return ctx
}
