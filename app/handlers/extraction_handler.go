// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"context"
	"io"
	"log"
	"strconv"
	"time"

	"github.com/ecotrace/ecotrace/app/dto"
	"github.com/ecotrace/ecotrace/app/middleware"
	businessflow "github.com/ecotrace/ecotrace/business_flow"
	"github.com/ecotrace/ecotrace/utils"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// ExtractionHandlerInterface defines the contract for bill extraction handlers
type ExtractionHandlerInterface interface {
	ExtractBill(c fiber.Ctx) error
	UploadBill(c fiber.Ctx) error
}

// ExtractionHandler handles bill document extraction requests
type ExtractionHandler struct {
	extractionFlow businessflow.ExtractionFlow
	validator      *validator.Validate
}

// NewExtractionHandler creates a new extraction handler
func NewExtractionHandler(extractionFlow businessflow.ExtractionFlow) *ExtractionHandler {
	return &ExtractionHandler{
		extractionFlow: extractionFlow,
		validator:      validator.New(),
	}
}

func (h *ExtractionHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *ExtractionHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ExtractBill analyzes an uploaded bill document and returns the extracted fields
// @Summary Extract Bill Fields
// @Description Analyze an uploaded bill image or PDF and return the extracted fields without recording a bill
// @Tags Bills
// @Accept mpfd
// @Produce json
// @Param file formData file true "Bill document (jpg/png/webp/pdf, <=10MB)"
// @Success 200 {object} dto.APIResponse{data=dto.ExtractBillResponse} "Extraction completed"
// @Failure 400 {object} dto.APIResponse "Invalid file or unsupported type"
// @Failure 401 {object} dto.APIResponse "Unauthorized - user not found or inactive"
// @Failure 422 {object} dto.APIResponse "Document could not be read, manual input required"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/bills/extract [post]
func (h *ExtractionHandler) ExtractBill(c fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil || fileHeader == nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "file is required", "INVALID_FILE", nil)
	}
	if fileHeader.Size > utils.MaxUploadBytes {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "File too large", "FILE_TOO_LARGE", nil)
	}

	file, err := fileHeader.Open()
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "invalid file", "INVALID_FILE", err.Error())
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "invalid file", "INVALID_FILE", err.Error())
	}

	userID, ok := c.Locals("user_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}

	req := &dto.ExtractBillRequest{
		UserID:   userID,
		FileName: fileHeader.Filename,
		MimeType: fileHeader.Header.Get("Content-Type"),
		Data:     data,
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	result, err := h.extractionFlow.ExtractBill(h.createRequestContext(c, "/api/v1/bills/extract"), req, metadata)
	if err != nil {
		middleware.RecordExtraction("", "error")
		if businessflow.IsUserNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusUnauthorized, "User not found", "USER_NOT_FOUND", nil)
		}
		if businessflow.IsAccountInactive(err) {
			return h.ErrorResponse(c, fiber.StatusUnauthorized, "User account is inactive", "ACCOUNT_INACTIVE", nil)
		}
		if businessflow.IsUnsupportedFileType(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Unsupported file type", "UNSUPPORTED_FILE_TYPE", nil)
		}
		if businessflow.IsUnreadablePDF(err) {
			return h.ErrorResponse(c, fiber.StatusUnprocessableEntity, "PDF has no extractable text", "UNREADABLE_PDF", nil)
		}
		if businessflow.IsExtractionUnavailable(err) {
			return h.ErrorResponse(c, fiber.StatusServiceUnavailable, "Extraction service unavailable", "EXTRACTION_UNAVAILABLE", nil)
		}

		log.Println("Bill extraction failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Bill extraction failed", "EXTRACTION_FAILED", nil)
	}

	outcome := "ok"
	if result.RequiresManualInput {
		outcome = "manual_input"
	}
	middleware.RecordExtraction(result.Source, outcome)

	return h.SuccessResponse(c, fiber.StatusOK, "Extraction completed", fiber.Map{
		"message":               result.Message,
		"fields":                result.Fields,
		"requires_manual_input": result.RequiresManualInput,
		"source":                result.Source,
	})
}

// UploadBill records a bill from an uploaded document, client-side OCR text,
// or manual fields, whichever the multipart form carries
// @Summary Upload Bill
// @Description Analyze an uploaded bill document or OCR text, record the bill, and recompute the monthly carbon score
// @Tags Bills
// @Accept mpfd
// @Produce json
// @Param file formData file false "Bill document (jpg/png/webp/pdf, <=10MB)"
// @Param type formData string false "Bill type - electricity|petrol|diesel|lpg|gas|water"
// @Param ocr_text formData string false "Client-side OCR text to parse instead of the document"
// @Param units formData number false "Consumed quantity, skips extraction entirely (requires type)"
// @Param amount formData number false "Billed amount"
// @Param date formData string false "Bill date, YYYY-MM-DD"
// @Success 201 {object} dto.APIResponse{data=dto.UploadBillResponse} "Bill recorded from document"
// @Failure 400 {object} dto.APIResponse "Invalid input or unsupported type"
// @Failure 401 {object} dto.APIResponse "Unauthorized - user not found or inactive"
// @Failure 422 {object} dto.APIResponse "Document could not be read, manual input required"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/bills/upload [post]
func (h *ExtractionHandler) UploadBill(c fiber.Ctx) error {
	userID, ok := c.Locals("user_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}

	req := &dto.UploadBillRequest{UserID: userID}

	fileHeader, _ := c.FormFile("file")
	if fileHeader != nil {
		if fileHeader.Size > utils.MaxUploadBytes {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "File too large", "FILE_TOO_LARGE", nil)
		}

		file, err := fileHeader.Open()
		if err != nil {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "invalid file", "INVALID_FILE", err.Error())
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "invalid file", "INVALID_FILE", err.Error())
		}

		req.FileName = fileHeader.Filename
		req.MimeType = fileHeader.Header.Get("Content-Type")
		req.Data = data
	}

	if v := c.FormValue("type"); v != "" {
		req.Type = &v
	}
	if v := c.FormValue("ocr_text"); v != "" {
		req.OCRText = &v
	}
	if v := c.FormValue("date"); v != "" {
		req.Date = &v
	}
	if v := c.FormValue("units"); v != "" {
		units, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "units must be a number", "INVALID_UNITS", nil)
		}
		req.Units = &units
	}
	if v := c.FormValue("amount"); v != "" {
		amount, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "amount must be a number", "INVALID_AMOUNT", nil)
		}
		req.Amount = &amount
	}

	if fileHeader == nil && req.OCRText == nil && req.Units == nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "file, ocr_text, or units is required", "INVALID_INPUT", nil)
	}

	if err := h.validator.Struct(req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", err.Error())
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	result, err := h.extractionFlow.UploadBill(h.createRequestContext(c, "/api/v1/bills/upload"), req, metadata)
	if err != nil {
		middleware.RecordExtraction("", "error")
		if businessflow.IsUserNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusUnauthorized, "User not found", "USER_NOT_FOUND", nil)
		}
		if businessflow.IsAccountInactive(err) {
			return h.ErrorResponse(c, fiber.StatusUnauthorized, "User account is inactive", "ACCOUNT_INACTIVE", nil)
		}
		if businessflow.IsUnsupportedFileType(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Unsupported file type", "UNSUPPORTED_FILE_TYPE", nil)
		}
		if businessflow.IsUnreadablePDF(err) {
			return h.ErrorResponse(c, fiber.StatusUnprocessableEntity, "PDF has no extractable text", "UNREADABLE_PDF", nil)
		}
		if businessflow.IsRequiresManualInput(err) {
			return h.ErrorResponse(c, fiber.StatusUnprocessableEntity, "Document could not be read, enter the bill manually", "REQUIRES_MANUAL_INPUT", nil)
		}
		if businessflow.IsExtractionIncomplete(err) {
			return h.ErrorResponse(c, fiber.StatusUnprocessableEntity, "Document is missing required fields, enter the bill manually", "EXTRACTION_INCOMPLETE", nil)
		}
		if businessflow.IsExtractionUnavailable(err) {
			return h.ErrorResponse(c, fiber.StatusServiceUnavailable, "Extraction service unavailable", "EXTRACTION_UNAVAILABLE", nil)
		}

		log.Println("Bill upload failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Bill upload failed", "UPLOAD_FAILED", nil)
	}

	middleware.RecordExtraction(result.Source, "ok")

	return h.SuccessResponse(c, fiber.StatusCreated, "Bill recorded from document", fiber.Map{
		"message": result.Message,
		"bill":    result.Bill,
		"score":   result.Score,
		"source":  result.Source,
	})
}

// createRequestContext creates a context with request-scoped values for observability and timeout.
// Extraction calls out to the vision service, so the timeout is longer than regular requests.
func (h *ExtractionHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return h.createRequestContextWithTimeout(c, endpoint, 90*time.Second)
}

// createRequestContextWithTimeout creates a context with custom timeout and request-scoped values
func (h *ExtractionHandler) createRequestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)

	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.TimeoutKey, timeout)
	ctx = context.WithValue(ctx, utils.CancelFuncKey, cancel) // Store cancel function for cleanup

	return ctx
}
