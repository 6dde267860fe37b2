// Package businessflow contains the core business logic and use cases for bill extraction workflows
package businessflow

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ecotrace/ecotrace/app/dto"
	"github.com/ecotrace/ecotrace/app/services"
	"github.com/ecotrace/ecotrace/emission"
	"github.com/ecotrace/ecotrace/models"
	"github.com/ecotrace/ecotrace/repository"
	"github.com/ecotrace/ecotrace/utils"
	"gorm.io/gorm"
)

// extractionPrompt instructs the vision model to return strict JSON. The
// reply is still sanitized and re-validated before anything trusts it.
const extractionPrompt = `You are a utility bill analyzer. Extract the following fields from this bill and reply with ONLY a JSON object, no prose, no markdown fences:
{
  "type": one of "electricity", "petrol", "diesel", "lpg", "gas", "water",
  "amount": the total billed amount as a number, or null if not shown,
  "units": the consumed quantity as a number (kWh for electricity, liters for petrol/diesel, kg for lpg/gas, kiloliters for water), or null if not shown,
  "date": the bill date as "YYYY-MM-DD", or null if not shown,
  "provider": the issuing company name, or null if not shown
}
If the document is not a utility bill, reply with {"type": null}.`

// Extraction result sources
const (
	ExtractionSourceVision  = "vision"
	ExtractionSourcePDFText = "pdf_text"
	ExtractionSourcePattern = "pattern"
	ExtractionSourceManual  = "manual"
)

// ExtractionFlow handles bill document analysis
type ExtractionFlow interface {
	ExtractBill(ctx context.Context, req *dto.ExtractBillRequest, metadata *ClientMetadata) (*dto.ExtractBillResponse, error)
	UploadBill(ctx context.Context, req *dto.UploadBillRequest, metadata *ClientMetadata) (*dto.UploadBillResponse, error)
}

// ExtractionFlowImpl implements the extraction business flow
type ExtractionFlowImpl struct {
	vision    services.VisionService
	pdfText   services.PDFTextService
	billFlow  BillFlow
	auditRepo repository.AuditLogRepository
	prices    emission.PriceTable
	db        *gorm.DB
}

// NewExtractionFlow creates a new extraction flow instance
func NewExtractionFlow(
	vision services.VisionService,
	pdfText services.PDFTextService,
	billFlow BillFlow,
	auditRepo repository.AuditLogRepository,
	db *gorm.DB,
) ExtractionFlow {
	return &ExtractionFlowImpl{
		vision:    vision,
		pdfText:   pdfText,
		billFlow:  billFlow,
		auditRepo: auditRepo,
		prices:    emission.DefaultPriceTable(),
		db:        db,
	}
}

// extractionReply is the JSON shape the vision model is asked to produce
type extractionReply struct {
	Type     *string  `json:"type"`
	Amount   *float64 `json:"amount"`
	Units    *float64 `json:"units"`
	Date     *string  `json:"date"`
	Provider *string  `json:"provider"`
}

// ExtractBill analyzes an uploaded document and returns the extracted fields
// without recording a bill
func (s *ExtractionFlowImpl) ExtractBill(ctx context.Context, req *dto.ExtractBillRequest, metadata *ClientMetadata) (*dto.ExtractBillResponse, error) {
	fields, source, err := s.extract(ctx, req.FileName, req.MimeType, req.Data)
	if err != nil {
		if IsRequiresManualInput(err) || IsUnreadablePDF(err) {
			msg := fmt.Sprintf("Extraction requires manual input: %s", req.FileName)
			_ = createAuditLog(ctx, s.auditRepo, &req.UserID, models.AuditActionBillExtracted, msg, false, nil, metadata)

			return &dto.ExtractBillResponse{
				Message:             "Could not extract bill fields, manual input required",
				RequiresManualInput: true,
				Source:              source,
			}, nil
		}
		errMsg := fmt.Sprintf("Extraction failed: %s", err.Error())
		_ = createAuditLog(ctx, s.auditRepo, &req.UserID, models.AuditActionBillExtracted, errMsg, false, &errMsg, metadata)

		return nil, NewBusinessError("EXTRACTION_FAILED", "Bill extraction failed", err)
	}

	msg := fmt.Sprintf("Bill extracted from %s via %s", req.FileName, source)
	_ = createAuditLog(ctx, s.auditRepo, &req.UserID, models.AuditActionBillExtracted, msg, true, nil, metadata)

	return &dto.ExtractBillResponse{
		Message: "Bill fields extracted successfully",
		Fields:  fields,
		Source:  source,
	}, nil
}

// UploadBill analyzes a document and records the resulting bill in one step
func (s *ExtractionFlowImpl) UploadBill(ctx context.Context, req *dto.UploadBillRequest, metadata *ClientMetadata) (*dto.UploadBillResponse, error) {
	fields, source, err := s.resolveUploadFields(ctx, req)
	if err != nil {
		errMsg := fmt.Sprintf("Upload extraction failed: %s", err.Error())
		_ = createAuditLog(ctx, s.auditRepo, &req.UserID, models.AuditActionBillUploaded, errMsg, false, &errMsg, metadata)

		if IsRequiresManualInput(err) || IsUnreadablePDF(err) {
			return nil, NewBusinessError("EXTRACTION_MANUAL_INPUT", "Could not extract bill fields, manual input required", ErrRequiresManualInput)
		}
		return nil, NewBusinessError("EXTRACTION_FAILED", "Bill extraction failed", err)
	}

	date := req.Date
	if date == nil {
		date = fields.Date
	}
	if date == nil {
		today := utils.UTCNow().Format("2006-01-02")
		date = &today
	}

	createReq := &dto.CreateBillRequest{
		UserID:        req.UserID,
		Type:          fields.Type,
		Amount:        fields.Amount,
		Units:         &fields.Units,
		Date:          *date,
		EntryMethod:   models.EntryMethodScanner,
		Provider:      fields.Provider,
		ExtractedData: rawExtraction(fields, source),
	}

	created, err := s.billFlow.CreateBill(ctx, createReq, metadata)
	if err != nil {
		return nil, err
	}

	msg := fmt.Sprintf("Bill uploaded and recorded via %s", source)
	_ = createAuditLog(ctx, s.auditRepo, &req.UserID, models.AuditActionBillUploaded, msg, true, nil, metadata)

	return &dto.UploadBillResponse{
		Message: created.Message,
		Bill:    created.Bill,
		Score:   created.Score,
		Source:  source,
	}, nil
}

// resolveUploadFields picks the extraction path for an upload: manual units
// win, then client-supplied OCR text through the pattern parser, then the
// document itself through the vision pipeline.
func (s *ExtractionFlowImpl) resolveUploadFields(ctx context.Context, req *dto.UploadBillRequest) (*dto.ExtractedFieldsDTO, string, error) {
	category := ""
	if req.Type != nil {
		category = strings.ToLower(strings.TrimSpace(*req.Type))
	}

	if req.Units != nil && *req.Units > 0 {
		if category == "" {
			return nil, ExtractionSourceManual, ErrRequiresManualInput
		}
		return &dto.ExtractedFieldsDTO{
			Type:     category,
			Units:    *req.Units,
			Amount:   req.Amount,
			UnitType: emission.CanonicalUnit(emission.DefaultFactorTable(), category),
		}, ExtractionSourceManual, nil
	}

	if req.OCRText != nil && strings.TrimSpace(*req.OCRText) != "" {
		fields, err := parseBillFields(*req.OCRText, category, s.prices)
		if err != nil {
			return nil, ExtractionSourcePattern, err
		}
		if fields.Amount == nil {
			fields.Amount = req.Amount
		}
		return fields, ExtractionSourcePattern, nil
	}

	if len(req.Data) > 0 {
		return s.extract(ctx, req.FileName, req.MimeType, req.Data)
	}

	return nil, "", ErrRequiresManualInput
}

// extract routes the document to the right analyzer: images go to the vision
// model, PDFs go through text extraction first. When the vision service is
// down, the pattern fallback gets a chance before giving up.
func (s *ExtractionFlowImpl) extract(ctx context.Context, fileName, mimeType string, data []byte) (*dto.ExtractedFieldsDTO, string, error) {
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		reply, err := s.vision.AnalyzeImage(ctx, extractionPrompt, data, mimeType)
		if err != nil {
			return nil, ExtractionSourceVision, fmt.Errorf("%w: %v", ErrExtractionUnavailable, err)
		}
		fields, err := s.parseReply(reply)
		if err != nil {
			return nil, ExtractionSourceVision, err
		}
		return fields, ExtractionSourceVision, nil

	case mimeType == "application/pdf" || strings.HasSuffix(strings.ToLower(fileName), ".pdf"):
		text, err := s.pdfText.ExtractText(data)
		if err != nil {
			return nil, ExtractionSourcePDFText, ErrUnreadablePDF
		}

		reply, err := s.vision.AnalyzeText(ctx, extractionPrompt, text)
		if err != nil {
			// Vision down: regex over the raw text still covers common bills
			fields, perr := parseBillText(text, s.prices)
			if perr != nil {
				return nil, ExtractionSourcePattern, perr
			}
			return fields, ExtractionSourcePattern, nil
		}

		fields, err := s.parseReply(reply)
		if err != nil {
			fields, perr := parseBillText(text, s.prices)
			if perr != nil {
				return nil, ExtractionSourcePattern, err
			}
			return fields, ExtractionSourcePattern, nil
		}
		return fields, ExtractionSourcePDFText, nil

	default:
		return nil, "", ErrUnsupportedFileType
	}
}

// parseReply sanitizes and validates the model reply
func (s *ExtractionFlowImpl) parseReply(reply string) (*dto.ExtractedFieldsDTO, error) {
	cleaned := sanitizeModelJSON(reply)

	var out extractionReply
	if err := json.Unmarshal([]byte(cleaned), &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtractionParse, err)
	}

	if out.Type == nil || *out.Type == "" {
		return nil, ErrRequiresManualInput
	}
	category := strings.ToLower(strings.TrimSpace(*out.Type))
	if !isKnownCategory(category) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBillCategory, category)
	}

	fields := &dto.ExtractedFieldsDTO{
		Type:     category,
		Amount:   out.Amount,
		Provider: out.Provider,
		Date:     out.Date,
	}

	switch {
	case out.Units != nil && *out.Units > 0:
		fields.Units = *out.Units
	case out.Amount != nil && *out.Amount > 0:
		fields.Units = s.prices.EstimateUnits(category, *out.Amount)
		fields.Estimated = true
	default:
		return nil, ErrExtractionIncomplete
	}

	fields.UnitType = emission.CanonicalUnit(emission.DefaultFactorTable(), category)
	return fields, nil
}

// sanitizeModelJSON strips markdown fences and surrounding prose so the reply
// parses even when the model ignores the "no fences" instruction
func sanitizeModelJSON(reply string) string {
	cleaned := strings.TrimSpace(reply)

	if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```json")
		cleaned = strings.TrimPrefix(cleaned, "```")
		if idx := strings.LastIndex(cleaned, "```"); idx >= 0 {
			cleaned = cleaned[:idx]
		}
		cleaned = strings.TrimSpace(cleaned)
	}

	// Keep only the outermost JSON object
	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start >= 0 && end > start {
		cleaned = cleaned[start : end+1]
	}

	return cleaned
}

// rawExtraction serializes the extraction result for the bill's audit column,
// truncated so a pathological model reply cannot bloat the row
func rawExtraction(fields *dto.ExtractedFieldsDTO, source string) json.RawMessage {
	payload := map[string]any{
		"source": source,
		"fields": fields,
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil
	}
	if len(raw) > 1000 {
		return nil
	}
	return raw
}

func isKnownCategory(category string) bool {
	switch category {
	case emission.CategoryElectricity, emission.CategoryPetrol, emission.CategoryDiesel,
		emission.CategoryLPG, emission.CategoryGas, emission.CategoryWater:
		return true
	}
	return false
}
