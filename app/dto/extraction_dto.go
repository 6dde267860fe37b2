package dto

// ExtractBillRequest represents an uploaded bill document to analyze
type ExtractBillRequest struct {
	UserID   uint   `json:"-"`
	FileName string `json:"-"`
	MimeType string `json:"-"`
	Data     []byte `json:"-"`
}

// ExtractedFieldsDTO holds the fields pulled out of a bill document.
// Units may be estimated from the currency amount when the document only
// shows a total; Estimated flags that case.
type ExtractedFieldsDTO struct {
	Type      string   `json:"type"`
	Amount    *float64 `json:"amount,omitempty"`
	Units     float64  `json:"units"`
	UnitType  string   `json:"unit_type"`
	Date      *string  `json:"date,omitempty"`
	Provider  *string  `json:"provider,omitempty"`
	Estimated bool     `json:"estimated"`
}

// ExtractBillResponse represents the outcome of analyzing a bill document
type ExtractBillResponse struct {
	Message             string              `json:"message"`
	Fields              *ExtractedFieldsDTO `json:"fields,omitempty"`
	RequiresManualInput bool                `json:"requires_manual_input"`
	Source              string              `json:"source"` // "vision", "pdf_text", or "pattern"
}

// UploadBillRequest represents an uploaded document to extract and record in
// one step. The document is optional when the client supplies OCR text or
// manual fields alongside it.
type UploadBillRequest struct {
	UserID   uint   `json:"-"`
	FileName string `json:"-"`
	MimeType string `json:"-"`
	Data     []byte `json:"-"`

	Type    *string  `json:"-" validate:"omitempty,oneof=electricity petrol diesel lpg gas water"`
	OCRText *string  `json:"-"`
	Units   *float64 `json:"-" validate:"omitempty,gt=0"`
	Amount  *float64 `json:"-" validate:"omitempty,gt=0"`
	Date    *string  `json:"-" validate:"omitempty,datetime=2006-01-02"`
}

// UploadBillResponse represents the outcome of extract-and-record
type UploadBillResponse struct {
	Message string       `json:"message"`
	Bill    BillResponse `json:"bill"`
	Score   *ScoreDTO    `json:"score,omitempty"`
	Source  string       `json:"source"` // "vision", "pdf_text", "pattern", or "manual"
}
