package dto

// ExportReportRequest represents the request to export a monthly report workbook
type ExportReportRequest struct {
	UserID uint   `json:"-"`
	Month  string `json:"-"`
}

// ExportReportResponse carries the generated XLSX workbook
type ExportReportResponse struct {
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"-"`
}
