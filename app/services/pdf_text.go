package services

import (
	"bytes"
	"errors"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrPDFNoText indicates the PDF contained no extractable text layer
var ErrPDFNoText = errors.New("pdf contains no extractable text")

// PDFTextService extracts the text layer from a PDF document
type PDFTextService interface {
	ExtractText(data []byte) (string, error)
}

// PDFTextServiceImpl implements PDFTextService using a pure-Go PDF reader
type PDFTextServiceImpl struct{}

// NewPDFTextService creates a new PDF text extraction service
func NewPDFTextService() PDFTextService {
	return &PDFTextServiceImpl{}
}

// ExtractText reads every page of the document and concatenates its plain text
func (s *PDFTextServiceImpl) ExtractText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// Scanned pages without a text layer are skipped, not fatal
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}

	out := strings.TrimSpace(sb.String())
	if out == "" {
		return "", ErrPDFNoText
	}
	return out, nil
}
