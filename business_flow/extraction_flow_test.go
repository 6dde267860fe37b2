package businessflow

import (
	"context"
	"testing"

	"github.com/ecotrace/ecotrace/app/dto"
	"github.com/ecotrace/ecotrace/app/services"
	"github.com/ecotrace/ecotrace/emission"
	"github.com/ecotrace/ecotrace/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestExtractionFlow(vision services.VisionService) *ExtractionFlowImpl {
	return &ExtractionFlowImpl{
		vision: vision,
		prices: emission.DefaultPriceTable(),
	}
}

func TestSanitizeModelJSON(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  string
	}{
		{
			name:  "clean object untouched",
			reply: `{"type": "electricity"}`,
			want:  `{"type": "electricity"}`,
		},
		{
			name:  "json fence stripped",
			reply: "```json\n{\"type\": \"water\"}\n```",
			want:  `{"type": "water"}`,
		},
		{
			name:  "bare fence stripped",
			reply: "```\n{\"type\": \"gas\"}\n```",
			want:  `{"type": "gas"}`,
		},
		{
			name:  "surrounding prose trimmed",
			reply: `Here is the result: {"type": "petrol"} hope that helps`,
			want:  `{"type": "petrol"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sanitizeModelJSON(tt.reply))
		})
	}
}

func TestParseReply_UnitsPresent(t *testing.T) {
	flow := newTestExtractionFlow(nil)

	fields, err := flow.parseReply(`{"type": "electricity", "amount": 820, "units": 100, "date": "2025-03-01", "provider": "State Grid"}`)
	require.NoError(t, err)

	assert.Equal(t, "electricity", fields.Type)
	assert.InDelta(t, 100, fields.Units, 1e-9)
	assert.Equal(t, "kWh", fields.UnitType)
	assert.False(t, fields.Estimated)
	require.NotNil(t, fields.Provider)
	assert.Equal(t, "State Grid", *fields.Provider)
}

func TestParseReply_EstimatesUnitsFromAmount(t *testing.T) {
	flow := newTestExtractionFlow(nil)

	fields, err := flow.parseReply(`{"type": "electricity", "amount": 750}`)
	require.NoError(t, err)

	assert.InDelta(t, 100.0, fields.Units, 1e-9)
	assert.True(t, fields.Estimated)
}

func TestParseReply_NullTypeRequiresManualInput(t *testing.T) {
	flow := newTestExtractionFlow(nil)

	_, err := flow.parseReply(`{"type": null}`)
	assert.ErrorIs(t, err, ErrRequiresManualInput)
}

func TestParseReply_UnknownCategory(t *testing.T) {
	flow := newTestExtractionFlow(nil)

	_, err := flow.parseReply(`{"type": "firewood", "units": 10}`)
	assert.True(t, IsUnknownBillCategory(err))
}

func TestParseReply_NeitherUnitsNorAmount(t *testing.T) {
	flow := newTestExtractionFlow(nil)

	_, err := flow.parseReply(`{"type": "water"}`)
	assert.ErrorIs(t, err, ErrExtractionIncomplete)
}

func TestParseReply_Garbage(t *testing.T) {
	flow := newTestExtractionFlow(nil)

	_, err := flow.parseReply("sorry, I cannot read this document")
	assert.ErrorIs(t, err, ErrExtractionParse)
}

func TestParseReply_NormalizesCategoryCase(t *testing.T) {
	flow := newTestExtractionFlow(nil)

	fields, err := flow.parseReply(`{"type": " Electricity ", "units": 50}`)
	require.NoError(t, err)
	assert.Equal(t, "electricity", fields.Type)
}

func TestExtract_ImageGoesThroughVision(t *testing.T) {
	mock := services.NewMockVisionService(`{"type": "petrol", "units": 30}`, "")
	flow := newTestExtractionFlow(mock)

	fields, source, err := flow.extract(context.Background(), "pump.jpg", "image/jpeg", []byte("fake"))
	require.NoError(t, err)

	assert.Equal(t, ExtractionSourceVision, source)
	assert.Equal(t, "petrol", fields.Type)
	assert.InDelta(t, 30, fields.Units, 1e-9)
}

func TestResolveUploadFields_ManualUnitsWin(t *testing.T) {
	flow := newTestExtractionFlow(nil)

	req := &dto.UploadBillRequest{
		Type:   utils.ToPtr("petrol"),
		Units:  utils.ToPtr(20.0),
		Amount: utils.ToPtr(2100.0),
	}

	fields, source, err := flow.resolveUploadFields(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, ExtractionSourceManual, source)
	assert.Equal(t, emission.CategoryPetrol, fields.Type)
	assert.InDelta(t, 20, fields.Units, 1e-9)
	assert.Equal(t, "L", fields.UnitType)
}

func TestResolveUploadFields_ManualUnitsNeedType(t *testing.T) {
	flow := newTestExtractionFlow(nil)

	_, _, err := flow.resolveUploadFields(context.Background(), &dto.UploadBillRequest{
		Units: utils.ToPtr(20.0),
	})
	assert.ErrorIs(t, err, ErrRequiresManualInput)
}

func TestResolveUploadFields_OCRTextUsesPatternParser(t *testing.T) {
	flow := newTestExtractionFlow(nil)

	req := &dto.UploadBillRequest{
		Type:    utils.ToPtr("electricity"),
		OCRText: utils.ToPtr("Units consumed: 250"),
	}

	fields, source, err := flow.resolveUploadFields(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, ExtractionSourcePattern, source)
	assert.Equal(t, emission.CategoryElectricity, fields.Type)
	assert.InDelta(t, 250, fields.Units, 1e-9)
}

func TestResolveUploadFields_OCRTextInfersCategory(t *testing.T) {
	flow := newTestExtractionFlow(nil)

	req := &dto.UploadBillRequest{
		OCRText: utils.ToPtr("LPG refill\n2 cylinders delivered"),
	}

	fields, source, err := flow.resolveUploadFields(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, ExtractionSourcePattern, source)
	assert.Equal(t, emission.CategoryLPG, fields.Type)
	assert.InDelta(t, 2*emission.KgPerCylinder, fields.Units, 1e-9)
}

func TestResolveUploadFields_FileFallsBackToVision(t *testing.T) {
	mock := services.NewMockVisionService(`{"type": "petrol", "units": 30}`, "")
	flow := newTestExtractionFlow(mock)

	req := &dto.UploadBillRequest{
		FileName: "pump.jpg",
		MimeType: "image/jpeg",
		Data:     []byte("fake"),
	}

	fields, source, err := flow.resolveUploadFields(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, ExtractionSourceVision, source)
	assert.Equal(t, "petrol", fields.Type)
}

func TestResolveUploadFields_NothingToWorkWith(t *testing.T) {
	flow := newTestExtractionFlow(nil)

	_, _, err := flow.resolveUploadFields(context.Background(), &dto.UploadBillRequest{})
	assert.ErrorIs(t, err, ErrRequiresManualInput)
}

func TestExtract_VisionDownForImage(t *testing.T) {
	mock := services.NewMockVisionService("", "")
	mock.Err = assert.AnError
	flow := newTestExtractionFlow(mock)

	_, _, err := flow.extract(context.Background(), "pump.jpg", "image/jpeg", []byte("fake"))
	assert.ErrorIs(t, err, ErrExtractionUnavailable)
}

func TestExtract_UnsupportedFileType(t *testing.T) {
	flow := newTestExtractionFlow(nil)

	_, _, err := flow.extract(context.Background(), "bill.docx", "application/msword", []byte("fake"))
	assert.ErrorIs(t, err, ErrUnsupportedFileType)
}

func TestParseBillText_ElectricityUnits(t *testing.T) {
	text := "STATE ELECTRICITY BOARD\nUnits consumed: 250 kWh\nTotal: 2050\nDue date 2025-03-20"

	fields, err := parseBillText(text, emission.DefaultPriceTable())
	require.NoError(t, err)

	assert.Equal(t, emission.CategoryElectricity, fields.Type)
	assert.InDelta(t, 250, fields.Units, 1e-9)
	assert.False(t, fields.Estimated)
	require.NotNil(t, fields.Amount)
	assert.InDelta(t, 2050, *fields.Amount, 1e-9)
	require.NotNil(t, fields.Date)
	assert.Equal(t, "2025-03-20", *fields.Date)
}

func TestParseBillText_EstimatesFromAmount(t *testing.T) {
	text := "Electricity bill\nAmount payable: 750"

	fields, err := parseBillText(text, emission.DefaultPriceTable())
	require.NoError(t, err)

	assert.InDelta(t, 100.0, fields.Units, 1e-9)
	assert.True(t, fields.Estimated)
}

func TestParseBillText_NoCategoryKeyword(t *testing.T) {
	_, err := parseBillText("lorem ipsum dolor sit amet", emission.DefaultPriceTable())
	assert.ErrorIs(t, err, ErrRequiresManualInput)
}

func TestParseBillText_CategoryWithoutNumbers(t *testing.T) {
	_, err := parseBillText("water bill for march", emission.DefaultPriceTable())
	assert.ErrorIs(t, err, ErrRequiresManualInput)
}

func TestParseBillText_LPGCylinder(t *testing.T) {
	text := "LPG refill cylinder 14.2 kg Total: 900"

	fields, err := parseBillText(text, emission.DefaultPriceTable())
	require.NoError(t, err)

	assert.Equal(t, emission.CategoryLPG, fields.Type)
	assert.InDelta(t, 14.2, fields.Units, 1e-9)
}

func TestParseBillText_CylinderCountConvertsToKg(t *testing.T) {
	text := "LPG refill\n2 cylinders delivered"

	fields, err := parseBillText(text, emission.DefaultPriceTable())
	require.NoError(t, err)

	assert.Equal(t, emission.CategoryLPG, fields.Type)
	assert.InDelta(t, 2*emission.KgPerCylinder, fields.Units, 1e-9)
	assert.False(t, fields.Estimated)
}

func TestParseBillText_LabelFirstUnits(t *testing.T) {
	text := "Electricity bill\nUnits consumed: 250"

	fields, err := parseBillText(text, emission.DefaultPriceTable())
	require.NoError(t, err)

	assert.Equal(t, emission.CategoryElectricity, fields.Type)
	assert.InDelta(t, 250, fields.Units, 1e-9)
	assert.False(t, fields.Estimated)
}

func TestParseBillText_QtyLabel(t *testing.T) {
	text := "Diesel fill-up\nQty: 35"

	fields, err := parseBillText(text, emission.DefaultPriceTable())
	require.NoError(t, err)

	assert.Equal(t, emission.CategoryDiesel, fields.Type)
	assert.InDelta(t, 35, fields.Units, 1e-9)
}

func TestParseBillText_CommaGroupedAmount(t *testing.T) {
	text := "Water bill\nTotal: Rs 1,800.50"

	fields, err := parseBillText(text, emission.DefaultPriceTable())
	require.NoError(t, err)

	require.NotNil(t, fields.Amount)
	assert.InDelta(t, 1800.50, *fields.Amount, 1e-9)
	assert.True(t, fields.Estimated)
	assert.InDelta(t, 36.0, fields.Units, 1e-9)
}

func TestParseBillText_PinnedCategorySkipsDetection(t *testing.T) {
	// No category keyword anywhere; the caller supplies the type
	fields, err := parseBillFields("Units consumed: 180", emission.CategoryElectricity, emission.DefaultPriceTable())
	require.NoError(t, err)

	assert.Equal(t, emission.CategoryElectricity, fields.Type)
	assert.InDelta(t, 180, fields.Units, 1e-9)
}
