// Package businessflow contains the core business logic and use cases for report workflows
package businessflow

import (
	"context"
	"fmt"

	"github.com/ecotrace/ecotrace/app/dto"
	"github.com/ecotrace/ecotrace/models"
	"github.com/ecotrace/ecotrace/repository"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// ReportFlow exports monthly carbon reports as XLSX workbooks
type ReportFlow interface {
	ExportMonthlyReport(ctx context.Context, req *dto.ExportReportRequest, metadata *ClientMetadata) (*dto.ExportReportResponse, error)
}

// ReportFlowImpl implements the report business flow
type ReportFlowImpl struct {
	billRepo  repository.BillRepository
	scoreRepo repository.CarbonScoreRepository
	userRepo  repository.UserRepository
	auditRepo repository.AuditLogRepository
	db        *gorm.DB
}

// NewReportFlow creates a new report flow instance
func NewReportFlow(
	billRepo repository.BillRepository,
	scoreRepo repository.CarbonScoreRepository,
	userRepo repository.UserRepository,
	auditRepo repository.AuditLogRepository,
	db *gorm.DB,
) ReportFlow {
	return &ReportFlowImpl{
		billRepo:  billRepo,
		scoreRepo: scoreRepo,
		userRepo:  userRepo,
		auditRepo: auditRepo,
		db:        db,
	}
}

// ExportMonthlyReport builds a two-sheet workbook: a summary of the month's
// score and breakdown, plus the full bill list
func (s *ReportFlowImpl) ExportMonthlyReport(ctx context.Context, req *dto.ExportReportRequest, metadata *ClientMetadata) (*dto.ExportReportResponse, error) {
	if !monthKeyPattern.MatchString(req.Month) {
		return nil, NewBusinessError("INVALID_MONTH_KEY", "Month key must be formatted YYYY-MM", ErrInvalidMonthKey)
	}

	user, err := getUser(ctx, s.userRepo, req.UserID)
	if err != nil {
		return nil, NewBusinessError("USER_LOOKUP_FAILED", "Failed to lookup user", err)
	}

	score, err := s.scoreRepo.ByUserAndMonth(ctx, user.ID, req.Month)
	if err != nil {
		return nil, NewBusinessError("SCORE_LOOKUP_FAILED", "Failed to lookup carbon score", err)
	}
	if score == nil {
		return nil, NewBusinessError("SCORE_NOT_FOUND", "Carbon score not found", ErrScoreNotFound)
	}

	bills, err := s.billRepo.ListByUserAndMonth(ctx, user.ID, req.Month)
	if err != nil {
		return nil, NewBusinessError("BILL_LIST_FAILED", "Failed to list bills", err)
	}

	xl := excelize.NewFile()
	defer func() { _ = xl.Close() }()

	summarySheet := "Summary"
	xl.SetSheetName(xl.GetSheetName(0), summarySheet)

	summaryRows := [][]any{
		{"Month", score.Month},
		{"Total emission (kg CO2)", score.TotalEmission},
		{"Score", score.Score},
		{"Grade", score.Grade},
		{"National average (kg CO2)", score.NationalAverage},
		{},
		{"Electricity (kg CO2)", score.ElectricityEmission},
		{"Transport (kg CO2)", score.TransportEmission},
		{"Gas (kg CO2)", score.GasEmission},
		{"Water (kg CO2)", score.WaterEmission},
		{"Other (kg CO2)", score.OtherEmission},
	}
	if score.PreviousMonthChange != nil {
		summaryRows = append(summaryRows, []any{}, []any{"Change vs previous month (%)", *score.PreviousMonthChange})
	}
	for i, row := range summaryRows {
		cellRef, _ := excelize.CoordinatesToCellName(1, i+1)
		_ = xl.SetSheetRow(summarySheet, cellRef, &row)
	}

	billsSheet := "Bills"
	_, _ = xl.NewSheet(billsSheet)

	header := []string{"uuid", "type", "date", "units", "unit_type", "amount", "emission_kg", "entry_method", "provider"}
	_ = xl.SetSheetRow(billsSheet, "A1", &header)

	for ri, b := range bills {
		provider := ""
		if b.Provider != nil {
			provider = *b.Provider
		}
		record := []any{
			b.UUID.String(),
			b.Type,
			b.Date.Format("2006-01-02"),
			b.Units,
			b.UnitType,
			b.Amount,
			b.EmissionKg,
			b.EntryMethod,
			provider,
		}
		cellRef, _ := excelize.CoordinatesToCellName(1, ri+2)
		_ = xl.SetSheetRow(billsSheet, cellRef, &record)
	}

	buf, err := xl.WriteToBuffer()
	if err != nil {
		return nil, NewBusinessError("EXCEL_WRITE_ERROR", "Failed to write Excel file", err)
	}

	msg := fmt.Sprintf("Monthly report exported: %s", req.Month)
	_ = createAuditLog(ctx, s.auditRepo, &user.ID, models.AuditActionReportExported, msg, true, nil, metadata)

	return &dto.ExportReportResponse{
		FileName:    fmt.Sprintf("carbon_report_%s.xlsx", req.Month),
		ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		Data:        buf.Bytes(),
	}, nil
}
