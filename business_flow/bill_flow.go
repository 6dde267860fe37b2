// Package businessflow contains the core business logic and use cases for bill workflows
package businessflow

import (
	"context"
	"fmt"

	"github.com/ecotrace/ecotrace/app/dto"
	"github.com/ecotrace/ecotrace/config"
	"github.com/ecotrace/ecotrace/emission"
	"github.com/ecotrace/ecotrace/models"
	"github.com/ecotrace/ecotrace/repository"
	"github.com/ecotrace/ecotrace/utils"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// BillFlow handles the bill business logic
type BillFlow interface {
	CreateBill(ctx context.Context, req *dto.CreateBillRequest, metadata *ClientMetadata) (*dto.CreateBillResponse, error)
	UpdateBill(ctx context.Context, req *dto.UpdateBillRequest, metadata *ClientMetadata) (*dto.CreateBillResponse, error)
	DeleteBill(ctx context.Context, req *dto.DeleteBillRequest, metadata *ClientMetadata) error
	GetBill(ctx context.Context, req *dto.GetBillRequest) (*dto.BillResponse, error)
	ListBills(ctx context.Context, req *dto.ListBillsRequest) (*dto.ListBillsResponse, error)
}

// BillFlowImpl implements the bill business flow
type BillFlowImpl struct {
	billRepo       repository.BillRepository
	userRepo       repository.UserRepository
	scoreRepo      repository.CarbonScoreRepository
	auditRepo      repository.AuditLogRepository
	factors        emission.FactorTable
	prices         emission.PriceTable
	emissionConfig config.EmissionConfig
	rc             *redis.Client
	db             *gorm.DB
}

// NewBillFlow creates a new bill flow instance
func NewBillFlow(
	billRepo repository.BillRepository,
	userRepo repository.UserRepository,
	scoreRepo repository.CarbonScoreRepository,
	auditRepo repository.AuditLogRepository,
	emissionConfig config.EmissionConfig,
	db *gorm.DB,
	rc *redis.Client,
) BillFlow {
	return &BillFlowImpl{
		billRepo:       billRepo,
		userRepo:       userRepo,
		scoreRepo:      scoreRepo,
		auditRepo:      auditRepo,
		factors:        emission.DefaultFactorTable(),
		prices:         emission.DefaultPriceTable(),
		emissionConfig: emissionConfig,
		rc:             rc,
		db:             db,
	}
}

// CreateBill records a new bill, derives its emission, and recomputes the
// monthly score in the same transaction
func (s *BillFlowImpl) CreateBill(ctx context.Context, req *dto.CreateBillRequest, metadata *ClientMetadata) (*dto.CreateBillResponse, error) {
	user, err := getUser(ctx, s.userRepo, req.UserID)
	if err != nil {
		return nil, NewBusinessError("USER_LOOKUP_FAILED", "Failed to lookup user", err)
	}

	date, err := parseBillDate(req.Date)
	if err != nil {
		return nil, NewBusinessError("BILL_DATE_INVALID", "Bill date is invalid", ErrBillDateInvalid)
	}

	units, amount, estimated, err := s.resolveQuantity(req.Type, req.Units, req.Amount)
	if err != nil {
		return nil, NewBusinessError("BILL_QUANTITY_INVALID", "Bill quantity could not be resolved", err)
	}

	region := s.region(user)
	emissionKg, err := emission.Calculate(s.factors, req.Type, units, region)
	if err != nil {
		return nil, NewBusinessError("UNKNOWN_BILL_CATEGORY", "Unknown bill category", ErrUnknownBillCategory)
	}

	entryMethod := req.EntryMethod
	if entryMethod == "" {
		entryMethod = models.EntryMethodManual
	}

	bill := &models.Bill{
		UserID:        user.ID,
		Type:          req.Type,
		Amount:        amount,
		Units:         units,
		UnitType:      emission.CanonicalUnit(s.factors, req.Type),
		EmissionKg:    emissionKg,
		Date:          date,
		Month:         emission.MonthKey(date),
		EntryMethod:   entryMethod,
		Provider:      req.Provider,
		Notes:         req.Notes,
		ExtractedData: req.ExtractedData,
	}

	var score *models.CarbonScore
	err = repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		if err := s.billRepo.Save(txCtx, bill); err != nil {
			return err
		}
		score, err = recomputeMonthlyScore(txCtx, s.billRepo, s.scoreRepo, user.ID, bill.Month)
		return err
	})
	if err != nil {
		errMsg := fmt.Sprintf("Bill creation failed: %s", err.Error())
		_ = createAuditLog(ctx, s.auditRepo, &user.ID, models.AuditActionBillCreated, errMsg, false, &errMsg, metadata)

		return nil, NewBusinessError("BILL_CREATION_FAILED", "Bill creation failed", err)
	}

	s.invalidateScoreCache(ctx, user.ID, bill.Month)

	msg := fmt.Sprintf("Bill created: %s (%s, %.2f kg)", bill.UUID.String(), bill.Type, bill.EmissionKg)
	_ = createAuditLog(ctx, s.auditRepo, &user.ID, models.AuditActionBillCreated, msg, true, nil, metadata)

	resp := &dto.CreateBillResponse{
		Message: "Bill recorded successfully",
		Bill:    ToBillDTO(*bill),
	}
	if estimated {
		resp.Message = "Bill recorded successfully (units estimated from amount)"
	}
	if score != nil {
		scoreDTO := ToScoreDTO(*score)
		resp.Score = &scoreDTO
	}
	return resp, nil
}

// UpdateBill updates a bill in place and recomputes the scores of every
// affected month. Moving a bill across months touches both of them.
func (s *BillFlowImpl) UpdateBill(ctx context.Context, req *dto.UpdateBillRequest, metadata *ClientMetadata) (*dto.CreateBillResponse, error) {
	user, err := getUser(ctx, s.userRepo, req.UserID)
	if err != nil {
		return nil, NewBusinessError("USER_LOOKUP_FAILED", "Failed to lookup user", err)
	}

	bill, err := getBill(ctx, s.billRepo, req.UUID, req.UserID)
	if err != nil {
		return nil, NewBusinessError("BILL_LOOKUP_FAILED", "Failed to lookup bill", err)
	}

	oldMonth := bill.Month

	if req.Type != nil {
		bill.Type = *req.Type
	}
	if req.Date != nil {
		date, err := parseBillDate(*req.Date)
		if err != nil {
			return nil, NewBusinessError("BILL_DATE_INVALID", "Bill date is invalid", ErrBillDateInvalid)
		}
		bill.Date = date
		bill.Month = emission.MonthKey(date)
	}
	if req.Provider != nil {
		bill.Provider = req.Provider
	}
	if req.Notes != nil {
		bill.Notes = req.Notes
	}

	units := &bill.Units
	if req.Units != nil {
		units = req.Units
	}
	amount := &bill.Amount
	if req.Amount != nil {
		amount = req.Amount
		if req.Units == nil {
			// Amount changed without units: re-estimate
			units = nil
		}
	}

	resolvedUnits, resolvedAmount, estimated, err := s.resolveQuantity(bill.Type, units, amount)
	if err != nil {
		return nil, NewBusinessError("BILL_QUANTITY_INVALID", "Bill quantity could not be resolved", err)
	}
	bill.Units = resolvedUnits
	bill.Amount = resolvedAmount
	bill.UnitType = emission.CanonicalUnit(s.factors, bill.Type)

	region := s.region(user)
	emissionKg, err := emission.Calculate(s.factors, bill.Type, bill.Units, region)
	if err != nil {
		return nil, NewBusinessError("UNKNOWN_BILL_CATEGORY", "Unknown bill category", ErrUnknownBillCategory)
	}
	bill.EmissionKg = emissionKg
	bill.UpdatedAt = utils.UTCNow()

	var score *models.CarbonScore
	err = repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		if err := s.billRepo.Update(txCtx, bill); err != nil {
			return err
		}
		score, err = recomputeMonthlyScore(txCtx, s.billRepo, s.scoreRepo, user.ID, bill.Month)
		if err != nil {
			return err
		}
		if oldMonth != bill.Month {
			_, err = recomputeMonthlyScore(txCtx, s.billRepo, s.scoreRepo, user.ID, oldMonth)
		}
		return err
	})
	if err != nil {
		errMsg := fmt.Sprintf("Bill update failed: %s", err.Error())
		_ = createAuditLog(ctx, s.auditRepo, &user.ID, models.AuditActionBillUpdated, errMsg, false, &errMsg, metadata)

		return nil, NewBusinessError("BILL_UPDATE_FAILED", "Bill update failed", err)
	}

	s.invalidateScoreCache(ctx, user.ID, bill.Month)
	if oldMonth != bill.Month {
		s.invalidateScoreCache(ctx, user.ID, oldMonth)
	}

	msg := fmt.Sprintf("Bill updated: %s", bill.UUID.String())
	_ = createAuditLog(ctx, s.auditRepo, &user.ID, models.AuditActionBillUpdated, msg, true, nil, metadata)

	resp := &dto.CreateBillResponse{
		Message: "Bill updated successfully",
		Bill:    ToBillDTO(*bill),
	}
	if estimated {
		resp.Message = "Bill updated successfully (units estimated from amount)"
	}
	if score != nil {
		scoreDTO := ToScoreDTO(*score)
		resp.Score = &scoreDTO
	}
	return resp, nil
}

// DeleteBill removes a bill and recomputes the affected month's score
func (s *BillFlowImpl) DeleteBill(ctx context.Context, req *dto.DeleteBillRequest, metadata *ClientMetadata) error {
	user, err := getUser(ctx, s.userRepo, req.UserID)
	if err != nil {
		return NewBusinessError("USER_LOOKUP_FAILED", "Failed to lookup user", err)
	}

	bill, err := getBill(ctx, s.billRepo, req.UUID, req.UserID)
	if err != nil {
		return NewBusinessError("BILL_LOOKUP_FAILED", "Failed to lookup bill", err)
	}

	month := bill.Month
	err = repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		if err := s.billRepo.Delete(txCtx, bill.ID); err != nil {
			return err
		}
		_, err := recomputeMonthlyScore(txCtx, s.billRepo, s.scoreRepo, user.ID, month)
		return err
	})
	if err != nil {
		errMsg := fmt.Sprintf("Bill deletion failed: %s", err.Error())
		_ = createAuditLog(ctx, s.auditRepo, &user.ID, models.AuditActionBillDeleted, errMsg, false, &errMsg, metadata)

		return NewBusinessError("BILL_DELETION_FAILED", "Bill deletion failed", err)
	}

	s.invalidateScoreCache(ctx, user.ID, month)

	msg := fmt.Sprintf("Bill deleted: %s", bill.UUID.String())
	_ = createAuditLog(ctx, s.auditRepo, &user.ID, models.AuditActionBillDeleted, msg, true, nil, metadata)

	return nil
}

// GetBill returns one bill owned by the requesting user
func (s *BillFlowImpl) GetBill(ctx context.Context, req *dto.GetBillRequest) (*dto.BillResponse, error) {
	bill, err := getBill(ctx, s.billRepo, req.UUID, req.UserID)
	if err != nil {
		return nil, NewBusinessError("BILL_LOOKUP_FAILED", "Failed to lookup bill", err)
	}
	resp := ToBillDTO(*bill)
	return &resp, nil
}

// ListBills returns a paginated, filtered list of the user's bills
func (s *BillFlowImpl) ListBills(ctx context.Context, req *dto.ListBillsRequest) (*dto.ListBillsResponse, error) {
	page := req.Page
	if page < 1 {
		page = 1
	}
	pageSize := req.PageSize
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		return nil, NewBusinessError("INVALID_PAGE_SIZE", "Page size must be between 1 and 100", ErrInvalidPageSize)
	}

	filter := models.BillFilter{
		UserID: &req.UserID,
		Month:  req.Month,
		Type:   req.Type,
	}

	bills, err := s.billRepo.ByFilter(ctx, filter, "date DESC, id DESC", pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, NewBusinessError("BILL_LIST_FAILED", "Failed to list bills", err)
	}

	total, err := s.billRepo.Count(ctx, filter)
	if err != nil {
		return nil, NewBusinessError("BILL_COUNT_FAILED", "Failed to count bills", err)
	}

	items := make([]dto.BillResponse, 0, len(bills))
	for _, b := range bills {
		items = append(items, ToBillDTO(*b))
	}

	return &dto.ListBillsResponse{
		Items:    items,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

// resolveQuantity turns the (units, amount) pair of a request into concrete
// units and amount. When only the currency amount is known, units are
// estimated from the category's average price per unit.
func (s *BillFlowImpl) resolveQuantity(category string, units, amount *float64) (float64, float64, bool, error) {
	switch {
	case units != nil && *units > 0:
		a := 0.0
		if amount != nil {
			a = *amount
		}
		return *units, a, false, nil
	case amount != nil && *amount > 0:
		estimated := s.prices.EstimateUnits(category, *amount)
		return estimated, *amount, true, nil
	default:
		return 0, 0, false, ErrBillAmountRequired
	}
}

// region picks the user's configured region, falling back to the deployment default
func (s *BillFlowImpl) region(user *models.User) string {
	if user.Region != "" {
		return user.Region
	}
	if s.emissionConfig.DefaultRegion != "" {
		return s.emissionConfig.DefaultRegion
	}
	return emission.DefaultRegion
}

func (s *BillFlowImpl) invalidateScoreCache(ctx context.Context, userID uint, month string) {
	if s.rc == nil {
		return
	}
	key := fmt.Sprintf("%s%d:%s", utils.ScoreCachePrefix, userID, month)
	_ = s.rc.Del(ctx, key).Err()
	recKey := fmt.Sprintf("%s%d:%s", utils.RecommendationCachePrefix, userID, month)
	_ = s.rc.Del(ctx, recKey).Err()
}

// recomputeMonthlyScore re-derives the score row for one user-month from all
// of its bills. Zero bills still upsert a record (score 100, empty breakdown)
// so the month reads consistently after the last bill is deleted.
func recomputeMonthlyScore(ctx context.Context, billRepo repository.BillRepository, scoreRepo repository.CarbonScoreRepository, userID uint, month string) (*models.CarbonScore, error) {
	bills, err := billRepo.ListByUserAndMonth(ctx, userID, month)
	if err != nil {
		return nil, err
	}

	entries := make([]emission.BillEmission, 0, len(bills))
	for _, b := range bills {
		entries = append(entries, emission.BillEmission{Category: b.Type, EmissionKg: b.EmissionKg})
	}
	totals := emission.Aggregate(entries)

	var prevTotal *float64
	prevMonth, err := emission.PreviousMonthKey(month)
	if err != nil {
		return nil, err
	}
	prevScore, err := scoreRepo.ByUserAndMonth(ctx, userID, prevMonth)
	if err != nil {
		return nil, err
	}
	if prevScore != nil {
		prevTotal = &prevScore.TotalEmission
	}

	score := &models.CarbonScore{
		UserID:              userID,
		Month:               month,
		TotalEmission:       totals.TotalKg,
		Score:               totals.Score,
		Grade:               totals.Grade,
		ElectricityEmission: totals.ElectricityKg,
		TransportEmission:   totals.TransportKg,
		GasEmission:         totals.GasKg,
		WaterEmission:       totals.WaterKg,
		OtherEmission:       totals.OtherKg,
		PreviousMonthChange: emission.PercentChange(totals.TotalKg, prevTotal),
		NationalAverage:     emission.NationalAverageKg,
	}

	if err := scoreRepo.Upsert(ctx, score); err != nil {
		return nil, err
	}
	return score, nil
}

// getUser loads an active user or fails with the matching business error
func getUser(ctx context.Context, repo repository.UserRepository, userID uint) (*models.User, error) {
	user, err := repo.ByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if user.IsActive != nil && !*user.IsActive {
		return nil, ErrAccountInactive
	}
	return user, nil
}

// getBill loads a bill scoped to its owner
func getBill(ctx context.Context, repo repository.BillRepository, uuid string, userID uint) (*models.Bill, error) {
	bill, err := repo.ByUUIDAndUser(ctx, uuid, userID)
	if err != nil {
		return nil, err
	}
	if bill == nil {
		return nil, ErrBillNotFound
	}
	return bill, nil
}

// createAuditLog writes one audit entry, never failing the caller
func createAuditLog(ctx context.Context, auditRepo repository.AuditLogRepository, userID *uint, action, description string, success bool, errorMsg *string, metadata *ClientMetadata) error {
	ipAddress := ""
	userAgent := ""
	if metadata != nil {
		ipAddress = metadata.IPAddress
		userAgent = metadata.UserAgent
	}

	audit := &models.AuditLog{
		UserID:       userID,
		Action:       action,
		Description:  &description,
		Success:      utils.ToPtr(success),
		IPAddress:    &ipAddress,
		UserAgent:    &userAgent,
		ErrorMessage: errorMsg,
	}

	// Extract request ID from context if available
	requestID := ctx.Value(utils.RequestIDKey)
	if requestID != nil {
		requestIDStr, ok := requestID.(string)
		if ok {
			audit.RequestID = &requestIDStr
		}
	}

	return auditRepo.Save(ctx, audit)
}
