// Package businessflow contains the core business logic and use cases for carbon budget workflows
package businessflow

import (
	"context"
	"fmt"

	"github.com/ecotrace/ecotrace/app/dto"
	"github.com/ecotrace/ecotrace/models"
	"github.com/ecotrace/ecotrace/repository"
	"gorm.io/gorm"
)

// CarbonBudgetFlow handles the monthly budget business logic
type CarbonBudgetFlow interface {
	UpsertBudget(ctx context.Context, req *dto.UpsertBudgetRequest, metadata *ClientMetadata) (*dto.BudgetResponse, error)
	GetBudget(ctx context.Context, req *dto.GetBudgetRequest) (*dto.BudgetResponse, error)
}

// CarbonBudgetFlowImpl implements the budget business flow
type CarbonBudgetFlowImpl struct {
	budgetRepo repository.CarbonBudgetRepository
	scoreRepo  repository.CarbonScoreRepository
	userRepo   repository.UserRepository
	auditRepo  repository.AuditLogRepository
	db         *gorm.DB
}

// NewCarbonBudgetFlow creates a new budget flow instance
func NewCarbonBudgetFlow(
	budgetRepo repository.CarbonBudgetRepository,
	scoreRepo repository.CarbonScoreRepository,
	userRepo repository.UserRepository,
	auditRepo repository.AuditLogRepository,
	db *gorm.DB,
) CarbonBudgetFlow {
	return &CarbonBudgetFlowImpl{
		budgetRepo: budgetRepo,
		scoreRepo:  scoreRepo,
		userRepo:   userRepo,
		auditRepo:  auditRepo,
		db:         db,
	}
}

// UpsertBudget creates or replaces the emission target for one month
func (s *CarbonBudgetFlowImpl) UpsertBudget(ctx context.Context, req *dto.UpsertBudgetRequest, metadata *ClientMetadata) (*dto.BudgetResponse, error) {
	if !monthKeyPattern.MatchString(req.Month) {
		return nil, NewBusinessError("INVALID_MONTH_KEY", "Month key must be formatted YYYY-MM", ErrInvalidMonthKey)
	}
	if req.TargetEmission <= 0 {
		return nil, NewBusinessError("BUDGET_TARGET_TOO_LOW", "Budget target must be positive", ErrBudgetTargetTooLow)
	}

	user, err := getUser(ctx, s.userRepo, req.UserID)
	if err != nil {
		return nil, NewBusinessError("USER_LOOKUP_FAILED", "Failed to lookup user", err)
	}

	budget := &models.CarbonBudget{
		UserID:            user.ID,
		Month:             req.Month,
		TargetEmission:    req.TargetEmission,
		ElectricityBudget: req.ElectricityBudget,
		TransportBudget:   req.TransportBudget,
		GasBudget:         req.GasBudget,
	}

	err = repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		return s.budgetRepo.Upsert(txCtx, budget)
	})
	if err != nil {
		errMsg := fmt.Sprintf("Budget upsert failed: %s", err.Error())
		_ = createAuditLog(ctx, s.auditRepo, &user.ID, models.AuditActionBudgetUpserted, errMsg, false, &errMsg, metadata)

		return nil, NewBusinessError("BUDGET_UPSERT_FAILED", "Budget upsert failed", err)
	}

	msg := fmt.Sprintf("Budget set for %s: %.1f kg", req.Month, req.TargetEmission)
	_ = createAuditLog(ctx, s.auditRepo, &user.ID, models.AuditActionBudgetUpserted, msg, true, nil, metadata)

	current, err := currentMonthEmission(ctx, s.scoreRepo, user.ID, req.Month)
	if err != nil {
		return nil, NewBusinessError("SCORE_LOOKUP_FAILED", "Failed to lookup carbon score", err)
	}

	return &dto.BudgetResponse{
		Message: "Budget saved successfully",
		Budget:  ToBudgetDTO(*budget, current),
	}, nil
}

// GetBudget returns the budget for one month alongside the month's standing
func (s *CarbonBudgetFlowImpl) GetBudget(ctx context.Context, req *dto.GetBudgetRequest) (*dto.BudgetResponse, error) {
	if !monthKeyPattern.MatchString(req.Month) {
		return nil, NewBusinessError("INVALID_MONTH_KEY", "Month key must be formatted YYYY-MM", ErrInvalidMonthKey)
	}

	user, err := getUser(ctx, s.userRepo, req.UserID)
	if err != nil {
		return nil, NewBusinessError("USER_LOOKUP_FAILED", "Failed to lookup user", err)
	}

	budget, err := s.budgetRepo.ByUserAndMonth(ctx, user.ID, req.Month)
	if err != nil {
		return nil, NewBusinessError("BUDGET_LOOKUP_FAILED", "Failed to lookup budget", err)
	}
	if budget == nil {
		return nil, NewBusinessError("BUDGET_NOT_FOUND", "Carbon budget not found", ErrBudgetNotFound)
	}

	current, err := currentMonthEmission(ctx, s.scoreRepo, user.ID, req.Month)
	if err != nil {
		return nil, NewBusinessError("SCORE_LOOKUP_FAILED", "Failed to lookup carbon score", err)
	}

	return &dto.BudgetResponse{
		Budget: ToBudgetDTO(*budget, current),
	}, nil
}
