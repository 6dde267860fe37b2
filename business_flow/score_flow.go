// Package businessflow contains the core business logic and use cases for carbon score workflows
package businessflow

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"regexp"

	"github.com/ecotrace/ecotrace/app/dto"
	"github.com/ecotrace/ecotrace/emission"
	"github.com/ecotrace/ecotrace/models"
	"github.com/ecotrace/ecotrace/repository"
	"github.com/ecotrace/ecotrace/utils"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

var monthKeyPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// ScoreFlow handles the carbon score business logic
type ScoreFlow interface {
	GetScore(ctx context.Context, req *dto.GetScoreRequest) (*dto.GetScoreResponse, error)
	GetScoreHistory(ctx context.Context, req *dto.ScoreHistoryRequest) (*dto.ScoreHistoryResponse, error)
}

// ScoreFlowImpl implements the score business flow
type ScoreFlowImpl struct {
	scoreRepo repository.CarbonScoreRepository
	billRepo  repository.BillRepository
	userRepo  repository.UserRepository
	rc        *redis.Client
	db        *gorm.DB
}

// NewScoreFlow creates a new score flow instance
func NewScoreFlow(
	scoreRepo repository.CarbonScoreRepository,
	billRepo repository.BillRepository,
	userRepo repository.UserRepository,
	db *gorm.DB,
	rc *redis.Client,
) ScoreFlow {
	return &ScoreFlowImpl{
		scoreRepo: scoreRepo,
		billRepo:  billRepo,
		userRepo:  userRepo,
		rc:        rc,
		db:        db,
	}
}

// GetScore returns the carbon score for one month. Months with no score row
// yet are computed on the fly so a fresh account reads score 100 immediately.
func (s *ScoreFlowImpl) GetScore(ctx context.Context, req *dto.GetScoreRequest) (*dto.GetScoreResponse, error) {
	if !monthKeyPattern.MatchString(req.Month) {
		return nil, NewBusinessError("INVALID_MONTH_KEY", "Month key must be formatted YYYY-MM", ErrInvalidMonthKey)
	}

	user, err := getUser(ctx, s.userRepo, req.UserID)
	if err != nil {
		return nil, NewBusinessError("USER_LOOKUP_FAILED", "Failed to lookup user", err)
	}

	if cached := s.readScoreCache(ctx, user.ID, req.Month); cached != nil {
		return &dto.GetScoreResponse{Score: *cached}, nil
	}

	score, err := s.scoreRepo.ByUserAndMonth(ctx, user.ID, req.Month)
	if err != nil {
		return nil, NewBusinessError("SCORE_LOOKUP_FAILED", "Failed to lookup carbon score", err)
	}

	if score == nil {
		// No bills recorded yet for this month: materialize the empty score
		err = repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
			score, err = recomputeMonthlyScore(txCtx, s.billRepo, s.scoreRepo, user.ID, req.Month)
			return err
		})
		if err != nil {
			return nil, NewBusinessError("SCORE_COMPUTATION_FAILED", "Carbon score computation failed", err)
		}
	}

	scoreDTO := ToScoreDTO(*score)
	s.writeScoreCache(ctx, user.ID, req.Month, scoreDTO)

	return &dto.GetScoreResponse{Score: scoreDTO}, nil
}

// GetScoreHistory returns the most recent monthly scores, newest first
func (s *ScoreFlowImpl) GetScoreHistory(ctx context.Context, req *dto.ScoreHistoryRequest) (*dto.ScoreHistoryResponse, error) {
	user, err := getUser(ctx, s.userRepo, req.UserID)
	if err != nil {
		return nil, NewBusinessError("USER_LOOKUP_FAILED", "Failed to lookup user", err)
	}

	months := req.Months
	if months <= 0 {
		months = 12
	}
	if months > 36 {
		months = 36
	}

	scores, err := s.scoreRepo.ListByUser(ctx, user.ID, months)
	if err != nil {
		return nil, NewBusinessError("SCORE_HISTORY_FAILED", "Failed to list carbon scores", err)
	}

	items := make([]dto.ScoreDTO, 0, len(scores))
	summary := dto.ScoreHistorySummaryDTO{
		MonthsTracked: len(scores),
		CurrentMonth:  emission.MonthKey(utils.UTCNow()),
	}
	for _, sc := range scores {
		items = append(items, ToScoreDTO(*sc))
		summary.TotalEmission += sc.TotalEmission
	}
	if len(scores) > 0 {
		var scoreSum int
		for _, sc := range scores {
			scoreSum += sc.Score
		}
		summary.AverageScore = math.Round(float64(scoreSum)/float64(len(scores))*10) / 10
	}

	return &dto.ScoreHistoryResponse{Items: items, Summary: summary}, nil
}

func (s *ScoreFlowImpl) readScoreCache(ctx context.Context, userID uint, month string) *dto.ScoreDTO {
	if s.rc == nil {
		return nil
	}
	key := fmt.Sprintf("%s%d:%s", utils.ScoreCachePrefix, userID, month)
	raw, err := s.rc.Get(ctx, key).Result()
	if err != nil {
		return nil
	}
	var cached dto.ScoreDTO
	if err := json.Unmarshal([]byte(raw), &cached); err != nil {
		return nil
	}
	return &cached
}

func (s *ScoreFlowImpl) writeScoreCache(ctx context.Context, userID uint, month string, score dto.ScoreDTO) {
	if s.rc == nil {
		return
	}
	raw, err := json.Marshal(score)
	if err != nil {
		return
	}
	key := fmt.Sprintf("%s%d:%s", utils.ScoreCachePrefix, userID, month)
	_ = s.rc.Set(ctx, key, raw, utils.ScoreCacheTTL).Err()
}

// currentMonthEmission reads the month's total from the score row, tolerating
// a missing row as zero
func currentMonthEmission(ctx context.Context, scoreRepo repository.CarbonScoreRepository, userID uint, month string) (float64, error) {
	score, err := scoreRepo.ByUserAndMonth(ctx, userID, month)
	if err != nil {
		return 0, err
	}
	if score == nil {
		return 0, nil
	}
	return score.TotalEmission, nil
}

// dominantGroup returns the category group with the largest emission share,
// or "" when the month is empty
func dominantGroup(score *models.CarbonScore) string {
	if score == nil {
		return ""
	}
	groups := []struct {
		name string
		kg   float64
	}{
		{"electricity", score.ElectricityEmission},
		{"transport", score.TransportEmission},
		{"gas", score.GasEmission},
		{"water", score.WaterEmission},
		{"other", score.OtherEmission},
	}
	best := ""
	bestKg := 0.0
	for _, g := range groups {
		if g.kg > bestKg {
			best = g.name
			bestKg = g.kg
		}
	}
	return best
}
