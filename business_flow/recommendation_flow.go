// Package businessflow contains the core business logic and use cases for recommendation workflows
package businessflow

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/ecotrace/ecotrace/app/dto"
	"github.com/ecotrace/ecotrace/emission"
	"github.com/ecotrace/ecotrace/models"
	"github.com/ecotrace/ecotrace/repository"
	"github.com/ecotrace/ecotrace/utils"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// RecommendationFlow handles the recommendation business logic
type RecommendationFlow interface {
	ListRecommendations(ctx context.Context, req *dto.ListRecommendationsRequest) (*dto.ListRecommendationsResponse, error)
}

// RecommendationFlowImpl implements the recommendation business flow
type RecommendationFlowImpl struct {
	recommendationRepo repository.RecommendationRepository
	scoreRepo          repository.CarbonScoreRepository
	userRepo           repository.UserRepository
	rc                 *redis.Client
	db                 *gorm.DB
}

// NewRecommendationFlow creates a new recommendation flow instance
func NewRecommendationFlow(
	recommendationRepo repository.RecommendationRepository,
	scoreRepo repository.CarbonScoreRepository,
	userRepo repository.UserRepository,
	db *gorm.DB,
	rc *redis.Client,
) RecommendationFlow {
	return &RecommendationFlowImpl{
		recommendationRepo: recommendationRepo,
		scoreRepo:          scoreRepo,
		userRepo:           userRepo,
		rc:                 rc,
		db:                 db,
	}
}

// groupToRecommendationCategory maps emission groups to catalog categories
func groupToRecommendationCategory(group string) string {
	switch group {
	case emission.GroupElectricity, emission.GroupGas:
		return models.RecommendationCategoryEnergy
	case emission.GroupTransport:
		return models.RecommendationCategoryTransport
	case emission.GroupWater:
		return models.RecommendationCategoryWater
	default:
		return models.RecommendationCategoryLifestyle
	}
}

// ListRecommendations returns catalog suggestions, reordered so entries
// matching the user's dominant emission group of the month come first
func (s *RecommendationFlowImpl) ListRecommendations(ctx context.Context, req *dto.ListRecommendationsRequest) (*dto.ListRecommendationsResponse, error) {
	user, err := getUser(ctx, s.userRepo, req.UserID)
	if err != nil {
		return nil, NewBusinessError("USER_LOOKUP_FAILED", "Failed to lookup user", err)
	}

	month := ""
	if req.Month != nil {
		if !monthKeyPattern.MatchString(*req.Month) {
			return nil, NewBusinessError("INVALID_MONTH_KEY", "Month key must be formatted YYYY-MM", ErrInvalidMonthKey)
		}
		month = *req.Month
	} else {
		month = emission.MonthKey(utils.UTCNow())
	}

	category := ""
	if req.Category != nil {
		category = *req.Category
	}
	impact := ""
	if req.Impact != nil {
		impact = *req.Impact
	}

	// Only the unfiltered listing is cached; the cache key carries user and month
	filtered := category != "" || impact != ""
	if !filtered {
		if cached := s.readCache(ctx, user.ID, month); cached != nil {
			return cached, nil
		}
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 10
	}

	recs, err := s.recommendationRepo.ListGlobal(ctx, category, impact, 0)
	if err != nil {
		return nil, NewBusinessError("RECOMMENDATION_LIST_FAILED", "Failed to list recommendations", err)
	}

	score, err := s.scoreRepo.ByUserAndMonth(ctx, user.ID, month)
	if err != nil {
		return nil, NewBusinessError("SCORE_LOOKUP_FAILED", "Failed to lookup carbon score", err)
	}

	dominant := dominantGroup(score)
	preferred := groupToRecommendationCategory(dominant)

	// Stable partition: preferred category first, both halves keep their
	// potential_saving ordering from the repository
	sort.SliceStable(recs, func(i, j int) bool {
		iPreferred := recs[i].Category == preferred
		jPreferred := recs[j].Category == preferred
		return iPreferred && !jPreferred
	})

	if len(recs) > limit {
		recs = recs[:limit]
	}

	resp := &dto.ListRecommendationsResponse{
		Items:            make([]dto.RecommendationDTO, 0, len(recs)),
		DominantCategory: dominant,
	}
	for _, r := range recs {
		resp.Items = append(resp.Items, ToRecommendationDTO(*r))
	}

	if !filtered {
		s.writeCache(ctx, user.ID, month, resp)
	}
	return resp, nil
}

func (s *RecommendationFlowImpl) readCache(ctx context.Context, userID uint, month string) *dto.ListRecommendationsResponse {
	if s.rc == nil {
		return nil
	}
	key := fmt.Sprintf("%s%d:%s", utils.RecommendationCachePrefix, userID, month)
	raw, err := s.rc.Get(ctx, key).Result()
	if err != nil {
		return nil
	}
	var cached dto.ListRecommendationsResponse
	if err := json.Unmarshal([]byte(raw), &cached); err != nil {
		return nil
	}
	return &cached
}

func (s *RecommendationFlowImpl) writeCache(ctx context.Context, userID uint, month string, resp *dto.ListRecommendationsResponse) {
	if s.rc == nil {
		return
	}
	raw, err := json.Marshal(resp)
	if err != nil {
		return
	}
	key := fmt.Sprintf("%s%d:%s", utils.RecommendationCachePrefix, userID, month)
	_ = s.rc.Set(ctx, key, raw, utils.RecommendationCacheTTL).Err()
}
