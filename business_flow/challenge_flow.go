// Package businessflow contains the core business logic and use cases for challenge workflows
package businessflow

import (
	"context"
	"fmt"
	"time"

	"github.com/ecotrace/ecotrace/app/dto"
	"github.com/ecotrace/ecotrace/models"
	"github.com/ecotrace/ecotrace/repository"
	"github.com/ecotrace/ecotrace/utils"
	"gorm.io/gorm"
)

// ChallengeFlow handles the challenge business logic
type ChallengeFlow interface {
	ListChallenges(ctx context.Context, req *dto.ListChallengesRequest) (*dto.ListChallengesResponse, error)
	JoinChallenge(ctx context.Context, req *dto.JoinChallengeRequest, metadata *ClientMetadata) (*dto.UserChallengeResponse, error)
	UpdateProgress(ctx context.Context, req *dto.UpdateChallengeProgressRequest, metadata *ClientMetadata) (*dto.UserChallengeResponse, error)
	LeaveChallenge(ctx context.Context, req *dto.LeaveChallengeRequest, metadata *ClientMetadata) error
	ListUserChallenges(ctx context.Context, userID uint) (*dto.ListUserChallengesResponse, error)
}

// ChallengeFlowImpl implements the challenge business flow
type ChallengeFlowImpl struct {
	challengeRepo     repository.ChallengeRepository
	userChallengeRepo repository.UserChallengeRepository
	userRepo          repository.UserRepository
	auditRepo         repository.AuditLogRepository
	db                *gorm.DB
}

// NewChallengeFlow creates a new challenge flow instance
func NewChallengeFlow(
	challengeRepo repository.ChallengeRepository,
	userChallengeRepo repository.UserChallengeRepository,
	userRepo repository.UserRepository,
	auditRepo repository.AuditLogRepository,
	db *gorm.DB,
) ChallengeFlow {
	return &ChallengeFlowImpl{
		challengeRepo:     challengeRepo,
		userChallengeRepo: userChallengeRepo,
		userRepo:          userRepo,
		auditRepo:         auditRepo,
		db:                db,
	}
}

// ListChallenges returns the active catalog, flagging the ones the user joined
func (s *ChallengeFlowImpl) ListChallenges(ctx context.Context, req *dto.ListChallengesRequest) (*dto.ListChallengesResponse, error) {
	category := ""
	if req.Category != nil {
		category = *req.Category
	}

	challenges, err := s.challengeRepo.ListActive(ctx, category)
	if err != nil {
		return nil, NewBusinessError("CHALLENGE_LIST_FAILED", "Failed to list challenges", err)
	}

	joined := make(map[uint]bool)
	if req.UserID != 0 {
		participations, err := s.userChallengeRepo.ListByUser(ctx, req.UserID, "")
		if err != nil {
			return nil, NewBusinessError("CHALLENGE_LIST_FAILED", "Failed to list joined challenges", err)
		}
		for _, uc := range participations {
			if uc.Status != models.UserChallengeStatusAbandoned {
				joined[uc.ChallengeID] = true
			}
		}
	}

	items := make([]dto.ChallengeDTO, 0, len(challenges))
	for _, c := range challenges {
		items = append(items, ToChallengeDTO(*c, joined[c.ID]))
	}

	return &dto.ListChallengesResponse{Items: items}, nil
}

// JoinChallenge enrolls the user in a catalog challenge. A user can hold at
// most one non-abandoned participation per challenge; rejoining after
// abandoning restarts the window.
func (s *ChallengeFlowImpl) JoinChallenge(ctx context.Context, req *dto.JoinChallengeRequest, metadata *ClientMetadata) (*dto.UserChallengeResponse, error) {
	user, err := getUser(ctx, s.userRepo, req.UserID)
	if err != nil {
		return nil, NewBusinessError("USER_LOOKUP_FAILED", "Failed to lookup user", err)
	}

	challenge, err := s.challengeRepo.ByID(ctx, req.ChallengeID)
	if err != nil {
		return nil, NewBusinessError("CHALLENGE_LOOKUP_FAILED", "Failed to lookup challenge", err)
	}
	if challenge == nil {
		return nil, NewBusinessError("CHALLENGE_NOT_FOUND", "Challenge not found", ErrChallengeNotFound)
	}
	if challenge.IsActive != nil && !*challenge.IsActive {
		return nil, NewBusinessError("CHALLENGE_INACTIVE", "Challenge is inactive", ErrChallengeInactive)
	}

	existing, err := s.userChallengeRepo.ByUserAndChallenge(ctx, user.ID, challenge.ID)
	if err != nil {
		return nil, NewBusinessError("CHALLENGE_LOOKUP_FAILED", "Failed to lookup participation", err)
	}

	now := utils.UTCNow()
	end := now.Add(time.Duration(challenge.DurationDays) * 24 * time.Hour)

	var participation *models.UserChallenge
	err = repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		if existing != nil {
			if existing.Status != models.UserChallengeStatusAbandoned {
				return ErrChallengeAlreadyJoined
			}
			existing.Status = models.UserChallengeStatusActive
			existing.Progress = 0
			existing.CarbonSaved = 0
			existing.StartDate = now
			existing.EndDate = end
			participation = existing
			return s.userChallengeRepo.Update(txCtx, existing)
		}

		participation = &models.UserChallenge{
			UserID:      user.ID,
			ChallengeID: challenge.ID,
			Status:      models.UserChallengeStatusActive,
			StartDate:   now,
			EndDate:     end,
		}
		return s.userChallengeRepo.Save(txCtx, participation)
	})
	if err != nil {
		if IsChallengeAlreadyJoined(err) {
			return nil, NewBusinessError("CHALLENGE_ALREADY_JOINED", "Challenge already joined", err)
		}
		errMsg := fmt.Sprintf("Challenge join failed: %s", err.Error())
		_ = createAuditLog(ctx, s.auditRepo, &user.ID, models.AuditActionChallengeJoined, errMsg, false, &errMsg, metadata)

		return nil, NewBusinessError("CHALLENGE_JOIN_FAILED", "Challenge join failed", err)
	}

	msg := fmt.Sprintf("Challenge joined: %d (%s)", challenge.ID, challenge.Title)
	_ = createAuditLog(ctx, s.auditRepo, &user.ID, models.AuditActionChallengeJoined, msg, true, nil, metadata)

	participation.Challenge = challenge
	return &dto.UserChallengeResponse{
		Message:   "Challenge joined successfully",
		Challenge: ToUserChallengeDTO(*participation),
	}, nil
}

// UpdateProgress records manual progress; reaching 100 completes the challenge
func (s *ChallengeFlowImpl) UpdateProgress(ctx context.Context, req *dto.UpdateChallengeProgressRequest, metadata *ClientMetadata) (*dto.UserChallengeResponse, error) {
	if req.Progress < 0 || req.Progress > 100 {
		return nil, NewBusinessError("INVALID_PROGRESS", "Progress must be between 0 and 100", ErrInvalidProgress)
	}

	user, err := getUser(ctx, s.userRepo, req.UserID)
	if err != nil {
		return nil, NewBusinessError("USER_LOOKUP_FAILED", "Failed to lookup user", err)
	}

	participation, err := s.userChallengeRepo.ByUserAndChallenge(ctx, user.ID, req.ChallengeID)
	if err != nil {
		return nil, NewBusinessError("CHALLENGE_LOOKUP_FAILED", "Failed to lookup participation", err)
	}
	if participation == nil || participation.Status == models.UserChallengeStatusAbandoned {
		return nil, NewBusinessError("CHALLENGE_NOT_JOINED", "Challenge not joined", ErrChallengeNotJoined)
	}

	participation.Progress = req.Progress
	if req.CarbonSaved != nil {
		participation.CarbonSaved = *req.CarbonSaved
	}

	completed := false
	if req.Progress == 100 && participation.Status == models.UserChallengeStatusActive {
		participation.Status = models.UserChallengeStatusCompleted
		completed = true
	}
	participation.UpdatedAt = utils.UTCNow()

	err = repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		return s.userChallengeRepo.Update(txCtx, participation)
	})
	if err != nil {
		return nil, NewBusinessError("CHALLENGE_PROGRESS_FAILED", "Challenge progress update failed", err)
	}

	action := models.AuditActionChallengeProgress
	msg := fmt.Sprintf("Challenge %d progress: %d%%", req.ChallengeID, req.Progress)
	if completed {
		action = models.AuditActionChallengeCompleted
		msg = fmt.Sprintf("Challenge %d completed", req.ChallengeID)
	}
	_ = createAuditLog(ctx, s.auditRepo, &user.ID, action, msg, true, nil, metadata)

	if participation.Challenge == nil {
		challenge, err := s.challengeRepo.ByID(ctx, req.ChallengeID)
		if err == nil && challenge != nil {
			participation.Challenge = challenge
		}
	}

	message := "Progress updated"
	if completed {
		message = "Challenge completed, congratulations"
	}
	return &dto.UserChallengeResponse{
		Message:   message,
		Challenge: ToUserChallengeDTO(*participation),
	}, nil
}

// LeaveChallenge abandons an active participation
func (s *ChallengeFlowImpl) LeaveChallenge(ctx context.Context, req *dto.LeaveChallengeRequest, metadata *ClientMetadata) error {
	user, err := getUser(ctx, s.userRepo, req.UserID)
	if err != nil {
		return NewBusinessError("USER_LOOKUP_FAILED", "Failed to lookup user", err)
	}

	participation, err := s.userChallengeRepo.ByUserAndChallenge(ctx, user.ID, req.ChallengeID)
	if err != nil {
		return NewBusinessError("CHALLENGE_LOOKUP_FAILED", "Failed to lookup participation", err)
	}
	if participation == nil || participation.Status != models.UserChallengeStatusActive {
		return NewBusinessError("CHALLENGE_NOT_JOINED", "Challenge not joined", ErrChallengeNotJoined)
	}

	participation.Status = models.UserChallengeStatusAbandoned
	participation.UpdatedAt = utils.UTCNow()

	err = repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		return s.userChallengeRepo.Update(txCtx, participation)
	})
	if err != nil {
		return NewBusinessError("CHALLENGE_LEAVE_FAILED", "Challenge leave failed", err)
	}

	msg := fmt.Sprintf("Challenge %d abandoned", req.ChallengeID)
	_ = createAuditLog(ctx, s.auditRepo, &user.ID, models.AuditActionChallengeLeft, msg, true, nil, metadata)

	return nil
}

// ListUserChallenges returns the user's participations with aggregate totals
func (s *ChallengeFlowImpl) ListUserChallenges(ctx context.Context, userID uint) (*dto.ListUserChallengesResponse, error) {
	user, err := getUser(ctx, s.userRepo, userID)
	if err != nil {
		return nil, NewBusinessError("USER_LOOKUP_FAILED", "Failed to lookup user", err)
	}

	participations, err := s.userChallengeRepo.ListByUser(ctx, user.ID, "")
	if err != nil {
		return nil, NewBusinessError("CHALLENGE_LIST_FAILED", "Failed to list participations", err)
	}

	resp := &dto.ListUserChallengesResponse{Items: make([]dto.UserChallengeDTO, 0, len(participations))}
	for _, uc := range participations {
		item := ToUserChallengeDTO(*uc)
		resp.Items = append(resp.Items, item)
		resp.TotalSaved += uc.CarbonSaved
		if uc.IsCompleted() {
			resp.TotalPoints += item.Points
		}
	}

	return resp, nil
}
