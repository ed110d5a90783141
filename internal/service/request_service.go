package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"approvalflow/internal/model"
	"approvalflow/internal/repository"
	"approvalflow/pkg/apperror"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateRequestDTO struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description" binding:"required"`
	Category    string `json:"category" binding:"required"`
}

type RejectRequestDTO struct {
	Reason string `json:"reason"`
}

// UserSummary carries the identity details attached to request responses.
type UserSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type RequestResponse struct {
	ID              string       `json:"id"`
	Title           string       `json:"title"`
	Description     string       `json:"description"`
	Category        string       `json:"category"`
	Status          string       `json:"status"`
	Creator         *UserSummary `json:"creator,omitempty"`
	ApprovedBy      *UserSummary `json:"approved_by,omitempty"`
	ApprovalDate    *string      `json:"approval_date"`
	RejectionReason *string      `json:"rejection_reason"`
	CreatedAt       string       `json:"created_at"`
	UpdatedAt       string       `json:"updated_at"`
}

// Decision selects the terminal state a resolution drives the request into.
type Decision string

const (
	DecisionApprove Decision = "APPROVE"
	DecisionReject  Decision = "REJECT"
)

// --- Interface ---

// RequestService owns the request lifecycle: creation, role-scoped reads and
// the single PENDING -> APPROVED/REJECTED transition.
type RequestService interface {
	Create(ctx context.Context, creatorID string, req CreateRequestDTO) (RequestResponse, error)
	ListMine(ctx context.Context, callerID string) ([]RequestResponse, error)
	ListPending(ctx context.Context) ([]RequestResponse, error)
	ListAll(ctx context.Context) ([]RequestResponse, error)
	GetByID(ctx context.Context, id string) (RequestResponse, error)
	Resolve(ctx context.Context, id, callerID string, decision Decision, reason string) (RequestResponse, error)
}

type requestService struct {
	repo   repository.RequestRepository
	logger *zap.Logger
}

// NewRequestService returns a new instance of RequestService
func NewRequestService(repo repository.RequestRepository, logger ...*zap.Logger) RequestService {
	l := zap.L().Named("request.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("request.service")
	}
	return &requestService{repo: repo, logger: l}
}

// --- Implementation ---

func (s *requestService) Create(ctx context.Context, creatorID string, req CreateRequestDTO) (RequestResponse, error) {
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Description) == "" || strings.TrimSpace(req.Category) == "" {
		return RequestResponse{}, apperror.Validation("Please provide all required fields (title, description, category)")
	}

	category := model.RequestCategory(req.Category)
	if !category.Valid() {
		return RequestResponse{}, apperror.Validation("Invalid category: must be one of Leave, Purchase, Budget, Other")
	}

	creator, err := uuid.Parse(creatorID)
	if err != nil {
		return RequestResponse{}, apperror.Unauthorized("Invalid user identity")
	}

	request := model.Request{
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		Category:    category,
		CreatorID:   creator,
		Status:      model.StatusPending,
	}

	if err := s.repo.Create(ctx, &request); err != nil {
		s.logger.Error("failed to create request", zap.Error(err))
		return RequestResponse{}, apperror.Store(err, "Server error while creating request")
	}

	// Reload with creator details attached
	loaded, err := s.repo.FindByIDWithRelations(ctx, request.ID)
	if err != nil {
		s.logger.Error("failed to reload created request", zap.String("id", request.ID.String()), zap.Error(err))
		return RequestResponse{}, apperror.Store(err, "Server error while creating request")
	}

	return toRequestResponse(*loaded), nil
}

func (s *requestService) ListMine(ctx context.Context, callerID string) ([]RequestResponse, error) {
	caller, err := uuid.Parse(callerID)
	if err != nil {
		return nil, apperror.Unauthorized("Invalid user identity")
	}

	requests, err := s.repo.ListByCreator(ctx, caller)
	if err != nil {
		s.logger.Error("failed to list own requests", zap.String("creator_id", callerID), zap.Error(err))
		return nil, apperror.Store(err, "Server error while fetching requests")
	}

	return toRequestResponses(requests), nil
}

func (s *requestService) ListPending(ctx context.Context) ([]RequestResponse, error) {
	requests, err := s.repo.ListByStatus(ctx, model.StatusPending)
	if err != nil {
		s.logger.Error("failed to list pending requests", zap.Error(err))
		return nil, apperror.Store(err, "Server error while fetching pending requests")
	}

	return toRequestResponses(requests), nil
}

func (s *requestService) ListAll(ctx context.Context) ([]RequestResponse, error) {
	requests, err := s.repo.ListAll(ctx)
	if err != nil {
		s.logger.Error("failed to list requests", zap.Error(err))
		return nil, apperror.Store(err, "Server error while fetching requests")
	}

	return toRequestResponses(requests), nil
}

func (s *requestService) GetByID(ctx context.Context, id string) (RequestResponse, error) {
	requestID, err := uuid.Parse(id)
	if err != nil {
		return RequestResponse{}, apperror.InvalidID("Invalid request ID")
	}

	request, err := s.repo.FindByIDWithRelations(ctx, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return RequestResponse{}, apperror.NotFound("Request not found")
		}
		s.logger.Error("failed to fetch request", zap.String("id", id), zap.Error(err))
		return RequestResponse{}, apperror.Store(err, "Server error while fetching request")
	}

	return toRequestResponse(*request), nil
}

// Resolve applies an APPROVE or REJECT decision to a PENDING request. The
// self-resolution rule is re-checked here regardless of the caller's role:
// role gating alone does not stop a creator holding approver privileges from
// resolving their own submission.
func (s *requestService) Resolve(ctx context.Context, id, callerID string, decision Decision, reason string) (RequestResponse, error) {
	requestID, err := uuid.Parse(id)
	if err != nil {
		return RequestResponse{}, apperror.InvalidID("Invalid request ID")
	}

	caller, err := uuid.Parse(callerID)
	if err != nil {
		return RequestResponse{}, apperror.Unauthorized("Invalid user identity")
	}

	request, err := s.repo.FindByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return RequestResponse{}, apperror.NotFound("Request not found")
		}
		s.logger.Error("failed to fetch request", zap.String("id", id), zap.Error(err))
		return RequestResponse{}, apperror.Store(err, "Server error while resolving request")
	}

	if !request.Status.Valid() {
		s.logger.Error("request carries unrecognized status", zap.String("id", id), zap.String("status", string(request.Status)))
		return RequestResponse{}, apperror.Store(fmt.Errorf("unrecognized request status %q", request.Status), "Server error while resolving request")
	}
	if request.Status.Terminal() {
		return RequestResponse{}, alreadyProcessed(request.Status)
	}

	// Self-resolution guard: one rule for both decisions. Compare string
	// forms so the check cannot miss on representation differences.
	if request.CreatorID.String() == caller.String() {
		verb, noun := "approve", "approval"
		if decision == DecisionReject {
			verb, noun = "reject", "rejection"
		}
		return RequestResponse{}, apperror.Forbidden(fmt.Sprintf("You cannot %s your own request. Self-%s is not allowed.", verb, noun))
	}

	resolution := repository.Resolution{
		ApprovedByID: caller,
		ApprovalDate: time.Now(),
	}
	switch decision {
	case DecisionApprove:
		resolution.Status = model.StatusApproved
	case DecisionReject:
		resolution.Status = model.StatusRejected
		r := strings.TrimSpace(reason)
		if r == "" {
			r = model.DefaultRejectionReason
		}
		resolution.RejectionReason = &r
	default:
		return RequestResponse{}, apperror.Validation("Unknown decision")
	}

	ok, err := s.repo.ResolveIfPending(ctx, requestID, resolution)
	if err != nil {
		s.logger.Error("failed to resolve request", zap.String("id", id), zap.Error(err))
		return RequestResponse{}, apperror.Store(err, "Server error while resolving request")
	}
	if !ok {
		// Lost the race to a concurrent resolver. Re-read for the terminal status.
		current, readErr := s.repo.FindByID(ctx, requestID)
		if readErr != nil {
			s.logger.Error("failed to re-read request after lost resolve", zap.String("id", id), zap.Error(readErr))
			return RequestResponse{}, apperror.Store(readErr, "Server error while resolving request")
		}
		return RequestResponse{}, alreadyProcessed(current.Status)
	}

	updated, err := s.repo.FindByIDWithRelations(ctx, requestID)
	if err != nil {
		s.logger.Error("failed to reload resolved request", zap.String("id", id), zap.Error(err))
		return RequestResponse{}, apperror.Store(err, "Server error while resolving request")
	}

	return toRequestResponse(*updated), nil
}

// --- Helpers ---

func alreadyProcessed(status model.RequestStatus) *apperror.AppError {
	return apperror.AlreadyProcessed(fmt.Sprintf("Request has already been %s", strings.ToLower(string(status))))
}

func toUserSummary(u *model.User) *UserSummary {
	if u == nil {
		return nil
	}
	return &UserSummary{
		ID:    u.ID.String(),
		Name:  u.Name,
		Email: u.Email,
		Role:  u.Role,
	}
}

func toRequestResponse(r model.Request) RequestResponse {
	resp := RequestResponse{
		ID:              r.ID.String(),
		Title:           r.Title,
		Description:     r.Description,
		Category:        string(r.Category),
		Status:          string(r.Status),
		Creator:         toUserSummary(r.Creator),
		ApprovedBy:      toUserSummary(r.ApprovedBy),
		RejectionReason: r.RejectionReason,
		CreatedAt:       r.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       r.UpdatedAt.Format(time.RFC3339),
	}

	if r.ApprovalDate != nil {
		s := r.ApprovalDate.Format(time.RFC3339)
		resp.ApprovalDate = &s
	}

	return resp
}

func toRequestResponses(requests []model.Request) []RequestResponse {
	result := make([]RequestResponse, 0, len(requests))
	for _, r := range requests {
		result = append(result, toRequestResponse(r))
	}
	return result
}
