package repository

import (
	"context"
	"time"

	"approvalflow/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RequestRepository defines the interface for data access of Request entities
type RequestRepository interface {
	Create(ctx context.Context, req *model.Request) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Request, error)
	FindByIDWithRelations(ctx context.Context, id uuid.UUID) (*model.Request, error)
	ListByCreator(ctx context.Context, creatorID uuid.UUID) ([]model.Request, error)
	ListByStatus(ctx context.Context, status model.RequestStatus) ([]model.Request, error)
	ListAll(ctx context.Context) ([]model.Request, error)
	ResolveIfPending(ctx context.Context, id uuid.UUID, res Resolution) (bool, error)
}

// Resolution is the set of fields written when a request leaves PENDING.
type Resolution struct {
	Status          model.RequestStatus
	ApprovedByID    uuid.UUID
	ApprovalDate    time.Time
	RejectionReason *string
}

type requestRepository struct {
	db *gorm.DB
}

// NewRequestRepository returns a new instance of RequestRepository
func NewRequestRepository(db *gorm.DB) RequestRepository {
	return &requestRepository{db: db}
}

func (r *requestRepository) Create(ctx context.Context, req *model.Request) error {
	return r.db.WithContext(ctx).Create(req).Error
}

func (r *requestRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Request, error) {
	var req model.Request
	if err := r.db.WithContext(ctx).First(&req, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *requestRepository) FindByIDWithRelations(ctx context.Context, id uuid.UUID) (*model.Request, error) {
	var req model.Request
	if err := r.db.WithContext(ctx).Preload("Creator").Preload("ApprovedBy").First(&req, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *requestRepository) ListByCreator(ctx context.Context, creatorID uuid.UUID) ([]model.Request, error) {
	var requests []model.Request
	if err := r.db.WithContext(ctx).
		Preload("Creator").Preload("ApprovedBy").
		Where("creator_id = ?", creatorID).
		Order("created_at DESC").
		Find(&requests).Error; err != nil {
		return nil, err
	}
	return requests, nil
}

func (r *requestRepository) ListByStatus(ctx context.Context, status model.RequestStatus) ([]model.Request, error) {
	var requests []model.Request
	if err := r.db.WithContext(ctx).
		Preload("Creator").Preload("ApprovedBy").
		Where("status = ?", status).
		Order("created_at DESC").
		Find(&requests).Error; err != nil {
		return nil, err
	}
	return requests, nil
}

func (r *requestRepository) ListAll(ctx context.Context) ([]model.Request, error) {
	var requests []model.Request
	if err := r.db.WithContext(ctx).
		Preload("Creator").Preload("ApprovedBy").
		Order("created_at DESC").
		Find(&requests).Error; err != nil {
		return nil, err
	}
	return requests, nil
}

// ResolveIfPending applies res as a single conditional UPDATE guarded on
// status = 'PENDING'. When two resolvers race, the database lets exactly one
// row-update through; the loser sees ok == false and must re-read to report
// the terminal status.
func (r *requestRepository) ResolveIfPending(ctx context.Context, id uuid.UUID, res Resolution) (bool, error) {
	result := r.db.WithContext(ctx).Model(&model.Request{}).
		Where("id = ? AND status = ?", id, model.StatusPending).
		Updates(map[string]interface{}{
			"status":           res.Status,
			"approved_by_id":   res.ApprovedByID,
			"approval_date":    res.ApprovalDate,
			"rejection_reason": res.RejectionReason,
			"updated_at":       time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
