package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"approvalflow/internal/model"
	"approvalflow/internal/repository"
	"approvalflow/internal/service"
	"approvalflow/pkg/apperror"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

type fakeRequestRepo struct {
	CreateFn                func(ctx context.Context, req *model.Request) error
	FindByIDFn              func(ctx context.Context, id uuid.UUID) (*model.Request, error)
	FindByIDWithRelationsFn func(ctx context.Context, id uuid.UUID) (*model.Request, error)
	ListByCreatorFn         func(ctx context.Context, creatorID uuid.UUID) ([]model.Request, error)
	ListByStatusFn          func(ctx context.Context, status model.RequestStatus) ([]model.Request, error)
	ListAllFn               func(ctx context.Context) ([]model.Request, error)
	ResolveIfPendingFn      func(ctx context.Context, id uuid.UUID, res repository.Resolution) (bool, error)
}

func (f *fakeRequestRepo) Create(ctx context.Context, req *model.Request) error {
	return f.CreateFn(ctx, req)
}
func (f *fakeRequestRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Request, error) {
	return f.FindByIDFn(ctx, id)
}
func (f *fakeRequestRepo) FindByIDWithRelations(ctx context.Context, id uuid.UUID) (*model.Request, error) {
	return f.FindByIDWithRelationsFn(ctx, id)
}
func (f *fakeRequestRepo) ListByCreator(ctx context.Context, creatorID uuid.UUID) ([]model.Request, error) {
	return f.ListByCreatorFn(ctx, creatorID)
}
func (f *fakeRequestRepo) ListByStatus(ctx context.Context, status model.RequestStatus) ([]model.Request, error) {
	return f.ListByStatusFn(ctx, status)
}
func (f *fakeRequestRepo) ListAll(ctx context.Context) ([]model.Request, error) {
	return f.ListAllFn(ctx)
}
func (f *fakeRequestRepo) ResolveIfPending(ctx context.Context, id uuid.UUID, res repository.Resolution) (bool, error) {
	return f.ResolveIfPendingFn(ctx, id, res)
}

func pendingRequest(creatorID uuid.UUID) *model.Request {
	return &model.Request{
		ID:          uuid.New(),
		Title:       "Leave",
		Description: "PTO",
		Category:    model.CategoryLeave,
		CreatorID:   creatorID,
		Status:      model.StatusPending,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
}

func appErr(t *testing.T, err error) *apperror.AppError {
	t.Helper()
	var ae *apperror.AppError
	assert.True(t, errors.As(err, &ae), "expected *apperror.AppError, got %v", err)
	return ae
}

func TestRequestService_Create(t *testing.T) {
	ctx := context.Background()
	creatorID := uuid.New()

	t.Run("success", func(t *testing.T) {
		var stored *model.Request
		repo := &fakeRequestRepo{
			CreateFn: func(ctx context.Context, req *model.Request) error {
				req.ID = uuid.New()
				stored = req
				return nil
			},
			FindByIDWithRelationsFn: func(ctx context.Context, id uuid.UUID) (*model.Request, error) {
				loaded := *stored
				loaded.Creator = &model.User{ID: creatorID, Name: "alice", Role: model.RoleCreator}
				return &loaded, nil
			},
		}
		svc := service.NewRequestService(repo)

		res, err := svc.Create(ctx, creatorID.String(), service.CreateRequestDTO{
			Title:       "Leave",
			Description: "PTO",
			Category:    "Leave",
		})

		assert.NoError(t, err)
		assert.Equal(t, "PENDING", res.Status)
		assert.Equal(t, "Leave", res.Title)
		assert.Equal(t, "alice", res.Creator.Name)
		assert.Nil(t, res.ApprovalDate)
		assert.Nil(t, res.RejectionReason)
		assert.Equal(t, model.StatusPending, stored.Status)
		assert.Equal(t, creatorID, stored.CreatorID)
	})

	t.Run("missing fields", func(t *testing.T) {
		svc := service.NewRequestService(&fakeRequestRepo{})

		_, err := svc.Create(ctx, creatorID.String(), service.CreateRequestDTO{Title: "Leave"})

		ae := appErr(t, err)
		assert.Equal(t, apperror.CodeValidation, ae.Code)
		assert.Equal(t, 400, ae.HTTPStatus)
	})

	t.Run("unknown category", func(t *testing.T) {
		svc := service.NewRequestService(&fakeRequestRepo{})

		_, err := svc.Create(ctx, creatorID.String(), service.CreateRequestDTO{
			Title:       "Leave",
			Description: "PTO",
			Category:    "Vacation",
		})

		ae := appErr(t, err)
		assert.Equal(t, apperror.CodeValidation, ae.Code)
	})

	t.Run("repository error", func(t *testing.T) {
		repo := &fakeRequestRepo{
			CreateFn: func(ctx context.Context, req *model.Request) error {
				return errors.New("db down")
			},
		}
		svc := service.NewRequestService(repo)

		_, err := svc.Create(ctx, creatorID.String(), service.CreateRequestDTO{
			Title:       "Leave",
			Description: "PTO",
			Category:    "Leave",
		})

		ae := appErr(t, err)
		assert.Equal(t, apperror.CodeStore, ae.Code)
		assert.Equal(t, 500, ae.HTTPStatus)
	})
}

func TestRequestService_GetByID(t *testing.T) {
	ctx := context.Background()

	t.Run("malformed id", func(t *testing.T) {
		svc := service.NewRequestService(&fakeRequestRepo{})

		_, err := svc.GetByID(ctx, "not-a-uuid")

		ae := appErr(t, err)
		assert.Equal(t, apperror.CodeInvalidID, ae.Code)
		assert.Equal(t, 400, ae.HTTPStatus)
	})

	t.Run("not found", func(t *testing.T) {
		repo := &fakeRequestRepo{
			FindByIDWithRelationsFn: func(ctx context.Context, id uuid.UUID) (*model.Request, error) {
				return nil, gorm.ErrRecordNotFound
			},
		}
		svc := service.NewRequestService(repo)

		_, err := svc.GetByID(ctx, uuid.NewString())

		ae := appErr(t, err)
		assert.Equal(t, apperror.CodeNotFound, ae.Code)
		assert.Equal(t, 404, ae.HTTPStatus)
	})

	t.Run("success is repeatable", func(t *testing.T) {
		req := pendingRequest(uuid.New())
		repo := &fakeRequestRepo{
			FindByIDWithRelationsFn: func(ctx context.Context, id uuid.UUID) (*model.Request, error) {
				copied := *req
				return &copied, nil
			},
		}
		svc := service.NewRequestService(repo)

		first, err := svc.GetByID(ctx, req.ID.String())
		assert.NoError(t, err)
		second, err := svc.GetByID(ctx, req.ID.String())
		assert.NoError(t, err)
		assert.Equal(t, first, second)
	})
}

func TestRequestService_Resolve(t *testing.T) {
	ctx := context.Background()
	creatorID := uuid.New()
	approverID := uuid.New()

	t.Run("approve success", func(t *testing.T) {
		req := pendingRequest(creatorID)
		var applied repository.Resolution
		repo := &fakeRequestRepo{
			FindByIDFn: func(ctx context.Context, id uuid.UUID) (*model.Request, error) {
				copied := *req
				return &copied, nil
			},
			ResolveIfPendingFn: func(ctx context.Context, id uuid.UUID, res repository.Resolution) (bool, error) {
				applied = res
				return true, nil
			},
			FindByIDWithRelationsFn: func(ctx context.Context, id uuid.UUID) (*model.Request, error) {
				updated := *req
				updated.Status = applied.Status
				updated.ApprovedByID = &applied.ApprovedByID
				updated.ApprovalDate = &applied.ApprovalDate
				updated.RejectionReason = applied.RejectionReason
				updated.ApprovedBy = &model.User{ID: approverID, Name: "bob", Role: model.RoleApprover}
				return &updated, nil
			},
		}
		svc := service.NewRequestService(repo)

		res, err := svc.Resolve(ctx, req.ID.String(), approverID.String(), service.DecisionApprove, "")

		assert.NoError(t, err)
		assert.Equal(t, "APPROVED", res.Status)
		assert.Equal(t, "bob", res.ApprovedBy.Name)
		assert.NotNil(t, res.ApprovalDate)
		assert.Nil(t, res.RejectionReason)
		assert.Equal(t, model.StatusApproved, applied.Status)
		assert.Equal(t, approverID, applied.ApprovedByID)
		assert.Nil(t, applied.RejectionReason)
	})

	t.Run("reject without reason uses default", func(t *testing.T) {
		req := pendingRequest(creatorID)
		var applied repository.Resolution
		repo := &fakeRequestRepo{
			FindByIDFn: func(ctx context.Context, id uuid.UUID) (*model.Request, error) {
				copied := *req
				return &copied, nil
			},
			ResolveIfPendingFn: func(ctx context.Context, id uuid.UUID, res repository.Resolution) (bool, error) {
				applied = res
				return true, nil
			},
			FindByIDWithRelationsFn: func(ctx context.Context, id uuid.UUID) (*model.Request, error) {
				updated := *req
				updated.Status = applied.Status
				updated.RejectionReason = applied.RejectionReason
				return &updated, nil
			},
		}
		svc := service.NewRequestService(repo)

		res, err := svc.Resolve(ctx, req.ID.String(), approverID.String(), service.DecisionReject, "")

		assert.NoError(t, err)
		assert.Equal(t, "REJECTED", res.Status)
		assert.NotNil(t, res.RejectionReason)
		assert.Equal(t, "No reason provided", *res.RejectionReason)
	})

	t.Run("reject keeps supplied reason", func(t *testing.T) {
		req := pendingRequest(creatorID)
		repo := &fakeRequestRepo{
			FindByIDFn: func(ctx context.Context, id uuid.UUID) (*model.Request, error) {
				copied := *req
				return &copied, nil
			},
			ResolveIfPendingFn: func(ctx context.Context, id uuid.UUID, res repository.Resolution) (bool, error) {
				assert.NotNil(t, res.RejectionReason)
				assert.Equal(t, "over budget", *res.RejectionReason)
				return true, nil
			},
			FindByIDWithRelationsFn: func(ctx context.Context, id uuid.UUID) (*model.Request, error) {
				copied := *req
				return &copied, nil
			},
		}
		svc := service.NewRequestService(repo)

		_, err := svc.Resolve(ctx, req.ID.String(), approverID.String(), service.DecisionReject, "over budget")
		assert.NoError(t, err)
	})

	t.Run("self-resolution forbidden for both decisions", func(t *testing.T) {
		for _, decision := range []service.Decision{service.DecisionApprove, service.DecisionReject} {
			req := pendingRequest(creatorID)
			repo := &fakeRequestRepo{
				FindByIDFn: func(ctx context.Context, id uuid.UUID) (*model.Request, error) {
					copied := *req
					return &copied, nil
				},
				// ResolveIfPendingFn left nil: reaching the write is a test failure
			}
			svc := service.NewRequestService(repo)

			_, err := svc.Resolve(ctx, req.ID.String(), creatorID.String(), decision, "")

			ae := appErr(t, err)
			assert.Equal(t, apperror.CodeForbidden, ae.Code)
			assert.Equal(t, 403, ae.HTTPStatus)
			assert.Contains(t, ae.Message, "your own request")
		}
	})

	t.Run("already approved", func(t *testing.T) {
		req := pendingRequest(creatorID)
		req.Status = model.StatusApproved
		repo := &fakeRequestRepo{
			FindByIDFn: func(ctx context.Context, id uuid.UUID) (*model.Request, error) {
				copied := *req
				return &copied, nil
			},
		}
		svc := service.NewRequestService(repo)

		_, err := svc.Resolve(ctx, req.ID.String(), approverID.String(), service.DecisionReject, "")

		ae := appErr(t, err)
		assert.Equal(t, apperror.CodeAlreadyProcessed, ae.Code)
		assert.Equal(t, 400, ae.HTTPStatus)
		assert.Contains(t, ae.Message, "approved")
	})

	t.Run("unrecognized stored status is a store error", func(t *testing.T) {
		req := pendingRequest(creatorID)
		req.Status = model.RequestStatus("CANCELLED")
		repo := &fakeRequestRepo{
			FindByIDFn: func(ctx context.Context, id uuid.UUID) (*model.Request, error) {
				copied := *req
				return &copied, nil
			},
		}
		svc := service.NewRequestService(repo)

		_, err := svc.Resolve(ctx, req.ID.String(), approverID.String(), service.DecisionApprove, "")

		ae := appErr(t, err)
		assert.Equal(t, apperror.CodeStore, ae.Code)
		assert.Equal(t, 500, ae.HTTPStatus)
	})

	t.Run("lost race reports already processed", func(t *testing.T) {
		req := pendingRequest(creatorID)
		reads := 0
		repo := &fakeRequestRepo{
			FindByIDFn: func(ctx context.Context, id uuid.UUID) (*model.Request, error) {
				reads++
				copied := *req
				if reads > 1 {
					// A concurrent approver won between the read and the write.
					copied.Status = model.StatusApproved
				}
				return &copied, nil
			},
			ResolveIfPendingFn: func(ctx context.Context, id uuid.UUID, res repository.Resolution) (bool, error) {
				return false, nil
			},
		}
		svc := service.NewRequestService(repo)

		_, err := svc.Resolve(ctx, req.ID.String(), approverID.String(), service.DecisionApprove, "")

		ae := appErr(t, err)
		assert.Equal(t, apperror.CodeAlreadyProcessed, ae.Code)
		assert.Contains(t, ae.Message, "approved")
	})

	t.Run("malformed id", func(t *testing.T) {
		svc := service.NewRequestService(&fakeRequestRepo{})

		_, err := svc.Resolve(ctx, "nope", approverID.String(), service.DecisionApprove, "")

		ae := appErr(t, err)
		assert.Equal(t, apperror.CodeInvalidID, ae.Code)
	})

	t.Run("not found", func(t *testing.T) {
		repo := &fakeRequestRepo{
			FindByIDFn: func(ctx context.Context, id uuid.UUID) (*model.Request, error) {
				return nil, gorm.ErrRecordNotFound
			},
		}
		svc := service.NewRequestService(repo)

		_, err := svc.Resolve(ctx, uuid.NewString(), approverID.String(), service.DecisionApprove, "")

		ae := appErr(t, err)
		assert.Equal(t, apperror.CodeNotFound, ae.Code)
	})
}

func TestRequestService_Lists(t *testing.T) {
	ctx := context.Background()
	creatorID := uuid.New()

	t.Run("list mine passes creator id", func(t *testing.T) {
		repo := &fakeRequestRepo{
			ListByCreatorFn: func(ctx context.Context, id uuid.UUID) ([]model.Request, error) {
				assert.Equal(t, creatorID, id)
				return []model.Request{*pendingRequest(creatorID)}, nil
			},
		}
		svc := service.NewRequestService(repo)

		res, err := svc.ListMine(ctx, creatorID.String())

		assert.NoError(t, err)
		assert.Len(t, res, 1)
	})

	t.Run("list pending filters on status", func(t *testing.T) {
		repo := &fakeRequestRepo{
			ListByStatusFn: func(ctx context.Context, status model.RequestStatus) ([]model.Request, error) {
				assert.Equal(t, model.StatusPending, status)
				return nil, nil
			},
		}
		svc := service.NewRequestService(repo)

		res, err := svc.ListPending(ctx)

		assert.NoError(t, err)
		assert.Empty(t, res)
	})

	t.Run("list all store error", func(t *testing.T) {
		repo := &fakeRequestRepo{
			ListAllFn: func(ctx context.Context) ([]model.Request, error) {
				return nil, errors.New("db down")
			},
		}
		svc := service.NewRequestService(repo)

		_, err := svc.ListAll(ctx)

		ae := appErr(t, err)
		assert.Equal(t, apperror.CodeStore, ae.Code)
	})
}
