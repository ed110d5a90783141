package repository_test

import (
	"context"
	"strings"
	"testing"

	"approvalflow/internal/model"
	"approvalflow/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// sqlRecorder collects every statement gorm builds so the tests can assert
// on the generated SQL without a live database.
type sqlRecorder struct {
	statements []string
}

func (r *sqlRecorder) all() string { return strings.Join(r.statements, "\n") }

// newDryRunDB opens gorm in dry-run mode over a sqlmock connection. Queries
// and updates are rendered to SQL but never sent to a server.
func newDryRunDB(t *testing.T) (*gorm.DB, *sqlRecorder) {
	t.Helper()

	conn, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("open sqlmock: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: conn}), &gorm.Config{
		DryRun:               true,
		DisableAutomaticPing: true,
		// Dry-run renders SQL without executing it, but gorm's default
		// transaction wrapping would still issue a real Begin on the
		// sqlmock connection, so skip it.
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("open gorm: %v", err)
	}

	rec := &sqlRecorder{}
	if err := db.Callback().Query().After("gorm:query").Register("record_query_sql", func(tx *gorm.DB) {
		rec.statements = append(rec.statements, tx.Statement.SQL.String())
	}); err != nil {
		t.Fatalf("register query callback: %v", err)
	}
	if err := db.Callback().Update().After("gorm:update").Register("record_update_sql", func(tx *gorm.DB) {
		rec.statements = append(rec.statements, tx.Statement.SQL.String())
	}); err != nil {
		t.Fatalf("register update callback: %v", err)
	}
	return db, rec
}

func TestRequestRepository_ListSQL(t *testing.T) {
	ctx := context.Background()

	t.Run("list by creator filters and orders newest first", func(t *testing.T) {
		db, rec := newDryRunDB(t)
		repo := repository.NewRequestRepository(db)

		_, err := repo.ListByCreator(ctx, uuid.New())

		assert.NoError(t, err)
		sql := rec.all()
		assert.Contains(t, sql, `creator_id = $1`)
		assert.Contains(t, sql, `ORDER BY created_at DESC`)
	})

	t.Run("list by status filters and orders newest first", func(t *testing.T) {
		db, rec := newDryRunDB(t)
		repo := repository.NewRequestRepository(db)

		_, err := repo.ListByStatus(ctx, model.StatusPending)

		assert.NoError(t, err)
		sql := rec.all()
		assert.Contains(t, sql, `status = $1`)
		assert.Contains(t, sql, `ORDER BY created_at DESC`)
	})

	t.Run("list all orders newest first", func(t *testing.T) {
		db, rec := newDryRunDB(t)
		repo := repository.NewRequestRepository(db)

		_, err := repo.ListAll(ctx)

		assert.NoError(t, err)
		assert.Contains(t, rec.all(), `ORDER BY created_at DESC`)
	})
}

func TestRequestRepository_ResolveIfPendingSQL(t *testing.T) {
	db, rec := newDryRunDB(t)
	repo := repository.NewRequestRepository(db)

	reason := "out of budget"
	_, err := repo.ResolveIfPending(context.Background(), uuid.New(), repository.Resolution{
		Status:          model.StatusRejected,
		ApprovedByID:    uuid.New(),
		RejectionReason: &reason,
	})

	assert.NoError(t, err)
	sql := rec.all()
	// The PENDING guard must be part of the UPDATE itself so concurrent
	// resolvers cannot both win.
	assert.Contains(t, sql, `UPDATE "requests" SET`)
	assert.Contains(t, sql, `WHERE id = `)
	assert.Contains(t, sql, `AND status = `)
}
