package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/brokercrm/backend/internal/domain/payment"
	"github.com/brokercrm/backend/internal/domain/shared"
	"github.com/brokercrm/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupPaymentTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&models.PaymentModel{}, &models.PaymentEntryModel{})
	require.NoError(t, err)

	return db
}

func newPersistedPayment(t *testing.T, repo *GormPaymentRepository) *payment.Payment {
	t.Helper()
	p, err := payment.NewPayment(payment.NewPaymentParams{
		DealID:        uuid.New(),
		ClientID:      uuid.New(),
		PolicyID:      uuid.New(),
		Sequence:      1,
		PlannedAmount: decimal.NewFromInt(100000),
		PlannedDate:   time.Now().AddDate(0, 1, 0),
		CreatedBy:     "manager-1",
	})
	require.NoError(t, err)
	require.NoError(t, repo.Save(context.Background(), p))
	return p
}

func TestPaymentRepository_SaveAndFindByID(t *testing.T) {
	db := setupPaymentTestDB(t)
	repo := NewGormPaymentRepository(db)
	ctx := context.Background()

	t.Run("round trips the aggregate with entries", func(t *testing.T) {
		p := newPersistedPayment(t, repo)

		income, err := p.AddIncome(payment.NewEntryParams{
			Category:        "agent_commission",
			PlannedAmount:   decimal.NewFromInt(15000),
			PlannedPostedAt: time.Now().AddDate(0, 1, 5),
			CreatedBy:       "manager-1",
		})
		require.NoError(t, err)
		_, err = p.AddExpense(payment.NewEntryParams{
			Category:        "courier",
			PlannedAmount:   decimal.NewFromInt(2000),
			PlannedPostedAt: time.Now().AddDate(0, 1, 5),
			CreatedBy:       "manager-1",
		})
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, p))

		found, err := repo.FindByID(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, p.ID, found.ID)
		assert.Equal(t, p.PolicyID, found.PolicyID)
		assert.Equal(t, 1, found.Sequence)
		assert.Equal(t, payment.StatusPlanned, found.Status)
		assert.True(t, found.PlannedAmount.Equal(decimal.NewFromInt(100000)))
		require.Len(t, found.Incomes, 1)
		require.Len(t, found.Expenses, 1)
		assert.Equal(t, income.ID, found.Incomes[0].ID)
		assert.Equal(t, "agent_commission", found.Incomes[0].Category)
		assert.True(t, found.NetTotal.Equal(decimal.NewFromInt(13000)))
		// Creation is recorded in the payment history
		assert.Equal(t, 1, found.History.Len())
	})

	t.Run("returns not found for unknown id", func(t *testing.T) {
		_, err := repo.FindByID(ctx, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestPaymentRepository_FindByPolicyAndSequence(t *testing.T) {
	db := setupPaymentTestDB(t)
	repo := NewGormPaymentRepository(db)
	ctx := context.Background()

	p := newPersistedPayment(t, repo)

	t.Run("finds the payment holding the slot", func(t *testing.T) {
		found, err := repo.FindByPolicyAndSequence(ctx, p.PolicyID, 1)
		require.NoError(t, err)
		assert.Equal(t, p.ID, found.ID)
	})

	t.Run("returns not found for a free slot", func(t *testing.T) {
		_, err := repo.FindByPolicyAndSequence(ctx, p.PolicyID, 2)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestPaymentRepository_FindAllAndCount(t *testing.T) {
	db := setupPaymentTestDB(t)
	repo := NewGormPaymentRepository(db)
	ctx := context.Background()

	policyID := uuid.New()
	dealID := uuid.New()
	clientID := uuid.New()
	for i := 1; i <= 3; i++ {
		p, err := payment.NewPayment(payment.NewPaymentParams{
			DealID:        dealID,
			ClientID:      clientID,
			PolicyID:      policyID,
			Sequence:      i,
			PlannedAmount: decimal.NewFromInt(int64(10000 * i)),
			PlannedDate:   time.Now().AddDate(0, i, 0),
			CreatedBy:     "manager-1",
		})
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, p))
	}
	newPersistedPayment(t, repo) // a payment on another policy

	t.Run("filters by policy", func(t *testing.T) {
		filter := payment.Filter{Filter: shared.DefaultFilter()}
		filter.PolicyID = &policyID

		payments, err := repo.FindAll(ctx, filter)
		require.NoError(t, err)
		assert.Len(t, payments, 3)

		count, err := repo.Count(ctx, filter)
		require.NoError(t, err)
		assert.Equal(t, int64(3), count)
	})

	t.Run("filters by status", func(t *testing.T) {
		status := payment.StatusPlanned
		filter := payment.Filter{Filter: shared.DefaultFilter()}
		filter.Status = &status

		count, err := repo.Count(ctx, filter)
		require.NoError(t, err)
		assert.Equal(t, int64(4), count)
	})

	t.Run("paginates with ordering", func(t *testing.T) {
		filter := payment.Filter{Filter: shared.Filter{Page: 1, PageSize: 2, OrderBy: "sequence", OrderDir: "asc"}}
		filter.PolicyID = &policyID

		payments, err := repo.FindAll(ctx, filter)
		require.NoError(t, err)
		require.Len(t, payments, 2)
		assert.Equal(t, 1, payments[0].Sequence)
		assert.Equal(t, 2, payments[1].Sequence)
	})

	t.Run("unknown sort column falls back to created_at", func(t *testing.T) {
		filter := payment.Filter{Filter: shared.Filter{Page: 1, PageSize: 10, OrderBy: "history; DROP TABLE payments", OrderDir: "asc"}}

		payments, err := repo.FindAll(ctx, filter)
		require.NoError(t, err)
		assert.Len(t, payments, 4)
	})
}

func TestPaymentRepository_SaveWithLock(t *testing.T) {
	db := setupPaymentTestDB(t)
	repo := NewGormPaymentRepository(db)
	ctx := context.Background()

	t.Run("persists a mutated aggregate", func(t *testing.T) {
		p := newPersistedPayment(t, repo)

		require.NoError(t, p.Confirm(decimal.NewFromInt(100000), time.Now(), "manager-1", "manager", ""))
		require.NoError(t, repo.SaveWithLock(ctx, p))

		found, err := repo.FindByID(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, payment.StatusReceived, found.Status)
		assert.Equal(t, payment.ConfirmationConfirmed, found.ConfirmationStatus)
		assert.Equal(t, p.Version, found.Version)
	})

	t.Run("persists plan updates including the schedule slot", func(t *testing.T) {
		p := newPersistedPayment(t, repo)

		seq := 7
		amount := decimal.NewFromInt(120000)
		require.NoError(t, p.UpdatePlan(payment.PlanPatch{Sequence: &seq, PlannedAmount: &amount}, "manager-1"))
		require.NoError(t, repo.SaveWithLock(ctx, p))

		found, err := repo.FindByID(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, 7, found.Sequence)
		assert.True(t, found.PlannedAmount.Equal(amount))
		assert.Equal(t, p.Version, found.Version)
		assert.Equal(t, p.History.Len(), found.History.Len())
	})

	t.Run("rejects a stale write", func(t *testing.T) {
		p := newPersistedPayment(t, repo)

		stale, err := repo.FindByID(ctx, p.ID)
		require.NoError(t, err)

		require.NoError(t, p.Cancel("client withdrew", "manager-1"))
		require.NoError(t, repo.SaveWithLock(ctx, p))

		require.NoError(t, stale.Confirm(decimal.NewFromInt(100000), time.Now(), "manager-2", "manager", ""))
		err = repo.SaveWithLock(ctx, stale)
		require.Error(t, err)
		assert.True(t, shared.IsConflictError(err))
	})

	t.Run("clears actuals on revoke", func(t *testing.T) {
		p := newPersistedPayment(t, repo)

		require.NoError(t, p.Confirm(decimal.NewFromInt(100000), time.Now(), "manager-1", "manager", ""))
		require.NoError(t, repo.SaveWithLock(ctx, p))

		require.NoError(t, p.RevokeConfirmation("manager-1"))
		require.NoError(t, repo.SaveWithLock(ctx, p))

		found, err := repo.FindByID(ctx, p.ID)
		require.NoError(t, err)
		assert.Nil(t, found.ActualAmount)
		assert.Nil(t, found.ActualDate)
		assert.Equal(t, payment.StatusExpected, found.Status)
		assert.Equal(t, payment.ConfirmationPending, found.ConfirmationStatus)
	})

	t.Run("removes deleted entry rows", func(t *testing.T) {
		p := newPersistedPayment(t, repo)

		entry, err := p.AddIncome(payment.NewEntryParams{
			Category:        "agent_commission",
			PlannedAmount:   decimal.NewFromInt(5000),
			PlannedPostedAt: time.Now().AddDate(0, 1, 0),
			CreatedBy:       "manager-1",
		})
		require.NoError(t, err)
		require.NoError(t, repo.SaveWithLock(ctx, p))

		require.NoError(t, p.RemoveEntry(entry.ID))
		require.NoError(t, repo.SaveWithLock(ctx, p))

		found, err := repo.FindByID(ctx, p.ID)
		require.NoError(t, err)
		assert.Empty(t, found.Incomes)

		var rows int64
		require.NoError(t, db.Model(&models.PaymentEntryModel{}).
			Where("payment_id = ?", p.ID).Count(&rows).Error)
		assert.Equal(t, int64(0), rows)
	})
}

func TestPaymentRepository_Delete(t *testing.T) {
	db := setupPaymentTestDB(t)
	repo := NewGormPaymentRepository(db)
	ctx := context.Background()

	t.Run("deletes the payment and its entries", func(t *testing.T) {
		p := newPersistedPayment(t, repo)
		_, err := p.AddIncome(payment.NewEntryParams{
			Category:        "agent_commission",
			PlannedAmount:   decimal.NewFromInt(5000),
			PlannedPostedAt: time.Now().AddDate(0, 1, 0),
			CreatedBy:       "manager-1",
		})
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, p))

		require.NoError(t, repo.Delete(ctx, p.ID, p.Version))

		_, err = repo.FindByID(ctx, p.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)

		var rows int64
		require.NoError(t, db.Model(&models.PaymentEntryModel{}).
			Where("payment_id = ?", p.ID).Count(&rows).Error)
		assert.Equal(t, int64(0), rows)
	})

	t.Run("returns not found for unknown id", func(t *testing.T) {
		err := repo.Delete(ctx, uuid.New(), 1)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("concurrent confirmation wins over a stale delete", func(t *testing.T) {
		p := newPersistedPayment(t, repo)
		staleVersion := p.Version

		require.NoError(t, p.Confirm(decimal.NewFromInt(100000), time.Now(), "manager-2", "manager", ""))
		require.NoError(t, repo.SaveWithLock(ctx, p))

		err := repo.Delete(ctx, p.ID, staleVersion)
		require.Error(t, err)
		assert.True(t, shared.IsConflictError(err))

		found, err := repo.FindByID(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, payment.StatusReceived, found.Status)
	})
}
