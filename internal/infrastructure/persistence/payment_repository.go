package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/brokercrm/backend/internal/domain/payment"
	"github.com/brokercrm/backend/internal/domain/shared"
	"github.com/brokercrm/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormPaymentRepository implements payment.Repository using GORM
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// FindByID finds a payment by its ID, entries included
func (r *GormPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*payment.Payment, error) {
	var model models.PaymentModel
	if err := r.db.WithContext(ctx).
		Preload("Entries", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByPolicyAndSequence finds the payment holding a given slot in a policy's schedule
func (r *GormPaymentRepository) FindByPolicyAndSequence(ctx context.Context, policyID uuid.UUID, sequence int) (*payment.Payment, error) {
	var model models.PaymentModel
	if err := r.db.WithContext(ctx).
		Preload("Entries", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Where("policy_id = ? AND sequence = ?", policyID, sequence).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll finds payments matching the filter, paginated
func (r *GormPaymentRepository) FindAll(ctx context.Context, filter payment.Filter) ([]payment.Payment, error) {
	var paymentModels []models.PaymentModel
	query := r.db.WithContext(ctx).Model(&models.PaymentModel{}).
		Preload("Entries", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		})
	query = r.applyFilter(query, filter)
	query = r.applyPagination(query, filter)

	if err := query.Find(&paymentModels).Error; err != nil {
		return nil, err
	}
	payments := make([]payment.Payment, len(paymentModels))
	for i, model := range paymentModels {
		payments[i] = *model.ToDomain()
	}
	return payments, nil
}

// Count counts payments matching the filter
func (r *GormPaymentRepository) Count(ctx context.Context, filter payment.Filter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.PaymentModel{})
	query = r.applyFilter(query, filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates a payment together with its entries
func (r *GormPaymentRepository) Save(ctx context.Context, p *payment.Payment) error {
	model := models.PaymentModelFromDomain(p)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Entries").Save(model).Error; err != nil {
			return err
		}
		return r.syncEntries(tx, model)
	})
}

// SaveWithLock saves with optimistic locking.
// The domain increments the version before save, so the row must still
// carry the previous version for the write to land.
func (r *GormPaymentRepository) SaveWithLock(ctx context.Context, p *payment.Payment) error {
	model := models.PaymentModelFromDomain(p)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.PaymentModel{}).
			Where("id = ? AND version = ?", p.ID, p.Version-1).
			Updates(map[string]interface{}{
				"sequence":              model.Sequence,
				"currency":              model.Currency,
				"planned_amount":        model.PlannedAmount,
				"actual_amount":         model.ActualAmount,
				"planned_date":          model.PlannedDate,
				"actual_date":           model.ActualDate,
				"status":                model.Status,
				"confirmation_status":   model.ConfirmationStatus,
				"incomes_total":         model.IncomesTotal,
				"expenses_total":        model.ExpensesTotal,
				"net_total":             model.NetTotal,
				"recorded_by":           model.RecordedBy,
				"recorded_by_role":      model.RecordedByRole,
				"comment":               model.Comment,
				"status_before_confirm": model.StatusBeforeConfirm,
				"history":               model.History,
				"version":               model.Version,
				"updated_at":            model.UpdatedAt,
			})

		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.NewDomainError("OPTIMISTIC_LOCK_ERROR", "The record has been modified by another transaction")
		}
		return r.syncEntries(tx, model)
	})
}

// Delete removes a payment and its entries. The version guard makes a
// concurrent confirmation win over the delete instead of being wiped out.
func (r *GormPaymentRepository) Delete(ctx context.Context, id uuid.UUID, version int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ? AND version = ?", id, version).
			Delete(&models.PaymentModel{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&models.PaymentModel{}).
				Where("id = ?", id).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return shared.ErrNotFound
			}
			return shared.NewDomainError("OPTIMISTIC_LOCK_ERROR", "The record has been modified by another transaction")
		}
		return tx.Where("payment_id = ?", id).
			Delete(&models.PaymentEntryModel{}).Error
	})
}

// syncEntries reconciles entry rows with the aggregate: rows no longer
// present are deleted, the rest are upserted.
func (r *GormPaymentRepository) syncEntries(tx *gorm.DB, model *models.PaymentModel) error {
	currentIDs := make([]uuid.UUID, len(model.Entries))
	for i, entry := range model.Entries {
		currentIDs[i] = entry.ID
	}

	if len(currentIDs) > 0 {
		if err := tx.Where("payment_id = ? AND id NOT IN ?", model.ID, currentIDs).
			Delete(&models.PaymentEntryModel{}).Error; err != nil {
			return err
		}
	} else {
		if err := tx.Where("payment_id = ?", model.ID).
			Delete(&models.PaymentEntryModel{}).Error; err != nil {
			return err
		}
	}

	for i := range model.Entries {
		if err := tx.Save(&model.Entries[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *GormPaymentRepository) applyFilter(query *gorm.DB, filter payment.Filter) *gorm.DB {
	if filter.DealID != nil {
		query = query.Where("deal_id = ?", *filter.DealID)
	}
	if filter.ClientID != nil {
		query = query.Where("client_id = ?", *filter.ClientID)
	}
	if filter.PolicyID != nil {
		query = query.Where("policy_id = ?", *filter.PolicyID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.ConfirmationStatus != nil {
		query = query.Where("confirmation_status = ?", *filter.ConfirmationStatus)
	}
	if filter.PlannedFrom != nil {
		query = query.Where("planned_date >= ?", *filter.PlannedFrom)
	}
	if filter.PlannedTo != nil {
		query = query.Where("planned_date <= ?", *filter.PlannedTo)
	}
	if filter.Overdue != nil && *filter.Overdue {
		query = query.Where("planned_date < ? AND status IN ?", time.Now(),
			[]payment.Status{payment.StatusPlanned, payment.StatusExpected})
	}
	return query
}

func (r *GormPaymentRepository) applyPagination(query *gorm.DB, filter payment.Filter) *gorm.DB {
	orderBy := ValidateSortField(filter.OrderBy, PaymentSortFields, "created_at")
	orderDir := ValidateSortOrder(filter.OrderDir)
	query = query.Order(fmt.Sprintf("%s %s", orderBy, orderDir))

	if filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		if offset < 0 {
			offset = 0
		}
		query = query.Offset(offset).Limit(filter.PageSize)
	}
	return query
}
