package repository

import (
	"context"

	"gorm.io/gorm"

	"drinkup/internal/db"
)

// AuditRepository appends admin actions and abuse reports. Both are
// write-once from the core's point of view.
type AuditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(database *gorm.DB) *AuditRepository {
	return &AuditRepository{db: database}
}

func (r *AuditRepository) AppendLog(ctx context.Context, entry *db.AuditLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *AuditRepository) AppendReport(ctx context.Context, report *db.AbuseReport) error {
	return r.db.WithContext(ctx).Create(report).Error
}

// AppendPayment records a confirmed purchase.
func (r *AuditRepository) AppendPayment(ctx context.Context, payment *db.Payment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}
