package repository

import (
	"time"

	"github.com/earnko/internal/constants"
	"github.com/earnko/internal/models"

	"gorm.io/gorm"
)

// WebhookEventRepository 回调事件数据访问接口
type WebhookEventRepository interface {
	Create(event *models.WebhookEvent) error
	MarkProcessed(id uint, transactionID *uint, at time.Time) error
	MarkError(id uint, reason string, at time.Time) error
	ListStale(before time.Time, limit int) ([]models.WebhookEvent, error)
	List(filter WebhookEventListFilter) ([]models.WebhookEvent, int64, error)
	WithTx(tx *gorm.DB) WebhookEventRepository
}

// GormWebhookEventRepository GORM 实现
type GormWebhookEventRepository struct {
	db *gorm.DB
}

// NewWebhookEventRepository 创建回调事件仓库
func NewWebhookEventRepository(db *gorm.DB) *GormWebhookEventRepository {
	return &GormWebhookEventRepository{db: db}
}

// WithTx 绑定事务
func (r *GormWebhookEventRepository) WithTx(tx *gorm.DB) WebhookEventRepository {
	if tx == nil {
		return r
	}
	return &GormWebhookEventRepository{db: tx}
}

// Create 写入事件
func (r *GormWebhookEventRepository) Create(event *models.WebhookEvent) error {
	return r.db.Create(event).Error
}

// MarkProcessed 标记处理成功
func (r *GormWebhookEventRepository) MarkProcessed(id uint, transactionID *uint, at time.Time) error {
	return r.db.Model(&models.WebhookEvent{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":         constants.WebhookEventStatusProcessed,
		"transaction_id": transactionID,
		"error":          "",
		"processed_at":   at,
	}).Error
}

// MarkError 标记处理失败
func (r *GormWebhookEventRepository) MarkError(id uint, reason string, at time.Time) error {
	if len(reason) > 255 {
		reason = reason[:255]
	}
	return r.db.Model(&models.WebhookEvent{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":       constants.WebhookEventStatusError,
		"error":        reason,
		"processed_at": at,
	}).Error
}

// ListStale 长时间停留在 received 的事件
func (r *GormWebhookEventRepository) ListStale(before time.Time, limit int) ([]models.WebhookEvent, error) {
	var events []models.WebhookEvent
	query := r.db.Where("status = ? AND created_at < ?", constants.WebhookEventStatusReceived, before).Order("id asc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

// List 事件列表
func (r *GormWebhookEventRepository) List(filter WebhookEventListFilter) ([]models.WebhookEvent, int64, error) {
	query := r.db.Model(&models.WebhookEvent{})
	if filter.Source != "" {
		query = query.Where("source = ?", filter.Source)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var events []models.WebhookEvent
	if err := applyPagination(query, filter.Page, filter.PageSize).Order("id desc").Find(&events).Error; err != nil {
		return nil, 0, err
	}
	return events, total, nil
}
