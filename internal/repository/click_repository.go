package repository

import (
	"errors"

	"github.com/earnko/internal/models"

	"gorm.io/gorm"
)

// ClickRepository 点击记录数据访问接口
type ClickRepository interface {
	Create(click *models.Click) error
	GetByClickID(clickID string) (*models.Click, error)
	AttachAffiliateLink(clickID, link string) (int64, error)
	WithTx(tx *gorm.DB) ClickRepository
}

// GormClickRepository GORM 实现
type GormClickRepository struct {
	db *gorm.DB
}

// NewClickRepository 创建点击仓库
func NewClickRepository(db *gorm.DB) *GormClickRepository {
	return &GormClickRepository{db: db}
}

// WithTx 绑定事务
func (r *GormClickRepository) WithTx(tx *gorm.DB) ClickRepository {
	if tx == nil {
		return r
	}
	return &GormClickRepository{db: tx}
}

// Create 创建点击
func (r *GormClickRepository) Create(click *models.Click) error {
	return r.db.Create(click).Error
}

// GetByClickID 按点击 ID 获取
func (r *GormClickRepository) GetByClickID(clickID string) (*models.Click, error) {
	if clickID == "" {
		return nil, nil
	}
	var click models.Click
	if err := r.db.Where("click_id = ?", clickID).First(&click).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &click, nil
}

// AttachAffiliateLink 仅在尚未写入时写入联盟链接，返回影响行数
func (r *GormClickRepository) AttachAffiliateLink(clickID, link string) (int64, error) {
	res := r.db.Model(&models.Click{}).
		Where("click_id = ? AND (affiliate_link = '' OR affiliate_link IS NULL)", clickID).
		Update("affiliate_link", link)
	return res.RowsAffected, res.Error
}
