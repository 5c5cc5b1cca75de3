package repository

import (
	"strings"
	"time"

	"github.com/agd-funnel/internal/models"

	"gorm.io/gorm"
)

// IdentityRepository 身份数据访问接口
type IdentityRepository interface {
	GetByEmail(email string) (*models.Identity, error)
	GetByID(id uint) (*models.Identity, error)
	Create(identity *models.Identity) error
	UpdateLastLogin(id uint, at time.Time) error
}

// GormIdentityRepository GORM 实现
type GormIdentityRepository struct {
	db *gorm.DB
}

// NewIdentityRepository 创建身份仓库
func NewIdentityRepository(db *gorm.DB) *GormIdentityRepository {
	return &GormIdentityRepository{db: db}
}

// GetByEmail 根据邮箱获取身份（邮箱统一小写）
func (r *GormIdentityRepository) GetByEmail(email string) (*models.Identity, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))
	if normalized == "" {
		return nil, nil
	}
	return firstOrNil[models.Identity](r.db.Where("email = ?", normalized))
}

// GetByID 根据 ID 获取身份
func (r *GormIdentityRepository) GetByID(id uint) (*models.Identity, error) {
	if id == 0 {
		return nil, nil
	}
	return firstOrNil[models.Identity](r.db.Where("id = ?", id))
}

// Create 创建身份（邮箱唯一，冲突时返回数据库错误）
func (r *GormIdentityRepository) Create(identity *models.Identity) error {
	return r.db.Create(identity).Error
}

// UpdateLastLogin 更新最后登录时间
func (r *GormIdentityRepository) UpdateLastLogin(id uint, at time.Time) error {
	if id == 0 {
		return nil
	}
	return r.db.Model(&models.Identity{}).Where("id = ?", id).UpdateColumn("last_login_at", at).Error
}
