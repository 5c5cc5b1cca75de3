package repository

import (
	"strings"
	"time"

	"github.com/agd-funnel/internal/models"

	"gorm.io/gorm"
)

// AdminRepository 管理员数据访问接口
type AdminRepository interface {
	GetByUsername(username string) (*models.Admin, error)
	GetByID(id uint) (*models.Admin, error)
	Create(admin *models.Admin) error
	UpdateLastLogin(id uint, at time.Time) error
}

// GormAdminRepository GORM 实现
type GormAdminRepository struct {
	db *gorm.DB
}

// NewAdminRepository 创建管理员仓库
func NewAdminRepository(db *gorm.DB) *GormAdminRepository {
	return &GormAdminRepository{db: db}
}

// GetByUsername 按账号查询，账号区分大小写
func (r *GormAdminRepository) GetByUsername(username string) (*models.Admin, error) {
	name := strings.TrimSpace(username)
	if name == "" {
		return nil, nil
	}
	return firstOrNil[models.Admin](r.db.Where("username = ?", name))
}

// GetByID 按 ID 查询，鉴权快照回源时使用
func (r *GormAdminRepository) GetByID(id uint) (*models.Admin, error) {
	if id == 0 {
		return nil, nil
	}
	return firstOrNil[models.Admin](r.db.Where("id = ?", id))
}

// Create 创建管理员，账号冲突时返回数据库错误
func (r *GormAdminRepository) Create(admin *models.Admin) error {
	return r.db.Create(admin).Error
}

// UpdateLastLogin 记录登录时间，不触碰 updated_at 与令牌版本
func (r *GormAdminRepository) UpdateLastLogin(id uint, at time.Time) error {
	if id == 0 {
		return nil
	}
	return r.db.Model(&models.Admin{}).Where("id = ?", id).UpdateColumn("last_login_at", at).Error
}
