package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/agd-funnel/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SettingRepository 设置数据访问接口
type SettingRepository interface {
	GetByKey(key string) (*models.Setting, error)
	Upsert(key string, value models.JSON) (*models.Setting, error)
}

// GormSettingRepository GORM 实现
type GormSettingRepository struct {
	db *gorm.DB
}

// NewSettingRepository 创建设置仓库
func NewSettingRepository(db *gorm.DB) *GormSettingRepository {
	return &GormSettingRepository{db: db}
}

// GetByKey 获取设置，不存在时返回 nil
func (r *GormSettingRepository) GetByKey(key string) (*models.Setting, error) {
	normalized := strings.TrimSpace(key)
	if normalized == "" {
		return nil, nil
	}
	return firstOrNil[models.Setting](r.db.Where("key = ?", normalized))
}

// Upsert 写入设置（按键覆盖），佣金与验证码设置都经此落库
func (r *GormSettingRepository) Upsert(key string, value models.JSON) (*models.Setting, error) {
	normalized := strings.TrimSpace(key)
	if normalized == "" {
		return nil, errors.New("setting key is required")
	}
	setting := &models.Setting{
		Key:       normalized,
		ValueJSON: value,
		UpdatedAt: time.Now(),
	}
	if err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value_json", "updated_at"}),
	}).Create(setting).Error; err != nil {
		return nil, err
	}
	return setting, nil
}
