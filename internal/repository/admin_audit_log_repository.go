package repository

import (
	"strings"

	"github.com/agd-funnel/internal/models"

	"gorm.io/gorm"
)

// AdminAuditLogRepository 后台审计日志数据访问接口
type AdminAuditLogRepository interface {
	WithTx(tx *gorm.DB) AdminAuditLogRepository
	Create(log *models.AdminAuditLog) error
	List(filter AdminAuditLogListFilter) ([]models.AdminAuditLog, int64, error)
}

// GormAdminAuditLogRepository GORM 实现
type GormAdminAuditLogRepository struct {
	db *gorm.DB
}

// NewAdminAuditLogRepository 创建审计日志仓库
func NewAdminAuditLogRepository(db *gorm.DB) *GormAdminAuditLogRepository {
	return &GormAdminAuditLogRepository{db: db}
}

// WithTx 绑定事务
func (r *GormAdminAuditLogRepository) WithTx(tx *gorm.DB) AdminAuditLogRepository {
	if tx == nil {
		return r
	}
	return &GormAdminAuditLogRepository{db: tx}
}

// Create 写入审计日志
func (r *GormAdminAuditLogRepository) Create(log *models.AdminAuditLog) error {
	if log == nil {
		return nil
	}
	return r.db.Create(log).Error
}

// List 查询审计日志
func (r *GormAdminAuditLogRepository) List(filter AdminAuditLogListFilter) ([]models.AdminAuditLog, int64, error) {
	query := r.db.Model(&models.AdminAuditLog{})
	if filter.OperatorAdminID != 0 {
		query = query.Where("operator_admin_id = ?", filter.OperatorAdminID)
	}
	if action := strings.TrimSpace(filter.Action); action != "" {
		query = query.Where("action = ?", action)
	}
	if targetType := strings.TrimSpace(filter.TargetType); targetType != "" {
		query = query.Where("target_type = ?", targetType)
	}
	if filter.TargetID != 0 {
		query = query.Where("target_id = ?", filter.TargetID)
	}
	query = applyCreatedRange(query, "created_at", filter.CreatedFrom, filter.CreatedTo)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, filter.Page, filter.PageSize)

	var rows []models.AdminAuditLog
	if err := query.Order("id desc").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
