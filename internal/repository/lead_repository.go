package repository

import (
	"strings"

	"github.com/agd-funnel/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LeadRepository 漏斗线索数据访问接口
type LeadRepository interface {
	CreateOnce(lead *models.Lead) (bool, error)
	List(filter LeadListFilter) ([]models.Lead, int64, error)
}

// GormLeadRepository GORM 实现
type GormLeadRepository struct {
	db *gorm.DB
}

// NewLeadRepository 创建线索仓库
func NewLeadRepository(db *gorm.DB) *GormLeadRepository {
	return &GormLeadRepository{db: db}
}

// CreateOnce 按会话写入线索，会话已存在线索时不重复写入
func (r *GormLeadRepository) CreateOnce(lead *models.Lead) (bool, error) {
	if lead == nil {
		return false, nil
	}
	result := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_id"}},
		DoNothing: true,
	}).Create(lead)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// List 查询线索列表
func (r *GormLeadRepository) List(filter LeadListFilter) ([]models.Lead, int64, error) {
	query := r.db.Model(&models.Lead{})
	if email := strings.ToLower(strings.TrimSpace(filter.Email)); email != "" {
		query = query.Where("email = ?", email)
	}
	if segment := strings.TrimSpace(filter.ProfileSegment); segment != "" {
		query = query.Where("profile_segment = ?", segment)
	}
	if branch := strings.TrimSpace(filter.Branch); branch != "" {
		query = query.Where("branch = ?", branch)
	}
	if code := NormalizeAffiliateCode(filter.AffiliateCode); code != "" {
		query = query.Where("affiliate_code = ?", code)
	}
	query = applyCreatedRange(query, "created_at", filter.CreatedFrom, filter.CreatedTo)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, filter.Page, filter.PageSize)

	var rows []models.Lead
	if err := query.Order("id desc").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
