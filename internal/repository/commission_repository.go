package repository

import (
	"strings"
	"time"

	"github.com/agd-funnel/internal/constants"
	"github.com/agd-funnel/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CommissionRepository 佣金数据访问接口
type CommissionRepository interface {
	WithTx(tx *gorm.DB) CommissionRepository

	GetByID(id uint) (*models.Commission, error)
	GetByIDForUpdate(id uint) (*models.Commission, error)
	GetByInvestmentAndProfile(investmentID, profileID uint, commissionType string) (*models.Commission, error)
	Create(commission *models.Commission) error
	TransitionFromPending(id uint, status string, updates map[string]interface{}) (bool, error)
	CancelPendingByInvestment(investmentID uint, reason string, now time.Time) (int64, error)
	ListByInvestment(investmentID uint) ([]models.Commission, error)
	List(filter CommissionListFilter) ([]models.Commission, int64, error)
	SumByProfile(profileID uint, statuses []string) (decimal.Decimal, error)
}

// GormCommissionRepository GORM 佣金仓储
type GormCommissionRepository struct {
	db *gorm.DB
}

// NewCommissionRepository 创建佣金仓储
func NewCommissionRepository(db *gorm.DB) *GormCommissionRepository {
	return &GormCommissionRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCommissionRepository) WithTx(tx *gorm.DB) CommissionRepository {
	if tx == nil {
		return r
	}
	return &GormCommissionRepository{db: tx}
}

// GetByID 按ID获取佣金
func (r *GormCommissionRepository) GetByID(id uint) (*models.Commission, error) {
	if id == 0 {
		return nil, nil
	}
	return firstOrNil[models.Commission](r.db.Preload("AffiliateProfile").Preload("Investment").Where("id = ?", id))
}

// GetByIDForUpdate 按ID锁定佣金
func (r *GormCommissionRepository) GetByIDForUpdate(id uint) (*models.Commission, error) {
	if id == 0 {
		return nil, nil
	}
	return firstOrNil[models.Commission](r.db.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id))
}

// GetByInvestmentAndProfile 按投资、推广用户与类型查询佣金
func (r *GormCommissionRepository) GetByInvestmentAndProfile(investmentID, profileID uint, commissionType string) (*models.Commission, error) {
	if investmentID == 0 || profileID == 0 {
		return nil, nil
	}
	ctype := strings.TrimSpace(commissionType)
	if ctype == "" {
		ctype = constants.CommissionTypeDirect
	}
	return firstOrNil[models.Commission](r.db.Where("investment_id = ? AND affiliate_profile_id = ? AND commission_type = ?",
		investmentID, profileID, ctype))
}

// Create 创建佣金
func (r *GormCommissionRepository) Create(commission *models.Commission) error {
	return r.db.Create(commission).Error
}

// TransitionFromPending 仅当佣金仍为待处理时更新状态，返回是否命中
func (r *GormCommissionRepository) TransitionFromPending(id uint, status string, updates map[string]interface{}) (bool, error) {
	if id == 0 {
		return false, nil
	}
	values := map[string]interface{}{"status": status}
	for key, value := range updates {
		values[key] = value
	}
	result := r.db.Model(&models.Commission{}).
		Where("id = ? AND status = ?", id, constants.CommissionStatusPending).
		Updates(values)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// CancelPendingByInvestment 取消某笔投资下所有待处理佣金
func (r *GormCommissionRepository) CancelPendingByInvestment(investmentID uint, reason string, now time.Time) (int64, error) {
	if investmentID == 0 {
		return 0, nil
	}
	result := r.db.Model(&models.Commission{}).
		Where("investment_id = ? AND status = ?", investmentID, constants.CommissionStatusPending).
		Updates(map[string]interface{}{
			"status":        constants.CommissionStatusCancelled,
			"cancelled_at":  now,
			"cancel_reason": strings.TrimSpace(reason),
			"updated_at":    now,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// ListByInvestment 查询某笔投资的佣金
func (r *GormCommissionRepository) ListByInvestment(investmentID uint) ([]models.Commission, error) {
	if investmentID == 0 {
		return []models.Commission{}, nil
	}
	var rows []models.Commission
	if err := r.db.Where("investment_id = ?", investmentID).Order("id asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// List 查询佣金列表
func (r *GormCommissionRepository) List(filter CommissionListFilter) ([]models.Commission, int64, error) {
	query := r.db.Model(&models.Commission{}).
		Preload("AffiliateProfile").
		Preload("Investment")
	if filter.AffiliateProfileID != 0 {
		query = query.Where("affiliate_commissions.affiliate_profile_id = ?", filter.AffiliateProfileID)
	}
	if filter.InvestmentID != 0 {
		query = query.Where("affiliate_commissions.investment_id = ?", filter.InvestmentID)
	}
	if ctype := strings.TrimSpace(filter.CommissionType); ctype != "" {
		query = query.Where("affiliate_commissions.commission_type = ?", ctype)
	}
	if status := strings.TrimSpace(filter.Status); status != "" {
		query = query.Where("affiliate_commissions.status = ?", status)
	}
	query = applyCreatedRange(query, "affiliate_commissions.created_at", filter.CreatedFrom, filter.CreatedTo)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, filter.Page, filter.PageSize)

	var rows []models.Commission
	if err := query.Order("affiliate_commissions.id desc").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// SumByProfile 汇总推广用户指定状态的佣金
func (r *GormCommissionRepository) SumByProfile(profileID uint, statuses []string) (decimal.Decimal, error) {
	if profileID == 0 || len(statuses) == 0 {
		return decimal.Zero, nil
	}
	var row struct {
		Total decimal.Decimal `gorm:"column:total"`
	}
	if err := r.db.Model(&models.Commission{}).
		Where("affiliate_profile_id = ? AND status IN ?", profileID, statuses).
		Select("COALESCE(SUM(amount), 0) AS total").
		Scan(&row).Error; err != nil {
		return decimal.Zero, err
	}
	return row.Total.Round(2), nil
}
