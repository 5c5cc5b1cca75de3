package repository

import (
	"strings"
	"time"

	"github.com/agd-funnel/internal/constants"
	"github.com/agd-funnel/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// InvestmentRepository 投资（销售）数据访问接口
type InvestmentRepository interface {
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) InvestmentRepository

	Create(investment *models.Investment) error
	GetByID(id uint) (*models.Investment, error)
	GetByIDForUpdate(id uint) (*models.Investment, error)
	GetByPaymentRef(ref string) (*models.Investment, error)
	TransitionFromPending(id uint, status string, updates map[string]interface{}) (bool, error)
	UpdatePixCharge(id uint, ref, copyPaste, qrCode string, expiresAt *time.Time) error
	ListByIdentity(identityID uint) ([]models.Investment, error)
	ListPendingPixExpired(before time.Time, limit int) ([]models.Investment, error)
	List(filter InvestmentListFilter) ([]models.Investment, int64, error)
}

// GormInvestmentRepository GORM 投资仓储
type GormInvestmentRepository struct {
	db *gorm.DB
}

// NewInvestmentRepository 创建投资仓储
func NewInvestmentRepository(db *gorm.DB) *GormInvestmentRepository {
	return &GormInvestmentRepository{db: db}
}

// WithTx 绑定事务
func (r *GormInvestmentRepository) WithTx(tx *gorm.DB) InvestmentRepository {
	if tx == nil {
		return r
	}
	return &GormInvestmentRepository{db: tx}
}

// Transaction 执行事务
func (r *GormInvestmentRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// Create 创建投资
func (r *GormInvestmentRepository) Create(investment *models.Investment) error {
	return r.db.Create(investment).Error
}

// GetByID 按ID获取投资
func (r *GormInvestmentRepository) GetByID(id uint) (*models.Investment, error) {
	if id == 0 {
		return nil, nil
	}
	return firstOrNil[models.Investment](r.db.Where("id = ?", id))
}

// GetByIDForUpdate 按ID锁定投资
func (r *GormInvestmentRepository) GetByIDForUpdate(id uint) (*models.Investment, error) {
	if id == 0 {
		return nil, nil
	}
	return firstOrNil[models.Investment](r.db.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id))
}

// GetByPaymentRef 按 PIX 支付单号获取投资
func (r *GormInvestmentRepository) GetByPaymentRef(ref string) (*models.Investment, error) {
	normalized := strings.TrimSpace(ref)
	if normalized == "" {
		return nil, nil
	}
	return firstOrNil[models.Investment](r.db.Where("payment_ref = ?", normalized))
}

// TransitionFromPending 仅当投资仍为待确认时更新状态，返回是否命中
func (r *GormInvestmentRepository) TransitionFromPending(id uint, status string, updates map[string]interface{}) (bool, error) {
	if id == 0 {
		return false, nil
	}
	values := map[string]interface{}{"status": status}
	for key, value := range updates {
		values[key] = value
	}
	result := r.db.Model(&models.Investment{}).
		Where("id = ? AND status = ?", id, constants.InvestmentStatusPending).
		Updates(values)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// UpdatePixCharge 回写 PIX 收款信息
func (r *GormInvestmentRepository) UpdatePixCharge(id uint, ref, copyPaste, qrCode string, expiresAt *time.Time) error {
	if id == 0 {
		return nil
	}
	return r.db.Model(&models.Investment{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"payment_ref":    strings.TrimSpace(ref),
			"pix_copy_paste": copyPaste,
			"pix_qr_code":    qrCode,
			"pix_expires_at": expiresAt,
		}).Error
}

// ListByIdentity 查询买家的全部投资
func (r *GormInvestmentRepository) ListByIdentity(identityID uint) ([]models.Investment, error) {
	if identityID == 0 {
		return []models.Investment{}, nil
	}
	var rows []models.Investment
	if err := r.db.Where("identity_id = ?", identityID).Order("id asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListPendingPixExpired 查询 PIX 已过期但仍待确认的投资
func (r *GormInvestmentRepository) ListPendingPixExpired(before time.Time, limit int) ([]models.Investment, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []models.Investment
	if err := r.db.Where("status = ? AND pix_expires_at IS NOT NULL AND pix_expires_at <= ?",
		constants.InvestmentStatusPending, before).
		Order("id asc").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// List 查询投资列表
func (r *GormInvestmentRepository) List(filter InvestmentListFilter) ([]models.Investment, int64, error) {
	query := r.db.Model(&models.Investment{}).Preload("Identity")
	if filter.IdentityID != 0 {
		query = query.Where("investments.identity_id = ?", filter.IdentityID)
	}
	if filter.AffiliateProfileID != 0 {
		query = query.Where("investments.affiliate_profile_id = ?", filter.AffiliateProfileID)
	}
	if planID := strings.TrimSpace(filter.PlanID); planID != "" {
		query = query.Where("investments.plan_id = ?", planID)
	}
	if status := strings.TrimSpace(filter.Status); status != "" {
		query = query.Where("investments.status = ?", status)
	}
	query = applyCreatedRange(query, "investments.created_at", filter.CreatedFrom, filter.CreatedTo)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, filter.Page, filter.PageSize)

	var rows []models.Investment
	if err := query.Order("investments.id desc").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
