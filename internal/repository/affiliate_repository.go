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

// AffiliateRepository 推广档案、点击与归因数据访问接口
type AffiliateRepository interface {
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) AffiliateRepository

	GetProfileByID(id uint) (*models.AffiliateProfile, error)
	GetProfileByIDForUpdate(id uint) (*models.AffiliateProfile, error)
	GetProfileByIdentityID(identityID uint) (*models.AffiliateProfile, error)
	GetProfileByCode(code string) (*models.AffiliateProfile, error)
	CreateProfile(profile *models.AffiliateProfile) error
	UpdateProfileStatus(id uint, status string, updatedAt time.Time) error
	ListProfiles(filter AffiliateProfileListFilter) ([]models.AffiliateProfile, int64, error)
	IncrementClickCount(profileID uint) error
	AddSaleTotals(profileID uint, saleAmount, commissionAmount decimal.Decimal) error
	GetProfileStatsBatch(profileIDs []uint) (map[uint]AffiliateProfileStatsAggregate, error)

	CreateClick(click *models.AffiliateClick) error
	HasRecentClick(profileID uint, visitorKey, destination string, since time.Time) (bool, error)
	CountClicksByProfile(profileID uint) (int64, error)

	GetAttributionByVisitor(visitorKey string) (*models.AffiliateAttribution, error)
	SaveAttribution(attribution *models.AffiliateAttribution) (*models.AffiliateAttribution, error)
	DeleteAttribution(id uint) error
	PurgeExpiredAttributions(before time.Time) (int64, error)
}

// GormAffiliateRepository GORM 推广仓储
type GormAffiliateRepository struct {
	db *gorm.DB
}

// NewAffiliateRepository 创建推广仓储
func NewAffiliateRepository(db *gorm.DB) *GormAffiliateRepository {
	return &GormAffiliateRepository{db: db}
}

// WithTx 绑定事务
func (r *GormAffiliateRepository) WithTx(tx *gorm.DB) AffiliateRepository {
	if tx == nil {
		return r
	}
	return &GormAffiliateRepository{db: tx}
}

// Transaction 执行事务
func (r *GormAffiliateRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// NormalizeAffiliateCode 统一推广码格式
func NormalizeAffiliateCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (r *GormAffiliateRepository) firstProfile(query *gorm.DB) (*models.AffiliateProfile, error) {
	return firstOrNil[models.AffiliateProfile](query)
}

// GetProfileByID 按ID获取推广档案
func (r *GormAffiliateRepository) GetProfileByID(id uint) (*models.AffiliateProfile, error) {
	if id == 0 {
		return nil, nil
	}
	return r.firstProfile(r.db.Preload("Identity").Where("id = ?", id))
}

// GetProfileByIDForUpdate 按ID锁定推广档案
func (r *GormAffiliateRepository) GetProfileByIDForUpdate(id uint) (*models.AffiliateProfile, error) {
	if id == 0 {
		return nil, nil
	}
	return r.firstProfile(r.db.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id))
}

// GetProfileByIdentityID 按身份ID获取推广档案
func (r *GormAffiliateRepository) GetProfileByIdentityID(identityID uint) (*models.AffiliateProfile, error) {
	if identityID == 0 {
		return nil, nil
	}
	return r.firstProfile(r.db.Preload("Identity").Where("identity_id = ?", identityID))
}

// GetProfileByCode 按推广码获取推广档案
func (r *GormAffiliateRepository) GetProfileByCode(code string) (*models.AffiliateProfile, error) {
	normalized := NormalizeAffiliateCode(code)
	if normalized == "" {
		return nil, nil
	}
	return r.firstProfile(r.db.Where("affiliate_code = ?", normalized))
}

// CreateProfile 创建推广档案
func (r *GormAffiliateRepository) CreateProfile(profile *models.AffiliateProfile) error {
	return r.db.Create(profile).Error
}

// UpdateProfileStatus 更新推广档案状态
func (r *GormAffiliateRepository) UpdateProfileStatus(id uint, status string, updatedAt time.Time) error {
	if id == 0 {
		return nil
	}
	return r.db.Model(&models.AffiliateProfile{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     strings.TrimSpace(status),
			"updated_at": updatedAt,
		}).Error
}

// ListProfiles 查询推广档案列表
func (r *GormAffiliateRepository) ListProfiles(filter AffiliateProfileListFilter) ([]models.AffiliateProfile, int64, error) {
	query := r.db.Model(&models.AffiliateProfile{}).Preload("Identity")
	if filter.IdentityID != 0 {
		query = query.Where("affiliate_profiles.identity_id = ?", filter.IdentityID)
	}
	if code := NormalizeAffiliateCode(filter.Code); code != "" {
		query = query.Where("affiliate_profiles.affiliate_code = ?", code)
	}
	if status := strings.TrimSpace(filter.Status); status != "" {
		query = query.Where("affiliate_profiles.status = ?", status)
	}
	if tier := strings.TrimSpace(filter.Tier); tier != "" {
		query = query.Where("affiliate_profiles.tier = ?", tier)
	}
	if keyword := strings.TrimSpace(filter.Keyword); keyword != "" {
		like := "%" + keyword + "%"
		operator := likeOperatorByDialect(dbDialectName(r.db))
		query = query.
			Joins("LEFT JOIN identities ON identities.id = affiliate_profiles.identity_id").
			Where("(identities.email "+operator+" ? OR identities.name "+operator+" ? OR affiliate_profiles.affiliate_code "+operator+" ?)", like, like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, filter.Page, filter.PageSize)

	var rows []models.AffiliateProfile
	if err := query.Order("affiliate_profiles.id desc").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// IncrementClickCount 点击数自增（统计用途，不加锁）
func (r *GormAffiliateRepository) IncrementClickCount(profileID uint) error {
	if profileID == 0 {
		return nil
	}
	return r.db.Model(&models.AffiliateProfile{}).
		Where("id = ?", profileID).
		UpdateColumn("click_count", gorm.Expr("click_count + ?", 1)).Error
}

// AddSaleTotals 累加成交与佣金金额
func (r *GormAffiliateRepository) AddSaleTotals(profileID uint, saleAmount, commissionAmount decimal.Decimal) error {
	if profileID == 0 {
		return nil
	}
	return r.db.Model(&models.AffiliateProfile{}).
		Where("id = ?", profileID).
		Updates(map[string]interface{}{
			"total_sales":      gorm.Expr("total_sales + ?", saleAmount.Round(2)),
			"total_commission": gorm.Expr("total_commission + ?", commissionAmount.Round(2)),
			"updated_at":       time.Now(),
		}).Error
}

// GetProfileStatsBatch 批量统计推广档案的点击、转化与佣金
func (r *GormAffiliateRepository) GetProfileStatsBatch(profileIDs []uint) (map[uint]AffiliateProfileStatsAggregate, error) {
	result := make(map[uint]AffiliateProfileStatsAggregate, len(profileIDs))
	if len(profileIDs) == 0 {
		return result, nil
	}

	type clickRow struct {
		ProfileID uint
		Total     int64
	}
	var clicks []clickRow
	if err := r.db.Model(&models.AffiliateClick{}).
		Select("affiliate_profile_id AS profile_id, COUNT(*) AS total").
		Where("affiliate_profile_id IN ?", profileIDs).
		Group("affiliate_profile_id").
		Scan(&clicks).Error; err != nil {
		return nil, err
	}

	type convertedRow struct {
		ProfileID uint
		Total     int64
	}
	var converted []convertedRow
	if err := r.db.Model(&models.Commission{}).
		Select("affiliate_profile_id AS profile_id, COUNT(DISTINCT investment_id) AS total").
		Where("affiliate_profile_id IN ? AND commission_type = ? AND status <> ?",
			profileIDs, constants.CommissionTypeDirect, constants.CommissionStatusCancelled).
		Group("affiliate_profile_id").
		Scan(&converted).Error; err != nil {
		return nil, err
	}

	type sumRow struct {
		ProfileID uint
		Status    string
		Total     decimal.Decimal
	}
	var sums []sumRow
	if err := r.db.Model(&models.Commission{}).
		Select("affiliate_profile_id AS profile_id, status, COALESCE(SUM(amount), 0) AS total").
		Where("affiliate_profile_id IN ?", profileIDs).
		Group("affiliate_profile_id, status").
		Scan(&sums).Error; err != nil {
		return nil, err
	}

	for _, id := range profileIDs {
		result[id] = AffiliateProfileStatsAggregate{
			PendingCommission:   decimal.Zero,
			PaidCommission:      decimal.Zero,
			CancelledCommission: decimal.Zero,
		}
	}
	for _, row := range clicks {
		item := result[row.ProfileID]
		item.ClickCount = row.Total
		result[row.ProfileID] = item
	}
	for _, row := range converted {
		item := result[row.ProfileID]
		item.ConvertedCount = row.Total
		result[row.ProfileID] = item
	}
	for _, row := range sums {
		item := result[row.ProfileID]
		switch row.Status {
		case constants.CommissionStatusPending:
			item.PendingCommission = row.Total.Round(2)
		case constants.CommissionStatusPaid:
			item.PaidCommission = row.Total.Round(2)
		case constants.CommissionStatusCancelled:
			item.CancelledCommission = row.Total.Round(2)
		}
		result[row.ProfileID] = item
	}
	return result, nil
}

// CreateClick 创建点击记录
func (r *GormAffiliateRepository) CreateClick(click *models.AffiliateClick) error {
	return r.db.Create(click).Error
}

// HasRecentClick 查询去重窗口内是否已有同访客同目标的点击
func (r *GormAffiliateRepository) HasRecentClick(profileID uint, visitorKey, destination string, since time.Time) (bool, error) {
	key := strings.TrimSpace(visitorKey)
	if profileID == 0 || key == "" {
		return false, nil
	}
	query := r.db.Model(&models.AffiliateClick{}).
		Where("affiliate_profile_id = ? AND visitor_key = ? AND created_at >= ?", profileID, key, since)
	if dest := strings.TrimSpace(destination); dest != "" {
		query = query.Where("destination = ?", dest)
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return false, err
	}
	return total > 0, nil
}

// CountClicksByProfile 统计点击数
func (r *GormAffiliateRepository) CountClicksByProfile(profileID uint) (int64, error) {
	if profileID == 0 {
		return 0, nil
	}
	var total int64
	if err := r.db.Model(&models.AffiliateClick{}).Where("affiliate_profile_id = ?", profileID).Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// GetAttributionByVisitor 获取访客的归因记录（不判断过期）
func (r *GormAffiliateRepository) GetAttributionByVisitor(visitorKey string) (*models.AffiliateAttribution, error) {
	key := strings.TrimSpace(visitorKey)
	if key == "" {
		return nil, nil
	}
	return firstOrNil[models.AffiliateAttribution](r.db.Where("visitor_key = ?", key))
}

// SaveAttribution 写入访客归因并返回最终生效的记录
// 已有记录仅在捕获时刻已过期时才被覆盖，并发捕获时先写入者胜出
func (r *GormAffiliateRepository) SaveAttribution(attribution *models.AffiliateAttribution) (*models.AffiliateAttribution, error) {
	if attribution == nil {
		return nil, nil
	}
	err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "visitor_key"}},
		Where: clause.Where{Exprs: []clause.Expression{
			clause.Lte{Column: clause.Column{Table: attribution.TableName(), Name: "expires_at"}, Value: attribution.CapturedAt},
		}},
		DoUpdates: clause.AssignmentColumns([]string{
			"affiliate_profile_id",
			"affiliate_code",
			"source_channel",
			"destination_page",
			"captured_at",
			"expires_at",
		}),
	}).Create(attribution).Error
	if err != nil {
		return nil, err
	}
	return r.GetAttributionByVisitor(attribution.VisitorKey)
}

// DeleteAttribution 删除归因记录
func (r *GormAffiliateRepository) DeleteAttribution(id uint) error {
	if id == 0 {
		return nil
	}
	return r.db.Delete(&models.AffiliateAttribution{}, id).Error
}

// PurgeExpiredAttributions 清理过期归因
func (r *GormAffiliateRepository) PurgeExpiredAttributions(before time.Time) (int64, error) {
	result := r.db.Where("expires_at <= ?", before).Delete(&models.AffiliateAttribution{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
