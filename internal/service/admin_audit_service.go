package service

import (
	"strings"

	"github.com/agd-funnel/internal/constants"
	"github.com/agd-funnel/internal/models"
	"github.com/agd-funnel/internal/repository"
)

// AuditActor 后台操作人
type AuditActor struct {
	AdminID   uint
	Username  string
	RequestID string
}

// AdminAuditService 后台操作审计服务
type AdminAuditService struct {
	repo repository.AdminAuditLogRepository
}

// NewAdminAuditService 创建审计服务
func NewAdminAuditService(repo repository.AdminAuditLogRepository) *AdminAuditService {
	return &AdminAuditService{repo: repo}
}

// List 查询审计日志
func (s *AdminAuditService) List(filter repository.AdminAuditLogListFilter) ([]models.AdminAuditLog, int64, error) {
	return s.repo.List(filter)
}

// Record 写入审计日志（事务外调用）
func (s *AdminAuditService) Record(actor AuditActor, action, targetType string, targetID uint, detail models.JSON) error {
	return writeAudit(s.repo, actor, action, targetType, targetID, detail)
}

// RecordAffiliateStatus 记录推广用户状态变更
func (s *AdminAuditService) RecordAffiliateStatus(actor AuditActor, profileID uint, fromStatus, toStatus string) error {
	return s.Record(actor, constants.AuditActionAffiliateStatus, auditTargetAffiliate, profileID, models.JSON{
		"from": fromStatus,
		"to":   toStatus,
	})
}

// RecordSettingUpdate 记录设置变更
func (s *AdminAuditService) RecordSettingUpdate(actor AuditActor, key string, value models.JSON) error {
	return s.Record(actor, constants.AuditActionSettingUpdate, auditTargetSetting, 0, models.JSON{
		"key":   key,
		"value": value,
	})
}

func writeAudit(repo repository.AdminAuditLogRepository, actor AuditActor, action, targetType string, targetID uint, detail models.JSON) error {
	if repo == nil {
		return nil
	}
	if detail == nil {
		detail = models.JSON{}
	}
	return repo.Create(&models.AdminAuditLog{
		OperatorAdminID:  actor.AdminID,
		OperatorUsername: strings.TrimSpace(actor.Username),
		Action:           action,
		TargetType:       targetType,
		TargetID:         targetID,
		RequestID:        strings.TrimSpace(actor.RequestID),
		DetailJSON:       detail,
	})
}
