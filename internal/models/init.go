package models

import (
	"errors"
	"strings"

	"github.com/agd-funnel/internal/logger"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	defaultAdminUsername = "admin"
	defaultAdminPassword = "admin123"
)

// DefaultAdmin 首个超级管理员的初始化参数
type DefaultAdmin struct {
	Username string
	Password string
}

// UsesDefaultPassword 是否仍为内置默认密码
func (d DefaultAdmin) UsesDefaultPassword() bool {
	return d.Password == defaultAdminPassword
}

func (d DefaultAdmin) normalize() DefaultAdmin {
	d.Username = strings.TrimSpace(d.Username)
	if d.Username == "" {
		d.Username = defaultAdminUsername
	}
	if d.Password == "" {
		d.Password = defaultAdminPassword
	}
	return d
}

// SeedDefaultAdmin 管理员表为空时创建超级管理员，已有管理员时返回 false
func SeedDefaultAdmin(db *gorm.DB, seed DefaultAdmin) (bool, error) {
	if db == nil {
		return false, errors.New("database not initialized")
	}
	seed = seed.normalize()
	hash, err := bcrypt.GenerateFromPassword([]byte(seed.Password), bcrypt.DefaultCost)
	if err != nil {
		return false, err
	}

	created := false
	err = db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Unscoped().Model(&Admin{}).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}
		if err := tx.Create(&Admin{
			Username:     seed.Username,
			PasswordHash: string(hash),
			IsSuper:      true,
		}).Error; err != nil {
			return err
		}
		created = true
		return nil
	})
	return created, err
}

// InitDefaultAdmin 使用全局连接初始化默认管理员
func InitDefaultAdmin(username, password string) error {
	seed := DefaultAdmin{Username: username, Password: password}.normalize()
	created, err := SeedDefaultAdmin(DB, seed)
	if err != nil || !created {
		return err
	}
	if seed.UsesDefaultPassword() {
		logger.Warnw("default_admin_created_with_default_password", "username", seed.Username)
		return nil
	}
	logger.Infow("default_admin_created", "username", seed.Username)
	return nil
}
