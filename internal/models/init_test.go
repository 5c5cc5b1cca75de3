package models

import (
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func openSeedDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:models_seed_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&Admin{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return db
}

func TestSeedDefaultAdminCreatesOnce(t *testing.T) {
	db := openSeedDB(t)

	created, err := SeedDefaultAdmin(db, DefaultAdmin{Username: "  ops  ", Password: "S3cure-pass!"})
	if err != nil || !created {
		t.Fatalf("first seed: created=%v err=%v", created, err)
	}
	var admin Admin
	if err := db.First(&admin).Error; err != nil {
		t.Fatalf("load admin failed: %v", err)
	}
	if admin.Username != "ops" || !admin.IsSuper {
		t.Fatalf("unexpected admin: %+v", admin)
	}
	if bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte("S3cure-pass!")) != nil {
		t.Fatalf("password hash does not match")
	}

	created, err = SeedDefaultAdmin(db, DefaultAdmin{Username: "other"})
	if err != nil || created {
		t.Fatalf("second seed should be a no-op: created=%v err=%v", created, err)
	}
	var count int64
	db.Model(&Admin{}).Count(&count)
	if count != 1 {
		t.Fatalf("expected 1 admin, got %d", count)
	}
}

func TestSeedDefaultAdminFallbacks(t *testing.T) {
	seed := DefaultAdmin{}.normalize()
	if seed.Username != defaultAdminUsername || !seed.UsesDefaultPassword() {
		t.Fatalf("unexpected fallback seed: %+v", seed)
	}
	if _, err := SeedDefaultAdmin(nil, seed); err == nil {
		t.Fatalf("expected error for nil db")
	}
}
