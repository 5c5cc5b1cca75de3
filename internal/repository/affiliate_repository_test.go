package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/agd-funnel/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func openAffiliateRepo(t *testing.T) (*GormAffiliateRepository, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:affiliate_repo_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.AffiliateAttribution{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return NewAffiliateRepository(db), db
}

func attributionAt(code string, profileID uint, capturedAt time.Time) *models.AffiliateAttribution {
	return &models.AffiliateAttribution{
		VisitorKey:         "visitor-1",
		AffiliateProfileID: profileID,
		AffiliateCode:      code,
		SourceChannel:      "link",
		CapturedAt:         capturedAt,
		ExpiresAt:          capturedAt.Add(48 * time.Hour),
	}
}

func TestSaveAttributionKeepsActiveRow(t *testing.T) {
	repo, db := openAffiliateRepo(t)
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	first, err := repo.SaveAttribution(attributionAt("AGD111111", 1, t0))
	if err != nil || first == nil || first.AffiliateCode != "AGD111111" {
		t.Fatalf("first save: %+v err=%v", first, err)
	}

	winner, err := repo.SaveAttribution(attributionAt("AGD222222", 2, t0.Add(time.Hour)))
	if err != nil {
		t.Fatalf("second save failed: %v", err)
	}
	if winner == nil || winner.AffiliateCode != "AGD111111" || !winner.CapturedAt.Equal(t0) {
		t.Fatalf("active attribution must win, got %+v", winner)
	}

	var rows []models.AffiliateAttribution
	if err := db.Find(&rows).Error; err != nil {
		t.Fatalf("load rows failed: %v", err)
	}
	if len(rows) != 1 || rows[0].AffiliateCode != "AGD111111" || rows[0].AffiliateProfileID != 1 {
		t.Fatalf("stored attribution changed: %+v", rows)
	}
}

func TestSaveAttributionReplacesExpiredRow(t *testing.T) {
	repo, _ := openAffiliateRepo(t)
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	if _, err := repo.SaveAttribution(attributionAt("AGD111111", 1, t0)); err != nil {
		t.Fatalf("first save failed: %v", err)
	}
	replaced, err := repo.SaveAttribution(attributionAt("AGD222222", 2, t0.Add(48*time.Hour)))
	if err != nil {
		t.Fatalf("replace failed: %v", err)
	}
	if replaced == nil || replaced.AffiliateCode != "AGD222222" || replaced.AffiliateProfileID != 2 {
		t.Fatalf("expired attribution should be replaced, got %+v", replaced)
	}
}
