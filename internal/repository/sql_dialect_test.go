package repository

import "testing"

func TestDayBucketExprByDialect(t *testing.T) {
	if got := dayBucketExprByDialect("sqlite", "created_at"); got != "CAST(date(created_at) AS TEXT)" {
		t.Fatalf("sqlite day expr mismatch: %s", got)
	}
	if got := dayBucketExprByDialect("postgres", "confirmed_at"); got != "to_char(confirmed_at, 'YYYY-MM-DD')" {
		t.Fatalf("postgres day expr mismatch: %s", got)
	}
}

func TestLikeOperatorByDialect(t *testing.T) {
	if likeOperatorByDialect("postgresql") != "ILIKE" {
		t.Fatalf("postgres should use ILIKE")
	}
	if likeOperatorByDialect("") != "LIKE" {
		t.Fatalf("default dialect should use LIKE")
	}
	if dbDialectName(nil) != "sqlite" {
		t.Fatalf("nil db should default to sqlite")
	}
}
