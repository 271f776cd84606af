package repository

import (
	"errors"
	"testing"
)

func TestLikeOperatorByDialect(t *testing.T) {
	if got := likeOperatorByDialect("postgres"); got != "ILIKE" {
		t.Fatalf("postgres want ILIKE got %s", got)
	}
	if got := likeOperatorByDialect("sqlite"); got != "LIKE" {
		t.Fatalf("sqlite want LIKE got %s", got)
	}
}

func TestBuildLikeCondition(t *testing.T) {
	cond, args := buildLikeCondition(nil, []string{"name", "host"}, " flip ")
	if cond != "(name LIKE ? OR host LIKE ?)" {
		t.Fatalf("unexpected condition: %s", cond)
	}
	if len(args) != 2 || args[0] != "%flip%" {
		t.Fatalf("unexpected args: %#v", args)
	}
	if cond, _ := buildLikeCondition(nil, []string{"name"}, "  "); cond != "" {
		t.Fatalf("blank keyword should produce no condition, got %s", cond)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	cases := map[string]bool{
		"UNIQUE constraint failed: transactions.order_key":                       true,
		"ERROR: duplicate key value violates unique constraint (SQLSTATE 23505)": true,
		"connection refused": false,
	}
	for msg, want := range cases {
		if got := IsUniqueViolation(errors.New(msg)); got != want {
			t.Fatalf("IsUniqueViolation(%q)=%v want %v", msg, got, want)
		}
	}
	if IsUniqueViolation(nil) {
		t.Fatalf("nil should not be a violation")
	}
}
