package db

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestDBOperation(t *testing.T) {
	cases := map[string]string{
		"SELECT 1":                        "SELECT",
		"  insert into reports values ()": "INSERT",
		"\n\tUPDATE x SET y = 1":          "UPDATE",
		"":                                "unknown",
	}
	for sql, want := range cases {
		if got := dbOperation(sql); got != want {
			t.Fatalf("dbOperation(%q) = %q, want %q", sql, got, want)
		}
	}
}

func TestIsUniqueViolation(t *testing.T) {
	byConstraint := &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}
	byColumn := &pgconn.PgError{Code: "23505", ColumnName: "email"}
	other := &pgconn.PgError{Code: "23503", ConstraintName: "users_email_key"}

	if !IsUniqueViolation(fmt.Errorf("wrapped: %w", byConstraint), "users_email_key", "email") {
		t.Fatal("expected constraint match")
	}
	if !IsUniqueViolation(byColumn, "users_email_key", "email") {
		t.Fatal("expected column match")
	}
	if IsUniqueViolation(other, "users_email_key", "email") {
		t.Fatal("foreign key violation must not match")
	}
	if IsUniqueViolation(errors.New("boom"), "users_email_key", "email") {
		t.Fatal("plain error must not match")
	}
}

func TestSchemaDeclaresAllTables(t *testing.T) {
	for _, table := range []string{"users", "reports", "shelters", "alerts", "risk_zones"} {
		if !strings.Contains(Schema(), "CREATE TABLE IF NOT EXISTS "+table+" ") {
			t.Fatalf("schema is missing table %s", table)
		}
	}
	if !strings.Contains(Schema(), "users_email_key UNIQUE (email)") {
		t.Fatal("schema must keep users.email unique")
	}
}
