package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestTranslate(t *testing.T) {
	other := errors.New("connection reset")

	tests := []struct {
		name string
		in   error
		want error
	}{
		{"nil", nil, nil},
		{"no rows", pgx.ErrNoRows, ErrNotFound},
		{"wrapped no rows", fmt.Errorf("scan: %w", pgx.ErrNoRows), ErrNotFound},
		{"unique violation", &pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"}, ErrDuplicate},
		{"other pg error", &pgconn.PgError{Code: "23503"}, nil},
		{"unrelated", other, other},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := translate(tc.in)
			if tc.name == "other pg error" {
				if errors.Is(got, ErrDuplicate) || errors.Is(got, ErrNotFound) {
					t.Fatalf("expected pg error to pass through, got %v", got)
				}
				return
			}
			if !errors.Is(got, tc.want) && got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestExpectRow(t *testing.T) {
	if err := expectRow(pgconn.NewCommandTag("UPDATE 0"), nil); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for zero affected rows, got %v", err)
	}
	if err := expectRow(pgconn.NewCommandTag("UPDATE 1"), nil); err != nil {
		t.Fatalf("expected nil for one affected row, got %v", err)
	}
}
