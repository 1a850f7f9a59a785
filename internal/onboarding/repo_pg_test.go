package onboarding

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPGRepoMarkSeenIgnoresConflicts(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec("INSERT INTO onboarding_steps .* ON CONFLICT \\(user_id, step\\) DO NOTHING").
		WithArgs(int64(3), "visibility_policy_banner", at).
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := &PGRepo{DB: db}
	if err := repo.MarkSeen(context.Background(), 3, "visibility_policy_banner", at); err != nil {
		t.Fatalf("MarkSeen: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoCopyUsesTransaction(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO onboarding_steps").WithArgs(int64(4), "intro_inbox_view_modal", at).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO onboarding_steps").WithArgs(int64(4), "intro_recent_view_modal", at).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	repo := &PGRepo{DB: db}
	err = repo.Copy(context.Background(), []SeenStep{
		{UserID: 4, Step: "intro_inbox_view_modal", SeenAt: at},
		{UserID: 4, Step: "intro_recent_view_modal", SeenAt: at},
	})
	if err != nil {
		t.Fatalf("Copy: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoListSeen(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"user_id", "step", "seen_at"}).AddRow(int64(5), "visibility_policy_banner", at)
	mock.ExpectQuery("SELECT user_id, step, seen_at").WithArgs(int64(5)).WillReturnRows(rows)

	repo := &PGRepo{DB: db}
	seen, err := repo.ListSeen(context.Background(), 5)
	if err != nil {
		t.Fatalf("ListSeen: %v", err)
	}
	if len(seen) != 1 || seen[0].Step != "visibility_policy_banner" {
		t.Fatalf("unexpected rows %+v", seen)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}
