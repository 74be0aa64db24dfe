package repositories

import (
	"context"
	"database/sql"
	"errors"
	"slices"
	"testing"

	"github.com/desertthunder/studyx/internal/models"
	"github.com/desertthunder/studyx/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		t.Fatalf("failed to enable foreign keys: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

func TestTaskRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("Get", func(t *testing.T) {
		t.Run("NotFound", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			_, err := NewTaskRepository(db).Get(ctx, 1)
			if !errors.Is(err, shared.ErrTaskNotFound) {
				t.Fatalf("expected ErrTaskNotFound, got %v", err)
			}
		})

		t.Run("AfterSave", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			repo := NewTaskRepository(db)
			if err := repo.Save(ctx, models.SaveRequest{TaskID: 1, Code: "a", Correct: models.Bool(true)}); err != nil {
				t.Fatalf("failed to save task: %v", err)
			}

			got, err := repo.Get(ctx, 1)
			if err != nil {
				t.Fatalf("failed to get task: %v", err)
			}
			if got.Code != "a" || models.VerdictOf(got.Correct) != models.Correct {
				t.Errorf("unexpected task %+v", got)
			}
		})
	})

	t.Run("Save", func(t *testing.T) {
		t.Run("NilVerdictKeepsStored", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			repo := NewTaskRepository(db)
			if err := repo.Save(ctx, models.SaveRequest{TaskID: 2, Code: "v1", Correct: models.Bool(false)}); err != nil {
				t.Fatalf("failed to save task: %v", err)
			}
			if err := repo.Save(ctx, models.SaveRequest{TaskID: 2, Code: "v2"}); err != nil {
				t.Fatalf("failed to save task: %v", err)
			}

			got, err := repo.Get(ctx, 2)
			if err != nil {
				t.Fatalf("failed to get task: %v", err)
			}
			if got.Code != "v2" {
				t.Errorf("expected code v2, got %q", got.Code)
			}
			if models.VerdictOf(got.Correct) != models.Incorrect {
				t.Errorf("expected stored verdict kept, got %v", models.VerdictOf(got.Correct))
			}
		})

		t.Run("NeverEvaluated", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			repo := NewTaskRepository(db)
			if err := repo.Save(ctx, models.SaveRequest{TaskID: 3, Code: "draft"}); err != nil {
				t.Fatalf("failed to save task: %v", err)
			}

			got, err := repo.Get(ctx, 3)
			if err != nil {
				t.Fatalf("failed to get task: %v", err)
			}
			if got.Correct != nil {
				t.Errorf("expected nil verdict, got %v", *got.Correct)
			}
		})

		t.Run("CanceledContext", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			cctx, cancel := context.WithCancel(ctx)
			cancel()

			if err := NewTaskRepository(db).Save(cctx, models.SaveRequest{TaskID: 1}); err == nil {
				t.Fatal("expected error for canceled context")
			}
		})
	})

	t.Run("Progress", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewTaskRepository(db)
		saves := []models.SaveRequest{
			{TaskID: 4, Correct: models.Bool(false)},
			{TaskID: 2, Correct: models.Bool(true)},
			{TaskID: 1, Correct: models.Bool(true)},
			{TaskID: 3},
			{TaskID: 4, Correct: models.Bool(true)},
			{TaskID: 5, Correct: models.Bool(false)},
		}
		for _, req := range saves {
			if err := repo.Save(ctx, req); err != nil {
				t.Fatalf("failed to save task: %v", err)
			}
		}

		got, err := repo.Progress(ctx)
		if err != nil {
			t.Fatalf("failed to get progress: %v", err)
		}
		if !slices.Equal(got.Correct, []int{1, 2, 4}) {
			t.Errorf("expected correct [1 2 4], got %v", got.Correct)
		}
		if !slices.Equal(got.Incorrect, []int{5}) {
			t.Errorf("expected incorrect [5], got %v", got.Incorrect)
		}

		n, err := repo.Count(ctx)
		if err != nil {
			t.Fatalf("failed to count tasks: %v", err)
		}
		if n != 5 {
			t.Errorf("expected 5 tasks, got %d", n)
		}
	})

	t.Run("Progress Empty", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		got, err := NewTaskRepository(db).Progress(ctx)
		if err != nil {
			t.Fatalf("failed to get progress: %v", err)
		}
		if got.Correct == nil || got.Incorrect == nil {
			t.Errorf("expected empty non-nil lists, got %+v", got)
		}
	})

	t.Run("History", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewTaskRepository(db)
		for _, code := range []string{"a", "b", "c"} {
			if err := repo.Save(ctx, models.SaveRequest{TaskID: 9, Code: code}); err != nil {
				t.Fatalf("failed to save task: %v", err)
			}
		}
		if err := repo.Save(ctx, models.SaveRequest{TaskID: 10, Code: "other"}); err != nil {
			t.Fatalf("failed to save task: %v", err)
		}

		records, err := repo.History(ctx, 9)
		if err != nil {
			t.Fatalf("failed to get history: %v", err)
		}
		if len(records) != 3 {
			t.Fatalf("expected 3 records, got %d", len(records))
		}

		var codes []string
		for _, rec := range records {
			if rec.ID == "" {
				t.Error("expected generated record id")
			}
			codes = append(codes, rec.Code)
		}
		if !slices.Equal(codes, []string{"a", "b", "c"}) {
			t.Errorf("expected saves in order, got %v", codes)
		}
	})
}
