package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"tally/internal/core"
)

func testRepo(t *testing.T) *SQLiteRepository {
	t.Helper()

	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestCreateAssignsID(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	rec, err := repo.Create(ctx, core.Record{
		Amount:   core.Money{Cents: 4250},
		Category: core.Food,
		Date:     core.NewDate(2024, 3, 1),
		Notes:    "lunch",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if rec.ID == "" {
		t.Fatal("expected a generated id")
	}

	got, err := repo.Get(ctx, rec.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Amount.Cents != 4250 || got.Category != core.Food || got.Notes != "lunch" {
		t.Errorf("unexpected stored record: %+v", got)
	}
	if got.Date.ISO() != "2024-03-01" {
		t.Errorf("expected date 2024-03-01, got %s", got.Date.ISO())
	}
}

func TestCreateRejectsInvalidAmount(t *testing.T) {
	repo := testRepo(t)

	_, err := repo.Create(context.Background(), core.Record{
		Amount:   core.Money{Cents: -1},
		Category: core.Food,
		Date:     core.NewDate(2024, 3, 1),
	})
	if err == nil {
		t.Fatal("expected validation error for negative amount")
	}
}

func TestUpdateReplacesRecord(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	rec, err := repo.Create(ctx, core.Record{
		Amount:   core.Money{Cents: 1000},
		Category: core.Food,
		Date:     core.NewDate(2024, 3, 1),
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	rec.Amount = core.Money{Cents: 2000}
	rec.Category = core.Travel
	if _, err := repo.Update(ctx, rec); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	got, err := repo.Get(ctx, rec.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Amount.Cents != 2000 || got.Category != core.Travel {
		t.Errorf("update not applied: %+v", got)
	}
}

func TestUpdateUnknownIDReturnsNotFound(t *testing.T) {
	repo := testRepo(t)

	_, err := repo.Update(context.Background(), core.Record{
		ID:       "missing",
		Amount:   core.Money{Cents: 100},
		Category: core.Other,
		Date:     core.NewDate(2024, 3, 1),
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	rec, err := repo.Create(ctx, core.Record{
		Amount:   core.Money{Cents: 100},
		Category: core.Bills,
		Date:     core.NewDate(2024, 3, 1),
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := repo.Delete(ctx, rec.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := repo.Delete(ctx, rec.ID); err != nil {
		t.Fatalf("repeated Delete() error = %v", err)
	}

	if _, err := repo.Get(ctx, rec.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestListOrdersMostRecentFirst(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	dates := []core.Date{
		core.NewDate(2024, 1, 15),
		core.NewDate(2024, 3, 1),
		core.NewDate(2024, 2, 10),
	}
	for _, d := range dates {
		if _, err := repo.Create(ctx, core.Record{
			Amount:   core.Money{Cents: 100},
			Category: core.Other,
			Date:     d,
		}); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	records, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}

	want := []string{"2024-03-01", "2024-02-10", "2024-01-15"}
	for i, w := range want {
		if records[i].Date.ISO() != w {
			t.Errorf("records[%d].Date = %s, want %s", i, records[i].Date.ISO(), w)
		}
	}
}

func TestUnknownCategoryFoldsToOther(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	rec, err := repo.Create(ctx, core.Record{
		Amount:   core.Money{Cents: 100},
		Category: "Groceries",
		Date:     core.NewDate(2024, 3, 1),
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if rec.Category != core.Other {
		t.Errorf("expected Other, got %s", rec.Category)
	}
}
