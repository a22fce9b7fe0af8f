package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"tally/internal/core"
)

func TestListRecords(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/api/expenses/" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		json.NewEncoder(w).Encode([]core.RecordWire{
			{ID: "2", Amount: "200.00", Category: "Food", Date: "2024-02-10"},
			{ID: "1", Amount: "oops", Category: "Snacks", Date: "2024-01-05"},
			{ID: "bad", Amount: "1.00", Category: "Food", Date: "not-a-date"},
		})
	}))
	defer srv.Close()

	records, err := NewClient(srv.URL + "/api").ListRecords(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}

	if len(records) != 2 {
		t.Fatalf("expected bad-date record skipped, got %d records", len(records))
	}
	if records[0].ID != "2" || records[0].Amount.Cents != 20000 {
		t.Errorf("unexpected first record: %+v", records[0])
	}
	if !records[1].Flagged || records[1].Amount.Cents != 0 {
		t.Errorf("bad amount should flag with 0 cents, got %+v", records[1])
	}
	if records[1].Category != core.Other {
		t.Errorf("unknown category should normalize to Other, got %s", records[1].Category)
	}
}

func TestListRecordsServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	if _, err := NewClient(srv.URL).ListRecords(context.Background()); err == nil {
		t.Error("expected error on 500 response")
	}
}

func TestCreateRecord(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		var in core.RecordWire
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if in.Amount != "42.50" {
			t.Errorf("expected amount 42.50 on the wire, got %s", in.Amount)
		}
		in.ID = "srv-1"
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(in)
	}))
	defer srv.Close()

	created, err := NewClient(srv.URL).CreateRecord(context.Background(), core.Record{
		Amount:   core.Money{Cents: 4250},
		Category: core.Bills,
		Date:     core.NewDate(2024, 4, 2),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID != "srv-1" {
		t.Errorf("expected server-assigned id, got %q", created.ID)
	}
}

func TestUpdateAndDeletePaths(t *testing.T) {
	var gotPath, gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotMethod = r.URL.Path, r.Method
		if r.Method == http.MethodPut {
			json.NewEncoder(w).Encode(core.RecordWire{ID: "r1", Amount: "1.00", Category: "Food", Date: "2024-01-01"})
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	if _, err := c.UpdateRecord(context.Background(), core.Record{ID: "r1", Amount: core.Money{Cents: 100}, Category: core.Food, Date: core.NewDate(2024, 1, 1)}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if gotMethod != http.MethodPut || gotPath != "/expenses/r1/" {
		t.Errorf("unexpected update request: %s %s", gotMethod, gotPath)
	}

	if err := c.DeleteRecord(context.Background(), "r1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if gotMethod != http.MethodDelete || gotPath != "/expenses/r1/" {
		t.Errorf("unexpected delete request: %s %s", gotMethod, gotPath)
	}
}
