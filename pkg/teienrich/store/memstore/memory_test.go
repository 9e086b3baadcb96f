package memstore

import (
	"context"
	"testing"
	"time"

	"github.com/cognicore/teienrich/pkg/teienrich/store"
)

func TestSaveAndGetRun(t *testing.T) {
	ctx := context.Background()
	s := New()
	defer s.Close()

	run := store.Run{
		ID:        "01HZZ",
		Stage:     "denormalize",
		StartedAt: time.Now(),
		Succeeded: 1,
		Items:     []store.Item{{Path: "a.xml", Outcome: "succeeded"}},
		Unmatched: []string{"p9"},
	}
	if err := s.SaveRun(ctx, run); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	got, ok, err := s.GetRun(ctx, "01HZZ")
	if err != nil || !ok {
		t.Fatalf("GetRun: ok=%v err=%v", ok, err)
	}
	if len(got.Items) != 1 || got.Items[0].Path != "a.xml" {
		t.Errorf("unexpected items %+v", got.Items)
	}

	// Mutating the returned copy must not leak into the store
	got.Items[0].Path = "changed"
	again, _, _ := s.GetRun(ctx, "01HZZ")
	if again.Items[0].Path != "a.xml" {
		t.Error("store returned shared item slice")
	}
}

func TestGetRunMissing(t *testing.T) {
	s := New()
	_, ok, err := s.GetRun(context.Background(), "nope")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if ok {
		t.Error("Expected missing run")
	}
}

func TestListRunsOrderAndFilter(t *testing.T) {
	ctx := context.Background()
	s := New()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	s.SaveRun(ctx, store.Run{ID: "a", Stage: "sequence", StartedAt: base})
	s.SaveRun(ctx, store.Run{ID: "b", Stage: "denormalize", StartedAt: base.Add(time.Hour)})
	s.SaveRun(ctx, store.Run{ID: "c", Stage: "denormalize", StartedAt: base.Add(2 * time.Hour), Items: []store.Item{{Path: "x"}}})

	all, err := s.ListRuns(ctx, "", 0)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(all) != 3 || all[0].ID != "c" || all[2].ID != "a" {
		t.Errorf("unexpected order %+v", all)
	}
	if all[0].Items != nil {
		t.Error("summaries should not carry items")
	}

	den, _ := s.ListRuns(ctx, "denormalize", 1)
	if len(den) != 1 || den[0].ID != "c" {
		t.Errorf("unexpected filtered runs %+v", den)
	}
}
