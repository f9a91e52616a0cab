// Paperwise - Research Paper Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/paperwise

package algorithms

import (
	"context"
	"testing"

	"github.com/tomtom215/paperwise/internal/recommend"
	"github.com/tomtom215/paperwise/internal/recommend/recommendtest"
)

// newCollaborativeStore seeds a small community:
//
//	user 1: likes 10
//	user 2: likes 10, 20, 30
//	user 3: likes 10, 20, 40 (40 is unapproved)
//	user 4: likes 50 only
func newCollaborativeStore() *recommendtest.MemStore {
	store := recommendtest.NewMemStore()
	for _, id := range []int64{10, 20, 30, 50, 60} {
		store.AddPaper(recommend.Paper{ID: id, IsApproved: true})
	}
	store.AddPaper(recommend.Paper{ID: 40, IsApproved: false})

	store.Rate(1, 10, 5)
	store.Rate(1, 60, 2)
	store.Rate(2, 10, 4)
	store.Rate(2, 20, 5)
	store.Rate(2, 30, 4)
	store.Rate(3, 10, 5)
	store.Rate(3, 20, 4)
	store.Rate(3, 40, 5)
	store.Rate(3, 60, 3)
	store.Rate(4, 50, 5)
	return store
}

func TestCollaborative_Predict(t *testing.T) {
	c := NewCollaborative(newCollaborativeStore())
	if c.Name() != "collaborative" {
		t.Errorf("Name() = %q, want collaborative", c.Name())
	}

	got, err := c.Predict(context.Background(), recommend.PredictRequest{UserID: 1, K: 10})
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}

	want := []recommend.ScoredPaper{
		{PaperID: 20, Score: 2},
		{PaperID: 30, Score: 1},
	}
	if len(got) != len(want) {
		t.Fatalf("Predict() = %+v, want %+v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Predict()[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestCollaborative_EdgeCases(t *testing.T) {
	tests := []struct {
		name   string
		userID int64
		k      int
		want   int
	}{
		{name: "no seed papers", userID: 99, k: 10, want: 0},
		{name: "no neighbors", userID: 4, k: 10, want: 0},
		{name: "k limits output", userID: 1, k: 1, want: 1},
		{name: "seed papers excluded", userID: 2, k: 10, want: 0},
	}

	c := NewCollaborative(newCollaborativeStore())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Predict(context.Background(), recommend.PredictRequest{UserID: tt.userID, K: tt.k})
			if err != nil {
				t.Fatalf("Predict() error = %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("Predict() returned %d papers, want %d: %+v", len(got), tt.want, got)
			}
		})
	}
}

func TestCollaborative_TieBreakByID(t *testing.T) {
	store := recommendtest.NewMemStore()
	for _, id := range []int64{1, 7, 3} {
		store.AddPaper(recommend.Paper{ID: id, IsApproved: true})
	}
	store.Rate(1, 1, 5)
	store.Rate(2, 1, 5)
	store.Rate(2, 7, 5)
	store.Rate(2, 3, 5)

	got, err := NewCollaborative(store).Predict(context.Background(), recommend.PredictRequest{UserID: 1, K: 10})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].PaperID != 3 || got[1].PaperID != 7 {
		t.Errorf("Predict() = %+v, want papers 3 then 7", got)
	}
}
