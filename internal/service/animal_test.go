package service

import (
	"context"
	"errors"
	"testing"

	"github.com/menagerie/menagerie/internal/testutil"
)

func TestAnimalService_CreateThenGet(t *testing.T) {
	t.Parallel()

	svc := NewAnimalService(testutil.NewAnimalStore())
	ctx := context.Background()

	created, err := svc.Create(ctx, AnimalInput{Name: "Tiger", Species: "Tiger", Age: 6})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.ID == 0 {
		t.Error("expected a newly assigned id")
	}

	got, err := svc.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Name != "Tiger" || got.Species != "Tiger" || got.Age != 6 {
		t.Errorf("unexpected animal: %+v", got)
	}
}

func TestAnimalService_CreateNeverDeduplicates(t *testing.T) {
	t.Parallel()

	svc := NewAnimalService(testutil.NewAnimalStore())
	ctx := context.Background()

	first, _ := svc.Create(ctx, AnimalInput{Name: "Leo", Species: "Lion", Age: 4})
	second, err := svc.Create(ctx, AnimalInput{Name: "Leo", Species: "Lion", Age: 4})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if first.ID == second.ID {
		t.Error("expected distinct ids for repeated creates")
	}
}

func TestAnimalService_Validation(t *testing.T) {
	t.Parallel()

	store := testutil.NewAnimalStore()
	svc := NewAnimalService(store)
	ctx := context.Background()

	tests := []struct {
		name  string
		input AnimalInput
		want  error
	}{
		{"negative age", AnimalInput{Name: "Leo", Species: "Lion", Age: -1}, ErrAgeNegative},
		{"missing name", AnimalInput{Name: "", Species: "Lion", Age: 4}, ErrNameRequired},
		{"blank name", AnimalInput{Name: "   ", Species: "Lion", Age: 4}, ErrNameRequired},
		{"missing species", AnimalInput{Name: "Leo", Species: "", Age: 4}, ErrSpeciesRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Create(ctx, tt.input); !errors.Is(err, tt.want) {
				t.Errorf("Create: expected %v, got %v", tt.want, err)
			}
			if _, err := svc.Update(ctx, 1, tt.input); !errors.Is(err, tt.want) {
				t.Errorf("Update: expected %v, got %v", tt.want, err)
			}
			if _, _, err := svc.Upsert(ctx, tt.input); !errors.Is(err, tt.want) {
				t.Errorf("Upsert: expected %v, got %v", tt.want, err)
			}
		})
	}

	// Invalid input must never reach the store.
	if store.Len() != 0 {
		t.Errorf("expected store untouched, found %d rows", store.Len())
	}
}

func TestAnimalService_DeleteThenGet(t *testing.T) {
	t.Parallel()

	svc := NewAnimalService(testutil.NewAnimalStore())
	ctx := context.Background()

	created, _ := svc.Create(ctx, AnimalInput{Name: "Sammy", Species: "Snake", Age: 3})

	if err := svc.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	if _, err := svc.Get(ctx, created.ID); !errors.Is(err, ErrAnimalNotFound) {
		t.Errorf("expected ErrAnimalNotFound after delete, got %v", err)
	}

	// Deleting again is NotFound, never a fault.
	if err := svc.Delete(ctx, created.ID); !errors.Is(err, ErrAnimalNotFound) {
		t.Errorf("expected ErrAnimalNotFound for repeat delete, got %v", err)
	}
}

func TestAnimalService_UpsertInsertsThenMutates(t *testing.T) {
	t.Parallel()

	svc := NewAnimalService(testutil.NewAnimalStore())
	ctx := context.Background()

	first, created, err := svc.Upsert(ctx, AnimalInput{Name: "Max", Species: "Monkey", Age: 4})
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if !created {
		t.Error("expected first upsert to insert")
	}

	second, created, err := svc.Upsert(ctx, AnimalInput{Name: "Max", Species: "Monkey", Age: 5})
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if created {
		t.Error("expected second upsert to update in place")
	}
	if second.ID != first.ID {
		t.Errorf("expected id unchanged (%d), got %d", first.ID, second.ID)
	}
	if second.Age != 5 {
		t.Errorf("expected age mutated to 5, got %d", second.Age)
	}

	animals, _ := svc.List(ctx)
	if len(animals) != 1 {
		t.Errorf("expected 1 row after two upserts, got %d", len(animals))
	}
}

// Duplicate names are allowed in storage; upsert touches only the first
// match (lowest id). This documents inherited behavior, it is not a bug
// to fix here.
func TestAnimalService_UpsertFirstMatchWins(t *testing.T) {
	t.Parallel()

	svc := NewAnimalService(testutil.NewAnimalStore())
	ctx := context.Background()

	first, _ := svc.Create(ctx, AnimalInput{Name: "Max", Species: "Monkey", Age: 4})
	second, _ := svc.Create(ctx, AnimalInput{Name: "Max", Species: "Macaque", Age: 9})

	updated, created, err := svc.Upsert(ctx, AnimalInput{Name: "Max", Species: "Mandrill", Age: 2})
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if created {
		t.Error("expected upsert to hit an existing row")
	}
	if updated.ID != first.ID {
		t.Errorf("expected first row (%d) updated, got %d", first.ID, updated.ID)
	}

	// The later duplicate stays stale.
	stale, _ := svc.Get(ctx, second.ID)
	if stale.Species != "Macaque" || stale.Age != 9 {
		t.Errorf("expected second row untouched, got %+v", stale)
	}
}

func TestAnimalService_UpdateMissLeavesStoreUnchanged(t *testing.T) {
	t.Parallel()

	svc := NewAnimalService(testutil.NewAnimalStore())
	ctx := context.Background()

	existing, _ := svc.Create(ctx, AnimalInput{Name: "Bella", Species: "Bear", Age: 7})

	_, err := svc.Update(ctx, 999, AnimalInput{Name: "Ghost", Species: "None", Age: 0})
	if !errors.Is(err, ErrAnimalNotFound) {
		t.Fatalf("expected ErrAnimalNotFound, got %v", err)
	}

	animals, _ := svc.List(ctx)
	if len(animals) != 1 {
		t.Errorf("expected row count unchanged, got %d", len(animals))
	}
	got, _ := svc.Get(ctx, existing.ID)
	if got.Name != "Bella" || got.Species != "Bear" || got.Age != 7 {
		t.Errorf("expected existing row unchanged, got %+v", got)
	}
}

func TestAnimalService_Preload(t *testing.T) {
	t.Parallel()

	svc := NewAnimalService(testutil.NewAnimalStore())
	ctx := context.Background()

	seeded, err := svc.Preload(ctx)
	if err != nil {
		t.Fatalf("Preload failed: %v", err)
	}
	if !seeded {
		t.Error("expected preload to seed an empty store")
	}

	animals, _ := svc.List(ctx)
	if len(animals) != 3 {
		t.Fatalf("expected 3 seeded animals, got %d", len(animals))
	}
	if animals[0].Name != "Larry" || animals[1].Name != "Sammy" || animals[2].Name != "Bella" {
		t.Errorf("unexpected seed order: %v %v %v", animals[0].Name, animals[1].Name, animals[2].Name)
	}

	// A second preload is a no-op.
	seeded, err = svc.Preload(ctx)
	if err != nil {
		t.Fatalf("Preload failed: %v", err)
	}
	if seeded {
		t.Error("expected preload on a non-empty store to be a no-op")
	}

	animals, _ = svc.List(ctx)
	if len(animals) != 3 {
		t.Errorf("expected row count unchanged, got %d", len(animals))
	}
}

func TestAnimalService_PreloadSkipsPartiallySeeded(t *testing.T) {
	t.Parallel()

	svc := NewAnimalService(testutil.NewAnimalStore())
	ctx := context.Background()

	// One row already present, e.g. from an interrupted earlier seed.
	_, _ = svc.Create(ctx, AnimalInput{Name: "Larry", Species: "Leopard", Age: 5})

	seeded, err := svc.Preload(ctx)
	if err != nil {
		t.Fatalf("Preload failed: %v", err)
	}
	if seeded {
		t.Error("expected no re-seed of a partially seeded store")
	}

	animals, _ := svc.List(ctx)
	if len(animals) != 1 {
		t.Errorf("expected 1 row, got %d", len(animals))
	}
}
