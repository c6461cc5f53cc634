// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/menagerie/menagerie/internal/model"
	"github.com/menagerie/menagerie/internal/repository"
)

// Service errors surfaced to handlers.
var (
	ErrAnimalNotFound  = errors.New("animal not found")
	ErrNameRequired    = errors.New("name must be a non-empty string")
	ErrSpeciesRequired = errors.New("species must be a non-empty string")
	ErrAgeNegative     = errors.New("age must be a non-negative integer")
)

// AnimalStore is the persistence contract the animal service depends on.
// *repository.Repository satisfies it; tests use an in-memory fake.
type AnimalStore interface {
	CreateAnimal(ctx context.Context, animal *model.Animal) error
	ListAnimals(ctx context.Context) ([]*model.Animal, error)
	GetAnimalByID(ctx context.Context, id int64) (*model.Animal, error)
	UpdateAnimal(ctx context.Context, animal *model.Animal) error
	DeleteAnimal(ctx context.Context, id int64) error
	UpsertAnimalByName(ctx context.Context, name, species string, age int) (*model.Animal, bool, error)
	PreloadAnimals(ctx context.Context, seed []*model.Animal) (bool, error)
}

// AnimalInput carries the mutable animal fields from the transport layer.
// Validation happens here, once, between request decoding and the store.
type AnimalInput struct {
	Name    string
	Species string
	Age     int
}

// Validate checks the input invariants.
func (in AnimalInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return ErrNameRequired
	}
	if strings.TrimSpace(in.Species) == "" {
		return ErrSpeciesRequired
	}
	if in.Age < 0 {
		return ErrAgeNegative
	}
	return nil
}

// AnimalService handles animal business logic.
type AnimalService struct {
	store AnimalStore
}

// NewAnimalService creates a new AnimalService.
func NewAnimalService(store AnimalStore) *AnimalService {
	return &AnimalService{store: store}
}

// Create validates the input and inserts a new animal.
// Every call inserts; names are never deduplicated here.
func (s *AnimalService) Create(ctx context.Context, input AnimalInput) (*model.Animal, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	animal := &model.Animal{
		Name:    input.Name,
		Species: input.Species,
		Age:     input.Age,
	}

	if err := s.store.CreateAnimal(ctx, animal); err != nil {
		return nil, fmt.Errorf("create animal: %w", err)
	}

	return animal, nil
}

// List returns all animals in insertion order.
func (s *AnimalService) List(ctx context.Context) ([]*model.Animal, error) {
	animals, err := s.store.ListAnimals(ctx)
	if err != nil {
		return nil, fmt.Errorf("list animals: %w", err)
	}
	return animals, nil
}

// Get returns a single animal by ID.
func (s *AnimalService) Get(ctx context.Context, id int64) (*model.Animal, error) {
	animal, err := s.store.GetAnimalByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrAnimalNotFound) {
			return nil, ErrAnimalNotFound
		}
		return nil, fmt.Errorf("get animal: %w", err)
	}
	return animal, nil
}

// Update validates the input and replaces the animal's mutable fields.
func (s *AnimalService) Update(ctx context.Context, id int64, input AnimalInput) (*model.Animal, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	animal := &model.Animal{
		ID:      id,
		Name:    input.Name,
		Species: input.Species,
		Age:     input.Age,
	}

	if err := s.store.UpdateAnimal(ctx, animal); err != nil {
		if errors.Is(err, repository.ErrAnimalNotFound) {
			return nil, ErrAnimalNotFound
		}
		return nil, fmt.Errorf("update animal: %w", err)
	}

	return animal, nil
}

// Delete removes an animal by ID.
func (s *AnimalService) Delete(ctx context.Context, id int64) error {
	if err := s.store.DeleteAnimal(ctx, id); err != nil {
		if errors.Is(err, repository.ErrAnimalNotFound) {
			return ErrAnimalNotFound
		}
		return fmt.Errorf("delete animal: %w", err)
	}
	return nil
}

// Upsert updates the first animal with the given name or inserts a new one.
// When duplicate names exist only the first match (lowest ID) is touched;
// that is inherited behavior, kept on purpose.
func (s *AnimalService) Upsert(ctx context.Context, input AnimalInput) (*model.Animal, bool, error) {
	if err := input.Validate(); err != nil {
		return nil, false, err
	}

	animal, created, err := s.store.UpsertAnimalByName(ctx, input.Name, input.Species, input.Age)
	if err != nil {
		return nil, false, fmt.Errorf("upsert animal: %w", err)
	}

	return animal, created, nil
}

// DefaultSeed is the baseline data loaded into an empty store at startup.
func DefaultSeed() []*model.Animal {
	return []*model.Animal{
		{Name: "Larry", Species: "Leopard", Age: 5},
		{Name: "Sammy", Species: "Snake", Age: 3},
		{Name: "Bella", Species: "Bear", Age: 7},
	}
}

// Preload seeds the store with the default animals if it is empty.
// Returns true when seeding ran.
func (s *AnimalService) Preload(ctx context.Context) (bool, error) {
	seeded, err := s.store.PreloadAnimals(ctx, DefaultSeed())
	if err != nil {
		return false, fmt.Errorf("preload animals: %w", err)
	}
	return seeded, nil
}
