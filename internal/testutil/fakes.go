// Package testutil provides shared test helpers and in-memory fakes.
package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/menagerie/menagerie/internal/model"
	"github.com/menagerie/menagerie/internal/repository"
)

// AnimalStore is an in-memory store with the same observable semantics as
// the Postgres repository: serial IDs, insertion-order listing,
// first-match-by-lowest-id upsert.
type AnimalStore struct {
	mu      sync.Mutex
	animals map[int64]*model.Animal
	nextID  int64
}

// NewAnimalStore creates an empty in-memory animal store.
func NewAnimalStore() *AnimalStore {
	return &AnimalStore{animals: make(map[int64]*model.Animal), nextID: 1}
}

// Len returns the current row count.
func (s *AnimalStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.animals)
}

func (s *AnimalStore) CreateAnimal(_ context.Context, animal *model.Animal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	animal.ID = s.nextID
	s.nextID++
	copied := *animal
	s.animals[animal.ID] = &copied
	return nil
}

func (s *AnimalStore) ListAnimals(_ context.Context) ([]*model.Animal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listLocked(), nil
}

func (s *AnimalStore) listLocked() []*model.Animal {
	ids := make([]int64, 0, len(s.animals))
	for id := range s.animals {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	animals := make([]*model.Animal, 0, len(ids))
	for _, id := range ids {
		copied := *s.animals[id]
		animals = append(animals, &copied)
	}
	return animals
}

func (s *AnimalStore) GetAnimalByID(_ context.Context, id int64) (*model.Animal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	animal, ok := s.animals[id]
	if !ok {
		return nil, repository.ErrAnimalNotFound
	}
	copied := *animal
	return &copied, nil
}

func (s *AnimalStore) UpdateAnimal(_ context.Context, animal *model.Animal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.animals[animal.ID]
	if !ok {
		return repository.ErrAnimalNotFound
	}
	existing.Name = animal.Name
	existing.Species = animal.Species
	existing.Age = animal.Age
	return nil
}

func (s *AnimalStore) DeleteAnimal(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.animals[id]; !ok {
		return repository.ErrAnimalNotFound
	}
	delete(s.animals, id)
	return nil
}

func (s *AnimalStore) UpsertAnimalByName(_ context.Context, name, species string, age int) (*model.Animal, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, animal := range s.listLocked() {
		if animal.Name == name {
			stored := s.animals[animal.ID]
			stored.Species = species
			stored.Age = age
			copied := *stored
			return &copied, false, nil
		}
	}

	created := &model.Animal{ID: s.nextID, Name: name, Species: species, Age: age}
	s.nextID++
	copied := *created
	s.animals[created.ID] = &copied
	return created, true, nil
}

func (s *AnimalStore) PreloadAnimals(_ context.Context, seed []*model.Animal) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.animals) > 0 {
		return false, nil
	}
	for _, animal := range seed {
		animal.ID = s.nextID
		s.nextID++
		copied := *animal
		s.animals[animal.ID] = &copied
	}
	return true, nil
}

// KeyStore is an in-memory API key registry.
type KeyStore struct {
	mu   sync.Mutex
	keys map[string]*model.APIKey
}

// NewKeyStore creates an empty in-memory key store.
func NewKeyStore() *KeyStore {
	return &KeyStore{keys: make(map[string]*model.APIKey)}
}

func (s *KeyStore) CreateAPIKey(_ context.Context, key *model.APIKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *key
	s.keys[key.ID] = &copied
	return nil
}

func (s *KeyStore) GetAPIKeyByID(_ context.Context, id string) (*model.APIKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key, ok := s.keys[id]
	if !ok {
		return nil, repository.ErrAPIKeyNotFound
	}
	copied := *key
	return &copied, nil
}

func (s *KeyStore) GetAPIKeysByPrefix(_ context.Context, prefix string) ([]*model.APIKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var keys []*model.APIKey
	for _, key := range s.keys {
		if key.KeyPrefix == prefix {
			copied := *key
			keys = append(keys, &copied)
		}
	}
	return keys, nil
}

func (s *KeyStore) ListAPIKeys(_ context.Context) ([]*model.APIKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var keys []*model.APIKey
	for _, key := range s.keys {
		copied := *key
		keys = append(keys, &copied)
	}
	return keys, nil
}

func (s *KeyStore) RevokeAPIKey(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key, ok := s.keys[id]
	if !ok || key.RevokedAt != nil {
		return repository.ErrAPIKeyNotFound
	}
	now := time.Now()
	key.RevokedAt = &now
	return nil
}

func (s *KeyStore) RenewAPIKey(_ context.Context, id string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key, ok := s.keys[id]
	if !ok {
		return repository.ErrAPIKeyNotFound
	}
	key.ExpiresAt = &expiresAt
	return nil
}

// VerdictCache records verdict-cache traffic for assertions.
type VerdictCache struct {
	mu       sync.Mutex
	verdicts map[string]string

	Hits int
	Sets int
}

// NewVerdictCache creates an empty verdict cache fake.
func NewVerdictCache() *VerdictCache {
	return &VerdictCache{verdicts: make(map[string]string)}
}

func (c *VerdictCache) GetKeyVerdict(_ context.Context, cacheKey string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	keyID, ok := c.verdicts[cacheKey]
	if ok {
		c.Hits++
	}
	return keyID, ok
}

func (c *VerdictCache) SetKeyVerdict(_ context.Context, cacheKey, keyID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.verdicts[cacheKey] = keyID
	c.Sets++
	return nil
}
