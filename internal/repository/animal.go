package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/menagerie/menagerie/internal/model"
)

// Common errors for animal repository operations.
var (
	ErrAnimalNotFound = errors.New("animal not found")
)

// CreateAnimal inserts a new animal and assigns its ID.
// It never deduplicates; every call produces a new row.
func (r *Repository) CreateAnimal(ctx context.Context, animal *model.Animal) error {
	query := `
		INSERT INTO animals (name, species, age)
		VALUES ($1, $2, $3)
		RETURNING id
	`

	err := r.pool.QueryRow(ctx, query, animal.Name, animal.Species, animal.Age).Scan(&animal.ID)
	if err != nil {
		return fmt.Errorf("failed to create animal: %w", err)
	}

	return nil
}

// ListAnimals retrieves all animals in insertion order.
func (r *Repository) ListAnimals(ctx context.Context) ([]*model.Animal, error) {
	query := `
		SELECT id, name, species, age
		FROM animals
		ORDER BY id
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list animals: %w", err)
	}
	defer rows.Close()

	var animals []*model.Animal
	for rows.Next() {
		animal, err := scanAnimal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan animal: %w", err)
		}
		animals = append(animals, animal)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating animals: %w", err)
	}

	return animals, nil
}

// GetAnimalByID retrieves an animal by its ID.
func (r *Repository) GetAnimalByID(ctx context.Context, id int64) (*model.Animal, error) {
	query := `
		SELECT id, name, species, age
		FROM animals
		WHERE id = $1
	`

	animal, err := scanAnimal(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAnimalNotFound
		}
		return nil, fmt.Errorf("failed to get animal by ID: %w", err)
	}

	return animal, nil
}

// UpdateAnimal replaces an animal's mutable fields. The ID is immutable.
func (r *Repository) UpdateAnimal(ctx context.Context, animal *model.Animal) error {
	query := `
		UPDATE animals
		SET name = $2, species = $3, age = $4
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query, animal.ID, animal.Name, animal.Species, animal.Age)
	if err != nil {
		return fmt.Errorf("failed to update animal: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrAnimalNotFound
	}

	return nil
}

// DeleteAnimal physically deletes an animal by ID.
func (r *Repository) DeleteAnimal(ctx context.Context, id int64) error {
	query := `DELETE FROM animals WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete animal: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrAnimalNotFound
	}

	return nil
}

// UpsertAnimalByName updates the first animal (lowest ID) with the given
// name, or inserts a new one if no match exists. Name is treated as a
// natural key even though storage does not enforce uniqueness: when
// duplicate names exist, only the first match is updated and the rest are
// left untouched. Returns the resulting animal and whether a row was
// inserted. The lookup and write happen in one transaction.
func (r *Repository) UpsertAnimalByName(ctx context.Context, name, species string, age int) (*model.Animal, bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("failed to begin upsert: %w", err)
	}
	defer tx.Rollback(ctx)

	var animal model.Animal
	err = tx.QueryRow(ctx, `
		SELECT id, name, species, age
		FROM animals
		WHERE name = $1
		ORDER BY id
		LIMIT 1
		FOR UPDATE
	`, name).Scan(&animal.ID, &animal.Name, &animal.Species, &animal.Age)

	created := false
	switch {
	case err == nil:
		animal.Species = species
		animal.Age = age
		if _, err := tx.Exec(ctx, `
			UPDATE animals SET species = $2, age = $3 WHERE id = $1
		`, animal.ID, species, age); err != nil {
			return nil, false, fmt.Errorf("failed to update animal on upsert: %w", err)
		}
	case errors.Is(err, pgx.ErrNoRows):
		created = true
		animal = model.Animal{Name: name, Species: species, Age: age}
		if err := tx.QueryRow(ctx, `
			INSERT INTO animals (name, species, age)
			VALUES ($1, $2, $3)
			RETURNING id
		`, name, species, age).Scan(&animal.ID); err != nil {
			return nil, false, fmt.Errorf("failed to insert animal on upsert: %w", err)
		}
	default:
		return nil, false, fmt.Errorf("failed to look up animal on upsert: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, false, fmt.Errorf("failed to commit upsert: %w", err)
	}

	return &animal, created, nil
}

// CountAnimals returns the total number of animal rows.
func (r *Repository) CountAnimals(ctx context.Context) (int64, error) {
	var count int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM animals`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count animals: %w", err)
	}
	return count, nil
}

// PreloadAnimals inserts the seed set only when the table is empty.
// The existence check and the bulk insert run in a single transaction.
// A partially seeded table is not re-seeded. Returns true if seeding ran.
func (r *Repository) PreloadAnimals(ctx context.Context, seed []*model.Animal) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to begin preload: %w", err)
	}
	defer tx.Rollback(ctx)

	var count int64
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM animals`).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check for existing animals: %w", err)
	}

	if count > 0 {
		return false, nil
	}

	for _, animal := range seed {
		if err := tx.QueryRow(ctx, `
			INSERT INTO animals (name, species, age)
			VALUES ($1, $2, $3)
			RETURNING id
		`, animal.Name, animal.Species, animal.Age).Scan(&animal.ID); err != nil {
			return false, fmt.Errorf("failed to seed animal %q: %w", animal.Name, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("failed to commit preload: %w", err)
	}

	return true, nil
}

// scanAnimal scans a row into an Animal model.
func scanAnimal(row pgx.Row) (*model.Animal, error) {
	var animal model.Animal
	err := row.Scan(
		&animal.ID,
		&animal.Name,
		&animal.Species,
		&animal.Age,
	)
	return &animal, err
}
