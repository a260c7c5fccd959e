// Package repository provides in-memory catalog and profile stores seeded from
// YAML fixtures. They stand in for the external stores the engine reads.
package repository

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/okian/pawmatch/internal/domain/model"
)

// CatalogStore is an in-memory pet catalog. Listing order is insertion order.
type CatalogStore struct {
	mu   sync.RWMutex
	pets []model.Pet
}

// NewCatalogStore creates a catalog holding pets.
func NewCatalogStore(pets []model.Pet) *CatalogStore {
	return &CatalogStore{pets: clonePets(pets)}
}

// ListPets returns a copy of the catalog.
func (s *CatalogStore) ListPets(ctx context.Context) ([]model.Pet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clonePets(s.pets), nil
}

// Get returns one pet.
func (s *CatalogStore) Get(_ context.Context, id string) (model.Pet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.pets {
		if p.ID == id {
			return clonePet(p), nil
		}
	}
	return model.Pet{}, fmt.Errorf("%w: %s", ErrPetNotFound, id)
}

// Upsert replaces the pet with the same id in place or appends a new one.
func (s *CatalogStore) Upsert(_ context.Context, p model.Pet) error {
	if err := validatePet(p); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.pets {
		if s.pets[i].ID == p.ID {
			s.pets[i] = clonePet(p)
			return nil
		}
	}
	s.pets = append(s.pets, clonePet(p))
	return nil
}

// Remove deletes a pet, e.g. once it is adopted.
func (s *CatalogStore) Remove(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.pets, func(p model.Pet) bool { return p.ID == id })
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrPetNotFound, id)
	}
	s.pets = slices.Delete(s.pets, i, i+1)
	return nil
}

// Len returns the catalog size.
func (s *CatalogStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.pets)
}

func validatePet(p model.Pet) error {
	if p.ID == "" {
		return fmt.Errorf("%w: pet without id", ErrInvalidFixture)
	}
	if _, err := model.ParseSpecies(string(p.Species)); err != nil || p.Species == model.SpeciesAny {
		return fmt.Errorf("%w: pet %s: species %q", ErrInvalidFixture, p.ID, p.Species)
	}
	if _, err := model.ParseSize(string(p.Size)); err != nil || p.Size == model.SizeAny {
		return fmt.Errorf("%w: pet %s: size %q", ErrInvalidFixture, p.ID, p.Size)
	}
	if _, err := model.ParseAgeGroup(string(p.Age)); err != nil {
		return fmt.Errorf("%w: pet %s: age %q", ErrInvalidFixture, p.ID, p.Age)
	}
	return nil
}

func clonePet(p model.Pet) model.Pet {
	p.Interests = slices.Clone(p.Interests)
	return p
}

func clonePets(pets []model.Pet) []model.Pet {
	out := make([]model.Pet, len(pets))
	for i, p := range pets {
		out[i] = clonePet(p)
	}
	return out
}
