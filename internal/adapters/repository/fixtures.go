package repository

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/okian/pawmatch/internal/domain/model"
	"github.com/okian/pawmatch/internal/domain/profile"
)

//go:embed sample_fixtures.yaml
var sampleFixtures []byte

// Fixtures is the on-disk seed for both stores.
type Fixtures struct {
	Pets     []model.Pet        `yaml:"pets"`
	Profiles []profile.Document `yaml:"profiles"`
}

// Decode reads fixtures from r and validates every pet.
func Decode(r io.Reader) (Fixtures, error) {
	var f Fixtures
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && err != io.EOF {
		return Fixtures{}, fmt.Errorf("decode fixtures: %w", err)
	}
	seen := make(map[string]struct{}, len(f.Pets))
	for _, p := range f.Pets {
		if err := validatePet(p); err != nil {
			return Fixtures{}, err
		}
		if _, dup := seen[p.ID]; dup {
			return Fixtures{}, fmt.Errorf("%w: duplicate pet id %s", ErrInvalidFixture, p.ID)
		}
		seen[p.ID] = struct{}{}
	}
	for _, d := range f.Profiles {
		if d.UserID == "" {
			return Fixtures{}, fmt.Errorf("%w: profile without user_id", ErrInvalidFixture)
		}
	}
	return f, nil
}

// LoadFile reads fixtures from path. An empty path loads the built-in sample.
func LoadFile(path string) (Fixtures, error) {
	if path == "" {
		return Decode(bytes.NewReader(sampleFixtures))
	}
	fh, err := os.Open(path)
	if err != nil {
		return Fixtures{}, fmt.Errorf("open fixtures: %w", err)
	}
	defer fh.Close()
	return Decode(fh)
}

// Stores builds both stores from f.
func (f Fixtures) Stores(opts ...ProfileOption) (*CatalogStore, *ProfileStore) {
	return NewCatalogStore(f.Pets), NewProfileStore(f.Profiles, opts...)
}
