package model

import "sort"

// SortByScore orders pets by score, highest first. The sort is stable, so
// equal scores keep their input order.
func SortByScore(pets []ScoredPet) {
	sort.SliceStable(pets, func(i, j int) bool {
		return pets[i].Score > pets[j].Score
	})
}

// IndexPets maps pet IDs to records. Later duplicates win.
func IndexPets(pets []Pet) map[string]Pet {
	out := make(map[string]Pet, len(pets))
	for _, p := range pets {
		out[p.ID] = p
	}
	return out
}

// SelectPets returns the pets whose IDs are in ids, in catalog order.
func SelectPets(catalog []Pet, ids map[string]struct{}) []Pet {
	if len(ids) == 0 {
		return nil
	}
	out := make([]Pet, 0, len(ids))
	for _, p := range catalog {
		if _, ok := ids[p.ID]; ok {
			out = append(out, p)
		}
	}
	return out
}
