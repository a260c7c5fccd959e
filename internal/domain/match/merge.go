package match

import "github.com/okian/pawmatch/internal/domain/model"

// mergeScores joins cached and fresh scores in catalog order and sorts the
// result. A pet in both partitions keeps the fresh value and is reported in
// collisions. Duplicate catalog ids are emitted once.
func mergeScores(catalog []model.Pet, cached map[string]model.ScoredPet, fresh []model.ScoredPet) (merged []model.ScoredPet, collisions []string) {
	freshByID := make(map[string]model.ScoredPet, len(fresh))
	for _, f := range fresh {
		freshByID[f.Pet.ID] = f
	}

	merged = make([]model.ScoredPet, 0, len(catalog))
	emitted := make(map[string]struct{}, len(catalog))
	for _, p := range catalog {
		if _, dup := emitted[p.ID]; dup {
			continue
		}
		f, isFresh := freshByID[p.ID]
		c, isCached := cached[p.ID]
		switch {
		case isFresh && isCached:
			collisions = append(collisions, p.ID)
			merged = append(merged, f)
		case isFresh:
			merged = append(merged, f)
		case isCached:
			merged = append(merged, c)
		default:
			continue
		}
		emitted[p.ID] = struct{}{}
	}

	model.SortByScore(merged)
	return merged, collisions
}

func neutralList(catalog []model.Pet) []model.ScoredPet {
	out := make([]model.ScoredPet, 0, len(catalog))
	seen := make(map[string]struct{}, len(catalog))
	for _, p := range catalog {
		if _, dup := seen[p.ID]; dup {
			continue
		}
		seen[p.ID] = struct{}{}
		out = append(out, model.ScoredPet{Pet: p, Score: model.NeutralScore, Origin: model.OriginNeutral})
	}
	return out
}
