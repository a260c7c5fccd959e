package probe

import (
	"fmt"

	"github.com/okian/pawmatch/internal/domain/model"
)

// VerifyList checks the ordering invariants of a ranked list and returns
// every violation found.
func VerifyList(list model.RankedList) []error {
	var errs []error
	seen := make(map[string]struct{}, len(list.Pets))
	for i, p := range list.Pets {
		if p.Score < model.MinScore || p.Score > model.MaxScore {
			errs = append(errs, fmt.Errorf("pet %s: score %.2f outside [%.0f,%.0f]",
				p.Pet.ID, p.Score, model.MinScore, model.MaxScore))
		}
		if _, dup := seen[p.Pet.ID]; dup {
			errs = append(errs, fmt.Errorf("pet %s listed twice", p.Pet.ID))
		}
		seen[p.Pet.ID] = struct{}{}
		if i > 0 && p.Score > list.Pets[i-1].Score {
			errs = append(errs, fmt.Errorf("position %d: %s (%.2f) ranks below %s (%.2f)",
				i, p.Pet.ID, p.Score, list.Pets[i-1].Pet.ID, list.Pets[i-1].Score))
		}
		if list.Mode == model.ModeNeutral && p.Score != model.NeutralScore {
			errs = append(errs, fmt.Errorf("pet %s: neutral list carries score %.2f", p.Pet.ID, p.Score))
		}
	}
	return errs
}
