package progression

import (
	"sort"

	"github.com/google/uuid"

	"github.com/muselang/progression-api/internal/domain"
	"github.com/muselang/progression-api/internal/domain/srs"
)

// reviewItem applies one recall attempt to the item's review state, creating
// a fresh default state on first exposure. Returns the updated state, which
// replaces the old one in the snapshot.
func reviewItem(
	snap *domain.LearnerSnapshot,
	itemID uuid.UUID,
	quality int,
	today domain.Day,
	params *srs.Params,
) *domain.VocabularyReviewState {
	state, ok := snap.Vocabulary[itemID]
	if !ok {
		state = domain.NewVocabularyReviewState(itemID, today)
	}

	updated := srs.Review(state, quality, today, params)
	snap.Vocabulary[itemID] = updated
	return updated
}

// DueItems returns the IDs of every vocabulary item due as of the given day,
// most overdue first, lower ease factor breaking ties. A pure query.
func DueItems(snap *domain.LearnerSnapshot, asOf domain.Day) []uuid.UUID {
	due := make([]*domain.VocabularyReviewState, 0, len(snap.Vocabulary))
	for _, state := range snap.Vocabulary {
		if state.DueOn(asOf) {
			due = append(due, state)
		}
	}

	sort.Slice(due, func(i, j int) bool {
		if due[i].NextReviewDay != due[j].NextReviewDay {
			return due[i].NextReviewDay.Before(due[j].NextReviewDay)
		}
		if due[i].EaseFactor != due[j].EaseFactor {
			return due[i].EaseFactor < due[j].EaseFactor
		}
		return due[i].ItemID.String() < due[j].ItemID.String()
	})

	ids := make([]uuid.UUID, len(due))
	for i, state := range due {
		ids[i] = state.ItemID
	}
	return ids
}
