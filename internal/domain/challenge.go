package domain

import "time"

// ChallengeKind classifies what kind of activity a challenge counts.
// The review kind is special-cased by the event ledger: every ItemReviewed
// event increments the review challenge by one.
type ChallengeKind string

// Challenge kinds from the fixed template catalog.
const (
	ChallengeKindReview        ChallengeKind = "review"
	ChallengeKindLesson        ChallengeKind = "lesson"
	ChallengeKindConversation  ChallengeKind = "conversation"
	ChallengeKindPronunciation ChallengeKind = "pronunciation"
)

// ChallengeTemplate is a catalog entry from which daily instances are
// generated. IDs must stay stable because clients store them.
type ChallengeTemplate struct {
	ID       string        `json:"id"       mapstructure:"id"       validate:"required"`
	Kind     ChallengeKind `json:"kind"     mapstructure:"kind"     validate:"required,oneof=review lesson conversation pronunciation"`
	Title    string        `json:"title"    mapstructure:"title"    validate:"required"`
	Target   int           `json:"target"   mapstructure:"target"   validate:"required,gt=0"`
	XPReward int           `json:"xp_reward" mapstructure:"xp_reward" validate:"required,gt=0"`
}

// ChallengeInstance is one learner's progress against a template on a given
// day. Current never exceeds Target, and a completed instance's reward is
// granted exactly once, keyed on CompletedAt already being set.
type ChallengeInstance struct {
	ChallengeID string        `json:"challenge_id"`
	Kind        ChallengeKind `json:"kind"`
	Title       string        `json:"title"`
	Target      int           `json:"target"`
	Current     int           `json:"current"`
	XPReward    int           `json:"xp_reward"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
}

// Complete reports whether the instance has reached its target.
func (c *ChallengeInstance) Complete() bool {
	return c.CompletedAt != nil
}

// Clone returns an independent copy of the instance.
func (c *ChallengeInstance) Clone() *ChallengeInstance {
	cp := *c
	if c.CompletedAt != nil {
		t := *c.CompletedAt
		cp.CompletedAt = &t
	}
	return &cp
}

// ChallengeDay is the full challenge set for one learner and UTC day.
// The set is generated at the first event of a new day and replaced wholesale
// when the day rolls over; a prior day's set is never mutated again.
type ChallengeDay struct {
	Day          Day                  `json:"day"`
	Instances    []*ChallengeInstance `json:"instances"`
	BonusGranted bool                 `json:"bonus_granted"`
}

// Instance returns the instance with the given challenge ID, or nil.
func (d *ChallengeDay) Instance(challengeID string) *ChallengeInstance {
	for _, inst := range d.Instances {
		if inst.ChallengeID == challengeID {
			return inst
		}
	}
	return nil
}

// AllComplete reports whether every instance of the day has reached its target.
func (d *ChallengeDay) AllComplete() bool {
	if len(d.Instances) == 0 {
		return false
	}
	for _, inst := range d.Instances {
		if !inst.Complete() {
			return false
		}
	}
	return true
}

// Clone returns an independent copy of the challenge day.
func (d *ChallengeDay) Clone() *ChallengeDay {
	if d == nil {
		return nil
	}
	cp := &ChallengeDay{Day: d.Day, BonusGranted: d.BonusGranted}
	cp.Instances = make([]*ChallengeInstance, len(d.Instances))
	for i, inst := range d.Instances {
		cp.Instances[i] = inst.Clone()
	}
	return cp
}

// Catalog is the fixed, versioned configuration the engine evaluates against:
// the CEFR level scale and the daily challenge templates. It is configuration,
// not code; defaults live in the config package.
type Catalog struct {
	// Levels is the ascending CEFR threshold scale.
	Levels []LevelThreshold

	// Challenges are the templates instantiated for each learner each day.
	Challenges []ChallengeTemplate

	// DailyBonusXP is granted once per day when every instance completes.
	DailyBonusXP int
}

// NewChallengeDay instantiates the catalog's templates for the given day.
func (c *Catalog) NewChallengeDay(day Day) *ChallengeDay {
	cd := &ChallengeDay{Day: day}
	cd.Instances = make([]*ChallengeInstance, len(c.Challenges))
	for i, tpl := range c.Challenges {
		cd.Instances[i] = &ChallengeInstance{
			ChallengeID: tpl.ID,
			Kind:        tpl.Kind,
			Title:       tpl.Title,
			Target:      tpl.Target,
			XPReward:    tpl.XPReward,
		}
	}
	return cd
}
