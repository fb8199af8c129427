// Package quota defines per-tier upload limits for plan generation.
// Policies are pure data: no I/O, no errors, no mutable state.
package quota

// Tier identifies a subscription level.
type Tier string

const (
	TierStandard Tier = "standard"
	TierPremium  Tier = "premium"
)

// Policy holds the hard limits enforced before any network call.
type Policy struct {
	// MaxFileCount bounds the total number of selected files.
	MaxFileCount int
	// MaxFileBytes bounds any single file.
	MaxFileBytes int64
	// MaxTotalBytes bounds the sum of all selected files.
	MaxTotalBytes int64
}

// Premium limits are strictly >= standard limits on every dimension.
// Standard's byte limits sit at the inline payload ceiling so that
// standard-tier batches never need a resumable transfer.
var policies = map[Tier]Policy{
	TierStandard: {
		MaxFileCount:  10,
		MaxFileBytes:  9_500_000,
		MaxTotalBytes: 9_500_000,
	},
	TierPremium: {
		MaxFileCount:  25,
		MaxFileBytes:  100_000_000,
		MaxTotalBytes: 500_000_000,
	},
}

// PolicyFor returns the limits for the given tier.
// Unknown tiers fall back to standard limits.
func PolicyFor(tier Tier) Policy {
	if p, ok := policies[tier]; ok {
		return p
	}
	return policies[TierStandard]
}

// Valid reports whether tier is a known subscription level.
func (t Tier) Valid() bool {
	_, ok := policies[t]
	return ok
}
