package ingest

import "planforge/internal/quota"

// Strategy selects how an accepted batch travels to the oracle.
type Strategy string

const (
	// StrategyInline embeds file bytes directly in the generation request.
	StrategyInline Strategy = "inline"
	// StrategyResumable uploads files to intermediate storage first and
	// references them by path in the generation request.
	StrategyResumable Strategy = "resumable"
)

// InlineCeilingBytes is the generation endpoint's own payload limit.
// It is independent of quota: standard-tier quota is capped at or below
// this ceiling so standard batches always fit inline.
const InlineCeilingBytes int64 = 9_500_000

// resumableFanOutThreshold is the batch size above which premium batches
// switch to resumable transfer. Resumable transfer has per-file session
// overhead not worth paying for small batches.
const resumableFanOutThreshold = 5

// UploadDescriptor pairs an accepted batch with its tier and the strategy
// chosen for it. It lives only for the duration of one generation request.
type UploadDescriptor struct {
	Files    []File
	Tier     quota.Tier
	Strategy Strategy
}

// SelectStrategy decides the per-batch transfer strategy.
// Standard tier is always inline: the validator already bounded its files
// at the inline ceiling. Premium goes resumable when any single file
// exceeds the ceiling or the batch fans out past the threshold.
func SelectStrategy(tier quota.Tier, files []File) Strategy {
	if tier != quota.TierPremium {
		return StrategyInline
	}
	if len(files) > resumableFanOutThreshold {
		return StrategyResumable
	}
	for _, f := range files {
		if f.Size > InlineCeilingBytes {
			return StrategyResumable
		}
	}
	return StrategyInline
}

// Describe builds the UploadDescriptor for an accepted batch.
func Describe(tier quota.Tier, files []File) UploadDescriptor {
	return UploadDescriptor{
		Files:    files,
		Tier:     tier,
		Strategy: SelectStrategy(tier, files),
	}
}
