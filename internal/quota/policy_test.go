package quota

import "testing"

func TestPolicyFor_KnownTiers(t *testing.T) {
	std := PolicyFor(TierStandard)
	if std.MaxFileCount != 10 {
		t.Fatalf("standard MaxFileCount = %d, want 10", std.MaxFileCount)
	}
	if std.MaxFileBytes != 9_500_000 {
		t.Fatalf("standard MaxFileBytes = %d, want 9500000", std.MaxFileBytes)
	}
	if std.MaxTotalBytes != 9_500_000 {
		t.Fatalf("standard MaxTotalBytes = %d, want 9500000", std.MaxTotalBytes)
	}

	prem := PolicyFor(TierPremium)
	if prem.MaxFileCount < std.MaxFileCount {
		t.Fatalf("premium MaxFileCount = %d < standard %d", prem.MaxFileCount, std.MaxFileCount)
	}
	if prem.MaxFileBytes < std.MaxFileBytes {
		t.Fatalf("premium MaxFileBytes = %d < standard %d", prem.MaxFileBytes, std.MaxFileBytes)
	}
	if prem.MaxTotalBytes < std.MaxTotalBytes {
		t.Fatalf("premium MaxTotalBytes = %d < standard %d", prem.MaxTotalBytes, std.MaxTotalBytes)
	}
}

func TestPolicyFor_UnknownTierFallsBackToStandard(t *testing.T) {
	got := PolicyFor(Tier("enterprise"))
	if got != PolicyFor(TierStandard) {
		t.Fatalf("PolicyFor(unknown) = %+v, want standard policy", got)
	}
}

func TestTierValid(t *testing.T) {
	if !TierStandard.Valid() || !TierPremium.Valid() {
		t.Fatal("known tiers should be valid")
	}
	if Tier("free").Valid() {
		t.Fatal("unknown tier should not be valid")
	}
}
