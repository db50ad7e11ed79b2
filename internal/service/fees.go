package service

import (
	"math"
	"sync"

	"prebook/internal/config"
)

// FeePolicy is an immutable snapshot of the fee percentages used by the
// penalty calculator and settlement. PlatformFeePercentage and
// ConvenienceFeePercentage always sum to 1.
type FeePolicy struct {
	CommitmentFeeRate        float64
	PlatformFeePercentage    float64
	ConvenienceFeePercentage float64
	DriverBonusRate          float64
}

// FeePolicyProvider hands out the current fee policy and accepts validated
// admin overrides. Reads vastly outnumber writes; a snapshot copy is returned
// so in-flight settlements keep the percentages they started with.
type FeePolicyProvider struct {
	mu      sync.RWMutex
	current FeePolicy
}

// NewFeePolicyProvider creates a provider seeded from validated config.
func NewFeePolicyProvider(cfg config.FeesConfig) *FeePolicyProvider {
	return &FeePolicyProvider{
		current: FeePolicy{
			CommitmentFeeRate:        cfg.CommitmentFeeRate,
			PlatformFeePercentage:    cfg.PlatformFeePercentage,
			ConvenienceFeePercentage: cfg.ConvenienceFeePercentage,
			DriverBonusRate:          cfg.DriverBonusRate,
		},
	}
}

// Current returns the fee policy in effect.
func (p *FeePolicyProvider) Current() FeePolicy {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.current
}

// Update replaces the penalty split percentages. The split must sum to 1;
// invalid overrides leave the current policy untouched.
func (p *FeePolicyProvider) Update(platformPct, conveniencePct float64) (FeePolicy, error) {
	if platformPct < 0 || platformPct > 1 || conveniencePct < 0 || conveniencePct > 1 {
		return FeePolicy{}, ErrInvalidFeeSplit
	}
	if math.Abs(platformPct+conveniencePct-1) > 1e-9 {
		return FeePolicy{}, ErrInvalidFeeSplit
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.current.PlatformFeePercentage = platformPct
	p.current.ConvenienceFeePercentage = conveniencePct
	return p.current, nil
}
