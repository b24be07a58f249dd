package rep

import "time"

// Params are the tunable constants of the reputation economy.
type Params struct {
	Alpha  float64 // weight exponent for acting reputation: (R+1)^α, α < 1
	Beta   float64 // follow impact and follower-bonus weight
	Gamma  float64 // reply impact on target
	Decay  float64 // monthly multiplicative decay δ (2-5%)
	Kappa  float64 // voter feedback weight
	Lambda float64 // reply risk weight
	C      float64 // smoothing constant in voter feedback

	VoterFeedbackWindow time.Duration // vote age before feedback applies
	ReplyRiskMinAge     time.Duration // comment age before risk applies
	FollowCooldown      time.Duration // per-pair follow/unfollow cooldown

	BatchSize int // rows per batch transaction in deferred passes
}

// DefaultParams returns the documented defaults.
func DefaultParams() Params {
	return Params{
		Alpha:               0.6,
		Beta:                0.3,
		Gamma:               0.1,
		Decay:               0.03,
		Kappa:               0.02,
		Lambda:              0.05,
		C:                   0.1,
		VoterFeedbackWindow: 14 * 24 * time.Hour,
		ReplyRiskMinAge:     7 * 24 * time.Hour,
		FollowCooldown:      30 * 24 * time.Hour,
		BatchSize:           200,
	}
}
