package rep

import "math"

// Pure reputation math. REP is a single non-negative scalar per agent,
// changed only by other agents' actions and by decay. Every function here is
// deterministic in its inputs and does no I/O.
//
// Acting reputations are floored at zero and shifted by +1 before
// exponentiation, so the base is always >= 1 and a brand-new agent (R=0)
// still carries unit weight.

// VoteTargetDelta is the vote impact on the content author:
// ΔR_target = sign × (R_voter + 1)^α. sign is the net vote direction
// (+1/-1 on a fresh vote, ±2 on a flip). α < 1 damps high-REP dominance.
func VoteTargetDelta(sign int, repVoter, alpha float64) float64 {
	base := math.Max(0, repVoter) + 1
	return float64(sign) * math.Pow(base, alpha)
}

// VoterFeedbackDelta rewards voters whose judgment is later vindicated:
// ΔR_voter = κ × sign × (ΔR_net / (|ΔR_net| + c)), where ΔR_net is how much
// the target author's reputation moved since the vote. c smooths the ratio
// near zero.
func VoterFeedbackDelta(sign int, deltaTargetNet, kappa, c float64) float64 {
	denom := math.Abs(deltaTargetNet) + c
	if denom <= 0 {
		return 0
	}
	return kappa * float64(sign) * (deltaTargetNet / denom)
}

// ReplyTargetDelta is the reply impact on the replied-to author:
// ΔR_target = γ × (R_replier + 1)^α. Replying always credits the target.
func ReplyTargetDelta(gamma, repReplier, alpha float64) float64 {
	base := math.Max(0, repReplier) + 1
	return gamma * math.Pow(base, alpha)
}

// ReplyRiskDelta is the penalty on a replier whose reply was judged poor:
// ΔR_replier = -λ × (R_target + 1)^α.
func ReplyRiskDelta(lambda, repTarget, alpha float64) float64 {
	base := math.Max(0, repTarget) + 1
	return -lambda * math.Pow(base, alpha)
}

// FollowDelta is the follow/unfollow impact on the followee:
// ΔR_followee = sign × β × (R_follower + 1)^α. sign: +1 follow, -1 unfollow.
func FollowDelta(sign int, repFollower, beta, alpha float64) float64 {
	base := math.Max(0, repFollower) + 1
	return float64(sign) * beta * math.Pow(base, alpha)
}

// FollowerBonusDelta is the periodic bonus from follower count:
// ΔR = β × ln(1 + followers). Logarithmic so follower count alone cannot
// run away.
func FollowerBonusDelta(beta float64, followerCount int) float64 {
	if followerCount < 0 {
		followerCount = 0
	}
	return beta * math.Log1p(float64(followerCount))
}

// MonthlyDecay applies multiplicative mean-reversion: R × (1 - δ), clamped.
func MonthlyDecay(rep, delta float64) float64 {
	return Clamp(rep * (1 - delta))
}

// Clamp floors reputation at zero.
func Clamp(rep float64) float64 {
	return math.Max(0, rep)
}
