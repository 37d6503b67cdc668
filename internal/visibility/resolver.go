// Package visibility maps a viewer's verification profile onto the blur,
// lock and action shown for each catalog subject.
package visibility

import (
	"viewergate/internal/platform/metrics"
	"viewergate/internal/profile/models"
	"viewergate/internal/similarity"
)

// Resolver applies a Policy. It holds no per-request state and is safe for
// concurrent use.
type Resolver struct {
	policy  Policy
	metrics *metrics.Metrics
}

type Option func(*Resolver)

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Resolver) { r.metrics = m }
}

func NewResolver(policy Policy, opts ...Option) *Resolver {
	r := &Resolver{policy: policy}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the decision for a viewer looking at a subject on a surface.
// Verification dominates gender: an unverified viewer gets the same tier
// whatever was detected. A nil or inconsistent profile resolves to Restrictive.
func (r *Resolver) Resolve(p *models.VerificationProfile, subject Subject, surface Surface) Decision {
	d := r.resolve(p, subject, surface)
	r.metrics.IncrementVisibilityDecision(string(d.Blur), string(d.Action))
	return d
}

func (r *Resolver) resolve(p *models.VerificationProfile, subject Subject, surface Surface) Decision {
	if p == nil || p.Validate() != nil {
		return Restrictive
	}
	if !p.IsVerified {
		blur := BlurMedium
		if surface == SurfaceDetail {
			blur = BlurHeavy
		}
		return Decision{Blur: blur, ShowLock: true, Action: ActionVerifyPending}
	}
	if subject.GenderSensitive && r.policy.restricts(p.GenderDetected) {
		blur := BlurLight
		if surface == SurfaceDetail {
			blur = BlurMedium
		}
		return Decision{Blur: blur, ShowLock: false, Action: ActionHidden}
	}
	return Decision{Blur: BlurNone, ShowLock: false, Action: ActionOpenLink}
}

// Excludes reports whether the subject must be omitted from the viewer's
// results entirely: the viewer is verified with a restricted gender and one of
// the subject's names matches the viewer's username or display name.
func (r *Resolver) Excludes(p *models.VerificationProfile, subject Subject) bool {
	if p == nil || !p.IsVerified || p.Validate() != nil {
		return false
	}
	if !subject.GenderSensitive || !r.policy.restricts(p.GenderDetected) {
		return false
	}
	return similarity.MatchesAny(subject.Names, p.Username, p.DisplayName)
}
