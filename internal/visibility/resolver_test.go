package visibility

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"viewergate/internal/biometric"
	"viewergate/internal/capture/capturetest"
	"viewergate/internal/platform/metrics"
	"viewergate/internal/profile/models"
	id "viewergate/pkg/domain"
)

// =============================================================================
// Resolver Test Suite
// =============================================================================
// Justification for unit tests: the resolver is the single policy every
// catalog surface applies. The table below pins each viewer state to its tier
// on both surfaces, and the fail-closed cases prove that missing or broken
// profiles never open anything up.

type ResolverSuite struct {
	suite.Suite
	resolver *Resolver
	now      time.Time
}

func TestResolverSuite(t *testing.T) {
	suite.Run(t, new(ResolverSuite))
}

func (s *ResolverSuite) SetupTest() {
	s.resolver = NewResolver(DefaultPolicy())
	s.now = time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
}

func (s *ResolverSuite) profile(gender biometric.Gender, verified bool) *models.VerificationProfile {
	details := models.Details{FullName: "Valentina Gómez", Username: "valentina_g", Email: "v@example.com"}
	if !verified {
		p, err := models.NewProfile(id.NewAccountID(), details, nil, s.now)
		s.Require().NoError(err)
		return p
	}
	acceptance := capturetest.Accept(s.T(), biometric.Result{Age: 27, Gender: gender, Score: 0.8})
	p, err := models.NewProfile(id.NewAccountID(), details, &acceptance, s.now)
	s.Require().NoError(err)
	return p
}

var sensitive = Subject{Names: []string{"Luna Star"}, GenderSensitive: true}

func (s *ResolverSuite) TestTiers() {
	tests := []struct {
		name   string
		viewer func() *models.VerificationProfile
		grid   Decision
		detail Decision
	}{
		{
			name:   "signed out",
			viewer: func() *models.VerificationProfile { return nil },
			grid:   Decision{Blur: BlurHeavy, ShowLock: true, Action: ActionLoginRequired},
			detail: Decision{Blur: BlurHeavy, ShowLock: true, Action: ActionLoginRequired},
		},
		{
			name:   "signed in, not verified",
			viewer: func() *models.VerificationProfile { return s.profile(biometric.GenderUnknown, false) },
			grid:   Decision{Blur: BlurMedium, ShowLock: true, Action: ActionVerifyPending},
			detail: Decision{Blur: BlurHeavy, ShowLock: true, Action: ActionVerifyPending},
		},
		{
			name:   "verified female",
			viewer: func() *models.VerificationProfile { return s.profile(biometric.GenderFemale, true) },
			grid:   Decision{Blur: BlurLight, ShowLock: false, Action: ActionHidden},
			detail: Decision{Blur: BlurMedium, ShowLock: false, Action: ActionHidden},
		},
		{
			name:   "verified male",
			viewer: func() *models.VerificationProfile { return s.profile(biometric.GenderMale, true) },
			grid:   Decision{Blur: BlurNone, ShowLock: false, Action: ActionOpenLink},
			detail: Decision{Blur: BlurNone, ShowLock: false, Action: ActionOpenLink},
		},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			viewer := tt.viewer()
			s.Equal(tt.grid, s.resolver.Resolve(viewer, sensitive, SurfaceGrid))
			s.Equal(tt.detail, s.resolver.Resolve(viewer, sensitive, SurfaceDetail))
		})
	}
}

func (s *ResolverSuite) TestUnverifiedNeverOpensLink() {
	viewer := s.profile(biometric.GenderUnknown, false)
	for _, subject := range []Subject{sensitive, {Names: []string{"x"}}} {
		for _, surface := range []Surface{SurfaceGrid, SurfaceDetail} {
			s.NotEqual(ActionOpenLink, s.resolver.Resolve(viewer, subject, surface).Action)
		}
	}
}

func (s *ResolverSuite) TestFailsClosed() {
	s.Run("nil profile equals signed out", func() {
		s.Equal(Restrictive, s.resolver.Resolve(nil, sensitive, SurfaceGrid))
	})

	s.Run("verified profile without a gender is treated as missing", func() {
		broken := s.profile(biometric.GenderUnknown, false)
		broken.IsVerified = true
		s.Equal(Restrictive, s.resolver.Resolve(broken, sensitive, SurfaceGrid))
		s.False(s.resolver.Excludes(broken, sensitive))
	})
}

func (s *ResolverSuite) TestGenderOnlyRefinesSensitiveSubjects() {
	viewer := s.profile(biometric.GenderFemale, true)
	plain := Subject{Names: []string{"Luna Star"}, GenderSensitive: false}
	s.Equal(Decision{Blur: BlurNone, Action: ActionOpenLink}, s.resolver.Resolve(viewer, plain, SurfaceGrid))
}

func (s *ResolverSuite) TestExcludes() {
	own := Subject{Names: []string{"Valentina", "vale_official"}, GenderSensitive: true}

	s.Run("restricted viewer loses matching subjects", func() {
		s.True(s.resolver.Excludes(s.profile(biometric.GenderFemale, true), own))
	})

	s.Run("non matching subject stays", func() {
		s.False(s.resolver.Excludes(s.profile(biometric.GenderFemale, true), sensitive))
	})

	s.Run("unrestricted gender never excludes", func() {
		s.False(s.resolver.Excludes(s.profile(biometric.GenderMale, true), own))
	})

	s.Run("unverified and anonymous viewers never exclude", func() {
		s.False(s.resolver.Excludes(s.profile(biometric.GenderUnknown, false), own))
		s.False(s.resolver.Excludes(nil, own))
	})

	s.Run("non sensitive subject is not excluded", func() {
		s.False(s.resolver.Excludes(s.profile(biometric.GenderFemale, true), Subject{Names: own.Names}))
	})
}

func (s *ResolverSuite) TestPolicyIsConfigurable() {
	r := NewResolver(PolicyFromStrings([]string{"male", "bogus"}))
	s.Equal(ActionHidden, r.Resolve(s.profile(biometric.GenderMale, true), sensitive, SurfaceGrid).Action)
	s.Equal(ActionOpenLink, r.Resolve(s.profile(biometric.GenderFemale, true), sensitive, SurfaceGrid).Action)
}

func TestResolver_RecordsDecisions(t *testing.T) {
	m := metrics.NewWithRegistry(prometheus.NewRegistry())
	r := NewResolver(DefaultPolicy(), WithMetrics(m))
	r.Resolve(nil, sensitive, SurfaceGrid)
	r.Resolve(nil, sensitive, SurfaceDetail)
	require.NotNil(t, m.VisibilityDecisions)
	assert.Equal(t, 2.0, promtest.ToFloat64(m.VisibilityDecisions.WithLabelValues("heavy", "loginRequired")))
}
