package httptransport

//go:generate mockgen -source=handlers_me.go -destination=mocks/me-mocks.go -package=mocks ProfileService

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	profilemodels "viewergate/internal/profile/models"
	id "viewergate/pkg/domain"
	dErrors "viewergate/pkg/domain-errors"
	"viewergate/pkg/testutil"
)

// =============================================================================
// Me Handler Test Suite
// =============================================================================
// Justification for unit tests: the settings routes are the only HTTP entry
// to profile mutations. They must require a session, surface write failures
// and expose the scheduled erasure date.

type MeHandlerSuite struct {
	routerSuite
	accountID id.AccountID
	now       time.Time
}

func TestMeHandlerSuite(t *testing.T) {
	suite.Run(t, new(MeHandlerSuite))
}

func (s *MeHandlerSuite) SetupTest() {
	s.routerSuite.SetupTest()
	s.accountID = id.NewAccountID()
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

func (s *MeHandlerSuite) profile() *profilemodels.VerificationProfile {
	p, err := profilemodels.NewProfile(s.accountID, profilemodels.Details{
		FullName: "Valentina Gómez", Username: "valentina_g", Email: "v@example.com",
	}, nil, s.now)
	s.Require().NoError(err)
	return p
}

func (s *MeHandlerSuite) TestGetProfile() {
	s.Run("no erasure date without a deletion request", func() {
		s.profiles.EXPECT().Current(gomock.Any()).Return(s.profile())
		s.profiles.EXPECT().GracePeriod().Return(profilemodels.DeletionGracePeriod)

		req := s.authorized(testutil.NewRequest(s.T(), http.MethodGet, "/me/profile"), s.accountID)
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatusOK(s.T(), rr)
		got := testutil.UnmarshalResponse[map[string]any](s.T(), rr)
		s.Equal("valentina_g", (*got)["username"])
		s.NotContains(*got, "erasure_scheduled_at")
	})

	s.Run("not loaded", func() {
		s.profiles.EXPECT().Current(gomock.Any()).Return(nil)
		req := s.authorized(testutil.NewRequest(s.T(), http.MethodGet, "/me/profile"), s.accountID)
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusUnauthorized, string(dErrors.CodeUnauthorized))
	})

	s.Run("anonymous", func() {
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/me/profile"))
		testutil.AssertStatus(s.T(), rr, http.StatusUnauthorized)
	})
}

func (s *MeHandlerSuite) TestChangePassword() {
	body := map[string]string{"current_password": "secret1", "new_password": "secret2"}

	s.Run("changed", func() {
		s.profiles.EXPECT().ChangePassword(gomock.Any(), "secret1", "secret2").Return(nil)
		req := s.authorized(testutil.NewJSONRequest(s.T(), http.MethodPost, "/me/password", body), s.accountID)
		testutil.AssertStatus(s.T(), testutil.DoRequest(s.router, req), http.StatusNoContent)
	})

	s.Run("wrong current password", func() {
		s.profiles.EXPECT().ChangePassword(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(dErrors.New(dErrors.CodeUnauthorized, "current password is incorrect"))
		req := s.authorized(testutil.NewJSONRequest(s.T(), http.MethodPost, "/me/password", body), s.accountID)
		testutil.AssertStatusAndError(s.T(), testutil.DoRequest(s.router, req), http.StatusUnauthorized, string(dErrors.CodeUnauthorized))
	})

	s.Run("a previous write is still in flight", func() {
		s.profiles.EXPECT().ChangePassword(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(dErrors.New(dErrors.CodeWriteInFlight, "a previous change is still being saved"))
		req := s.authorized(testutil.NewJSONRequest(s.T(), http.MethodPost, "/me/password", body), s.accountID)
		testutil.AssertStatusAndError(s.T(), testutil.DoRequest(s.router, req), http.StatusConflict, string(dErrors.CodeWriteInFlight))
	})
}

func (s *MeHandlerSuite) TestDeletion() {
	s.Run("request exposes the erasure date", func() {
		p := s.profile()
		p.RequestDeletion(s.now)
		s.profiles.EXPECT().RequestDeletion(gomock.Any()).Return(p, nil)
		s.profiles.EXPECT().GracePeriod().Return(7 * 24 * time.Hour)

		req := s.authorized(testutil.NewRequest(s.T(), http.MethodPost, "/me/deletion"), s.accountID)
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatusOK(s.T(), rr)
		got := testutil.UnmarshalResponse[profileResponse](s.T(), rr)
		s.Require().NotNil(got.ErasureScheduledAt)
		s.True(s.now.Add(7 * 24 * time.Hour).Equal(*got.ErasureScheduledAt))
	})

	s.Run("cancel", func() {
		s.profiles.EXPECT().CancelDeletion(gomock.Any()).Return(s.profile(), nil)
		s.profiles.EXPECT().GracePeriod().Return(profilemodels.DeletionGracePeriod)

		req := s.authorized(testutil.NewRequest(s.T(), http.MethodDelete, "/me/deletion"), s.accountID)
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatusOK(s.T(), rr)
		got := testutil.UnmarshalResponse[profileResponse](s.T(), rr)
		s.Nil(got.ErasureScheduledAt)
	})

	s.Run("store rejects the write", func() {
		s.profiles.EXPECT().RequestDeletion(gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeProfileWriteFailed, "failed to save profile"))
		req := s.authorized(testutil.NewRequest(s.T(), http.MethodPost, "/me/deletion"), s.accountID)
		testutil.AssertStatusAndError(s.T(), testutil.DoRequest(s.router, req), http.StatusServiceUnavailable, string(dErrors.CodeProfileWriteFailed))
	})
}
