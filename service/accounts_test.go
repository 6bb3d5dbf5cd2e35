package service

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suisse-offerten/marketplace-api/models"
	"github.com/suisse-offerten/marketplace-api/store"
	"github.com/suisse-offerten/marketplace-api/utils"
)

var acme = RegisterClientInput{Username: "acme", Email: "a@x.com", Password: "p"}

func TestGenerateCode(t *testing.T) {
	for i := 0; i < 200; i++ {
		code, err := GenerateCode()
		require.NoError(t, err)
		require.Len(t, code, 6)
		assert.GreaterOrEqual(t, code, "100000")
		assert.LessOrEqual(t, code, "999999")
	}
}

func TestRegisterClient_Pending(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	c, err := f.accounts.RegisterClient(ctx, acme)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, c.Status)
	assert.NotEqual(t, "p", c.Password)

	code := f.notifier.codes["a@x.com"]
	require.NotEmpty(t, code)
	vc, err := f.repos.Codes.FindByCode(ctx, code)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", vc.Email)
}

func TestRegisterClient_DuplicateEmail(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.accounts.RegisterClient(ctx, acme)
	require.NoError(t, err)

	_, err = f.accounts.RegisterClient(ctx, RegisterClientInput{Username: "other", Email: "a@x.com", Password: "p"})
	assert.ErrorIs(t, err, ErrEmailExists)

	require.NoError(t, f.repos.Sellers.Create(ctx, &models.Seller{Email: "s@x.com", Username: "seller"}))
	_, err = f.accounts.RegisterClient(ctx, RegisterClientInput{Username: "third", Email: "s@x.com", Password: "p"})
	assert.ErrorIs(t, err, ErrEmailExists)

	n, err := f.repos.Clients.Count(ctx, "")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestRegisterClient_DuplicateUsername(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.accounts.RegisterClient(ctx, acme)
	require.NoError(t, err)
	_, err = f.accounts.RegisterClient(ctx, RegisterClientInput{Username: "acme", Email: "b@x.com", Password: "p"})
	assert.ErrorIs(t, err, ErrUsernameExists)
}

func TestRegisterClient_EmailFailureKeepsClient(t *testing.T) {
	f := newFixture()
	f.notifier.failCodes = true

	c, err := f.accounts.RegisterClient(context.Background(), acme)
	assert.ErrorIs(t, err, ErrEmailDelivery)
	require.NotNil(t, c)

	_, err = f.repos.Clients.FindByEmail(context.Background(), "a@x.com")
	assert.NoError(t, err)
}

func seedSellers(t *testing.T, repos store.Repositories) {
	t.Helper()
	sellers := []models.Seller{
		{Email: "match@x.com", Username: "m", Preference: []string{"Zurich"}, Activities: []string{"painting"}},
		{Email: "match2@x.com", Username: "m2", Preference: []string{"Bern", "Zurich"}, Activities: []string{"moving", "painting"}},
		{Email: "city-only@x.com", Username: "c", Preference: []string{"Zurich"}, Activities: []string{"plumbing"}},
		{Email: "cat-only@x.com", Username: "k", Preference: []string{"Geneva"}, Activities: []string{"painting"}},
	}
	for i := range sellers {
		require.NoError(t, repos.Sellers.Create(context.Background(), &sellers[i]))
	}
}

func TestVerifyCode_ActivatesJobAndNotifiesMatchedSellers(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	seedSellers(t, f.repos)

	_, err := f.accounts.RegisterClient(ctx, acme)
	require.NoError(t, err)
	job, _, err := f.jobs.Create(ctx, JobInput{
		JobEmail: "a@x.com", JobTitle: "Paint flat",
		JobCity: []string{"Zurich"}, JobSubCategories: []string{"painting"},
	})
	require.NoError(t, err)
	require.Equal(t, models.JobStatusPending, job.Status)
	require.Empty(t, f.notifier.jobMails)

	res, err := f.accounts.VerifyCode(ctx, f.notifier.codes["a@x.com"], "")
	require.NoError(t, err)
	assert.True(t, res.JobActivated)
	assert.Equal(t, 2, res.Notified)
	assert.ElementsMatch(t, []string{"match@x.com", "match2@x.com"}, f.notifier.jobMails)

	c, err := f.repos.Clients.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, models.StatusVerified, c.Status)

	j, err := f.repos.Jobs.FindByID(ctx, job.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusActive, j.Status)
}

func TestVerifyCode_SecondAttemptIsAlreadyVerified(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	seedSellers(t, f.repos)

	_, err := f.accounts.RegisterClient(ctx, acme)
	require.NoError(t, err)
	_, _, err = f.jobs.Create(ctx, JobInput{JobEmail: "a@x.com", JobTitle: "t", JobCity: []string{"Zurich"}, JobSubCategories: []string{"painting"}})
	require.NoError(t, err)

	code := f.notifier.codes["a@x.com"]
	_, err = f.accounts.VerifyCode(ctx, code, "")
	require.NoError(t, err)
	sent := len(f.notifier.jobMails)

	_, err = f.accounts.VerifyCode(ctx, code, "")
	assert.ErrorIs(t, err, ErrAlreadyVerified)
	assert.Len(t, f.notifier.jobMails, sent)
}

func TestVerifyCode_NoJob(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.accounts.RegisterClient(ctx, acme)
	require.NoError(t, err)
	res, err := f.accounts.VerifyCode(ctx, f.notifier.codes["a@x.com"], "")
	require.NoError(t, err)
	assert.False(t, res.JobActivated)
	assert.Empty(t, f.notifier.jobMails)
}

func TestVerifyCode_InvalidAndScoped(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.accounts.VerifyCode(ctx, "000000", "")
	assert.ErrorIs(t, err, ErrInvalidCode)

	_, err = f.accounts.RegisterClient(ctx, acme)
	require.NoError(t, err)
	code := f.notifier.codes["a@x.com"]

	_, err = f.accounts.VerifyCode(ctx, code, "someone@else.com")
	assert.ErrorIs(t, err, ErrInvalidCode)

	_, err = f.accounts.VerifyCode(ctx, code, "a@x.com")
	assert.NoError(t, err)
}

func TestVerifyCode_FanOutStopsAtFirstFailure(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	seedSellers(t, f.repos)
	f.notifier.failJobAt = 2

	_, err := f.accounts.RegisterClient(ctx, acme)
	require.NoError(t, err)
	_, _, err = f.jobs.Create(ctx, JobInput{JobEmail: "a@x.com", JobTitle: "t", JobCity: []string{"Zurich"}, JobSubCategories: []string{"painting"}})
	require.NoError(t, err)

	res, err := f.accounts.VerifyCode(ctx, f.notifier.codes["a@x.com"], "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmailDelivery)

	var fe *FanOutError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, 1, fe.Notified)
	assert.Equal(t, 2, fe.Total)
	assert.Equal(t, 1, res.Notified)

	// no rollback of the status updates
	c, err := f.repos.Clients.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, models.StatusVerified, c.Status)
}

func TestRegisterSellerAndVerify(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	s, err := f.accounts.RegisterSeller(ctx, RegisterSellerInput{Email: "s@x.com", Username: "painter", Password: "pw", CompanyName: "Paint AG"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, s.Status)

	_, err = f.accounts.RegisterSeller(ctx, RegisterSellerInput{Email: "t@x.com", Username: "painter", Password: "pw"})
	assert.ErrorIs(t, err, ErrUsernameExists)

	_, err = f.accounts.RegisterClient(ctx, RegisterClientInput{Username: "c", Email: "s@x.com", Password: "p"})
	assert.ErrorIs(t, err, ErrEmailExists)

	res, err := f.accounts.VerifyCode(ctx, f.notifier.codes["s@x.com"], "")
	require.NoError(t, err)
	assert.True(t, res.Seller)

	got, err := f.repos.Sellers.FindByEmail(ctx, "s@x.com")
	require.NoError(t, err)
	assert.Equal(t, models.StatusVerified, got.Status)

	_, token, err := f.accounts.LoginSeller(ctx, "painter", "pw")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
}

func TestLoginClient(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.accounts.RegisterClient(ctx, acme)
	require.NoError(t, err)

	// pending wins over a wrong or right password
	_, _, err = f.accounts.LoginClient(ctx, "a@x.com", "p")
	assert.ErrorIs(t, err, ErrVerifyAccount)
	_, _, err = f.accounts.LoginClient(ctx, "acme", "wrong")
	assert.ErrorIs(t, err, ErrVerifyAccount)

	_, err = f.accounts.VerifyCode(ctx, f.notifier.codes["a@x.com"], "")
	require.NoError(t, err)

	c, token, err := f.accounts.LoginClient(ctx, "a@x.com", "p")
	require.NoError(t, err)
	claims, err := utils.ValidateToken("test-secret", token)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", claims["email"])
	assert.Equal(t, c.ID.Hex(), claims["id"])

	_, _, err = f.accounts.LoginClient(ctx, "acme", "p")
	assert.NoError(t, err)

	_, _, err = f.accounts.LoginClient(ctx, "acme", "wrong")
	assert.ErrorIs(t, err, ErrIncorrectPassword)

	_, _, err = f.accounts.LoginClient(ctx, "nobody@x.com", "p")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestSendOTP_UnknownEmailPersistsNothing(t *testing.T) {
	f := newFixture()
	err := f.accounts.SendOTP(context.Background(), "ghost@x.com")
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Zero(t, f.otps.created)
	assert.Empty(t, f.notifier.otps)
}

func TestCheckOTP_Expiry(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	issued := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	f.accounts.now = func() time.Time { return issued }

	_, err := f.accounts.RegisterClient(ctx, acme)
	require.NoError(t, err)
	require.NoError(t, f.accounts.SendOTP(ctx, "a@x.com"))
	assert.Equal(t, 1, f.otps.created)
	otp := f.notifier.otps["a@x.com"]
	require.NotEmpty(t, otp)

	f.accounts.now = func() time.Time { return issued.Add(299 * time.Second) }
	assert.NoError(t, f.accounts.CheckOTP(ctx, otp))

	f.accounts.now = func() time.Time { return issued.Add(301 * time.Second) }
	assert.ErrorIs(t, f.accounts.CheckOTP(ctx, otp), ErrTokenExpired)

	assert.ErrorIs(t, f.accounts.CheckOTP(ctx, "nope"), ErrOTPNotMatch)
}

func TestChangePassword(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	c, err := f.accounts.CreateClientByAdmin(ctx, AdminClientInput{Username: "acme", Email: "a@x.com", Password: "old"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusVerified, c.Status)
	assert.Empty(t, f.notifier.codes)

	require.NoError(t, f.accounts.SendResetLink(ctx, "a@x.com"))
	link, err := url.Parse(f.notifier.resetLinks["a@x.com"])
	require.NoError(t, err)
	code := link.Query().Get("code")

	require.NoError(t, f.accounts.ChangePassword(ctx, "a@x.com", code, "new"))
	_, _, err = f.accounts.LoginClient(ctx, "acme", "new")
	assert.NoError(t, err)

	require.NoError(t, f.accounts.ChangePasswordByID(ctx, c.ID.Hex(), "newer"))
	_, _, err = f.accounts.LoginClient(ctx, "acme", "newer")
	assert.NoError(t, err)

	assert.ErrorIs(t, f.accounts.ChangePassword(ctx, "ghost@x.com", code, "x"), store.ErrNotFound)
	assert.ErrorIs(t, f.accounts.ChangePasswordByID(ctx, "bad-id", "x"), store.ErrNotFound)
}

func TestChangePassword_RequiresCodeForThatEmail(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.accounts.CreateClientByAdmin(ctx, AdminClientInput{Username: "acme", Email: "a@x.com", Password: "old"})
	require.NoError(t, err)
	_, err = f.accounts.CreateClientByAdmin(ctx, AdminClientInput{Username: "bob", Email: "b@x.com", Password: "old"})
	require.NoError(t, err)
	require.NoError(t, f.accounts.SendResetLink(ctx, "b@x.com"))
	bobLink, err := url.Parse(f.notifier.resetLinks["b@x.com"])
	require.NoError(t, err)

	assert.ErrorIs(t, f.accounts.ChangePassword(ctx, "a@x.com", "", "pwned"), ErrInvalidCode)
	assert.ErrorIs(t, f.accounts.ChangePassword(ctx, "a@x.com", "000000", "pwned"), ErrInvalidCode)
	// a code mailed to someone else does not unlock this account
	assert.ErrorIs(t, f.accounts.ChangePassword(ctx, "a@x.com", bobLink.Query().Get("code"), "pwned"), ErrInvalidCode)

	_, _, err = f.accounts.LoginClient(ctx, "acme", "old")
	assert.NoError(t, err)
}

func TestChangePassword_WithOTP(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	issued := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	f.accounts.now = func() time.Time { return issued }

	_, err := f.accounts.CreateClientByAdmin(ctx, AdminClientInput{Username: "acme", Email: "a@x.com", Password: "old"})
	require.NoError(t, err)
	require.NoError(t, f.accounts.SendOTP(ctx, "a@x.com"))
	otp := f.notifier.otps["a@x.com"]

	f.accounts.now = func() time.Time { return issued.Add(301 * time.Second) }
	assert.ErrorIs(t, f.accounts.ChangePassword(ctx, "a@x.com", otp, "late"), ErrTokenExpired)

	f.accounts.now = func() time.Time { return issued.Add(60 * time.Second) }
	require.NoError(t, f.accounts.ChangePassword(ctx, "a@x.com", otp, "new"))
	_, _, err = f.accounts.LoginClient(ctx, "acme", "new")
	assert.NoError(t, err)
}

func TestUpdateClient_KeepsEmailsUnique(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	a, err := f.accounts.CreateClientByAdmin(ctx, AdminClientInput{Username: "acme", Email: "a@x.com", Password: "p"})
	require.NoError(t, err)
	_, err = f.accounts.CreateClientByAdmin(ctx, AdminClientInput{Username: "bob", Email: "b@x.com", Password: "p"})
	require.NoError(t, err)
	require.NoError(t, f.repos.Sellers.Create(ctx, &models.Seller{Email: "s@x.com", Username: "s"}))

	str := func(v string) *string { return &v }

	_, err = f.accounts.UpdateClient(ctx, a.ID.Hex(), ClientUpdate{Email: str("s@x.com")})
	assert.ErrorIs(t, err, ErrEmailExists)
	_, err = f.accounts.UpdateClient(ctx, a.ID.Hex(), ClientUpdate{Email: str("b@x.com")})
	assert.ErrorIs(t, err, ErrEmailExists)
	_, err = f.accounts.UpdateClient(ctx, a.ID.Hex(), ClientUpdate{Username: str("bob")})
	assert.ErrorIs(t, err, ErrUsernameExists)

	// resubmitting the own email is not a clash
	got, err := f.accounts.UpdateClient(ctx, a.ID.Hex(), ClientUpdate{Email: str("a@x.com"), Firstname: str("Ada")})
	require.NoError(t, err)
	assert.Equal(t, "Ada", got.Firstname)

	got, err = f.accounts.UpdateClient(ctx, a.ID.Hex(), ClientUpdate{Email: str("new@x.com")})
	require.NoError(t, err)
	assert.Equal(t, "new@x.com", got.Email)
	assert.Equal(t, "acme", got.Username)

	_, err = f.accounts.UpdateClient(ctx, "000000000000000000000000", ClientUpdate{})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestSendResetLink(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.accounts.CreateClientByAdmin(ctx, AdminClientInput{Username: "acme", Email: "a@x.com", Password: "p"})
	require.NoError(t, err)
	require.NoError(t, f.accounts.SendResetLink(ctx, "a@x.com"))

	link, err := url.Parse(f.notifier.resetLinks["a@x.com"])
	require.NoError(t, err)
	assert.Equal(t, "/client-change-password", link.Path)
	assert.Equal(t, "a@x.com", link.Query().Get("email"))

	_, err = f.repos.Codes.FindByEmailAndCode(ctx, "a@x.com", link.Query().Get("code"))
	assert.NoError(t, err)

	assert.ErrorIs(t, f.accounts.SendResetLink(ctx, "ghost@x.com"), store.ErrNotFound)
}

func TestIsEmail(t *testing.T) {
	assert.True(t, IsEmail("a@x.com"))
	assert.False(t, IsEmail("acme"))
	assert.False(t, IsEmail("a @x.com"))
	assert.False(t, IsEmail("a@x"))
}
