package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/suisse-offerten/marketplace-api/config"
	"github.com/suisse-offerten/marketplace-api/models"
	"github.com/suisse-offerten/marketplace-api/store"
	"github.com/suisse-offerten/marketplace-api/utils"
)

// OTPLifetime is how long a password-reset OTP stays valid.
const OTPLifetime = 300 * time.Second

type RegisterClientInput struct {
	Salutation  string `json:"salutation"`
	Firstname   string `json:"firstname"`
	Lastname    string `json:"lastname"`
	Email       string `json:"email" validate:"required,email"`
	Phone       string `json:"phone"`
	SecondPhone string `json:"secondPhone"`
	Username    string `json:"username" validate:"required"`
	Referance   string `json:"referance"`
	Password    string `json:"password" validate:"required"`
	Agreement   bool   `json:"agreement"`
	Newsletter  bool   `json:"newsletter"`
}

type AdminClientInput struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone"`
	Password string `json:"password" validate:"required"`
}

type RegisterSellerInput struct {
	Email       string   `json:"email" validate:"required,email"`
	Username    string   `json:"username" validate:"required"`
	Password    string   `json:"password" validate:"required"`
	CompanyName string   `json:"companyName"`
	Phone       string   `json:"phone"`
	Address     string   `json:"address"`
	Website     string   `json:"website"`
	Description string   `json:"description"`
	Preference  []string `json:"preference"`
	Activities  []string `json:"activities"`
}

// VerifyResult describes what a consumed verification code changed.
type VerifyResult struct {
	Email        string
	Seller       bool
	JobActivated bool
	Notified     int
}

// Accounts implements the client and seller account flows.
type Accounts struct {
	repos    store.Repositories
	notifier Notifier
	auth     config.AuthConfig
	resetURL string
	logger   zerolog.Logger
	now      func() time.Time
}

func NewAccounts(repos store.Repositories, notifier Notifier, cfg *config.Config, logger zerolog.Logger) *Accounts {
	return &Accounts{
		repos:    repos,
		notifier: notifier,
		auth:     cfg.Auth,
		resetURL: cfg.Mail.ResetURL,
		logger:   logger,
		now:      time.Now,
	}
}

func (a *Accounts) hash(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), a.auth.BcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(h), nil
}

// checkEmailFree fails with ErrEmailExists when a client or a seller already
// uses email.
func (a *Accounts) checkEmailFree(ctx context.Context, email string) error {
	c, err := optional(a.repos.Clients.FindByEmail(ctx, email))
	if err != nil {
		return err
	}
	s, err := optional(a.repos.Sellers.FindByEmail(ctx, email))
	if err != nil {
		return err
	}
	if c != nil || s != nil {
		return ErrEmailExists
	}
	return nil
}

// issueCode persists a fresh verification code for email.
func (a *Accounts) issueCode(ctx context.Context, email string) (string, error) {
	code, err := GenerateCode()
	if err != nil {
		return "", err
	}
	if err := a.repos.Codes.Create(ctx, &models.VerificationCode{Email: email, Code: code}); err != nil {
		return "", fmt.Errorf("save verification code: %w", err)
	}
	return code, nil
}

// RegisterClient creates a pending client and mails it a verification code.
// When the mail fails the client and code stay persisted.
func (a *Accounts) RegisterClient(ctx context.Context, in RegisterClientInput) (*models.Client, error) {
	if err := a.checkEmailFree(ctx, in.Email); err != nil {
		return nil, err
	}
	byName, err := optional(a.repos.Clients.FindByUsername(ctx, in.Username))
	if err != nil {
		return nil, err
	}
	if byName != nil {
		return nil, ErrUsernameExists
	}

	hash, err := a.hash(in.Password)
	if err != nil {
		return nil, err
	}
	client := &models.Client{
		Salutation:  in.Salutation,
		Firstname:   in.Firstname,
		Lastname:    in.Lastname,
		Email:       in.Email,
		Phone:       in.Phone,
		SecondPhone: in.SecondPhone,
		Username:    in.Username,
		Referance:   in.Referance,
		Agreement:   in.Agreement,
		Newsletter:  in.Newsletter,
		Password:    hash,
		Status:      models.StatusPending,
	}
	if err := a.repos.Clients.Create(ctx, client); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("create client: %w", err)
	}

	code, err := a.issueCode(ctx, client.Email)
	if err != nil {
		return client, err
	}
	if err := a.notifier.SendVerificationCode(ctx, client.Email, client.Username, code); err != nil {
		return client, fmt.Errorf("%w: %v", ErrEmailDelivery, err)
	}
	return client, nil
}

// CreateClientByAdmin creates an account without the email verification
// step; the client can log in right away.
func (a *Accounts) CreateClientByAdmin(ctx context.Context, in AdminClientInput) (*models.Client, error) {
	if err := a.checkEmailFree(ctx, in.Email); err != nil {
		return nil, err
	}
	byName, err := optional(a.repos.Clients.FindByUsername(ctx, in.Username))
	if err != nil {
		return nil, err
	}
	if byName != nil {
		return nil, ErrUsernameExists
	}

	hash, err := a.hash(in.Password)
	if err != nil {
		return nil, err
	}
	client := &models.Client{
		Username: in.Username,
		Email:    in.Email,
		Phone:    in.Phone,
		Password: hash,
		Status:   models.StatusVerified,
	}
	if err := a.repos.Clients.Create(ctx, client); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("create client: %w", err)
	}
	return client, nil
}

// ClientUpdate carries the editable profile fields; nil fields are left
// unchanged.
type ClientUpdate struct {
	Salutation  *string `json:"salutation"`
	Firstname   *string `json:"firstname"`
	Lastname    *string `json:"lastname"`
	Email       *string `json:"email" validate:"omitempty,email"`
	Phone       *string `json:"phone"`
	SecondPhone *string `json:"secondPhone"`
	Username    *string `json:"username" validate:"omitempty,min=1"`
	Referance   *string `json:"referance"`
	Agreement   *bool   `json:"agreement"`
	Newsletter  *bool   `json:"newsletter"`
}

func (u ClientUpdate) apply(c *models.Client) {
	assign(&c.Salutation, u.Salutation)
	assign(&c.Firstname, u.Firstname)
	assign(&c.Lastname, u.Lastname)
	assign(&c.Email, u.Email)
	assign(&c.Phone, u.Phone)
	assign(&c.SecondPhone, u.SecondPhone)
	assign(&c.Username, u.Username)
	assign(&c.Referance, u.Referance)
	assign(&c.Agreement, u.Agreement)
	assign(&c.Newsletter, u.Newsletter)
}

func assign[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

// UpdateClient applies a profile update. A new email must not be used by
// another client or any seller, a new username not by another client.
func (a *Accounts) UpdateClient(ctx context.Context, id string, in ClientUpdate) (*models.Client, error) {
	client, err := a.repos.Clients.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Email != nil && *in.Email != client.Email {
		if err := a.checkEmailFree(ctx, *in.Email); err != nil {
			return nil, err
		}
	}
	if in.Username != nil && *in.Username != client.Username {
		byName, err := optional(a.repos.Clients.FindByUsername(ctx, *in.Username))
		if err != nil {
			return nil, err
		}
		if byName != nil {
			return nil, ErrUsernameExists
		}
	}

	in.apply(client)
	if err := a.repos.Clients.Save(ctx, client); err != nil {
		return nil, fmt.Errorf("update client: %w", err)
	}
	return client, nil
}

// RegisterSeller creates a pending seller and mails it a verification code.
func (a *Accounts) RegisterSeller(ctx context.Context, in RegisterSellerInput) (*models.Seller, error) {
	if err := a.checkEmailFree(ctx, in.Email); err != nil {
		return nil, err
	}
	byName, err := optional(a.repos.Sellers.FindByUsername(ctx, in.Username))
	if err != nil {
		return nil, err
	}
	if byName != nil {
		return nil, ErrUsernameExists
	}

	hash, err := a.hash(in.Password)
	if err != nil {
		return nil, err
	}
	seller := &models.Seller{
		Email:       in.Email,
		Username:    in.Username,
		Password:    hash,
		Status:      models.StatusPending,
		CompanyName: in.CompanyName,
		Phone:       in.Phone,
		Address:     in.Address,
		Website:     in.Website,
		Description: in.Description,
		Preference:  in.Preference,
		Activities:  in.Activities,
	}
	if err := a.repos.Sellers.Create(ctx, seller); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("create seller: %w", err)
	}

	code, err := a.issueCode(ctx, seller.Email)
	if err != nil {
		return seller, err
	}
	name := seller.CompanyName
	if name == "" {
		name = seller.Username
	}
	if err := a.notifier.SendVerificationCode(ctx, seller.Email, name, code); err != nil {
		return seller, fmt.Errorf("%w: %v", ErrEmailDelivery, err)
	}
	return seller, nil
}

// VerifyCode consumes a verification code. For a client it marks the client
// verified, activates the client's job and mails every matched seller, one
// after the other. A failing mail stops the loop; the status updates are not
// rolled back and the returned *FanOutError says how far it got.
//
// With email empty the code is looked up by value alone, so two accounts that
// drew the same code resolve to whichever record the store returns first.
// Passing email scopes the lookup to that account.
func (a *Accounts) VerifyCode(ctx context.Context, code, email string) (*VerifyResult, error) {
	var (
		vc  *models.VerificationCode
		err error
	)
	if email != "" {
		vc, err = a.repos.Codes.FindByEmailAndCode(ctx, email, code)
	} else {
		vc, err = a.repos.Codes.FindByCode(ctx, code)
	}
	if store.IsNotFound(err) {
		return nil, ErrInvalidCode
	}
	if err != nil {
		return nil, fmt.Errorf("find code: %w", err)
	}

	client, err := optional(a.repos.Clients.FindByEmail(ctx, vc.Email))
	if err != nil {
		return nil, err
	}
	if client == nil {
		return a.verifySeller(ctx, vc.Email)
	}
	if client.Status == models.StatusVerified {
		return nil, ErrAlreadyVerified
	}

	job, err := optional(a.repos.Jobs.FindByEmail(ctx, vc.Email))
	if err != nil {
		return nil, err
	}
	sellers, err := MatchSellers(ctx, a.repos.Sellers, job)
	if err != nil {
		return nil, err
	}

	client.Status = models.StatusVerified
	if err := a.repos.Clients.Save(ctx, client); err != nil {
		return nil, fmt.Errorf("verify client: %w", err)
	}
	res := &VerifyResult{Email: vc.Email}
	if job == nil {
		return res, nil
	}

	job.Status = models.JobStatusActive
	if err := a.repos.Jobs.Save(ctx, job); err != nil {
		return res, fmt.Errorf("activate job: %w", err)
	}
	res.JobActivated = true

	res.Notified, err = notifySellers(ctx, a.notifier, a.logger, sellers, *job)
	return res, err
}

func (a *Accounts) verifySeller(ctx context.Context, email string) (*VerifyResult, error) {
	seller, err := a.repos.Sellers.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if seller.Status == models.StatusVerified {
		return nil, ErrAlreadyVerified
	}
	seller.Status = models.StatusVerified
	if err := a.repos.Sellers.Save(ctx, seller); err != nil {
		return nil, fmt.Errorf("verify seller: %w", err)
	}
	return &VerifyResult{Email: email, Seller: true}, nil
}

// checkLogin applies the login rules shared by clients and sellers: a pending
// account is refused before the password is looked at.
func checkLogin(status, hash, password string) error {
	if status == models.StatusPending {
		return ErrVerifyAccount
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrIncorrectPassword
	}
	return nil
}

// LoginClient authenticates by email or username and returns a signed token.
func (a *Accounts) LoginClient(ctx context.Context, input, password string) (*models.Client, string, error) {
	var (
		client *models.Client
		err    error
	)
	if IsEmail(input) {
		client, err = a.repos.Clients.FindByEmail(ctx, input)
	} else {
		client, err = a.repos.Clients.FindByUsername(ctx, input)
	}
	if err != nil {
		return nil, "", err
	}
	if err := checkLogin(client.Status, client.Password, password); err != nil {
		return nil, "", err
	}

	token, err := utils.GenerateToken(a.auth.SecretKey, a.auth.TokenTTL, client.Email, client.ID.Hex())
	if err != nil {
		return nil, "", err
	}
	return client, token, nil
}

func (a *Accounts) LoginSeller(ctx context.Context, input, password string) (*models.Seller, string, error) {
	var (
		seller *models.Seller
		err    error
	)
	if IsEmail(input) {
		seller, err = a.repos.Sellers.FindByEmail(ctx, input)
	} else {
		seller, err = a.repos.Sellers.FindByUsername(ctx, input)
	}
	if err != nil {
		return nil, "", err
	}
	if err := checkLogin(seller.Status, seller.Password, password); err != nil {
		return nil, "", err
	}

	token, err := utils.GenerateToken(a.auth.SecretKey, a.auth.TokenTTL, seller.Email, seller.ID.Hex())
	if err != nil {
		return nil, "", err
	}
	return seller, token, nil
}

// SendOTP issues a password-reset OTP for an existing client. Unknown emails
// fail with store.ErrNotFound and persist nothing.
func (a *Accounts) SendOTP(ctx context.Context, email string) error {
	if _, err := a.repos.Clients.FindByEmail(ctx, email); err != nil {
		return err
	}
	code, err := GenerateCode()
	if err != nil {
		return err
	}
	otp := &models.OneTimePassword{
		Email:    email,
		Code:     code,
		ExpireIn: a.now().Add(OTPLifetime).UnixMilli(),
	}
	if err := a.repos.OTPs.Create(ctx, otp); err != nil {
		return fmt.Errorf("save otp: %w", err)
	}
	if err := a.notifier.SendPasswordOTP(ctx, email, code); err != nil {
		return fmt.Errorf("%w: %v", ErrEmailDelivery, err)
	}
	return nil
}

// CheckOTP validates an OTP. Expiry is only evaluated here; expired records
// are never purged.
func (a *Accounts) CheckOTP(ctx context.Context, code string) error {
	otp, err := a.repos.OTPs.FindByCode(ctx, code)
	if store.IsNotFound(err) {
		return ErrOTPNotMatch
	}
	if err != nil {
		return fmt.Errorf("find otp: %w", err)
	}
	if otp.Expired(a.now()) {
		return ErrTokenExpired
	}
	return nil
}

// ChangePassword sets a new password for the client registered under email.
// code must be a verification code issued to that email, as carried by the
// reset link, or an unexpired OTP issued for it.
func (a *Accounts) ChangePassword(ctx context.Context, email, code, password string) error {
	client, err := a.repos.Clients.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if err := a.checkResetCode(ctx, email, code); err != nil {
		return err
	}
	return a.setPassword(ctx, client, password)
}

func (a *Accounts) checkResetCode(ctx context.Context, email, code string) error {
	if code == "" {
		return ErrInvalidCode
	}
	_, err := a.repos.Codes.FindByEmailAndCode(ctx, email, code)
	if err == nil {
		return nil
	}
	if !store.IsNotFound(err) {
		return fmt.Errorf("find verification code: %w", err)
	}

	otp, err := a.repos.OTPs.FindByCode(ctx, code)
	if store.IsNotFound(err) || (err == nil && otp.Email != email) {
		return ErrInvalidCode
	}
	if err != nil {
		return fmt.Errorf("find otp: %w", err)
	}
	if otp.Expired(a.now()) {
		return ErrTokenExpired
	}
	return nil
}

func (a *Accounts) ChangePasswordByID(ctx context.Context, id, password string) error {
	client, err := a.repos.Clients.FindByID(ctx, id)
	if err != nil {
		return err
	}
	return a.setPassword(ctx, client, password)
}

func (a *Accounts) setPassword(ctx context.Context, client *models.Client, password string) error {
	hash, err := a.hash(password)
	if err != nil {
		return err
	}
	client.Password = hash
	if err := a.repos.Clients.Save(ctx, client); err != nil {
		return fmt.Errorf("save password: %w", err)
	}
	return nil
}

// SendResetLink mails a change-password link carrying a fresh verification
// code and the account email.
func (a *Accounts) SendResetLink(ctx context.Context, email string) error {
	if _, err := a.repos.Clients.FindByEmail(ctx, email); err != nil {
		return err
	}
	code, err := a.issueCode(ctx, email)
	if err != nil {
		return err
	}
	link, err := resetLink(a.resetURL, code, email)
	if err != nil {
		return err
	}
	if err := a.notifier.SendResetLink(ctx, email, link); err != nil {
		return fmt.Errorf("%w: %v", ErrEmailDelivery, err)
	}
	return nil
}

func resetLink(base, code, email string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse RESET_PASSWORD_URL: %w", err)
	}
	q := u.Query()
	q.Set("code", code)
	q.Set("email", email)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
