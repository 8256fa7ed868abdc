package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tourtab/mailer"
	"tourtab/structs"
	"tourtab/utils"

	"golang.org/x/crypto/bcrypt"
)

const (
	otpTTL    = 10 * time.Minute
	otpDigits = 6
)

var (
	ErrMissingFields      = errors.New("all fields are required")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnknownEmail       = errors.New("no account found with this email")
	ErrCodeInvalid        = errors.New("invalid or expired OTP")
	ErrSendFailed         = errors.New("failed to send OTP")
)

// Service implements signup, signin and the password-reset flow.
type Service struct {
	store Store
	mail  mailer.Sender
	now   func() time.Time
}

func NewService(store Store, mail mailer.Sender) *Service {
	return &Service{store: store, mail: mail, now: time.Now}
}

// AuthResult is what a successful signup or signin hands back to the caller.
type AuthResult struct {
	Token string
	User  *structs.User
}

func (s *Service) Signup(ctx context.Context, name, email, password string) (*AuthResult, error) {
	if name == "" || email == "" || password == "" {
		return nil, ErrMissingFields
	}

	_, err := s.store.UserByEmail(ctx, email)
	if err == nil {
		return nil, ErrEmailTaken
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &structs.User{
		UserID:    utils.GetUUID(),
		Name:      name,
		Email:     email,
		Password:  string(hashed),
		CreatedAt: s.now(),
	}
	if err := s.store.InsertUser(ctx, user); err != nil {
		return nil, err
	}

	token, err := generateToken(user)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: user}, nil
}

// Signin deliberately answers "invalid credentials" for both an unknown
// email and a wrong password so callers cannot probe which emails exist.
func (s *Service) Signin(ctx context.Context, email, password string) (*AuthResult, error) {
	if email == "" || password == "" {
		return nil, ErrMissingFields
	}

	user, err := s.store.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := generateToken(user)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: user}, nil
}

// RequestPasswordReset issues a fresh code, superseding any outstanding one,
// and mails it out. A send failure is surfaced, not swallowed.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	if email == "" {
		return ErrMissingFields
	}

	if _, err := s.store.UserByEmail(ctx, email); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrUnknownEmail
		}
		return err
	}

	code := utils.GenerateRandomDigitString(otpDigits)
	rec := structs.OTP{
		Email:     email,
		Code:      code,
		ExpiresAt: s.now().Add(otpTTL),
	}
	if err := s.store.ReplaceOTP(ctx, rec); err != nil {
		return err
	}

	body := fmt.Sprintf("Your password reset code is: %s\n\nThis code expires in 10 minutes.\nIf you didn't request this, ignore this email.", code)
	if err := s.mail.Send(email, "TravelBudget - Password Reset OTP", body); err != nil {
		return fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	return nil
}

func (s *Service) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	if email == "" || code == "" || newPassword == "" {
		return ErrMissingFields
	}

	rec, err := s.store.OTPByEmailCode(ctx, email, code)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrCodeInvalid
		}
		return err
	}
	if rec.ExpiresAt.Before(s.now()) {
		return ErrCodeInvalid
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.store.UpdatePassword(ctx, email, string(hashed)); err != nil {
		return err
	}
	return s.store.DeleteOTPs(ctx, email)
}
