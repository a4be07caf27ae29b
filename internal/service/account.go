package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/ligtascab/ligtascab/internal/auth"
	"github.com/ligtascab/ligtascab/internal/model"
	"github.com/ligtascab/ligtascab/internal/repository"
)

// ─── Account Errors ─────────────────────────────────────────

var (
	ErrCommuterNotFound = errors.New("commuter account not found")
	ErrPhoneTaken       = errors.New("phone number already registered")
)

// CommuterStore manages commuter account rows.
type CommuterStore interface {
	CreateCommuter(ctx context.Context, c *model.Commuter) (*model.Commuter, error)
	FetchByPhone(ctx context.Context, phone string) (*model.Commuter, error)
	FetchByID(ctx context.Context, id string) (*model.Commuter, error)
}

// OTPSender requests a one-time code during sign-up.
type OTPSender interface {
	SendOTP(ctx context.Context, phone string) (json.RawMessage, error)
}

// ─── AccountService ─────────────────────────────────────────

// AccountService covers sign-up, sign-in, session retrieval and the OTP
// hand-off to the external send-otp function.
type AccountService struct {
	commuters CommuterStore
	auth      *auth.Service
	otp       OTPSender
}

// NewAccountService creates an account service.
func NewAccountService(commuters CommuterStore, authSvc *auth.Service, otp OTPSender) *AccountService {
	return &AccountService{commuters: commuters, auth: authSvc, otp: otp}
}

// RequestOTP relays the phone number to the send-otp function and returns
// the response JSON unchanged (the client does not validate its shape).
func (s *AccountService) RequestOTP(ctx context.Context, phone string) (json.RawMessage, error) {
	return s.otp.SendOTP(ctx, phone)
}

// Register validates the registration, creates the account and signs it in.
// Validation failures arrive as a single aggregated message covering every
// failing field.
func (s *AccountService) Register(ctx context.Context, reg model.Registration) (*model.Commuter, string, error) {
	if err := reg.Validate(); err != nil {
		return nil, "", err
	}

	hash, err := s.auth.HashPassword(reg.Password)
	if err != nil {
		return nil, "", fmt.Errorf("register: %w", err)
	}

	commuter := &model.Commuter{
		FirstName:    reg.FirstName,
		LastName:     reg.LastName,
		PhoneNumber:  reg.PhoneNumber,
		Email:        reg.Email,
		Address:      reg.Address,
		PasswordHash: hash,
	}

	created, err := s.commuters.CreateCommuter(ctx, commuter)
	if err != nil {
		if errors.Is(err, repository.ErrPhoneTaken) {
			return nil, "", ErrPhoneTaken
		}
		return nil, "", fmt.Errorf("register: %w", err)
	}

	token, err := s.auth.GenerateToken(created)
	if err != nil {
		return nil, "", fmt.Errorf("register: issue token: %w", err)
	}

	log.Printf("[account] ✓ Registered commuter %s (%s)", created.ID, created.PhoneNumber)
	return created, token, nil
}

// SignIn authenticates phone+password and issues a session token. The same
// error covers unknown phones and wrong passwords — no account probing.
func (s *AccountService) SignIn(ctx context.Context, phone, password string) (*model.Commuter, string, error) {
	commuter, err := s.commuters.FetchByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", auth.ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("sign in: %w", err)
	}

	if !s.auth.CheckPassword(password, commuter.PasswordHash) {
		return nil, "", auth.ErrInvalidCredentials
	}

	token, err := s.auth.GenerateToken(commuter)
	if err != nil {
		return nil, "", fmt.Errorf("sign in: issue token: %w", err)
	}

	return commuter, token, nil
}

// Session returns the account for an authenticated commuter ID.
func (s *AccountService) Session(ctx context.Context, commuterID string) (*model.Commuter, error) {
	commuter, err := s.commuters.FetchByID(ctx, commuterID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCommuterNotFound
		}
		return nil, fmt.Errorf("session: %w", err)
	}
	return commuter, nil
}
