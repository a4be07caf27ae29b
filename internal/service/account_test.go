package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ligtascab/ligtascab/config"
	"github.com/ligtascab/ligtascab/internal/auth"
	"github.com/ligtascab/ligtascab/internal/model"
	"github.com/ligtascab/ligtascab/internal/repository"
)

type fakeCommuterStore struct {
	byPhone map[string]*model.Commuter
	byID    map[string]*model.Commuter
}

func newFakeCommuterStore() *fakeCommuterStore {
	return &fakeCommuterStore{
		byPhone: make(map[string]*model.Commuter),
		byID:    make(map[string]*model.Commuter),
	}
}

func (f *fakeCommuterStore) CreateCommuter(_ context.Context, c *model.Commuter) (*model.Commuter, error) {
	if _, exists := f.byPhone[c.PhoneNumber]; exists {
		return nil, repository.ErrPhoneTaken
	}
	c.ID = "commuter-" + c.PhoneNumber
	c.CreatedAt = time.Now()
	f.byPhone[c.PhoneNumber] = c
	f.byID[c.ID] = c
	return c, nil
}

func (f *fakeCommuterStore) FetchByPhone(_ context.Context, phone string) (*model.Commuter, error) {
	c, ok := f.byPhone[phone]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return c, nil
}

func (f *fakeCommuterStore) FetchByID(_ context.Context, id string) (*model.Commuter, error) {
	c, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return c, nil
}

type fakeOTPSender struct {
	phones []string
}

func (f *fakeOTPSender) SendOTP(_ context.Context, phone string) (json.RawMessage, error) {
	f.phones = append(f.phones, phone)
	return json.RawMessage(`{"ok":true}`), nil
}

func testAccounts() (*AccountService, *fakeCommuterStore, *fakeOTPSender) {
	store := newFakeCommuterStore()
	sender := &fakeOTPSender{}
	authSvc := auth.NewService(config.AuthConfig{JWTSecret: "test-secret", TokenTTL: time.Hour})
	return NewAccountService(store, authSvc, sender), store, sender
}

func validRegistration() model.Registration {
	return model.Registration{
		FirstName:   "Juan",
		LastName:    "Dela Cruz",
		PhoneNumber: "+639171234567",
		Email:       "juan@example.com",
		Address:     "Naga City",
		Password:    "secret123",
	}
}

func TestRegisterAndSignIn(t *testing.T) {
	svc, _, _ := testAccounts()

	commuter, token, err := svc.Register(context.Background(), validRegistration())
	require.NoError(t, err)
	assert.NotEmpty(t, commuter.ID)
	assert.NotEmpty(t, token)
	assert.NotEqual(t, "secret123", commuter.PasswordHash)

	signedIn, token2, err := svc.SignIn(context.Background(), "+639171234567", "secret123")
	require.NoError(t, err)
	assert.Equal(t, commuter.ID, signedIn.ID)
	assert.NotEmpty(t, token2)
}

func TestRegister_AggregatedValidation(t *testing.T) {
	svc, _, _ := testAccounts()

	reg := model.Registration{Email: "not-an-email", Password: "abc"}
	_, _, err := svc.Register(context.Background(), reg)
	require.Error(t, err)

	// Every failing field shows up in the one combined message.
	msg := err.Error()
	assert.Contains(t, msg, "first_name")
	assert.Contains(t, msg, "last_name")
	assert.Contains(t, msg, "phone_number")
	assert.Contains(t, msg, "email")
	assert.Contains(t, msg, "address")
	assert.Contains(t, msg, "password")
}

func TestRegister_PhoneTaken(t *testing.T) {
	svc, _, _ := testAccounts()

	_, _, err := svc.Register(context.Background(), validRegistration())
	require.NoError(t, err)

	_, _, err = svc.Register(context.Background(), validRegistration())
	assert.ErrorIs(t, err, ErrPhoneTaken)
}

func TestSignIn_BadCredentials(t *testing.T) {
	svc, _, _ := testAccounts()

	_, _, err := svc.Register(context.Background(), validRegistration())
	require.NoError(t, err)

	_, _, err = svc.SignIn(context.Background(), "+639171234567", "wrong-password")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	_, _, err = svc.SignIn(context.Background(), "+630000000000", "secret123")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestRequestOTP(t *testing.T) {
	svc, _, sender := testAccounts()

	resp, err := svc.RequestOTP(context.Background(), "+639171234567")
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(resp))
	assert.Equal(t, []string{"+639171234567"}, sender.phones)
}

func TestSession(t *testing.T) {
	svc, _, _ := testAccounts()

	commuter, _, err := svc.Register(context.Background(), validRegistration())
	require.NoError(t, err)

	got, err := svc.Session(context.Background(), commuter.ID)
	require.NoError(t, err)
	assert.Equal(t, commuter.PhoneNumber, got.PhoneNumber)

	_, err = svc.Session(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrCommuterNotFound)
}
