package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/iudanet/tokenauth/internal/crypto"
	"github.com/iudanet/tokenauth/internal/models"
	"github.com/iudanet/tokenauth/internal/server/storage"
)

// Issued is the outcome of a successful login or validation: the triplet the
// client must present next time, plus the principal it belongs to.
type Issued struct {
	ExpiresAt   time.Time
	PrincipalID string
	ClientID    string
	Token       string
}

// Issuer mints tokens and writes their hashes to the store.
type Issuer struct {
	store       storage.SessionStorage
	now         func() time.Time
	newClientID func() string
	cfg         Config
}

// NewIssuer returns an Issuer using cfg for token size and lifetime.
func NewIssuer(store storage.SessionStorage, cfg Config) *Issuer {
	return &Issuer{
		store:       store,
		cfg:         cfg,
		now:         time.Now,
		newClientID: newClientID,
	}
}

func newClientID() string {
	return ulid.Make().String()
}

// Create starts a new device session for principalID under a fresh client id.
func (i *Issuer) Create(ctx context.Context, principalID string) (Issued, error) {
	token, err := crypto.GenerateToken(i.cfg.TokenBytes)
	if err != nil {
		return Issued{}, fmt.Errorf("failed to generate token: %w", err)
	}

	now := i.now()
	sess := &models.DeviceSession{
		PrincipalID: principalID,
		ClientID:    i.newClientID(),
		TokenHash:   crypto.HashToken(token),
		ExpiresAt:   now.Add(i.cfg.SessionTTL),
		LastUsedAt:  now,
		CreatedAt:   now,
	}

	err = i.store.CreateSession(ctx, sess)
	if errors.Is(err, storage.ErrDuplicateSession) {
		// a ULID collision is practically impossible, one retry is plenty
		sess.ClientID = i.newClientID()
		err = i.store.CreateSession(ctx, sess)
	}
	if err != nil {
		return Issued{}, fmt.Errorf("failed to create session: %w", err)
	}

	return Issued{
		PrincipalID: principalID,
		ClientID:    sess.ClientID,
		Token:       token,
		ExpiresAt:   sess.ExpiresAt,
	}, nil
}

// Rotate replaces the current token of sess, provided its stored hash is
// still sess.TokenHash. The swap is detached from ctx cancellation so a
// dropped request cannot leave the client without its new token half-way
// through; StoreTimeout bounds it instead.
func (i *Issuer) Rotate(ctx context.Context, sess *models.DeviceSession) (Issued, error) {
	token, err := crypto.GenerateToken(i.cfg.TokenBytes)
	if err != nil {
		return Issued{}, fmt.Errorf("failed to generate token: %w", err)
	}

	now := i.now()
	expiresAt := now.Add(i.cfg.SessionTTL)

	swapCtx, cancel := i.swapContext(ctx)
	defer cancel()

	err = i.store.CompareAndSwapToken(swapCtx, sess.PrincipalID, sess.ClientID,
		sess.TokenHash, crypto.HashToken(token), expiresAt, now)
	switch {
	case err == nil:
	case errors.Is(err, storage.ErrConflict):
		return Issued{}, ErrRaceLost
	case errors.Is(err, storage.ErrSessionNotFound):
		return Issued{}, ErrUnknownSession
	default:
		return Issued{}, fmt.Errorf("failed to rotate token: %w", err)
	}

	return Issued{
		PrincipalID: sess.PrincipalID,
		ClientID:    sess.ClientID,
		Token:       token,
		ExpiresAt:   expiresAt,
	}, nil
}

func (i *Issuer) swapContext(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx = context.WithoutCancel(ctx)
	if i.cfg.StoreTimeout > 0 {
		return context.WithTimeout(ctx, i.cfg.StoreTimeout)
	}
	return context.WithCancel(ctx)
}
