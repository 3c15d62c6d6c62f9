package tokenservice

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sushihentaime/dreamblog/internal/common"
)

const defaultIssuer = "dreamblog"

var allPurposes = []Purpose{PurposeAccess, PurposeRefresh, PurposeEmailVerification, PurposeAccountDeletion}

// WithClock replaces time.Now for issuing and verifying.
func WithClock(now func() time.Time) Option {
	return func(s *TokenService) {
		if now != nil {
			s.now = now
		}
	}
}

func WithIssuer(issuer string) Option {
	return func(s *TokenService) {
		if issuer != "" {
			s.issuer = issuer
		}
	}
}

// NewTokenService requires a non-empty key for every purpose, and no two purposes may share a
// key, so that a token leaked from one flow can never be replayed in another.
func NewTokenService(keys Keys, opts ...Option) (*TokenService, error) {
	for i, p := range allPurposes {
		if len(keys[p]) == 0 {
			return nil, fmt.Errorf("missing signing key for purpose %q", p)
		}
		for _, other := range allPurposes[i+1:] {
			if bytes.Equal(keys[p], keys[other]) {
				return nil, fmt.Errorf("purposes %q and %q share a signing key", p, other)
			}
		}
	}

	s := &TokenService{
		keys:   make(Keys, len(keys)),
		issuer: defaultIssuer,
		now:    time.Now,
	}
	for p, k := range keys {
		s.keys[p] = bytes.Clone(k)
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Hash is the form in which single-use tokens are stored and compared.
func Hash(token string) []byte {
	hash := sha256.Sum256([]byte(token))
	return hash[:]
}

// Issue signs a token for subjectID valid for ttl.
func (s *TokenService) Issue(subjectID int, purpose Purpose, ttl time.Duration) (*Token, error) {
	return s.IssueForDevice(subjectID, purpose, ttl, "")
}

// IssueForDevice is Issue with a device id embedded, used for access and refresh tokens.
func (s *TokenService) IssueForDevice(subjectID int, purpose Purpose, ttl time.Duration, deviceID string) (*Token, error) {
	key, ok := s.keys[purpose]
	if !ok {
		return nil, fmt.Errorf("unknown token purpose %q", purpose)
	}
	if ttl <= 0 {
		return nil, errors.New("token ttl must be positive")
	}

	issuedAt := s.now()
	expiry := issuedAt.Add(ttl)

	c := &claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   strconv.Itoa(subjectID),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiry),
		},
		Purpose:  purpose,
		DeviceID: deviceID,
	}

	plain, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(key)
	if err != nil {
		return nil, fmt.Errorf("could not sign token: %w", err)
	}

	return &Token{
		Plain:     plain,
		Hash:      Hash(plain),
		SubjectID: subjectID,
		Purpose:   purpose,
		DeviceID:  deviceID,
		Expiry:    c.ExpiresAt.Time,
	}, nil
}

// Verify checks signature, expiry, issuer and purpose. Every failure is reported as
// common.ErrInvalidToken.
func (s *TokenService) Verify(token string, purpose Purpose) (*Subject, error) {
	key, ok := s.keys[purpose]
	if !ok || token == "" {
		return nil, common.ErrInvalidToken
	}

	var c claims
	parsed, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (any, error) {
		return key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid {
		return nil, common.ErrInvalidToken
	}

	if c.Purpose != purpose {
		return nil, common.ErrInvalidToken
	}

	id, err := strconv.Atoi(c.Subject)
	if err != nil || id <= 0 {
		return nil, common.ErrInvalidToken
	}

	return &Subject{ID: id, Purpose: c.Purpose, DeviceID: c.DeviceID}, nil
}
