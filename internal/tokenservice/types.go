package tokenservice

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Purpose binds a token to the single flow it was issued for.
type Purpose string

const (
	PurposeAccess            Purpose = "access"
	PurposeRefresh           Purpose = "refresh"
	PurposeEmailVerification Purpose = "email_verification"
	PurposeAccountDeletion   Purpose = "account_deletion"

	VerificationTokenTime time.Duration = time.Hour
	DeletionTokenTime     time.Duration = time.Hour
	AccessTokenTime       time.Duration = time.Hour
	RefreshTokenTime      time.Duration = 7 * 24 * time.Hour
)

// Keys maps every purpose to its own HMAC signing key.
type Keys map[Purpose][]byte

type TokenService struct {
	keys   Keys
	issuer string
	now    func() time.Time
}

type Option func(*TokenService)

type claims struct {
	jwt.RegisteredClaims
	Purpose  Purpose `json:"purpose"`
	DeviceID string  `json:"device_id,omitempty"`
}

// Token is a freshly issued token. Plain is handed to the user, Hash is what gets stored.
type Token struct {
	Plain     string    `json:"token"`
	Hash      []byte    `json:"-"`
	SubjectID int       `json:"-"`
	Purpose   Purpose   `json:"-"`
	DeviceID  string    `json:"-"`
	Expiry    time.Time `json:"expiry"`
}

// Subject is what a verified token asserts.
type Subject struct {
	ID       int
	Purpose  Purpose
	DeviceID string
}
