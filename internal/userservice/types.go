package userservice

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/sushihentaime/dreamblog/internal/common"
	"github.com/sushihentaime/dreamblog/internal/tokenservice"
)

// DeletionGracePeriod is how long a confirmed deletion waits before the sweeper removes the user.
const DeletionGracePeriod = 30 * 24 * time.Hour

var AnonymousUser = User{}

type UserService struct {
	m      *UserModel
	tokens *tokenservice.TokenService
	mb     common.MessageProducer
	logger *slog.Logger
	now    func() time.Time
}

type UserModel struct {
	db *sql.DB
}

type User struct {
	ID                int                  `json:"id"`
	Username          string               `json:"username"`
	Email             string               `json:"email"`
	Password          Password             `json:"-"`
	Roles             common.Roles         `json:"roles"`
	Verified          bool                 `json:"is_verified"`
	DeletionRequested bool                 `json:"deletion_requested"`
	DeletionDate      *time.Time           `json:"deletion_date"`
	Notifications     NotificationSettings `json:"notification_settings"`
	Phone             string               `json:"phone,omitempty"`
	CreatedAt         time.Time            `json:"created_at"`
	UpdatedAt         time.Time            `json:"updated_at"`
	Version           int                  `json:"-"`
}

type NotificationSettings struct {
	Email bool `json:"email"`
	SMS   bool `json:"sms"`
}

type Password struct {
	Plain string `json:"-"`
	hash  []byte `json:"-"`
}

// AuthToken is the pair handed out on login.
type AuthToken struct {
	AccessToken        string    `json:"access_token"`
	AccessTokenExpiry  time.Time `json:"access_token_expiry"`
	RefreshToken       string    `json:"refresh_token"`
	RefreshTokenExpiry time.Time `json:"refresh_token_expiry"`
	DeviceID           string    `json:"device_id,omitempty"`
}

// ProfilePatch holds the profile fields a user may change. Nil fields are left untouched.
type ProfilePatch struct {
	Username    *string `json:"username"`
	Email       *string `json:"email"`
	Phone       *string `json:"phone"`
	NotifyEmail *bool   `json:"notify_email"`
	NotifySMS   *bool   `json:"notify_sms"`
}
