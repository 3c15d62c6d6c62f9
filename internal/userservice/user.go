package userservice

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/sushihentaime/dreamblog/internal/common"
	"github.com/sushihentaime/dreamblog/internal/tokenservice"
)

func NewUserService(db *sql.DB, mb common.MessageProducer, tokens *tokenservice.TokenService, logger *slog.Logger) *UserService {
	return &UserService{
		m:      NewUserModel(db),
		tokens: tokens,
		mb:     mb,
		logger: logger,
		now:    time.Now,
	}
}

// Register creates an unverified user and publishes a user.created event carrying the
// verification token. The returned token is the one that was mailed.
func (s *UserService) Register(ctx context.Context, username, email, password string) (*User, *tokenservice.Token, error) {
	v := common.NewValidator()
	validateUsername(v, username)
	validateEmail(v, email)
	validatePassword(v, password)
	if !v.Valid() {
		return nil, nil, v.ValidationError()
	}

	u := User{
		Username:      username,
		Email:         email,
		Roles:         common.DefaultRoles(),
		Notifications: NotificationSettings{Email: true},
	}

	if err := u.Password.set(password); err != nil {
		return nil, nil, err
	}

	var token *tokenservice.Token
	err := s.m.insert(ctx, &u, func(id int) ([]byte, error) {
		var err error
		token, err = s.tokens.Issue(id, tokenservice.PurposeEmailVerification, tokenservice.VerificationTokenTime)
		if err != nil {
			return nil, err
		}
		return token.Hash, nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.publish(ctx, common.TokenMessage{Email: u.Email, Username: u.Username, Token: token.Plain}, common.UserCreatedKey)

	return &u, token, nil
}

// ConfirmEmail marks the token's user as verified and consumes the token.
func (s *UserService) ConfirmEmail(ctx context.Context, token string) error {
	subject, err := s.tokens.Verify(token, tokenservice.PurposeEmailVerification)
	if err != nil {
		return err
	}

	return s.m.verify(ctx, subject.ID, tokenservice.Hash(token))
}

// Login checks the verification flag before the password.
func (s *UserService) Login(ctx context.Context, email, password, deviceID string) (*AuthToken, error) {
	v := common.NewValidator()
	v.Check(email != "", "email", "must be provided")
	v.Check(password != "", "password", "must be provided")
	validateDeviceID(v, deviceID)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	user, err := s.m.getByEmail(ctx, email)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrRecordNotFound):
			return nil, common.ErrInvalidCredentials
		default:
			return nil, err
		}
	}

	if !user.Verified {
		return nil, common.ErrNotVerified
	}

	ok, err := user.Password.matches(password)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, common.ErrInvalidCredentials
	}

	access, err := s.tokens.IssueForDevice(user.ID, tokenservice.PurposeAccess, tokenservice.AccessTokenTime, deviceID)
	if err != nil {
		return nil, err
	}

	refresh, err := s.tokens.IssueForDevice(user.ID, tokenservice.PurposeRefresh, tokenservice.RefreshTokenTime, deviceID)
	if err != nil {
		return nil, err
	}

	return &AuthToken{
		AccessToken:        access.Plain,
		AccessTokenExpiry:  access.Expiry,
		RefreshToken:       refresh.Plain,
		RefreshTokenExpiry: refresh.Expiry,
		DeviceID:           deviceID,
	}, nil
}

// RefreshAccessToken trades a refresh token for a new access token bound to the same device.
func (s *UserService) RefreshAccessToken(ctx context.Context, refreshToken string) (*tokenservice.Token, error) {
	subject, err := s.tokens.Verify(refreshToken, tokenservice.PurposeRefresh)
	if err != nil {
		return nil, err
	}

	if _, err := s.resolve(ctx, subject.ID); err != nil {
		return nil, err
	}

	return s.tokens.IssueForDevice(subject.ID, tokenservice.PurposeAccess, tokenservice.AccessTokenTime, subject.DeviceID)
}

// UserByAccessToken resolves a bearer token to its user.
func (s *UserService) UserByAccessToken(ctx context.Context, token string) (*User, error) {
	subject, err := s.tokens.Verify(token, tokenservice.PurposeAccess)
	if err != nil {
		return nil, err
	}

	return s.resolve(ctx, subject.ID)
}

func (s *UserService) resolve(ctx context.Context, id int) (*User, error) {
	user, err := s.m.getByID(ctx, id)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrRecordNotFound):
			return nil, common.ErrInvalidToken
		default:
			return nil, err
		}
	}

	return user, nil
}

// RequestDeletion issues an account deletion token and mails it. A second request replaces
// the stored token, invalidating the earlier link.
func (s *UserService) RequestDeletion(ctx context.Context, actorID int) (*tokenservice.Token, error) {
	v := common.NewValidator()
	validateInt(v, actorID, "user_id")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	user, err := s.m.getByID(ctx, actorID)
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.Issue(user.ID, tokenservice.PurposeAccountDeletion, tokenservice.DeletionTokenTime)
	if err != nil {
		return nil, err
	}

	if err := s.m.setDeletionToken(ctx, user.ID, token.Hash); err != nil {
		return nil, err
	}

	s.publish(ctx, common.TokenMessage{Email: user.Email, Username: user.Username, Token: token.Plain}, common.DeletionRequestedKey)

	return token, nil
}

// ConfirmDeletion consumes the deletion token and schedules the account for removal after
// the grace period. It returns the scheduled date.
func (s *UserService) ConfirmDeletion(ctx context.Context, token string) (time.Time, error) {
	subject, err := s.tokens.Verify(token, tokenservice.PurposeAccountDeletion)
	if err != nil {
		return time.Time{}, err
	}

	deletionDate := s.now().Add(DeletionGracePeriod).Truncate(time.Second)

	if err := s.m.confirmDeletion(ctx, subject.ID, tokenservice.Hash(token), deletionDate); err != nil {
		return time.Time{}, err
	}

	return deletionDate, nil
}

// CancelDeletion clears any scheduled deletion. It is a no-op when nothing is scheduled.
func (s *UserService) CancelDeletion(ctx context.Context, actorID int) error {
	v := common.NewValidator()
	validateInt(v, actorID, "user_id")
	if !v.Valid() {
		return v.ValidationError()
	}

	return s.m.cancelDeletion(ctx, actorID)
}

func (s *UserService) GetProfile(ctx context.Context, id int) (*User, error) {
	v := common.NewValidator()
	validateInt(v, id, "user_id")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	return s.m.getByID(ctx, id)
}

func (s *UserService) UpdateProfile(ctx context.Context, id int, patch ProfilePatch) (*User, error) {
	user, err := s.GetProfile(ctx, id)
	if err != nil {
		return nil, err
	}

	patch.apply(user)

	v := common.NewValidator()
	validateUsername(v, user.Username)
	validateEmail(v, user.Email)
	validatePhone(v, user.Phone)
	v.Check(!user.Notifications.SMS || user.Phone != "", "notify_sms", "requires a phone number")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	if err := s.m.updateProfile(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// apply copies every non-nil field of the patch onto u.
func (p ProfilePatch) apply(u *User) {
	if p.Username != nil {
		u.Username = *p.Username
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Phone != nil {
		u.Phone = *p.Phone
	}
	if p.NotifyEmail != nil {
		u.Notifications.Email = *p.NotifyEmail
	}
	if p.NotifySMS != nil {
		u.Notifications.SMS = *p.NotifySMS
	}
}

// UsersDueForDeletion lists users whose grace period has elapsed at now.
func (s *UserService) UsersDueForDeletion(ctx context.Context, now time.Time) ([]int, error) {
	return s.m.dueForDeletion(ctx, now)
}

// PurgeUser permanently removes a user whose deletion is due. It reports false without error
// when there was nothing to delete.
func (s *UserService) PurgeUser(ctx context.Context, id int, now time.Time) (bool, error) {
	return s.m.purge(ctx, id, now)
}

// publish delivers best-effort: a broker failure is logged and never fails the caller.
func (s *UserService) publish(ctx context.Context, msg common.TokenMessage, key common.BindingKey) {
	if s.mb == nil {
		return
	}

	if err := common.PublishJSON(ctx, s.mb, msg, key, common.UserExchange); err != nil {
		s.logger.Error("could not publish user event", slog.String("key", string(key)), slog.String("email", msg.Email), slog.String("error", err.Error()))
	}
}

func (u *User) IsAnonymous() bool {
	return u == &AnonymousUser
}

func (u *User) HasRole(role common.Role) bool {
	return u.Roles.Has(role)
}

// Recipient exposes the user's contact details and notification settings to the notifier.
func (s *UserService) Recipient(ctx context.Context, userID int) (common.Recipient, error) {
	u, err := s.m.getByID(ctx, userID)
	if err != nil {
		return common.Recipient{}, err
	}

	return common.Recipient{
		ID:          u.ID,
		Email:       u.Email,
		Phone:       u.Phone,
		NotifyEmail: u.Notifications.Email,
		NotifySMS:   u.Notifications.SMS,
	}, nil
}
