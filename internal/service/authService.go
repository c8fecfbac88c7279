package service

import (
	"FileCollab/internal/models/entity"
	"FileCollab/internal/storage"
	"FileCollab/pkg/appError"
	"FileCollab/pkg/token"
	"context"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

const verificationTTL = 24 * time.Hour

var avatarColors = []string{"#F44336", "#E91E63", "#9C27B0", "#3F51B5", "#2196F3", "#009688", "#4CAF50", "#FF9800"}

type auth struct {
	userStorage storage.UserStorage
	issuer      *token.Issuer
	adminDomain string
	validate    *validator.Validate
	log         zerolog.Logger
}

type ProfileUpdate struct {
	Username    *string
	Email       *string
	Avatar      *string
	AvatarColor *string
}

type AuthService interface {
	Register(ctx context.Context, user *entity.User) (*entity.User, error)
	Login(ctx context.Context, email, password string) (string, *entity.User, error)
	// Authenticate turns a bearer token into the current user.
	Authenticate(ctx context.Context, tokenString string) (*entity.User, error)
	VerifyEmail(ctx context.Context, verificationToken string) error
	Me(ctx context.Context, userID uuid.UUID) (*entity.User, error)
	UpdateMe(ctx context.Context, userID uuid.UUID, update ProfileUpdate) (*entity.User, error)
	ChangePassword(ctx context.Context, userID uuid.UUID, oldPassword, newPassword string) error
}

func NewAuthService(userStorage storage.UserStorage, issuer *token.Issuer, adminDomain string, log zerolog.Logger) AuthService {
	return &auth{
		userStorage: userStorage,
		issuer:      issuer,
		adminDomain: strings.ToLower(adminDomain),
		validate:    validator.New(),
		log:         log,
	}
}

// password validation function with rules:
// 1) the password is at least 8 characters long
// 2) the password has uppercase letters
// 3) the password has digit symbols
// 4) the password hass special symbols
func validatePassword(password string) error {
	if len(password) < 8 {
		return appError.BadRequest("invalid password (lenght below than 8 symbols)")
	}

	var (
		lowercase int
		uppercase int
		digits    int
		special   int
	)

	for _, char := range password {
		switch {
		case unicode.IsLower(char):
			lowercase++
		case unicode.IsUpper(char):
			uppercase++
		case unicode.IsDigit(char):
			digits++
		default:
			special++
		}
	}

	// combine all errors in one string
	var passwordErrorsString string
	if lowercase == 0 {
		passwordErrorsString += "(lowercase characters are missing) "
	}
	if uppercase == 0 {
		passwordErrorsString += "(uppercase characters are missing) "
	}
	if digits == 0 {
		passwordErrorsString += "(digits are missing) "
	}
	if special == 0 {
		passwordErrorsString += "(special characters are missing) "
	}

	if len(passwordErrorsString) != 0 {
		return appError.BadRequest("invalid password: " + passwordErrorsString)
	}

	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (a *auth) validateEmail(email string) error {
	if err := a.validate.Var(email, "required,email"); err != nil {
		return appError.BadRequest("invalid email")
	}
	return nil
}

func (a *auth) isAdminEmail(email string) bool {
	if a.adminDomain == "" {
		return false
	}
	at := strings.LastIndexByte(email, '@')
	return at >= 0 && email[at+1:] == a.adminDomain
}

func pickAvatarColor(id uuid.UUID) string {
	return avatarColors[int(id[0])%len(avatarColors)]
}

func (a *auth) Register(ctx context.Context, user *entity.User) (*entity.User, error) {
	user.Username = strings.TrimSpace(user.Username)
	user.Email = normalizeEmail(user.Email)

	if len(user.Username) < 3 {
		return nil, appError.BadRequest("username length can't be less than 3")
	}
	if err := a.validateEmail(user.Email); err != nil {
		return nil, err
	}
	if err := validatePassword(user.Password); err != nil {
		return nil, err
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		a.log.Error().Err(err).Msg("hash password")
		return nil, appError.Internal()
	}

	now := time.Now().UTC()
	user.ID = uuid.New()
	user.PasswordHash = string(passwordHash)
	user.Password = ""
	user.AvatarColor = pickAvatarColor(user.ID)
	user.CreatedAt = now
	user.UpdatedAt = now

	if a.isAdminEmail(user.Email) {
		user.Role = entity.RoleAdmin
		user.IsEmailVerified = true
	} else {
		expires := now.Add(verificationTTL)
		user.Role = entity.RoleUser
		user.VerificationToken = uuid.NewString()
		user.VerificationExpires = &expires
	}

	if err := a.userStorage.AddUser(ctx, user); err != nil {
		return nil, err
	}

	a.log.Info().Str("userId", user.ID.String()).Str("role", string(user.Role)).Msg("user registered")
	return user, nil
}

func (a *auth) Login(ctx context.Context, email, password string) (string, *entity.User, error) {
	user, err := a.userStorage.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if isNotFound(err) {
			return "", nil, appError.BadRequest("invalid email or password")
		}
		return "", nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", nil, appError.BadRequest("invalid email or password")
	}

	signed, err := a.issuer.Issue(user.ID, string(user.Role))
	if err != nil {
		a.log.Error().Err(err).Msg("issue token")
		return "", nil, appError.Internal()
	}
	return signed, user, nil
}

func (a *auth) Authenticate(ctx context.Context, tokenString string) (*entity.User, error) {
	claims, err := a.issuer.Parse(tokenString)
	if err != nil {
		return nil, appError.Unauthorized()
	}

	user, err := a.userStorage.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if isNotFound(err) {
			return nil, appError.Unauthorized()
		}
		return nil, err
	}
	return user, nil
}

func (a *auth) VerifyEmail(ctx context.Context, verificationToken string) error {
	if verificationToken == "" {
		return appError.BadRequest("verification token is required")
	}

	user, err := a.userStorage.GetUserByVerificationToken(ctx, verificationToken)
	if err != nil {
		if isNotFound(err) {
			return appError.BadRequest("invalid or expired verification token")
		}
		return err
	}

	now := time.Now().UTC()
	if user.VerificationExpires == nil || now.After(*user.VerificationExpires) {
		return appError.BadRequest("invalid or expired verification token")
	}

	user.IsEmailVerified = true
	user.VerificationToken = ""
	user.VerificationExpires = nil
	user.UpdatedAt = now
	return a.userStorage.UpdateUser(ctx, user)
}

func (a *auth) Me(ctx context.Context, userID uuid.UUID) (*entity.User, error) {
	return a.userStorage.GetUserByID(ctx, userID)
}

func (a *auth) UpdateMe(ctx context.Context, userID uuid.UUID, update ProfileUpdate) (*entity.User, error) {
	user, err := a.userStorage.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if update.Username != nil {
		name := strings.TrimSpace(*update.Username)
		if len(name) < 3 {
			return nil, appError.BadRequest("username length can't be less than 3")
		}
		user.Username = name
	}
	if update.Email != nil {
		email := normalizeEmail(*update.Email)
		if err := a.validateEmail(email); err != nil {
			return nil, err
		}
		user.Email = email
	}
	if update.Avatar != nil {
		user.Avatar = *update.Avatar
	}
	if update.AvatarColor != nil {
		user.AvatarColor = *update.AvatarColor
	}

	user.UpdatedAt = time.Now().UTC()
	if err := a.userStorage.UpdateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (a *auth) ChangePassword(ctx context.Context, userID uuid.UUID, oldPassword, newPassword string) error {
	user, err := a.userStorage.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword)) != nil {
		return appError.BadRequest("current password is incorrect")
	}
	if err := validatePassword(newPassword); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		a.log.Error().Err(err).Msg("hash password")
		return appError.Internal()
	}
	user.PasswordHash = string(hash)
	user.UpdatedAt = time.Now().UTC()
	return a.userStorage.UpdateUser(ctx, user)
}
