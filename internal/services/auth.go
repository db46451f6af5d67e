package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
	"regexp"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/studyflow/backend/internal/logger"
	"github.com/studyflow/backend/internal/normalization"
	"github.com/studyflow/backend/internal/repos"
	"github.com/studyflow/backend/internal/requestdata"
	"github.com/studyflow/backend/internal/types"
	"github.com/studyflow/backend/internal/utils"
)

const (
	emailVerificationTTL = 24 * time.Hour
	phoneVerificationTTL = 10 * time.Minute
	minPasswordLength    = 6
)

var phoneRe = regexp.MustCompile(`^\+62\d{8,13}$`)

type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

type VerificationStatus struct {
	EmailVerified bool    `json:"email_verified"`
	PhoneVerified bool    `json:"phone_verified"`
	Phone         *string `json:"phone,omitempty"`
}

type AuthService interface {
	Register(ctx context.Context, name, email, password string) (*types.User, *TokenPair, error)
	Login(ctx context.Context, email, password string) (*types.User, *TokenPair, error)
	Logout(ctx context.Context) error
	Me(ctx context.Context) (*types.User, error)
	ChangePassword(ctx context.Context, currentPassword, newPassword string) error
	SendEmailVerification(ctx context.Context) (string, error)
	VerifyEmail(ctx context.Context, token string) error
	UpdatePhone(ctx context.Context, phone string) error
	SendPhoneVerification(ctx context.Context) (string, error)
	VerifyPhone(ctx context.Context, code string) error
	VerificationStatus(ctx context.Context) (*VerificationStatus, error)
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
}

type authService struct {
	db        *gorm.DB
	log       *logger.Logger
	userRepo  repos.UserRepo
	tokenRepo repos.UserTokenRepo
	jwtSecret []byte
	accessTTL time.Duration
}

func NewAuthService(db *gorm.DB, log *logger.Logger, userRepo repos.UserRepo, tokenRepo repos.UserTokenRepo) AuthService {
	log = log.With("service", "AuthService")
	secret := utils.GetEnv("JWT_SECRET", "", log)
	if secret == "" {
		log.Warn("JWT_SECRET is not set, using an insecure development secret")
		secret = "studyflow-dev-secret"
	}
	ttlHours := utils.GetEnvAsInt("JWT_ACCESS_TTL_HOURS", 168, log)
	return &authService{
		db:        db,
		log:       log,
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
		jwtSecret: []byte(secret),
		accessTTL: time.Duration(ttlHours) * time.Hour,
	}
}

func (s *authService) Register(ctx context.Context, name, email, password string) (*types.User, *TokenPair, error) {
	email = normalization.ParseInputString(email)
	if name == "" || email == "" || password == "" {
		return nil, nil, fmt.Errorf("%w: name, email and password are required", ErrInvalidInput)
	}
	if len(password) < minPasswordLength {
		return nil, nil, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLength)
	}
	exists, err := s.userRepo.EmailExists(ctx, nil, email)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return nil, nil, fmt.Errorf("%w: email is already registered", ErrInvalidInput)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user := &types.User{
		ID:       uuid.New(),
		Name:     name,
		Email:    email,
		Password: string(hash),
	}
	var pair *TokenPair
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.userRepo.Create(ctx, tx, []*types.User{user}); err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}
		p, err := s.issueTokens(ctx, tx, user.ID)
		if err != nil {
			return err
		}
		pair = p
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	s.log.Info("User registered", "userID", user.ID)
	return user, pair, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (*types.User, *TokenPair, error) {
	email = normalization.ParseInputString(email)
	if email == "" || password == "" {
		return nil, nil, fmt.Errorf("%w: email and password are required", ErrInvalidInput)
	}
	users, err := s.userRepo.GetByEmails(ctx, nil, []string{email})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if len(users) == 0 {
		return nil, nil, fmt.Errorf("%w: invalid email or password", ErrUnauthorized)
	}
	user := users[0]
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, nil, fmt.Errorf("%w: invalid email or password", ErrUnauthorized)
	}
	pair, err := s.issueTokens(ctx, nil, user.ID)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

func (s *authService) Logout(ctx context.Context) error {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.TokenString == "" {
		return ErrUnauthorized
	}
	return s.tokenRepo.FullDeleteByAccessTokens(ctx, nil, []string{rd.TokenString})
}

func (s *authService) Me(ctx context.Context) (*types.User, error) {
	user, err := s.currentUser(ctx)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *authService) ChangePassword(ctx context.Context, currentPassword, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return fmt.Errorf("%w: new password must be at least %d characters", ErrInvalidInput, minPasswordLength)
	}
	user, err := s.currentUser(ctx)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(currentPassword)); err != nil {
		return fmt.Errorf("%w: current password is incorrect", ErrUnauthorized)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	return s.userRepo.UpdatePassword(ctx, nil, user.ID, string(hash))
}

// SendEmailVerification stores a fresh token and returns it. There is no
// mailer wired; the caller decides how to deliver it.
func (s *authService) SendEmailVerification(ctx context.Context) (string, error) {
	user, err := s.currentUser(ctx)
	if err != nil {
		return "", err
	}
	if user.EmailVerified {
		return "", fmt.Errorf("%w: email is already verified", ErrInvalidInput)
	}
	token, err := randomHex(32)
	if err != nil {
		return "", err
	}
	expires := time.Now().Add(emailVerificationTTL)
	if err := s.userRepo.SetEmailVerification(ctx, nil, user.ID, token, expires); err != nil {
		return "", fmt.Errorf("failed to store verification token: %w", err)
	}
	s.log.Info("Email verification token issued", "userID", user.ID, "expires", expires)
	return token, nil
}

func (s *authService) VerifyEmail(ctx context.Context, token string) error {
	if token == "" {
		return fmt.Errorf("%w: verification token is required", ErrInvalidInput)
	}
	user, err := s.userRepo.GetByEmailVerificationToken(ctx, nil, token)
	if err != nil {
		return fmt.Errorf("%w: invalid verification token", ErrInvalidInput)
	}
	if user.EmailVerificationExpires == nil || time.Now().After(*user.EmailVerificationExpires) {
		return fmt.Errorf("%w: verification token has expired", ErrInvalidInput)
	}
	return s.userRepo.MarkEmailVerified(ctx, nil, user.ID)
}

func (s *authService) UpdatePhone(ctx context.Context, phone string) error {
	if !phoneRe.MatchString(phone) {
		return fmt.Errorf("%w: phone must be in +62 format", ErrInvalidInput)
	}
	user, err := s.currentUser(ctx)
	if err != nil {
		return err
	}
	return s.userRepo.UpdatePhone(ctx, nil, user.ID, phone)
}

func (s *authService) SendPhoneVerification(ctx context.Context) (string, error) {
	user, err := s.currentUser(ctx)
	if err != nil {
		return "", err
	}
	if user.Phone == nil || *user.Phone == "" {
		return "", fmt.Errorf("%w: set a phone number first", ErrInvalidInput)
	}
	if user.PhoneVerified {
		return "", fmt.Errorf("%w: phone is already verified", ErrInvalidInput)
	}
	code, err := randomDigits(6)
	if err != nil {
		return "", err
	}
	expires := time.Now().Add(phoneVerificationTTL)
	if err := s.userRepo.SetPhoneVerification(ctx, nil, user.ID, code, expires); err != nil {
		return "", fmt.Errorf("failed to store verification code: %w", err)
	}
	s.log.Info("Phone verification code issued", "userID", user.ID, "expires", expires)
	return code, nil
}

func (s *authService) VerifyPhone(ctx context.Context, code string) error {
	if code == "" {
		return fmt.Errorf("%w: verification code is required", ErrInvalidInput)
	}
	user, err := s.currentUser(ctx)
	if err != nil {
		return err
	}
	if user.PhoneVerificationCode == nil || *user.PhoneVerificationCode != code {
		return fmt.Errorf("%w: invalid verification code", ErrInvalidInput)
	}
	if user.PhoneVerificationExpires == nil || time.Now().After(*user.PhoneVerificationExpires) {
		return fmt.Errorf("%w: verification code has expired", ErrInvalidInput)
	}
	return s.userRepo.MarkPhoneVerified(ctx, nil, user.ID)
}

func (s *authService) VerificationStatus(ctx context.Context) (*VerificationStatus, error) {
	user, err := s.currentUser(ctx)
	if err != nil {
		return nil, err
	}
	return &VerificationStatus{
		EmailVerified: user.EmailVerified,
		PhoneVerified: user.PhoneVerified,
		Phone:         user.Phone,
	}, nil
}

// SetContextFromToken validates the bearer token and attaches request data.
// A token that parses but has no row in user_token was revoked by logout.
func (s *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	if tokenString == "" {
		return ctx, ErrUnauthorized
	}
	parsed, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil || !parsed.Valid {
		return ctx, fmt.Errorf("%w: invalid token", ErrUnauthorized)
	}
	sub, err := parsed.Claims.GetSubject()
	if err != nil {
		return ctx, fmt.Errorf("%w: invalid token subject", ErrUnauthorized)
	}
	userID, err := uuid.Parse(sub)
	if err != nil {
		return ctx, fmt.Errorf("%w: invalid token subject", ErrUnauthorized)
	}
	rows, err := s.tokenRepo.GetByAccessTokens(ctx, nil, []string{tokenString})
	if err != nil {
		return ctx, fmt.Errorf("failed to look up token: %w", err)
	}
	if len(rows) == 0 {
		return ctx, fmt.Errorf("%w: token has been revoked", ErrUnauthorized)
	}
	rd := &requestdata.RequestData{
		TokenString:  tokenString,
		RefreshToken: rows[0].RefreshToken,
		UserID:       userID,
	}
	return requestdata.WithRequestData(ctx, rd), nil
}

func (s *authService) currentUser(ctx context.Context) (*types.User, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, ErrUnauthorized
	}
	users, err := s.userRepo.GetByIDs(ctx, nil, []uuid.UUID{rd.UserID})
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if len(users) == 0 {
		return nil, fmt.Errorf("%w: user", ErrNotFound)
	}
	return users[0], nil
}

func (s *authService) issueTokens(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*TokenPair, error) {
	expiresAt := time.Now().Add(s.accessTTL)
	claims := jwt.RegisteredClaims{
		// The jti keeps tokens unique even when two are minted within the
		// same second for the same user.
		ID:        uuid.NewString(),
		Subject:   userID.String(),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}
	refreshToken, err := randomHex(32)
	if err != nil {
		return nil, err
	}
	row := &types.UserToken{
		ID:           uuid.New(),
		UserID:       userID,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
	}
	if err := s.tokenRepo.Create(ctx, tx, []*types.UserToken{row}); err != nil {
		return nil, fmt.Errorf("failed to store tokens: %w", err)
	}
	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken, ExpiresAt: expiresAt}, nil
}

func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

func randomDigits(n int) (string, error) {
	digits := make([]byte, n)
	for i := range digits {
		v, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", fmt.Errorf("failed to generate random digit: %w", err)
		}
		digits[i] = byte('0' + v.Int64())
	}
	return string(digits), nil
}
