package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/mohanraja088/simple-chat-app-demo/config"
	"github.com/mohanraja088/simple-chat-app-demo/internal/domain/user"
	"github.com/mohanraja088/simple-chat-app-demo/internal/repository"
	chaterrors "github.com/mohanraja088/simple-chat-app-demo/pkg/errors"
)

type AuthService struct {
	userRepo  repository.UserRepository
	jwtSecret []byte
	accessTTL time.Duration
	now       func() time.Time
}

func NewAuthService(userRepo repository.UserRepository, cfg *config.Config) *AuthService {
	ttl := time.Duration(cfg.JWTExpiryHours) * time.Hour
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &AuthService{
		userRepo:  userRepo,
		jwtSecret: []byte(cfg.JWTSecret),
		accessTTL: ttl,
		now:       time.Now,
	}
}

type SignupInput struct {
	Name     string
	Email    string
	Password string
}

type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      user.User
}

type AccessClaims struct {
	Name string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Signup creates an account. The username is the email address.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (user.User, error) {
	email := normalizeEmail(in.Email)
	if email == "" || !strings.Contains(email, "@") {
		return user.User{}, invalid("valid email required")
	}
	if in.Password == "" {
		return user.User{}, invalid("password required")
	}

	if _, err := s.userRepo.GetUserByEmail(ctx, email); err == nil {
		return user.User{}, chaterrors.ErrAlreadyExists
	} else if !errors.Is(err, chaterrors.ErrNotFound) {
		return user.User{}, err
	}

	hash, err := hashPassword(in.Password)
	if err != nil {
		return user.User{}, err
	}

	now := s.now().UTC()
	newUser := user.User{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(in.Name),
		Username:     email,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.userRepo.Create(ctx, &newUser); err != nil {
		return user.User{}, err
	}
	return newUser, nil
}

// Login checks the credentials and issues a signed access token.
func (s *AuthService) Login(ctx context.Context, email, password string) (LoginResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return LoginResult{}, invalid("email and password required")
	}

	u, err := s.userRepo.GetUserByEmail(ctx, email)
	if errors.Is(err, chaterrors.ErrNotFound) {
		return LoginResult{}, chaterrors.ErrUnauthorized
	}
	if err != nil {
		return LoginResult{}, err
	}

	if err := comparePassword(u.PasswordHash, password); err != nil {
		return LoginResult{}, chaterrors.ErrUnauthorized
	}

	token, expiresAt, err := s.newAccessToken(u)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{Token: token, ExpiresAt: expiresAt, User: u}, nil
}

// Me returns the account behind an authenticated request.
func (s *AuthService) Me(ctx context.Context, userID string) (user.User, error) {
	if userID == "" {
		return user.User{}, chaterrors.ErrUnauthorized
	}
	u, err := s.userRepo.GetUserByID(ctx, userID)
	if errors.Is(err, chaterrors.ErrNotFound) {
		return user.User{}, chaterrors.ErrUnauthorized
	}
	return u, err
}

func (s *AuthService) ParseAccessToken(tokenString string) (AccessClaims, error) {
	if tokenString == "" {
		return AccessClaims{}, chaterrors.ErrUnauthorized
	}

	parsed, err := jwt.ParseWithClaims(tokenString, &AccessClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, chaterrors.ErrUnauthorized
		}
		return s.jwtSecret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return AccessClaims{}, chaterrors.ErrUnauthorized
	}

	claims, ok := parsed.Claims.(*AccessClaims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return AccessClaims{}, chaterrors.ErrUnauthorized
	}
	return *claims, nil
}

// UserIDFromToken lets the live channel authenticate connections.
func (s *AuthService) UserIDFromToken(token string) (string, error) {
	claims, err := s.ParseAccessToken(token)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

func (s *AuthService) newAccessToken(u user.User) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.accessTTL)
	claims := AccessClaims{
		Name: u.DisplayName(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func comparePassword(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}
