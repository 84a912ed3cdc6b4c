package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/zhouzirui/gamebot/backend/internal/apperr"
	"github.com/zhouzirui/gamebot/backend/internal/model/user"
)

var (
	ErrInvalidCredentials = fmt.Errorf("%w: incorrect username or password", apperr.ErrUnauthorized)
	ErrInvalidToken       = fmt.Errorf("%w: invalid token", apperr.ErrUnauthorized)
)

// Claims is the payload of an access token.
type Claims struct {
	Name string `json:"name"`
	ID   string `json:"id"`
	jwt.RegisteredClaims
}

// Service registers players and issues their access tokens.
type Service struct {
	users     user.Store
	jwtSecret []byte
	tokenTTL  time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

func NewService(users user.Store, jwtSecret string, tokenTTL time.Duration, logger *zap.Logger) *Service {
	return &Service{
		users:     users,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
		logger:    logger.Named("auth"),
		now:       time.Now,
	}
}

// Register creates an account. A taken name yields apperr.ErrConflict.
func (s *Service) Register(ctx context.Context, name, password string) error {
	name = strings.TrimSpace(name)
	if name == "" || password == "" {
		return fmt.Errorf("%w: name and password are required", apperr.ErrValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	u := &user.User{Name: name, PasswordHash: string(hash)}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			return fmt.Errorf("%w: user %q already exists", apperr.ErrConflict, name)
		}
		return err
	}

	s.logger.Info("user registered", zap.String("user_id", u.ID))
	return nil
}

// Login checks the credentials and returns a signed access token. Unknown
// users and wrong passwords fail the same way.
func (s *Service) Login(ctx context.Context, name, password string) (string, error) {
	u, err := s.users.GetByName(ctx, strings.TrimSpace(name))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	return s.issueToken(u)
}

func (s *Service) issueToken(u *user.User) (string, error) {
	now := s.now()
	claims := Claims{
		Name: u.Name,
		ID:   u.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return token, nil
}

// ParseToken validates the signature and expiry of an access token.
func (s *Service) ParseToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithExpirationRequired(), jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		s.logger.Debug("token rejected", zap.Error(err))
		return nil, ErrInvalidToken
	}
	if claims.ID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
