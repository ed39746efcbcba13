package services

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/mobilize/core/internal/domain/entities"
	"github.com/mobilize/core/internal/infrastructure/config"
	"github.com/mobilize/core/internal/infrastructure/logger"
	"github.com/mobilize/core/internal/ports"
)

// OperatorRole is the only role carried by issued tokens
const OperatorRole = "operator"

// Claims represents the JWT claims
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// AuthService handles operator authentication
type AuthService struct {
	authConfig config.AuthConfig
	jwtConfig  config.JWTConfig
	logger     *logger.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(authConfig config.AuthConfig, jwtConfig config.JWTConfig, logger *logger.Logger) *AuthService {
	return &AuthService{
		authConfig: authConfig,
		jwtConfig:  jwtConfig,
		logger:     logger,
	}
}

// HashPassword returns the bcrypt hash to put in auth.operator_password_hash
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// Login checks the operator password and returns an access token
func (s *AuthService) Login(ctx context.Context, req ports.LoginRequest) (*ports.AuthResponse, error) {
	if s.authConfig.OperatorPasswordHash == "" {
		s.logger.Warnw("Login attempt while no operator password is configured")
		return nil, entities.ErrUnauthorized
	}

	err := bcrypt.CompareHashAndPassword([]byte(s.authConfig.OperatorPasswordHash), []byte(req.Password))
	if err != nil {
		s.logger.Warnw("Login attempt with invalid password")
		return nil, entities.ErrUnauthorized
	}

	s.logger.Infow("Operator logged in")
	return s.IssueToken(OperatorRole)
}

// IssueToken signs an operator token for subject
func (s *AuthService) IssueToken(subject string) (*ports.AuthResponse, error) {
	now := time.Now()
	claims := &Claims{
		Role: OperatorRole,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.jwtConfig.ExpiresIn)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    s.jwtConfig.Issuer,
			Subject:   subject,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.jwtConfig.Secret))
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &ports.AuthResponse{
		AccessToken: tokenString,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.jwtConfig.ExpiresIn.Seconds()),
	}, nil
}

// ValidateToken validates a JWT token and returns claims
func (s *AuthService) ValidateToken(tokenString string) (*ports.Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtConfig.Secret), nil
	}, jwt.WithIssuer(s.jwtConfig.Issuer))

	if err != nil {
		return nil, fmt.Errorf("%w: invalid token: %w", entities.ErrUnauthorized, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Role != OperatorRole {
		return nil, fmt.Errorf("%w: invalid token claims", entities.ErrUnauthorized)
	}

	return &ports.Claims{
		Subject: claims.Subject,
		Role:    claims.Role,
	}, nil
}
