package services

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/subtle"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/crypto/argon2"

	"github.com/webermont/LeiaMais/internal/apperrors"
	"github.com/webermont/LeiaMais/internal/database/queries"
	"github.com/webermont/LeiaMais/internal/models"
)

var (
	ErrInvalidCredentials = apperrors.Unauthorized("invalid email or password")
	ErrInvalidToken       = apperrors.Unauthorized("invalid token")
	ErrInvalidPassword    = errors.New("invalid password format")
	ErrInvalidRSAKey      = errors.New("invalid RSA key")
)

// AuthServiceInterface defines the interface for authentication operations
type AuthServiceInterface interface {
	Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*models.LoginResponse, error)
	Logout(ctx context.Context, accessToken, refreshToken string) error
	ValidateToken(ctx context.Context, tokenString string) (*models.JWTClaims, error)
}

type AuthService struct {
	users             queries.UserQuerier
	jwtPrivateKey     *rsa.PrivateKey
	jwtPublicKey      *rsa.PublicKey
	refreshPrivateKey *rsa.PrivateKey
	refreshPublicKey  *rsa.PublicKey
	tokenExpiry       time.Duration
	refreshExpiry     time.Duration
	argon2Config      *Argon2Config
	logger            *zap.Logger
	redisClient       *redis.Client
}

type Argon2Config struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// NewAuthService parses both RSA keys. redisClient may be nil, which
// disables the token blacklist.
func NewAuthService(users queries.UserQuerier, jwtPrivateKeyPEM, refreshPrivateKeyPEM string, tokenExpiry, refreshExpiry time.Duration, logger *zap.Logger, redisClient *redis.Client) (*AuthService, error) {
	jwtPrivateKey, err := parseRSAPrivateKey(jwtPrivateKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("failed to parse JWT private key: %w", err)
	}

	refreshPrivateKey, err := parseRSAPrivateKey(refreshPrivateKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("failed to parse refresh private key: %w", err)
	}

	return &AuthService{
		users:             users,
		jwtPrivateKey:     jwtPrivateKey,
		jwtPublicKey:      &jwtPrivateKey.PublicKey,
		refreshPrivateKey: refreshPrivateKey,
		refreshPublicKey:  &refreshPrivateKey.PublicKey,
		tokenExpiry:       tokenExpiry,
		refreshExpiry:     refreshExpiry,
		argon2Config: &Argon2Config{
			Memory:      64 * 1024,
			Iterations:  3,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
		},
		logger:      logger,
		redisClient: redisClient,
	}, nil
}

func parseRSAPrivateKey(privateKeyPEM string) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode([]byte(privateKeyPEM))
	if block == nil {
		return nil, ErrInvalidRSAKey
	}

	privateKey, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	if err != nil {
		// Try PKCS8 format
		parsedKey, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, err
		}
		if rsaKey, ok := parsedKey.(*rsa.PrivateKey); ok {
			return rsaKey, nil
		}
		return nil, ErrInvalidRSAKey
	}

	return privateKey, nil
}

func (s *AuthService) HashPassword(password string) (string, error) {
	if len(password) < 8 {
		return "", ErrInvalidPassword
	}

	salt := make([]byte, s.argon2Config.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}

	hash := argon2.IDKey(
		[]byte(password),
		salt,
		s.argon2Config.Iterations,
		s.argon2Config.Memory,
		s.argon2Config.Parallelism,
		s.argon2Config.KeyLength,
	)

	b64Salt := base64.RawStdEncoding.EncodeToString(salt)
	b64Hash := base64.RawStdEncoding.EncodeToString(hash)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		s.argon2Config.Memory,
		s.argon2Config.Iterations,
		s.argon2Config.Parallelism,
		b64Salt,
		b64Hash,
	), nil
}

func (s *AuthService) VerifyPassword(hashedPassword, password string) (bool, error) {
	// Split the hash by $ delimiter
	parts := strings.Split(hashedPassword, "$")
	if len(parts) != 6 {
		return false, errors.New("invalid hash format")
	}

	if parts[1] != "argon2id" {
		return false, errors.New("invalid hash type")
	}

	var version int
	_, err := fmt.Sscanf(parts[2], "v=%d", &version)
	if err != nil {
		return false, fmt.Errorf("invalid version: %w", err)
	}

	if version != argon2.Version {
		return false, errors.New("incompatible argon2 version")
	}

	var memory, iterations uint32
	var parallelism uint8
	_, err = fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &parallelism)
	if err != nil {
		return false, fmt.Errorf("invalid parameters: %w", err)
	}

	decodedSalt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, fmt.Errorf("error decoding salt: %w", err)
	}

	decodedHash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false, fmt.Errorf("error decoding hash: %w", err)
	}

	computedHash := argon2.IDKey(
		[]byte(password),
		decodedSalt,
		iterations,
		memory,
		parallelism,
		uint32(len(decodedHash)),
	)

	return subtle.ConstantTimeCompare(decodedHash, computedHash) == 1, nil
}

// Login checks the member's password and issues a token pair.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	user, err := s.users.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if isNoRows(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if user.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}

	ok, err := s.VerifyPassword(user.PasswordHash, req.Password)
	if err != nil {
		s.logger.Warn("Stored password hash is unreadable", zap.Int64("user_id", user.ID), zap.Error(err))
		return nil, ErrInvalidCredentials
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	s.logger.Info("User logged in", zap.Int64("user_id", user.ID))
	return s.loginResponse(user)
}

// Refresh exchanges a refresh token for a new pair. The member is re-read so
// role changes take effect, and the old refresh token is revoked.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*models.LoginResponse, error) {
	claims, err := s.ValidateRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, ErrInvalidToken
	}

	user, err := s.users.GetUser(ctx, claims.UserID)
	if err != nil {
		if isNoRows(err) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if err := s.BlacklistRefreshToken(ctx, refreshToken); err != nil && s.redisClient != nil {
		s.logger.Warn("Failed to revoke refresh token", zap.Error(err))
	}

	return s.loginResponse(user)
}

// Logout revokes the access token and, when given, the refresh token.
func (s *AuthService) Logout(ctx context.Context, accessToken, refreshToken string) error {
	if err := s.BlacklistToken(ctx, accessToken); err != nil {
		return err
	}
	if refreshToken != "" {
		if err := s.BlacklistRefreshToken(ctx, refreshToken); err != nil {
			return err
		}
	}
	return nil
}

func (s *AuthService) loginResponse(user queries.User) (*models.LoginResponse, error) {
	accessToken, refreshToken, err := s.GenerateTokens(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tokens: %w", err)
	}

	return &models.LoginResponse{
		User:         user.ToResponse(time.Now()),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int(s.tokenExpiry.Seconds()),
	}, nil
}

func (s *AuthService) GenerateTokens(user queries.User) (string, string, error) {
	now := time.Now()

	accessClaims := &models.JWTClaims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Subject:   fmt.Sprintf("user_%d", user.ID),
		},
	}

	accessToken := jwt.NewWithClaims(jwt.SigningMethodRS256, accessClaims)
	accessTokenString, err := accessToken.SignedString(s.jwtPrivateKey)
	if err != nil {
		return "", "", err
	}

	refreshClaims := &models.RefreshTokenClaims{
		UserID: user.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.refreshExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Subject:   fmt.Sprintf("user_%d", user.ID),
			ID:        randomTokenID(),
		},
	}

	refreshToken := jwt.NewWithClaims(jwt.SigningMethodRS256, refreshClaims)
	refreshTokenString, err := refreshToken.SignedString(s.refreshPrivateKey)
	if err != nil {
		return "", "", err
	}

	return accessTokenString, refreshTokenString, nil
}

func (s *AuthService) ValidateToken(ctx context.Context, tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, s.keyFunc(s.jwtPublicKey))
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*models.JWTClaims); ok && token.Valid {
		if s.isBlacklisted(ctx, "blacklist:"+tokenString) {
			return nil, ErrInvalidToken
		}
		return claims, nil
	}

	return nil, ErrInvalidToken
}

func (s *AuthService) ValidateRefreshToken(ctx context.Context, tokenString string) (*models.RefreshTokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.RefreshTokenClaims{}, s.keyFunc(s.refreshPublicKey))
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*models.RefreshTokenClaims); ok && token.Valid {
		if s.isBlacklisted(ctx, "blacklist:refresh:"+tokenString) {
			return nil, ErrInvalidToken
		}
		return claims, nil
	}

	return nil, ErrInvalidToken
}

// BlacklistToken revokes an access token until it would have expired anyway.
func (s *AuthService) BlacklistToken(ctx context.Context, tokenString string) error {
	if s.redisClient == nil {
		return errors.New("redis client not configured")
	}

	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, s.keyFunc(s.jwtPublicKey))
	if err != nil {
		return err
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok {
		return ErrInvalidToken
	}
	return s.blacklist(ctx, "blacklist:"+tokenString, claims.ExpiresAt, claims.UserID)
}

func (s *AuthService) BlacklistRefreshToken(ctx context.Context, tokenString string) error {
	if s.redisClient == nil {
		return errors.New("redis client not configured")
	}

	token, err := jwt.ParseWithClaims(tokenString, &models.RefreshTokenClaims{}, s.keyFunc(s.refreshPublicKey))
	if err != nil {
		return err
	}

	claims, ok := token.Claims.(*models.RefreshTokenClaims)
	if !ok {
		return ErrInvalidToken
	}
	return s.blacklist(ctx, "blacklist:refresh:"+tokenString, claims.ExpiresAt, claims.UserID)
}

func (s *AuthService) blacklist(ctx context.Context, key string, expiresAt *jwt.NumericDate, userID int64) error {
	if expiresAt == nil {
		return ErrInvalidToken
	}
	expiry := time.Until(expiresAt.Time)
	if expiry <= 0 {
		// Token already expired, no need to blacklist
		return nil
	}

	if err := s.redisClient.Set(ctx, key, "1", expiry).Err(); err != nil {
		s.logger.Error("Failed to blacklist token", zap.Error(err))
		return err
	}

	s.logger.Info("Token blacklisted", zap.Int64("user_id", userID))
	return nil
}

func (s *AuthService) isBlacklisted(ctx context.Context, key string) bool {
	if s.redisClient == nil {
		return false
	}
	n, err := s.redisClient.Exists(ctx, key).Result()
	if err != nil {
		// Continue validation if Redis is down
		s.logger.Error("Failed to check token blacklist", zap.Error(err))
		return false
	}
	return n > 0
}

func (s *AuthService) keyFunc(key *rsa.PublicKey) jwt.Keyfunc {
	return func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return key, nil
	}
}

func randomTokenID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return base64.RawURLEncoding.EncodeToString(b)
}
