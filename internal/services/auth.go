package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/pagemarkhq/pagemark-backend/internal/errs"
	"github.com/pagemarkhq/pagemark-backend/internal/logger"
	"github.com/pagemarkhq/pagemark-backend/internal/repos"
	"github.com/pagemarkhq/pagemark-backend/internal/requestdata"
	"github.com/pagemarkhq/pagemark-backend/internal/types"
)

type AuthService interface {
	RegisterUser(ctx context.Context, email, password, displayName string) (*types.User, error)
	LoginUser(ctx context.Context, email, password string) (string, string, error)
	RefreshUser(ctx context.Context, refreshToken string) (string, string, error)
	LogoutUser(ctx context.Context, refreshToken string) error
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
}

type authService struct {
	db            *gorm.DB
	log           *logger.Logger
	userRepo      repos.UserRepo
	userTokenRepo repos.UserTokenRepo
	jwtSecretKey  string
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewAuthService(
	db *gorm.DB,
	baseLog *logger.Logger,
	userRepo repos.UserRepo,
	userTokenRepo repos.UserTokenRepo,
	jwtSecretKey string,
	accessTTL time.Duration,
	refreshTTL time.Duration,
) AuthService {
	serviceLog := baseLog.With("service", "AuthService")
	return &authService{
		db:            db,
		log:           serviceLog,
		userRepo:      userRepo,
		userTokenRepo: userTokenRepo,
		jwtSecretKey:  jwtSecretKey,
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

func (as *authService) RegisterUser(ctx context.Context, email, password, displayName string) (*types.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("invalid email")
	}
	if len(password) < 8 {
		return nil, fmt.Errorf("password must be at least 8 characters")
	}
	if _, err := as.userRepo.GetByEmail(ctx, nil, email); err == nil {
		return nil, fmt.Errorf("email already registered")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := &types.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: string(hash),
		DisplayName:  strings.TrimSpace(displayName),
	}
	if _, err := as.userRepo.Create(ctx, nil, []*types.User{user}); err != nil {
		as.log.Error("RegisterUser failed", "error", err)
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

func (as *authService) LoginUser(ctx context.Context, email, password string) (string, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := as.userRepo.GetByEmail(ctx, nil, email)
	if err != nil {
		return "", "", errs.ErrUnauthorized
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", "", errs.ErrUnauthorized
	}
	return as.issueTokens(ctx, user.ID)
}

func (as *authService) RefreshUser(ctx context.Context, refreshToken string) (string, string, error) {
	stored, err := as.userTokenRepo.GetByHash(ctx, nil, hashToken(refreshToken))
	if err != nil {
		return "", "", errs.ErrUnauthorized
	}
	if time.Now().After(stored.ExpiresAt) {
		return "", "", errs.ErrUnauthorized
	}
	if err := as.userTokenRepo.Revoke(ctx, nil, stored.ID); err != nil {
		as.log.Warn("Failed to revoke rotated refresh token", "error", err)
	}
	return as.issueTokens(ctx, stored.UserID)
}

func (as *authService) LogoutUser(ctx context.Context, refreshToken string) error {
	stored, err := as.userTokenRepo.GetByHash(ctx, nil, hashToken(refreshToken))
	if err != nil {
		// Already gone, logout is idempotent.
		return nil
	}
	return as.userTokenRepo.RevokeAllForUser(ctx, nil, stored.UserID)
}

func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(as.jwtSecretKey), nil
	})
	if err != nil || !token.Valid {
		return ctx, errs.ErrUnauthorized
	}
	sub, _ := claims["sub"].(string)
	userID, err := uuid.Parse(sub)
	if err != nil {
		return ctx, errs.ErrUnauthorized
	}
	rd := &requestdata.RequestData{
		TokenString: tokenString,
		UserID:      userID,
	}
	return requestdata.WithRequestData(ctx, rd), nil
}

func (as *authService) issueTokens(ctx context.Context, userID uuid.UUID) (string, string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": userID.String(),
		"iat": now.Unix(),
		"exp": now.Add(as.accessTTL).Unix(),
	}
	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(as.jwtSecretKey))
	if err != nil {
		return "", "", fmt.Errorf("sign access token: %w", err)
	}

	refresh, err := randomToken()
	if err != nil {
		return "", "", fmt.Errorf("generate refresh token: %w", err)
	}
	stored := &types.UserToken{
		ID:        uuid.New(),
		UserID:    userID,
		TokenHash: hashToken(refresh),
		ExpiresAt: now.Add(as.refreshTTL),
	}
	if _, err := as.userTokenRepo.Create(ctx, nil, stored); err != nil {
		return "", "", fmt.Errorf("store refresh token: %w", err)
	}
	return access, refresh, nil
}

func randomToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
