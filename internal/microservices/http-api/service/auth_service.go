package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"mapportal/internal/config"
	"mapportal/internal/middleware/auth"
	"mapportal/internal/microservices/http-api/models"
	"mapportal/internal/microservices/http-api/repository"
	"mapportal/internal/storage"

	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"
)

var (
	ErrNameInUse          = fmt.Errorf("%w: username already in use", ErrConflict)
	ErrEmailInUse         = fmt.Errorf("%w: email already in use", ErrConflict)
	ErrInactiveUser       = fmt.Errorf("%w: account is inactive", ErrForbidden)
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrExpiredToken       = errors.New("token has expired")
)

// Claims is the access token payload.
type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

type AuthService interface {
	Register(ctx context.Context, username, password, email string) (accessToken string, user *models.User, err error)
	Login(ctx context.Context, username, password string) (accessToken string, user *models.User, err error)
	ValidateToken(tokenString string) (*Claims, error)
	CurrentUser(ctx context.Context, userID string) (*models.User, error)
	DeleteAccount(ctx context.Context, userID string) error
	TokenTTL() time.Duration
}

type authService struct {
	userRepo       repository.UserRepository
	files          storage.Store
	jwtSecret      string
	accessTokenTTL time.Duration
	log            *slog.Logger
}

func NewAuthService(userRepo repository.UserRepository, files storage.Store, cfg *config.Config, log *slog.Logger) AuthService {
	return &authService{
		userRepo:       userRepo,
		files:          files,
		jwtSecret:      cfg.JWTSecret,
		accessTokenTTL: cfg.AccessTokenTTL,
		log:            log,
	}
}

// Register: registers a new user and returns an access token for them.
func (s *authService) Register(ctx context.Context, username, password, email string) (string, *models.User, error) {
	if !validUsername(username) {
		return "", nil, invalidArgument("username must contain only letters, digits and underscores")
	}

	// Check if user exists
	if _, err := s.userRepo.FindByUsername(ctx, username); err == nil {
		return "", nil, ErrNameInUse
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil, storageError(err, "user")
	}

	// Check if email exists
	if _, err := s.userRepo.FindByEmail(ctx, email); err == nil {
		return "", nil, ErrEmailInUse
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil, storageError(err, "user")
	}

	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		return "", nil, err
	}

	user := &models.User{
		Username: username,
		Email:    email,
		Password: hashedPassword,
		IsActive: true,
	}
	// a concurrent registration can still win the unique index
	if err := s.userRepo.Create(ctx, user); err != nil {
		return "", nil, storageError(err, "user")
	}

	token, err := s.generateAccessToken(user)
	if err != nil {
		return "", nil, err
	}
	s.log.Info("user registered", "user_id", user.ID, "username", user.Username)
	return token, user, nil
}

// Login: authenticates by username or email and returns an access token.
func (s *authService) Login(ctx context.Context, username, password string) (string, *models.User, error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if errors.Is(err, gorm.ErrRecordNotFound) && strings.Contains(username, "@") {
		user, err = s.userRepo.FindByEmail(ctx, username)
	}
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, storageError(err, "user")
		}
		// unknown user still pays for one bcrypt comparison
		auth.BurnPasswordCheck(password)
		return "", nil, ErrInvalidCredentials
	}

	if err := auth.VerifyPassword(user.Password, password); err != nil {
		return "", nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return "", nil, ErrInactiveUser
	}

	token, err := s.generateAccessToken(user)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

func (s *authService) generateAccessToken(user *models.User) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:   user.ID,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}

func (s *authService) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	if !token.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// CurrentUser loads the account behind a verified token.
func (s *authService) CurrentUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, storageError(err, "user")
	}
	return user, nil
}

// DeleteAccount removes the user with everything they own in one transaction,
// then deletes the stored files of their maps. A file that cannot be removed
// is logged and left behind; the account is already gone at that point.
func (s *authService) DeleteAccount(ctx context.Context, userID string) error {
	refs, err := s.userRepo.Delete(ctx, userID)
	if err != nil {
		return storageError(err, "user")
	}
	for _, ref := range refs {
		if err := s.files.Delete(ref); err != nil {
			s.log.Error("remove file of deleted map failed", "file", ref, "error", err)
		}
	}
	s.log.Info("account deleted", "user_id", userID, "files_removed", len(refs))
	return nil
}

func (s *authService) TokenTTL() time.Duration {
	return s.accessTokenTTL
}

func validUsername(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		if !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return false
		}
	}
	return true
}
