package service

import (
	"context"
	"ctchen222/tictactoe-minimax/internal/api/models"
	"ctchen222/tictactoe-minimax/internal/api/repository"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const tokenTTL = 72 * time.Hour

var (
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid token")
)

// UserService defines the interface for user-related business logic.
type UserService interface {
	Register(ctx context.Context, req *models.RegisterRequest) error
	Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error)
	GuestLogin(ctx context.Context) (*models.GuestResponse, error)
	// Authenticate returns the player name carried by a token.
	Authenticate(token string) (string, error)
}

type userService struct {
	userRepo  repository.UserRepository
	jwtSecret []byte
	now       func() time.Time
}

// NewUserService creates a new UserService signing tokens with jwtSecret.
func NewUserService(userRepo repository.UserRepository, jwtSecret string) UserService {
	return &userService{userRepo: userRepo, jwtSecret: []byte(jwtSecret), now: time.Now}
}

// Register handles user registration.
func (s *userService) Register(ctx context.Context, req *models.RegisterRequest) error {
	// Check if user already exists
	_, err := s.userRepo.GetUserByUsername(ctx, req.Username)
	switch {
	case err == nil:
		return ErrUsernameTaken
	case !errors.Is(err, repository.ErrUserNotFound):
		return err
	}

	user := &models.User{
		Username: req.Username,
	}

	return s.userRepo.CreateUser(ctx, user, req.Password)
}

// Login handles user login and returns a JWT on success.
func (s *userService) Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error) {
	user, err := s.userRepo.GetUserByUsername(ctx, req.Username)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.sign(user.ID, user.Username)
	if err != nil {
		return nil, err
	}
	return &models.LoginResponse{Token: token, Username: user.Username}, nil
}

// GuestLogin generates a UUID for a guest player and a token naming it.
func (s *userService) GuestLogin(ctx context.Context) (*models.GuestResponse, error) {
	playerID := "guest-" + uuid.New().String()
	token, err := s.sign(0, playerID)
	if err != nil {
		return nil, err
	}
	return &models.GuestResponse{PlayerID: playerID, Token: token}, nil
}

func (s *userService) Authenticate(tokenString string) (string, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return s.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	name, ok := claims["un"].(string)
	if !ok || name == "" {
		return "", fmt.Errorf("%w: missing un claim", ErrInvalidToken)
	}
	return name, nil
}

func (s *userService) sign(id int64, username string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": fmt.Sprint(id),
		"un":  username,
		"exp": s.now().Add(tokenTTL).Unix(),
	})

	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}
