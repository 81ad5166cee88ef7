package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/robinhoot/robinhoot_api/internal/metrics"
	"github.com/robinhoot/robinhoot_api/internal/models"
	"github.com/robinhoot/robinhoot_api/internal/repository"
	"github.com/robinhoot/robinhoot_api/internal/utils"
)

const (
	minUsernameLen = 3
	maxUsernameLen = 32
	minPasswordLen = 8
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.]+$`)

// UserStore is the user persistence needed for registration and login.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	Create(ctx context.Context, user *models.User) error
}

// RegisterCommand carries a sign-up request.
type RegisterCommand struct {
	Email    string `json:"email" binding:"required"`
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	Name     string `json:"name"`
}

// AuthResult is returned on successful registration or login.
type AuthResult struct {
	User      *models.User `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
}

// RegisterCommandHandler creates customer accounts.
type RegisterCommandHandler struct {
	users      UserStore
	bcryptCost int
}

// NewRegisterCommandHandler constructs a RegisterCommandHandler.
func NewRegisterCommandHandler(users UserStore) *RegisterCommandHandler {
	return &RegisterCommandHandler{users: users, bcryptCost: bcrypt.DefaultCost}
}

// Handle validates cmd, stores a new customer and issues a token for it.
func (h *RegisterCommandHandler) Handle(ctx context.Context, cmd RegisterCommand) (*AuthResult, error) {
	cmd.Email = strings.ToLower(strings.TrimSpace(cmd.Email))
	cmd.Username = strings.TrimSpace(cmd.Username)
	cmd.Name = strings.TrimSpace(cmd.Name)

	if err := validateRegister(cmd); err != nil {
		metrics.RecordAuth("register", "invalid")
		return nil, err
	}

	taken, err := h.users.ExistsByEmail(ctx, cmd.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if taken {
		metrics.RecordAuth("register", "conflict")
		return nil, utils.ErrEmailTaken
	}
	taken, err = h.users.ExistsByUsername(ctx, cmd.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if taken {
		metrics.RecordAuth("register", "conflict")
		return nil, utils.ErrUsernameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cmd.Password), h.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:        cmd.Email,
		Username:     cmd.Username,
		PasswordHash: string(hash),
		Name:         cmd.Name,
		Role:         models.UserRoleCustomer,
		IsActive:     true,
	}
	if err := h.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			// Lost a race with a concurrent sign-up.
			metrics.RecordAuth("register", "conflict")
			if exists, _ := h.users.ExistsByEmail(ctx, cmd.Email); exists {
				return nil, utils.ErrEmailTaken
			}
			return nil, utils.ErrUsernameTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	token, expiresAt, err := utils.GenerateJWT(user.ID, user.Email, string(user.Role))
	if err != nil {
		return nil, err
	}

	metrics.RecordAuth("register", "success")
	log.Info().Int("user_id", user.ID).Str("username", user.Username).Msg("User registered")
	return &AuthResult{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

func validateRegister(cmd RegisterCommand) error {
	if cmd.Email == "" {
		return fmt.Errorf("%w: email is required", utils.ErrValidation)
	}
	if addr, err := mail.ParseAddress(cmd.Email); err != nil || addr.Address != cmd.Email {
		return fmt.Errorf("%w: email is invalid", utils.ErrValidation)
	}
	if n := len(cmd.Username); n < minUsernameLen || n > maxUsernameLen {
		return fmt.Errorf("%w: username must be %d-%d characters", utils.ErrValidation, minUsernameLen, maxUsernameLen)
	}
	if !usernamePattern.MatchString(cmd.Username) {
		return fmt.Errorf("%w: username may contain letters, digits, '_' and '.'", utils.ErrValidation)
	}
	if len(cmd.Password) < minPasswordLen {
		return fmt.Errorf("%w: password must be at least %d characters", utils.ErrValidation, minPasswordLen)
	}
	return nil
}

// AuthService signs users in.
type AuthService struct {
	users UserStore
}

// NewAuthService constructs a new AuthService.
func NewAuthService(users UserStore) *AuthService {
	return &AuthService{users: users}
}

// Login verifies credentials and issues a token for an active user.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	log.Debug().Str("email", email).Msg("Login attempt")

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			metrics.RecordAuth("login", "invalid")
			return nil, utils.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		log.Warn().Str("email", email).Msg("Password verification failed")
		metrics.RecordAuth("login", "invalid")
		return nil, utils.ErrInvalidCredentials
	}

	if !user.IsActive {
		log.Warn().Str("email", email).Msg("Account is inactive")
		metrics.RecordAuth("login", "inactive")
		return nil, utils.ErrInactiveAccount
	}

	token, expiresAt, err := utils.GenerateJWT(user.ID, user.Email, string(user.Role))
	if err != nil {
		return nil, err
	}

	metrics.RecordAuth("login", "success")
	log.Info().Int("user_id", user.ID).Msg("Login successful")
	return &AuthResult{User: user, Token: token, ExpiresAt: expiresAt}, nil
}
