package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ArowuTest/subscriber-draw-backend/internal/models"
	"github.com/ArowuTest/subscriber-draw-backend/internal/repositories"
	"github.com/ArowuTest/subscriber-draw-backend/pkg/jwt"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/exp/slog"
)

// Admin roles
const (
	RoleAdmin    = "admin"
	RoleOperator = "operator"
)

// Compile-time check to ensure authService implements AuthService
var _ AuthService = (*authService)(nil)

type authService struct {
	adminRepo repositories.AdminUserRepository
	tokens    *jwt.TokenService
}

// NewAuthService creates a new AuthService implementation
func NewAuthService(adminRepo repositories.AdminUserRepository, tokens *jwt.TokenService) AuthService {
	return &authService{
		adminRepo: adminRepo,
		tokens:    tokens,
	}
}

// Register creates an admin account with a bcrypt-hashed password
func (s *authService) Register(ctx context.Context, req *models.RegisterRequest) (*models.AdminUser, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	_, err := s.adminRepo.FindByEmail(ctx, email)
	if err == nil {
		return nil, ErrEmailTaken
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("failed to check existing admin: %w", err)
	}

	role := req.Role
	switch role {
	case "":
		role = RoleOperator
	case RoleAdmin, RoleOperator:
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidRole, req.Role)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.AdminUser{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     email,
		Password:  string(hashedPassword),
		Role:      role,
	}
	if err := s.adminRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create admin: %w", err)
	}

	slog.Info("Admin registered", "adminID", user.ID.Hex(), "role", role)
	user.Password = ""
	return user, nil
}

// Login checks the password and issues a signed token
func (s *authService) Login(ctx context.Context, req *models.LoginRequest) (*LoginResponse, error) {
	user, err := s.adminRepo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load admin: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		slog.Warn("Failed login attempt", "adminID", user.ID.Hex())
		return nil, ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.Issue(user.ID.Hex(), user.Email, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	user.Password = ""
	return &LoginResponse{Token: token, ExpiresAt: expiresAt, User: user}, nil
}
