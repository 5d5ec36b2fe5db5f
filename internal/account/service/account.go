package service

import (
	"context"
	"strings"

	"github.com/samtime/samtime-backend/internal/account/jwt"
	"github.com/samtime/samtime-backend/internal/account/repository"
	"github.com/samtime/samtime-backend/pkg/errors"
	"github.com/samtime/samtime-backend/pkg/logger"
	"github.com/samtime/samtime-backend/pkg/messaging"
	"golang.org/x/crypto/bcrypt"
)

// Repository is the company persistence the account service needs
type Repository interface {
	Create(ctx context.Context, c *repository.Company) error
	GetByEmail(ctx context.Context, email string) (*repository.Company, error)
	GetByID(ctx context.Context, id int64) (*repository.Company, error)
}

// AccountService handles company sign up and login
type AccountService struct {
	repo       Repository
	jwtManager *jwt.Manager
	publisher  messaging.EventPublisher
	logger     *logger.Logger
	hashCost   int
}

// NewAccountService creates a new account service
func NewAccountService(repo Repository, jwtManager *jwt.Manager, publisher messaging.EventPublisher, log *logger.Logger) *AccountService {
	return &AccountService{
		repo:       repo,
		jwtManager: jwtManager,
		publisher:  publisher,
		logger:     log.WithComponent("account"),
		hashCost:   bcrypt.DefaultCost,
	}
}

// RegisterRequest represents a company sign up
type RegisterRequest struct {
	Name     string `json:"name" validate:"notblank,max=255"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse is returned by sign up, login and refresh
type AuthResponse struct {
	*jwt.TokenPair
	Company *repository.Company `json:"company"`
}

// Register creates a company account and signs it in
func (s *AccountService) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.hashCost)
	if err != nil {
		return nil, errors.Internal("failed to hash password")
	}

	company := &repository.Company{
		Name:         strings.TrimSpace(req.Name),
		Email:        normalizeEmail(req.Email),
		PasswordHash: string(hash),
	}
	if err := s.repo.Create(ctx, company); err != nil {
		if errors.Is(err, errors.ErrConflict) {
			s.logger.Warn().Str("email", company.Email).Msg("company email already registered")
		} else {
			s.logger.Error().Err(err).Msg("failed to create company")
		}
		return nil, err
	}

	s.logger.WithCompanyID(company.ID).Info().Msg("company registered")
	if err := s.publisher.Publish(ctx, messaging.EventCompanyRegistered, messaging.CompanyRegisteredEvent{
		CompanyID: company.ID,
		Name:      company.Name,
		Email:     company.Email,
	}); err != nil {
		s.logger.Warn().Err(err).Msg("failed to publish company registered event")
	}

	return s.signIn(company)
}

// Login checks the credentials and returns a token pair
func (s *AccountService) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	company, err := s.repo.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return nil, errors.InvalidCredentials()
		}
		s.logger.Error().Err(err).Msg("failed to look up company")
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(company.PasswordHash), []byte(req.Password)); err != nil {
		s.logger.WithCompanyID(company.ID).Warn().Msg("login with wrong password")
		return nil, errors.InvalidCredentials()
	}

	return s.signIn(company)
}

// Refresh exchanges a refresh token for a new pair
func (s *AccountService) Refresh(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	claims, err := s.jwtManager.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, err
	}

	company, err := s.repo.GetByID(ctx, claims.CompanyID)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return nil, errors.TokenInvalid()
		}
		return nil, err
	}

	return s.signIn(company)
}

// Me returns the authenticated company
func (s *AccountService) Me(ctx context.Context, companyID int64) (*repository.Company, error) {
	return s.repo.GetByID(ctx, companyID)
}

func (s *AccountService) signIn(company *repository.Company) (*AuthResponse, error) {
	tokens, err := s.jwtManager.GenerateTokenPair(&jwt.CompanyInfo{
		ID:    company.ID,
		Email: company.Email,
		Name:  company.Name,
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to generate tokens")
		return nil, errors.Internal("failed to generate tokens")
	}
	return &AuthResponse{TokenPair: tokens, Company: company}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
