package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/whompratt/claans/internal/domain"
	"github.com/whompratt/claans/internal/repository"
	"github.com/whompratt/claans/pkg/database"
)

type UserRepository interface {
	Create(ctx context.Context, user domain.CreateUserRequest) (*domain.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	GetByID(ctx context.Context, userID int64) (*domain.User, error)
	SetActive(ctx context.Context, userID int64, active bool) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	GetByClaan(ctx context.Context, claan domain.Claan) ([]domain.User, error)
	Delete(ctx context.Context, userID int64) error
}

type CompanyRepository interface {
	GetByClaan(ctx context.Context, claan domain.Claan) (*domain.Company, error)
}

type PortfolioRepository interface {
	Create(ctx context.Context, userID, companyID int64) (*domain.Portfolio, error)
	GetByUserID(ctx context.Context, userID int64) (*domain.Portfolio, error)
}

type UserService struct {
	userRepo      UserRepository
	companyRepo   CompanyRepository
	portfolioRepo PortfolioRepository
	txManager     database.TransactionManagerInterface
	lg            *slog.Logger
}

func NewUserService(
	userRepo UserRepository,
	companyRepo CompanyRepository,
	portfolioRepo PortfolioRepository,
	txManager database.TransactionManagerInterface,
	lg *slog.Logger) *UserService {
	return &UserService{
		userRepo:      userRepo,
		companyRepo:   companyRepo,
		portfolioRepo: portfolioRepo,
		txManager:     txManager,
		lg:            lg,
	}
}

// CreateUser registers a user and opens their portfolio with the claan's
// company in the same transaction, so a user never exists without one.
func (s *UserService) CreateUser(ctx context.Context, req domain.CreateUserRequest) (*domain.User, error) {
	if req.Name == "" || req.Email == "" {
		return nil, fmt.Errorf("%w: name and email are required", domain.ErrInvalidInput)
	}
	if !req.Claan.IsValid() {
		return nil, fmt.Errorf("%w: unknown claan %q", domain.ErrInvalidInput, req.Claan)
	}

	var created *domain.User
	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		exists, err := s.userRepo.EmailExists(txCtx, req.Email)
		if err != nil {
			return fmt.Errorf("failed to check email: %w", err)
		}
		if exists {
			return domain.ErrUserExists
		}

		created, err = s.userRepo.Create(txCtx, req)
		if err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}

		company, err := s.companyRepo.GetByClaan(txCtx, req.Claan)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return domain.ErrCompanyNotFound
			}
			return fmt.Errorf("failed to get company: %w", err)
		}

		if _, err := s.portfolioRepo.Create(txCtx, created.ID, company.ID); err != nil {
			return fmt.Errorf("failed to create portfolio: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.lg.Info("user created",
		slog.Int64("user_id", created.ID),
		slog.String("claan", string(created.Claan)))
	return created, nil
}

func (s *UserService) GetUser(ctx context.Context, userID int64) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (s *UserService) SetActive(ctx context.Context, userID int64, active bool) (*domain.User, error) {
	user, err := s.userRepo.SetActive(ctx, userID, active)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to set user active: %w", err)
	}

	s.lg.Info("user active status updated", slog.Int64("user_id", userID), slog.Bool("active", active))
	return user, nil
}

func (s *UserService) ListUsers(ctx context.Context) ([]domain.User, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (s *UserService) ListUsersByClaan(ctx context.Context, claan domain.Claan) ([]domain.User, error) {
	if !claan.IsValid() {
		return nil, fmt.Errorf("%w: unknown claan %q", domain.ErrInvalidInput, claan)
	}

	users, err := s.userRepo.GetByClaan(ctx, claan)
	if err != nil {
		return nil, fmt.Errorf("failed to list claan users: %w", err)
	}
	return users, nil
}

func (s *UserService) DeleteUser(ctx context.Context, userID int64) error {
	if err := s.userRepo.Delete(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.ErrUserNotFound
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}

	s.lg.Info("user deleted", slog.Int64("user_id", userID))
	return nil
}
