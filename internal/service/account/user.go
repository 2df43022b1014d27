// Package account implements registration and login.
package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"filestorage/internal/domain"
	"filestorage/internal/domain/models"
	"filestorage/internal/domain/repositories"
	"filestorage/internal/domain/services"
	"filestorage/internal/events"
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// Deps are the collaborators of the user service.
type Deps struct {
	Users      repositories.UserRepository
	Folders    repositories.FolderRepository
	TxManager  repositories.TransactionManager
	Tokens     services.TokenIssuer
	Clock      services.Clock
	Events     services.EventPublisher
	Logger     *slog.Logger
	BcryptCost int // zero selects bcrypt.DefaultCost
}

type userService struct {
	users      repositories.UserRepository
	folders    repositories.FolderRepository
	txManager  repositories.TransactionManager
	tokens     services.TokenIssuer
	clock      services.Clock
	events     services.EventPublisher
	logger     *slog.Logger
	bcryptCost int
}

// NewUserService creates a new user service
func NewUserService(deps Deps) services.UserService {
	cost := deps.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &userService{
		users:      deps.Users,
		folders:    deps.Folders,
		txManager:  deps.TxManager,
		tokens:     deps.Tokens,
		clock:      deps.Clock,
		events:     deps.Events,
		logger:     deps.Logger,
		bcryptCost: cost,
	}
}

// Register creates a user together with its root folder and signs the
// user in.
func (s *userService) Register(ctx context.Context, req *services.RegisterRequest) (*models.AuthToken, error) {
	req.Email = strings.TrimSpace(req.Email)
	req.Username = strings.TrimSpace(req.Username)

	err := validation.ValidateStruct(req,
		validation.Field(&req.Email, validation.Required, is.EmailFormat),
		validation.Field(&req.Username, validation.Required, validation.Length(3, 32),
			validation.Match(usernamePattern).Error("must contain only letters, digits, '_', '.' or '-'")),
		validation.Field(&req.Password, validation.Required, validation.Length(8, 72)),
	)
	if err != nil {
		return nil, domain.FromValidation(err)
	}

	taken, err := s.users.EmailExists(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if taken {
		return nil, &domain.ConflictError{Key: domain.KeyEmailTaken, Message: "email is already registered", ResourceType: "user"}
	}
	taken, err = s.users.UsernameExists(ctx, req.Username)
	if err != nil {
		return nil, fmt.Errorf("check username: %w", err)
	}
	if taken {
		return nil, &domain.ConflictError{Key: domain.KeyUsernameTaken, Message: "username is already taken", ResourceType: "user"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.clock.Now()
	user := &models.User{
		ID:           uuid.New(),
		Email:        req.Email,
		Username:     req.Username,
		PasswordHash: string(hash),
		CreatedAt:    now,
		ModifiedAt:   now,
		FolderID:     uuid.New(),
	}

	err = s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		if err := s.users.Create(ctx, user); err != nil {
			return err
		}
		return s.folders.CreateRoot(ctx, user.FolderID, user.ID, now)
	})
	if err != nil {
		return nil, fmt.Errorf("register user: %w", err)
	}

	s.logger.Info("user registered", "user_id", user.ID, "root_folder_id", user.FolderID)
	events.Emit(ctx, s.events, s.logger, events.SubjectUserRegistered, events.UserRegistered{
		UserID:       user.ID,
		RootFolderID: user.FolderID,
		OccurredAt:   now,
	})

	return s.tokens.Issue(user)
}

// Login accepts either the email or the username. Unknown logins and wrong
// passwords return the same error.
func (s *userService) Login(ctx context.Context, req *services.LoginRequest) (*models.AuthToken, error) {
	err := validation.ValidateStruct(req,
		validation.Field(&req.Login, validation.Required),
		validation.Field(&req.Password, validation.Required),
	)
	if err != nil {
		return nil, domain.FromValidation(err)
	}

	user, err := s.users.GetByLogin(ctx, strings.TrimSpace(req.Login))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, invalidCredentials()
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.logger.Debug("password mismatch", "user_id", user.ID)
		return nil, invalidCredentials()
	}

	return s.tokens.Issue(user)
}

func invalidCredentials() error {
	return &domain.UnauthorizedError{Key: domain.KeyInvalidCredentials, Message: "invalid login or password"}
}
