package service

import (
	"context"
	"log/slog"

	"simplesocial/internal/cache"
	"simplesocial/internal/middleware"
	"simplesocial/internal/models"
	"simplesocial/internal/notifications"
	"simplesocial/internal/repository"
	"simplesocial/internal/validation"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// SignupInput carries the fields of a registration request.
type SignupInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	About    string `json:"about"`
	Gender   string `json:"gender"`
	Age      int    `json:"age"`
}

// UpdateUserInput carries a partial profile update. Nil fields are left
// unchanged.
type UpdateUserInput struct {
	About     *string `json:"about"`
	Gender    *string `json:"gender"`
	Age       *int    `json:"age"`
	AvatarURL *string `json:"avatar_url"`
}

// UserService implements account management and user deletion.
type UserService struct {
	db       *gorm.DB
	users    repository.UserRepository
	notifier *notifications.Notifier
}

// NewUserService returns a new UserService.
func NewUserService(db *gorm.DB, notifier *notifications.Notifier) *UserService {
	return &UserService{
		db:       db,
		users:    repository.NewUserRepository(db),
		notifier: notifier,
	}
}

// Register validates the input, checks uniqueness and creates the account
// with a bcrypt password hash.
func (s *UserService) Register(ctx context.Context, input SignupInput) (*models.User, error) {
	if err := validation.ValidateUsername(input.Username); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateEmail(input.Email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(input.Password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	existing, err := s.users.GetByUsername(ctx, input.Username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewValidationError("Username already taken")
	}
	existing, err = s.users.GetByEmail(ctx, input.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewValidationError("Email already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		Username: input.Username,
		Email:    input.Email,
		Password: string(hash),
		About:    input.About,
		Gender:   input.Gender,
		Age:      input.Age,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	middleware.Logger.InfoContext(ctx, "user registered",
		slog.Any("user_id", user.ID),
		slog.String("username", user.Username),
	)
	return user, nil
}

// Authenticate verifies email and password and returns the account.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}
	return user, nil
}

// GetUser returns a user by id.
func (s *UserService) GetUser(ctx context.Context, id uint) (*models.User, error) {
	return s.users.GetByID(ctx, id)
}

// ListUsers returns a page of users.
func (s *UserService) ListUsers(ctx context.Context, limit, offset int) ([]models.User, error) {
	return s.users.List(ctx, limit, offset)
}

// UpdateProfile applies a partial update to the caller's own profile.
func (s *UserService) UpdateProfile(ctx context.Context, userID uint, input UpdateUserInput) (*models.User, error) {
	user, err := s.users.GetByIDFresh(ctx, userID)
	if err != nil {
		return nil, err
	}

	if input.About != nil {
		user.About = *input.About
	}
	if input.Gender != nil {
		user.Gender = *input.Gender
	}
	if input.Age != nil {
		if *input.Age < 0 || *input.Age > 150 {
			return nil, models.NewValidationError("Age out of range")
		}
		user.Age = *input.Age
	}
	if input.AvatarURL != nil {
		user.AvatarURL = *input.AvatarURL
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// ChangePassword replaces the caller's password after verifying the
// current one.
func (s *UserService) ChangePassword(ctx context.Context, userID uint, currentPassword, newPassword string) error {
	user, err := s.users.GetByIDFresh(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(currentPassword)); err != nil {
		return models.NewUnauthorizedError("Current password is incorrect")
	}
	if err := validation.ValidatePassword(newPassword); err != nil {
		return models.NewValidationError(err.Error())
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return models.NewInternalError(err)
	}
	user.Password = string(hash)
	if err := s.users.Update(ctx, user); err != nil {
		return err
	}

	middleware.Logger.InfoContext(ctx, "password changed", slog.Any("user_id", userID))
	return nil
}

// SetAdmin grants or revokes admin rights. Only admins may call it.
func (s *UserService) SetAdmin(ctx context.Context, actorID, targetID uint, isAdmin bool) error {
	actor, err := s.users.GetByID(ctx, actorID)
	if err != nil {
		return err
	}
	if !actor.IsAdmin {
		return models.NewUnauthorizedError("Admin rights required")
	}
	if err := s.users.SetAdmin(ctx, targetID, isAdmin); err != nil {
		return err
	}
	middleware.Logger.InfoContext(ctx, "admin flag changed",
		slog.Any("actor_id", actorID),
		slog.Any("target_id", targetID),
		slog.Bool("is_admin", isAdmin),
	)
	return nil
}

// DeleteUser removes an account and everything that references it: follow
// edges in both directions with counter decrements on the surviving side,
// likes given with counter decrements on surviving targets, authored posts
// with their full sub-trees, and authored comments on other users' posts.
// Everything happens in one transaction. The target may be the caller, or
// anyone if the caller is an admin.
func (s *UserService) DeleteUser(ctx context.Context, actorID, targetID uint) error {
	if actorID != targetID {
		actor, err := s.users.GetByID(ctx, actorID)
		if err != nil {
			return err
		}
		if !actor.IsAdmin {
			return models.NewUnauthorizedError("Cannot delete another user's account")
		}
	}

	var casc *cascader
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		casc = newCascader(tx)
		target, err := casc.users.GetByIDForUpdate(ctx, targetID)
		if err != nil {
			return err
		}
		return casc.deleteUser(ctx, target)
	})
	if err != nil {
		return err
	}

	casc.flushMetrics("user")
	cache.InvalidateUser(ctx, targetID)
	// Sessions of the deleted account must stop working immediately.
	if err := cache.RevokeUserTokens(ctx, targetID); err != nil {
		middleware.Logger.WarnContext(ctx, "token revocation failed", slog.Any("user_id", targetID), slog.Any("error", err))
	}
	_ = s.notifier.PublishBroadcast(ctx, notifications.Event{
		Type:     notifications.EventUserDeleted,
		ActorID:  actorID,
		TargetID: targetID,
	})

	middleware.Logger.InfoContext(ctx, "user deleted",
		slog.Any("actor_id", actorID),
		slog.Any("target_id", targetID),
		slog.Any("rows_removed", casc.removed),
	)
	return nil
}
