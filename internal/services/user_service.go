// Package services – UserService
//
// This file implements account registration, profile reads, avatar upload
// and password change. Tokens are issued elsewhere; this service only stores
// bcrypt hashes so that password change can verify the current password.
package services

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/tbourn/go-recipes-backend/internal/domain"
	"github.com/tbourn/go-recipes-backend/internal/repo"
	"github.com/tbourn/go-recipes-backend/internal/storage"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const avatarDir = "users"

// maxPasswordBytes is the longest input bcrypt accepts.
const maxPasswordBytes = 72

// RegisterInput is the payload of account registration.
type RegisterInput struct {
	Email     string `json:"email"      validate:"required,email,max=254"          example:"cook@example.com"`
	Username  string `json:"username"   validate:"required,max=150,username"       example:"cook"`
	FirstName string `json:"first_name" validate:"required,max=150"                example:"Ann"`
	LastName  string `json:"last_name"  validate:"required,max=150"                example:"Lee"`
	Password  string `json:"password"   validate:"required,min=8,max=128"          example:"s3cret-pass"`
}

// PasswordInput is the payload of a password change.
type PasswordInput struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password"     validate:"required,min=8,max=128"`
}

// UserService manages accounts.
type UserService struct {
	DB      *gorm.DB
	Storage storage.Storage

	// HashCost is the bcrypt cost; bcrypt.DefaultCost when zero.
	HashCost    int
	PageSize    int
	MaxPageSize int
}

// NewUserService constructs a UserService with default paging.
func NewUserService(db *gorm.DB, st storage.Storage) *UserService {
	return &UserService{
		DB:          db,
		Storage:     st,
		HashCost:    bcrypt.DefaultCost,
		PageSize:    DefaultPageSize,
		MaxPageSize: MaxPageSize,
	}
}

// Register creates an account. A taken e-mail or username yields
// ErrUserExists.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*UserView, error) {
	tr := otel.Tracer("services/UserService")
	ctx, span := tr.Start(ctx, "Register")
	defer span.End()

	in.Email = strings.TrimSpace(in.Email)
	in.Username = strings.TrimSpace(in.Username)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	if err := check(in); err != nil {
		return nil, err
	}

	hash, err := s.hash("password", in.Password)
	if err != nil {
		return nil, err
	}
	u := &domain.User{
		Email:        in.Email,
		Username:     in.Username,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		PasswordHash: hash,
	}
	if err := repo.CreateUser(ctx, s.DB, u); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, ErrUserExists
		}
		return nil, err
	}
	span.SetAttributes(attribute.Int64("user.id", int64(u.ID)))
	v := Actor{UserID: u.ID}.userView(*u, false)
	return &v, nil
}

// Get returns a user as seen by a.
func (s *UserService) Get(ctx context.Context, a Actor, id uint) (*UserView, error) {
	tr := otel.Tracer("services/UserService")
	ctx, span := tr.Start(ctx, "Get",
		trace.WithAttributes(attribute.Int64("user.id", int64(id))),
	)
	defer span.End()

	u, err := s.user(ctx, id)
	if err != nil {
		return nil, err
	}
	subs, err := repo.SubscribedSet(ctx, s.DB, a.UserID, []uint{u.ID})
	if err != nil {
		return nil, err
	}
	v := a.userView(*u, subs[u.ID])
	return &v, nil
}

// Me returns the actor's own profile.
func (s *UserService) Me(ctx context.Context, a Actor) (*UserView, error) {
	if !a.Authenticated() {
		return nil, ErrUnauthenticated
	}
	return s.Get(ctx, a, a.UserID)
}

// List returns one page of users ordered by id and the total count.
func (s *UserService) List(ctx context.Context, a Actor, page, limit int) ([]UserView, int64, error) {
	tr := otel.Tracer("services/UserService")
	ctx, span := tr.Start(ctx, "List",
		trace.WithAttributes(
			attribute.Int("page", page),
			attribute.Int("limit", limit),
		),
	)
	defer span.End()

	offset, size := pageWindow(page, limit, s.PageSize, s.MaxPageSize)
	total, err := repo.CountUsers(ctx, s.DB)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 || int64(offset) >= total {
		return []UserView{}, total, nil
	}
	users, err := repo.ListUsersPage(ctx, s.DB, offset, size)
	if err != nil {
		return nil, 0, err
	}
	ids := make([]uint, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	subs, err := repo.SubscribedSet(ctx, s.DB, a.UserID, ids)
	if err != nil {
		return nil, 0, err
	}
	out := make([]UserView, 0, len(users))
	for _, u := range users {
		out = append(out, a.userView(u, subs[u.ID]))
	}
	return out, total, nil
}

// SetAvatar stores a new avatar image for the actor and returns its URL.
// The previous image, if any, is removed after the row is updated.
func (s *UserService) SetAvatar(ctx context.Context, a Actor, raw string) (string, error) {
	tr := otel.Tracer("services/UserService")
	ctx, span := tr.Start(ctx, "SetAvatar",
		trace.WithAttributes(attribute.Int64("user.id", int64(a.UserID))),
	)
	defer span.End()

	if !a.Authenticated() {
		return "", ErrUnauthenticated
	}
	if strings.TrimSpace(raw) == "" {
		return "", invalid("avatar", "This field is required.")
	}
	u, err := s.user(ctx, a.UserID)
	if err != nil {
		return "", err
	}
	img, err := storage.DecodeImage(raw)
	if err != nil {
		return "", invalid("avatar", "Upload a valid image.")
	}
	url, err := s.Storage.Save(ctx, storage.NewKey(avatarDir, img.Ext), img.Data, img.ContentType)
	if err != nil {
		return "", err
	}
	if err := repo.UpdateUserAvatar(ctx, s.DB, a.UserID, url); err != nil {
		_ = s.Storage.Delete(ctx, url)
		return "", err
	}
	if u.Avatar != "" {
		_ = s.Storage.Delete(ctx, u.Avatar)
	}
	return a.absURL(url), nil
}

// DeleteAvatar clears the actor's avatar.
func (s *UserService) DeleteAvatar(ctx context.Context, a Actor) error {
	tr := otel.Tracer("services/UserService")
	ctx, span := tr.Start(ctx, "DeleteAvatar",
		trace.WithAttributes(attribute.Int64("user.id", int64(a.UserID))),
	)
	defer span.End()

	if !a.Authenticated() {
		return ErrUnauthenticated
	}
	u, err := s.user(ctx, a.UserID)
	if err != nil {
		return err
	}
	if err := repo.UpdateUserAvatar(ctx, s.DB, a.UserID, ""); err != nil {
		return err
	}
	if u.Avatar != "" {
		_ = s.Storage.Delete(ctx, u.Avatar)
	}
	return nil
}

// SetPassword replaces the actor's password after checking the current one.
func (s *UserService) SetPassword(ctx context.Context, a Actor, in PasswordInput) error {
	tr := otel.Tracer("services/UserService")
	ctx, span := tr.Start(ctx, "SetPassword",
		trace.WithAttributes(attribute.Int64("user.id", int64(a.UserID))),
	)
	defer span.End()

	if !a.Authenticated() {
		return ErrUnauthenticated
	}
	if err := check(in); err != nil {
		return err
	}
	u, err := s.user(ctx, a.UserID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(in.CurrentPassword)) != nil {
		return ErrWrongPassword
	}
	hash, err := s.hash("new_password", in.NewPassword)
	if err != nil {
		return err
	}
	return repo.UpdateUserPassword(ctx, s.DB, a.UserID, hash)
}

func (s *UserService) user(ctx context.Context, id uint) (*domain.User, error) {
	u, err := repo.GetUser(ctx, s.DB, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return u, err
}

// hash bcrypts password. Input bcrypt would reject is reported as a
// validation error on field.
func (s *UserService) hash(field, password string) (string, error) {
	if len(password) > maxPasswordBytes {
		return "", invalid(field, "Ensure this field has no more than %d bytes.", maxPasswordBytes)
	}
	cost := s.HashCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", invalid(field, "Ensure this field has no more than %d bytes.", maxPasswordBytes)
	}
	if err != nil {
		return "", err
	}
	return string(b), nil
}
