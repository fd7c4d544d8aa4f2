// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the User model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
//
// Error semantics:
//   - Missing users surface as ErrNotFound.
//   - Unique violations on username or e-mail surface as ErrDuplicate.
//   - Other DB errors are propagated unchanged.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/go-recipes-backend/internal/domain"
)

// CreateUser inserts u and returns ErrDuplicate when the username or e-mail
// is already taken.
func CreateUser(ctx context.Context, db *gorm.DB, u *domain.User) error {
	return dup(db.WithContext(ctx).Create(u).Error)
}

// GetUser fetches a user by id, or ErrNotFound.
func GetUser(ctx context.Context, db *gorm.DB, id uint) (*domain.User, error) {
	var u domain.User
	if err := db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// UserExists reports whether a user row with id exists.
func UserExists(ctx context.Context, db *gorm.DB, id uint) (bool, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", id).Count(&n).Error
	return n > 0, err
}

// CountUsers returns the number of registered users.
func CountUsers(ctx context.Context, db *gorm.DB) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Model(&domain.User{}).Count(&total).Error
	return total, err
}

// ListUsersPage returns users ordered by id.
func ListUsersPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.User, error) {
	var out []domain.User
	err := db.WithContext(ctx).
		Order("id").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// UpdateUserAvatar sets (or clears, with "") the avatar URL.
func UpdateUserAvatar(ctx context.Context, db *gorm.DB, id uint, avatar string) error {
	return updateUserColumn(ctx, db, id, "avatar", avatar)
}

// UpdateUserPassword replaces the stored password hash.
func UpdateUserPassword(ctx context.Context, db *gorm.DB, id uint, hash string) error {
	return updateUserColumn(ctx, db, id, "password_hash", hash)
}

func updateUserColumn(ctx context.Context, db *gorm.DB, id uint, column string, value any) error {
	res := db.WithContext(ctx).
		Model(&domain.User{}).
		Where("id = ?", id).
		Update(column, value)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
