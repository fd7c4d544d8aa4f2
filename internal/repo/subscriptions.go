// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file holds the follow graph between users.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/go-recipes-backend/internal/domain"
)

// CreateSubscription records that userID follows authorID. An existing edge
// yields ErrDuplicate.
func CreateSubscription(ctx context.Context, db *gorm.DB, userID, authorID uint) error {
	s := &domain.Subscription{UserID: userID, AuthorID: authorID}
	return dup(db.WithContext(ctx).Omit("User", "Author").Create(s).Error)
}

// DeleteSubscription removes the edge, or returns ErrNotFound.
func DeleteSubscription(ctx context.Context, db *gorm.DB, userID, authorID uint) error {
	res := db.WithContext(ctx).
		Where("user_id = ? AND author_id = ?", userID, authorID).
		Delete(&domain.Subscription{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CountSubscriptions returns how many authors userID follows.
func CountSubscriptions(ctx context.Context, db *gorm.DB, userID uint) (int64, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.Subscription{}).
		Where("user_id = ?", userID).
		Count(&n).Error
	return n, err
}

// ListSubscribedAuthorsPage returns the users followed by userID, ordered by
// username.
func ListSubscribedAuthorsPage(ctx context.Context, db *gorm.DB, userID uint, offset, limit int) ([]domain.User, error) {
	var out []domain.User
	err := db.WithContext(ctx).
		Model(&domain.User{}).
		Joins("JOIN subscriptions ON subscriptions.author_id = users.id").
		Where("subscriptions.user_id = ?", userID).
		Order("users.username").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// SubscribedSet returns which of authorIDs userID follows.
func SubscribedSet(ctx context.Context, db *gorm.DB, userID uint, authorIDs []uint) (map[uint]bool, error) {
	out := make(map[uint]bool, len(authorIDs))
	if userID == 0 || len(authorIDs) == 0 {
		return out, nil
	}
	var ids []uint
	err := db.WithContext(ctx).
		Model(&domain.Subscription{}).
		Where("user_id = ? AND author_id IN ?", userID, authorIDs).
		Pluck("author_id", &ids).Error
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}
