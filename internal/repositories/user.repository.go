package repositories

import (
	"context"
	"errors"
	"newsdigest/internal/database"
	. "newsdigest/internal/models"
	"newsdigest/internal/types"
	"time"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	USER_CACHE_EXPIRY = 15 * time.Minute
	USER_CACHE_PREFIX = "user"
)

type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	ListActiveUsersDue(ctx context.Context, window types.TimeWindow) ([]User, error)
}

type userRepository struct {
	db  database.DB
	log logger.Logger
}

func NewUserRepository(db database.DB) UserRepository {
	return &userRepository{
		db:  db,
		log: logger.New("userRepository"),
	}
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	log := r.log.Function("GetByID")

	var user User
	found, err := database.NewCacheBuilder(r.db.Cache.User, id).
		WithContext(ctx).
		WithHash(USER_CACHE_PREFIX).
		Get(&user)
	if err != nil {
		log.Debug("user cache unavailable", "userID", id, "error", err)
	}
	if found {
		return &user, nil
	}

	err = r.db.SQLWithContext(ctx).Preload("Interests").First(&user, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.ErrNotFound
		}
		return nil, log.Err("failed to get user by id", err, "userID", id)
	}
	SortInterests(user.Interests)

	err = database.NewCacheBuilder(r.db.Cache.User, id).
		WithContext(ctx).
		WithHash(USER_CACHE_PREFIX).
		WithStruct(user).
		WithTTL(USER_CACHE_EXPIRY).
		Set()
	if err != nil {
		log.Debug("failed to cache user", "userID", id, "error", err)
	}

	return &user, nil
}

// ListActiveUsersDue returns active users whose preferred time falls in window,
// with their interests loaded in display order.
func (r *userRepository) ListActiveUsersDue(
	ctx context.Context,
	window types.TimeWindow,
) ([]User, error) {
	log := r.log.Function("ListActiveUsersDue")

	query := r.db.SQLWithContext(ctx).
		Preload("Interests").
		Where("is_active = ?", true)

	switch {
	case window.All:
	case window.CrossesMidnight():
		query = query.Where(
			"(preferred_time >= ? OR preferred_time < ?)",
			window.Start.String(),
			window.End.String(),
		)
	default:
		query = query.Where(
			"preferred_time >= ? AND preferred_time < ?",
			window.Start.String(),
			window.End.String(),
		)
	}

	var users []User
	if err := query.Order("id").Find(&users).Error; err != nil {
		return nil, log.Err(
			"failed to list due users",
			err,
			"windowStart", window.Start.String(),
			"windowEnd", window.End.String(),
		)
	}

	for i := range users {
		SortInterests(users[i].Interests)
	}

	return users, nil
}
