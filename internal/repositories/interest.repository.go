package repositories

import (
	"context"
	"newsdigest/internal/database"
	. "newsdigest/internal/models"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type InterestRepository interface {
	ListAll(ctx context.Context) ([]Interest, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]Interest, error)
}

type interestRepository struct {
	db  database.DB
	log logger.Logger
}

func NewInterestRepository(db database.DB) InterestRepository {
	return &interestRepository{
		db:  db,
		log: logger.New("interestRepository"),
	}
}

func (r *interestRepository) ListAll(ctx context.Context) ([]Interest, error) {
	log := r.log.Function("ListAll")

	interests, err := gorm.G[Interest](r.db.SQLWithContext(ctx)).
		Order("display_order ASC, slug ASC").
		Find(ctx)
	if err != nil {
		return nil, log.Err("failed to list interests", err)
	}

	return interests, nil
}

func (r *interestRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]Interest, error) {
	log := r.log.Function("ListByUser")

	var interests []Interest
	err := r.db.SQLWithContext(ctx).
		Joins("JOIN user_interests ON user_interests.interest_id = interests.id").
		Where("user_interests.user_id = ?", userID).
		Order("interests.display_order ASC, interests.slug ASC").
		Find(&interests).Error
	if err != nil {
		return nil, log.Err("failed to list user interests", err, "userID", userID)
	}

	return interests, nil
}
