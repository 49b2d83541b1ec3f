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
	"gorm.io/gorm/clause"
)

type ClaimOptions struct {
	// Force reclaims a completed digest for regeneration.
	Force bool
	// StaleAfter is how long a pending row may go without updates before it is
	// considered abandoned. Zero never reclaims pending rows.
	StaleAfter time.Duration
}

// DigestRepository persists digests and acts as the idempotency guard for
// (user_id, digest_date). Only the caller holding a claim may complete or fail it.
type DigestRepository interface {
	Claim(
		ctx context.Context,
		userID uuid.UUID,
		digestDate time.Time,
		opts ClaimOptions,
	) (*Digest, bool, error)
	Complete(ctx context.Context, digest *Digest) error
	Fail(ctx context.Context, id uuid.UUID, message string, generationTimeMs *int64) error
	GetByID(ctx context.Context, userID, id uuid.UUID) (*Digest, error)
	GetByDate(ctx context.Context, userID uuid.UUID, digestDate time.Time) (*Digest, error)
	GetLatest(ctx context.Context, userID uuid.UUID) (*Digest, error)
	ListByUser(
		ctx context.Context,
		userID uuid.UUID,
		pagination types.Pagination,
	) ([]Digest, int64, error)
	CompletedUserIDs(
		ctx context.Context,
		digestDate time.Time,
		userIDs []uuid.UUID,
	) (map[uuid.UUID]bool, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

type digestRepository struct {
	db  database.DB
	log logger.Logger
	now func() time.Time
}

func NewDigestRepository(db database.DB) DigestRepository {
	return &digestRepository{
		db:  db,
		log: logger.New("digestRepository"),
		now: time.Now,
	}
}

func (r *digestRepository) Claim(
	ctx context.Context,
	userID uuid.UUID,
	digestDate time.Time,
	opts ClaimOptions,
) (*Digest, bool, error) {
	log := r.log.Function("Claim")

	var digest Digest
	claimed := false

	err := r.db.Transaction(ctx, func(ctx context.Context, tx *gorm.DB) error {
		candidate := Digest{
			UserID:     userID,
			DigestDate: digestDate,
			Status:     DigestStatusPending,
		}

		result := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "digest_date"}},
			DoNothing: true,
		}).Create(&candidate)
		if result.Error != nil {
			return result.Error
		}

		if result.RowsAffected == 1 {
			digest = candidate
			claimed = true
			return nil
		}

		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND digest_date = ?", userID, digestDate).
			First(&digest).Error
		if err != nil {
			return err
		}

		if !r.reclaimable(&digest, opts) {
			return nil
		}

		now := r.now()
		err = tx.Model(&digest).Updates(map[string]any{
			"status":        DigestStatusPending,
			"error_message": nil,
			"updated_at":    now,
		}).Error
		if err != nil {
			return err
		}

		log.Info(
			"Reclaimed digest for generation",
			"digestID", digest.ID,
			"previousStatus", digest.Status,
		)
		digest.Status = DigestStatusPending
		digest.ErrorMessage = nil
		digest.UpdatedAt = now
		claimed = true
		return nil
	})
	if err != nil {
		return nil, false, &types.PersistenceError{
			Op: "claim",
			Err: log.Err(
				"failed to claim digest",
				err,
				"userID", userID,
				"digestDate", digestDate.Format(time.DateOnly),
			),
		}
	}

	return &digest, claimed, nil
}

func (r *digestRepository) reclaimable(digest *Digest, opts ClaimOptions) bool {
	switch digest.Status {
	case DigestStatusFailed:
		return true
	case DigestStatusCompleted:
		return opts.Force
	case DigestStatusPending:
		return opts.StaleAfter > 0 && r.now().Sub(digest.UpdatedAt) >= opts.StaleAfter
	default:
		return false
	}
}

func (r *digestRepository) Complete(ctx context.Context, digest *Digest) error {
	log := r.log.Function("Complete")

	result := r.db.SQLWithContext(ctx).
		Model(&Digest{}).
		Where("id = ? AND status = ?", digest.ID, DigestStatusPending).
		Updates(map[string]any{
			"status":             DigestStatusCompleted,
			"content":            digest.Content,
			"summary":            digest.Summary,
			"headlines_used":     digest.HeadlinesUsed,
			"interests_included": digest.InterestsIncluded,
			"word_count":         digest.WordCount,
			"error_message":      nil,
			"generation_time_ms": digest.GenerationTimeMs,
		})
	if result.Error != nil {
		return &types.PersistenceError{
			Op:  "complete",
			Err: log.Err("failed to complete digest", result.Error, "digestID", digest.ID),
		}
	}

	if result.RowsAffected == 0 {
		return &types.PersistenceError{
			Op:  "complete",
			Err: log.Err("digest claim lost before completion", types.ErrClaimLost, "digestID", digest.ID),
		}
	}

	digest.Status = DigestStatusCompleted
	digest.ErrorMessage = nil
	return nil
}

func (r *digestRepository) Fail(
	ctx context.Context,
	id uuid.UUID,
	message string,
	generationTimeMs *int64,
) error {
	log := r.log.Function("Fail")

	result := r.db.SQLWithContext(ctx).
		Model(&Digest{}).
		Where("id = ? AND status = ?", id, DigestStatusPending).
		Updates(map[string]any{
			"status":             DigestStatusFailed,
			"error_message":      message,
			"content":            "",
			"summary":            "",
			"word_count":         0,
			"generation_time_ms": generationTimeMs,
		})
	if result.Error != nil {
		return &types.PersistenceError{
			Op:  "fail",
			Err: log.Err("failed to mark digest failed", result.Error, "digestID", id),
		}
	}

	if result.RowsAffected == 0 {
		return &types.PersistenceError{
			Op:  "fail",
			Err: log.Err("digest claim lost before failure was recorded", types.ErrClaimLost, "digestID", id),
		}
	}

	return nil
}

func (r *digestRepository) GetByID(ctx context.Context, userID, id uuid.UUID) (*Digest, error) {
	log := r.log.Function("GetByID")

	digest, err := gorm.G[Digest](r.db.SQLWithContext(ctx)).
		Where("id = ? AND user_id = ?", id, userID).
		First(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.ErrNotFound
		}
		return nil, log.Err("failed to get digest", err, "digestID", id)
	}

	return &digest, nil
}

func (r *digestRepository) GetByDate(
	ctx context.Context,
	userID uuid.UUID,
	digestDate time.Time,
) (*Digest, error) {
	log := r.log.Function("GetByDate")

	digest, err := gorm.G[Digest](r.db.SQLWithContext(ctx)).
		Where("user_id = ? AND digest_date = ?", userID, digestDate).
		First(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.ErrNotFound
		}
		return nil, log.Err(
			"failed to get digest by date",
			err,
			"userID", userID,
			"digestDate", digestDate.Format(time.DateOnly),
		)
	}

	return &digest, nil
}

func (r *digestRepository) GetLatest(ctx context.Context, userID uuid.UUID) (*Digest, error) {
	log := r.log.Function("GetLatest")

	digest, err := gorm.G[Digest](r.db.SQLWithContext(ctx)).
		Where("user_id = ? AND status = ?", userID, DigestStatusCompleted).
		Order("digest_date DESC").
		First(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.ErrNotFound
		}
		return nil, log.Err("failed to get latest digest", err, "userID", userID)
	}

	return &digest, nil
}

func (r *digestRepository) ListByUser(
	ctx context.Context,
	userID uuid.UUID,
	pagination types.Pagination,
) ([]Digest, int64, error) {
	log := r.log.Function("ListByUser")

	tx := r.db.SQLWithContext(ctx)

	var total int64
	if err := tx.Model(&Digest{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, log.Err("failed to count digests", err, "userID", userID)
	}

	var digests []Digest
	err := tx.Where("user_id = ?", userID).
		Order("digest_date DESC").
		Limit(pagination.PerPage).
		Offset(pagination.Offset()).
		Find(&digests).Error
	if err != nil {
		return nil, 0, log.Err("failed to list digests", err, "userID", userID)
	}

	return digests, total, nil
}

func (r *digestRepository) CompletedUserIDs(
	ctx context.Context,
	digestDate time.Time,
	userIDs []uuid.UUID,
) (map[uuid.UUID]bool, error) {
	log := r.log.Function("CompletedUserIDs")

	completed := make(map[uuid.UUID]bool)
	if len(userIDs) == 0 {
		return completed, nil
	}

	var ids []uuid.UUID
	err := r.db.SQLWithContext(ctx).
		Model(&Digest{}).
		Where("digest_date = ? AND status = ? AND user_id IN ?", digestDate, DigestStatusCompleted, userIDs).
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, log.Err(
			"failed to load completed digests",
			err,
			"digestDate", digestDate.Format(time.DateOnly),
		)
	}

	for _, id := range ids {
		completed[id] = true
	}

	return completed, nil
}

func (r *digestRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	log := r.log.Function("Delete")

	result := r.db.SQLWithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&Digest{})
	if result.Error != nil {
		return log.Err("failed to delete digest", result.Error, "digestID", id)
	}

	if result.RowsAffected == 0 {
		return types.ErrNotFound
	}

	return nil
}
