package digestController

import (
	"context"
	"errors"
	"fmt"
	"newsdigest/config"
	. "newsdigest/internal/models"
	"newsdigest/internal/repositories"
	"newsdigest/internal/services"
	"newsdigest/internal/types"
	"newsdigest/internal/utils"
	"time"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
)

var ErrValidation = errors.New("validation error")

type DigestGenerator interface {
	Generate(
		ctx context.Context,
		user *User,
		digestDate time.Time,
		opts services.GenerateOptions,
	) (*Digest, error)
}

type DigestController struct {
	generator DigestGenerator
	digests   repositories.DigestRepository
	Config    config.Config
	now       func() time.Time
	log       logger.Logger
}

type DigestControllerInterface interface {
	// Generate returns the digest for the current digest date and whether it
	// was created by this call.
	Generate(ctx context.Context, user *User, force bool) (*Digest, bool, error)
	Regenerate(ctx context.Context, user *User, date string) (*Digest, error)
	List(ctx context.Context, user *User, page, perPage int) (*types.DigestListResponse, error)
	Latest(ctx context.Context, user *User) (*Digest, error)
	GetByDate(ctx context.Context, user *User, date string) (*Digest, error)
	GetByID(ctx context.Context, user *User, id uuid.UUID) (*Digest, error)
	Delete(ctx context.Context, user *User, id uuid.UUID) error
}

func New(
	repos repositories.Repository,
	services services.Service,
	config config.Config,
) DigestControllerInterface {
	return NewWithGenerator(services.Digest, repos.Digest, config)
}

func NewWithGenerator(
	generator DigestGenerator,
	digests repositories.DigestRepository,
	config config.Config,
) *DigestController {
	return &DigestController{
		generator: generator,
		digests:   digests,
		Config:    config,
		now:       time.Now,
		log:       logger.New("digestController"),
	}
}

func (c *DigestController) Generate(ctx context.Context, user *User, force bool) (*Digest, bool, error) {
	log := c.log.Function("Generate").TraceFromContext(ctx)

	digestDate := utils.DigestDateFor(c.now())
	digest, err := c.generate(ctx, user, digestDate, force)
	if err != nil {
		var duplicate *types.DuplicateGenerationError
		if errors.As(err, &duplicate) && duplicate.Digest != nil && duplicate.Digest.IsCompleted() {
			log.Info("Returning existing digest", "userID", user.ID, "digestID", duplicate.Digest.ID)
			return duplicate.Digest, false, nil
		}
		return nil, false, err
	}

	return digest, true, nil
}

func (c *DigestController) Regenerate(ctx context.Context, user *User, date string) (*Digest, error) {
	digestDate, err := c.parseDate(date)
	if err != nil {
		return nil, err
	}

	return c.generate(ctx, user, digestDate, true)
}

func (c *DigestController) generate(
	ctx context.Context,
	user *User,
	digestDate time.Time,
	force bool,
) (*Digest, error) {
	log := c.log.Function("generate").TraceFromContext(ctx)
	log.Info(
		"Manual digest generation requested",
		"userID", user.ID,
		"digestDate", digestDate.Format(time.DateOnly),
		"force", force,
	)

	return c.generator.Generate(ctx, user, digestDate, services.GenerateOptions{
		Force: force,
		Wait:  true,
	})
}

func (c *DigestController) List(
	ctx context.Context,
	user *User,
	page, perPage int,
) (*types.DigestListResponse, error) {
	pagination := types.NewPagination(page, perPage)

	digests, total, err := c.digests.ListByUser(ctx, user.ID, pagination)
	if err != nil {
		return nil, err
	}

	response := &types.DigestListResponse{
		Digests: make([]types.DigestResponse, 0, len(digests)),
		Total:   total,
		Page:    pagination.Page,
		PerPage: pagination.PerPage,
		HasNext: int64(pagination.Offset()+len(digests)) < total,
	}
	for i := range digests {
		response.Digests = append(response.Digests, types.NewDigestResponse(&digests[i]))
	}

	return response, nil
}

func (c *DigestController) Latest(ctx context.Context, user *User) (*Digest, error) {
	return c.digests.GetLatest(ctx, user.ID)
}

func (c *DigestController) GetByDate(ctx context.Context, user *User, date string) (*Digest, error) {
	digestDate, err := c.parseDate(date)
	if err != nil {
		return nil, err
	}

	return c.digests.GetByDate(ctx, user.ID, digestDate)
}

func (c *DigestController) GetByID(ctx context.Context, user *User, id uuid.UUID) (*Digest, error) {
	return c.digests.GetByID(ctx, user.ID, id)
}

func (c *DigestController) Delete(ctx context.Context, user *User, id uuid.UUID) error {
	log := c.log.Function("Delete").TraceFromContext(ctx)

	if err := c.digests.Delete(ctx, user.ID, id); err != nil {
		return err
	}

	log.Info("Digest deleted", "userID", user.ID, "digestID", id)
	return nil
}

// parseDate accepts YYYY-MM-DD dates up to the current digest date.
func (c *DigestController) parseDate(date string) (time.Time, error) {
	digestDate, err := utils.ParseDigestDate(date)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	if latest := utils.DigestDateFor(c.now()); digestDate.After(latest) {
		return time.Time{}, fmt.Errorf(
			"%w: digest date %s is after %s",
			ErrValidation,
			date,
			latest.Format(time.DateOnly),
		)
	}

	return digestDate, nil
}
