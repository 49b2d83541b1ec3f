package handlers

import (
	"errors"
	digestController "newsdigest/internal/controllers/digests"
	"newsdigest/internal/types"

	"github.com/gofiber/fiber/v2"
)

const (
	CODE_NOT_FOUND            = "NOT_FOUND"
	CODE_INVALID_REQUEST      = "INVALID_REQUEST"
	CODE_UNAUTHORIZED         = "UNAUTHORIZED"
	CODE_NEWS_FETCH_ERROR     = "NEWS_FETCH_ERROR"
	CODE_QUOTA_EXCEEDED       = "QUOTA_EXCEEDED"
	CODE_LLM_ERROR            = "LLM_ERROR"
	CODE_MALFORMED_RESPONSE   = "MALFORMED_RESPONSE"
	CODE_PERSISTENCE_ERROR    = "PERSISTENCE_ERROR"
	CODE_DUPLICATE_GENERATION = "DUPLICATE_GENERATION"
	CODE_INTERNAL_ERROR       = "INTERNAL_ERROR"
)

// errorStatus maps a domain error to its HTTP status and error code.
func errorStatus(err error) (int, string) {
	var (
		duplicate   *types.DuplicateGenerationError
		quota       *types.QuotaExceededError
		fetchErr    *types.FetchError
		transient   *types.TransientFetchError
		malformed   *types.MalformedResponseError
		llmErr      *types.LLMError
		persistence *types.PersistenceError
	)

	switch {
	case errors.Is(err, digestController.ErrValidation),
		errors.Is(err, types.ErrNoInterests),
		errors.Is(err, types.ErrInactiveUser):
		return fiber.StatusBadRequest, CODE_INVALID_REQUEST
	case errors.Is(err, types.ErrNotFound):
		return fiber.StatusNotFound, CODE_NOT_FOUND
	case errors.As(err, &duplicate):
		return fiber.StatusConflict, CODE_DUPLICATE_GENERATION
	case errors.As(err, &quota):
		return fiber.StatusTooManyRequests, CODE_QUOTA_EXCEEDED
	case errors.As(err, &fetchErr), errors.As(err, &transient):
		return fiber.StatusBadGateway, CODE_NEWS_FETCH_ERROR
	case errors.As(err, &malformed):
		return fiber.StatusBadGateway, CODE_MALFORMED_RESPONSE
	case errors.As(err, &llmErr):
		return fiber.StatusBadGateway, CODE_LLM_ERROR
	case errors.As(err, &persistence):
		return fiber.StatusInternalServerError, CODE_PERSISTENCE_ERROR
	default:
		return fiber.StatusInternalServerError, CODE_INTERNAL_ERROR
	}
}

func writeError(c *fiber.Ctx, err error) error {
	status, code := errorStatus(err)

	message := err.Error()
	if status == fiber.StatusInternalServerError {
		message = "Internal server error"
	}

	body := fiber.Map{
		"error": message,
		"code":  code,
	}

	// The losing caller of a generation race gets the row that won.
	var duplicate *types.DuplicateGenerationError
	if errors.As(err, &duplicate) && duplicate.Digest != nil {
		body["digest"] = types.NewDigestResponse(duplicate.Digest)
	}

	return c.Status(status).JSON(body)
}
