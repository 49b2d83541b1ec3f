package services

import (
	"errors"
	"newsdigest/config"
	. "newsdigest/internal/models"
	"newsdigest/internal/utils"
	"slices"
	"strings"
	"time"

	logger "github.com/Bparsons0904/goLogger"
)

const (
	PROMPT_TITLE_MAX_LENGTH       = 200
	PROMPT_DESCRIPTION_MAX_LENGTH = 300
	PROMPT_SOURCE_MAX_LENGTH      = 50
	PROMPT_BLOCK_SEPARATOR        = "\n\n"
)

var ErrPromptBudget = errors.New("no category fits the prompt budget")

// ComposedPrompt is the summarizer input. DigestDate is carried through
// unchanged from the caller.
type ComposedPrompt struct {
	DigestDate time.Time
	Body       string
	Categories []Interest
	Headlines  []Headline
}

func (p ComposedPrompt) CategorySlugs() []string {
	slugs := make([]string, 0, len(p.Categories))
	for _, interest := range p.Categories {
		slugs = append(slugs, interest.Slug)
	}
	return slugs
}

type ComposerService struct {
	maxChars int
	log      logger.Logger
}

type categoryBlock struct {
	interest  Interest
	text      string
	headlines []Headline
}

func NewComposerService(config config.Config) *ComposerService {
	return &ComposerService{
		maxChars: config.LLMMaxPromptChars,
		log:      logger.New("ComposerService"),
	}
}

// Compose renders successful categories in display order. When the body
// would exceed the budget, whole blocks are dropped from the end.
func (s *ComposerService) Compose(digestDate time.Time, categories []CategoryResult) (ComposedPrompt, error) {
	log := s.log.Function("Compose")

	ordered := make([]CategoryResult, 0, len(categories))
	for _, category := range categories {
		if category.Succeeded() {
			ordered = append(ordered, category)
		}
	}
	slices.SortStableFunc(ordered, func(a, b CategoryResult) int {
		if a.Interest.DisplayOrder != b.Interest.DisplayOrder {
			return a.Interest.DisplayOrder - b.Interest.DisplayOrder
		}
		return strings.Compare(a.Interest.Slug, b.Interest.Slug)
	})

	blocks := make([]categoryBlock, 0, len(ordered))
	for _, category := range ordered {
		blocks = append(blocks, renderBlock(category))
	}

	size := 0
	kept := 0
	for i, block := range blocks {
		next := size + len(block.text)
		if i > 0 {
			next += len(PROMPT_BLOCK_SEPARATOR)
		}
		if s.maxChars > 0 && next > s.maxChars {
			break
		}
		size = next
		kept++
	}

	if dropped := len(blocks) - kept; dropped > 0 {
		names := make([]string, 0, dropped)
		for _, block := range blocks[kept:] {
			names = append(names, block.interest.Slug)
		}
		log.Warn("Dropped categories over prompt budget", "dropped", names, "budget", s.maxChars)
	}

	if kept == 0 {
		return ComposedPrompt{}, ErrPromptBudget
	}

	prompt := ComposedPrompt{DigestDate: digestDate}
	texts := make([]string, 0, kept)
	for _, block := range blocks[:kept] {
		texts = append(texts, block.text)
		prompt.Categories = append(prompt.Categories, block.interest)
		prompt.Headlines = append(prompt.Headlines, block.headlines...)
	}
	prompt.Body = strings.Join(texts, PROMPT_BLOCK_SEPARATOR)

	return prompt, nil
}

func renderBlock(category CategoryResult) categoryBlock {
	name := utils.SanitizeHeadlineField(category.Interest.Name, PROMPT_SOURCE_MAX_LENGTH)
	if name == "" {
		name = category.Interest.Slug
	}

	var b strings.Builder
	b.WriteString("### ")
	b.WriteString(name)

	headlines := make([]Headline, 0, len(category.Headlines))
	for _, headline := range category.Headlines {
		headline.Title = utils.SanitizeHeadlineField(headline.Title, PROMPT_TITLE_MAX_LENGTH)
		if headline.Title == "" {
			continue
		}
		headline.Source = utils.SanitizeHeadlineField(headline.Source, PROMPT_SOURCE_MAX_LENGTH)
		headline.Description = utils.SanitizeHeadlineField(headline.Description, PROMPT_DESCRIPTION_MAX_LENGTH)

		b.WriteString("\n- **")
		b.WriteString(headline.Title)
		b.WriteString("** (")
		b.WriteString(headline.Source)
		b.WriteString(")")
		if headline.Description != "" {
			b.WriteString("\n  ")
			b.WriteString(headline.Description)
		}
		headlines = append(headlines, headline)
	}

	return categoryBlock{
		interest:  category.Interest,
		text:      b.String(),
		headlines: headlines,
	}
}
