package services

import (
	"context"
	"errors"
	"fmt"
	"newsdigest/config"
	"newsdigest/internal/types"
	"newsdigest/internal/utils"
	"regexp"
	"strings"
	"time"

	logger "github.com/Bparsons0904/goLogger"
)

const (
	SUMMARY_MAX_LENGTH       = 200
	INTEREST_NAME_MAX_LENGTH = 30
)

var (
	titleLinePattern        = regexp.MustCompile(`^#\s`)
	headingLinePattern      = regexp.MustCompile(`^\s{0,3}#{1,6}\s+\S`)
	boldLinePattern         = regexp.MustCompile(`^\s*\*\*[^*]+\*\*\s*$`)
	sectionLinePattern      = regexp.MustCompile(`(?m)^##\s+\S`)
	executiveSummaryPattern = regexp.MustCompile(`(?i)^(?:#{1,6}\s+)?\*{0,2}\s*executive\s+summary\s*:?\s*\*{0,2}\s*:?\s*`)
)

const digestSystemPrompt = `You are an expert news analyst and writer. Your task is to create a cohesive, well-written daily news digest based on the headlines and articles provided.

CRITICAL OUTPUT REQUIREMENTS:
- Output ONLY valid, clean Markdown text
- Use ONLY printable characters plus standard newlines
- NEVER output control characters, zero-width spaces or invisible formatting bytes
- Use exactly two asterisks for bold (**text**), never three or more
- Use a single hyphen followed by a space for bullet points (- item)
- Ensure all bold markers are properly balanced
- Do NOT output a title or date header; the date is displayed separately

STRUCTURE REQUIREMENTS:
1. Start with the Executive Summary line shown below (2-3 sentences)
2. Organize by topic/category using ## headers
3. End with a Key Takeaways section (3-5 bullet points)
4. Keep total length between 600-1000 words

EXACT OUTPUT FORMAT:

**Executive Summary:** [2-3 sentence overview of the day's key news]

## [Topic Category 1]

[Paragraph summarizing related stories. Use **bold** for key terms.]

- [Key point 1]
- [Key point 2]

## [Topic Category 2]

[Content following same pattern]

## Key Takeaways

- [Takeaway 1]
- [Takeaway 2]
- [Takeaway 3]

CONTENT GUIDELINES:
1. Write in a professional, objective journalistic style
2. Summarize key developments clearly and concisely
3. Highlight connections between related stories when relevant
4. Focus on facts, not speculation`

// SummaryResult is a validated digest body.
type SummaryResult struct {
	Content   string
	Summary   string
	WordCount int
}

type Summarizer interface {
	Summarize(ctx context.Context, prompt ComposedPrompt) (*SummaryResult, error)
}

type SummarizerService struct {
	provider  LLMProvider
	maxTokens int
	timeout   time.Duration
	log       logger.Logger
}

func NewSummarizerService(config config.Config, provider LLMProvider) *SummarizerService {
	return &SummarizerService{
		provider:  provider,
		maxTokens: config.LLMMaxTokens,
		timeout:   config.LLMTimeout(),
		log:       logger.New("SummarizerService"),
	}
}

// Summarize makes a single bounded call. Timeouts are not retried.
func (s *SummarizerService) Summarize(ctx context.Context, prompt ComposedPrompt) (*SummaryResult, error) {
	log := s.log.Function("Summarize").TraceFromContext(ctx)
	done := log.Timer("LLM completion")

	callCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	raw, err := s.provider.Complete(callCtx, digestSystemPrompt, buildUserPrompt(prompt), s.maxTokens)
	done()
	if err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, &types.LLMError{
				Provider: s.provider.Name(),
				Err:      fmt.Errorf("timed out after %s: %w", s.timeout, context.DeadlineExceeded),
			}
		}
		return nil, err
	}

	result, err := ParseSummary(s.provider.Name(), raw, prompt.DigestDate)
	if err != nil {
		_ = log.Err("LLM response rejected", err, "digestDate", prompt.DigestDate.Format(time.DateOnly))
		return nil, err
	}

	log.Info(
		"Generated digest body",
		"digestDate", prompt.DigestDate.Format(time.DateOnly),
		"wordCount", result.WordCount,
		"headlines", len(prompt.Headlines),
	)
	return result, nil
}

func buildUserPrompt(prompt ComposedPrompt) string {
	names := make([]string, 0, len(prompt.Categories))
	for _, interest := range prompt.Categories {
		names = append(names, utils.SanitizeHeadlineField(interest.Name, INTEREST_NAME_MAX_LENGTH))
	}

	return fmt.Sprintf(`Create a news digest for %s based on the following headlines and summaries.

The user is interested in: %s

Headlines:

%s

Create a cohesive, well-written digest following the guidelines provided.`,
		utils.FormatDisplayDate(prompt.DigestDate),
		strings.Join(names, ", "),
		prompt.Body,
	)
}

// ParseSummary validates raw model output. Title lines and headers repeating
// digestDate are removed, a header naming any other date is rejected. At least
// one ## section and an Executive Summary line are required.
func ParseSummary(provider, raw string, digestDate time.Time) (*SummaryResult, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, &types.MalformedResponseError{Provider: provider, Reason: "empty response"}
	}

	lines := strings.Split(utils.SanitizeMarkdown(raw), "\n")
	kept := lines[:0]
	for _, line := range lines {
		drop, err := isDateHeader(provider, line, digestDate)
		if err != nil {
			return nil, err
		}
		if drop || titleLinePattern.MatchString(line) {
			continue
		}
		kept = append(kept, line)
	}
	content := utils.SanitizeMarkdown(strings.Join(kept, "\n"))

	if content == "" {
		return nil, &types.MalformedResponseError{Provider: provider, Reason: "response contained only a title"}
	}

	if !sectionLinePattern.MatchString(content) {
		return nil, &types.MalformedResponseError{Provider: provider, Reason: "response has no sections"}
	}

	summary, ok := extractSummary(content)
	if !ok {
		return nil, &types.MalformedResponseError{Provider: provider, Reason: "response has no executive summary"}
	}

	return &SummaryResult{
		Content:   content,
		Summary:   summary,
		WordCount: len(strings.Fields(content)),
	}, nil
}

// isDateHeader reports whether line is a heading or bold-only line carrying
// digestDate. Such a line naming a different date is a MalformedResponseError.
func isDateHeader(provider, line string, digestDate time.Time) (bool, error) {
	if !headingLinePattern.MatchString(line) && !boldLinePattern.MatchString(line) {
		return false, nil
	}

	dates := utils.DatesIn(line)
	if len(dates) == 0 {
		return false, nil
	}

	want := digestDate.Format(utils.DigestDateLayout)
	for _, date := range dates {
		got := date.Format(utils.DigestDateLayout)
		if got != want {
			reason := fmt.Sprintf("header names %s but the digest is for %s", got, want)
			return false, &types.MalformedResponseError{Provider: provider, Reason: reason}
		}
	}
	return true, nil
}

// extractSummary reads the Executive Summary line, or the line following a
// bare Executive Summary label.
func extractSummary(content string) (string, bool) {
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if !executiveSummaryPattern.MatchString(trimmed) {
			continue
		}

		candidates := []string{executiveSummaryPattern.ReplaceAllString(trimmed, "")}
		candidates = append(candidates, lines[i+1:min(i+3, len(lines))]...)
		for _, candidate := range candidates {
			candidate = strings.TrimSpace(strings.Trim(strings.TrimSpace(candidate), "*"))
			if candidate == "" || strings.HasPrefix(candidate, "#") {
				continue
			}
			return utils.TruncateAtWord(candidate, SUMMARY_MAX_LENGTH), true
		}
		return "", false
	}
	return "", false
}
