package suggest

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"taskgenie/internal/task"
)

// Generator is a named-model text-completion call. The production
// implementation is GeminiGenerator; tests substitute fakes.
type Generator interface {
	GenerateText(ctx context.Context, model, prompt string) (string, error)
}

// GenerationError reports a non-quota failure from the generative
// backend, or a total inability to extract subtasks from its response.
type GenerationError struct {
	Reason string
	Err    error
}

func (e *GenerationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("subtask generation failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("subtask generation failed: %s", e.Reason)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// Config holds the model tiers and retry behavior for the service.
type Config struct {
	// PrimaryModel is the higher-quality model tried first.
	PrimaryModel string
	// FallbackModel is the cheaper model used once after a quota hit.
	FallbackModel string
	// DefaultRetryDelay is the wait before the fallback call when the
	// quota error carries no server-suggested delay.
	DefaultRetryDelay time.Duration
}

const (
	defaultPrimaryModel  = "gemini-1.5-pro"
	defaultFallbackModel = "gemini-1.5-flash"
	defaultRetryDelay    = 5 * time.Second
)

// Service runs the suggestion pipeline. Each request is independent;
// there is no shared mutable state and no retry beyond the single
// quota-triggered fallback tier.
type Service struct {
	gen   Generator
	cfg   Config
	log   *zap.Logger
	sleep func(ctx context.Context, d time.Duration) error
}

// NewService creates a suggestion service. Zero Config fields fall back
// to the gemini-1.5-pro / gemini-1.5-flash tiers and a 5s retry delay.
func NewService(gen Generator, cfg Config, log *zap.Logger) *Service {
	if cfg.PrimaryModel == "" {
		cfg.PrimaryModel = defaultPrimaryModel
	}
	if cfg.FallbackModel == "" {
		cfg.FallbackModel = defaultFallbackModel
	}
	if cfg.DefaultRetryDelay <= 0 {
		cfg.DefaultRetryDelay = defaultRetryDelay
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{gen: gen, cfg: cfg, log: log, sleep: sleepContext}
}

// Suggest builds the prompt for the given title and optional
// description, runs the two-tier model call and parses the response.
// The caller is responsible for persisting the result onto a task.
func (s *Service) Suggest(ctx context.Context, title, description string) ([]string, error) {
	if strings.TrimSpace(title) == "" {
		return nil, &task.ValidationError{Field: "title", Reason: "must not be empty"}
	}

	prompt := BuildPrompt(title, description)
	raw, err := s.generate(ctx, prompt)
	if err != nil {
		return nil, &GenerationError{Reason: "model call failed", Err: err}
	}

	res := Parse(raw)
	if res.Kind == ParseFailed {
		return nil, &GenerationError{Reason: "no subtasks in model response"}
	}
	return res.Subtasks, nil
}

// tierState is a state of the two-tier call machine. Modeling the
// primary -> wait -> fallback sequence explicitly keeps the
// single-retry guarantee auditable.
type tierState int

const (
	stateStart tierState = iota
	stateWaiting
	stateFallback
	stateDone
	stateFailed
)

// generate runs the primary model and, only on a quota error, waits the
// server-suggested delay and tries the fallback model exactly once.
// Non-quota failures propagate immediately; the fallback outcome is
// terminal either way.
func (s *Service) generate(ctx context.Context, prompt string) (string, error) {
	var (
		state   = stateStart
		raw     string
		callErr error
	)
	for {
		switch state {
		case stateStart:
			raw, callErr = s.gen.GenerateText(ctx, s.cfg.PrimaryModel, prompt)
			switch {
			case callErr == nil:
				state = stateDone
			case isQuotaError(callErr):
				state = stateWaiting
			default:
				state = stateFailed
			}
		case stateWaiting:
			delay := retryDelay(callErr, s.cfg.DefaultRetryDelay)
			s.log.Warn("quota hit on primary model, retrying with fallback",
				zap.String("primary", s.cfg.PrimaryModel),
				zap.String("fallback", s.cfg.FallbackModel),
				zap.Duration("delay", delay))
			if err := s.sleep(ctx, delay); err != nil {
				callErr = err
				state = stateFailed
				break
			}
			state = stateFallback
		case stateFallback:
			raw, callErr = s.gen.GenerateText(ctx, s.cfg.FallbackModel, prompt)
			if callErr == nil {
				state = stateDone
			} else {
				state = stateFailed
			}
		case stateDone:
			return raw, nil
		case stateFailed:
			return "", callErr
		}
	}
}

var retryDelayPattern = regexp.MustCompile(`"retryDelay":"(\d+)s"`)

// isQuotaError reports whether err is a rate-limit condition. The
// backend surfaces these as HTTP 429, which shows up in the message.
func isQuotaError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "429")
}

// retryDelay extracts the server-suggested delay from a quota error
// payload, falling back to def when none is present.
func retryDelay(err error, def time.Duration) time.Duration {
	m := retryDelayPattern.FindStringSubmatch(err.Error())
	if len(m) == 2 {
		if secs, convErr := strconv.Atoi(m[1]); convErr == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return def
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
