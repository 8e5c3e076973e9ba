package assistant

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/dvloznov/finance-assistant/internal/conversation"
	"github.com/dvloznov/finance-assistant/internal/insights"
)

const (
	// MaxMessageLength caps user-authored turns, in characters.
	MaxMessageLength = 1000

	// FallbackReply substitutes for a failed or empty model response.
	FallbackReply = "I couldn't generate a response."

	defaultGenerateTimeout = 30 * time.Second
)

// Orchestrator coordinates one assistant request end to end: validation,
// snapshot building, prompt rendering, the model call and turn persistence.
// It is stateless between requests.
type Orchestrator struct {
	resolver      IdentityResolver
	aggregator    *Aggregator
	conversations conversation.Store
	generator     TextGenerator
	archiver      TranscriptArchiver // optional
	genTimeout    time.Duration
	log           zerolog.Logger
}

// NewOrchestrator wires the orchestrator's collaborators together.
func NewOrchestrator(
	resolver IdentityResolver,
	aggregator *Aggregator,
	conversations conversation.Store,
	generator TextGenerator,
	log zerolog.Logger,
) *Orchestrator {
	return &Orchestrator{
		resolver:      resolver,
		aggregator:    aggregator,
		conversations: conversations,
		generator:     generator,
		genTimeout:    defaultGenerateTimeout,
		log:           log,
	}
}

// SetArchiver enables transcript archiving before history deletion.
func (o *Orchestrator) SetArchiver(a TranscriptArchiver) {
	o.archiver = a
}

// SetGenerateTimeout overrides the timeout wrapping the model call.
func (o *Orchestrator) SetGenerateTimeout(d time.Duration) {
	o.genTimeout = d
}

// SendMessage runs the per-request state machine, terminal on the first
// failure. Validation happens before any I/O; a rejected message persists
// nothing and never reaches the generation service.
func (o *Orchestrator) SendMessage(ctx context.Context, externalID, message string) (reply string, err error) {
	defer func() {
		// The caller never sees a raw panic from a collaborator.
		if r := recover(); r != nil {
			o.log.Error().Interface("panic", r).Msg("Send message panicked")
			reply, err = "", ErrSendFailed
		}
	}()

	if externalID == "" {
		return "", ErrUnauthorized
	}
	if strings.TrimSpace(message) == "" {
		return "", ErrEmptyMessage
	}
	if utf8.RuneCountInString(message) > MaxMessageLength {
		return "", ErrMessageTooLong
	}

	userID, err := o.resolver.ResolveUser(ctx, externalID)
	if err != nil {
		o.log.Warn().Err(err).Msg("Caller did not resolve to an internal user")
		return "", ErrContextUnavailable
	}

	snap, err := o.aggregator.Build(ctx, userID)
	if err != nil {
		return "", ErrContextUnavailable
	}

	// The user's turn is persisted before generation runs.
	if err := o.conversations.Append(ctx, userID, conversation.RoleUser, message); err != nil {
		o.log.Error().Err(err).Str("user_id", userID).Msg("Failed to persist user turn")
	}

	prompt := RenderPrompt(snap)

	// The model call is the only unbounded-duration step, so the timeout
	// wraps it alone.
	genCtx, cancel := context.WithTimeout(ctx, o.genTimeout)
	defer cancel()

	reply, genErr := o.generator.Generate(genCtx, prompt, message)
	if genErr != nil || strings.TrimSpace(reply) == "" {
		if genErr != nil {
			o.log.Warn().Err(genErr).Str("user_id", userID).Msg("Generation failed, using fallback reply")
		}
		reply = FallbackReply
	}

	if err := o.conversations.Append(ctx, userID, conversation.RoleAssistant, reply); err != nil {
		// Non-fatal: the response is already computed.
		o.log.Error().Err(err).Str("user_id", userID).Msg("Failed to persist assistant turn")
	}

	return reply, nil
}

// History returns the caller's most recent turns, ascending by creation
// time. Any resolution or read failure yields an empty list, never an error.
func (o *Orchestrator) History(ctx context.Context, externalID string) []conversation.Turn {
	if externalID == "" {
		return nil
	}

	userID, err := o.resolver.ResolveUser(ctx, externalID)
	if err != nil {
		return nil
	}

	turns, err := o.conversations.History(ctx, userID)
	if err != nil {
		o.log.Error().Err(err).Str("user_id", userID).Msg("Failed to load chat history")
		return nil
	}
	return turns
}

// ClearHistory deletes every turn of the caller. When an archiver is
// configured the transcript is copied out first; an archive failure is
// logged and does not block the delete.
func (o *Orchestrator) ClearHistory(ctx context.Context, externalID string) error {
	if externalID == "" {
		return ErrUnauthorized
	}

	userID, err := o.resolver.ResolveUser(ctx, externalID)
	if err != nil {
		return ErrUserNotFound
	}

	if o.archiver != nil {
		turns, err := o.conversations.History(ctx, userID)
		if err != nil {
			o.log.Warn().Err(err).Str("user_id", userID).Msg("Could not read history for archiving")
		} else if len(turns) > 0 {
			if err := o.archiver.Archive(ctx, userID, turns); err != nil {
				o.log.Warn().Err(err).Str("user_id", userID).Msg("Transcript archive failed")
			}
		}
	}

	if err := o.conversations.Clear(ctx, userID); err != nil {
		o.log.Error().Err(err).Str("user_id", userID).Msg("Failed to clear chat history")
		return ErrSendFailed
	}
	return nil
}

// Insights builds a fresh snapshot and evaluates the rule engine over it.
func (o *Orchestrator) Insights(ctx context.Context, externalID string) ([]string, error) {
	if externalID == "" {
		return nil, ErrUnauthorized
	}

	userID, err := o.resolver.ResolveUser(ctx, externalID)
	if err != nil {
		return nil, ErrContextUnavailable
	}

	snap, err := o.aggregator.Build(ctx, userID)
	if err != nil {
		return nil, ErrContextUnavailable
	}

	return insights.Evaluate(snap), nil
}
