// Package assemble builds the bounded per-turn context bundle from the
// durable stores. Partial failures degrade the bundle instead of failing the
// turn; only a fully unreachable store aborts assembly.
package assemble

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	contractx "github.com/torqline/shoptalk/agent/contract"
)

// Each lookup gets its own deadline well under the turn budget, so a slow
// store degrades a single component instead of eating the whole turn.
const defaultLookupTimeout = 150 * time.Millisecond

type Option func(*Assembler)

func WithLookupTimeout(d time.Duration) Option {
	return func(a *Assembler) {
		if d > 0 {
			a.lookupTimeout = d
		}
	}
}

type Assembler struct {
	conversations contractx.ConversationStore
	profiles      contractx.ProfileStore
	lookupTimeout time.Duration
}

func New(conversations contractx.ConversationStore, profiles contractx.ProfileStore, opts ...Option) (*Assembler, error) {
	if conversations == nil {
		return nil, errors.New("conversation store is required")
	}
	if profiles == nil {
		return nil, errors.New("profile store is required")
	}

	a := &Assembler{
		conversations: conversations,
		profiles:      profiles,
		lookupTimeout: defaultLookupTimeout,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	return a, nil
}

// Assemble runs the two read-only lookups concurrently and merges them into a
// ContextBundle capped at contractx.ContextWindow messages, oldest first.
// It returns ErrContextUnavailable only when both lookups fail outright.
func (a *Assembler) Assemble(ctx context.Context, conversationID, userID string) (contractx.ContextBundle, error) {
	conversationID = strings.TrimSpace(conversationID)
	if conversationID == "" {
		return contractx.ContextBundle{}, fmt.Errorf("%w: conversation id is empty", contractx.ErrValidation)
	}

	var (
		messages []contractx.Message
		msgErr   error
		profile  *contractx.VehicleProfile
		profErr  error
	)

	// The two lookups are independent; a failure in one must not cancel the
	// other, so errors are captured rather than returned to the group.
	g := new(errgroup.Group)
	g.Go(func() error {
		lctx, cancel := context.WithTimeout(ctx, a.lookupTimeout)
		defer cancel()
		messages, msgErr = a.conversations.RecentMessages(lctx, conversationID, contractx.ContextWindow)
		return nil
	})
	g.Go(func() error {
		lctx, cancel := context.WithTimeout(ctx, a.lookupTimeout)
		defer cancel()
		profile, profErr = a.profiles.GetVehicleProfile(lctx, userID)
		return nil
	})
	_ = g.Wait()

	profileMissing := errors.Is(profErr, contractx.ErrProfileNotFound)
	if msgErr != nil && profErr != nil && !profileMissing {
		return contractx.ContextBundle{}, fmt.Errorf("%w: messages: %v; profile: %v",
			contractx.ErrContextUnavailable, msgErr, profErr)
	}

	bundle := contractx.ContextBundle{ConversationID: conversationID}

	if msgErr != nil {
		log.Warn().Err(msgErr).Str("conversation_id", conversationID).
			Msg("message history unavailable, assembling degraded bundle")
		bundle.Degraded = true
	} else {
		bundle.Messages = clampWindow(messages)
	}

	switch {
	case profErr != nil && !profileMissing:
		log.Warn().Err(profErr).Str("user_id", userID).
			Msg("vehicle profile unavailable, assembling degraded bundle")
		bundle.Profile = contractx.UnknownVehicleProfile()
		bundle.Summary = contractx.UnknownSummary
		bundle.Degraded = true
	case profile == nil:
		bundle.Profile = contractx.UnknownVehicleProfile()
		bundle.Summary = contractx.UnknownSummary
	default:
		bundle.Profile = *profile
		bundle.Summary = strings.TrimSpace(profile.DiagnosticSummary)
	}

	return bundle, nil
}

// clampWindow keeps the newest ContextWindow messages, preserving order.
func clampWindow(messages []contractx.Message) []contractx.Message {
	if len(messages) <= contractx.ContextWindow {
		return messages
	}
	return messages[len(messages)-contractx.ContextWindow:]
}
