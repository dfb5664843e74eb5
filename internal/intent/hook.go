// Package intent decides, turn by turn, which subject an utterance is about.
package intent

import (
	"context"

	"go.uber.org/zap"

	"github.com/royalrew/sintari-relations-sub003/internal/errors"
	"github.com/royalrew/sintari-relations-sub003/internal/logger"
	"github.com/royalrew/sintari-relations-sub003/internal/model"
	"github.com/royalrew/sintari-relations-sub003/internal/store"
)

// Outcome tells why a subject became active.
type Outcome int

const (
	// OutcomeNone means no subject could be determined.
	OutcomeNone Outcome = iota
	// OutcomeResolved means a mention matched a known subject.
	OutcomeResolved
	// OutcomeContinued means the hint from the previous turn was kept.
	OutcomeContinued
	// OutcomeCreated means an unknown mention was provisioned as a new subject.
	OutcomeCreated
)

func (o Outcome) String() string {
	switch o {
	case OutcomeResolved:
		return "resolved"
	case OutcomeContinued:
		return "continued"
	case OutcomeCreated:
		return "created"
	default:
		return "none"
	}
}

// MarshalText encodes the outcome by name.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// Resolver is the slice of resolver.Service the hook needs.
type Resolver interface {
	Resolve(ctx context.Context, name string) (string, bool, error)
	Invalidate()
}

// Turn is one incoming utterance.
type Turn struct {
	Text          string
	HintSubjectID string
}

// Result is the hook's decision for one turn. SubjectID, Name and
// InjectTokens are empty when Outcome is OutcomeNone.
type Result struct {
	Outcome      Outcome  `json:"outcome"`
	SubjectID    string   `json:"active_subject_id,omitempty"`
	Name         string   `json:"name,omitempty"`
	InjectTokens string   `json:"inject_tokens,omitempty"`
	Candidates   []string `json:"candidates,omitempty"`
}

// Hook is the per-turn orchestrator. It writes to the store only to touch
// referenced subjects and to provision unknown ones, and invalidates the
// resolver after each such write.
type Hook struct {
	store    store.Store
	resolver Resolver
	log      *zap.SugaredLogger
}

// NewHook returns a Hook reading and writing s and resolving through r.
func NewHook(s store.Store, r Resolver) *Hook {
	return &Hook{
		store:    s,
		resolver: r,
		log:      logger.ComponentLogger("intent"),
	}
}

// Turn processes one utterance:
//
//  1. extract candidate mentions;
//  2. the first candidate that resolves becomes active;
//  3. otherwise a hint that still exists stays active;
//  4. otherwise the first candidate is created as a new subject;
//  5. otherwise nothing is active.
//
// Store and resolver failures never abort the turn; they degrade to
// OutcomeNone and are logged.
func (h *Hook) Turn(ctx context.Context, t Turn) Result {
	mentions := extract(t.Text)
	res := h.turn(ctx, t, mentions)
	for _, m := range mentions {
		res.Candidates = append(res.Candidates, m.name)
	}

	h.log.Debugw("turn decided",
		logger.FieldOutcome, res.Outcome.String(),
		logger.FieldSubjectID, res.SubjectID,
		logger.FieldCount, len(mentions),
	)
	return res
}

func (h *Hook) turn(ctx context.Context, t Turn, mentions []mention) Result {
	for _, m := range mentions {
		for _, name := range m.lookups() {
			subj, err := h.lookup(ctx, name)
			if err != nil {
				return Result{}
			}
			if subj != nil {
				h.touch(ctx, subj.ID)
				return active(OutcomeResolved, subj)
			}
		}
	}

	if t.HintSubjectID != "" {
		subj, err := h.store.Get(ctx, t.HintSubjectID)
		switch {
		case err == nil:
			h.touch(ctx, subj.ID)
			return active(OutcomeContinued, subj)
		case errors.Is(err, errors.ErrNotFound), errors.Is(err, errors.ErrInvalidInput):
			// a stale hint counts as absent
		default:
			h.log.Warnw("load hint failed", logger.FieldSubjectID, t.HintSubjectID, logger.FieldError, err)
			return Result{}
		}
	}

	if len(mentions) == 0 {
		return Result{}
	}

	name := mentions[0].name
	subj, err := h.store.Create(ctx, name)
	if err != nil {
		h.log.Warnw("provision subject failed", logger.FieldName, name, logger.FieldError, err)
		return Result{}
	}
	h.touch(ctx, subj.ID)
	h.log.Infow("subject provisioned", logger.FieldSubjectID, subj.ID, logger.FieldName, subj.PrimaryName)
	return active(OutcomeCreated, subj)
}

// lookup returns the subject name resolves to, or nil when it resolves to
// nothing that still exists.
func (h *Hook) lookup(ctx context.Context, name string) (*model.Subject, error) {
	id, ok, err := h.resolver.Resolve(ctx, name)
	if err != nil {
		h.log.Warnw("resolve failed", logger.FieldName, name, logger.FieldError, err)
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	subj, err := h.store.Get(ctx, id)
	if errors.Is(err, errors.ErrNotFound) {
		// Removed since the snapshot was built.
		h.resolver.Invalidate()
		return nil, nil
	}
	if err != nil {
		h.log.Warnw("load resolved subject failed", logger.FieldSubjectID, id, logger.FieldError, err)
		return nil, err
	}
	return subj, nil
}

// touch refreshes updated_at and invalidates the resolver, since update
// times take part in alias tie-breaks.
func (h *Hook) touch(ctx context.Context, id string) {
	if err := h.store.Touch(ctx, id); err != nil {
		h.log.Warnw("touch failed", logger.FieldSubjectID, id, logger.FieldError, err)
	}
	h.resolver.Invalidate()
}

func active(o Outcome, subj *model.Subject) Result {
	return Result{
		Outcome:      o,
		SubjectID:    subj.ID,
		Name:         subj.PrimaryName,
		InjectTokens: InjectTokens(subj.ID, subj.PrimaryName),
	}
}
