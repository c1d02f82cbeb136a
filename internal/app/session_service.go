package app

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"llm-session-relay/internal/ai"
	"llm-session-relay/internal/model"
	"llm-session-relay/internal/pkg/logger"
)

const (
	defaultHistoryWindow = 20
	defaultModelTimeout  = 30 * time.Second
	publishTimeout       = 5 * time.Second
)

var terminationKeywords = map[string]struct{}{
	"end":  {},
	"exit": {},
}

// SessionStore persists sessions and their messages. Each call is durable on
// return; no transaction spans calls.
type SessionStore interface {
	CreateSession(ctx context.Context, sessionID string) error
	IsActive(ctx context.Context, sessionID string) (bool, error)
	Deactivate(ctx context.Context, sessionID string) error
	AppendMessage(ctx context.Context, sessionID string, role model.Role, content string) error
	RecentMessages(ctx context.Context, sessionID string, limit int) ([]model.Turn, error)
}

type ModelClient interface {
	Complete(ctx context.Context, transcript []model.Turn) (string, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, event model.ExchangeEvent) error
}

type SessionServiceOptions struct {
	HistoryWindow int
	ModelTimeout  time.Duration
	// Publisher is optional.
	Publisher EventPublisher
}

type SessionService struct {
	store         SessionStore
	model         ModelClient
	publisher     EventPublisher
	historyWindow int
	modelTimeout  time.Duration
	locks         *sessionLocks
	now           func() time.Time
	newID         func() string
}

func NewSessionService(store SessionStore, modelClient ModelClient, opts SessionServiceOptions) *SessionService {
	if opts.HistoryWindow <= 0 {
		opts.HistoryWindow = defaultHistoryWindow
	}
	if opts.ModelTimeout <= 0 {
		opts.ModelTimeout = defaultModelTimeout
	}
	return &SessionService{
		store:         store,
		model:         modelClient,
		publisher:     opts.Publisher,
		historyWindow: opts.HistoryWindow,
		modelTimeout:  opts.ModelTimeout,
		locks:         newSessionLocks(),
		now:           func() time.Time { return time.Now().UTC() },
		newID:         uuid.NewString,
	}
}

func (s *SessionService) CreateSession(ctx context.Context) (string, error) {
	sessionID := s.newID()
	log := logger.FromContext(ctx).With(zap.String("session_id", sessionID))

	if err := s.store.CreateSession(ctx, sessionID); err != nil {
		log.Error("create session failed", zap.Error(err))
		return "", err
	}

	log.Info("session created")
	s.publish(ctx, model.ExchangeEvent{SessionID: sessionID, Kind: model.EventSessionCreated})
	return sessionID, nil
}

// SubmitMessage runs one exchange. Calls for the same session are serialized;
// a caller whose ctx ends while queued gets ctx.Err() and nothing is stored.
func (s *SessionService) SubmitMessage(ctx context.Context, sessionID, rawText string) (*SubmitResult, error) {
	log := logger.FromContext(ctx).With(zap.String("session_id", sessionID))

	release, err := s.locks.Lock(ctx, sessionID)
	if err != nil {
		log.Warn("caller gave up waiting for session", zap.Error(err))
		return nil, err
	}
	defer release()

	active, err := s.store.IsActive(ctx, sessionID)
	if err != nil {
		log.Error("check session failed", zap.Error(err))
		return nil, err
	}
	if !active {
		return nil, ErrSessionUnavailable
	}

	text := strings.TrimSpace(rawText)

	if isTermination(text) {
		if err := s.store.Deactivate(ctx, sessionID); err != nil {
			log.Error("end session failed", zap.Error(err))
			return nil, err
		}
		log.Info("session ended")
		s.publish(ctx, model.ExchangeEvent{SessionID: sessionID, Kind: model.EventSessionEnded})
		return &SubmitResult{Ended: true, Assistant: endedReply()}, nil
	}

	if err := s.store.AppendMessage(ctx, sessionID, model.RoleUser, text); err != nil {
		log.Error("append user message failed", zap.Error(err))
		return nil, err
	}

	transcript, err := s.store.RecentMessages(ctx, sessionID, s.historyWindow)
	if err != nil {
		log.Error("load transcript window failed", zap.Error(err))
		return nil, err
	}

	raw, err := s.complete(ctx, transcript)
	if err != nil {
		category := ai.CategoryOf(err)
		log.Error("model call failed", zap.String("category", string(category)), zap.Error(err))
		return nil, &UpstreamError{Category: category, Err: err}
	}

	reply, ok := ParseReply(raw)
	if !ok {
		log.Warn("model reply parse fallback", zap.Int("raw_len", len(raw)))
	}

	if err := s.store.AppendMessage(context.WithoutCancel(ctx), sessionID, model.RoleAssistant, raw); err != nil {
		log.Error("append assistant message failed", zap.Error(err))
		return nil, err
	}

	log.Info("message exchanged", zap.Int("window", len(transcript)), zap.Bool("fallback", !ok))
	s.publish(ctx, model.ExchangeEvent{
		SessionID:   sessionID,
		Kind:        model.EventMessageExchanged,
		UserContent: text,
		RawReply:    raw,
		Fallback:    !ok,
	})

	return &SubmitResult{Ended: false, Assistant: reply}, nil
}

// complete detaches the model call from ctx cancellation so a disconnected
// caller still gets its exchange persisted; the timeout still applies.
func (s *SessionService) complete(ctx context.Context, transcript []model.Turn) (string, error) {
	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.modelTimeout)
	defer cancel()
	return s.model.Complete(callCtx, transcript)
}

func (s *SessionService) publish(ctx context.Context, event model.ExchangeEvent) {
	if s.publisher == nil {
		return
	}
	event.ID = s.newID()
	event.CreatedAt = s.now()

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := s.publisher.Publish(pubCtx, event); err != nil {
		logger.FromContext(ctx).Warn("publish exchange event failed",
			zap.String("session_id", event.SessionID),
			zap.String("kind", string(event.Kind)),
			zap.Error(err),
		)
	}
}

func isTermination(text string) bool {
	_, ok := terminationKeywords[strings.ToLower(text)]
	return ok
}
