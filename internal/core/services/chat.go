package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/pitwall/internal/core/domain"
	"github.com/custodia-labs/pitwall/internal/core/ports/driven"
	"github.com/custodia-labs/pitwall/internal/core/ports/driving"
	"github.com/custodia-labs/pitwall/internal/logger"
)

// Ensure ChatService implements the interface.
var _ driving.ChatService = (*ChatService)(nil)

// ChatConfig configures turn orchestration.
type ChatConfig struct {
	// SessionWindow is the maximum turns retained per session.
	// Defaults to domain.DefaultSessionWindow.
	SessionWindow int

	// SessionTTL is how long idle sessions survive.
	// Defaults to domain.DefaultSessionTTL.
	SessionTTL time.Duration
}

// ChatService orchestrates one conversational turn: classify, route,
// compose, remember. It is the only component that mutates session
// state; the collaborators receive read-only snapshots.
//
// For well-formed input it always produces an answer. Source failures,
// generation failures, and even session store failures degrade the
// answer rather than surfacing as errors.
type ChatService struct {
	classifier *ClassifierService
	router     *RouterService
	composer   *ComposerService
	sessions   driven.SessionStore
	window     int
	ttl        time.Duration
	locks      *sessionLocks
}

// NewChatService creates a new chat orchestrator.
func NewChatService(
	classifier *ClassifierService,
	router *RouterService,
	composer *ComposerService,
	sessions driven.SessionStore,
	cfg ChatConfig,
) *ChatService {
	window := cfg.SessionWindow
	if window <= 0 {
		window = domain.DefaultSessionWindow
	}
	ttl := cfg.SessionTTL
	if ttl <= 0 {
		ttl = domain.DefaultSessionTTL
	}

	return &ChatService{
		classifier: classifier,
		router:     router,
		composer:   composer,
		sessions:   sessions,
		window:     window,
		ttl:        ttl,
		locks:      newSessionLocks(),
	}
}

// Ask answers a query within a session. Turns on the same session key
// serialize in arrival order; different sessions proceed in parallel.
func (s *ChatService) Ask(ctx context.Context, sessionID, query string) (*domain.Answer, error) {
	sessionID = strings.TrimSpace(sessionID)
	query = strings.TrimSpace(query)

	if sessionID == "" {
		return nil, fmt.Errorf("%w: empty session id", domain.ErrInvalidInput)
	}
	if query == "" {
		return nil, fmt.Errorf("%w: empty message", domain.ErrInvalidInput)
	}

	release := s.locks.acquire(sessionID)
	defer release()

	logger.Section("Turn " + sessionID)
	logger.Debug("Query: %q", query)

	now := time.Now()
	session := s.loadOrCreate(ctx, sessionID, now)
	prior := session.LastIntents()
	history := session.History(s.window)

	classification := s.classifier.Classify(query, prior)

	session.Append(domain.Turn{
		ID:        uuid.New().String(),
		Role:      domain.RoleUser,
		Content:   query,
		Intents:   classification.Labels(),
		CreatedAt: now,
	})

	results, err := s.router.Route(ctx, query, classification)
	if err != nil {
		// Every required source failed. The composer turns the FAILED
		// results into a degraded apology; the caller still gets an
		// answer.
		if !errors.Is(err, domain.ErrRetrievalUnavailable) {
			logger.Warn("Routing error: %v", err)
		}
	}

	answer := s.composer.Compose(ctx, query, classification, results, history)

	session.Append(domain.Turn{
		ID:        uuid.New().String(),
		Role:      domain.RoleAssistant,
		Content:   answer.Text,
		CreatedAt: time.Now(),
	})
	session.Trim(s.window)

	if err := s.sessions.Put(ctx, session); err != nil {
		// Losing memory of the turn is survivable; losing the answer
		// is not.
		logger.Warn("Persist session %s: %v", sessionID, err)
	}

	logger.Info("Answered session=%s degraded=%t citations=%d",
		sessionID, answer.Degraded, len(answer.Citations))

	return answer, nil
}

// History returns the retained turns of a session, oldest first.
func (s *ChatService) History(ctx context.Context, sessionID string) ([]domain.Turn, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, fmt.Errorf("%w: empty session id", domain.ErrInvalidInput)
	}

	release := s.locks.acquire(sessionID)
	defer release()

	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if session.ExpiredAt(time.Now(), s.ttl) {
		s.evict(ctx, sessionID)
		return nil, fmt.Errorf("session %s: %w", sessionID, domain.ErrNotFound)
	}

	return session.Turns, nil
}

// Reset discards a session's conversation memory.
func (s *ChatService) Reset(ctx context.Context, sessionID string) error {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return fmt.Errorf("%w: empty session id", domain.ErrInvalidInput)
	}

	release := s.locks.acquire(sessionID)
	defer release()

	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// loadOrCreate fetches the session, evicting it first when expired.
// Store failures fall back to a fresh session so the turn still answers.
func (s *ChatService) loadOrCreate(ctx context.Context, sessionID string, now time.Time) *domain.Session {
	session, err := s.sessions.Get(ctx, sessionID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		logger.Debug("New session %s", sessionID)
		return domain.NewSession(sessionID, now)

	case err != nil:
		logger.Warn("Load session %s: %v (starting fresh)", sessionID, err)
		return domain.NewSession(sessionID, now)
	}

	if session.ExpiredAt(now, s.ttl) {
		logger.Debug("Session %s expired after %s idle, starting fresh", sessionID, s.ttl)
		s.evict(ctx, sessionID)
		return domain.NewSession(sessionID, now)
	}

	return session
}

// evict removes an expired session, tolerating store failures.
func (s *ChatService) evict(ctx context.Context, sessionID string) {
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		logger.Warn("Evict session %s: %v", sessionID, err)
	}
}
