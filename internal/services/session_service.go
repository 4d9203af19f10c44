package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"bouncer-system/internal/apperror"
	"bouncer-system/internal/config"
	"bouncer-system/internal/logger"
	"bouncer-system/internal/models"
	"bouncer-system/internal/redis"
)

// SessionStore хранит переговорные сессии в Redis с TTL по неактивности.
// Каждое сохранение продлевает окно; сессия, не получавшая сообщений дольше
// окна, вытесняется Redis'ом, и следующее сообщение создаёт её заново.
type SessionStore struct {
	redis *redis.Client
	log   *logger.Logger
	ttl   time.Duration

	// Per-session мьютексы: не более одного решения в полёте на сессию.
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewSessionStore создаёт хранилище сессий.
func NewSessionStore(redisClient *redis.Client, log *logger.Logger, cfg *config.SessionConfig) *SessionStore {
	ttl := time.Duration(cfg.TTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &SessionStore{
		redis: redisClient,
		log:   log,
		ttl:   ttl,
		locks: make(map[string]*sync.Mutex),
	}
}

// Lock захватывает блокировку сессии и возвращает функцию освобождения.
// Решения по разным сессиям идут параллельно, по одной — строго по очереди.
func (s *SessionStore) Lock(sessionID string) func() {
	s.mu.Lock()
	lock, ok := s.locks[sessionID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[sessionID] = lock
	}
	s.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

// Get возвращает сессию по идентификатору.
func (s *SessionStore) Get(ctx context.Context, sessionID string) (*models.NegotiationSession, error) {
	session := &models.NegotiationSession{}
	key := redis.GenerateKey(redis.KeyPrefixSession, sessionID)

	if err := s.redis.Get(ctx, key, session); err != nil {
		if errors.Is(err, redis.ErrKeyNotFound) {
			return nil, apperror.NotFound("session not found", err)
		}
		return nil, err
	}

	return session, nil
}

// GetOrCreate возвращает существующую сессию или создаёт новую.
// Второе возвращаемое значение — признак создания.
func (s *SessionStore) GetOrCreate(ctx context.Context, sessionID string) (*models.NegotiationSession, bool, error) {
	if sessionID != "" {
		session, err := s.Get(ctx, sessionID)
		if err == nil {
			return session, false, nil
		}
		if !apperror.Is(err, apperror.KindNotFound) {
			return nil, false, err
		}
	}

	session := models.NewNegotiationSession(sessionID)
	if err := s.Save(ctx, session); err != nil {
		return nil, false, err
	}

	s.log.WithField("session_id", session.ID).Info("Negotiation session created")
	return session, true, nil
}

// Save сохраняет сессию и продлевает окно неактивности.
func (s *SessionStore) Save(ctx context.Context, session *models.NegotiationSession) error {
	session.UpdatedAt = time.Now()
	key := redis.GenerateKey(redis.KeyPrefixSession, session.ID)
	return s.redis.Set(ctx, key, session, s.ttl)
}

// Touch продлевает окно неактивности без изменения состояния.
func (s *SessionStore) Touch(ctx context.Context, sessionID string) error {
	key := redis.GenerateKey(redis.KeyPrefixSession, sessionID)

	exists, err := s.redis.Exists(ctx, key)
	if err != nil {
		return err
	}
	if !exists {
		return apperror.NotFound("session not found", nil)
	}

	return s.redis.Expire(ctx, key, s.ttl)
}

// Expire принудительно переводит сессию в статус expired.
// Дальнейшие решения по ней отклоняются как invalid state.
func (s *SessionStore) Expire(ctx context.Context, sessionID string) error {
	session, err := s.Get(ctx, sessionID)
	if err != nil {
		return err
	}

	if session.Status == models.SessionStatusExpired {
		return nil
	}

	session.Status = models.SessionStatusExpired
	if err := s.Save(ctx, session); err != nil {
		return err
	}

	s.log.WithField("session_id", sessionID).Info("Negotiation session expired")
	return nil
}

// TTL возвращает сконфигурированное окно неактивности.
func (s *SessionStore) TTL() time.Duration {
	return s.ttl
}
