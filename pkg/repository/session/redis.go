package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/redis/go-redis/v9"
	"github.com/secmon-lab/riskassess/pkg/domain/assessment"
	"github.com/secmon-lab/riskassess/pkg/domain/interfaces"
	"github.com/secmon-lab/riskassess/pkg/domain/model"
)

// DefaultKeyPrefix namespaces session keys
const DefaultKeyPrefix = "riskassess:session:"

// Redis stores sessions as JSON values with a TTL
type Redis struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

var _ interfaces.SessionStore = &Redis{}

type RedisOption func(*Redis)

// WithTTL sets the session lifetime. Each Put extends it.
func WithTTL(ttl time.Duration) RedisOption {
	return func(r *Redis) {
		r.ttl = ttl
	}
}

// WithKeyPrefix sets the prefix of every session key
func WithKeyPrefix(prefix string) RedisOption {
	return func(r *Redis) {
		r.keyPrefix = prefix
	}
}

// NewRedis connects to the server at url (redis://[:password@]host:port/db)
func NewRedis(ctx context.Context, url string, opts ...RedisOption) (*Redis, error) {
	redisOpts, err := redis.ParseURL(url)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to parse Redis URL")
	}

	client := redis.NewClient(redisOpts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, goerr.Wrap(err, "failed to connect to Redis", goerr.V("addr", redisOpts.Addr))
	}

	r := &Redis{
		client:    client,
		keyPrefix: DefaultKeyPrefix,
		ttl:       DefaultTTL,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

func (r *Redis) key(id assessment.SessionID) string {
	return r.keyPrefix + id.String()
}

func (r *Redis) Get(ctx context.Context, id assessment.SessionID) (*assessment.Session, error) {
	data, err := r.client.Get(ctx, r.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, goerr.Wrap(model.ErrSessionNotFound, "session not found", goerr.V(model.SessionIDKey, id))
		}
		return nil, goerr.Wrap(err, "failed to get session", goerr.V(model.SessionIDKey, id))
	}

	var s assessment.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal session", goerr.V(model.SessionIDKey, id))
	}
	return &s, nil
}

func (r *Redis) Put(ctx context.Context, s *assessment.Session) error {
	if s.ID == "" {
		return goerr.New("session ID is required")
	}

	data, err := json.Marshal(s)
	if err != nil {
		return goerr.Wrap(err, "failed to marshal session", goerr.V(model.SessionIDKey, s.ID))
	}

	if err := r.client.Set(ctx, r.key(s.ID), data, r.ttl).Err(); err != nil {
		return goerr.Wrap(err, "failed to put session", goerr.V(model.SessionIDKey, s.ID))
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, id assessment.SessionID) error {
	if err := r.client.Del(ctx, r.key(id)).Err(); err != nil {
		return goerr.Wrap(err, "failed to delete session", goerr.V(model.SessionIDKey, id))
	}
	return nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}
