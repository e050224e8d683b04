package config

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/riskassess/pkg/domain/interfaces"
	"github.com/secmon-lab/riskassess/pkg/repository/session"
	"github.com/secmon-lab/riskassess/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// Session holds CLI flags for the assessment session store
type Session struct {
	backend   string
	redisURL  string
	keyPrefix string
	ttl       time.Duration
}

// Flags returns CLI flags for session store configuration
func (s *Session) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "session-backend",
			Category:    "Session",
			Usage:       "Assessment session store (memory or redis)",
			Value:       "memory",
			Sources:     cli.EnvVars("RISKASSESS_SESSION_BACKEND"),
			Destination: &s.backend,
		},
		&cli.StringFlag{
			Name:        "redis-url",
			Category:    "Session",
			Usage:       "Redis URL, e.g. redis://localhost:6379/0 (required when using redis backend)",
			Sources:     cli.EnvVars("RISKASSESS_REDIS_URL"),
			Destination: &s.redisURL,
		},
		&cli.StringFlag{
			Name:        "redis-key-prefix",
			Category:    "Session",
			Usage:       "Prefix of Redis keys holding sessions",
			Value:       session.DefaultKeyPrefix,
			Sources:     cli.EnvVars("RISKASSESS_REDIS_KEY_PREFIX"),
			Destination: &s.keyPrefix,
		},
		&cli.DurationFlag{
			Name:        "session-ttl",
			Category:    "Session",
			Usage:       "Lifetime of an untouched assessment session",
			Value:       session.DefaultTTL,
			Sources:     cli.EnvVars("RISKASSESS_SESSION_TTL"),
			Destination: &s.ttl,
		},
	}
}

// Configure builds the session store. The returned function releases it.
func (s *Session) Configure(ctx context.Context) (interfaces.SessionStore, func(), error) {
	if s.ttl <= 0 {
		return nil, nil, goerr.Wrap(ErrInvalidConfig, "session-ttl must be positive", goerr.V("ttl", s.ttl))
	}

	switch s.backend {
	case "memory", "":
		logging.From(ctx).Info("Using in-memory assessment sessions", "ttl", s.ttl)
		return session.NewMemory(session.WithMemoryTTL(s.ttl)), func() {}, nil

	case "redis":
		if s.redisURL == "" {
			return nil, nil, goerr.Wrap(ErrInvalidConfig, "redis-url is required when using redis backend")
		}
		store, err := session.NewRedis(ctx, s.redisURL,
			session.WithTTL(s.ttl),
			session.WithKeyPrefix(s.keyPrefix),
		)
		if err != nil {
			return nil, nil, goerr.Wrap(err, "failed to initialize redis session store")
		}
		logging.From(ctx).Info("Using Redis assessment sessions",
			"secret_redis_url", s.redisURL,
			"key_prefix", s.keyPrefix,
			"ttl", s.ttl,
		)
		closer := func() {
			if err := store.Close(); err != nil {
				logging.Default().Error("failed to close redis session store", "error", err.Error())
			}
		}
		return store, closer, nil

	default:
		return nil, nil, goerr.Wrap(ErrInvalidBackend, "invalid session backend", goerr.V(BackendKey, s.backend))
	}
}
