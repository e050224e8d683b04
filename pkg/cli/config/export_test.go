package config

import "time"

func NewRepositoryForTest(backend string) *Repository {
	return &Repository{backend: backend}
}

func NewSessionForTest(backend, redisURL string, ttl time.Duration) *Session {
	return &Session{backend: backend, redisURL: redisURL, keyPrefix: "test:", ttl: ttl}
}

func NewAppForTest(mode, catalogPath string) *App {
	return &App{mode: mode, catalogPath: catalogPath}
}
