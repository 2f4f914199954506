package domain

import (
	"context"
	"time"
)

// Fetcher performs one feed request and returns the body and HTTP status.
// Implementations may retry transient transport failures; callers must not.
type Fetcher interface {
	Fetch(ctx context.Context, req FeedRequest) ([]byte, int, error)
}

// SecretStore resolves stored authorization data for a feed origin.
// Read-only from the engine's perspective.
type SecretStore interface {
	AuthType(origin string) AuthType
	Password(origin string) (string, bool)
	Token(origin string) (string, bool)
}

// Clock abstracts wall-clock reads so build start times and durations are
// testable.
type Clock interface {
	Now() time.Time
}

type Notifier interface {
	Notify(ctx context.Context, title, body, url string) error
}

// StatusCache persists the current state of all pipelines after a cycle.
type StatusCache interface {
	Write(ctx context.Context, pipelines []*Pipeline) error
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
