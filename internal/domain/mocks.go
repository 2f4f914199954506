package domain

import (
	"context"
	"sync"
	"time"
)

type MockFetcher struct {
	Body       []byte
	StatusCode int
	Err        error

	mu       sync.Mutex // feed groups fetch concurrently
	Called   int
	Requests []FeedRequest
}

func (m *MockFetcher) Fetch(_ context.Context, req FeedRequest) ([]byte, int, error) {
	m.mu.Lock()
	m.Called++
	m.Requests = append(m.Requests, req)
	m.mu.Unlock()
	if m.Err != nil {
		return nil, 0, m.Err
	}
	code := m.StatusCode
	if code == 0 {
		code = 200
	}
	return m.Body, code, nil
}

type MockSecretStore struct {
	Types     map[string]AuthType
	Passwords map[string]string
	Tokens    map[string]string
}

func (m *MockSecretStore) AuthType(origin string) AuthType {
	if t, ok := m.Types[origin]; ok {
		return t
	}
	return AuthNone
}

func (m *MockSecretStore) Password(origin string) (string, bool) {
	p, ok := m.Passwords[origin]
	return p, ok
}

func (m *MockSecretStore) Token(origin string) (string, bool) {
	t, ok := m.Tokens[origin]
	return t, ok
}

type MockNotifier struct {
	Messages []string
	Err      error
}

func (n *MockNotifier) Notify(_ context.Context, title, body, url string) error {
	n.Messages = append(n.Messages, title+"|"+body+"|"+url)
	return n.Err
}

type MockCache struct {
	Writes int
	Err    error
}

func (c *MockCache) Write(_ context.Context, _ []*Pipeline) error {
	if c.Err != nil {
		return c.Err
	}
	c.Writes++
	return nil
}

type MockClock struct {
	Time time.Time
}

func (m *MockClock) Now() time.Time { return m.Time }

func (m *MockClock) Advance(d time.Duration) { m.Time = m.Time.Add(d) }
