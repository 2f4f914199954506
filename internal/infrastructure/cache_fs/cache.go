// Package cache_fs writes the current status of all pipelines to a JSON file
// so status-bar consumers can render it without talking to the feeds.
package cache_fs

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/davarch/cctray-watcher/internal/domain"
)

type FSCache struct {
	path string
}

func New(path string) *FSCache { return &FSCache{path: path} }

type buildOut struct {
	Result    string `json:"result,omitempty"`
	Label     string `json:"label,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	Duration  int64  `json:"duration_seconds,omitempty"`
}

type pipelineOut struct {
	Name         string    `json:"name"`
	FeedURL      string    `json:"feed_url"`
	Project      string    `json:"project"`
	Activity     string    `json:"activity"`
	CurrentBuild *buildOut `json:"current_build,omitempty"`
	LastBuild    *buildOut `json:"last_build,omitempty"`
	Error        string    `json:"error,omitempty"`
	WebURL       string    `json:"web_url,omitempty"`
}

type snapshotOut struct {
	Retrieved int64         `json:"retrieved"`
	Pipelines []pipelineOut `json:"pipelines"`
}

func (c *FSCache) Write(_ context.Context, pipelines []*domain.Pipeline) error {
	if c.path == "" {
		return errors.New("cache path is empty")
	}

	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(c.path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	out := snapshotOut{Retrieved: time.Now().Unix()}
	for _, p := range pipelines {
		entry := pipelineOut{
			Name:     p.Name,
			FeedURL:  p.Feed.URL,
			Project:  p.Feed.Project,
			Activity: string(domain.ActivityOther),
			Error:    p.ConnectionError,
			WebURL:   p.WebURL,
		}
		if p.Status != nil {
			entry.Activity = string(p.Status.Activity)
			entry.CurrentBuild = convertBuild(p.Status.CurrentBuild)
			entry.LastBuild = convertBuild(p.Status.LastBuild)
		}
		out.Pipelines = append(out.Pipelines, entry)
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")

	return enc.Encode(out)
}

func convertBuild(b *domain.Build) *buildOut {
	if b == nil {
		return nil
	}
	out := &buildOut{
		Result:   string(b.Result),
		Label:    b.Label,
		Duration: int64(b.Duration / time.Second),
	}
	if !b.Timestamp.IsZero() {
		out.Timestamp = b.Timestamp.Format(time.RFC3339)
	}
	return out
}
