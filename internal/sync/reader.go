package sync

import (
	"context"

	"github.com/davarch/cctray-watcher/internal/cctray"
	"github.com/davarch/cctray-watcher/internal/domain"
)

const noStatusMessage = "The server did not provide a status for this pipeline."

// FeedReader runs one polling cycle for a group of pipelines that share a
// feed URL. One fetch serves the whole group; per-pipeline results are
// applied only after the response has fully parsed, never incrementally.
type FeedReader struct {
	pipelines []*domain.Pipeline
	fetcher   domain.Fetcher
	store     domain.SecretStore
	clock     domain.Clock
}

func NewFeedReader(pipelines []*domain.Pipeline, fetcher domain.Fetcher, store domain.SecretStore, clock domain.Clock) *FeedReader {
	return &FeedReader{pipelines: pipelines, fetcher: fetcher, store: store, clock: clock}
}

// Refresh synchronizes every pipeline in the group. Errors never propagate:
// a group-level failure (credential, transport, HTTP status, parse) puts all
// pipelines into a uniform connection-error state, and per-pipeline defects
// touch only the one pipeline.
func (r *FeedReader) Refresh(ctx context.Context) {
	if len(r.pipelines) == 0 {
		return
	}

	// All pipelines in the group share the same URL.
	feedURL := r.pipelines[0].Feed.URL

	credential, err := ResolveCredential(feedURL, r.store)
	if err != nil {
		r.failAll(err)
		return
	}

	body, statusCode, err := r.fetcher.Fetch(ctx, BuildRequest(feedURL, credential))
	if err != nil {
		r.failAll(err)
		return
	}
	if statusCode < 200 || statusCode > 299 {
		r.failAll(&domain.HTTPError{StatusCode: statusCode})
		return
	}

	projects, err := cctray.Parse(body)
	if err != nil {
		r.failAll(err)
		return
	}

	for _, p := range r.pipelines {
		if p.Feed.Project == "" {
			p.ConnectionError = domain.ErrNoProjectName.Error()
			continue
		}
		project, ok := projects[p.Feed.Project]
		if !ok {
			p.ConnectionError = noStatusMessage
			continue
		}
		status := Merge(p.Status, project.Status, r.clock.Now())
		p.Status = &status
		p.ConnectionError = ""
		if project.WebURL != "" {
			p.WebURL = project.WebURL
		}
	}
}

// failAll marks the whole group with the same error. The last known build
// fields stay visible; only the activity is forced to other and any
// in-progress marker is dropped.
func (r *FeedReader) failAll(err error) {
	for _, p := range r.pipelines {
		status := domain.Status{Activity: domain.ActivityOther}
		if p.Status != nil {
			status.LastBuild = p.Status.LastBuild
		}
		p.Status = &status
		p.ConnectionError = err.Error()
	}
}
