package sync

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/davarch/cctray-watcher/internal/domain"
)

func groupOf(names ...string) []*domain.Pipeline {
	out := make([]*domain.Pipeline, 0, len(names))
	for _, n := range names {
		out = append(out, &domain.Pipeline{
			Name: n,
			Feed: domain.Feed{URL: feedURL, Project: n},
		})
	}
	return out
}

func feedBody(projects ...string) []byte {
	var b strings.Builder
	b.WriteString("<Projects>")
	for _, p := range projects {
		b.WriteString(`<Project name="` + p + `" activity="Sleeping" lastBuildStatus="Success" lastBuildLabel="9"/>`)
	}
	b.WriteString("</Projects>")
	return []byte(b.String())
}

func TestRefresh_HappyPath(t *testing.T) {
	pipelines := groupOf("one", "two")
	fetcher := &domain.MockFetcher{Body: feedBody("one", "two")}
	clock := &domain.MockClock{Time: t0}

	NewFeedReader(pipelines, fetcher, &domain.MockSecretStore{}, clock).Refresh(context.Background())

	if fetcher.Called != 1 {
		t.Errorf("one fetch must serve the whole group, got %d", fetcher.Called)
	}
	for _, p := range pipelines {
		if p.ConnectionError != "" {
			t.Errorf("%s: unexpected connection error %q", p.Name, p.ConnectionError)
		}
		if p.Status == nil || p.Status.Activity != domain.ActivitySleeping {
			t.Errorf("%s: unexpected status %+v", p.Name, p.Status)
		}
		if p.Status.LastBuild == nil || p.Status.LastBuild.Label != "9" {
			t.Errorf("%s: unexpected last build %+v", p.Name, p.Status.LastBuild)
		}
	}
}

func TestRefresh_SendsResolvedCredential(t *testing.T) {
	pipelines := groupOf("one")
	fetcher := &domain.MockFetcher{Body: feedBody("one")}
	store := &domain.MockSecretStore{
		Types:  map[string]domain.AuthType{feedURL: domain.AuthBearer},
		Tokens: map[string]string{feedURL: "tok"},
	}

	NewFeedReader(pipelines, fetcher, store, &domain.MockClock{Time: t0}).Refresh(context.Background())

	if len(fetcher.Requests) != 1 || fetcher.Requests[0].Authorization != "Bearer tok" {
		t.Errorf("unexpected requests %+v", fetcher.Requests)
	}
}

func TestRefresh_HTTPErrorFailsWholeGroup(t *testing.T) {
	pipelines := groupOf("one", "two", "three")
	pipelines[0].Status = &domain.Status{
		Activity:     domain.ActivityBuilding,
		CurrentBuild: &domain.Build{Timestamp: t0},
		LastBuild:    &domain.Build{Result: domain.ResultSuccess, Label: "8"},
	}
	fetcher := &domain.MockFetcher{StatusCode: 401}

	NewFeedReader(pipelines, fetcher, &domain.MockSecretStore{}, &domain.MockClock{Time: t0}).Refresh(context.Background())

	msg := pipelines[0].ConnectionError
	if !strings.Contains(msg, "401") {
		t.Errorf("expected message derived from the status code, got %q", msg)
	}
	for _, p := range pipelines {
		if p.ConnectionError != msg {
			t.Errorf("all pipelines must share one error message, got %q and %q", msg, p.ConnectionError)
		}
		if p.Status == nil || p.Status.Activity != domain.ActivityOther {
			t.Errorf("%s: expected activity other, got %+v", p.Name, p.Status)
		}
		if p.Status.CurrentBuild != nil {
			t.Errorf("%s: stale building state must not survive a failed fetch", p.Name)
		}
	}
	if pipelines[0].Status.LastBuild == nil || pipelines[0].Status.LastBuild.Label != "8" {
		t.Errorf("last known build fields must stay visible, got %+v", pipelines[0].Status.LastBuild)
	}
}

func TestRefresh_TransportErrorFailsWholeGroup(t *testing.T) {
	pipelines := groupOf("one", "two")
	fetcher := &domain.MockFetcher{Err: context.DeadlineExceeded}

	NewFeedReader(pipelines, fetcher, &domain.MockSecretStore{}, &domain.MockClock{Time: t0}).Refresh(context.Background())

	for _, p := range pipelines {
		if p.ConnectionError == "" {
			t.Errorf("%s: expected connection error", p.Name)
		}
		if p.Status.Activity != domain.ActivityOther {
			t.Errorf("%s: expected activity other", p.Name)
		}
	}
}

func TestRefresh_CredentialErrorFailsWholeGroup(t *testing.T) {
	pipelines := groupOf("one")
	fetcher := &domain.MockFetcher{Body: feedBody("one")}
	store := &domain.MockSecretStore{
		Types: map[string]domain.AuthType{feedURL: domain.AuthBearer},
	}

	NewFeedReader(pipelines, fetcher, store, &domain.MockClock{Time: t0}).Refresh(context.Background())

	if fetcher.Called != 0 {
		t.Errorf("no fetch may happen without a resolvable credential")
	}
	if !strings.Contains(pipelines[0].ConnectionError, "no token stored") {
		t.Errorf("unexpected error message %q", pipelines[0].ConnectionError)
	}
}

func TestRefresh_ParseErrorFailsWholeGroup(t *testing.T) {
	pipelines := groupOf("one", "two")
	fetcher := &domain.MockFetcher{Body: []byte("<Projects><Pro")}

	NewFeedReader(pipelines, fetcher, &domain.MockSecretStore{}, &domain.MockClock{Time: t0}).Refresh(context.Background())

	for _, p := range pipelines {
		if !strings.Contains(p.ConnectionError, "cannot parse feed") {
			t.Errorf("%s: unexpected error %q", p.Name, p.ConnectionError)
		}
	}
}

func TestRefresh_ProjectMissingFromResponse(t *testing.T) {
	pipelines := groupOf("one", "gone", "three")
	prior := &domain.Status{
		Activity:  domain.ActivitySleeping,
		LastBuild: &domain.Build{Result: domain.ResultFailure, Label: "5", Duration: 10 * time.Second},
	}
	pipelines[1].Status = prior
	fetcher := &domain.MockFetcher{Body: feedBody("one", "three")}

	NewFeedReader(pipelines, fetcher, &domain.MockSecretStore{}, &domain.MockClock{Time: t0}).Refresh(context.Background())

	if pipelines[0].ConnectionError != "" || pipelines[2].ConnectionError != "" {
		t.Errorf("present projects must update normally")
	}
	if pipelines[1].ConnectionError != noStatusMessage {
		t.Errorf("unexpected error %q", pipelines[1].ConnectionError)
	}
	if pipelines[1].Status != prior {
		t.Errorf("prior status must be left untouched for a missing project")
	}
}

func TestRefresh_MissingProjectNameAffectsOnlyThatPipeline(t *testing.T) {
	pipelines := groupOf("one", "two")
	pipelines[1].Feed.Project = ""
	fetcher := &domain.MockFetcher{Body: feedBody("one")}

	NewFeedReader(pipelines, fetcher, &domain.MockSecretStore{}, &domain.MockClock{Time: t0}).Refresh(context.Background())

	if pipelines[0].ConnectionError != "" {
		t.Errorf("sibling pipelines must update normally, got %q", pipelines[0].ConnectionError)
	}
	if pipelines[1].ConnectionError != domain.ErrNoProjectName.Error() {
		t.Errorf("unexpected error %q", pipelines[1].ConnectionError)
	}
}

func TestRefresh_ClearsPreviousConnectionError(t *testing.T) {
	pipelines := groupOf("one")
	pipelines[0].ConnectionError = "boom"
	fetcher := &domain.MockFetcher{Body: feedBody("one")}

	NewFeedReader(pipelines, fetcher, &domain.MockSecretStore{}, &domain.MockClock{Time: t0}).Refresh(context.Background())

	if pipelines[0].ConnectionError != "" {
		t.Errorf("a successful refresh must clear the connection error")
	}
}

func TestRefresh_BuildCycleAcrossPolls(t *testing.T) {
	pipelines := groupOf("one")
	store := &domain.MockSecretStore{}
	clock := &domain.MockClock{Time: t0}

	// Poll 1: sleeping.
	fetcher := &domain.MockFetcher{Body: feedBody("one")}
	NewFeedReader(pipelines, fetcher, store, clock).Refresh(context.Background())

	// Poll 2: building.
	clock.Advance(time.Minute)
	buildStart := clock.Time
	fetcher = &domain.MockFetcher{Body: []byte(`<Projects><Project name="one" activity="Building" lastBuildStatus="Success" lastBuildLabel="9"/></Projects>`)}
	NewFeedReader(pipelines, fetcher, store, clock).Refresh(context.Background())

	st := pipelines[0].Status
	if st.Activity != domain.ActivityBuilding || st.CurrentBuild == nil || !st.CurrentBuild.Timestamp.Equal(buildStart) {
		t.Fatalf("unexpected status after build start: %+v", st)
	}

	// Poll 3: still building, start time must not move.
	clock.Advance(time.Minute)
	fetcher = &domain.MockFetcher{Body: []byte(`<Projects><Project name="one" activity="Building" lastBuildStatus="Success" lastBuildLabel="9"/></Projects>`)}
	NewFeedReader(pipelines, fetcher, store, clock).Refresh(context.Background())

	if !pipelines[0].Status.CurrentBuild.Timestamp.Equal(buildStart) {
		t.Fatalf("start time moved across polls: %+v", pipelines[0].Status.CurrentBuild)
	}

	// Poll 4: done, duration is the observed building interval.
	clock.Advance(30 * time.Second)
	fetcher = &domain.MockFetcher{Body: []byte(`<Projects><Project name="one" activity="Sleeping" lastBuildStatus="Success" lastBuildLabel="10"/></Projects>`)}
	NewFeedReader(pipelines, fetcher, store, clock).Refresh(context.Background())

	st = pipelines[0].Status
	if st.Activity != domain.ActivitySleeping || st.CurrentBuild != nil {
		t.Fatalf("unexpected status after build end: %+v", st)
	}
	if st.LastBuild.Duration != 90*time.Second {
		t.Errorf("expected duration 90s, got %v", st.LastBuild.Duration)
	}
}
