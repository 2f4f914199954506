package domain

import "time"

type Activity string

const (
	ActivityBuilding Activity = "building"
	ActivitySleeping Activity = "sleeping"
	ActivityOther    Activity = "other"
)

type BuildResult string

const (
	ResultSuccess BuildResult = "success"
	ResultFailure BuildResult = "failure"
	ResultUnknown BuildResult = "unknown"
	ResultOther   BuildResult = "other"
)

// Build describes one build of a pipeline. As a current build only Timestamp
// is meaningful (the time the build was first seen in progress). As a last
// build, Duration is computed locally from observed transitions; the CCTray
// feed does not report it.
type Build struct {
	Result    BuildResult
	Label     string
	Timestamp time.Time
	Duration  time.Duration
}

// Status is what a feed reports for a pipeline, plus locally derived fields.
// CurrentBuild is present exactly while Activity is building.
type Status struct {
	Activity     Activity
	CurrentBuild *Build
	LastBuild    *Build
}

// Feed locates a pipeline on a CCTray server. Project is the project name
// inside the feed document; several pipelines may share one URL.
type Feed struct {
	URL     string
	Project string
}

// Pipeline is one monitored build process. Status and ConnectionError are
// written only by the feed synchronizer during a refresh; a connection error
// annotates the last known status rather than replacing it.
type Pipeline struct {
	Name            string
	Feed            Feed
	Status          *Status
	ConnectionError string
	WebURL          string
}

type AuthType string

const (
	AuthNone   AuthType = "none"
	AuthBasic  AuthType = "basic"
	AuthBearer AuthType = "bearer"
)

// Credential holds resolved feed credentials. Fields irrelevant to AuthType
// are ignored by the request builder.
type Credential struct {
	AuthType    AuthType
	User        string
	Password    string
	BearerToken string
}

// IsEmpty reports whether the credential carries nothing usable for its
// scheme; an empty credential must not produce an Authorization header.
func (c Credential) IsEmpty() bool {
	switch c.AuthType {
	case AuthBasic:
		return c.User == "" && c.Password == ""
	case AuthBearer:
		return c.BearerToken == ""
	default:
		return true
	}
}

// FeedRequest is an immutable request descriptor: the feed URL and at most
// one Authorization header value.
type FeedRequest struct {
	URL           string
	Authorization string
}
