// Package cctray parses CCTray v1 feed documents (https://cctray.org/v1/).
package cctray

import (
	"encoding/xml"
	"time"

	"github.com/davarch/cctray-watcher/internal/domain"
)

type projectsDTO struct {
	XMLName  xml.Name     `xml:"Projects"`
	Projects []projectDTO `xml:"Project"`
}

type projectDTO struct {
	Name            string `xml:"name,attr"`
	Activity        string `xml:"activity,attr"`
	LastBuildStatus string `xml:"lastBuildStatus,attr"`
	LastBuildLabel  string `xml:"lastBuildLabel,attr"`
	LastBuildTime   string `xml:"lastBuildTime,attr"`
	WebURL          string `xml:"webUrl,attr"`
}

// Project is one project's status as reported by the feed.
type Project struct {
	Status domain.Status
	WebURL string
}

// Parse decodes a CCTray document into a project-name-to-status mapping.
// A document describing zero projects is valid; a malformed document fails
// as a whole with a ParseError.
func Parse(body []byte) (map[string]Project, error) {
	var doc projectsDTO
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, &domain.ParseError{Err: err}
	}

	out := make(map[string]Project, len(doc.Projects))
	for _, p := range doc.Projects {
		status := domain.Status{Activity: mapActivity(p.Activity)}
		if status.Activity == domain.ActivityBuilding {
			status.CurrentBuild = &domain.Build{Result: domain.ResultUnknown}
		}
		if p.LastBuildStatus != "" {
			last := &domain.Build{
				Result: mapResult(p.LastBuildStatus),
				Label:  p.LastBuildLabel,
			}
			if t, ok := parseTime(p.LastBuildTime); ok {
				last.Timestamp = t
			}
			status.LastBuild = last
		}
		out[p.Name] = Project{Status: status, WebURL: p.WebURL}
	}
	return out, nil
}

func mapActivity(s string) domain.Activity {
	switch s {
	case "Building":
		return domain.ActivityBuilding
	case "Sleeping":
		return domain.ActivitySleeping
	default:
		return domain.ActivityOther
	}
}

func mapResult(s string) domain.BuildResult {
	switch s {
	case "Success":
		return domain.ResultSuccess
	case "Failure", "Exception":
		return domain.ResultFailure
	case "Unknown":
		return domain.ResultUnknown
	default:
		return domain.ResultOther
	}
}

// Servers either send full RFC 3339 timestamps or a zoneless variant, which
// is read as UTC. Anything else leaves the timestamp unset.
func parseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if t, err := time.Parse("2006-01-02T15:04:05", s); err == nil {
		return t.UTC(), true
	}
	return time.Time{}, false
}
