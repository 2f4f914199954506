package sync

import (
	"time"

	"github.com/davarch/cctray-watcher/internal/domain"
)

// Merge reconciles a freshly parsed status against the previously known one.
// The incoming status is the baseline; locally derived fields survive it:
// the current build's start time is carried across polls while the pipeline
// keeps building, and the last build's duration is carried because the feed
// never reports one. The activity edges are the authoritative markers: on a
// transition into building the current build is stamped with now, and on a
// transition out of building the elapsed time since that stamp becomes the
// last build's duration.
//
// A nil previous status behaves as "was not building": an already-building
// first observation gets a start stamp, but no duration is ever invented.
func Merge(previous *domain.Status, incoming domain.Status, now time.Time) domain.Status {
	result := incoming
	if incoming.CurrentBuild != nil {
		b := *incoming.CurrentBuild
		result.CurrentBuild = &b
	}
	if incoming.LastBuild != nil {
		b := *incoming.LastBuild
		result.LastBuild = &b
	}

	wasBuilding := previous != nil && previous.Activity == domain.ActivityBuilding

	if result.CurrentBuild != nil {
		if wasBuilding && previous.CurrentBuild != nil {
			result.CurrentBuild.Timestamp = previous.CurrentBuild.Timestamp
		} else {
			result.CurrentBuild.Timestamp = time.Time{}
		}
	}
	if result.LastBuild != nil && previous != nil && previous.LastBuild != nil {
		result.LastBuild.Duration = previous.LastBuild.Duration
	}

	if !wasBuilding && result.Activity == domain.ActivityBuilding {
		if result.CurrentBuild == nil {
			result.CurrentBuild = &domain.Build{Result: domain.ResultUnknown}
		}
		result.CurrentBuild.Timestamp = now
	}
	if wasBuilding && result.Activity != domain.ActivityBuilding {
		if previous.CurrentBuild != nil && !previous.CurrentBuild.Timestamp.IsZero() && result.LastBuild != nil {
			result.LastBuild.Duration = now.Sub(previous.CurrentBuild.Timestamp)
		}
	}

	return result
}
