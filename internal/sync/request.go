package sync

import (
	"encoding/base64"

	"github.com/davarch/cctray-watcher/internal/domain"
)

// BuildRequest derives the request descriptor for a feed URL and resolved
// credential. An empty credential never produces an Authorization header, and
// at most one header value is ever set.
func BuildRequest(feedURL string, credential domain.Credential) domain.FeedRequest {
	req := domain.FeedRequest{URL: feedURL}
	if credential.IsEmpty() {
		return req
	}
	switch credential.AuthType {
	case domain.AuthBasic:
		userPass := credential.User + ":" + credential.Password
		req.Authorization = "Basic " + base64.StdEncoding.EncodeToString([]byte(userPass))
	case domain.AuthBearer:
		req.Authorization = "Bearer " + credential.BearerToken
	}
	return req
}
