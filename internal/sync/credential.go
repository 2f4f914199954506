// Package sync is the status synchronization engine: it resolves feed
// credentials, builds requests, and reconciles freshly fetched status against
// previously known status for the pipelines of one feed.
package sync

import (
	"net/url"

	"github.com/davarch/cctray-watcher/internal/domain"
)

// ResolveCredential determines the authorization scheme stored for the feed
// URL and produces request-ready credentials. The feed URL doubles as the
// origin key. For basic auth the username comes from the URL's user-info
// component; a URL without one resolves to an empty credential rather than an
// error. A stored scheme whose secret is missing from the store is a
// MissingCredentialError.
func ResolveCredential(feedURL string, store domain.SecretStore) (domain.Credential, error) {
	authType := store.AuthType(feedURL)
	switch authType {
	case domain.AuthBasic:
		u, err := url.Parse(feedURL)
		if err != nil || u.User == nil {
			return domain.Credential{AuthType: domain.AuthNone}, nil
		}
		user := u.User.Username()
		password, ok := store.Password(feedURL)
		if !ok {
			return domain.Credential{}, &domain.MissingCredentialError{Origin: feedURL, AuthType: authType}
		}
		return domain.Credential{AuthType: domain.AuthBasic, User: user, Password: password}, nil

	case domain.AuthBearer:
		token, ok := store.Token(feedURL)
		if !ok {
			return domain.Credential{}, &domain.MissingCredentialError{Origin: feedURL, AuthType: authType}
		}
		return domain.Credential{AuthType: domain.AuthBearer, BearerToken: token}, nil

	default:
		return domain.Credential{AuthType: domain.AuthNone}, nil
	}
}
