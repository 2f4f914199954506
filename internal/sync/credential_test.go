package sync

import (
	"errors"
	"testing"

	"github.com/davarch/cctray-watcher/internal/domain"
)

const feedURL = "https://ci.example.com/cctray.xml"
const feedURLWithUser = "https://alice@ci.example.com/cctray.xml"

func TestResolveCredential_NoStoredType(t *testing.T) {
	store := &domain.MockSecretStore{}

	c, err := ResolveCredential(feedURL, store)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.AuthType != domain.AuthNone || !c.IsEmpty() {
		t.Errorf("expected empty none credential, got %+v", c)
	}
}

func TestResolveCredential_NoneIgnoresStoreContents(t *testing.T) {
	store := &domain.MockSecretStore{
		Types:     map[string]domain.AuthType{feedURL: domain.AuthNone},
		Passwords: map[string]string{feedURL: "hunter2"},
		Tokens:    map[string]string{feedURL: "tok"},
	}

	c, err := ResolveCredential(feedURL, store)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !c.IsEmpty() {
		t.Errorf("authType none must resolve to no header regardless of store contents, got %+v", c)
	}
}

func TestResolveCredential_Basic(t *testing.T) {
	store := &domain.MockSecretStore{
		Types:     map[string]domain.AuthType{feedURLWithUser: domain.AuthBasic},
		Passwords: map[string]string{feedURLWithUser: "hunter2"},
	}

	c, err := ResolveCredential(feedURLWithUser, store)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.AuthType != domain.AuthBasic || c.User != "alice" || c.Password != "hunter2" {
		t.Errorf("unexpected credential %+v", c)
	}
}

func TestResolveCredential_BasicMissingPassword(t *testing.T) {
	store := &domain.MockSecretStore{
		Types: map[string]domain.AuthType{feedURLWithUser: domain.AuthBasic},
	}

	_, err := ResolveCredential(feedURLWithUser, store)
	var merr *domain.MissingCredentialError
	if !errors.As(err, &merr) {
		t.Fatalf("expected MissingCredentialError, got %v", err)
	}
	if merr.AuthType != domain.AuthBasic {
		t.Errorf("unexpected auth type in error: %s", merr.AuthType)
	}
}

func TestResolveCredential_BasicWithoutUserInURL(t *testing.T) {
	store := &domain.MockSecretStore{
		Types:     map[string]domain.AuthType{feedURL: domain.AuthBasic},
		Passwords: map[string]string{feedURL: "hunter2"},
	}

	c, err := ResolveCredential(feedURL, store)
	if err != nil {
		t.Fatalf("a URL without user-info must not be an error: %v", err)
	}
	if !c.IsEmpty() {
		t.Errorf("expected empty credential, got %+v", c)
	}
}

func TestResolveCredential_Bearer(t *testing.T) {
	store := &domain.MockSecretStore{
		Types:  map[string]domain.AuthType{feedURL: domain.AuthBearer},
		Tokens: map[string]string{feedURL: "tok-123"},
	}

	c, err := ResolveCredential(feedURL, store)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.AuthType != domain.AuthBearer || c.BearerToken != "tok-123" {
		t.Errorf("unexpected credential %+v", c)
	}
}

func TestResolveCredential_BearerMissingToken(t *testing.T) {
	store := &domain.MockSecretStore{
		Types: map[string]domain.AuthType{feedURL: domain.AuthBearer},
	}

	_, err := ResolveCredential(feedURL, store)
	var merr *domain.MissingCredentialError
	if !errors.As(err, &merr) {
		t.Fatalf("expected MissingCredentialError, got %v", err)
	}
}
