package vimeo

import (
	"fmt"
	"strings"
)

// AppConfiguration identifies the API app the client acts as. Values are
// immutable and shared between the client and the authentication controller.
type AppConfiguration struct {
	// ClientIdentifier and ClientSecret are the app's API credentials.
	ClientIdentifier string
	ClientSecret     string

	// Scopes is the list of permission scopes requested during
	// authentication.
	Scopes []string

	// RedirectURI receives the code grant callback.
	RedirectURI string

	// BaseURL overrides the API host. Empty means DefaultBaseURL.
	BaseURL string
}

// Validate checks the configuration carries usable app credentials.
func (c AppConfiguration) Validate() error {
	if c.ClientIdentifier == "" {
		return fmt.Errorf("client identifier is required")
	}
	if c.ClientSecret == "" {
		return fmt.Errorf("client secret is required")
	}
	return nil
}

// ScopeString renders the scope list the way the authorization endpoints
// expect it: space-joined.
func (c AppConfiguration) ScopeString() string {
	return strings.Join(c.Scopes, " ")
}
