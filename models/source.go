package models

import (
	"fmt"
	"net/url"
)

// Source is a configured external content provider. It is immutable for the
// duration of a discovery run.
type Source struct {
	// ID is the stable identifier, e.g. "screen_australia".
	ID string `json:"id" yaml:"id"`

	// BaseURL is the scheme and host every endpoint is resolved against.
	BaseURL string `json:"url" yaml:"url"`

	// Endpoints are visited in order, one after another.
	Endpoints []string `json:"endpoints" yaml:"endpoints"`

	// Description is a human-readable summary of the provider.
	Description string `json:"description" yaml:"description"`

	// Disabled sources are listed but never crawled.
	Disabled bool `json:"-" yaml:"disabled"`
}

// Enabled reports whether the source takes part in discovery runs.
func (s Source) Enabled() bool { return !s.Disabled }

// EndpointURL resolves an endpoint path against the source's base address.
func (s Source) EndpointURL(endpoint string) (string, error) {
	base, err := url.Parse(s.BaseURL)
	if err != nil {
		return "", fmt.Errorf("source %s: parse base url: %w", s.ID, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return "", fmt.Errorf("source %s: base url %q is not absolute", s.ID, s.BaseURL)
	}
	ref, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("source %s: parse endpoint %q: %w", s.ID, endpoint, err)
	}
	return base.ResolveReference(ref).String(), nil
}
