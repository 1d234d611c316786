// Package remote implements the optional remote secondary tier: a REST
// key-value service shared across instances, used as a warm cache only.
package remote

import (
	"context"
	"errors"
	"time"

	"github.com/krisalay/tiered-cache/types"
)

var (
	// ErrDisabled is returned by Disabled for every call.
	ErrDisabled = errors.New("remote: tier disabled")

	// ErrStatus is returned when the service answers with a non-2xx status.
	ErrStatus = errors.New("remote: unexpected status")

	// ErrMalformed is returned when a response body cannot be decoded.
	ErrMalformed = errors.New("remote: malformed response")
)

// Options selects and configures the tier.
type Options struct {
	Enabled bool
	URL     string
	Token   string

	// Timeout bounds every request made by the REST client.
	Timeout time.Duration
}

// Configured reports whether the tier can be used: the flag is on and both URL and token are set.
func (o Options) Configured() bool {
	return o.Enabled && o.URL != "" && o.Token != ""
}

// New picks the tier implementation once. The cache never checks for
// configuration again after this.
func New(o Options) types.Tier {
	if !o.Configured() {
		return Disabled{}
	}
	return NewREST(o)
}

// Disabled is the tier used when the remote store is not configured.
type Disabled struct{}

func (Disabled) Load(context.Context, string) (any, bool, error) {
	return nil, false, ErrDisabled
}

func (Disabled) Store(context.Context, string, any, time.Duration) error {
	return ErrDisabled
}

func (Disabled) Enabled() bool { return false }
