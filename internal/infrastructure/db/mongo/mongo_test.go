package mongo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/casalinger/session-gateway/internal/core/domain"
)

func TestClientOptions(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		timeout time.Duration
	}{
		{name: "default timeout", cfg: Config{URI: "mongodb://localhost:27017"}, timeout: selectTimeout},
		{name: "configured timeout", cfg: Config{URI: "mongodb://localhost:27017", Timeout: 3 * time.Second}, timeout: 3 * time.Second},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			opts := clientOptions(tc.cfg)
			if opts.AppName == nil || *opts.AppName != appName {
				t.Fatalf("app name = %v, want %q", opts.AppName, appName)
			}
			if *opts.ServerSelectionTimeout != tc.timeout || *opts.ConnectTimeout != tc.timeout {
				t.Fatalf("timeouts = %v/%v, want %v", *opts.ServerSelectionTimeout, *opts.ConnectTimeout, tc.timeout)
			}
		})
	}
}

func TestOpenActorStore_Unreachable(t *testing.T) {
	_, _, err := OpenActorStore(context.Background(), Config{
		URI:      "mongodb://127.0.0.1:1/?directConnection=true",
		Database: "casalinger",
		Timeout:  200 * time.Millisecond,
	}, zerolog.Nop())
	if !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}

func TestOpenActorStore_BadURI(t *testing.T) {
	_, _, err := OpenActorStore(context.Background(), Config{URI: "postgres://nope"}, zerolog.Nop())
	if !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}
