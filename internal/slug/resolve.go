// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package slug

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

const (
	// MaxAttempts caps how many candidates Resolve probes.
	MaxAttempts = 1000

	// Fallback is used as the base when the source text yields an empty slug.
	Fallback = "untitled"
)

// ErrExhausted is returned when no free candidate was found within MaxAttempts.
var ErrExhausted = errors.New("could not allocate unique slug")

// ExistsFunc reports whether a record other than excludeID already uses candidate.
type ExistsFunc func(ctx context.Context, candidate string, excludeID *uuid.UUID) (bool, error)

// Resolve returns base if it is free, otherwise the first free "base-N" for
// N = 1, 2, ... It only reads; the caller performs the write, so a storage
// unique constraint remains the source of truth.
func Resolve(ctx context.Context, base string, exists ExistsFunc, excludeID *uuid.UUID) (string, error) {
	if base == "" {
		base = Fallback
	}

	candidate := base
	for n := 1; n <= MaxAttempts; n++ {
		taken, err := exists(ctx, candidate, excludeID)
		if err != nil {
			return "", fmt.Errorf("slug probe %q: %w", candidate, err)
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, n)
	}

	return "", fmt.Errorf("%w: %q after %d attempts", ErrExhausted, base, MaxAttempts)
}
