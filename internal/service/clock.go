package service

import (
	"time"

	"github.com/google/uuid"
)

// Clock supplies wall-clock time.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the real clock in UTC.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// IDGenerator mints artifact identifiers.
type IDGenerator interface {
	NewID() string
}

// UUIDGenerator returns random v4 UUIDs.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID() string { return uuid.NewString() }
