// Package services implements the matching, mission and safety engines on
// top of a database.Store.
package services

import (
	"context"
	stderrors "errors"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/odoyewu/odoyewu/internal/database"
	"github.com/odoyewu/odoyewu/internal/errors"
)

type User = database.User
type PublicProfile = database.PublicProfile
type Match = database.Match
type Mission = database.Mission
type Message = database.Message
type Report = database.Report
type BlockedUser = database.BlockedUser

// Clock returns the current time. Services call it once per operation.
type Clock func() time.Time

// SystemClock is the wall clock in UTC
func SystemClock() time.Time {
	return time.Now().UTC()
}

func clockOrDefault(c Clock) Clock {
	if c == nil {
		return SystemClock
	}
	return c
}

// checkID rejects ids that cannot name a row. Ids are UUIDs, so anything
// else is reported as not found rather than reaching the database.
func checkID(id, resource string) error {
	if _, err := uuid.Parse(id); err != nil {
		return errors.NewNotFoundError(resource)
	}
	return nil
}

func validRadius(radius float64) bool {
	return radius > 0 && !math.IsInf(radius, 0)
}

// storeError maps repository sentinels onto AppErrors. resource names the
// entity for not-found responses.
func storeError(operation, resource string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := errors.As(err); ok {
		return err
	}
	switch {
	case stderrors.Is(err, database.ErrNotFound):
		return errors.NewNotFoundError(resource)
	case stderrors.Is(err, database.ErrDuplicate):
		return errors.NewConflictError(resource + " already exists")
	case stderrors.Is(err, context.DeadlineExceeded):
		return errors.NewTimeoutError(operation, err)
	}
	return errors.NewDatabaseError(operation, err)
}

// Recorder receives domain events worth counting
type Recorder interface {
	MatchCreated(ctx context.Context)
	MissionCompleted(ctx context.Context, xp int, leveledUp bool)
	NearbySearched(ctx context.Context, results int)
}

type noopRecorder struct{}

func (noopRecorder) MatchCreated(context.Context)                {}
func (noopRecorder) MissionCompleted(context.Context, int, bool) {}
func (noopRecorder) NearbySearched(context.Context, int)         {}

type options struct {
	now     Clock
	metrics Recorder
}

// Option configures a service
type Option func(*options)

// WithClock replaces the wall clock, mostly for tests
func WithClock(c Clock) Option {
	return func(o *options) { o.now = c }
}

// WithRecorder sends domain events to r
func WithRecorder(r Recorder) Option {
	return func(o *options) { o.metrics = r }
}

func buildOptions(opts []Option) options {
	o := options{now: SystemClock, metrics: noopRecorder{}}
	for _, opt := range opts {
		opt(&o)
	}
	o.now = clockOrDefault(o.now)
	if o.metrics == nil {
		o.metrics = noopRecorder{}
	}
	return o
}
