// Package ratelimit counts requests per key in fixed windows.
package ratelimit

import (
	"context"
	"time"
)

// Policy is a request budget per window.
type Policy struct {
	Name   string
	Max    int
	Window time.Duration
}

var (
	General       = Policy{Name: "general", Max: 100, Window: 15 * time.Minute}
	Auth          = Policy{Name: "auth", Max: 100, Window: 15 * time.Minute}
	CreateComment = Policy{Name: "create", Max: 100, Window: 5 * time.Minute}
	Vote          = Policy{Name: "vote", Max: 100, Window: 5 * time.Minute}
	Modify        = Policy{Name: "modify", Max: 100, Window: 10 * time.Minute}
)

type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	// ResetIn is the time left in the current window.
	ResetIn time.Duration
}

type Limiter interface {
	Allow(ctx context.Context, p Policy, key string) (Decision, error)
}

func decide(p Policy, count int64, resetIn time.Duration) Decision {
	remaining := p.Max - int(count)
	if remaining < 0 {
		remaining = 0
	}
	if resetIn < 0 {
		resetIn = 0
	}
	return Decision{
		Allowed:   count <= int64(p.Max),
		Limit:     p.Max,
		Remaining: remaining,
		ResetIn:   resetIn,
	}
}
