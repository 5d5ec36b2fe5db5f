// Package actor identifies the company account performing an action.
//
// The auth middleware attaches an Actor for token-bearing requests.
// Unauthenticated calls to the action endpoint run without one and are
// recorded as the system actor.
package actor

import (
	"context"
	"fmt"
	"strconv"
)

// Actor represents the account performing an action in the system.
type Actor struct {
	// CompanyID is the id of the authenticated company account
	CompanyID int64 `json:"company_id"`

	// Name is the company display name
	Name string `json:"name"`

	// Email is the login email of the account
	Email string `json:"email"`
}

// String returns a string representation of the actor for logging
func (a *Actor) String() string {
	if a.IsSystem() {
		return "system"
	}
	return fmt.Sprintf("%s (%s)", a.Name, a.Email)
}

// AuditID is the value stored in created_by columns
func (a *Actor) AuditID() string {
	if a.IsSystem() {
		return "system"
	}
	return "company:" + strconv.FormatInt(a.CompanyID, 10)
}

// contextKey is the type for context keys to avoid collisions
type contextKey string

const actorContextKey contextKey = "actor"

// FromContext retrieves the Actor from the context.
// Returns nil if no actor is present.
func FromContext(ctx context.Context) *Actor {
	if ctx == nil {
		return nil
	}
	a, ok := ctx.Value(actorContextKey).(*Actor)
	if !ok {
		return nil
	}
	return a
}

// WithActor returns a new context with the Actor attached.
func WithActor(ctx context.Context, a *Actor) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, actorContextKey, a)
}

// OrSystem returns the actor in ctx, or the system actor when there is none.
func OrSystem(ctx context.Context) *Actor {
	if a := FromContext(ctx); a != nil {
		return a
	}
	return SystemActor()
}

// SystemActor returns an Actor representing the system itself.
// Used for CLI commands and unauthenticated legacy calls.
func SystemActor() *Actor {
	return &Actor{Name: "System", Email: "system@samtime.local"}
}

// IsSystem returns true if the actor represents the system.
func (a *Actor) IsSystem() bool {
	return a == nil || a.CompanyID == 0
}
