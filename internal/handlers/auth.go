package handlers

import (
	"fmt"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
)

// requireAuth returns the authenticated caller record or an unauthorized
// API error. Every route except the price table and the webhook goes
// through it.
func requireAuth(e *core.RequestEvent) (*core.Record, error) {
	if e.Auth == nil {
		return nil, apis.NewUnauthorizedError("Unauthorized", nil)
	}
	return e.Auth, nil
}

// requireOrganizer loads the caller's profile and checks the organizer
// flag. The fresh load means a revoked organizer loses scan access
// without waiting for token expiry.
func requireOrganizer(app *pocketbase.PocketBase, e *core.RequestEvent) (*core.Record, error) {
	auth, err := requireAuth(e)
	if err != nil {
		return nil, err
	}

	user, err := app.FindRecordById("users", auth.Id)
	if err != nil || !user.GetBool("is_organizer") {
		return nil, apis.NewForbiddenError("Organizer access required", nil)
	}

	return user, nil
}

// callerKey derives the rate-limit identity: user id for authenticated
// callers, real IP otherwise, a sentinel when neither is known.
func callerKey(e *core.RequestEvent) string {
	if e.Auth != nil {
		return fmt.Sprintf("user:%s", e.Auth.Id)
	}
	if ip := e.RealIP(); ip != "" {
		return ip
	}
	return "unknown"
}
