package authenticator

import "net/http"

// Authenticator is the session surface the router depends on.
type Authenticator interface {
	RequireUser(h http.Handler) http.Handler
	IssueSession(response http.ResponseWriter, userID string) error
	DropSession(response http.ResponseWriter)
}
