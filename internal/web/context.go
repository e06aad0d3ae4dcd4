package web

import (
	"net/http"

	"github.com/JonMunkholm/payrollx/internal/core"
	mw "github.com/JonMunkholm/payrollx/internal/web/middleware"
)

// withClient returns r's context carrying the client details recorded with
// each run. RemoteAddr has already been resolved by TrustedRealIP.
func withClient(r *http.Request) *http.Request {
	ctx := core.ContextWithClient(r.Context(), core.Client{
		IPAddress: r.RemoteAddr,
		UserAgent: r.UserAgent(),
		APIKeyID:  mw.APIKeyIDFromContext(r.Context()),
	})
	return r.WithContext(ctx)
}
