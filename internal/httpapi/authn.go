package httpapi

import (
	"net/http"

	"caseflow.org/internal/auth"
	"caseflow.org/internal/obs"
)

const (
	authorizationHeader = "Authorization"
	localeHeader        = "Accept-Language"
)

// withAuthn resolves the caller identity for every request. A missing or bad
// credential degrades to an anonymous context, it never rejects the
// request; field-level authorization downstream fails closed on its own.
func (a *API) withAuthn(next http.Handler) http.Handler {
	if a == nil || a.authn == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get(authorizationHeader)
		rc, err := a.authn.Build(r.Context(), header, r.Header.Get(localeHeader))
		if err != nil {
			respondError(w, http.StatusInternalServerError, "authentication error")
			return
		}
		if header != "" {
			obs.TokenVerification(string(auth.PurposeAuthentication), rc.Identity != nil)
		}
		next.ServeHTTP(w, r.WithContext(auth.ContextWithRequest(r.Context(), rc)))
	})
}
