package http

import (
	"net/http"
	"net/url"

	"github.com/m-mizutani/goerr/v2"

	"github.com/neuro86/neuro86/pkg/utils/errutil"
)

// discourseSSOHandler answers the forum's Discourse Connect handshake. The
// forum redirects the browser here with a signed payload; the response
// redirects back with the signed identity of the session's user. Only
// authenticated users may cross into the forum.
func (s *Server) discourseSSOHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		payload := r.URL.Query().Get("sso")
		sig := r.URL.Query().Get("sig")
		if payload == "" || sig == "" {
			errutil.HandleHTTP(ctx, w, goerr.New("missing sso payload"), http.StatusBadRequest)
			return
		}

		incoming, err := s.discourseSvc.Decode(payload, sig)
		if err != nil {
			errutil.HandleHTTP(ctx, w, err, http.StatusBadRequest)
			return
		}

		nonce := incoming.Get("nonce")
		returnURL := incoming.Get("return_sso_url")
		if nonce == "" || returnURL == "" {
			errutil.HandleHTTP(ctx, w, goerr.New("incomplete sso payload"), http.StatusBadRequest)
			return
		}

		sessionToken := sessionTokenFromCookie(r)
		if sessionToken == "" {
			errutil.HandleHTTP(ctx, w, goerr.New("authentication required"), http.StatusUnauthorized)
			return
		}
		user, err := s.uc.Identity.Lookup(ctx, sessionToken)
		if err != nil || user.IsAnonymous() {
			errutil.HandleHTTP(ctx, w, goerr.New("authentication required"), http.StatusUnauthorized)
			return
		}

		outgoing := url.Values{}
		outgoing.Set("nonce", nonce)
		outgoing.Set("external_id", user.Subject)
		outgoing.Set("username", user.DisplayName)
		outgoing.Set("name", user.DisplayName)

		respPayload, respSig := s.discourseSvc.Encode(outgoing)

		redirect, err := url.Parse(returnURL)
		if err != nil {
			errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "invalid return URL"), http.StatusBadRequest)
			return
		}
		q := redirect.Query()
		q.Set("sso", respPayload)
		q.Set("sig", respSig)
		redirect.RawQuery = q.Encode()

		http.Redirect(w, r, redirect.String(), http.StatusFound)
	}
}
