package api

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/studiofoundry/intake/internal/catalog"
	"github.com/studiofoundry/intake/internal/middleware"
	"github.com/studiofoundry/intake/internal/services"
)

// Router wires the HTTP surface to the services. Recipient-facing routes
// (fetch form, funnel, direct submission post) are public; everything the
// builder UI touches sits behind the operator session cookie.
type Router struct {
	cat     *catalog.Catalog
	session *middleware.SessionAuth
	auth    *services.AuthService
	forms   *services.FormService
	subs    *services.SubmissionService
	funnels *funnelRegistry
	log     zerolog.Logger
}

func NewRouter(cat *catalog.Catalog, session *middleware.SessionAuth, auth *services.AuthService,
	forms *services.FormService, subs *services.SubmissionService, log zerolog.Logger) *Router {
	return &Router{
		cat:     cat,
		session: session,
		auth:    auth,
		forms:   forms,
		subs:    subs,
		funnels: newFunnelRegistry(),
		log:     log,
	}
}

func (rt *Router) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/auth/login", rt.handleLogin)    // POST
	mux.HandleFunc("/api/auth/check", rt.handleCheck)    // GET
	mux.HandleFunc("/api/auth/logout", rt.handleLogout)  // POST

	mux.HandleFunc("/api/catalog", rt.handleCatalog)                     // GET
	mux.HandleFunc("/api/catalog/categories", rt.handleCategories)      // GET

	mux.HandleFunc("/api/forms/store", rt.handleFormStore)              // POST/GET/DELETE
	mux.HandleFunc("/api/forms/list", rt.requireOperator(rt.handleFormList)) // GET
	mux.HandleFunc("/api/forms/resolve", rt.handleFormResolve)          // GET (legacy inline definitions)

	mux.HandleFunc("/api/forms/submissions", rt.handleSubmissions)      // POST public, GET gated
	mux.HandleFunc("/api/forms/deadletters", rt.requireOperator(rt.handleDeadLetters))          // GET
	mux.HandleFunc("/api/forms/deadletters/retry", rt.requireOperator(rt.handleDeadLetterRetry)) // POST

	mux.HandleFunc("/api/funnel/start", rt.handleFunnelStart)   // POST
	mux.HandleFunc("/api/funnel/answer", rt.handleFunnelAnswer) // POST
	mux.HandleFunc("/api/funnel/toggle", rt.handleFunnelToggle) // POST
	mux.HandleFunc("/api/funnel/next", rt.handleFunnelNext)     // POST
	mux.HandleFunc("/api/funnel/back", rt.handleFunnelBack)     // POST
	mux.HandleFunc("/api/funnel/submit", rt.handleFunnelSubmit) // POST
}

func (rt *Router) requireOperator(h http.HandlerFunc) http.HandlerFunc {
	return rt.session.RequireOperator(h)
}
