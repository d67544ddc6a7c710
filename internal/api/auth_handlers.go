package api

import "net/http"

// POST /api/auth/login
func (rt *Router) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	token, err := rt.auth.Login(req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	rt.session.SetCookie(w, token, rt.auth.TokenTTL())
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// GET /api/auth/check
func (rt *Router) handleCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	_, ok := rt.session.Authenticated(r)
	writeJSON(w, http.StatusOK, map[string]any{"authenticated": ok})
}

// POST /api/auth/logout
func (rt *Router) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	rt.session.ClearCookie(w)
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
