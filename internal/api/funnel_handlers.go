package api

import (
	"net/http"

	"github.com/studiofoundry/intake/internal/services"
)

// POST /api/funnel/start — begin a wizard session over a stored form
// (formId) or a legacy inline definition (data, base64 JSON).
func (rt *Router) handleFunnelStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req struct {
		FormID  string `json:"formId"`
		Data    string `json:"data"`
		PageURL string `json:"pageUrl"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	var (
		def    services.FormDefinition
		formID string
	)
	switch {
	case req.FormID != "":
		form, err := rt.forms.Fetch(req.FormID)
		if err != nil {
			writeError(w, err)
			return
		}
		def = form.Definition()
		formID = form.ID
	case req.Data != "":
		decoded, err := services.DecodeLegacy(req.Data)
		if err != nil {
			writeError(w, err)
			return
		}
		def = decoded
	default:
		writeError(w, services.NewInvalidError("formId or data required"))
		return
	}

	pageURL := req.PageURL
	if pageURL == "" && formID != "" {
		pageURL = rt.forms.ShareURL(formID)
	}
	funnel, err := services.NewFunnel(def, formID, pageURL)
	if err != nil {
		writeError(w, err)
		return
	}
	sessionID := rt.funnels.create(funnel)
	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"sessionId": sessionID,
		"title":     def.Title,
		"step":      funnel.Current(),
	})
}

func (rt *Router) funnelFor(w http.ResponseWriter, sessionID string) (*services.Funnel, bool) {
	if sessionID == "" {
		writeError(w, services.NewInvalidError("sessionId required"))
		return nil, false
	}
	funnel, ok := rt.funnels.get(sessionID)
	if !ok {
		writeError(w, services.NewNotFoundError("session not found or expired"))
		return nil, false
	}
	return funnel, true
}

// POST /api/funnel/answer — answer the current step and advance.
func (rt *Router) handleFunnelAnswer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req struct {
		SessionID string `json:"sessionId"`
		Value     string `json:"value"`
		Specify   string `json:"specify"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	funnel, ok := rt.funnelFor(w, req.SessionID)
	if !ok {
		return
	}
	step, err := funnel.Answer(req.Value, req.Specify)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "step": step})
}

// POST /api/funnel/toggle — flip a pending option on a multi-select step.
func (rt *Router) handleFunnelToggle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req struct {
		SessionID string `json:"sessionId"`
		Option    string `json:"option"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	funnel, ok := rt.funnelFor(w, req.SessionID)
	if !ok {
		return
	}
	step, err := funnel.Toggle(req.Option)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "step": step})
}

// POST /api/funnel/next — record the pending multi-select set and advance.
func (rt *Router) handleFunnelNext(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req struct {
		SessionID string `json:"sessionId"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	funnel, ok := rt.funnelFor(w, req.SessionID)
	if !ok {
		return
	}
	step, err := funnel.Next()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "step": step})
}

// POST /api/funnel/back — move one step earlier.
func (rt *Router) handleFunnelBack(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req struct {
		SessionID string `json:"sessionId"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	funnel, ok := rt.funnelFor(w, req.SessionID)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "step": funnel.Back()})
}

// POST /api/funnel/submit — final fan-out from the contact step.
func (rt *Router) handleFunnelSubmit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req struct {
		SessionID string               `json:"sessionId"`
		Contact   services.ContactInfo `json:"contact"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	funnel, ok := rt.funnelFor(w, req.SessionID)
	if !ok {
		return
	}
	sub, err := rt.subs.Submit(r.Context(), funnel, req.Contact)
	if err != nil {
		writeError(w, err)
		return
	}
	rt.funnels.remove(req.SessionID)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "submissionId": sub.ID})
}
