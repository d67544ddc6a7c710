package api

import (
	"net/http"

	"github.com/studiofoundry/intake/internal/services"
)

// /api/forms/submissions — POST (public, used by the legacy inline-definition
// funnel which stores its own submission), GET (operator read-back)
func (rt *Router) handleSubmissions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		rt.handleSubmissionPost(w, r)
	case http.MethodGet:
		rt.requireOperator(rt.handleSubmissionList)(w, r)
	default:
		methodNotAllowed(w)
	}
}

func (rt *Router) handleSubmissionPost(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FormID          string            `json:"formId"`
		FormTitle       string            `json:"formTitle"`
		FormDescription string            `json:"formDescription"`
		Name            string            `json:"name"`
		Email           string            `json:"email"`
		Phone           string            `json:"phone"`
		Business        string            `json:"business"`
		Answers         map[string]string `json:"answers"`
		PageURL         string            `json:"pageUrl"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	sub, err := rt.subs.Record(&services.Submission{
		FormID:          req.FormID,
		FormTitle:       req.FormTitle,
		FormDescription: req.FormDescription,
		Name:            req.Name,
		Email:           req.Email,
		Phone:           req.Phone,
		Business:        req.Business,
		Answers:         req.Answers,
		PageURL:         req.PageURL,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "submissionId": sub.ID})
}

// GET /api/forms/submissions?formId=&limit=
func (rt *Router) handleSubmissionList(w http.ResponseWriter, r *http.Request) {
	formID := r.URL.Query().Get("formId")
	limit := queryInt(r, "limit", 50)
	subs, err := rt.subs.ListByForm(formID, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "submissions": subs, "count": len(subs)})
}

// GET /api/forms/deadletters
func (rt *Router) handleDeadLetters(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	letters, err := rt.subs.DeadLetters()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "deadLetters": letters, "count": len(letters)})
}

// POST /api/forms/deadletters/retry
func (rt *Router) handleDeadLetterRetry(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req struct {
		ID string `json:"id"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := rt.subs.RetryDeadLetter(req.ID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
