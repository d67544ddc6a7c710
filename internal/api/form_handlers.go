package api

import (
	"net/http"

	"github.com/studiofoundry/intake/internal/services"
)

type saveFormRequest struct {
	Title       string                   `json:"title"`
	Description string                   `json:"description"`
	// Questions carries a ready-made definition (the original contract).
	Questions []services.FormQuestion `json:"questions,omitempty"`
	// SelectedQuestionIDs plus Edits is the builder path: the server
	// projects the selection through the catalog instead of trusting the
	// client to assemble the questions itself.
	SelectedQuestionIDs []string                          `json:"selectedQuestionIds,omitempty"`
	Edits               map[string]services.QuestionPatch `json:"edits,omitempty"`
}

// /api/forms/store — POST (operator), GET (public), DELETE (operator)
func (rt *Router) handleFormStore(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		rt.requireOperator(rt.handleFormSave)(w, r)
	case http.MethodGet:
		rt.handleFormFetch(w, r)
	case http.MethodDelete:
		rt.requireOperator(rt.handleFormDelete)(w, r)
	default:
		methodNotAllowed(w)
	}
}

func (rt *Router) handleFormSave(w http.ResponseWriter, r *http.Request) {
	var req saveFormRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	def := services.FormDefinition{
		Title:       req.Title,
		Description: req.Description,
		Questions:   req.Questions,
	}
	if len(req.Questions) == 0 && len(req.SelectedQuestionIDs) > 0 {
		built, err := rt.buildDefinition(req)
		if err != nil {
			writeError(w, err)
			return
		}
		def = built
	}
	form, err := rt.forms.Save(def)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"id":      form.ID,
		"url":     rt.forms.ShareURL(form.ID),
	})
}

func (rt *Router) buildDefinition(req saveFormRequest) (services.FormDefinition, error) {
	b := services.NewBuilder(rt.cat)
	b.SetTitle(req.Title)
	b.SetDescription(req.Description)
	for _, id := range req.SelectedQuestionIDs {
		if err := b.Select(id); err != nil {
			return services.FormDefinition{}, err
		}
	}
	for id, patch := range req.Edits {
		if err := b.EditQuestion(id, patch); err != nil {
			return services.FormDefinition{}, err
		}
	}
	return b.Build()
}

func (rt *Router) handleFormFetch(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		writeError(w, services.NewInvalidError("id required"))
		return
	}
	form, err := rt.forms.Fetch(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": form})
}

func (rt *Router) handleFormDelete(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		writeError(w, services.NewInvalidError("id required"))
		return
	}
	removed, err := rt.forms.Remove(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "submissionsDeleted": removed})
}

// GET /api/forms/list?limit=
func (rt *Router) handleFormList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	limit := queryInt(r, "limit", 20)
	forms, err := rt.forms.List(limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "forms": forms, "count": len(forms)})
}

// GET /api/forms/resolve?d= — legacy links carrying the whole definition as
// base64 JSON instead of a stored id.
func (rt *Router) handleFormResolve(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	def, err := services.DecodeLegacy(r.URL.Query().Get("d"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": def})
}
