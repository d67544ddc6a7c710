package api

import (
	"net/http"

	"github.com/studiofoundry/intake/internal/catalog"
)

// GET /api/catalog?category=
func (rt *Router) handleCatalog(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	var questions []catalog.Question
	if cat := r.URL.Query().Get("category"); cat != "" {
		questions = rt.cat.ByCategory(cat)
	} else {
		questions = rt.cat.Questions()
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"questions": questions,
		"count":     len(questions),
	})
}

// GET /api/catalog/categories
func (rt *Router) handleCategories(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"categories": catalog.Categories,
	})
}
