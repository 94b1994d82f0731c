package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/satheeshds/driverdesk/lookup"
)

// ListSuggestions searches for candidates of a kind
// @Summary      Search suggestions
// @Description  Autocomplete candidates for the search box. Queries shorter than the configured minimum return an empty list without calling the billing service.
// @Tags         suggestions
// @Produce      json
// @Param        kind    path      string  true   "Suggestion kind, e.g. billing"
// @Param        search  query     string  false  "Search text"
// @Success      200     {object}  Response{data=[]models.Suggestion}
// @Failure      404     {object}  Response{error=string}
// @Failure      502     {object}  Response{error=string}
// @Router       /suggestions/{kind} [get]
// @Security     BearerAuth
func ListSuggestions(w http.ResponseWriter, r *http.Request) {
	template, ok := SuggestionKinds[chi.URLParam(r, "kind")]
	if !ok {
		writeError(w, http.StatusNotFound, "unknown suggestion kind")
		return
	}

	l := lookup.New(Upstream, template, SuggestionMinChars, nil)
	if err := l.Query(r.Context(), r.URL.Query().Get("search")); err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, l.Snapshot().Items)
}
