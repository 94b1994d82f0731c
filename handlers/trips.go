package handlers

import (
	"net/http"
	"time"
)

// GetTripSummary aggregates completed deliveries per driver
// @Summary      Trip tracker summary
// @Description  Deliveries, kilometres and expenses per driver, optionally since a date.
// @Tags         trips
// @Produce      json
// @Param        since  query     string  false  "Only trips completed on or after this date (YYYY-MM-DD or RFC3339)"
// @Success      200    {object}  Response{data=[]triplog.DriverSummary}
// @Failure      400    {object}  Response{error=string}
// @Router       /trips/summary [get]
// @Security     BearerAuth
func GetTripSummary(w http.ResponseWriter, r *http.Request) {
	var since time.Time
	if s := r.URL.Query().Get("since"); s != "" {
		t, err := parseSince(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "since must be YYYY-MM-DD or RFC3339")
			return
		}
		since = t
	}

	summary, err := Trips.Summary(r.Context(), since)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func parseSince(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}
