package handlers

import "net/http"

// Health reports whether the service and its database are reachable
// @Summary      Health check
// @Tags         health
// @Produce      json
// @Success      200  {object}  Response{data=map[string]string}
// @Failure      503  {object}  Response{error=string}
// @Router       /healthz [get]
func Health(w http.ResponseWriter, r *http.Request) {
	if DB != nil {
		if err := DB.PingContext(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "database unreachable")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
