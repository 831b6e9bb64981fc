package handlers

import (
	"context"
	"net/http"
	"time"
)

func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	body := map[string]string{"status": "ok", "detector": a.DetectorName}
	if a.DetectorHealth == nil {
		a.json(w, http.StatusOK, body)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()
	if err := a.DetectorHealth.CheckHealth(ctx); err != nil {
		body["status"] = "degraded"
		body["detail"] = err.Error()
		a.json(w, http.StatusServiceUnavailable, body)
		return
	}
	a.json(w, http.StatusOK, body)
}
