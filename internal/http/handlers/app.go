package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"mediadetect/internal/domain"
)

// Processor stages an upload and runs it through the detection pipeline.
type Processor interface {
	Ingest(ctx context.Context, filename string, src io.Reader) (domain.Result, error)
}

// HealthChecker is implemented by detector backends that can report on a
// dependency they talk to.
type HealthChecker interface {
	CheckHealth(ctx context.Context) error
}

type App struct {
	Pipeline       Processor
	DetectorName   string
	DetectorHealth HealthChecker
	MaxUploadBytes int64
	Logger         zerolog.Logger
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, status int, code, message string) {
	a.json(w, status, map[string]string{"error": message, "code": code})
}
