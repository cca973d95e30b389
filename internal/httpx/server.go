package httpx

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
)

func NewRouter() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	// mayor al timeout de correlacion (30s): la consulta de balance espera
	// la respuesta del hub dentro del request
	r.Use(middleware.Timeout(45 * time.Second))
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return r
}

// RegisterStatus expone /status con un ping a la base.
func RegisterStatus(r *chi.Mux, db *pgxpool.Pool) {
	r.Get("/status", func(w http.ResponseWriter, req *http.Request) {
		var now time.Time
		if err := db.QueryRow(req.Context(), `SELECT NOW()`).Scan(&now); err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]any{
				"message": "error verificando la base de datos",
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"status":    "ok",
			"timestamp": now,
		})
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
