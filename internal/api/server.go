package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"pricetracker/internal/models"
)

// PriceReader is the read surface the handlers need from the
// repository layer.
type PriceReader interface {
	ListByInstrument(ctx context.Context, instrument string, limit, offset int) ([]models.PriceSample, error)
	LatestByInstrument(ctx context.Context, instrument string) (*models.PriceSample, error)
	ListByInstrumentAndRange(ctx context.Context, instrument string, start, end *int64) ([]models.PriceSample, error)
}

type Server struct {
	pool       *pgxpool.Pool
	prices     PriceReader
	httpServer *http.Server
}

func NewServer(pool *pgxpool.Pool, prices PriceReader, port int, corsOrigin string) *Server {
	s := &Server{
		pool:   pool,
		prices: prices,
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/prices/all", s.handleListAll)
	mux.HandleFunc("GET /api/prices/latest", s.handleLatest)
	mux.HandleFunc("GET /api/prices/filter", s.handleFilter)

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /{$}", s.handleRoot)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      corsMiddleware(mux, corsOrigin),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	return s
}

func (s *Server) Start() error {
	fmt.Printf("[API] REST API server started on http://localhost%s\n", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// --- middleware ---

func corsMiddleware(next http.Handler, allowOrigin string) http.Handler {
	if allowOrigin == "" {
		allowOrigin = "*"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", allowOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// --- response helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
