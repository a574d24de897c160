package rest

import (
	"net/http"

	"github.com/brainkit/brainkit-backend/internal/transport/middleware"
)

// RouterDeps holds everything the router needs.
type RouterDeps struct {
	Study  *StudyHandler
	Health *HealthHandler

	// Middleware is applied to every route, outermost first.
	Middleware []middleware.Middleware
}

// NewRouter builds the HTTP routing table. Probes are unauthenticated; the
// study routes rely on the auth middleware having placed the user ID in the
// request context.
func NewRouter(deps RouterDeps) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /live", deps.Health.Live)
	mux.HandleFunc("GET /ready", deps.Health.Ready)
	mux.HandleFunc("GET /health", deps.Health.Health)

	mux.HandleFunc("POST /study/{deckId}/start", deps.Study.Start)
	mux.HandleFunc("GET /study/{deckId}/due", deps.Study.Due)
	mux.HandleFunc("POST /study/review", deps.Study.Review)
	mux.HandleFunc("POST /study/complete", deps.Study.Complete)
	mux.HandleFunc("GET /study/cards/{cardId}/history", deps.Study.History)

	return middleware.Chain(deps.Middleware...)(mux)
}
