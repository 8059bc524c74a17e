// orgtoken is a development token issuer. It signs JWTs with the same secret
// as the org chart service so that write routes can be exercised locally.
package main

import (
	"encoding/json"
	"flag"
	"net/http"
	"os"
	"time"

	"github.com/gartstein/orgchart/internal/orgchart/auth"
	"go.uber.org/zap"
)

const (
	defaultAddr   = ":8081"
	defaultSecret = "jwt_secret"
)

// TokenResponse represents the response structure
type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type tokenHandler struct {
	secret string
	ttl    time.Duration
	logger *zap.Logger
}

// ServeHTTP issues a token for the subject query parameter, falling back to
// a fixed development user.
func (h *tokenHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	subject := r.URL.Query().Get("subject")
	if subject == "" {
		subject = "12345"
	}

	token, err := auth.GenerateToken(subject, h.secret, h.ttl)
	if err != nil {
		h.logger.Error("Failed to generate token", zap.Error(err))
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	resp := TokenResponse{Token: token, ExpiresAt: time.Now().Add(h.ttl)}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Warn("Failed to encode token", zap.Error(err))
	}
}

func main() {
	addr := flag.String("addr", defaultAddr, "listen address")
	ttl := flag.Duration("ttl", auth.DefaultTokenTTL, "token lifetime")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = defaultSecret
	}

	mux := http.NewServeMux()
	mux.Handle("/token", &tokenHandler{secret: secret, ttl: *ttl, logger: logger})

	server := &http.Server{Addr: *addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	logger.Info("Token service running", zap.String("addr", *addr))
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("Token service failed", zap.Error(err))
	}
}
