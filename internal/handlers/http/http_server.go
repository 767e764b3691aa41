package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/namay10/DcaVault/internal/app/dto"
	"github.com/namay10/DcaVault/internal/domain/model"
	"github.com/namay10/DcaVault/internal/domain/useCases"
)

// Server represents an HTTP server with all routes configured
type Server struct {
	vaultService useCases.VaultService
	broadcaster  useCases.Broadcaster
	mux          *http.ServeMux
	server       *http.Server
}

// NewServer creates a new HTTP server with configured routes
func NewServer(addr string, vaultService useCases.VaultService, broadcaster useCases.Broadcaster) *Server {
	mux := http.NewServeMux()

	server := &Server{
		vaultService: vaultService,
		broadcaster:  broadcaster,
		mux:          mux,
		server: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}

	server.registerRoutes()

	return server
}

// registerRoutes configures all HTTP routes
func (s *Server) registerRoutes() {
	// Vault lifecycle operations
	s.mux.HandleFunc("/vault/init", s.handleInitialize)
	s.mux.HandleFunc("/vault/swap", s.handleSwap)
	s.mux.HandleFunc("/vault/withdraw", s.handleWithdraw)

	// Queries
	s.mux.HandleFunc("/vault", s.handleGetVault)
	s.mux.HandleFunc("/vaults", s.handleGetAllVaults)

	// Health check endpoint
	s.mux.HandleFunc("/health", s.handleHealth)

	// WebSocket endpoint
	s.mux.HandleFunc("/ws", s.broadcaster.Handler())
}

func (s *Server) handleInitialize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req dto.InitializeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	vault, err := s.vaultService.Initialize(r.Context(), req.Owner, req.Amount, req.Periods, req.IntervalSeconds)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, dto.FromVault(vault))
}

func (s *Server) handleSwap(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req dto.SwapRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	vault, err := s.vaultService.ExecuteSwap(r.Context(), req.Owner, req.Caller, req.UsdcAmount, req.Instruction())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.FromVault(vault))
}

func (s *Server) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req dto.WithdrawRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	withdrawn, fee, err := s.vaultService.Withdraw(r.Context(), req.Owner, req.Caller)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.WithdrawResponse{AmountWithdrawn: withdrawn, FeeCharged: fee})
}

func (s *Server) handleGetVault(w http.ResponseWriter, r *http.Request) {
	owner := r.URL.Query().Get("owner")
	if owner == "" {
		http.Error(w, "missing owner parameter", http.StatusBadRequest)
		return
	}
	vault, err := s.vaultService.GetVault(r.Context(), owner)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.FromVault(vault))
}

func (s *Server) handleGetAllVaults(w http.ResponseWriter, r *http.Request) {
	vaults, err := s.vaultService.GetAllVaults(r.Context())
	if err != nil {
		http.Error(w, "failed to get vaults", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, dto.FromVaults(vaults))
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

// writeDomainError maps the closed vault error set onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	var status int
	switch {
	case errors.Is(err, model.ErrUnauthorized):
		status = http.StatusForbidden
	case errors.Is(err, model.ErrVaultNotFound):
		status = http.StatusNotFound
	case errors.Is(err, model.ErrVaultAlreadyExists):
		status = http.StatusConflict
	case errors.Is(err, model.ErrSwapNotDue):
		status = http.StatusTooEarly
	case errors.Is(err, model.ErrInvalidAmount),
		errors.Is(err, model.ErrInvalidPeriods),
		errors.Is(err, model.ErrInvalidInterval),
		errors.Is(err, model.ErrDcaPlanComplete),
		errors.Is(err, model.ErrInsufficientBalance),
		errors.Is(err, model.ErrInvalidSliceAmount),
		errors.Is(err, model.ErrInvalidJupiterAccounts):
		status = http.StatusBadRequest
	default:
		// Arithmetic overflow or an external swap-service failure
		status = http.StatusInternalServerError
	}
	http.Error(w, err.Error(), status)
}

// Handler exposes the route mux, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start begins listening for HTTP requests
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
