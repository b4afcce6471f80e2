package rpc

import (
	"crypto/subtle"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"blueberry/core/events"
	"blueberry/native/garden"
	"blueberry/native/rfq"
	"blueberry/observability/metrics"
)

const (
	jsonRPCVersion  = "2.0"
	maxRequestBytes = 1 << 20 // 1 MiB
	rateLimitWindow = time.Minute
	maxTxPerWindow  = 60
)

const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeUnauthorized   = -32001
	codeServerError    = -32000
	codeRejected       = -32010
	codeRateLimited    = -32020
)

// AuthTokenEnv names the environment variable carrying the bearer token
// required for mutating methods. When unset, mutating methods are open
// (dev mode).
const AuthTokenEnv = "BLUEBERRY_RPC_TOKEN"

type rateLimiter struct {
	count       int
	windowStart time.Time
}

// Server exposes the protocol surface over JSON-RPC 2.0 plus a WebSocket
// event stream. Governance and market operations are routed to the garden
// facade; RFQ operations to the executor.
type Server struct {
	garden    *garden.Garden
	executor  *rfq.Executor
	hub       *events.Hub
	logger    *slog.Logger
	metrics   *metrics.GardenMetrics
	authToken string

	mu           sync.Mutex
	rateLimiters map[string]*rateLimiter
}

// NewServer wires the RPC server over the protocol components. The mutating
// method auth token is read from the environment.
func NewServer(g *garden.Garden, x *rfq.Executor, hub *events.Hub, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		garden:       g,
		executor:     x,
		hub:          hub,
		logger:       logger,
		metrics:      metrics.Garden(),
		authToken:    strings.TrimSpace(os.Getenv(AuthTokenEnv)),
		rateLimiters: make(map[string]*rateLimiter),
	}
}

// Handler returns the HTTP handler serving the RPC endpoint and the event
// stream.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handle)
	mux.HandleFunc("/ws/events", s.handleEventsWS)
	return mux
}

// Start serves the RPC surface on the provided address until the listener
// fails.
func (s *Server) Start(addr string) error {
	s.logger.Info("starting JSON-RPC server", slog.String("addr", addr))
	server := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return server.ListenAndServe()
}

type RPCRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
	ID      int               `json:"id"`
}

type RPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func writeError(w http.ResponseWriter, status int, id interface{}, code int, message string, data interface{}) {
	if status <= 0 {
		status = http.StatusBadRequest
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	errObj := &RPCError{Code: code, Message: message}
	if data != nil {
		errObj.Data = data
	}
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Error: errObj}
	_ = json.NewEncoder(w).Encode(resp)
}

func writeResult(w http.ResponseWriter, id interface{}, result interface{}) {
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Result: result}
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, nil, codeInvalidRequest, "POST required", nil)
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBytes+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "unable to read request body", nil)
		return
	}
	if len(body) > maxRequestBytes {
		writeError(w, http.StatusRequestEntityTooLarge, nil, codeInvalidRequest, "request body too large", nil)
		return
	}
	var req RPCRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "invalid JSON-RPC request", err.Error())
		return
	}
	if req.JSONRPC != "" && req.JSONRPC != jsonRPCVersion {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "unsupported JSON-RPC version", nil)
		return
	}
	w.Header().Set("Content-Type", "application/json")

	switch req.Method {
	// --- Garden mutating surface ---
	case "garden_lend":
		if !s.authorizeMutation(w, r, &req) {
			return
		}
		s.handleGardenLend(w, r, &req)
	case "garden_redeem":
		if !s.authorizeMutation(w, r, &req) {
			return
		}
		s.handleGardenRedeem(w, r, &req)
	case "garden_addMarket":
		if !s.authorizeMutation(w, r, &req) {
			return
		}
		s.handleGardenAddMarket(w, r, &req)
	case "garden_setRole":
		if !s.authorizeMutation(w, r, &req) {
			return
		}
		s.handleGardenSetRole(w, r, &req)
	case "garden_approve":
		if !s.authorizeMutation(w, r, &req) {
			return
		}
		s.handleGardenApprove(w, r, &req)

	// --- Garden queries ---
	case "garden_getRole":
		s.handleGardenGetRole(w, r, &req)
	case "garden_fullAccess":
		s.handleGardenFullAccess(w, r, &req)
	case "garden_getMarket":
		s.handleGardenGetMarket(w, r, &req)
	case "garden_getAsset":
		s.handleGardenGetAsset(w, r, &req)
	case "garden_listMarkets":
		s.handleGardenListMarkets(w, r, &req)
	case "garden_balanceOf":
		s.handleGardenBalanceOf(w, r, &req)
	case "garden_totalSupply":
		s.handleGardenTotalSupply(w, r, &req)

	// --- RFQ mutating surface ---
	case "rfq_mint":
		if !s.authorizeMutation(w, r, &req) {
			return
		}
		s.handleRfqMint(w, r, &req)
	case "rfq_redeem":
		if !s.authorizeMutation(w, r, &req) {
			return
		}
		s.handleRfqRedeem(w, r, &req)
	case "rfq_setRedeemFee":
		if !s.authorizeMutation(w, r, &req) {
			return
		}
		s.handleRfqSetRedeemFee(w, r, &req)
	case "rfq_setCustodian":
		if !s.authorizeMutation(w, r, &req) {
			return
		}
		s.handleRfqSetCustodian(w, r, &req)
	case "rfq_addCollateral":
		if !s.authorizeMutation(w, r, &req) {
			return
		}
		s.handleRfqAddCollateral(w, r, &req)
	case "rfq_removeCollateral":
		if !s.authorizeMutation(w, r, &req) {
			return
		}
		s.handleRfqRemoveCollateral(w, r, &req)

	// --- RFQ queries ---
	case "rfq_getConfig":
		s.handleRfqGetConfig(w, r, &req)
	case "rfq_maxRedeem":
		s.handleRfqMaxRedeem(w, r, &req)

	default:
		writeError(w, http.StatusNotFound, req.ID, codeMethodNotFound, "method not found", req.Method)
	}
}

// authorizeMutation enforces the bearer token (when configured) and the
// per-client mutation rate limit.
func (s *Server) authorizeMutation(w http.ResponseWriter, r *http.Request, req *RPCRequest) bool {
	if s.authToken != "" {
		header := strings.TrimSpace(r.Header.Get("Authorization"))
		const prefix = "Bearer "
		if !strings.HasPrefix(header, prefix) ||
			subtle.ConstantTimeCompare([]byte(strings.TrimSpace(header[len(prefix):])), []byte(s.authToken)) != 1 {
			writeError(w, http.StatusUnauthorized, req.ID, codeUnauthorized, "invalid or missing auth token", nil)
			return false
		}
	}
	client := clientKey(r)
	s.mu.Lock()
	limiter, ok := s.rateLimiters[client]
	now := time.Now()
	if !ok || now.Sub(limiter.windowStart) > rateLimitWindow {
		limiter = &rateLimiter{windowStart: now}
		s.rateLimiters[client] = limiter
	}
	limiter.count++
	count := limiter.count
	s.mu.Unlock()
	if count > maxTxPerWindow {
		writeError(w, http.StatusTooManyRequests, req.ID, codeRateLimited, "rate limit exceeded", nil)
		return false
	}
	return true
}

func clientKey(r *http.Request) string {
	host := r.RemoteAddr
	if idx := strings.LastIndex(host, ":"); idx > 0 {
		host = host[:idx]
	}
	return host
}

func singleObjectParam(req *RPCRequest, out interface{}) error {
	if len(req.Params) != 1 {
		return errExpectedObjectParam
	}
	return json.Unmarshal(req.Params[0], out)
}
