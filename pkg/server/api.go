package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/o1x3/ctoken/pkg/ctoken"
	"github.com/o1x3/ctoken/pkg/pricing"
	"github.com/o1x3/ctoken/pkg/processing/costs"
	"github.com/o1x3/ctoken/pkg/telemetry/logging"
)

// DefaultMaxBodyBytes caps request bodies on the API.
const DefaultMaxBodyBytes = 4 << 20

// API serves the cost, token and pricing endpoints:
//
//	POST /v1/cost            JSON input (see ctoken.ParseInput) or an SSE stream
//	POST /v1/tokens          {"model": "...", "input": <string | message | [message]>}
//	GET  /v1/pricing         the current price table
//	GET  /v1/pricing/resolve ?model=<id>
type API struct {
	client       *ctoken.Client
	logger       *slog.Logger
	maxBodyBytes int64
}

// NewAPI creates the API for client.
func NewAPI(client *ctoken.Client, logger *slog.Logger) *API {
	if logger == nil {
		logger = slog.Default()
	}
	return &API{
		client:       client,
		logger:       logger.With("component", "api"),
		maxBodyBytes: DefaultMaxBodyBytes,
	}
}

// Register adds the API routes to mux.
func (a *API) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/cost", a.handleCost)
	mux.HandleFunc("POST /v1/tokens", a.handleTokens)
	mux.HandleFunc("GET /v1/pricing", a.handlePricing)
	mux.HandleFunc("GET /v1/pricing/resolve", a.handleResolve)
}

// CostResponse is the body of a successful /v1/cost call.
type CostResponse struct {
	TotalCost float64 `json:"total_cost"`

	// Report is set for responses and streams. Its costs are rounded for
	// display; TotalCost matches Report.Breakdown.TotalCost.
	Report *costs.Report `json:"report,omitempty"`
}

func (a *API) handleCost(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, a.maxBodyBytes)

	var (
		in  ctoken.Input
		err error
	)
	if isEventStream(r.Header.Get("Content-Type")) {
		var seq ctoken.ChunkSequence
		seq, err = ctoken.ParseSSE(body)
		in = seq
	} else {
		var data []byte
		data, err = io.ReadAll(body)
		if err != nil {
			writeBadRequest(w, readError(err))
			return
		}
		in, err = ctoken.ParseInput(data)
	}
	if err != nil {
		var mbErr *http.MaxBytesError
		if errors.As(err, &mbErr) {
			writeBadRequest(w, readError(err))
			return
		}
		writeError(w, err)
		return
	}

	res, err := a.client.CalculateContext(r.Context(), in)
	if err != nil {
		a.logger.DebugContext(r.Context(), "cost calculation failed", "error", err)
		writeError(w, err)
		return
	}

	resp := CostResponse{TotalCost: res.Total()}
	if rep, ok := res.(*costs.Report); ok {
		rounded := rep.Rounded()
		resp.TotalCost, resp.Report = rounded.Total(), rounded
	}
	writeJSON(w, http.StatusOK, resp)
}

// TokensRequest is the body of /v1/tokens.
type TokensRequest struct {
	Model string `json:"model"`
	Input any    `json:"input"`
}

// TokensResponse is the body of a successful /v1/tokens call.
type TokensResponse struct {
	Model  string `json:"model"`
	Tokens int    `json:"tokens"`
}

func (a *API) handleTokens(w http.ResponseWriter, r *http.Request) {
	var req TokensRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, a.maxBodyBytes)).Decode(&req); err != nil {
		writeBadRequest(w, readError(err))
		return
	}
	if req.Input == nil {
		writeBadRequest(w, "input is required")
		return
	}

	counter := a.client.Counter()
	if req.Model != "" {
		counter = counter.ForModel(req.Model)
	}
	ctx := logging.WithModel(r.Context(), counter.Model())

	n, err := counter.Count(req.Input)
	if err != nil {
		a.logger.DebugContext(ctx, "token count failed", "error", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, TokensResponse{Model: counter.Model(), Tokens: n})
}

// PricingResponse is the body of /v1/pricing.
type PricingResponse struct {
	Source   string               `json:"source"`
	LoadedAt string               `json:"loaded_at"`
	Entries  []pricing.PriceEntry `json:"entries"`
}

func (a *API) handlePricing(w http.ResponseWriter, r *http.Request) {
	t := a.client.Store().Table()
	meta := t.Metadata()

	writeJSON(w, http.StatusOK, PricingResponse{
		Source:   meta.Source,
		LoadedAt: meta.LoadedAt.UTC().Format("2006-01-02T15:04:05Z"),
		Entries:  t.Entries(),
	})
}

// ResolveResponse is the body of /v1/pricing/resolve.
type ResolveResponse struct {
	Model string             `json:"model"`
	ID    string             `json:"id"`
	Rule  pricing.Rule       `json:"rule"`
	Entry pricing.PriceEntry `json:"entry"`
}

func (a *API) handleResolve(w http.ResponseWriter, r *http.Request) {
	model := strings.TrimSpace(r.URL.Query().Get("model"))
	if model == "" {
		writeBadRequest(w, "model query parameter is required")
		return
	}

	res, ok := a.client.Resolve(model)
	if !ok {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: ErrorDetail{
			Message: "model not found in pricing table",
			Type:    ErrorTypeNotFound,
			Model:   model,
		}})
		return
	}

	writeJSON(w, http.StatusOK, ResolveResponse{
		Model: model,
		ID:    res.Entry.ID(),
		Rule:  res.Rule,
		Entry: res.Entry,
	})
}

func isEventStream(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	return err == nil && mt == "text/event-stream"
}

func readError(err error) string {
	var mbErr *http.MaxBytesError
	if errors.As(err, &mbErr) {
		return "request body too large"
	}
	return "malformed request body: " + err.Error()
}
