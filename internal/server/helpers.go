package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/cwbudde/blocksad/internal/cpu"
	"github.com/cwbudde/blocksad/internal/sad"
)

// writeJSON encodes v with the given status code
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// SadRequest asks for one kernel evaluation. Buffers travel as base64, the
// encoding encoding/json uses for byte slices.
type SadRequest struct {
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	Src        []byte `json:"src"`
	SrcStride  int    `json:"srcStride"`
	Ref        []byte `json:"ref"`
	RefStride  int    `json:"refStride"`
	SecondPred []byte `json:"secondPred,omitempty"`
	Strategy   string `json:"strategy,omitempty"` // fused, pairwise, reference; default active
}

// SadResponse is the result of a SadRequest
type SadResponse struct {
	Sad      uint32 `json:"sad"`
	Compound bool   `json:"compound"`
	Strategy string `json:"strategy"`
	Size     string `json:"size"`
}

// handleSad handles POST /api/v1/sad
func (s *Server) handleSad(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req SadRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	// Strides default to a densely packed block.
	if req.SrcStride == 0 {
		req.SrcStride = req.Width
	}
	if req.RefStride == 0 {
		req.RefStride = req.Width
	}

	compound := req.SecondPred != nil
	predLen := -1
	if compound {
		predLen = len(req.SecondPred)
	}

	// The kernels do not check their inputs, so everything is validated here.
	size := sad.BlockSize{Width: req.Width, Height: req.Height}
	if err := sad.Validate(size, len(req.Src), req.SrcStride, len(req.Ref), req.RefStride, predLen); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	strategy, err := sad.StrategyByName(req.Strategy)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	resp := SadResponse{Compound: compound, Strategy: strategy.Name(), Size: size.String()}
	if compound {
		resp.Sad = strategy.SadAvg(req.Width, req.Height, req.Src, req.SrcStride, req.Ref, req.RefStride, req.SecondPred)
	} else {
		resp.Sad = strategy.Sad(req.Width, req.Height, req.Src, req.SrcStride, req.Ref, req.RefStride)
	}

	writeJSON(w, http.StatusOK, resp)
}

// InfoResponse describes the kernels compiled into this binary
type InfoResponse struct {
	Strategy     string          `json:"strategy"`
	Strategies   []string        `json:"strategies"`
	FusedCapable bool            `json:"fusedCapable"`
	Features     cpu.Features    `json:"features"`
	Catalogue    []sad.BlockSize `json:"catalogue"`
}

// NewInfo collects the build and CPU information
func NewInfo() InfoResponse {
	features := cpu.DetectFeatures()

	names := []string{}
	for _, s := range sad.Strategies() {
		names = append(names, s.Name())
	}

	return InfoResponse{
		Strategy:     sad.Active().Name(),
		Strategies:   names,
		FusedCapable: cpu.SupportsFused(features),
		Features:     features,
		Catalogue:    sad.Catalogue(),
	}
}

// handleInfo handles GET /api/v1/info
func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, NewInfo())
}
