package api

import (
	"encoding/json"
	"net/http"

	"github.com/fankeji/debtbook/internal/app/signature"
)

type strokesRequest struct {
	Origin  *signature.Point    `json:"origin,omitempty"`
	Strokes [][]signature.Point `json:"strokes"`
}

// handleSignatureStrokes replays pointer strokes onto the server-side
// signature pad and snapshots the result. Strokes accumulate across
// calls until the pad is cleared; the returned data URI is what the
// render endpoint accepts as the signature field.
func (s *Server) handleSignatureStrokes(w http.ResponseWriter, r *http.Request) {
	var req strokesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Strokes) == 0 {
		writeError(w, http.StatusBadRequest, "strokes is required")
		return
	}
	if req.Origin != nil {
		s.pad.SetOrigin(req.Origin.X, req.Origin.Y)
	}

	for _, stroke := range req.Strokes {
		if len(stroke) == 0 {
			continue
		}
		s.pad.Begin(stroke[0])
		for _, pt := range stroke[1:] {
			s.pad.Extend(pt)
		}
		if _, err := s.pad.End(); err != nil {
			s.log.Error().Err(err).Msg("snapshot signature")
			writeError(w, http.StatusInternalServerError, "签名保存失败")
			return
		}
	}

	uri, ok := s.pad.DataURI()
	if !ok {
		writeError(w, http.StatusBadRequest, "strokes produced no signature")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"dataUri": uri})
}

// handleSignatureGet returns the current signature as a data URI.
func (s *Server) handleSignatureGet(w http.ResponseWriter, r *http.Request) {
	uri, ok := s.pad.DataURI()
	if !ok {
		writeError(w, http.StatusNotFound, "尚未签名")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"dataUri": uri})
}

// handleSignatureClear wipes the pad.
func (s *Server) handleSignatureClear(w http.ResponseWriter, r *http.Request) {
	s.pad.Clear()
	w.WriteHeader(http.StatusNoContent)
}
