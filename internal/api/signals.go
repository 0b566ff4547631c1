package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/irkeyd/irkeyd/internal/audit"
	"github.com/irkeyd/irkeyd/internal/receiver"
)

// translateRequest is the body for manual signal injection.
type translateRequest struct {
	Protocol *int32 `json:"protocol"`
	Device   *int32 `json:"device"`
	Command  *int32 `json:"command"`
}

// handleTranslate runs an injected signal through the translation pipeline
// and returns the resulting event, including any emitted keys.
func (s *Server) handleTranslate(w http.ResponseWriter, r *http.Request) {
	if s.injector == nil {
		writeError(w, http.StatusServiceUnavailable, ErrCodeValidation, "signal injection is not available")
		return
	}

	var req translateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Protocol == nil || req.Device == nil || req.Command == nil {
		writeBadRequest(w, "protocol, device, and command are required")
		return
	}
	if *req.Protocol < 0 || *req.Device < 0 || *req.Command < 0 {
		writeBadRequest(w, "protocol, device, and command must be non-negative")
		return
	}

	event := s.injector.Process(receiver.Signal{
		Protocol: *req.Protocol,
		Device:   *req.Device,
		Command:  *req.Command,
	}, "api")

	writeJSON(w, http.StatusOK, event)
}

// handleListSignals queries the signal log with optional filters.
//
// Query parameters: protocol, device, command, matched, source, limit, offset.
func (s *Server) handleListSignals(w http.ResponseWriter, r *http.Request) {
	if s.signalLog == nil {
		writeError(w, http.StatusServiceUnavailable, ErrCodeValidation, "signal log is not available")
		return
	}

	q := r.URL.Query()
	filter := audit.Filter{
		Source: q.Get("source"),
	}

	var err error
	if filter.Protocol, err = parseInt32Param(q.Get("protocol")); err != nil {
		writeBadRequest(w, "invalid protocol parameter")
		return
	}
	if filter.Device, err = parseInt32Param(q.Get("device")); err != nil {
		writeBadRequest(w, "invalid device parameter")
		return
	}
	if filter.Command, err = parseInt32Param(q.Get("command")); err != nil {
		writeBadRequest(w, "invalid command parameter")
		return
	}

	if v := q.Get("matched"); v != "" {
		matched, err := strconv.ParseBool(v)
		if err != nil {
			writeBadRequest(w, "invalid matched parameter")
			return
		}
		filter.Matched = &matched
	}

	if v := q.Get("limit"); v != "" {
		if filter.Limit, err = strconv.Atoi(v); err != nil {
			writeBadRequest(w, "invalid limit parameter")
			return
		}
	}
	if v := q.Get("offset"); v != "" {
		if filter.Offset, err = strconv.Atoi(v); err != nil {
			writeBadRequest(w, "invalid offset parameter")
			return
		}
	}

	result, err := s.signalLog.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("signal log query failed", "error", err)
		writeInternalError(w, "failed to query signal log")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// parseInt32Param parses an optional non-negative int32 query parameter.
// An empty string returns nil with no error.
func parseInt32Param(v string) (*int32, error) {
	if v == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(v, 10, 32)
	if err != nil || n < 0 {
		if err == nil {
			err = strconv.ErrRange
		}
		return nil, err
	}
	val := int32(n)
	return &val, nil
}
