package api

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/irkeyd/irkeyd/internal/remotes"
)

// createRequest is the body for remote and keymap creation.
type createRequest struct {
	Name string `json:"name"`
}

// remoteResponse is the JSON rendering of a remote and its keymaps.
type remoteResponse struct {
	Name         string   `json:"name"`
	EndpointPath string   `json:"endpoint_path"`
	Keymaps      []string `json:"keymaps"`
}

func (s *Server) remoteResponseFor(name string) (remoteResponse, error) {
	info, err := s.registry.RemoteInfo(name)
	if err != nil {
		return remoteResponse{}, err
	}
	keymaps, err := s.registry.KeymapNames(name)
	if err != nil {
		return remoteResponse{}, err
	}
	return remoteResponse{
		Name:         info.Name,
		EndpointPath: info.EndpointPath,
		Keymaps:      keymaps,
	}, nil
}

// handleListRemotes returns the names of all registered remotes.
func (s *Server) handleListRemotes(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"remotes": s.registry.RemoteNames(),
	})
}

// handleCreateRemote creates a remote and its virtual input endpoint.
func (s *Server) handleCreateRemote(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Name == "" {
		writeBadRequest(w, "name is required")
		return
	}

	if err := s.registry.CreateRemote(req.Name); err != nil {
		writeRegistryError(w, err)
		return
	}

	resp, err := s.remoteResponseFor(req.Name)
	if err != nil {
		writeRegistryError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

// handleGetRemote returns a remote with its endpoint path and keymap names.
func (s *Server) handleGetRemote(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "remote")

	resp, err := s.remoteResponseFor(name)
	if err != nil {
		writeRegistryError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleDeleteRemote removes a remote, destroying its endpoint and keymaps.
func (s *Server) handleDeleteRemote(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "remote")

	if err := s.registry.RemoveRemote(name); err != nil {
		writeRegistryError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleGetRemoteAttr returns a read-only remote attribute as text/plain.
func (s *Server) handleGetRemoteAttr(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "remote")
	attr := chi.URLParam(r, "attr")

	value, err := s.registry.RemoteAttr(name, attr)
	if err != nil {
		writeRegistryError(w, err)
		return
	}

	writeAttr(w, value)
}

// writeAttr writes an attribute value as text/plain with a trailing newline,
// mirroring a filesystem-style attribute read.
func writeAttr(w http.ResponseWriter, value string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	//nolint:errcheck // Best-effort write to response
	w.Write([]byte(value + "\n"))
}

// keymapResponse is the JSON rendering of a keymap entry.
type keymapResponse struct {
	Name     string `json:"name"`
	Protocol int32  `json:"protocol"`
	Device   int32  `json:"device"`
	Command  int32  `json:"command"`
	Keycode  int32  `json:"keycode"`
	Assigned bool   `json:"assigned"`
}

func toKeymapResponse(km remotes.Keymap) keymapResponse {
	return keymapResponse{
		Name:     km.Name,
		Protocol: km.Protocol,
		Device:   km.Device,
		Command:  km.Command,
		Keycode:  km.Keycode,
		Assigned: km.Assigned(),
	}
}

// handleListKeymaps returns the keymap names of a remote.
func (s *Server) handleListKeymaps(w http.ResponseWriter, r *http.Request) {
	remote := chi.URLParam(r, "remote")

	names, err := s.registry.KeymapNames(remote)
	if err != nil {
		writeRegistryError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"keymaps": names,
	})
}

// handleCreateKeymap creates a keymap entry under a remote.
func (s *Server) handleCreateKeymap(w http.ResponseWriter, r *http.Request) {
	remote := chi.URLParam(r, "remote")

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Name == "" {
		writeBadRequest(w, "name is required")
		return
	}

	if err := s.registry.CreateKeymap(remote, req.Name); err != nil {
		writeRegistryError(w, err)
		return
	}

	km, err := s.registry.GetKeymap(remote, req.Name)
	if err != nil {
		writeRegistryError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toKeymapResponse(km))
}

// handleGetKeymap returns a keymap entry.
func (s *Server) handleGetKeymap(w http.ResponseWriter, r *http.Request) {
	remote := chi.URLParam(r, "remote")
	name := chi.URLParam(r, "keymap")

	km, err := s.registry.GetKeymap(remote, name)
	if err != nil {
		writeRegistryError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toKeymapResponse(km))
}

// handleDeleteKeymap removes a keymap entry, releasing its key reservation.
func (s *Server) handleDeleteKeymap(w http.ResponseWriter, r *http.Request) {
	remote := chi.URLParam(r, "remote")
	name := chi.URLParam(r, "keymap")

	if err := s.registry.RemoveKeymap(remote, name); err != nil {
		writeRegistryError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleGetKeymapAttr returns a single keymap attribute as text/plain.
func (s *Server) handleGetKeymapAttr(w http.ResponseWriter, r *http.Request) {
	remote := chi.URLParam(r, "remote")
	name := chi.URLParam(r, "keymap")
	attr := chi.URLParam(r, "attr")

	value, err := s.registry.KeymapAttr(remote, name, attr)
	if err != nil {
		writeRegistryError(w, err)
		return
	}

	writeAttr(w, value)
}

// maxAttrBodySize bounds attribute writes; values are short decimal strings.
const maxAttrBodySize = 64

// handleSetKeymapAttr writes a single keymap attribute from a text/plain body.
func (s *Server) handleSetKeymapAttr(w http.ResponseWriter, r *http.Request) {
	remote := chi.URLParam(r, "remote")
	name := chi.URLParam(r, "keymap")
	attr := chi.URLParam(r, "attr")

	body, err := io.ReadAll(io.LimitReader(r.Body, maxAttrBodySize))
	if err != nil {
		writeBadRequest(w, "failed to read request body")
		return
	}

	if err := s.registry.SetKeymapAttr(remote, name, attr, string(body)); err != nil {
		writeRegistryError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
