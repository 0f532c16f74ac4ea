package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"bitscape/internal/config"
	"bitscape/internal/game"
	"bitscape/internal/geom"

	"github.com/go-chi/chi/v5"
)

// inputRequest is the body of POST /api/input.
type inputRequest struct {
	Player      int            `json:"player"`
	Direction   geom.Direction `json:"direction"`
	Attack      bool           `json:"attack"`
	CloseAttack bool           `json:"close_attack"`
	Confirm     bool           `json:"confirm"`
}

func (r inputRequest) input() game.Input {
	return game.Input{
		Direction:   r.Direction,
		Attack:      r.Attack,
		CloseAttack: r.CloseAttack,
		Confirm:     r.Confirm,
	}
}

type confirmationJSON struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}

func (h *routerHandlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

func (h *routerHandlers) handleGetState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.engine.GetSnapshot())
}

func (h *routerHandlers) handleGetConfirmations(w http.ResponseWriter, r *http.Request) {
	pending := h.engine.PendingConfirmations()
	out := make([]confirmationJSON, len(pending))
	for i, c := range pending {
		out[i] = confirmationJSON{Title: c.Title, Text: c.Text}
	}
	writeJSON(w, out)
}

func (h *routerHandlers) handleGetInventory(w http.ResponseWriter, r *http.Request) {
	player, err := strconv.Atoi(chi.URLParam(r, "player"))
	if err != nil || player < 0 || player >= config.MaxPlayers {
		writeError(w, "Invalid player", http.StatusBadRequest)
		return
	}

	writeJSON(w, map[string]interface{}{
		"player": player,
		"items":  h.engine.Inventory().Items(player),
	})
}

func (h *routerHandlers) handleInput(w http.ResponseWriter, r *http.Request) {
	var req inputRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request", http.StatusBadRequest)
		return
	}

	err := h.engine.SetInput(req.Player, req.input())
	if errors.Is(err, game.ErrInvalidPlayer) {
		writeError(w, "Invalid player", http.StatusBadRequest)
		return
	}
	if err != nil {
		writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]bool{"success": true})
}

func (h *routerHandlers) handleCreative(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Enabled bool `json:"enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request", http.StatusBadRequest)
		return
	}

	h.engine.SetCreativeMode(req.Enabled)
	writeJSON(w, map[string]bool{"creative": req.Enabled})
}

func (h *routerHandlers) handleConfirm(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Accept bool `json:"accept"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request", http.StatusBadRequest)
		return
	}

	if !h.engine.Confirm(req.Accept) {
		writeError(w, "Nothing to confirm", http.StatusNotFound)
		return
	}
	writeJSON(w, map[string]bool{"success": true})
}

// Helper functions (package-level for reuse)

func writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
