package httpx

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/splax/teamup/internal/domain"
)

func (r *Router) handleDiscover(w http.ResponseWriter, req *http.Request) {
	info, ok := r.caller(w, req)
	if !ok {
		return
	}
	limit, err := queryLimit(req)
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	people, err := r.discovery.Discover(req.Context(), info.UserID, limit)
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"people": people})
}

func (r *Router) handleSearchUsers(w http.ResponseWriter, req *http.Request) {
	info, ok := r.caller(w, req)
	if !ok {
		return
	}
	limit, err := queryLimit(req)
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	people, err := r.discovery.Search(req.Context(), info.UserID, req.URL.Query().Get("q"), limit)
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"people": people})
}

func (r *Router) handleSwipe(w http.ResponseWriter, req *http.Request) {
	info, ok := r.caller(w, req)
	if !ok {
		return
	}
	var body struct {
		SwipeeID string          `json:"swipee_id"`
		Decision domain.Decision `json:"decision"`
	}
	if !decodeJSON(w, req, &body) {
		return
	}
	result, err := r.matches.Swipe(req.Context(), info.UserID, body.SwipeeID, body.Decision)
	r.recordTransition("swipe", err)
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	if result.Matched {
		r.recordTransition("match_create", nil)
	}
	writeJSON(w, http.StatusCreated, result)
}

func (r *Router) handleListMatches(w http.ResponseWriter, req *http.Request) {
	info, ok := r.caller(w, req)
	if !ok {
		return
	}
	views, err := r.matches.ListMatches(req.Context(), info.UserID)
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"matches": views})
}

func (r *Router) handleUnmatch(w http.ResponseWriter, req *http.Request) {
	info, ok := r.caller(w, req)
	if !ok {
		return
	}
	view, err := r.matches.Unmatch(req.Context(), info.UserID, mux.Vars(req)["matchID"])
	r.recordTransition("unmatch", err)
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}
