package httpx

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/splax/teamup/internal/service/event"
	"github.com/splax/teamup/internal/service/team"
)

func (r *Router) handleCreateEvent(w http.ResponseWriter, req *http.Request) {
	info, ok := r.caller(w, req)
	if !ok {
		return
	}
	var input event.CreateInput
	if !decodeJSON(w, req, &input) {
		return
	}
	view, err := r.events.Create(req.Context(), info.UserID, info.Role, input)
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

func (r *Router) handleGetEvent(w http.ResponseWriter, req *http.Request) {
	view, err := r.events.Get(req.Context(), mux.Vars(req)["eventID"])
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (r *Router) handleListEventTeams(w http.ResponseWriter, req *http.Request) {
	views, err := r.teams.ListByEvent(req.Context(), mux.Vars(req)["eventID"])
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"teams": views})
}

func (r *Router) handleCreateTeam(w http.ResponseWriter, req *http.Request) {
	info, ok := r.caller(w, req)
	if !ok {
		return
	}
	var input team.CreateInput
	if !decodeJSON(w, req, &input) {
		return
	}
	input.OwnerID = info.UserID
	view, err := r.teams.Create(req.Context(), input)
	r.recordTransition("team_create", err)
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

func (r *Router) handleListMyTeams(w http.ResponseWriter, req *http.Request) {
	info, ok := r.caller(w, req)
	if !ok {
		return
	}
	views, err := r.teams.ListByUser(req.Context(), info.UserID)
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"teams": views})
}

func (r *Router) handleGetTeam(w http.ResponseWriter, req *http.Request) {
	view, err := r.teams.Get(req.Context(), mux.Vars(req)["teamID"])
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (r *Router) handleDeactivateTeam(w http.ResponseWriter, req *http.Request) {
	info, ok := r.caller(w, req)
	if !ok {
		return
	}
	err := r.teams.Deactivate(req.Context(), info.UserID, mux.Vars(req)["teamID"])
	r.recordTransition("team_deactivate", err)
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (r *Router) handleListMembers(w http.ResponseWriter, req *http.Request) {
	members, err := r.teams.ListMembers(req.Context(), mux.Vars(req)["teamID"])
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"members": members})
}

func (r *Router) handleRemoveMember(w http.ResponseWriter, req *http.Request) {
	info, ok := r.caller(w, req)
	if !ok {
		return
	}
	vars := mux.Vars(req)
	err := r.teams.RemoveMember(req.Context(), info.UserID, vars["teamID"], vars["userID"])
	r.recordTransition("member_remove", err)
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (r *Router) handleLeaveTeam(w http.ResponseWriter, req *http.Request) {
	info, ok := r.caller(w, req)
	if !ok {
		return
	}
	err := r.teams.Leave(req.Context(), info.UserID, mux.Vars(req)["teamID"])
	r.recordTransition("member_leave", err)
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
