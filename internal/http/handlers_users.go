package httpx

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/splax/teamup/internal/service/user"
)

// targetUser resolves the {userID} path variable, accepting "me" for the caller.
func targetUser(req *http.Request, info authInfo) string {
	id := mux.Vars(req)["userID"]
	if id == "me" {
		return info.UserID
	}
	return id
}

func (r *Router) handleGetUser(w http.ResponseWriter, req *http.Request) {
	info, ok := r.caller(w, req)
	if !ok {
		return
	}
	view, err := r.users.Get(req.Context(), info.userCaller(), targetUser(req, info))
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (r *Router) handleDeleteUser(w http.ResponseWriter, req *http.Request) {
	info, ok := r.caller(w, req)
	if !ok {
		return
	}
	err := r.users.SoftDelete(req.Context(), info.userCaller(), targetUser(req, info))
	r.recordTransition("user_delete", err)
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (r *Router) handleRestoreUser(w http.ResponseWriter, req *http.Request) {
	info, ok := r.caller(w, req)
	if !ok {
		return
	}
	view, err := r.users.Restore(req.Context(), info.userCaller(), targetUser(req, info))
	r.recordTransition("user_restore", err)
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (r *Router) handleUpsertProfile(w http.ResponseWriter, req *http.Request) {
	info, ok := r.caller(w, req)
	if !ok {
		return
	}
	var input user.ProfileInput
	if !decodeJSON(w, req, &input) {
		return
	}
	view, err := r.users.UpsertProfile(req.Context(), info.UserID, input)
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}
