package httpx

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/splax/teamup/internal/domain"
)

type messageBody struct {
	Message string `json:"message"`
}

func (r *Router) handleRequestToJoin(w http.ResponseWriter, req *http.Request) {
	info, ok := r.caller(w, req)
	if !ok {
		return
	}
	var body messageBody
	if req.ContentLength != 0 && !decodeJSON(w, req, &body) {
		return
	}
	view, err := r.membership.RequestToJoin(req.Context(), info.UserID, mux.Vars(req)["teamID"], body.Message)
	r.recordTransition("join_request_create", err)
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

func (r *Router) handleListTeamRequests(w http.ResponseWriter, req *http.Request) {
	info, ok := r.caller(w, req)
	if !ok {
		return
	}
	status := domain.JoinRequestStatus(req.URL.Query().Get("status"))
	views, err := r.membership.ListTeamRequests(req.Context(), info.UserID, mux.Vars(req)["teamID"], status)
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"join_requests": views})
}

func (r *Router) handleListMyRequests(w http.ResponseWriter, req *http.Request) {
	info, ok := r.caller(w, req)
	if !ok {
		return
	}
	views, err := r.membership.ListUserRequests(req.Context(), info.UserID)
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"join_requests": views})
}

func (r *Router) handleApproveRequest(w http.ResponseWriter, req *http.Request) {
	info, ok := r.caller(w, req)
	if !ok {
		return
	}
	view, err := r.membership.ApproveRequest(req.Context(), info.UserID, mux.Vars(req)["requestID"])
	r.recordTransition("join_request_approve", err)
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (r *Router) handleRejectRequest(w http.ResponseWriter, req *http.Request) {
	info, ok := r.caller(w, req)
	if !ok {
		return
	}
	view, err := r.membership.RejectRequest(req.Context(), info.UserID, mux.Vars(req)["requestID"])
	r.recordTransition("join_request_reject", err)
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (r *Router) handleInvite(w http.ResponseWriter, req *http.Request) {
	info, ok := r.caller(w, req)
	if !ok {
		return
	}
	var body struct {
		InviteeID string `json:"invitee_id"`
		Message   string `json:"message"`
	}
	if !decodeJSON(w, req, &body) {
		return
	}
	view, err := r.membership.Invite(req.Context(), info.UserID, mux.Vars(req)["teamID"], body.InviteeID, body.Message)
	r.recordTransition("invitation_create", err)
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

func (r *Router) handleListTeamInvitations(w http.ResponseWriter, req *http.Request) {
	info, ok := r.caller(w, req)
	if !ok {
		return
	}
	views, err := r.membership.ListTeamInvitations(req.Context(), info.UserID, mux.Vars(req)["teamID"])
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"invitations": views})
}

func (r *Router) handleListMyInvitations(w http.ResponseWriter, req *http.Request) {
	info, ok := r.caller(w, req)
	if !ok {
		return
	}
	views, err := r.membership.ListInvitations(req.Context(), info.UserID)
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"invitations": views})
}

func (r *Router) handleAcceptInvitation(w http.ResponseWriter, req *http.Request) {
	info, ok := r.caller(w, req)
	if !ok {
		return
	}
	view, err := r.membership.Accept(req.Context(), info.UserID, mux.Vars(req)["invitationID"])
	r.recordTransition("invitation_accept", err)
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (r *Router) handleDeclineInvitation(w http.ResponseWriter, req *http.Request) {
	info, ok := r.caller(w, req)
	if !ok {
		return
	}
	view, err := r.membership.Decline(req.Context(), info.UserID, mux.Vars(req)["invitationID"])
	r.recordTransition("invitation_decline", err)
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (r *Router) handleCancelInvitation(w http.ResponseWriter, req *http.Request) {
	info, ok := r.caller(w, req)
	if !ok {
		return
	}
	view, err := r.membership.Cancel(req.Context(), info.UserID, mux.Vars(req)["invitationID"])
	r.recordTransition("invitation_cancel", err)
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}
