package httpx

import (
	"bufio"
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"log/slog"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/splax/teamup/internal/service/auth"
	"github.com/splax/teamup/internal/service/discovery"
	"github.com/splax/teamup/internal/service/event"
	"github.com/splax/teamup/internal/service/match"
	"github.com/splax/teamup/internal/service/membership"
	"github.com/splax/teamup/internal/service/team"
	"github.com/splax/teamup/internal/service/user"
	"github.com/splax/teamup/internal/ws"
)

// Services groups the workflow services the router exposes.
type Services struct {
	Auth       auth.Service
	Teams      team.Service
	Membership membership.Service
	Discovery  discovery.Service
	Matches    match.Service
	Users      user.Service
	Events     event.Service
}

// Router wires HTTP endpoints to services.
type Router struct {
	mux        *mux.Router
	logger     *slog.Logger
	auth       auth.Service
	teams      team.Service
	membership membership.Service
	discovery  discovery.Service
	matches    match.Service
	users      user.Service
	events     event.Service
	hub        *ws.Hub
	upgrader   websocket.Upgrader
	limiter    RateLimiter
	dbHealth   func(context.Context) error

	metricsOnce        sync.Once
	metricsInitialized bool
	requestTotal       *prometheus.CounterVec
	requestLatency     *prometheus.HistogramVec
	rateLimitHits      *prometheus.CounterVec
	transitions        *prometheus.CounterVec
}

const healthCheckTimeout = 2 * time.Second

// NewRouter assembles routes with dependencies. A nil limiter falls back to an in-memory one.
func NewRouter(logger *slog.Logger, svc Services, hub *ws.Hub, limiter RateLimiter, dbHealth func(context.Context) error) *Router {
	r := &Router{
		mux:        mux.NewRouter(),
		logger:     logger,
		auth:       svc.Auth,
		teams:      svc.Teams,
		membership: svc.Membership,
		discovery:  svc.Discovery,
		matches:    svc.Matches,
		users:      svc.Users,
		events:     svc.Events,
		hub:        hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		limiter:  limiter,
		dbHealth: dbHealth,
	}
	if r.limiter == nil {
		r.limiter = NewMemoryRateLimiter()
	}
	r.initMetrics()
	r.register()
	return r
}

// ServeHTTP delegates to underlying mux.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Close releases background resources.
func (r *Router) Close() {
	if r.limiter != nil {
		r.limiter.Close()
	}
}

func (r *Router) register() {
	r.mux.NotFoundHandler = r.audit(r.notFound)
	r.mux.MethodNotAllowedHandler = r.audit(r.methodNotAllowed)

	r.mux.HandleFunc("/healthz", r.audit(r.handleHealthz)).Methods(http.MethodGet)
	r.mux.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.mux.HandleFunc("/ws/notifications", r.audit(r.requireStreamAuth(r.withRateLimit(streamPolicy("ws_notifications"), rateSubjectUser, r.handleNotificationsWS)))).Methods(http.MethodGet)

	api := r.mux.PathPrefix("/api/v1").Subrouter()
	api.NotFoundHandler = r.audit(r.notFound)
	api.MethodNotAllowedHandler = r.audit(r.methodNotAllowed)
	api.HandleFunc("/auth/signup", r.audit(r.withRateLimit(ratePolicy{route: "auth_signup", limit: rateLimitSignup, window: rateWindowDefault}, rateSubjectIP, r.handleSignup))).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", r.audit(r.withRateLimit(ratePolicy{route: "auth_login", limit: rateLimitLogin, window: rateWindowDefault}, rateSubjectIP, r.handleLogin))).Methods(http.MethodPost)
	api.HandleFunc("/me", r.read("me", r.handleMe)).Methods(http.MethodGet)
	api.HandleFunc("/notifications/stream", r.audit(r.requireStreamAuth(r.withRateLimit(streamPolicy("notifications_stream"), rateSubjectUser, r.handleNotificationsSSE)))).Methods(http.MethodGet)

	api.HandleFunc("/events", r.write("events", r.handleCreateEvent)).Methods(http.MethodPost)
	api.HandleFunc("/events/{eventID}", r.read("event", r.handleGetEvent)).Methods(http.MethodGet)
	api.HandleFunc("/events/{eventID}/teams", r.read("event_teams", r.handleListEventTeams)).Methods(http.MethodGet)

	api.HandleFunc("/teams", r.write("teams", r.handleCreateTeam)).Methods(http.MethodPost)
	api.HandleFunc("/teams/mine", r.read("teams_mine", r.handleListMyTeams)).Methods(http.MethodGet)
	api.HandleFunc("/teams/{teamID}", r.read("team", r.handleGetTeam)).Methods(http.MethodGet)
	api.HandleFunc("/teams/{teamID}", r.write("team", r.handleDeactivateTeam)).Methods(http.MethodDelete)
	api.HandleFunc("/teams/{teamID}/members", r.read("team_members", r.handleListMembers)).Methods(http.MethodGet)
	api.HandleFunc("/teams/{teamID}/members/{userID}", r.write("team_member", r.handleRemoveMember)).Methods(http.MethodDelete)
	api.HandleFunc("/teams/{teamID}/leave", r.write("team_leave", r.handleLeaveTeam)).Methods(http.MethodPost)
	api.HandleFunc("/teams/{teamID}/join-requests", r.write("team_join_requests", r.handleRequestToJoin)).Methods(http.MethodPost)
	api.HandleFunc("/teams/{teamID}/join-requests", r.read("team_join_requests", r.handleListTeamRequests)).Methods(http.MethodGet)
	api.HandleFunc("/teams/{teamID}/invitations", r.write("team_invitations", r.handleInvite)).Methods(http.MethodPost)
	api.HandleFunc("/teams/{teamID}/invitations", r.read("team_invitations", r.handleListTeamInvitations)).Methods(http.MethodGet)

	api.HandleFunc("/join-requests", r.read("join_requests", r.handleListMyRequests)).Methods(http.MethodGet)
	api.HandleFunc("/join-requests/{requestID}/approve", r.write("join_request_approve", r.handleApproveRequest)).Methods(http.MethodPost)
	api.HandleFunc("/join-requests/{requestID}/reject", r.write("join_request_reject", r.handleRejectRequest)).Methods(http.MethodPost)

	api.HandleFunc("/invitations", r.read("invitations", r.handleListMyInvitations)).Methods(http.MethodGet)
	api.HandleFunc("/invitations/{invitationID}/accept", r.write("invitation_accept", r.handleAcceptInvitation)).Methods(http.MethodPost)
	api.HandleFunc("/invitations/{invitationID}/decline", r.write("invitation_decline", r.handleDeclineInvitation)).Methods(http.MethodPost)
	api.HandleFunc("/invitations/{invitationID}/cancel", r.write("invitation_cancel", r.handleCancelInvitation)).Methods(http.MethodPost)

	api.HandleFunc("/discover", r.read("discover", r.handleDiscover)).Methods(http.MethodGet)
	api.HandleFunc("/swipes", r.audit(r.authRate(ratePolicy{route: "swipes", limit: rateLimitSwipe, window: rateWindowDefault}, r.handleSwipe))).Methods(http.MethodPost)
	api.HandleFunc("/matches", r.read("matches", r.handleListMatches)).Methods(http.MethodGet)
	api.HandleFunc("/matches/{matchID}", r.write("match", r.handleUnmatch)).Methods(http.MethodDelete)

	api.HandleFunc("/users/search", r.read("users_search", r.handleSearchUsers)).Methods(http.MethodGet)
	api.HandleFunc("/users/me/profile", r.write("profile", r.handleUpsertProfile)).Methods(http.MethodPut)
	api.HandleFunc("/users/{userID}", r.read("user", r.handleGetUser)).Methods(http.MethodGet)
	api.HandleFunc("/users/{userID}", r.write("user", r.handleDeleteUser)).Methods(http.MethodDelete)
	api.HandleFunc("/users/{userID}/restore", r.write("user_restore", r.handleRestoreUser)).Methods(http.MethodPost)
}

func (r *Router) read(route string, next http.HandlerFunc) http.HandlerFunc {
	return r.audit(r.authRate(readPolicy(route), next))
}

func (r *Router) write(route string, next http.HandlerFunc) http.HandlerFunc {
	return r.audit(r.authRate(writePolicy(route), next))
}

func (r *Router) handleHealthz(w http.ResponseWriter, req *http.Request) {
	components := make(map[string]any)
	status := "ok"
	if r.dbHealth != nil {
		ctx, cancel := context.WithTimeout(req.Context(), healthCheckTimeout)
		defer cancel()
		if err := r.dbHealth(ctx); err != nil {
			status = "degraded"
			components["database"] = map[string]any{
				"status": "down",
				"error":  err.Error(),
			}
		} else {
			components["database"] = map[string]any{"status": "up"}
		}
	}
	payload := map[string]any{
		"status":     status,
		"components": components,
		"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
	}
	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, payload)
}

func (r *Router) audit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w}
		start := time.Now()
		next(recorder, req)

		status := recorder.status
		if status == 0 {
			status = http.StatusOK
		}
		ctx := recorder.ctx
		if ctx == nil {
			ctx = req.Context()
		}
		duration := time.Since(start)
		route := routeTemplate(req)
		r.recordRequestMetrics(req.Method, route, status, duration)

		actor := "anonymous"
		fields := []any{
			"method", req.Method,
			"path", req.URL.Path,
			"route", route,
			"status", status,
			"bytes", recorder.bytes,
			"duration_ms", duration.Milliseconds(),
		}
		if ip := clientIP(req); ip != "" {
			fields = append(fields, "ip", ip)
		}
		if reqID := strings.TrimSpace(req.Header.Get("X-Request-ID")); reqID != "" {
			fields = append(fields, "request_id", reqID)
		}
		if info, ok := authInfoFromContext(ctx); ok {
			actor = "user"
			fields = append(fields, "user_id", info.UserID, "role", info.Role)
		}
		fields = append(fields, "actor", actor)

		switch {
		case status >= http.StatusInternalServerError:
			r.logger.Error("http_request", fields...)
		case status >= http.StatusBadRequest:
			r.logger.Warn("http_request", fields...)
		default:
			r.logger.Info("http_request", fields...)
		}
	}
}

// routeTemplate returns the matched mux path template, falling back to the raw path.
func routeTemplate(req *http.Request) string {
	// The /api/v1 prefix route carries no handler; misses under it stay unmatched.
	if route := mux.CurrentRoute(req); route != nil && route.GetHandler() != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
	ctx    context.Context
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	if sr.status == 0 {
		sr.status = http.StatusOK
	}
	n, err := sr.ResponseWriter.Write(b)
	sr.bytes += n
	return n, err
}

func (sr *statusRecorder) SetContext(ctx context.Context) {
	sr.ctx = ctx
}

func (sr *statusRecorder) Flush() {
	if f, ok := sr.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (sr *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := sr.ResponseWriter.(http.Hijacker); ok {
		return h.Hijack()
	}
	return nil, nil, errors.New("hijacker not supported")
}

func clientIP(req *http.Request) string {
	if forwarded := strings.TrimSpace(req.Header.Get("X-Forwarded-For")); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		if len(parts) > 0 {
			ip := strings.TrimSpace(parts[0])
			if ip != "" {
				return ip
			}
		}
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(req.RemoteAddr))
	if err != nil {
		return strings.TrimSpace(req.RemoteAddr)
	}
	return host
}

func (r *Router) applyRateHeaders(w http.ResponseWriter, limit int, decision rateDecision) {
	if limit <= 0 {
		return
	}
	remaining := limit - decision.count
	if remaining < 0 {
		remaining = 0
	}
	headers := w.Header()
	headers.Set("X-RateLimit-Limit", strconv.Itoa(limit))
	headers.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
	if !decision.windowEnd.IsZero() {
		headers.Set("X-RateLimit-Reset", strconv.FormatInt(decision.windowEnd.Unix(), 10))
	}
}

func (r *Router) methodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func (r *Router) notFound(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusNotFound, "not found")
}
