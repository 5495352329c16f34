package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const apiPrefix = "/api/v1"

// Client provides typed access to the teamup API for interactive tools.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option customises client instantiation.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// New constructs a Client pointing at the provided API base URL.
func New(base string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimSpace(base)
	if trimmed == "" {
		trimmed = "http://localhost:4000"
	}
	if !strings.HasPrefix(trimmed, "http://") && !strings.HasPrefix(trimmed, "https://") {
		trimmed = "http://" + trimmed
	}
	if _, err := url.Parse(trimmed); err != nil {
		return nil, fmt.Errorf("invalid api base url: %w", err)
	}
	cli := &Client{
		baseURL:    strings.TrimRight(trimmed, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(cli)
	}
	return cli, nil
}

// APIError represents an error response from the API. Kind carries the server's error
// taxonomy (validation, conflict, expired, ...).
type APIError struct {
	Status  int
	Kind    string
	Message string
}

func (e APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api request failed with status %d", e.Status)
	}
	return fmt.Sprintf("api request failed (%d): %s", e.Status, e.Message)
}

func (c *Client) do(ctx context.Context, method, path string, body any, token string, v any) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+apiPrefix+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if strings.TrimSpace(token) != "" {
		req.Header.Set("Authorization", "Bearer "+strings.TrimSpace(token))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("perform request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return extractError(resp.StatusCode, resp.Body)
	}
	if v == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func extractError(status int, body io.Reader) APIError {
	apiErr := APIError{Status: status}
	data, err := io.ReadAll(body)
	if err != nil || len(data) == 0 {
		return apiErr
	}
	var payload struct {
		Error string `json:"error"`
		Kind  string `json:"kind"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		apiErr.Message = strings.TrimSpace(string(data))
		return apiErr
	}
	apiErr.Message = strings.TrimSpace(payload.Error)
	apiErr.Kind = payload.Kind
	return apiErr
}

// Session captures the user and token payload emitted on signup and login.
type Session struct {
	User   User      `json:"user"`
	Tokens TokenPair `json:"tokens"`
}

// User reflects API user payloads.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role"`
}

// TokenPair includes access and refresh tokens.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// SignupInput registers an account.
type SignupInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

// Signup registers and returns a session.
func (c *Client) Signup(ctx context.Context, input SignupInput) (Session, error) {
	var resp Session
	if err := c.do(ctx, http.MethodPost, "/auth/signup", input, "", &resp); err != nil {
		return Session{}, err
	}
	return resp, nil
}

// Login exchanges credentials for a token pair.
func (c *Client) Login(ctx context.Context, email, password string) (Session, error) {
	body := map[string]string{
		"email":    email,
		"password": password,
	}
	var resp Session
	if err := c.do(ctx, http.MethodPost, "/auth/login", body, "", &resp); err != nil {
		return Session{}, err
	}
	return resp, nil
}

// Me returns the authenticated user.
func (c *Client) Me(ctx context.Context, token string) (User, error) {
	var u User
	if err := c.do(ctx, http.MethodGet, "/me", nil, token, &u); err != nil {
		return User{}, err
	}
	return u, nil
}

// Team is a group formed around an event.
type Team struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	EventID     string `json:"event_id"`
	OwnerID     string `json:"owner_id"`
	MaxMembers  int    `json:"max_members"`
	MemberCount int    `json:"member_count"`
	Tags        string `json:"tags"`
	LookingFor  string `json:"looking_for"`
	IsActive    bool   `json:"is_active"`
	CreatedAt   string `json:"created_at"`
}

// CreateTeamInput captures the payload for team creation.
type CreateTeamInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	EventID     string `json:"event_id"`
	MaxMembers  int    `json:"max_members"`
	Tags        string `json:"tags"`
	LookingFor  string `json:"looking_for"`
}

// CreateTeam forms a team owned by the caller.
func (c *Client) CreateTeam(ctx context.Context, token string, input CreateTeamInput) (Team, error) {
	var team Team
	if err := c.do(ctx, http.MethodPost, "/teams", input, token, &team); err != nil {
		return Team{}, err
	}
	return team, nil
}

// ListMyTeams returns teams the caller is an active member of.
func (c *Client) ListMyTeams(ctx context.Context, token string) ([]Team, error) {
	var resp struct {
		Teams []Team `json:"teams"`
	}
	if err := c.do(ctx, http.MethodGet, "/teams/mine", nil, token, &resp); err != nil {
		return nil, err
	}
	return resp.Teams, nil
}

// ListEventTeams returns the teams formed for an event.
func (c *Client) ListEventTeams(ctx context.Context, token, eventID string) ([]Team, error) {
	var resp struct {
		Teams []Team `json:"teams"`
	}
	path := fmt.Sprintf("/events/%s/teams", url.PathEscape(eventID))
	if err := c.do(ctx, http.MethodGet, path, nil, token, &resp); err != nil {
		return nil, err
	}
	return resp.Teams, nil
}

// JoinRequest is an application to join a team.
type JoinRequest struct {
	ID        string `json:"id"`
	TeamID    string `json:"team_id"`
	UserID    string `json:"user_id"`
	Message   string `json:"message,omitempty"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
}

// RequestToJoin applies to a team.
func (c *Client) RequestToJoin(ctx context.Context, token, teamID, message string) (JoinRequest, error) {
	path := fmt.Sprintf("/teams/%s/join-requests", url.PathEscape(teamID))
	var jr JoinRequest
	if err := c.do(ctx, http.MethodPost, path, map[string]string{"message": message}, token, &jr); err != nil {
		return JoinRequest{}, err
	}
	return jr, nil
}

// ListTeamRequests lists a team's requests, optionally filtered by status.
func (c *Client) ListTeamRequests(ctx context.Context, token, teamID, status string) ([]JoinRequest, error) {
	path := fmt.Sprintf("/teams/%s/join-requests", url.PathEscape(teamID))
	if status != "" {
		path += "?status=" + url.QueryEscape(status)
	}
	var resp struct {
		JoinRequests []JoinRequest `json:"join_requests"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, token, &resp); err != nil {
		return nil, err
	}
	return resp.JoinRequests, nil
}

// DecideRequest approves or rejects a pending request.
func (c *Client) DecideRequest(ctx context.Context, token, requestID string, approve bool) (JoinRequest, error) {
	action := "reject"
	if approve {
		action = "approve"
	}
	path := fmt.Sprintf("/join-requests/%s/%s", url.PathEscape(requestID), action)
	var jr JoinRequest
	if err := c.do(ctx, http.MethodPost, path, nil, token, &jr); err != nil {
		return JoinRequest{}, err
	}
	return jr, nil
}

// Invitation is a team-initiated offer.
type Invitation struct {
	ID         string `json:"id"`
	TeamID     string `json:"team_id"`
	InviterID  string `json:"inviter_id"`
	InviteeID  string `json:"invitee_id"`
	Message    string `json:"message,omitempty"`
	Status     string `json:"status"`
	Actionable bool   `json:"actionable"`
	ExpiresAt  string `json:"expires_at"`
}

// Invite offers a place on teamID to inviteeID.
func (c *Client) Invite(ctx context.Context, token, teamID, inviteeID, message string) (Invitation, error) {
	path := fmt.Sprintf("/teams/%s/invitations", url.PathEscape(teamID))
	body := map[string]string{"invitee_id": inviteeID, "message": message}
	var inv Invitation
	if err := c.do(ctx, http.MethodPost, path, body, token, &inv); err != nil {
		return Invitation{}, err
	}
	return inv, nil
}

// ListInvitations returns invitations addressed to the caller.
func (c *Client) ListInvitations(ctx context.Context, token string) ([]Invitation, error) {
	var resp struct {
		Invitations []Invitation `json:"invitations"`
	}
	if err := c.do(ctx, http.MethodGet, "/invitations", nil, token, &resp); err != nil {
		return nil, err
	}
	return resp.Invitations, nil
}

// RespondInvitation accepts, declines or cancels an invitation.
func (c *Client) RespondInvitation(ctx context.Context, token, invitationID, action string) (Invitation, error) {
	switch action {
	case "accept", "decline", "cancel":
	default:
		return Invitation{}, fmt.Errorf("unknown invitation action %q", action)
	}
	path := fmt.Sprintf("/invitations/%s/%s", url.PathEscape(invitationID), action)
	var inv Invitation
	if err := c.do(ctx, http.MethodPost, path, nil, token, &inv); err != nil {
		return Invitation{}, err
	}
	return inv, nil
}

// Person is a discoverable user.
type Person struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Role      string   `json:"role"`
	Bio       string   `json:"bio,omitempty"`
	Skills    []string `json:"skills"`
	CreatedAt string   `json:"created_at"`
}

// Discover returns people the caller has not swiped yet.
func (c *Client) Discover(ctx context.Context, token string, limit int) ([]Person, error) {
	path := "/discover"
	if limit > 0 {
		path = fmt.Sprintf("%s?limit=%d", path, limit)
	}
	var resp struct {
		People []Person `json:"people"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, token, &resp); err != nil {
		return nil, err
	}
	return resp.People, nil
}

// Match pairs the caller with a partner after mutual likes.
type Match struct {
	ID        string `json:"id"`
	PartnerID string `json:"partner_id"`
	IsActive  bool   `json:"is_active"`
	CreatedAt string `json:"created_at"`
}

// SwipeResult reports whether a swipe produced a match.
type SwipeResult struct {
	Matched bool   `json:"matched"`
	Match   *Match `json:"match,omitempty"`
}

// Swipe records a like or pass on swipeeID.
func (c *Client) Swipe(ctx context.Context, token, swipeeID, decision string) (SwipeResult, error) {
	body := map[string]string{"swipee_id": swipeeID, "decision": decision}
	var res SwipeResult
	if err := c.do(ctx, http.MethodPost, "/swipes", body, token, &res); err != nil {
		return SwipeResult{}, err
	}
	return res, nil
}

// ListMatches returns the caller's active matches.
func (c *Client) ListMatches(ctx context.Context, token string) ([]Match, error) {
	var resp struct {
		Matches []Match `json:"matches"`
	}
	if err := c.do(ctx, http.MethodGet, "/matches", nil, token, &resp); err != nil {
		return nil, err
	}
	return resp.Matches, nil
}

// Unmatch ends a match.
func (c *Client) Unmatch(ctx context.Context, token, matchID string) error {
	path := fmt.Sprintf("/matches/%s", url.PathEscape(matchID))
	return c.do(ctx, http.MethodDelete, path, nil, token, nil)
}
