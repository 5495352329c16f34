package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"golang.org/x/term"

	apiclient "github.com/splax/teamup/pkg/api/client"
)

type cliConfig struct {
	APIBaseURL  string `json:"api_base_url"`
	AccessToken string `json:"access_token"`
}

var buildVersion = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "signup":
		err = commandSignup(args)
	case "login":
		err = commandLogin(args)
	case "team":
		err = commandTeam(args)
	case "request":
		err = commandRequest(args)
	case "invite":
		err = commandInvite(args)
	case "discover":
		err = commandDiscover(args)
	case "swipe":
		err = commandSwipe(args)
	case "matches":
		err = commandMatches(args)
	case "version", "--version", "-v":
		printVersion()
		return
	case "help", "-h", "--help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func readPassword(flagValue string) (string, error) {
	if secret := strings.TrimSpace(flagValue); secret != "" {
		return secret, nil
	}
	fmt.Print("Password: ")
	bytes, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Print("\n")
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(bytes), nil
}

func apiBase(cfg cliConfig, override string) string {
	if strings.TrimSpace(override) != "" {
		return override
	}
	if cfg.APIBaseURL == "" {
		return "http://localhost:4000"
	}
	return cfg.APIBaseURL
}

func commandSignup(args []string) error {
	fs := flag.NewFlagSet("signup", flag.ExitOnError)
	name := fs.String("name", "", "Display name")
	email := fs.String("email", "", "Email address")
	password := fs.String("password", "", "Password (supply to avoid prompt)")
	role := fs.String("role", "user", "Account role (user|organizer)")
	api := fs.String("api", "", "API base URL (default http://localhost:4000)")
	fs.Parse(args)

	if strings.TrimSpace(*name) == "" || strings.TrimSpace(*email) == "" {
		return errors.New("--name and --email are required")
	}
	secret, err := readPassword(*password)
	if err != nil {
		return err
	}
	cfg, _ := loadConfig()
	cfg.APIBaseURL = apiBase(cfg, *api)
	client, err := apiclient.New(cfg.APIBaseURL)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	sess, err := client.Signup(ctx, apiclient.SignupInput{Name: *name, Email: *email, Password: secret, Role: *role})
	if err != nil {
		return err
	}
	cfg.AccessToken = sess.Tokens.AccessToken
	if err := saveConfig(cfg); err != nil {
		return err
	}
	fmt.Printf("signed up as %s (%s)\n", sess.User.Name, sess.User.ID)
	return nil
}

func commandLogin(args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "Email address")
	password := fs.String("password", "", "Password (supply to avoid prompt)")
	api := fs.String("api", "", "API base URL (default http://localhost:4000)")
	fs.Parse(args)

	if strings.TrimSpace(*email) == "" {
		return errors.New("--email is required")
	}
	secret, err := readPassword(*password)
	if err != nil {
		return err
	}
	cfg, _ := loadConfig()
	cfg.APIBaseURL = apiBase(cfg, *api)
	client, err := apiclient.New(cfg.APIBaseURL)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	sess, err := client.Login(ctx, *email, secret)
	if err != nil {
		return err
	}
	cfg.AccessToken = sess.Tokens.AccessToken
	if err := saveConfig(cfg); err != nil {
		return err
	}
	fmt.Println("login successful")
	return nil
}

// session loads the stored token and a client for authenticated commands.
func session() (*apiclient.Client, string, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, "", err
	}
	token := strings.TrimSpace(cfg.AccessToken)
	if token == "" {
		return nil, "", errors.New("please login first using 'teamup login'")
	}
	client, err := apiclient.New(cfg.APIBaseURL)
	if err != nil {
		return nil, "", err
	}
	return client, token, nil
}

func commandTeam(args []string) error {
	if len(args) == 0 {
		return errors.New("usage: teamup team [list|create|join]")
	}
	switch args[0] {
	case "list":
		return teamList(args[1:])
	case "create":
		return teamCreate(args[1:])
	case "join":
		return teamJoin(args[1:])
	default:
		return fmt.Errorf("unknown team command: %s", args[0])
	}
}

func teamList(args []string) error {
	fs := flag.NewFlagSet("team list", flag.ExitOnError)
	eventID := fs.String("event", "", "List teams of this event instead of your own")
	fs.Parse(args)

	client, token, err := session()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	var teams []apiclient.Team
	if strings.TrimSpace(*eventID) != "" {
		teams, err = client.ListEventTeams(ctx, token, *eventID)
	} else {
		teams, err = client.ListMyTeams(ctx, token)
	}
	if err != nil {
		return err
	}
	if len(teams) == 0 {
		fmt.Println("no teams found")
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tMEMBERS\tLOOKING FOR\tACTIVE")
	for _, t := range teams {
		fmt.Fprintf(w, "%s\t%s\t%d/%d\t%s\t%t\n", t.ID, t.Name, t.MemberCount, t.MaxMembers, t.LookingFor, t.IsActive)
	}
	return w.Flush()
}

func teamCreate(args []string) error {
	fs := flag.NewFlagSet("team create", flag.ExitOnError)
	eventID := fs.String("event", "", "Event identifier")
	name := fs.String("name", "", "Team name")
	description := fs.String("description", "", "Team description")
	maxMembers := fs.Int("max", 4, "Maximum members including the owner")
	tags := fs.String("tags", "", "Comma separated tags")
	lookingFor := fs.String("looking-for", "", "Roles the team is looking for")
	fs.Parse(args)

	client, token, err := session()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	team, err := client.CreateTeam(ctx, token, apiclient.CreateTeamInput{
		Name:        *name,
		Description: *description,
		EventID:     *eventID,
		MaxMembers:  *maxMembers,
		Tags:        *tags,
		LookingFor:  *lookingFor,
	})
	if err != nil {
		return err
	}
	fmt.Printf("team created: %s (%s)\n", team.Name, team.ID)
	return nil
}

func teamJoin(args []string) error {
	fs := flag.NewFlagSet("team join", flag.ExitOnError)
	teamID := fs.String("team", "", "Team identifier")
	message := fs.String("message", "", "Message to the owner")
	fs.Parse(args)

	if strings.TrimSpace(*teamID) == "" {
		return errors.New("--team is required")
	}
	client, token, err := session()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	jr, err := client.RequestToJoin(ctx, token, *teamID, *message)
	if err != nil {
		return err
	}
	fmt.Printf("join request %s is %s\n", jr.ID, jr.Status)
	return nil
}

func commandRequest(args []string) error {
	if len(args) == 0 {
		return errors.New("usage: teamup request [list|approve|reject]")
	}
	client, token, err := session()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	switch args[0] {
	case "list":
		fs := flag.NewFlagSet("request list", flag.ExitOnError)
		teamID := fs.String("team", "", "Team identifier")
		status := fs.String("status", "pending", "Filter by status (empty for all)")
		fs.Parse(args[1:])
		reqs, err := client.ListTeamRequests(ctx, token, *teamID, *status)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tUSER\tSTATUS\tMESSAGE")
		for _, r := range reqs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.ID, r.UserID, r.Status, r.Message)
		}
		return w.Flush()
	case "approve", "reject":
		fs := flag.NewFlagSet("request "+args[0], flag.ExitOnError)
		requestID := fs.String("id", "", "Join request identifier")
		fs.Parse(args[1:])
		jr, err := client.DecideRequest(ctx, token, *requestID, args[0] == "approve")
		if err != nil {
			return err
		}
		fmt.Printf("join request %s is %s\n", jr.ID, jr.Status)
		return nil
	default:
		return fmt.Errorf("unknown request command: %s", args[0])
	}
}

func commandInvite(args []string) error {
	if len(args) == 0 {
		return errors.New("usage: teamup invite [send|list|accept|decline|cancel]")
	}
	client, token, err := session()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	switch args[0] {
	case "send":
		fs := flag.NewFlagSet("invite send", flag.ExitOnError)
		teamID := fs.String("team", "", "Team identifier")
		userID := fs.String("user", "", "Invitee identifier")
		message := fs.String("message", "", "Message to the invitee")
		fs.Parse(args[1:])
		inv, err := client.Invite(ctx, token, *teamID, *userID, *message)
		if err != nil {
			return err
		}
		fmt.Printf("invitation %s sent, expires %s\n", inv.ID, inv.ExpiresAt)
		return nil
	case "list":
		invs, err := client.ListInvitations(ctx, token)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTEAM\tSTATUS\tEXPIRES")
		for _, inv := range invs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", inv.ID, inv.TeamID, inv.Status, inv.ExpiresAt)
		}
		return w.Flush()
	case "accept", "decline", "cancel":
		fs := flag.NewFlagSet("invite "+args[0], flag.ExitOnError)
		invitationID := fs.String("id", "", "Invitation identifier")
		fs.Parse(args[1:])
		inv, err := client.RespondInvitation(ctx, token, *invitationID, args[0])
		if err != nil {
			return err
		}
		fmt.Printf("invitation %s is %s\n", inv.ID, inv.Status)
		return nil
	default:
		return fmt.Errorf("unknown invite command: %s", args[0])
	}
}

func commandDiscover(args []string) error {
	fs := flag.NewFlagSet("discover", flag.ExitOnError)
	limit := fs.Int("limit", 0, "Maximum number of people to display")
	fs.Parse(args)

	client, token, err := session()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	people, err := client.Discover(ctx, token, *limit)
	if err != nil {
		return err
	}
	if len(people) == 0 {
		fmt.Println("nobody new to discover")
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSKILLS")
	for _, p := range people {
		fmt.Fprintf(w, "%s\t%s\t%s\n", p.ID, p.Name, strings.Join(p.Skills, ","))
	}
	return w.Flush()
}

func commandSwipe(args []string) error {
	fs := flag.NewFlagSet("swipe", flag.ExitOnError)
	userID := fs.String("user", "", "User to swipe on")
	pass := fs.Bool("pass", false, "Pass instead of like")
	fs.Parse(args)

	if strings.TrimSpace(*userID) == "" {
		return errors.New("--user is required")
	}
	decision := "like"
	if *pass {
		decision = "pass"
	}
	client, token, err := session()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	res, err := client.Swipe(ctx, token, *userID, decision)
	if err != nil {
		return err
	}
	if res.Matched && res.Match != nil {
		fmt.Printf("it's a match! (%s)\n", res.Match.ID)
		return nil
	}
	fmt.Println("swipe recorded")
	return nil
}

func commandMatches(args []string) error {
	fs := flag.NewFlagSet("matches", flag.ExitOnError)
	unmatch := fs.String("unmatch", "", "End the match with this identifier")
	fs.Parse(args)

	client, token, err := session()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if strings.TrimSpace(*unmatch) != "" {
		if err := client.Unmatch(ctx, token, *unmatch); err != nil {
			return err
		}
		fmt.Println("match ended")
		return nil
	}
	matches, err := client.ListMatches(ctx, token)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPARTNER\tSINCE")
	for _, m := range matches {
		fmt.Fprintf(w, "%s\t%s\t%s\n", m.ID, m.PartnerID, m.CreatedAt)
	}
	return w.Flush()
}

func loadConfig() (cliConfig, error) {
	path, err := configPath()
	if err != nil {
		return cliConfig{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cliConfig{APIBaseURL: "http://localhost:4000"}, nil
		}
		return cliConfig{}, err
	}
	var cfg cliConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cliConfig{}, err
	}
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = "http://localhost:4000"
	}
	return cfg, nil
}

func saveConfig(cfg cliConfig) error {
	path, err := configPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func configPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "teamup", "config.json"), nil
}

func printUsage() {
	fmt.Printf("teamup CLI %s\n\n", buildVersion)
	fmt.Print(`Usage:
	teamup signup --name Ada --email ada@example.com [--role user|organizer] [--api http://localhost:4000]
	teamup login --email ada@example.com [--password secret] [--api http://localhost:4000]
	teamup team list [--event <event-id>]
	teamup team create --event <event-id> --name <name> --description <text> --tags <a,b> --looking-for <roles> [--max N]
	teamup team join --team <team-id> [--message text]
	teamup request list --team <team-id> [--status pending|approved|rejected]
	teamup request approve|reject --id <request-id>
	teamup invite send --team <team-id> --user <user-id> [--message text]
	teamup invite list
	teamup invite accept|decline|cancel --id <invitation-id>
	teamup discover [--limit N]
	teamup swipe --user <user-id> [--pass]
	teamup matches [--unmatch <match-id>]
	teamup version
`)
}

func printVersion() {
	fmt.Println(strings.TrimSpace(buildVersion))
}
