package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"watchplan/internal/feed"
	"watchplan/pkg/models"
)

const defaultBaseURL = "http://localhost:8080"

type authResponse struct {
	Token string `json:"token"`
}

type mediaListResponse struct {
	Total    int            `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"page_size"`
	Results  []models.Media `json:"results"`
}

func main() {
	global := flag.NewFlagSet("watchplan", flag.ExitOnError)
	baseURL := global.String("api", defaultBaseURL, "API base URL")
	tokenPath := global.String("token", defaultTokenPath(), "token file path")
	if err := global.Parse(os.Args[1:]); err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	args := global.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	ctx := context.Background()
	cmd := args[0]
	sub := ""
	if len(args) > 1 {
		sub = args[1]
	}

	client := &http.Client{Timeout: 15 * time.Second}

	switch cmd {
	case "auth":
		handleAuth(ctx, client, *baseURL, *tokenPath, sub, args[2:])
	case "media":
		handleMedia(ctx, client, *baseURL, sub, args[2:])
	case "watchlist":
		handleWatchlist(ctx, client, *baseURL, *tokenPath, sub, args[2:])
	case "admin":
		handleAdmin(ctx, client, *baseURL, *tokenPath, sub, args[2:])
	case "feed":
		handleFeed(*baseURL, sub, args[2:])
	default:
		printUsage()
		os.Exit(1)
	}
}

func handleAuth(ctx context.Context, client *http.Client, baseURL, tokenPath, sub string, args []string) {
	switch sub {
	case "login":
		fs := flag.NewFlagSet("auth login", flag.ExitOnError)
		username := fs.String("username", "", "username")
		password := fs.String("password", "", "password")
		_ = fs.Parse(args)

		if *username == "" || *password == "" {
			log.Fatal("username and password are required")
		}

		payload := map[string]string{"username": *username, "password": *password}
		var resp authResponse
		if err := doJSON(ctx, client, http.MethodPost, baseURL+"/auth/login", "", payload, &resp); err != nil {
			log.Fatalf("login failed: %v", err)
		}
		if err := saveToken(tokenPath, resp.Token); err != nil {
			log.Fatalf("save token: %v", err)
		}
		fmt.Println("logged in")
	case "register":
		fs := flag.NewFlagSet("auth register", flag.ExitOnError)
		username := fs.String("username", "", "username")
		email := fs.String("email", "", "email address")
		password := fs.String("password", "", "password")
		_ = fs.Parse(args)

		if *username == "" || *email == "" || *password == "" {
			log.Fatal("username, email, and password are required")
		}

		payload := map[string]string{"username": *username, "email": *email, "password": *password}
		var resp authResponse
		if err := doJSON(ctx, client, http.MethodPost, baseURL+"/auth/register", "", payload, &resp); err != nil {
			log.Fatalf("register failed: %v", err)
		}
		if err := saveToken(tokenPath, resp.Token); err != nil {
			log.Fatalf("save token: %v", err)
		}
		fmt.Println("registered and logged in")
	case "logout":
		if err := clearToken(tokenPath); err != nil {
			log.Fatalf("logout failed: %v", err)
		}
		fmt.Println("logged out")
	default:
		log.Fatal("usage: watchplan auth <login|register|logout>")
	}
}

func handleMedia(ctx context.Context, client *http.Client, baseURL, sub string, args []string) {
	switch sub {
	case "search":
		fs := flag.NewFlagSet("media search", flag.ExitOnError)
		query := fs.String("q", "", "search text")
		scopes := fs.String("scopes", "title", "comma-separated scopes: title,cast,crew,genre")
		mediaType := fs.String("type", "", "Movie or Series")
		genres := fs.String("genres", "", "comma-separated genre names")
		people := fs.String("people", "", "comma-separated person names")
		role := fs.String("role", "any", "people filter role: any, cast, crew")
		minRating := fs.String("min-rating", "", "minimum average rating")
		page := fs.Int("page", 1, "page number")
		pageSize := fs.Int("page-size", 20, "page size")
		_ = fs.Parse(args)

		u, err := url.Parse(baseURL + "/media")
		if err != nil {
			log.Fatalf("bad base url: %v", err)
		}
		q := u.Query()
		setIf(q, "q", *query)
		setIf(q, "scopes", *scopes)
		setIf(q, "type", *mediaType)
		setIf(q, "genres", *genres)
		setIf(q, "people", *people)
		setIf(q, "role", *role)
		setIf(q, "min_rating", *minRating)
		q.Set("page", strconv.Itoa(*page))
		q.Set("page_size", strconv.Itoa(*pageSize))
		u.RawQuery = q.Encode()

		var resp mediaListResponse
		if err := doJSON(ctx, client, http.MethodGet, u.String(), "", nil, &resp); err != nil {
			log.Fatalf("search failed: %v", err)
		}

		fmt.Printf("%d results (page %d)\n", resp.Total, resp.Page)
		for _, m := range resp.Results {
			rating := "-"
			if m.AverageRating != nil {
				rating = fmt.Sprintf("%.1f", *m.AverageRating)
			}
			fmt.Printf("  %-6s  %-6s  %-5s  %s\n", m.ID, m.MediaType, rating, m.Title)
		}
	case "get":
		if len(args) == 0 {
			log.Fatal("usage: watchplan media get <media_id>")
		}
		var detail models.MediaDetail
		if err := doJSON(ctx, client, http.MethodGet, baseURL+"/media/"+url.PathEscape(args[0]), "", nil, &detail); err != nil {
			log.Fatalf("get failed: %v", err)
		}
		printJSON(detail)
	default:
		log.Fatal("usage: watchplan media <search|get>")
	}
}

func handleWatchlist(ctx context.Context, client *http.Client, baseURL, tokenPath, sub string, args []string) {
	token := mustToken(tokenPath)

	switch sub {
	case "list":
		fs := flag.NewFlagSet("watchlist list", flag.ExitOnError)
		status := fs.String("status", "", "status filter")
		_ = fs.Parse(args)

		u := baseURL + "/users/watchlist"
		if *status != "" {
			u += "?status=" + url.QueryEscape(*status)
		}
		var resp map[string]any
		if err := doJSON(ctx, client, http.MethodGet, u, token, nil, &resp); err != nil {
			log.Fatalf("list failed: %v", err)
		}
		printJSON(resp)
	case "set":
		fs := flag.NewFlagSet("watchlist set", flag.ExitOnError)
		mediaID := fs.String("media", "", "media id")
		status := fs.String("status", "planned", "watching, completed, planned, dropped")
		rating := fs.Int("rating", 0, "optional 1-10 rating")
		_ = fs.Parse(args)

		if *mediaID == "" {
			log.Fatal("media id is required")
		}

		payload := map[string]any{"media_id": *mediaID, "status": *status}
		if *rating > 0 {
			payload["user_rating"] = *rating
		}
		var resp map[string]any
		if err := doJSON(ctx, client, http.MethodPost, baseURL+"/users/watchlist", token, payload, &resp); err != nil {
			log.Fatalf("save failed: %v", err)
		}
		printJSON(resp)
	case "rm":
		if len(args) == 0 {
			log.Fatal("usage: watchplan watchlist rm <media_id>")
		}
		var resp map[string]any
		if err := doJSON(ctx, client, http.MethodDelete, baseURL+"/users/watchlist/"+url.PathEscape(args[0]), token, nil, &resp); err != nil {
			log.Fatalf("remove failed: %v", err)
		}
		printJSON(resp)
	default:
		log.Fatal("usage: watchplan watchlist <list|set|rm>")
	}
}

func handleAdmin(ctx context.Context, client *http.Client, baseURL, tokenPath, sub string, args []string) {
	token := mustToken(tokenPath)

	switch sub {
	case "tables":
		var resp map[string]any
		if err := doJSON(ctx, client, http.MethodGet, baseURL+"/admin/tables", token, nil, &resp); err != nil {
			log.Fatalf("tables failed: %v", err)
		}
		printJSON(resp)
	case "columns":
		if len(args) == 0 {
			log.Fatal("usage: watchplan admin columns <table>")
		}
		var resp map[string]any
		if err := doJSON(ctx, client, http.MethodGet, baseURL+"/admin/tables/"+url.PathEscape(args[0])+"/columns", token, nil, &resp); err != nil {
			log.Fatalf("columns failed: %v", err)
		}
		printJSON(resp)
	case "rows":
		fs := flag.NewFlagSet("admin rows", flag.ExitOnError)
		limit := fs.Int("limit", 20, "page size")
		offset := fs.Int("offset", 0, "offset")
		if len(args) == 0 {
			log.Fatal("usage: watchplan admin rows <table>")
		}
		table := args[0]
		_ = fs.Parse(args[1:])

		u := fmt.Sprintf("%s/admin/tables/%s/rows?limit=%d&offset=%d", baseURL, url.PathEscape(table), *limit, *offset)
		var resp map[string]any
		if err := doJSON(ctx, client, http.MethodGet, u, token, nil, &resp); err != nil {
			log.Fatalf("rows failed: %v", err)
		}
		printJSON(resp)
	case "insert", "update":
		if len(args) < 2 {
			log.Fatalf("usage: watchplan admin %s <table> [id] col=val ...", sub)
		}
		table := args[0]
		rest := args[1:]

		var id string
		if sub == "update" {
			id = rest[0]
			rest = rest[1:]
		}

		values := map[string]string{}
		for _, kv := range rest {
			parts := strings.SplitN(kv, "=", 2)
			if len(parts) != 2 {
				log.Fatalf("bad field %q, want col=val", kv)
			}
			values[parts[0]] = parts[1]
		}
		if len(values) == 0 {
			log.Fatal("at least one col=val field is required")
		}

		method := http.MethodPost
		u := baseURL + "/admin/tables/" + url.PathEscape(table) + "/rows"
		if sub == "update" {
			method = http.MethodPut
			u += "/" + url.PathEscape(id)
		}

		var resp map[string]any
		if err := doJSON(ctx, client, method, u, token, values, &resp); err != nil {
			log.Fatalf("%s failed: %v", sub, err)
		}
		printJSON(resp)
	case "delete":
		if len(args) < 2 {
			log.Fatal("usage: watchplan admin delete <table> <id>")
		}
		u := baseURL + "/admin/tables/" + url.PathEscape(args[0]) + "/rows/" + url.PathEscape(args[1])
		var resp map[string]any
		if err := doJSON(ctx, client, http.MethodDelete, u, token, nil, &resp); err != nil {
			log.Fatalf("delete failed: %v", err)
		}
		printJSON(resp)
	case "activity":
		fs := flag.NewFlagSet("admin activity", flag.ExitOnError)
		table := fs.String("table", "", "filter by table name")
		limit := fs.Int("limit", 20, "page size")
		_ = fs.Parse(args)

		u := fmt.Sprintf("%s/admin/activity?limit=%d", baseURL, *limit)
		if *table != "" {
			u += "&table=" + url.QueryEscape(*table)
		}
		var resp map[string]any
		if err := doJSON(ctx, client, http.MethodGet, u, token, nil, &resp); err != nil {
			log.Fatalf("activity failed: %v", err)
		}
		printJSON(resp)
	default:
		log.Fatal("usage: watchplan admin <tables|columns|rows|insert|update|delete|activity>")
	}
}

func handleFeed(baseURL, sub string, args []string) {
	switch sub {
	case "tcp":
		fs := flag.NewFlagSet("feed tcp", flag.ExitOnError)
		addr := fs.String("addr", "127.0.0.1:7070", "feed TCP address")
		pretty := fs.Bool("pretty", true, "pretty print JSON events")
		_ = fs.Parse(args)
		for {
			if err := runFeedTCP(*addr, *pretty); err != nil {
				log.Printf("[feed] disconnected: %v", err)
			}
			time.Sleep(1 * time.Second)
		}
	case "ws":
		wsURL, err := websocketURL(baseURL, "/feed/ws")
		if err != nil {
			log.Fatalf("bad ws url: %v", err)
		}
		if err := runWebSocket(wsURL); err != nil {
			log.Fatalf("websocket failed: %v", err)
		}
	default:
		log.Fatal("usage: watchplan feed <tcp|ws>")
	}
}

func runFeedTCP(addr string, pretty bool) error {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()

	log.Printf("[feed] connected to %s", addr)

	sc := bufio.NewScanner(conn)
	for sc.Scan() {
		printEventLine(sc.Bytes(), pretty)
	}
	if err := sc.Err(); err != nil {
		return err
	}
	return os.ErrClosed
}

func runWebSocket(wsURL string) error {
	ws, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", wsURL, err)
	}
	defer ws.Close()

	log.Printf("[feed] connected to %s", wsURL)
	for {
		_, msg, err := ws.ReadMessage()
		if err != nil {
			return err
		}
		printEventLine(msg, true)
	}
}

func printEventLine(line []byte, pretty bool) {
	if !pretty {
		fmt.Println(string(line))
		return
	}
	var ev feed.Event
	if err := json.Unmarshal(line, &ev); err != nil || ev.Type != "activity" {
		fmt.Println(string(line))
		return
	}
	fmt.Println(ev.Summary())
}

func doJSON(ctx context.Context, client *http.Client, method, endpoint, token string, payload any, out any) error {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal payload: %w", err)
		}
		body = strings.NewReader(string(b))
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var e struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &e) == nil && e.Error != "" {
			return fmt.Errorf("%s: %s", resp.Status, e.Error)
		}
		return fmt.Errorf("%s: %s", resp.Status, strings.TrimSpace(string(data)))
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func printJSON(v any) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Fatalf("encode output: %v", err)
	}
	fmt.Println(string(b))
}

func setIf(q url.Values, key, val string) {
	if strings.TrimSpace(val) != "" {
		q.Set(key, val)
	}
}

func defaultTokenPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".watchplan-token"
	}
	return filepath.Join(home, ".watchplan", "token")
}

func saveToken(path, token string) error {
	if token == "" {
		return errors.New("empty token")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(token), 0o600)
}

func readToken(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}

func mustToken(path string) string {
	token, err := readToken(path)
	if err != nil || token == "" {
		log.Fatal("not logged in, run: watchplan auth login")
	}
	return token
}

func clearToken(path string) error {
	err := os.Remove(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func websocketURL(baseURL, path string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	u.Path = path
	return u.String(), nil
}

func printUsage() {
	fmt.Println(`watchplan CLI

usage:
  watchplan [-api URL] [-token PATH] <command> <subcommand> [flags]

commands:
  auth       login | register | logout
  media      search | get
  watchlist  list | set | rm
  admin      tables | columns | rows | insert | update | delete | activity
  feed       tcp | ws`)
}
