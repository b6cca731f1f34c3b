// ---------------------------------------------------------------------------
// scripts/demo_scenario/main.go — Scripted FloatChat walkthrough
//
// Usage:
//   go run ./scripts/demo_scenario --server http://localhost:8000
//
// Flags:
//   --server  Base URL of the FloatChat server  (default: http://localhost:8000)
//   --pause   Seconds to pause between questions (default: 3)
//
// Runs a fixed sequence of questions against POST /chat and prints the
// generated SQL and insight for each, so a live demo needs no typing.
// ---------------------------------------------------------------------------
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"
)

// ---------------------------------------------------------------------------
// ANSI colour helpers
// ---------------------------------------------------------------------------

const (
	reset  = "\033[0m"
	bold   = "\033[1m"
	dim    = "\033[2m"
	red    = "\033[31m"
	green  = "\033[32m"
	yellow = "\033[33m"
	cyan   = "\033[36m"
	white  = "\033[37m"
)

func colour(c, s string) string { return c + s + reset }

func header(step, total int, msg string) {
	bar := strings.Repeat("━", 60)
	fmt.Println()
	fmt.Println(colour(dim, bar))
	fmt.Printf("  %s  %s\n", colour(bold+cyan, fmt.Sprintf("Question %d/%d", step, total)), colour(bold+white, msg))
	fmt.Println(colour(dim, bar))
}

// ---------------------------------------------------------------------------
// API types (mirrors the backend JSON shapes)
// ---------------------------------------------------------------------------

type chatRequest struct {
	Query string `json:"query"`
}

type chatResponse struct {
	Insights   string         `json:"insights"`
	PlotlyJSON map[string]any `json:"plotly_json"`
	SQLQuery   string         `json:"sql_query"`
}

type healthResponse struct {
	Status string `json:"status"`
}

// ---------------------------------------------------------------------------
// HTTP helpers
// ---------------------------------------------------------------------------

func checkHealth(serverURL string) error {
	resp, err := http.Get(serverURL + "/health")
	if err != nil {
		return fmt.Errorf("GET /health: %w", err)
	}
	defer resp.Body.Close()

	var hr healthResponse
	if err := json.NewDecoder(resp.Body).Decode(&hr); err != nil {
		return fmt.Errorf("decode health: %w", err)
	}
	if hr.Status != "ok" {
		return fmt.Errorf("server unhealthy: %q", hr.Status)
	}
	return nil
}

func askChat(serverURL, question string) (*chatResponse, error) {
	body, _ := json.Marshal(chatRequest{Query: question})
	resp, err := http.Post(serverURL+"/chat", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("POST /chat: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr map[string]string
		json.NewDecoder(resp.Body).Decode(&apiErr)
		return nil, fmt.Errorf("chat returned %d: %s", resp.StatusCode, apiErr["error"])
	}

	var cr chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return nil, fmt.Errorf("decode chat response: %w", err)
	}
	return &cr, nil
}

// ---------------------------------------------------------------------------
// Scenario
// ---------------------------------------------------------------------------

var questions = []string{
	"How many profiles are in the database?",
	"What is the average temperature and salinity per float?",
	"Show me the locations of all floats on a map.",
	"Plot temperature against pressure.",
	"How did salinity change over time in 2024?",
}

func chartKind(plotly map[string]any) string {
	data, ok := plotly["data"].([]any)
	if !ok || len(data) == 0 {
		return "none"
	}
	trace, ok := data[0].(map[string]any)
	if !ok {
		return "none"
	}
	if t, ok := trace["type"].(string); ok {
		return t
	}
	return "unknown"
}

func main() {
	serverURL := flag.String("server", "http://localhost:8000", "FloatChat server base URL")
	pause := flag.Int("pause", 3, "Seconds to pause between questions")
	flag.Parse()

	fmt.Println(colour(bold+white, "\n  FloatChat — scripted demo"))
	fmt.Printf("  server: %s\n", colour(cyan, *serverURL))

	if err := checkHealth(*serverURL); err != nil {
		fmt.Println(colour(red, "  server not reachable: "+err.Error()))
		os.Exit(1)
	}
	fmt.Println(colour(green, "  server healthy ✓"))

	failures := 0
	for i, q := range questions {
		header(i+1, len(questions), q)

		started := time.Now()
		answer, err := askChat(*serverURL, q)
		if err != nil {
			failures++
			fmt.Println(colour(red, "  error: "+err.Error()))
			continue
		}

		fmt.Printf("  %s %s\n", colour(bold+yellow, "SQL:"), colour(dim, answer.SQLQuery))
		fmt.Printf("  %s %s\n", colour(bold+green, "Insight:"), answer.Insights)
		fmt.Printf("  %s %s %s\n",
			colour(bold+cyan, "Chart:"), chartKind(answer.PlotlyJSON),
			colour(dim, fmt.Sprintf("(%.1fs)", time.Since(started).Seconds())))

		if i < len(questions)-1 {
			time.Sleep(time.Duration(*pause) * time.Second)
		}
	}

	fmt.Println()
	if failures > 0 {
		fmt.Println(colour(red, fmt.Sprintf("  demo finished with %d failed questions", failures)))
		os.Exit(1)
	}
	fmt.Println(colour(green, "  demo finished ✓"))
}
