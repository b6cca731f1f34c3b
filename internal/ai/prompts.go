package ai

import (
	"fmt"
	"strings"
)

// ---------------------------------------------------------------------------
// Prompt templates
// ---------------------------------------------------------------------------

// sqlSystemPrompt is the fixed instruction template for SQL generation. It
// is deterministic: the only variable parts are the retrieved schema text
// and the user's question.
const sqlSystemPrompt = `You write PostgreSQL queries that answer questions about ARGO ocean float data.
- Respond with only the SQL query and nothing else.
- Do not use backticks or markdown.
- The table is named 'argo_profiles'.
- The 'platform_id' column is of type TEXT and requires single quotes in a WHERE clause.

--- IMPORTANT RULES ---
- When a user asks for 'locations', 'map', or 'trajectory', you MUST use GROUP BY platform_id, cycle_number, latitude, longitude to get a single, unique point for each profile.

--- DATA SAMPLING RULES ---
- If the user does NOT specify a date range, time period, or specific year/month, and asks for visualizations (graphs, plots, charts):
  * Use TABLESAMPLE SYSTEM (5) or LIMIT 1000 to sample data for better visualization
  * This prevents overwhelming visualizations with tens of thousands of data points
- If the user specifies dates, years, or time ranges, return all data in that range
- For summary statistics (count, avg, min, max), don't limit the data`

// SQLGenerationPrompt builds the retrieval-augmented prompt that asks the
// model for a single SQL statement.
func SQLGenerationPrompt(schemaContext, question string) []Message {
	var b strings.Builder
	b.WriteString("Schema:\n")
	b.WriteString(strings.TrimSpace(schemaContext))
	b.WriteString("\n\nUser Question: ")
	b.WriteString(fmt.Sprintf("%q", question))
	b.WriteString("\n\nSQL Query:")

	return BuildConversation(sqlSystemPrompt, Message{
		Role:    RoleUser,
		Content: b.String(),
	})
}

// InsightPrompt asks the model for a short textual summary of the result.
// sample must already be limited to a prompt-sized head of the full result.
func InsightPrompt(question, sample string) []Message {
	var b strings.Builder
	fmt.Fprintf(&b, "The user asked the following question: %q.\n", question)
	b.WriteString("The following is a sample of the first rows of data retrieved from the database:\n")
	b.WriteString(sample)
	b.WriteString("\nBased on this data sample, provide a short, friendly, one or two-sentence insight.")

	return BuildConversation(
		"You are an oceanographic data assistant. Be concise and factual.",
		Message{Role: RoleUser, Content: b.String()},
	)
}

// ---------------------------------------------------------------------------
// Reply cleanup
// ---------------------------------------------------------------------------

// CleanSQL strips the formatting artifacts models wrap around SQL: code
// fences, backticks, and a leading "sql" language tag. It performs no
// validation beyond that.
func CleanSQL(reply string) string {
	s := strings.TrimSpace(reply)
	s = strings.ReplaceAll(s, "`", "")
	s = strings.TrimSpace(s)
	if rest, ok := strings.CutPrefix(strings.ToLower(s), "sql"); ok {
		// Only drop the tag when it is its own token, not part of a word.
		if rest == "" || rest[0] == '\n' || rest[0] == ' ' {
			s = strings.TrimSpace(s[3:])
		}
	}
	return s
}
