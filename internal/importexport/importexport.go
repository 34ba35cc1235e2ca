// Package importexport implements the data-side import/export contract:
// JSON, YAML, and CSV codecs over a slice of tickets, plus a one-way
// Markdown export. CLI flag handling and file-format auto-detection glue
// live outside the core, per spec.md's scope.
package importexport

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/videticket/videticket/internal/domain"
)

// csvHeader is the fixed 13-column header, in order.
var csvHeader = []string{
	"ID", "Slug", "Title", "Status", "Priority", "Assignee", "Tags",
	"Created At", "Started At", "Closed At", "Tasks Total", "Tasks Completed",
	"Description",
}

// jsonEnvelope supports both a bare top-level array and {"tickets": [...]}.
type jsonEnvelope struct {
	Tickets []domain.Ticket `json:"tickets"`
}

// DecodeJSON accepts either a top-level array of tickets or a top-level
// object with a "tickets" field.
func DecodeJSON(b []byte) ([]domain.Ticket, error) {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var tickets []domain.Ticket
		if err := json.Unmarshal(trimmed, &tickets); err != nil {
			return nil, err
		}
		return tickets, nil
	}
	var env jsonEnvelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, err
	}
	return env.Tickets, nil
}

// EncodeJSON renders tickets as a top-level JSON array.
func EncodeJSON(tickets []domain.Ticket) ([]byte, error) {
	return json.MarshalIndent(tickets, "", "  ")
}

// yamlEnvelope mirrors jsonEnvelope for the YAML codec.
type yamlEnvelope struct {
	Tickets []domain.Ticket `yaml:"tickets"`
}

// DecodeYAML accepts either a top-level sequence of tickets or a top-level
// mapping with a "tickets" field.
func DecodeYAML(b []byte) ([]domain.Ticket, error) {
	var tickets []domain.Ticket
	if err := yaml.Unmarshal(b, &tickets); err == nil && tickets != nil {
		return tickets, nil
	}
	var env yamlEnvelope
	if err := yaml.Unmarshal(b, &env); err != nil {
		return nil, err
	}
	return env.Tickets, nil
}

// EncodeYAML renders tickets as a top-level YAML sequence.
func EncodeYAML(tickets []domain.Ticket) ([]byte, error) {
	return yaml.Marshal(tickets)
}

// EncodeCSV renders tickets per the fixed 13-column contract: tags are
// comma-space-joined, newlines in the description become spaces, and tasks
// are summarized as totals only (the task list itself is not round-tripped).
func EncodeCSV(tickets []domain.Ticket) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}
	for _, t := range tickets {
		completed := 0
		for _, task := range t.Tasks {
			if task.Completed {
				completed++
			}
		}
		assignee := ""
		if t.Assignee != nil {
			assignee = *t.Assignee
		}
		row := []string{
			t.ID.String(),
			t.Slug,
			t.Title,
			t.Status.String(),
			t.Priority.String(),
			assignee,
			strings.Join(t.Tags, ", "),
			formatTime(t.CreatedAt),
			formatOptionalTime(t.StartedAt),
			formatOptionalTime(t.ClosedAt),
			strconv.Itoa(len(t.Tasks)),
			strconv.Itoa(completed),
			flattenNewlines(t.Description),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeCSV parses the fixed 13-column format back into partial tickets.
// Tasks are not reconstructed (the task list is left empty, per the
// one-way nature of the Tasks Total/Tasks Completed columns).
func DecodeCSV(b []byte) ([]domain.Ticket, error) {
	r := csv.NewReader(bytes.NewReader(b))
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	out := make([]domain.Ticket, 0, len(records)-1)
	for _, row := range records[1:] {
		if len(row) != len(csvHeader) {
			return nil, fmt.Errorf("expected %d columns, got %d", len(csvHeader), len(row))
		}
		t := domain.Ticket{
			Slug:        row[1],
			Title:       row[2],
			Description: row[12],
			Tasks:       []domain.Task{},
			Metadata:    map[string]any{},
		}
		if status, err := domain.ParseStatus(row[3]); err == nil {
			t.Status = status
		}
		if priority, err := domain.ParsePriority(row[4]); err == nil {
			t.Priority = priority
		}
		if row[5] != "" {
			assignee := row[5]
			t.Assignee = &assignee
		}
		if row[6] != "" {
			for _, tag := range strings.Split(row[6], ", ") {
				t.Tags = append(t.Tags, tag)
			}
		}
		out = append(out, t)
	}
	return out, nil
}

// ExportMarkdown renders a human-readable, one-way Markdown report. It is
// never accepted on import.
func ExportMarkdown(tickets []domain.Ticket) []byte {
	var buf bytes.Buffer
	for _, t := range tickets {
		fmt.Fprintf(&buf, "## %s (%s)\n\n", t.Title, t.Slug)
		fmt.Fprintf(&buf, "- Status: %s\n", t.Status)
		fmt.Fprintf(&buf, "- Priority: %s\n", t.Priority)
		if len(t.Tags) > 0 {
			fmt.Fprintf(&buf, "- Tags: %s\n", strings.Join(t.Tags, ", "))
		}
		if t.Description != "" {
			fmt.Fprintf(&buf, "\n%s\n", t.Description)
		}
		if len(t.Tasks) > 0 {
			buf.WriteString("\n")
			for _, task := range t.Tasks {
				mark := " "
				if task.Completed {
					mark = "x"
				}
				fmt.Fprintf(&buf, "- [%s] %s\n", mark, task.Title)
			}
		}
		buf.WriteString("\n")
	}
	return buf.Bytes()
}

// Conflict describes why a ticket in an import batch was rejected.
type Conflict struct {
	Slug   string
	Reason string
}

// Validate collects every conflict in a batch rather than failing on the
// first one: a duplicate slug within the batch itself, or a collision with
// an already-existing slug.
func Validate(batch []domain.Ticket, existingSlugs map[string]bool) []Conflict {
	var conflicts []Conflict
	seen := make(map[string]bool, len(batch))
	for _, t := range batch {
		if seen[t.Slug] {
			conflicts = append(conflicts, Conflict{Slug: t.Slug, Reason: "duplicate slug within import batch"})
			continue
		}
		seen[t.Slug] = true
		if existingSlugs[t.Slug] {
			conflicts = append(conflicts, Conflict{Slug: t.Slug, Reason: "slug already exists in repository"})
		}
	}
	return conflicts
}

// FilterNew returns the subset of batch whose slug is not already present
// in existingSlugs, implementing the "skip rather than overwrite" import
// policy. It does not deduplicate within batch itself; pair with Validate
// for that.
func FilterNew(batch []domain.Ticket, existingSlugs map[string]bool) []domain.Ticket {
	out := make([]domain.Ticket, 0, len(batch))
	for _, t := range batch {
		if existingSlugs[t.Slug] {
			continue
		}
		out = append(out, t)
	}
	return out
}

// flattenNewlines collapses embedded newlines to spaces so a description
// survives a single CSV field without escaping.
func flattenNewlines(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "\r\n", " "), "\n", " ")
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

func formatOptionalTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatTime(*t)
}
