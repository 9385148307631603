// Package output provides formatters for CLI output.
package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"todo/internal/service"
)

// NoTasks is printed when the list is empty.
const NoTasks = "no tasks found"

// FormatTask formats a task line.
// Format: "{N:>4}  [x] {TITLE}\n", with a blank box for open tasks.
func FormatTask(w io.Writer, num int, task service.Task) {
	fmt.Fprintf(w, "%4d  [%s] %s\n", num, mark(task.Done), normalizeTitle(task.Title))
}

// FormatTasks writes every task numbered from 1, or NoTasks when there
// are none and quiet is off.
func FormatTasks(w io.Writer, tasks []service.Task, quiet bool) {
	if len(tasks) == 0 {
		if !quiet {
			fmt.Fprintln(w, NoTasks)
		}
		return
	}
	for i, task := range tasks {
		FormatTask(w, i+1, task)
	}
}

// Status describes the local session for the status command.
type Status struct {
	State  string
	Kind   string
	User   string
	Expiry time.Time
}

// FormatStatus writes one "key: value" line per known field. Times are
// shown in UTC; a zero expiry reads "never".
func FormatStatus(w io.Writer, s Status) {
	fmt.Fprintf(w, "session: %s\n", s.State)
	if s.Kind != "" {
		fmt.Fprintf(w, "token:   %s\n", s.Kind)
	}
	if s.User != "" {
		fmt.Fprintf(w, "user:    %s\n", s.User)
	}
	if s.State == "none" {
		return
	}
	expiry := "never"
	if !s.Expiry.IsZero() {
		expiry = s.Expiry.UTC().Format(time.RFC3339)
	}
	fmt.Fprintf(w, "expires: %s\n", expiry)
}

func mark(done bool) string {
	if done {
		return "x"
	}
	return " "
}

// normalizeTitle normalizes a task title for display.
// - Empty or whitespace-only titles become "(untitled)"
// - Newlines are replaced with spaces
func normalizeTitle(title string) string {
	title = strings.ReplaceAll(title, "\r", " ")
	title = strings.ReplaceAll(title, "\n", " ")

	if strings.TrimSpace(title) == "" {
		return "(untitled)"
	}
	return title
}
