package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/BuzzLyutic/optimistic-todo/internal/client"
	"github.com/BuzzLyutic/optimistic-todo/internal/listctl"
	"github.com/BuzzLyutic/optimistic-todo/internal/model"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	accentStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	mutedStyle   = lipgloss.NewStyle().Faint(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	doneStyle    = lipgloss.NewStyle().Faint(true).Strikethrough(true)

	panelStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("8")).Padding(0, 1)

	boxChecked   = "☑"
	boxUnchecked = "☐"
)

func ok(msg string) {
	fmt.Println(successStyle.Render("✔ " + msg))
}

func fail(msg string) {
	fmt.Fprintln(os.Stderr, errorStyle.Render("✖ "+msg))
}

func status(it model.Item) string {
	if it.Completed {
		return "completed"
	}
	return "active"
}

func renderItem(it model.Item, pending bool, errMsg string) string {
	box, title := boxUnchecked, it.Title
	if it.Completed {
		box, title = boxChecked, doneStyle.Render(it.Title)
	}

	line := fmt.Sprintf("%s %s %s %s",
		box,
		mutedStyle.Render(fmt.Sprintf("#%-3d", it.ID)),
		title,
		accentStyle.Render("["+it.Category+"/"+it.Priority+"]"),
	)
	if pending {
		line += " " + pendingStyle.Render("…saving")
	}
	if errMsg != "" {
		line += "\n      " + errorStyle.Render(errMsg)
	}
	return line
}

// renderView draws the list panel. A view that never loaded shows a loading
// line; a loaded empty list says so explicitly.
func renderView(v listctl.View) string {
	header := titleStyle.Render(fmt.Sprintf("Items (%s)", v.Filter))
	if v.State == listctl.Refreshing {
		header += " " + pendingStyle.Render("refreshing")
	}

	lines := []string{header}
	switch {
	case !v.Loaded() && v.Err == nil:
		lines = append(lines, mutedStyle.Render("loading…"))
	case !v.Loaded():
	case len(v.Items) == 0:
		lines = append(lines, mutedStyle.Render("no items"))
	default:
		for _, it := range v.Items {
			lines = append(lines, renderItem(it, v.Pending[it.ID], v.ItemErrors[it.ID]))
		}
	}

	if v.Err != nil {
		lines = append(lines, errorStyle.Render("failed to load: "+v.Err.Error()))
	}
	return panelStyle.Render(strings.Join(lines, "\n"))
}

func renderBatch(res client.BatchResult) string {
	lines := make([]string, 0, len(res.Updated)+len(res.Failed))
	for _, it := range res.Updated {
		lines = append(lines, successStyle.Render(fmt.Sprintf("✔ #%d %s", it.ID, it.Title)))
	}

	ids := make([]int64, 0, len(res.Failed))
	for id := range res.Failed {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		lines = append(lines, errorStyle.Render(fmt.Sprintf("✖ #%d %v", id, res.Failed[id])))
	}
	return strings.Join(lines, "\n")
}

func renderStats(st model.Stats) string {
	return panelStyle.Render(strings.Join([]string{
		titleStyle.Render("Stats"),
		fmt.Sprintf("total     %d", st.Total),
		fmt.Sprintf("active    %d", st.Active),
		fmt.Sprintf("completed %s", successStyle.Render(fmt.Sprint(st.Completed))),
	}, "\n"))
}
