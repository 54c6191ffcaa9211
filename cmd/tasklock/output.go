package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"tasklock/internal/domain"
	"tasklock/internal/engine"
	"tasklock/internal/lifecycle"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printResult reports an action; noop is printed when nothing changed.
func (c *cli) printResult(w io.Writer, res engine.Result, done, noop string) error {
	if c.v.GetBool("json") {
		return printJSON(w, res)
	}
	msg := done
	if !res.Changed {
		msg = noop
	}
	if msg != "" {
		fmt.Fprintln(w, msg)
	}
	return nil
}

func printStatus(w io.Writer, s engine.Status, infoBox bool) {
	if infoBox {
		line := "Current Task: " + s.CurrentTask
		border := "+" + strings.Repeat("-", len(line)+2) + "+"
		fmt.Fprintf(w, "%s\n| %s |\n%s\n", border, line, border)
	} else {
		fmt.Fprintf(w, "Current Task: %s\n", s.CurrentTask)
	}
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.AppendHeader(table.Row{"List", "Tasks"})
	for _, l := range domain.Lists() {
		tw.AppendRow(table.Row{s.Headings[l.String()], s.Counts[l.String()]})
	}
	tw.Render()
	fmt.Fprintf(w, "Next: %s\n", s.RollLabel)
	updated := s.UpdatedAt
	if updated == "" {
		updated = "never"
	}
	fmt.Fprintf(w, "Schema v%d, last saved %s\n", s.SchemaVersion, updated)
}

func printList(w io.Writer, data domain.TaskLockData, l domain.List, loc *time.Location) {
	n := data.Len(l)
	fmt.Fprintln(w, domain.Heading(l, n))
	if n == 0 {
		fmt.Fprintf(w, "  %s\n\n", domain.EmptyLabel(l))
		return
	}
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	switch l {
	case domain.Completed:
		tw.AppendHeader(table.Row{"#", "Completed", "Task"})
		for i, c := range data.Completed {
			tw.AppendRow(table.Row{i + 1, c.CompletedAt.In(loc).Format(lifecycle.TimestampLayout), c.Task})
		}
	default:
		items := data.Active
		if l == domain.Backlog {
			items = data.Backlog
		}
		tw.AppendHeader(table.Row{"#", "Task", ""})
		for i, t := range items {
			marker := ""
			if l == domain.Active && data.HasCurrentTask() && t == data.CurrentTask {
				marker = "current"
			}
			tw.AppendRow(table.Row{i + 1, t, marker})
		}
	}
	tw.Render()
	fmt.Fprintln(w)
}

func printEvents(w io.Writer, items []domain.Event) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.AppendHeader(table.Row{"ID", "Time", "Type", "Task", "Payload"})
	for _, e := range items {
		tw.AppendRow(table.Row{e.ID, e.TS, e.Type, e.Task, e.Payload})
	}
	tw.Render()
}
