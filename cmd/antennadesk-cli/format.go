package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sliea/antennadesk/client"
)

func formatJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "Error: encode json: %v\n", err)
		os.Exit(1)
	}
}

func formatTable(headers []string, rows [][]string) {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	printRow := func(cells []string) {
		parts := make([]string, len(cells))
		for i, cell := range cells {
			w := 0
			if i < len(widths) {
				w = widths[i]
			}
			parts[i] = fmt.Sprintf("%-*s", w, cell)
		}
		fmt.Println(strings.TrimRight(strings.Join(parts, "  "), " "))
	}

	printRow(headers)
	seps := make([]string, len(headers))
	for i, w := range widths {
		seps[i] = strings.Repeat("-", w)
	}
	printRow(seps)
	for _, row := range rows {
		printRow(row)
	}
}

func output(v any, quietVal string) {
	if flagFmt == "quiet" {
		fmt.Println(quietVal)
		return
	}
	// Single records have no table layout.
	formatJSON(v)
}

// requestRow flattens a request into table cells.
func requestRow(r *client.Request) []string {
	var clientName, kit string
	if r.Client != nil {
		clientName = r.Client.Username
	}
	if r.Equipment != nil {
		kit = r.Equipment.KitNumber
	}
	return []string{r.ID, string(r.Type), string(r.Status), clientName, kit, r.UpdatedAt.Format(time.RFC3339)}
}

func printRequests(reqs []client.Request, hasMore bool) {
	switch flagFmt {
	case "table":
		rows := make([][]string, 0, len(reqs))
		for i := range reqs {
			rows = append(rows, requestRow(&reqs[i]))
		}
		formatTable([]string{"ID", "TYPE", "STATUS", "CLIENT", "KIT", "UPDATED"}, rows)
		if hasMore {
			fmt.Println("(more results: use --offset)")
		}
	case "quiet":
		for _, r := range reqs {
			fmt.Println(r.ID)
		}
	default:
		if reqs == nil {
			reqs = []client.Request{}
		}
		formatJSON(reqs)
	}
}
