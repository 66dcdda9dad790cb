package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/spf13/cobra"
)

func newEquipmentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "equipment",
		Short: "Inspect equipment",
		Args:  cobra.NoArgs,
		RunE:  showGroupHelp,
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "get <id>",
		Short: "Get equipment by ID",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			eq, err := apiClient.Equipment.Get(context.Background(), args[0])
			if err != nil {
				fatal("get equipment", err)
			}
			output(eq, string(eq.Status))
		},
	})
	return cmd
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Request counts by status and type (staff)",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			stats, err := apiClient.Stats(context.Background())
			if err != nil {
				fatal("get stats", err)
			}
			switch flagFmt {
			case "table":
				rows := make([][]string, 0, len(stats.Groups))
				for _, g := range stats.Groups {
					rows = append(rows, []string{string(g.Status), string(g.Type), strconv.Itoa(g.Count)})
				}
				sort.Slice(rows, func(i, j int) bool {
					if rows[i][0] != rows[j][0] {
						return rows[i][0] < rows[j][0]
					}
					return rows[i][1] < rows[j][1]
				})
				formatTable([]string{"STATUS", "TYPE", "COUNT"}, rows)
				fmt.Printf("total: %d\n", stats.Total)
			default:
				output(stats, strconv.Itoa(stats.Total))
			}
		},
	}
}

func newHealthCmd() *cobra.Command {
	var ready bool
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check server liveness or readiness",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			if ready {
				resp, err := apiClient.Ready(context.Background())
				if err != nil {
					fatal("readiness", err)
				}
				output(resp, resp.Status)
				return
			}
			resp, err := apiClient.Health(context.Background())
			if err != nil {
				fatal("health", err)
			}
			if resp.Status != "ok" {
				fmt.Fprintf(os.Stderr, "server status: %s\n", resp.Status)
			}
			output(resp, resp.Status)
		},
	}
	cmd.Flags().BoolVar(&ready, "ready", false, "Check readiness (database and schema) instead of liveness")
	return cmd
}
