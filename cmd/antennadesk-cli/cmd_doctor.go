package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/sliea/antennadesk/client"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Diagnose configuration and connectivity",
		Long:  "Run diagnostic checks against config, server, and auth",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			results := runDoctor(ctx, apiClient)
			return printResults(results)
		},
	}
}

type checkResult struct {
	Name   string
	Passed bool
	Detail string
	Hint   string
}

func runDoctor(ctx context.Context, c *client.Client) []checkResult {
	var results []checkResult

	// 1. Config file.
	path, _ := configPath()
	_, err := loadConfigFile()
	switch {
	case err == nil:
		results = append(results, checkResult{Name: "Config file", Passed: true, Detail: path})
	case errors.Is(err, fs.ErrNotExist):
		results = append(results, checkResult{Name: "Config file", Passed: true, Detail: "none (flags and env only)"})
	default:
		results = append(results, checkResult{
			Name: "Config file", Passed: false, Detail: path,
			Hint: fmt.Sprintf("Fix or remove the file. Error: %v", err),
		})
	}

	// 2. Token.
	if flagToken == "" {
		results = append(results, checkResult{
			Name: "Token", Passed: false,
			Hint: "Set --token, ANTENNADESK_TOKEN, or run: antennadesk token issue --subject <user-id>",
		})
	} else {
		results = append(results, checkResult{Name: "Token", Passed: true, Detail: "configured"})
	}

	// 3. Server reachable.
	health, err := c.Health(ctx)
	if err != nil {
		results = append(results, checkResult{
			Name: "Server reachable", Passed: false, Detail: flagURL,
			Hint: fmt.Sprintf("Is the antennadesk server running? Error: %v", err),
		})
		return results
	}
	results = append(results, checkResult{
		Name: "Server reachable", Passed: true,
		Detail: fmt.Sprintf("%s (v%s, database %s)", flagURL, health.Version, health.Database),
	})

	// 4. Readiness.
	if ready, err := c.Ready(ctx); err != nil {
		results = append(results, checkResult{
			Name: "Server ready", Passed: false,
			Hint: fmt.Sprintf("Database or schema not ready. Error: %v", err),
		})
	} else {
		results = append(results, checkResult{Name: "Server ready", Passed: true, Detail: ready.Status})
	}

	// 5. Authentication: any authenticated lookup of an unknown id must not be a 401.
	if flagToken != "" {
		_, err := c.Requests.Get(ctx, uuid.Nil.String())
		if client.IsUnauthorized(err) {
			results = append(results, checkResult{
				Name: "Authentication", Passed: false,
				Hint: fmt.Sprintf("Check the token secret, issuer and expiry. Error: %v", err),
			})
		} else {
			results = append(results, checkResult{Name: "Authentication", Passed: true, Detail: "valid"})
		}
	}

	return results
}

func printResults(results []checkResult) error {
	fmt.Println()
	allPassed := true
	for _, r := range results {
		mark := "ok  "
		if !r.Passed {
			mark = "FAIL"
			allPassed = false
		}
		if r.Detail != "" {
			fmt.Printf("[%s] %s: %s\n", mark, r.Name, r.Detail)
		} else {
			fmt.Printf("[%s] %s\n", mark, r.Name)
		}
		if !r.Passed && r.Hint != "" {
			fmt.Printf("       Hint: %s\n", r.Hint)
		}
	}

	fmt.Println()
	if !allPassed {
		return fmt.Errorf("doctor found issues")
	}
	fmt.Println("All checks passed.")
	return nil
}
