package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sliea/antennadesk/client"
)

func newWatchCmd() *cobra.Command {
	var principalID, role string
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream request notifications",
		Long: `Open the notification stream and print events as they arrive.

--principal must match the subject of the token. Use --role admin with a
staff token to receive the staff channel; otherwise the client's own
channel is joined.`,
		Args: cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			opts := client.WatchOptions{
				PrincipalID: principalID,
				Role:        role,
				OnJoined: func(channel string) {
					fmt.Fprintf(os.Stderr, "joined %s\n", channel)
				},
			}
			err := apiClient.Watch(ctx, opts, printEvent)
			switch {
			case err == nil, errors.Is(err, context.Canceled):
			case errors.Is(err, client.ErrServerShutdown):
				fmt.Fprintln(os.Stderr, "server shutting down")
			default:
				fatal("watch", err)
			}
		},
	}
	cmd.Flags().StringVar(&principalID, "principal", "", "Principal ID to join as (token subject)")
	cmd.Flags().StringVar(&role, "role", "user", "Role to join as: user|admin")
	_ = cmd.MarkFlagRequired("principal")
	return cmd
}

func printEvent(e *client.Event) error {
	switch flagFmt {
	case "json":
		formatJSON(e)
		return nil
	case "quiet":
		fmt.Println(e.ID)
		return nil
	}

	n, err := e.Notification()
	if err != nil {
		return err
	}
	var reqID string
	if n.Request.Request != nil {
		reqID = n.Request.ID
	}
	fmt.Printf("%s  %-22s  %s  %s\n", n.Timestamp.Format(time.RFC3339), n.Kind, reqID, n.Message)
	return nil
}
