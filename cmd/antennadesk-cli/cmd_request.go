package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sliea/antennadesk/client"
)

func newRequestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "request",
		Aliases: []string{"req"},
		Short:   "Manage service requests",
		Args:    cobra.NoArgs,
		RunE:    showGroupHelp,
	}
	cmd.AddCommand(requestCreateCmd())
	cmd.AddCommand(requestGetCmd())
	cmd.AddCommand(requestListCmd())
	cmd.AddCommand(requestUpdateCmd())
	cmd.AddCommand(requestStatusCmd())
	cmd.AddCommand(requestDeleteCmd())
	cmd.AddCommand(requestByClientCmd())
	return cmd
}

func requestCreateCmd() *cobra.Command {
	var reqType, equipmentID, clientID, planID, status, notes string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Open a request against a piece of equipment",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			req := &client.CreateRequestRequest{
				Type:        client.RequestType(reqType),
				ClientID:    clientID,
				EquipmentID: equipmentID,
				PlanID:      planID,
				Status:      client.RequestStatus(status),
				Notes:       notes,
			}
			created, err := apiClient.Requests.Create(context.Background(), req)
			if err != nil {
				fatal("create request", err)
			}
			output(created, created.ID)
		},
	}
	cmd.Flags().StringVar(&reqType, "type", "", "Request type: activate|deactivate|change_plan")
	cmd.Flags().StringVar(&equipmentID, "equipment", "", "Equipment ID")
	cmd.Flags().StringVar(&clientID, "client", "", "Client ID (default: the caller)")
	cmd.Flags().StringVar(&planID, "plan", "", "Target plan ID")
	cmd.Flags().StringVar(&status, "status", "", "Initial status: pending|in_progress (staff only)")
	cmd.Flags().StringVar(&notes, "notes", "", "Free-text notes")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("equipment")
	return cmd
}

func requestGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Get a request by ID",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			req, err := apiClient.Requests.Get(context.Background(), args[0])
			if err != nil {
				fatal("get request", err)
			}
			output(req, req.ID)
		},
	}
}

func requestListCmd() *cobra.Command {
	var status, reqType, clientID string
	var limit, offset int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List requests (staff)",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			if limit < 0 {
				fmt.Fprintf(os.Stderr, "Error: --limit must be non-negative\n")
				os.Exit(1)
			}
			if offset < 0 {
				fmt.Fprintf(os.Stderr, "Error: --offset must be non-negative\n")
				os.Exit(1)
			}
			reqs, hasMore, err := apiClient.Requests.List(context.Background(), &client.ListOptions{
				Status:   client.RequestStatus(status),
				Type:     client.RequestType(reqType),
				ClientID: clientID,
				Limit:    limit,
				Offset:   offset,
			})
			if err != nil {
				fatal("list requests", err)
			}
			printRequests(reqs, hasMore)
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "Filter by status")
	cmd.Flags().StringVar(&reqType, "type", "", "Filter by type")
	cmd.Flags().StringVar(&clientID, "client", "", "Filter by client ID")
	cmd.Flags().IntVar(&limit, "limit", 0, "Max results")
	cmd.Flags().IntVar(&offset, "offset", 0, "Offset")
	return cmd
}

func requestUpdateCmd() *cobra.Command {
	var notes, targetPlan, staff string
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Edit notes, target plan or assigned staff (staff)",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			req := &client.UpdateRequestRequest{}
			if cmd.Flags().Changed("notes") {
				req.Notes = &notes
			}
			if cmd.Flags().Changed("target-plan") {
				req.TargetPlanID = &targetPlan
			}
			if cmd.Flags().Changed("staff") {
				req.AssignedStaffID = &staff
			}
			updated, err := apiClient.Requests.Update(context.Background(), args[0], req)
			if err != nil {
				fatal("update request", err)
			}
			output(updated, updated.ID)
		},
	}
	cmd.Flags().StringVar(&notes, "notes", "", "Replace notes")
	cmd.Flags().StringVar(&targetPlan, "target-plan", "", "Target plan ID (empty clears it)")
	cmd.Flags().StringVar(&staff, "staff", "", "Assigned staff ID")
	return cmd
}

func requestStatusCmd() *cobra.Command {
	var staff, completedBy string
	cmd := &cobra.Command{
		Use:   "status <id> <pending|in_progress|completed>",
		Short: "Move a request through its lifecycle (staff)",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			req := &client.SetStatusRequest{
				Status:          client.RequestStatus(args[1]),
				AssignedStaffID: staff,
				CompletedByID:   completedBy,
			}
			updated, err := apiClient.Requests.SetStatus(context.Background(), args[0], req)
			if err != nil {
				if client.IsConflict(err) {
					fatal("set status", fmt.Errorf("%w (the request changed concurrently; fetch it and retry)", err))
				}
				fatal("set status", err)
			}
			output(updated, string(updated.Status))
		},
	}
	cmd.Flags().StringVar(&staff, "staff", "", "Assigned staff ID")
	cmd.Flags().StringVar(&completedBy, "completed-by", "", "Completing staff ID (completed only)")
	return cmd
}

func requestDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a request (staff)",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			if err := apiClient.Requests.Delete(context.Background(), args[0]); err != nil {
				fatal("delete request", err)
			}
			fmt.Println("deleted")
		},
	}
}

func requestByClientCmd() *cobra.Command {
	var pending bool
	cmd := &cobra.Command{
		Use:   "by-client <client-id>",
		Short: "List the requests of one client",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			var (
				reqs []client.Request
				err  error
			)
			if pending {
				reqs, err = apiClient.Requests.PendingForClient(context.Background(), args[0])
			} else {
				reqs, err = apiClient.Requests.ByClient(context.Background(), args[0])
			}
			if err != nil {
				fatal("list client requests", err)
			}
			printRequests(reqs, false)
		},
	}
	cmd.Flags().BoolVar(&pending, "pending", false, "Only requests that are not completed")
	return cmd
}
