package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/example/shiftcover/internal/ports/primary"
	"github.com/example/shiftcover/internal/wire"
)

var broadcastCmd = &cobra.Command{
	Use:   "broadcast",
	Short: "Manage shift coverage broadcasts",
	Long:  "Create, list, and manage external coverage broadcasts for unfilled shifts",
}

var broadcastCreateCmd = &cobra.Command{
	Use:   "create [shift-id]",
	Short: "Broadcast a shift to external staffing partners",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		locationID, _ := cmd.Flags().GetString("location")
		departmentID, _ := cmd.Flags().GetString("department")
		urgency, _ := cmd.Flags().GetString("urgency")
		maxTiers, _ := cmd.Flags().GetInt("max-tiers")
		deadlineIn, _ := cmd.Flags().GetDuration("deadline-in")

		req := primary.CreateBroadcastRequest{
			ShiftID:      args[0],
			LocationID:   locationID,
			DepartmentID: departmentID,
			Deadline:     time.Now().Add(deadlineIn),
			Urgency:      urgency,
			MaxTiers:     maxTiers,
		}

		resp, err := wire.BroadcastService().CreateBroadcast(ctx, req)
		if err != nil {
			return fmt.Errorf("failed to create broadcast: %w", err)
		}

		b := resp.Broadcast
		fmt.Printf("✓ Created broadcast %s for shift %s\n", b.ID, b.ShiftID)
		fmt.Printf("  Location: %s\n", b.LocationID)
		fmt.Printf("  Urgency:  %s\n", colorUrgency(b.Urgency))
		fmt.Printf("  Deadline: %s (%s)\n", b.ResponseDeadline.Local().Format("2006-01-02 15:04"), b.Remaining.Display)
		return nil
	},
}

var broadcastListCmd = &cobra.Command{
	Use:   "list",
	Short: "List broadcasts",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		status, _ := cmd.Flags().GetString("status")
		locationID, _ := cmd.Flags().GetString("location")
		limit, _ := cmd.Flags().GetInt("limit")

		broadcasts, err := wire.BroadcastService().ListBroadcasts(ctx, primary.BroadcastFilters{
			Status:     status,
			LocationID: locationID,
			Limit:      limit,
		})
		if err != nil {
			return fmt.Errorf("failed to list broadcasts: %w", err)
		}

		if len(broadcasts) == 0 {
			fmt.Println("No broadcasts found.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSHIFT\tLOCATION\tSTATUS\tURGENCY\tTIER\tRESPONSES\tDEADLINE")
		fmt.Fprintln(w, "--\t-----\t--------\t------\t-------\t----\t---------\t--------")
		for _, b := range broadcasts {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d/%d\t%d/%d\t%s\n",
				b.ID,
				b.ShiftID,
				b.LocationID,
				b.Status,
				colorUrgency(b.Urgency),
				b.CurrentTier,
				b.MaxTiers,
				b.PartnersResponded,
				b.PartnersNotified,
				colorRemaining(b),
			)
		}
		w.Flush()
		return nil
	},
}

var broadcastShowCmd = &cobra.Command{
	Use:   "show [broadcast-id]",
	Short: "Show broadcast details and escalation history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		b, err := wire.BroadcastService().GetBroadcast(ctx, args[0])
		if err != nil {
			return fmt.Errorf("broadcast not found: %w", err)
		}

		fmt.Printf("\nBroadcast: %s\n", b.ID)
		fmt.Printf("Shift:     %s\n", b.ShiftID)
		fmt.Printf("Location:  %s\n", b.LocationID)
		if b.DepartmentID != "" {
			fmt.Printf("Department: %s\n", b.DepartmentID)
		}
		fmt.Printf("Status:    %s\n", b.Status)
		fmt.Printf("Urgency:   %s\n", colorUrgency(b.Urgency))
		fmt.Printf("Tier:      %d of %d\n", b.CurrentTier, b.MaxTiers)
		fmt.Printf("Partners:  %d notified, %d responded\n", b.PartnersNotified, b.PartnersResponded)
		fmt.Printf("Broadcast: %s\n", b.BroadcastedAt.Local().Format("2006-01-02 15:04"))
		fmt.Printf("Deadline:  %s (%s)\n", b.ResponseDeadline.Local().Format("2006-01-02 15:04"), colorRemaining(b))

		if len(b.History) > 0 {
			fmt.Println("\nEscalation history:")
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			for _, h := range b.History {
				rule := h.RuleID
				if rule == "" {
					rule = "-"
				}
				fmt.Fprintf(w, "  %s\t%s\t%s\t%s\n",
					h.At.Local().Format("2006-01-02 15:04"),
					h.Kind,
					rule,
					h.Reason,
				)
			}
			w.Flush()
		}
		fmt.Println()
		return nil
	},
}

var broadcastFillCmd = &cobra.Command{
	Use:   "fill [broadcast-id]",
	Short: "Mark a broadcast filled by a partner candidate",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		filledBy, _ := cmd.Flags().GetString("by")

		err := wire.BroadcastService().FillBroadcast(ctx, primary.FillBroadcastRequest{
			BroadcastID: args[0],
			FilledBy:    filledBy,
		})
		if err != nil {
			return fmt.Errorf("failed to fill broadcast: %w", err)
		}

		fmt.Printf("✓ Broadcast %s filled\n", args[0])
		return nil
	},
}

var broadcastCancelCmd = &cobra.Command{
	Use:   "cancel [broadcast-id]",
	Short: "Cancel a broadcast (shift no longer needs coverage)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		cancelledBy, _ := cmd.Flags().GetString("by")
		reason, _ := cmd.Flags().GetString("reason")

		err := wire.BroadcastService().CancelBroadcast(ctx, primary.CancelBroadcastRequest{
			BroadcastID: args[0],
			CancelledBy: cancelledBy,
			Reason:      reason,
		})
		if err != nil {
			return fmt.Errorf("failed to cancel broadcast: %w", err)
		}

		fmt.Printf("✓ Broadcast %s cancelled\n", args[0])
		return nil
	},
}

var broadcastExtendCmd = &cobra.Command{
	Use:   "extend [broadcast-id]",
	Short: "Extend the response deadline",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		minutes, _ := cmd.Flags().GetInt("minutes")
		reason, _ := cmd.Flags().GetString("reason")

		err := wire.BroadcastService().ExtendDeadline(ctx, primary.ExtendDeadlineRequest{
			BroadcastID:   args[0],
			ExtendMinutes: minutes,
			Reason:        reason,
		})
		if err != nil {
			return fmt.Errorf("failed to extend deadline: %w", err)
		}

		fmt.Printf("✓ Broadcast %s deadline extended by %dm\n", args[0], minutes)
		return nil
	},
}

var broadcastEscalateCmd = &cobra.Command{
	Use:   "escalate [broadcast-id]",
	Short: "Escalate a broadcast to a supervisor",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		reason, _ := cmd.Flags().GetString("reason")

		err := wire.BroadcastService().EscalateToSupervisor(ctx, primary.EscalateRequest{
			BroadcastID: args[0],
			Reason:      reason,
		})
		if err != nil {
			return fmt.Errorf("failed to escalate broadcast: %w", err)
		}

		fmt.Printf("✓ Broadcast %s escalated to supervisor\n", args[0])
		return nil
	},
}

var broadcastRespondCmd = &cobra.Command{
	Use:   "respond [broadcast-id]",
	Short: "Record a partner's candidate submission",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		partnerID, _ := cmd.Flags().GetString("partner")
		candidate, _ := cmd.Flags().GetString("candidate")
		score, _ := cmd.Flags().GetFloat64("score")

		err := wire.BroadcastService().RecordResponse(ctx, primary.RecordResponseRequest{
			BroadcastID:   args[0],
			PartnerID:     partnerID,
			CandidateName: candidate,
			Score:         score,
		})
		if err != nil {
			return fmt.Errorf("failed to record response: %w", err)
		}

		fmt.Printf("✓ Recorded response from %s for %s\n", partnerID, args[0])
		return nil
	},
}

var broadcastResponsesCmd = &cobra.Command{
	Use:   "responses [broadcast-id]",
	Short: "List partner responses for a broadcast",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		responses, err := wire.BroadcastService().ListResponses(ctx, args[0])
		if err != nil {
			return fmt.Errorf("failed to list responses: %w", err)
		}

		if len(responses) == 0 {
			fmt.Println("No responses yet.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "PARTNER\tCANDIDATE\tSCORE\tSTATUS\tSUBMITTED")
		fmt.Fprintln(w, "-------\t---------\t-----\t------\t---------")
		for _, r := range responses {
			candidate := r.CandidateName
			if candidate == "" {
				candidate = "-"
			}
			fmt.Fprintf(w, "%s\t%s\t%.2f\t%s\t%s\n",
				r.PartnerID,
				candidate,
				r.Score,
				r.Status,
				r.SubmittedAt.Local().Format("2006-01-02 15:04"),
			)
		}
		w.Flush()
		return nil
	},
}

func colorUrgency(urgency string) string {
	switch urgency {
	case "urgent":
		return color.New(color.FgYellow).Sprint(urgency)
	case "critical":
		return color.New(color.FgRed, color.Bold).Sprint(urgency)
	default:
		return urgency
	}
}

func colorRemaining(b *primary.Broadcast) string {
	if b.Status != "pending" {
		return "-"
	}
	if b.Remaining.Overdue {
		return color.New(color.FgRed).Sprint(b.Remaining.Display)
	}
	return b.Remaining.Display
}

func init() {
	broadcastCreateCmd.Flags().String("location", "", "Location ID (required)")
	broadcastCreateCmd.Flags().String("department", "", "Department ID")
	broadcastCreateCmd.Flags().StringP("urgency", "u", "", "Initial urgency (standard, urgent, critical)")
	broadcastCreateCmd.Flags().Int("max-tiers", 0, "Maximum partner tier (default 3)")
	broadcastCreateCmd.Flags().Duration("deadline-in", 8*time.Hour, "Response deadline relative to now")
	broadcastCreateCmd.MarkFlagRequired("location")

	broadcastListCmd.Flags().StringP("status", "s", "", "Filter by status")
	broadcastListCmd.Flags().String("location", "", "Filter by location")
	broadcastListCmd.Flags().Int("limit", 0, "Limit the number of results")

	broadcastFillCmd.Flags().String("by", "", "Partner or candidate that filled the shift")

	broadcastCancelCmd.Flags().String("by", "", "Who cancelled the broadcast")
	broadcastCancelCmd.Flags().String("reason", "", "Cancellation reason")

	broadcastExtendCmd.Flags().Int("minutes", 60, "Minutes to extend the deadline by")
	broadcastExtendCmd.Flags().String("reason", "", "Extension reason")

	broadcastEscalateCmd.Flags().String("reason", "", "Escalation reason")

	broadcastRespondCmd.Flags().String("partner", "", "Partner ID (required)")
	broadcastRespondCmd.Flags().String("candidate", "", "Candidate name")
	broadcastRespondCmd.Flags().Float64("score", 0, "Match score")
	broadcastRespondCmd.MarkFlagRequired("partner")

	broadcastCmd.AddCommand(broadcastCreateCmd)
	broadcastCmd.AddCommand(broadcastListCmd)
	broadcastCmd.AddCommand(broadcastShowCmd)
	broadcastCmd.AddCommand(broadcastFillCmd)
	broadcastCmd.AddCommand(broadcastCancelCmd)
	broadcastCmd.AddCommand(broadcastExtendCmd)
	broadcastCmd.AddCommand(broadcastEscalateCmd)
	broadcastCmd.AddCommand(broadcastRespondCmd)
	broadcastCmd.AddCommand(broadcastResponsesCmd)
}

// BroadcastCmd returns the broadcast command
func BroadcastCmd() *cobra.Command {
	return broadcastCmd
}
