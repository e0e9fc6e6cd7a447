package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/osscompliance/catreg/internal/domain"
)

var moderationCmd = &cobra.Command{
	Use:     "moderation",
	Aliases: []string{"mod"},
	Short:   "Inspect and resolve moderation requests",
}

var moderationListCmd = &cobra.Command{
	Use:   "list <DOCUMENT-ID>",
	Short: "List open moderation requests for a document",
	Args:  cobra.ExactArgs(1),
	RunE:  runModerationList,
}

var moderationAcceptCmd = &cobra.Command{
	Use:   "accept <REQUEST-ID>",
	Short: "Accept a moderation request and apply its proposed changes",
	Args:  cobra.ExactArgs(1),
	RunE:  runModerationAccept,
}

var moderationRejectCmd = &cobra.Command{
	Use:   "reject <REQUEST-ID>",
	Short: "Reject a moderation request without applying it",
	Args:  cobra.ExactArgs(1),
	RunE:  runModerationReject,
}

func init() {
	rootAdmCmd.AddCommand(moderationCmd)
	moderationCmd.AddCommand(moderationListCmd)
	moderationCmd.AddCommand(moderationAcceptCmd)
	moderationCmd.AddCommand(moderationRejectCmd)
}

func runModerationList(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	reqs, err := a.Moderation.OpenByDocument(args[0])
	if err != nil {
		return exitError(1, fmt.Errorf("failed to query moderation requests: %w", err))
	}
	if len(reqs) == 0 {
		fmt.Printf("No open moderation requests for %s\n", args[0])
		return nil
	}

	for _, req := range reqs {
		fmt.Printf("%s  %s  %s  %s  %s\n", req.ID, req.State, req.DocumentKind,
			req.RequestingUser, req.Timestamp.Local().Format(time.RFC3339))
	}
	return nil
}

func runModerationAccept(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	status, err := a.Handler.AcceptModerationRequest(args[0], a.Actor)
	if err != nil {
		return exitError(1, fmt.Errorf("accept failed: %w", err))
	}
	if status != domain.StatusSuccess {
		return exitError(3, fmt.Errorf("accept ended with status %s", status))
	}
	fmt.Printf("✓ Accepted moderation request %s\n", args[0])
	return nil
}

func runModerationReject(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	status, err := a.Handler.RejectModerationRequest(args[0], a.Actor)
	if err != nil {
		return exitError(1, fmt.Errorf("reject failed: %w", err))
	}
	if status != domain.StatusSuccess {
		return exitError(3, fmt.Errorf("reject ended with status %s", status))
	}
	fmt.Printf("✓ Rejected moderation request %s\n", args[0])
	return nil
}
