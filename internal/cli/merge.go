package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/osscompliance/catreg/internal/domain"
)

var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Merge two catalog documents into one",
}

var mergeComponentsCmd = &cobra.Command{
	Use:   "components <TARGET-ID> <SOURCE-ID>",
	Short: "Merge a source component into a target component",
	Long: `Merge folds the source component into the target: releases move over,
references to the source are rewritten to the target, and the source is
deleted. The selection file is a JSON component document holding the
field values the merged target should end up with.

Examples:
  catregadm merge components c-target c-source --selection-file merged.json
`,
	Args: cobra.ExactArgs(2),
	RunE: runMergeComponents,
}

var mergeReleasesCmd = &cobra.Command{
	Use:   "releases <TARGET-ID> <SOURCE-ID>",
	Short: "Merge a source release into a target release",
	Long: `Merge folds the source release into the target: links, project usages,
attachment usages, vulnerability relations and ratings are rewritten to
the target, and the source is deleted. The selection file is a JSON
release document holding the field values the merged target should end
up with.`,
	Args: cobra.ExactArgs(2),
	RunE: runMergeReleases,
}

var mergeSelectionFile string

func init() {
	rootAdmCmd.AddCommand(mergeCmd)
	mergeCmd.AddCommand(mergeComponentsCmd)
	mergeCmd.AddCommand(mergeReleasesCmd)

	mergeCmd.PersistentFlags().StringVar(&mergeSelectionFile, "selection-file", "", "JSON file with the selected field values for the merged target (required)")
}

func runMergeComponents(cmd *cobra.Command, args []string) error {
	if mergeSelectionFile == "" {
		return exitError(2, fmt.Errorf("--selection-file is required"))
	}

	var selection domain.Component
	if err := readJSONFile(mergeSelectionFile, &selection); err != nil {
		return exitError(2, err)
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	status, err := a.Handler.MergeComponents(args[0], args[1], &selection, a.Actor)
	if err != nil {
		return exitError(1, fmt.Errorf("merge failed: %w", err))
	}
	return reportStatus("merge", status, args[0], args[1])
}

func runMergeReleases(cmd *cobra.Command, args []string) error {
	if mergeSelectionFile == "" {
		return exitError(2, fmt.Errorf("--selection-file is required"))
	}

	var selection domain.Release
	if err := readJSONFile(mergeSelectionFile, &selection); err != nil {
		return exitError(2, err)
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	status, err := a.Handler.MergeReleases(args[0], args[1], &selection, a.Actor)
	if err != nil {
		return exitError(1, fmt.Errorf("merge failed: %w", err))
	}
	return reportStatus("merge", status, args[0], args[1])
}

// reportStatus prints the operation outcome and turns every non-success
// status into a command error.
func reportStatus(op string, status domain.RequestStatus, targetID, sourceID string) error {
	switch status {
	case domain.StatusSuccess:
		fmt.Printf("✓ %s complete: %s (source %s)\n", op, targetID, sourceID)
		return nil
	case domain.StatusAccessDenied:
		return exitError(3, fmt.Errorf("%s refused: actor lacks permission on %s or %s", op, targetID, sourceID))
	case domain.StatusInUse:
		return exitError(3, fmt.Errorf("%s refused: %s or %s has an open moderation request", op, targetID, sourceID))
	case domain.StatusInvalidInput:
		return exitError(2, fmt.Errorf("%s refused: invalid input", op))
	default:
		return exitError(1, fmt.Errorf("%s ended with status %s", op, status))
	}
}
