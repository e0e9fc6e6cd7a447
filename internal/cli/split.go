package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/osscompliance/catreg/internal/domain"
)

var splitCmd = &cobra.Command{
	Use:   "split",
	Short: "Move releases and attachments between two components",
	Long: `Split applies a desired end state to a pair of components: releases and
attachments listed on the target document that currently live on the
source document are moved over. The source and target files are full
JSON component documents describing the intended result.

Examples:
  catregadm split --source-file src.json --target-file dst.json
`,
	RunE: runSplit,
}

var (
	splitSourceFile string
	splitTargetFile string
)

func init() {
	rootAdmCmd.AddCommand(splitCmd)

	splitCmd.Flags().StringVar(&splitSourceFile, "source-file", "", "JSON file with the desired state of the source component (required)")
	splitCmd.Flags().StringVar(&splitTargetFile, "target-file", "", "JSON file with the desired state of the target component (required)")
}

func runSplit(cmd *cobra.Command, args []string) error {
	if splitSourceFile == "" || splitTargetFile == "" {
		return exitError(2, fmt.Errorf("--source-file and --target-file are required"))
	}

	var source, target domain.Component
	if err := readJSONFile(splitSourceFile, &source); err != nil {
		return exitError(2, err)
	}
	if err := readJSONFile(splitTargetFile, &target); err != nil {
		return exitError(2, err)
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	status, err := a.Handler.SplitComponent(&source, &target, a.Actor)
	if err != nil {
		return exitError(1, fmt.Errorf("split failed: %w", err))
	}
	return reportStatus("split", status, target.ID, source.ID)
}
