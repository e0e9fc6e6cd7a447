package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/osscompliance/catreg/internal/changelog"
)

var logCmd = &cobra.Command{
	Use:   "log <DOCUMENT-ID>",
	Short: "Show change history for a catalog document",
	Long: `Show change history from the append-only change log.

Examples:
  catregadm log c-0001                 # Show history for a component
  catregadm log r-0001 --patch         # Show field-level diffs
  catregadm log c-0001 --oneline       # Compact format
`,
	Args: cobra.ExactArgs(1),
	RunE: runLog,
}

var (
	logOneline bool
	logPatch   bool
	logJSON    bool
)

func init() {
	rootAdmCmd.AddCommand(logCmd)

	logCmd.Flags().BoolVar(&logOneline, "oneline", false, "Compact one-line format")
	logCmd.Flags().BoolVar(&logPatch, "patch", false, "Show field-level diffs for each entry")
	logCmd.Flags().BoolVar(&logJSON, "json", false, "Output as JSON")
}

func runLog(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	entries, err := a.Changes.ByDocument(args[0])
	if err != nil {
		return exitError(1, fmt.Errorf("failed to query change log: %w", err))
	}
	if len(entries) == 0 {
		fmt.Printf("No change-log entries for %s\n", args[0])
		return nil
	}

	if logJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	for _, e := range entries {
		ts := e.Timestamp.Local().Format(time.RFC3339)
		if logOneline {
			fmt.Printf("%d %s %s %s\n", e.ID, ts, e.Operation, e.UserEdited)
			continue
		}

		fmt.Printf("entry %d\n", e.ID)
		fmt.Printf("Operation: %s (%s)\n", e.Operation, e.DocumentType)
		fmt.Printf("User:      %s\n", e.UserEdited)
		fmt.Printf("Date:      %s\n", ts)
		if e.ReferenceDocID != "" {
			fmt.Printf("Ref:       %s (%s)\n", e.ReferenceDocID, e.ReferenceDocOperation)
		}
		if logPatch && len(e.Changes) > 0 {
			fmt.Println()
			for _, c := range e.Changes {
				diff := changelog.RenderTextDiff(c.Field, c.Old, c.New)
				for _, line := range strings.Split(strings.TrimRight(diff, "\n"), "\n") {
					fmt.Printf("    %s\n", line)
				}
			}
		}
		fmt.Println()
	}

	return nil
}
