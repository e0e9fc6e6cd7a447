package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show <COMPONENT-ID>",
	Short: "Show a component as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

var linkedCmd = &cobra.Command{
	Use:   "linked <RELEASE-ID>",
	Short: "Show the transitive closure of linked releases",
	Long: `Linked walks the release-link graph from the given release and prints
every reachable release with its relationship and depth. Cycles are
broken by skipping already-visited releases.`,
	Args: cobra.ExactArgs(1),
	RunE: runLinked,
}

func init() {
	rootAdmCmd.AddCommand(showCmd)
	rootAdmCmd.AddCommand(linkedCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	c, err := a.Handler.GetComponent(args[0])
	if err != nil {
		return exitError(1, fmt.Errorf("failed to load component: %w", err))
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(c)
}

func runLinked(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	linked, err := a.Handler.LinkedReleases(args[0])
	if err != nil {
		return exitError(1, fmt.Errorf("failed to walk linked releases: %w", err))
	}
	if len(linked) == 0 {
		fmt.Printf("No linked releases for %s\n", args[0])
		return nil
	}

	for _, l := range linked {
		indent := strings.Repeat("  ", l.Depth-1)
		fmt.Printf("%s%s  %s %s  (%s)\n", indent, l.Release.ID, l.Release.Name, l.Release.Version, l.Relationship)
	}
	return nil
}
