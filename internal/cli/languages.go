package cli

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

type languageInfo struct {
	Name       string   `json:"name"`
	Extensions []string `json:"extensions"`
}

func newLanguagesCommand(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "languages",
		Short: "List registered language plugins and their extensions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, _, err := a.newSplitter()
			if err != nil {
				return err
			}

			var infos []languageInfo
			for _, plugin := range registry.GetAllParsers() {
				exts := slices.Clone(plugin.Extensions())
				slices.Sort(exts)
				infos = append(infos, languageInfo{Name: plugin.Name(), Extensions: exts})
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(infos)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "LANGUAGE\tEXTENSIONS")
			for _, info := range infos {
				fmt.Fprintf(tw, "%s\t%s\n", info.Name, strings.Join(info.Extensions, " "))
			}
			return tw.Flush()
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func sortedKeys(m map[string]int) []string {
	return slices.Sorted(maps.Keys(m))
}
