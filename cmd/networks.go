package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/AvaProtocol/ap-airdrop/core/catalog"
	"github.com/AvaProtocol/ap-airdrop/model"
)

var (
	networkFilter string
	parseFile     string

	networksCmd = &cobra.Command{
		Use:   "networks",
		Short: "Inspect the testnet catalog",
	}

	networksListCmd = &cobra.Command{
		Use:   "list",
		Short: "List the testnets tasks run on",
		Long: `List the testnets from the configured catalog, or the built in list when
no catalog is reachable.

--filter takes an expression over name, chain, tasks, score, rpc, links and
contractAddresses, e.g. 'score >= 8 && "bridge" in tasks'.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openAutomator("")
			if err != nil {
				return err
			}
			defer a.Close()

			networks, err := a.Networks(context.Background(), networkFilter)
			if err != nil {
				return err
			}

			return printNetworks(cmd, networks)
		},
	}

	networksParseCmd = &cobra.Command{
		Use:   "parse",
		Short: "Extract testnet descriptors from free text",
		Long: `Read free text, such as a research note, from --file or stdin and print
the testnet descriptors found in it as JSON.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if parseFile != "" {
				f, err := os.Open(parseFile)
				if err != nil {
					return fmt.Errorf("cannot open %s: %w", parseFile, err)
				}
				defer f.Close()
				in = f
			}

			text, err := io.ReadAll(in)
			if err != nil {
				return err
			}

			networks := catalog.ParseDescriptors(string(text))

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(&catalog.Response{Testnets: networks})
		},
	}
)

func printNetworks(cmd *cobra.Command, networks []*model.Network) error {
	rows := pterm.TableData{{"Name", "Chain", "Score", "Tasks"}}
	for _, n := range networks {
		tasks := make([]string, len(n.Tasks))
		for i, k := range n.Tasks {
			tasks[i] = string(k)
		}
		rows = append(rows, []string{n.Name, n.Chain, fmt.Sprintf("%.1f", n.Score), strings.Join(tasks, ", ")})
	}

	table, err := pterm.DefaultTable.WithHasHeader().WithData(rows).Srender()
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), table)
	return nil
}

func init() {
	networksListCmd.Flags().StringVar(&networkFilter, "filter", "", "Filter expression")
	networksParseCmd.Flags().StringVarP(&parseFile, "file", "f", "", "Text file to parse, stdin when empty")

	networksCmd.AddCommand(networksListCmd, networksParseCmd)
	rootCmd.AddCommand(networksCmd)
}
