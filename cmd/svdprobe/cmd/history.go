package cmd

import (
	"fmt"

	"github.com/corey/svdprobe/internal/adapters/bbolt"
	"github.com/corey/svdprobe/internal/app"
	"github.com/spf13/cobra"
)

var (
	historyFlags probeFlags
	historyLimit int
	historyAll   bool
	historyClear bool
	historyColor string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded runs of a configuration",
	Long:  "Lists past runs from the ledger, newest first. The configuration flags select which runs.",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	historyFlags.registerConfig(historyCmd)
	f := historyCmd.Flags()
	f.IntVarP(&historyLimit, "limit", "n", 10, "Runs to show (0 = all)")
	f.BoolVar(&historyAll, "all", false, "Show every recorded configuration")
	f.BoolVar(&historyClear, "clear", false, "Delete the selected configuration's runs")
	f.StringVar(&historyColor, "color", "auto", "Colorize output: auto, always, never")
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := historyFlags.config()
	if err != nil {
		return err
	}
	store, err := bbolt.NewStore(historyFlags.ledgerPath())
	if err != nil {
		return err
	}
	defer store.Close()

	key := app.KeyFor(historyFlags.backend, cfg)
	if historyClear {
		if err := store.DeleteKey(key); err != nil {
			return err
		}
		fmt.Printf("cleared %s\n", key)
		return nil
	}

	keys := []string{key}
	if historyAll {
		if keys, err = store.Keys(); err != nil {
			return err
		}
	}
	color := resolveColor(historyColor)
	for _, k := range keys {
		recs, err := store.History(k, historyLimit)
		if err != nil {
			return err
		}
		fmt.Print(formatHistory(k, recs, color))
	}
	return nil
}
