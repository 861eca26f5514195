package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var geocodeSuggest bool

var geocodeCmd = &cobra.Command{
	Use:   "geocode <address>",
	Short: "Resolve an address to coordinates",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		if geocodeSuggest {
			pc, err := initPlaces()
			if err != nil {
				return err
			}
			predictions, err := pc.Autocomplete(ctx, args[0])
			if err != nil {
				return eris.Wrap(err, "autocomplete")
			}
			return enc.Encode(predictions)
		}

		gc, err := initGeocoder()
		if err != nil {
			return err
		}
		loc, err := gc.Resolve(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "geocode")
		}
		return enc.Encode(loc)
	},
}

func init() {
	geocodeCmd.Flags().BoolVar(&geocodeSuggest, "suggest", false, "list address predictions instead of resolving")
	rootCmd.AddCommand(geocodeCmd)
}
