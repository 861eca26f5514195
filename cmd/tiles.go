package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/insights-cli/internal/geo"
	"github.com/sells-group/insights-cli/internal/tiling"
)

var (
	tilesAddress string
	tilesLat     float64
	tilesLng     float64
	tilesRadius  float64
	tilesGeoJSON bool
)

var tilesCmd = &cobra.Command{
	Use:   "tiles",
	Short: "Preview the tile grid for a search without querying places",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		center, err := resolveCenter(ctx, tilesAddress, tilesLat, tilesLng)
		if err != nil {
			return err
		}

		gen := tiling.NewGenerator(cfg.Discovery.TileRadiusMeters)
		tiles, err := gen.Plan(center, geo.MilesToMeters(tilesRadius))
		if err != nil {
			return eris.Wrap(err, "plan tiles")
		}

		if tilesGeoJSON {
			out, err := tiling.EncodeGeoJSON(tiles)
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(tiles)
	},
}

func init() {
	tilesCmd.Flags().StringVar(&tilesAddress, "address", "", "search center address")
	tilesCmd.Flags().Float64Var(&tilesLat, "lat", 0, "search center latitude (alternative to --address)")
	tilesCmd.Flags().Float64Var(&tilesLng, "lng", 0, "search center longitude (alternative to --address)")
	tilesCmd.Flags().Float64Var(&tilesRadius, "radius", 10, "search radius in miles")
	tilesCmd.Flags().BoolVar(&tilesGeoJSON, "geojson", false, "emit the plan as a GeoJSON FeatureCollection")
	rootCmd.AddCommand(tilesCmd)
}
