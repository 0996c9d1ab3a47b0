package main

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"NeighborhoodMap-App/internal/application"
	"NeighborhoodMap-App/internal/domain/service"
	"NeighborhoodMap-App/internal/repository"
)

var aggregateGeoJSON bool

var aggregateCmd = &cobra.Command{
	Use:   "aggregate <file>",
	Short: "書き出されたレコードのJSONを読み込み、集約したセルを出力する",
	Long:  "過去の保存形式を含むレコードのJSON配列を読み込み、セルごとに集約して標準出力に書き出す。",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("ファイルの読み込みに失敗: %w", err)
		}

		grid, err := service.NewGrid(cfg.GridStep)
		if err != nil {
			return err
		}

		records, err := repository.DecodeLegacyLocations(data, grid)
		if err != nil {
			return err
		}

		// List は新しい順に返すので、ファイルの順序を保つため逆順で登録する
		slices.Reverse(records)
		svc := application.NewLocationsService(
			repository.NewMemoryLocationsRepository(records...),
			service.NewLocationNormalizer(grid),
			service.NewColorizer(repository.NewMemoryNameColorsRepository()),
			application.Options{},
		)

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")

		if aggregateGeoJSON {
			instructions, err := svc.Instructions(cmd.Context(), nil)
			if err != nil {
				return err
			}
			return enc.Encode(service.FeatureCollection(instructions))
		}

		cells, err := svc.Cells(cmd.Context(), nil)
		if err != nil {
			return err
		}
		return enc.Encode(cells)
	},
}

func init() {
	aggregateCmd.Flags().BoolVar(&aggregateGeoJSON, "geojson", false, "GeoJSON の FeatureCollection で出力する")
	rootCmd.AddCommand(aggregateCmd)
}
