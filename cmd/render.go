package cmd

import (
	"fmt"
	"os"
	"strings"

	"crimemap/choropleth"
	"crimemap/geo"
	"crimemap/report"

	"github.com/spf13/cobra"
)

var (
	renderOutput     string
	renderDBPath     string
	renderBoundaries string
	renderProperty   string
	renderYear       int
	renderSearch     string
	renderMetric     string
	renderScale      string
	renderTitle      string
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render a choropleth map of the stored records",
	Long: `Join the stored records of one year to the county boundaries and draw each
county filled with the colour band of its count, with a legend and title.

The image format follows the --output extension: png, svg or pdf.
Counties without a matching record are drawn grey; unmatched names are
reported on stderr.`,
	Example: `
  # Render total crimes of the latest year
  crimemap render -o ./crime-map.png

  # Render male offenders for 2021 as SVG with quantile bands
  crimemap render --year 2021 --metric male --scale quantile -o ./male-2021.svg

  # Use another boundary file keyed by the NAME property
  crimemap render --boundaries ./counties.geojson --property NAME -o ./map.pdf
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadRuntime()
		if err != nil {
			return err
		}

		format, err := choropleth.FormatFromPath(renderOutput)
		if err != nil {
			return err
		}
		metric, ok := report.ParseMetric(renderMetric)
		if !ok {
			return fmt.Errorf("invalid metric %q (valid: total, male, female)", renderMetric)
		}

		dataset, err := loadStoredDataset(cmd.Context(), renderDBPath)
		if err != nil {
			return err
		}
		period, err := resolvePeriod(dataset, renderYear)
		if err != nil {
			return err
		}

		boundaries, err := geo.LoadBoundaries(
			firstNonEmpty(renderBoundaries, cfg.Boundaries.Path),
			firstNonEmpty(renderProperty, cfg.Boundaries.Property),
		)
		if err != nil {
			return err
		}

		records := dataset.Filter(period, renderSearch)
		joined := geo.Join(records, boundaries)
		scale, err := geo.RecordScale(firstNonEmpty(renderScale, cfg.Map.Scale), records, metric)
		if err != nil {
			return err
		}
		for _, record := range joined.UnmatchedRecords {
			logger.Warn("record has no boundary", "region", record.Region, "year", period)
		}

		file, err := os.Create(renderOutput)
		if err != nil {
			return fmt.Errorf("create map file: %w", err)
		}
		renderErr := choropleth.Render(file, format, boundaries, joined, scale, choropleth.Options{
			Title:  firstNonEmpty(renderTitle, cfg.Map.Title),
			Period: period,
			Metric: metric,
		})
		if closeErr := file.Close(); renderErr == nil && closeErr != nil {
			renderErr = fmt.Errorf("close map file: %w", closeErr)
		}
		if renderErr != nil {
			return renderErr
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Map rendered. Year: %d, Metric: %s, Counties matched: %d/%d, File: %s\n",
			period,
			metric,
			len(joined.ByFeature),
			len(boundaries.Features),
			renderOutput,
		)
		return nil
	},
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().StringVarP(&renderOutput, "output", "o", "", "Output image path (.png, .svg or .pdf)")
	renderCmd.Flags().StringVar(&renderDBPath, "db", defaultDBPath, "Path to local SQLite database")
	renderCmd.Flags().StringVar(&renderBoundaries, "boundaries", "", "GeoJSON boundary file (default: boundaries.path from config)")
	renderCmd.Flags().StringVar(&renderProperty, "property", "", "Feature property holding the county name (default: boundaries.property)")
	renderCmd.Flags().IntVar(&renderYear, "year", 0, "Year to draw (default: latest year in the dataset)")
	renderCmd.Flags().StringVar(&renderSearch, "search", "", "Case-insensitive county name filter")
	renderCmd.Flags().StringVar(&renderMetric, "metric", "total", "Metric: total|male|female")
	renderCmd.Flags().StringVar(&renderScale, "scale", "", "Colour scale: fixed|quantile (default: map.scale)")
	renderCmd.Flags().StringVar(&renderTitle, "title", "", "Map title (default: map.title)")

	_ = renderCmd.MarkFlagRequired("output")
}
