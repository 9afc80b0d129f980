package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/couchcryptid/cyclone-track-service/internal/adapter/export"
	"github.com/couchcryptid/cyclone-track-service/internal/adapter/source"
	"github.com/couchcryptid/cyclone-track-service/internal/config"
	"github.com/couchcryptid/cyclone-track-service/internal/domain"
	"github.com/couchcryptid/cyclone-track-service/internal/observability"
	"github.com/couchcryptid/cyclone-track-service/internal/pipeline"
	"github.com/couchcryptid/cyclone-track-service/internal/render"
	"github.com/couchcryptid/cyclone-track-service/internal/spatial"
	"github.com/couchcryptid/cyclone-track-service/internal/viewer"
)

var (
	sourcePath string
	year       int
	index      int
	bboxFlag   string
	tracks     bool
	outPath    string
	logLevel   string
	timeout    time.Duration
)

var rootCmd = &cobra.Command{
	Use:           "trackctl",
	Short:         "Inspect a cyclone track archive offline",
	Long:          `Load a cyclone observation document and print the views the tracker service would serve.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Print load statistics and per-storm summaries for a year",
	RunE:  runSummary,
}

var timestampsCmd = &cobra.Command{
	Use:   "timestamps",
	Short: "List the frame timestamps of a year",
	RunE:  runTimestamps,
}

var frameCmd = &cobra.Command{
	Use:   "frame",
	Short: "Print the markers of one frame",
	RunE:  runFrame,
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write every kept observation to a Parquet file",
	RunE:  runExport,
}

var geojsonCmd = &cobra.Command{
	Use:   "geojson",
	Short: "Write a frame or the year's tracks as GeoJSON",
	RunE:  runGeoJSON,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&sourcePath, "source", "s", "data/cyclones.json", "Source file path or URL")
	rootCmd.PersistentFlags().IntVarP(&year, "year", "y", config.MinYear, "Year to inspect")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Source fetch timeout")

	for _, cmd := range []*cobra.Command{frameCmd, geojsonCmd} {
		cmd.Flags().IntVarP(&index, "index", "i", 0, "Timestamp index")
		cmd.Flags().StringVar(&bboxFlag, "bbox", "", "Viewport as minLat,minLon,maxLat,maxLon")
	}
	geojsonCmd.Flags().BoolVar(&tracks, "tracks", false, "Write track lines instead of a frame")
	exportCmd.Flags().StringVarP(&outPath, "out", "o", "cyclones.parquet", "Output Parquet file")

	rootCmd.AddCommand(summaryCmd, timestampsCmd, frameCmd, geojsonCmd, exportCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadViewer runs the load stage into a fresh viewer positioned at year.
// Sinks receive the full collection, not only the year.
func loadViewer(ctx context.Context, sinks ...pipeline.Sink) (*viewer.Viewer, domain.Stats, error) {
	logger := observability.NewCLILogger(os.Stderr, logLevel)
	metrics := observability.NewMetricsWithRegistry(prometheus.NewRegistry())

	v, err := viewer.New(year, metrics)
	if err != nil {
		return nil, domain.Stats{}, err
	}
	p := pipeline.New(source.NewLoader(timeout, logger), sourcePath, v, logger, metrics, sinks...)
	if err := p.Run(ctx); err != nil {
		return nil, domain.Stats{}, err
	}
	return v, p.Stats(), nil
}

// loadFrame loads the viewer and moves it to the requested index.
func loadFrame(ctx context.Context) (*viewer.Viewer, []domain.Point, error) {
	v, _, err := loadViewer(ctx)
	if err != nil {
		return nil, nil, err
	}
	if err := v.SetIndex(index); err != nil {
		return nil, nil, err
	}

	var bbox *spatial.BBox
	if bboxFlag != "" {
		b, err := spatial.ParseBBox(bboxFlag)
		if err != nil {
			return nil, nil, err
		}
		bbox = &b
	}
	points, err := v.Frame(bbox)
	return v, points, err
}

func runSummary(cmd *cobra.Command, _ []string) error {
	v, stats, err := loadViewer(cmd.Context())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "records: %d  kept: %d  dropped (coordinates): %d  defaulted wind: %d  defaulted pressure: %d\n",
		stats.Total, stats.Kept, stats.DroppedCoords, stats.DefaultedWind, stats.DefaultedPress)

	view := v.Snapshot()
	fmt.Fprintf(out, "years with data: %s\n", joinYears(view.Years))
	fmt.Fprintf(out, "year %d: %d storms, %d frames\n\n", view.Year, len(view.Tracks), view.Frames)
	return writeSummaries(out, view.Tracks)
}

func joinYears(years []int) string {
	if len(years) == 0 {
		return "none"
	}
	parts := make([]string, len(years))
	for i, y := range years {
		parts[i] = strconv.Itoa(y)
	}
	return strings.Join(parts, " ")
}

func writeSummaries(w io.Writer, tracks []domain.StormTrack) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tFIXES\tFIRST\tLAST\tPEAK GRADE\tPEAK WIND KM/H\tMIN HPA\tLENGTH KM")
	for _, t := range tracks {
		s := domain.Summarize(t)
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%s\t%s\t%.1f\t%.0f\t%.0f\n",
			s.StormID, s.Name, s.Fixes, s.FirstSeen, s.LastSeen, s.PeakGrade, s.PeakWind, s.MinPressure, s.TrackLengthKM)
	}
	return tw.Flush()
}

func runTimestamps(cmd *cobra.Command, _ []string) error {
	v, _, err := loadViewer(cmd.Context())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for i, ts := range v.Timestamps() {
		fmt.Fprintf(out, "%d\t%s\n", i, ts)
	}
	return nil
}

func runFrame(cmd *cobra.Command, _ []string) error {
	v, points, err := loadFrame(cmd.Context())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	view := v.Snapshot()
	fmt.Fprintf(out, "year %d  frame %d/%d  %s\n", view.Year, view.Index, view.SliderMax, view.Timestamp)
	for _, m := range render.Markers(points, nil) {
		fmt.Fprintf(out, "\n[%s r=%.1f]\n%s\n", m.Color, m.Radius, m.Tooltip)
	}
	return nil
}

func runGeoJSON(cmd *cobra.Command, _ []string) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")

	if tracks {
		v, _, err := loadViewer(cmd.Context())
		if err != nil {
			return err
		}
		return enc.Encode(render.TrackLines(v.Tracks()))
	}

	_, points, err := loadFrame(cmd.Context())
	if err != nil {
		return err
	}
	return enc.Encode(render.FeatureCollection(render.Markers(points, nil)))
}

// collector keeps the published collection so that export errors reach the
// command instead of only being logged by the pipeline.
type collector struct {
	points []domain.Point
}

func (c *collector) Publish(_ context.Context, points []domain.Point) error {
	c.points = points
	return nil
}

func runExport(cmd *cobra.Command, _ []string) error {
	var c collector
	_, stats, err := loadViewer(cmd.Context(), &c)
	if err != nil {
		return err
	}
	if err := export.NewFileSink(outPath).Publish(cmd.Context(), c.points); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %d observations to %s\n", stats.Kept, outPath)
	return nil
}
