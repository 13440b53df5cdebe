package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jpfielding/dcmvol/pkg/dcmvol/series"
)

type seriesOutput struct {
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	Depth       int     `json:"depth"`
	SpacingX    float64 `json:"spacing_x"`
	SpacingY    float64 `json:"spacing_y"`
	SpacingZ    float64 `json:"spacing_z"`
	Description string  `json:"description"`
}

// NewSeriesCmd assembles a directory of DICOM slices into a volume. This
// subcommand has no teacher counterpart; it is added to expose
// pkg/dcmvol/series's directory-wide assembly pipeline (the teacher only
// ever converts one already-parsed dataset into a volume at a time) in the
// same spirit as the teacher's NewDecodeCmd, wired against this module's
// own SeriesAssembler instead.
func NewSeriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "series [dir...]",
		Short: "assemble one or more directories of DICOM slices into volumes",
		Long:  "Loads every DICOM file in each given directory, validates they form one consistent series, and assembles a contiguous voxel buffer.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			maxConcurrency, _ := cmd.Flags().GetInt("max-concurrency")
			format, _ := cmd.Flags().GetString("format")
			quiet, _ := cmd.Flags().GetBool("quiet")

			var progress series.ProgressFunc
			if !quiet {
				progress = func(done, total int, path string) {
					fmt.Fprintf(os.Stderr, "[%d/%d] %s\n", done, total, path)
				}
			}

			volumes, errs := series.LoadConcurrent(ctx, args, maxConcurrency, progress)

			var failed bool
			for i, dir := range args {
				if errs[i] != nil {
					failed = true
					fmt.Fprintf(os.Stderr, "%s: %v\n", dir, errs[i])
					continue
				}
				v := volumes[i]
				switch format {
				case "json":
					j, _ := json.Marshal(seriesOutput{
						Width: v.Width, Height: v.Height, Depth: v.Depth,
						SpacingX: v.SpacingX, SpacingY: v.SpacingY, SpacingZ: v.SpacingZ,
						Description: v.Description,
					})
					os.Stdout.Write(j)
					fmt.Println()
				default:
					fmt.Printf("%s: %dx%dx%d voxels, spacing=(%.3f,%.3f,%.3f) %q\n",
						dir, v.Width, v.Height, v.Depth, v.SpacingX, v.SpacingY, v.SpacingZ, v.Description)
				}
			}
			if failed {
				return fmt.Errorf("one or more series failed to assemble")
			}
			return nil
		},
	}
	pf := cmd.Flags()
	pf.Int("max-concurrency", 2, "maximum number of series directories to assemble concurrently")
	pf.StringP("format", "f", "text", "output format (text|json)")
	pf.Bool("quiet", false, "suppress per-slice progress output")
	return cmd
}
