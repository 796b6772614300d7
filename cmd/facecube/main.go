// Package main is the facecube command line tool.
package main

import (
	"log"
	"os"

	"github.com/urfave/cli/v2"
)

const (
	flagConfig  = "config"
	flagDebug   = "debug"
	flagOutput  = "output"
	flagSelect  = "select"
	flagPreview = "preview"
	flagBins    = "bins"
	flagText    = "text"
	flagWidth   = "width"
	flagCSV     = "csv"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "facecube",
		Usage: "cut the nearest object out of depth frames and export it as a point cloud",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagConfig,
				Aliases: []string{"c"},
				Usage:   "load configuration from `FILE`",
			},
			&cli.BoolFlag{
				Name:    flagDebug,
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "export",
				Usage:     "threshold one frame and write it as a point cloud",
				ArgsUsage: "[depth-map-file...]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    flagOutput,
						Aliases: []string{"o"},
						Usage:   "point cloud `FILE` (.ply, .pcd or .las), overrides the config",
					},
					&cli.StringFlag{
						Name:  flagSelect,
						Usage: "only keep the region under display point `X,Y`",
					},
				},
				Action: exportAction,
			},
			{
				Name:      "run",
				Usage:     "process frames continuously, reading commands from stdin",
				ArgsUsage: "[depth-map-file...]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  flagPreview,
						Usage: "rewrite `FILE` with a preview image every frame",
					},
				},
				Action: runAction,
			},
			{
				Name:      "preview",
				Usage:     "render the thresholded first frame as an image",
				ArgsUsage: "[depth-map-file...]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     flagOutput,
						Aliases:  []string{"o"},
						Required: true,
						Usage:    "image `FILE`",
					},
				},
				Action: previewAction,
			},
			{
				Name:      "histogram",
				Usage:     "plot the distribution of raw readings of the first frame",
				ArgsUsage: "[depth-map-file...]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    flagOutput,
						Aliases: []string{"o"},
						Usage:   "plot `FILE` (.png, .svg or .pdf)",
					},
					&cli.BoolFlag{
						Name:  flagText,
						Usage: "print the histogram as text bars",
					},
					&cli.BoolFlag{
						Name:  flagCSV,
						Usage: "print bin edges and counts as csv",
					},
					&cli.IntFlag{
						Name:  flagBins,
						Value: 64,
						Usage: "number of histogram bins",
					},
					&cli.IntFlag{
						Name:  flagWidth,
						Value: 60,
						Usage: "widest text bar in characters",
					},
				},
				Action: histogramAction,
			},
			{
				Name:      "regions",
				Usage:     "list the regions within the margin of the nearest reading of the first frame",
				ArgsUsage: "[depth-map-file...]",
				Action:    regionsAction,
			},
		},
	}
}
