package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/san-kum/pathsim/internal/analysis"
	"github.com/san-kum/pathsim/internal/config"
	"github.com/san-kum/pathsim/internal/cv"
	"github.com/san-kum/pathsim/internal/export"
	"github.com/san-kum/pathsim/internal/storage"
)

var (
	outFile   string
	svgWidth  int
	svgHeight int
)

func newExportCmd(env config.Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export [run-id]",
		Short: "render a stored path as svg",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	cmd.Flags().StringVarP(&outFile, "output", "o", "", "output file (default <run-id>.svg)")
	cmd.Flags().StringVar(&cvName, "cv", "x0", "collective variable")
	cmd.Flags().StringVar(&yCVName, "y", "x1", "second variable for --phase")
	cmd.Flags().BoolVar(&phase, "phase", false, "draw cv against --y instead of frame")
	cmd.Flags().StringVar(&configFile, "config", env.ConfigPath, "config file with state definitions")
	cmd.Flags().IntVar(&svgWidth, "width", 800, "image width")
	cmd.Flags().IntVar(&svgHeight, "height", 400, "image height")
	return cmd
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	traj, err := st.LoadTrajectory(args[0])
	if err != nil {
		return err
	}

	x, err := cv.Parse(cvName)
	if err != nil {
		return err
	}
	if err := checkCV(x, meta); err != nil {
		return err
	}
	cfg, err := stateConfig()
	if err != nil {
		return err
	}

	var svg string
	if phase {
		y, err := cv.Parse(yCVName)
		if err != nil {
			return err
		}
		if err := checkCV(y, meta); err != nil {
			return err
		}
		vols, err := cfg.Volumes()
		if err != nil {
			return err
		}
		svg = export.PhaseSVG(analysis.NewPhasePortrait(traj, x, y, vols...), svgWidth, svgHeight)
	} else {
		var bounds []float64
		for _, s := range cfg.States {
			if s.CV == cvName || (s.CV == "" && cvName == "x0") {
				bounds = append(bounds, s.Min, s.Max)
			}
		}
		svg = export.SeriesSVG(cv.Series(x, traj), bounds, svgWidth, svgHeight)
	}
	if svg == "" {
		return fmt.Errorf("run %s has too few frames to draw", meta.ID)
	}

	path := outFile
	if path == "" {
		path = meta.ID + ".svg"
	}
	if err := os.WriteFile(path, []byte(svg), 0644); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", path)
	return nil
}
