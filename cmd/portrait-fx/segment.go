package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/menta2k/portrait-fx/internal/log"
	"github.com/menta2k/portrait-fx/internal/utils"
	"github.com/menta2k/portrait-fx/pkg/mask"
	"github.com/menta2k/portrait-fx/pkg/processing"
	"github.com/menta2k/portrait-fx/pkg/vision"
)

var (
	segmentInput  string
	segmentOutput string
	segmentKind   string
	segmentForce  bool
)

var segmentCmd = &cobra.Command{
	Use:   "segment",
	Short: "Estimate a subject mask from image content and write it as a mask file",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		return runSegment(cmd)
	},
}

func init() {
	segmentCmd.Flags().StringVarP(&segmentInput, "input", "i", "", "Path to input image")
	segmentCmd.Flags().StringVarP(&segmentOutput, "output", "o", "", "Mask path (default: <name>.mask.png next to the input)")
	segmentCmd.Flags().StringVar(&segmentKind, "kind", "soft", "Mask representation: binary or soft")
	segmentCmd.Flags().BoolVar(&segmentForce, "force", false, "Overwrite an existing mask file")

	segmentCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(segmentCmd)
}

func runSegment(cmd *cobra.Command) error {
	kind, err := mask.ParseKind(segmentKind)
	if err != nil {
		return err
	}
	if kind == mask.Alpha {
		return fmt.Errorf("mask files must be binary or soft")
	}

	outPath := segmentOutput
	if outPath == "" {
		outPath = utils.SidecarPath(segmentInput, "mask", "png")
	}
	if utils.FileExists(outPath) && !segmentForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", outPath)
	}

	img, err := editor.LoadImage(segmentInput)
	if err != nil {
		return fmt.Errorf("failed to load image: %w", err)
	}
	cm, err := vision.New().Segment(cmd.Context(), img)
	if err != nil {
		return err
	}
	m, err := editor.BuildMask(cm, kind)
	if err != nil {
		return err
	}
	if err := processing.NewProcessor().SaveMask(m, outPath); err != nil {
		return err
	}

	log.Info("mask written", "output", outPath, "coverage", cm.Coverage(cfg.Mask.Threshold), "mean", cm.Mean())
	fmt.Fprintln(os.Stdout, outPath)
	return nil
}
