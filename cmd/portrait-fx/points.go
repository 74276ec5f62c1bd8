package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/menta2k/portrait-fx/internal/sources"
	"github.com/menta2k/portrait-fx/internal/utils"
	"github.com/menta2k/portrait-fx/pkg/analyzer"
	"github.com/menta2k/portrait-fx/pkg/processing"
	"github.com/menta2k/portrait-fx/pkg/warp"
)

var (
	pointsInput     string
	pointsLandmarks string
	pointsOverlay   string
)

var pointsCmd = &cobra.Command{
	Use:   "points",
	Short: "Print the warp points placed on an image's face as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		return runPoints(cmd)
	},
}

func init() {
	pointsCmd.Flags().StringVarP(&pointsInput, "input", "i", "", "Path to input image")
	pointsCmd.Flags().StringVar(&pointsLandmarks, "landmarks", "", "Landmarks JSON file (default: <name>.landmarks.json next to the input)")
	pointsCmd.Flags().StringVar(&pointsOverlay, "overlay", "", "Write a debug overlay of the warp points to this path")

	pointsCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(pointsCmd)
}

type pointsReport struct {
	Image  analyzer.ImageInfo `json:"image"`
	Face   analyzer.FaceInfo  `json:"face"`
	Points []warp.Point       `json:"points"`
}

func runPoints(cmd *cobra.Command) error {
	img, err := editor.LoadImage(pointsInput)
	if err != nil {
		return fmt.Errorf("failed to load image: %w", err)
	}

	detector, _ := sources.Sidecars(pointsInput, pointsLandmarks, "")
	lms, err := detector.DetectLandmarks(cmd.Context(), img)
	if err != nil {
		return err
	}
	set, err := editor.GenerateWarpPoints(lms)
	if err != nil {
		return err
	}

	report := pointsReport{
		Image:  editor.GetImageInfo(img),
		Face:   editor.AnalyzeFace(img, lms),
		Points: set.Points(),
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return err
	}

	if pointsOverlay == "" {
		return nil
	}
	overlay := processing.NewProcessor().CreateWarpOverlay(img, set, report.Face.Bounds)
	format := utils.GetFileExtension(pointsOverlay)
	if format == "" {
		format = "png"
	}
	if err := editor.SaveImage(overlay, pointsOverlay, format, cfg.Output.Quality); err != nil {
		return fmt.Errorf("failed to save overlay: %w", err)
	}
	return nil
}
