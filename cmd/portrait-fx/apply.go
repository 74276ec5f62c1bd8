package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/menta2k/portrait-fx/internal/log"
	"github.com/menta2k/portrait-fx/internal/sources"
	"github.com/menta2k/portrait-fx/internal/utils"
	"github.com/menta2k/portrait-fx/pkg/effects"
	"github.com/menta2k/portrait-fx/pkg/processing"
)

var (
	applyInput     string
	applyOutput    string
	applyLandmarks string
	applyMask      string
	applyReq       requestFlags
)

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Apply one effect to one image",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		return runApply(cmd.Context())
	},
}

func init() {
	applyCmd.Flags().StringVarP(&applyInput, "input", "i", "", "Path to input image")
	applyCmd.Flags().StringVarP(&applyOutput, "output", "o", "", "Path to output image (default: <output_dir>/<name>_<effect>.<format>)")
	applyCmd.Flags().StringVar(&applyLandmarks, "landmarks", "", "Landmarks JSON file (default: <name>.landmarks.json next to the input)")
	applyCmd.Flags().StringVar(&applyMask, "mask", "", "Segmentation mask PNG (default: <name>.mask.png next to the input)")
	applyReq.bind(applyCmd)

	applyCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(applyCmd)
}

func runApply(ctx context.Context) error {
	req, err := applyReq.request(cfg)
	if err != nil {
		return err
	}
	format := applyReq.format(cfg)

	outPath := applyOutput
	if outPath == "" {
		outPath = utils.GenerateOutputFilename(applyInput, cfg.Output.OutputDir, cfg.Output.Prefix, "_"+string(req.Effect), format)
	} else if ext := utils.GetFileExtension(outPath); ext != "" {
		format = ext
	}

	inAbs, _ := filepath.Abs(applyInput)
	outAbs, _ := filepath.Abs(outPath)
	if inAbs == outAbs {
		return fmt.Errorf("input and output paths must be different")
	}

	img, err := editor.LoadImage(applyInput)
	if err != nil {
		return fmt.Errorf("failed to load image: %w", err)
	}
	if err := editor.ValidateImage(img); err != nil {
		return err
	}

	detector, segmenter := sources.Sidecars(applyInput, applyLandmarks, applyMask)
	segmenter.Fallback = applyReq.fallback()
	session := editor.NewSession(detector, segmenter, effects.WithLogger(log.L()))
	defer session.Close()

	if _, err := session.SetImage(img); err != nil {
		return err
	}
	res, err := session.Apply(ctx, req)
	if err != nil {
		return err
	}
	switch res.State {
	case effects.Success:
	case effects.Cancelled:
		return ctx.Err()
	default:
		return fmt.Errorf("%s failed: %w", req.Effect, res.Err)
	}
	if !res.HasFace && req.Effect.NeedsLandmarks() {
		log.Warn("no face found, warp skipped", "input", applyInput)
	}

	if err := utils.EnsureDir(filepath.Dir(outPath)); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := processing.NewProcessor().SaveImage(res.Image, outPath, format, applyReq.quality(cfg), cfg.Output.Lossless); err != nil {
		return fmt.Errorf("failed to save %s: %w", outPath, err)
	}

	size := "unknown"
	if info, err := os.Stat(outPath); err == nil {
		size = utils.FormatFileSize(info.Size())
	}
	log.Info("effect applied",
		"effect", req.Effect,
		"output", outPath,
		"size", size,
		"face", res.HasFace,
		"points", res.Points.Len(),
		"total", res.Timing.Total,
	)
	fmt.Fprintln(os.Stdout, outPath)
	return nil
}
