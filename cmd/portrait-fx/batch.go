package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/menta2k/portrait-fx/internal/log"
	"github.com/menta2k/portrait-fx/internal/utils"
)

var (
	batchInput  string
	batchOutput string
	batchReq    requestFlags
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Apply one effect to every image in a directory",
	Long: `Apply one effect to every image in a directory.

Each image reads its landmarks from <name>.landmarks.json and its mask from
<name>.mask.png in the same directory. Images that fail are logged and
skipped.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		return runBatch(cmd.Context())
	},
}

func init() {
	batchCmd.Flags().StringVarP(&batchInput, "input", "i", "", "Input directory")
	batchCmd.Flags().StringVarP(&batchOutput, "output", "o", "", "Output directory (default from config)")
	batchReq.bind(batchCmd)

	batchCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(batchCmd)
}

func runBatch(ctx context.Context) error {
	if !utils.DirExists(batchInput) {
		return fmt.Errorf("input directory %s does not exist", batchInput)
	}
	req, err := batchReq.request(cfg)
	if err != nil {
		return err
	}
	outDir := batchOutput
	if outDir == "" {
		outDir = cfg.Output.OutputDir
	}
	format, quality := batchReq.format(cfg), batchReq.quality(cfg)
	editor.SetFallbackSegmenter(batchReq.fallback())

	files, err := utils.ListImageFiles(batchInput)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no images found in %s", batchInput)
	}

	bar := progressbar.NewOptions(len(files),
		progressbar.OptionSetDescription(string(req.Effect)),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
	)

	var failed int
	var written int64
	for _, file := range files {
		if ctx.Err() != nil {
			break
		}
		outPath, res, err := editor.ProcessImageFile(ctx, file, outDir, req, format, quality)
		bar.Add(1)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				break
			}
			failed++
			log.Warn("image skipped", "input", file, "error", err)
			continue
		}
		if info, err := os.Stat(outPath); err == nil {
			written += info.Size()
		}
		log.Debug("image processed", "input", file, "output", outPath, "face", res.HasFace, "total", res.Timing.Total)
	}
	bar.Finish()
	fmt.Fprintln(os.Stderr)

	if err := ctx.Err(); err != nil {
		return err
	}
	log.Info("batch complete", "images", len(files), "failed", failed, "output", outDir, "written", utils.FormatFileSize(written))
	if failed > 0 {
		return fmt.Errorf("%d of %d images failed", failed, len(files))
	}
	return nil
}
