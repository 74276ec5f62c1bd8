package processing

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"github.com/menta2k/portrait-fx/pkg/landmarks"
	"github.com/menta2k/portrait-fx/pkg/mask"
	"github.com/menta2k/portrait-fx/pkg/types"
	"github.com/menta2k/portrait-fx/pkg/warp"
)

// Processor handles image and sidecar file IO and debug rendering
type Processor struct{}

// NewProcessor creates a new image processor
func NewProcessor() *Processor {
	return &Processor{}
}

// LoadImage loads an image from a file path with WebP support
func (p *Processor) LoadImage(path string) (image.Image, error) {
	// Try imaging.Open (registered decoders)
	if img, err := imaging.Open(path, imaging.AutoOrientation(true)); err == nil {
		return img, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	img, err := p.DecodeImage(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return img, nil
}

// DecodeImage decodes an image from byte data with WebP support
func (p *Processor) DecodeImage(data []byte) (image.Image, error) {
	if img, _, err := image.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}

	if img, err := webp.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}

	return nil, fmt.Errorf("image: unknown or unsupported format")
}

// SaveImage saves an image to a file with the specified format and quality
func (p *Processor) SaveImage(img image.Image, path, format string, quality int, lossless bool) error {
	switch strings.ToLower(format) {
	case "webp":
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		opts := &webp.Options{Lossless: lossless, Quality: float32(quality)}
		if err := webp.Encode(f, img, opts); err != nil {
			return fmt.Errorf("failed to encode webp: %w", err)
		}
		return nil
	case "png":
		return imaging.Save(img, path)
	default: // jpg/jpeg
		return imaging.Save(img, path, imaging.JPEGQuality(quality))
	}
}

// LoadLandmarks reads a JSON array of {"x","y","z"} landmarks
func (p *Processor) LoadLandmarks(path string) ([]landmarks.Landmark, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read landmarks: %w", err)
	}

	var lms []landmarks.Landmark
	if err := json.Unmarshal(data, &lms); err != nil {
		return nil, fmt.Errorf("failed to parse landmarks: %w", err)
	}
	return lms, nil
}

// SaveLandmarks writes landmarks as a JSON array
func (p *Processor) SaveLandmarks(path string, lms []landmarks.Landmark) error {
	data, err := json.Marshal(lms)
	if err != nil {
		return fmt.Errorf("failed to marshal landmarks: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write landmarks: %w", err)
	}
	return nil
}

// ConfidenceFromImage reads a confidence map from the luminance of img,
// 0 for black and 1 for white
func (p *Processor) ConfidenceFromImage(img image.Image) (*mask.ConfidenceMap, error) {
	gray := imaging.Grayscale(img)
	w, h := gray.Rect.Dx(), gray.Rect.Dy()
	values := make([]float32, w*h)
	for y := 0; y < h; y++ {
		row := gray.Pix[y*gray.Stride:]
		for x := 0; x < w; x++ {
			values[y*w+x] = float32(row[x*4]) / 255
		}
	}
	return mask.NewConfidenceMap(w, h, values)
}

// LoadConfidenceMap reads a grayscale mask image as a confidence map
func (p *Processor) LoadConfidenceMap(path string) (*mask.ConfidenceMap, error) {
	img, err := p.LoadImage(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load confidence map: %w", err)
	}
	return p.ConfidenceFromImage(img)
}

// SaveMask writes a mask as PNG
func (p *Processor) SaveMask(m *mask.Mask, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create mask file: %w", err)
	}
	defer f.Close()

	if err := png.Encode(f, m.Image); err != nil {
		return fmt.Errorf("failed to encode mask: %w", err)
	}
	return nil
}

// Overlay colors by warp type
var overlayColors = map[warp.Type]color.NRGBA{
	warp.Push:    {255, 0, 0, 255},   // red
	warp.Enlarge: {0, 255, 0, 255},   // green
	warp.Shrink:  {0, 170, 255, 255}, // blue
	warp.Sphere:  {255, 204, 0, 255}, // gold
}

// CreateWarpOverlay draws every warp point of set onto a copy of img: its
// radius as a circle, its center as a cross and its push direction as a
// short line. A non-empty faceBox is drawn as a rectangle.
func (p *Processor) CreateWarpOverlay(img image.Image, set warp.PointSet, faceBox types.Box) image.Image {
	nrgba := imaging.Clone(img)
	w := nrgba.Bounds().Dx()
	h := nrgba.Bounds().Dy()

	white := color.NRGBA{255, 255, 255, 255}
	stroke := int(math.Max(1, 0.003*float64(min(w, h))))
	cross := int(math.Max(4, 0.01*float64(min(w, h))))

	if !faceBox.Empty() {
		drawBox(nrgba, faceBox, w, h, white, stroke)
	}

	for _, pt := range set.Points() {
		c := overlayColors[pt.Type]
		px := int(clamp(pt.Center.X, 0, 1)*float64(w) + 0.5)
		py := int(clamp(pt.Center.Y, 0, 1)*float64(h) + 0.5)

		// Warp distances are measured in height units.
		drawCircle(nrgba, px, py, pt.Radius*float64(h), c, stroke)
		drawHLine(nrgba, py, px-cross, px+cross, c)
		drawVLine(nrgba, px, py-cross, py+cross, c)

		if pt.Type == warp.Push {
			length := pt.Radius * float64(h) * 0.75
			drawLine(nrgba, px, py, px+int(pt.Direction.X*length), py+int(pt.Direction.Y*length), c)
		}
	}

	return nrgba
}

// Helper functions
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func boxToPixels(box types.Box, w, h int) (int, int, int, int) {
	x0 := int(clamp(box.X, 0, 1)*float64(w) + 0.5)
	y0 := int(clamp(box.Y, 0, 1)*float64(h) + 0.5)
	x1 := int(clamp(box.X+box.W, 0, 1)*float64(w) + 0.5)
	y1 := int(clamp(box.Y+box.H, 0, 1)*float64(h) + 0.5)
	if x1 <= x0 {
		x1 = x0 + 1
	}
	if y1 <= y0 {
		y1 = y0 + 1
	}
	return x0, y0, x1, y1
}

func drawBox(img *image.NRGBA, box types.Box, w, h int, color color.NRGBA, stroke int) {
	x0, y0, x1, y1 := boxToPixels(box, w, h)
	for s := 0; s < stroke; s++ {
		drawHLine(img, y0+s, x0, x1, color)
		drawHLine(img, y1-1-s, x0, x1, color)
		drawVLine(img, x0+s, y0, y1, color)
		drawVLine(img, x1-1-s, y0, y1, color)
	}
}

func drawCircle(img *image.NRGBA, cx, cy int, radius float64, c color.NRGBA, stroke int) {
	steps := int(math.Max(16, 2*math.Pi*radius))
	for s := 0; s < stroke; s++ {
		r := radius - float64(s)
		if r <= 0 {
			return
		}
		for i := 0; i < steps; i++ {
			a := 2 * math.Pi * float64(i) / float64(steps)
			setPixel(img, cx+int(math.Round(r*math.Cos(a))), cy+int(math.Round(r*math.Sin(a))), c)
		}
	}
}

func drawLine(img *image.NRGBA, x0, y0, x1, y1 int, c color.NRGBA) {
	steps := max(abs(x1-x0), abs(y1-y0), 1)
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		x := x0 + int(math.Round(t*float64(x1-x0)))
		y := y0 + int(math.Round(t*float64(y1-y0)))
		setPixel(img, x, y, c)
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func setPixel(img *image.NRGBA, x, y int, c color.NRGBA) {
	if x < 0 || y < 0 || x >= img.Bounds().Dx() || y >= img.Bounds().Dy() {
		return
	}
	i := y*img.Stride + x*4
	img.Pix[i+0] = c.R
	img.Pix[i+1] = c.G
	img.Pix[i+2] = c.B
	img.Pix[i+3] = c.A
}

func drawHLine(img *image.NRGBA, y, x0, x1 int, c color.NRGBA) {
	if y < 0 || y >= img.Bounds().Dy() {
		return
	}
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	if x1 <= 0 || x0 >= img.Bounds().Dx() {
		return
	}
	if x0 < 0 {
		x0 = 0
	}
	if x1 > img.Bounds().Dx() {
		x1 = img.Bounds().Dx()
	}
	i := y*img.Stride + x0*4
	for x := x0; x < x1; x++ {
		img.Pix[i+0] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
		i += 4
	}
}

func drawVLine(img *image.NRGBA, x, y0, y1 int, c color.NRGBA) {
	if x < 0 || x >= img.Bounds().Dx() {
		return
	}
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	if y1 <= 0 || y0 >= img.Bounds().Dy() {
		return
	}
	if y0 < 0 {
		y0 = 0
	}
	if y1 > img.Bounds().Dy() {
		y1 = img.Bounds().Dy()
	}
	i := y0*img.Stride + x*4
	for y := y0; y < y1; y++ {
		img.Pix[i+0] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
		i += img.Stride
	}
}
