package preview

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"os"
	"strconv"

	"github.com/roman-kulish/redgyro/internal/gcsv"
)

const (
	defaultWidth    = 1600
	defaultHeight   = 600
	defaultFontSize = 14.0

	// Default border sizes in pixels
	defaultTopBorder    = 40
	defaultLeftBorder   = 20
	defaultBottomBorder = 90
	defaultRightBorder  = 20
)

var (
	backgroundColor = color.RGBA{R: 0x1e, G: 0x1e, B: 0x1e, A: 0xff}
	axisColor       = color.RGBA{R: 0x60, G: 0x60, B: 0x60, A: 0xff}

	// gx, gy, gz
	channelColors = []color.Color{
		color.RGBA{R: 0xe6, G: 0x4a, B: 0x4a, A: 0xff},
		color.RGBA{R: 0x4a, G: 0xc8, B: 0x5a, A: 0xff},
		color.RGBA{R: 0x4a, G: 0x8c, B: 0xe6, A: 0xff},
	}
)

// BorderConfig defines the sizes of space around the plot area
type BorderConfig struct {
	Top    int // Space for the device label
	Left   int
	Bottom int // Space for the information bar
	Right  int
}

// RenderConfig holds the preview image options
type RenderConfig struct {
	Width    int     // Plot area width in pixels
	Height   int     // Plot area height in pixels
	FontSize float64 // Font size in points

	BorderConfig BorderConfig
}

// Renderer plots the gyro channels of a gcsv log
type Renderer struct {
	config RenderConfig
}

// NewRenderer creates a new renderer, zero config values take defaults
func NewRenderer(config RenderConfig) (*Renderer, error) {
	if config.Width < 0 || config.Height < 0 {
		return nil, fmt.Errorf("invalid preview size: %dx%d", config.Width, config.Height)
	}

	if config.Width == 0 {
		config.Width = defaultWidth
	}
	if config.Height == 0 {
		config.Height = defaultHeight
	}
	if config.FontSize == 0 {
		config.FontSize = defaultFontSize
	}
	if config.BorderConfig.Top == 0 {
		config.BorderConfig.Top = defaultTopBorder
	}
	if config.BorderConfig.Left == 0 {
		config.BorderConfig.Left = defaultLeftBorder
	}
	if config.BorderConfig.Bottom == 0 {
		config.BorderConfig.Bottom = defaultBottomBorder
	}
	if config.BorderConfig.Right == 0 {
		config.BorderConfig.Right = defaultRightBorder
	}

	return &Renderer{config: config}, nil
}

// Render draws the three gyro channels, in rad/s, over time
func (r *Renderer) Render(log *gcsv.Log) (*image.RGBA, error) {
	if len(log.Samples) == 0 {
		return nil, fmt.Errorf("log has no samples")
	}

	b := r.config.BorderConfig
	img := image.NewRGBA(image.Rect(0, 0, r.config.Width+b.Left+b.Right, r.config.Height+b.Top+b.Bottom))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: backgroundColor}, image.Point{}, draw.Src)

	plotArea := image.Rect(b.Left, b.Top, b.Left+r.config.Width, b.Top+r.config.Height)

	stats, err := newMotionStats(log)
	if err != nil {
		return nil, err
	}

	// zero line
	zeroY := stats.y(0, plotArea)
	for x := plotArea.Min.X; x < plotArea.Max.X; x++ {
		img.Set(x, zeroY, axisColor)
	}

	for ch := range channelColors {
		prev := image.Point{X: -1}
		for i := range log.Samples {
			v := stats.gyro[ch][i]
			if math.IsNaN(v) {
				prev = image.Point{X: -1}
				continue
			}

			pt := image.Point{X: stats.x(stats.times[i], plotArea), Y: stats.y(v, plotArea)}
			if prev.X >= 0 {
				drawLine(img, prev, pt, channelColors[ch])
			} else {
				img.Set(pt.X, pt.Y, channelColors[ch])
			}
			prev = pt
		}
	}

	ann, err := newAnnotator(r.config.FontSize)
	if err != nil {
		return nil, fmt.Errorf("creating annotator: %w", err)
	}

	if err = ann.annotate(img, plotArea, log, stats); err != nil {
		return nil, fmt.Errorf("drawing annotations: %w", err)
	}

	return img, nil
}

// WritePNG encodes img as PNG to path
func WritePNG(path string, img image.Image) (err error) {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cErr := out.Close(); cErr != nil && err == nil {
			err = cErr
		}
	}()

	return png.Encode(out, img)
}

// motionStats holds the scaled gyro values and plot bounds of a log
type motionStats struct {
	times    []float64    // seconds
	gyro     [3][]float64 // rad/s, NaN for unreadable values
	tMin     float64
	tMax     float64
	maxAbs   float64
	duration float64 // seconds
	rate     float64 // samples per second
}

func newMotionStats(log *gcsv.Log) (*motionStats, error) {
	n := len(log.Samples)
	s := motionStats{
		times: make([]float64, n),
	}

	for ch := range s.gyro {
		s.gyro[ch] = make([]float64, n)
	}

	for i, sample := range log.Samples {
		t, err := sample.Time(log.TScale)
		if err != nil {
			return nil, fmt.Errorf("sample %d: %w", i+1, err)
		}
		s.times[i] = t

		if i == 0 {
			s.tMin, s.tMax = t, t
		}
		s.tMin = min(s.tMin, t)
		s.tMax = max(s.tMax, t)

		for ch, raw := range []string{sample.Gx, sample.Gy, sample.Gz} {
			v := channelValue(raw) * log.GScale
			s.gyro[ch][i] = v
			if !math.IsNaN(v) {
				s.maxAbs = math.Max(s.maxAbs, math.Abs(v))
			}
		}
	}

	if s.maxAbs == 0 {
		s.maxAbs = 1
	}

	s.duration = s.tMax - s.tMin
	if s.duration > 0 {
		s.rate = float64(n) / s.duration
	}

	return &s, nil
}

func (s *motionStats) x(t float64, area image.Rectangle) int {
	if s.tMax == s.tMin {
		return area.Min.X
	}
	pos := (t - s.tMin) / (s.tMax - s.tMin)
	return area.Min.X + int(pos*float64(area.Dx()-1))
}

func (s *motionStats) y(v float64, area image.Rectangle) int {
	pos := (v + s.maxAbs) / (2 * s.maxAbs) // 0 bottom, 1 top
	return area.Max.Y - 1 - int(pos*float64(area.Dy()-1))
}

// channelValue parses a trimmed channel value. Trimming turns "0" into "" and
// "-0" into "-", both are zero.
func channelValue(raw string) float64 {
	switch raw {
	case "", "-", "+":
		return 0
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// drawLine draws a line with Bresenham's algorithm
func drawLine(img *image.RGBA, a, b image.Point, c color.Color) {
	dx := abs(b.X - a.X)
	dy := -abs(b.Y - a.Y)
	sx, sy := 1, 1
	if a.X > b.X {
		sx = -1
	}
	if a.Y > b.Y {
		sy = -1
	}

	err := dx + dy
	for {
		img.Set(a.X, a.Y, c)
		if a == b {
			return
		}

		e2 := 2 * err
		if e2 >= dy {
			err += dy
			a.X += sx
		}
		if e2 <= dx {
			err += dx
			a.Y += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
