package preview

import (
	"fmt"
	"image"

	"github.com/dustin/go-humanize"
	"github.com/golang/freetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/roman-kulish/redgyro/internal/gcsv"
)

const (
	dpi     = 72.0
	spacing = 1.3
)

type annotator struct {
	context  *freetype.Context
	fontSize float64
}

func newAnnotator(fontSize float64) (*annotator, error) {
	parsedFont, err := freetype.ParseFont(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parsing font: %w", err)
	}

	context := freetype.NewContext()
	context.SetDPI(dpi)
	context.SetFont(parsedFont)
	context.SetFontSize(fontSize)
	context.SetSrc(image.White)
	context.SetHinting(font.HintingFull)

	return &annotator{context: context, fontSize: fontSize}, nil
}

func (a *annotator) annotate(img *image.RGBA, area image.Rectangle, log *gcsv.Log, stats *motionStats) error {
	a.context.SetClip(img.Bounds())
	a.context.SetDst(img)

	ops := []struct {
		msg string
		fn  func() error
	}{
		{"drawing title", func() error { return a.drawTitle(area, log) }},
		{"drawing legend", func() error { return a.drawLegend(area) }},
		{"drawing info", func() error { return a.drawInfo(area, log, stats) }},
	}
	for _, op := range ops {
		if err := op.fn(); err != nil {
			return fmt.Errorf("%s: %w", op.msg, err)
		}
	}

	return nil
}

func (a *annotator) drawTitle(area image.Rectangle, log *gcsv.Log) error {
	pt := freetype.Pt(area.Min.X, area.Min.Y-int(a.fontSize))
	_, err := a.context.DrawString(fmt.Sprintf("%s  (orientation %s)", log.ID, log.Orientation), pt)
	return err
}

func (a *annotator) drawLegend(area image.Rectangle) error {
	pt := freetype.Pt(area.Max.X-150, area.Min.Y-int(a.fontSize))
	for i, label := range []string{"gx", "gy", "gz"} {
		a.context.SetSrc(image.NewUniform(channelColors[i]))
		if _, err := a.context.DrawString(label, pt); err != nil {
			return err
		}
		pt.X += a.context.PointToFixed(a.fontSize * 3)
	}
	a.context.SetSrc(image.White)

	return nil
}

func (a *annotator) drawInfo(area image.Rectangle, log *gcsv.Log, stats *motionStats) error {
	rate := "n/a"
	if stats.rate > 0 {
		value, prefix := humanize.ComputeSI(stats.rate)
		rate = fmt.Sprintf("%0.2f %sHz", value, prefix)
	}

	lines := []string{
		fmt.Sprintf("Samples: %s   Duration: %0.2f s   Rate: %s",
			humanize.Comma(int64(len(log.Samples))), stats.duration, rate),
		fmt.Sprintf("Peak rotation: %0.3f rad/s   tscale %s   gscale %s",
			stats.maxAbs, gcsv.FormatScale(log.TScale), gcsv.FormatScale(log.GScale)),
	}

	pt := freetype.Pt(area.Min.X, area.Max.Y+int(a.fontSize*2))
	for _, s := range lines {
		if _, err := a.context.DrawString(s, pt); err != nil {
			return err
		}
		pt.Y += a.context.PointToFixed(a.fontSize * spacing)
	}

	return nil
}
