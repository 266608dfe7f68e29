// Package boxplot renders groups of scores as box-and-whisker figures.
package boxplot

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ar90n/modica"
	"github.com/cockroachdb/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// Group is one named sample.
type Group struct {
	Name   string
	Values []float64
}

type Layout int

const (
	// Stacked draws one panel per group, sharing the value axis.
	Stacked Layout = iota
	// Shared draws every group as a labelled box in a single panel.
	Shared
)

const (
	boxWidth   = 20
	titleSpace = 36
)

type Figure struct {
	Title  string
	Groups []Group
	Layout Layout
	Width  vg.Length
	Height vg.Length
}

func NewStacked(title string, groups ...Group) *Figure {
	return &Figure{
		Title:  title,
		Groups: groups,
		Layout: Stacked,
		Width:  6.4 * vg.Inch,
		Height: 4.8 * vg.Inch,
	}
}

func NewShared(title string, groups ...Group) *Figure {
	f := NewStacked(title, groups...)
	f.Layout = Shared
	return f
}

// FileName joins names with '-' into a PNG path under dir.
func FileName(dir string, names ...string) string {
	return filepath.Join(dir, strings.Join(names, "-")+".png")
}

// Save renders the figure in the format named by the extension of path.
func (f *Figure) Save(path string) error {
	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	file, err := os.Create(path)
	if err != nil {
		return modica.MarkIO(err, "create %s", path)
	}
	if _, err := f.WriteTo(file, format); err != nil {
		file.Close()
		return errors.Wrapf(err, "render %s", path)
	}
	return modica.MarkIO(file.Close(), "close %s", path)
}

// WriteTo renders the figure as format ("png", "svg", "pdf", ...) to w.
func (f *Figure) WriteTo(w io.Writer, format string) (int64, error) {
	if len(f.Groups) == 0 {
		return 0, errors.Mark(errors.New("figure has no groups"), modica.ErrPrecondition)
	}

	c, err := draw.NewFormattedCanvas(f.Width, f.Height, format)
	if err != nil {
		return 0, err
	}
	dc := draw.New(c)

	switch f.Layout {
	case Shared:
		p, err := f.sharedPlot()
		if err != nil {
			return 0, err
		}
		p.Draw(dc)
	default:
		plots, err := f.panels()
		if err != nil {
			return 0, err
		}
		tiles := draw.Tiles{
			Rows:   len(plots),
			Cols:   1,
			PadY:   vg.Points(12),
			PadTop: vg.Points(titleSpace),
		}
		canvases := plot.Align(plots, tiles, dc)
		for i := range plots {
			plots[i][0].Draw(canvases[i][0])
		}
		f.drawTitle(dc, plots[0][0].Title.TextStyle)
	}

	n, err := c.WriteTo(w)
	if err != nil {
		return n, modica.MarkIO(err, "write figure")
	}
	return n, nil
}

func (f *Figure) panels() ([][]*plot.Plot, error) {
	lo, hi := f.valueRange()
	plots := make([][]*plot.Plot, len(f.Groups))
	for i, g := range f.Groups {
		p := plot.New()
		p.Title.Text = g.Name
		p.X.Min, p.X.Max = lo, hi
		p.HideY()
		if len(g.Values) == 0 {
			p.Title.Text += " (no data)"
		} else {
			b, err := plotter.NewBoxPlot(vg.Points(boxWidth), 0, plotter.Values(g.Values))
			if err != nil {
				return nil, errors.Wrapf(err, "box plot %s", g.Name)
			}
			b.Horizontal = true
			p.Add(b)
		}
		plots[i] = []*plot.Plot{p}
	}
	return plots, nil
}

func (f *Figure) sharedPlot() (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = f.Title

	names := make([]string, len(f.Groups))
	for i, g := range f.Groups {
		names[i] = g.Name
		if len(g.Values) == 0 {
			continue
		}
		b, err := plotter.NewBoxPlot(vg.Points(boxWidth), float64(i), plotter.Values(g.Values))
		if err != nil {
			return nil, errors.Wrapf(err, "box plot %s", g.Name)
		}
		b.Horizontal = true
		p.Add(b)
	}
	p.NominalY(names...)
	return p, nil
}

func (f *Figure) drawTitle(dc draw.Canvas, sty text.Style) {
	if f.Title == "" {
		return
	}
	sty.Font.Size = vg.Points(14)
	sty.XAlign = text.XCenter
	sty.YAlign = text.YTop
	pt := vg.Point{
		X: dc.Min.X + (dc.Max.X-dc.Min.X)/2,
		Y: dc.Max.Y - vg.Points(8),
	}
	dc.FillText(sty, pt, f.Title)
}

// valueRange spans every value of every group so stacked panels share an
// axis.
func (f *Figure) valueRange() (lo, hi float64) {
	first := true
	for _, g := range f.Groups {
		for _, v := range g.Values {
			if first || v < lo {
				lo = v
			}
			if first || hi < v {
				hi = v
			}
			first = false
		}
	}
	if first {
		return 0, 1
	}
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}
	return lo, hi
}
