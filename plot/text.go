package plot

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/razeghi71/tabql/ast"
	"github.com/razeghi71/tabql/stats"
	"github.com/razeghi71/tabql/table"
)

// TextRenderer draws charts with plain characters. Width and Height size the
// plotting area in cells; Bins is the histogram bucket count.
type TextRenderer struct {
	W      io.Writer
	Bins   int
	Width  int
	Height int
}

// NewTextRenderer returns a renderer with the default 10 bins on a 60x15 area.
func NewTextRenderer(w io.Writer) *TextRenderer {
	return &TextRenderer{W: w, Bins: 10, Width: 60, Height: 15}
}

func (r *TextRenderer) Render(t *table.Table, columns []string, kind ast.PlotKind) error {
	if err := Validate(t, columns, kind); err != nil {
		return err
	}
	cols := make([]*table.Column, len(columns))
	for i, name := range columns {
		cols[i], _ = t.Column(name)
	}

	d := *r
	if d.Bins < 1 {
		d.Bins = 10
	}
	if d.Width < 1 {
		d.Width = 60
	}
	if d.Height < 1 {
		d.Height = 15
	}

	fmt.Fprintf(d.W, "%s of %s\n", kind, strings.Join(columns, ", "))
	switch kind {
	case ast.PlotHist:
		d.hist(cols[0])
	case ast.PlotBar:
		d.bar(cols[0])
	case ast.PlotBox:
		d.box(cols)
	case ast.PlotScatter:
		d.grid(scatterPoints(cols[0], cols[1]), false)
	case ast.PlotLine:
		d.grid(linePoints(cols), true)
	}
	return nil
}

func (r *TextRenderer) hist(c *table.Column) {
	vals := c.Floats()
	if len(vals) == 0 {
		fmt.Fprintln(r.W, "(no data)")
		return
	}
	bins := r.Bins
	lo, hi := stats.Min(vals), stats.Max(vals)
	step := (hi - lo) / float64(bins)
	if step == 0 {
		bins, step = 1, 1
	}

	counts := make([]int, bins)
	for _, x := range vals {
		i := int((x - lo) / step)
		if i >= bins {
			i = bins - 1
		}
		counts[i]++
	}

	labels := make([]string, bins)
	for i := range labels {
		labels[i] = fmt.Sprintf("[%s, %s)", tick(lo+float64(i)*step), tick(lo+float64(i+1)*step))
	}
	labels[bins-1] = strings.TrimSuffix(labels[bins-1], ")") + "]"
	r.bars(labels, counts)
}

func (r *TextRenderer) bar(c *table.Column) {
	index := make(map[string]int)
	var labels []string
	var counts []int
	for i := 0; i < c.Len(); i++ {
		if c.IsMissing(i) {
			continue
		}
		v := c.Value(i).AsString()
		j, ok := index[v]
		if !ok {
			j = len(labels)
			index[v] = j
			labels = append(labels, v)
			counts = append(counts, 0)
		}
		counts[j]++
	}
	if len(labels) == 0 {
		fmt.Fprintln(r.W, "(no data)")
		return
	}

	order := table.Sequence(len(labels))
	sort.SliceStable(order, func(a, b int) bool { return counts[order[a]] > counts[order[b]] })
	sortedLabels := make([]string, len(order))
	sortedCounts := make([]int, len(order))
	for i, j := range order {
		sortedLabels[i], sortedCounts[i] = labels[j], counts[j]
	}
	r.bars(sortedLabels, sortedCounts)
}

// bars draws one horizontal bar per label, scaled so the largest count
// spans the full width.
func (r *TextRenderer) bars(labels []string, counts []int) {
	labelWidth, top := 0, 0
	for i, l := range labels {
		if len(l) > labelWidth {
			labelWidth = len(l)
		}
		if counts[i] > top {
			top = counts[i]
		}
	}
	for i, l := range labels {
		n := 0
		if top > 0 {
			n = counts[i] * r.Width / top
		}
		fmt.Fprintf(r.W, "%-*s | %s %d\n", labelWidth, l, strings.Repeat("#", n), counts[i])
	}
}

func (r *TextRenderer) box(cols []*table.Column) {
	tw := tablewriter.NewWriter(r.W)
	tw.SetHeader([]string{"column", "min", "q1", "median", "q3", "max"})
	tw.SetAutoFormatHeaders(false)
	tw.SetAlignment(tablewriter.ALIGN_RIGHT)

	summaries := make([]stats.Summary, len(cols))
	lo, hi := 0.0, 0.0
	first := true
	for i, c := range cols {
		vals := c.Floats()
		if len(vals) == 0 {
			tw.Append([]string{c.Name, "", "", "", "", ""})
			continue
		}
		s := stats.Summarize(vals)
		summaries[i] = s
		tw.Append([]string{c.Name, tick(s.Min), tick(s.Q1), tick(s.Median), tick(s.Q3), tick(s.Max)})
		if first || s.Min < lo {
			lo = s.Min
		}
		if first || s.Max > hi {
			hi = s.Max
		}
		first = false
	}
	tw.Render()
	if first {
		return
	}

	nameWidth := 0
	for _, c := range cols {
		if len(c.Name) > nameWidth {
			nameWidth = len(c.Name)
		}
	}
	for i, c := range cols {
		if c.MissingCount() == c.Len() {
			continue
		}
		fmt.Fprintf(r.W, "%-*s %s\n", nameWidth, c.Name, boxLine(summaries[i], lo, hi, r.Width))
	}
}

// boxLine draws whiskers from min to max, a box from q1 to q3 and the
// median, on a common scale from lo to hi.
func boxLine(s stats.Summary, lo, hi float64, width int) string {
	line := []rune(strings.Repeat(" ", width))
	pos := func(x float64) int { return scale(x, lo, hi, width) }
	for i := pos(s.Min); i <= pos(s.Max); i++ {
		line[i] = '-'
	}
	for i := pos(s.Q1); i <= pos(s.Q3); i++ {
		line[i] = '='
	}
	line[pos(s.Min)] = '|'
	line[pos(s.Max)] = '|'
	line[pos(s.Q1)] = '['
	line[pos(s.Q3)] = ']'
	line[pos(s.Median)] = ':'
	return strings.TrimRight(string(line), " ")
}

type point struct{ x, y float64 }

func scatterPoints(xc, yc *table.Column) []point {
	var pts []point
	for i := 0; i < xc.Len(); i++ {
		if xc.IsMissing(i) || yc.IsMissing(i) {
			continue
		}
		pts = append(pts, point{xc.Nums[i], yc.Nums[i]})
	}
	return pts
}

// linePoints uses the row position as x unless a numeric x column is given.
func linePoints(cols []*table.Column) []point {
	yc := cols[len(cols)-1]
	var xc *table.Column
	if len(cols) == 2 && cols[0].IsNumeric() {
		xc = cols[0]
	}
	var pts []point
	for i := 0; i < yc.Len(); i++ {
		if yc.IsMissing(i) || (xc != nil && xc.IsMissing(i)) {
			continue
		}
		x := float64(i)
		if xc != nil {
			x = xc.Nums[i]
		}
		pts = append(pts, point{x, yc.Nums[i]})
	}
	return pts
}

// grid plots points on a Width x Height character grid with y growing
// upwards. When connect is set, consecutive points are joined with dots.
func (r *TextRenderer) grid(pts []point, connect bool) {
	if len(pts) == 0 {
		fmt.Fprintln(r.W, "(no data)")
		return
	}
	xlo, xhi, ylo, yhi := pts[0].x, pts[0].x, pts[0].y, pts[0].y
	for _, p := range pts[1:] {
		xlo, xhi = min(xlo, p.x), max(xhi, p.x)
		ylo, yhi = min(ylo, p.y), max(yhi, p.y)
	}

	cells := make([][]rune, r.Height)
	for i := range cells {
		cells[i] = []rune(strings.Repeat(" ", r.Width))
	}
	at := func(p point) (int, int) {
		return scale(p.x, xlo, xhi, r.Width), r.Height - 1 - scale(p.y, ylo, yhi, r.Height)
	}

	if connect {
		for i := 1; i < len(pts); i++ {
			c0, r0 := at(pts[i-1])
			c1, r1 := at(pts[i])
			steps := max(abs(c1-c0), abs(r1-r0))
			for s := 1; s < steps; s++ {
				c := c0 + (c1-c0)*s/steps
				row := r0 + (r1-r0)*s/steps
				if cells[row][c] == ' ' {
					cells[row][c] = '.'
				}
			}
		}
	}
	for _, p := range pts {
		c, row := at(p)
		cells[row][c] = '*'
	}

	axisWidth := max(len(tick(yhi)), len(tick(ylo)))
	for i, line := range cells {
		label := ""
		switch i {
		case 0:
			label = tick(yhi)
		case r.Height - 1:
			label = tick(ylo)
		}
		fmt.Fprintf(r.W, "%*s |%s\n", axisWidth, label, strings.TrimRight(string(line), " "))
	}
	fmt.Fprintf(r.W, "%*s +%s\n", axisWidth, "", strings.Repeat("-", r.Width))
	left, right := tick(xlo), tick(xhi)
	gap := max(r.Width-len(left)-len(right), 1)
	fmt.Fprintf(r.W, "%*s  %s%s%s\n", axisWidth, "", left, strings.Repeat(" ", gap), right)
}

// scale maps x in [lo, hi] to a cell in [0, n-1].
func scale(x, lo, hi float64, n int) int {
	if hi == lo {
		return n / 2
	}
	i := int((x - lo) / (hi - lo) * float64(n-1))
	if i < 0 {
		return 0
	}
	if i > n-1 {
		return n - 1
	}
	return i
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func tick(f float64) string {
	return table.FormatNumber(math.Round(f*100) / 100)
}
