package trace

import (
	"errors"
	"fmt"

	"github.com/fogleman/gg"
)

// Chart geometry in pixels.
const (
	labelWidth = 96
	rowHeight  = 22
	tickWidth  = 12
	margin     = 8
)

var palette = [][3]float64{
	{0.20, 0.47, 0.73},
	{0.89, 0.47, 0.16},
	{0.30, 0.65, 0.30},
	{0.80, 0.25, 0.25},
	{0.55, 0.40, 0.70},
	{0.55, 0.35, 0.30},
	{0.85, 0.45, 0.70},
	{0.50, 0.50, 0.50},
}

// Gantt draws a timeline as one row per task and one column per tick.
// When several tasks share a tick the column is split between them in
// dispatch order.
func Gantt(timeline [][]int, names []string) (*gg.Context, error) {
	if len(names) == 0 {
		return nil, errors.New("gantt: no tasks")
	}
	w := labelWidth + len(timeline)*tickWidth + 2*margin
	h := len(names)*rowHeight + 2*margin + rowHeight
	dc := gg.NewContext(w, h)

	dc.SetRGB(1, 1, 1)
	dc.Clear()

	x0 := float64(labelWidth + margin)
	for i, name := range names {
		y := float64(margin + i*rowHeight)
		if i%2 == 1 {
			dc.SetRGB(0.95, 0.95, 0.95)
			dc.DrawRectangle(x0, y, float64(len(timeline)*tickWidth), rowHeight)
			dc.Fill()
		}
		dc.SetRGB(0, 0, 0)
		dc.DrawStringAnchored(name, float64(margin), y+rowHeight/2, 0, 0.5)
	}

	for tick, slots := range timeline {
		if len(slots) == 0 {
			continue
		}
		share := float64(tickWidth) / float64(len(slots))
		for j, slot := range slots {
			if slot < 0 || slot >= len(names) {
				return nil, fmt.Errorf("gantt: slot %d out of range at tick %d", slot, tick)
			}
			c := palette[slot%len(palette)]
			dc.SetRGB(c[0], c[1], c[2])
			dc.DrawRectangle(x0+float64(tick*tickWidth)+float64(j)*share, float64(margin+slot*rowHeight+2), share, rowHeight-4)
			dc.Fill()
		}
	}

	// Tick ruler.
	dc.SetRGB(0.3, 0.3, 0.3)
	dc.SetLineWidth(1)
	base := float64(margin + len(names)*rowHeight)
	for tick := 0; tick <= len(timeline); tick++ {
		x := x0 + float64(tick*tickWidth)
		long := tick%10 == 0
		if long {
			dc.DrawLine(x, base, x, base+8)
			dc.Stroke()
			dc.DrawStringAnchored(fmt.Sprint(tick), x, base+rowHeight/2+4, 0.5, 0.5)
		} else {
			dc.DrawLine(x, base, x, base+4)
			dc.Stroke()
		}
	}
	return dc, nil
}

// WriteGantt draws the timeline and saves it as a PNG at path.
func WriteGantt(path string, timeline [][]int, names []string) error {
	dc, err := Gantt(timeline, names)
	if err != nil {
		return err
	}
	if err := dc.SavePNG(path); err != nil {
		return fmt.Errorf("save gantt %s: %w", path, err)
	}
	return nil
}
