package export

import (
	"fmt"
	"sort"

	"github.com/yofu/dxf"
	"github.com/yofu/dxf/color"
	"github.com/yofu/dxf/drawing"

	"github.com/piwi3910/CargoFit/internal/model"
)

// ContainerLayer holds the container outline in DXF exports. Each stop gets
// its own layer named by stopLayer.
const ContainerLayer = "CONTAINER"

var layerColors = []color.ColorNumber{
	color.Green, color.Blue, color.Yellow, color.Magenta, color.Cyan, color.Red,
}

func stopLayer(stop int) string {
	return fmt.Sprintf("STOP-%d", stop)
}

// ExportDXF writes a 3D wireframe of the load: the container outline plus
// every placed piece as a box of twelve lines, one layer per stop.
func ExportDXF(path string, container model.Container, result model.PlacementResult) error {
	if container.Length <= 0 || container.Width <= 0 || container.Height <= 0 {
		return fmt.Errorf("container has no dimensions")
	}

	d := dxf.NewDrawing()
	if _, err := d.AddLayer(ContainerLayer, dxf.DefaultColor, dxf.DefaultLineType, true); err != nil {
		return fmt.Errorf("add layer %s: %w", ContainerLayer, err)
	}
	if err := drawBox(d, model.Box{L: container.Length, W: container.Width, H: container.Height}); err != nil {
		return err
	}

	byStop := map[int][]model.PlacedItem{}
	for _, p := range result.Placed {
		byStop[p.StopSequence] = append(byStop[p.StopSequence], p)
	}
	stops := make([]int, 0, len(byStop))
	for s := range byStop {
		stops = append(stops, s)
	}
	sort.Ints(stops)

	for i, s := range stops {
		name := stopLayer(s)
		if _, err := d.AddLayer(name, layerColors[i%len(layerColors)], dxf.DefaultLineType, true); err != nil {
			return fmt.Errorf("add layer %s: %w", name, err)
		}
		for _, p := range byStop[s] {
			if err := drawBox(d, p.Box()); err != nil {
				return fmt.Errorf("draw %s: %w", p.PieceID, err)
			}
		}
	}

	return d.SaveAs(path)
}

// drawBox adds the twelve edges of b to the current layer.
func drawBox(d *drawing.Drawing, b model.Box) error {
	x0, y0, z0 := b.X, b.Y, b.Z
	x1, y1, z1 := b.X+b.L, b.Y+b.W, b.Z+b.H
	corners := [8][3]float64{
		{x0, y0, z0}, {x1, y0, z0}, {x1, y1, z0}, {x0, y1, z0},
		{x0, y0, z1}, {x1, y0, z1}, {x1, y1, z1}, {x0, y1, z1},
	}
	edges := [12][2]int{
		{0, 1}, {1, 2}, {2, 3}, {3, 0}, // floor
		{4, 5}, {5, 6}, {6, 7}, {7, 4}, // top
		{0, 4}, {1, 5}, {2, 6}, {3, 7}, // uprights
	}
	for _, e := range edges {
		a, c := corners[e[0]], corners[e[1]]
		if _, err := d.Line(a[0], a[1], a[2], c[0], c[1], c[2]); err != nil {
			return err
		}
	}
	return nil
}
