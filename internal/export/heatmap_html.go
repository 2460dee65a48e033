package export

import (
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"os"

	"github.com/protforge/mutameter/internal/scan"
)

// heatmapTemplate renders a self-contained interactive heatmap document.
// Absent cells are encoded as JSON nulls, which Plotly leaves blank.
var heatmapTemplate = template.Must(template.New("heatmap").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8"/>
<title>{{.Title}}</title>
<script src="https://cdn.plot.ly/plotly-2.32.0.min.js"></script>
</head>
<body>
<div id="heatmap" style="width:100%;height:{{.Height}}px;"></div>
<script>
var z = {{.Bins}};
var ranks = {{.Ranks}};
var scores = {{.Scores}};
var custom = ranks.map(function(row, y) {
  return row.map(function(r, x) { return [r, scores[y][x]]; });
});
var data = [{
  type: 'heatmap',
  z: z,
  x: {{.ColLabels}},
  y: {{.RowLabels}},
  customdata: custom,
  hovertemplate: '<b>Position</b>: %{y}<br><b>Mutation to</b>: %{x}<br><b>Rank</b>: %{customdata[0]}<br><b>Score</b>: %{customdata[1]}<extra></extra>',
  colorscale: 'RdYlGn',
  reversescale: true,
  zmin: 1,
  zmax: 10,
  showscale: true,
  colorbar: {
    title: 'Rank Percentile',
    tickvals: [10, 6, 1],
    ticktext: ['Top 10%', 'Top 50%', 'Lowest 10%']
  }
}];
var layout = {
  title: {{.Title}},
  xaxis: {title: 'Mutant Amino Acid'},
  yaxis: {title: 'Residue Position', autorange: 'reversed'},
  height: {{.Height}}
};
Plotly.newPlot('heatmap', data, layout);
</script>
</body>
</html>
`))

type heatmapPage struct {
	Title     string
	Height    int
	ColLabels template.JS
	RowLabels template.JS
	Bins      template.JS
	Ranks     template.JS
	Scores    template.JS
}

// RenderHeatmapHTML writes the heatmap as a standalone HTML document. The
// figure height grows with the residue count, clamped so very long proteins
// stay scrollable rather than unbounded.
func RenderHeatmapHTML(h *scan.Heatmap, w io.Writer) error {
	if h == nil {
		return fmt.Errorf("no heatmap data to render")
	}

	title := "Prediction Heatmap"
	if h.IsPartial() {
		title = fmt.Sprintf("Prediction Heatmap (Showing first %d of %d residues)", len(h.RowLabels), h.TotalPositions)
	}

	heightBase := 200
	if h.IsPartial() {
		heightBase = 150
	}
	height := 30*len(h.RowLabels) + heightBase
	if height < 400 {
		height = 400
	}
	if height > 8000 {
		height = 8000
	}

	page := heatmapPage{
		Title:     title,
		Height:    height,
		ColLabels: mustJSON(h.ColLabels),
		RowLabels: mustJSON(h.RowLabels),
		Bins:      mustJSON(scan.NullableCells(h.Bins, h.Present)),
		Ranks:     mustJSON(scan.NullableCells(h.Ranks, h.Present)),
		Scores:    mustJSON(scan.NullableCells(h.Scores, h.Present)),
	}
	return heatmapTemplate.Execute(w, page)
}

// WriteHeatmapHTML renders the heatmap document to a file.
func WriteHeatmapHTML(h *scan.Heatmap, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create heatmap file: %w", err)
	}
	defer f.Close()
	return RenderHeatmapHTML(h, f)
}

func mustJSON(v interface{}) template.JS {
	b, err := json.Marshal(v)
	if err != nil {
		// Only reachable with non-marshalable input, which the heatmap
		// types cannot produce.
		panic(err)
	}
	return template.JS(b)
}
