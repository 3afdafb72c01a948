package chart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	gochart "github.com/wcharczuk/go-chart/v2"

	"github.com/agentique/relay/schema"
	"github.com/agentique/relay/tools"
)

// Kind is the chart type to render.
type Kind = string

const (
	Bar     Kind = "bar"
	Line    Kind = "line"
	Scatter Kind = "scatter"
	Pie     Kind = "pie"
)

var (
	// ErrUnsupportedKind is returned for a chart kind outside bar/line/scatter/pie.
	ErrUnsupportedKind = errors.New("chart: unsupported chart kind")
	// ErrInvalidSeries is returned when the value series do not fit the kind.
	ErrInvalidSeries = errors.New("chart: invalid value series")
)

// Input is the schema for a chart render request.
type Input struct {
	schema.Base
	// Kind chart kind: bar, line, scatter or pie.
	Kind Kind `json:"kind" jsonschema:"title=kind,enum=bar,enum=line,enum=scatter,enum=pie,description=Chart kind to render." validate:"required"`
	// X x value series.
	X []float64 `json:"x_data,omitempty" jsonschema:"title=x_data,description=X value series."`
	// Y y value series.
	Y []float64 `json:"y_data" jsonschema:"title=y_data,description=Y value series." validate:"required,min=1"`
	// Labels per-value labels, used by bar and pie charts.
	Labels []string `json:"labels,omitempty" jsonschema:"title=labels,description=Per-value labels for bar and pie charts."`
	// Title chart title.
	Title string `json:"title,omitempty" jsonschema:"title=title,description=Chart title."`
	// XLabel x axis label, ignored for pie charts.
	XLabel string `json:"x_label,omitempty" jsonschema:"title=x_label,description=X axis label."`
	// YLabel y axis label, ignored for pie charts.
	YLabel string `json:"y_label,omitempty" jsonschema:"title=y_label,description=Y axis label."`
	// Path output file path for the rendered PNG.
	Path string `json:"path" jsonschema:"title=path,description=Output file path for the rendered PNG." validate:"required"`
}

func (s Input) String() string {
	bs, _ := json.Marshal(s)
	return string(bs)
}

// Output reports where the chart was written.
type Output struct {
	schema.Base
	// Path path of the rendered image file.
	Path string `json:"path" jsonschema:"title=path,description=Path of the rendered image file."`
	// Kind the rendered chart kind.
	Kind Kind `json:"kind" jsonschema:"title=kind,description=The rendered chart kind."`
	// Points number of data points rendered.
	Points int `json:"points" jsonschema:"title=points,description=Number of data points rendered."`
}

func (s Output) String() string {
	bs, _ := json.Marshal(s)
	return string(bs)
}

type Config struct {
	tools.Config
	width  int
	height int
}

// Renderer renders value series to PNG chart files.
type Renderer struct {
	Config
}

func New(opts ...Option) *Renderer {
	ret := new(Renderer)
	for _, opt := range opts {
		opt(&ret.Config)
	}
	if ret.Title() == "" {
		ret.SetTitle("ChartTool")
	}
	if ret.width == 0 {
		ret.width = 1280
	}
	if ret.height == 0 {
		ret.height = 720
	}
	return ret
}

// renderable is satisfied by every go-chart chart type.
type renderable interface {
	Render(rp gochart.RendererProvider, w io.Writer) error
}

// Run validates the request, then renders the chart to input.Path. All
// validation happens before any filesystem side effect; an existing file at
// the path is overwritten and the parent directory is created if absent.
func (t *Renderer) Run(ctx context.Context, input *Input) (*Output, error) {
	c, points, err := t.build(input)
	if err != nil {
		return nil, err
	}
	if dir := filepath.Dir(input.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	f, err := os.Create(input.Path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if err := c.Render(gochart.PNG, f); err != nil {
		return nil, err
	}
	return &Output{Path: input.Path, Kind: input.Kind, Points: points}, nil
}

func (t *Renderer) build(input *Input) (renderable, int, error) {
	switch input.Kind {
	case Line:
		return t.xyChart(input, false)
	case Scatter:
		return t.xyChart(input, true)
	case Bar:
		return t.barChart(input)
	case Pie:
		return t.pieChart(input)
	default:
		return nil, 0, fmt.Errorf("%w: %q", ErrUnsupportedKind, input.Kind)
	}
}

func (t *Renderer) xyChart(input *Input, dots bool) (renderable, int, error) {
	if len(input.X) != len(input.Y) {
		return nil, 0, fmt.Errorf("%w: x/y length mismatch (%d vs %d)", ErrInvalidSeries, len(input.X), len(input.Y))
	}
	if len(input.X) < 2 {
		return nil, 0, fmt.Errorf("%w: need at least 2 points, got %d", ErrInvalidSeries, len(input.X))
	}
	series := gochart.ContinuousSeries{
		XValues: input.X,
		YValues: input.Y,
	}
	if dots {
		series.Style = gochart.Style{
			StrokeWidth: gochart.Disabled,
			DotWidth:    4,
		}
	}
	c := gochart.Chart{
		Title:  input.Title,
		Width:  t.width,
		Height: t.height,
		XAxis:  gochart.XAxis{Name: input.XLabel},
		YAxis:  gochart.YAxis{Name: input.YLabel},
		Series: []gochart.Series{series},
	}
	return c, len(input.X), nil
}

func (t *Renderer) barChart(input *Input) (renderable, int, error) {
	values, err := labeledValues(input)
	if err != nil {
		return nil, 0, err
	}
	c := gochart.BarChart{
		Title:  input.Title,
		Width:  t.width,
		Height: t.height,
		Bars:   values,
		YAxis:  gochart.YAxis{Name: input.YLabel},
	}
	return c, len(values), nil
}

// pieChart carries no axes at all, so axis labels never leak into the output.
func (t *Renderer) pieChart(input *Input) (renderable, int, error) {
	values, err := labeledValues(input)
	if err != nil {
		return nil, 0, err
	}
	for _, v := range values {
		if v.Value <= 0 {
			return nil, 0, fmt.Errorf("%w: pie slices must be positive, got %v", ErrInvalidSeries, v.Value)
		}
	}
	c := gochart.PieChart{
		Width:  t.width,
		Height: t.height,
		Values: values,
	}
	return c, len(values), nil
}

// labeledValues pairs each y value with its label, falling back to the x
// value (or the index) when no label is given.
func labeledValues(input *Input) ([]gochart.Value, error) {
	if len(input.Labels) > 0 && len(input.Labels) != len(input.Y) {
		return nil, fmt.Errorf("%w: labels/y length mismatch (%d vs %d)", ErrInvalidSeries, len(input.Labels), len(input.Y))
	}
	if len(input.X) > 0 && len(input.X) != len(input.Y) {
		return nil, fmt.Errorf("%w: x/y length mismatch (%d vs %d)", ErrInvalidSeries, len(input.X), len(input.Y))
	}
	values := make([]gochart.Value, 0, len(input.Y))
	for i, y := range input.Y {
		var label string
		switch {
		case len(input.Labels) > 0:
			label = input.Labels[i]
		case len(input.X) > 0:
			label = strconv.FormatFloat(input.X[i], 'g', -1, 64)
		default:
			label = strconv.Itoa(i + 1)
		}
		values = append(values, gochart.Value{Value: y, Label: label})
	}
	return values, nil
}
