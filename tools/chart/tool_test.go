package chart

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestUnsupportedKindFailsBeforeSideEffects(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "bogus.png")
	tool := New()
	_, err := tool.Run(context.Background(), &Input{
		Kind: "unsupported",
		Y:    []float64{1, 2, 3},
		Path: path,
	})
	if !errors.Is(err, ErrUnsupportedKind) {
		t.Fatalf("Expect ErrUnsupportedKind, but got %v", err)
	}
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Error("Expect no file written for unsupported kind")
	}
	if _, statErr := os.Stat(filepath.Dir(path)); !os.IsNotExist(statErr) {
		t.Error("Expect no directory created for unsupported kind")
	}
}

func TestLineChartRendersAllPoints(t *testing.T) {
	path := filepath.Join(t.TempDir(), "charts", "trend.png")
	tool := New()
	out, err := tool.Run(context.Background(), &Input{
		Kind:   Line,
		X:      []float64{1, 2, 3, 4},
		Y:      []float64{10, 25, 15, 40},
		Title:  "Recycling volume",
		XLabel: "Quarter",
		YLabel: "Tonnes",
		Path:   path,
	})
	if err != nil {
		t.Fatalf("Error rendering line chart: %v", err)
	}
	if out.Points != 4 {
		t.Errorf("Expect 4 points, but got %d", out.Points)
	}
	info, statErr := os.Stat(path)
	if statErr != nil {
		t.Fatalf("Expect chart file at %s: %v", path, statErr)
	}
	if info.Size() == 0 {
		t.Error("Expect non-empty PNG output")
	}
}

func TestScatterMismatchedSeries(t *testing.T) {
	tool := New()
	_, err := tool.Run(context.Background(), &Input{
		Kind: Scatter,
		X:    []float64{1, 2},
		Y:    []float64{1, 2, 3},
		Path: filepath.Join(t.TempDir(), "scatter.png"),
	})
	if !errors.Is(err, ErrInvalidSeries) {
		t.Fatalf("Expect ErrInvalidSeries, but got %v", err)
	}
}

func TestBarChartUsesLabels(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bars.png")
	tool := New(WithSize(640, 480))
	out, err := tool.Run(context.Background(), &Input{
		Kind:   Bar,
		Y:      []float64{30, 45, 25},
		Labels: []string{"Lithium", "Cobalt", "Nickel"},
		YLabel: "Share",
		Path:   path,
	})
	if err != nil {
		t.Fatalf("Error rendering bar chart: %v", err)
	}
	if out.Points != 3 {
		t.Errorf("Expect 3 bars, but got %d", out.Points)
	}
	if _, statErr := os.Stat(path); statErr != nil {
		t.Fatalf("Expect chart file at %s: %v", path, statErr)
	}
}

func TestPieChartRenders(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pie.png")
	tool := New()
	out, err := tool.Run(context.Background(), &Input{
		Kind:   Pie,
		Y:      []float64{60, 25, 15},
		Labels: []string{"Recycled", "Landfill", "Stockpiled"},
		// axis labels must be ignored for pie charts
		XLabel: "unused",
		YLabel: "unused",
		Path:   path,
	})
	if err != nil {
		t.Fatalf("Error rendering pie chart: %v", err)
	}
	if out.Kind != Pie {
		t.Errorf("Expect pie kind, but got %s", out.Kind)
	}
	if _, statErr := os.Stat(path); statErr != nil {
		t.Fatalf("Expect chart file at %s: %v", path, statErr)
	}
}
