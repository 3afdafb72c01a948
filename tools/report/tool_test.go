package report

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeTestPNG(t *testing.T, path string) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 80, 60))
	for x := 0; x < 80; x++ {
		for y := 0; y < 60; y++ {
			img.Set(x, y, color.RGBA{uint8(x * 3), 100, 200, 0xff})
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Error creating test image: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("Error encoding test image: %v", err)
	}
}

func fixedClock() time.Time {
	return time.Date(2026, 8, 25, 10, 30, 0, 0, time.UTC)
}

func TestReportWithMissingImage(t *testing.T) {
	out := filepath.Join(t.TempDir(), "report.pdf")
	tool := New(WithClock(fixedClock))
	res, err := tool.Run(context.Background(), &Input{
		Body:   "Summary text",
		Images: []string{"missing.png"},
		Path:   out,
	})
	if err != nil {
		t.Fatalf("Expect report despite missing image, but got error: %v", err)
	}
	if _, statErr := os.Stat(out); statErr != nil {
		t.Fatalf("Expect report file at %s: %v", out, statErr)
	}
	if len(res.Missing) != 1 || res.Missing[0] != "missing.png" {
		t.Errorf("Expect missing.png reported, but got %v", res.Missing)
	}
	if res.Pages != 2 {
		t.Errorf("Expect 2 pages (body + note page), but got %d", res.Pages)
	}
}

func TestReportEmbedsImages(t *testing.T) {
	dir := t.TempDir()
	imgPath := filepath.Join(dir, "recycling_trend.png")
	writeTestPNG(t, imgPath)
	out := filepath.Join(dir, "reports", "analysis.pdf")
	tool := New(WithClock(fixedClock))
	res, err := tool.Run(context.Background(), &Input{
		Title:  "Battery Recycling",
		Body:   "Trends and challenges in battery recycling.",
		Images: []string{imgPath},
		Path:   out,
	})
	if err != nil {
		t.Fatalf("Error assembling report: %v", err)
	}
	if len(res.Missing) != 0 {
		t.Errorf("Expect no missing images, but got %v", res.Missing)
	}
	if res.Pages != 2 {
		t.Errorf("Expect 2 pages, but got %d", res.Pages)
	}
	info, statErr := os.Stat(out)
	if statErr != nil {
		t.Fatalf("Expect report file at %s: %v", out, statErr)
	}
	if info.Size() == 0 {
		t.Error("Expect non-empty PDF output")
	}
}

func TestCaption(t *testing.T) {
	cases := map[string]string{
		"q3_recycling-trend.png":   "Q3 Recycling Trend",
		"/tmp/charts/material.png": "Material",
		"plot.png":                 "Plot",
	}
	for in, want := range cases {
		if got := Caption(in); got != want {
			t.Errorf("Caption(%q): expect %q, but got %q", in, want, got)
		}
	}
}
