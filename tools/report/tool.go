package report

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/samber/lo"

	"github.com/agentique/relay/schema"
	"github.com/agentique/relay/tools"
)

// Input is the schema for a report assembly request.
type Input struct {
	schema.Base
	// Title report title; a default is applied when empty.
	Title string `json:"title,omitempty" jsonschema:"title=title,description=Report title."`
	// Body the report body text.
	Body string `json:"body" jsonschema:"title=body,description=The report body text." validate:"required"`
	// Images ordered list of image file paths to embed, one page each.
	Images []string `json:"images,omitempty" jsonschema:"title=images,description=Ordered list of image file paths to embed."`
	// Path output file path for the assembled PDF.
	Path string `json:"path" jsonschema:"title=path,description=Output file path for the assembled PDF." validate:"required"`
}

func (s Input) String() string {
	bs, _ := json.Marshal(s)
	return string(bs)
}

// Output reports where the document was written and which images could not
// be embedded.
type Output struct {
	schema.Base
	// Path path of the assembled document.
	Path string `json:"path" jsonschema:"title=path,description=Path of the assembled document."`
	// Pages number of pages in the document.
	Pages int `json:"pages" jsonschema:"title=pages,description=Number of pages in the document."`
	// Missing image paths that were replaced by an inline note.
	Missing []string `json:"missing,omitempty" jsonschema:"title=missing,description=Image paths that were missing and replaced by a note."`
}

func (s Output) String() string {
	bs, _ := json.Marshal(s)
	return string(bs)
}

const (
	defaultTitle = "Analysis Report"
	marginMM     = 15.0
)

type Config struct {
	tools.Config
	now func() time.Time
}

// Assembler builds paginated PDF reports from body text and chart images.
type Assembler struct {
	Config
}

func New(opts ...Option) *Assembler {
	ret := new(Assembler)
	for _, opt := range opts {
		opt(&ret.Config)
	}
	if ret.Title() == "" {
		ret.SetTitle("ReportTool")
	}
	if ret.now == nil {
		ret.now = time.Now
	}
	return ret
}

// Run assembles the document at input.Path, overwriting any existing file.
// Missing images never abort the document: each one is replaced by a
// caption-only note and reported in the output.
func (t *Assembler) Run(ctx context.Context, input *Input) (*Output, error) {
	if dir := filepath.Dir(input.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	title := input.Title
	if title == "" {
		title = defaultTitle
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(title, false)
	pdf.SetMargins(marginMM, marginMM, marginMM)
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 18)
	pdf.MultiCell(0, 10, title, "", "L", false)
	pdf.SetFont("Arial", "I", 10)
	pdf.MultiCell(0, 6, t.now().Format("2006-01-02 15:04 MST"), "", "L", false)
	pdf.Ln(6)
	pdf.SetFont("Arial", "", 12)
	pdf.MultiCell(0, 6, input.Body, "", "L", false)

	pageW, _ := pdf.GetPageSize()
	var missing []string
	for _, img := range input.Images {
		pdf.AddPage()
		pdf.SetFont("Arial", "B", 12)
		pdf.MultiCell(0, 8, Caption(img), "", "L", false)
		if _, err := os.Stat(img); err != nil {
			missing = append(missing, img)
			pdf.SetFont("Arial", "I", 11)
			pdf.MultiCell(0, 6, "Image not available: "+filepath.Base(img), "", "L", false)
			continue
		}
		pdf.Ln(4)
		pdf.ImageOptions(img, marginMM, pdf.GetY(), pageW-2*marginMM, 0, false,
			gofpdf.ImageOptions{ReadDpi: true}, 0, "")
	}

	pages := pdf.PageCount()
	if err := pdf.OutputFileAndClose(input.Path); err != nil {
		return nil, err
	}
	return &Output{Path: input.Path, Pages: pages, Missing: missing}, nil
}

// Caption derives a human readable caption from an image filename:
// "q3_recycling-trend.png" becomes "Q3 Recycling Trend".
func Caption(path string) string {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	words := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-' || r == ' '
	})
	words = lo.Map(words, func(w string, _ int) string {
		return strings.ToUpper(w[:1]) + w[1:]
	})
	return strings.Join(words, " ")
}
