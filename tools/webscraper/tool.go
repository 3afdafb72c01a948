package webscraper

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/PuerkitoBio/goquery"

	"github.com/agentique/relay/schema"
	"github.com/agentique/relay/tools"
)

// Input is the schema for a page scrape request.
type Input struct {
	schema.Base
	// URL of the webpage to scrape.
	URL string `json:"url" jsonschema:"title=url,description=URL of the webpage to scrape." validate:"required,url"`
}

func NewInput(link string) *Input {
	return &Input{URL: link}
}

func (s Input) String() string {
	bs, _ := json.Marshal(s)
	return string(bs)
}

// Output is the scraped page as markdown plus basic page metadata.
type Output struct {
	schema.Base
	// Content the scraped content in markdown format.
	Content string `json:"content,omitempty" jsonschema:"title=content,description=The scraped content in markdown format."`
	// Title the title of the webpage.
	Title string `json:"title,omitempty" jsonschema:"title=title,description=The title of the webpage."`
	// Description the meta description of the webpage.
	Description string `json:"description,omitempty" jsonschema:"title=description,description=The meta description of the webpage."`
	// Domain the domain name of the website.
	Domain string `json:"domain,omitempty" jsonschema:"title=domain,description=The domain name of the website."`
}

func (s Output) String() string {
	bs, _ := json.Marshal(s)
	return string(bs)
}

type Config struct {
	tools.Config
	userAgent  string
	timeout    time.Duration
	httpClient *http.Client
}

// Scraper fetches a webpage and converts its main content to markdown.
type Scraper struct {
	Config
}

func New(opts ...Option) *Scraper {
	ret := new(Scraper)
	for _, opt := range opts {
		opt(&ret.Config)
	}
	if ret.Title() == "" {
		ret.SetTitle("WebscraperTool")
	}
	if ret.userAgent == "" {
		ret.userAgent = DefaultUserAgent
	}
	if ret.timeout == 0 {
		ret.timeout = 30 * time.Second
	}
	if ret.httpClient == nil {
		ret.httpClient = &http.Client{Timeout: ret.timeout}
	}
	return ret
}

var blankLines = regexp.MustCompile(`\r?\n{2,}`)

// content containers tried in order; the first non-empty match wins
var contentSelectors = []string{"main", "article", "#content, #main", ".content, .main", "body"}

func (t *Scraper) Run(ctx context.Context, input *Input) (*Output, error) {
	parsedURL, err := url.ParseRequestURI(input.URL)
	if err != nil {
		return nil, err
	}
	doc, err := t.fetch(ctx, input.URL)
	if err != nil {
		return nil, err
	}
	markdown, err := htmltomarkdown.ConvertString(
		mainContent(doc),
		converter.WithDomain(fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)),
	)
	if err != nil {
		return nil, err
	}
	out := &Output{
		Content: cleanMarkdown(markdown),
		Domain:  parsedURL.Host,
	}
	out.Title = strings.TrimSpace(doc.Find("head title").Text())
	out.Description, _ = doc.Find("meta[name='description']").Attr("content")
	return out, nil
}

func (t *Scraper) fetch(ctx context.Context, link string) (*goquery.Document, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("User-Agent", t.userAgent)
	httpReq.Header.Set("Accept", DefaultAccept)
	httpResp, err := t.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()
	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("webscraper: non-200 response fetching page: %d", httpResp.StatusCode)
	}
	return goquery.NewDocumentFromReader(httpResp.Body)
}

// mainContent strips chrome elements and returns the HTML of the most
// specific content container found.
func mainContent(doc *goquery.Document) string {
	for _, tag := range []string{"script", "style", "nav", "header", "footer"} {
		doc.Find(tag).Remove()
	}
	for _, selector := range contentSelectors {
		sel := doc.Find(selector)
		if sel.Length() == 0 {
			continue
		}
		if html, err := sel.Html(); err == nil && strings.TrimSpace(html) != "" {
			return html
		}
	}
	html, _ := doc.Html()
	return html
}

func cleanMarkdown(content string) string {
	content = blankLines.ReplaceAllString(content, "\n\n")
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.TrimSpace(strings.Join(lines, "\n")) + "\n"
}
