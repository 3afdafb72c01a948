package tavily

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/agentique/relay/schema"
	"github.com/agentique/relay/tools"
)

// DefaultEndpoint is the Tavily search API endpoint.
const DefaultEndpoint = "https://api.tavily.com/search"

const defaultNumResults = 5

// ErrMissingAPIKey is returned by New when no API key is configured.
// Missing credentials are a startup-time configuration error, not a
// per-call one.
var ErrMissingAPIKey = errors.New("tavily: missing api key")

// Input is the schema for a web search request.
type Input struct {
	schema.Base
	// Query search query string
	Query string `json:"query" jsonschema:"title=query,description=Search query string." validate:"required"`
	// NumResults number of results to return
	NumResults int `json:"num_results,omitempty" jsonschema:"title=num_results,description=Number of results to return.,default=5" validate:"omitempty,min=1"`
}

func NewInput(query string, numResults int) *Input {
	return &Input{
		Query:      query,
		NumResults: numResults,
	}
}

func (s Input) String() string {
	bs, _ := json.Marshal(s)
	return string(bs)
}

// SearchResultItem represents a single search result record
type SearchResultItem struct {
	schema.Base
	// Title the title of the search result
	Title string `json:"title" jsonschema:"title=title,description=The title of the search result"`
	// URL the URL of the search result
	URL string `json:"url" jsonschema:"title=url,description=The URL of the search result" validate:"required,url"`
	// Snippet the content snippet of the search result
	Snippet string `json:"snippet,omitempty" jsonschema:"title=snippet,description=The content snippet of the search result"`
}

// Output is the structured result of a web search: a synthesized answer
// plus an ordered list of result records capped at the requested count.
type Output struct {
	schema.Base
	// Query the query used to obtain these results
	Query string `json:"query" jsonschema:"title=query,description=The query used to obtain these results"`
	// Answer top-line synthesized answer, if the provider produced one
	Answer string `json:"answer,omitempty" jsonschema:"title=answer,description=Synthesized answer for the query"`
	// Results list of search result records
	Results []SearchResultItem `json:"results,omitempty" jsonschema:"title=results,description=List of search result records"`
}

func (s Output) String() string {
	bs, _ := json.Marshal(s)
	return string(bs)
}

type Config struct {
	tools.Config
	apiKey     string
	endpoint   string
	maxResults int
	httpClient *http.Client
}

// Search is a tool performing web searches through a Tavily-style JSON API.
type Search struct {
	Config
}

// New returns a Search tool, or ErrMissingAPIKey when no credential is set.
func New(opts ...Option) (*Search, error) {
	ret := new(Search)
	for _, opt := range opts {
		opt(&ret.Config)
	}
	if ret.apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	if ret.Title() == "" {
		ret.SetTitle("WebSearchTool")
	}
	if ret.endpoint == "" {
		ret.endpoint = DefaultEndpoint
	}
	if ret.maxResults == 0 {
		ret.maxResults = 10
	}
	if ret.httpClient == nil {
		ret.httpClient = http.DefaultClient
	}
	return ret, nil
}

// request/response wire format of the search provider
type searchRequest struct {
	APIKey        string `json:"api_key"`
	Query         string `json:"query"`
	MaxResults    int    `json:"max_results"`
	IncludeAnswer bool   `json:"include_answer"`
}

type searchResponse struct {
	Answer  string `json:"answer"`
	Results []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Content string `json:"content"`
	} `json:"results"`
}

// Run performs the search synchronously. Transport failures propagate to the
// caller; the conversation driver reports them back as a capability failure.
func (t *Search) Run(ctx context.Context, input *Input) (*Output, error) {
	n := input.NumResults
	if n <= 0 {
		n = defaultNumResults
	}
	if n > t.maxResults {
		n = t.maxResults
	}
	payload := searchRequest{
		APIKey:        t.apiKey,
		Query:         input.Query,
		MaxResults:    n,
		IncludeAnswer: true,
	}
	buf := new(bytes.Buffer)
	if err := json.NewEncoder(buf).Encode(&payload); err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, buf)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpResp, err := t.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("tavily: error querying search provider: %w", err)
	}
	defer httpResp.Body.Close()
	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tavily: non-200 response from search provider: %d", httpResp.StatusCode)
	}
	var res searchResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&res); err != nil {
		return nil, err
	}
	out := &Output{
		Query:  input.Query,
		Answer: res.Answer,
	}
	for _, item := range res.Results {
		if len(out.Results) >= n {
			break
		}
		out.Results = append(out.Results, SearchResultItem{
			Title:   item.Title,
			URL:     item.URL,
			Snippet: item.Content,
		})
	}
	return out, nil
}
