// OMDb implementation of [MetadataProvider]
//
// Response shapes follow https://www.omdbapi.com/
package services

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/desertthunder/wlx/internal/models"
	"github.com/desertthunder/wlx/internal/shared"
	"golang.org/x/time/rate"
)

const omdbBaseURL = "https://www.omdbapi.com"

// OMDbSearchResult is one hit in a title search.
type OMDbSearchResult struct {
	Title  string `json:"Title"`
	Year   string `json:"Year"`
	IMDbID string `json:"imdbID"`
	Type   string `json:"Type"`
	Poster string `json:"Poster"`
}

// omdbSearchResponse is the s= response envelope. Response is "True" or "False".
type omdbSearchResponse struct {
	Search       []OMDbSearchResult `json:"Search"`
	TotalResults string             `json:"totalResults"`
	Response     string             `json:"Response"`
	Error        string             `json:"Error"`
}

// OMDbService implements [MetadataProvider] for the OMDb API.
type OMDbService struct {
	client  *APIClient
	apiKey  string
	limiter *rate.Limiter
}

// NewOMDbService creates an OMDb client. A non-positive rps disables rate limiting.
func NewOMDbService(apiKey string, rps float64, client *APIClient) (*OMDbService, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("%w: omdb api_key", shared.ErrMissingCredentials)
	}
	if client == nil {
		client = NewAPIClient(APIClientOpts{BaseURL: omdbBaseURL})
	}

	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}

	return &OMDbService{
		client:  client,
		apiKey:  apiKey,
		limiter: rate.NewLimiter(limit, 1),
	}, nil
}

// Name returns the name of the provider
func (s *OMDbService) Name() string {
	return "OMDb"
}

func (s *OMDbService) get(ctx context.Context, params url.Values) (*APIResponse, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limiter: %w", shared.ErrNetwork, err)
	}
	params.Set("apikey", s.apiKey)
	return s.client.Get(ctx, "/", params)
}

// Search finds titles matching title. A search with no hits returns an empty slice.
func (s *OMDbService) Search(ctx context.Context, title string) ([]models.Candidate, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("%w: search title is required", shared.ErrMissingArgument)
	}

	resp, err := s.get(ctx, url.Values{"s": {title}})
	if err != nil {
		return nil, err
	}

	var body omdbSearchResponse
	if err := resp.Decode(&body); err != nil {
		return nil, err
	}
	if !strings.EqualFold(body.Response, "True") {
		if isOMDbNotFound(body.Error) {
			return []models.Candidate{}, nil
		}
		return nil, omdbError(body.Error)
	}

	candidates := make([]models.Candidate, 0, len(body.Search))
	for _, r := range body.Search {
		c := models.Candidate{ID: r.IMDbID, Title: r.Title, Year: r.Year, Type: r.Type, Poster: r.Poster}
		if c.Poster == "N/A" {
			c.Poster = ""
		}
		candidates = append(candidates, c)
	}
	return RankCandidates(title, candidates), nil
}

// Lookup fetches the full record for an IMDb id.
func (s *OMDbService) Lookup(ctx context.Context, id string) (*models.Entry, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: id is required", shared.ErrMissingArgument)
	}

	resp, err := s.get(ctx, url.Values{"i": {id}, "plot": {"short"}})
	if err != nil {
		return nil, err
	}

	var raw map[string]any
	if err := resp.Decode(&raw); err != nil {
		return nil, err
	}

	status, _ := raw["Response"].(string)
	if !strings.EqualFold(status, "True") {
		msg, _ := raw["Error"].(string)
		if isOMDbNotFound(msg) || strings.Contains(strings.ToLower(msg), "incorrect imdb id") {
			return nil, fmt.Errorf("%w: %s", shared.ErrNotFound, id)
		}
		return nil, omdbError(msg)
	}

	entry, err := models.NormalizeRecord(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrMalformedResponse, err)
	}
	return &entry, nil
}

func isOMDbNotFound(msg string) bool {
	return strings.Contains(strings.ToLower(msg), "not found")
}

func omdbError(msg string) error {
	if strings.Contains(strings.ToLower(msg), "api key") {
		return fmt.Errorf("%w: omdb: %s", shared.ErrMissingCredentials, msg)
	}
	if msg == "" {
		msg = "unsuccessful response"
	}
	return fmt.Errorf("%w: omdb: %s", shared.ErrMalformedResponse, msg)
}
