package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pedrignacio/tu-kiosko/models"
)

// RESTSource reads products from a PostgREST-style endpoint
// ({base}/rest/v1/products with eq./neq. filters).
type RESTSource struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewRESTSource(baseURL, apiKey string) *RESTSource {
	return &RESTSource{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (r *RESTSource) List(ctx context.Context, category string) ([]models.Product, error) {
	q := url.Values{}
	q.Set("select", "*")
	if !isAll(category) {
		q.Set("category", "eq."+category)
	}
	return r.query(ctx, q)
}

func (r *RESTSource) Get(ctx context.Context, id string) (models.Product, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("id", "eq."+id)
	q.Set("limit", "1")

	products, err := r.query(ctx, q)
	if err != nil {
		return models.Product{}, err
	}
	if len(products) == 0 {
		return models.Product{}, ErrNotFound
	}
	return products[0], nil
}

func (r *RESTSource) Related(ctx context.Context, category, excludeID string, limit int) ([]models.Product, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("category", "eq."+category)
	q.Set("id", "neq."+excludeID)
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	return r.query(ctx, q)
}

func (r *RESTSource) query(ctx context.Context, q url.Values) ([]models.Product, error) {
	endpoint := fmt.Sprintf("%s/rest/v1/products?%s", r.baseURL, q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")
	if r.apiKey != "" {
		req.Header.Set("apikey", r.apiKey)
		req.Header.Set("Authorization", "Bearer "+r.apiKey)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response body: %v", ErrUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status code %d: %s", ErrUnavailable, resp.StatusCode, string(body))
	}

	var products []models.Product
	if err := json.Unmarshal(body, &products); err != nil {
		return nil, fmt.Errorf("%w: malformed response: %v", ErrUnavailable, err)
	}
	return products, nil
}
