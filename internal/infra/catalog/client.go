package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"storefront/internal/domain/model"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	defaultLimit = 20
	maxBodyBytes = 4 << 20
)

type Config struct {
	URL     string
	Token   string
	Timeout time.Duration
}

// リモートのカタログAPI。失敗したら見本商品に差し替える（エラーは返さない）。
type Client struct {
	cfg     Config
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[[]model.Product]
	sfg     singleflight.Group
	logger  *zap.Logger
}

func NewClient(cfg Config, httpClient *http.Client, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 3 * time.Second
	}
	return &Client{
		cfg:    cfg,
		http:   httpClient,
		logger: logger,
		breaker: gobreaker.NewCircuitBreaker[[]model.Product](gobreaker.Settings{
			Name:        "catalog",
			MaxRequests: 1,
			Interval:    time.Minute,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warn("circuit breaker state changed",
					zap.String("breaker", name),
					zap.String("from", from.String()),
					zap.String("to", to.String()),
				)
			},
		}),
	}
}

func (c *Client) FetchProducts(ctx context.Context, limit int) []model.Product {
	if limit <= 0 {
		limit = defaultLimit
	}
	if c.cfg.URL == "" {
		return fallback(limit)
	}

	// 同じlimitの同時リクエストは1本にまとめる
	v, err, _ := c.sfg.Do(strconv.Itoa(limit), func() (interface{}, error) {
		return c.breaker.Execute(func() ([]model.Product, error) {
			return c.fetch(ctx, limit)
		})
	})
	if err != nil {
		c.logger.Warn("catalog unavailable, using sample products", zap.Error(err))
		return fallback(limit)
	}
	return v.([]model.Product)
}

func (c *Client) fetch(ctx context.Context, limit int) ([]model.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	body, err := json.Marshal(graphQLRequest{
		Query:     productsQuery,
		Variables: map[string]any{"first": limit},
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.Token != "" {
		req.Header.Set("X-Shopify-Storefront-Access-Token", c.cfg.Token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("catalog status %d", resp.StatusCode)
	}

	var out productsResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if err := out.err(); err != nil {
		return nil, err
	}

	products := make([]model.Product, 0, len(out.Data.Products.Edges))
	for _, e := range out.Data.Products.Edges {
		p, err := fromRemote(e.Node)
		if err != nil {
			c.logger.Warn("skip invalid catalog product", zap.Error(err))
			continue
		}
		products = append(products, p)
	}
	return products, nil
}

func fallback(limit int) []model.Product {
	all := SampleProducts()
	if limit < len(all) {
		return all[:limit]
	}
	return all
}
