package client

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"zbozi/categories/internal/config"
	"zbozi/categories/internal/domain"
	"zbozi/categories/internal/proxy"

	log "github.com/sirupsen/logrus"
	"resty.dev/v3"
)

type ZboziClient interface {
	GetCategories(ctx context.Context, ids []string) ([]domain.Row, error)
	GetCategoryTree(ctx context.Context) ([]domain.CategoryNode, error)
}

type zboziClient struct {
	baseURL       string
	httpClient    *resty.Client
	parser        *categoryParser
	proxySupplier proxy.Supplier
}

// NewZboziClient builds a client authenticated with the login/password pair.
// proxySupplier may be nil.
func NewZboziClient(params config.Parameters, proxySupplier proxy.Supplier) ZboziClient {
	client := resty.New().
		SetTimeout(time.Duration(params.Timeout)*time.Second).
		SetBasicAuth(strconv.FormatInt(params.Login, 10), params.Password).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "zbozi-categories/1.0")

	return &zboziClient{
		baseURL:       strings.TrimRight(params.APIURL, "/"),
		httpClient:    client,
		parser:        newCategoryParser(),
		proxySupplier: proxySupplier,
	}
}

// GetCategories looks up names and paths for a batch of category IDs
func (c *zboziClient) GetCategories(ctx context.Context, ids []string) ([]domain.Row, error) {
	url := fmt.Sprintf("%s/v1/categories/%s", c.baseURL, strings.Join(ids, ","))

	data, err := c.fetchData(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch categories: %w", err)
	}

	rows, err := c.parser.ParseCategories(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse categories: %w", err)
	}

	return rows, nil
}

// GetCategoryTree fetches the whole category forest in one call
func (c *zboziClient) GetCategoryTree(ctx context.Context) ([]domain.CategoryNode, error) {
	url := fmt.Sprintf("%s/v1/categories/tree", c.baseURL)

	data, err := c.fetchData(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch category tree: %w", err)
	}

	roots, err := c.parser.ParseTree(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse category tree: %w", err)
	}

	log.Debugf("Fetched category tree with %d roots", len(roots))
	return roots, nil
}

func (c *zboziClient) fetchData(ctx context.Context, url string) (json.RawMessage, error) {
	if c.proxySupplier != nil {
		if proxyURL := c.proxySupplier.Get(); proxyURL != "" {
			log.Debugf("🔗 Using proxy %s", proxyURL)
			c.httpClient.SetProxy(proxyURL)
		}
	}

	resp, err := c.httpClient.R().
		SetContext(ctx).
		Get(url)

	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("request cancelled: %w", ctx.Err())
		}
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}

	if !resp.IsSuccess() {
		return nil, fmt.Errorf("%w: HTTP %d %s", ErrRequestFailed, resp.StatusCode(), resp.Status())
	}

	return c.parser.extractData([]byte(resp.String()))
}
