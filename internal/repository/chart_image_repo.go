package repository

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"chart-annotator/config"
	"chart-annotator/pkg/httpclient"
	"chart-annotator/pkg/logger"
)

// ChartImageRepository fetches base chart screenshots from the chart-image
// service. The returned bytes are an encoded raster image (PNG), passed to the
// renderer as-is.
type ChartImageRepository interface {
	GetChartImage(ctx context.Context, symbol, interval string) ([]byte, error)
}

type chartImageRepository struct {
	cfg        *config.Config
	log        *logger.Logger
	httpClient httpclient.HTTPClient
}

func NewChartImageRepository(cfg *config.Config, log *logger.Logger) *chartImageRepository {
	return &chartImageRepository{
		cfg:        cfg,
		log:        log,
		httpClient: httpclient.New(cfg.ChartSource.BaseURL, cfg.ChartSource.BaseTimeout, cfg.ChartSource.APIKey),
	}
}

func (c *chartImageRepository) GetChartImage(ctx context.Context, symbol, interval string) ([]byte, error) {
	queryParams := map[string]string{
		"symbol":   symbol,
		"interval": interval,
		"width":    strconv.Itoa(c.cfg.ChartSource.Width),
		"height":   strconv.Itoa(c.cfg.ChartSource.Height),
	}

	resp, err := c.httpClient.Get(ctx, "/chart", queryParams, map[string]string{"Accept": "image/png"}, nil)
	if err != nil {
		c.log.ErrorContext(ctx, "Failed to fetch chart image",
			logger.StringField("symbol", symbol),
			logger.ErrorField(err),
		)
		return nil, fmt.Errorf("failed to fetch chart image for %s: %w", symbol, err)
	}

	if resp.StatusCode != http.StatusOK {
		c.log.ErrorContext(ctx, "Chart image service returned non-OK status",
			logger.StringField("symbol", symbol),
			logger.IntField("status_code", resp.StatusCode),
		)
		return nil, fmt.Errorf("chart image service returned status %d for %s", resp.StatusCode, symbol)
	}

	if len(resp.Body) == 0 {
		return nil, fmt.Errorf("chart image service returned empty body for %s", symbol)
	}

	return resp.Body, nil
}
