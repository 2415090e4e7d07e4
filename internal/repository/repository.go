package repository

import (
	"chart-annotator/config"
	"chart-annotator/pkg/logger"
)

type Repository struct {
	AIRepo         AIRepository
	ChartImageRepo ChartImageRepository
}

func NewRepository(cfg *config.Config, log *logger.Logger) (*Repository, error) {
	aiRepo, err := NewGeminiAIRepository(cfg, log)
	if err != nil {
		return nil, err
	}

	return &Repository{
		AIRepo:         aiRepo,
		ChartImageRepo: NewChartImageRepository(cfg, log),
	}, nil
}
