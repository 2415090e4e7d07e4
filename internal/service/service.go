package service

import (
	"chart-annotator/config"
	"chart-annotator/internal/renderer"
	"chart-annotator/internal/repository"
	"chart-annotator/pkg/cache"
	"chart-annotator/pkg/logger"
)

type Service struct {
	AnnotateService AnnotateService
}

func NewService(
	cfg *config.Config,
	log *logger.Logger,
	repo *repository.Repository,
	inmemoryCache cache.Cache,
	rend *renderer.Renderer,
) *Service {
	annotateService := NewAnnotateService(cfg, log, repo, inmemoryCache, rend)

	return &Service{
		AnnotateService: annotateService,
	}
}
