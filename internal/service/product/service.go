package product

import (
	"context"
	"fmt"
	"strings"

	"storefront-checkout/internal/domain"
	productrepo "storefront-checkout/internal/repository/product"
)

type Service struct {
	repo productrepo.Repository
}

func New(repo productrepo.Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context) ([]domain.Product, error) {
	return s.repo.List(ctx)
}

func (s *Service) GetBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	if slug == "" {
		return nil, fmt.Errorf("%w: slug required", domain.ErrInvalidInput)
	}
	return s.repo.GetBySlug(ctx, slug)
}
