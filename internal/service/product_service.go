package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/manalamro/chippy/internal/entity"
	"github.com/manalamro/chippy/internal/repository"
	"github.com/shopspring/decimal"
)

// ProductService serves the read side of the catalogue.
type ProductService struct {
	store repository.UnitOfWork
}

func NewProductService(store repository.UnitOfWork) *ProductService {
	return &ProductService{store: store}
}

// GetProducts returns all products.
func (s *ProductService) GetProducts(ctx context.Context) ([]entity.Product, error) {
	products, err := s.store.Repositories().Products.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	if products == nil {
		products = []entity.Product{}
	}
	return products, nil
}

// SeedProducts loads the default catalogue into an empty store.
func (s *ProductService) SeedProducts(ctx context.Context) error {
	if err := s.store.Repositories().Products.Seed(ctx, DefaultProducts()); err != nil {
		return fmt.Errorf("failed to seed products: %w", err)
	}
	slog.Info("Service: Product catalogue seeded")
	return nil
}

// DefaultProducts is the starter bakery catalogue.
func DefaultProducts() []entity.Product {
	return []entity.Product{
		{ID: "c0000000-0000-4000-8000-000000000001", Title: "Chocolate Chip Cookie", Slug: "chocolate-chip-cookie", Description: "Brown butter dough, dark chocolate chunks.", Price: decimal.RequireFromString("2.50"), Category: "cookies", Stock: 120},
		{ID: "c0000000-0000-4000-8000-000000000002", Title: "Oatmeal Raisin Cookie", Slug: "oatmeal-raisin-cookie", Description: "Rolled oats, plump raisins, cinnamon.", Price: decimal.RequireFromString("2.25"), Category: "cookies", Stock: 80},
		{ID: "c0000000-0000-4000-8000-000000000003", Title: "Butter Croissant", Slug: "butter-croissant", Description: "Laminated over three days.", Price: decimal.RequireFromString("3.75"), Category: "pastries", Stock: 40},
		{ID: "c0000000-0000-4000-8000-000000000004", Title: "Cinnamon Roll", Slug: "cinnamon-roll", Description: "Cream cheese frosting.", Price: decimal.RequireFromString("4.50"), Category: "pastries", Stock: 30},
		{ID: "c0000000-0000-4000-8000-000000000005", Title: "Sourdough Loaf", Slug: "sourdough-loaf", Description: "Naturally leavened, 900g.", Price: decimal.RequireFromString("8.00"), Category: "bread", Stock: 15},
		{ID: "c0000000-0000-4000-8000-000000000006", Title: "Red Velvet Cake", Slug: "red-velvet-cake", Description: "Whole 8 inch cake, serves ten.", Price: decimal.RequireFromString("38.00"), Category: "cakes", Stock: 4},
		{ID: "c0000000-0000-4000-8000-000000000007", Title: "Lemon Tart", Slug: "lemon-tart", Description: "Shortcrust, lemon curd, torched meringue.", Price: decimal.RequireFromString("5.25"), Category: "pastries", Stock: 24},
	}
}
