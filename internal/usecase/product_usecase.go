package usecase

import (
	"context"
	"math"
	"net/http"
	"strings"

	"shop/internal/domain/model"
	repo "shop/internal/repository"
)

// 新規商品の初期在庫
const defaultStock = 100

type ProductUsecase struct {
	products repo.ProductRepository
}

// DI
func NewProductUsecase(products repo.ProductRepository) *ProductUsecase {
	return &ProductUsecase{products: products}
}

// GET /productsの入力DTO
type ListProductsInput struct {
	Page     int
	Limit    int
	Search   string
	Category string
	MinPrice *float64
	MaxPrice *float64
}

type ProductListOutput struct {
	Total      int64           `json:"total"`
	Page       int             `json:"page"`
	Limit      int             `json:"limit"`
	TotalPages int             `json:"totalPages"`
	Data       []model.Product `json:"data"`
}

func (u *ProductUsecase) List(ctx context.Context, in ListProductsInput) (ProductListOutput, error) {
	if in.Page < 1 {
		in.Page = 1
	}
	if in.Limit < 1 {
		in.Limit = 10
	}
	if in.MinPrice != nil && in.MaxPrice != nil && *in.MinPrice > *in.MaxPrice {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "minPrice must be <= maxPrice")
	}

	items, total, err := u.products.List(ctx, repo.ProductListQuery{
		Page:     in.Page,
		Limit:    in.Limit,
		Search:   strings.TrimSpace(in.Search),
		Category: in.Category,
		MinPrice: in.MinPrice,
		MaxPrice: in.MaxPrice,
	})
	if err != nil {
		return ProductListOutput{}, NewHTTPError(http.StatusInternalServerError, "Failed to load products")
	}

	return ProductListOutput{
		Total:      total,
		Page:       in.Page,
		Limit:      in.Limit,
		TotalPages: int(math.Ceil(float64(total) / float64(in.Limit))),
		Data:       items,
	}, nil
}

type CreateProductInput struct {
	Name     string
	Price    float64
	Category string
	Image    string
}

func (u *ProductUsecase) Create(ctx context.Context, in CreateProductInput) (model.Product, error) {
	if strings.TrimSpace(in.Name) == "" || in.Price == 0 ||
		strings.TrimSpace(in.Category) == "" || strings.TrimSpace(in.Image) == "" {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "All product fields are required.")
	}
	if in.Price <= 0 {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "Price must be a positive number.")
	}

	p, err := u.products.Create(ctx, model.Product{
		Name:     strings.TrimSpace(in.Name),
		Price:    in.Price,
		Category: in.Category,
		Image:    in.Image,
		Stock:    defaultStock,
	})
	if err != nil {
		return model.Product{}, NewHTTPError(http.StatusInternalServerError, "Failed to add product")
	}
	return p, nil
}

// 部分更新。指定された項目だけ差し替え、未指定は現状維持（空への上書きはしない）。
type UpdateProductInput struct {
	Name     *string
	Price    *float64
	Category *string
	Image    *string
}

func (u *ProductUsecase) Update(ctx context.Context, productID int64, in UpdateProductInput) (model.Product, error) {
	if productID <= 0 {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if in.Price != nil && *in.Price <= 0 {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "Price must be a positive number.")
	}

	p, err := u.products.FindByID(ctx, productID)
	if err == repo.ErrNotFound {
		return model.Product{}, NewHTTPError(http.StatusNotFound, "Product not found")
	}
	if err != nil {
		return model.Product{}, NewHTTPError(http.StatusInternalServerError, "Failed to update product")
	}

	if in.Name != nil && strings.TrimSpace(*in.Name) != "" {
		p.Name = strings.TrimSpace(*in.Name)
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
	if in.Category != nil && *in.Category != "" {
		p.Category = *in.Category
	}
	if in.Image != nil && *in.Image != "" {
		p.Image = *in.Image
	}

	if err := u.products.Update(ctx, p); err != nil {
		if err == repo.ErrNotFound {
			return model.Product{}, NewHTTPError(http.StatusNotFound, "Product not found")
		}
		return model.Product{}, NewHTTPError(http.StatusInternalServerError, "Failed to update product")
	}
	return p, nil
}

func (u *ProductUsecase) Delete(ctx context.Context, productID int64) error {
	if productID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	err := u.products.Delete(ctx, productID)
	if err == repo.ErrNotFound {
		return NewHTTPError(http.StatusNotFound, "Product not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "Failed to delete product")
	}
	return nil
}
