package usecase

import (
	"context"
	"net/http"

	repo "shop/internal/repository"
)

// CartUsecase は /cart の業務ロジック。
type CartUsecase struct {
	cart     repo.CartRepository
	products repo.ProductRepository
}

// DI
func NewCartUsecase(cart repo.CartRepository, products repo.ProductRepository) *CartUsecase {
	return &CartUsecase{cart: cart, products: products}
}

// 商品情報を足した表示用の行
type CartLine struct {
	ID         int64   `json:"id"`
	Name       string  `json:"name"`
	Price      float64 `json:"price"`
	Quantity   int64   `json:"quantity"`
	TotalPrice float64 `json:"total_price"`
}

type CartOutput struct {
	Cart []CartLine `json:"cart"`
}

// GetCart は明細を商品名・現在価格と結合して返す。
func (u *CartUsecase) GetCart(ctx context.Context, userID int64) (CartOutput, error) {
	if userID <= 0 {
		return CartOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	items, err := u.cart.ListByUserID(ctx, userID)
	if err != nil {
		return CartOutput{}, NewHTTPError(http.StatusInternalServerError, "Failed to retrieve cart")
	}

	lines := make([]CartLine, 0, len(items))
	for _, it := range items {
		p, err := u.products.FindByID(ctx, it.ProductID)
		//商品が消えていた明細だけ飛ばす。ストア障害は500で返す
		if err == repo.ErrNotFound {
			continue
		}
		if err != nil {
			return CartOutput{}, NewHTTPError(http.StatusInternalServerError, "Failed to retrieve cart")
		}

		lines = append(lines, CartLine{
			ID:         it.ID,
			Name:       p.Name,
			Price:      p.Price,
			Quantity:   it.Quantity,
			TotalPrice: float64(it.Quantity) * p.Price,
		})
	}

	return CartOutput{Cart: lines}, nil
}

// Add はカートに追加（同一商品は数量加算）。新規行ならcreated=true。
func (u *CartUsecase) Add(ctx context.Context, userID int64, productID int64, qty int64) (bool, error) {
	if userID <= 0 {
		return false, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if qty < 1 {
		return false, NewHTTPError(http.StatusBadRequest, "Quantity must be at least 1")
	}

	//商品の存在チェック
	if _, err := u.products.FindByID(ctx, productID); err != nil {
		if err == repo.ErrNotFound {
			return false, NewHTTPError(http.StatusNotFound, "Product not found")
		}
		return false, NewHTTPError(http.StatusInternalServerError, "Failed to add item to cart")
	}

	created, err := u.cart.AddQuantity(ctx, userID, productID, qty)
	if err != nil {
		return false, NewHTTPError(http.StatusInternalServerError, "Failed to add item to cart")
	}
	return created, nil
}

// Update は数量の置き換え。
func (u *CartUsecase) Update(ctx context.Context, userID int64, productID int64, qty int64) error {
	if userID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if qty < 1 {
		return NewHTTPError(http.StatusBadRequest, "Quantity must be at least 1")
	}

	err := u.cart.ReplaceQuantity(ctx, userID, productID, qty)
	if err == repo.ErrNotFound {
		return NewHTTPError(http.StatusNotFound, "Cart item not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "Failed to update cart")
	}
	return nil
}

// RemoveByEntryID は明細IDでの削除（パス指定）。
func (u *CartUsecase) RemoveByEntryID(ctx context.Context, userID int64, entryID int64) error {
	if userID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	err := u.cart.DeleteByID(ctx, userID, entryID)
	if err == repo.ErrNotFound {
		return NewHTTPError(http.StatusNotFound, "Cart item not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "Failed to remove item from cart")
	}
	return nil
}

// RemoveByProductID は商品IDでの削除（ボディ指定）。
func (u *CartUsecase) RemoveByProductID(ctx context.Context, userID int64, productID int64) error {
	if userID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	err := u.cart.DeleteByProduct(ctx, userID, productID)
	if err == repo.ErrNotFound {
		return NewHTTPError(http.StatusNotFound, "Cart item not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "Failed to remove item from cart")
	}
	return nil
}
