package filestore

import (
	"context"
	"sort"
	"strings"
	"time"

	"shop/internal/domain/model"
	repo "shop/internal/repository"
)

// ---- users ----

type UserStore struct {
	s    *Store
	inTx bool
}

func NewUserStore(s *Store) *UserStore {
	return &UserStore{s: s}
}

func (r *UserStore) Create(ctx context.Context, user *model.User) error {
	defer r.s.lock(r.inTx)()

	user.ID = r.s.nextID(fileUsers)
	r.s.data.Users = append(r.s.data.Users, *user)
	return r.s.persist(fileUsers)
}

func (r *UserStore) FindByID(ctx context.Context, userID int64) (model.User, error) {
	defer r.s.rlock(r.inTx)()

	for _, u := range r.s.data.Users {
		if u.ID == userID {
			return u, nil
		}
	}
	return model.User{}, repo.ErrNotFound
}

func (r *UserStore) FindByLogin(ctx context.Context, username string, email string) (model.User, error) {
	defer r.s.rlock(r.inTx)()

	for _, u := range r.s.data.Users {
		if (username != "" && u.Username == username) || (email != "" && u.Email == email) {
			return u, nil
		}
	}
	return model.User{}, repo.ErrNotFound
}

func (r *UserStore) ExistsByUsernameOrEmail(ctx context.Context, username string, email string) (bool, error) {
	defer r.s.rlock(r.inTx)()

	for _, u := range r.s.data.Users {
		if u.Username == username || u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r *UserStore) Update(ctx context.Context, user model.User) error {
	defer r.s.lock(r.inTx)()

	for i := range r.s.data.Users {
		if r.s.data.Users[i].ID == user.ID {
			r.s.data.Users[i] = user
			return r.s.persist(fileUsers)
		}
	}
	return repo.ErrNotFound
}

// ---- products ----

type ProductStore struct {
	s    *Store
	inTx bool
}

func NewProductStore(s *Store) *ProductStore {
	return &ProductStore{s: s}
}

func (r *ProductStore) List(ctx context.Context, q repo.ProductListQuery) ([]model.Product, int64, error) {
	defer r.s.rlock(r.inTx)()

	matched := make([]model.Product, 0, len(r.s.data.Products))
	search := strings.ToLower(strings.TrimSpace(q.Search))

	for _, p := range r.s.data.Products {
		if search != "" && !strings.Contains(strings.ToLower(p.Name), search) {
			continue
		}
		if q.Category != "" && p.Category != q.Category {
			continue
		}
		if q.MinPrice != nil && p.Price < *q.MinPrice {
			continue
		}
		if q.MaxPrice != nil && p.Price > *q.MaxPrice {
			continue
		}
		matched = append(matched, p)
	}

	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	total := int64(len(matched))
	start := (q.Page - 1) * q.Limit
	if start >= len(matched) {
		return []model.Product{}, total, nil
	}
	end := start + q.Limit
	if end > len(matched) {
		end = len(matched)
	}

	return matched[start:end], total, nil
}

func (r *ProductStore) FindByID(ctx context.Context, id int64) (model.Product, error) {
	defer r.s.rlock(r.inTx)()

	for _, p := range r.s.data.Products {
		if p.ID == id {
			return p, nil
		}
	}
	return model.Product{}, repo.ErrNotFound
}

func (r *ProductStore) Create(ctx context.Context, p model.Product) (model.Product, error) {
	defer r.s.lock(r.inTx)()

	p.ID = r.s.nextID(fileProducts)
	r.s.data.Products = append(r.s.data.Products, p)
	if err := r.s.persist(fileProducts); err != nil {
		return model.Product{}, err
	}
	return p, nil
}

func (r *ProductStore) Update(ctx context.Context, p model.Product) error {
	defer r.s.lock(r.inTx)()

	for i := range r.s.data.Products {
		if r.s.data.Products[i].ID == p.ID {
			r.s.data.Products[i] = p
			return r.s.persist(fileProducts)
		}
	}
	return repo.ErrNotFound
}

// 商品削除。cart/order_itemsもFKのCASCADE相当で道連れにする。
func (r *ProductStore) Delete(ctx context.Context, id int64) error {
	defer r.s.lock(r.inTx)()

	found := false
	kept := r.s.data.Products[:0]
	for _, p := range r.s.data.Products {
		if p.ID == id {
			found = true
			continue
		}
		kept = append(kept, p)
	}
	if !found {
		return repo.ErrNotFound
	}
	r.s.data.Products = kept

	keptCart := r.s.data.CartItems[:0]
	for _, c := range r.s.data.CartItems {
		if c.ProductID != id {
			keptCart = append(keptCart, c)
		}
	}
	r.s.data.CartItems = keptCart

	keptItems := r.s.data.OrderItems[:0]
	for _, oi := range r.s.data.OrderItems {
		if oi.ProductID != id {
			keptItems = append(keptItems, oi)
		}
	}
	r.s.data.OrderItems = keptItems

	if err := r.s.persist(fileProducts); err != nil {
		return err
	}
	if err := r.s.persist(fileCart); err != nil {
		return err
	}
	return r.s.persist(fileOrderItems)
}

// ---- cart ----

type CartStore struct {
	s    *Store
	inTx bool
}

func NewCartStore(s *Store) *CartStore {
	return &CartStore{s: s}
}

func (r *CartStore) ListByUserID(ctx context.Context, userID int64) ([]model.CartItem, error) {
	defer r.s.rlock(r.inTx)()

	items := []model.CartItem{}
	for _, c := range r.s.data.CartItems {
		if c.UserID == userID {
			items = append(items, c)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

func (r *CartStore) AddQuantity(ctx context.Context, userID int64, productID int64, qty int64) (bool, error) {
	defer r.s.lock(r.inTx)()

	for i := range r.s.data.CartItems {
		c := &r.s.data.CartItems[i]
		if c.UserID == userID && c.ProductID == productID {
			c.Quantity += qty
			return false, r.s.persist(fileCart)
		}
	}

	r.s.data.CartItems = append(r.s.data.CartItems, model.CartItem{
		ID:        r.s.nextID(fileCart),
		UserID:    userID,
		ProductID: productID,
		Quantity:  qty,
		AddedAt:   time.Now(),
	})
	return true, r.s.persist(fileCart)
}

func (r *CartStore) ReplaceQuantity(ctx context.Context, userID int64, productID int64, qty int64) error {
	defer r.s.lock(r.inTx)()

	for i := range r.s.data.CartItems {
		c := &r.s.data.CartItems[i]
		if c.UserID == userID && c.ProductID == productID {
			c.Quantity = qty
			return r.s.persist(fileCart)
		}
	}
	return repo.ErrNotFound
}

func (r *CartStore) DeleteByID(ctx context.Context, userID int64, entryID int64) error {
	return r.deleteWhere(func(c model.CartItem) bool {
		return c.ID == entryID && c.UserID == userID
	})
}

func (r *CartStore) DeleteByProduct(ctx context.Context, userID int64, productID int64) error {
	return r.deleteWhere(func(c model.CartItem) bool {
		return c.UserID == userID && c.ProductID == productID
	})
}

func (r *CartStore) deleteWhere(match func(model.CartItem) bool) error {
	defer r.s.lock(r.inTx)()

	found := false
	kept := r.s.data.CartItems[:0]
	for _, c := range r.s.data.CartItems {
		if match(c) {
			found = true
			continue
		}
		kept = append(kept, c)
	}
	if !found {
		return repo.ErrNotFound
	}
	r.s.data.CartItems = kept
	return r.s.persist(fileCart)
}

func (r *CartStore) ClearByUserID(ctx context.Context, userID int64) error {
	defer r.s.lock(r.inTx)()

	kept := r.s.data.CartItems[:0]
	for _, c := range r.s.data.CartItems {
		if c.UserID != userID {
			kept = append(kept, c)
		}
	}
	r.s.data.CartItems = kept
	return r.s.persist(fileCart)
}

// ---- orders ----

type OrderStore struct {
	s    *Store
	inTx bool
}

func NewOrderStore(s *Store) *OrderStore {
	return &OrderStore{s: s}
}

func (r *OrderStore) Create(ctx context.Context, order model.Order) (int64, error) {
	defer r.s.lock(r.inTx)()

	order.ID = r.s.nextID(fileOrders)
	r.s.data.Orders = append(r.s.data.Orders, order)
	if err := r.s.persist(fileOrders); err != nil {
		return 0, err
	}
	return order.ID, nil
}

func (r *OrderStore) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	defer r.s.rlock(r.inTx)()

	for _, o := range r.s.data.Orders {
		if o.ID == orderID {
			return o, nil
		}
	}
	return model.Order{}, repo.ErrNotFound
}

func (r *OrderStore) FindByIDForUser(ctx context.Context, orderID int64, userID int64) (model.Order, error) {
	o, err := r.FindByID(ctx, orderID)
	if err != nil {
		return model.Order{}, err
	}
	if o.UserID != userID {
		return model.Order{}, repo.ErrNotFound
	}
	return o, nil
}

func (r *OrderStore) ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error) {
	defer r.s.rlock(r.inTx)()

	matched := []model.Order{}
	for _, o := range r.s.data.Orders {
		if o.UserID == userID {
			matched = append(matched, o)
		}
	}
	sortNewestFirst(matched)

	total := int64(len(matched))
	start := (page - 1) * limit
	if start >= len(matched) {
		return []model.Order{}, total, nil
	}
	end := start + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (r *OrderStore) ListAll(ctx context.Context) ([]model.Order, error) {
	defer r.s.rlock(r.inTx)()

	all := append([]model.Order(nil), r.s.data.Orders...)
	sortNewestFirst(all)
	return all, nil
}

func (r *OrderStore) UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus, updatedAt time.Time) error {
	defer r.s.lock(r.inTx)()

	for i := range r.s.data.Orders {
		o := &r.s.data.Orders[i]
		if o.ID == orderID {
			o.Status = status
			o.LastUpdated = updatedAt
			return r.s.persist(fileOrders)
		}
	}
	return repo.ErrNotFound
}

func (r *OrderStore) FindByIdempotencyKey(ctx context.Context, userID int64, key string) (model.Order, bool, error) {
	defer r.s.rlock(r.inTx)()

	for _, o := range r.s.data.Orders {
		if o.UserID == userID && o.IdempotencyKey == key {
			return o, true, nil
		}
	}
	return model.Order{}, false, nil
}

func sortNewestFirst(orders []model.Order) {
	sort.Slice(orders, func(i, j int) bool {
		if orders[i].OrderDate.Equal(orders[j].OrderDate) {
			return orders[i].ID > orders[j].ID
		}
		return orders[i].OrderDate.After(orders[j].OrderDate)
	})
}

// ---- order items ----

type OrderItemStore struct {
	s    *Store
	inTx bool
}

func NewOrderItemStore(s *Store) *OrderItemStore {
	return &OrderItemStore{s: s}
}

func (r *OrderItemStore) CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) error {
	if len(items) == 0 {
		return nil
	}

	defer r.s.lock(r.inTx)()

	for _, it := range items {
		it.ID = r.s.nextID(fileOrderItems)
		it.OrderID = orderID
		r.s.data.OrderItems = append(r.s.data.OrderItems, it)
	}
	return r.s.persist(fileOrderItems)
}

func (r *OrderItemStore) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error) {
	defer r.s.rlock(r.inTx)()

	items := []model.OrderItem{}
	for _, oi := range r.s.data.OrderItems {
		if oi.OrderID == orderID {
			items = append(items, oi)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

// ---- inventory ----

type InventoryStore struct {
	s    *Store
	inTx bool
}

func NewInventoryStore(s *Store) *InventoryStore {
	return &InventoryStore{s: s}
}

func (r *InventoryStore) DecreaseStockIfEnough(ctx context.Context, productID int64, qty int64) (bool, error) {
	defer r.s.lock(r.inTx)()

	for i := range r.s.data.Products {
		p := &r.s.data.Products[i]
		if p.ID == productID {
			if p.Stock < qty {
				return false, nil
			}
			p.Stock -= qty
			return true, r.s.persist(fileProducts)
		}
	}
	return false, nil
}

func (r *InventoryStore) IncreaseStock(ctx context.Context, productID int64, qty int64) error {
	defer r.s.lock(r.inTx)()

	for i := range r.s.data.Products {
		p := &r.s.data.Products[i]
		if p.ID == productID {
			p.Stock += qty
			return r.s.persist(fileProducts)
		}
	}
	return repo.ErrNotFound
}
