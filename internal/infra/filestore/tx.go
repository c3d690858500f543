package filestore

import (
	"context"

	repo "shop/internal/repository"
)

type txRepos struct {
	orders     repo.OrderRepository
	orderItems repo.OrderItemRepository
	cart       repo.CartRepository
	inventory  repo.InventoryRepository
	products   repo.ProductRepository
	users      repo.UserRepository
}

func (r *txRepos) Orders() repo.OrderRepository         { return r.orders }
func (r *txRepos) OrderItems() repo.OrderItemRepository { return r.orderItems }
func (r *txRepos) Cart() repo.CartRepository            { return r.cart }
func (r *txRepos) Inventory() repo.InventoryRepository  { return r.inventory }
func (r *txRepos) Products() repo.ProductRepository     { return r.products }
func (r *txRepos) Users() repo.UserRepository           { return r.users }

// ファイル版のTransactionManager。
// muをトランザクション全体で握って直列化し、fnの間は他の読み書きを入れない。
// 途中失敗はスナップショットに巻き戻して全ファイルを書き直す。
// 直列化しているので、巻き戻しが他リクエストのコミット済みの書き込みを
// 消すことはない。
type TxManager struct {
	s *Store
}

func NewTxManager(s *Store) *TxManager {
	return &TxManager{s: s}
}

func (tm *TxManager) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	tm.s.mu.Lock()
	defer tm.s.mu.Unlock()

	snap := tm.s.snapshot()
	seqSnap := make(map[string]int64, len(tm.s.seq))
	for k, v := range tm.s.seq {
		seqSnap[k] = v
	}

	//muは保持したままなので、中のrepoはロックを取らない
	r := &txRepos{
		orders:     &OrderStore{s: tm.s, inTx: true},
		orderItems: &OrderItemStore{s: tm.s, inTx: true},
		cart:       &CartStore{s: tm.s, inTx: true},
		inventory:  &InventoryStore{s: tm.s, inTx: true},
		products:   &ProductStore{s: tm.s, inTx: true},
		users:      &UserStore{s: tm.s, inTx: true},
	}

	if err := fn(r); err != nil {
		//巻き戻し
		tm.s.data = snap
		tm.s.seq = seqSnap
		_ = tm.s.persistAll()
		return err
	}

	return nil
}
