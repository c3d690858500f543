package filestore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"shop/internal/domain/model"
)

// テーブルごとのファイル名
const (
	fileUsers      = "users.json"
	fileProducts   = "products.json"
	fileCart       = "cart.json"
	fileOrders     = "orders.json"
	fileOrderItems = "order_items.json"
)

type tables struct {
	Users      []model.User
	Products   []model.Product
	CartItems  []model.CartItem
	Orders     []model.Order
	OrderItems []model.OrderItem
}

// JSONファイル版のストア。単一プロセス前提で、1つのロックで全テーブルを守る。
type Store struct {
	mu   sync.RWMutex
	dir  string
	data tables
	seq  map[string]int64
}

// Open はdir配下のJSONファイルを読み込んでストアを返す。無いファイルは空扱い。
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	s := &Store{
		dir: dir,
		seq: map[string]int64{},
	}

	if err := loadFile(filepath.Join(dir, fileUsers), &s.data.Users); err != nil {
		return nil, err
	}
	if err := loadFile(filepath.Join(dir, fileProducts), &s.data.Products); err != nil {
		return nil, err
	}
	if err := loadFile(filepath.Join(dir, fileCart), &s.data.CartItems); err != nil {
		return nil, err
	}
	if err := loadFile(filepath.Join(dir, fileOrders), &s.data.Orders); err != nil {
		return nil, err
	}
	if err := loadFile(filepath.Join(dir, fileOrderItems), &s.data.OrderItems); err != nil {
		return nil, err
	}

	//autoincrementの続きを各テーブルの最大IDから復元
	for _, u := range s.data.Users {
		s.bump(fileUsers, u.ID)
	}
	for _, p := range s.data.Products {
		s.bump(fileProducts, p.ID)
	}
	for _, c := range s.data.CartItems {
		s.bump(fileCart, c.ID)
	}
	for _, o := range s.data.Orders {
		s.bump(fileOrders, o.ID)
	}
	for _, oi := range s.data.OrderItems {
		s.bump(fileOrderItems, oi.ID)
	}

	return s, nil
}

func loadFile(path string, dst interface{}) error {
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if len(b) == 0 {
		return nil
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// 通常はmuを取る。トランザクション内（WithinTxがmuを保持）ならスキップ。
func (s *Store) lock(held bool) func() {
	if held {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) rlock(held bool) func() {
	if held {
		return func() {}
	}
	s.mu.RLock()
	return s.mu.RUnlock
}

func (s *Store) bump(table string, id int64) {
	if id > s.seq[table] {
		s.seq[table] = id
	}
}

// 呼び出し側がmuを握っている前提
func (s *Store) nextID(table string) int64 {
	s.seq[table]++
	return s.seq[table]
}

// 呼び出し側がmuを握っている前提
func (s *Store) persist(table string) error {
	var v interface{}
	switch table {
	case fileUsers:
		v = s.data.Users
	case fileProducts:
		v = s.data.Products
	case fileCart:
		v = s.data.CartItems
	case fileOrders:
		v = s.data.Orders
	case fileOrderItems:
		v = s.data.OrderItems
	default:
		return fmt.Errorf("unknown table %q", table)
	}

	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(s.dir, table), b, 0o644)
}

func (s *Store) persistAll() error {
	for _, t := range []string{fileUsers, fileProducts, fileCart, fileOrders, fileOrderItems} {
		if err := s.persist(t); err != nil {
			return err
		}
	}
	return nil
}

// ロールバック用のコピー。モデルは値型だけなので浅いslice複製で十分。
func (s *Store) snapshot() tables {
	return tables{
		Users:      append([]model.User(nil), s.data.Users...),
		Products:   append([]model.Product(nil), s.data.Products...),
		CartItems:  append([]model.CartItem(nil), s.data.CartItems...),
		Orders:     append([]model.Order(nil), s.data.Orders...),
		OrderItems: append([]model.OrderItem(nil), s.data.OrderItems...),
	}
}
