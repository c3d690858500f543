package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"shop/internal/config"
	"shop/internal/handler"
	"shop/internal/infra/filestore"
	"shop/internal/server"
	"shop/internal/usecase"
	"shop/internal/validator"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

// ファイルストアを土台にしたAPI一気通貫テスト

type testIDGen struct{}

func (g *testIDGen) NewID() string { return uuid.NewString() }

type testClock struct{}

func (c *testClock) Now() time.Time { return time.Now() }

func newTestServer(t *testing.T) *echo.Echo {
	t.Helper()

	cfg := config.Config{
		Port:          "0",
		StorageDriver: config.StorageDriverFile,
		DataDir:       t.TempDir(),
		JWTSecret:     "e2e_test_secret",
		StaticDir:     t.TempDir(),
	}

	store, err := filestore.Open(cfg.DataDir)
	assert.NoError(t, err)

	users := filestore.NewUserStore(store)
	products := filestore.NewProductStore(store)
	cart := filestore.NewCartStore(store)
	tx := filestore.NewTxManager(store)

	idGen := &testIDGen{}
	clock := &testClock{}

	userUC := usecase.NewUserUsecase(users, validator.NewUserValidator(), clock, cfg.JWTSecret)
	productUC := usecase.NewProductUsecase(products)
	cartUC := usecase.NewCartUsecase(cart, products)
	orderUC := usecase.NewOrderUsecase(tx, idGen, clock)
	adminOrderUC := usecase.NewAdminOrderUsecase(tx, clock, false)

	h := server.Handlers{
		User:       handler.NewUserHandler(userUC),
		Product:    handler.NewProductHandler(productUC),
		Cart:       handler.NewCartHandler(cartUC),
		Order:      handler.NewOrderHandler(orderUC, idGen),
		AdminOrder: handler.NewAdminOrderHandler(adminOrderUC),
	}

	return server.New(cfg, h)
}

func doJSON(e *echo.Echo, method, path, token string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	return m
}

func signupAndLogin(t *testing.T, e *echo.Echo, username, role string) string {
	t.Helper()

	rec := doJSON(e, http.MethodPost, "/users/signup", "", echo.Map{
		"username": username,
		"email":    username + "@example.com",
		"password": "secret123",
		"role":     role,
	}, nil)
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doJSON(e, http.MethodPost, "/users/login", "", echo.Map{
		"username": username,
		"password": "secret123",
	}, nil)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	token, _ := decode(t, rec)["token"].(string)
	assert.NotEmpty(t, token)
	return token
}

func createProduct(t *testing.T, e *echo.Echo, adminToken, name string, price float64) int64 {
	t.Helper()

	rec := doJSON(e, http.MethodPost, "/products", adminToken, echo.Map{
		"name":     name,
		"price":    price,
		"category": "test",
		"image":    name + ".png",
	}, nil)
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	p, _ := decode(t, rec)["product"].(map[string]interface{})
	return int64(p["id"].(float64))
}

func TestAPI_SignupLoginProfile(t *testing.T) {
	e := newTestServer(t)

	token := signupAndLogin(t, e, "alice", "user")

	rec := doJSON(e, http.MethodGet, "/users/profile", token, nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "alice", body["username"])
	assert.Equal(t, "alice@example.com", body["email"])

	//重複登録は弾く
	rec = doJSON(e, http.MethodPost, "/users/signup", "", echo.Map{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "secret123",
		"role":     "user",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "User already exists.")
}

func TestAPI_ProfileRequiresToken(t *testing.T) {
	e := newTestServer(t)

	rec := doJSON(e, http.MethodGet, "/users/profile", "", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Access denied. No token provided.")
}

func TestAPI_ProductAdminOnly(t *testing.T) {
	e := newTestServer(t)

	userToken := signupAndLogin(t, e, "bob", "user")

	rec := doJSON(e, http.MethodPost, "/products", userToken, echo.Map{
		"name":     "Mug",
		"price":    10,
		"category": "kitchen",
		"image":    "mug.png",
	}, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "Access denied. Admins only.")
}

func TestAPI_ProductListAndFilters(t *testing.T) {
	e := newTestServer(t)
	adminToken := signupAndLogin(t, e, "admin1", "admin")

	createProduct(t, e, adminToken, "Blue Mug", 10)
	createProduct(t, e, adminToken, "Red Mug", 30)
	createProduct(t, e, adminToken, "Desk Lamp", 20)

	rec := doJSON(e, http.MethodGet, "/products?search=mug", "", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, float64(2), body["total"])

	rec = doJSON(e, http.MethodGet, "/products?minPrice=15&maxPrice=25", "", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	body = decode(t, rec)
	assert.Equal(t, float64(1), body["total"])

	rec = doJSON(e, http.MethodGet, "/products?page=1&limit=2", "", nil, nil)
	body = decode(t, rec)
	assert.Equal(t, float64(3), body["total"])
	assert.Equal(t, float64(2), body["totalPages"])
}

func TestAPI_CartFlow(t *testing.T) {
	e := newTestServer(t)
	adminToken := signupAndLogin(t, e, "admin1", "admin")
	userToken := signupAndLogin(t, e, "carol", "user")

	productID := createProduct(t, e, adminToken, "Mug", 12.5)

	//新規は201
	rec := doJSON(e, http.MethodPost, "/cart/add", userToken, echo.Map{
		"product_id": productID,
		"quantity":   2,
	}, nil)
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	//同じ商品は加算されて200
	rec = doJSON(e, http.MethodPost, "/cart/add", userToken, echo.Map{
		"product_id": productID,
		"quantity":   1,
	}, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(e, http.MethodGet, "/cart", userToken, nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	lines, _ := decode(t, rec)["cart"].([]interface{})
	assert.Equal(t, 1, len(lines))
	line := lines[0].(map[string]interface{})
	assert.Equal(t, float64(3), line["quantity"])
	assert.Equal(t, 37.5, line["total_price"])

	//数量の置き換え
	rec = doJSON(e, http.MethodPut, "/cart/update", userToken, echo.Map{
		"product_id": productID,
		"quantity":   1,
	}, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	//商品ID指定の削除
	rec = doJSON(e, http.MethodDelete, "/cart/remove", userToken, echo.Map{
		"product_id": productID,
	}, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Item removed from cart")

	rec = doJSON(e, http.MethodGet, "/cart", userToken, nil, nil)
	lines, _ = decode(t, rec)["cart"].([]interface{})
	assert.Equal(t, 0, len(lines))
}

func TestAPI_CheckoutCancelFlow(t *testing.T) {
	e := newTestServer(t)
	adminToken := signupAndLogin(t, e, "admin1", "admin")
	userToken := signupAndLogin(t, e, "dave", "user")

	productID := createProduct(t, e, adminToken, "Mug", 10)

	rec := doJSON(e, http.MethodPost, "/cart/add", userToken, echo.Map{
		"product_id": productID,
		"quantity":   3,
	}, nil)
	assert.Equal(t, http.StatusCreated, rec.Code)

	//チェックアウト
	rec = doJSON(e, http.MethodPost, "/orders/checkout", userToken, nil, map[string]string{
		"X-Idempotency-Key": "e2e-key-1",
	})
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	orderID := int64(decode(t, rec)["order_id"].(float64))

	//在庫が100→97に減っていること
	rec = doJSON(e, http.MethodGet, "/products?search=mug", "", nil, nil)
	data, _ := decode(t, rec)["data"].([]interface{})
	assert.Equal(t, float64(97), data[0].(map[string]interface{})["stock"])

	//カートは空
	rec = doJSON(e, http.MethodGet, "/cart", userToken, nil, nil)
	lines, _ := decode(t, rec)["cart"].([]interface{})
	assert.Equal(t, 0, len(lines))

	//同じキーの再送は同じ注文ID
	rec = doJSON(e, http.MethodPost, "/orders/checkout", userToken, nil, map[string]string{
		"X-Idempotency-Key": "e2e-key-1",
	})
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, orderID, int64(decode(t, rec)["order_id"].(float64)))

	//空カートのチェックアウトは400
	rec = doJSON(e, http.MethodPost, "/orders/checkout", userToken, nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Cart is empty.")

	//履歴
	rec = doJSON(e, http.MethodGet, "/orders", userToken, nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	hist := decode(t, rec)
	assert.Equal(t, float64(1), hist["total_orders"])

	//キャンセルで在庫が戻る
	rec = doJSON(e, http.MethodPut, "/orders/cancel", userToken, echo.Map{
		"order_id": orderID,
	}, nil)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	order, _ := decode(t, rec)["order"].(map[string]interface{})
	assert.Equal(t, "Cancelled", order["status"])

	rec = doJSON(e, http.MethodGet, "/products?search=mug", "", nil, nil)
	data, _ = decode(t, rec)["data"].([]interface{})
	assert.Equal(t, float64(100), data[0].(map[string]interface{})["stock"])

	//二重キャンセルは400
	rec = doJSON(e, http.MethodPut, "/orders/cancel", userToken, echo.Map{
		"order_id": orderID,
	}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Order cannot be canceled as it is already processed.")
}

func TestAPI_CheckoutInsufficientStock(t *testing.T) {
	e := newTestServer(t)
	adminToken := signupAndLogin(t, e, "admin1", "admin")
	userToken := signupAndLogin(t, e, "erin", "user")

	productID := createProduct(t, e, adminToken, "Mug", 10)

	rec := doJSON(e, http.MethodPost, "/cart/add", userToken, echo.Map{
		"product_id": productID,
		"quantity":   101,
	}, nil)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(e, http.MethodPost, "/orders/checkout", userToken, nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Insufficient stock.")

	//失敗したチェックアウトは注文もカート消去も残さない
	rec = doJSON(e, http.MethodGet, "/orders", userToken, nil, nil)
	assert.Equal(t, float64(0), decode(t, rec)["total_orders"])

	rec = doJSON(e, http.MethodGet, "/cart", userToken, nil, nil)
	lines, _ := decode(t, rec)["cart"].([]interface{})
	assert.Equal(t, 1, len(lines))

	rec = doJSON(e, http.MethodGet, "/products?search=mug", "", nil, nil)
	data, _ := decode(t, rec)["data"].([]interface{})
	assert.Equal(t, float64(100), data[0].(map[string]interface{})["stock"])
}

func TestAPI_AdminOrderEndpoints(t *testing.T) {
	e := newTestServer(t)
	adminToken := signupAndLogin(t, e, "admin1", "admin")
	userToken := signupAndLogin(t, e, "frank", "user")

	productID := createProduct(t, e, adminToken, "Mug", 10)

	rec := doJSON(e, http.MethodPost, "/cart/add", userToken, echo.Map{
		"product_id": productID,
		"quantity":   1,
	}, nil)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(e, http.MethodPost, "/orders/checkout", userToken, nil, nil)
	assert.Equal(t, http.StatusCreated, rec.Code)
	orderID := int64(decode(t, rec)["order_id"].(float64))

	//一般ユーザーは全件一覧を見られない
	rec = doJSON(e, http.MethodGet, "/orders/all", userToken, nil, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(e, http.MethodGet, "/orders/all", adminToken, nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	orders, _ := decode(t, rec)["orders"].([]interface{})
	assert.Equal(t, 1, len(orders))
	assert.Equal(t, "frank", orders[0].(map[string]interface{})["username"])

	//ステータス更新
	rec = doJSON(e, http.MethodPut, "/orders/update", adminToken, echo.Map{
		"order_id": orderID,
		"status":   "Shipped",
	}, nil)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated, _ := decode(t, rec)["updated_order"].(map[string]interface{})
	assert.Equal(t, "Shipped", updated["status"])

	//不正なステータスは400
	rec = doJSON(e, http.MethodPut, "/orders/update", adminToken, echo.Map{
		"order_id": orderID,
		"status":   "Lost",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid status provided.")

	//存在しない注文は404
	rec = doJSON(e, http.MethodPut, "/orders/update", adminToken, echo.Map{
		"order_id": 999,
		"status":   "Shipped",
	}, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	//Shipped済みの注文は利用者側からキャンセルできない
	rec = doJSON(e, http.MethodPut, "/orders/cancel", userToken, echo.Map{
		"order_id": orderID,
	}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPI_OrderHistoryPagination(t *testing.T) {
	e := newTestServer(t)
	adminToken := signupAndLogin(t, e, "admin1", "admin")
	userToken := signupAndLogin(t, e, "grace", "user")

	productID := createProduct(t, e, adminToken, "Mug", 10)

	//注文を7件作る
	for i := 0; i < 7; i++ {
		rec := doJSON(e, http.MethodPost, "/cart/add", userToken, echo.Map{
			"product_id": productID,
			"quantity":   1,
		}, nil)
		assert.Equal(t, http.StatusCreated, rec.Code)

		rec = doJSON(e, http.MethodPost, "/orders/checkout", userToken, nil, map[string]string{
			"X-Idempotency-Key": fmt.Sprintf("hist-key-%d", i),
		})
		assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	//既定はlimit=5
	rec := doJSON(e, http.MethodGet, "/orders", userToken, nil, nil)
	body := decode(t, rec)
	assert.Equal(t, float64(7), body["total_orders"])
	data, _ := body["data"].([]interface{})
	assert.Equal(t, 5, len(data))

	rec = doJSON(e, http.MethodGet, "/orders?page=2&limit=5", userToken, nil, nil)
	data, _ = decode(t, rec)["data"].([]interface{})
	assert.Equal(t, 2, len(data))
}
