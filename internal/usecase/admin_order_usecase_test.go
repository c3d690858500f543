package usecase_test

import (
	"context"
	"net/http"
	"testing"

	"shop/internal/domain/model"
	repo "shop/internal/repository"
	"shop/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newAdminFixture(strict bool) (*txReposStub, *usecase.AdminOrderUsecase) {
	s := &txReposStub{
		orders:     new(OrdOrderRepoMock),
		orderItems: new(OrdOrderItemRepoMock),
		cart:       new(OrdCartRepoMock),
		inventory:  new(OrdInventoryRepoMock),
		products:   new(OrdProductRepoMock),
		users:      new(UserRepoMock),
	}
	uc := usecase.NewAdminOrderUsecase(&txManagerStub{repos: s}, &fixedClock{t: fixtureNow}, strict)
	return s, uc
}

func TestAdminOrderUsecase_ListAll_AddsUsername(t *testing.T) {
	s, uc := newAdminFixture(false)
	users := s.users.(*UserRepoMock)

	s.orders.On("ListAll", mock.Anything).Return([]model.Order{
		{ID: 2, UserID: 7, TotalPrice: 300, Status: model.OrderStatusPending},
	}, nil)
	s.orderItems.On("ListByOrderID", mock.Anything, int64(2)).Return([]model.OrderItem{
		{OrderID: 2, ProductID: 100, Quantity: 1, Price: 300},
	}, nil)
	users.On("FindByID", mock.Anything, int64(7)).Return(model.User{ID: 7, Username: "alice"}, nil)

	out, err := uc.ListAll(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 1, len(out.Orders))
	assert.Equal(t, "alice", out.Orders[0].Username)
	assert.Equal(t, 1, len(out.Orders[0].Items))
}

func TestAdminOrderUsecase_UpdateStatus_MissingInput(t *testing.T) {
	_, uc := newAdminFixture(false)

	_, err := uc.UpdateStatus(context.Background(), 0, "Shipped")
	assertHTTPError(t, err, http.StatusBadRequest, "Order ID and status are required.")

	_, err = uc.UpdateStatus(context.Background(), 1, " ")
	assertHTTPError(t, err, http.StatusBadRequest, "Order ID and status are required.")
}

func TestAdminOrderUsecase_UpdateStatus_InvalidStatus(t *testing.T) {
	_, uc := newAdminFixture(false)

	_, err := uc.UpdateStatus(context.Background(), 1, "Teleported")
	assertHTTPError(t, err, http.StatusBadRequest, "Invalid status provided.")
}

func TestAdminOrderUsecase_UpdateStatus_NotFound(t *testing.T) {
	s, uc := newAdminFixture(false)

	s.orders.On("FindByID", mock.Anything, int64(99)).Return(model.Order{}, repo.ErrNotFound)

	_, err := uc.UpdateStatus(context.Background(), 99, "Shipped")
	assertHTTPError(t, err, http.StatusNotFound, "Order not found.")
}

func TestAdminOrderUsecase_UpdateStatus_Success(t *testing.T) {
	s, uc := newAdminFixture(false)

	s.orders.On("FindByID", mock.Anything, int64(2)).
		Return(model.Order{ID: 2, Status: model.OrderStatusPending}, nil).Once()
	s.orders.On("UpdateStatus", mock.Anything, int64(2), model.OrderStatusShipped, fixtureNow).Return(nil)
	s.orders.On("FindByID", mock.Anything, int64(2)).
		Return(model.Order{ID: 2, Status: model.OrderStatusShipped}, nil).Once()

	updated, err := uc.UpdateStatus(context.Background(), 2, "Shipped")
	assert.NoError(t, err)
	assert.Equal(t, model.OrderStatusShipped, updated.Status)

	//管理者経路では在庫を触らない
	s.inventory.AssertNotCalled(t, "IncreaseStock", mock.Anything, mock.Anything, mock.Anything)
}

func TestAdminOrderUsecase_UpdateStatus_LooseModeAllowsAnyRewrite(t *testing.T) {
	s, uc := newAdminFixture(false)

	s.orders.On("FindByID", mock.Anything, int64(2)).
		Return(model.Order{ID: 2, Status: model.OrderStatusDelivered}, nil).Once()
	s.orders.On("UpdateStatus", mock.Anything, int64(2), model.OrderStatusPending, fixtureNow).Return(nil)
	s.orders.On("FindByID", mock.Anything, int64(2)).
		Return(model.Order{ID: 2, Status: model.OrderStatusPending}, nil).Once()

	_, err := uc.UpdateStatus(context.Background(), 2, "Pending")
	assert.NoError(t, err)
}

func TestAdminOrderUsecase_UpdateStatus_StrictModeRejectsBackwards(t *testing.T) {
	s, uc := newAdminFixture(true)

	s.orders.On("FindByID", mock.Anything, int64(2)).
		Return(model.Order{ID: 2, Status: model.OrderStatusDelivered}, nil)

	_, err := uc.UpdateStatus(context.Background(), 2, "Pending")
	assertHTTPError(t, err, http.StatusBadRequest, "Invalid status transition.")

	s.orders.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAdminOrderUsecase_UpdateStatus_StrictModeAllowsForward(t *testing.T) {
	s, uc := newAdminFixture(true)

	s.orders.On("FindByID", mock.Anything, int64(2)).
		Return(model.Order{ID: 2, Status: model.OrderStatusShipped}, nil).Once()
	s.orders.On("UpdateStatus", mock.Anything, int64(2), model.OrderStatusDelivered, fixtureNow).Return(nil)
	s.orders.On("FindByID", mock.Anything, int64(2)).
		Return(model.Order{ID: 2, Status: model.OrderStatusDelivered}, nil).Once()

	_, err := uc.UpdateStatus(context.Background(), 2, "Delivered")
	assert.NoError(t, err)
}
