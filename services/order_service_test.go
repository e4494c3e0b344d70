package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"storefront-service/models"
	aws_pkg "storefront-service/pkg/aws"
	"storefront-service/services"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testTopic = "arn:aws:sns:us-east-1:000000000000:storefront-events"

type orderFixture struct {
	store   *memStore
	idem    *memIdempotency
	pub     *mockPublisher
	metrics *countingMetrics
	orders  services.OrderService
	carts   services.CartService
}

func newOrderFixture(t *testing.T, products ...*models.Product) *orderFixture {
	t.Helper()
	f := &orderFixture{
		store:   newMemStore(products...),
		idem:    newMemIdempotency(),
		pub:     &mockPublisher{},
		metrics: newCountingMetrics(),
	}
	f.pub.On("Publish", mock.Anything, testTopic, mock.Anything).Return(nil).Maybe()
	emitter := services.NewEventEmitter(f.pub, testTopic, zap.NewNop())
	f.orders = services.NewOrderService(f.store, f.store.orders, f.idem, emitter, f.metrics, zap.NewNop())
	f.carts = services.NewCartService(f.store.carts, f.store.products, zap.NewNop())
	return f
}

func TestPlaceOrder_Success(t *testing.T) {
	laptop := product("Gaming Laptop", "1299.99", 10, true)
	book := product("Go Programming Guide", "49.99", 30, true)
	f := newOrderFixture(t, laptop, book)
	ctx := context.Background()
	user := uuid.New()

	_, _ = f.carts.AddToCart(ctx, user, laptop.ID, 1)
	_, _ = f.carts.AddToCart(ctx, user, book.ID, 2)

	order, appErr := f.orders.PlaceOrder(ctx, user, &models.CheckoutRequest{ShippingAddress: "1 Main St"})
	require.Nil(t, appErr)

	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Equal(t, "1399.97", order.TotalAmount.StringFixed(2))
	require.Len(t, order.Items, 2)
	assert.Equal(t, 9, f.store.products.byID[laptop.ID].StockQuantity)
	assert.Equal(t, 28, f.store.products.byID[book.ID].StockQuantity)
	assert.Empty(t, f.store.carts.items)
	assert.Equal(t, 1, f.metrics.counts[aws_pkg.MetricOrdersCreated])

	f.pub.AssertNumberOfCalls(t, "Publish", 1)
	var evt models.Event
	raw := f.pub.Calls[0].Arguments.Get(2).([]byte)
	require.NoError(t, json.Unmarshal(raw, &evt))
	assert.Equal(t, models.EventOrderPlaced, evt.Type)
	assert.Equal(t, order.ID.String(), evt.Key)
}

func TestPlaceOrder_SnapshotsPrice(t *testing.T) {
	p := product("Coffee Maker", "89.99", 20, true)
	f := newOrderFixture(t, p)
	ctx := context.Background()
	user := uuid.New()

	_, _ = f.carts.AddToCart(ctx, user, p.ID, 1)
	order, appErr := f.orders.PlaceOrder(ctx, user, &models.CheckoutRequest{ShippingAddress: "addr"})
	require.Nil(t, appErr)

	f.store.products.byID[p.ID].Price = f.store.products.byID[p.ID].Price.Add(order.TotalAmount)
	stored, appErr := f.orders.GetOrder(ctx, order.ID)
	require.Nil(t, appErr)
	assert.Equal(t, "89.99", stored.Items[0].Price.StringFixed(2))
	assert.Equal(t, "Coffee Maker", stored.Items[0].ProductName)
}

func TestPlaceOrder_Failures(t *testing.T) {
	p := product("Jeans", "79.99", 2, true)
	f := newOrderFixture(t, p)
	ctx := context.Background()
	user := uuid.New()

	t.Run("empty cart", func(t *testing.T) {
		_, appErr := f.orders.PlaceOrder(ctx, user, &models.CheckoutRequest{ShippingAddress: "addr"})
		require.NotNil(t, appErr)
		assert.Equal(t, "Cart is empty", appErr.Message)
	})

	t.Run("missing address", func(t *testing.T) {
		_, appErr := f.orders.PlaceOrder(ctx, user, &models.CheckoutRequest{ShippingAddress: "  "})
		require.NotNil(t, appErr)
		assert.Equal(t, http.StatusBadRequest, appErr.Code)
	})

	t.Run("stock dropped after adding to cart", func(t *testing.T) {
		_, appErr := f.carts.AddToCart(ctx, user, p.ID, 2)
		require.Nil(t, appErr)
		f.store.products.byID[p.ID].StockQuantity = 1

		_, appErr = f.orders.PlaceOrder(ctx, user, &models.CheckoutRequest{ShippingAddress: "addr"})
		require.NotNil(t, appErr)
		assert.Equal(t, "Product Jeans is not available or insufficient stock", appErr.Message)
		assert.Len(t, f.store.carts.items, 1)
		assert.Empty(t, f.store.orders.byID)
	})

	f.pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}

func TestPlaceOrder_DuplicateTokenReturnsFirstOrder(t *testing.T) {
	p := product("Basketball", "24.99", 60, true)
	f := newOrderFixture(t, p)
	ctx := context.Background()
	user := uuid.New()
	req := &models.CheckoutRequest{ShippingAddress: "addr", Token: "tok-1"}

	_, _ = f.carts.AddToCart(ctx, user, p.ID, 1)
	first, appErr := f.orders.PlaceOrder(ctx, user, req)
	require.Nil(t, appErr)

	second, appErr := f.orders.PlaceOrder(ctx, user, req)
	require.Nil(t, appErr)
	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, f.store.orders.byID, 1)
	assert.Equal(t, first.ID.String(), f.idem.values[user.String()+":tok-1"])
}

func TestPlaceOrder_FailedCheckoutReleasesToken(t *testing.T) {
	f := newOrderFixture(t)
	user := uuid.New()

	_, appErr := f.orders.PlaceOrder(context.Background(), user, &models.CheckoutRequest{ShippingAddress: "addr", Token: "tok-2"})
	require.NotNil(t, appErr)
	assert.Empty(t, f.idem.values)
}

func TestPlaceOrder_InFlightTokenConflicts(t *testing.T) {
	f := newOrderFixture(t)
	user := uuid.New()
	f.idem.values[user.String()+":tok-3"] = ""

	_, appErr := f.orders.PlaceOrder(context.Background(), user, &models.CheckoutRequest{ShippingAddress: "addr", Token: "tok-3"})
	require.NotNil(t, appErr)
	assert.Equal(t, http.StatusConflict, appErr.Code)
}

func TestPlaceOrder_IdempotencyStoreDown(t *testing.T) {
	p := product("Lamp", "45.99", 35, true)
	f := newOrderFixture(t, p)
	f.idem.err = errors.New("redis down")
	ctx := context.Background()
	user := uuid.New()

	_, _ = f.carts.AddToCart(ctx, user, p.ID, 1)
	_, appErr := f.orders.PlaceOrder(ctx, user, &models.CheckoutRequest{ShippingAddress: "addr", Token: "tok-4"})
	require.Nil(t, appErr)
}

func TestGetOrderForUser(t *testing.T) {
	p := product("Lamp", "45.99", 35, true)
	f := newOrderFixture(t, p)
	ctx := context.Background()
	owner := uuid.New()

	_, _ = f.carts.AddToCart(ctx, owner, p.ID, 1)
	order, appErr := f.orders.PlaceOrder(ctx, owner, &models.CheckoutRequest{ShippingAddress: "addr"})
	require.Nil(t, appErr)

	_, appErr = f.orders.GetOrderForUser(ctx, owner, order.ID, false)
	assert.Nil(t, appErr)

	_, appErr = f.orders.GetOrderForUser(ctx, uuid.New(), order.ID, false)
	require.NotNil(t, appErr)
	assert.Equal(t, http.StatusForbidden, appErr.Code)

	_, appErr = f.orders.GetOrderForUser(ctx, uuid.New(), order.ID, true)
	assert.Nil(t, appErr)

	_, appErr = f.orders.GetOrderForUser(ctx, owner, uuid.New(), false)
	require.NotNil(t, appErr)
	assert.Equal(t, http.StatusNotFound, appErr.Code)
}

func TestUpdateStatus(t *testing.T) {
	p := product("Lamp", "45.99", 35, true)
	f := newOrderFixture(t, p)
	ctx := context.Background()
	user := uuid.New()

	_, _ = f.carts.AddToCart(ctx, user, p.ID, 1)
	order, _ := f.orders.PlaceOrder(ctx, user, &models.CheckoutRequest{ShippingAddress: "addr"})

	updated, appErr := f.orders.UpdateStatus(ctx, order.ID, models.OrderStatusShipped)
	require.Nil(t, appErr)
	assert.Equal(t, models.OrderStatusShipped, updated.Status)

	_, appErr = f.orders.UpdateStatus(ctx, order.ID, models.OrderStatus("LOST"))
	require.NotNil(t, appErr)
	assert.Equal(t, http.StatusBadRequest, appErr.Code)

	page, appErr := f.orders.ListOrders(ctx, models.OrderStatusShipped, 0, 0)
	require.Nil(t, appErr)
	assert.Equal(t, int64(1), page.Total)
	assert.Equal(t, services.DefaultAdminPageSize, page.Size)
}
