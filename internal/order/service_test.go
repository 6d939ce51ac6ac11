package order

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/greenbasket/backend/internal/config"
	"github.com/greenbasket/backend/internal/dispatch"
	"github.com/greenbasket/backend/internal/models"
)

type stubDispatcher struct {
	tasks []dispatch.Task
}

func (d *stubDispatcher) Enqueue(task dispatch.Task) {
	d.tasks = append(d.tasks, task)
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, config.Migrate(db))
	return db
}

func newTestService(t *testing.T) (*Service, *stubDispatcher, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	disp := &stubDispatcher{}
	svc := &Service{
		DB:         db,
		Dispatcher: disp,
		Log:        slog.Default(),
	}
	return svc, disp, db
}

func seedCheckout(t *testing.T, db *gorm.DB, stock int) (user models.User, address models.Address, product models.Product) {
	t.Helper()

	user = models.User{Name: "Asha", Email: "asha@example.com", PasswordHash: "x", Role: models.RoleUser, Status: models.UserActive}
	require.NoError(t, db.Create(&user).Error)

	address = models.Address{
		UserID:      user.ID,
		AddressLine: "12 Market Road",
		City:        "Pune",
		State:       "MH",
		Country:     "India",
		Pincode:     "411001",
		Mobile:      "9876543210",
		Status:      true,
	}
	require.NoError(t, db.Create(&address).Error)

	product = models.Product{
		Name:          "Basmati Rice 1kg",
		Images:        `["rice.jpg"]`,
		Unit:          "1 kg",
		Stock:         stock,
		Price:         100,
		CategoryID:    1,
		SubCategoryID: 1,
	}
	require.NoError(t, db.Create(&product).Error)
	return user, address, product
}

func TestPlaceOrderCashOnDelivery(t *testing.T) {
	svc, disp, db := newTestService(t)
	user, address, product := seedCheckout(t, db, 10)

	require.NoError(t, db.Create(&models.CartItem{UserID: user.ID, ProductID: product.ID, Quantity: 2}).Error)

	group, err := svc.PlaceOrder(
		context.Background(),
		user.ID,
		[]LineItem{{ProductID: product.ID, Quantity: 2}},
		"",
		PaymentCashOnDelivery,
		address.ID,
		200, 200,
	)
	require.NoError(t, err)
	require.Len(t, group.Orders, 1)
	require.Equal(t, group.OrderID, group.Orders[0].OrderID)
	require.Equal(t, PaymentCashOnDelivery, group.Orders[0].PaymentStatus)
	require.Equal(t, float64(200), group.Orders[0].TotalAmt)

	var fresh models.Product
	require.NoError(t, db.First(&fresh, product.ID).Error)
	require.Equal(t, 8, fresh.Stock)

	var cartCount int64
	require.NoError(t, db.Model(&models.CartItem{}).Where("user_id = ?", user.ID).Count(&cartCount).Error)
	require.Zero(t, cartCount)

	require.Len(t, disp.tasks, 1)
	require.Equal(t, group.OrderID, disp.tasks[0].OrderGroupID)
	require.Equal(t, user.Name, disp.tasks[0].CustomerName)
}

func TestPlaceOrderMultipleProductsShareGroup(t *testing.T) {
	svc, _, db := newTestService(t)
	user, address, p1 := seedCheckout(t, db, 5)

	p2 := models.Product{Name: "Toor Dal 500g", Stock: 5, Price: 80, CategoryID: 1, SubCategoryID: 1}
	require.NoError(t, db.Create(&p2).Error)

	group, err := svc.PlaceOrder(
		context.Background(),
		user.ID,
		[]LineItem{{ProductID: p1.ID, Quantity: 1}, {ProductID: p2.ID, Quantity: 3}},
		"",
		PaymentCashOnDelivery,
		address.ID,
		340, 340,
	)
	require.NoError(t, err)
	require.Len(t, group.Orders, 2)
	require.Equal(t, group.Orders[0].OrderID, group.Orders[1].OrderID)

	var rows []models.Order
	require.NoError(t, db.Where("order_id = ?", group.OrderID).Find(&rows).Error)
	require.Len(t, rows, 2)

	var fresh2 models.Product
	require.NoError(t, db.First(&fresh2, p2.ID).Error)
	require.Equal(t, 2, fresh2.Stock)
}

func TestPlaceOrderInsufficientStockIsAllOrNothing(t *testing.T) {
	svc, disp, db := newTestService(t)
	user, address, p1 := seedCheckout(t, db, 10)

	p2 := models.Product{Name: "Milk 1l", Stock: 1, Price: 50, CategoryID: 1, SubCategoryID: 1}
	require.NoError(t, db.Create(&p2).Error)

	_, err := svc.PlaceOrder(
		context.Background(),
		user.ID,
		[]LineItem{{ProductID: p1.ID, Quantity: 2}, {ProductID: p2.ID, Quantity: 2}},
		"",
		PaymentCashOnDelivery,
		address.ID,
		300, 300,
	)
	require.ErrorIs(t, err, ErrInsufficientStock)
	require.Contains(t, err.Error(), "Milk 1l")

	// nothing committed: stock untouched on both products, zero order rows
	var fresh1, fresh2 models.Product
	require.NoError(t, db.First(&fresh1, p1.ID).Error)
	require.NoError(t, db.First(&fresh2, p2.ID).Error)
	require.Equal(t, 10, fresh1.Stock)
	require.Equal(t, 1, fresh2.Stock)

	var orderCount int64
	require.NoError(t, db.Model(&models.Order{}).Count(&orderCount).Error)
	require.Zero(t, orderCount)

	require.Empty(t, disp.tasks)
}

func TestPlaceOrderLastUnitOnlyOneSucceeds(t *testing.T) {
	svc, _, db := newTestService(t)
	user, address, product := seedCheckout(t, db, 1)

	items := []LineItem{{ProductID: product.ID, Quantity: 1}}

	_, err := svc.PlaceOrder(context.Background(), user.ID, items, "", PaymentCashOnDelivery, address.ID, 100, 100)
	require.NoError(t, err)

	_, err = svc.PlaceOrder(context.Background(), user.ID, items, "", PaymentCashOnDelivery, address.ID, 100, 100)
	require.ErrorIs(t, err, ErrInsufficientStock)

	var orderCount int64
	require.NoError(t, db.Model(&models.Order{}).Count(&orderCount).Error)
	require.Equal(t, int64(1), orderCount)

	var fresh models.Product
	require.NoError(t, db.First(&fresh, product.ID).Error)
	require.Zero(t, fresh.Stock)
}

func TestPlaceOrderValidation(t *testing.T) {
	svc, _, db := newTestService(t)
	user, address, product := seedCheckout(t, db, 10)

	_, err := svc.PlaceOrder(context.Background(), user.ID, nil, "", PaymentCashOnDelivery, address.ID, 0, 0)
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.PlaceOrder(context.Background(), user.ID, []LineItem{{ProductID: product.ID, Quantity: 1}}, "", PaymentCashOnDelivery, 0, 0, 0)
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.PlaceOrder(context.Background(), user.ID, []LineItem{{ProductID: product.ID, Quantity: 0}}, "", PaymentCashOnDelivery, address.ID, 0, 0)
	require.ErrorIs(t, err, ErrValidation)
}

func TestPlaceOrderUnknownProductAndAddress(t *testing.T) {
	svc, _, db := newTestService(t)
	user, address, _ := seedCheckout(t, db, 10)

	_, err := svc.PlaceOrder(context.Background(), user.ID, []LineItem{{ProductID: 999, Quantity: 1}}, "", PaymentCashOnDelivery, address.ID, 0, 0)
	require.ErrorIs(t, err, ErrNotFound)

	_, err = svc.PlaceOrder(context.Background(), user.ID, []LineItem{{ProductID: 1, Quantity: 1}}, "", PaymentCashOnDelivery, 999, 0, 0)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestPlaceOrderRejectsUnpublishedProduct(t *testing.T) {
	svc, disp, db := newTestService(t)
	user, address, product := seedCheckout(t, db, 10)

	require.NoError(t, db.Model(&models.Product{}).Where("id = ?", product.ID).Update("publish", false).Error)

	_, err := svc.PlaceOrder(context.Background(), user.ID, []LineItem{{ProductID: product.ID, Quantity: 1}}, "", PaymentCashOnDelivery, address.ID, 100, 100)
	require.ErrorIs(t, err, ErrNotFound)

	var orderCount int64
	require.NoError(t, db.Model(&models.Order{}).Count(&orderCount).Error)
	require.Zero(t, orderCount)

	var fresh models.Product
	require.NoError(t, db.First(&fresh, product.ID).Error)
	require.Equal(t, 10, fresh.Stock)

	require.Empty(t, disp.tasks)
}

func TestPlaceOrderRejectsDisabledAddress(t *testing.T) {
	svc, _, db := newTestService(t)
	user, address, product := seedCheckout(t, db, 10)

	require.NoError(t, db.Model(&models.Address{}).Where("id = ?", address.ID).Update("status", false).Error)

	_, err := svc.PlaceOrder(context.Background(), user.ID, []LineItem{{ProductID: product.ID, Quantity: 1}}, "", PaymentCashOnDelivery, address.ID, 0, 0)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestProductDetailsSnapshotIsImmutable(t *testing.T) {
	svc, _, db := newTestService(t)
	user, address, product := seedCheckout(t, db, 10)

	group, err := svc.PlaceOrder(
		context.Background(),
		user.ID,
		[]LineItem{{ProductID: product.ID, Quantity: 1}},
		"pay_123",
		PaymentSucceeded,
		address.ID,
		100, 100,
	)
	require.NoError(t, err)

	// edit the product after the order was placed
	require.NoError(t, db.Model(&models.Product{}).Where("id = ?", product.ID).Updates(map[string]interface{}{
		"name":   "Renamed Rice",
		"images": `["new.jpg"]`,
	}).Error)

	var row models.Order
	require.NoError(t, db.Where("order_id = ?", group.OrderID).First(&row).Error)

	var snapshot struct {
		Name  string          `json:"name"`
		Image json.RawMessage `json:"image"`
	}
	require.NoError(t, json.Unmarshal([]byte(row.ProductDetails), &snapshot))
	require.Equal(t, "Basmati Rice 1kg", snapshot.Name)
	require.JSONEq(t, `["rice.jpg"]`, string(snapshot.Image))
}

func TestUpdateDeliveryStatus(t *testing.T) {
	svc, _, db := newTestService(t)
	user, address, product := seedCheckout(t, db, 10)

	group, err := svc.PlaceOrder(
		context.Background(),
		user.ID,
		[]LineItem{{ProductID: product.ID, Quantity: 1}},
		"",
		PaymentCashOnDelivery,
		address.ID,
		100, 100,
	)
	require.NoError(t, err)

	require.NoError(t, svc.UpdateDeliveryStatus(context.Background(), group.OrderID, models.DeliveryShipped))

	var row models.Order
	require.NoError(t, db.Where("order_id = ?", group.OrderID).First(&row).Error)
	require.Equal(t, models.DeliveryShipped, row.DeliveryStatus)

	require.ErrorIs(t, svc.UpdateDeliveryStatus(context.Background(), "ORD-missing", models.DeliveryShipped), ErrNotFound)
}

func TestListByUser(t *testing.T) {
	svc, _, db := newTestService(t)
	user, address, product := seedCheckout(t, db, 10)

	other := models.User{Name: "Ravi", Email: "ravi@example.com", PasswordHash: "x", Role: models.RoleUser, Status: models.UserActive}
	require.NoError(t, db.Create(&other).Error)

	_, err := svc.PlaceOrder(context.Background(), user.ID, []LineItem{{ProductID: product.ID, Quantity: 1}}, "", PaymentCashOnDelivery, address.ID, 100, 100)
	require.NoError(t, err)

	mine, err := svc.ListByUser(context.Background(), user.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)

	theirs, err := svc.ListByUser(context.Background(), other.ID)
	require.NoError(t, err)
	require.Empty(t, theirs)
}
