package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/greenbasket/backend/internal/dispatch"
	"github.com/greenbasket/backend/internal/models"
	"github.com/greenbasket/backend/internal/mykafka"
	"gorm.io/gorm"
)

var (
	ErrValidation        = errors.New("validation")         // 400
	ErrNotFound          = errors.New("not found")          // 404
	ErrInsufficientStock = errors.New("insufficient stock") // 400
)

const (
	PaymentCashOnDelivery = "CASH ON DELIVERY"
	PaymentSucceeded      = "succeeded"
)

type LineItem struct {
	ProductID uint `json:"productId"`
	Quantity  uint `json:"quantity"`
}

// Dispatcher queues a best-effort delivery-dispatch task after commit.
type Dispatcher interface {
	Enqueue(task dispatch.Task)
}

type Service struct {
	DB         *gorm.DB
	Dispatcher Dispatcher
	Producer   mykafka.Publisher
	Log        *slog.Logger
}

// Group is one checkout's worth of order rows sharing a group id.
type Group struct {
	OrderID string         `json:"order_id"`
	Orders  []models.Order `json:"orders"`
}

type productSnapshot struct {
	Name  string          `json:"name"`
	Image json.RawMessage `json:"image"`
}

// PlaceOrder turns validated line items plus an address and a payment outcome
// into one order row per product, all inside a single transaction: the stock
// decrement is conditional (stock >= quantity), the cart is cleared, and any
// failure rolls the whole group back. Dispatch notification and the
// order_created event happen after commit and cannot affect the result.
func (s *Service) PlaceOrder(ctx context.Context, userID uint, items []LineItem, paymentID, paymentStatus string, addressID uint, subTotal, total float64) (*Group, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: provide list_items", ErrValidation)
	}
	if addressID == 0 {
		return nil, fmt.Errorf("%w: provide addressId", ErrValidation)
	}
	for _, it := range items {
		if it.ProductID == 0 {
			return nil, fmt.Errorf("%w: productId required", ErrValidation)
		}
		if it.Quantity < 1 {
			return nil, fmt.Errorf("%w: quantity must be >= 1", ErrValidation)
		}
	}

	groupID := "ORD-" + uuid.NewString()
	now := time.Now().Unix()

	var (
		address models.Address
		user    models.User
		orders  []models.Order
	)

	txErr := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&user, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: user %d", ErrNotFound, userID)
			}
			return err
		}

		if err := tx.Where("id = ? AND user_id = ? AND status = ?", addressID, userID, true).
			First(&address).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: address %d", ErrNotFound, addressID)
			}
			return err
		}

		orders = make([]models.Order, 0, len(items))
		for _, it := range items {
			// withdrawn products are invisible to the storefront and cannot
			// be ordered either
			var product models.Product
			if err := tx.Where("id = ? AND publish = ?", it.ProductID, true).
				First(&product).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("%w: product %d", ErrNotFound, it.ProductID)
				}
				return err
			}

			// Conditional decrement: under concurrent checkouts of the same
			// product only orders that still fit the remaining stock commit.
			res := tx.Model(&models.Product{}).
				Where("id = ? AND stock >= ?", it.ProductID, it.Quantity).
				Update("stock", gorm.Expr("stock - ?", it.Quantity))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return fmt.Errorf("%w: %s", ErrInsufficientStock, product.Name)
			}

			images := product.Images
			if images == "" {
				images = "[]"
			}
			details, err := json.Marshal(productSnapshot{
				Name:  product.Name,
				Image: json.RawMessage(images),
			})
			if err != nil {
				return err
			}

			orders = append(orders, models.Order{
				UserID:            userID,
				OrderID:           groupID,
				ProductID:         product.ID,
				ProductDetails:    string(details),
				Quantity:          it.Quantity,
				PaymentID:         paymentID,
				PaymentStatus:     paymentStatus,
				DeliveryAddressID: addressID,
				SubTotalAmt:       subTotal,
				TotalAmt:          total,
				DeliveryStatus:    models.DeliveryPending,
				CreatedAt:         now,
			})
		}

		if err := tx.Create(&orders).Error; err != nil {
			return err
		}

		if err := tx.Where("user_id = ?", userID).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.User{}).Where("id = ?", userID).
			Update("shopping_cart", "").Error; err != nil {
			return err
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	if s.Dispatcher != nil {
		s.Dispatcher.Enqueue(dispatch.Task{
			OrderGroupID:  groupID,
			CustomerName:  user.Name,
			CustomerPhone: address.Mobile,
			Address:       formatAddress(address),
			Amount:        total,
		})
	}

	s.publishCreated(ctx, userID, groupID, paymentStatus, total, len(orders))

	return &Group{OrderID: groupID, Orders: orders}, nil
}

func (s *Service) publishCreated(ctx context.Context, userID uint, groupID, paymentStatus string, total float64, count int) {
	if s.Producer == nil {
		return
	}
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	event := map[string]interface{}{
		"type":           "order_created",
		"userID":         userID,
		"orderID":        groupID,
		"payment_status": paymentStatus,
		"total":          total,
		"line_count":     count,
	}
	if err := s.Producer.PublishEvent(pctx, "order_events", groupID, event); err != nil {
		s.Log.Warn("kafka publish failed", "topic", "order_events", "error", err)
	}
}

// ListByUser returns the user's order rows, newest group first.
func (s *Service) ListByUser(ctx context.Context, userID uint) ([]models.Order, error) {
	var orders []models.Order
	if err := s.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id ASC").
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// ListAll returns every order row, newest first. Admin only at the routes.
func (s *Service) ListAll(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	if err := s.DB.WithContext(ctx).
		Order("created_at DESC, id ASC").
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// UpdateDeliveryStatus sets the delivery status of every row in a group.
func (s *Service) UpdateDeliveryStatus(ctx context.Context, groupID, status string) error {
	res := s.DB.WithContext(ctx).Model(&models.Order{}).
		Where("order_id = ?", groupID).
		Update("delivery_status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: order %s", ErrNotFound, groupID)
	}
	return nil
}

func formatAddress(a models.Address) string {
	return fmt.Sprintf("%s, %s, %s, %s %s", a.AddressLine, a.City, a.State, a.Country, a.Pincode)
}
