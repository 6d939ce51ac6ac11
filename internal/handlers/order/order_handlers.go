package order

import (
	"errors"
	"math"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/greenbasket/backend/internal/handlers"
	ordersvc "github.com/greenbasket/backend/internal/order"
	"github.com/greenbasket/backend/internal/payment"
)

type OrderHandler struct {
	Svc            *ordersvc.Service
	Stripe         payment.StripeAPI
	Razorpay       payment.RazorpayAPI
	RazorpaySecret string
}

func failFromError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, ordersvc.ErrValidation):
		return handlers.Fail(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, ordersvc.ErrInsufficientStock):
		return handlers.Fail(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, ordersvc.ErrNotFound):
		return handlers.Fail(c, http.StatusNotFound, err.Error())
	default:
		c.Logger().Errorf("order error: %v", err)
		return handlers.Fail(c, http.StatusInternalServerError, "something went wrong")
	}
}

func (h *OrderHandler) CashOnDelivery(c echo.Context) error {
	userID, err := handlers.UserID(c)
	if err != nil {
		return err
	}

	var req struct {
		ListItems   []ordersvc.LineItem `json:"list_items"`
		AddressID   uint                `json:"addressId"`
		SubTotalAmt float64             `json:"subTotalAmt"`
		TotalAmt    float64             `json:"totalAmt"`
	}
	if err := c.Bind(&req); err != nil {
		return handlers.Fail(c, http.StatusBadRequest, "invalid request body")
	}
	if req.AddressID == 0 {
		return handlers.Fail(c, http.StatusBadRequest, "provide addressId")
	}
	if len(req.ListItems) == 0 {
		return handlers.Fail(c, http.StatusBadRequest, "provide list_items")
	}

	group, err := h.Svc.PlaceOrder(
		c.Request().Context(),
		userID,
		req.ListItems,
		"",
		ordersvc.PaymentCashOnDelivery,
		req.AddressID,
		req.SubTotalAmt,
		req.TotalAmt,
	)
	if err != nil {
		return failFromError(c, err)
	}

	return handlers.OK(c, http.StatusOK, "order placed successfully", group.Orders)
}

// Checkout creates (and for saved payment methods immediately confirms) a
// Stripe payment intent. No order rows exist until the follow-up
// save-payment call.
func (h *OrderHandler) Checkout(c echo.Context) error {
	if _, err := handlers.UserID(c); err != nil {
		return err
	}

	var req struct {
		AddressID        uint    `json:"addressId"`
		SubTotalAmt      float64 `json:"subTotalAmt"`
		StripeCustomerID string  `json:"stripeCustomerId"`
		PaymentMethodID  string  `json:"paymentMethodId"`
		SaveCard         bool    `json:"saveCard"`
	}
	if err := c.Bind(&req); err != nil {
		return handlers.Fail(c, http.StatusBadRequest, "invalid request body")
	}
	if req.AddressID == 0 || req.SubTotalAmt <= 0 || req.StripeCustomerID == "" {
		return handlers.Fail(c, http.StatusBadRequest, "provide addressId, subTotalAmt and stripeCustomerId")
	}

	amount := int64(math.Round(req.SubTotalAmt * 100))

	var (
		intent *payment.PaymentIntent
		err    error
	)
	if req.PaymentMethodID != "" && req.PaymentMethodID != "new" {
		intent, err = h.Stripe.ConfirmIntent(
			c.Request().Context(), amount, "inr",
			req.StripeCustomerID, req.PaymentMethodID, req.SaveCard,
		)
	} else {
		intent, err = h.Stripe.CreateIntent(
			c.Request().Context(), amount, "inr", req.StripeCustomerID,
		)
	}
	if err != nil {
		var declined *payment.CardDeclinedError
		if errors.As(err, &declined) {
			return handlers.Fail(c, http.StatusPaymentRequired, declined.Message)
		}
		c.Logger().Errorf("stripe error: %v", err)
		return handlers.Fail(c, http.StatusInternalServerError, "payment failed")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"paymentIntentStatus": intent.Status,
		"clientSecret":        intent.ClientSecret,
		"stripeId":            intent.ID,
		"error":               false,
		"success":             true,
	})
}

// SavePayment persists the order after the client confirmed the Stripe
// intent browser-side.
func (h *OrderHandler) SavePayment(c echo.Context) error {
	userID, err := handlers.UserID(c)
	if err != nil {
		return err
	}

	var req struct {
		ListItems []ordersvc.LineItem `json:"list_items"`
		StripeID  string              `json:"stripeId"`
		AddressID uint                `json:"addressId"`
		Amount    float64             `json:"amount"`
		Status    string              `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return handlers.Fail(c, http.StatusBadRequest, "invalid request body")
	}
	if req.AddressID == 0 || req.StripeID == "" {
		return handlers.Fail(c, http.StatusBadRequest, "provide addressId and stripeId")
	}
	if len(req.ListItems) == 0 {
		return handlers.Fail(c, http.StatusBadRequest, "provide list_items")
	}
	status := req.Status
	if status == "" {
		status = ordersvc.PaymentSucceeded
	}

	if _, err := h.Svc.PlaceOrder(
		c.Request().Context(),
		userID,
		req.ListItems,
		req.StripeID,
		status,
		req.AddressID,
		req.Amount,
		req.Amount,
	); err != nil {
		return failFromError(c, err)
	}

	return handlers.OK(c, http.StatusOK, "payment saved and order placed", nil)
}

func (h *OrderHandler) InitiateRazorpayOrder(c echo.Context) error {
	if _, err := handlers.UserID(c); err != nil {
		return err
	}

	var req struct {
		Amount    float64             `json:"amount"`
		Currency  string              `json:"currency"`
		ListItems []ordersvc.LineItem `json:"list_items"`
		AddressID uint                `json:"addressId"`
	}
	if err := c.Bind(&req); err != nil {
		return handlers.Fail(c, http.StatusBadRequest, "invalid request body")
	}
	if req.Amount <= 0 || req.AddressID == 0 || len(req.ListItems) == 0 {
		return handlers.Fail(c, http.StatusBadRequest, "provide amount, addressId and list_items")
	}
	currency := req.Currency
	if currency == "" {
		currency = "INR"
	}

	receipt := "rcpt-" + uuid.NewString()
	gwOrder, err := h.Razorpay.CreateOrder(
		c.Request().Context(),
		int64(math.Round(req.Amount*100)),
		currency,
		receipt,
	)
	if err != nil {
		c.Logger().Errorf("razorpay error: %v", err)
		return handlers.Fail(c, http.StatusInternalServerError, "failed to initiate payment")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"orderId":  gwOrder.ID,
		"amount":   gwOrder.Amount,
		"currency": gwOrder.Currency,
		"error":    false,
		"success":  true,
	})
}

// VerifyRazorpayPayment recomputes the callback signature; only a matching
// signature creates order rows.
func (h *OrderHandler) VerifyRazorpayPayment(c echo.Context) error {
	userID, err := handlers.UserID(c)
	if err != nil {
		return err
	}

	var req struct {
		RazorpayOrderID   string              `json:"razorpay_order_id"`
		RazorpayPaymentID string              `json:"razorpay_payment_id"`
		RazorpaySignature string              `json:"razorpay_signature"`
		ListItems         []ordersvc.LineItem `json:"list_items"`
		AddressID         uint                `json:"addressId"`
		TotalAmt          float64             `json:"totalAmt"`
	}
	if err := c.Bind(&req); err != nil {
		return handlers.Fail(c, http.StatusBadRequest, "invalid request body")
	}
	if req.RazorpayOrderID == "" || req.RazorpayPaymentID == "" || req.RazorpaySignature == "" {
		return handlers.Fail(c, http.StatusBadRequest, "provide razorpay_order_id, razorpay_payment_id and razorpay_signature")
	}
	if req.AddressID == 0 || len(req.ListItems) == 0 {
		return handlers.Fail(c, http.StatusBadRequest, "provide addressId and list_items")
	}

	if !payment.VerifySignature(req.RazorpayOrderID, req.RazorpayPaymentID, req.RazorpaySignature, h.RazorpaySecret) {
		return handlers.Fail(c, http.StatusBadRequest, "invalid payment signature")
	}

	if _, err := h.Svc.PlaceOrder(
		c.Request().Context(),
		userID,
		req.ListItems,
		req.RazorpayPaymentID,
		ordersvc.PaymentSucceeded,
		req.AddressID,
		req.TotalAmt,
		req.TotalAmt,
	); err != nil {
		return failFromError(c, err)
	}

	return handlers.OK(c, http.StatusOK, "payment verified and order placed", nil)
}

func (h *OrderHandler) ListMyOrders(c echo.Context) error {
	userID, err := handlers.UserID(c)
	if err != nil {
		return err
	}

	orders, err := h.Svc.ListByUser(c.Request().Context(), userID)
	if err != nil {
		return failFromError(c, err)
	}
	return handlers.OK(c, http.StatusOK, "order list", orders)
}

func (h *OrderHandler) ListAllOrders(c echo.Context) error {
	orders, err := h.Svc.ListAll(c.Request().Context())
	if err != nil {
		return failFromError(c, err)
	}
	return handlers.OK(c, http.StatusOK, "order list", orders)
}

func (h *OrderHandler) UpdateDeliveryStatus(c echo.Context) error {
	groupID := c.Param("orderId")
	if groupID == "" {
		return handlers.Fail(c, http.StatusBadRequest, "provide orderId")
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&req); err != nil || req.Status == "" {
		return handlers.Fail(c, http.StatusBadRequest, "provide status")
	}

	if err := h.Svc.UpdateDeliveryStatus(c.Request().Context(), groupID, req.Status); err != nil {
		return failFromError(c, err)
	}
	return handlers.OK(c, http.StatusOK, "delivery status updated", nil)
}
