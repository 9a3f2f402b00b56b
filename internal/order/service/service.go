// Package service provides the implementation of order-related business logic.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	ordererrors "github.com/nhupane/gopasal/internal/order/errors"
	"github.com/nhupane/gopasal/internal/order/store"
	"github.com/nhupane/gopasal/internal/payment"
	"github.com/nhupane/gopasal/pkg/messaging"
	"github.com/nhupane/gopasal/pkg/messaging/events"
)

// OrderService defines the methods for managing orders and their payment
// lifecycle. It abstracts the underlying business logic and data access.
type OrderService interface {
	// FindByID retrieves a single order by its unique identifier.
	// Returns ErrOrderNotFound if no order exists, ErrAccessDenied if the
	// caller does not own it.
	FindByID(ctx context.Context, userID uuid.UUID, id uuid.UUID) (*OrderDto, error)

	// FindByUserID returns a page of the caller's orders, newest first.
	FindByUserID(ctx context.Context, userID uuid.UUID, offset, limit int32) ([]OrderDto, error)

	// FindAll returns a page of all orders. Admin use.
	FindAll(ctx context.Context, offset, limit int32) ([]OrderDto, error)

	// Create places a new order. Stock for every line item is decremented
	// atomically with the order insert; any unsatisfiable item fails the
	// whole operation with no stock mutated.
	Create(ctx context.Context, order OrderCreateDto) (*OrderDto, error)

	// Cancel cancels a pending order owned by userID and restores its stock.
	Cancel(ctx context.Context, userID uuid.UUID, id uuid.UUID) (*OrderDto, error)

	// UpdateStatus moves an order along the legal status graph. Admin use.
	// A move to cancelled restores stock like a user cancellation.
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*OrderDto, error)

	// InitiatePayment asks the payment provider for a redirect URL for an
	// unpaid order owned by userID.
	InitiatePayment(ctx context.Context, userID uuid.UUID, id uuid.UUID) (*PaymentInitiationDto, error)

	// ConfirmPayment verifies a provider reference and applies the result:
	// completed payments move the order to processing, failures are
	// recorded. The reference must be the one issued for this order at
	// initiation and the verified amount must equal the order total;
	// anything else is rejected without touching the order.
	// Re-confirming a completed payment is a no-op.
	ConfirmPayment(ctx context.Context, userID uuid.UUID, id uuid.UUID, ref string) (*OrderDto, error)
}

// Service implements OrderService and provides methods to manage orders.
type Service struct {
	orderStore       store.OrderStore
	provider         payment.Provider
	publisher        messaging.Publisher
	ordersCreated    metric.Int64Counter
	ordersCancelled  metric.Int64Counter
	paymentsApplied  metric.Int64Counter
}

// NewService creates a new instance of OrderService with the provided collaborators.
func NewService(orderStore store.OrderStore, provider payment.Provider, publisher messaging.Publisher) *Service {
	meter := otel.Meter("order-service")
	ordersCreated, err := meter.Int64Counter("orders_created", metric.WithDescription("Total number of created orders"))
	if err != nil {
		panic(fmt.Sprintf("failed to create orders_created counter: %v", err))
	}
	ordersCancelled, err := meter.Int64Counter("orders_cancelled", metric.WithDescription("Total number of cancelled orders"))
	if err != nil {
		panic(fmt.Sprintf("failed to create orders_cancelled counter: %v", err))
	}
	paymentsApplied, err := meter.Int64Counter("payments_completed", metric.WithDescription("Total number of completed payments"))
	if err != nil {
		panic(fmt.Sprintf("failed to create payments_completed counter: %v", err))
	}
	return &Service{
		orderStore:      orderStore,
		provider:        provider,
		publisher:       publisher,
		ordersCreated:   ordersCreated,
		ordersCancelled: ordersCancelled,
		paymentsApplied: paymentsApplied,
	}
}

// OrderDto represents the data transfer object for an order.
type OrderDto struct {
	ID              uuid.UUID      `json:"id"`
	UserID          uuid.UUID      `json:"user_id"`
	Total           int64          `json:"total"`
	ShippingAddress string         `json:"shipping_address"`
	Phone           string         `json:"phone"`
	City            string         `json:"city"`
	Status          string         `json:"status"`
	PaymentMethod   string         `json:"payment_method"`
	PaymentStatus   string         `json:"payment_status"`
	PaymentRef      string         `json:"payment_ref,omitempty"`
	Version         int32          `json:"version"`
	CreatedAt       string         `json:"created_at"`
	Items           []OrderItemDto `json:"items,omitempty"`
}

type OrderItemDto struct {
	ID           uuid.UUID `json:"id"`
	OrderID      uuid.UUID `json:"order_id"`
	ProductID    uuid.UUID `json:"product_id"`
	Quantity     int32     `json:"quantity"`
	PricePerItem int64     `json:"price_per_item"`
	Price        int64     `json:"price"`
	Reviewed     bool      `json:"reviewed"`
}

// OrderCreateDto represents the data transfer object for creating a new order.
// Unit prices are resolved from the catalog server-side and are not accepted
// from the client.
type OrderCreateDto struct {
	UserID          uuid.UUID            `json:"user_id"`
	ShippingAddress string               `json:"shipping_address" validate:"required"`
	Phone           string               `json:"phone"            validate:"required"`
	City            string               `json:"city"`
	PaymentMethod   string               `json:"payment_method"   validate:"required,oneof=cod online"`
	Items           []OrderItemCreateDto `json:"items"            validate:"required,gt=0,dive"`
}

// OrderItemCreateDto represents the data transfer object for creating a new order item.
type OrderItemCreateDto struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int32     `json:"quantity"   validate:"required,min=1"`
}

// OrderStatusUpdateDto carries an admin status change.
type OrderStatusUpdateDto struct {
	Status string `json:"status" validate:"required,oneof=pending processing delivered cancelled"`
}

// PaymentInitiationDto is the answer to an initiate-payment request.
type PaymentInitiationDto struct {
	OrderID    uuid.UUID `json:"order_id"`
	PaymentURL string    `json:"payment_url"`
	Ref        string    `json:"ref"`
}

// PaymentConfirmDto carries a payment confirmation callback.
type PaymentConfirmDto struct {
	Ref string `json:"ref" validate:"required"`
}

// FindByID retrieves an order by its ID and returns it as an OrderDto.
func (s *Service) FindByID(ctx context.Context, userID uuid.UUID, id uuid.UUID) (*OrderDto, error) {
	order, items, err := s.orderStore.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, ordererrors.ErrAccessDenied
	}
	return toDto(order, items), nil
}

// FindByUserID retrieves a page of the user's orders as OrderDtos.
func (s *Service) FindByUserID(ctx context.Context, userID uuid.UUID, offset, limit int32) ([]OrderDto, error) {
	orders, err := s.orderStore.FindByUserID(ctx, store.FindByUserIDParams{UserID: userID, Offset: offset, Limit: limit})
	if err != nil {
		return nil, err
	}
	return toDtos(orders), nil
}

// FindAll retrieves a page of all orders as OrderDtos.
func (s *Service) FindAll(ctx context.Context, offset, limit int32) ([]OrderDto, error) {
	orders, err := s.orderStore.FindAll(ctx, offset, limit)
	if err != nil {
		return nil, err
	}
	return toDtos(orders), nil
}

// Create places a new order and returns it as an OrderDto.
func (s *Service) Create(ctx context.Context, order OrderCreateDto) (*OrderDto, error) {
	items := make([]store.CreateOrderItemParams, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, store.CreateOrderItemParams{ProductID: item.ProductID, Quantity: item.Quantity})
	}

	created, createdItems, err := s.orderStore.CreateOrder(ctx, store.CreateOrderParams{
		UserID:          order.UserID,
		ShippingAddress: order.ShippingAddress,
		Phone:           order.Phone,
		City:            order.City,
		PaymentMethod:   order.PaymentMethod,
		Items:           items,
	})
	if err != nil {
		return nil, err
	}

	event := events.OrderCreatedEvent{
		OrderID:   created.ID,
		UserID:    created.UserID,
		Total:     created.Total,
		CreatedAt: created.CreatedAt,
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		slog.ErrorContext(ctx, "Failed to publish OrderCreatedEvent", "error", err)
	}
	s.ordersCreated.Add(ctx, 1)

	return toDto(created, createdItems), nil
}

// Cancel cancels a pending order owned by userID.
func (s *Service) Cancel(ctx context.Context, userID uuid.UUID, id uuid.UUID) (*OrderDto, error) {
	order, _, err := s.orderStore.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, ordererrors.ErrAccessDenied
	}

	cancelled, err := s.orderStore.CancelOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	event := events.OrderCancelledEvent{
		OrderID:     cancelled.ID,
		UserID:      cancelled.UserID,
		CancelledAt: time.Now(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		slog.ErrorContext(ctx, "Failed to publish OrderCancelledEvent", "error", err)
	}
	s.ordersCancelled.Add(ctx, 1)

	return toDto(cancelled, nil), nil
}

// UpdateStatus moves an order along the legal status graph. A move to
// cancelled goes through the cancellation path so stock is restored.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*OrderDto, error) {
	if !store.ValidStatus(status) {
		return nil, fmt.Errorf("%w: unknown status %q", ordererrors.ErrInvalidTransition, status)
	}

	if status == store.StatusCancelled {
		cancelled, err := s.orderStore.CancelOrder(ctx, id)
		if err != nil {
			return nil, err
		}
		s.ordersCancelled.Add(ctx, 1)
		return toDto(cancelled, nil), nil
	}

	updated, err := s.orderStore.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}
	return toDto(updated, nil), nil
}

// InitiatePayment asks the provider for a redirect URL and records the
// transaction reference on the order.
func (s *Service) InitiatePayment(ctx context.Context, userID uuid.UUID, id uuid.UUID) (*PaymentInitiationDto, error) {
	order, _, err := s.orderStore.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, ordererrors.ErrAccessDenied
	}
	if order.PaymentStatus == store.PaymentCompleted {
		return nil, ordererrors.ErrAlreadyPaid
	}

	result, err := s.provider.Initiate(ctx, order.ID, order.Total)
	if err != nil {
		return nil, fmt.Errorf("failed to initiate payment for order %s: %w", order.ID, err)
	}

	if _, err := s.orderStore.MarkPaymentInitiated(ctx, order.ID, result.Ref); err != nil {
		return nil, err
	}

	return &PaymentInitiationDto{OrderID: order.ID, PaymentURL: result.PaymentURL, Ref: result.Ref}, nil
}

// ConfirmPayment verifies the reference with the provider and applies the
// outcome. Confirming an already-completed payment changes nothing.
func (s *Service) ConfirmPayment(ctx context.Context, userID uuid.UUID, id uuid.UUID, ref string) (*OrderDto, error) {
	order, _, err := s.orderStore.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, ordererrors.ErrAccessDenied
	}

	// The reference is only meaningful for the order it was issued for.
	// A Completed transaction belonging to some other order must not be
	// able to settle this one.
	if order.PaymentRef == "" || ref != order.PaymentRef {
		return nil, ordererrors.ErrPaymentRefMismatch
	}

	result, err := s.provider.Verify(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("failed to verify payment for order %s: %w", order.ID, err)
	}

	if result.Succeeded() && result.Amount != order.Total {
		return nil, ordererrors.ErrPaymentAmountMismatch
	}

	if !result.Succeeded() {
		failed, err := s.orderStore.MarkPaymentFailed(ctx, order.ID, ref)
		if err != nil {
			return nil, err
		}
		return toDto(failed, nil), nil
	}

	completed, changed, err := s.orderStore.MarkPaymentCompleted(ctx, order.ID, ref)
	if err != nil {
		return nil, err
	}
	if changed {
		event := events.PaymentCompletedEvent{
			OrderID:    completed.ID,
			UserID:     completed.UserID,
			Total:      completed.Total,
			PaymentRef: ref,
			PaidAt:     time.Now(),
		}
		if err := s.publisher.Publish(ctx, event); err != nil {
			slog.ErrorContext(ctx, "Failed to publish PaymentCompletedEvent", "error", err)
		}
		s.paymentsApplied.Add(ctx, 1)
	}

	return toDto(completed, nil), nil
}

// toDto converts a store.Order to an OrderDto.
func toDto(order *store.Order, items []store.OrderItem) *OrderDto {
	if order == nil {
		return nil
	}

	var itemsDto []OrderItemDto
	if items != nil {
		itemsDto = make([]OrderItemDto, 0, len(items))
		for _, item := range items {
			itemsDto = append(itemsDto, OrderItemDto{
				ID:           item.ID,
				OrderID:      item.OrderID,
				ProductID:    item.ProductID,
				Quantity:     item.Quantity,
				PricePerItem: item.PricePerItem,
				Price:        item.Price,
				Reviewed:     item.Reviewed,
			})
		}
	}

	return &OrderDto{
		ID:              order.ID,
		UserID:          order.UserID,
		Total:           order.Total,
		ShippingAddress: order.ShippingAddress,
		Phone:           order.Phone,
		City:            order.City,
		Status:          order.Status,
		PaymentMethod:   order.PaymentMethod,
		PaymentStatus:   order.PaymentStatus,
		PaymentRef:      order.PaymentRef,
		Version:         order.Version,
		CreatedAt:       order.CreatedAt.Format(time.RFC3339),
		Items:           itemsDto,
	}
}

func toDtos(orders []store.Order) []OrderDto {
	dtos := make([]OrderDto, 0, len(orders))
	for i := range orders {
		dtos = append(dtos, *toDto(&orders[i], nil))
	}
	return dtos
}
