package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	ordererrors "github.com/nhupane/gopasal/internal/order/errors"
)

// inMemory implements OrderStore over plain maps. The single mutex gives
// the check-then-decrement sequence the same all-or-nothing behaviour the
// SQL transaction provides, which is what the service tests rely on.
type inMemory struct {
	mu       sync.Mutex
	products map[uuid.UUID]*memProduct
	orders   map[uuid.UUID]*Order
	items    map[uuid.UUID][]OrderItem
}

type memProduct struct {
	name  string
	price int64
	stock int32
}

// NewInMemoryStore creates a new in-memory OrderStore.
func NewInMemoryStore() *PopulatedInMemoryStore {
	return &PopulatedInMemoryStore{
		inMemory: inMemory{
			products: make(map[uuid.UUID]*memProduct),
			orders:   make(map[uuid.UUID]*Order),
			items:    make(map[uuid.UUID][]OrderItem),
		},
	}
}

// PopulatedInMemoryStore is an in-memory OrderStore that can be seeded
// with products.
type PopulatedInMemoryStore struct {
	inMemory
}

// SeedProduct registers a product with the given stock.
func (s *PopulatedInMemoryStore) SeedProduct(id uuid.UUID, name string, price int64, stock int32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[id] = &memProduct{name: name, price: price, stock: stock}
}

// ProductStock returns the current stock of a seeded product.
func (s *PopulatedInMemoryStore) ProductStock(id uuid.UUID) int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.products[id]; ok {
		return p.stock
	}
	return 0
}

func (s *inMemory) FindByID(_ context.Context, id uuid.UUID) (*Order, []OrderItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[id]
	if !ok {
		return nil, nil, ordererrors.ErrOrderNotFound
	}
	o := *order
	items := append([]OrderItem(nil), s.items[id]...)
	return &o, items, nil
}

func (s *inMemory) FindByUserID(_ context.Context, params FindByUserIDParams) ([]Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var list []Order
	for _, o := range s.orders {
		if o.UserID == params.UserID {
			list = append(list, *o)
		}
	}
	return list, nil
}

func (s *inMemory) FindAll(_ context.Context, _, _ int32) ([]Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := make([]Order, 0, len(s.orders))
	for _, o := range s.orders {
		list = append(list, *o)
	}
	return list, nil
}

func (s *inMemory) CreateOrder(_ context.Context, params CreateOrderParams) (*Order, []OrderItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// First pass: every item must be satisfiable before anything mutates.
	for _, item := range params.Items {
		product, ok := s.products[item.ProductID]
		if !ok {
			return nil, nil, fmt.Errorf("product %s: %w", item.ProductID, ordererrors.ErrProductNotFound)
		}
		if product.stock < item.Quantity {
			return nil, nil, fmt.Errorf("%w for %s. Available: %d, Requested: %d",
				ordererrors.ErrInsufficientStock, product.name, product.stock, item.Quantity)
		}
	}

	now := time.Now()
	paymentStatus := PaymentPending
	if params.PaymentMethod == MethodOnline {
		paymentStatus = PaymentInitiated
	}
	order := &Order{
		ID:              uuid.New(),
		UserID:          params.UserID,
		ShippingAddress: params.ShippingAddress,
		Phone:           params.Phone,
		City:            params.City,
		Status:          StatusPending,
		PaymentMethod:   params.PaymentMethod,
		PaymentStatus:   paymentStatus,
		Version:         1,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	var items []OrderItem
	for _, item := range params.Items {
		product := s.products[item.ProductID]
		product.stock -= item.Quantity
		price := product.price * int64(item.Quantity)
		order.Total += price
		items = append(items, OrderItem{
			ID:           uuid.New(),
			OrderID:      order.ID,
			ProductID:    item.ProductID,
			Quantity:     item.Quantity,
			PricePerItem: product.price,
			Price:        price,
			CreatedAt:    now,
		})
	}

	s.orders[order.ID] = order
	s.items[order.ID] = items
	o := *order
	return &o, append([]OrderItem(nil), items...), nil
}

func (s *inMemory) CancelOrder(_ context.Context, id uuid.UUID) (*Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[id]
	if !ok {
		return nil, ordererrors.ErrOrderNotFound
	}
	if order.Status != StatusPending {
		return nil, ordererrors.ErrNotCancellable
	}

	for _, item := range s.items[id] {
		if product, ok := s.products[item.ProductID]; ok {
			product.stock += item.Quantity
		}
	}
	order.Status = StatusCancelled
	order.Version++
	order.UpdatedAt = time.Now()
	o := *order
	return &o, nil
}

func (s *inMemory) UpdateStatus(_ context.Context, id uuid.UUID, status string) (*Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[id]
	if !ok {
		return nil, ordererrors.ErrOrderNotFound
	}
	if order.Status != status {
		if !CanTransition(order.Status, status) {
			return nil, fmt.Errorf("%w: %s -> %s", ordererrors.ErrInvalidTransition, order.Status, status)
		}
		order.Status = status
		order.Version++
		order.UpdatedAt = time.Now()
	}
	o := *order
	return &o, nil
}

func (s *inMemory) MarkPaymentInitiated(_ context.Context, id uuid.UUID, ref string) (*Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[id]
	if !ok {
		return nil, ordererrors.ErrOrderNotFound
	}
	if order.PaymentStatus == PaymentCompleted {
		return nil, ordererrors.ErrAlreadyPaid
	}
	order.PaymentStatus = PaymentInitiated
	order.PaymentMethod = MethodOnline
	order.PaymentRef = ref
	order.Version++
	o := *order
	return &o, nil
}

func (s *inMemory) MarkPaymentCompleted(_ context.Context, id uuid.UUID, ref string) (*Order, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[id]
	if !ok {
		return nil, false, ordererrors.ErrOrderNotFound
	}
	if order.PaymentStatus == PaymentCompleted {
		o := *order
		return &o, false, nil
	}
	order.PaymentStatus = PaymentCompleted
	order.PaymentRef = ref
	if order.Status == StatusPending {
		order.Status = StatusProcessing
	}
	order.Version++
	o := *order
	return &o, true, nil
}

func (s *inMemory) MarkPaymentFailed(_ context.Context, id uuid.UUID, ref string) (*Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[id]
	if !ok {
		return nil, ordererrors.ErrOrderNotFound
	}
	if order.PaymentStatus == PaymentCompleted {
		o := *order
		return &o, nil
	}
	order.PaymentStatus = PaymentFailed
	order.PaymentRef = ref
	order.Version++
	o := *order
	return &o, nil
}

var _ OrderStore = (*PopulatedInMemoryStore)(nil)
