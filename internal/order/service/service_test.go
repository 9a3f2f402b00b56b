package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ordererrors "github.com/nhupane/gopasal/internal/order/errors"
	"github.com/nhupane/gopasal/internal/order/store"
	"github.com/nhupane/gopasal/internal/payment"
	"github.com/nhupane/gopasal/pkg/messaging"
)

// mockOrderStore is a mock implementation of the OrderStore interface
type mockOrderStore struct {
	orders         []store.Order
	order          *store.Order
	items          []store.OrderItem
	error          error
	cancelOrder    *store.Order
	cancelError    error
	updateOrder    *store.Order
	updateError    error
	paymentOrder   *store.Order
	paymentChanged bool
	paymentError   error
	initiatedRef   string
}

func (m *mockOrderStore) FindByID(_ context.Context, _ uuid.UUID) (*store.Order, []store.OrderItem, error) {
	if m.error != nil {
		return nil, nil, m.error
	}
	return m.order, m.items, nil
}

func (m *mockOrderStore) FindByUserID(_ context.Context, _ store.FindByUserIDParams) ([]store.Order, error) {
	if m.error != nil {
		return nil, m.error
	}
	return m.orders, nil
}

func (m *mockOrderStore) FindAll(_ context.Context, _, _ int32) ([]store.Order, error) {
	if m.error != nil {
		return nil, m.error
	}
	return m.orders, nil
}

func (m *mockOrderStore) CreateOrder(_ context.Context, _ store.CreateOrderParams) (*store.Order, []store.OrderItem, error) {
	if m.error != nil {
		return nil, nil, m.error
	}
	return m.order, m.items, nil
}

func (m *mockOrderStore) CancelOrder(_ context.Context, _ uuid.UUID) (*store.Order, error) {
	if m.cancelError != nil {
		return nil, m.cancelError
	}
	return m.cancelOrder, nil
}

func (m *mockOrderStore) UpdateStatus(_ context.Context, _ uuid.UUID, _ string) (*store.Order, error) {
	if m.updateError != nil {
		return nil, m.updateError
	}
	return m.updateOrder, nil
}

func (m *mockOrderStore) MarkPaymentInitiated(_ context.Context, _ uuid.UUID, ref string) (*store.Order, error) {
	if m.paymentError != nil {
		return nil, m.paymentError
	}
	m.initiatedRef = ref
	return m.paymentOrder, nil
}

func (m *mockOrderStore) MarkPaymentCompleted(_ context.Context, _ uuid.UUID, _ string) (*store.Order, bool, error) {
	if m.paymentError != nil {
		return nil, false, m.paymentError
	}
	return m.paymentOrder, m.paymentChanged, nil
}

func (m *mockOrderStore) MarkPaymentFailed(_ context.Context, _ uuid.UUID, _ string) (*store.Order, error) {
	if m.paymentError != nil {
		return nil, m.paymentError
	}
	return m.paymentOrder, nil
}

// mockProvider is a mock implementation of the payment.Provider interface
type mockProvider struct {
	initiateResult *payment.InitiateResult
	verifyResult   *payment.VerifyResult
	error          error
}

func (m *mockProvider) Initiate(_ context.Context, _ uuid.UUID, _ int64) (*payment.InitiateResult, error) {
	if m.error != nil {
		return nil, m.error
	}
	return m.initiateResult, nil
}

func (m *mockProvider) Verify(_ context.Context, _ string) (*payment.VerifyResult, error) {
	if m.error != nil {
		return nil, m.error
	}
	return m.verifyResult, nil
}

// recordingPublisher collects published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []messaging.Event
}

func (p *recordingPublisher) Publish(_ context.Context, event messaging.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) subjects() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	subjects := make([]string, 0, len(p.events))
	for _, e := range p.events {
		subjects = append(subjects, e.Subject())
	}
	return subjects
}

func Test_OrderService_FindByID(t *testing.T) {
	mockID, _ := uuid.Parse("123e4567-e89b-12d3-a456-426614174000")
	mockUserID, _ := uuid.Parse("123e4567-e89b-12d3-a456-426614174001")
	createdAt := time.Now()

	testCases := []struct {
		name        string
		mockStore   *mockOrderStore
		orderID     uuid.UUID
		userID      uuid.UUID
		expectError error
	}{
		{
			name: "Success - order found",
			mockStore: &mockOrderStore{
				order: &store.Order{ID: mockID, UserID: mockUserID, Status: store.StatusPending, Version: 1, CreatedAt: createdAt},
			},
			orderID: mockID,
			userID:  mockUserID,
		},
		{
			name:        "Error - order not found",
			mockStore:   &mockOrderStore{error: ordererrors.ErrOrderNotFound},
			orderID:     mockID,
			userID:      mockUserID,
			expectError: ordererrors.ErrOrderNotFound,
		},
		{
			name: "Error - access denied",
			mockStore: &mockOrderStore{
				order: &store.Order{ID: mockID, UserID: uuid.New(), Status: store.StatusPending, Version: 1, CreatedAt: createdAt},
			},
			orderID:     mockID,
			userID:      mockUserID,
			expectError: ordererrors.ErrAccessDenied,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			service := NewService(tc.mockStore, &mockProvider{}, &recordingPublisher{})
			// when
			found, err := service.FindByID(context.Background(), tc.userID, tc.orderID)
			// then
			if tc.expectError != nil {
				assert.ErrorIs(t, err, tc.expectError)
				assert.Nil(t, found)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, found)
			assert.Equal(t, mockID, found.ID)
			assert.Equal(t, mockUserID, found.UserID)
			assert.Equal(t, createdAt.Format(time.RFC3339), found.CreatedAt)
		})
	}
}

func Test_OrderService_Create(t *testing.T) {
	mockID, _ := uuid.Parse("123e4567-e89b-12d3-a456-426614174000")
	userID, _ := uuid.Parse("123e4567-e89b-12d3-a456-426614174001")
	productID, _ := uuid.Parse("123e4567-e89b-12d3-a456-426614174002")
	itemID, _ := uuid.Parse("123e4567-e89b-12d3-a456-426614174003")
	createdAt := time.Now()

	testCases := []struct {
		name           string
		mockStore      *mockOrderStore
		order          OrderCreateDto
		expectError    error
		expectSubjects []string
	}{
		{
			name: "Success - order created",
			mockStore: &mockOrderStore{
				order: &store.Order{ID: mockID, UserID: userID, Total: 100, Status: store.StatusPending, Version: 1, CreatedAt: createdAt},
				items: []store.OrderItem{{ID: itemID, OrderID: mockID, ProductID: productID, Quantity: 1, PricePerItem: 100, Price: 100}},
			},
			order:          OrderCreateDto{UserID: userID, ShippingAddress: "Thamel", Phone: "9800000000", PaymentMethod: store.MethodCOD, Items: []OrderItemCreateDto{{ProductID: productID, Quantity: 1}}},
			expectSubjects: []string{messaging.OrdersCreatedSubject},
		},
		{
			name:        "Error - insufficient stock",
			mockStore:   &mockOrderStore{error: ordererrors.ErrInsufficientStock},
			order:       OrderCreateDto{UserID: userID, ShippingAddress: "Thamel", Phone: "9800000000", PaymentMethod: store.MethodCOD, Items: []OrderItemCreateDto{{ProductID: productID, Quantity: 10}}},
			expectError: ordererrors.ErrInsufficientStock,
		},
		{
			name:        "Error - product not found",
			mockStore:   &mockOrderStore{error: ordererrors.ErrProductNotFound},
			order:       OrderCreateDto{UserID: userID, ShippingAddress: "Thamel", Phone: "9800000000", PaymentMethod: store.MethodCOD, Items: []OrderItemCreateDto{{ProductID: productID, Quantity: 1}}},
			expectError: ordererrors.ErrProductNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			publisher := &recordingPublisher{}
			service := NewService(tc.mockStore, &mockProvider{}, publisher)
			// when
			created, err := service.Create(context.Background(), tc.order)
			// then
			if tc.expectError != nil {
				assert.ErrorIs(t, err, tc.expectError)
				assert.Nil(t, created)
				assert.Empty(t, publisher.subjects())
				return
			}
			require.NoError(t, err)
			require.NotNil(t, created)
			assert.Equal(t, mockID, created.ID)
			require.Len(t, created.Items, 1)
			assert.Equal(t, productID, created.Items[0].ProductID)
			assert.Equal(t, tc.expectSubjects, publisher.subjects())
		})
	}
}

func Test_OrderService_Cancel(t *testing.T) {
	mockID, _ := uuid.Parse("123e4567-e89b-12d3-a456-426614174000")
	mockUserID, _ := uuid.Parse("123e4567-e89b-12d3-a456-426614174001")
	createdAt := time.Now()

	testCases := []struct {
		name        string
		mockStore   *mockOrderStore
		userID      uuid.UUID
		expectError error
	}{
		{
			name: "Success - pending order cancelled",
			mockStore: &mockOrderStore{
				order:       &store.Order{ID: mockID, UserID: mockUserID, Status: store.StatusPending, CreatedAt: createdAt},
				cancelOrder: &store.Order{ID: mockID, UserID: mockUserID, Status: store.StatusCancelled, CreatedAt: createdAt},
			},
			userID: mockUserID,
		},
		{
			name: "Error - not owner",
			mockStore: &mockOrderStore{
				order: &store.Order{ID: mockID, UserID: uuid.New(), Status: store.StatusPending, CreatedAt: createdAt},
			},
			userID:      mockUserID,
			expectError: ordererrors.ErrAccessDenied,
		},
		{
			name: "Error - already cancelled",
			mockStore: &mockOrderStore{
				order:       &store.Order{ID: mockID, UserID: mockUserID, Status: store.StatusCancelled, CreatedAt: createdAt},
				cancelError: ordererrors.ErrNotCancellable,
			},
			userID:      mockUserID,
			expectError: ordererrors.ErrNotCancellable,
		},
		{
			name: "Error - already shipped",
			mockStore: &mockOrderStore{
				order:       &store.Order{ID: mockID, UserID: mockUserID, Status: store.StatusProcessing, CreatedAt: createdAt},
				cancelError: ordererrors.ErrNotCancellable,
			},
			userID:      mockUserID,
			expectError: ordererrors.ErrNotCancellable,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			publisher := &recordingPublisher{}
			service := NewService(tc.mockStore, &mockProvider{}, publisher)
			// when
			cancelled, err := service.Cancel(context.Background(), tc.userID, mockID)
			// then
			if tc.expectError != nil {
				assert.ErrorIs(t, err, tc.expectError)
				assert.Nil(t, cancelled)
				assert.Empty(t, publisher.subjects())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, store.StatusCancelled, cancelled.Status)
			assert.Equal(t, []string{messaging.OrdersCancelledSubject}, publisher.subjects())
		})
	}
}

func Test_OrderService_UpdateStatus(t *testing.T) {
	mockID, _ := uuid.Parse("123e4567-e89b-12d3-a456-426614174000")
	createdAt := time.Now()

	testCases := []struct {
		name        string
		mockStore   *mockOrderStore
		status      string
		expected    string
		expectError error
	}{
		{
			name: "Success - pending to processing",
			mockStore: &mockOrderStore{
				updateOrder: &store.Order{ID: mockID, Status: store.StatusProcessing, CreatedAt: createdAt},
			},
			status:   store.StatusProcessing,
			expected: store.StatusProcessing,
		},
		{
			name: "Success - cancellation goes through the restore path",
			mockStore: &mockOrderStore{
				cancelOrder: &store.Order{ID: mockID, Status: store.StatusCancelled, CreatedAt: createdAt},
			},
			status:   store.StatusCancelled,
			expected: store.StatusCancelled,
		},
		{
			name:        "Error - unknown status",
			mockStore:   &mockOrderStore{},
			status:      "shipped",
			expectError: ordererrors.ErrInvalidTransition,
		},
		{
			name: "Error - illegal transition",
			mockStore: &mockOrderStore{
				updateError: ordererrors.ErrInvalidTransition,
			},
			status:      store.StatusDelivered,
			expectError: ordererrors.ErrInvalidTransition,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			service := NewService(tc.mockStore, &mockProvider{}, &recordingPublisher{})
			// when
			updated, err := service.UpdateStatus(context.Background(), mockID, tc.status)
			// then
			if tc.expectError != nil {
				assert.ErrorIs(t, err, tc.expectError)
				assert.Nil(t, updated)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, updated.Status)
		})
	}
}

func Test_OrderService_InitiatePayment(t *testing.T) {
	mockID, _ := uuid.Parse("123e4567-e89b-12d3-a456-426614174000")
	mockUserID, _ := uuid.Parse("123e4567-e89b-12d3-a456-426614174001")
	createdAt := time.Now()

	unpaidOrder := &store.Order{ID: mockID, UserID: mockUserID, Total: 2500, Status: store.StatusPending, PaymentStatus: store.PaymentPending, CreatedAt: createdAt}
	initiatedOrder := &store.Order{ID: mockID, UserID: mockUserID, Total: 2500, Status: store.StatusPending, PaymentStatus: store.PaymentInitiated, PaymentRef: "pidx-1", CreatedAt: createdAt}
	paidOrder := &store.Order{ID: mockID, UserID: mockUserID, Total: 2500, Status: store.StatusProcessing, PaymentStatus: store.PaymentCompleted, PaymentRef: "pidx-1", CreatedAt: createdAt}

	testCases := []struct {
		name        string
		mockStore   *mockOrderStore
		provider    *mockProvider
		userID      uuid.UUID
		expectError error
	}{
		{
			name: "Success - redirect issued and reference stored",
			mockStore: &mockOrderStore{
				order:        unpaidOrder,
				paymentOrder: initiatedOrder,
			},
			provider: &mockProvider{initiateResult: &payment.InitiateResult{Ref: "pidx-1", PaymentURL: "https://pay.example.com/pidx-1"}},
			userID:   mockUserID,
		},
		{
			name: "Success - retry after a failed attempt",
			mockStore: &mockOrderStore{
				order:        &store.Order{ID: mockID, UserID: mockUserID, Total: 2500, Status: store.StatusPending, PaymentStatus: store.PaymentFailed, PaymentRef: "pidx-0", CreatedAt: createdAt},
				paymentOrder: initiatedOrder,
			},
			provider: &mockProvider{initiateResult: &payment.InitiateResult{Ref: "pidx-1", PaymentURL: "https://pay.example.com/pidx-1"}},
			userID:   mockUserID,
		},
		{
			name:        "Error - already paid",
			mockStore:   &mockOrderStore{order: paidOrder},
			provider:    &mockProvider{initiateResult: &payment.InitiateResult{Ref: "pidx-2", PaymentURL: "https://pay.example.com/pidx-2"}},
			userID:      mockUserID,
			expectError: ordererrors.ErrAlreadyPaid,
		},
		{
			name:        "Error - not owner",
			mockStore:   &mockOrderStore{order: unpaidOrder},
			provider:    &mockProvider{initiateResult: &payment.InitiateResult{Ref: "pidx-1", PaymentURL: "https://pay.example.com/pidx-1"}},
			userID:      uuid.New(),
			expectError: ordererrors.ErrAccessDenied,
		},
		{
			name:        "Error - order not found",
			mockStore:   &mockOrderStore{error: ordererrors.ErrOrderNotFound},
			provider:    &mockProvider{},
			userID:      mockUserID,
			expectError: ordererrors.ErrOrderNotFound,
		},
		{
			name:        "Error - provider unavailable",
			mockStore:   &mockOrderStore{order: unpaidOrder},
			provider:    &mockProvider{error: payment.ErrProviderUnavailable},
			userID:      mockUserID,
			expectError: payment.ErrProviderUnavailable,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			service := NewService(tc.mockStore, tc.provider, &recordingPublisher{})
			// when
			result, err := service.InitiatePayment(context.Background(), tc.userID, mockID)
			// then
			if tc.expectError != nil {
				assert.ErrorIs(t, err, tc.expectError)
				assert.Nil(t, result)
				assert.Empty(t, tc.mockStore.initiatedRef)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, result)
			assert.Equal(t, mockID, result.OrderID)
			assert.Equal(t, "pidx-1", result.Ref)
			assert.Equal(t, "https://pay.example.com/pidx-1", result.PaymentURL)
			assert.Equal(t, "pidx-1", tc.mockStore.initiatedRef)
		})
	}
}

func Test_OrderService_ConfirmPayment(t *testing.T) {
	mockID, _ := uuid.Parse("123e4567-e89b-12d3-a456-426614174000")
	mockUserID, _ := uuid.Parse("123e4567-e89b-12d3-a456-426614174001")
	createdAt := time.Now()

	pendingOrder := &store.Order{ID: mockID, UserID: mockUserID, Total: 2500, Status: store.StatusPending, PaymentStatus: store.PaymentInitiated, PaymentRef: "pidx-1", CreatedAt: createdAt}
	unpaidOrder := &store.Order{ID: mockID, UserID: mockUserID, Total: 2500, Status: store.StatusPending, PaymentStatus: store.PaymentPending, CreatedAt: createdAt}
	paidOrder := &store.Order{ID: mockID, UserID: mockUserID, Total: 2500, Status: store.StatusProcessing, PaymentStatus: store.PaymentCompleted, PaymentRef: "pidx-1", CreatedAt: createdAt}
	failedOrder := &store.Order{ID: mockID, UserID: mockUserID, Total: 2500, Status: store.StatusPending, PaymentStatus: store.PaymentFailed, PaymentRef: "pidx-1", CreatedAt: createdAt}

	testCases := []struct {
		name           string
		mockStore      *mockOrderStore
		provider       *mockProvider
		ref            string
		expectStatus   string
		expectError    error
		expectSubjects []string
	}{
		{
			name: "Success - payment completed",
			mockStore: &mockOrderStore{
				order:          pendingOrder,
				paymentOrder:   paidOrder,
				paymentChanged: true,
			},
			provider:       &mockProvider{verifyResult: &payment.VerifyResult{Ref: "pidx-1", State: payment.StateCompleted, Amount: 2500}},
			ref:            "pidx-1",
			expectStatus:   store.PaymentCompleted,
			expectSubjects: []string{messaging.PaymentsCompletedSubject},
		},
		{
			name: "Success - repeated confirmation is a no-op",
			mockStore: &mockOrderStore{
				order:          paidOrder,
				paymentOrder:   paidOrder,
				paymentChanged: false,
			},
			provider:       &mockProvider{verifyResult: &payment.VerifyResult{Ref: "pidx-1", State: payment.StateCompleted, Amount: 2500}},
			ref:            "pidx-1",
			expectStatus:   store.PaymentCompleted,
			expectSubjects: nil,
		},
		{
			name: "Success - failed verification is recorded",
			mockStore: &mockOrderStore{
				order:        pendingOrder,
				paymentOrder: failedOrder,
			},
			provider:       &mockProvider{verifyResult: &payment.VerifyResult{Ref: "pidx-1", State: payment.StateFailed}},
			ref:            "pidx-1",
			expectStatus:   store.PaymentFailed,
			expectSubjects: nil,
		},
		{
			name: "Error - reference issued for another order",
			mockStore: &mockOrderStore{
				order: pendingOrder,
			},
			provider:    &mockProvider{verifyResult: &payment.VerifyResult{Ref: "pidx-other", State: payment.StateCompleted, Amount: 5}},
			ref:         "pidx-other",
			expectError: ordererrors.ErrPaymentRefMismatch,
		},
		{
			name: "Error - confirmation before initiation",
			mockStore: &mockOrderStore{
				order: unpaidOrder,
			},
			provider:    &mockProvider{verifyResult: &payment.VerifyResult{Ref: "pidx-1", State: payment.StateCompleted, Amount: 2500}},
			ref:         "pidx-1",
			expectError: ordererrors.ErrPaymentRefMismatch,
		},
		{
			name: "Error - verified amount differs from the order total",
			mockStore: &mockOrderStore{
				order: pendingOrder,
			},
			provider:    &mockProvider{verifyResult: &payment.VerifyResult{Ref: "pidx-1", State: payment.StateCompleted, Amount: 100}},
			ref:         "pidx-1",
			expectError: ordererrors.ErrPaymentAmountMismatch,
		},
		{
			name:        "Error - provider unavailable",
			mockStore:   &mockOrderStore{order: pendingOrder},
			provider:    &mockProvider{error: payment.ErrProviderUnavailable},
			ref:         "pidx-1",
			expectError: payment.ErrProviderUnavailable,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			publisher := &recordingPublisher{}
			service := NewService(tc.mockStore, tc.provider, publisher)
			// when
			confirmed, err := service.ConfirmPayment(context.Background(), mockUserID, mockID, tc.ref)
			// then
			if tc.expectError != nil {
				assert.ErrorIs(t, err, tc.expectError)
				assert.Nil(t, confirmed)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expectStatus, confirmed.PaymentStatus)
			if tc.expectSubjects == nil {
				assert.Empty(t, publisher.subjects())
			} else {
				assert.Equal(t, tc.expectSubjects, publisher.subjects())
			}
		})
	}
}

// Two buyers race for the last unit: exactly one order must be created and
// the loser must see the stock error. Uses the in-memory store so the whole
// check-then-decrement path runs under real goroutine interleaving.
func Test_OrderService_Create_LastUnitRace(t *testing.T) {
	productID := uuid.New()
	memStore := store.NewInMemoryStore()
	memStore.SeedProduct(productID, "Singing bowl", 2500, 1)

	service := NewService(memStore, &mockProvider{}, &recordingPublisher{})

	const buyers = 2
	var wg sync.WaitGroup
	results := make([]error, buyers)

	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := service.Create(context.Background(), OrderCreateDto{
				UserID:          uuid.New(),
				ShippingAddress: "Patan",
				Phone:           "9800000000",
				PaymentMethod:   store.MethodCOD,
				Items:           []OrderItemCreateDto{{ProductID: productID, Quantity: 1}},
			})
			results[i] = err
		}(i)
	}
	wg.Wait()

	succeeded, conflicted := 0, 0
	for _, err := range results {
		switch {
		case err == nil:
			succeeded++
		default:
			assert.ErrorIs(t, err, ordererrors.ErrInsufficientStock)
			conflicted++
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, conflicted)
	assert.Equal(t, int32(0), memStore.ProductStock(productID))
}

// Cancelling restores stock, so a follow-up order for the same quantity
// must succeed; a second cancellation must be rejected.
func Test_OrderService_CancelRestoresStock(t *testing.T) {
	productID := uuid.New()
	userID := uuid.New()
	memStore := store.NewInMemoryStore()
	memStore.SeedProduct(productID, "Thangka", 8000, 2)

	service := NewService(memStore, &mockProvider{}, &recordingPublisher{})

	created, err := service.Create(context.Background(), OrderCreateDto{
		UserID:          userID,
		ShippingAddress: "Boudha",
		Phone:           "9800000000",
		PaymentMethod:   store.MethodCOD,
		Items:           []OrderItemCreateDto{{ProductID: productID, Quantity: 2}},
	})
	require.NoError(t, err)
	require.Equal(t, int32(0), memStore.ProductStock(productID))

	cancelled, err := service.Cancel(context.Background(), userID, created.ID)
	require.NoError(t, err)
	assert.Equal(t, store.StatusCancelled, cancelled.Status)
	assert.Equal(t, int32(2), memStore.ProductStock(productID))

	_, err = service.Cancel(context.Background(), userID, created.ID)
	assert.ErrorIs(t, err, ordererrors.ErrNotCancellable)
}

// A buyer holding a Completed transaction reference from a cheap order must
// not be able to settle an expensive order with it: confirmation only
// accepts the reference issued for that order at initiation, and the
// rejected order keeps its unpaid state.
func Test_OrderService_ConfirmPayment_ForeignRefCannotSettleOrder(t *testing.T) {
	productID := uuid.New()
	userID := uuid.New()
	memStore := store.NewInMemoryStore()
	memStore.SeedProduct(productID, "Pashmina shawl", 99999, 1)

	provider := &mockProvider{
		initiateResult: &payment.InitiateResult{Ref: "pidx-mine", PaymentURL: "https://pay.example.com/pidx-mine"},
		verifyResult:   &payment.VerifyResult{Ref: "pidx-other", State: payment.StateCompleted, Amount: 5},
	}
	service := NewService(memStore, provider, &recordingPublisher{})

	created, err := service.Create(context.Background(), OrderCreateDto{
		UserID:          userID,
		ShippingAddress: "Lazimpat",
		Phone:           "9800000000",
		PaymentMethod:   store.MethodOnline,
		Items:           []OrderItemCreateDto{{ProductID: productID, Quantity: 1}},
	})
	require.NoError(t, err)

	initiation, err := service.InitiatePayment(context.Background(), userID, created.ID)
	require.NoError(t, err)
	require.Equal(t, "pidx-mine", initiation.Ref)

	// The provider would vouch for pidx-other (Completed, 5 units), but it
	// was never issued for this order.
	_, err = service.ConfirmPayment(context.Background(), userID, created.ID, "pidx-other")
	assert.ErrorIs(t, err, ordererrors.ErrPaymentRefMismatch)

	after, err := service.FindByID(context.Background(), userID, created.ID)
	require.NoError(t, err)
	assert.Equal(t, store.PaymentInitiated, after.PaymentStatus)
	assert.NotEqual(t, store.StatusProcessing, after.Status)
}
