package store

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	ordererrors "github.com/nhupane/gopasal/internal/order/errors"
)

const skipIntegrationTests = "GOPASAL_SKIP_INTEGRATION_TESTS"

// OrderStoreSuite is a test suite for the OrderStore implementation.
type OrderStoreSuite struct {
	suite.Suite
	pgContainer *postgres.PostgresContainer
	dbPool      *pgxpool.Pool
	store       OrderStore
	logger      *slog.Logger
	ctx         context.Context
}

// SetupSuite starts a PostgreSQL container and applies the migrations.
func (s *OrderStoreSuite) SetupSuite() {
	s.ctx = context.Background()
	var err error
	s.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))

	dbName := "gopasal_db"
	dbUser := "user"
	dbPassword := "password"

	s.pgContainer, err = postgres.Run(s.ctx,
		"postgres:17.5-alpine",
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPassword),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Minute),
		),
		testcontainers.WithWaitStrategy(
			wait.ForListeningPort("5432/tcp"),
		),
	)
	require.NoError(s.T(), err, "Failed to run PostgreSQL container")

	connStr, err := s.pgContainer.ConnectionString(s.ctx, "sslmode=disable")
	require.NoError(s.T(), err, "Failed to get connection string from container")

	s.dbPool, err = pgxpool.New(s.ctx, connStr)
	require.NoError(s.T(), err, "Failed to create pgxpool")

	for i := range 10 {
		s.logger.Info("Pinging PostgreSQL database", "attempt", i+1)
		err = s.dbPool.Ping(s.ctx)
		if err == nil {
			break
		}
		time.Sleep(time.Second * 2)
	}
	require.NoError(s.T(), err, "Failed to connect to PostgreSQL after retries")

	wd, _ := os.Getwd()
	migrationsPath := filepath.Join(wd, "../../../db/migrations")
	sourceURL := "file://" + migrationsPath
	m, err := migrate.New(sourceURL, connStr)
	require.NoError(s.T(), err, "Failed to create migrate instance")
	err = m.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		_, _ = m.Close()
		require.NoError(s.T(), err, "Failed to apply migrations")
	}
	s.logger.Info("Migrations applied")

	s.store = NewPgStore(s.dbPool)
}

// TearDownSuite cleans up resources after all tests in the suite have run.
func (s *OrderStoreSuite) TearDownSuite() {
	if s.dbPool != nil {
		s.dbPool.Close()
	}
	if s.pgContainer != nil {
		if err := s.pgContainer.Terminate(s.ctx); err != nil {
			s.logger.Warn("failed to terminate PostgreSQL container", "error", err)
		}
	}
}

// SetupTest wipes the mutable tables before each test.
func (s *OrderStoreSuite) SetupTest() {
	_, err := s.dbPool.Exec(s.ctx, "TRUNCATE TABLE order_items, orders, products, users RESTART IDENTITY CASCADE")
	require.NoError(s.T(), err, "Failed to truncate tables")
}

// TestOrderStoreIntegration runs the OrderStore integration tests.
func TestOrderStoreIntegration(t *testing.T) {
	if os.Getenv(skipIntegrationTests) == "1" {
		t.Skip("Skipping integration tests based on " + skipIntegrationTests + " env var")
	}
	suite.Run(t, new(OrderStoreSuite))
}

// seedUser inserts a customer row and returns its ID.
func (s *OrderStoreSuite) seedUser() uuid.UUID {
	s.T().Helper()
	var id uuid.UUID
	err := s.dbPool.QueryRow(s.ctx, `
		INSERT INTO users (username, email, password_hash)
		VALUES ('buyer', 'buyer-' || gen_random_uuid() || '@example.com', 'x')
		RETURNING id`).Scan(&id)
	require.NoError(s.T(), err, "Failed to seed user")
	return id
}

// seedProduct inserts a product with the given stock and returns its ID.
func (s *OrderStoreSuite) seedProduct(name string, price int64, stock int32) uuid.UUID {
	s.T().Helper()
	var id uuid.UUID
	err := s.dbPool.QueryRow(s.ctx, `
		INSERT INTO products (name, price, stock_quantity)
		VALUES ($1, $2, $3)
		RETURNING id`, name, price, stock).Scan(&id)
	require.NoError(s.T(), err, "Failed to seed product")
	return id
}

func (s *OrderStoreSuite) productStock(id uuid.UUID) int32 {
	s.T().Helper()
	var stock int32
	err := s.dbPool.QueryRow(s.ctx, `SELECT stock_quantity FROM products WHERE id = $1`, id).Scan(&stock)
	require.NoError(s.T(), err, "Failed to read product stock")
	return stock
}

func (s *OrderStoreSuite) TestCreateOrder() {
	s.SetupTest()
	// given
	userID := s.seedUser()
	productID := s.seedProduct("Khukuri", 1500, 5)

	// when
	order, items, err := s.store.CreateOrder(s.ctx, CreateOrderParams{
		UserID:          userID,
		ShippingAddress: "Thamel",
		Phone:           "9800000000",
		City:            "Kathmandu",
		PaymentMethod:   MethodCOD,
		Items:           []CreateOrderItemParams{{ProductID: productID, Quantity: 2}},
	})

	// then
	require.NoError(s.T(), err, "CreateOrder should not return an error")
	require.Equal(s.T(), StatusPending, order.Status)
	require.Equal(s.T(), PaymentPending, order.PaymentStatus)
	require.Equal(s.T(), int64(3000), order.Total, "Total should be price * quantity")
	require.Len(s.T(), items, 1)
	require.Equal(s.T(), int64(1500), items[0].PricePerItem, "Unit price must come from the catalog")
	require.Equal(s.T(), int32(3), s.productStock(productID), "Stock should be decremented")
}

func (s *OrderStoreSuite) TestCreateOrder_OnlinePaymentStartsInitiated() {
	s.SetupTest()
	// given
	userID := s.seedUser()
	productID := s.seedProduct("Khukuri", 1500, 5)

	// when
	order, _, err := s.store.CreateOrder(s.ctx, CreateOrderParams{
		UserID:          userID,
		ShippingAddress: "Thamel",
		Phone:           "9800000000",
		PaymentMethod:   MethodOnline,
		Items:           []CreateOrderItemParams{{ProductID: productID, Quantity: 1}},
	})

	// then
	require.NoError(s.T(), err)
	require.Equal(s.T(), PaymentInitiated, order.PaymentStatus)
}

func (s *OrderStoreSuite) TestCreateOrder_InsufficientStock() {
	s.SetupTest()
	// given
	userID := s.seedUser()
	cheapID := s.seedProduct("Prayer flags", 200, 10)
	scarceID := s.seedProduct("Singing bowl", 2500, 1)

	// when: second item cannot be satisfied
	_, _, err := s.store.CreateOrder(s.ctx, CreateOrderParams{
		UserID:          userID,
		ShippingAddress: "Thamel",
		Phone:           "9800000000",
		PaymentMethod:   MethodCOD,
		Items: []CreateOrderItemParams{
			{ProductID: cheapID, Quantity: 2},
			{ProductID: scarceID, Quantity: 3},
		},
	})

	// then: nothing is decremented
	require.ErrorIs(s.T(), err, ordererrors.ErrInsufficientStock)
	require.ErrorContains(s.T(), err, "Singing bowl")
	require.Equal(s.T(), int32(10), s.productStock(cheapID), "First item's stock must be rolled back")
	require.Equal(s.T(), int32(1), s.productStock(scarceID))
}

func (s *OrderStoreSuite) TestCreateOrder_UnknownProduct() {
	s.SetupTest()
	// given
	userID := s.seedUser()

	// when
	_, _, err := s.store.CreateOrder(s.ctx, CreateOrderParams{
		UserID:          userID,
		ShippingAddress: "Thamel",
		Phone:           "9800000000",
		PaymentMethod:   MethodCOD,
		Items:           []CreateOrderItemParams{{ProductID: uuid.New(), Quantity: 1}},
	})

	// then
	require.ErrorIs(s.T(), err, ordererrors.ErrProductNotFound)
}

// Two transactions race for the last unit. The conditional decrement must let
// exactly one through.
func (s *OrderStoreSuite) TestCreateOrder_ConcurrentLastUnit() {
	s.SetupTest()
	// given
	userA := s.seedUser()
	userB := s.seedUser()
	productID := s.seedProduct("Thangka", 8000, 1)

	// when
	var wg sync.WaitGroup
	results := make([]error, 2)
	for i, userID := range []uuid.UUID{userA, userB} {
		wg.Add(1)
		go func(i int, userID uuid.UUID) {
			defer wg.Done()
			_, _, err := s.store.CreateOrder(s.ctx, CreateOrderParams{
				UserID:          userID,
				ShippingAddress: "Patan",
				Phone:           "9800000000",
				PaymentMethod:   MethodCOD,
				Items:           []CreateOrderItemParams{{ProductID: productID, Quantity: 1}},
			})
			results[i] = err
		}(i, userID)
	}
	wg.Wait()

	// then
	succeeded, conflicted := 0, 0
	for _, err := range results {
		if err == nil {
			succeeded++
		} else {
			require.ErrorIs(s.T(), err, ordererrors.ErrInsufficientStock)
			conflicted++
		}
	}
	require.Equal(s.T(), 1, succeeded, "Exactly one order should win the last unit")
	require.Equal(s.T(), 1, conflicted)
	require.Equal(s.T(), int32(0), s.productStock(productID))
}

func (s *OrderStoreSuite) TestCancelOrder_RestoresStock() {
	s.SetupTest()
	// given
	userID := s.seedUser()
	productID := s.seedProduct("Khukuri", 1500, 5)
	order, _, err := s.store.CreateOrder(s.ctx, CreateOrderParams{
		UserID:          userID,
		ShippingAddress: "Thamel",
		Phone:           "9800000000",
		PaymentMethod:   MethodCOD,
		Items:           []CreateOrderItemParams{{ProductID: productID, Quantity: 3}},
	})
	require.NoError(s.T(), err)
	require.Equal(s.T(), int32(2), s.productStock(productID))

	// when
	cancelled, err := s.store.CancelOrder(s.ctx, order.ID)

	// then
	require.NoError(s.T(), err)
	require.Equal(s.T(), StatusCancelled, cancelled.Status)
	require.Equal(s.T(), int32(5), s.productStock(productID), "Cancelled quantities must return to stock")

	// and: a second cancel is rejected and stock stays put
	_, err = s.store.CancelOrder(s.ctx, order.ID)
	require.ErrorIs(s.T(), err, ordererrors.ErrNotCancellable)
	require.Equal(s.T(), int32(5), s.productStock(productID))
}

func (s *OrderStoreSuite) TestCancelOrder_NonPendingRejected() {
	s.SetupTest()
	// given
	userID := s.seedUser()
	productID := s.seedProduct("Khukuri", 1500, 5)
	order, _, err := s.store.CreateOrder(s.ctx, CreateOrderParams{
		UserID:          userID,
		ShippingAddress: "Thamel",
		Phone:           "9800000000",
		PaymentMethod:   MethodCOD,
		Items:           []CreateOrderItemParams{{ProductID: productID, Quantity: 1}},
	})
	require.NoError(s.T(), err)
	_, err = s.store.UpdateStatus(s.ctx, order.ID, StatusProcessing)
	require.NoError(s.T(), err)

	// when
	_, err = s.store.CancelOrder(s.ctx, order.ID)

	// then
	require.ErrorIs(s.T(), err, ordererrors.ErrNotCancellable)
	require.Equal(s.T(), int32(4), s.productStock(productID), "Stock must not change")
}

func (s *OrderStoreSuite) TestUpdateStatus_TransitionRules() {
	s.SetupTest()
	// given
	userID := s.seedUser()
	productID := s.seedProduct("Khukuri", 1500, 5)
	order, _, err := s.store.CreateOrder(s.ctx, CreateOrderParams{
		UserID:          userID,
		ShippingAddress: "Thamel",
		Phone:           "9800000000",
		PaymentMethod:   MethodCOD,
		Items:           []CreateOrderItemParams{{ProductID: productID, Quantity: 1}},
	})
	require.NoError(s.T(), err)

	// pending -> delivered is not allowed
	_, err = s.store.UpdateStatus(s.ctx, order.ID, StatusDelivered)
	require.ErrorIs(s.T(), err, ordererrors.ErrInvalidTransition)

	// pending -> processing -> delivered is
	_, err = s.store.UpdateStatus(s.ctx, order.ID, StatusProcessing)
	require.NoError(s.T(), err)
	delivered, err := s.store.UpdateStatus(s.ctx, order.ID, StatusDelivered)
	require.NoError(s.T(), err)
	require.Equal(s.T(), StatusDelivered, delivered.Status)

	// delivered is terminal
	_, err = s.store.UpdateStatus(s.ctx, order.ID, StatusProcessing)
	require.ErrorIs(s.T(), err, ordererrors.ErrInvalidTransition)
}

func (s *OrderStoreSuite) TestMarkPaymentCompleted_Idempotent() {
	s.SetupTest()
	// given
	userID := s.seedUser()
	productID := s.seedProduct("Khukuri", 1500, 5)
	order, _, err := s.store.CreateOrder(s.ctx, CreateOrderParams{
		UserID:          userID,
		ShippingAddress: "Thamel",
		Phone:           "9800000000",
		PaymentMethod:   MethodOnline,
		Items:           []CreateOrderItemParams{{ProductID: productID, Quantity: 1}},
	})
	require.NoError(s.T(), err)

	// when
	paid, changed, err := s.store.MarkPaymentCompleted(s.ctx, order.ID, "pidx-1")

	// then
	require.NoError(s.T(), err)
	require.True(s.T(), changed)
	require.Equal(s.T(), PaymentCompleted, paid.PaymentStatus)
	require.Equal(s.T(), StatusProcessing, paid.Status, "Completed payment moves the order to processing")

	// and: confirming again changes nothing
	again, changed, err := s.store.MarkPaymentCompleted(s.ctx, order.ID, "pidx-1")
	require.NoError(s.T(), err)
	require.False(s.T(), changed)
	require.Equal(s.T(), PaymentCompleted, again.PaymentStatus)

	// and: a late failure report cannot regress a completed payment
	after, err := s.store.MarkPaymentFailed(s.ctx, order.ID, "pidx-1")
	require.NoError(s.T(), err)
	require.Equal(s.T(), PaymentCompleted, after.PaymentStatus)
}

func (s *OrderStoreSuite) TestMarkPaymentInitiated_CompletedOrderRejected() {
	s.SetupTest()
	// given
	userID := s.seedUser()
	productID := s.seedProduct("Lokta paper set", 900, 5)
	order, _, err := s.store.CreateOrder(s.ctx, CreateOrderParams{
		UserID:          userID,
		ShippingAddress: "Thamel",
		Phone:           "9800000000",
		PaymentMethod:   MethodOnline,
		Items:           []CreateOrderItemParams{{ProductID: productID, Quantity: 1}},
	})
	require.NoError(s.T(), err)

	// a second initiate before completion may replace the reference
	initiated, err := s.store.MarkPaymentInitiated(s.ctx, order.ID, "pidx-a")
	require.NoError(s.T(), err)
	require.Equal(s.T(), "pidx-a", initiated.PaymentRef)
	reinitiated, err := s.store.MarkPaymentInitiated(s.ctx, order.ID, "pidx-b")
	require.NoError(s.T(), err)
	require.Equal(s.T(), "pidx-b", reinitiated.PaymentRef)

	_, changed, err := s.store.MarkPaymentCompleted(s.ctx, order.ID, "pidx-b")
	require.NoError(s.T(), err)
	require.True(s.T(), changed)

	// when
	_, err = s.store.MarkPaymentInitiated(s.ctx, order.ID, "pidx-c")

	// then
	require.ErrorIs(s.T(), err, ordererrors.ErrAlreadyPaid)

	after, _, err := s.store.FindByID(s.ctx, order.ID)
	require.NoError(s.T(), err)
	require.Equal(s.T(), PaymentCompleted, after.PaymentStatus)
	require.Equal(s.T(), "pidx-b", after.PaymentRef)
}
