package integration

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/andreasstove999/orders-ms/internal/order"
	"github.com/andreasstove999/orders-ms/internal/testutil"
)

func truncateTables(t *testing.T, db *sql.DB) {
	t.Helper()
	_, err := db.Exec(`TRUNCATE orders, order_items, event_sequence`)
	require.NoError(t, err)
}

func TestRepository_CreateAndGetByID(t *testing.T) {
	db, cleanup := testutil.StartPostgres(t)
	t.Cleanup(cleanup)
	truncateTables(t, db)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	repo := order.NewRepository(db)

	createdAt := time.Now().UTC().Truncate(time.Millisecond)
	toCreate := order.Order{
		TotalAmount: 25,
		TotalItems:  3,
		Status:      order.StatusPending,
		CreatedAt:   createdAt,
		Items: []order.Item{
			{ProductID: 1, Quantity: 2, Price: 10},
			{ProductID: 2, Quantity: 1, Price: 5},
		},
	}

	require.NoError(t, repo.Create(ctx, &toCreate))

	fetched, err := repo.GetByID(ctx, toCreate.ID)
	require.NoError(t, err)
	require.NotNil(t, fetched)
	require.Equal(t, toCreate.ID, fetched.ID)
	require.Equal(t, toCreate.TotalAmount, fetched.TotalAmount)
	require.Equal(t, toCreate.TotalItems, fetched.TotalItems)
	require.Equal(t, order.StatusPending, fetched.Status)
	require.WithinDuration(t, createdAt, fetched.CreatedAt, time.Millisecond)
	require.Len(t, fetched.Items, 2)
	require.ElementsMatch(t, toCreate.Items, fetched.Items)
}

func TestRepository_DeleteCascadesToItems(t *testing.T) {
	db, cleanup := testutil.StartPostgres(t)
	t.Cleanup(cleanup)
	truncateTables(t, db)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	repo := order.NewRepository(db)
	o := order.Order{
		TotalAmount: 10,
		TotalItems:  1,
		Status:      order.StatusPending,
		CreatedAt:   time.Now().UTC(),
		Items:       []order.Item{{ProductID: 1, Quantity: 1, Price: 10}},
	}
	require.NoError(t, repo.Create(ctx, &o))

	_, err := db.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, o.ID)
	require.NoError(t, err)

	var itemCount int
	require.NoError(t, db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM order_items WHERE order_id = $1`, o.ID,
	).Scan(&itemCount))
	require.Zero(t, itemCount)
}

func TestRepository_ListAndCountWithFilterAndPagination(t *testing.T) {
	db, cleanup := testutil.StartPostgres(t)
	t.Cleanup(cleanup)
	truncateTables(t, db)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	repo := order.NewRepository(db)
	base := time.Now().UTC().Truncate(time.Millisecond)

	for i := 0; i < 5; i++ {
		status := order.StatusPending
		if i%2 == 1 {
			status = order.StatusPaid
		}
		o := order.Order{
			TotalAmount: float64(i + 1),
			TotalItems:  1,
			Status:      status,
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
			Items:       []order.Item{{ProductID: int64(i + 1), Quantity: 1, Price: float64(i + 1)}},
		}
		require.NoError(t, repo.Create(ctx, &o))
	}

	total, err := repo.Count(ctx, order.ListFilter{})
	require.NoError(t, err)
	require.Equal(t, 5, total)

	paid := order.StatusPaid
	paidTotal, err := repo.Count(ctx, order.ListFilter{Status: &paid})
	require.NoError(t, err)
	require.Equal(t, 2, paidTotal)

	// newest first, deterministic across calls
	firstPage, err := repo.List(ctx, order.ListFilter{}, 0, 2)
	require.NoError(t, err)
	require.Len(t, firstPage, 2)
	require.Equal(t, 5.0, firstPage[0].TotalAmount)
	require.Equal(t, 4.0, firstPage[1].TotalAmount)

	secondPage, err := repo.List(ctx, order.ListFilter{}, 2, 2)
	require.NoError(t, err)
	require.Len(t, secondPage, 2)
	require.Equal(t, 3.0, secondPage[0].TotalAmount)

	pastEnd, err := repo.List(ctx, order.ListFilter{}, 10, 2)
	require.NoError(t, err)
	require.Empty(t, pastEnd)

	paidOnly, err := repo.List(ctx, order.ListFilter{Status: &paid}, 0, 10)
	require.NoError(t, err)
	require.Len(t, paidOnly, 2)
	for _, o := range paidOnly {
		require.Equal(t, order.StatusPaid, o.Status)
	}
}

func TestRepository_UpdateStatus(t *testing.T) {
	db, cleanup := testutil.StartPostgres(t)
	t.Cleanup(cleanup)
	truncateTables(t, db)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	repo := order.NewRepository(db)
	o := order.Order{
		TotalAmount: 10,
		TotalItems:  1,
		Status:      order.StatusPending,
		CreatedAt:   time.Now().UTC(),
		Items:       []order.Item{{ProductID: 1, Quantity: 1, Price: 10}},
	}
	require.NoError(t, repo.Create(ctx, &o))

	updated, err := repo.UpdateStatus(ctx, o.ID, order.StatusDelivered)
	require.NoError(t, err)
	require.NotNil(t, updated)
	require.Equal(t, order.StatusDelivered, updated.Status)

	missing, err := repo.UpdateStatus(ctx, "00000000-0000-0000-0000-000000000000", order.StatusPaid)
	require.NoError(t, err)
	require.Nil(t, missing)
}
