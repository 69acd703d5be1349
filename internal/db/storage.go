package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"orderservice/internal/order/model"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

type Storage interface {
	SaveOrder(ctx context.Context, order *model.Order) (string, error)
	GetOrder(ctx context.Context, id string) (*model.Order, error)
	GetOrders(ctx context.Context, userID string) ([]model.Order, error)
	GetAllOrders(ctx context.Context) ([]model.Order, error)
	SetPayment(ctx context.Context, id string, paid bool) (*model.Order, error)
	SetStatus(ctx context.Context, id string, status string) (*model.Order, error)
	DeleteOrder(ctx context.Context, id string) (*model.Order, error)

	GetOrderByIntent(ctx context.Context, intentID string) (*model.Order, error)
	SavePendingCapture(ctx context.Context, capture *model.PendingCapture) error
	DeletePendingCapture(ctx context.Context, intentID string) error
	CompletePendingCapture(ctx context.Context, order *model.Order) (string, error)
	GetPendingCaptures(ctx context.Context, before time.Time, offset, limit int) ([]model.PendingCapture, error)
}

var (
	ErrOrderNotFound = errors.New("order not found")
	// ErrIntentClaimed is returned when a pending capture for the intent belongs to another user or amount.
	ErrIntentClaimed = errors.New("intent is claimed by another capture")
)

type storageImpl struct {
	xdb    *sqlx.DB
	logger *zap.SugaredLogger
}

const (
	createTablesIfNeedSQL = `
	create table if not exists orders (
		id uuid primary key,
		user_id varchar(256) not null,
		items jsonb not null default '[]',
		amount numeric(14,2) not null default 0,
		address jsonb not null default '{}',
		payment boolean not null default false,
		status varchar(64) not null default 'Pending',
		intent_id varchar(64) unique,
		created_at timestamp with time zone not null default now()
	);
	create index if not exists orders_user_id_idx on orders(user_id);

	create table if not exists pending_captures (
		intent_id varchar(64) primary key,
		user_id varchar(256) not null,
		items jsonb not null default '[]',
		amount numeric(14,2) not null default 0,
		address jsonb not null default '{}',
		created_at timestamp with time zone not null default now()
	);
	`

	orderColumns = `id, user_id, items, amount, address, payment, status, intent_id, created_at`

	insertOrderSQL = `
	insert into orders(id, user_id, items, amount, address, payment, status, intent_id)
	values($1,$2,$3,$4,$5,$6,$7,$8)
	returning created_at;`
	selectOrderByIDSQL          = `select ` + orderColumns + ` from orders where id = $1;`
	selectAllOrdersOfUserIDSQL  = `select ` + orderColumns + ` from orders where user_id = $1 order by created_at;`
	selectAllOrdersSQL          = `select ` + orderColumns + ` from orders order by created_at;`
	updateOrderPaymentSQL       = `update orders set payment = $2 where id = $1 returning ` + orderColumns + `;`
	updateOrderStatusSQL        = `update orders set status = $2 where id = $1 returning ` + orderColumns + `;`
	deleteOrderSQL              = `delete from orders where id = $1 returning ` + orderColumns + `;`
	selectOrderIDByIntentSQL    = `select id from orders where intent_id = $1;`
	selectOrderByIntentSQL      = `select ` + orderColumns + ` from orders where intent_id = $1;`
	insertPaidOrderOnceSQL      = `
	insert into orders(id, user_id, items, amount, address, payment, status, intent_id)
	values($1,$2,$3,$4,$5,$6,$7,$8)
	on conflict (intent_id) do nothing
	returning id;`

	upsertPendingCaptureSQL = `
	insert into pending_captures(intent_id, user_id, items, amount, address)
	values($1,$2,$3,$4,$5)
	on conflict (intent_id) do update set
		items = excluded.items,
		address = excluded.address
	where pending_captures.user_id = excluded.user_id and pending_captures.amount = excluded.amount
	returning intent_id;`
	deletePendingCaptureSQL = `delete from pending_captures where intent_id = $1;`
	selectPendingCapturesSQL = `
	select
		intent_id,
		user_id,
		items,
		amount,
		address,
		created_at
	from pending_captures where created_at < $1
	order by created_at
	offset $2 limit $3;`
)

func NewStorage(ctx context.Context, url string, logger *zap.SugaredLogger) (Storage, error) {
	logger.Infow("start init dbstorage ...")
	xdb, err := sqlx.ConnectContext(ctx, "postgres", url)
	if err != nil {
		logger.Errorf("error on connect to db: %v", err)
		return nil, err
	}

	storage := newStorage(xdb, logger)
	if err := storage.initDB(ctx); err != nil {
		logger.Errorf("error on connect to init db: %v", err)
		return nil, err
	}
	logger.Info("dbstorage initialized successfully")
	return storage, nil
}

func newStorage(xdb *sqlx.DB, logger *zap.SugaredLogger) *storageImpl {
	return &storageImpl{xdb: xdb, logger: logger}
}

func (db *storageImpl) initDB(ctx context.Context) error {
	_, err := db.xdb.ExecContext(ctx, createTablesIfNeedSQL)
	return err
}

// orderID returns ErrOrderNotFound for ids that can never match a row.
func orderID(id string) (string, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", ErrOrderNotFound
	}
	return parsed.String(), nil
}

func (db *storageImpl) SaveOrder(ctx context.Context, order *model.Order) (string, error) {
	id := uuid.New().String()
	row := db.xdb.QueryRowxContext(ctx, insertOrderSQL,
		id, order.UserID, order.Items, order.Amount, order.Address, order.Payment, order.Status, order.IntentID)
	if err := row.Scan(&order.CreatedAt); err != nil {
		return "", fmt.Errorf("insert order: %w", err)
	}
	order.ID = id
	return id, nil
}

func (db *storageImpl) GetOrder(ctx context.Context, id string) (*model.Order, error) {
	id, err := orderID(id)
	if err != nil {
		return nil, err
	}

	var order model.Order
	err = db.xdb.GetContext(ctx, &order, selectOrderByIDSQL, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	} else if err != nil {
		return nil, fmt.Errorf("select order %v: %w", id, err)
	}
	return &order, nil
}

func (db *storageImpl) GetOrders(ctx context.Context, userID string) ([]model.Order, error) {
	orders := []model.Order{}
	if err := db.xdb.SelectContext(ctx, &orders, selectAllOrdersOfUserIDSQL, userID); err != nil {
		return nil, fmt.Errorf("select orders of user %v: %w", userID, err)
	}
	return orders, nil
}

func (db *storageImpl) GetAllOrders(ctx context.Context) ([]model.Order, error) {
	orders := []model.Order{}
	if err := db.xdb.SelectContext(ctx, &orders, selectAllOrdersSQL); err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}
	return orders, nil
}

func (db *storageImpl) SetPayment(ctx context.Context, id string, paid bool) (*model.Order, error) {
	return db.updateOrder(ctx, updateOrderPaymentSQL, id, paid)
}

func (db *storageImpl) SetStatus(ctx context.Context, id string, status string) (*model.Order, error) {
	return db.updateOrder(ctx, updateOrderStatusSQL, id, status)
}

// updateOrder sets one column and returns the updated row.
func (db *storageImpl) updateOrder(ctx context.Context, query string, id string, value interface{}) (*model.Order, error) {
	id, err := orderID(id)
	if err != nil {
		return nil, err
	}

	var order model.Order
	err = db.xdb.GetContext(ctx, &order, query, id, value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	} else if err != nil {
		return nil, fmt.Errorf("update order %v: %w", id, err)
	}
	return &order, nil
}

func (db *storageImpl) DeleteOrder(ctx context.Context, id string) (*model.Order, error) {
	id, err := orderID(id)
	if err != nil {
		return nil, err
	}

	var order model.Order
	err = db.xdb.GetContext(ctx, &order, deleteOrderSQL, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	} else if err != nil {
		return nil, fmt.Errorf("delete order %v: %w", id, err)
	}
	return &order, nil
}

func (db *storageImpl) GetOrderByIntent(ctx context.Context, intentID string) (*model.Order, error) {
	var order model.Order
	err := db.xdb.GetContext(ctx, &order, selectOrderByIntentSQL, intentID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	} else if err != nil {
		return nil, fmt.Errorf("select order by intent %v: %w", intentID, err)
	}
	return &order, nil
}

// SavePendingCapture records capture. A row already held for the intent by another user or
// amount is left untouched and ErrIntentClaimed is returned.
func (db *storageImpl) SavePendingCapture(ctx context.Context, capture *model.PendingCapture) error {
	var intentID string
	err := db.xdb.GetContext(ctx, &intentID, upsertPendingCaptureSQL,
		capture.IntentID, capture.UserID, capture.Items, capture.Amount, capture.Address)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrIntentClaimed
	} else if err != nil {
		return fmt.Errorf("save pending capture %v: %w", capture.IntentID, err)
	}
	return nil
}

func (db *storageImpl) DeletePendingCapture(ctx context.Context, intentID string) error {
	if _, err := db.xdb.ExecContext(ctx, deletePendingCaptureSQL, intentID); err != nil {
		return fmt.Errorf("delete pending capture %v: %w", intentID, err)
	}
	return nil
}

// CompletePendingCapture stores the paid order for order.IntentID and drops the pending
// record in one transaction. A second call for the same intent returns the existing order id.
func (db *storageImpl) CompletePendingCapture(ctx context.Context, order *model.Order) (string, error) {
	tx, err := db.xdb.BeginTxx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	intentID := order.IntentID.String
	var id string
	err = tx.GetContext(ctx, &id, insertPaidOrderOnceSQL,
		uuid.New().String(), order.UserID, order.Items, order.Amount, order.Address, order.Payment, order.Status, order.IntentID)
	if errors.Is(err, sql.ErrNoRows) {
		err = tx.GetContext(ctx, &id, selectOrderIDByIntentSQL, intentID)
	}
	if err != nil {
		return "", fmt.Errorf("complete capture %v: %w", intentID, err)
	}

	if _, err := tx.ExecContext(ctx, deletePendingCaptureSQL, intentID); err != nil {
		return "", fmt.Errorf("complete capture %v: %w", intentID, err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("complete capture %v: %w", intentID, err)
	}

	order.ID = id
	return id, nil
}

func (db *storageImpl) GetPendingCaptures(ctx context.Context, before time.Time, offset, limit int) ([]model.PendingCapture, error) {
	captures := []model.PendingCapture{}
	if err := db.xdb.SelectContext(ctx, &captures, selectPendingCapturesSQL, before, offset, limit); err != nil {
		return nil, fmt.Errorf("select pending captures: %w", err)
	}
	return captures, nil
}
