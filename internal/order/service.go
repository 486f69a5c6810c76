package order

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/andreasstove999/orders-ms/internal/catalog"
)

// unknownProductName replaces the product name on reads when the
// catalog no longer knows a product referenced by an old order.
const unknownProductName = "unknown product"

const (
	DefaultPage  = 1
	DefaultLimit = 10
)

// CreateItem is one line of a creation intent: which product and how
// many. Prices always come from the catalog, never from the caller.
type CreateItem struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

// ListQuery selects a page of orders. Zero Page/Limit fall back to the
// defaults; a nil Status matches every order.
type ListQuery struct {
	Status *Status
	Page   int
	Limit  int
}

type PageMeta struct {
	TotalItems   int  `json:"totalItems"`
	CurrentPage  int  `json:"currentPage"`
	PerPage      int  `json:"perPage"`
	TotalPages   int  `json:"totalPages"`
	NextPage     *int `json:"nextPage"`
	PreviousPage *int `json:"previousPage"`
}

type Page struct {
	Data []Order  `json:"data"`
	Meta PageMeta `json:"meta"`
}

// EventPublisher emits the OrderCreated event after a successful
// create. Publish failures never fail the order.
type EventPublisher interface {
	PublishOrderCreated(ctx context.Context, o *Order) error
}

// Service owns the order workflow: catalog validation, total
// computation, atomic persistence, and read-time enrichment.
type Service struct {
	repo    Repository
	catalog catalog.Client
	pub     EventPublisher
	logger  *log.Logger
}

func NewService(repo Repository, c catalog.Client, pub EventPublisher, logger *log.Logger) *Service {
	return &Service{repo: repo, catalog: c, pub: pub, logger: logger}
}

// Create validates every requested product against the catalog,
// computes totals from catalog prices, and persists the order with its
// items as one unit. Nothing is written when any product is unknown.
func (s *Service) Create(ctx context.Context, items []CreateItem) (*Order, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("at least one item required: %w", ErrValidation)
	}
	for _, it := range items {
		if it.ProductID <= 0 {
			return nil, fmt.Errorf("productId %d: %w", it.ProductID, ErrValidation)
		}
		if it.Quantity < 1 {
			return nil, fmt.Errorf("quantity %d for product %d: %w", it.Quantity, it.ProductID, ErrValidation)
		}
	}

	products, err := s.resolveProducts(ctx, items)
	if err != nil {
		return nil, err
	}

	var (
		totalAmount float64
		totalItems  int
	)
	orderItems := make([]Item, 0, len(items))
	for _, it := range items {
		p, ok := products[it.ProductID]
		if !ok {
			return nil, fmt.Errorf("product %d: %w", it.ProductID, ErrProductNotFound)
		}
		totalAmount += p.Price * float64(it.Quantity)
		totalItems += it.Quantity
		orderItems = append(orderItems, Item{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Price:     p.Price,
		})
	}

	o := &Order{
		TotalAmount: totalAmount,
		TotalItems:  totalItems,
		Status:      StatusPending,
		CreatedAt:   time.Now().UTC(),
		Items:       orderItems,
	}

	if err := s.repo.Create(ctx, o); err != nil {
		return nil, fmt.Errorf("create order: %w: %w", ErrStoreWriteFailed, err)
	}

	// Enrich from the catalog snapshot already in hand, no second call
	for i := range o.Items {
		o.Items[i].Name = products[o.Items[i].ProductID].Name
	}

	if s.pub != nil {
		if err := s.pub.PublishOrderCreated(ctx, o); err != nil {
			s.logger.Printf("publish OrderCreated for order %s: %v", o.ID, err)
		}
	}

	return o, nil
}

// FindOne loads an order and joins current product names from the
// catalog. Prices and quantities stay the snapshot taken at creation.
// A product the catalog has since dropped gets a placeholder name
// rather than failing the read.
func (s *Service) FindOne(ctx context.Context, id string) (*Order, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get order %s: %w: %w", id, ErrStoreReadFailed, err)
	}
	if o == nil {
		return nil, fmt.Errorf("order %s: %w", id, ErrOrderNotFound)
	}

	products, err := s.resolveProducts(ctx, itemsToIntents(o.Items))
	if err != nil {
		return nil, err
	}

	for i := range o.Items {
		p, ok := products[o.Items[i].ProductID]
		if !ok {
			s.logger.Printf("order %s references product %d no longer in catalog", o.ID, o.Items[i].ProductID)
			o.Items[i].Name = unknownProductName
			continue
		}
		o.Items[i].Name = p.Name
	}

	return o, nil
}

// FindAll returns one page of orders plus pagination metadata. A page
// past the end yields empty data with the meta still consistent.
func (s *Service) FindAll(ctx context.Context, q ListQuery) (*Page, error) {
	page := q.Page
	if page == 0 {
		page = DefaultPage
	}
	limit := q.Limit
	if limit == 0 {
		limit = DefaultLimit
	}
	if page < 1 || limit < 1 {
		return nil, fmt.Errorf("page %d limit %d: %w", page, limit, ErrValidation)
	}

	f := ListFilter{Status: q.Status}

	totalItems, err := s.repo.Count(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("count orders: %w: %w", ErrStoreReadFailed, err)
	}

	orders, err := s.repo.List(ctx, f, (page-1)*limit, limit)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w: %w", ErrStoreReadFailed, err)
	}
	if orders == nil {
		orders = []Order{}
	}

	totalPages := (totalItems + limit - 1) / limit
	meta := PageMeta{
		TotalItems:  totalItems,
		CurrentPage: page,
		PerPage:     limit,
		TotalPages:  totalPages,
	}
	if page < totalPages {
		next := page + 1
		meta.NextPage = &next
	}
	if page > 1 {
		prev := page - 1
		meta.PreviousPage = &prev
	}

	return &Page{Data: orders, Meta: meta}, nil
}

// ChangeStatus transitions an order to newStatus. Setting the status
// it already has is a no-op that returns the order without writing.
// Any status may follow any other; a transition table is a deliberate
// extension point, not enforced here.
func (s *Service) ChangeStatus(ctx context.Context, id string, newStatus Status) (*Order, error) {
	if _, ok := ParseStatus(string(newStatus)); !ok {
		return nil, fmt.Errorf("status %q: %w", newStatus, ErrValidation)
	}

	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get order %s: %w: %w", id, ErrStoreReadFailed, err)
	}
	if o == nil {
		return nil, fmt.Errorf("order %s: %w", id, ErrOrderNotFound)
	}

	if o.Status == newStatus {
		return o, nil
	}

	updated, err := s.repo.UpdateStatus(ctx, id, newStatus)
	if err != nil {
		return nil, fmt.Errorf("update order %s: %w: %w", id, ErrStoreWriteFailed, err)
	}
	if updated == nil {
		return nil, fmt.Errorf("order %s: %w", id, ErrOrderNotFound)
	}

	o.Status = updated.Status
	return o, nil
}

// resolveProducts calls the catalog once with the deduplicated set of
// product ids and returns the result keyed by id.
func (s *Service) resolveProducts(ctx context.Context, items []CreateItem) (map[int64]catalog.Product, error) {
	seen := make(map[int64]struct{}, len(items))
	ids := make([]int64, 0, len(items))
	for _, it := range items {
		if _, ok := seen[it.ProductID]; ok {
			continue
		}
		seen[it.ProductID] = struct{}{}
		ids = append(ids, it.ProductID)
	}

	products, err := s.catalog.ValidateProducts(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("validate products: %w", err)
	}

	byID := make(map[int64]catalog.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	return byID, nil
}

func itemsToIntents(items []Item) []CreateItem {
	intents := make([]CreateItem, 0, len(items))
	for _, it := range items {
		intents = append(intents, CreateItem{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	return intents
}
