package test

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	domainErrors "github.com/polkiloo/golightpay/internal/domain/errors"
	"github.com/polkiloo/golightpay/internal/domain/model"
)

// CustomerRepositoryStub stores customers in-memory for tests.
type CustomerRepositoryStub struct {
	Customers map[string]*model.Customer
	Next      int64
	Err       error
}

// NewCustomerRepositoryStub constructs stub repository with initialized maps.
func NewCustomerRepositoryStub() *CustomerRepositoryStub {
	return &CustomerRepositoryStub{
		Customers: make(map[string]*model.Customer),
		Next:      1,
	}
}

// Create registers customer unless already exists or stub has explicit error.
func (s *CustomerRepositoryStub) Create(ctx context.Context, login, passwordHash string) (*model.Customer, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	if s.Customers == nil {
		s.Customers = make(map[string]*model.Customer)
	}
	if _, exists := s.Customers[login]; exists {
		return nil, domainErrors.ErrAlreadyExists
	}
	if s.Next == 0 {
		s.Next = 1
	}
	customer := &model.Customer{ID: s.Next, Login: login, PasswordHash: passwordHash}
	s.Next++
	s.Customers[login] = customer
	return customer, nil
}

// GetByLogin fetches customer by login or returns not found.
func (s *CustomerRepositoryStub) GetByLogin(ctx context.Context, login string) (*model.Customer, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	if customer, ok := s.Customers[login]; ok {
		return customer, nil
	}
	return nil, domainErrors.ErrNotFound
}

// TransitionCall stores information about TransitionStatus invocations.
type TransitionCall struct {
	OrderID int64
	From    []model.OrderStatus
	To      model.OrderStatus
	Note    string
	Moved   bool
}

// OrderRepositoryStub is an in-memory order store. Fn overrides replace the
// default behaviour of single methods.
type OrderRepositoryStub struct {
	CreateFn           func(context.Context, *model.Order) (*model.Order, error)
	GetByIDFn          func(context.Context, int64) (*model.Order, error)
	FindByMetaFn       func(context.Context, string, string) (*model.Order, error)
	GetMetaFn          func(context.Context, int64, string) (string, error)
	UpdateMetaFn       func(context.Context, int64, string, string) error
	TransitionStatusFn func(context.Context, int64, []model.OrderStatus, model.OrderStatus, string) (bool, error)
	AddNoteFn          func(context.Context, int64, string) error
	ListAwaitingFn     func(context.Context, time.Time, int) ([]model.PendingInvoice, error)
	MarkSyncedFn       func(context.Context, int64, time.Time) error

	Orders      map[int64]*model.Order
	Meta        map[int64]map[string]string
	Notes       map[int64][]model.OrderNote
	SyncedAt    map[int64]time.Time
	Transitions []TransitionCall
	Next        int64
	Err         error

	mu sync.Mutex
}

// NewOrderRepositoryStub constructs an empty stub.
func NewOrderRepositoryStub() *OrderRepositoryStub {
	return &OrderRepositoryStub{
		Orders:   make(map[int64]*model.Order),
		Meta:     make(map[int64]map[string]string),
		Notes:    make(map[int64][]model.OrderNote),
		SyncedAt: make(map[int64]time.Time),
		Next:     1,
	}
}

// Put stores order as is and returns it.
func (s *OrderRepositoryStub) Put(order model.Order) *model.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.init()
	o := order
	s.Orders[o.ID] = &o
	if o.ID >= s.Next {
		s.Next = o.ID + 1
	}
	return &o
}

// Status returns the stored status of the order.
func (s *OrderRepositoryStub) Status(orderID int64) model.OrderStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o, ok := s.Orders[orderID]; ok {
		return o.Status
	}
	return ""
}

func (s *OrderRepositoryStub) init() {
	if s.Orders == nil {
		s.Orders = make(map[int64]*model.Order)
	}
	if s.Meta == nil {
		s.Meta = make(map[int64]map[string]string)
	}
	if s.Notes == nil {
		s.Notes = make(map[int64][]model.OrderNote)
	}
	if s.SyncedAt == nil {
		s.SyncedAt = make(map[int64]time.Time)
	}
	if s.Next == 0 {
		s.Next = 1
	}
}

// Create assigns an ID and stores the order.
func (s *OrderRepositoryStub) Create(ctx context.Context, order *model.Order) (*model.Order, error) {
	if s.CreateFn != nil {
		return s.CreateFn(ctx, order)
	}
	if s.Err != nil {
		return nil, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.init()
	o := *order
	o.ID = s.Next
	s.Next++
	if o.Number == "" {
		o.Number = formatID(o.ID)
	}
	o.CreatedAt = time.Now()
	o.UpdatedAt = o.CreatedAt
	s.Orders[o.ID] = &o
	out := o
	return &out, nil
}

// GetByID returns a copy of the stored order.
func (s *OrderRepositoryStub) GetByID(ctx context.Context, id int64) (*model.Order, error) {
	if s.GetByIDFn != nil {
		return s.GetByIDFn(ctx, id)
	}
	if s.Err != nil {
		return nil, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if o, ok := s.Orders[id]; ok {
		out := *o
		return &out, nil
	}
	return nil, domainErrors.ErrNotFound
}

// ListByCustomer returns orders of the customer, newest first.
func (s *OrderRepositoryStub) ListByCustomer(ctx context.Context, customerID int64) ([]model.Order, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Order
	for _, o := range s.Orders {
		if o.CustomerID == customerID {
			out = append(out, *o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

// FindByMeta returns the order with the lowest ID carrying key=value.
func (s *OrderRepositoryStub) FindByMeta(ctx context.Context, key, value string) (*model.Order, error) {
	if s.FindByMetaFn != nil {
		return s.FindByMetaFn(ctx, key, value)
	}
	if s.Err != nil {
		return nil, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var found *model.Order
	for id, meta := range s.Meta {
		if meta[key] != value {
			continue
		}
		o, ok := s.Orders[id]
		if !ok {
			continue
		}
		if found == nil || o.ID < found.ID {
			found = o
		}
	}
	if found == nil {
		return nil, domainErrors.ErrNotFound
	}
	out := *found
	return &out, nil
}

// GetMeta returns a stored metadata value.
func (s *OrderRepositoryStub) GetMeta(ctx context.Context, orderID int64, key string) (string, error) {
	if s.GetMetaFn != nil {
		return s.GetMetaFn(ctx, orderID, key)
	}
	if s.Err != nil {
		return "", s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.Meta[orderID][key]; ok {
		return v, nil
	}
	return "", domainErrors.ErrNotFound
}

// UpdateMeta upserts a metadata value of an existing order.
func (s *OrderRepositoryStub) UpdateMeta(ctx context.Context, orderID int64, key, value string) error {
	if s.UpdateMetaFn != nil {
		return s.UpdateMetaFn(ctx, orderID, key, value)
	}
	if s.Err != nil {
		return s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.init()
	if _, ok := s.Orders[orderID]; !ok {
		return domainErrors.ErrNotFound
	}
	if s.Meta[orderID] == nil {
		s.Meta[orderID] = make(map[string]string)
	}
	s.Meta[orderID][key] = value
	return nil
}

// TransitionStatus applies the guarded update and records the call.
func (s *OrderRepositoryStub) TransitionStatus(ctx context.Context, orderID int64, from []model.OrderStatus, to model.OrderStatus, note string) (bool, error) {
	if s.TransitionStatusFn != nil {
		return s.TransitionStatusFn(ctx, orderID, from, to, note)
	}
	if s.Err != nil {
		return false, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.init()
	call := TransitionCall{OrderID: orderID, From: from, To: to, Note: note}
	defer func() { s.Transitions = append(s.Transitions, call) }()

	o, ok := s.Orders[orderID]
	if !ok || !o.HasStatus(from...) {
		return false, nil
	}
	o.Status = to
	o.UpdatedAt = time.Now()
	if note != "" {
		s.appendNote(orderID, note)
	}
	call.Moved = true
	return true, nil
}

// AddNote appends an audit note.
func (s *OrderRepositoryStub) AddNote(ctx context.Context, orderID int64, note string) error {
	if s.AddNoteFn != nil {
		return s.AddNoteFn(ctx, orderID, note)
	}
	if s.Err != nil {
		return s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.init()
	if _, ok := s.Orders[orderID]; !ok {
		return domainErrors.ErrNotFound
	}
	s.appendNote(orderID, note)
	return nil
}

func (s *OrderRepositoryStub) appendNote(orderID int64, note string) {
	notes := s.Notes[orderID]
	s.Notes[orderID] = append(notes, model.OrderNote{
		ID:        int64(len(notes) + 1),
		OrderID:   orderID,
		Note:      note,
		CreatedAt: time.Now(),
	})
}

// ListNotes returns notes in insertion order.
func (s *OrderRepositoryStub) ListNotes(ctx context.Context, orderID int64) ([]model.OrderNote, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.OrderNote(nil), s.Notes[orderID]...), nil
}

// ListAwaitingPayment returns pending or on-hold orders carrying an invoice ID,
// never synced first, then by sync time and ID.
func (s *OrderRepositoryStub) ListAwaitingPayment(ctx context.Context, olderThan time.Time, limit int) ([]model.PendingInvoice, error) {
	if s.ListAwaitingFn != nil {
		return s.ListAwaitingFn(ctx, olderThan, limit)
	}
	if s.Err != nil {
		return nil, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.PendingInvoice
	for id, o := range s.Orders {
		invoiceID := s.Meta[id][model.MetaInvoiceID]
		if invoiceID == "" || o.PaymentMethod != model.PaymentMethodLightPay {
			continue
		}
		if !o.HasStatus(model.OrderStatusPending, model.OrderStatusOnHold) || !o.CreatedAt.Before(olderThan) {
			continue
		}
		out = append(out, model.PendingInvoice{Order: *o, InvoiceID: invoiceID})
	}
	sort.Slice(out, func(i, j int) bool {
		a, aok := s.SyncedAt[out[i].Order.ID]
		b, bok := s.SyncedAt[out[j].Order.ID]
		if aok != bok {
			return !aok
		}
		if !a.Equal(b) {
			return a.Before(b)
		}
		return out[i].Order.ID < out[j].Order.ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// MarkInvoiceSynced records the last sync attempt of the order.
func (s *OrderRepositoryStub) MarkInvoiceSynced(ctx context.Context, orderID int64, at time.Time) error {
	if s.MarkSyncedFn != nil {
		return s.MarkSyncedFn(ctx, orderID, at)
	}
	if s.Err != nil {
		return s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.init()
	if _, ok := s.Orders[orderID]; !ok {
		return domainErrors.ErrNotFound
	}
	s.SyncedAt[orderID] = at
	return nil
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
