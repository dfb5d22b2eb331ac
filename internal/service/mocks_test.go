package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/Zia-ullah-khan/qless/internal/cache"
	"github.com/Zia-ullah-khan/qless/internal/domain"
	"github.com/Zia-ullah-khan/qless/internal/payment"
	"github.com/Zia-ullah-khan/qless/internal/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// mockStore is an in-memory implementation of every repository interface.
// Conditional updates hold the mutex for the whole check-and-write.
type mockStore struct {
	mu           sync.Mutex
	stores       map[string]*domain.Store
	products     map[string]*domain.Product
	carts        map[string]*domain.Cart
	transactions map[string]*domain.Transaction
	items        []*domain.TransactionItem
	receipts     map[string]*domain.QrReceipt
	events       []*repository.OutboxEvent

	insertItemsErr error
	createTxErr    error
	getProductsErr error
	getItemsErr    error
	paidReadErr    error // fails reads of a transaction once it is PAID
	markUsedCalls  int

	// afterBarcodeRead runs once, after a barcode lookup releases the lock
	afterBarcodeRead func()
}

func newMockStore() *mockStore {
	return &mockStore{
		stores:       map[string]*domain.Store{},
		products:     map[string]*domain.Product{},
		carts:        map[string]*domain.Cart{},
		transactions: map[string]*domain.Transaction{},
		receipts:     map[string]*domain.QrReceipt{},
	}
}

func (m *mockStore) repos() *repository.Repositories {
	return &repository.Repositories{
		Stores:       storeRepo{m},
		Products:     productRepo{m},
		Carts:        cartRepo{m},
		Transactions: txRepo{m},
		Receipts:     receiptRepo{m},
		Outbox:       outboxRepo{m},
	}
}

func (m *mockStore) eventTypes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var types []string
	for _, e := range m.events {
		types = append(types, e.EventType)
	}
	return types
}

func (m *mockStore) transactionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.transactions)
}

func (m *mockStore) receiptCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.receipts)
}

type storeRepo struct{ m *mockStore }

func (r storeRepo) CreateStore(_ context.Context, s *domain.Store) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	cp := *s
	r.m.stores[s.ID] = &cp
	return nil
}

func (r storeRepo) GetStore(_ context.Context, id string) (*domain.Store, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	s, ok := r.m.stores[id]
	if !ok {
		return nil, repository.ErrStoreNotFound
	}
	cp := *s
	return &cp, nil
}

func (r storeRepo) ListStores(_ context.Context) ([]*domain.Store, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	out := make([]*domain.Store, 0)
	for _, s := range r.m.stores {
		if s.Available() {
			cp := *s
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type productRepo struct{ m *mockStore }

func (r productRepo) CreateProduct(_ context.Context, p *domain.Product) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if p.BarcodeValue != "" {
		for _, existing := range r.m.products {
			if existing.BarcodeValue == p.BarcodeValue {
				return repository.ErrDuplicateBarcode
			}
		}
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	cp := *p
	r.m.products[p.ID] = &cp
	return nil
}

func (r productRepo) GetProduct(_ context.Context, id string) (*domain.Product, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	p, ok := r.m.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (r productRepo) GetProducts(_ context.Context, ids []string) (map[string]*domain.Product, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.getProductsErr != nil {
		return nil, r.m.getProductsErr
	}
	out := map[string]*domain.Product{}
	for _, id := range ids {
		if p, ok := r.m.products[id]; ok {
			cp := *p
			out[id] = &cp
		}
	}
	return out, nil
}

func (r productRepo) GetProductByBarcode(_ context.Context, barcode string) (*domain.Product, error) {
	p, err := r.productByBarcode(barcode)
	if hook := r.m.afterBarcodeRead; hook != nil {
		r.m.afterBarcodeRead = nil
		hook()
	}
	return p, err
}

func (r productRepo) productByBarcode(barcode string) (*domain.Product, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, p := range r.m.products {
		if p.BarcodeValue == barcode && !p.IsDeleted {
			cp := *p
			return &cp, nil
		}
	}
	return nil, repository.ErrProductNotFound
}

func (r productRepo) ListStoreProducts(_ context.Context, storeID string) ([]*domain.Product, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	out := make([]*domain.Product, 0)
	for _, p := range r.m.products {
		if p.StoreID == storeID && p.Available() {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r productRepo) UpdateProduct(_ context.Context, id string, patch domain.ProductPatch) (*domain.Product, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	p, ok := r.m.products[id]
	if !ok || p.IsDeleted {
		return nil, repository.ErrProductNotFound
	}
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.BarcodeValue != nil {
		p.BarcodeValue = *patch.BarcodeValue
	}
	if patch.IsActive != nil {
		p.IsActive = *patch.IsActive
	}
	cp := *p
	return &cp, nil
}

func (r productRepo) SoftDeleteProduct(_ context.Context, id string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	p, ok := r.m.products[id]
	if !ok || p.IsDeleted {
		return repository.ErrProductNotFound
	}
	p.IsDeleted = true
	p.IsActive = false
	p.BarcodeValue = ""
	return nil
}

type cartRepo struct{ m *mockStore }

func (r cartRepo) GetActiveCart(_ context.Context, userID, storeID string) (*domain.Cart, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, c := range r.m.carts {
		if c.UserID == userID && c.IsActive && (storeID == "" || c.StoreID == storeID) {
			cp := *c
			cp.Items = append([]domain.CartItem(nil), c.Items...)
			return &cp, nil
		}
	}
	return nil, repository.ErrCartNotFound
}

func (r cartRepo) CreateCart(_ context.Context, cart *domain.Cart) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, c := range r.m.carts {
		if c.UserID == cart.UserID && c.StoreID == cart.StoreID && c.IsActive {
			return repository.ErrActiveCartExists
		}
	}
	if cart.ID == "" {
		cart.ID = uuid.NewString()
	}
	cart.IsActive = true
	cp := *cart
	r.m.carts[cart.ID] = &cp
	return nil
}

func (r cartRepo) PushItem(_ context.Context, cartID string, item domain.CartItem) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	c, ok := r.m.carts[cartID]
	if !ok || !c.IsActive {
		return repository.ErrCartNotFound
	}
	for _, existing := range c.Items {
		if existing.ProductID == item.ProductID {
			return repository.ErrItemExists
		}
	}
	c.Items = append(c.Items, item)
	return nil
}

func (r cartRepo) SetItemQuantity(_ context.Context, cartID, productID string, quantity int, total decimal.Decimal) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	c, ok := r.m.carts[cartID]
	if !ok || !c.IsActive {
		return repository.ErrItemNotFound
	}
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items[i].Quantity = quantity
			c.Items[i].TotalPrice = total
			return nil
		}
	}
	return repository.ErrItemNotFound
}

func (r cartRepo) RemoveItem(_ context.Context, cartID, productID string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	c, ok := r.m.carts[cartID]
	if !ok || !c.IsActive {
		return repository.ErrItemNotFound
	}
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return nil
		}
	}
	return repository.ErrItemNotFound
}

func (r cartRepo) Deactivate(_ context.Context, cartID string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	c, ok := r.m.carts[cartID]
	if !ok || !c.IsActive {
		return repository.ErrCartNotFound
	}
	c.IsActive = false
	return nil
}

type txRepo struct{ m *mockStore }

func (r txRepo) CreateTransaction(_ context.Context, tx *domain.Transaction) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.createTxErr != nil {
		return r.m.createTxErr
	}
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	if tx.Status == "" {
		tx.Status = domain.TransactionStatusPending
	}
	tx.CreatedAt = time.Now()
	tx.UpdatedAt = tx.CreatedAt
	cp := *tx
	r.m.transactions[tx.ID] = &cp
	return nil
}

func (r txRepo) InsertItems(_ context.Context, items []*domain.TransactionItem) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.insertItemsErr != nil {
		return r.m.insertItemsErr
	}
	for _, item := range items {
		if item.ID == "" {
			item.ID = uuid.NewString()
		}
		item.TotalPrice = item.LineTotal()
		cp := *item
		r.m.items = append(r.m.items, &cp)
	}
	return nil
}

func (r txRepo) GetTransaction(_ context.Context, id string) (*domain.Transaction, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	tx, ok := r.m.transactions[id]
	if !ok {
		return nil, repository.ErrTransactionNotFound
	}
	if r.m.paidReadErr != nil && tx.Status == domain.TransactionStatusPaid {
		return nil, r.m.paidReadErr
	}
	cp := *tx
	return &cp, nil
}

func (r txRepo) GetItems(_ context.Context, transactionID string) ([]*domain.TransactionItem, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.getItemsErr != nil {
		return nil, r.m.getItemsErr
	}
	out := make([]*domain.TransactionItem, 0)
	for _, item := range r.m.items {
		if item.TransactionID == transactionID {
			cp := *item
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r txRepo) MarkPaid(_ context.Context, id string, update domain.PaymentUpdate) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	tx, ok := r.m.transactions[id]
	if !ok || tx.Status != domain.TransactionStatusPending {
		return repository.ErrStatusConflict
	}
	tx.Status = domain.TransactionStatusPaid
	tx.PaymentIntentID = update.PaymentIntentID
	if update.PaymentProvider != "" {
		tx.PaymentProvider = update.PaymentProvider
	}
	tx.PaymentReference = update.PaymentReference
	return nil
}

func (r txRepo) MarkFailed(_ context.Context, id, reason string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	tx, ok := r.m.transactions[id]
	if !ok || tx.Status != domain.TransactionStatusPending {
		return repository.ErrStatusConflict
	}
	tx.Status = domain.TransactionStatusFailed
	tx.FailureReason = reason
	return nil
}

type receiptRepo struct{ m *mockStore }

func (r receiptRepo) CreateReceipt(_ context.Context, receipt *domain.QrReceipt) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.receipts[receipt.TransactionID]; ok {
		return repository.ErrReceiptExists
	}
	if receipt.ID == "" {
		receipt.ID = uuid.NewString()
	}
	cp := *receipt
	r.m.receipts[receipt.TransactionID] = &cp
	return nil
}

func (r receiptRepo) GetReceiptByTransaction(_ context.Context, transactionID string) (*domain.QrReceipt, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	receipt, ok := r.m.receipts[transactionID]
	if !ok {
		return nil, repository.ErrReceiptNotFound
	}
	cp := *receipt
	return &cp, nil
}

func (r receiptRepo) GetReceiptByToken(_ context.Context, token string) (*domain.QrReceipt, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, receipt := range r.m.receipts {
		if receipt.QRToken == token {
			cp := *receipt
			return &cp, nil
		}
	}
	return nil, repository.ErrReceiptNotFound
}

func (r receiptRepo) find(id string) *domain.QrReceipt {
	for _, receipt := range r.m.receipts {
		if receipt.ID == id {
			return receipt
		}
	}
	return nil
}

func (r receiptRepo) MarkUsed(_ context.Context, id string, now time.Time, verifiedBy string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.markUsedCalls++
	receipt := r.find(id)
	if receipt == nil || receipt.Status != domain.QRStatusValid || !now.Before(receipt.ExpiresAt) {
		return repository.ErrStatusConflict
	}
	receipt.Status = domain.QRStatusUsed
	at := now
	receipt.VerifiedAt = &at
	receipt.VerifiedBy = verifiedBy
	return nil
}

func (r receiptRepo) MarkExpired(_ context.Context, id string, _ time.Time) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	receipt := r.find(id)
	if receipt == nil || receipt.Status != domain.QRStatusValid {
		return repository.ErrStatusConflict
	}
	receipt.Status = domain.QRStatusExpired
	return nil
}

type outboxRepo struct{ m *mockStore }

func (r outboxRepo) AddEvent(_ context.Context, aggregateID, eventType string, payload []byte) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.events = append(r.m.events, &repository.OutboxEvent{
		ID:          uuid.NewString(),
		AggregateID: aggregateID,
		EventType:   eventType,
		Payload:     payload,
	})
	return nil
}

func (r outboxRepo) GetUnprocessedEvents(context.Context, int) ([]*repository.OutboxEvent, error) {
	return nil, nil
}

func (r outboxRepo) MarkEventAsProcessed(context.Context, string) error {
	return nil
}

// mockCache records fills and invalidations; it never hits unless primed.
type mockCache struct {
	mu          sync.Mutex
	barcodes    map[string]*domain.Product
	invalidated []string
	getErr      error
	fills       int
}

func newMockCache() *mockCache {
	return &mockCache{barcodes: map[string]*domain.Product{}}
}

func (c *mockCache) GetStores(context.Context) ([]*domain.Store, error) {
	return nil, cache.ErrCacheMiss
}

func (c *mockCache) SetStores(context.Context, []*domain.Store) error { return nil }

func (c *mockCache) GetStore(context.Context, string) (*domain.Store, error) {
	return nil, cache.ErrCacheMiss
}

func (c *mockCache) SetStore(context.Context, *domain.Store) error { return nil }

func (c *mockCache) GetStoreProducts(context.Context, string) ([]*domain.Product, error) {
	return nil, cache.ErrCacheMiss
}

func (c *mockCache) SetStoreProducts(context.Context, string, []*domain.Product) error { return nil }

func (c *mockCache) GetProductByBarcode(_ context.Context, barcode string) (*domain.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, c.getErr
	}
	if p, ok := c.barcodes[barcode]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, cache.ErrCacheMiss
}

func (c *mockCache) SetProductByBarcode(_ context.Context, p *domain.Product) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := *p
	c.barcodes[p.BarcodeValue] = &cp
	c.fills++
	return nil
}

func (c *mockCache) cached(barcode string) (*domain.Product, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.barcodes[barcode]
	return p, ok
}

func (c *mockCache) InvalidateStore(_ context.Context, storeID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated = append(c.invalidated, "store:"+storeID)
	return nil
}

func (c *mockCache) InvalidateProduct(_ context.Context, p *domain.Product) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated = append(c.invalidated, "product:"+p.ID)
	delete(c.barcodes, p.BarcodeValue)
	return nil
}

type mockRenderer struct{ err error }

func (r mockRenderer) DataURL(content string) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	return "data:image/png;base64,bW9jaw==", nil
}

type mockGateway struct {
	sheet *payment.Sheet
	err   error
	last  payment.SheetRequest
}

func (g *mockGateway) CreatePaymentSheet(_ context.Context, req payment.SheetRequest) (*payment.Sheet, error) {
	g.last = req
	if g.err != nil {
		return nil, g.err
	}
	return g.sheet, nil
}

var errDB = errors.New("connection refused")
