package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/Code-Vida/apistock/internal/apierror"
	"github.com/Code-Vida/apistock/internal/model"
	"github.com/Code-Vida/apistock/internal/repository"
	"github.com/Code-Vida/apistock/internal/tenant"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ── Clock ─────────────────────────────────────────────────────────────────────

type fakeClock struct{ t time.Time }

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

// ── In-memory database ────────────────────────────────────────────────────────

type itemKey struct {
	store uuid.UUID
	sku   model.SKU
}

// memDB holds every collection in memory. memUoW snapshots it before a unit
// of work and restores it when the unit fails, so atomicity is observable.
type memDB struct {
	now func() time.Time

	stores    map[uuid.UUID]model.Store
	users     map[uuid.UUID]model.User
	products  map[uuid.UUID]model.Product
	items     map[itemKey]model.ProductItem
	movements []model.StockMovement
	sales     map[uuid.UUID]model.Sale
	sessions  map[uuid.UUID]model.CashSession
	cashMovs  []model.CashMovement
	totals    []model.CashSessionTotal
	returns   []model.Return
	credits   map[string]model.StoreCredit
	customers map[uuid.UUID]model.Customer
	loyalty   []model.LoyaltyEntry
	suppliers map[uuid.UUID]model.Supplier
	orders    map[uuid.UUID]model.PurchaseOrder

	// loyaltyErr makes AddLoyaltyPoints fail.
	loyaltyErr error
}

func newMemDB(now func() time.Time) *memDB {
	return &memDB{
		now:       now,
		stores:    map[uuid.UUID]model.Store{},
		users:     map[uuid.UUID]model.User{},
		products:  map[uuid.UUID]model.Product{},
		items:     map[itemKey]model.ProductItem{},
		sales:     map[uuid.UUID]model.Sale{},
		sessions:  map[uuid.UUID]model.CashSession{},
		credits:   map[string]model.StoreCredit{},
		customers: map[uuid.UUID]model.Customer{},
		suppliers: map[uuid.UUID]model.Supplier{},
		orders:    map[uuid.UUID]model.PurchaseOrder{},
	}
}

func copyMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (db *memDB) snapshot() *memDB {
	return &memDB{
		now:        db.now,
		stores:     copyMap(db.stores),
		users:      copyMap(db.users),
		products:   copyMap(db.products),
		items:      copyMap(db.items),
		movements:  append([]model.StockMovement(nil), db.movements...),
		sales:      copyMap(db.sales),
		sessions:   copyMap(db.sessions),
		cashMovs:   append([]model.CashMovement(nil), db.cashMovs...),
		totals:     append([]model.CashSessionTotal(nil), db.totals...),
		returns:    append([]model.Return(nil), db.returns...),
		credits:    copyMap(db.credits),
		customers:  copyMap(db.customers),
		loyalty:    append([]model.LoyaltyEntry(nil), db.loyalty...),
		suppliers:  copyMap(db.suppliers),
		orders:     copyMap(db.orders),
		loyaltyErr: db.loyaltyErr,
	}
}

func (db *memDB) restore(s *memDB) { *db = *s }

// memUoW runs fn against memDB and rolls the whole database back when fn
// fails.
type memUoW struct {
	db   *memDB
	runs int
}

func (u *memUoW) Run(ctx context.Context, fn func(ctx context.Context, tx *gorm.DB) error) error {
	u.runs++
	snap := u.db.snapshot()
	if err := fn(ctx, nil); err != nil {
		u.db.restore(snap)
		return err
	}
	return nil
}

type memFactory struct{ db *memDB }

func (f *memFactory) For(ctx context.Context) *repository.Set {
	p, _ := tenant.FromContext(ctx)
	r := &memRepo{db: f.db, store: p.StoreID}
	return &repository.Set{
		Stores:         (*memStores)(r),
		Users:          (*memUsers)(r),
		Products:       (*memProducts)(r),
		StockMovements: (*memStockMovements)(r),
		Sales:          (*memSales)(r),
		Cash:           (*memCash)(r),
		Returns:        (*memReturns)(r),
		Credits:        (*memCredits)(r),
		Customers:      (*memCustomers)(r),
		Suppliers:      (*memSuppliers)(r),
		PurchaseOrders: (*memOrders)(r),
	}
}

// memRepo is bound to one caller's store, like a Gate.
type memRepo struct {
	db    *memDB
	store uuid.UUID
}

var (
	_ repository.StoreRepository         = (*memStores)(nil)
	_ repository.UserRepository          = (*memUsers)(nil)
	_ repository.ProductRepository       = (*memProducts)(nil)
	_ repository.StockMovementRepository = (*memStockMovements)(nil)
	_ repository.SaleRepository          = (*memSales)(nil)
	_ repository.CashRepository          = (*memCash)(nil)
	_ repository.ReturnRepository        = (*memReturns)(nil)
	_ repository.StoreCreditRepository   = (*memCredits)(nil)
	_ repository.CustomerRepository      = (*memCustomers)(nil)
	_ repository.SupplierRepository      = (*memSuppliers)(nil)
	_ repository.PurchaseOrderRepository = (*memOrders)(nil)
	_ repository.UnitOfWork              = (*memUoW)(nil)
	_ repository.Factory                 = (*memFactory)(nil)
)

// ── Stores & users ────────────────────────────────────────────────────────────

type memStores memRepo

func (r *memStores) Create(_ context.Context, _ *gorm.DB, s *model.Store) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	r.db.stores[s.ID] = *s
	return nil
}

func (r *memStores) FindByID(_ context.Context, id uuid.UUID) (*model.Store, error) {
	s, ok := r.db.stores[id]
	if !ok {
		return nil, apierror.NotFound("loja não encontrada", apierror.ErrNotFound)
	}
	return &s, nil
}

func (r *memStores) UpdateSettings(_ context.Context, s *model.Store) error {
	if _, ok := r.db.stores[s.ID]; !ok {
		return apierror.NotFound("loja não encontrada")
	}
	r.db.stores[s.ID] = *s
	return nil
}

type memUsers memRepo

func (r *memUsers) Create(_ context.Context, _ *gorm.DB, u *model.User) error {
	u.Email = strings.ToLower(u.Email)
	for _, other := range r.db.users {
		if other.Email == u.Email {
			return apierror.Conflict("e-mail já cadastrado", gorm.ErrDuplicatedKey)
		}
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	r.db.users[u.ID] = *u
	return nil
}

func (r *memUsers) FindByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range r.db.users {
		if u.Active && u.Email == strings.ToLower(email) {
			return &u, nil
		}
	}
	return nil, apierror.ErrNotFound
}

func (r *memUsers) FindByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := r.db.users[id]
	if !ok {
		return nil, apierror.NotFound("usuário não encontrado", apierror.ErrNotFound)
	}
	return &u, nil
}

func (r *memUsers) ListByStore(_ context.Context, storeID uuid.UUID) ([]model.User, error) {
	var out []model.User
	for _, u := range r.db.users {
		if u.StoreID == storeID {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *memUsers) ListAdmins(ctx context.Context, storeID uuid.UUID) ([]model.User, error) {
	all, _ := r.ListByStore(ctx, storeID)
	var out []model.User
	for _, u := range all {
		if u.Role == tenant.RoleAdmin && u.Active {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *memUsers) SetManagerPin(_ context.Context, id uuid.UUID, hash string) error {
	u, ok := r.db.users[id]
	if !ok {
		return apierror.NotFound("usuário não encontrado")
	}
	u.ManagerPinHash = &hash
	r.db.users[id] = u
	return nil
}

func (r *memUsers) Delete(_ context.Context, storeID, id uuid.UUID) error {
	u, ok := r.db.users[id]
	if !ok || u.StoreID != storeID {
		return apierror.NotFound("usuário não encontrado")
	}
	delete(r.db.users, id)
	return nil
}

// ── Products & stock ──────────────────────────────────────────────────────────

type memProducts memRepo

func (r *memProducts) Create(_ context.Context, _ *gorm.DB, p *model.Product) error {
	p.SetStoreID(r.store)
	for _, v := range p.Variants {
		for _, it := range v.Items {
			if it.BarCode == nil {
				continue
			}
			for k, other := range r.db.items {
				if k.store == r.store && other.BarCode != nil && *other.BarCode == *it.BarCode {
					return gorm.ErrDuplicatedKey
				}
			}
		}
	}
	for _, v := range p.Variants {
		for _, it := range v.Items {
			r.db.items[itemKey{r.store, model.SKU{ProductID: p.ID, ColorSlug: it.ColorSlug, Number: it.Number}}] = it
		}
	}
	stored := *p
	stored.Variants = nil
	for _, v := range p.Variants {
		stored.Variants = append(stored.Variants, model.ProductVariant{ID: v.ID, ProductID: v.ProductID, Color: v.Color, ColorSlug: v.ColorSlug})
	}
	r.db.products[p.ID] = stored
	return nil
}

func (r *memProducts) FindByID(_ context.Context, _ *gorm.DB, id uuid.UUID) (*model.Product, error) {
	p, ok := r.db.products[id]
	if !ok || p.StoreID != r.store {
		return nil, apierror.NotFound("produto não encontrado", apierror.ErrNotFound)
	}
	variants := make([]model.ProductVariant, len(p.Variants))
	for i, v := range p.Variants {
		v.Items = nil
		for k, it := range r.db.items {
			if k.store == r.store && k.sku.ProductID == id && k.sku.ColorSlug == v.ColorSlug {
				v.Items = append(v.Items, it)
			}
		}
		sort.Slice(v.Items, func(a, b int) bool { return v.Items[a].Number < v.Items[b].Number })
		variants[i] = v
	}
	p.Variants = variants
	return &p, nil
}

func (r *memProducts) Search(_ context.Context, term string, limit int) ([]model.Product, error) {
	var out []model.Product
	term = strings.ToLower(term)
	for _, p := range r.db.products {
		if p.StoreID != r.store {
			continue
		}
		if strings.Contains(strings.ToLower(p.Brand+" "+p.Model), term) {
			out = append(out, p)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *memProducts) FindItem(_ context.Context, _ *gorm.DB, sku model.SKU) (*model.ProductItem, error) {
	it, ok := r.db.items[itemKey{r.store, sku}]
	if !ok {
		return nil, apierror.ErrNotFound
	}
	return &it, nil
}

func (r *memProducts) FindItemByBarcode(_ context.Context, _ *gorm.DB, barcode string) (*model.ProductItem, error) {
	for k, it := range r.db.items {
		if k.store == r.store && it.BarCode != nil && *it.BarCode == barcode {
			return &it, nil
		}
	}
	return nil, apierror.ErrNotFound
}

func (r *memProducts) AdjustStockBatch(_ context.Context, _ *gorm.DB, deltas []model.StockDelta) (int, repository.StockOutcome, error) {
	for i, d := range deltas {
		k := itemKey{r.store, d.SKU}
		it, ok := r.db.items[k]
		if !ok {
			return i, repository.StockNotFound, nil
		}
		if it.Amount+d.Delta < 0 {
			return i, repository.StockInsufficient, nil
		}
		it.Amount += d.Delta
		r.db.items[k] = it
	}
	return -1, repository.StockApplied, nil
}

func (r *memProducts) ListLowStock(_ context.Context, threshold int) ([]repository.LowStockItem, error) {
	var out []repository.LowStockItem
	for k, it := range r.db.items {
		p := r.db.products[k.sku.ProductID]
		if k.store != r.store || it.Amount > threshold || p.LowStockAcknowledgedAt != nil {
			continue
		}
		out = append(out, repository.LowStockItem{
			ProductID: p.ID, Brand: p.Brand, Model: p.Model,
			ColorSlug: it.ColorSlug, Number: it.Number, Amount: it.Amount,
		})
	}
	return out, nil
}

func (r *memProducts) AcknowledgeLowStock(_ context.Context, id uuid.UUID, at time.Time) error {
	p, ok := r.db.products[id]
	if !ok || p.StoreID != r.store {
		return apierror.NotFound("produto não encontrado")
	}
	p.LowStockAcknowledgedAt = &at
	r.db.products[id] = p
	return nil
}

func (db *memDB) amount(store uuid.UUID, sku model.SKU) int {
	return db.items[itemKey{store, sku}].Amount
}

type memStockMovements memRepo

func (r *memStockMovements) CreateBatch(_ context.Context, _ *gorm.DB, movs []model.StockMovement) error {
	for _, m := range movs {
		m.ID = uuid.New()
		m.StoreID = r.store
		m.CreatedAt = r.db.now()
		r.db.movements = append(r.db.movements, m)
	}
	return nil
}

func (r *memStockMovements) ListByProduct(_ context.Context, productID uuid.UUID, limit int) ([]model.StockMovement, error) {
	var out []model.StockMovement
	for i := len(r.db.movements) - 1; i >= 0 && len(out) < limit; i-- {
		m := r.db.movements[i]
		if m.StoreID == r.store && m.ProductID == productID {
			out = append(out, m)
		}
	}
	return out, nil
}

// ── Sales ─────────────────────────────────────────────────────────────────────

type memSales memRepo

func (r *memSales) Create(_ context.Context, _ *gorm.DB, s *model.Sale) error {
	if s.ClientRequestID != nil {
		for _, other := range r.db.sales {
			if other.StoreID == r.store && other.ClientRequestID != nil && *other.ClientRequestID == *s.ClientRequestID {
				return apierror.Conflict("venda já registrada para esta requisição", gorm.ErrDuplicatedKey)
			}
		}
	}
	s.SetStoreID(r.store)
	if s.CreatedAt.IsZero() {
		s.CreatedAt = r.db.now()
	}
	r.db.sales[s.ID] = *s
	return nil
}

func (r *memSales) FindByID(_ context.Context, _ *gorm.DB, id uuid.UUID) (*model.Sale, error) {
	s, ok := r.db.sales[id]
	if !ok || s.StoreID != r.store {
		return nil, apierror.NotFound("venda não encontrada", apierror.ErrNotFound)
	}
	return &s, nil
}

func (r *memSales) FindByClientRequestID(_ context.Context, key string) (*model.Sale, error) {
	for _, s := range r.db.sales {
		if s.StoreID == r.store && s.ClientRequestID != nil && *s.ClientRequestID == key {
			return &s, nil
		}
	}
	return nil, apierror.ErrNotFound
}

func (r *memSales) TotalsByPaymentMethod(_ context.Context, _ *gorm.DB, from, to time.Time) ([]repository.PaymentTotal, error) {
	byMethod := map[string]*repository.PaymentTotal{}
	var order []string
	for _, s := range r.db.sales {
		if s.StoreID != r.store || s.CreatedAt.Before(from) || s.CreatedAt.After(to) {
			continue
		}
		t, ok := byMethod[s.PaymentMethod]
		if !ok {
			t = &repository.PaymentTotal{PaymentMethod: s.PaymentMethod, Total: decimal.Zero}
			byMethod[s.PaymentMethod] = t
			order = append(order, s.PaymentMethod)
		}
		t.Total = t.Total.Add(s.FinalAmount)
		t.Count++
	}
	sort.Strings(order)
	out := make([]repository.PaymentTotal, len(order))
	for i, m := range order {
		out[i] = *byMethod[m]
	}
	return out, nil
}

func (r *memSales) UpdateFiscal(_ context.Context, id uuid.UUID, upd repository.FiscalUpdate) error {
	s, ok := r.db.sales[id]
	if !ok {
		return apierror.NotFound("venda não encontrada")
	}
	s.NFCeStatus = upd.Status
	if upd.PDFURL != nil {
		s.NFCePDFURL = upd.PDFURL
	}
	if upd.XMLURL != nil {
		s.NFCeXMLURL = upd.XMLURL
	}
	if upd.RejectionReason != nil {
		s.NFCeRejectionReason = upd.RejectionReason
	}
	r.db.sales[id] = s
	return nil
}

func (r *memSales) SetLoyaltyPoints(_ context.Context, _ *gorm.DB, id uuid.UUID, points int) error {
	s := r.db.sales[id]
	s.LoyaltyPoints = points
	r.db.sales[id] = s
	return nil
}

// ── Cash ──────────────────────────────────────────────────────────────────────

type memCash memRepo

func (r *memCash) CreateSession(_ context.Context, _ *gorm.DB, s *model.CashSession) error {
	for _, other := range r.db.sessions {
		if other.StoreID == r.store && other.Status == model.CashOpen {
			return apierror.ErrSessionAlreadyOpen
		}
	}
	s.ID = uuid.New()
	s.SetStoreID(r.store)
	r.db.sessions[s.ID] = *s
	return nil
}

func (r *memCash) FindOpen(_ context.Context, _ *gorm.DB) (*model.CashSession, error) {
	for _, s := range r.db.sessions {
		if s.StoreID == r.store && s.Status == model.CashOpen {
			return &s, nil
		}
	}
	return nil, apierror.ErrNoOpenSession
}

func (r *memCash) FindByID(_ context.Context, _ *gorm.DB, id uuid.UUID) (*model.CashSession, error) {
	s, ok := r.db.sessions[id]
	if !ok || s.StoreID != r.store {
		return nil, apierror.ErrNotFound
	}
	return &s, nil
}

func (r *memCash) CreateMovement(_ context.Context, _ *gorm.DB, m *model.CashMovement) error {
	m.ID = uuid.New()
	m.SetStoreID(r.store)
	if m.CreatedAt.IsZero() {
		m.CreatedAt = r.db.now()
	}
	r.db.cashMovs = append(r.db.cashMovs, *m)
	return nil
}

func (r *memCash) MovementTotals(_ context.Context, _ *gorm.DB, sessionID uuid.UUID, upTo time.Time) ([]repository.MovementTotal, error) {
	byType := map[string]*repository.MovementTotal{}
	for _, m := range r.db.cashMovs {
		if m.StoreID != r.store || m.SessionID != sessionID || m.CreatedAt.After(upTo) {
			continue
		}
		t, ok := byType[m.Type]
		if !ok {
			t = &repository.MovementTotal{Type: m.Type, Total: decimal.Zero}
			byType[m.Type] = t
		}
		t.Total = t.Total.Add(m.Amount)
		t.Count++
	}
	var out []repository.MovementTotal
	for _, t := range byType {
		out = append(out, *t)
	}
	return out, nil
}

func (r *memCash) Close(_ context.Context, _ *gorm.DB, id uuid.UUID, c repository.CashClosing) (*model.CashSession, error) {
	s, ok := r.db.sessions[id]
	if !ok || s.StoreID != r.store || s.Status != model.CashOpen {
		return nil, apierror.ErrNoOpenSession
	}
	s.Status = model.CashClosed
	s.ClosedAt = &c.ClosedAt
	s.ClosedBy = &c.ClosedBy
	s.ClosingBalanceActual = &c.Actual
	s.ClosingBalanceExpected = &c.Expected
	s.Difference = &c.Difference
	s.TotalDeposits = c.TotalDeposits
	s.TotalWithdrawals = c.TotalWithdrawals
	r.db.sessions[id] = s
	return &s, nil
}

func (r *memCash) SaveTotals(_ context.Context, _ *gorm.DB, totals []model.CashSessionTotal) error {
	for _, t := range totals {
		t.SetStoreID(r.store)
		r.db.totals = append(r.db.totals, t)
	}
	return nil
}

func (r *memCash) SetReportPath(_ context.Context, id uuid.UUID, path string) error {
	s := r.db.sessions[id]
	s.ReportPath = &path
	r.db.sessions[id] = s
	return nil
}

// ── Returns & store credits ───────────────────────────────────────────────────

type memReturns memRepo

func (r *memReturns) Create(_ context.Context, _ *gorm.DB, ret *model.Return) error {
	ret.SetStoreID(r.store)
	r.db.returns = append(r.db.returns, *ret)
	return nil
}

func (r *memReturns) ListBySale(_ context.Context, _ *gorm.DB, saleID uuid.UUID) ([]model.Return, error) {
	var out []model.Return
	for _, ret := range r.db.returns {
		if ret.StoreID == r.store && ret.OriginalSaleID == saleID {
			out = append(out, ret)
		}
	}
	return out, nil
}

type memCredits memRepo

func (r *memCredits) Create(_ context.Context, _ *gorm.DB, c *model.StoreCredit) error {
	if _, ok := r.db.credits[c.Code]; ok {
		return apierror.Conflict("código de vale já utilizado", gorm.ErrDuplicatedKey)
	}
	c.SetStoreID(r.store)
	r.db.credits[c.Code] = *c
	return nil
}

func (r *memCredits) FindByCode(_ context.Context, code string) (*model.StoreCredit, error) {
	for k, c := range r.db.credits {
		if c.StoreID == r.store && strings.EqualFold(k, code) {
			return &c, nil
		}
	}
	return nil, apierror.NotFound("vale não encontrado", apierror.ErrNotFound)
}

func (r *memCredits) Redeem(_ context.Context, _ *gorm.DB, code string, amount decimal.Decimal) (bool, error) {
	c, ok := r.db.credits[code]
	if !ok || c.StoreID != r.store || !c.IsActive || c.Balance.LessThan(amount) {
		return false, nil
	}
	c.Balance = c.Balance.Sub(amount)
	r.db.credits[code] = c
	return true, nil
}

// ── Customers & suppliers ─────────────────────────────────────────────────────

type memCustomers memRepo

func (r *memCustomers) Create(_ context.Context, c *model.Customer) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.SetStoreID(r.store)
	r.db.customers[c.ID] = *c
	return nil
}

func (r *memCustomers) FindByID(_ context.Context, _ *gorm.DB, id uuid.UUID) (*model.Customer, error) {
	c, ok := r.db.customers[id]
	if !ok || c.StoreID != r.store {
		return nil, apierror.NotFound("cliente não encontrado", apierror.ErrNotFound)
	}
	return &c, nil
}

func (r *memCustomers) Search(_ context.Context, term string, limit int) ([]model.Customer, error) {
	var out []model.Customer
	for _, c := range r.db.customers {
		if c.StoreID == r.store && strings.Contains(strings.ToLower(c.Name), strings.ToLower(term)) && len(out) < limit {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *memCustomers) AddLoyaltyPoints(_ context.Context, _ *gorm.DB, id uuid.UUID, points int) error {
	if r.db.loyaltyErr != nil {
		return r.db.loyaltyErr
	}
	c, ok := r.db.customers[id]
	if !ok || c.StoreID != r.store {
		return apierror.NotFound("cliente não encontrado")
	}
	c.LoyaltyPoints += points
	r.db.customers[id] = c
	return nil
}

func (r *memCustomers) CreateLoyaltyEntry(_ context.Context, _ *gorm.DB, e *model.LoyaltyEntry) error {
	e.SetStoreID(r.store)
	r.db.loyalty = append(r.db.loyalty, *e)
	return nil
}

type memSuppliers memRepo

func (r *memSuppliers) Create(_ context.Context, s *model.Supplier) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	s.SetStoreID(r.store)
	r.db.suppliers[s.ID] = *s
	return nil
}

func (r *memSuppliers) FindByID(_ context.Context, id uuid.UUID) (*model.Supplier, error) {
	s, ok := r.db.suppliers[id]
	if !ok || s.StoreID != r.store {
		return nil, apierror.NotFound("fornecedor não encontrado", apierror.ErrNotFound)
	}
	return &s, nil
}

func (r *memSuppliers) FindByName(_ context.Context, name string) (*model.Supplier, error) {
	for _, s := range r.db.suppliers {
		if s.StoreID == r.store && strings.EqualFold(s.Name, name) {
			return &s, nil
		}
	}
	return nil, apierror.ErrNotFound
}

func (r *memSuppliers) List(_ context.Context) ([]model.Supplier, error) {
	var out []model.Supplier
	for _, s := range r.db.suppliers {
		if s.StoreID == r.store {
			out = append(out, s)
		}
	}
	return out, nil
}

type memOrders memRepo

func (r *memOrders) Create(_ context.Context, _ *gorm.DB, o *model.PurchaseOrder) error {
	o.SetStoreID(r.store)
	r.db.orders[o.ID] = *o
	return nil
}

func (r *memOrders) List(_ context.Context, status *string) ([]model.PurchaseOrder, error) {
	var out []model.PurchaseOrder
	for _, o := range r.db.orders {
		if o.StoreID == r.store && (status == nil || o.Status == *status) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (r *memOrders) FindPendingForUpdate(_ context.Context, _ *gorm.DB, id uuid.UUID) (*model.PurchaseOrder, error) {
	o, ok := r.db.orders[id]
	if !ok || o.StoreID != r.store || o.Status != model.OrderPending {
		return nil, apierror.ErrOrderNotPending
	}
	return &o, nil
}

func (r *memOrders) MarkReceived(_ context.Context, _ *gorm.DB, id uuid.UUID, at time.Time) error {
	o, ok := r.db.orders[id]
	if !ok || o.Status != model.OrderPending {
		return apierror.ErrOrderNotPending
	}
	o.Status = model.OrderReceived
	o.ReceivedAt = &at
	r.db.orders[id] = o
	return nil
}

// ── Fiscal queue ──────────────────────────────────────────────────────────────

type fakeFiscal struct {
	enqueued []uuid.UUID
	err      error
}

func (f *fakeFiscal) EnqueueEmission(_ context.Context, _, saleID uuid.UUID) error {
	if f.err != nil {
		return f.err
	}
	f.enqueued = append(f.enqueued, saleID)
	return nil
}

// ── Test environment ──────────────────────────────────────────────────────────

type testEnv struct {
	db      *memDB
	clock   *fakeClock
	repos   *memFactory
	uow     *memUoW
	ledger  Ledger
	fiscal  *fakeFiscal
	store   model.Store
	admin   tenant.Principal
	seller  tenant.Principal
	product model.Product
}

func newTestEnv() *testEnv {
	clock := newClock()
	db := newMemDB(clock.Now)
	env := &testEnv{
		db:     db,
		clock:  clock,
		repos:  &memFactory{db: db},
		uow:    &memUoW{db: db},
		fiscal: &fakeFiscal{},
	}
	env.ledger = NewLedger(env.repos)

	env.store = model.Store{ID: uuid.New(), Name: "Loja Centro"}
	db.stores[env.store.ID] = env.store
	env.admin = tenant.Principal{UserID: uuid.New(), StoreID: env.store.ID, Role: tenant.RoleAdmin}
	env.seller = tenant.Principal{UserID: uuid.New(), StoreID: env.store.ID, Role: tenant.RoleSeller}

	env.product = model.Product{
		ID: uuid.New(), StoreID: env.store.ID, Brand: "Usaflex", Model: "Scarpin",
		PurchasePrice: decimal.NewFromInt(60), SalePrice: decimal.NewFromInt(150),
		Variants: []model.ProductVariant{{ID: uuid.New(), Color: "Preto", ColorSlug: "preto"}},
	}
	db.products[env.product.ID] = env.product
	env.setStock("preto", "36", 5)
	env.setStock("preto", "37", 1)
	return env
}

func (e *testEnv) sku(number string) model.SKU {
	return model.SKU{ProductID: e.product.ID, ColorSlug: "preto", Number: number}
}

func (e *testEnv) setStock(color, number string, amount int) {
	sku := model.SKU{ProductID: e.product.ID, ColorSlug: color, Number: number}
	e.db.items[itemKey{e.store.ID, sku}] = model.ProductItem{
		ID: uuid.New(), StoreID: e.store.ID, ProductID: e.product.ID,
		VariantID: e.product.Variants[0].ID, ColorSlug: color, Number: number, Amount: amount,
	}
}

func (e *testEnv) stock(number string) int {
	return e.db.amount(e.store.ID, e.sku(number))
}

func (e *testEnv) ctx(p tenant.Principal) context.Context {
	return tenant.WithPrincipal(context.Background(), p)
}

func (e *testEnv) updateStore(fn func(s *model.Store)) {
	s := e.db.stores[e.store.ID]
	fn(&s)
	e.db.stores[e.store.ID] = s
	e.store = s
}
