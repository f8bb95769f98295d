package repository

import (
	"context"
	"fmt"
	"sort"

	"github.com/Code-Vida/apistock/internal/apierror"
	"github.com/Code-Vida/apistock/internal/model"
	"github.com/Code-Vida/apistock/internal/tenant"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Collection names. Only users and stores are global; every other collection
// is tenant-scoped and requires a store on the caller.
const (
	CollUsers             = "users"
	CollStores            = "stores"
	CollProducts          = "products"
	CollProductItems      = "product_items"
	CollStockMovements    = "stock_movements"
	CollSales             = "sales"
	CollCashSessions      = "cash_sessions"
	CollCashSessionTotals = "cash_session_totals"
	CollCashMovements     = "cash_movements"
	CollReturns           = "returns"
	CollStoreCredits      = "store_credits"
	CollCustomers         = "customers"
	CollLoyaltyEntries    = "loyalty_entries"
	CollSuppliers         = "suppliers"
	CollPurchaseOrders    = "purchase_orders"
)

var globalCollections = map[string]bool{
	CollUsers:  true,
	CollStores: true,
}

// TextCollation is the nondeterministic ICU collation created by the first
// migration (case-insensitive, accent-sensitive).
const TextCollation = "pt_ci"

const storeColumn = "store_id"

// Gate is the single entry point to persistence for one caller. Every
// operation on a tenant-scoped collection is filtered by, and every write is
// stamped with, the caller's store.
type Gate struct {
	db        *gorm.DB
	principal tenant.Principal
}

func NewGate(db *gorm.DB, p tenant.Principal) *Gate {
	return &Gate{db: db, principal: p}
}

func (g *Gate) Principal() tenant.Principal { return g.principal }

// Collection returns a handle on name. It fails with
// apierror.ErrUnauthorizedCollection when name is tenant-scoped and the
// caller carries no store.
func (g *Gate) Collection(name string) (*Collection, error) {
	if globalCollections[name] {
		return &Collection{name: name, db: g.db}, nil
	}
	if !g.principal.HasStore() {
		return nil, &apierror.Error{
			Kind:    apierror.KindAuthorization,
			Message: fmt.Sprintf("acesso não autorizado à collection '%s': loja não identificada", name),
			Err:     apierror.ErrUnauthorizedCollection,
		}
	}
	store := g.principal.StoreID
	return &Collection{name: name, db: g.db, storeID: &store}, nil
}

// Filter is a conjunction of column equalities and raw expressions.
// Filters are values; every builder method returns a copy.
type Filter struct {
	eq    map[string]any
	exprs []clause.Expression
}

// By starts a filter with column = value.
func By(column string, value any) Filter {
	return Filter{}.Eq(column, value)
}

// ByID is shorthand for By("id", id).
func ByID(id uuid.UUID) Filter { return By("id", id) }

func (f Filter) Eq(column string, value any) Filter {
	eq := make(map[string]any, len(f.eq)+1)
	for k, v := range f.eq {
		eq[k] = v
	}
	eq[column] = value
	return Filter{eq: eq, exprs: f.exprs}
}

// Expr adds a raw SQL predicate with positional args.
func (f Filter) Expr(sql string, args ...any) Filter {
	exprs := append(append([]clause.Expression(nil), f.exprs...), clause.Expr{SQL: sql, Vars: args})
	return Filter{eq: f.eq, exprs: exprs}
}

// Text adds a locale-aware, case-insensitive equality on column.
func (f Filter) Text(column, value string) Filter {
	return f.Expr(fmt.Sprintf("%s = ? COLLATE \"%s\"", column, TextCollation), value)
}

// QueryOption customizes a read.
type QueryOption func(*gorm.DB) *gorm.DB

func OrderBy(order string) QueryOption {
	return func(q *gorm.DB) *gorm.DB { return q.Order(order) }
}

func Limit(n int) QueryOption {
	return func(q *gorm.DB) *gorm.DB { return q.Limit(n) }
}

func Preload(assoc string) QueryOption {
	return func(q *gorm.DB) *gorm.DB { return q.Preload(assoc) }
}

// ForUpdate locks the selected rows until the transaction ends.
func ForUpdate() QueryOption {
	return func(q *gorm.DB) *gorm.DB { return q.Clauses(clause.Locking{Strength: "UPDATE"}) }
}

// WriteOp is one sub-operation of BulkWrite.
type WriteOp struct {
	Filter Filter
	Update map[string]any
}

type BulkOptions struct {
	// StopOnZeroMatch ends the batch at the first op that modifies nothing.
	StopOnZeroMatch bool
}

// BulkResult reports per-op modified counts. StoppedAt is the index of the
// op that matched nothing when StopOnZeroMatch is set, or -1.
type BulkResult struct {
	Modified  []int64
	StoppedAt int
}

// Collection is a scoped handle on one table. A nil storeID marks a global
// collection.
type Collection struct {
	name    string
	db      *gorm.DB
	storeID *uuid.UUID
}

func (c *Collection) Name() string { return c.name }

func (c *Collection) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return c.db
}

// conditions merges the store predicate into f. A caller supplied store_id
// is dropped so the caller's store always wins.
func (c *Collection) conditions(f Filter) []clause.Expression {
	conds := make([]clause.Expression, 0, len(f.eq)+len(f.exprs)+1)
	if c.storeID != nil {
		conds = append(conds, clause.Eq{Column: clause.Column{Table: c.name, Name: storeColumn}, Value: *c.storeID})
	}

	keys := make([]string, 0, len(f.eq))
	for k := range f.eq {
		if c.storeID != nil && (k == storeColumn || k == c.name+"."+storeColumn) {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		conds = append(conds, clause.Eq{Column: clause.Column{Table: c.name, Name: k}, Value: f.eq[k]})
	}
	return append(conds, f.exprs...)
}

func (c *Collection) query(ctx context.Context, tx *gorm.DB, f Filter) *gorm.DB {
	q := c.conn(tx).WithContext(ctx).Table(c.name)
	if conds := c.conditions(f); len(conds) > 0 {
		q = q.Where(clause.And(conds...))
	}
	return q
}

func (c *Collection) stamp(doc any) error {
	if c.storeID == nil {
		return nil
	}
	s, ok := doc.(model.StoreScoped)
	if !ok {
		return apierror.Infrastructure(fmt.Sprintf("documento sem escopo de loja para a collection '%s'", c.name))
	}
	s.SetStoreID(*c.storeID)
	return nil
}

func (c *Collection) sanitize(updates map[string]any) map[string]any {
	if c.storeID == nil {
		return updates
	}
	out := make(map[string]any, len(updates))
	for k, v := range updates {
		if k == storeColumn {
			continue
		}
		out[k] = v
	}
	return out
}

// Find loads every row matching f into dest (a pointer to a slice).
func (c *Collection) Find(ctx context.Context, tx *gorm.DB, f Filter, dest any, opts ...QueryOption) error {
	q := c.query(ctx, tx, f)
	for _, o := range opts {
		q = o(q)
	}
	return q.Find(dest).Error
}

// FindOne loads the first row matching f. It returns apierror.ErrNotFound
// when nothing matches.
func (c *Collection) FindOne(ctx context.Context, tx *gorm.DB, f Filter, dest any, opts ...QueryOption) error {
	q := c.query(ctx, tx, f)
	for _, o := range opts {
		q = o(q)
	}
	err := q.Take(dest).Error
	if err == gorm.ErrRecordNotFound {
		return apierror.ErrNotFound
	}
	return err
}

func (c *Collection) Count(ctx context.Context, tx *gorm.DB, f Filter) (int64, error) {
	var n int64
	err := c.query(ctx, tx, f).Count(&n).Error
	return n, err
}

// Aggregate applies the store predicate and f first, then hands the query to
// build for selects, joins and grouping, and scans the result into dest.
func (c *Collection) Aggregate(ctx context.Context, tx *gorm.DB, f Filter, build func(*gorm.DB) *gorm.DB, dest any) error {
	return build(c.query(ctx, tx, f)).Scan(dest).Error
}

// InsertOne stamps doc with the caller's store and inserts it together with
// its owned associations.
func (c *Collection) InsertOne(ctx context.Context, tx *gorm.DB, doc any) error {
	if err := c.stamp(doc); err != nil {
		return err
	}
	return c.conn(tx).WithContext(ctx).Table(c.name).Create(doc).Error
}

func (c *Collection) update(ctx context.Context, tx *gorm.DB, f Filter, updates map[string]any) *gorm.DB {
	return c.query(ctx, tx, f).Updates(c.sanitize(updates))
}

// UpdateOne applies updates to the rows matching f and returns the number of
// rows modified.
func (c *Collection) UpdateOne(ctx context.Context, tx *gorm.DB, f Filter, updates map[string]any) (int64, error) {
	res := c.update(ctx, tx, f, updates)
	return res.RowsAffected, res.Error
}

// FindOneAndUpdate applies updates and scans the updated row into dest
// (a pointer to a zero value). It reports whether a row matched.
func (c *Collection) FindOneAndUpdate(ctx context.Context, tx *gorm.DB, f Filter, updates map[string]any, dest any) (bool, error) {
	res := c.query(ctx, tx, f).Model(dest).Clauses(clause.Returning{}).Updates(c.sanitize(updates))
	return res.RowsAffected > 0, res.Error
}

// ReplaceOne overwrites every column of the row matching f with doc.
func (c *Collection) ReplaceOne(ctx context.Context, tx *gorm.DB, f Filter, doc any) (int64, error) {
	if err := c.stamp(doc); err != nil {
		return 0, err
	}
	res := c.query(ctx, tx, f).Model(doc).Select("*").Omit(clause.Associations).Updates(doc)
	return res.RowsAffected, res.Error
}

// DeleteOne removes the rows matching f. doc names the model being deleted.
func (c *Collection) DeleteOne(ctx context.Context, tx *gorm.DB, f Filter, doc any) (int64, error) {
	res := c.query(ctx, tx, f).Delete(doc)
	return res.RowsAffected, res.Error
}

// BulkWrite runs ops in order, each scoped like UpdateOne.
func (c *Collection) BulkWrite(ctx context.Context, tx *gorm.DB, ops []WriteOp, opt BulkOptions) (BulkResult, error) {
	res := BulkResult{Modified: make([]int64, 0, len(ops)), StoppedAt: -1}
	for i, op := range ops {
		n, err := c.UpdateOne(ctx, tx, op.Filter, op.Update)
		if err != nil {
			return res, fmt.Errorf("%s: bulk op %d: %w", c.name, i, err)
		}
		res.Modified = append(res.Modified, n)
		if n == 0 && opt.StopOnZeroMatch {
			res.StoppedAt = i
			return res, nil
		}
	}
	return res, nil
}
