package storage

import (
	"sort"
	"sync"

	"github.com/oakline/storefront/models"
)

// MemoryStore is an in-memory Store. Transactions are copy-on-write: fn
// runs against a clone of the data and the clone replaces the live data
// only when fn returns nil, so a failed scope leaves no trace. The mutex
// is held for the whole transaction, which makes scopes serializable.
//
// It backs the service tests; nothing in it is test-only, so it can also
// serve as a throwaway dev store.
type MemoryStore struct {
	mu   sync.Mutex
	data *memData
}

type memData struct {
	products     map[uint]*models.Product
	carts        map[uint]*models.Cart
	cartIDByUser map[uint]uint
	orders       map[uint]*models.Order
	seq          map[string]uint
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: newMemData()}
}

func newMemData() *memData {
	return &memData{
		products:     make(map[uint]*models.Product),
		carts:        make(map[uint]*models.Cart),
		cartIDByUser: make(map[uint]uint),
		orders:       make(map[uint]*models.Order),
		seq:          make(map[string]uint),
	}
}

func (d *memData) clone() *memData {
	c := newMemData()
	for id, p := range d.products {
		cp := *p
		c.products[id] = &cp
	}
	for id, cart := range d.carts {
		cc := *cart
		cc.Items = make([]models.CartItem, len(cart.Items))
		copy(cc.Items, cart.Items)
		c.carts[id] = &cc
	}
	for uid, cid := range d.cartIDByUser {
		c.cartIDByUser[uid] = cid
	}
	for id, o := range d.orders {
		co := *o
		co.Details = make([]models.OrderDetail, len(o.Details))
		copy(co.Details, o.Details)
		c.orders[id] = &co
	}
	for k, v := range d.seq {
		c.seq[k] = v
	}
	return c
}

func (d *memData) nextID(kind string) uint {
	d.seq[kind]++
	return d.seq[kind]
}

// --- Store implementation (MemoryStore locks, memTx does not) ---

func (m *MemoryStore) InTransaction(fn func(tx Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := m.data.clone()
	if err := fn(&memTx{data: clone}); err != nil {
		return err
	}
	m.data = clone
	return nil
}

func (m *MemoryStore) ProductByID(id uint) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.productByID(id)
}

func (m *MemoryStore) SetProductStock(id uint, stock int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.setProductStock(id, stock)
}

func (m *MemoryStore) CartForUser(userID uint) (*models.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.cartForUser(userID)
}

func (m *MemoryStore) CartWithItems(userID uint) (*models.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.cartWithItems(userID)
}

func (m *MemoryStore) CartItem(cartID, productID uint) (*models.CartItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.cartItem(cartID, productID)
}

func (m *MemoryStore) SaveCartItem(item *models.CartItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.saveCartItem(item)
}

func (m *MemoryStore) DeleteCartItem(cartID, productID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.deleteCartItem(cartID, productID)
}

func (m *MemoryStore) ClearCartItems(cartID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.clearCartItems(cartID)
}

func (m *MemoryStore) CreateOrder(order *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.createOrder(order)
}

func (m *MemoryStore) OrderWithDetails(orderID uint) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.orderWithDetails(orderID)
}

func (m *MemoryStore) OrdersForUser(userID uint) ([]models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.ordersForUser(userID)
}

func (m *MemoryStore) AllOrders() ([]models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.allOrders()
}

func (m *MemoryStore) SetOrderStatus(orderID uint, status models.OrderStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.setOrderStatus(orderID, status)
}

// SeedProduct inserts or replaces a product, assigning an ID when absent.
func (m *MemoryStore) SeedProduct(p models.Product) models.Product {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == 0 {
		p.ID = m.data.nextID("product")
	}
	cp := p
	m.data.products[p.ID] = &cp
	return p
}

// SeedOrder inserts an order with its details, assigning IDs.
func (m *MemoryStore) SeedOrder(o models.Order) models.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.data.createOrder(&o); err != nil {
		panic(err) // cannot happen: createOrder never fails in memory
	}
	return o
}

// memTx is the view handed to InTransaction callbacks. It shares the
// MemoryStore method set but operates on the cloned data without locking;
// the owning store holds the mutex for the whole scope.
type memTx struct {
	data *memData
}

func (t *memTx) InTransaction(fn func(tx Store) error) error { return fn(t) }

func (t *memTx) ProductByID(id uint) (*models.Product, error) { return t.data.productByID(id) }
func (t *memTx) SetProductStock(id uint, stock int) error     { return t.data.setProductStock(id, stock) }
func (t *memTx) CartForUser(userID uint) (*models.Cart, error) {
	return t.data.cartForUser(userID)
}
func (t *memTx) CartWithItems(userID uint) (*models.Cart, error) {
	return t.data.cartWithItems(userID)
}
func (t *memTx) CartItem(cartID, productID uint) (*models.CartItem, error) {
	return t.data.cartItem(cartID, productID)
}
func (t *memTx) SaveCartItem(item *models.CartItem) error { return t.data.saveCartItem(item) }
func (t *memTx) DeleteCartItem(cartID, productID uint) error {
	return t.data.deleteCartItem(cartID, productID)
}
func (t *memTx) ClearCartItems(cartID uint) error      { return t.data.clearCartItems(cartID) }
func (t *memTx) CreateOrder(order *models.Order) error { return t.data.createOrder(order) }
func (t *memTx) OrderWithDetails(orderID uint) (*models.Order, error) {
	return t.data.orderWithDetails(orderID)
}
func (t *memTx) OrdersForUser(userID uint) ([]models.Order, error) {
	return t.data.ordersForUser(userID)
}
func (t *memTx) AllOrders() ([]models.Order, error) { return t.data.allOrders() }
func (t *memTx) SetOrderStatus(orderID uint, status models.OrderStatus) error {
	return t.data.setOrderStatus(orderID, status)
}

// --- operations ---

func (d *memData) productByID(id uint) (*models.Product, error) {
	p, ok := d.products[id]
	if !ok {
		return nil, models.ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (d *memData) setProductStock(id uint, stock int) error {
	p, ok := d.products[id]
	if !ok {
		return models.ErrProductNotFound
	}
	p.Stock = stock
	return nil
}

func (d *memData) cartForUser(userID uint) (*models.Cart, error) {
	if cid, ok := d.cartIDByUser[userID]; ok {
		cp := *d.carts[cid]
		cp.Items = nil
		return &cp, nil
	}
	cart := &models.Cart{ID: d.nextID("cart"), UserID: userID}
	d.carts[cart.ID] = cart
	d.cartIDByUser[userID] = cart.ID
	cp := *cart
	return &cp, nil
}

func (d *memData) cartWithItems(userID uint) (*models.Cart, error) {
	cid, ok := d.cartIDByUser[userID]
	if !ok {
		return nil, ErrCartNotFound
	}
	cart := d.carts[cid]
	cp := *cart
	cp.Items = make([]models.CartItem, len(cart.Items))
	for i, item := range cart.Items {
		cp.Items[i] = item
		if p, ok := d.products[item.ProductID]; ok {
			pc := *p
			cp.Items[i].Product = &pc
		}
	}
	return &cp, nil
}

func (d *memData) cartItem(cartID, productID uint) (*models.CartItem, error) {
	cart, ok := d.carts[cartID]
	if !ok {
		return nil, ErrCartItemNotFound
	}
	for _, item := range cart.Items {
		if item.ProductID == productID {
			cp := item
			return &cp, nil
		}
	}
	return nil, ErrCartItemNotFound
}

func (d *memData) saveCartItem(item *models.CartItem) error {
	cart, ok := d.carts[item.CartID]
	if !ok {
		return ErrCartNotFound
	}
	stored := *item
	stored.Product = nil
	for i := range cart.Items {
		if cart.Items[i].ProductID == item.ProductID {
			stored.ID = cart.Items[i].ID
			cart.Items[i] = stored
			return nil
		}
	}
	if stored.ID == 0 {
		stored.ID = d.nextID("cart_item")
	}
	cart.Items = append(cart.Items, stored)
	item.ID = stored.ID
	return nil
}

func (d *memData) deleteCartItem(cartID, productID uint) error {
	cart, ok := d.carts[cartID]
	if !ok {
		return ErrCartItemNotFound
	}
	for i := range cart.Items {
		if cart.Items[i].ProductID == productID {
			cart.Items = append(cart.Items[:i], cart.Items[i+1:]...)
			return nil
		}
	}
	return ErrCartItemNotFound
}

func (d *memData) clearCartItems(cartID uint) error {
	cart, ok := d.carts[cartID]
	if !ok {
		return ErrCartNotFound
	}
	cart.Items = nil
	return nil
}

func (d *memData) createOrder(order *models.Order) error {
	if order.ID == 0 {
		order.ID = d.nextID("order")
	}
	stored := *order
	stored.Details = make([]models.OrderDetail, len(order.Details))
	for i, detail := range order.Details {
		if detail.ID == 0 {
			detail.ID = d.nextID("order_detail")
		}
		detail.OrderID = order.ID
		detail.Product = nil
		stored.Details[i] = detail
		order.Details[i] = detail
	}
	d.orders[order.ID] = &stored
	return nil
}

func (d *memData) orderWithDetails(orderID uint) (*models.Order, error) {
	order, ok := d.orders[orderID]
	if !ok {
		return nil, ErrOrderNotFound
	}
	return d.copyOrder(order), nil
}

func (d *memData) ordersForUser(userID uint) ([]models.Order, error) {
	var orders []models.Order
	for _, o := range d.orders {
		if o.UserID == userID {
			orders = append(orders, *d.copyOrder(o))
		}
	}
	sortOrders(orders)
	return orders, nil
}

func (d *memData) allOrders() ([]models.Order, error) {
	orders := make([]models.Order, 0, len(d.orders))
	for _, o := range d.orders {
		orders = append(orders, *d.copyOrder(o))
	}
	sortOrders(orders)
	return orders, nil
}

func (d *memData) setOrderStatus(orderID uint, status models.OrderStatus) error {
	order, ok := d.orders[orderID]
	if !ok {
		return ErrOrderNotFound
	}
	order.Status = status
	return nil
}

func (d *memData) copyOrder(order *models.Order) *models.Order {
	cp := *order
	cp.Details = make([]models.OrderDetail, len(order.Details))
	for i, detail := range order.Details {
		cp.Details[i] = detail
		if p, ok := d.products[detail.ProductID]; ok {
			pc := *p
			cp.Details[i].Product = &pc
		}
	}
	return &cp
}

// Newest first, ties broken by ID so listings are stable.
func sortOrders(orders []models.Order) {
	sort.Slice(orders, func(i, j int) bool {
		if orders[i].OrderDate.Equal(orders[j].OrderDate) {
			return orders[i].ID > orders[j].ID
		}
		return orders[i].OrderDate.After(orders[j].OrderDate)
	})
}
