package main

import (
	"time"
)

// User roles.
const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

// User represents a registered account.
type User struct {
	ID           string    `json:"id" db:"id"`
	FullName     string    `json:"full_name" db:"full_name"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Phone        string    `json:"phone,omitempty" db:"phone"`
	Role         string    `json:"role" db:"role"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// NewUser creates a customer account with the given credentials.
func NewUser(id, fullName, email, passwordHash, phone string) *User {
	return &User{
		ID:           id,
		FullName:     fullName,
		Email:        email,
		PasswordHash: passwordHash,
		Phone:        phone,
		Role:         RoleCustomer,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
}

// Category groups products for browsing.
type Category struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description,omitempty" db:"description"`
	IsActive    bool      `json:"is_active" db:"is_active"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// Units a product can be sold in.
var validUnits = map[string]bool{
	"kg":     true,
	"g":      true,
	"box":    true,
	"bottle": true,
	"can":    true,
	"bag":    true,
	"piece":  true,
	"combo":  true,
	"pack":   true,
}

// IsValidUnit reports whether unit is one of the recognized sale units.
func IsValidUnit(unit string) bool {
	return validUnits[unit]
}

// Product represents a purchasable item. Stock is the authoritative count of
// purchasable units and is only ever mutated through atomic increments in the
// repository, never by read-modify-write.
type Product struct {
	ID            string    `json:"id" db:"id"`
	Name          string    `json:"name" db:"name"`
	Description   string    `json:"description,omitempty" db:"description"`
	Price         int       `json:"price" db:"price"`
	Stock         int       `json:"stock" db:"stock"`
	CategoryID    string    `json:"category_id" db:"category_id"`
	ImageURL      string    `json:"image_url,omitempty" db:"image_url"`
	Unit          string    `json:"unit" db:"unit"`
	IsActive      bool      `json:"is_active" db:"is_active"`
	AverageRating float64   `json:"average_rating" db:"average_rating"`
	NumReviews    int       `json:"num_reviews" db:"num_reviews"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// InStock reports whether at least one unit is available.
func (p *Product) InStock() bool {
	return p.Stock > 0
}

// Order statuses.
const (
	OrderStatusPending   = "pending"
	OrderStatusConfirmed = "confirmed"
	OrderStatusShipping  = "shipping"
	OrderStatusDelivered = "delivered"
	OrderStatusCancelled = "cancelled"
)

// orderStatusTransitions is the fixed transition table: for each current
// status, the set of statuses an order may move to. delivered and cancelled
// are terminal.
var orderStatusTransitions = map[string][]string{
	OrderStatusPending:   {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed: {OrderStatusShipping, OrderStatusCancelled},
	OrderStatusShipping:  {OrderStatusDelivered},
	OrderStatusDelivered: {},
	OrderStatusCancelled: {},
}

// IsValidOrderStatus reports whether status names a known order status.
func IsValidOrderStatus(status string) bool {
	_, ok := orderStatusTransitions[status]
	return ok
}

// CanTransition reports whether an order may move from one status to another
// according to the transition table. cancelled -> cancelled is not an edge,
// so repeating a cancellation is rejected rather than silently accepted.
func CanTransition(from, to string) bool {
	for _, next := range orderStatusTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// OrderItem is an immutable snapshot of one product line at order-creation
// time. Price and unit are captured from the product when the order is placed
// and stay fixed regardless of later product changes. ProductName and
// ImageURL are display fields filled from a join on reads.
type OrderItem struct {
	ProductID   string `json:"product_id" db:"product_id"`
	ProductName string `json:"product_name,omitempty" db:"product_name"`
	ImageURL    string `json:"image_url,omitempty" db:"image_url"`
	Quantity    int    `json:"quantity" db:"quantity"`
	Price       int    `json:"price" db:"price"`
	Unit        string `json:"unit" db:"unit"`
}

// Order represents a placed order. Items are immutable after creation and
// TotalAmount is always recomputed from them.
type Order struct {
	ID              string      `json:"id" db:"id"`
	UserID          string      `json:"user_id" db:"user_id"`
	UserName        string      `json:"user_name,omitempty" db:"user_name"`
	UserEmail       string      `json:"user_email,omitempty" db:"user_email"`
	Items           []OrderItem `json:"items"`
	TotalAmount     int         `json:"total_amount" db:"total_amount"`
	Status          string      `json:"status" db:"status"`
	ShippingAddress string      `json:"shipping_address" db:"shipping_address"`
	Note            string      `json:"note,omitempty" db:"note"`
	CreatedAt       time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at" db:"updated_at"`
}

// NewOrder creates a pending order for the given user with the item snapshots
// already resolved. The total is computed from the items.
func NewOrder(id, userID string, items []OrderItem, shippingAddress, note string) *Order {
	o := &Order{
		ID:              id,
		UserID:          userID,
		Items:           items,
		Status:          OrderStatusPending,
		ShippingAddress: shippingAddress,
		Note:            note,
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	}
	o.TotalAmount = o.ComputeTotal()
	return o
}

// ComputeTotal returns the sum of price*quantity over the order's items.
func (o *Order) ComputeTotal() int {
	total := 0
	for _, item := range o.Items {
		total += item.Price * item.Quantity
	}
	return total
}

// Review is one user's rating of a product. A user may review a product at
// most once.
type Review struct {
	ID        string    `json:"id" db:"id"`
	ProductID string    `json:"product_id" db:"product_id"`
	UserID    string    `json:"user_id" db:"user_id"`
	UserName  string    `json:"user_name,omitempty" db:"user_name"`
	Rating    int       `json:"rating" db:"rating"`
	Comment   string    `json:"comment,omitempty" db:"comment"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// CartItem is one product line in a user's cart. Carts have no stock effects;
// stock is only touched when an order is placed.
type CartItem struct {
	ProductID   string `json:"product_id" db:"product_id"`
	ProductName string `json:"product_name,omitempty" db:"product_name"`
	Price       int    `json:"price" db:"price"`
	Unit        string `json:"unit,omitempty" db:"unit"`
	Quantity    int    `json:"quantity" db:"quantity"`
}

// Cart holds a user's current cart contents.
type Cart struct {
	UserID string     `json:"user_id"`
	Items  []CartItem `json:"items"`
}

// Subtotal returns the current price sum of the cart (not a snapshot).
func (c *Cart) Subtotal() int {
	total := 0
	for _, item := range c.Items {
		total += item.Price * item.Quantity
	}
	return total
}
