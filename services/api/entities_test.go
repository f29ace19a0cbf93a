package main

import (
	"testing"
)

func TestNewOrderComputesTotal(t *testing.T) {
	// Arrange
	items := []OrderItem{
		{ProductID: "p1", Quantity: 2, Price: 50000, Unit: "kg"},
		{ProductID: "p2", Quantity: 1, Price: 30000, Unit: "box"},
	}

	// Act
	order := NewOrder("order-1", "user-1", items, "12 Market Street", "")

	// Assert
	if order.TotalAmount != 130000 {
		t.Errorf("Expected total 130000, got %d", order.TotalAmount)
	}
	if order.Status != OrderStatusPending {
		t.Errorf("Expected status %s, got %s", OrderStatusPending, order.Status)
	}
	if order.CreatedAt.IsZero() || order.UpdatedAt.IsZero() {
		t.Error("Expected timestamps to be set")
	}
}

func TestComputeTotalMatchesItems(t *testing.T) {
	order := &Order{Items: []OrderItem{
		{Quantity: 3, Price: 1000},
		{Quantity: 5, Price: 200},
	}}
	if got := order.ComputeTotal(); got != 4000 {
		t.Errorf("Expected 4000, got %d", got)
	}

	order.Items = nil
	if got := order.ComputeTotal(); got != 0 {
		t.Errorf("Expected 0 for no items, got %d", got)
	}
}

func TestCanTransitionMatrix(t *testing.T) {
	statuses := []string{
		OrderStatusPending,
		OrderStatusConfirmed,
		OrderStatusShipping,
		OrderStatusDelivered,
		OrderStatusCancelled,
	}

	allowed := map[string]map[string]bool{
		OrderStatusPending:   {OrderStatusConfirmed: true, OrderStatusCancelled: true},
		OrderStatusConfirmed: {OrderStatusShipping: true, OrderStatusCancelled: true},
		OrderStatusShipping:  {OrderStatusDelivered: true},
		OrderStatusDelivered: {},
		OrderStatusCancelled: {},
	}

	for _, from := range statuses {
		for _, to := range statuses {
			want := allowed[from][to]
			if got := CanTransition(from, to); got != want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestTerminalStatesRejectEverything(t *testing.T) {
	for _, terminal := range []string{OrderStatusDelivered, OrderStatusCancelled} {
		for to := range orderStatusTransitions {
			if CanTransition(terminal, to) {
				t.Errorf("Expected %s -> %s to be rejected", terminal, to)
			}
		}
	}
}

func TestIsValidOrderStatus(t *testing.T) {
	for status := range orderStatusTransitions {
		if !IsValidOrderStatus(status) {
			t.Errorf("Expected %s to be a valid status", status)
		}
	}
	if IsValidOrderStatus("refunded") {
		t.Error("Expected 'refunded' to be invalid")
	}
	if IsValidOrderStatus("") {
		t.Error("Expected empty status to be invalid")
	}
}

func TestIsValidUnit(t *testing.T) {
	for _, unit := range []string{"kg", "box", "bottle", "piece"} {
		if !IsValidUnit(unit) {
			t.Errorf("Expected unit %q to be valid", unit)
		}
	}
	if IsValidUnit("barrel") {
		t.Error("Expected 'barrel' to be invalid")
	}
}

func TestNewUserDefaultsToCustomer(t *testing.T) {
	user := NewUser("u1", "Alice Tran", "alice@example.com", "hash", "")
	if user.Role != RoleCustomer {
		t.Errorf("Expected role %s, got %s", RoleCustomer, user.Role)
	}
}

func TestCartSubtotal(t *testing.T) {
	cart := &Cart{Items: []CartItem{
		{Price: 15000, Quantity: 2},
		{Price: 8000, Quantity: 1},
	}}
	if got := cart.Subtotal(); got != 38000 {
		t.Errorf("Expected subtotal 38000, got %d", got)
	}
}
