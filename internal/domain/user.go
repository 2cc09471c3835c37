package domain

import "time"

// User is the domain model for customers who place orders.
type User struct {
	ID           int64
	Name         string
	Email        string
	Password     string
	Address      string
	Phone        string
	RegisteredAt time.Time
}
