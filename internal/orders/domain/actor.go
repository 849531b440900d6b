package domain

type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

// Actor is the authenticated caller of a use case.
type Actor struct {
	UserID string
	Email  string
	Role   Role
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// Owns reports whether the order was placed by the actor.
func (a Actor) Owns(order *Order) bool {
	return order != nil && a.UserID != "" && order.CustomerID == a.UserID
}

// CanView reports whether the actor may read or act on the order.
func (a Actor) CanView(order *Order) bool {
	return a.IsAdmin() || a.Owns(order)
}
