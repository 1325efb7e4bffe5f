package enums

// OrderStatus tracks the lifecycle of a single-product order.
type OrderStatus string

// Every persisted order is confirmed; removal deletes the row.
const OrderStatusConfirmed OrderStatus = "confirmed"

// String implements fmt.Stringer.
func (o OrderStatus) String() string {
	return string(o)
}
