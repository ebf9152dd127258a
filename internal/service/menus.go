package service

// Main-menu labels. The bot routes plain-text messages on these, so the
// constants live in the core rather than the transport adapter.
const (
	MenuAddRestaurant    = "Add Restaurant"
	MenuAddMenuItem      = "Add Menu Item"
	MenuCreateGroupOrder = "Create Group Order"
	MenuViewGroupOrders  = "View Group Orders"

	MenuJoinOrders    = "Join Existing Orders"
	MenuMyGroupOrders = "View My Group Orders"
)

func AdminMenu() *Keyboard {
	return &Keyboard{Reply: [][]string{
		{MenuAddRestaurant, MenuAddMenuItem},
		{MenuCreateGroupOrder, MenuViewGroupOrders},
	}}
}

func WorkerMenu() *Keyboard {
	return &Keyboard{Reply: [][]string{
		{MenuJoinOrders, MenuMyGroupOrders},
	}}
}
