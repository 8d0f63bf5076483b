package domain

// BookUpdate carries the full resting state of one asset's book, published
// after every matching cycle for the broadcast path to aggregate.
type BookUpdate struct {
	Asset      string  `json:"asset"`
	BuyOrders  []Order `json:"buyOrders"`
	SellOrders []Order `json:"sellOrders"`
}
