package item

type UpsertItemReq struct {
	Name          string `json:"name" validate:"required"`
	Description   string `json:"description"`
	StockQuantity int    `json:"stock_quantity" validate:"gte=0"`
	Status        string `json:"status" validate:"omitempty,oneof=AVAILABLE UNAVAILABLE"`
	DailyPrice    int64  `json:"daily_price" validate:"gte=0"`
}
