// model/item.go
package model

import "time"

type ItemStatus string

const (
	ItemAvailable   ItemStatus = "AVAILABLE"
	ItemUnavailable ItemStatus = "UNAVAILABLE"
)

type Item struct {
	ID            int64      `json:"id"`
	Name          string     `json:"name"`
	Description   string     `json:"description"`
	StockQuantity int        `json:"stock_quantity"`
	Status        ItemStatus `json:"status"`
	PartnerID     int64      `json:"partner_id"`
	DailyPrice    int64      `json:"daily_price"`
	CreatedAt     time.Time  `json:"created_at"`
}
