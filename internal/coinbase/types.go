package coinbase

// Wire types for the exchange REST surface. All numeric fields arrive as
// strings and are parsed into decimals at the gateway boundary.

type serverTime struct {
	ISO   string  `json:"iso"`
	Epoch float64 `json:"epoch"`
}

type accountResponse struct {
	ID        string `json:"id"`
	Currency  string `json:"currency"`
	Balance   string `json:"balance"`
	Available string `json:"available"`
	Hold      string `json:"hold"`
	ProfileID string `json:"profile_id"`
}

type productTicker struct {
	TradeID int64  `json:"trade_id"`
	Price   string `json:"price"`
	Size    string `json:"size"`
	Bid     string `json:"bid"`
	Ask     string `json:"ask"`
	Volume  string `json:"volume"`
	Time    string `json:"time"`
}

type orderRequest struct {
	ClientOID string `json:"client_oid"`
	ProductID string `json:"product_id"`
	Type      string `json:"type"`
	Side      string `json:"side"`
	Funds     string `json:"funds,omitempty"`
	Size      string `json:"size,omitempty"`
}

type orderResponse struct {
	ID            string `json:"id"`
	ProductID     string `json:"product_id"`
	Side          string `json:"side"`
	Type          string `json:"type"`
	Status        string `json:"status"`
	Settled       bool   `json:"settled"`
	FilledSize    string `json:"filled_size"`
	ExecutedValue string `json:"executed_value"`
	FillFees      string `json:"fill_fees"`
	Funds         string `json:"funds"`
	Size          string `json:"size"`
}

type apiError struct {
	Message string `json:"message"`
}
