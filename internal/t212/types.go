package t212

import (
	"fmt"
	"strings"
)

// TimeValidity constrains how long an order stays active.
type TimeValidity string

const (
	TimeValidityDay            TimeValidity = "DAY"
	TimeValidityGoodTillCancel TimeValidity = "GOOD_TILL_CANCEL"
)

// ValidTimeValidity reports whether s is in the closed accepted set.
func ValidTimeValidity(s string) bool {
	switch TimeValidity(s) {
	case TimeValidityDay, TimeValidityGoodTillCancel:
		return true
	}
	return false
}

// DividendCashAction selects what a pie does with incoming dividends.
type DividendCashAction string

const (
	DividendReinvest      DividendCashAction = "REINVEST"
	DividendToAccountCash DividendCashAction = "TO_ACCOUNT_CASH"
)

// ValidDividendCashAction reports whether s is in the closed accepted set.
func ValidDividendCashAction(s string) bool {
	switch DividendCashAction(s) {
	case DividendReinvest, DividendToAccountCash:
		return true
	}
	return false
}

// AccountInfo is the response of GET /equity/account/info.
type AccountInfo struct {
	ID           int64  `json:"id"`
	CurrencyCode string `json:"currencyCode"`
}

func (a *AccountInfo) Validate() error {
	if a.CurrencyCode == "" {
		return fmt.Errorf("currencyCode is empty")
	}
	return nil
}

// AccountCash is the response of GET /equity/account/cash. Result is a
// profit/loss figure and can legitimately be negative.
type AccountCash struct {
	Free     float64  `json:"free"`
	Total    float64  `json:"total"`
	Invested float64  `json:"invested"`
	Result   float64  `json:"result"`
	PieCash  float64  `json:"pieCash"`
	Ppl      float64  `json:"ppl"`
	Blocked  *float64 `json:"blocked"`
}

// Position is one holding in GET /equity/portfolio.
type Position struct {
	Ticker          string   `json:"ticker"`
	Quantity        float64  `json:"quantity"`
	AveragePrice    float64  `json:"averagePrice"`
	CurrentPrice    float64  `json:"currentPrice"`
	Ppl             float64  `json:"ppl"`
	FxPpl           *float64 `json:"fxPpl"`
	InitialFillDate string   `json:"initialFillDate"`
	Frontend        string   `json:"frontend"`
	MaxBuy          float64  `json:"maxBuy"`
	MaxSell         float64  `json:"maxSell"`
	PieQuantity     float64  `json:"pieQuantity"`
}

func (p *Position) Validate() error {
	if p.Ticker == "" {
		return fmt.Errorf("ticker is empty")
	}
	return nil
}

// Order is an equity order, returned by both the pending-order and the
// placement endpoints.
type Order struct {
	ID             int64        `json:"id"`
	Ticker         string       `json:"ticker"`
	Type           string       `json:"type"`
	Status         string       `json:"status"`
	Quantity       float64      `json:"quantity"`
	FilledQuantity float64      `json:"filledQuantity"`
	FilledValue    *float64     `json:"filledValue"`
	LimitPrice     *float64     `json:"limitPrice"`
	StopPrice      *float64     `json:"stopPrice"`
	TimeValidity   TimeValidity `json:"timeValidity,omitempty"`
	Value          *float64     `json:"value"`
	CreationTime   string       `json:"creationTime"`
	Strategy       string       `json:"strategy,omitempty"`
}

func (o *Order) Validate() error {
	if o.ID == 0 {
		return fmt.Errorf("id is zero")
	}
	if o.Ticker == "" {
		return fmt.Errorf("ticker is empty")
	}
	if o.Type == "" {
		return fmt.Errorf("type is empty")
	}
	return nil
}

// Instrument is one tradable instrument from the metadata catalog.
type Instrument struct {
	Ticker            string  `json:"ticker"`
	Type              string  `json:"type"`
	ISIN              string  `json:"isin"`
	CurrencyCode      string  `json:"currencyCode"`
	Name              string  `json:"name"`
	ShortName         string  `json:"shortName"`
	MinTradeQuantity  float64 `json:"minTradeQuantity"`
	MaxOpenQuantity   float64 `json:"maxOpenQuantity"`
	AddedOn           string  `json:"addedOn"`
	WorkingScheduleID int64   `json:"workingScheduleId"`
}

func (i *Instrument) Validate() error {
	if i.Ticker == "" {
		return fmt.Errorf("ticker is empty")
	}
	return nil
}

// Matches reports whether query case-insensitively matches the ticker,
// name, short name, or ISIN. An empty query matches everything.
func (i *Instrument) Matches(query string) bool {
	if query == "" {
		return true
	}
	query = strings.ToLower(query)
	for _, field := range []string{i.Ticker, i.Name, i.ShortName, i.ISIN} {
		if strings.Contains(strings.ToLower(field), query) {
			return true
		}
	}
	return false
}

// Exchange is one venue from the metadata catalog.
type Exchange struct {
	ID               int64             `json:"id"`
	Name             string            `json:"name"`
	WorkingSchedules []WorkingSchedule `json:"workingSchedules,omitempty"`
}

func (e *Exchange) Validate() error {
	if e.Name == "" {
		return fmt.Errorf("name is empty")
	}
	return nil
}

// WorkingSchedule is an exchange trading calendar.
type WorkingSchedule struct {
	ID         int64       `json:"id"`
	TimeEvents []TimeEvent `json:"timeEvents,omitempty"`
}

// TimeEvent is one open/close transition in a working schedule.
type TimeEvent struct {
	Date string `json:"date"`
	Type string `json:"type"`
}

// Pie is one entry in GET /equity/pies.
type Pie struct {
	ID              int64            `json:"id"`
	Cash            float64          `json:"cash"`
	Progress        *float64         `json:"progress"`
	Status          *string          `json:"status"`
	DividendDetails *DividendDetails `json:"dividendDetails"`
	Result          *PieResult       `json:"result"`
}

func (p *Pie) Validate() error {
	if p.ID == 0 {
		return fmt.Errorf("id is zero")
	}
	return nil
}

// DividendDetails summarizes dividend handling inside a pie.
type DividendDetails struct {
	Gained     float64 `json:"gained"`
	Reinvested float64 `json:"reinvested"`
	InCash     float64 `json:"inCash"`
}

// PieResult aggregates performance figures for a pie or a pie slice.
type PieResult struct {
	InvestedValue float64 `json:"priceAvgInvestedValue"`
	Value         float64 `json:"priceAvgValue"`
	Result        float64 `json:"priceAvgResult"`
	ResultCoef    float64 `json:"priceAvgResultCoef"`
}

// PieDetail is the response of GET /equity/pies/{id}: the holdings plus
// the pie's settings.
type PieDetail struct {
	Instruments []PieInstrument `json:"instruments"`
	Settings    PieSettings     `json:"settings"`
}

func (p *PieDetail) Validate() error {
	if p.Settings.ID == 0 {
		return fmt.Errorf("settings.id is zero")
	}
	for i := range p.Instruments {
		if p.Instruments[i].Ticker == "" {
			return fmt.Errorf("instruments[%d].ticker is empty", i)
		}
	}
	return nil
}

// PieInstrument is one slice of a pie.
type PieInstrument struct {
	Ticker        string     `json:"ticker"`
	ExpectedShare float64    `json:"expectedShare"`
	CurrentShare  float64    `json:"currentShare"`
	OwnedQuantity float64    `json:"ownedQuantity"`
	Issues        []PieIssue `json:"issues,omitempty"`
	Result        *PieResult `json:"result"`
}

// PieIssue flags a problem with one pie slice.
type PieIssue struct {
	Name     string `json:"name"`
	Severity string `json:"severity"`
}

// PieSettings is the configuration half of a pie.
type PieSettings struct {
	ID                 int64              `json:"id"`
	Name               string             `json:"name"`
	Icon               *string            `json:"icon"`
	Goal               *float64           `json:"goal"`
	DividendCashAction DividendCashAction `json:"dividendCashAction"`
	EndDate            *string            `json:"endDate"`
	InitialInvestment  *float64           `json:"initialInvestment"`
	InstrumentShares   map[string]float64 `json:"instrumentShares"`
	PubliclyAvailable  *bool              `json:"publiclyAvailable"`
}

// PieRequest is the body for the pie create and update calls. Every field is
// omitempty so a partial update only sends what the caller provided.
type PieRequest struct {
	Name               string             `json:"name,omitempty"`
	DividendCashAction DividendCashAction `json:"dividendCashAction,omitempty"`
	InstrumentShares   map[string]float64 `json:"instrumentShares,omitempty"`
	Icon               string             `json:"icon,omitempty"`
	Goal               *float64           `json:"goal,omitempty"`
	EndDate            *string            `json:"endDate,omitempty"`
}

// MarketOrderRequest is the body for POST /equity/orders/market.
type MarketOrderRequest struct {
	Ticker       string       `json:"ticker"`
	Quantity     float64      `json:"quantity"`
	TimeValidity TimeValidity `json:"timeValidity"`
}

// LimitOrderRequest is the body for POST /equity/orders/limit.
type LimitOrderRequest struct {
	Ticker       string       `json:"ticker"`
	Quantity     float64      `json:"quantity"`
	LimitPrice   float64      `json:"limitPrice"`
	TimeValidity TimeValidity `json:"timeValidity"`
}

// StopOrderRequest is the body for POST /equity/orders/stop.
type StopOrderRequest struct {
	Ticker       string       `json:"ticker"`
	Quantity     float64      `json:"quantity"`
	StopPrice    float64      `json:"stopPrice"`
	TimeValidity TimeValidity `json:"timeValidity"`
}

// StopLimitOrderRequest is the body for POST /equity/orders/stop_limit.
type StopLimitOrderRequest struct {
	Ticker       string       `json:"ticker"`
	Quantity     float64      `json:"quantity"`
	LimitPrice   float64      `json:"limitPrice"`
	StopPrice    float64      `json:"stopPrice"`
	TimeValidity TimeValidity `json:"timeValidity"`
}

// HistoryOrder is one item in GET /equity/history/orders.
type HistoryOrder struct {
	ID              int64        `json:"id"`
	Ticker          string       `json:"ticker"`
	Type            string       `json:"type"`
	Status          string       `json:"status"`
	OrderedQuantity float64      `json:"orderedQuantity"`
	FilledQuantity  float64      `json:"filledQuantity"`
	OrderedValue    *float64     `json:"orderedValue"`
	FilledValue     *float64     `json:"filledValue"`
	LimitPrice      *float64     `json:"limitPrice"`
	StopPrice       *float64     `json:"stopPrice"`
	TimeValidity    TimeValidity `json:"timeValidity,omitempty"`
	FillPrice       *float64     `json:"fillPrice"`
	FillCost        *float64     `json:"fillCost"`
	FillType        string       `json:"fillType,omitempty"`
	Executor        string       `json:"executor,omitempty"`
	DateCreated     string       `json:"dateCreated"`
	DateModified    string       `json:"dateModified,omitempty"`
	DateExecuted    string       `json:"dateExecuted,omitempty"`
	Taxes           []Tax        `json:"taxes,omitempty"`
}

func (o *HistoryOrder) Validate() error {
	if o.ID == 0 {
		return fmt.Errorf("id is zero")
	}
	if o.Ticker == "" {
		return fmt.Errorf("ticker is empty")
	}
	return nil
}

// Tax is one charge applied to a filled order.
type Tax struct {
	FillID      string  `json:"fillId"`
	Name        string  `json:"name"`
	Quantity    float64 `json:"quantity"`
	TimeCharged string  `json:"timeCharged"`
}

// Dividend is one item in GET /history/dividends.
type Dividend struct {
	Ticker              string  `json:"ticker"`
	Reference           string  `json:"reference"`
	Quantity            float64 `json:"quantity"`
	Amount              float64 `json:"amount"`
	GrossAmountPerShare float64 `json:"grossAmountPerShare"`
	AmountInEuro        float64 `json:"amountInEuro"`
	PaidOn              string  `json:"paidOn"`
	Type                string  `json:"type"`
}

func (d *Dividend) Validate() error {
	if d.Ticker == "" {
		return fmt.Errorf("ticker is empty")
	}
	return nil
}

// Transaction is one item in GET /history/transactions.
type Transaction struct {
	Type      string  `json:"type"`
	Amount    float64 `json:"amount"`
	Reference string  `json:"reference"`
	DateTime  string  `json:"dateTime"`
}

func (t *Transaction) Validate() error {
	if t.Type == "" {
		return fmt.Errorf("type is empty")
	}
	return nil
}

// ExportDataIncluded selects the categories included in a CSV export.
type ExportDataIncluded struct {
	IncludeDividends    bool `json:"includeDividends"`
	IncludeInterest     bool `json:"includeInterest"`
	IncludeOrders       bool `json:"includeOrders"`
	IncludeTransactions bool `json:"includeTransactions"`
}

// ExportRequest is the body for POST /history/exports. Timestamps are
// RFC 3339 strings.
type ExportRequest struct {
	TimeFrom     string             `json:"timeFrom"`
	TimeTo       string             `json:"timeTo"`
	DataIncluded ExportDataIncluded `json:"dataIncluded"`
}

// ExportResponse acknowledges a queued export.
type ExportResponse struct {
	ReportID int64 `json:"reportId"`
}

func (e *ExportResponse) Validate() error {
	if e.ReportID == 0 {
		return fmt.Errorf("reportId is zero")
	}
	return nil
}

// Paged wraps the cursor-paginated history responses.
type Paged[T any] struct {
	Items        []T     `json:"items"`
	NextPagePath *string `json:"nextPagePath"`
}

// Validate checks every item that carries its own validation.
func (p *Paged[T]) Validate() error {
	for i := range p.Items {
		if v, ok := any(&p.Items[i]).(interface{ Validate() error }); ok {
			if err := v.Validate(); err != nil {
				return fmt.Errorf("items[%d]: %w", i, err)
			}
		}
	}
	return nil
}

// Validated list aliases so the pipeline can check array responses the
// same way it checks single entities.
type (
	positionList   []Position
	orderList      []Order
	instrumentList []Instrument
	exchangeList   []Exchange
	pieList        []Pie
)

func (l positionList) Validate() error {
	for i := range l {
		if err := l[i].Validate(); err != nil {
			return fmt.Errorf("[%d]: %w", i, err)
		}
	}
	return nil
}

func (l orderList) Validate() error {
	for i := range l {
		if err := l[i].Validate(); err != nil {
			return fmt.Errorf("[%d]: %w", i, err)
		}
	}
	return nil
}

func (l instrumentList) Validate() error {
	for i := range l {
		if err := l[i].Validate(); err != nil {
			return fmt.Errorf("[%d]: %w", i, err)
		}
	}
	return nil
}

func (l exchangeList) Validate() error {
	for i := range l {
		if err := l[i].Validate(); err != nil {
			return fmt.Errorf("[%d]: %w", i, err)
		}
	}
	return nil
}

func (l pieList) Validate() error {
	for i := range l {
		if err := l[i].Validate(); err != nil {
			return fmt.Errorf("[%d]: %w", i, err)
		}
	}
	return nil
}
