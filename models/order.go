package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/kendall-kelly/maintenance-orders-api/utils"
)

// OrderStatus is the signing state of an order
type OrderStatus string

const (
	StatusPending OrderStatus = "pending" // 待簽名
	StatusSigned  OrderStatus = "signed"  // 已簽名
)

const (
	// MaxAmount is the largest amount an order may carry
	MaxAmount = 1000000
	// MinReasonLength is the minimum reason length in characters
	MinReasonLength = 5
	// MaxPhotos is the maximum number of photos attached to one order
	MaxPhotos = 10
)

// Photo is an image attached to an order, kept inline as a data URI
type Photo struct {
	ID           string    `json:"id"`
	OriginalName string    `json:"originalName"`
	MimeType     string    `json:"mimeType"`
	SizeBytes    int64     `json:"sizeBytes"`
	DataURI      string    `json:"dataUri"`
	UploadedAt   time.Time `json:"uploadedAt"`
}

// Order represents one maintenance work order
type Order struct {
	OrderNumber   string      `json:"orderNumber"` // YYYYMMDD-NNNN, primary key
	Date          string      `json:"date"`        // service date, YYYY-MM-DD
	Site          string      `json:"site"`
	Building      string      `json:"building"`
	Floor         string      `json:"floor"`
	Unit          string      `json:"unit"`
	Reason        string      `json:"reason"`
	Staff         string      `json:"staff"` // staff name, soft reference
	Amount        float64     `json:"amount"`
	Photos        []Photo     `json:"photos"`
	Status        OrderStatus `json:"status"`
	Signature     *string     `json:"signature"` // set iff signed
	CustomerEmail string      `json:"customerEmail"`
	CreatedAt     time.Time   `json:"createdAt"`
	SignedAt      *time.Time  `json:"signedAt"` // set iff signed
	Link          string      `json:"link"`
}

// OrderInput holds the user-supplied fields of a new order
type OrderInput struct {
	OrderNumber string  `json:"orderNumber"`
	Date        string  `json:"date"`
	Site        string  `json:"site"`
	Building    string  `json:"building"`
	Floor       string  `json:"floor"`
	Unit        string  `json:"unit"`
	Reason      string  `json:"reason"`
	Staff       string  `json:"staff"`
	Amount      float64 `json:"amount"`
	Photos      []Photo `json:"photos"`
}

// OrderPatch holds the editable fields of an existing order; nil fields are left untouched
type OrderPatch struct {
	Date     *string  `json:"date"`
	Site     *string  `json:"site"`
	Building *string  `json:"building"`
	Floor    *string  `json:"floor"`
	Unit     *string  `json:"unit"`
	Reason   *string  `json:"reason"`
	Staff    *string  `json:"staff"`
	Amount   *float64 `json:"amount"`
	Photos   []Photo  `json:"photos"`
}

// Apply merges the patch into o
func (p OrderPatch) Apply(o *Order) {
	if p.Date != nil {
		o.Date = *p.Date
	}
	if p.Site != nil {
		o.Site = *p.Site
	}
	if p.Building != nil {
		o.Building = *p.Building
	}
	if p.Floor != nil {
		o.Floor = *p.Floor
	}
	if p.Unit != nil {
		o.Unit = *p.Unit
	}
	if p.Reason != nil {
		o.Reason = *p.Reason
	}
	if p.Staff != nil {
		o.Staff = *p.Staff
	}
	if p.Amount != nil {
		o.Amount = *p.Amount
	}
	if p.Photos != nil {
		o.Photos = append([]Photo(nil), p.Photos...)
	}
}

// ValidationResult is the outcome of Order.Validate
type ValidationResult struct {
	IsValid bool     `json:"isValid"`
	Errors  []string `json:"errors"`
}

// Validate checks required fields and numeric ranges. It never mutates the order.
func (o *Order) Validate() ValidationResult {
	errs := []string{}

	if strings.TrimSpace(o.Site) == "" {
		errs = append(errs, "案場不能為空")
	}
	if strings.TrimSpace(o.Building) == "" {
		errs = append(errs, "棟別不能為空")
	}
	if strings.TrimSpace(o.Floor) == "" {
		errs = append(errs, "樓層不能為空")
	}
	if strings.TrimSpace(o.Unit) == "" {
		errs = append(errs, "戶別不能為空")
	}

	reason := strings.TrimSpace(o.Reason)
	if reason == "" {
		errs = append(errs, "維修原因不能為空")
	} else if utf8.RuneCountInString(reason) < MinReasonLength {
		errs = append(errs, fmt.Sprintf("維修原因至少需要%d個字", MinReasonLength))
	}

	if strings.TrimSpace(o.Staff) == "" {
		errs = append(errs, "請選擇工務人員")
	}

	if o.Amount <= 0 {
		errs = append(errs, "金額必須大於0")
	} else if o.Amount > MaxAmount {
		errs = append(errs, "金額不能超過1,000,000元")
	}

	if o.Date == "" {
		errs = append(errs, "請選擇日期")
	} else if _, err := time.Parse(DateLayout, o.Date); err != nil {
		errs = append(errs, "日期格式不正確")
	}

	if len(o.Photos) > MaxPhotos {
		errs = append(errs, fmt.Sprintf("照片數量不能超過 %d 張", MaxPhotos))
	}

	if o.CustomerEmail != "" && !utils.IsValidEmail(o.CustomerEmail) {
		errs = append(errs, ErrInvalidEmail.Message)
	}

	return ValidationResult{IsValid: len(errs) == 0, Errors: errs}
}

// IsSigned reports whether the order has been signed
func (o *Order) IsSigned() bool {
	return o.Status == StatusSigned
}

// Sign transitions a pending order to signed. It fails with ErrAlreadySigned
// on a signed order and ErrInvalidSignature on blank signature data.
func (o *Order) Sign(signature, email string, at time.Time) error {
	if o.IsSigned() {
		return ErrAlreadySigned
	}
	if strings.TrimSpace(signature) == "" {
		return ErrInvalidSignature
	}

	signedAt := at.UTC().Truncate(time.Millisecond)
	o.Signature = &signature
	o.CustomerEmail = email
	o.Status = StatusSigned
	o.SignedAt = &signedAt
	return nil
}

// ToJSON serializes every field of the order
func (o *Order) ToJSON() ([]byte, error) {
	return json.Marshal(o)
}

// OrderFromJSON rebuilds an order from ToJSON output, defaulting fields that
// older stored records may lack
func OrderFromJSON(data []byte) (*Order, error) {
	var o Order
	if err := json.Unmarshal(data, &o); err != nil {
		return nil, fmt.Errorf("failed to decode order: %w", err)
	}
	o.Normalize()
	return &o, nil
}

// Normalize fills the defaults that older records may lack
func (o *Order) Normalize() {
	if o.Status == "" {
		o.Status = StatusPending
	}
	if o.Photos == nil {
		o.Photos = []Photo{}
	}
}

// Location returns the display string "{building}棟{floor}樓{unit}戶"
func (o *Order) Location() string {
	return fmt.Sprintf("%s棟%s樓%s戶", o.Building, o.Floor, o.Unit)
}

// StatusText returns the display text for the order status
func (o *Order) StatusText() string {
	switch o.Status {
	case StatusPending:
		return "待簽名"
	case StatusSigned:
		return "已簽名"
	default:
		return "未知狀態"
	}
}

// FormattedAmount returns the amount as whole New Taiwan dollars
func (o *Order) FormattedAmount() string {
	return utils.FormatCurrency(o.Amount)
}

// FormattedDate returns the service date as YYYY年MM月DD日
func (o *Order) FormattedDate() string {
	return utils.FormatDateDisplay(o.Date)
}

// OrderSummary is the list-row view of an order
type OrderSummary struct {
	OrderNumber string `json:"orderNumber"`
	Date        string `json:"date"`
	Site        string `json:"site"`
	Location    string `json:"location"`
	Staff       string `json:"staff"`
	Amount      string `json:"amount"`
	Status      string `json:"status"`
	PhotoCount  int    `json:"photoCount"`
}

// Summary returns the list-row view of the order
func (o *Order) Summary() OrderSummary {
	return OrderSummary{
		OrderNumber: o.OrderNumber,
		Date:        o.FormattedDate(),
		Site:        o.Site,
		Location:    o.Location(),
		Staff:       o.Staff,
		Amount:      o.FormattedAmount(),
		Status:      o.StatusText(),
		PhotoCount:  len(o.Photos),
	}
}

// DetailField is one labelled value in a detail group
type DetailField struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// DetailGroup is a titled, ordered set of fields for the detail view
type DetailGroup struct {
	Title  string        `json:"title"`
	Fields []DetailField `json:"fields"`
}

// Details returns the grouped detail view of the order
func (o *Order) Details() []DetailGroup {
	signedAt := "未簽名"
	if o.SignedAt != nil {
		signedAt = utils.FormatDateDisplay(o.SignedAt.Format(DateLayout))
	}

	return []DetailGroup{
		{
			Title: "基本資訊",
			Fields: []DetailField{
				{Label: "維修單號", Value: o.OrderNumber},
				{Label: "日期", Value: o.FormattedDate()},
				{Label: "案場", Value: o.Site},
				{Label: "位置", Value: o.Location()},
				{Label: "工務人員", Value: o.Staff},
				{Label: "金額", Value: o.FormattedAmount()},
			},
		},
		{
			Title: "維修內容",
			Fields: []DetailField{
				{Label: "原因", Value: o.Reason},
				{Label: "照片數量", Value: fmt.Sprintf("%d張", len(o.Photos))},
			},
		},
		{
			Title: "狀態資訊",
			Fields: []DetailField{
				{Label: "狀態", Value: o.StatusText()},
				{Label: "建立時間", Value: utils.FormatDateDisplay(o.CreatedAt.Format(DateLayout))},
				{Label: "簽名時間", Value: signedAt},
			},
		},
	}
}

var csvHeaders = []string{
	"維修單號",
	"日期",
	"案場",
	"棟別",
	"樓層",
	"戶別",
	"維修原因",
	"工務人員",
	"金額",
	"狀態",
	"建立時間",
	"簽名時間",
}

// CSVHeader returns the quoted header line matching CSVRow
func CSVHeader() string {
	return utils.QuoteCSV(csvHeaders)
}

// CSVRow returns the order as one quoted CSV line in fixed column order
func (o *Order) CSVRow() string {
	signedAt := ""
	if o.SignedAt != nil {
		signedAt = o.SignedAt.Format(time.RFC3339Nano)
	}

	return utils.QuoteCSV([]string{
		o.OrderNumber,
		o.Date,
		o.Site,
		o.Building,
		o.Floor,
		o.Unit,
		o.Reason,
		o.Staff,
		strconv.FormatFloat(o.Amount, 'f', -1, 64),
		o.StatusText(),
		o.CreatedAt.Format(time.RFC3339Nano),
		signedAt,
	})
}
