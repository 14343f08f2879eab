package model

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "Pending"
	OrderStatusConfirmed OrderStatus = "Confirmed"
	OrderStatusCancelled OrderStatus = "Cancelled"
)

// OrderStatuses lists every valid status.
var OrderStatuses = []OrderStatus{OrderStatusPending, OrderStatusConfirmed, OrderStatusCancelled}

// ParseOrderStatus returns the status matching s exactly.
func ParseOrderStatus(s string) (OrderStatus, bool) {
	for _, status := range OrderStatuses {
		if string(status) == s {
			return status, true
		}
	}
	return "", false
}

// Order represents a customer order.
type Order struct {
	ID        uuid.UUID   `db:"order_id"`
	UserID    int64       `db:"user_id"`
	CreatedAt time.Time   `db:"created_at"`
	Status    OrderStatus `db:"status"`
	Items     []OrderItem
}

// OrderItem represents a line item in an order. Product is joined at read time.
type OrderItem struct {
	ID       int64     `db:"id"`
	OrderID  uuid.UUID `db:"order_id"`
	Product  Product
	Quantity int `db:"quantity"`
}

// Subtotal prices the item against the product's current price.
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.Product.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// TotalPrice sums the item subtotals. An order without items totals zero.
func (o Order) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// OrderItemResponse flattens the product details next to the quantity.
type OrderItemResponse struct {
	ProductName        string      `json:"product_name"`
	ProductPrice       string      `json:"product_price"`
	ProductDescription string      `json:"product_description"`
	Quantity           int         `json:"quantity"`
	ItemSubtotal       json.Number `json:"item_subtotal"`
}

// OrderResponse represents the response payload for an order.
type OrderResponse struct {
	OrderID    uuid.UUID           `json:"order_id"`
	User       int64               `json:"user"`
	CreatedAt  time.Time           `json:"created_at"`
	Status     OrderStatus         `json:"status"`
	Items      []OrderItemResponse `json:"items"`
	TotalPrice json.Number         `json:"total_price"`
}

// NewOrderResponse maps an order and its items to the wire representation.
func NewOrderResponse(o Order) OrderResponse {
	items := make([]OrderItemResponse, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, OrderItemResponse{
			ProductName:        item.Product.Name,
			ProductPrice:       FormatPrice(item.Product.Price),
			ProductDescription: item.Product.Description,
			Quantity:           item.Quantity,
			ItemSubtotal:       json.Number(FormatPrice(item.Subtotal())),
		})
	}

	return OrderResponse{
		OrderID:    o.ID,
		User:       o.UserID,
		CreatedAt:  o.CreatedAt,
		Status:     o.Status,
		Items:      items,
		TotalPrice: json.Number(FormatPrice(o.TotalPrice())),
	}
}

// NewOrderResponses maps a slice of orders, never returning nil.
func NewOrderResponses(orders []Order) []OrderResponse {
	out := make([]OrderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, NewOrderResponse(o))
	}
	return out
}

// OrderCreateRequest represents the request payload for creating an order.
// The owner is always the requesting user.
type OrderCreateRequest struct {
	Status OrderStatus
	Items  []OrderItemRequest
}

// OrderItemRequest represents a single item in an order request.
type OrderItemRequest struct {
	ProductID int64
	Quantity  int
}

// DecodeOrderCreateRequest decodes and validates an order creation body.
func DecodeOrderCreateRequest(data []byte) (*OrderCreateRequest, error) {
	fields, err := decodeObject(data)
	if err != nil {
		return nil, err
	}

	req := &OrderCreateRequest{Status: OrderStatusPending}
	verr := NewValidationError()

	if raw, ok := fields["status"]; ok {
		if status, msg := decodeStatus(raw); msg != "" {
			verr.Add("status", msg)
		} else {
			req.Status = status
		}
	}

	if raw, ok := fields["items"]; ok && !isNull(raw) {
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			verr.Add("items", fmt.Sprintf("Expected a list of items but got %s.", jsonKind(raw)))
		} else {
			for i, itemRaw := range items {
				if item, ok := decodeOrderItem(itemRaw, i, verr); ok {
					req.Items = append(req.Items, item)
				}
			}
		}
	}

	if err := verr.Err(); err != nil {
		return nil, err
	}
	return req, nil
}

func decodeOrderItem(raw json.RawMessage, index int, verr *ValidationError) (OrderItemRequest, bool) {
	prefix := fmt.Sprintf("items[%d].", index)

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		verr.Add(fmt.Sprintf("items[%d]", index), "Invalid data. Expected a dictionary.")
		return OrderItemRequest{}, false
	}

	var item OrderItemRequest
	valid := true

	if productRaw, ok := fields["product"]; !ok {
		verr.Add(prefix+"product", msgRequired)
		valid = false
	} else if id, msg := decodeInt(productRaw); msg != "" {
		verr.Add(prefix+"product", fmt.Sprintf("Incorrect type. Expected pk value, received %s.", jsonKind(productRaw)))
		valid = false
	} else {
		item.ProductID = id
	}

	if qtyRaw, ok := fields["quantity"]; !ok {
		verr.Add(prefix+"quantity", msgRequired)
		valid = false
	} else if qty, msg := decodeInt(qtyRaw); msg != "" {
		verr.Add(prefix+"quantity", msg)
		valid = false
	} else if qty < 1 {
		verr.Add(prefix+"quantity", "Ensure this value is greater than or equal to 1.")
		valid = false
	} else if qty > math.MaxInt32 {
		verr.Add(prefix+"quantity", fmt.Sprintf("Ensure this value is less than or equal to %d.", math.MaxInt32))
		valid = false
	} else {
		item.Quantity = int(qty)
	}

	return item, valid
}

// OrderUpdateRequest carries the mutable order fields. Items are immutable.
type OrderUpdateRequest struct {
	Status *OrderStatus
}

// DecodeOrderUpdateRequest decodes an order update body. A full update requires status.
func DecodeOrderUpdateRequest(data []byte, partial bool) (*OrderUpdateRequest, error) {
	fields, err := decodeObject(data)
	if err != nil {
		return nil, err
	}

	req := &OrderUpdateRequest{}
	verr := NewValidationError()

	if raw, ok := fields["status"]; ok {
		if status, msg := decodeStatus(raw); msg != "" {
			verr.Add("status", msg)
		} else {
			req.Status = &status
		}
	} else if !partial {
		verr.Add("status", msgRequired)
	}

	if err := verr.Err(); err != nil {
		return nil, err
	}
	return req, nil
}

func decodeStatus(raw json.RawMessage) (OrderStatus, string) {
	s, msg := decodeString(raw)
	if msg != "" {
		return "", msg
	}
	status, ok := ParseOrderStatus(s)
	if !ok {
		return "", fmt.Sprintf("%q is not a valid choice.", s)
	}
	return status, ""
}

// jsonKind names the JSON type of raw for error messages.
func jsonKind(raw json.RawMessage) string {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return "invalid"
	}
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "str"
	case float64:
		return "number"
	case bool:
		return "bool"
	case []any:
		return "list"
	case map[string]any:
		return "dict"
	}
	return "unknown"
}
