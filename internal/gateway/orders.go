package gateway

import "context"

func (c *Client) ListOrders(ctx context.Context) ([]Order, error) {
	var orders []Order
	if err := c.Get(ctx, "/api/orders", &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// CancelPaperOrder addresses a simulated order by its backend id.
func (c *Client) CancelPaperOrder(ctx context.Context, orderID int64) (*CancelResult, error) {
	var res CancelResult
	body := map[string]int64{"order_id": orderID}
	if err := c.Post(ctx, "/api/orders/cancel", body, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// CancelLiveOrder addresses a real order by the id the broker assigned to it.
func (c *Client) CancelLiveOrder(ctx context.Context, brokerOrderID string) (*CancelResult, error) {
	var res CancelResult
	body := map[string]string{"broker_order_id": brokerOrderID}
	if err := c.Post(ctx, "/api/orders/cancel", body, &res); err != nil {
		return nil, err
	}
	return &res, nil
}
