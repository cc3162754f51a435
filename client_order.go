package ledgerclient

import (
	"context"
	"net/http"
	"strings"

	"github.com/chainportal/ledgerclient/internal/flows"
)

// PlaceOrder submits an order for a product. Any authenticated user may
// order; stock validation is the ledger's concern and failures come back
// as classified server errors.
func (c *Client) PlaceOrder(ctx context.Context, productID string, quantity int) error {
	productID = strings.TrimSpace(productID)
	if productID == "" || quantity <= 0 {
		return ErrInputRequired
	}

	_, err := c.run(ctx, callSpec{
		action: actionPlaceOrder,
		method: http.MethodPost,
		url:    flows.JoinPath(c.config.Endpoints.AssetBase, "placeOrder"),
		body: map[string]any{
			"productId": productID,
			"quantity":  quantity,
		},
		requireAuth: true,
		fallback:    "Failed to place order",
	})
	return err
}
