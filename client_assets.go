package ledgerclient

import (
	"context"
	"net/http"
	"strings"

	"github.com/chainportal/ledgerclient/internal/flows"
)

// QueryProduct fetches one product record. The endpoint sometimes nests
// the record under "product" and sometimes stringifies it; both arrive
// here as the same Product.
func (c *Client) QueryProduct(ctx context.Context, productID string) (Product, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return Product{}, ErrInputRequired
	}

	payload, err := c.run(ctx, callSpec{
		action:      actionQueryProduct,
		method:      http.MethodGet,
		url:         flows.JoinPath(c.config.Endpoints.AssetBase, "queryProduct", productID),
		expectBody:  true,
		wrapperKeys: c.config.Assets.ProductWrapperKeys,
		fallback:    "Product not found or unauthorized",
	})
	if err != nil {
		return Product{}, err
	}

	var product Product
	if err := decodeRecord(payload.First(), &product); err != nil {
		return Product{}, err
	}
	return product, nil
}

// QueryShipment fetches one shipment record.
func (c *Client) QueryShipment(ctx context.Context, shipmentID string) (Shipment, error) {
	shipmentID = strings.TrimSpace(shipmentID)
	if shipmentID == "" {
		return Shipment{}, ErrInputRequired
	}

	payload, err := c.run(ctx, callSpec{
		action:      actionQueryShipment,
		method:      http.MethodGet,
		url:         flows.JoinPath(c.config.Endpoints.AssetBase, "queryShipment", shipmentID),
		expectBody:  true,
		wrapperKeys: c.config.Assets.ShipmentWrapperKeys,
		fallback:    "Shipment not found or unauthorized",
	})
	if err != nil {
		return Shipment{}, err
	}

	var shipment Shipment
	if err := decodeRecord(payload.First(), &shipment); err != nil {
		return Shipment{}, err
	}
	return shipment, nil
}

// QueryProductLogs fetches the audit-log records of one product, in the
// order the ledger returns them.
func (c *Client) QueryProductLogs(ctx context.Context, productID string) ([]LogEntry, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return nil, ErrInputRequired
	}

	payload, err := c.run(ctx, callSpec{
		action:      actionQueryLogs,
		method:      http.MethodGet,
		url:         flows.JoinPath(c.config.Endpoints.AssetBase, "queryLogByProductId", productID),
		expectBody:  true,
		wrapperKeys: c.config.Assets.LogWrapperKeys,
		fallback:    "Failed to fetch logs",
	})
	if err != nil {
		return nil, err
	}

	entries := make([]LogEntry, 0, len(payload.Records))
	for _, rec := range payload.Records {
		var entry LogEntry
		if err := decodeRecord(rec, &entry); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// CreateProduct registers a new product on the ledger. Admin only.
func (c *Client) CreateProduct(ctx context.Context, input ProductInput) error {
	input.ProductID = strings.TrimSpace(input.ProductID)
	input.ProductName = strings.TrimSpace(input.ProductName)
	if input.ProductID == "" || input.ProductName == "" {
		return ErrInputRequired
	}

	_, err := c.run(ctx, callSpec{
		action:      actionCreateProduct,
		method:      http.MethodPost,
		url:         flows.JoinPath(c.config.Endpoints.AssetBase, "createProduct"),
		body:        input,
		requireAuth: true,
		adminOnly:   true,
		fallback:    "Failed to create product",
	})
	return err
}

// UpdateProductQuantity submits a quantity update for one product. Admin
// only. Whether the value is added to current stock or replaces it is the
// deployment's [QuantityUpdateMode]; the non-default mode is flagged on
// the request so mismatched backends are detectable.
func (c *Client) UpdateProductQuantity(ctx context.Context, productID string, quantity int) error {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return ErrInputRequired
	}

	var header map[string]string
	if c.config.Assets.QuantityUpdateMode == QuantitySet {
		header = map[string]string{"X-Quantity-Mode": "set"}
	}

	_, err := c.run(ctx, callSpec{
		action:      actionUpdateProduct,
		method:      http.MethodPut,
		url:         flows.JoinPath(c.config.Endpoints.AssetBase, "update", productID),
		body:        map[string]int{"quantity": quantity},
		header:      header,
		requireAuth: true,
		adminOnly:   true,
		fallback:    "Failed to update product",
	})
	return err
}

// RemoveProduct deletes one product from the ledger. Admin only.
func (c *Client) RemoveProduct(ctx context.Context, productID string) error {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return ErrInputRequired
	}

	_, err := c.run(ctx, callSpec{
		action:      actionRemoveProduct,
		method:      http.MethodDelete,
		url:         flows.JoinPath(c.config.Endpoints.AssetBase, "removeProduct", productID),
		requireAuth: true,
		adminOnly:   true,
		fallback:    "Failed to delete product",
	})
	return err
}

// CreateShipment registers a new shipment. Admin only.
func (c *Client) CreateShipment(ctx context.Context, input ShipmentInput) error {
	input.ShipmentID = strings.TrimSpace(input.ShipmentID)
	input.ProductID = strings.TrimSpace(input.ProductID)
	if input.ShipmentID == "" || input.ProductID == "" {
		return ErrInputRequired
	}

	_, err := c.run(ctx, callSpec{
		action:      actionCreateShipment,
		method:      http.MethodPost,
		url:         flows.JoinPath(c.config.Endpoints.AssetBase, "createShipment"),
		body:        input,
		requireAuth: true,
		adminOnly:   true,
		fallback:    "Failed to create shipment",
	})
	return err
}

// UpdateShipmentStatus sets the status of one shipment. Admin only.
func (c *Client) UpdateShipmentStatus(ctx context.Context, shipmentID, status string) error {
	shipmentID = strings.TrimSpace(shipmentID)
	status = strings.TrimSpace(status)
	if shipmentID == "" || status == "" {
		return ErrInputRequired
	}

	_, err := c.run(ctx, callSpec{
		action:      actionUpdateShipment,
		method:      http.MethodPut,
		url:         flows.JoinPath(c.config.Endpoints.AssetBase, "updateShipment", shipmentID),
		body:        map[string]string{"status": status},
		requireAuth: true,
		adminOnly:   true,
		fallback:    "Failed to update shipment",
	})
	return err
}
