package ledgerclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/chainportal/ledgerclient/session"
)

func TestQueryProductStringifiedWrapper(t *testing.T) {
	backend := newTestBackend(t)
	backend.handle("/supplychainapp/fabric/assets/queryProduct/p1", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]string{
			"product": `{"id":"p1","name":"Widget","category":"tools","quantity":5}`,
		})
	})

	client := newTestClient(t, backend)

	product, err := client.QueryProduct(context.Background(), "p1")
	if err != nil {
		t.Fatalf("QueryProduct: %v", err)
	}
	want := Product{ID: "p1", Name: "Widget", Category: "tools", Quantity: 5}
	if product != want {
		t.Fatalf("got %+v, want %+v", product, want)
	}
}

func TestQueryProductNestedWrapper(t *testing.T) {
	backend := newTestBackend(t)
	backend.handle("/supplychainapp/fabric/assets/queryProduct/p1", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{
			"product": map[string]any{"id": "p1", "name": "Widget", "quantity": 2},
		})
	})

	client := newTestClient(t, backend)

	product, err := client.QueryProduct(context.Background(), "p1")
	if err != nil {
		t.Fatalf("QueryProduct: %v", err)
	}
	if product.ID != "p1" || product.Quantity != 2 {
		t.Fatalf("unexpected product %+v", product)
	}
}

func TestQueryProductBlankID(t *testing.T) {
	backend := newTestBackend(t)
	client := newTestClient(t, backend)

	if _, err := client.QueryProduct(context.Background(), "   "); !errors.Is(err, ErrInputRequired) {
		t.Fatalf("expected ErrInputRequired, got %v", err)
	}
	if len(backend.requests()) != 0 {
		t.Fatal("validation failures must not reach the network")
	}
}

func TestQueryShipment(t *testing.T) {
	backend := newTestBackend(t)
	backend.handle("/supplychainapp/fabric/assets/queryShipment/s1", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]string{
			"shipment": `{"shipmentId":"s1","productId":"p1","origin":"Rotterdam","destination":"Oslo","carrier":"ACME","quantity":10,"status":"IN_TRANSIT"}`,
		})
	})

	client := newTestClient(t, backend)

	shipment, err := client.QueryShipment(context.Background(), "s1")
	if err != nil {
		t.Fatalf("QueryShipment: %v", err)
	}
	if shipment.ShipmentID != "s1" || shipment.Status != "IN_TRANSIT" || shipment.Quantity != 10 {
		t.Fatalf("unexpected shipment %+v", shipment)
	}
}

func TestQueryProductLogsOrderPreserved(t *testing.T) {
	backend := newTestBackend(t)
	backend.handle("/supplychainapp/fabric/assets/queryLogByProductId/p1", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]string{
			"product": `[{"logId":"l1","action":"CREATE","quantity":5},{"logId":"l2","action":"ORDER","quantity":2}]`,
		})
	})

	client := newTestClient(t, backend)

	logs, err := client.QueryProductLogs(context.Background(), "p1")
	if err != nil {
		t.Fatalf("QueryProductLogs: %v", err)
	}
	if len(logs) != 2 || logs[0].LogID != "l1" || logs[1].LogID != "l2" {
		t.Fatalf("unexpected logs %+v", logs)
	}
}

func TestQueryProductLogsRescuesDirtyEncoding(t *testing.T) {
	backend := newTestBackend(t)
	backend.handle("/supplychainapp/fabric/assets/queryLogByProductId/p1", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]string{
			"product": `Committed [{"logId":"l1","action":"CREATE [initial]"}] txid=9`,
		})
	})

	client := newTestClient(t, backend)

	logs, err := client.QueryProductLogs(context.Background(), "p1")
	if err != nil {
		t.Fatalf("QueryProductLogs: %v", err)
	}
	if len(logs) != 1 || logs[0].Action != "CREATE [initial]" {
		t.Fatalf("unexpected logs %+v", logs)
	}
}

func TestCreateProductAdminOnly(t *testing.T) {
	backend := newTestBackend(t)
	client := newTestClient(t, backend)
	seedSession(t, client, session.Session{Token: "tok", Username: "amy", Role: "ROLE_USER"})

	err := client.CreateProduct(context.Background(), ProductInput{
		ProductID: "p1", ProductName: "Widget", Category: "tools", Quantity: 5,
	})
	if !errors.Is(err, ErrAdminRoleRequired) {
		t.Fatalf("expected ErrAdminRoleRequired, got %v", err)
	}
	if len(backend.requests()) != 0 {
		t.Fatal("role failures must not reach the network")
	}
}

func TestCreateProductAsAdmin(t *testing.T) {
	backend := newTestBackend(t)
	backend.handle("/supplychainapp/fabric/assets/createProduct", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusCreated, map[string]string{"message": "created"})
	})

	client := newTestClient(t, backend)
	seedSession(t, client, session.Session{Token: "tok", Username: "root", Role: RoleAdmin})

	err := client.CreateProduct(context.Background(), ProductInput{
		ProductID: "p1", ProductName: "Widget", Category: "tools", Quantity: 5,
	})
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}

	var body ProductInput
	if err := json.Unmarshal(backend.lastRequest(t).Body, &body); err != nil {
		t.Fatalf("decode request body: %v", err)
	}
	if body.ProductID != "p1" || body.Quantity != 5 {
		t.Fatalf("unexpected request body %+v", body)
	}
}

func TestUpdateProductQuantityDefaultMode(t *testing.T) {
	backend := newTestBackend(t)
	backend.handle("/supplychainapp/fabric/assets/update/p1", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]string{"message": "updated"})
	})

	client := newTestClient(t, backend)
	seedSession(t, client, session.Session{Token: "tok", Username: "root", Role: RoleAdmin})

	if err := client.UpdateProductQuantity(context.Background(), "p1", 7); err != nil {
		t.Fatalf("UpdateProductQuantity: %v", err)
	}

	req := backend.lastRequest(t)
	if req.Method != http.MethodPut {
		t.Fatalf("expected PUT, got %s", req.Method)
	}
	if got := req.Header.Get("X-Quantity-Mode"); got != "" {
		t.Fatalf("additive mode must not flag the request, got %q", got)
	}

	var body map[string]int
	if err := json.Unmarshal(req.Body, &body); err != nil {
		t.Fatalf("decode request body: %v", err)
	}
	if body["quantity"] != 7 {
		t.Fatalf("unexpected quantity %d", body["quantity"])
	}
}

func TestUpdateProductQuantitySetModeFlagged(t *testing.T) {
	backend := newTestBackend(t)
	backend.handle("/supplychainapp/fabric/assets/update/p1", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]string{"message": "updated"})
	})

	client := newTestClient(t, backend, func(cfg *Config) {
		cfg.Assets.QuantityUpdateMode = QuantitySet
	})
	seedSession(t, client, session.Session{Token: "tok", Username: "root", Role: RoleAdmin})

	if err := client.UpdateProductQuantity(context.Background(), "p1", 7); err != nil {
		t.Fatalf("UpdateProductQuantity: %v", err)
	}
	if got := backend.lastRequest(t).Header.Get("X-Quantity-Mode"); got != "set" {
		t.Fatalf("expected set-mode flag, got %q", got)
	}
}

func TestRemoveProduct(t *testing.T) {
	backend := newTestBackend(t)
	backend.handle("/supplychainapp/fabric/assets/removeProduct/p1", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]string{"message": "removed"})
	})

	client := newTestClient(t, backend)
	seedSession(t, client, session.Session{Token: "tok", Username: "root", Role: RoleAdmin})

	if err := client.RemoveProduct(context.Background(), "p1"); err != nil {
		t.Fatalf("RemoveProduct: %v", err)
	}
	if got := backend.lastRequest(t).Method; got != http.MethodDelete {
		t.Fatalf("expected DELETE, got %s", got)
	}
}

func TestCreateShipmentAsAdmin(t *testing.T) {
	backend := newTestBackend(t)
	backend.handle("/supplychainapp/fabric/assets/createShipment", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusCreated, map[string]string{"message": "created"})
	})

	client := newTestClient(t, backend)
	seedSession(t, client, session.Session{Token: "tok", Username: "root", Role: RoleAdmin})

	err := client.CreateShipment(context.Background(), ShipmentInput{
		ShipmentID: "s1", ProductID: "p1", Origin: "Rotterdam", Destination: "Oslo", Quantity: 10,
	})
	if err != nil {
		t.Fatalf("CreateShipment: %v", err)
	}
}

func TestUpdateShipmentStatus(t *testing.T) {
	backend := newTestBackend(t)
	backend.handle("/supplychainapp/fabric/assets/updateShipment/s1", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]string{"message": "updated"})
	})

	client := newTestClient(t, backend)
	seedSession(t, client, session.Session{Token: "tok", Username: "root", Role: RoleAdmin})

	if err := client.UpdateShipmentStatus(context.Background(), "s1", "DELIVERED"); err != nil {
		t.Fatalf("UpdateShipmentStatus: %v", err)
	}

	var body map[string]string
	if err := json.Unmarshal(backend.lastRequest(t).Body, &body); err != nil {
		t.Fatalf("decode request body: %v", err)
	}
	if body["status"] != "DELIVERED" {
		t.Fatalf("unexpected status %q", body["status"])
	}

	if err := client.UpdateShipmentStatus(context.Background(), "s1", "  "); !errors.Is(err, ErrInputRequired) {
		t.Fatalf("expected ErrInputRequired for blank status, got %v", err)
	}
}

func TestPlaceOrder(t *testing.T) {
	backend := newTestBackend(t)
	backend.handle("/supplychainapp/fabric/assets/placeOrder", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]string{"message": "ordered"})
	})

	client := newTestClient(t, backend)
	seedSession(t, client, session.Session{Token: "tok", Username: "amy", Role: "ROLE_USER"})

	if err := client.PlaceOrder(context.Background(), "p1", 2); err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}

	var body map[string]any
	if err := json.Unmarshal(backend.lastRequest(t).Body, &body); err != nil {
		t.Fatalf("decode request body: %v", err)
	}
	if body["productId"] != "p1" || body["quantity"] != float64(2) {
		t.Fatalf("unexpected request body %+v", body)
	}
}

func TestPlaceOrderGuards(t *testing.T) {
	backend := newTestBackend(t)
	client := newTestClient(t, backend)

	if err := client.PlaceOrder(context.Background(), "p1", 0); !errors.Is(err, ErrInputRequired) {
		t.Fatalf("expected ErrInputRequired for zero quantity, got %v", err)
	}
	if err := client.PlaceOrder(context.Background(), "p1", 2); !errors.Is(err, ErrAuthRequired) {
		t.Fatalf("expected ErrAuthRequired without a session, got %v", err)
	}
	if len(backend.requests()) != 0 {
		t.Fatal("guard failures must not reach the network")
	}
}
