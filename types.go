package ledgerclient

// RoleAdmin is the one role tag access logic recognizes; any other tag is
// a generic authenticated user. Re-exported from package gate so call
// sites need only one import.
const RoleAdmin = "ROLE_ADMIN"

// Credentials is a username/password pair for login.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResult is returned by [Client.Login] and [Client.AdminLogin] after
// the session store has been populated.
type LoginResult struct {
	Token string
	Roles []string
	// Role is the tag stored in the session: the first entry of Roles,
	// or a role claim recovered from the token when Roles is empty.
	Role string
}

// RegisterInput is the payload for account registration.
type RegisterInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
}

// AdminUserInput is the payload for admin-user creation. Same fields as
// registration; kept distinct because the operations are gated and routed
// differently.
type AdminUserInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
}

// ChangePasswordInput is the payload for a password change. Username may
// be empty when the backend derives it from the token.
type ChangePasswordInput struct {
	Username        string `json:"username,omitempty"`
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// Product is one ledger product record.
type Product struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Quantity int    `json:"quantity"`
}

// ProductInput is the payload for product creation.
type ProductInput struct {
	ProductID   string `json:"productId"`
	ProductName string `json:"productName"`
	Category    string `json:"category"`
	Quantity    int    `json:"quantity"`
}

// Shipment is one ledger shipment record.
type Shipment struct {
	ShipmentID  string `json:"shipmentId"`
	ProductID   string `json:"productId"`
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
	Carrier     string `json:"carrier"`
	Quantity    int    `json:"quantity"`
	Status      string `json:"status"`
}

// ShipmentInput is the payload for shipment creation.
type ShipmentInput struct {
	ShipmentID  string `json:"shipmentId"`
	ProductID   string `json:"productId"`
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
	Carrier     string `json:"carrier"`
	Quantity    int    `json:"quantity"`
}

// LogEntry is one audit-log record attached to a product.
type LogEntry struct {
	LogID      string `json:"logId"`
	Action     string `json:"action"`
	Quantity   int    `json:"quantity,omitempty"`
	ProductID  string `json:"productId,omitempty"`
	ShipmentID string `json:"shipmentId,omitempty"`
	Timestamp  string `json:"timestamp,omitempty"`
}
