package hosting

import (
	"os"
	"strings"

	"github.com/pkg/errors"
)

// ErrNoCredentials means the provider credentials file is absent or
// malformed. The hosting commands cannot run without it; everything else is
// unaffected.
var ErrNoCredentials = errors.New("hosting credentials not available")

// APIError carries a non-200 provider response verbatim.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return "hosting api error: " + e.Body
}

// Credentials authenticate against the provider's order API.
type Credentials struct {
	Email    string
	Password string
}

// LoadCredentials reads an email:password pair from the given file.
func LoadCredentials(path string) (*Credentials, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WithMessagef(ErrNoCredentials, "failed to read %s: %v", path, err)
	}

	email, password, found := strings.Cut(strings.TrimSpace(string(content)), ":")
	if !found || email == "" || password == "" {
		return nil, errors.WithMessagef(ErrNoCredentials, "%s must contain email:password", path)
	}

	return &Credentials{Email: email, Password: password}, nil
}

// Location is one provider datacenter.
type Location struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	Country    string `json:"country"`
	OutOfStock bool   `json:"out_of_stock"`
}

// OrderItem describes the single server in an order.
type OrderItem struct {
	ProductID      int    `json:"pid"`
	OS             int    `json:"os"`
	Hostname       string `json:"hostname"`
	AdditionalRAM  string `json:"additional_ram"`
	AdditionalVCPU string `json:"additional_vcpu"`
	AdditionalIP   string `json:"additional_ip"`
	AdditionalDisk string `json:"additional_diskboost"`
	SSHPubKey      string `json:"ssh_pubkey"`
}

// OrderRequest is the add/order payload.
type OrderRequest struct {
	BillingCycle  string      `json:"billingcycle"`
	PaymentMethod string      `json:"paymentmethod"`
	ApplyCredit   bool        `json:"applycredit"`
	Items         []OrderItem `json:"item"`
}
