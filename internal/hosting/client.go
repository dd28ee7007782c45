package hosting

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github/noctiluca/go-tools/internal/config"
)

const apiTimeout = 30 * time.Second

// Client talks to the VPS provider's order API. All endpoints authenticate
// with form-encoded credentials; the order endpoint additionally carries a
// JSON body.
type Client struct {
	baseURL    string
	creds      *Credentials
	httpClient *http.Client
}

func NewClient(cfg config.Hosting, creds *Credentials) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.APIURL, "/"),
		creds:      creds,
		httpClient: &http.Client{Timeout: apiTimeout},
	}
}

// ListLocations returns all datacenters, in stock first, sorted by id.
func (c *Client) ListLocations(ctx context.Context) ([]Location, error) {
	body, err := c.postForm(ctx, "get/locations", nil)
	if err != nil {
		return nil, err
	}

	var decoded struct {
		Locations map[string]Location `json:"locations"`
	}
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, errors.Wrap(err, "failed to decode locations")
	}

	locations := make([]Location, 0, len(decoded.Locations))
	for _, loc := range decoded.Locations {
		locations = append(locations, loc)
	}

	sort.Slice(locations, func(i, j int) bool {
		if locations[i].OutOfStock != locations[j].OutOfStock {
			return !locations[i].OutOfStock
		}
		return locations[i].ID < locations[j].ID
	})

	return locations, nil
}

// ListProducts returns the provider's product catalog for one location. The
// shape varies per location, so the payload stays opaque JSON.
func (c *Client) ListProducts(ctx context.Context, locationID int) (json.RawMessage, error) {
	return c.postForm(ctx, "get/products", url.Values{
		"location": {strconv.Itoa(locationID)},
	})
}

// ListPaymentMethods returns the payment method identifiers the account can
// order with.
func (c *Client) ListPaymentMethods(ctx context.Context) ([]string, error) {
	body, err := c.postForm(ctx, "get/paymentmethods", nil)
	if err != nil {
		return nil, err
	}

	var decoded struct {
		PaymentMethods []string `json:"paymentmethods"`
	}
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, errors.Wrap(err, "failed to decode payment methods")
	}

	return decoded.PaymentMethods, nil
}

// PlaceOrder submits a server order and returns the provider's response
// verbatim, which includes the invoice to pay.
func (c *Client) PlaceOrder(ctx context.Context, order *OrderRequest) (json.RawMessage, error) {
	payload, err := json.Marshal(order)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal order")
	}

	params := url.Values{
		"email": {c.creds.Email},
		"pw":    {c.creds.Password},
	}
	endpoint := c.baseURL + "/add/order?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req)
}

func (c *Client) postForm(ctx context.Context, endpoint string, extra url.Values) (json.RawMessage, error) {
	form := url.Values{
		"email": {c.creds.Email},
		"pw":    {c.creds.Password},
	}
	for key, values := range extra {
		form[key] = values
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return c.do(req)
}

func (c *Client) do(req *http.Request) (json.RawMessage, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "hosting api request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response body")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	return body, nil
}
