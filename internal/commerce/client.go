package commerce

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ElisioMassango/chelevi-sub000/pkg/config"
	pkgerrors "github.com/ElisioMassango/chelevi-sub000/pkg/errors"
	"github.com/ElisioMassango/chelevi-sub000/pkg/logger"
	"github.com/ElisioMassango/chelevi-sub000/pkg/metrics"
	"github.com/ElisioMassango/chelevi-sub000/pkg/types"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-Id"

var validate = validator.New()

// Client issues JSON request/response calls against the remote commerce API.
// It is constructed once with its credentials and injected wherever commerce
// access is needed; there is no ambient shared instance.
type Client struct {
	httpClient *http.Client
	baseURL    string
	storeID    string
	metrics    *metrics.CommerceMetrics
	logg       *logger.Logger
}

// NewClient builds a commerce client for the configured store.
func NewClient(cfg config.CommerceConfig, m *metrics.CommerceMetrics, logg *logger.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("commerce base url required")
	}
	if cfg.StoreID == "" {
		return nil, fmt.Errorf("commerce store id required")
	}
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		storeID:    cfg.StoreID,
		metrics:    m,
		logg:       logg,
	}, nil
}

// AddToCart pushes one product into the customer's remote cart.
func (c *Client) AddToCart(ctx context.Context, customerID, productID string, quantity int, variantID string) (*AddToCartResult, error) {
	body := map[string]any{
		"store_id":    c.storeID,
		"customer_id": customerID,
		"product_id":  productID,
		"quantity":    quantity,
		"variant_id":  variantID,
	}
	var result AddToCartResult
	if err := c.call(ctx, "cart/add", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// UpdateQuantity sends a directional quantity mutation for one cart line. The
// API has no absolute-set operation; the caller computes the direction.
func (c *Client) UpdateQuantity(ctx context.Context, customerID, productID string, direction Direction, variantID string) error {
	body := map[string]any{
		"store_id":      c.storeID,
		"customer_id":   customerID,
		"product_id":    productID,
		"quantity_type": string(direction),
		"variant_id":    variantID,
	}
	return c.call(ctx, "cart/update-quantity", body, nil)
}

// GetCart fetches the authoritative cart for the customer.
func (c *Client) GetCart(ctx context.Context, customerID string) (*RawCart, error) {
	body := map[string]any{
		"store_id":    c.storeID,
		"customer_id": customerID,
	}
	var cart RawCart
	if err := c.call(ctx, "cart/list", body, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

// ApplyCoupon applies a coupon code and returns the recalculated cart.
func (c *Client) ApplyCoupon(ctx context.Context, customerID, code string) (*RawCart, error) {
	body := map[string]any{
		"store_id":    c.storeID,
		"customer_id": customerID,
		"coupon_code": code,
	}
	var cart RawCart
	if err := c.call(ctx, "cart/apply-coupon", body, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

// GetProductDetail fetches the detail record for a product, which carries the
// direct price fields used by the guest fallback chain.
func (c *Client) GetProductDetail(ctx context.Context, productID string) (*RawProductDetail, error) {
	body := map[string]any{
		"store_id":   c.storeID,
		"product_id": productID,
	}
	var detail RawProductDetail
	if err := c.call(ctx, "product/detail", body, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// GetProductVariants fetches the full variant structure of a product. The
// payload is validated so malformed variant blobs surface as a typed error
// instead of half-decoded groups.
func (c *Client) GetProductVariants(ctx context.Context, customerID, productID string) ([]types.VariantGroup, error) {
	body := map[string]any{
		"store_id":    c.storeID,
		"customer_id": customerID,
		"product_id":  productID,
	}
	var payload struct {
		Variants []types.VariantGroup `json:"variants" validate:"dive"`
	}
	if err := c.call(ctx, "product/variants", body, &payload); err != nil {
		return nil, err
	}
	if err := validate.Struct(payload); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "malformed variant structure")
	}
	return payload.Variants, nil
}

// GetVariantPrice queries the price of one concrete variant selection.
func (c *Client) GetVariantPrice(ctx context.Context, customerID, productID string, selection map[string]string, quantity int) (*RawVariantPrice, error) {
	body := map[string]any{
		"store_id":    c.storeID,
		"customer_id": customerID,
		"product_id":  productID,
		"variant":     selection,
		"quantity":    quantity,
	}
	var price RawVariantPrice
	if err := c.call(ctx, "product/variant-price", body, &price); err != nil {
		return nil, err
	}
	return &price, nil
}

// call posts the body to the endpoint and decodes the enveloped response into
// out. Transport problems (request failed, unparseable JSON) map to
// CodeTransport; status != 1 maps to CodeBusiness with the server message.
func (c *Client) call(ctx context.Context, endpoint string, body map[string]any, out any) error {
	started := time.Now()
	err := c.doCall(ctx, endpoint, body, out)
	c.metrics.ObserveDuration(endpoint, time.Since(started))

	switch typed := pkgerrors.As(err); {
	case err == nil:
		c.metrics.IncOutcome(endpoint, "success")
	case typed != nil && typed.Code() == pkgerrors.CodeBusiness:
		c.metrics.IncOutcome(endpoint, "business_error")
	default:
		c.metrics.IncOutcome(endpoint, "transport_error")
	}
	return err
}

func (c *Client) doCall(ctx context.Context, endpoint string, body map[string]any, out any) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode request body")
	}

	url := c.baseURL + "/" + strings.TrimLeft(endpoint, "/")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(encoded))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(requestIDHeader, uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeTransport, err, "commerce request failed")
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeTransport, err, "decode commerce response")
	}

	if int(env.Status) != statusOK {
		msg := env.Message
		if msg == "" {
			msg = "request rejected"
		}
		return pkgerrors.New(pkgerrors.CodeBusiness, msg)
	}

	if out == nil {
		return nil
	}
	if len(env.Data) == 0 {
		return pkgerrors.New(pkgerrors.CodeTransport, "commerce response missing data")
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeTransport, err, "decode commerce payload")
	}
	return nil
}
