package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pedrignacio/tu-kiosko/models"
	"github.com/shopspring/decimal"
)

// ErrPaymentFailed wraps every failure from the payment provider; callers do not
// distinguish causes.
var ErrPaymentFailed = errors.New("payment session creation failed")

type PaymentClient struct {
	baseURL       string
	apiKey        string
	publicBaseURL string
	httpClient    *http.Client
}

func NewPaymentClient(baseURL, apiKey, publicBaseURL string) *PaymentClient {
	return &PaymentClient{
		baseURL:       strings.TrimRight(baseURL, "/"),
		apiKey:        apiKey,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// CreatePayment asks the provider for a payment session and returns its response verbatim.
func (c *PaymentClient) CreatePayment(ctx context.Context, amount decimal.Decimal, orderID string) (json.RawMessage, error) {
	returnURL := c.publicBaseURL + "/order-confirmation"
	reqBody := models.CreatePaymentRequest{
		APIKey:          c.apiKey,
		CommerceOrder:   orderID,
		Subject:         fmt.Sprintf("Pedido TU KIOSKO #%s", orderID),
		Amount:          json.Number(amount.String()),
		URLConfirmation: returnURL,
		URLReturn:       returnURL,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal request: %v", ErrPaymentFailed, err)
	}

	url := fmt.Sprintf("%s/payment/create", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrPaymentFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPaymentFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response body: %v", ErrPaymentFailed, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: unexpected status code %d: %s", ErrPaymentFailed, resp.StatusCode, string(body))
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("%w: provider returned invalid JSON", ErrPaymentFailed)
	}
	return json.RawMessage(body), nil
}
