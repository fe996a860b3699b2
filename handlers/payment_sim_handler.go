package handlers

import (
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pedrignacio/tu-kiosko/models"
	"github.com/pedrignacio/tu-kiosko/validators"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PaymentSimHandler stands in for the payment provider's session endpoint.
type PaymentSimHandler struct {
	apiKey      string
	checkout    string
	failureRate float64
	logger      *zap.Logger

	mu            sync.Mutex
	rng           *rand.Rand
	nextFlowOrder int64
}

// NewPaymentSimHandler accepts any API key when apiKey is empty. A failureRate in
// (0, 1] answers that share of requests with 503.
func NewPaymentSimHandler(apiKey, publicURL string, failureRate float64, logger *zap.Logger) *PaymentSimHandler {
	return &PaymentSimHandler{
		apiKey:        apiKey,
		checkout:      strings.TrimRight(publicURL, "/") + "/app/web/pay.php",
		failureRate:   failureRate,
		logger:        logger,
		rng:           rand.New(rand.NewSource(time.Now().UnixNano())),
		nextFlowOrder: 1,
	}
}

// CreatePayment handles POST /payment/create
func (h *PaymentSimHandler) CreatePayment(c *gin.Context) {
	if h.shouldFail() {
		h.logger.Info("simulating provider outage")
		c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{
			Error:   "SERVICE_UNAVAILABLE",
			Message: "Payment provider temporarily unavailable",
		})
		return
	}

	var req models.CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	if h.apiKey != "" && req.APIKey != h.apiKey {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{
			Error:   "UNAUTHORIZED",
			Message: "Invalid apiKey",
		})
		return
	}

	if !validators.ValidateCommerceOrder(req.CommerceOrder) {
		h.logger.Warn("rejected commerce order", zap.String("commerce_order", req.CommerceOrder))
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "INVALID_COMMERCE_ORDER",
			Message: "Invalid commerceOrder",
			Details: "commerceOrder must be 1 to 64 letters, digits or dashes",
		})
		return
	}

	amount, err := decimal.NewFromString(req.Amount.String())
	if err != nil || !amount.IsPositive() {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "INVALID_AMOUNT",
			Message: "amount must be a positive number",
		})
		return
	}

	h.mu.Lock()
	flowOrder := h.nextFlowOrder
	h.nextFlowOrder++
	h.mu.Unlock()

	h.logger.Info("payment session created",
		zap.String("commerce_order", req.CommerceOrder),
		zap.String("amount", amount.String()),
		zap.Int64("flow_order", flowOrder),
	)

	c.JSON(http.StatusOK, models.PaymentSession{
		URL:       h.checkout,
		Token:     uuid.NewString(),
		FlowOrder: flowOrder,
	})
}

func (h *PaymentSimHandler) shouldFail() bool {
	if h.failureRate <= 0 {
		return false
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.rng.Float64() < h.failureRate
}
