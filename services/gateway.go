package services

import (
	"context"
	"strings"
	"time"

	"github.com/campusgate/campusgate-api/model"
	"github.com/google/uuid"
)

// GatewayCharge is the gateway's view of a completed charge
type GatewayCharge struct {
	TransactionID string              `json:"transaction_id"`
	Amount        float64             `json:"amount"`
	Method        model.PaymentMethod `json:"method"`
	Status        string              `json:"status"`
	ProcessedAt   time.Time           `json:"processed_at"`
}

// PaymentGateway abstracts the external payment provider. The engine only
// needs a transaction identifier back; verification flows live outside it.
type PaymentGateway interface {
	Charge(ctx context.Context, amount float64, method model.PaymentMethod) (*GatewayCharge, error)
}

// StubGateway is the development gateway: it accepts every charge and issues
// a unique transaction identifier.
type StubGateway struct{}

// NewStubGateway creates the stub payment gateway
func NewStubGateway() *StubGateway {
	return &StubGateway{}
}

// Charge issues a synthetic transaction id in the gateway's TXN_ format
func (g *StubGateway) Charge(ctx context.Context, amount float64, method model.PaymentMethod) (*GatewayCharge, error) {
	raw := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))
	return &GatewayCharge{
		TransactionID: "TXN_" + raw[:12],
		Amount:        amount,
		Method:        method,
		Status:        "Success",
		ProcessedAt:   time.Now(),
	}, nil
}
