package payments

import (
	"context"
	"strings"

	"github.com/google/uuid"
	stripeapi "github.com/stripe/stripe-go/v81"
	"github.com/vocdoni/payments-backend/stripe"
	"go.vocdoni.io/dvote/log"
)

// SyntheticTransferPrefix starts the id of every placeholder transfer.
const SyntheticTransferPrefix = "tr_synthetic_"

// verificationDocument is the requirement that asks the account holder for
// an identity document.
const verificationDocument = "verification.document"

// Accounts onboards connected accounts, reports their readiness and pays them.
type Accounts struct {
	base
}

func (m *Accounts) capabilities() *stripeapi.AccountCapabilitiesParams {
	return &stripeapi.AccountCapabilitiesParams{
		CardPayments: &stripeapi.AccountCapabilitiesCardPaymentsParams{Requested: stripeapi.Bool(true)},
		Transfers:    &stripeapi.AccountCapabilitiesTransfersParams{Requested: stripeapi.Bool(true)},
	}
}

// CreateExpressAccount creates a connected account onboarded through the
// platform's hosted flow.
func (m *Accounts) CreateExpressAccount(ctx context.Context) (*stripeapi.Account, error) {
	const op = "createExpressAccount"
	ctx, cancel := m.call(ctx)
	defer cancel()
	account, err := m.gw.NewAccount(ctx, &stripeapi.AccountParams{
		Type:         stripeapi.String(string(stripeapi.AccountTypeExpress)),
		Country:      stripeapi.String(m.conf.Country),
		Capabilities: m.capabilities(),
	})
	if err != nil {
		return nil, gatewayError(op, "", err)
	}
	log.Infow("express account created", "accountId", account.ID)
	return account, nil
}

// CreateCustomAccountFromToken creates a connected account from an account
// token collected client side. The platform's detailed rejection reason is
// logged for operators, callers only get the generic error.
func (m *Accounts) CreateCustomAccountFromToken(ctx context.Context, token string) (*stripeapi.Account, error) {
	const op = "createCustomAccount"
	if token == "" {
		return nil, validationError(op, "", "account token is required")
	}
	ctx, cancel := m.call(ctx)
	defer cancel()
	account, err := m.gw.NewAccount(ctx, &stripeapi.AccountParams{
		Type:         stripeapi.String(string(stripeapi.AccountTypeCustom)),
		Country:      stripeapi.String(m.conf.Country),
		AccountToken: stripeapi.String(token),
		Capabilities: m.capabilities(),
	})
	if err != nil {
		if apiErr, ok := stripe.APIError(err); ok && apiErr.Msg != "" {
			log.Warnw("custom account rejected by the platform",
				"detail", apiErr.Msg, "param", apiErr.Param, "code", apiErr.Code, "requestId", apiErr.RequestID)
		}
		return nil, gatewayError(op, "", err)
	}
	log.Infow("custom account created", "accountId", account.ID)
	return account, nil
}

// CreateOnboardingLink returns a short-lived onboarding URL for the account.
func (m *Accounts) CreateOnboardingLink(ctx context.Context, accountID string) (string, error) {
	const op = "createOnboardingLink"
	if accountID == "" {
		return "", validationError(op, "", "account id is required")
	}
	ctx, cancel := m.call(ctx)
	defer cancel()
	link, err := m.gw.NewAccountLink(ctx, &stripeapi.AccountLinkParams{
		Account:    stripeapi.String(accountID),
		RefreshURL: stripeapi.String(m.conf.FrontendURL + "/onboarding/refresh"),
		ReturnURL:  stripeapi.String(m.conf.FrontendURL + "/onboarding/complete"),
		Type:       stripeapi.String(string(stripeapi.AccountLinkTypeAccountOnboarding)),
	})
	if err != nil {
		return "", gatewayError(op, accountID, err)
	}
	return link.URL, nil
}

// AccountStatus is the onboarding readiness of a connected account.
type AccountStatus struct {
	IsValid     bool `json:"isValid"`
	IsEnabled   bool `json:"isEnabled"`
	NeedsIDCard bool `json:"needsIdCard"`
}

// AccountStatusResult tells a known status apart from a failed lookup. When
// Known is false Status is all false and Err holds the lookup failure.
type AccountStatusResult struct {
	Known  bool
	Status AccountStatus
	Err    error
}

func statusOf(account *stripeapi.Account) AccountStatus {
	status := AccountStatus{
		IsValid:   account.DetailsSubmitted,
		IsEnabled: account.ChargesEnabled && account.PayoutsEnabled,
	}
	if account.Requirements != nil {
		for _, req := range account.Requirements.CurrentlyDue {
			if strings.Contains(req, verificationDocument) {
				status.NeedsIDCard = true
				break
			}
		}
	}
	return status
}

// GetAccountStatus derives the readiness of a connected account. It never
// fails: a lookup error yields an unknown, all-false status.
func (m *Accounts) GetAccountStatus(ctx context.Context, accountID string) AccountStatusResult {
	const op = "getAccountStatus"
	if accountID == "" {
		return AccountStatusResult{Err: validationError(op, "", "account id is required")}
	}
	ctx, cancel := m.call(ctx)
	defer cancel()
	account, err := m.gw.GetAccount(ctx, accountID)
	if err != nil {
		err = gatewayError(op, accountID, err)
		unknownAccountStatus.Inc()
		log.Warnw("account status unknown, reporting not ready", "accountId", accountID)
		m.record(ctx, &Fallback{
			Kind:      FallbackUnknownAccountStatus,
			Subject:   accountID,
			Reason:    err.Error(),
			CreatedAt: m.now(),
		})
		return AccountStatusResult{Err: err}
	}
	return AccountStatusResult{Known: true, Status: statusOf(account)}
}

// TransferResult is either a real transfer or, when the platform refused it,
// a synthetic placeholder carrying the requested amount and destination.
// Synthetic transfers moved no money and must never be booked as real.
type TransferResult struct {
	Transfer  *stripeapi.Transfer
	Synthetic bool
	Err       error
}

// TransferToAccount moves funds to a connected account. Only invalid input
// is returned as an error; a platform failure yields a synthetic transfer
// whose id starts with SyntheticTransferPrefix.
func (m *Accounts) TransferToAccount(ctx context.Context, accountID string, amount int64) (*TransferResult, error) {
	const op = "transferToAccount"
	if accountID == "" {
		return nil, validationError(op, "", "account id is required")
	}
	if amount <= 0 {
		return nil, validationError(op, accountID, "amount must be a positive number of cents")
	}
	ctx, cancel := m.call(ctx)
	defer cancel()
	transfer, err := m.gw.NewTransfer(ctx, &stripeapi.TransferParams{
		Amount:      stripeapi.Int64(amount),
		Currency:    stripeapi.String(m.conf.Currency),
		Destination: stripeapi.String(accountID),
	})
	if err == nil {
		log.Infow("transfer created", "accountId", accountID, "transferId", transfer.ID, "amount", amount)
		return &TransferResult{Transfer: transfer}, nil
	}

	err = gatewayError(op, accountID, err)
	synthetic := &stripeapi.Transfer{
		ID:          SyntheticTransferPrefix + uuid.New().String(),
		Object:      "transfer",
		Amount:      amount,
		Currency:    stripeapi.Currency(m.conf.Currency),
		Destination: &stripeapi.Account{ID: accountID},
		Created:     m.now().Unix(),
		Description: "synthetic placeholder, no funds were moved",
		Metadata:    map[string]string{"synthetic": "true"},
	}
	syntheticTransfers.Inc()
	log.Warnw("transfer failed, returning synthetic placeholder",
		"accountId", accountID, "amount", amount, "syntheticId", synthetic.ID)
	m.record(ctx, &Fallback{
		Kind:        FallbackSyntheticTransfer,
		Subject:     accountID,
		Amount:      amount,
		SyntheticID: synthetic.ID,
		Reason:      err.Error(),
		CreatedAt:   m.now(),
	})
	return &TransferResult{Transfer: synthetic, Synthetic: true, Err: err}, nil
}

// IsSyntheticTransfer reports whether id names a placeholder transfer.
func IsSyntheticTransfer(id string) bool {
	return strings.HasPrefix(id, SyntheticTransferPrefix)
}
