package handler

import (
	"time"

	"github.com/wallet-ledger-engine/internal/domain/audit"
	"github.com/wallet-ledger-engine/internal/domain/transaction"
	"github.com/wallet-ledger-engine/internal/domain/wallet"
)

// OpenWalletRequest represents a request to open a wallet for an owner
type OpenWalletRequest struct {
	OwnerType string `json:"owner_type" binding:"required"`
	OwnerID   string `json:"owner_id" binding:"required"`
}

// WalletResponse represents a wallet in API responses
type WalletResponse struct {
	ID        string `json:"id"`
	OwnerType string `json:"owner_type"`
	OwnerID   string `json:"owner_id"`
	Balance   string `json:"balance"`
	Currency  string `json:"currency"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// LedgerOperationRequest is a manual deposit or withdrawal. It binds from JSON
// or from a multipart form carrying a receipt file.
type LedgerOperationRequest struct {
	Amount      string `json:"amount" form:"amount" binding:"required,amount"`
	ServiceType string `json:"service_type" form:"service_type" binding:"omitempty,oneof=OTHER TRANSFER WITHDRAWAL GIFTCARD CRYPTO"`
	Status      string `json:"status" form:"status" binding:"omitempty,oneof=COMPLETED PENDING"`
	Comment     string `json:"comment" form:"comment" binding:"max=500"`
	AdminNote   string `json:"admin_note" form:"admin_note" binding:"max=500"`
	// RecordID completes an existing PENDING record instead of creating one
	RecordID string `json:"record_id" form:"record_id" binding:"omitempty,uuid"`
}

// TransferRequest moves funds from the wallet in the path to the receiver
type TransferRequest struct {
	ReceiverType      string `json:"receiver_type" form:"receiver_type" binding:"required"`
	ReceiverID        string `json:"receiver_id" form:"receiver_id" binding:"required"`
	ReceiverReference string `json:"receiver_reference" form:"receiver_reference"`
	ReceiverName      string `json:"receiver_name" form:"receiver_name"`
	Amount            string `json:"amount" form:"amount" binding:"required,amount"`
	Comment           string `json:"comment" form:"comment" binding:"max=500"`
}

// WithdrawalRequestRequest asks for a payout to a registered bank account
type WithdrawalRequestRequest struct {
	Amount        string `json:"amount" binding:"required,amount"`
	BankAccountID string `json:"bank_account_id" binding:"required,uuid"`
	Comment       string `json:"comment" binding:"max=500"`
}

// ReviewRequest carries an admin decision on a pending transaction
type ReviewRequest struct {
	AdminNote string `json:"admin_note" form:"admin_note" binding:"max=500"`
}

// BankResponse represents the frozen payout destination of a withdrawal
type BankResponse struct {
	BankID        string `json:"bank_id"`
	AccountName   string `json:"account_name"`
	AccountNumber string `json:"account_number"`
}

// TransactionResponse represents a transaction record in API responses
type TransactionResponse struct {
	ID          string        `json:"id"`
	Account     string        `json:"account"`
	Causer      string        `json:"causer"`
	Direction   string        `json:"direction"`
	ServiceType string        `json:"service_type"`
	Status      string        `json:"status"`
	Amount      string        `json:"amount"`
	Summary     string        `json:"summary"`
	AdminNote   string        `json:"admin_note,omitempty"`
	Receipt     string        `json:"receipt,omitempty"`
	Comment     string        `json:"comment,omitempty"`
	Bank        *BankResponse `json:"bank,omitempty"`
	CreatedAt   string        `json:"created_at"`
	UpdatedAt   string        `json:"updated_at"`
}

// TransferResponse holds both legs of a transfer
type TransferResponse struct {
	Debit  TransactionResponse `json:"debit"`
	Credit TransactionResponse `json:"credit"`
}

// StatusChangeResponse is one step of an audit history
type StatusChangeResponse struct {
	EventID    string `json:"event_id"`
	Kind       string `json:"kind"`
	Status     string `json:"status"`
	Actor      string `json:"actor"`
	AdminNote  string `json:"admin_note,omitempty"`
	OccurredAt string `json:"occurred_at"`
}

// AuditResponse represents an audit entry in API responses
type AuditResponse struct {
	RecordID string                 `json:"record_id"`
	Account  string                 `json:"account"`
	Status   string                 `json:"status"`
	Amount   string                 `json:"amount"`
	Summary  string                 `json:"summary"`
	History  []StatusChangeResponse `json:"history"`
}

// PaginationParams represents pagination parameters for list endpoints
type PaginationParams struct {
	Page    int `form:"page,default=1" binding:"min=1"`
	PerPage int `form:"per_page,default=10" binding:"min=1,max=100"`
}

// ListTransactionsParams adds an optional status filter to pagination
type ListTransactionsParams struct {
	PaginationParams
	Status string `form:"status" binding:"omitempty,oneof=PENDING COMPLETED DECLINED CANCELLED"`
}

func mapWalletToResponse(w *wallet.Wallet, currency string) WalletResponse {
	return WalletResponse{
		ID:        w.ID.String(),
		OwnerType: w.Owner.Type,
		OwnerID:   w.Owner.ID,
		Balance:   w.Balance.StringFixed(2),
		Currency:  currency,
		CreatedAt: w.CreatedAt.Format(time.RFC3339),
		UpdatedAt: w.UpdatedAt.Format(time.RFC3339),
	}
}

func mapRecordToResponse(r *transaction.Record) TransactionResponse {
	response := TransactionResponse{
		ID:          r.ID.String(),
		Account:     r.Account.String(),
		Causer:      r.Causer.String(),
		Direction:   string(r.Direction),
		ServiceType: string(r.ServiceType),
		Status:      string(r.Status),
		Amount:      r.Amount.StringFixed(2),
		Summary:     r.Summary,
		AdminNote:   r.AdminNote,
		Receipt:     r.Receipt,
		Comment:     r.Comment,
		CreatedAt:   r.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   r.UpdatedAt.Format(time.RFC3339),
	}

	if r.Bank != nil {
		response.Bank = &BankResponse{
			BankID:        r.Bank.BankID,
			AccountName:   r.Bank.AccountName,
			AccountNumber: r.Bank.AccountNumber,
		}
	}

	return response
}

func mapAuditToResponse(e *audit.Entry) AuditResponse {
	history := make([]StatusChangeResponse, 0, len(e.History))
	for _, change := range e.History {
		history = append(history, StatusChangeResponse{
			EventID:    change.EventID.String(),
			Kind:       string(change.Kind),
			Status:     string(change.Status),
			Actor:      change.Actor.String(),
			AdminNote:  change.AdminNote,
			OccurredAt: change.OccurredAt.Format(time.RFC3339),
		})
	}

	return AuditResponse{
		RecordID: e.RecordID.String(),
		Account:  e.Account.String(),
		Status:   string(e.Status),
		Amount:   e.Amount,
		Summary:  e.Summary,
		History:  history,
	}
}
