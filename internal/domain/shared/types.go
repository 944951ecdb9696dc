package shared

// Direction is the balance effect of a transaction record
type Direction string

const (
	DirectionCredit Direction = "CREDIT"
	DirectionDebit  Direction = "DEBIT"
)

// ServiceType classifies why a balance changed
type ServiceType string

const (
	ServiceTypeOther      ServiceType = "OTHER"
	ServiceTypeTransfer   ServiceType = "TRANSFER"
	ServiceTypeWithdrawal ServiceType = "WITHDRAWAL"
	ServiceTypeGiftcard   ServiceType = "GIFTCARD"
	ServiceTypeCrypto     ServiceType = "CRYPTO"
)

// Valid reports whether s is a known service type
func (s ServiceType) Valid() bool {
	switch s {
	case ServiceTypeOther, ServiceTypeTransfer, ServiceTypeWithdrawal, ServiceTypeGiftcard, ServiceTypeCrypto:
		return true
	}
	return false
}

// TransactionStatus defines transaction record lifecycle states
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "PENDING"
	TransactionStatusCompleted TransactionStatus = "COMPLETED"
	TransactionStatusDeclined  TransactionStatus = "DECLINED"
	TransactionStatusCancelled TransactionStatus = "CANCELLED"
)

// Valid reports whether s is a known status
func (s TransactionStatus) Valid() bool {
	switch s {
	case TransactionStatusPending, TransactionStatusCompleted, TransactionStatusDeclined, TransactionStatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no further transitions are allowed out of s
func (s TransactionStatus) IsTerminal() bool {
	return s == TransactionStatusCompleted || s == TransactionStatusDeclined || s == TransactionStatusCancelled
}

// NotificationKind identifies what happened to a wallet
type NotificationKind string

const (
	NotificationWalletUpdated            NotificationKind = "wallet_updated"
	NotificationWithdrawalRequested      NotificationKind = "withdrawal_requested"
	NotificationWithdrawalApproved       NotificationKind = "withdrawal_approved"
	NotificationWithdrawalDeclined       NotificationKind = "withdrawal_declined"
	NotificationWithdrawalCancelled      NotificationKind = "withdrawal_cancelled"
	NotificationFundsRequestedWithdrawal NotificationKind = "funds_requested_for_withdrawal"
)

// Audience tells the dispatcher who receives an event
type Audience string

const (
	AudienceOwner  Audience = "OWNER"
	AudienceAdmins Audience = "ADMINS"
)

// OutboxStatus defines message publishing states
type OutboxStatus string

const (
	OutboxStatusPending         OutboxStatus = "PENDING"
	OutboxStatusProcessed       OutboxStatus = "PROCESSED"
	OutboxStatusFailedToPublish OutboxStatus = "FAILED_TO_PUBLISH"
)
