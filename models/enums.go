package models

// Closed enums for payment and invoice domain values. Keep string kinds so
// gorm stores them as plain varchar columns.

type InvoiceStatus string

const (
	InvoiceStatusAwaitingPayment InvoiceStatus = "awaiting payment"
	InvoiceStatusPartiallyPaid   InvoiceStatus = "partially paid"
	InvoiceStatusCompleted       InvoiceStatus = "completed"
	InvoiceStatusOverdue         InvoiceStatus = "overdue"
)

type PaymentStatus string

const (
	PaymentStatusPendingApproval PaymentStatus = "pending_approval"
	PaymentStatusApproved        PaymentStatus = "approved"
	PaymentStatusRejected        PaymentStatus = "rejected"
	PaymentStatusPendingPayment  PaymentStatus = "pending_payment"
	PaymentStatusProcessing      PaymentStatus = "processing"
	PaymentStatusSucceeded       PaymentStatus = "succeeded"
	PaymentStatusFailed          PaymentStatus = "failed"
)

type PaymentMethod string

const (
	PaymentMethodCard         PaymentMethod = "card"
	PaymentMethodGcash        PaymentMethod = "gcash"
	PaymentMethodGrabPay      PaymentMethod = "grab_pay"
	PaymentMethodPaymaya      PaymentMethod = "paymaya"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodPaymongo     PaymentMethod = "paymongo"
)

// single display-name mapping; do not compare raw strings elsewhere
var paymentMethodDisplayNames = map[PaymentMethod]string{
	PaymentMethodCard:         "Credit/Debit Card",
	PaymentMethodGcash:        "GCash",
	PaymentMethodGrabPay:      "GrabPay",
	PaymentMethodPaymaya:      "Maya",
	PaymentMethodBankTransfer: "Bank Transfer",
	PaymentMethodPaymongo:     "PayMongo",
}

func (m PaymentMethod) IsValid() bool {
	_, ok := paymentMethodDisplayNames[m]
	return ok
}

func (m PaymentMethod) DisplayName() string {
	if name, ok := paymentMethodDisplayNames[m]; ok {
		return name
	}
	return string(m)
}

// IsGatewayMethod reports whether the method settles through the payment
// gateway rather than manual admin review.
func (m PaymentMethod) IsGatewayMethod() bool {
	switch m {
	case PaymentMethodCard, PaymentMethodGcash, PaymentMethodGrabPay, PaymentMethodPaymaya, PaymentMethodPaymongo:
		return true
	}
	return false
}

type HistoryAction string

const (
	HistoryActionSubmitted HistoryAction = "submitted"
	HistoryActionApproved  HistoryAction = "approved"
	HistoryActionRejected  HistoryAction = "rejected"
)

type NotificationType string

const (
	NotificationTypePaymentApproved NotificationType = "payment_approved"
	NotificationTypePaymentRejected NotificationType = "payment_rejected"
	NotificationTypeGeneral         NotificationType = "general"
)

type ReceiptStatus string

const (
	ReceiptStatusCompleted ReceiptStatus = "Completed"
	ReceiptStatusPartial   ReceiptStatus = "Partial"
)

type UserRole string

const (
	UserRoleAdmin    UserRole = "admin"
	UserRoleCustomer UserRole = "customer"
)
