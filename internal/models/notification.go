package models

type NotificationType string

const (
	NotificationOrderConfirmation NotificationType = "order_confirmation"
	NotificationOrderCancelled    NotificationType = "order_cancelled"
	NotificationPaymentVerified   NotificationType = "payment_verified"
	NotificationPaymentRejected   NotificationType = "payment_rejected"
	NotificationOrderStatus       NotificationType = "order_status"
)

// Notification is handed to the outbound notification service.
type Notification struct {
	Type     NotificationType  `json:"type"`
	UserID   string            `json:"user_id"`
	Subject  string            `json:"subject"`
	Body     string            `json:"body"`
	Metadata map[string]string `json:"metadata,omitempty"`
}
