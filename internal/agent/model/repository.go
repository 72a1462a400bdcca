package model

import "context"

// InvoiceSource supplies the invoice snapshot. It fails with a transport error.
type InvoiceSource interface {
	ListAll(ctx context.Context) ([]Invoice, error)
}

// NotificationSender delivers one reminder.
type NotificationSender interface {
	Send(ctx context.Context, req NotificationRequest) error
}

// ActivityRepository stores the agent activity feed, newest first.
type ActivityRepository interface {
	// Append adds an entry at the head of the feed
	Append(ctx context.Context, entry ActivityLog) error

	// Recent returns at most limit entries, newest first. limit <= 0 returns all.
	Recent(ctx context.Context, limit int) ([]ActivityLog, error)
}

// FollowUpRepository stores sent reminder emails, newest first.
type FollowUpRepository interface {
	Record(ctx context.Context, followUp FollowUp) error
	List(ctx context.Context) ([]FollowUp, error)
}
