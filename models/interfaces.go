package models

import "context"

// TransactionSource provides the one-shot bulk load of flagged transactions
type TransactionSource interface {
	FlaggedTransactions(ctx context.Context) ([]Transaction, error)
}

// Permission mirrors the tri-state notification permission model
type Permission string

const (
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
	PermissionDefault Permission = "default"
)

// Notifier pushes a short anomaly summary to the operator channel.
// Send is only attempted when Permission reports granted; RequestPermission
// is fired once from the default state and its outcome is not awaited.
type Notifier interface {
	Permission() Permission
	RequestPermission(ctx context.Context) error
	Send(ctx context.Context, a Anomaly) error
}
