package notify

import (
	"context"

	"github.com/Alias1177/Railwatch/models"
)

// Disabled is the notifier used when no bot token is configured.
// It reports denied so the alerter skips the outward channel entirely.
type Disabled struct{}

func (Disabled) Permission() models.Permission                    { return models.PermissionDenied }
func (Disabled) RequestPermission(ctx context.Context) error      { return nil }
func (Disabled) Send(ctx context.Context, a models.Anomaly) error { return nil }
