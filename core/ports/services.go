package ports

import "context"

// CleanupService is the port implemented by the business component driving
// one cleanup run: parse rules, snapshot resources, decide, report, remove.
type CleanupService interface {
	Run(ctx context.Context, rulesSource string) error
}
