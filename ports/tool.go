package ports

import "context"

// Tool is an analysis tool created by name from the tools factory
type Tool interface {
	Name() string
	Execute(ctx context.Context, settings map[string]any) (any, error)
}
