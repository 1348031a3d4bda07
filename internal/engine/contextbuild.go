package engine

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/inkwell-ai/inkwell/internal/domain"
)

// ContextResolver is the backend call that turns a selection into
// resolved content. It owns truncation and normalization policy, so its
// token and character counts are authoritative.
type ContextResolver interface {
	BuildContext(ctx context.Context, req *domain.BuildContextRequest) (*domain.ContextPayload, error)
}

// ContextBuilder turns a notebook's selection into a context payload in
// a single round trip. It is called on every selection change and
// unconditionally before every send; payloads are never cached across
// selection changes.
type ContextBuilder struct {
	resolver ContextResolver
	logger   *zap.Logger
}

// NewContextBuilder creates a context builder.
func NewContextBuilder(resolver ContextResolver, logger *zap.Logger) *ContextBuilder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContextBuilder{resolver: resolver, logger: logger}
}

// Build resolves the current selection. A failed call is a failed build;
// the send flow must abort rather than proceed with stale context.
func (b *ContextBuilder) Build(ctx context.Context, notebookID string, sel *Selection) (*domain.ContextPayload, error) {
	req := &domain.BuildContextRequest{
		NotebookID: notebookID,
		Config:     sel.Config(),
	}

	payload, err := b.resolver.BuildContext(ctx, req)
	if err != nil {
		b.logger.Error("context build failed",
			zap.String("notebook_id", notebookID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("build context: %w", err)
	}

	b.logger.Debug("context built",
		zap.String("notebook_id", notebookID),
		zap.Int("token_count", payload.TokenCount),
		zap.Int("char_count", payload.CharCount),
	)
	return payload, nil
}
