package rag

import (
	"context"

	"github.com/findex-io/findex/pkg/app"
)

const appDescription = `FinDex RAG Service

A question answering service for financial documents.

This server provides:
  - Financial document ingestion with vector embeddings
  - Semantic similarity search with metadata filtering
  - Question answering over earnings reports with cost tracking`

// NewApp creates a new application instance.
func NewApp() *app.App {
	opts := NewOptions()

	return app.NewApp(
		app.WithName(Name),
		app.WithShortDescription("FinDex financial document question answering service"),
		app.WithDescription(appDescription),
		app.WithOptions(opts),
		app.WithRunFunc(func() error {
			return Run(opts)
		}),
	)
}

// Run runs the service with the given options.
func Run(opts *Options) error {
	ctx := context.Background()

	srv, err := NewServer(ctx, opts)
	if err != nil {
		return err
	}
	return srv.Run(ctx)
}
