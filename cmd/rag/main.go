// Package main is the entry point for the FinDex RAG Service.
package main

import (
	_ "go.uber.org/automaxprocs/maxprocs"

	"github.com/findex-io/findex/internal/rag"
)

func main() {
	rag.NewApp().Run()
}
