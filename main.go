// Package main provides a short usage banner for m2prefetch.
//
// For the full CLI, use: go run ./cmd/prefetchsim
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("m2prefetch - transformer-aware stream prefetcher + bandwidth-aware selector")
	fmt.Println("")
	fmt.Println("Usage: prefetchsim [options]")
	fmt.Println("")
	fmt.Println("Options:")
	fmt.Println("  -config     Path to selector configuration JSON file")
	fmt.Println("  -accesses   Number of demand accesses to simulate")
	fmt.Println("  -streams    Number of concurrent synthetic streams")
	fmt.Println("  -stride     Stride between consecutive accesses within a stream, in blocks")
	fmt.Println("  -noise      Percent chance of unrelated random traffic")
	fmt.Println("  -seed       Random seed for the synthetic trace generator")
	fmt.Println("  -v          Verbose progress reports")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/prefetchsim' for the full CLI.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: you provided arguments. Use 'go run ./cmd/prefetchsim' instead.")
	}
}
