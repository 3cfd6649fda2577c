//go:build !desktop

package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Fprintln(os.Stderr, "tessera desktop: build with -tags desktop, or use cmd/tessera")
	os.Exit(2)
}
