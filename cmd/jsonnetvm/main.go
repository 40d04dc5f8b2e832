// Command jsonnetvm evaluates a Jsonnet file or snippet and prints the result.
//
//	jsonnetvm -V env=prod -J vendor main.jsonnet
//	jsonnetvm -e '{ a: 1 + 1 }'
package main

import (
	"context"
	"os"
	"os/signal"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
