// Command docsplit loads documents from local files and splits them into
// chunks for retrieval pipelines.
package main

import (
	"context"
	"os"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
