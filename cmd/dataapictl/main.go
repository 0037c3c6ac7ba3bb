// Command dataapictl inspects Data API queries and region codes offline.
package main

import (
	"os"

	"regioniq/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
