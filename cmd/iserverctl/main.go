// Command iserverctl manages the datasources of a SuperMap iServer data service.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
