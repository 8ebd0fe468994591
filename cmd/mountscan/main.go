// Command mountscan searches atomic structures for sites where an extra
// atom could bond.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
