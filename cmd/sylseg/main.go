// SPDX-License-Identifier: EPL-2.0

// Command sylseg splits spoken recordings into syllable sized segments.
package main

import (
	"os"

	"github.com/ik5/sylseg/cmd/sylseg/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
