// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"fmt"
	"os"
)

// Fatal writes "error: err" to stderr and exits. If err carries an
// exit code (the toolchain package's ToolError does, propagating the
// failing external tool's status), that code is used; otherwise 1.
func Fatal(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	if coder, ok := err.(interface{ ExitCode() int }); ok {
		if code := coder.ExitCode(); code > 0 {
			os.Exit(code)
		}
	}
	os.Exit(1)
}
