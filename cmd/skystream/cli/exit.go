// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import "fmt"

// ExitError asks main to exit with Code without printing anything. A
// command returns it when it has already reported the failure itself,
// such as a replay that finished with decode errors.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

// ExitCode returns the code main exits with.
func (e *ExitError) ExitCode() int {
	return e.Code
}
