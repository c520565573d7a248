// SPDX-FileCopyrightText: Copyright 2025 Carabiner Systems, Inc
// SPDX-License-Identifier: Apache-2.0

package main

import "github.com/carabiner-dev/fixflow/internal/cmd"

func main() {
	cmd.Execute()
}
