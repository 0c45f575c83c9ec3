// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/fatpack/fatpack/cmd/fatpack"

func main() {
	cmd.Execute()
}
