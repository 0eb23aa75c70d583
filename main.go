// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/oxi8/oxi8pack/cmd/oxi8pack"

func main() {
	cmd.Execute()
}
