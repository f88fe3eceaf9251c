// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/jmake/jmake/cmd/jmake"

func main() {
	cmd.Execute()
}
