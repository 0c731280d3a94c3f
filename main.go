// main.go
//
// Entry point for the reactsim CLI; commands are defined in cmd/.

package main

import (
	"github.com/reactsim/reactsim/cmd"
)

func main() {
	cmd.Execute()
}
