package main

import (
	"github.com/Compaile/ctrack/pkg/cmd"
)

func main() {
	cmd.Execute()
}
