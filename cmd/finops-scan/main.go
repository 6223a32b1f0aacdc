package main

import (
	"github.com/aqkprogrammer/finops-saas/cmd/finops-scan/commands"
)

func main() {
	commands.Execute()
}
