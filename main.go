package main

import (
	"github.com/ColonelBlimp/cwendec/cmd"
	"github.com/ColonelBlimp/cwendec/internal/recovery"
)

func main() {
	defer recovery.HandlePanic()
	cmd.Execute()
}
