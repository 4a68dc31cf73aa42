package main

import "github.com/BrandonIrizarry/docpicker/internal/cli"

func main() {
	cli.Execute()
}
