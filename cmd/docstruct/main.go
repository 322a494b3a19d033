package main

import "github.com/MeKo-Tech/docstruct/cmd/docstruct/cmd"

func main() {
	cmd.Execute()
}
