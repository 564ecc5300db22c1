package main

import "github.com/kapu/santoral-go/cmd/santoral/cmd"

func main() {
	cmd.Execute()
}
