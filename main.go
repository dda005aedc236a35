package main

import "carrito-cli/cmd"

func main() {
	cmd.Execute()
}
