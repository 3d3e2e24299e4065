package main

import "github.com/vaultmeet/vaultmeet/cmd"

func main() {
	cmd.Execute()
}
