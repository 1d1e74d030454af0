package main

import "github.com/nfrund/profitbridge/cmd/pbctl/cmd"

func main() {
	cmd.Execute()
}
