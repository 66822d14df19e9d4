package main

import "github.com/toolchainkit/toolchainkit/cmd"

func main() {
	cmd.Execute()
}
