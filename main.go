package main

import "github.com/fetchkit/fetchkit/cmd"

func main() {
	cmd.Execute()
}
