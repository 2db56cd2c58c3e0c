package main

import "github.com/Codesplay12/Taskify/internal/cli"

func main() {
	cli.Execute()
}
