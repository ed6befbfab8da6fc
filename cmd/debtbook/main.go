package main

import "github.com/fankeji/debtbook/internal/cli"

func main() {
	cli.Execute()
}
