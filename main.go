package main

import "github.com/theirongolddev/aibudget/cmd"

func main() {
	cmd.Execute()
}
