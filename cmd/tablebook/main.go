package main

import "github.com/example/table-booker/cmd"

func main() {
	cmd.Execute()
}
