package main

import "github.com/pothyeswaran/blogserver/cmd"

func main() {
	cmd.Execute()
}
