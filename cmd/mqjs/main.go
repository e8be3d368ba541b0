package main

import "github.com/shiroyk/mqjs/cmd"

func main() {
	cmd.Execute()
}
