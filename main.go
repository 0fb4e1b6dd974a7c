package main

import "github.com/gutachten-org/sitekit/cmd"

func main() {
	cmd.Execute()
}
