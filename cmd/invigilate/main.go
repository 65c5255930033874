package main

import "github.com/nimburion/invigilate/pkg/cli"

func main() {
	cli.Execute(cli.NewRootCommand(cli.Options{
		Name:        "invigilate",
		Description: "Inspect cascading logger contexts",
	}))
}
