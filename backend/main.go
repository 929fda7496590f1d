package main

import "github.com/AnTengye/clausewise/backend/cli"

func main() {
	cli.Execute()
}
