package main

import "github.com/vuquang23/go-steam-session/cmd/steam-session/cmd"

func main() {
	cmd.Execute()
}
