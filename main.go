package main

import "github.com/ridoystarlord/seedato/cmd"

func main() {
	cmd.Execute()
}
