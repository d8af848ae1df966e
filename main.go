package main

import "library-alert/cmd"

func main() {
	cmd.Execute()
}
