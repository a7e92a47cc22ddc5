package main

import "github.com/KshitijThareja/Orbyq/cmd"

func main() {
	cmd.Execute()
}
