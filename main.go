package main

import "github.com/Rorical/RoriPersona/cmd"

func main() {
	cmd.Execute()
}
