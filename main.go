package main

import "github.com/andresmejia3/facereg/cmd"

func main() {
	cmd.Execute()
}
