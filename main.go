package main

import "github.com/frahmantamala/separation-management/cmd"

func main() {
	cmd.Execute()
}
