package main

import "github.com/andresmejia3/warpframe/cmd"

func main() {
	cmd.Execute()
}
