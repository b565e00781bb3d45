package main

import "github.com/ValentinKolb/dScene/cmd"

func main() {
	cmd.Execute()
}
