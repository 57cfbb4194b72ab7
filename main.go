package main

import "github.com/jtoledo/betriebsportal/cmd"

func main() {
	cmd.Execute()
}
