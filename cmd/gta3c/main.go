package main

import "github.com/thelink2012/gta3sc-sub000/pkg/cmd"

func main() {
	cmd.Execute()
}
