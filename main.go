package main

import "github.com/josephgoksu/azubihub/cmd"

func main() {
	cmd.Execute()
}
