package main

import "github.com/jmehdipour/billing-sync/cmd"

func main() {
	cmd.Execute()
}
