package main

import "lovebox-backend/cmd"

func main() {
	cmd.Run()
}
