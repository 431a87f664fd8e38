package main

import "github.com/goliatone/go-account-auth/cmd/authd/cmd"

func main() {
	cmd.Execute()
}
