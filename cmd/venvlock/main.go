// venvlock resolves Python requirements files into credential-safe lock files.
package main

import "github.com/anthr76/venvlock/cmd/venvlock/cmd"

func main() {
	cmd.Execute()
}
