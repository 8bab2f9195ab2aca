// Command pksim is the offline command line for the simulation engine.
package main

import "github.com/phrazzld/pksim-api/internal/cli"

func main() {
	cli.Execute()
}
