// Command p9srv serves a 9P2000.L tree rooted at a host directory.
package main

import "os"

func main() {
	os.Exit(run())
}
