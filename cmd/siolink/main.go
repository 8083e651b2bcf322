// Command siolink runs an emulated serial I/O controller against a peer over
// TCP or a loopback, with a polling console on the host side.
package main

import "github.com/sarchlab/siolink/cmd/siolink/cmd"

func main() {
	cmd.Execute()
}
