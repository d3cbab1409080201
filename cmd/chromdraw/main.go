// Command chromdraw renders chromatic scenes described in YAML through a
// filter bandpass.
package main

func main() {
	Execute()
}
