// Command equipctl validates, stores and reports on equipment CSV datasets
// from the command line.
package main

import "github.com/JonMunkholm/equipreport/internal/cli"

func main() {
	cli.Execute()
}
