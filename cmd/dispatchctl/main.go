// Command dispatchctl administers dispatch numbering and templates.
package main

import "os"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
