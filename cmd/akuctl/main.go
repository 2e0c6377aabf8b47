// Command akuctl creates Akumuli databases and writes samples to them.
//
//	akuctl create --path ./metrics --volumes 4
//	akuctl write --path ./metrics "cpu host=a" 0.75
//	akuctl resolve --path ./metrics "cpu host=a" "cpu host=b"
//
// Every flag can also be set through an AKU_ environment variable, e.g.
// AKU_PATH or AKU_PAGE_SIZE, and through .env or .env.local files in the
// working directory.
package main

import "os"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
