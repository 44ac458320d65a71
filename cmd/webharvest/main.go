// Package main provides the entry point for the webharvest CLI.
//
// webharvest crawls a website starting from one or more seed URLs,
// collects the images it finds, and bundles pages and images into a
// zip archive together with a harvest report.
//
// Usage:
//
//	webharvest harvest <url>
//	webharvest history
//
// See --help for all available options.
package main

// main is the entry point for webharvest.
func main() {
	Execute()
}
