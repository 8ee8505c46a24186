// Package catalog loads the list of items to scan and reads and writes
// repository files through the GitHub API.
//
// The catalog is an items.json object mapping display names to marketplace
// SKUs. Entries whose name starts with "#" are disabled, and unusual-effect
// SKUs are left out of every scan.
package catalog
