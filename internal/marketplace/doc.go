// Package marketplace loads item pages from the marketplace website.
//
// Item pages render their price history with client-side script, so pages
// are loaded in a headless browser holding the account's session cookie.
// FetchItemScript returns the raw chart script; turning it into a series is
// the job of package dataprocessing.
package marketplace
