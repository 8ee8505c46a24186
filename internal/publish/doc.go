// Package publish delivers the stats document produced by a scan to the
// places its consumers read it from: a file in a GitHub repository, a Google
// Sheets range, and the local stats file.
//
// Publishers are independent. A scan calls each configured Publisher in turn
// and a failing target does not stop the others.
package publish
