// Package publish packages a build artifact and transfers it to a hosting
// target. The live version at the target is replaced only when the transfer
// is confirmed; a failed transfer leaves the previous version in place.
// Transfers are attempted once and never retried or rolled back.
package publish
