// Package integration holds end-to-end tests that drive the real disk image
// utility. They skip themselves on hosts without hdiutil.
package integration
