// Package sizer measures the content size of a bundle directory.
package sizer
