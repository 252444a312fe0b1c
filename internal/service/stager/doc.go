// Package stager copies prebuilt toolkit libraries and their debug symbols
// into a build output directory.
//
// Run loads settings, derives the toolset and variant from CLI input and calls
// Stage, which walks the artifact plan in order, fails on the first missing
// source and never overwrites a file already present at the destination.
package stager
