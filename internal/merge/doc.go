// Package merge joins trimmed clips, in order, into one output file.
package merge
