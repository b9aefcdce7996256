// Package services carries cross-cutting service plumbing: the error
// taxonomy used to classify stage failures and context annotations that
// surface process identity in logs.
package services
