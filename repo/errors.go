package repo

import "github.com/jmosbacher/igit-go/igiterr"

// errDataCorruption wraps igiterr.DataCorruption for the handful of
// "pipeline handed back a shape we don't recognize" cases in
// commit.go's decoders, naming which part of the wire
// record failed to decode.
func errDataCorruption(what string) error {
	return igiterr.DataCorruption(what, nil)
}
