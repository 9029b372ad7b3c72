package parser

import "errors"

// Registry holds the dump decoders and detects which one fits a dump.
type Registry struct {
	decoders []Decoder
}

// Global registry instance
var globalRegistry = NewRegistry()

func NewRegistry() *Registry {
	return &Registry{
		decoders: []Decoder{
			NewCheckinDecoder(),
			NewLogcatDecoder(),
		},
	}
}

// GetGlobalRegistry returns the singleton registry.
func GetGlobalRegistry() *Registry {
	return globalRegistry
}

// Detect returns the first decoder that accepts text.
func (r *Registry) Detect(text string) (Decoder, error) {
	for _, d := range r.decoders {
		if d.CanDecode(text) {
			return d, nil
		}
	}
	return nil, errors.New("no suitable decoder found for dump")
}

