package models

// Asset describes a tradable instrument known to the analysis universe.
type Asset struct {
	Symbol string `json:"symbol"`
	Type   string `json:"type"` // commodity, equity, crypto
	Name   string `json:"name"`
}
