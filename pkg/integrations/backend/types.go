package backend

import (
	"encoding/json"
	"slices"
)

// Matrices lists the matrices a session can predict with.
type Matrices struct {
	Default    []string       `json:"default_matrices"`
	Custom     []string       `json:"custom_matrices"`
	Logs       []string       `json:"custom_logs"`        // Custom matrices with an attached event log
	MaxSupport map[string]int `json:"matrix_max_support"` // Highest support in each matrix
}

// Names returns the predefined matrices followed by the custom ones.
func (m Matrices) Names() []string {
	return append(slices.Clone(m.Default), m.Custom...)
}

// Has reports whether name is a known matrix.
func (m Matrices) Has(name string) bool {
	return slices.Contains(m.Default, name) || slices.Contains(m.Custom, name)
}

// IsCustom reports whether name was uploaded in this session.
func (m Matrices) IsCustom(name string) bool {
	return slices.Contains(m.Custom, name)
}

// HasLog reports whether an event log is attached to name.
func (m Matrices) HasLog(name string) bool {
	return slices.Contains(m.Logs, name)
}

// Variant is one trace of the event log and whether the graph covers it.
type Variant struct {
	Steps   []string `json:"variant"`
	Covered bool     `json:"covered"`
	Support int      `json:"support"`
}

// Variants is the variant listing for the current graph.
type Variants struct {
	Variants []Variant `json:"variants"`

	// Sequences are the paths through the graph as the backend walked them,
	// left undecoded.
	Sequences json.RawMessage `json:"sequences,omitempty"`
}

// Covered returns how many variants the graph covers.
func (v Variants) Covered() int {
	n := 0
	for _, x := range v.Variants {
		if x.Covered {
			n++
		}
	}
	return n
}

// Metrics are the coverage scores of the current graph, each in [0,1].
type Metrics struct {
	VariantCoverage  float64 `json:"variant_coverage"`
	EventLogCoverage float64 `json:"event_log_coverage"`
}

// Fitness is the token-replay fitness of the current graph against the
// matrix's event log.
type Fitness struct {
	Fitness float64 `json:"fitness"`
}
