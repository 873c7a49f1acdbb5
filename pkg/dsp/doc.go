// Package dsp holds the numeric primitives behind voice feature extraction
// and restyling: exact-length time stretching, short-time magnitude spectra,
// onset-strength envelopes and autocorrelation.
//
// All functions are pure; none retain state between calls.
package dsp
