// Package analysis computes change maps between consecutive frames of a
// captured sequence.
//
// Two families are produced. Pixel maps hold the mean absolute RGB difference
// for every pixel. Latent maps are a coarse proxy: both frames are sampled
// onto a fixed grid with a regular stride and the same per-cell difference is
// recorded. The latent proxy is derived only from visible output. It
// approximates how much the underlying representation moved between steps and
// is not a readout of the generative model's internal latent state.
//
// Maps are computed on first demand and memoised per (sequence, kind, index)
// until the sequence is invalidated.
package analysis
