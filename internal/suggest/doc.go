// Package suggest implements the suggestion pipeline: it builds a date-aware
// prompt, asks a generative model for song candidates themed around this day
// in music history, recovers a structured candidate list from the model's
// free-form answer, and resolves each candidate against the Spotify catalog
// concurrently. Only candidates that resolve to a playable track survive, in
// their original order.
package suggest
