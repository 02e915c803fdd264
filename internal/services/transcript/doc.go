// Package transcript fetches video transcripts with language-preferential
// track selection.
package transcript
