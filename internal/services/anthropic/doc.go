// Package anthropic is a minimal messages API client used by the summarizer.
package anthropic
