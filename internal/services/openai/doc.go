// Package openai wraps github.com/sashabaranov/go-openai for the three
// provider calls audiosketch makes: speech-to-text, JSON text generation, and
// image generation. It also downloads generated images.
//
// Every failure is tagged with services.ErrProvider so callers can classify
// it with errors.Is. Requests are not retried here; the pipeline resumes from
// the last saved stage on the next run.
package openai
