// Package pipeline turns a narration into illustrations through four ordered
// stages: transcribe, derive prompts, summarize and generate images.
//
// Every stage is a value-in/value-out function over project.Project guarded
// by an "already done?" gate, so re-running a finished project makes no
// provider calls and a failed run resumes at the first missing output. Each
// successful mutation is saved before the stage returns; image generation
// saves after every individual image.
package pipeline
