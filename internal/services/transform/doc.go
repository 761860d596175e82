// Package transform runs the external image tools behind the post-processing
// actions (realesrgan-ncnn-vulkan, pngquant, ImageMagick convert).
//
// A non-zero exit status, a missing binary, or a run that produces no output
// file is reported as services.ErrTransformFailure with the tool's stderr.
package transform
