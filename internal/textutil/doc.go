// Package textutil provides text helpers for deterministic file naming and
// display.
//
// Slug folds accented letters to ASCII before stripping everything that is not
// a letter or hyphen, so prompt text maps to stable image file names.
package textutil
