// Package submit provides building blocks for the submit func handed to a
// formengine.Engine: middleware that rewrites values before they leave the
// engine, an HTTP JSON transport, and a Reporter that routes server-side field
// rejections back onto the engine through SetFieldError.
package submit
