// Package web serves the mashup form over HTTP. A POST runs the pipeline
// synchronously and renders a page linking the finished file, which is then
// served as an attachment.
package web
