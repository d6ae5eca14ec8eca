// Package http provides the REST API of the picstash gateway.
//
// # Routes
//
//	GET    /                        static index document
//	POST   /api/upload              multipart upload, field "image"
//	GET    /api/images              signed URLs for every blob
//	GET    /api/list-images         metadata records for every blob
//	DELETE /api/delete-image/*      delete one blob (name may contain "/")
//	GET    /media/*                 blob content, signed-URL verified
//
// The media route exists only when the configured store serves content
// directly (filesystem, memory); S3-backed deployments hand out native
// presigned URLs instead.
//
// All API responses are JSON. Errors use the envelope {error, message}, with
// the underlying message passed through on internal errors.
package http
