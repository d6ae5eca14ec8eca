// Package picstash provides the core of a small image gateway in front of a
// cloud object store: browsers upload, list, and delete images over HTTP and
// view them through short-lived signed URLs.
//
// Objects are private by default. The gateway never hands out a permanent URL;
// access is only ever granted through a freshly issued signed URL with a fixed
// validity window (15 minutes unless configured otherwise).
//
// # Key Components
//
//   - BlobStore: capability interface to the bucket (exists, upload, list,
//     delete, signed-URL issuance) with s3, filesystem, and memory backends
//   - Service: request-level operations built on a BlobStore
//   - Signer / Verifier: SigV4-style query-string signing for backends without
//     native presign support (filesystem, memory)
//
// # Example Usage
//
//	store := memory.NewStore(signer)
//	svc, err := picstash.NewService(store, picstash.ServiceConfig{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	urls, err := svc.ListURLs(ctx)
//
// See the http package for the REST API and the s3, filesystem, and memory
// packages for store backends.
package picstash
