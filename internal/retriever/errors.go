package retriever

import "errors"

// ErrInvalidInput tags ValueError-class retrieval failures: bad filter
// value, k<=0, empty query. The HTTP surface maps this to a 400.
var ErrInvalidInput = errors.New("retriever: invalid input")

// ErrTransient tags any failure returned by the dense or lexical search.
// withRetry retries errors carrying it, but the search calls are not run
// through withRetry, so these failures reach the caller after one attempt.
var ErrTransient = errors.New("retriever: transient")

// ErrAcceleratorFailure is returned by an embedder's Embed when the
// configured accelerator device failed to initialize or execute. The
// retriever reacts by rebuilding the embedder on CPU exactly once.
var ErrAcceleratorFailure = errors.New("retriever: accelerator failure")
