package blob

import "errors"

// ErrQuotaExceeded is returned (wrapped) by Save when the blob does not fit
// the backend's configured capacity. The previous blob is left untouched.
var ErrQuotaExceeded = errors.New("storage quota exceeded")

// ErrChecksum is returned by Load when the stored payload fails its
// integrity check.
var ErrChecksum = errors.New("blob checksum mismatch")
