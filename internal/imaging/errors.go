package imaging

import "fmt"

// DecodeError reports an image payload that was fetched successfully
// but is not a decodable raster image. It is recoverable: the image is
// skipped and acquisition continues with the rest.
type DecodeError struct {
	// URL is the image URL the payload came from.
	URL string

	// Err is the decoder's complaint.
	Err error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode image %s: %v", e.URL, e.Err)
}

// Unwrap returns the underlying error.
func (e *DecodeError) Unwrap() error {
	return e.Err
}
