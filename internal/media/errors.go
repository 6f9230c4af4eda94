package media

import "errors"

// ErrUnsupportedMediaType is returned by Register when the sniffed MIME type
// has no entry in the extension table. No path is assigned in that case.
var ErrUnsupportedMediaType = errors.New("unsupported media type")
