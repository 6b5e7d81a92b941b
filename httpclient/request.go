package httpclient

// Request is one outbound call.
type Request struct {
	Method string
	// Path is joined with Config.BaseURL unless it is an absolute URL.
	Path    string
	Headers map[string]string
	// Body is sent according to its type: nil, *MultipartBody, io.Reader,
	// []byte, string, or any other value encoded as JSON.
	Body any
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte
}

// JSONResponse is a Response whose body was decoded into Data.
type JSONResponse[T any] struct {
	StatusCode int
	Data       T
}
