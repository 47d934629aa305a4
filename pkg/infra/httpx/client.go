package httpx

import "net/http"

//go:generate mockery --name=Client --dir=. --output=./mocks --filename=http_client_mock.go --case=underscore --with-expecter

// Client is the request primitive shared by the image fetcher and the
// generation transport. *http.Client and *FastHTTPClient both satisfy it.
type Client interface {
	Do(req *http.Request) (*http.Response, error)
}
