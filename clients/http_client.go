package clients

import (
	"context"
	"fmt"
	"io/ioutil"
	"net/http"
	"time"

	Logger "github.com/dice-app/dice/utils/log"
)

const defaultTimeout = 60 * time.Second

type HttpClient struct {
	header http.Header

	client *http.Client
}

func NewDefaultHttpClient() *HttpClient {
	return &HttpClient{header: http.Header{}, client: &http.Client{Timeout: defaultTimeout}}
}

func NewHttpClient(header http.Header, client *http.Client) *HttpClient {
	return &HttpClient{header: header, client: client}
}

// Get issues a GET request. Non 2xx responses are logged and returned as an
// error, in which case the body is already consumed and closed.
func (c *HttpClient) Get(ctx context.Context, uri string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, err
	}
	if c.header != nil {
		req.Header = c.header.Clone()
	}
	res, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}

	if IsNon200HttpResponse(res) {
		MaybeLogNon200HttpError(res)
		res.Body.Close()
		return nil, fmt.Errorf("non-200 http code %d from %s", res.StatusCode, uri)
	}

	return res, nil
}

// Log http response if the error code is not 2XX
func MaybeLogNon200HttpError(res *http.Response) {
	if IsNon200HttpResponse(res) {
		Logger.Log.Errorf("non-200 http code: %d", res.StatusCode)
		LogHttpResponseBody(res)
	}
}

func IsNon200HttpResponse(res *http.Response) bool {
	return res.StatusCode >= 300
}

func LogHttpResponseBody(res *http.Response) {
	body, err := ioutil.ReadAll(res.Body)
	if err == nil {
		Logger.Log.Errorln("response body is: ", string(body))
	}
}
