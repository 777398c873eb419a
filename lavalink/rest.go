package lavalink

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	loadTracksEndpoint string = "/v4/loadtracks"
	playerEndpoint     string = "/v4/sessions/{sessionId}/players/{guildId}"
	websocketEndpoint  string = "/v4/websocket"
)

type restClient struct {
	baseUrl string
	headers map[string]string
	http    *http.Client
}

type Request struct {
	*http.Request
	client *restClient
}

type PathParam struct {
	K string
	V string
}

func newRestClient(baseUrl string, password string) *restClient {
	return &restClient{
		baseUrl: baseUrl,
		headers: map[string]string{
			"Authorization": password,
		},
		http: &http.Client{},
	}
}

// NewRequest constructs a new http request with url
// equal to client's baseUrl + the provided endpoint.
// Returns error if invalid pathParams provided.
func (client *restClient) NewRequest(ctx context.Context, method string, endpoint string, pathParams ...PathParam) (*Request, error) {
	url, err := client.newUrl(endpoint, pathParams...)
	if err != nil {
		return nil, err
	}
	r, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, err
	}
	req := &Request{Request: r, client: client}
	for k, v := range client.headers {
		req = req.AddHeader(k, v)
	}
	return req, nil
}

// AddBody marshalls the provided interface to json
// and sets it as the request's body.
func (r *Request) AddBody(v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	r.Body = io.NopCloser(bytes.NewReader(b))
	r.ContentLength = int64(len(b))
	r.Header.Set("Content-Type", "application/json")
	return nil
}

func (r *Request) AddHeader(k string, v string) *Request {
	r.Header.Add(k, v)
	return r
}

func (r *Request) AddQueryParam(k string, v string) *Request {
	q := r.URL.Query()
	q.Add(k, v)
	r.URL.RawQuery = q.Encode()
	return r
}

// DoAndRead sends the http request and reads the response's body.
// Responses with a status code >= 400 are returned as *RestError.
func (r *Request) DoAndRead() ([]byte, error) {
	resp, err := r.client.http.Do(r.Request)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		restErr := &RestError{}
		if err := json.Unmarshal(body, restErr); err != nil || restErr.Status == 0 {
			restErr = &RestError{
				Status:  resp.StatusCode,
				Reason:  http.StatusText(resp.StatusCode),
				Message: strings.TrimSpace(string(body)),
			}
		}
		if len(restErr.Path) == 0 {
			restErr.Path = r.URL.Path
		}
		return nil, restErr
	}
	return body, nil
}

// DoAndUnmarshall sends the http request and unmarshalls
// the response's body to the provided interface.
func (r *Request) DoAndUnmarshall(i interface{}) error {
	body, err := r.DoAndRead()
	if err != nil {
		return err
	}
	if len(body) == 0 || i == nil {
		return nil
	}
	return json.Unmarshal(body, i)
}

// Url returns the request's url as a string
func (r *Request) Url() string {
	return r.URL.String()
}

func (client *restClient) newUrl(endpoint string, pathParams ...PathParam) (string, error) {
	for _, p := range pathParams {
		endpoint = strings.ReplaceAll(
			endpoint,
			fmt.Sprintf("{%s}", p.K),
			p.V,
		)
	}
	if strings.Contains(endpoint, "{") {
		return "", errors.New(
			fmt.Sprintf(
				"Did not get all the required "+
					"path params for the endpoint '%s'",
				endpoint,
			),
		)
	}
	return client.baseUrl + endpoint, nil
}
