// Package pid registers handles with an ePIC handle service.
package pid

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/net/html"
)

// Defaults of the GWDG handle service.
const (
	DefaultProvider = "http://pid.gwdg.de/handles/"
	DefaultPrefix   = "21.11115"
	DefaultResolver = "https://hdl.handle.net/"
)

// Client registers URLs and returns resolvable handle URLs.
type Client struct {
	Provider string
	Prefix   string
	Resolver string
	Username string
	Password string

	HTTPClient *http.Client
}

type entry struct {
	Type       string `json:"type"`
	ParsedData string `json:"parsed_data"`
}

// Register creates a handle pointing at url.
func (c *Client) Register(ctx context.Context, url string) (string, error) {
	if c.Username == "" || c.Password == "" {
		return "", fmt.Errorf("pid: username and password required")
	}
	body, err := json.Marshal([]entry{{Type: "URL", ParsedData: url}})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(c.Username, c.Password)

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("pid: %s: %s", resp.Status, errorText(resp.Header.Get("Content-Type"), payload))
	}

	handle := gjson.GetBytes(payload, "epic-pid").String()
	if handle == "" {
		return "", fmt.Errorf("pid: response without epic-pid: %s", strings.TrimSpace(string(payload)))
	}
	return c.resolver() + handle, nil
}

func (c *Client) endpoint() string {
	provider := c.Provider
	if provider == "" {
		provider = DefaultProvider
	}
	prefix := c.Prefix
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return provider + prefix + "/"
}

func (c *Client) resolver() string {
	if c.Resolver == "" {
		return DefaultResolver
	}
	return c.Resolver
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: 30 * time.Second}
}

// errorText reduces an HTML error page to its text.
func errorText(contentType string, body []byte) string {
	s := string(body)
	if !strings.Contains(contentType, "html") && !strings.HasPrefix(strings.TrimSpace(s), "<") {
		return strings.TrimSpace(s)
	}
	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		return strings.TrimSpace(s)
	}

	var parts []string
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				parts = append(parts, t)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(doc)
	return strings.Join(parts, " ")
}
