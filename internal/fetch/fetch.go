// Package fetch downloads web pages and extracts their readable article text.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"syscall"
	"time"

	readability "github.com/go-shiori/go-readability"

	"github.com/TobiSchelling/studydeck/internal/logger"
)

const (
	userAgent      = "studydeck/1.0 (study assistant)"
	maxBodyBytes   = 5 << 20
	minArticleText = 100
)

var bareURLRe = regexp.MustCompile(`^https?://\S+$`)

// IsBareURL reports whether input is a single http(s) URL and nothing else.
func IsBareURL(input string) bool {
	return bareURLRe.MatchString(strings.TrimSpace(input))
}

// Article is the readable content of a web page.
type Article struct {
	URL     string
	Title   string
	Content string
}

// ErrBlockedAddress is returned when a page resolves to a loopback,
// private, link-local or unspecified address.
var ErrBlockedAddress = errors.New("address is not publicly routable")

// ArticleResolver fetches pages over HTTP and runs readability extraction.
type ArticleResolver struct {
	client *http.Client
	log    *logger.Logger
}

// Option configures an ArticleResolver.
type Option func(*resolverOptions)

type resolverOptions struct {
	allowPrivate bool
}

// AllowPrivateAddresses lets the resolver reach loopback and private
// networks. Intended for local test servers.
func AllowPrivateAddresses() Option {
	return func(o *resolverOptions) { o.allowPrivate = true }
}

// NewArticleResolver creates a resolver. A zero timeout means 15 seconds.
// Connections to non-public addresses are refused unless allowed, and the
// check runs on every dial, redirects included.
func NewArticleResolver(timeout time.Duration, log *logger.Logger, opts ...Option) *ArticleResolver {
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	if log == nil {
		log = logger.Nop()
	}
	var o resolverOptions
	for _, opt := range opts {
		opt(&o)
	}

	dialer := &net.Dialer{Timeout: timeout}
	if !o.allowPrivate {
		dialer.Control = publicOnly
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = nil
	transport.DialContext = dialer.DialContext

	return &ArticleResolver{
		client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
		log: log,
	}
}

// publicOnly is a dialer control hook; address is the resolved ip:port.
func publicOnly(_, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return err
	}
	ip := net.ParseIP(host)
	if ip == nil || !isPublic(ip) {
		return fmt.Errorf("dial %s: %w", address, ErrBlockedAddress)
	}
	return nil
}

func isPublic(ip net.IP) bool {
	return !(ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() || ip.IsInterfaceLocalMulticast() || ip.IsUnspecified())
}

// Resolve returns the article at pageURL, or nil when the page cannot be
// fetched or holds too little readable text.
func (r *ArticleResolver) Resolve(ctx context.Context, pageURL string) *Article {
	pageURL = strings.TrimSpace(pageURL)
	parsed, err := url.Parse(pageURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return nil
	}

	body, err := r.download(ctx, pageURL)
	if err != nil {
		r.log.Warn("article fetch failed", "url", pageURL, "error", err)
		return nil
	}

	article, err := readability.FromReader(strings.NewReader(body), parsed)
	if err != nil {
		r.log.Warn("article extraction failed", "url", pageURL, "error", err)
		return nil
	}

	text := strings.TrimSpace(article.TextContent)
	if len(text) <= minArticleText {
		r.log.Info("no extractable article text", "url", pageURL)
		return nil
	}

	title := strings.TrimSpace(article.Title)
	if title == "" {
		title = parsed.Host
	}
	return &Article{URL: pageURL, Title: title, Content: text}
}

func (r *ArticleResolver) download(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", pageURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", &httpError{code: resp.StatusCode}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	return string(data), nil
}

type httpError struct {
	code int
}

func (e *httpError) Error() string {
	return fmt.Sprintf("HTTP %d %s", e.code, http.StatusText(e.code))
}
