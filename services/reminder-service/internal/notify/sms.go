package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type NetgsmConfig struct {
	User     string
	Password string
	Header   string
}

type SMSSender interface {
	Send(ctx context.Context, cfg NetgsmConfig, to string, message string) error
	ProviderID() string
}

const netgsmDefaultURL = "https://api.netgsm.com.tr/sms/send/xml"

// NetgsmSender posts the Netgsm 1:n XML payload. The API answers with a
// plain-text code; prefixes 30, 40, 50 and 70 are documented error classes,
// anything else carries the message id and counts as accepted.
type NetgsmSender struct {
	url  string
	http *http.Client
}

func NewNetgsmSender(url string) *NetgsmSender {
	url = strings.TrimSpace(url)
	if url == "" {
		url = netgsmDefaultURL
	}
	return &NetgsmSender{
		url: url,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (s *NetgsmSender) ProviderID() string {
	return "netgsm"
}

func (s *NetgsmSender) Send(ctx context.Context, cfg NetgsmConfig, to string, message string) error {
	body := buildNetgsmBody(cfg, to, message)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, strings.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "text/xml")

	resp, err := s.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1024))
	if err != nil {
		return err
	}
	result := strings.TrimSpace(string(raw))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("netgsm returned HTTP %d", resp.StatusCode)
	}
	if !netgsmAccepted(result) {
		return fmt.Errorf("netgsm error: %s", result)
	}
	return nil
}

func netgsmAccepted(result string) bool {
	for _, code := range []string{"30", "40", "50", "70"} {
		if strings.HasPrefix(result, code) {
			return false
		}
	}
	return true
}

func buildNetgsmBody(cfg NetgsmConfig, to string, message string) string {
	return fmt.Sprintf(`<?xml version="1.0"?>
<mainbody>
    <header>
        <company dil="TR">Netgsm</company>
        <usercode>%s</usercode>
        <password>%s</password>
        <type>1:n</type>
        <msgheader>%s</msgheader>
    </header>
    <body>
        <msg><![CDATA[%s]]></msg>
        <no>%s</no>
    </body>
</mainbody>`, cfg.User, cfg.Password, cfg.Header, message, to)
}

// NoopSMSSender accepts every message without calling any provider. Used in
// dev environments where no Netgsm account exists.
type NoopSMSSender struct{}

func NewNoopSMSSender() *NoopSMSSender {
	return &NoopSMSSender{}
}

func (s *NoopSMSSender) ProviderID() string {
	return "sms-noop"
}

func (s *NoopSMSSender) Send(_ context.Context, _ NetgsmConfig, _ string, _ string) error {
	return nil
}
