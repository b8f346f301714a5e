package notify

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func netgsmTestConfig() NetgsmConfig {
	return NetgsmConfig{User: "salon", Password: "secret", Header: "SALONTAKIP"}
}

func TestNetgsmSend_AcceptedResponse(t *testing.T) {
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		gotBody = string(raw)
		// Accepted sends answer "00 <message id>".
		_, _ = w.Write([]byte("00 123456789"))
	}))
	defer srv.Close()

	sender := NewNetgsmSender(srv.URL)
	err := sender.Send(context.Background(), netgsmTestConfig(), "+905551112233", "merhaba dünya")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}

	for _, want := range []string{
		"<usercode>salon</usercode>",
		"<msgheader>SALONTAKIP</msgheader>",
		"<![CDATA[merhaba dünya]]>",
		"<no>+905551112233</no>",
	} {
		if !strings.Contains(gotBody, want) {
			t.Fatalf("request body missing %q:\n%s", want, gotBody)
		}
	}
}

func TestNetgsmSend_ErrorCodes(t *testing.T) {
	for _, code := range []string{"30", "40", "50", "70"} {
		t.Run(code, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(code))
			}))
			defer srv.Close()

			sender := NewNetgsmSender(srv.URL)
			err := sender.Send(context.Background(), netgsmTestConfig(), "+905551112233", "merhaba")
			if err == nil {
				t.Fatalf("expected error for response code %s", code)
			}
		})
	}
}

func TestNetgsmSend_HTTPFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	sender := NewNetgsmSender(srv.URL)
	if err := sender.Send(context.Background(), netgsmTestConfig(), "+905551112233", "merhaba"); err == nil {
		t.Fatal("expected error for non-2xx response")
	}
}

func TestBuildMessage_Framing(t *testing.T) {
	msg := buildMessage("Salon Takip", "ayse@example.com", "Randevu Hatırlatması", "merhaba")
	if !strings.HasPrefix(msg, "From: Salon Takip\r\n") {
		t.Fatalf("bad From header: %q", msg)
	}
	if !strings.Contains(msg, "Subject: Randevu Hatırlatması\r\n") {
		t.Fatalf("bad Subject header: %q", msg)
	}
	if !strings.Contains(msg, "charset=utf-8") {
		t.Fatalf("expected utf-8 content type: %q", msg)
	}
	if !strings.HasSuffix(msg, "\r\n\r\nmerhaba\r\n") {
		t.Fatalf("bad body framing: %q", msg)
	}
}
